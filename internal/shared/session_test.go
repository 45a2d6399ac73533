package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-crm/meridian-crm/internal/shared"
	_ "github.com/meridian-crm/meridian-crm/testing"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser("42")
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	cookies := res.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie to be set")
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("load persisted session: %v", err)
	}
	if loaded.User() != "42" {
		t.Fatalf("expected user 42, got %q", loaded.User())
	}
	if loaded.Get("theme") != "dark" {
		t.Fatalf("expected stored value to survive the round trip")
	}
}

func TestSessionFlashDeliveredOnce(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Saved"})
	sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "Heads up"})

	first := sess.PopFlash()
	if first == nil || first.Message != "Saved" {
		t.Fatalf("expected oldest flash first, got %+v", first)
	}
	second := sess.PopFlash()
	if second == nil || second.Kind != "info" {
		t.Fatalf("expected remaining flash, got %+v", second)
	}
	if extra := sess.PopFlash(); extra != nil {
		t.Fatalf("expected flashes to be consumed, got %+v", extra)
	}

	// Unread flashes are dropped on commit so they cannot replay forever.
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Stale"})
	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if flash := loaded.PopFlash(); flash != nil {
		t.Fatalf("expected no persisted flash, got %+v", flash)
	}
}

func TestSessionDestroyClearsCookie(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser("7")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	sm.Destroy(sess)
	destroyRes := httptest.NewRecorder()
	if err := sm.Commit(ctx, destroyRes, req, sess); err != nil {
		t.Fatalf("commit destroyed session: %v", err)
	}

	cookies := destroyRes.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected expiring cookie")
	}
	if cookies[0].MaxAge != -1 {
		t.Fatalf("expected MaxAge -1, got %d", cookies[0].MaxAge)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("load after destroy: %v", err)
	}
	if loaded.User() != "" {
		t.Fatalf("expected fresh session after destroy, got user %q", loaded.User())
	}
}
