package followups

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	followups map[int64]*FollowUp
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{followups: make(map[int64]*FollowUp), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*FollowUp, error) {
	f, ok := m.followups[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *f
	return &clone, nil
}

func (m *mockRepository) ListForLead(ctx context.Context, leadID int64) ([]FollowUp, error) {
	var result []FollowUp
	for _, f := range m.followups {
		if f.LeadID == leadID {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockRepository) Create(ctx context.Context, f FollowUp) (int64, error) {
	f.ID = m.nextID
	m.nextID++
	f.CreatedAt = time.Now()
	m.followups[f.ID] = &f
	return f.ID, nil
}

func (m *mockRepository) MarkDue(ctx context.Context, id int64) error {
	if f, ok := m.followups[id]; ok && !f.ReminderDone {
		f.ReminderDue = true
	}
	return nil
}

func (m *mockRepository) MarkDueBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, f := range m.followups {
		if f.RemindAt != nil && !f.RemindAt.After(cutoff) && !f.ReminderDue && !f.ReminderDone {
			f.ReminderDue = true
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) MarkDone(ctx context.Context, id int64) error {
	f, ok := m.followups[id]
	if !ok {
		return ErrNotFound
	}
	f.ReminderDone = true
	f.ReminderDue = false
	return nil
}

func (m *mockRepository) ListDue(ctx context.Context, limit int) ([]FollowUp, error) {
	var result []FollowUp
	for _, f := range m.followups {
		if f.ReminderDue && !f.ReminderDone {
			result = append(result, *f)
		}
	}
	return result, nil
}

type mockScheduler struct {
	enqueued []int64
	err      error
}

func (m *mockScheduler) EnqueueReminder(ctx context.Context, followUpID, leadID int64, remindAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, followUpID)
	return nil
}

func newTestService() (*Service, *mockRepository, *mockScheduler) {
	repo := newMockRepository()
	sched := &mockScheduler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, sched), repo, sched
}

func TestAddCommentWithoutReminder(t *testing.T) {
	svc, _, sched := newTestService()

	f, err := svc.Add(context.Background(), 5, 2, CreateFollowUpRequest{Comment: "called, asked for pricing"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.LeadID)
	assert.Nil(t, f.RemindAt)
	assert.Empty(t, sched.enqueued)
}

func TestAddReminderEnqueuesTask(t *testing.T) {
	svc, _, sched := newTestService()

	remindAt := time.Now().Add(48 * time.Hour)
	f, err := svc.Add(context.Background(), 5, 2, CreateFollowUpRequest{
		Comment:  "send revised quote",
		RemindAt: &remindAt,
	})
	require.NoError(t, err)
	require.Len(t, sched.enqueued, 1)
	assert.Equal(t, f.ID, sched.enqueued[0])
}

func TestAddRejectsEmptyComment(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Add(context.Background(), 5, 2, CreateFollowUpRequest{Comment: "   "})
	require.Error(t, err)
}

func TestAddRejectsPastReminder(t *testing.T) {
	svc, _, _ := newTestService()

	past := time.Now().Add(-time.Hour)
	_, err := svc.Add(context.Background(), 5, 2, CreateFollowUpRequest{Comment: "x", RemindAt: &past})
	require.Error(t, err)
}

func TestEnqueueFailureDoesNotLoseComment(t *testing.T) {
	repo := newMockRepository()
	sched := &mockScheduler{err: context.DeadlineExceeded}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, repo, sched)

	remindAt := time.Now().Add(time.Hour)
	f, err := svc.Add(context.Background(), 5, 2, CreateFollowUpRequest{Comment: "x", RemindAt: &remindAt})
	require.NoError(t, err)
	assert.NotNil(t, repo.followups[f.ID])
}

func TestDueScanFlagsOnlyPendingPastReminders(t *testing.T) {
	svc, repo, _ := newTestService()
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	repo.followups[1] = &FollowUp{ID: 1, LeadID: 1, RemindAt: &past}
	repo.followups[2] = &FollowUp{ID: 2, LeadID: 1, RemindAt: &future}
	repo.followups[3] = &FollowUp{ID: 3, LeadID: 1, RemindAt: &past, ReminderDone: true}
	repo.nextID = 4

	n, err := repo.MarkDueBefore(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	due, err := svc.ListDue(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(1), due[0].ID)
}
