package losses

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
	reasons      map[int64]*Reason
	losses       map[int64]*Loss
	nextReasonID int64
	nextLossID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		reasons:      make(map[int64]*Reason),
		losses:       make(map[int64]*Loss),
		nextReasonID: 1,
		nextLossID:   1,
	}
}

func (m *mockRepository) ListReasons(ctx context.Context, activeOnly bool) ([]Reason, error) {
	var result []Reason
	for _, reason := range m.reasons {
		if activeOnly && !reason.IsActive {
			continue
		}
		result = append(result, *reason)
	}
	return result, nil
}

func (m *mockRepository) CreateReason(ctx context.Context, name string) (int64, error) {
	id := m.nextReasonID
	m.nextReasonID++
	m.reasons[id] = &Reason{ID: id, Name: name, IsActive: true}
	return id, nil
}

func (m *mockRepository) DeactivateReason(ctx context.Context, id int64) error {
	reason, ok := m.reasons[id]
	if !ok {
		return ErrNotFound
	}
	reason.IsActive = false
	return nil
}

func (m *mockRepository) GetForLead(ctx context.Context, leadID int64) (*Loss, error) {
	for _, loss := range m.losses {
		if loss.LeadID == leadID {
			clone := *loss
			if reason, ok := m.reasons[loss.ReasonID]; ok {
				clone.ReasonName = reason.Name
			}
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) Create(ctx context.Context, loss Loss) (int64, error) {
	loss.ID = m.nextLossID
	m.nextLossID++
	loss.CreatedAt = time.Now()
	m.losses[loss.ID] = &loss
	return loss.ID, nil
}

func (m *mockRepository) ListByReason(ctx context.Context) ([]ReasonCount, error) {
	counts := make(map[int64]int)
	for _, loss := range m.losses {
		counts[loss.ReasonID]++
	}
	var result []ReasonCount
	for id, reason := range m.reasons {
		result = append(result, ReasonCount{ReasonID: id, ReasonName: reason.Name, Count: counts[id]})
	}
	return result, nil
}

type mockLeadCloser struct {
	closed []int64
}

func (m *mockLeadCloser) MarkLost(ctx context.Context, id int64) error {
	m.closed = append(m.closed, id)
	return nil
}

func newTestService() (*Service, *mockRepository, *mockLeadCloser) {
	repo := newMockRepository()
	closer := &mockLeadCloser{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, closer), repo, closer
}

func TestRecordLossClosesLead(t *testing.T) {
	svc, repo, closer := newTestService()
	reasonID, err := repo.CreateReason(context.Background(), "Competitor price")
	require.NoError(t, err)

	competitor := "FleetRival"
	loss, err := svc.Record(context.Background(), 9, RecordLossRequest{
		ReasonID:   reasonID,
		Competitor: &competitor,
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, "Competitor price", loss.ReasonName)
	assert.Equal(t, []int64{9}, closer.closed)
}

func TestRecordLossTwiceFails(t *testing.T) {
	svc, repo, _ := newTestService()
	reasonID, err := repo.CreateReason(context.Background(), "No budget")
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), 9, RecordLossRequest{ReasonID: reasonID}, 3)
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), 9, RecordLossRequest{ReasonID: reasonID}, 3)
	require.Error(t, err)
}

func TestRecordLossRequiresReason(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Record(context.Background(), 9, RecordLossRequest{}, 3)
	require.Error(t, err)
}

func TestCreateReasonTrimsAndRejectsEmpty(t *testing.T) {
	svc, repo, _ := newTestService()

	id, err := svc.CreateReason(context.Background(), "  Slow response  ")
	require.NoError(t, err)
	assert.Equal(t, "Slow response", repo.reasons[id].Name)

	_, err = svc.CreateReason(context.Background(), "   ")
	require.Error(t, err)
}

func TestBreakdownCountsPerReason(t *testing.T) {
	svc, repo, _ := newTestService()
	priceID, _ := repo.CreateReason(context.Background(), "Price")
	otherID, _ := repo.CreateReason(context.Background(), "Other")

	for i, leadID := range []int64{1, 2, 3} {
		reason := priceID
		if i == 2 {
			reason = otherID
		}
		_, err := svc.Record(context.Background(), leadID, RecordLossRequest{ReasonID: reason}, 3)
		require.NoError(t, err)
	}

	breakdown, err := svc.Breakdown(context.Background())
	require.NoError(t, err)

	byName := make(map[string]int)
	for _, rc := range breakdown {
		byName[rc.ReasonName] = rc.Count
	}
	assert.Equal(t, 2, byName["Price"])
	assert.Equal(t, 1, byName["Other"])
}
