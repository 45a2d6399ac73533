package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
)

type mockRepository struct {
	promotions  map[int64]*Promotion
	assignments map[int64][]Assignment
	nextID      int64
	nextAssignID int64
	txError     error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		promotions:  make(map[int64]*Promotion),
		assignments: make(map[int64][]Assignment),
		nextID:      1,
		nextAssignID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Promotion, error) {
	p, ok := m.promotions[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	clone.Assignments = m.assignments[id]
	return &clone, nil
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]Promotion, int, error) {
	var result []Promotion
	for _, p := range m.promotions {
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (m *mockRepository) ListActiveOn(ctx context.Context, day time.Time) ([]Promotion, error) {
	var result []Promotion
	for id, p := range m.promotions {
		if p.ActiveOn(day) {
			clone := *p
			clone.Assignments = m.assignments[id]
			result = append(result, clone)
		}
	}
	return result, nil
}

func (m *mockRepository) Create(ctx context.Context, promo Promotion) (int64, error) {
	id := m.nextID
	m.nextID++
	promo.ID = id
	m.promotions[id] = &promo
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, promo Promotion) error {
	if _, ok := m.promotions[id]; !ok {
		return ErrNotFound
	}
	promo.ID = id
	m.promotions[id] = &promo
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	p, ok := m.promotions[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (m *mockRepository) InsertAssignment(ctx context.Context, a Assignment) (int64, error) {
	a.ID = m.nextAssignID
	m.nextAssignID++
	m.assignments[a.PromotionID] = append(m.assignments[a.PromotionID], a)
	return a.ID, nil
}

func (m *mockRepository) DeleteAssignments(ctx context.Context, promotionID int64) error {
	delete(m.assignments, promotionID)
	return nil
}

func (m *mockRepository) GetAssignment(ctx context.Context, promotionID, productID int64) (*Assignment, error) {
	for _, a := range m.assignments[promotionID] {
		if a.ProductID == productID {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func validPromotion() Promotion {
	return Promotion{
		Name:     "Spring fleet deal",
		StartsAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		IsActive: true,
		Assignments: []Assignment{
			{ProductID: 10, Mode: Mode2x1},
			{ProductID: 11, Mode: ModePercentage, Bonification: decimal.NewFromInt(15), MinQuantity: 2},
		},
	}
}

func TestCreatePromotionStoresAssignments(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validPromotion())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Len(t, created.Assignments, 2)
	assert.Equal(t, created.ID, created.Assignments[0].PromotionID)
}

func TestCreatePromotionRejectsBadBonification(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	promo := validPromotion()
	promo.Assignments[1].Bonification = decimal.NewFromInt(150)

	_, err := svc.Create(context.Background(), promo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 100")
}

func TestCreatePromotionRejectsInvertedDates(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	promo := validPromotion()
	promo.EndsAt = promo.StartsAt.AddDate(0, -1, 0)

	_, err := svc.Create(context.Background(), promo)
	require.Error(t, err)
}

func TestUpdatePromotionReplacesAssignments(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validPromotion())
	require.NoError(t, err)

	updated := validPromotion()
	updated.Assignments = []Assignment{{ProductID: 99, Mode: Mode3x2}}

	result, err := svc.Update(context.Background(), created.ID, updated)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, int64(99), result.Assignments[0].ProductID)
	assert.Equal(t, Mode3x2, result.Assignments[0].Mode)
}

func TestFindAssignmentMissingIsNotAnError(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validPromotion())
	require.NoError(t, err)

	a, err := svc.FindAssignment(context.Background(), created.ID, 12345)
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = svc.FindAssignment(context.Background(), created.ID, 10)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, Mode2x1, a.Mode)
}

func TestListActiveOnRespectsDateRange(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), validPromotion())
	require.NoError(t, err)

	active, err := svc.ListActiveOn(context.Background(), time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, active, 1)

	active, err = svc.ListActiveOn(context.Background(), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, active)
}
