package quotes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian-crm/internal/catalog/products"
	"github.com/meridian-crm/meridian-crm/internal/catalog/promotions"
	catalogShared "github.com/meridian-crm/meridian-crm/internal/catalog/shared"
	"github.com/meridian-crm/meridian-crm/internal/crm/leads"
)

type mockRepository struct {
	quotes  map[int64]*Quote
	lines   map[int64][]QuoteLine
	nextID  int64
	nextSeq int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{quotes: make(map[int64]*Quote), lines: make(map[int64][]QuoteLine), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *q
	clone.Lines = m.lines[id]
	return &clone, nil
}

func (m *mockRepository) List(ctx context.Context, req ListQuotesRequest) ([]QuoteWithLead, int, error) {
	var result []QuoteWithLead
	for _, q := range m.quotes {
		result = append(result, QuoteWithLead{Quote: *q})
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, quote Quote) (int64, error) {
	id := m.nextID
	m.nextID++
	quote.ID = id
	quote.CreatedAt = time.Now()
	m.quotes[id] = &quote
	return id, nil
}

func (m *mockRepository) InsertLine(ctx context.Context, line QuoteLine) (int64, error) {
	line.ID = int64(len(m.lines[line.QuoteID]) + 1)
	m.lines[line.QuoteID] = append(m.lines[line.QuoteID], line)
	return line.ID, nil
}

func (m *mockRepository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	m.nextSeq++
	return fmt.Sprintf("Q-%s-%04d", date.Format("0601"), m.nextSeq), nil
}

type mockProducts struct {
	byID map[int64]products.Product
}

func (m *mockProducts) Get(ctx context.Context, id int64) (products.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return products.Product{}, fmt.Errorf("product %d not found", id)
	}
	return p, nil
}

type mockPromotions struct {
	promos      map[int64]*promotions.Promotion
	assignments map[string]*promotions.Assignment
}

func (m *mockPromotions) Get(ctx context.Context, id int64) (*promotions.Promotion, error) {
	p, ok := m.promos[id]
	if !ok {
		return nil, fmt.Errorf("promotion %d not found", id)
	}
	return p, nil
}

func (m *mockPromotions) FindAssignment(ctx context.Context, promotionID, productID int64) (*promotions.Assignment, error) {
	return m.assignments[fmt.Sprintf("%d:%d", promotionID, productID)], nil
}

type mockLeads struct {
	leads  map[int64]*leads.Lead
	quoted []int64
}

func (m *mockLeads) Get(ctx context.Context, id int64) (*leads.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, fmt.Errorf("lead %d not found", id)
	}
	return lead, nil
}

func (m *mockLeads) MarkQuoted(ctx context.Context, id int64) error {
	m.quoted = append(m.quoted, id)
	return nil
}

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func fixtures() (*Service, *mockRepository, *mockLeads) {
	repo := newMockRepository()
	catalog := &mockProducts{byID: map[int64]products.Product{
		1: {ID: 1, Name: "GPS installation", Category: products.CategoryTariff, UnitPrice: price(2000)},
		2: {ID: 2, Name: "Fleet subscription", Category: products.CategorySubscription, UnitPrice: price(100)},
		3: {ID: 3, Name: "Driver reports", Category: products.CategoryService, UnitPrice: price(50)},
		4: {ID: 4, Name: "Panic button", Category: products.CategoryAccessory, UnitPrice: price(75)},
	}}
	promoCatalog := &mockPromotions{
		promos: map[int64]*promotions.Promotion{
			1: {
				ID:       1,
				Name:     "Fleet deal",
				StartsAt: time.Now().AddDate(0, -1, 0),
				EndsAt:   time.Now().AddDate(0, 1, 0),
				IsActive: true,
			},
		},
		assignments: map[string]*promotions.Assignment{
			"1:4": {PromotionID: 1, ProductID: 4, Mode: promotions.Mode2x1},
		},
	}
	leadDir := &mockLeads{leads: map[int64]*leads.Lead{
		9: {ID: 9, Code: "L-2025-0009", CompanyName: "TransLogis SA", VehicleCount: 4, Status: leads.StatusContacted},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, repo, catalog, promoCatalog, leadDir)
	return svc, repo, leadDir
}

func fleetRequest() QuoteRequest {
	return QuoteRequest{
		LeadID:       9,
		VehicleCount: 4,
		Installation: LineInput{ProductID: 1, Quantity: 1},
		Subscription: LineInput{ProductID: 2, AllVehicles: true},
		Services:     []LineInput{{ProductID: 3, AllVehicles: true}},
		Accessories:  []LineInput{{ProductID: 4, Quantity: 4}},
	}
}

func TestPreviewComputesFleetTotals(t *testing.T) {
	svc, _, _ := fixtures()

	totals, err := svc.Preview(context.Background(), fleetRequest())
	require.NoError(t, err)

	// installation 2000, subscription 4x100, services 4x50, accessories 4x75
	assert.True(t, totals.InitialInvestment.Equal(price(2300)), "initial investment %s", totals.InitialInvestment)
	assert.True(t, totals.RecurringMonthly.Equal(price(600)), "recurring %s", totals.RecurringMonthly)
	assert.True(t, totals.GrandTotal.Equal(totals.FirstMonthTotal))
}

func TestPreviewAppliesPromotionPack(t *testing.T) {
	svc, _, _ := fixtures()

	promoID := int64(1)
	req := fleetRequest()
	req.PromotionID = &promoID
	req.AdhocPct = "10"

	totals, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)

	// Accessories are 2x1: 4 units pay 2 -> 150. The 10% ad-hoc discount
	// hits the remaining lines.
	require.Len(t, totals.Accessories, 1)
	assert.True(t, totals.Accessories[0].Subtotal.Equal(price(150)), "accessory subtotal %s", totals.Accessories[0].Subtotal)
	assert.Equal(t, "2x1", totals.Accessories[0].Label)
	assert.True(t, totals.Installation.Subtotal.Equal(price(1800)), "installation subtotal %s", totals.Installation.Subtotal)
}

func TestPreviewRejectsOutOfRangeAdhocPct(t *testing.T) {
	svc, _, _ := fixtures()

	for _, pct := range []string{"150", "100.01", "-5", "abc"} {
		req := fleetRequest()
		req.AdhocPct = pct

		_, err := svc.Preview(context.Background(), req)
		require.ErrorIs(t, err, catalogShared.ErrValidation, "pct %q", pct)
	}

	// The boundaries themselves are valid: a 100% bonification zeroes the
	// quote but never turns it negative.
	req := fleetRequest()
	req.AdhocPct = "100"
	totals, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, totals.GrandTotal.IsZero(), "grand total %s", totals.GrandTotal)
}

func TestCreateRejectsOutOfRangeAdhocPct(t *testing.T) {
	svc, repo, _ := fixtures()

	req := fleetRequest()
	req.AdhocPct = "150"

	_, err := svc.Create(context.Background(), req, 3)
	require.ErrorIs(t, err, catalogShared.ErrValidation)
	assert.Empty(t, repo.quotes)
}

func TestCreatePersistsPreviewFigures(t *testing.T) {
	svc, repo, leadDir := fixtures()
	req := fleetRequest()

	preview, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)

	quote, err := svc.Create(context.Background(), req, 3)
	require.NoError(t, err)

	assert.Equal(t, preview.GrandTotal.String(), quote.GrandTotal.String())
	assert.Equal(t, preview.FirstMonthTotal.String(), quote.FirstMonthTotal.String())
	assert.Equal(t, preview.InitialInvestment.String(), quote.InitialInvestment.String())
	assert.Regexp(t, `^Q-\d{4}-\d{4}$`, quote.DocNumber)
	assert.Len(t, repo.lines[quote.ID], 4)
	assert.Equal(t, []int64{9}, leadDir.quoted)
}

func TestCreateSkipsIncompleteLines(t *testing.T) {
	svc, repo, _ := fixtures()

	req := fleetRequest()
	req.Services = append(req.Services, LineInput{})

	quote, err := svc.Create(context.Background(), req, 3)
	require.NoError(t, err)
	assert.Len(t, repo.lines[quote.ID], 4)
}

func TestCreateRequiresAMainLine(t *testing.T) {
	svc, _, _ := fixtures()

	req := fleetRequest()
	req.Installation = LineInput{}
	req.Subscription = LineInput{}

	_, err := svc.Create(context.Background(), req, 3)
	require.Error(t, err)
}

func TestCreateRejectsInactivePromotion(t *testing.T) {
	svc, _, _ := fixtures()
	svc.clock = func() time.Time { return time.Now().AddDate(0, 3, 0) }

	promoID := int64(1)
	req := fleetRequest()
	req.PromotionID = &promoID

	_, err := svc.Create(context.Background(), req, 3)
	require.Error(t, err)
}

func TestCreateRejectsUnknownLead(t *testing.T) {
	svc, _, _ := fixtures()

	req := fleetRequest()
	req.LeadID = 404

	_, err := svc.Create(context.Background(), req, 3)
	require.Error(t, err)
}
