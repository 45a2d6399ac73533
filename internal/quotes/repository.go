package quotes

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-crm/meridian-crm/internal/platform/db"
)

var ErrNotFound = errors.New("quote not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]QuoteWithLead, int, error)
	Create(ctx context.Context, quote Quote) (int64, error)
	InsertLine(ctx context.Context, line QuoteLine) (int64, error)
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quoteColumns = `q.id, q.doc_number, q.lead_id, l.company_name, q.quote_date, q.valid_until,
	q.vehicle_count, q.promotion_id, q.adhoc_pct, q.notes,
	q.total_services, q.total_accessories, q.initial_investment, q.recurring_monthly,
	q.first_month_total, q.grand_total, q.created_by, q.created_at, q.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes q
		JOIN leads l ON l.id = q.lead_id
		WHERE q.id = $1`, id)
	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, err
	}
	quote.Lines = lines
	return &quote, nil
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]QuoteWithLead, int, error) {
	baseFrom := ` FROM quotes q JOIN leads l ON l.id = q.lead_id WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	clause := ""
	if req.LeadID != nil {
		argCount++
		clause += ` AND q.lead_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.LeadID)
	}
	if req.Search != nil && *req.Search != "" {
		argCount++
		p := `$` + strconv.Itoa(argCount)
		clause += ` AND (q.doc_number ILIKE ` + p + ` OR l.company_name ILIKE ` + p + `)`
		args = append(args, "%"+*req.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+baseFrom+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + quoteColumns + `, l.code` + baseFrom + clause + ` ORDER BY q.created_at DESC`
	if req.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, req.Limit)
	}
	if req.Offset > 0 {
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []QuoteWithLead
	for rows.Next() {
		item, err := scanQuoteWithLead(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, item)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, quote Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (doc_number, lead_id, quote_date, valid_until, vehicle_count,
			promotion_id, adhoc_pct, notes, total_services, total_accessories,
			initial_investment, recurring_monthly, first_month_total, grand_total,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id`,
		quote.DocNumber, quote.LeadID, quote.QuoteDate, quote.ValidUntil, quote.VehicleCount,
		quote.PromotionID, quote.AdhocPct.String(), quote.Notes,
		quote.TotalServices.String(), quote.TotalAccessories.String(),
		quote.InitialInvestment.String(), quote.RecurringMonthly.String(),
		quote.FirstMonthTotal.String(), quote.GrandTotal.String(),
		quote.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line QuoteLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quote_lines (quote_id, section, product_id, product_name, unit_price,
			quantity, all_vehicles, rule_label, base, discount, subtotal, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		line.QuoteID, string(line.Section), line.ProductID, line.ProductName,
		line.UnitPrice.String(), line.Quantity, line.AllVehicles, line.RuleLabel,
		line.Base.String(), line.Discount.String(), line.Subtotal.String(),
		line.LineOrder).Scan(&id)
	return id, err
}

// GenerateNumber allocates Q-{YY}{MM}-{SEQ} using an upsert on the
// document_sequences table, so concurrent creates get distinct numbers.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq`, "Q", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return "Q-" + date.Format("0601") + "-" + padSeq(seq), nil
}

func padSeq(seq int64) string {
	s := strconv.FormatInt(seq, 10)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func (r *repository) listLines(ctx context.Context, quoteID int64) ([]QuoteLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, section, product_id, product_name, unit_price,
			quantity, all_vehicles, rule_label, base, discount, subtotal, line_order
		FROM quote_lines
		WHERE quote_id = $1
		ORDER BY line_order`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []QuoteLine
	for rows.Next() {
		var line QuoteLine
		var section string
		var unitPrice, base, discount, subtotal pgtype.Numeric
		err := rows.Scan(&line.ID, &line.QuoteID, &section, &line.ProductID,
			&line.ProductName, &unitPrice, &line.Quantity, &line.AllVehicles,
			&line.RuleLabel, &base, &discount, &subtotal, &line.LineOrder)
		if err != nil {
			return nil, err
		}
		line.Section = Section(section)
		line.UnitPrice = numericToDecimal(unitPrice)
		line.Base = numericToDecimal(base)
		line.Discount = numericToDecimal(discount)
		line.Subtotal = numericToDecimal(subtotal)
		result = append(result, line)
	}
	return result, rows.Err()
}

// numericToDecimal converts a scanned NUMERIC without a float64 hop, so
// stored figures come back digit for digit as they were written.
func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	var adhocPct, totalServices, totalAccessories, initialInvestment pgtype.Numeric
	var recurringMonthly, firstMonthTotal, grandTotal pgtype.Numeric
	err := row.Scan(&q.ID, &q.DocNumber, &q.LeadID, &q.LeadName, &q.QuoteDate, &q.ValidUntil,
		&q.VehicleCount, &q.PromotionID, &adhocPct, &q.Notes,
		&totalServices, &totalAccessories, &initialInvestment, &recurringMonthly,
		&firstMonthTotal, &grandTotal, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return Quote{}, err
	}
	q.AdhocPct = numericToDecimal(adhocPct)
	q.TotalServices = numericToDecimal(totalServices)
	q.TotalAccessories = numericToDecimal(totalAccessories)
	q.InitialInvestment = numericToDecimal(initialInvestment)
	q.RecurringMonthly = numericToDecimal(recurringMonthly)
	q.FirstMonthTotal = numericToDecimal(firstMonthTotal)
	q.GrandTotal = numericToDecimal(grandTotal)
	return q, nil
}

func scanQuoteWithLead(row pgx.Row) (QuoteWithLead, error) {
	var q QuoteWithLead
	var adhocPct, totalServices, totalAccessories, initialInvestment pgtype.Numeric
	var recurringMonthly, firstMonthTotal, grandTotal pgtype.Numeric
	err := row.Scan(&q.ID, &q.DocNumber, &q.LeadID, &q.CompanyName, &q.QuoteDate, &q.ValidUntil,
		&q.VehicleCount, &q.PromotionID, &adhocPct, &q.Notes,
		&totalServices, &totalAccessories, &initialInvestment, &recurringMonthly,
		&firstMonthTotal, &grandTotal, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt, &q.LeadCode)
	if err != nil {
		return QuoteWithLead{}, err
	}
	q.LeadName = q.CompanyName
	q.AdhocPct = numericToDecimal(adhocPct)
	q.TotalServices = numericToDecimal(totalServices)
	q.TotalAccessories = numericToDecimal(totalAccessories)
	q.InitialInvestment = numericToDecimal(initialInvestment)
	q.RecurringMonthly = numericToDecimal(recurringMonthly)
	q.FirstMonthTotal = numericToDecimal(firstMonthTotal)
	q.GrandTotal = numericToDecimal(grandTotal)
	return q, nil
}
