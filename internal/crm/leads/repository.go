package leads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
	"github.com/meridian-crm/meridian-crm/internal/platform/db"
)

var ErrNotFound = errors.New("lead not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Lead, error)
	GetByCode(ctx context.Context, code string) (*Lead, error)
	List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error)
	Create(ctx context.Context, lead Lead) (int64, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	NextCode(ctx context.Context, year int) (string, error)
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

const leadColumns = `id, code, company_name, contact_name, email, phone, vehicle_count,
	source, status, assigned_to, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE code = $1`, code)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (r *repository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM leads WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	clause := ""
	if req.Status != nil {
		argCount++
		clause += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(*req.Status))
	}
	if req.AssignedTo != nil {
		argCount++
		clause += ` AND assigned_to = $` + strconv.Itoa(argCount)
		args = append(args, *req.AssignedTo)
	}
	if req.Search != nil && *req.Search != "" {
		argCount++
		p := `$` + strconv.Itoa(argCount)
		clause += ` AND (company_name ILIKE ` + p + ` OR contact_name ILIKE ` + p + ` OR code ILIKE ` + p + `)`
		args = append(args, "%"+*req.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += clause + ` ORDER BY created_at DESC`
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

	var result []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, lead)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, lead Lead) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO leads (code, company_name, contact_name, email, phone, vehicle_count,
			source, status, assigned_to, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id`,
		lead.Code, lead.CompanyName, lead.ContactName, lead.Email, lead.Phone,
		lead.VehicleCount, lead.Source, string(lead.Status), lead.AssignedTo,
		lead.Notes, lead.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	query := `UPDATE leads SET updated_at = NOW()`
	args := []interface{}{}
	argCount := 0
	for col, val := range fields {
		argCount++
		query += `, ` + col + ` = $` + strconv.Itoa(argCount)
		args = append(args, val)
	}
	argCount++
	query += ` WHERE id = $` + strconv.Itoa(argCount)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextCode allocates the next sequential lead code for the given year
// (L-2025-0001, L-2025-0002, ...). Callers run it inside WithTx so two
// concurrent creates cannot mint the same code.
func (r *repository) NextCode(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("L-%d-", year)
	var seq int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(SUBSTRING(code FROM 8)::int), 0) + 1
		FROM leads WHERE code LIKE $1`, prefix+"%").Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var status string
	var createdAt, updatedAt time.Time
	err := row.Scan(&lead.ID, &lead.Code, &lead.CompanyName, &lead.ContactName,
		&lead.Email, &lead.Phone, &lead.VehicleCount, &lead.Source, &status,
		&lead.AssignedTo, &lead.Notes, &lead.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return Lead{}, err
	}
	lead.Status = Status(status)
	lead.CreatedAt = createdAt
	lead.UpdatedAt = updatedAt
	return lead, nil
}
