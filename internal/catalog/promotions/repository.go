package promotions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
	"github.com/meridian-crm/meridian-crm/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Promotion, error)
	List(ctx context.Context, filters shared.ListFilters) ([]Promotion, int, error)
	ListActiveOn(ctx context.Context, day time.Time) ([]Promotion, error)
	Create(ctx context.Context, promo Promotion) (int64, error)
	Update(ctx context.Context, id int64, promo Promotion) error
	Delete(ctx context.Context, id int64) error
	InsertAssignment(ctx context.Context, a Assignment) (int64, error)
	DeleteAssignments(ctx context.Context, promotionID int64) error
	GetAssignment(ctx context.Context, promotionID, productID int64) (*Assignment, error)
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

const promotionColumns = `id, name, starts_at, ends_at, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Promotion, error) {
	row := r.db.QueryRow(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	promo, err := scanPromotion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	assignments, err := r.listAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	promo.Assignments = assignments
	return &promo, nil
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Promotion, int, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM promotions WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	clause := ""
	if filters.Search != "" {
		argCount++
		clause += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		clause += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += clause + ` ORDER BY starts_at DESC, name`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		if filters.Page > 1 {
			argCount++
			query += ` OFFSET $` + strconv.Itoa(argCount)
			args = append(args, (filters.Page-1)*filters.Limit)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Promotion
	for rows.Next() {
		promo, err := scanPromotion(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, promo)
	}
	return result, total, rows.Err()
}

func (r *repository) ListActiveOn(ctx context.Context, day time.Time) ([]Promotion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+promotionColumns+` FROM promotions
		WHERE is_active AND starts_at <= $1 AND (ends_at IS NULL OR ends_at >= $1)
		ORDER BY name`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Promotion
	for rows.Next() {
		promo, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, promo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		assignments, err := r.listAssignments(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Assignments = assignments
	}
	return result, nil
}

func (r *repository) Create(ctx context.Context, promo Promotion) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO promotions (name, starts_at, ends_at, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, '0001-01-01'::timestamptz), $4, NOW(), NOW())
		RETURNING id`,
		promo.Name, promo.StartsAt, promo.EndsAt, promo.IsActive).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, promo Promotion) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE promotions
		SET name = $1, starts_at = $2, ends_at = NULLIF($3, '0001-01-01'::timestamptz), is_active = $4, updated_at = NOW()
		WHERE id = $5`,
		promo.Name, promo.StartsAt, promo.EndsAt, promo.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE promotions SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertAssignment(ctx context.Context, a Assignment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO promotion_assignments (promotion_id, product_id, mode, bonification, min_quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		a.PromotionID, a.ProductID, a.Mode, a.Bonification.String(), a.MinQuantity).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) DeleteAssignments(ctx context.Context, promotionID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM promotion_assignments WHERE promotion_id = $1`, promotionID)
	return err
}

func (r *repository) GetAssignment(ctx context.Context, promotionID, productID int64) (*Assignment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT a.id, a.promotion_id, a.product_id, p.name, a.mode, a.bonification, a.min_quantity
		FROM promotion_assignments a
		JOIN products p ON p.id = a.product_id
		WHERE a.promotion_id = $1 AND a.product_id = $2`,
		promotionID, productID)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) listAssignments(ctx context.Context, promotionID int64) ([]Assignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.promotion_id, a.product_id, p.name, a.mode, a.bonification, a.min_quantity
		FROM promotion_assignments a
		JOIN products p ON p.id = a.product_id
		WHERE a.promotion_id = $1
		ORDER BY p.name`, promotionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanPromotion(row pgx.Row) (Promotion, error) {
	var promo Promotion
	var endsAt *time.Time
	if err := row.Scan(&promo.ID, &promo.Name, &promo.StartsAt, &endsAt, &promo.IsActive, &promo.CreatedAt, &promo.UpdatedAt); err != nil {
		return Promotion{}, err
	}
	if endsAt != nil {
		promo.EndsAt = *endsAt
	}
	return promo, nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var bonification float64
	if err := row.Scan(&a.ID, &a.PromotionID, &a.ProductID, &a.ProductName, &a.Mode, &bonification, &a.MinQuantity); err != nil {
		return Assignment{}, err
	}
	a.Bonification = decimal.NewFromFloat(bonification)
	return a, nil
}
