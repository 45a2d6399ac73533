package losses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian-crm/internal/catalog/shared"
)

var ErrNotFound = errors.New("loss record not found")

type Repository interface {
	ListReasons(ctx context.Context, activeOnly bool) ([]Reason, error)
	CreateReason(ctx context.Context, name string) (int64, error)
	DeactivateReason(ctx context.Context, id int64) error
	GetForLead(ctx context.Context, leadID int64) (*Loss, error)
	Create(ctx context.Context, loss Loss) (int64, error)
	ListByReason(ctx context.Context) ([]ReasonCount, error)
}

// ReasonCount is one row of the loss breakdown report.
type ReasonCount struct {
	ReasonID   int64  `json:"reason_id"`
	ReasonName string `json:"reason_name"`
	Count      int    `json:"count"`
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) ListReasons(ctx context.Context, activeOnly bool) ([]Reason, error) {
	query := `SELECT id, name, is_active FROM loss_reasons`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reason
	for rows.Next() {
		var reason Reason
		if err := rows.Scan(&reason.ID, &reason.Name, &reason.IsActive); err != nil {
			return nil, err
		}
		result = append(result, reason)
	}
	return result, rows.Err()
}

func (r *repository) CreateReason(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO loss_reasons (name, is_active) VALUES ($1, true) RETURNING id`, name).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) DeactivateReason(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE loss_reasons SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GetForLead(ctx context.Context, leadID int64) (*Loss, error) {
	row := r.db.QueryRow(ctx, `
		SELECT l.id, l.lead_id, l.reason_id, r.name, l.competitor, l.note, l.recorded_by, l.created_at
		FROM lead_losses l
		JOIN loss_reasons r ON r.id = l.reason_id
		WHERE l.lead_id = $1`, leadID)

	var loss Loss
	err := row.Scan(&loss.ID, &loss.LeadID, &loss.ReasonID, &loss.ReasonName,
		&loss.Competitor, &loss.Note, &loss.RecordedBy, &loss.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &loss, nil
}

func (r *repository) Create(ctx context.Context, loss Loss) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lead_losses (lead_id, reason_id, competitor, note, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id`,
		loss.LeadID, loss.ReasonID, loss.Competitor, loss.Note, loss.RecordedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) ListByReason(ctx context.Context) ([]ReasonCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.name, COUNT(l.id)
		FROM loss_reasons r
		LEFT JOIN lead_losses l ON l.reason_id = r.id
		GROUP BY r.id, r.name
		ORDER BY COUNT(l.id) DESC, r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReasonCount
	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.ReasonID, &rc.ReasonName, &rc.Count); err != nil {
			return nil, err
		}
		result = append(result, rc)
	}
	return result, rows.Err()
}
