package followups

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("follow-up not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*FollowUp, error)
	ListForLead(ctx context.Context, leadID int64) ([]FollowUp, error)
	Create(ctx context.Context, f FollowUp) (int64, error)
	MarkDue(ctx context.Context, id int64) error
	MarkDueBefore(ctx context.Context, cutoff time.Time) (int64, error)
	MarkDone(ctx context.Context, id int64) error
	ListDue(ctx context.Context, limit int) ([]FollowUp, error)
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

const followUpColumns = `f.id, f.lead_id, f.author_id, COALESCE(u.full_name, ''), f.comment,
	f.remind_at, f.reminder_due, f.reminder_done, f.created_at`

func (r *repository) Get(ctx context.Context, id int64) (*FollowUp, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+followUpColumns+`
		FROM lead_followups f
		LEFT JOIN users u ON u.id = f.author_id
		WHERE f.id = $1`, id)
	f, err := scanFollowUp(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *repository) ListForLead(ctx context.Context, leadID int64) ([]FollowUp, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+followUpColumns+`
		FROM lead_followups f
		LEFT JOIN users u ON u.id = f.author_id
		WHERE f.lead_id = $1
		ORDER BY f.created_at DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *repository) Create(ctx context.Context, f FollowUp) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lead_followups (lead_id, author_id, comment, remind_at, reminder_due, reminder_done, created_at)
		VALUES ($1, $2, $3, $4, false, false, NOW())
		RETURNING id`,
		f.LeadID, f.AuthorID, f.Comment, f.RemindAt).Scan(&id)
	return id, err
}

// MarkDue flags a single pending reminder. Already-done reminders are left
// untouched so a late task cannot resurrect them.
func (r *repository) MarkDue(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE lead_followups
		SET reminder_due = true
		WHERE id = $1 AND NOT reminder_done`, id)
	return err
}

// MarkDueBefore flags every pending reminder whose time has passed and
// returns how many rows it touched.
func (r *repository) MarkDueBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE lead_followups
		SET reminder_due = true
		WHERE remind_at IS NOT NULL AND remind_at <= $1
		  AND NOT reminder_due AND NOT reminder_done`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) MarkDone(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE lead_followups SET reminder_done = true, reminder_due = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListDue(ctx context.Context, limit int) ([]FollowUp, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+followUpColumns+`
		FROM lead_followups f
		LEFT JOIN users u ON u.id = f.author_id
		WHERE f.reminder_due AND NOT f.reminder_done
		ORDER BY f.remind_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func scanFollowUp(row pgx.Row) (FollowUp, error) {
	var f FollowUp
	err := row.Scan(&f.ID, &f.LeadID, &f.AuthorID, &f.AuthorName, &f.Comment,
		&f.RemindAt, &f.ReminderDue, &f.ReminderDone, &f.CreatedAt)
	if err != nil {
		return FollowUp{}, err
	}
	return f, nil
}
