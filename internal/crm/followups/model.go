package followups

import "time"

// FollowUp is a comment logged against a lead, optionally carrying a
// reminder. The worker flips ReminderDue once RemindAt passes; delivery is
// up to whoever reads the due list.
type FollowUp struct {
	ID           int64      `json:"id"`
	LeadID       int64      `json:"lead_id"`
	AuthorID     int64      `json:"author_id"`
	AuthorName   string     `json:"author_name,omitempty"`
	Comment      string     `json:"comment"`
	RemindAt     *time.Time `json:"remind_at,omitempty"`
	ReminderDue  bool       `json:"reminder_due"`
	ReminderDone bool       `json:"reminder_done"`
	CreatedAt    time.Time  `json:"created_at"`
}

type CreateFollowUpRequest struct {
	Comment  string     `json:"comment" validate:"required,max=2000"`
	RemindAt *time.Time `json:"remind_at,omitempty"`
}
