package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeFollowUpReminder flags a single follow-up reminder as due.
	TaskTypeFollowUpReminder = "crm:followup_reminder"
	// TaskTypeReminderScan sweeps for reminders whose time has passed.
	TaskTypeReminderScan = "crm:reminder_scan"
)

// FollowUpReminderPayload identifies the follow-up whose reminder came due.
type FollowUpReminderPayload struct {
	FollowUpID int64 `json:"follow_up_id"`
	LeadID     int64 `json:"lead_id"`
}

// NewFollowUpReminderTask constructs an Asynq task for a single reminder.
func NewFollowUpReminderTask(payload FollowUpReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeFollowUpReminder, data), nil
}

// NewReminderScanTask constructs the periodic sweep task. It carries no
// payload; the handler derives the cutoff from the current time.
func NewReminderScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeReminderScan, nil)
}
