package jobs

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeActivationMail is the task type for account activation emails.
	TaskTypeActivationMail = "mail:activation"
)

// ActivationMailPayload describes the information required to send an activation email.
type ActivationMailPayload struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewActivationMailTask constructs an Asynq task.
func NewActivationMailTask(payload ActivationMailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeActivationMail, data, asynq.MaxRetry(5)), nil
}
