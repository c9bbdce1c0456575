// Package queue moves outbound mail off the request path. Tasks are enqueued
// on asynq when Redis is configured and processed inline otherwise.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeLoginCode    = "mail:login_code"
	TypeInvitation   = "mail:invitation"
	TypeRSVPReminder = "mail:rsvp_reminder"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// LoginCodePayload carries a one-time login code to its owner.
type LoginCodePayload struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InvitationPayload tells an invitee about an event.
type InvitationPayload struct {
	Email       string     `json:"email"`
	InviteeName string     `json:"invitee_name"`
	InviterName string     `json:"inviter_name"`
	EventTitle  string     `json:"event_title"`
	EventStart  time.Time  `json:"event_start"`
	EventEnd    *time.Time `json:"event_end,omitempty"`
	Location    string     `json:"location,omitempty"`
	Code        string     `json:"code"`
}

// ReminderPayload nudges an invitee who has not answered before the RSVP deadline.
type ReminderPayload struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	EventID    string    `json:"event_id"`
	EventTitle string    `json:"event_title"`
	EventStart time.Time `json:"event_start"`
	Deadline   time.Time `json:"deadline"`
}

func NewLoginCodeTask(p LoginCodePayload) (*asynq.Task, error) {
	return newTask(TypeLoginCode, p, asynq.Queue(QueueCritical), asynq.MaxRetry(3), asynq.Timeout(30*time.Second))
}

func NewInvitationTask(p InvitationPayload) (*asynq.Task, error) {
	return newTask(TypeInvitation, p, asynq.Queue(QueueDefault), asynq.MaxRetry(5), asynq.Timeout(time.Minute))
}

// NewRSVPReminderTask builds a reminder task. The task ID makes repeated
// sweeps for the same invitee and event collapse into one task.
func NewRSVPReminderTask(p ReminderPayload) (*asynq.Task, error) {
	return newTask(TypeRSVPReminder, p,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.TaskID(fmt.Sprintf("reminder:%s:%s", p.EventID, p.Email)),
	)
}

func newTask(taskType string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: encode %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body, opts...), nil
}
