package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client enqueues mail tasks.
type Client struct {
	enqueuer enqueuer
}

// NewClient enqueues onto Redis through asynq.
func NewClient(client *asynq.Client) *Client {
	return &Client{enqueuer: client}
}

// NewInlineClient runs every task immediately on handler within the caller's
// request. It serves deployments without Redis.
func NewInlineClient(handler *Handler) *Client {
	return &Client{enqueuer: inlineEnqueuer{mux: handler.ServeMux()}}
}

func (c *Client) EnqueueLoginCode(ctx context.Context, p LoginCodePayload) error {
	return enqueueTask(ctx, c.enqueuer, NewLoginCodeTask, p)
}

func (c *Client) EnqueueInvitation(ctx context.Context, p InvitationPayload) error {
	return enqueueTask(ctx, c.enqueuer, NewInvitationTask, p)
}

// EnqueueRSVPReminder ignores a reminder that is already queued for the same invitee.
func (c *Client) EnqueueRSVPReminder(ctx context.Context, p ReminderPayload) error {
	err := enqueueTask(ctx, c.enqueuer, NewRSVPReminderTask, p)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func enqueueTask[P any](ctx context.Context, e enqueuer, build func(P) (*asynq.Task, error), p P) error {
	task, err := build(p)
	if err != nil {
		return err
	}
	if _, err := e.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("queue: enqueue %s: %w", task.Type(), err)
	}
	return nil
}

type inlineEnqueuer struct {
	mux *asynq.ServeMux
}

func (e inlineEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if err := e.mux.ProcessTask(ctx, task); err != nil {
		return nil, err
	}
	return &asynq.TaskInfo{Type: task.Type(), Payload: task.Payload(), State: asynq.TaskStateCompleted}, nil
}
