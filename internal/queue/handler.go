package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/logging"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/mail"
)

// Handler turns queued tasks into mail.
type Handler struct {
	sender mail.Sender
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewHandler renders dates in loc. nil values fall back to UTC, time.Now and slog.Default.
func NewHandler(sender mail.Sender, loc *time.Location, now func() time.Time, logger *slog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sender: sender, loc: loc, now: now, logger: logger.With("component", "queue")}
}

// Register attaches every task type to mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeLoginCode, h.handleLoginCode)
	mux.HandleFunc(TypeInvitation, h.handleInvitation)
	mux.HandleFunc(TypeRSVPReminder, h.handleRSVPReminder)
}

// ServeMux returns a new mux with the handler registered.
func (h *Handler) ServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	h.Register(mux)
	return mux
}

func (h *Handler) handleLoginCode(ctx context.Context, task *asynq.Task) error {
	var p LoginCodePayload
	if err := decode(task, &p); err != nil {
		return err
	}
	return h.deliver(ctx, task, loginCodeMessage(p, h.now()))
}

func (h *Handler) handleInvitation(ctx context.Context, task *asynq.Task) error {
	var p InvitationPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	msg, err := invitationMessage(p, h.loc)
	if err != nil {
		return fmt.Errorf("queue: render invitation: %v: %w", err, asynq.SkipRetry)
	}
	return h.deliver(ctx, task, msg)
}

func (h *Handler) handleRSVPReminder(ctx context.Context, task *asynq.Task) error {
	var p ReminderPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	msg, err := reminderMessage(p, h.loc)
	if err != nil {
		return fmt.Errorf("queue: render reminder: %v: %w", err, asynq.SkipRetry)
	}
	return h.deliver(ctx, task, msg)
}

func (h *Handler) deliver(ctx context.Context, task *asynq.Task, msg mail.Message) error {
	logger := logging.FromContext(ctx, h.logger).With("task_type", task.Type(), "to", msg.To)
	if err := h.sender.Send(ctx, msg); err != nil {
		logger.WarnContext(ctx, "mail delivery failed", "error", err)
		if errors.Is(err, mail.ErrInvalidMessage) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	logger.InfoContext(ctx, "mail delivered")
	return nil
}

func decode(task *asynq.Task, v any) error {
	if err := json.Unmarshal(task.Payload(), v); err != nil {
		return fmt.Errorf("queue: decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return nil
}
