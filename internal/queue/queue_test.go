package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/hibiken/asynq"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/mail"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) last(t *testing.T) mail.Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return s.sent[len(s.sent)-1]
}

func newTestHandler(t *testing.T, sender mail.Sender) *Handler {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	now := time.Date(2025, 7, 20, 13, 0, 0, 0, time.UTC)
	return NewHandler(sender, loc, func() time.Time { return now }, nil)
}

func TestInlineClient_LoginCode(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	client := NewInlineClient(newTestHandler(t, sender))

	err := client.EnqueueLoginCode(context.Background(), LoginCodePayload{
		Email:     "ada@school.edu",
		Code:      "123456",
		ExpiresAt: time.Date(2025, 7, 20, 13, 10, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("EnqueueLoginCode failed: %v", err)
	}

	msg := sender.last(t)
	if msg.To != "ada@school.edu" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Body, "123456") || !strings.Contains(msg.Body, "10 minutes") {
		t.Fatalf("unexpected body: %s", msg.Body)
	}
}

func TestInlineClient_Invitation(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	client := NewInlineClient(newTestHandler(t, sender))

	// 23:30 UTC is 7:30pm in New York during daylight saving time.
	start := time.Date(2025, 8, 1, 23, 30, 0, 0, time.UTC)
	end := start.Add(150 * time.Minute)
	err := client.EnqueueInvitation(context.Background(), InvitationPayload{
		Email:       "ben@school.edu",
		InviteeName: "Ben",
		InviterName: "Ada",
		EventTitle:  "Rooftop Jam",
		EventStart:  start,
		EventEnd:    &end,
		Location:    "Library roof",
		Code:        "AbC123",
	})
	if err != nil {
		t.Fatalf("EnqueueInvitation failed: %v", err)
	}

	msg := sender.last(t)
	if msg.Subject != "You're invited: Rooftop Jam" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Hi Ben", "Ada invited you", "Friday, Aug 1, 2025, 7:30pm - 10:00pm", "Library roof", "AbC123"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestInlineClient_Reminder(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	client := NewInlineClient(newTestHandler(t, sender))

	err := client.EnqueueRSVPReminder(context.Background(), ReminderPayload{
		Email:      "cy@school.edu",
		EventID:    "e1",
		EventTitle: "Rooftop Jam",
		EventStart: time.Date(2025, 8, 1, 23, 30, 0, 0, time.UTC),
		Deadline:   time.Date(2025, 7, 25, 3, 45, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("EnqueueRSVPReminder failed: %v", err)
	}

	msg := sender.last(t)
	for _, want := range []string{"Hi there", "close on Thu, Jul 24, 2025 at 11:45pm", "Friday, Aug 1, 2025, 7:30pm"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestHandler_SkipsRetryForBadInput(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &recordingSender{})
	mux := handler.ServeMux()

	garbage := asynq.NewTask(TypeInvitation, []byte("{not json"))
	if err := mux.ProcessTask(context.Background(), garbage); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for an undecodable payload, got %v", err)
	}

	body, _ := json.Marshal(LoginCodePayload{Email: "not-an-email", Code: "1"})
	invalid := asynq.NewTask(TypeLoginCode, body)
	if err := mux.ProcessTask(context.Background(), invalid); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for an invalid recipient, got %v", err)
	}
}

func TestHandler_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{err: errors.New("relay down")}
	client := NewInlineClient(newTestHandler(t, sender))

	err := client.EnqueueLoginCode(context.Background(), LoginCodePayload{Email: "ada@school.edu", Code: "1"})
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
}

func TestReminderTaskID(t *testing.T) {
	t.Parallel()

	task, err := NewRSVPReminderTask(ReminderPayload{EventID: "e1", Email: "a@school.edu"})
	if err != nil {
		t.Fatalf("NewRSVPReminderTask failed: %v", err)
	}
	if task.Type() != TypeRSVPReminder {
		t.Fatalf("unexpected type %q", task.Type())
	}
}
