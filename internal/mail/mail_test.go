package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"valid", Message{To: "ada@school.edu", Subject: "Hi"}, false},
		{"bad recipient", Message{To: "not-an-address", Subject: "Hi"}, true},
		{"empty subject", Message{To: "ada@school.edu", Subject: " "}, true},
		{"header injection", Message{To: "ada@school.edu", Subject: "Hi\r\nBcc: x@y.z"}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.msg.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}

func TestSMTPSender_Send(t *testing.T) {
	t.Parallel()

	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.school.edu", Username: "bot", Password: "pw", From: "Sizzl <no-reply@sizzl.app>"})
	if err != nil {
		t.Fatalf("NewSMTPSender failed: %v", err)
	}
	sender.now = func() time.Time { return time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC) }

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	err = sender.Send(context.Background(), Message{To: "ada@school.edu", Subject: "Your code", Body: "line1\nline2"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.school.edu:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if gotAuth == nil {
		t.Fatal("expected plain auth when a username is configured")
	}
	if len(gotTo) != 1 || gotTo[0] != "ada@school.edu" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	for _, want := range []string{"Subject: Your code\r\n", "Date: Sun, 20 Jul 2025 09:00:00 +0000\r\n", "\r\n\r\nline1\r\nline2"} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q:\n%s", want, gotMsg)
		}
	}

	sender.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	if err := sender.Send(context.Background(), Message{To: "ada@school.edu", Subject: "x"}); err == nil {
		t.Fatal("expected relay error")
	}
}

func TestNewSMTPSender_RequiresHost(t *testing.T) {
	t.Parallel()

	if _, err := NewSMTPSender(SMTPConfig{From: "a@b.c"}); err == nil {
		t.Fatal("expected error without host")
	}
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	sender := NewLogSender(nil)
	if err := sender.Send(context.Background(), Message{To: "ada@school.edu", Subject: "Hi"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := sender.Send(context.Background(), Message{To: "", Subject: "Hi"}); err == nil {
		t.Fatal("expected validation error")
	}
}
