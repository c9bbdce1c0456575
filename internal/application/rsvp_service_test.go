package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

func TestRSVPService_Respond(t *testing.T) {
	t.Parallel()

	t.Run("records and changes a response", func(t *testing.T) {
		t.Parallel()

		h := newServiceHarness(t)
		ctx := context.Background()
		host := h.seedUser(t, "host", "Hana")
		guest := h.seedUser(t, "guest", "Gus")
		event := h.createEvent(t, host, eventInput("Game night", "7:00pm", ""), true)

		rsvp, err := h.rsvps.Respond(ctx, guest, event.ID, " Going ")
		if err != nil {
			t.Fatalf("Respond failed: %v", err)
		}
		if rsvp.Status != RSVPGoing || rsvp.UserID != guest.UserID {
			t.Fatalf("unexpected rsvp %+v", rsvp)
		}

		h.clock.Advance(time.Hour)
		if _, err := h.rsvps.Respond(ctx, guest, event.ID, RSVPMaybe); err != nil {
			t.Fatalf("Respond maybe failed: %v", err)
		}
		stored, err := h.rsvps.GetRSVP(ctx, guest, event.ID)
		if err != nil {
			t.Fatalf("GetRSVP failed: %v", err)
		}
		if stored.Status != RSVPMaybe || !stored.UpdatedAt.After(stored.CreatedAt) {
			t.Fatalf("expected updated maybe response, got %+v", stored)
		}
	})

	t.Run("rejects unknown statuses and hosts", func(t *testing.T) {
		t.Parallel()

		h := newServiceHarness(t)
		host := h.seedUser(t, "host", "Hana")
		guest := h.seedUser(t, "guest", "Gus")
		event := h.createEvent(t, host, eventInput("Game night", "7:00pm", ""), true)

		_, err := h.rsvps.Respond(context.Background(), guest, event.ID, "yes")
		if fields := validationFields(t, err); fields["status"] == "" {
			t.Fatalf("expected status error, got %v", fields)
		}
		_, err = h.rsvps.Respond(context.Background(), host, event.ID, RSVPGoing)
		if fields := validationFields(t, err); fields["status"] != "Hosts don't RSVP to their own event." {
			t.Fatalf("expected host error, got %v", fields)
		}
	})

	t.Run("hidden and draft events are not found", func(t *testing.T) {
		t.Parallel()

		h := newServiceHarness(t)
		host := h.seedUser(t, "host", "Hana")
		guest := h.seedUser(t, "guest", "Gus")

		draft := h.createEvent(t, host, eventInput("Draft", "7:00pm", ""), false)
		private := eventInput("Private", "9:00pm", "")
		private.Public = false
		hidden := h.createEvent(t, host, private, true)

		for _, id := range []string{draft.ID, hidden.ID, "missing"} {
			if _, err := h.rsvps.Respond(context.Background(), guest, id, RSVPGoing); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for %s, got %v", id, err)
			}
		}
		if _, err := h.rsvps.Respond(context.Background(), Principal{}, hidden.ID, RSVPGoing); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized without a principal, got %v", err)
		}
	})

	t.Run("closes at the deadline", func(t *testing.T) {
		t.Parallel()

		h := newServiceHarness(t)
		ctx := context.Background()
		host := h.seedUser(t, "host", "Hana")
		guest := h.seedUser(t, "guest", "Gus")

		input := eventInput("Formal", "7:00pm", "")
		deadline := time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)
		input.RSVPDeadline = timePtr(deadline)
		event := h.createEvent(t, host, input, true)

		h.clock.Advance(deadline.Sub(serviceBaseTime) - time.Minute)
		if _, err := h.rsvps.Respond(ctx, guest, event.ID, RSVPGoing); err != nil {
			t.Fatalf("expected response a minute before the deadline to succeed, got %v", err)
		}

		h.clock.Advance(time.Minute)
		if _, err := h.rsvps.Respond(ctx, guest, event.ID, RSVPNotGoing); !errors.Is(err, ErrRSVPClosed) {
			t.Fatalf("expected ErrRSVPClosed at the deadline, got %v", err)
		}
		if err := h.rsvps.Withdraw(ctx, guest, event.ID); !errors.Is(err, ErrRSVPClosed) {
			t.Fatalf("expected withdraw to be closed too, got %v", err)
		}
	})

	t.Run("without a deadline responses close at the start", func(t *testing.T) {
		t.Parallel()

		h := newServiceHarness(t)
		host := h.seedUser(t, "host", "Hana")
		guest := h.seedUser(t, "guest", "Gus")
		event := h.createEvent(t, host, eventInput("Sunrise", "6:00am", ""), true)

		h.clock.Advance(event.Start.Sub(serviceBaseTime))
		if _, err := h.rsvps.Respond(context.Background(), guest, event.ID, RSVPGoing); !errors.Is(err, ErrRSVPClosed) {
			t.Fatalf("expected ErrRSVPClosed at the start, got %v", err)
		}
	})

	t.Run("mirrors the answer onto an invitation", func(t *testing.T) {
		t.Parallel()

		h := newServiceHarness(t)
		ctx := context.Background()
		host := h.seedUser(t, "host", "Hana")
		guest := h.seedUser(t, "guest", "Gus")
		event := h.createEvent(t, host, eventInput("Dinner", "7:00pm", ""), true)
		if _, err := h.invitations.Invite(ctx, host, event.ID, []string{guest.UserID}); err != nil {
			t.Fatalf("Invite failed: %v", err)
		}

		if _, err := h.rsvps.Respond(ctx, guest, event.ID, RSVPNotGoing); err != nil {
			t.Fatalf("Respond failed: %v", err)
		}
		invitation, err := h.store.Invitations.GetInvitationForUser(ctx, event.ID, guest.UserID)
		if err != nil {
			t.Fatalf("GetInvitationForUser failed: %v", err)
		}
		if invitation.Status != persistence.InvitationDeclined || invitation.RespondedAt == nil {
			t.Fatalf("expected declined invitation, got %+v", invitation)
		}
	})
}

func TestRSVPService_WithdrawAndGuests(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()
	host := h.seedUser(t, "host", "Hana")
	amy := h.seedUser(t, "amy", "Amy")
	ben := h.seedUser(t, "ben", "Ben")
	cat := h.seedUser(t, "cat", "Cat")
	event := h.createEvent(t, host, eventInput("Potluck", "6:00pm", "9:00pm"), true)

	responses := []struct {
		who    Principal
		status string
	}{
		{amy, RSVPNotGoing},
		{ben, RSVPGoing},
		{cat, RSVPMaybe},
	}
	for _, r := range responses {
		if _, err := h.rsvps.Respond(ctx, r.who, event.ID, r.status); err != nil {
			t.Fatalf("Respond(%s) failed: %v", r.who.UserID, err)
		}
	}

	guests, err := h.rsvps.ListGuests(ctx, host, event.ID)
	if err != nil {
		t.Fatalf("ListGuests failed: %v", err)
	}
	if len(guests) != 3 {
		t.Fatalf("expected 3 guests, got %d", len(guests))
	}
	if guests[0].UserID != ben.UserID || guests[0].DisplayName != "Ben Tester" || guests[0].Username != "ben" {
		t.Fatalf("expected going guests first, got %+v", guests[0])
	}

	if err := h.rsvps.Withdraw(ctx, ben, event.ID); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if _, err := h.rsvps.GetRSVP(ctx, ben, event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected withdrawn rsvp to be gone, got %v", err)
	}
	if err := h.rsvps.Withdraw(ctx, ben, event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second withdraw to report ErrNotFound, got %v", err)
	}
}
