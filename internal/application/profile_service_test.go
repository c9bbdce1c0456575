package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

func TestProfileService_UpdateProfile(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)
	valid := ProfileInput{Username: " @Jo.Doe ", FirstName: "  Mary  Ann ", LastName: "O'Neil-Smith", ContactEmail: "Jo@Example.com", Bio: " hi "}

	t.Run("completes onboarding", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub(persistence.User{ID: "u1", Email: "jo@mit.edu", NeedsProfile: true})
		svc := NewProfileService(users, fixedClock(now))

		user, err := svc.UpdateProfile(context.Background(), Principal{UserID: "u1"}, valid)
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if user.Username != "jo.doe" || user.FirstName != "Mary Ann" || user.ContactEmail != "jo@example.com" || user.Bio != "hi" {
			t.Fatalf("expected normalized profile, got %+v", user)
		}
		if user.NeedsProfile {
			t.Fatalf("expected onboarding to be complete")
		}
		if !users.byID["u1"].UpdatedAt.Equal(now) {
			t.Fatalf("expected updated timestamp to be stamped")
		}
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		t.Parallel()

		svc := NewProfileService(newUserRepositoryStub(persistence.User{ID: "u1"}), fixedClock(now))
		_, err := svc.UpdateProfile(context.Background(), Principal{UserID: "u1"}, ProfileInput{
			Username:     "ab",
			FirstName:    "R2-D2",
			LastName:     strings.Repeat("a", 51),
			ContactEmail: "nope",
			Bio:          strings.Repeat("x", 281),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"username", "first_name", "last_name", "contact_email", "bio"} {
			if vErr.FieldErrors[field] == "" {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("maps taken usernames to a field error", func(t *testing.T) {
		t.Parallel()

		taken := "jo.doe"
		users := newUserRepositoryStub(
			persistence.User{ID: "u1"},
			persistence.User{ID: "u2", Username: &taken},
		)
		svc := NewProfileService(users, fixedClock(now))
		_, err := svc.UpdateProfile(context.Background(), Principal{UserID: "u1"}, valid)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["username"] != "Username is taken." {
			t.Fatalf("expected username taken error, got %v", err)
		}
	})

	t.Run("requires a principal", func(t *testing.T) {
		t.Parallel()

		svc := NewProfileService(newUserRepositoryStub(), fixedClock(now))
		if _, err := svc.UpdateProfile(context.Background(), Principal{}, valid); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestProfileService_GetAndSearch(t *testing.T) {
	t.Parallel()

	alice, bob := "alice", "alicia"
	users := newUserRepositoryStub(
		persistence.User{ID: "u1", Username: &alice},
		persistence.User{ID: "u2", Username: &bob},
	)
	svc := NewProfileService(users, nil)
	ctx := context.Background()

	if _, err := svc.GetProfile(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	user, err := svc.GetProfile(ctx, "u2")
	if err != nil || user.Username != "alicia" {
		t.Fatalf("GetProfile = %+v, %v", user, err)
	}

	found, err := svc.SearchUsers(ctx, Principal{UserID: "u1"}, "ALI", 0)
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != "u2" {
		t.Fatalf("expected only the other user, got %+v", found)
	}

	empty, err := svc.SearchUsers(ctx, Principal{UserID: "u1"}, "  ", 0)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result for blank query, got %+v, %v", empty, err)
	}
}
