package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/testfixtures"
)

type apiHarness struct {
	services *testfixtures.Services
	handler  http.Handler
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	services := testfixtures.NewServices(t, testfixtures.WithLogger(logger), testfixtures.WithMaxImageBytes(1024))
	now := services.Clock.Now

	router := NewRouter(RouterConfig{
		Auth:          NewAuthHandler(services.Auth, false, logger),
		Profiles:      NewProfileHandler(services.Profiles, logger),
		Events:        NewEventHandler(services.Events, time.UTC, logger),
		RSVPs:         NewRSVPHandler(services.RSVPs, logger),
		Invitations:   NewInvitationHandler(services.Invitations, logger),
		Notifications: NewNotificationHandler(services.Notifications, logger),
		Media:         NewMediaHandler(services.Media, logger),
		Schedule:      NewScheduleHandler(time.UTC, now, logger),
		Authenticate:  RequireSession(services.Auth, logger),
		Middleware:    []func(http.Handler) http.Handler{RequestLogger(logger)},
	})
	return &apiHarness{services: services, handler: router}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

// signIn logs email in over HTTP and returns the bearer token.
func (h *apiHarness) signIn(t *testing.T, email string) string {
	t.Helper()

	if rec := h.do(t, http.MethodPost, "/auth/code", "", map[string]string{"email": email}); rec.Code != http.StatusAccepted {
		t.Fatalf("POST /auth/code: expected 202, got %d: %s", rec.Code, rec.Body)
	}
	code, ok := h.services.Outbox.LoginCode(email)
	if !ok {
		t.Fatalf("no login code mailed to %s", email)
	}
	rec := h.do(t, http.MethodPost, "/auth/verify", "", map[string]string{"email": email, "code": code})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /auth/verify: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var session sessionResponse
	decodeBody(t, rec, &session)
	return session.Token
}

// onboard signs a user in and completes the profile.
func (h *apiHarness) onboard(t *testing.T, username, first string) (string, userDTO) {
	t.Helper()

	token := h.signIn(t, username+"@mit.edu")
	rec := h.do(t, http.MethodPut, "/me", token, map[string]string{
		"username":   username,
		"first_name": first,
		"last_name":  "Tester",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /me: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp userResponse
	decodeBody(t, rec, &resp)
	return token, resp.User
}

func (h *apiHarness) createEvent(t *testing.T, token string, body map[string]any) eventDTO {
	t.Helper()

	rec := h.do(t, http.MethodPost, "/events", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /events: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var resp eventResponse
	decodeBody(t, rec, &resp)
	return resp.Event
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
}

func fridayEvent(title string) map[string]any {
	return map[string]any{
		"title":      title,
		"start_date": "2025-07-25",
		"start_time": "6:00pm",
		"end_time":   "9:00pm",
		"end_is_set": true,
		"location":   map[string]any{"name": "Student Center", "address": "84 Mass Ave"},
	}
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodPost, "/auth/code", "", map[string]string{"email": "ava@gmail.com"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a non-school address, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/auth/code", "", map[string]string{"email": "ava@mit.edu"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}

	rec = h.do(t, http.MethodPost, "/auth/verify", "", map[string]string{"email": "ava@mit.edu", "code": "not-it"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong code, got %d", rec.Code)
	}
	var failure errorResponse
	decodeBody(t, rec, &failure)
	if failure.ErrorCode != "AUTH_INVALID_CODE" {
		t.Fatalf("expected AUTH_INVALID_CODE, got %q", failure.ErrorCode)
	}

	code, _ := h.services.Outbox.LoginCode("ava@mit.edu")
	rec = h.do(t, http.MethodPost, "/auth/verify", "", map[string]string{"email": "ava@mit.edu", "code": code})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var session sessionResponse
	decodeBody(t, rec, &session)
	if !session.NeedsProfile {
		t.Fatal("expected a new account to need a profile")
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != session.Token || !cookie.HttpOnly {
		t.Fatalf("expected an http-only session cookie, got %+v", cookie)
	}

	rec = h.do(t, http.MethodGet, "/me", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /me: expected 200, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodDelete, "/auth/session", session.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE /auth/session: expected 204, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/me", session.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
	decodeBody(t, rec, &failure)
	if failure.ErrorCode != "AUTH_SESSION_EXPIRED" {
		t.Fatalf("expected AUTH_SESSION_EXPIRED, got %q", failure.ErrorCode)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodGet, "/events"},
		{http.MethodPost, "/events"},
		{http.MethodGet, "/events/abc"},
		{http.MethodPut, "/events/abc/rsvp"},
		{http.MethodGet, "/notifications"},
		{http.MethodPost, "/media/images"},
	} {
		rec := h.do(t, route.method, route.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}

	rec := h.do(t, http.MethodGet, "/schedule/slots", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /schedule/slots should be public, got %d", rec.Code)
	}
}

func TestScheduleSlotsAndValidate(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/schedule/slots", "", nil)
	var slots slotsResponse
	decodeBody(t, rec, &slots)
	if len(slots.Slots) != 96 || slots.Slots[0] != "12:00am" || slots.Slots[95] != "11:45pm" {
		t.Fatalf("unexpected slots: %d entries, first %q", len(slots.Slots), slots.Slots[0])
	}
	if slots.Timezone != "UTC" {
		t.Fatalf("expected UTC, got %q", slots.Timezone)
	}

	rec = h.do(t, http.MethodPost, "/schedule/validate", "", map[string]any{
		"start_date":    "2025-07-25",
		"start_time":    "2:15pm",
		"end_time":      "4:00pm",
		"end_is_set":    true,
		"rsvp_deadline": "2025-07-24T12:00:00Z",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp validateScheduleResponse
	decodeBody(t, rec, &resp)
	if resp.Start != "2025-07-25T14:15:00Z" {
		t.Fatalf("unexpected start %q", resp.Start)
	}
	if resp.FullDate != "Friday, Jul 25, 2025" || resp.TimeRange != "2:15pm - 4:00pm" {
		t.Fatalf("unexpected labels %q / %q", resp.FullDate, resp.TimeRange)
	}
	if resp.RSVPDate != "Thu, Jul 24, 2025" {
		t.Fatalf("unexpected rsvp date %q", resp.RSVPDate)
	}
	if resp.RSVPWindow.Earliest != "2025-07-20T09:00:00Z" {
		t.Fatalf("expected the window to open now, got %q", resp.RSVPWindow.Earliest)
	}

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{
			name:  "past start",
			body:  map[string]any{"start_date": "2025-07-20", "start_time": "8:45am"},
			field: "start",
		},
		{
			name:  "too short",
			body:  map[string]any{"start_date": "2025-07-25", "start_time": "2:15pm", "end_time": "2:30pm", "end_is_set": true},
			field: "end",
		},
		{
			name:  "unknown label",
			body:  map[string]any{"start_date": "2025-07-25", "start_time": "2:10pm"},
			field: "start",
		},
		{
			name:  "deadline too early",
			body:  map[string]any{"start_date": "2025-08-10", "start_time": "2:15pm", "rsvp_deadline": "2025-08-01T14:00:00Z"},
			field: "rsvp_deadline",
		},
	}
	for _, tc := range tests {
		rec := h.do(t, http.MethodPost, "/schedule/validate", "", tc.body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d: %s", tc.name, rec.Code, rec.Body)
		}
		var failure errorResponse
		decodeBody(t, rec, &failure)
		if _, ok := failure.Errors[tc.field]; !ok {
			t.Fatalf("%s: expected an error on %q, got %v", tc.name, tc.field, failure.Errors)
		}
	}
}

func TestEventLifecycle(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	hostToken, _ := h.onboard(t, "hana", "Hana")
	guestToken, guest := h.onboard(t, "ben", "Ben")

	rec := h.do(t, http.MethodPost, "/events", hostToken, map[string]any{"title": "", "start_date": "2025-07-25", "start_time": "6:00pm"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a missing title, got %d", rec.Code)
	}

	body := fridayEvent("Rooftop Social")
	body["rsvp_deadline"] = "2025-07-24T17:00:00Z"
	body["perks"] = []map[string]string{{"kind": "free_food", "detail": "pizza"}}
	event := h.createEvent(t, hostToken, body)
	if event.Status != application.EventStatusPublished || !strings.HasPrefix(event.Slug, "rooftop-social-") {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.TimeRange != "6:00pm - 9:00pm" || event.RSVPClosesAt != "2025-07-24T17:00:00Z" {
		t.Fatalf("unexpected formatting %q / %q", event.TimeRange, event.RSVPClosesAt)
	}

	rec = h.do(t, http.MethodGet, "/events/slug/"+event.Slug, guestToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET by slug: expected 200, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPut, "/events/"+event.ID, guestToken, fridayEvent("Hijacked"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a guest edit, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPut, "/events/"+event.ID+"/rsvp", guestToken, map[string]string{"status": "going"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT rsvp: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = h.do(t, http.MethodGet, "/events/"+event.ID+"/guests", hostToken, nil)
	var guests guestsResponse
	decodeBody(t, rec, &guests)
	if guests.Counts.Going != 1 || len(guests.Guests) != 1 || guests.Guests[0].UserID != guest.ID {
		t.Fatalf("unexpected guests %+v", guests)
	}

	rec = h.do(t, http.MethodGet, "/events?relation=attending", guestToken, nil)
	var list listEventsResponse
	decodeBody(t, rec, &list)
	if len(list.Events) != 1 || list.Events[0].ID != event.ID {
		t.Fatalf("expected the attended event, got %+v", list.Events)
	}

	rec = h.do(t, http.MethodGet, "/events/"+event.ID+"/calendar.ics", guestToken, nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("unexpected calendar response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "DTSTART:20250725T180000Z") {
		t.Fatalf("calendar is missing the start: %s", rec.Body)
	}

	h.services.Clock.Set(time.Date(2025, time.July, 24, 17, 0, 0, 0, time.UTC))
	rec = h.do(t, http.MethodPut, "/events/"+event.ID+"/rsvp", guestToken, map[string]string{"status": "maybe"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 once the deadline passed, got %d", rec.Code)
	}
	var failure errorResponse
	decodeBody(t, rec, &failure)
	if failure.ErrorCode != "RSVP_CLOSED" {
		t.Fatalf("expected RSVP_CLOSED, got %q", failure.ErrorCode)
	}

	if rec := h.do(t, http.MethodDelete, "/events/"+event.ID, hostToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected 204, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/events/"+event.ID, hostToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestDraftsPublishLater(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	hostToken, _ := h.onboard(t, "hana", "Hana")
	guestToken, _ := h.onboard(t, "ben", "Ben")

	body := fridayEvent("Secret Planning")
	body["publish"] = false
	draft := h.createEvent(t, hostToken, body)
	if draft.Status != application.EventStatusDraft {
		t.Fatalf("expected a draft, got %q", draft.Status)
	}
	if rec := h.do(t, http.MethodGet, "/events/"+draft.ID, guestToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected drafts hidden from others, got %d", rec.Code)
	}

	rec := h.do(t, http.MethodGet, "/events?relation=drafts", hostToken, nil)
	var list listEventsResponse
	decodeBody(t, rec, &list)
	if len(list.Events) != 1 {
		t.Fatalf("expected one draft, got %d", len(list.Events))
	}

	rec = h.do(t, http.MethodPost, "/events/"+draft.ID+"/publish", hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if rec := h.do(t, http.MethodGet, "/events/"+draft.ID, guestToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected the published event visible, got %d", rec.Code)
	}
}

func TestInvitationsAndNotifications(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	hostToken, _ := h.onboard(t, "hana", "Hana")
	guestToken, guest := h.onboard(t, "ben", "Ben")
	event := h.createEvent(t, hostToken, fridayEvent("Board Games"))

	rec := h.do(t, http.MethodPost, "/events/"+event.ID+"/invitations", hostToken, map[string]any{"user_ids": []string{guest.ID}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if len(h.services.Outbox.SentTo("ben@mit.edu")) != 2 {
		t.Fatalf("expected a login mail and an invitation mail, got %+v", h.services.Outbox.SentTo("ben@mit.edu"))
	}

	rec = h.do(t, http.MethodGet, "/invitations", guestToken, nil)
	var invitations struct {
		Invitations []invitationDTO `json:"invitations"`
	}
	decodeBody(t, rec, &invitations)
	if len(invitations.Invitations) != 1 {
		t.Fatalf("expected one invitation, got %s", rec.Body)
	}
	code := invitations.Invitations[0].Code

	if rec := h.do(t, http.MethodPost, "/invitations/"+code+"/accept", hostToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected someone else's code to be 404, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, "/invitations/"+code+"/accept", guestToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = h.do(t, http.MethodGet, "/events/"+event.ID+"/rsvp", guestToken, nil)
	var rsvp rsvpResponse
	decodeBody(t, rec, &rsvp)
	if rsvp.RSVP.Status != application.RSVPGoing {
		t.Fatalf("expected accepting to mark going, got %q", rsvp.RSVP.Status)
	}

	rec = h.do(t, http.MethodGet, "/notifications?unread=true", guestToken, nil)
	var notifications struct {
		Notifications []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		} `json:"notifications"`
	}
	decodeBody(t, rec, &notifications)
	if len(notifications.Notifications) != 1 || !strings.Contains(notifications.Notifications[0].Message, "Board Games") {
		t.Fatalf("unexpected notifications %s", rec.Body)
	}
	id := notifications.Notifications[0].ID
	if rec := h.do(t, http.MethodPost, "/notifications/"+id+"/read", guestToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("mark read: expected 204, got %d", rec.Code)
	}
	rec = h.do(t, http.MethodGet, "/notifications?unread=true", guestToken, nil)
	decodeBody(t, rec, &notifications)
	if len(notifications.Notifications) != 0 {
		t.Fatalf("expected no unread notifications, got %s", rec.Body)
	}
}

func TestUploadImage(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	token, user := h.onboard(t, "hana", "Hana")

	upload := func(content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		part, err := form.CreatePart(map[string][]string{
			"Content-Disposition": {`form-data; name="image"; filename="cover.png"`},
			"Content-Type":        {"image/png"},
		})
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write(content)
		_ = form.Close()

		req := httptest.NewRequest(http.MethodPost, "/media/images", &buf)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := upload([]byte("\x89PNG fake"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	decodeBody(t, rec, &resp)
	if !strings.HasPrefix(resp.Key, fmt.Sprintf("events/%s/", user.ID)) || !strings.HasSuffix(resp.Key, ".png") {
		t.Fatalf("unexpected key %q", resp.Key)
	}
	if _, ok := h.services.Objects.Object(resp.Key); !ok {
		t.Fatalf("object %q was not stored", resp.Key)
	}

	rec = upload(bytes.Repeat([]byte("x"), 4096))
	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected an oversized upload to be rejected, got %d", rec.Code)
	}
}

func TestRouterMethodAndPathChecks(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	token, _ := h.onboard(t, "hana", "Hana")

	rec := h.do(t, http.MethodPatch, "/events", token, nil)
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET, POST" {
		t.Fatalf("expected 405 with Allow, got %d %q", rec.Code, rec.Header().Get("Allow"))
	}
	if rec := h.do(t, http.MethodGet, "/events/abc/unknown", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown action, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}
}

func TestHandleServiceErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{application.ErrUnauthorized, http.StatusForbidden, "FORBIDDEN"},
		{application.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{application.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{application.ErrRSVPClosed, http.StatusConflict, "RSVP_CLOSED"},
		{application.ErrCodeExpired, http.StatusUnauthorized, "AUTH_CODE_EXPIRED"},
		{application.ErrTooManyAttempts, http.StatusTooManyRequests, "AUTH_TOO_MANY_ATTEMPTS"},
		{application.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{fmt.Errorf("wrapped: %w", application.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{errors.New("boom"), http.StatusInternalServerError, ""},
	}

	r := newResponder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		r.handleServiceError(httptest.NewRequest(http.MethodGet, "/", nil).Context(), rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body errorResponse
		decodeBody(t, rec, &body)
		if body.ErrorCode != tc.code || body.Message == "" {
			t.Fatalf("%v: unexpected body %+v", tc.err, body)
		}
	}

	rec := httptest.NewRecorder()
	r.handleServiceError(httptest.NewRequest(http.MethodGet, "/", nil).Context(), rec, fieldError("title", "Title is required."))
	var body errorResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusUnprocessableEntity || body.Errors["title"] != "Title is required." {
		t.Fatalf("unexpected validation response %d %+v", rec.Code, body)
	}
}
