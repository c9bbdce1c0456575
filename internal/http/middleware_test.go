package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/logging"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	seen      string
}

func (f *fakeSessionValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	f.seen = token
	return f.principal, f.err
}

func TestRequireSessionRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		header     string
		cookie     *http.Cookie
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "missing credentials", wantStatus: http.StatusUnauthorized, wantCode: "AUTH_REQUIRED"},
		{name: "malformed authorization header", header: "Token abc", wantStatus: http.StatusUnauthorized, wantCode: "AUTH_REQUIRED"},
		{name: "expired session", header: "Bearer old", err: application.ErrSessionExpired, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_SESSION_EXPIRED"},
		{name: "revoked session cookie", cookie: &http.Cookie{Name: sessionCookieName, Value: "gone"}, err: application.ErrSessionRevoked, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_SESSION_EXPIRED"},
		{name: "forged token", header: "Bearer forged", err: application.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_INVALID_SESSION"},
		{name: "storage failure", header: "Bearer ok", err: errors.New("disk I/O error"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validator := &fakeSessionValidator{err: tc.err}
			called := false
			handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if called {
				t.Fatal("expected the wrapped handler not to run")
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.ErrorCode != tc.wantCode {
				t.Fatalf("expected error code %q, got %q", tc.wantCode, body.ErrorCode)
			}
		})
	}
}

func TestRequireSessionInjectsPrincipal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		cookie *http.Cookie
		want   string
	}{
		{name: "bearer header", header: "Bearer header-token", want: "header-token"},
		{name: "lowercase scheme", header: "bearer lower-token", want: "lower-token"},
		{name: "cookie", cookie: &http.Cookie{Name: sessionCookieName, Value: "cookie-token"}, want: "cookie-token"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validator := &fakeSessionValidator{principal: application.Principal{UserID: "user-1"}}
			var got application.Principal
			handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Fatalf("expected 204, got %d", rec.Code)
			}
			if validator.seen != tc.want {
				t.Fatalf("expected token %q, got %q", tc.want, validator.seen)
			}
			if got.UserID != "user-1" {
				t.Fatalf("expected principal in context, got %+v", got)
			}
		})
	}
}

func TestRequestLoggerTagsRequests(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var fromCtx *slog.Logger
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logging.FromContext(r.Context(), nil)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	if fromCtx == nil || fromCtx == slog.Default() {
		t.Fatal("expected a request logger on the context")
	}
	line := buf.String()
	for _, want := range []string{`"request_id":"req-42"`, `"status":418`, `"path":"/events"`, "request completed"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected log to contain %s, got %s", want, line)
		}
	}
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	t.Parallel()

	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if id := rec.Header().Get(requestIDHeader); len(id) != 36 {
		t.Fatalf("expected a generated uuid, got %q", id)
	}
}
