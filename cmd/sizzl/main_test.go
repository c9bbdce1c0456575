package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/config"
)

func testConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()

	values := map[string]string{
		"SIZZL_SESSION_SECRET": "test-secret",
		"SIZZL_SQLITE_DSN":     filepath.Join(t.TempDir(), "sizzl.db"),
		"SIZZL_TIMEZONE":       "UTC",
	}
	for k, v := range env {
		values[k] = v
	}
	cfg, err := config.LoadFrom(func(key string) string { return values[key] })
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	return cfg
}

func TestNewAppServesRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), testConfig(t, nil), logger)
	if err != nil {
		t.Fatalf("newApp returned error: %v", err)
	}
	t.Cleanup(a.Close)

	if a.worker != nil {
		t.Fatal("expected no queue worker without redis")
	}

	tests := []struct {
		method, path string
		body         string
		want         int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/schedule/slots", "", http.StatusOK},
		{http.MethodGet, "/me", "", http.StatusUnauthorized},
		{http.MethodPost, "/auth/code", `{"email":"student@mit.edu"}`, http.StatusAccepted},
		{http.MethodPost, "/auth/code", `{"email":"someone@gmail.com"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.want, rec.Code, rec.Body)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: expected a request id header", tc.method, tc.path)
		}
	}
}

func TestNewAppRejectsBadSweepSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), testConfig(t, map[string]string{"SIZZL_SWEEP_SCHEDULE": "every now and then"}), logger)
	if err == nil {
		a.Close()
		t.Fatal("expected an invalid sweep schedule to fail")
	}
	if a != nil {
		t.Fatal("expected no app on failure")
	}
}
