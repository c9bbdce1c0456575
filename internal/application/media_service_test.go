package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type objectStoreStub struct {
	key         string
	contentType string
	size        int64
	body        string
	err         error
}

func (s *objectStoreStub) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.key, s.contentType, s.size, s.body = key, contentType, size, string(data)
	return "https://cdn.sizzl.test/" + key, nil
}

func TestMediaService_UploadEventImage(t *testing.T) {
	t.Parallel()

	principal := Principal{UserID: "user-1"}

	t.Run("stores images under the uploader", func(t *testing.T) {
		t.Parallel()

		store := &objectStoreStub{}
		service := NewMediaService(store, 1<<20, sequenceIDs("img"), nil)

		upload, err := service.UploadEventImage(context.Background(), UploadParams{
			Principal:   principal,
			Filename:    "cover.PNG",
			ContentType: "Image/PNG; charset=binary",
			Size:        4,
			Body:        strings.NewReader("pngdata"),
		})
		if err != nil {
			t.Fatalf("UploadEventImage failed: %v", err)
		}
		if upload.Key != "events/user-1/img-1.png" || upload.URL != "https://cdn.sizzl.test/events/user-1/img-1.png" {
			t.Fatalf("unexpected upload %+v", upload)
		}
		if store.contentType != "image/png" || store.body != "pngd" {
			t.Fatalf("expected normalized type and a body capped at the declared size, got %q %q", store.contentType, store.body)
		}
	})

	t.Run("validates the upload", func(t *testing.T) {
		t.Parallel()

		service := NewMediaService(&objectStoreStub{}, 10, sequenceIDs("img"), nil)
		cases := []UploadParams{
			{Principal: principal, ContentType: "image/gif", Size: 3, Body: strings.NewReader("gif")},
			{Principal: principal, ContentType: "image/jpeg", Size: 0, Body: strings.NewReader("")},
			{Principal: principal, ContentType: "image/jpeg", Size: 11, Body: strings.NewReader("01234567890")},
		}
		for _, params := range cases {
			_, err := service.UploadEventImage(context.Background(), params)
			if fields := validationFields(t, err); fields["image"] == "" {
				t.Fatalf("expected image error for %+v, got %v", params, fields)
			}
		}
	})

	t.Run("reports missing principal, store and storage failures", func(t *testing.T) {
		t.Parallel()

		params := UploadParams{Principal: principal, ContentType: "image/webp", Size: 1, Body: strings.NewReader("x")}

		if _, err := NewMediaService(&objectStoreStub{}, 0, nil, nil).UploadEventImage(context.Background(), UploadParams{}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := NewMediaService(nil, 0, nil, nil).UploadEventImage(context.Background(), params); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}

		boom := errors.New("bucket gone")
		_, err := NewMediaService(&objectStoreStub{err: boom}, 0, nil, nil).UploadEventImage(context.Background(), params)
		if !errors.Is(err, boom) {
			t.Fatalf("expected storage error, got %v", err)
		}
	})

	t.Run("defaults the size limit", func(t *testing.T) {
		t.Parallel()

		if got := NewMediaService(nil, 0, nil, nil).MaxBytes(); got != 5<<20 {
			t.Fatalf("expected 5MB default, got %d", got)
		}
	})
}
