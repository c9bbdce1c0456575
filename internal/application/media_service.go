package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
)

// ObjectStore stores uploaded files and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// MediaService accepts event cover images.
type MediaService struct {
	store       ObjectStore
	maxBytes    int64
	idGenerator func() string
	logger      *slog.Logger
}

// NewMediaService wires dependencies for uploads. A nil store disables uploads.
func NewMediaService(store ObjectStore, maxBytes int64, idGenerator func() string, logger *slog.Logger) *MediaService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &MediaService{store: store, maxBytes: maxBytes, idGenerator: idGenerator, logger: defaultLogger(logger)}
}

// MaxBytes is the largest accepted upload.
func (s *MediaService) MaxBytes() int64 { return s.maxBytes }

// UploadEventImage stores an image under events/<user>/<id><ext>.
func (s *MediaService) UploadEventImage(ctx context.Context, params UploadParams) (upload Upload, err error) {
	if s == nil {
		err = fmt.Errorf("MediaService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "MediaService", "UploadEventImage",
		"principal_id", params.Principal.UserID,
		"content_type", params.ContentType,
		"size", params.Size,
	)
	defer func() {
		logOutcome(ctx, logger, err, "image upload", "key", upload.Key)
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.store == nil {
		err = ErrUnavailable
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(params.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		err = newValidationError("image", "Upload a JPEG, PNG, WebP or HEIC image.")
		return
	}
	switch {
	case params.Body == nil || params.Size <= 0:
		err = newValidationError("image", "The image is empty.")
		return
	case params.Size > s.maxBytes:
		err = newValidationError("image", fmt.Sprintf("The image must be at most %d MB.", s.maxBytes>>20))
		return
	}

	key := path.Join("events", params.Principal.UserID, s.idGenerator()+ext)
	var url string
	url, err = s.store.Put(ctx, key, contentType, params.Size, io.LimitReader(params.Body, params.Size))
	if err != nil {
		err = fmt.Errorf("store image: %w", err)
		return
	}
	upload = Upload{Key: key, URL: url}
	return
}
