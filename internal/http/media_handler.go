package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/application"
)

const multipartOverhead = 64 << 10

type mediaService interface {
	UploadEventImage(ctx context.Context, params application.UploadParams) (application.Upload, error)
	MaxBytes() int64
}

type MediaHandler struct {
	service   mediaService
	responder responder
	logger    *slog.Logger
}

func NewMediaHandler(service mediaService, logger *slog.Logger) *MediaHandler {
	base := defaultLogger(logger)
	return &MediaHandler{service: service, responder: newResponder(base), logger: base}
}

// UploadImage accepts a multipart form with the file in the "image" field.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "MediaHandler", "UploadImage", "principal_id", principal.UserID)

	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(h.service.MaxBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.writeError(r.Context(), w, http.StatusRequestEntityTooLarge, nil)
			return
		}
		logger.WarnContext(r.Context(), "failed to parse upload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("Send the image as multipart form data."))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, fieldError("image", "Choose an image to upload."))
		return
	}
	defer file.Close()

	upload, err := h.service.UploadEventImage(r.Context(), application.UploadParams{
		Principal:   principal,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, uploadResponse{Key: upload.Key, URL: upload.URL})
}

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
