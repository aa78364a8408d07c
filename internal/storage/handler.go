package storage

import (
	"errors"
	"io"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	store   BlobStore
	maxSize int64
}

func NewHandler(baseHandler *transport.BaseHandler, store BlobStore, maxSize int64) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		store:       store,
		maxSize:     maxSize,
	}
}

// Upload accepts one multipart file under the "file" field and returns the
// ref to use in expense attachments.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ref, err := h.store.Put(header.Filename, file)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			h.WriteError(w, http.StatusRequestEntityTooLarge, "file exceeds maximum size")
			return
		}
		h.Logger.Error("Upload: store error", "error", err, "file_name", header.Filename)
		h.WriteError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	h.Logger.Info("file uploaded", "ref", ref, "file_name", header.Filename, "size", header.Size)

	h.WriteJSON(w, http.StatusCreated, map[string]string{
		"ref":       ref,
		"file_name": header.Filename,
	})
}

// Download streams a stored blob back by ref.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	blob, err := h.store.Get(ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, "file not found")
			return
		}
		h.Logger.Error("Download: store error", "error", err, "ref", ref)
		h.WriteError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, blob); err != nil {
		h.Logger.Error("Download: stream error", "error", err, "ref", ref)
	}
}
