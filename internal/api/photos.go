package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/photos"
	"github.com/erazemk/najdeno/internal/service"
)

// PhotosHandler serves stored item photos.
type PhotosHandler struct {
	Service *service.Service
}

// Get handles GET /photos/{ref}.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if !photos.ValidRef(ref) {
		jsonError(w, http.StatusNotFound, "photo not found")
		return
	}

	rc, err := h.Service.OpenPhoto(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	// Refs are never reused, so the content cannot change.
	w.Header().Set("Content-Type", imaging.OutputMIME)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("failed to send photo", "ref", ref, "error", err)
	}
}
