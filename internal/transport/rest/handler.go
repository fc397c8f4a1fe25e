// Package rest exposes the HTTP API: file import, blob serving and read-only
// player state for clients without a socket.
package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/nifty/internal/domain/media"
	"github.com/edumarques81/nifty/internal/domain/player"
	"github.com/edumarques81/nifty/internal/infra/blob"
	"github.com/edumarques81/nifty/internal/version"
)

// DefaultMaxUploadBytes bounds a single import request.
const DefaultMaxUploadBytes = 512 << 20

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// Handler serves the HTTP API.
type Handler struct {
	controller *player.Controller
	store      *blob.Store
	maxUpload  int64
	health     func() error
	renderer   string
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxUploadBytes bounds import request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithHealthCheck reports renderer health on /health.
func WithHealthCheck(renderer string, check func() error) Option {
	return func(h *Handler) {
		h.renderer = renderer
		h.health = check
	}
}

// NewHandler creates the API handler.
func NewHandler(controller *player.Controller, store *blob.Store, opts ...Option) *Handler {
	h := &Handler{
		controller: controller,
		store:      store,
		maxUpload:  DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/import", h.importFiles)
	mux.HandleFunc("GET /api/v1/getState", h.getState)
	mux.HandleFunc("GET /api/v1/getQueue", h.getQueue)
	mux.HandleFunc("GET /api/v1/version", h.version)
	mux.HandleFunc("GET /health", h.healthCheck)
	mux.HandleFunc("GET /blob/{id}", h.serveBlob)
}

func (h *Handler) importFiles(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "no files", http.StatusBadRequest)
		return
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			log.Error().Err(err).Str("file", fh.Filename).Msg("Failed to read upload")
			http.Error(w, "failed to read upload", http.StatusBadRequest)
			return
		}
		files = append(files, media.File{Name: fh.Filename, Data: data})
	}

	tracks, err := h.controller.ImportFiles(r.Context(), files)
	if err != nil {
		log.Warn().Err(err).Int("files", len(files)).Msg("Import cancelled")
		http.Error(w, "import cancelled", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": player.TracksJSON(tracks, -1, blob.Path),
		"total":    len(h.controller.Snapshot().Tracks),
	})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part: %w", err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Snapshot().ToJSON(blob.Path))
}

func (h *Handler) getQueue(w http.ResponseWriter, r *http.Request) {
	if query := r.URL.Query().Get("query"); query != "" {
		writeJSON(w, http.StatusOK, player.TracksJSON(h.controller.Search(query), -1, blob.Path))
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Snapshot().QueueJSON(blob.Path))
}

func (h *Handler) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.GetInfo())
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status": "ok",
		"blobs":  h.store.Len(),
	}
	if h.renderer != "" {
		body["renderer"] = h.renderer
	}
	if h.health != nil {
		if err := h.health(); err != nil {
			body["status"] = "error"
			body["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) serveBlob(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Get(blob.Handle(r.PathValue("id")))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if b.MimeType != "" {
		w.Header().Set("Content-Type", b.MimeType)
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, b.Name, b.CreatedAt, bytes.NewReader(b.Data))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
