// Package handlers exposes the catalog, generation, batch, and narration
// services over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/auc-library-labs/scriptorium/internal/batch"
	"github.com/auc-library-labs/scriptorium/internal/catalog"
	"github.com/auc-library-labs/scriptorium/internal/results"
	"github.com/auc-library-labs/scriptorium/internal/selection"
	"github.com/auc-library-labs/scriptorium/internal/tts"
)

// Config carries the Handler's collaborators.
type Config struct {
	Catalog   catalog.Catalog
	Generator batch.Generator
	Selection *selection.Set
	Results   *results.Cache
	Batches   *batch.Orchestrator
	Speech    *tts.Service

	// AudioDir is where narration files land, served by the download
	// endpoint.
	AudioDir string
	// Model is reported by the health endpoint.
	Model string
	// Healthy reports whether the generation backend is reachable. Nil
	// means always healthy.
	Healthy func(context.Context) bool
}

type Handler struct {
	cfg Config
}

func New(cfg Config) *Handler {
	return &Handler{cfg: cfg}
}

// Routes registers all endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /gallery", h.HandleGallery)
	mux.HandleFunc("GET /gallery/books", h.HandleListBooks)
	mux.HandleFunc("GET /gallery/books/{id}", h.HandleBookDetail)
	mux.HandleFunc("POST /generate-script", h.HandleGenerateScript)
	mux.HandleFunc("POST /generate-batch-scripts", h.HandleGenerateBatch)
	mux.HandleFunc("GET /batch/status", h.HandleBatchStatus)
	mux.HandleFunc("POST /batch/selection", h.HandleSelection)
	mux.HandleFunc("POST /regenerate-script", h.HandleRegenerateScript)
	mux.HandleFunc("GET /tts/voices", h.HandleVoices)
	mux.HandleFunc("POST /tts/set-voice", h.HandleSetVoice)
	mux.HandleFunc("POST /tts/generate-audio", h.HandleGenerateAudio)
	mux.HandleFunc("GET /tts/download/{filename}", h.HandleDownloadAudio)
	mux.HandleFunc("POST /generate-script-with-audio", h.HandleGenerateScriptWithAudio)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// HandleHealth reports whether the API and its generation backend are up.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":  "healthy",
		"model":   h.cfg.Model,
		"message": "API and generation backend are running",
	}
	if h.cfg.Healthy != nil && !h.cfg.Healthy(r.Context()) {
		resp["status"] = "unhealthy"
		resp["message"] = "Generation backend is not accessible"
	}
	h.writeJSON(w, resp)
}
