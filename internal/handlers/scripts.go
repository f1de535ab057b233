package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/auc-library-labs/scriptorium/internal/batch"
	"github.com/auc-library-labs/scriptorium/internal/generate"
	"github.com/auc-library-labs/scriptorium/internal/models"
)

type metadataRequest struct {
	ArtifactType string      `json:"artifact_type"`
	Metadata     models.Item `json:"metadata"`
}

// HandleGenerateScript generates one script synchronously from posted
// metadata, without touching the selection or the result cache.
func (h *Handler) HandleGenerateScript(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.cfg.Generator.Generate(r.Context(), req.ArtifactType, req.Metadata)
	if err != nil {
		h.writeError(w, "Script generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, result)
}

type batchRequest struct {
	ArtifactType string   `json:"artifact_type"`
	IDs          []string `json:"ids,omitempty"`
}

// HandleGenerateBatch starts a batch over the posted ids plus the stored
// selection. The run continues in the background; poll /batch/status for
// progress and results.
func (h *Handler) HandleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	for _, id := range req.IDs {
		if !h.cfg.Selection.Has(id) {
			h.cfg.Selection.Toggle(id)
		}
	}

	if h.cfg.Batches.State() == batch.StateRunning {
		h.writeError(w, batch.ErrBatchRunning.Error(), http.StatusConflict)
		return
	}
	count := h.cfg.Selection.Len()
	if count == 0 {
		h.writeError(w, batch.ErrEmptySelection.Error(), http.StatusBadRequest)
		return
	}

	artifactType := req.ArtifactType
	if artifactType == "" {
		artifactType = generate.ArtifactDefault
	}

	// Detached from the request context: closing the browser tab must not
	// cancel a running batch.
	go func() {
		if err := h.cfg.Batches.Run(context.Background(), artifactType); err != nil {
			slog.Error("Batch run failed to start", "err", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	h.writeJSON(w, map[string]interface{}{
		"started": true,
		"items":   count,
	})
}

// HandleBatchStatus reports the orchestrator state, progress, the cached
// results, and the current selection.
func (h *Handler) HandleBatchStatus(w http.ResponseWriter, r *http.Request) {
	progress := h.cfg.Batches.Progress()
	h.writeJSON(w, map[string]interface{}{
		"state":    h.cfg.Batches.State().String(),
		"progress": progress,
		"results":  h.cfg.Results.Entries(),
		"selected": h.cfg.Selection.Snapshot(),
	})
}

type selectionRequest struct {
	ID    string `json:"id,omitempty"`
	Clear bool   `json:"clear,omitempty"`
}

// HandleSelection toggles one id in the selection, or clears it entirely.
func (h *Handler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if req.Clear {
		h.cfg.Selection.Clear()
		h.writeJSON(w, map[string]interface{}{"count": 0})
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		h.writeError(w, "id is required", http.StatusBadRequest)
		return
	}

	selected := h.cfg.Selection.Toggle(req.ID)
	h.writeJSON(w, map[string]interface{}{
		"id":       req.ID,
		"selected": selected,
		"count":    h.cfg.Selection.Len(),
	})
}

type regenerateRequest struct {
	ResultIndex       int    `json:"result_index"`
	ArtifactType      string `json:"artifact_type"`
	UserComments      string `json:"user_comments"`
	RegenerateEnglish bool   `json:"regenerate_english"`
	RegenerateArabic  bool   `json:"regenerate_arabic"`
}

// HandleRegenerateScript reworks one cached result guided by user comments.
func (h *Handler) HandleRegenerateScript(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	regen := batch.NewRegenerator(h.cfg.Generator, h.cfg.Results)
	err := regen.Regenerate(r.Context(), req.ResultIndex, req.ArtifactType, req.UserComments, req.RegenerateEnglish, req.RegenerateArabic)
	switch {
	case errors.Is(err, batch.ErrEmptyComments), errors.Is(err, batch.ErrNoChannel):
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.writeError(w, "Script regeneration failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	entry, err := h.cfg.Results.Get(req.ResultIndex)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, entry)
}
