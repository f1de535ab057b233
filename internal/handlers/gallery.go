package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/auc-library-labs/scriptorium/internal/catalog"
	"github.com/auc-library-labs/scriptorium/internal/query"
)

// HandleListBooks serves one page of the catalog with search and sort
// applied.
func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	limit := intParam(r, "limit", 20)
	sortKey := r.URL.Query().Get("sort")
	searchQuery := r.URL.Query().Get("searchQuery")
	searchIn := r.URL.Query().Get("searchIn")

	spec, err := query.BuildFilterSpec(searchQuery, searchIn, sortKey, page, limit, 0)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.cfg.Catalog.QueryPage(r.Context(), spec)
	if err != nil {
		h.writeError(w, "Failed to load gallery: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"books":       result.Items,
		"page":        spec.Page,
		"limit":       spec.PageSize,
		"total":       result.Total,
		"total_pages": result.TotalPages,
	})
}

// HandleBookDetail serves one full catalog record by id.
func (h *Handler) HandleBookDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := h.cfg.Catalog.GetByID(r.Context(), id)
	if err != nil {
		var notFound *catalog.ErrNotFound
		if errors.As(err, &notFound) {
			h.writeError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.writeError(w, "Failed to load record: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, item)
}

// HandleGallery serves a flat display summary of the first page of the
// catalog, with titles and dates already resolved for rendering.
func (h *Handler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	spec, err := query.BuildFilterSpec("", "", "", 1, query.DefaultPageSize, 0)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result, err := h.cfg.Catalog.QueryPage(r.Context(), spec)
	if err != nil {
		h.writeError(w, "Failed to load gallery: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type galleryItem struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Creator     string `json:"creator"`
		Date        string `json:"date"`
		Description string `json:"description"`
		CallNumber  string `json:"call_number"`
	}
	items := make([]galleryItem, 0, len(result.Items))
	for i := range result.Items {
		item := &result.Items[i]
		callNumber := item.CallNumber
		if callNumber == "" {
			callNumber = "N/A"
		}
		items = append(items, galleryItem{
			ID:          item.ID,
			Title:       item.BestTitle(),
			Creator:     item.BestCreator(),
			Date:        item.DisplayDate(),
			Description: item.BestDescription(),
			CallNumber:  callNumber,
		})
	}
	h.writeJSON(w, map[string]interface{}{"items": items})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
