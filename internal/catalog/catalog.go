// Package catalog defines the query contract against the digital collection
// and provides two implementations: a local store backed by a JSONL or
// Parquet export, and an HTTP client for a remote collection API.
package catalog

import (
	"context"
	"fmt"

	"github.com/auc-library-labs/scriptorium/internal/models"
)

// Sort keys accepted by QueryPage.
const (
	SortTitleAZ    = "Title A-Z"
	SortCreatorAZ  = "Creator A-Z"
	SortYearOldest = "Year oldest first"
	SortYearNewest = "Year newest first"
)

// SearchAllFields fans the search out over every searchable column.
const SearchAllFields = "All Fields"

// SearchFields lists the columns a search may target, in display order.
var SearchFields = []string{
	SearchAllFields,
	"Title",
	"Creator",
	"Description",
	"Subject",
	"Type",
	"Collection",
	"Language",
	"Call number",
	"Date",
	"Notes",
}

// FilterSpec is the canonical description of one page request. Two specs
// that compare equal describe the same server query.
type FilterSpec struct {
	Page        int    `json:"page"`
	PageSize    int    `json:"limit"`
	Sort        string `json:"sort"`
	SearchQuery string `json:"searchQuery"`
	SearchField string `json:"searchIn"`
}

// Equal reports field-by-field equality, used to decide whether a refetch
// is needed.
func (f FilterSpec) Equal(other FilterSpec) bool {
	return f == other
}

// Page is one page of query results together with collection-wide totals.
type Page struct {
	Items      []models.Item `json:"items"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// ErrNotFound is returned by GetByID when no record carries the id.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("item %s not found in catalog", e.ID)
}

// Catalog is the collection collaborator. GetByID must resolve any id in the
// collection regardless of what the current filter would show, so batch
// processing stays correct for items scrolled out of view.
type Catalog interface {
	QueryPage(ctx context.Context, spec FilterSpec) (*Page, error)
	GetByID(ctx context.Context, id string) (*models.Item, error)
}
