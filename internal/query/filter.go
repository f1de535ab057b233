// Package query owns the catalog browsing state: it builds canonical
// FilterSpecs from raw user intent and drives paginated queries against the
// catalog, keeping at most one request in flight.
package query

import (
	"fmt"

	"github.com/auc-library-labs/scriptorium/internal/catalog"
)

// DefaultPageSize is used when the caller does not configure one.
const DefaultPageSize = 100

// OutOfRangeError reports a page request outside the known page range. It is
// returned instead of silently clamping so the caller can show the valid
// bound to the user.
type OutOfRangeError struct {
	Page    int
	MaxPage int
}

func (e *OutOfRangeError) Error() string {
	if e.MaxPage > 0 {
		return fmt.Sprintf("page %d is out of range (valid: 1-%d)", e.Page, e.MaxPage)
	}
	return fmt.Sprintf("page %d is out of range (pages start at 1)", e.Page)
}

// BuildFilterSpec normalizes raw search input into a canonical FilterSpec.
// Empty field and sort values fall back to the defaults. maxPage is the last
// known page count; zero means unknown, in which case only the lower bound
// is enforced.
func BuildFilterSpec(search, field, sortKey string, page, pageSize, maxPage int) (catalog.FilterSpec, error) {
	if field == "" {
		field = catalog.SearchAllFields
	}
	if sortKey == "" {
		sortKey = catalog.SortTitleAZ
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 || (maxPage > 0 && page > maxPage) {
		return catalog.FilterSpec{}, &OutOfRangeError{Page: page, MaxPage: maxPage}
	}

	return catalog.FilterSpec{
		Page:        page,
		PageSize:    pageSize,
		Sort:        sortKey,
		SearchQuery: search,
		SearchField: field,
	}, nil
}
