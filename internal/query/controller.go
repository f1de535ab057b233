package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/auc-library-labs/scriptorium/internal/catalog"
	"github.com/auc-library-labs/scriptorium/internal/persist"
)

// State is the controller's request lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the controller's observable state at one point in time. Err is
// set only in StateError and is distinct from an empty result set.
type Snapshot struct {
	State State
	Spec  catalog.FilterSpec
	Page  *catalog.Page
	Err   error
}

// Controller owns the current filter/sort/page state and issues catalog
// queries for it. At most one query is in flight; a newer request supersedes
// an older one and stale responses are discarded by sequence comparison.
type Controller struct {
	catalog  catalog.Catalog
	store    persist.Store
	pageSize int
	onChange func(Snapshot)

	mu    sync.Mutex
	seq   uint64
	state State
	spec  catalog.FilterSpec
	page  *catalog.Page
	err   error
}

// NewController creates an idle controller. pageSize <= 0 selects the
// default.
func NewController(cat catalog.Catalog, store persist.Store, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller{
		catalog:  cat,
		store:    store,
		pageSize: pageSize,
		state:    StateIdle,
	}
}

// OnChange registers a single observer invoked after every state change.
// Must be called before the controller is used.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.onChange = fn
}

// Current returns the controller's observable state.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Spec: c.spec, Page: c.page, Err: c.err}
}

// SetFilters replaces the sort/search/field state and queries page 1. The
// returned error is a validation failure only; query failures are recorded
// in the snapshot's Err instead.
func (c *Controller) SetFilters(ctx context.Context, sortKey, search, field string) error {
	spec, err := BuildFilterSpec(search, field, sortKey, 1, c.pageSize, 0)
	if err != nil {
		return err
	}
	c.run(ctx, spec)
	return nil
}

// SetPage keeps the current filters and moves to page n. Out-of-range pages
// are rejected against the last known page count without touching the
// current state or the catalog.
func (c *Controller) SetPage(ctx context.Context, n int) error {
	c.mu.Lock()
	current := c.spec
	maxPage := 0
	if c.page != nil {
		maxPage = c.page.TotalPages
	}
	c.mu.Unlock()

	spec, err := BuildFilterSpec(current.SearchQuery, current.SearchField, current.Sort, n, c.pageSize, maxPage)
	if err != nil {
		return err
	}
	c.run(ctx, spec)
	return nil
}

// Refresh re-issues the current query, used after external catalog changes.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	spec := c.spec
	c.mu.Unlock()
	if spec.PageSize == 0 {
		spec = defaultSpec(c.pageSize)
	}
	c.run(ctx, spec)
}

// Restore loads the persisted FilterSpec, if any, and issues the equivalent
// query so a returning user lands on the same page and filters. With no
// usable persisted state it falls back to the default first page.
func (c *Controller) Restore(ctx context.Context) {
	spec := defaultSpec(c.pageSize)

	var saved catalog.FilterSpec
	if persist.LoadJSON(c.store, persist.KeyFilterState, &saved) && saved.Page >= 1 && saved.PageSize >= 1 {
		spec = saved
	}
	c.run(ctx, spec)
}

func defaultSpec(pageSize int) catalog.FilterSpec {
	spec, _ := BuildFilterSpec("", "", "", 1, pageSize, 0)
	return spec
}

// run issues the query for spec. The sequence number taken under the lock
// identifies this request; by the time the catalog answers, a newer request
// may have superseded it, in which case the response is discarded.
func (c *Controller) run(ctx context.Context, spec catalog.FilterSpec) {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.state = StateLoading
	snapshot := Snapshot{State: c.state, Spec: spec, Page: c.page}
	c.mu.Unlock()
	c.notify(snapshot)

	page, err := c.catalog.QueryPage(ctx, spec)

	c.mu.Lock()
	if token != c.seq {
		// A newer request owns the state now.
		c.mu.Unlock()
		slog.Debug("Discarding stale catalog response", "page", spec.Page, "query", spec.SearchQuery)
		return
	}

	c.spec = spec
	if err != nil {
		c.state = StateError
		c.page = &catalog.Page{}
		c.err = err
		slog.Error("Catalog query failed", "page", spec.Page, "query", spec.SearchQuery, "err", err)
	} else {
		c.state = StateIdle
		c.page = page
		c.err = nil
		if persistErr := persist.SaveJSON(c.store, persist.KeyFilterState, spec); persistErr != nil {
			slog.Warn("Failed to persist filter state", "err", persistErr)
		}
	}
	snapshot = Snapshot{State: c.state, Spec: c.spec, Page: c.page, Err: c.err}
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) notify(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
