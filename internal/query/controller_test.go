package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/auc-library-labs/scriptorium/internal/catalog"
	"github.com/auc-library-labs/scriptorium/internal/models"
	"github.com/auc-library-labs/scriptorium/internal/persist"
)

// fakeCatalog answers queries from a canned page and can be made to fail or
// to block until released, to exercise request supersession.
type fakeCatalog struct {
	mu      sync.Mutex
	calls   []catalog.FilterSpec
	page    *catalog.Page
	err     error
	blockOn string
	release chan struct{}
}

func (f *fakeCatalog) QueryPage(ctx context.Context, spec catalog.FilterSpec) (*catalog.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	blocked := f.blockOn != "" && spec.SearchQuery == f.blockOn
	release := f.release
	page := f.page
	err := f.err
	f.mu.Unlock()

	if blocked {
		<-release
	}
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &catalog.Page{Items: []models.Item{{ID: "x"}}, Total: 1, TotalPages: 1}
	}
	// Echo the query so tests can tell responses apart.
	echoed := *page
	echoed.Items = append([]models.Item(nil), page.Items...)
	if len(echoed.Items) > 0 {
		echoed.Items[0].Notes = spec.SearchQuery
	}
	return &echoed, nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*models.Item, error) {
	return nil, &catalog.ErrNotFound{ID: id}
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestBuildFilterSpecDefaults(t *testing.T) {
	spec, err := BuildFilterSpec("", "", "", 1, 0, 0)
	if err != nil {
		t.Fatalf("BuildFilterSpec failed: %v", err)
	}
	if spec.SearchField != catalog.SearchAllFields {
		t.Errorf("Expected default search field, got %q", spec.SearchField)
	}
	if spec.Sort != catalog.SortTitleAZ {
		t.Errorf("Expected default sort, got %q", spec.Sort)
	}
	if spec.Page != 1 || spec.PageSize != DefaultPageSize {
		t.Errorf("Expected page 1 size %d, got %d/%d", DefaultPageSize, spec.Page, spec.PageSize)
	}
}

func TestBuildFilterSpecOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		maxPage int
	}{
		{"zero page", 0, 0},
		{"negative page", -3, 0},
		{"beyond known limit", 11, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildFilterSpec("", "", "", tt.page, 100, tt.maxPage)
			if err == nil {
				t.Fatal("Expected out of range error, got nil")
			}
			var oor *OutOfRangeError
			if !errors.As(err, &oor) {
				t.Fatalf("Expected OutOfRangeError, got %T", err)
			}
			if oor.Page != tt.page || oor.MaxPage != tt.maxPage {
				t.Errorf("Expected bounds in error, got %+v", oor)
			}
		})
	}
}

func TestFilterSpecEquality(t *testing.T) {
	a, _ := BuildFilterSpec("cairo", "Title", catalog.SortTitleAZ, 1, 100, 0)
	b, _ := BuildFilterSpec("cairo", "Title", catalog.SortTitleAZ, 1, 100, 0)
	if !a.Equal(b) {
		t.Error("Expected identical specs to compare equal")
	}
	b.Page = 2
	if a.Equal(b) {
		t.Error("Expected differing specs to compare unequal")
	}
}

func TestSetFiltersResetsPage(t *testing.T) {
	fake := &fakeCatalog{page: &catalog.Page{Items: []models.Item{{ID: "x"}}, Total: 500, TotalPages: 5}}
	ctrl := NewController(fake, persist.NewMemory(), 100)

	if err := ctrl.SetFilters(context.Background(), catalog.SortTitleAZ, "", ""); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}
	if err := ctrl.SetPage(context.Background(), 4); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	if got := ctrl.Current().Spec.Page; got != 4 {
		t.Fatalf("Expected page 4, got %d", got)
	}

	// Any filter change goes back to page 1.
	if err := ctrl.SetFilters(context.Background(), catalog.SortCreatorAZ, "nile", "Title"); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}
	snap := ctrl.Current()
	if snap.Spec.Page != 1 {
		t.Errorf("Expected page reset to 1, got %d", snap.Spec.Page)
	}
	if snap.Spec.Sort != catalog.SortCreatorAZ || snap.Spec.SearchQuery != "nile" {
		t.Errorf("Expected new filters stored, got %+v", snap.Spec)
	}
}

func TestSetPageKeepsFilters(t *testing.T) {
	fake := &fakeCatalog{page: &catalog.Page{Items: []models.Item{{ID: "x"}}, Total: 300, TotalPages: 3}}
	ctrl := NewController(fake, persist.NewMemory(), 100)

	if err := ctrl.SetFilters(context.Background(), catalog.SortYearNewest, "port", "Title"); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}
	if err := ctrl.SetPage(context.Background(), 2); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}

	spec := ctrl.Current().Spec
	if spec.Page != 2 {
		t.Errorf("Expected page 2, got %d", spec.Page)
	}
	if spec.Sort != catalog.SortYearNewest || spec.SearchQuery != "port" || spec.SearchField != "Title" {
		t.Errorf("Expected filters unchanged, got %+v", spec)
	}
}

func TestSetPageOutOfRangeMakesNoCatalogCall(t *testing.T) {
	fake := &fakeCatalog{page: &catalog.Page{Items: []models.Item{{ID: "x"}}, Total: 100, TotalPages: 1}}
	ctrl := NewController(fake, persist.NewMemory(), 100)

	if err := ctrl.SetFilters(context.Background(), "", "", ""); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}
	before := ctrl.Current().Spec
	calls := fake.callCount()

	if err := ctrl.SetPage(context.Background(), 0); err == nil {
		t.Fatal("Expected validation error for page 0")
	}
	if err := ctrl.SetPage(context.Background(), 2); err == nil {
		t.Fatal("Expected validation error for page beyond total")
	}

	if fake.callCount() != calls {
		t.Error("Expected no catalog call for rejected pages")
	}
	if got := ctrl.Current().Spec; !got.Equal(before) {
		t.Errorf("Expected spec unchanged, got %+v", got)
	}
}

func TestQueryErrorIsDistinctState(t *testing.T) {
	fake := &fakeCatalog{err: errors.New("catalog unreachable")}
	ctrl := NewController(fake, persist.NewMemory(), 100)

	if err := ctrl.SetFilters(context.Background(), "", "", ""); err != nil {
		t.Fatalf("SetFilters should not surface query errors, got %v", err)
	}

	snap := ctrl.Current()
	if snap.State != StateError {
		t.Errorf("Expected error state, got %v", snap.State)
	}
	if snap.Err == nil {
		t.Error("Expected error recorded in snapshot")
	}
	if snap.Page == nil || len(snap.Page.Items) != 0 {
		t.Error("Expected empty results alongside the error")
	}

	// A later success clears the error.
	fake.mu.Lock()
	fake.err = nil
	fake.mu.Unlock()
	if err := ctrl.SetFilters(context.Background(), "", "", ""); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}
	snap = ctrl.Current()
	if snap.State != StateIdle || snap.Err != nil {
		t.Errorf("Expected recovery to idle, got state=%v err=%v", snap.State, snap.Err)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	fake := &fakeCatalog{
		page:    &catalog.Page{Items: []models.Item{{ID: "x"}}, Total: 1, TotalPages: 1},
		blockOn: "slow",
		release: make(chan struct{}),
	}
	ctrl := NewController(fake, persist.NewMemory(), 100)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.SetFilters(context.Background(), "", "slow", "")
	}()

	// Wait until the slow request is in flight.
	for fake.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := ctrl.SetFilters(context.Background(), "", "fast", ""); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}

	close(fake.release)
	<-done

	snap := ctrl.Current()
	if snap.Spec.SearchQuery != "fast" {
		t.Errorf("Expected newest request to win, got %q", snap.Spec.SearchQuery)
	}
	if len(snap.Page.Items) == 0 || snap.Page.Items[0].Notes != "fast" {
		t.Error("Expected the fast response retained, stale response discarded")
	}
}

func TestRestoreReissuesPersistedQuery(t *testing.T) {
	store := persist.NewMemory()
	fake := &fakeCatalog{page: &catalog.Page{Items: []models.Item{{ID: "x"}}, Total: 500, TotalPages: 5}}

	first := NewController(fake, store, 100)
	if err := first.SetFilters(context.Background(), catalog.SortCreatorAZ, "delta", "Creator"); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}
	if err := first.SetPage(context.Background(), 3); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}

	// A fresh controller over the same store lands on the same view.
	second := NewController(fake, store, 100)
	second.Restore(context.Background())

	spec := second.Current().Spec
	if spec.Page != 3 || spec.SearchQuery != "delta" || spec.Sort != catalog.SortCreatorAZ {
		t.Errorf("Expected restored spec, got %+v", spec)
	}
}

func TestRestoreWithoutPersistedStateUsesDefaults(t *testing.T) {
	fake := &fakeCatalog{}
	ctrl := NewController(fake, persist.NewMemory(), 100)
	ctrl.Restore(context.Background())

	spec := ctrl.Current().Spec
	if spec.Page != 1 || spec.SearchField != catalog.SearchAllFields || spec.Sort != catalog.SortTitleAZ {
		t.Errorf("Expected default spec, got %+v", spec)
	}
}

func TestOnChangeObserver(t *testing.T) {
	fake := &fakeCatalog{}
	ctrl := NewController(fake, persist.NewMemory(), 100)

	var mu sync.Mutex
	var states []State
	ctrl.OnChange(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	if err := ctrl.SetFilters(context.Background(), "", "", ""); err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateLoading || states[1] != StateIdle {
		t.Errorf("Expected loading then idle, got %v", states)
	}
}
