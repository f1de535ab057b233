package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/auc-library-labs/scriptorium/internal/catalog"
	"github.com/auc-library-labs/scriptorium/internal/generate"
	"github.com/auc-library-labs/scriptorium/internal/models"
	"github.com/auc-library-labs/scriptorium/internal/persist"
	"github.com/auc-library-labs/scriptorium/internal/results"
	"github.com/auc-library-labs/scriptorium/internal/selection"
)

type fakeCatalog struct {
	items map[string]models.Item
}

func (f *fakeCatalog) QueryPage(ctx context.Context, spec catalog.FilterSpec) (*catalog.Page, error) {
	return &catalog.Page{}, nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, &catalog.ErrNotFound{ID: id}
	}
	return &item, nil
}

// fakeGenerator succeeds unless the item id is in failWith, and can block on
// a per-item gate to exercise cancellation.
type fakeGenerator struct {
	mu        sync.Mutex
	failWith  map[string]error
	generated []string
	onItem    func(id string)
}

func (f *fakeGenerator) Generate(ctx context.Context, artifactType string, item models.Item) (*models.ScriptResult, error) {
	f.mu.Lock()
	f.generated = append(f.generated, item.ID)
	f.mu.Unlock()
	if f.onItem != nil {
		f.onItem(item.ID)
	}
	if err, ok := f.failWith[item.ID]; ok {
		return nil, err
	}
	return &models.ScriptResult{
		EnglishScript: fmt.Sprintf("(SHOT) Script for %s", item.ID),
		ArabicScript:  "نص",
		QCPassed:      true,
	}, nil
}

func (f *fakeGenerator) Regenerate(ctx context.Context, req generate.RegenerateRequest) (*models.ScriptResult, error) {
	if err, ok := f.failWith[req.Item.ID]; ok {
		return nil, err
	}
	out := &models.ScriptResult{
		EnglishScript: req.OriginalEnglish,
		ArabicScript:  req.OriginalArabic,
		QCPassed:      true,
		Regenerated:   true,
	}
	if req.RegenerateEnglish {
		out.EnglishScript = "(SHOT) Reworked: " + req.UserComments
	}
	if req.RegenerateArabic {
		out.ArabicScript = "نص معاد"
	}
	return out, nil
}

func newTestHarness(t *testing.T, ids ...string) (*Orchestrator, *selection.Set, *results.Cache, *fakeGenerator, persist.Store) {
	t.Helper()
	store := persist.NewMemory()
	sel := selection.NewSet(store)
	cache := results.NewCache(store)

	items := make(map[string]models.Item, len(ids))
	for _, id := range ids {
		items[id] = models.Item{ID: id, Title: "Title of " + id}
		sel.Toggle(id)
	}
	gen := &fakeGenerator{failWith: map[string]error{}}
	orch := NewOrchestrator(&fakeCatalog{items: items}, gen, sel, cache)
	orch.SetItemDelay(0)
	return orch, sel, cache, gen, store
}

func TestRunEmptySelection(t *testing.T) {
	orch, _, cache, _, _ := newTestHarness(t)
	if err := orch.Run(context.Background(), generate.ArtifactDefault); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected no results, got %d", cache.Len())
	}
}

func TestRunFailureIsolation(t *testing.T) {
	orch, sel, cache, gen, store := newTestHarness(t, "a", "b", "c")
	gen.failWith["b"] = errors.New("generation timed out")

	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	entries := cache.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ItemID != "a" || entries[0].Failed() {
		t.Errorf("entry 0 = %+v, want success for a", entries[0])
	}
	if entries[1].ItemID != "b" || !entries[1].Failed() {
		t.Errorf("entry 1 = %+v, want failure for b", entries[1])
	}
	if !strings.Contains(entries[1].Error, "timed out") {
		t.Errorf("failure message %q should carry the cause", entries[1].Error)
	}
	if entries[2].ItemID != "c" || entries[2].Failed() {
		t.Errorf("entry 2 = %+v, want success for c", entries[2])
	}

	if sel.Len() != 0 {
		t.Errorf("selection should be cleared after completion, has %d ids", sel.Len())
	}

	// All three outcomes, failure included, must be on disk.
	var persisted []models.BatchResultEntry
	if !persist.LoadJSON(store, persist.KeyBatchResults, &persisted) {
		t.Fatal("no persisted batch results")
	}
	if len(persisted) != 3 {
		t.Fatalf("persisted %d entries, want 3", len(persisted))
	}
}

func TestRunLookupFailure(t *testing.T) {
	orch, _, cache, _, _ := newTestHarness(t, "a")
	// Select an id the catalog cannot resolve.
	orch.selection.Toggle("ghost")

	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	entries := cache.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Sorted order: a, ghost.
	ghost := entries[1]
	if !ghost.Failed() {
		t.Fatalf("lookup miss should be a failure entry, got %+v", ghost)
	}
	if ghost.Item.ID != "ghost" {
		t.Errorf("failure entry should carry a placeholder item with the id, got %+v", ghost.Item)
	}
	if !strings.Contains(ghost.Error, "not found") {
		t.Errorf("failure message %q should say the item was not found", ghost.Error)
	}
}

func TestRunDeterministicOrder(t *testing.T) {
	orch, _, _, gen, _ := newTestHarness(t, "zebra", "apple", "mango")
	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	want := []string{"apple", "mango", "zebra"}
	if len(gen.generated) != len(want) {
		t.Fatalf("generated %v, want %v", gen.generated, want)
	}
	for i, id := range want {
		if gen.generated[i] != id {
			t.Fatalf("generated %v, want %v", gen.generated, want)
		}
	}
}

func TestRunProgressReports(t *testing.T) {
	orch, _, _, _, _ := newTestHarness(t, "a", "b", "c")

	var reports []Progress
	orch.OnProgress(func(p Progress) { reports = append(reports, p) })
	completed := false
	orch.OnComplete(func() { completed = true })

	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if len(reports) != 4 {
		t.Fatalf("expected 4 progress reports, got %v", reports)
	}
	for i, p := range reports {
		if p.Current != i || p.Total != 3 {
			t.Errorf("report %d = %+v, want {%d 3}", i, p, i)
		}
	}
	if !completed {
		t.Error("completion callback never fired")
	}
	if orch.State() != StateCompleted {
		t.Errorf("state = %v, want completed", orch.State())
	}
}

func TestRunRejectsConcurrentStart(t *testing.T) {
	orch, _, _, gen, _ := newTestHarness(t, "a", "b")

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gen.onItem = func(string) {
		once.Do(func() { close(started) })
		<-release
	}

	done := make(chan error, 1)
	go func() { done <- orch.Run(context.Background(), generate.ArtifactDefault) }()

	<-started
	if err := orch.Run(context.Background(), generate.ArtifactDefault); !errors.Is(err, ErrBatchRunning) {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run returned %v", err)
	}
}

func TestRunCancelledBetweenItems(t *testing.T) {
	orch, sel, cache, gen, _ := newTestHarness(t, "a", "b", "c")

	ctx, cancel := context.WithCancel(context.Background())
	gen.onItem = func(id string) {
		if id == "a" {
			cancel()
		}
	}

	err := orch.Run(ctx, generate.ArtifactDefault)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The in-flight item finishes; nothing after it starts.
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry after cancellation, got %d", cache.Len())
	}
	if sel.Len() != 3 {
		t.Errorf("cancelled run must not consume the selection, have %d ids", sel.Len())
	}
	if orch.State() != StateIdle {
		t.Errorf("state = %v, want idle after cancellation", orch.State())
	}
}

func TestRegenerateValidation(t *testing.T) {
	orch, _, cache, gen, _ := newTestHarness(t, "a")
	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	regen := NewRegenerator(gen, cache)

	tests := []struct {
		name     string
		comments string
		english  bool
		arabic   bool
		wantErr  error
	}{
		{"empty comments", "   ", true, false, ErrEmptyComments},
		{"no channel", "tighten the opening", false, false, ErrNoChannel},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := regen.Regenerate(context.Background(), 0, generate.ArtifactDefault, tc.comments, tc.english, tc.arabic)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}

	if err := regen.Regenerate(context.Background(), 5, generate.ArtifactDefault, "comments", true, false); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestRegenerateReplacesInPlace(t *testing.T) {
	orch, _, cache, gen, _ := newTestHarness(t, "a", "b")
	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	originalB, err := cache.Get(1)
	if err != nil {
		t.Fatal(err)
	}

	regen := NewRegenerator(gen, cache)
	if err := regen.Regenerate(context.Background(), 0, generate.ArtifactDefault, "mention the binding", true, false); err != nil {
		t.Fatalf("Regenerate returned %v", err)
	}

	if cache.Len() != 2 {
		t.Fatalf("regeneration must not change list length, got %d", cache.Len())
	}
	entry, err := cache.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Result.Regenerated {
		t.Error("replaced result should be marked regenerated")
	}
	if !strings.Contains(entry.Result.EnglishScript, "mention the binding") {
		t.Errorf("english script %q should reflect the comments", entry.Result.EnglishScript)
	}
	after, err := cache.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if after.Result.EnglishScript != originalB.Result.EnglishScript {
		t.Error("neighbouring entry changed during regeneration")
	}
}

func TestRegenerateFailureKeepsOriginal(t *testing.T) {
	orch, _, cache, gen, _ := newTestHarness(t, "a")
	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	original, err := cache.Get(0)
	if err != nil {
		t.Fatal(err)
	}

	gen.failWith["a"] = errors.New("model unavailable")
	regen := NewRegenerator(gen, cache)
	if err := regen.Regenerate(context.Background(), 0, generate.ArtifactDefault, "comments", true, true); err == nil {
		t.Fatal("expected regeneration error")
	}

	entry, err := cache.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Result.EnglishScript != original.Result.EnglishScript || entry.Result.Regenerated {
		t.Error("failed regeneration must leave the prior result untouched")
	}
}

func TestRegenerateRejectsFailureEntry(t *testing.T) {
	orch, _, cache, gen, _ := newTestHarness(t, "a")
	gen.failWith["a"] = errors.New("boom")
	if err := orch.Run(context.Background(), generate.ArtifactDefault); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	delete(gen.failWith, "a")

	regen := NewRegenerator(gen, cache)
	if err := regen.Regenerate(context.Background(), 0, generate.ArtifactDefault, "comments", true, false); err == nil {
		t.Fatal("expected error regenerating a failure entry")
	}
}
