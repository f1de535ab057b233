// Package batch drives the sequential generation pipeline over the current
// selection: resolve each id, call the generator, record the outcome, and
// persist after every item so a crash or reload shows partial progress.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/auc-library-labs/scriptorium/internal/catalog"
	"github.com/auc-library-labs/scriptorium/internal/generate"
	"github.com/auc-library-labs/scriptorium/internal/models"
	"github.com/auc-library-labs/scriptorium/internal/results"
	"github.com/auc-library-labs/scriptorium/internal/selection"
)

// Validation failures reported before a run starts.
var (
	ErrEmptySelection = errors.New("no items selected for generation")
	ErrBatchRunning   = errors.New("a batch is already running")
)

// Generator is the content-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, artifactType string, item models.Item) (*models.ScriptResult, error)
	Regenerate(ctx context.Context, req generate.RegenerateRequest) (*models.ScriptResult, error)
}

// State is the orchestrator's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Progress is one progress report: Current items are done out of Total.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// DefaultItemDelay is the pause between items. It exists so progress is
// visible in the UI, not for correctness.
const DefaultItemDelay = 500 * time.Millisecond

// Orchestrator runs batches. Exactly one generation call is in flight at any
// time; the local inference backend serves a single request well and falls
// over under concurrency.
type Orchestrator struct {
	catalog   catalog.Catalog
	generator Generator
	selection *selection.Set
	cache     *results.Cache
	itemDelay time.Duration

	onProgress func(Progress)
	onComplete func()

	mu       sync.Mutex
	state    State
	progress Progress
}

// NewOrchestrator wires the orchestrator to its collaborators.
func NewOrchestrator(cat catalog.Catalog, gen Generator, sel *selection.Set, cache *results.Cache) *Orchestrator {
	return &Orchestrator{
		catalog:   cat,
		generator: gen,
		selection: sel,
		cache:     cache,
		itemDelay: DefaultItemDelay,
		state:     StateIdle,
	}
}

// SetItemDelay overrides the inter-item pause. Zero disables it.
func (o *Orchestrator) SetItemDelay(d time.Duration) {
	o.itemDelay = d
}

// OnProgress registers the progress observer. Must be set before Run.
func (o *Orchestrator) OnProgress(fn func(Progress)) {
	o.onProgress = fn
}

// OnComplete registers the completion observer, typically used to move
// focus to the results area. Must be set before Run.
func (o *Orchestrator) OnComplete(fn func()) {
	o.onComplete = fn
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Progress returns the latest progress report.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Run executes one batch over a snapshot of the current selection,
// sequentially and in sorted id order. One item's failure never aborts the
// batch: lookup and generation errors become failure entries and the loop
// moves on. The result cache is persisted after every single item.
//
// The returned error is a precondition failure (empty selection, batch
// already running) or the context's error when the run is cancelled between
// items. Per-item failures are never returned.
func (o *Orchestrator) Run(ctx context.Context, artifactType string) error {
	ids := o.selection.Snapshot()
	if len(ids) == 0 {
		return ErrEmptySelection
	}

	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return ErrBatchRunning
	}
	o.state = StateRunning
	o.progress = Progress{Current: 0, Total: len(ids)}
	o.mu.Unlock()

	slog.Info("Batch started", "items", len(ids), "artifact_type", artifactType)
	o.emitProgress(Progress{Current: 0, Total: len(ids)})

	for i, id := range ids {
		// Cancellation boundary: never interrupt an in-flight item, but
		// stop before starting the next one.
		if err := ctx.Err(); err != nil {
			o.mu.Lock()
			o.state = StateIdle
			o.mu.Unlock()
			slog.Info("Batch cancelled", "processed", i, "total", len(ids))
			return err
		}

		o.cache.Append(o.processItem(ctx, id, artifactType))

		current := i + 1
		o.mu.Lock()
		o.progress = Progress{Current: current, Total: len(ids)}
		o.mu.Unlock()
		o.emitProgress(Progress{Current: current, Total: len(ids)})

		if o.itemDelay > 0 && current < len(ids) {
			select {
			case <-time.After(o.itemDelay):
			case <-ctx.Done():
			}
		}
	}

	// A finished batch consumes the selection.
	o.selection.Clear()

	o.mu.Lock()
	o.state = StateCompleted
	o.mu.Unlock()

	slog.Info("Batch completed", "items", len(ids))
	if o.onComplete != nil {
		o.onComplete()
	}
	return nil
}

// processItem resolves and generates one item, converting any failure into
// a failure entry.
func (o *Orchestrator) processItem(ctx context.Context, id, artifactType string) models.BatchResultEntry {
	item, err := o.catalog.GetByID(ctx, id)
	if err != nil {
		slog.Warn("Item lookup failed", "id", id, "err", err)
		return models.BatchResultEntry{
			ItemID: id,
			Item:   models.Item{ID: id},
			Error:  err.Error(),
		}
	}

	result, err := o.generator.Generate(ctx, artifactType, *item)
	if err != nil {
		slog.Warn("Generation failed", "id", id, "err", err)
		return models.BatchResultEntry{
			ItemID: id,
			Item:   *item,
			Error:  err.Error(),
		}
	}

	return models.BatchResultEntry{
		ItemID: id,
		Item:   *item,
		Result: result,
	}
}

func (o *Orchestrator) emitProgress(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}
