package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/auc-library-labs/scriptorium/internal/batch"
	"github.com/auc-library-labs/scriptorium/internal/catalog"
	"github.com/auc-library-labs/scriptorium/internal/generate"
	"github.com/auc-library-labs/scriptorium/internal/persist"
	"github.com/auc-library-labs/scriptorium/internal/results"
	"github.com/auc-library-labs/scriptorium/internal/selection"
	"github.com/auc-library-labs/scriptorium/internal/tts"
)

// app holds the wired services shared by the serve and batch commands.
type app struct {
	store     *persist.SQLite
	catalog   catalog.Catalog
	generator *generate.Service
	selection *selection.Set
	results   *results.Cache
	batches   *batch.Orchestrator
	speech    *tts.Service
	audioDir  string
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// buildApp wires the full service graph from the environment and restores
// persisted state.
func buildApp() (*app, error) {
	store, err := persist.OpenSQLite(envOr("SCRIPTORIUM_STATE_DB", "data/scriptorium.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	var cat catalog.Catalog
	if url := os.Getenv("CATALOG_URL"); url != "" {
		cat = catalog.NewClient(url)
		slog.Info("Using remote catalog", "url", url)
	} else {
		path := envOr("CATALOG_PATH", "sample_data.jsonl")
		local, err := catalog.LoadLocal(path)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("loading catalog from %s: %w", path, err)
		}
		cat = local
		slog.Info("Loaded local catalog", "path", path)
	}

	generator, err := generate.NewServiceFromEnv()
	if err != nil {
		store.Close()
		return nil, err
	}

	sel := selection.NewSet(store)
	sel.Restore()
	cache := results.NewCache(store)
	cache.Restore()

	audioDir := envOr("AUDIO_OUTPUT_DIR", "audio_output")

	return &app{
		store:     store,
		catalog:   cat,
		generator: generator,
		selection: sel,
		results:   cache,
		batches:   batch.NewOrchestrator(cat, generator, sel, cache),
		speech:    tts.NewService(envOr("TTS_MODELS_DIR", "tts_models"), audioDir),
		audioDir:  audioDir,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close state store", "err", err)
	}
}
