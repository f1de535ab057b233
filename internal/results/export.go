package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/auc-library-labs/scriptorium/internal/models"
)

// RunConfig describes the configuration a batch ran with, recorded at the
// top of the exported file.
type RunConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	ArtifactType string `yaml:"artifact_type"`
	Timestamp    string `yaml:"timestamp"`
}

// runExport is the exported document shape.
type runExport struct {
	Config  RunConfig      `yaml:"config"`
	Summary runSummary     `yaml:"summary"`
	Results []resultExport `yaml:"results"`
}

type runSummary struct {
	Total     int `yaml:"total"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
	QCPassed  int `yaml:"qc_passed"`
}

type resultExport struct {
	ItemID  string               `yaml:"item_id"`
	Title   string               `yaml:"title"`
	Creator string               `yaml:"creator,omitempty"`
	Result  *models.ScriptResult `yaml:"result,omitempty"`
	Error   string               `yaml:"error,omitempty"`
}

// SaveToYAML writes the batch outcomes to a timestamped YAML file under
// outputDir and returns the file path.
func SaveToYAML(outputDir string, cfg RunConfig, entries []models.BatchResultEntry) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	cfg.Timestamp = timestamp

	export := runExport{
		Config:  cfg,
		Results: make([]resultExport, 0, len(entries)),
	}

	for _, entry := range entries {
		export.Summary.Total++
		if entry.Failed() {
			export.Summary.Failed++
		} else {
			export.Summary.Succeeded++
			if entry.Result != nil && entry.Result.QCPassed {
				export.Summary.QCPassed++
			}
		}
		export.Results = append(export.Results, resultExport{
			ItemID:  entry.ItemID,
			Title:   entry.Item.BestTitle(),
			Creator: entry.Item.BestCreator(),
			Result:  entry.Result,
			Error:   entry.Error,
		})
	}

	data, err := yaml.Marshal(&export)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("batch_%s.yaml", timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results file: %w", err)
	}

	return path, nil
}
