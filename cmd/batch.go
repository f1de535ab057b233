package cmd

import (
	"fmt"
	"os"

	"github.com/auc-library-labs/scriptorium/internal/batch"
	"github.com/auc-library-labs/scriptorium/internal/generate"
	"github.com/auc-library-labs/scriptorium/internal/results"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var (
		artifactType string
		outputDir    string
		clearResults bool
	)

	cmd := &cobra.Command{
		Use:   "batch [item-id ...]",
		Short: "Run batch script generation over selected items",
		Long: `Runs script generation for the given item ids, or for the persisted
selection when no ids are passed. Items are processed one at a time and
every outcome is saved as it lands, so an interrupted run keeps its
partial results.

When the run finishes, a YAML summary of the batch is written to the
output directory.`,
		Example: `  # Run over the selection persisted by the web UI
  scriptorium batch

  # Run over explicit ids with a different script style
  scriptorium batch 68a1f 68a20 --artifact-type publication_deep_dive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if clearResults {
				app.results.Clear()
			}
			for _, id := range args {
				if !app.selection.Has(id) {
					app.selection.Toggle(id)
				}
			}

			app.batches.OnProgress(func(p batch.Progress) {
				fmt.Fprintf(os.Stderr, "\rGenerating scripts... %d/%d", p.Current, p.Total)
			})
			app.batches.OnComplete(func() {
				fmt.Fprintln(os.Stderr)
			})

			if err := app.batches.Run(cmd.Context(), artifactType); err != nil {
				return err
			}

			entries := app.results.Entries()
			path, err := results.SaveToYAML(outputDir, results.RunConfig{
				Provider:     os.Getenv("GENERATION_PROVIDER"),
				Model:        app.generator.Model(),
				ArtifactType: artifactType,
			}, entries)
			if err != nil {
				return err
			}

			succeeded := 0
			for _, entry := range entries {
				if !entry.Failed() {
					succeeded++
				}
			}
			fmt.Printf("Batch finished: %d/%d succeeded\n", succeeded, len(entries))
			fmt.Printf("Results written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&artifactType, "artifact-type", "a", generate.ArtifactDefault, "Script style: publication, photograph, publication_deep_dive, or default")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "batch_results", "Directory for the YAML results summary")
	cmd.Flags().BoolVar(&clearResults, "clear-results", false, "Drop previously cached results before running")

	return cmd
}
