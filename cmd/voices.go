package cmd

import (
	"fmt"
	"os"

	"github.com/auc-library-labs/scriptorium/internal/tts"
	"github.com/spf13/cobra"
)

func newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List available narration voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			modelsDir := os.Getenv("TTS_MODELS_DIR")
			if modelsDir == "" {
				modelsDir = "tts_models"
			}
			svc := tts.NewService(modelsDir, os.TempDir())

			for _, v := range svc.Voices() {
				status := "not downloaded"
				if v.Downloaded {
					status = "downloaded"
				}
				fmt.Printf("%-25s %-35s %s\n", v.ID, v.Name, status)
			}
			return nil
		},
	}
	return cmd
}
