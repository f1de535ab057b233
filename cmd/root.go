package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scriptorium",
		Short: "Bilingual video script generation for digital library collections",
		Long: `Scriptorium turns digital collection records into short bilingual video
scripts with optional narration audio.

It serves a browsing and generation API over a catalog export, and runs
batch generation jobs over a persisted item selection from the CLI.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newVoicesCmd())

	return cmd
}
