package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/auc-library-labs/scriptorium/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the script generation API server",
		Long: `Starts the Scriptorium API on the specified port.

The API serves the paginated catalog gallery, single and batch script
generation, result regeneration, and text-to-speech narration.`,
		Example: `  # Start server on default port 8002
  scriptorium serve

  # Start server on custom port
  scriptorium serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			handler := handlers.New(handlers.Config{
				Catalog:   app.catalog,
				Generator: app.generator,
				Selection: app.selection,
				Results:   app.results,
				Batches:   app.batches,
				Speech:    app.speech,
				AudioDir:  app.audioDir,
				Model:     app.generator.Model(),
				Healthy:   app.generator.Healthy,
			})

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Scriptorium API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8002", "Port to listen on")

	return cmd
}
