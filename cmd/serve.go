package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lookbook-app/lookbook/internal/gate"
	"github.com/lookbook-app/lookbook/internal/handlers"
	"github.com/lookbook-app/lookbook/internal/recommend"
)

func newServeCmd() *cobra.Command {
	var port string
	var serviceURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lookbook web interface",
		Long: `Starts the lookbook web interface on the specified port.

Browsers sign in with a token or as a guest; the session lives in their cookies.
Uploaded photos are forwarded to the recommendation service.`,
		Example: `  # Start server on default port 8888
  lookbook serve

  # Start server on custom port against a remote service
  lookbook serve --port 3000 --service-url https://recommend.example.com`,
		Annotations: map[string]string{gate.PublicAnnotation: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			if serviceURL == "" {
				serviceURL = recommend.BaseURLFromEnv()
			}
			handler := handlers.New(recommend.NewClient(serviceURL))
			defer handler.Close()

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Lookbook interface available", "addr", addr, "url", "http://localhost"+addr, "service", serviceURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
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

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&serviceURL, "service-url", "", "Recommendation service base URL (defaults to $LOOKBOOK_SERVICE_URL or "+recommend.DefaultBaseURL+")")

	return cmd
}
