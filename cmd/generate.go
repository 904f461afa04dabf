package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookbook-app/lookbook/internal/gallery"
	"github.com/lookbook-app/lookbook/internal/images"
	"github.com/lookbook-app/lookbook/internal/models"
	"github.com/lookbook-app/lookbook/internal/recommend"
	"github.com/lookbook-app/lookbook/internal/upload"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var serviceURL string
	var format string
	var output string
	var downloadDir string

	cmd := &cobra.Command{
		Use:   "generate IMAGE...",
		Short: "Upload images and list the recommended items",
		Long: `Uploads one or more JPEG or PNG images in a single request to the
recommendation service and prints the returned items as one flat list.

Images may be local paths or http(s) URLs. Files that are not JPEG or PNG are skipped.`,
		Example: `  # Show recommendations as a table
  lookbook generate casual.jpg formal.png

  # Save the items as parquet and download their images
  lookbook generate look.jpg --format parquet --output items.parquet --download ./items`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if serviceURL == "" {
				serviceURL = recommend.BaseURLFromEnv()
			}
			if format == "parquet" && output == "" {
				return fmt.Errorf("--output is required for parquet")
			}

			store, err := opts.sessions()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			fetcher := images.NewFetcher()

			files, err := upload.LoadFiles(ctx, args, fetcher)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No JPEG or PNG images selected.")
				return nil
			}

			var items []models.Item
			orch := upload.New(recommend.NewClient(serviceURL), store,
				upload.WithCallbacks(upload.Callbacks{
					OnLoadingChange: func(loading bool) {
						if loading {
							slog.Info("Generating recommendations", "images", len(files), "service", serviceURL)
						}
					},
					OnItemsReady: func(ready []models.Item) {
						items = ready
					},
				}),
			)
			defer orch.Close()

			if err := orch.SelectFiles(files); err != nil {
				return err
			}
			if err := orch.Generate(ctx); err != nil {
				return errors.New(upload.UserMessage(err))
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if format == "" {
				format = gallery.DefaultFormat(w)
			}
			if err := gallery.Render(w, items, format); err != nil {
				return err
			}

			if downloadDir != "" && len(items) > 0 {
				saved, err := fetcher.DownloadItems(ctx, items, downloadDir)
				if err != nil {
					return err
				}
				slog.Info("Downloaded item images", "saved", saved, "total", len(items), "dir", downloadDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serviceURL, "service-url", "", "Recommendation service base URL (defaults to $LOOKBOOK_SERVICE_URL or "+recommend.DefaultBaseURL+")")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format ("+strings.Join(gallery.Formats, ", ")+"); defaults to text on a terminal, json otherwise")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write items to this file instead of stdout")
	cmd.Flags().StringVar(&downloadDir, "download", "", "Also download every item image into this directory")

	return cmd
}
