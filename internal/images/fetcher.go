package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/lookbook-app/lookbook/internal/models"
)

// maxImageBytes caps a single download
const maxImageBytes = 20 * 1024 * 1024

// Fetcher retrieves images over HTTP, both for remote inputs and for
// saving recommended items locally
type Fetcher struct {
	HTTPClient  *http.Client
	Concurrency int
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Concurrency: 4,
	}
}

// Fetch downloads an image and returns its bytes and a filename derived from the URL
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image too large (max %d bytes)", maxImageBytes)
	}

	return data, filenameFromURL(imageURL), nil
}

// DownloadItems saves every item image into dir as <index>_<name>. Failures are
// logged and skipped; the number of saved files is returned.
func (f *Fetcher) DownloadItems(ctx context.Context, items []models.Item, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	concurrency := f.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		saved     int
		semaphore = make(chan struct{}, concurrency)
	)

	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.Item) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			data, name, err := f.Fetch(ctx, item.URL)
			if err != nil {
				slog.Warn("Failed to download item image", "id", item.ID, "url", item.URL, "err", err)
				return
			}

			outputPath := filepath.Join(dir, fmt.Sprintf("%03d_%s", i+1, name))
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				slog.Warn("Failed to write item image", "path", outputPath, "err", err)
				return
			}

			slog.Debug("Saved item image", "id", item.ID, "path", outputPath)
			mu.Lock()
			saved++
			mu.Unlock()
		}(i, item)
	}

	wg.Wait()
	return saved, ctx.Err()
}

func filenameFromURL(imageURL string) string {
	name := ""
	if u, err := url.Parse(imageURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "/" || name == "." {
		name = "image.jpg"
	}
	return name
}
