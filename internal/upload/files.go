package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/lookbook-app/lookbook/internal/models"
)

// ErrUnsupportedImage is returned by Accept for anything other than JPEG or PNG
var ErrUnsupportedImage = errors.New("unsupported image type")

var acceptedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

var acceptedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Accept is the picker filter: it admits JPEG and PNG files by extension and
// content, and records the sniffed content type.
func Accept(name string, data []byte) (models.ImageFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !acceptedExtensions[ext] {
		return models.ImageFile{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, name)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return models.ImageFile{}, fmt.Errorf("failed to detect file type of %s: %w", name, err)
	}
	if !acceptedMIME[kind.MIME.Value] {
		return models.ImageFile{}, fmt.Errorf("%w: %s looks like %q", ErrUnsupportedImage, name, kind.MIME.Value)
	}

	return models.ImageFile{
		Name:        filepath.Base(name),
		ContentType: kind.MIME.Value,
		Data:        data,
	}, nil
}

// RemoteFetcher downloads an image URL. *images.Fetcher implements it.
type RemoteFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, string, error)
}

// LoadFiles reads refs in order and keeps the ones Accept admits. http(s) refs are
// downloaded through remote; local paths are read from disk.
func LoadFiles(ctx context.Context, refs []string, remote RemoteFetcher) ([]models.ImageFile, error) {
	files := make([]models.ImageFile, 0, len(refs))
	for _, ref := range refs {
		var (
			data []byte
			name = ref
			err  error
		)
		if remote != nil && (strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")) {
			data, name, err = remote.Fetch(ctx, ref)
		} else {
			data, err = os.ReadFile(ref)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", ref, err)
		}

		file, err := Accept(name, data)
		if err != nil {
			slog.Warn("Skipping file", "ref", ref, "err", err)
			continue
		}
		files = append(files, file)
	}
	return files, nil
}
