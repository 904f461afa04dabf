package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0, 1}
)

func TestAccept(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		data        []byte
		contentType string
		wantErr     bool
	}{
		{name: "png", filename: "look.png", data: pngHeader, contentType: "image/png"},
		{name: "jpg", filename: "dir/look.JPG", data: jpegHeader, contentType: "image/jpeg"},
		{name: "jpeg", filename: "look.jpeg", data: jpegHeader, contentType: "image/jpeg"},
		{name: "gif extension", filename: "look.gif", data: pngHeader, wantErr: true},
		{name: "png name with text content", filename: "look.png", data: []byte("hello world"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Accept(tt.filename, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, file.ContentType)
			assert.Equal(t, filepath.Base(tt.filename), file.Name)
		})
	}
}

func TestLoadFilesSkipsRejected(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.jpg")
	require.NoError(t, os.WriteFile(a, pngHeader, 0644))
	require.NoError(t, os.WriteFile(b, []byte("text"), 0644))
	require.NoError(t, os.WriteFile(c, jpegHeader, 0644))

	files, err := LoadFiles(context.Background(), []string{c, b, a}, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "c.jpg", files[0].Name)
	assert.Equal(t, "a.png", files[1].Name)

	_, err = LoadFiles(context.Background(), []string{filepath.Join(dir, "missing.png")}, nil)
	assert.Error(t, err)
}

type stubFetcher map[string][]byte

func (s stubFetcher) Fetch(_ context.Context, imageURL string) ([]byte, string, error) {
	return s[imageURL], "remote.png", nil
}

func TestLoadFilesRemote(t *testing.T) {
	files, err := LoadFiles(context.Background(), []string{"https://x/img?id=1"}, stubFetcher{"https://x/img?id=1": pngHeader})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "remote.png", files[0].Name)
	assert.Equal(t, "image/png", files[0].ContentType)
}
