package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbook-app/lookbook/internal/gate"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(bytes.NewBufferString(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateRequiresSession(t *testing.T) {
	sessionFile := filepath.Join(t.TempDir(), "session.yaml")

	_, err := run(t, "--session-file", sessionFile, "generate", "look.png")
	assert.ErrorIs(t, err, gate.ErrAuthRequired)
}

func TestSessionLifecycle(t *testing.T) {
	sessionFile := filepath.Join(t.TempDir(), "session.yaml")

	out, err := run(t, "--session-file", sessionFile, "session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")

	_, err = run(t, "--session-file", sessionFile, "session", "guest")
	require.NoError(t, err)

	out, err = run(t, "--session-file", sessionFile, "session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Guest mode.")

	_, err = run(t, "--session-file", sessionFile, "session", "login", "--token", "abc")
	require.NoError(t, err)

	out, err = run(t, "--session-file", sessionFile, "session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in with a token.")

	_, err = run(t, "--session-file", sessionFile, "session", "logout")
	require.NoError(t, err)

	out, err = run(t, "--session-file", sessionFile, "session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
}

func TestGenerate(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","items":{"tops":{"items":[{"id":"1","description":"shirt","imageUrl":"http://x/1.png"}]},"bottoms":{"items":[]}}}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "session.yaml")
	image := filepath.Join(dir, "look.png")
	require.NoError(t, os.WriteFile(image, pngHeader, 0644))

	_, err := run(t, "--session-file", sessionFile, "session", "login", "--token", "secret")
	require.NoError(t, err)

	out, err := run(t, "--session-file", sessionFile, "generate", "--service-url", srv.URL, "--format", "json", image)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Contains(t, out, `"url": "http://x/1.png"`)
	assert.Contains(t, out, `"description": "shirt"`)
}

func TestGenerateServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "session.yaml")
	image := filepath.Join(dir, "look.png")
	require.NoError(t, os.WriteFile(image, pngHeader, 0644))

	_, err := run(t, "--session-file", sessionFile, "session", "guest")
	require.NoError(t, err)

	_, err = run(t, "--session-file", sessionFile, "generate", "--service-url", srv.URL, "--format", "json", image)
	require.Error(t, err)
	assert.Equal(t, "Failed to generate items", err.Error())
}
