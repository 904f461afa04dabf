package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))

	sess := store.GetSession(context.Background())
	assert.False(t, sess.HasCredential())
	assert.False(t, sess.Guest)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileStore(path)

	require.NoError(t, store.Save(Session{Token: "abc"}))
	sess := store.GetSession(context.Background())
	assert.Equal(t, "abc", sess.Token)
	assert.False(t, sess.Guest)

	require.NoError(t, store.Save(Session{Guest: true}))
	sess = store.GetSession(context.Background())
	assert.False(t, sess.HasCredential())
	assert.True(t, sess.Guest)

	require.NoError(t, store.Clear())
	assert.Equal(t, Session{}, store.GetSession(context.Background()))
}

func TestFileStoreGuestFlagOnlyTrueString(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		guest    bool
	}{
		{name: "true string", contents: "isGuest: \"true\"\n", guest: true},
		{name: "false string", contents: "isGuest: \"false\"\n", guest: false},
		{name: "other value", contents: "isGuest: \"yes\"\n", guest: false},
		{name: "absent", contents: "token: t\n", guest: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.contents), 0600))

			sess, err := NewFileStore(path).Load()
			require.NoError(t, err)
			assert.Equal(t, tt.guest, sess.Guest)
		})
	}
}

func TestCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCookies(rec, Session{Token: "tok", Guest: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	assert.Equal(t, Session{Token: "tok", Guest: true}, FromRequest(req))
	assert.Equal(t, Session{}, FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestContextProvider(t *testing.T) {
	ctx := WithSession(context.Background(), Session{Token: "x"})
	assert.Equal(t, "x", Context.GetSession(ctx).Token)
	assert.Equal(t, Session{}, Context.GetSession(context.Background()))
}
