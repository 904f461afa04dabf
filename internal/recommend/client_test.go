package recommend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbook-app/lookbook/internal/models"
)

func TestGenerateSendsMultipartInOrder(t *testing.T) {
	files := []models.ImageFile{
		{Name: "casual.png", ContentType: "image/png", Data: []byte("png-bytes")},
		{Name: "formal.jpg", ContentType: "image/jpeg", Data: []byte("jpg-bytes")},
	}

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		parts := r.MultipartForm.File[FieldName]
		require.Len(t, parts, 2)
		for i, p := range parts {
			assert.Equal(t, files[i].Name, p.Filename)
			assert.Equal(t, files[i].ContentType, p.Header.Get("Content-Type"))
			f, err := p.Open()
			require.NoError(t, err)
			data, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, files[i].Data, data)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":{}}`))
	}))
	defer srv.Close()

	body, err := NewClient(srv.URL+"/").Generate(context.Background(), "secret", files)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":{}}`, string(body))
	assert.Equal(t, 1, calls)
}

func TestGenerateOmitsEmptyCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Generate(context.Background(), "", []models.ImageFile{{Name: "a.png", Data: []byte("x")}})
	require.NoError(t, err)
}

func TestGenerateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Generate(context.Background(), "t", []models.ImageFile{{Name: "a.png", Data: []byte("x")}})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Generate(context.Background(), "t", []models.ImageFile{{Name: "a.png", Data: []byte("x")}})
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestBaseURLFromEnv(t *testing.T) {
	t.Setenv("LOOKBOOK_SERVICE_URL", "")
	assert.Equal(t, DefaultBaseURL, BaseURLFromEnv())

	t.Setenv("LOOKBOOK_SERVICE_URL", "http://svc:9000")
	assert.Equal(t, "http://svc:9000", BaseURLFromEnv())
}
