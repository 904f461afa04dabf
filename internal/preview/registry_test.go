package preview

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbook-app/lookbook/internal/models"
)

func TestRegistryOpenServeRelease(t *testing.T) {
	reg := NewRegistry("/previews/")

	h, err := reg.Open(models.ImageFile{Name: "a.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h.URL, "/previews/"))
	assert.Equal(t, 1, reg.Len())

	rec := httptest.NewRecorder()
	reg.ServeID(rec, h.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png", rec.Body.String())

	h.Release()
	h.Release()
	assert.Equal(t, 0, reg.Len())

	rec = httptest.NewRecorder()
	reg.ServeID(rec, h.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNilHandleRelease(t *testing.T) {
	var h *Handle
	assert.NotPanics(t, h.Release)
}
