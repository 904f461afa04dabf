package preview

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/lookbook-app/lookbook/internal/models"
)

// Handle is a transient preview URL for one selected file
type Handle struct {
	ID  string
	URL string

	once    sync.Once
	release func()
}

// Release frees the preview. Safe to call more than once.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}

// Registry keeps preview bytes in memory and serves them under prefix + id
type Registry struct {
	prefix  string
	entries map[string]models.ImageFile
	mu      sync.RWMutex
}

func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix:  prefix,
		entries: make(map[string]models.ImageFile),
	}
}

// Open registers file and returns a handle whose Release removes it again
func (r *Registry) Open(file models.ImageFile) (*Handle, error) {
	id := uuid.NewString()

	r.mu.Lock()
	r.entries[id] = file
	r.mu.Unlock()

	return &Handle{
		ID:  id,
		URL: r.prefix + id,
		release: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.entries, id)
		},
	}, nil
}

func (r *Registry) Get(id string) (models.ImageFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	file, exists := r.entries[id]
	return file, exists
}

// Len reports how many previews are still open
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ServeID writes the preview bytes for id, or 404 once it has been released
func (r *Registry) ServeID(w http.ResponseWriter, id string) {
	file, ok := r.Get(id)
	if !ok {
		http.Error(w, "Preview not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(file.Data)
}
