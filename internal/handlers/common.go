package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/lookbook-app/lookbook/internal/gate"
	"github.com/lookbook-app/lookbook/internal/preview"
	"github.com/lookbook-app/lookbook/internal/session"
	"github.com/lookbook-app/lookbook/internal/storage"
	"github.com/lookbook-app/lookbook/internal/upload"
)

const (
	previewPrefix = "/previews/"
	historyLimit  = 50
)

//go:embed templates/*.html
var templateFS embed.FS

type Handler struct {
	generator  upload.Generator
	batches    *storage.BatchStore
	previews   *preview.Registry
	workspaces *workspaceStore
	gate       *gate.Gate
	pages      *template.Template
}

func New(generator upload.Generator) *Handler {
	h := &Handler{
		generator: generator,
		batches:   storage.New(historyLimit),
		previews:  preview.NewRegistry(previewPrefix),
		gate:      gate.New(session.Context, gate.WithPublic(PublicRoutes...)),
		pages:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
	h.workspaces = newWorkspaceStore(h.newOrchestrator)
	return h
}

// Close releases every workspace and its previews
func (h *Handler) Close() {
	h.workspaces.closeAll()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// respond sends JSON to API clients and sends browsers back to the page
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	if wantsJSON(r) {
		h.writeJSONStatus(w, code, data)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Unable to render page", "page", name, "err", err)
	}
}
