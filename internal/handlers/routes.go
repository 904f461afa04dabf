package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PublicRoutes are reachable without a session besides the login route itself
var PublicRoutes = []string{"/api/login", "/api/logout", "/healthcheck"}

// Routes wires every endpoint behind the session gate
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.gate.Middleware)

	r.Get("/", h.HandleIndex)
	r.Get(h.gate.LoginRoute(), h.HandleLoginPage)
	r.Post("/api/login", h.HandleLogin)
	r.Post("/api/logout", h.HandleLogout)

	r.Post("/api/files", h.HandleSelectFiles)
	r.Delete("/api/files", h.HandleResetFiles)
	r.Post("/api/files/reset", h.HandleResetFiles)
	r.Post("/api/generate", h.HandleGenerate)
	r.Get("/api/workspace", h.HandleWorkspace)
	r.Get("/api/batches", h.HandleBatches)
	r.Get("/api/batches/{batchID}", h.HandleBatchDetail)
	r.Delete("/api/batches/{batchID}", h.HandleBatchDetail)
	r.Get(previewPrefix+"{previewID}", h.HandlePreview)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	return r
}
