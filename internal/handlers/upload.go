package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lookbook-app/lookbook/internal/models"
	"github.com/lookbook-app/lookbook/internal/recommend"
	"github.com/lookbook-app/lookbook/internal/upload"
)

const maxUploadMemory = 32 << 20

// HandleSelectFiles replaces the workspace selection with the posted images
func (h *Handler) HandleSelectFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[recommend.FieldName]
	files := make([]models.ImageFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
			return
		}

		file, err := upload.Accept(header.Filename, data)
		if err != nil {
			slog.Warn("Skipping file", "filename", header.Filename, "err", err)
			continue
		}
		files = append(files, file)
	}

	_, orch := h.workspace(w, r)
	if err := orch.SelectFiles(files); err != nil {
		h.writeError(w, "Failed to select files: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.respond(w, r, http.StatusOK, orch.Snapshot())
}

// HandleResetFiles discards the workspace, releasing its previews
func (h *Handler) HandleResetFiles(w http.ResponseWriter, r *http.Request) {
	id := workspaceID(w, r)
	h.workspaces.discard(id)
	h.respond(w, r, http.StatusOK, h.workspaces.get(id).Snapshot())
}

// HandleGenerate uploads the current selection to the recommendation service
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	_, orch := h.workspace(w, r)

	err := orch.Generate(r.Context())
	switch {
	case err == nil:
		h.respond(w, r, http.StatusOK, orch.Snapshot())
	case errors.Is(err, upload.ErrInFlight):
		h.writeJSONStatus(w, http.StatusConflict, map[string]string{"error": upload.UserMessage(err)})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Info("Generation stopped before the service answered", "err", err)
		h.writeJSONStatus(w, http.StatusGatewayTimeout, map[string]string{"error": upload.FailureMessage})
	default:
		h.respond(w, r, http.StatusBadGateway, orch.Snapshot())
	}
}

// HandleWorkspace returns the observable state of the browser's workspace
func (h *Handler) HandleWorkspace(w http.ResponseWriter, r *http.Request) {
	_, orch := h.workspace(w, r)
	h.writeJSON(w, orch.Snapshot())
}

// HandlePreview serves a preview image while its batch is alive
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	h.previews.ServeID(w, chi.URLParam(r, "previewID"))
}
