package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) HandleBatches(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.batches.List())
}

func (h *Handler) HandleBatchDetail(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	batch, exists := h.batches.Get(batchID)
	if !exists {
		h.writeError(w, "Batch not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, batch)
	case http.MethodDelete:
		h.batches.Delete(batchID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
