package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lookbook-app/lookbook/internal/models"
	"github.com/lookbook-app/lookbook/internal/session"
	"github.com/lookbook-app/lookbook/internal/upload"
)

const (
	workspaceCookie = "workspace"
	workspaceIdle   = 30 * time.Minute
)

// workspace is one browser's upload page: a mounted orchestrator
type workspace struct {
	orch     *upload.Orchestrator
	lastSeen time.Time
}

type workspaceStore struct {
	open       func(id string) *upload.Orchestrator
	workspaces map[string]*workspace
	mu         sync.Mutex
}

func newWorkspaceStore(open func(id string) *upload.Orchestrator) *workspaceStore {
	return &workspaceStore{
		open:       open,
		workspaces: make(map[string]*workspace),
	}
}

// get returns the workspace for id, creating it when missing. Idle workspaces are closed.
func (s *workspaceStore) get(id string) *upload.Orchestrator {
	now := time.Now()

	s.mu.Lock()
	var idle []*workspace
	for wid, ws := range s.workspaces {
		if wid != id && now.Sub(ws.lastSeen) > workspaceIdle {
			idle = append(idle, ws)
			delete(s.workspaces, wid)
		}
	}
	ws, ok := s.workspaces[id]
	if !ok {
		ws = &workspace{orch: s.open(id)}
		s.workspaces[id] = ws
	}
	ws.lastSeen = now
	s.mu.Unlock()

	for _, w := range idle {
		w.orch.Close()
	}
	return ws.orch
}

// discard closes the workspace; the next get starts a fresh one
func (s *workspaceStore) discard(id string) {
	s.mu.Lock()
	ws, ok := s.workspaces[id]
	delete(s.workspaces, id)
	s.mu.Unlock()

	if ok {
		ws.orch.Close()
	}
}

func (s *workspaceStore) closeAll() {
	s.mu.Lock()
	all := s.workspaces
	s.workspaces = make(map[string]*workspace)
	s.mu.Unlock()

	for _, ws := range all {
		ws.orch.Close()
	}
}

func (h *Handler) newOrchestrator(id string) *upload.Orchestrator {
	logger := slog.Default().With("workspace", id)

	return upload.New(h.generator, session.Context,
		upload.WithPreviewer(h.previews),
		upload.WithLogger(logger),
		upload.WithCallbacks(upload.Callbacks{
			OnLoadingChange: func(loading bool) {
				logger.Debug("Loading changed", "loading", loading)
			},
			OnError: func(err error) {
				if err != nil {
					logger.Debug("Generation error reported", "message", upload.UserMessage(err))
				}
			},
			OnBatchComplete: func(record models.BatchRecord) {
				h.batches.Set(&record)
			},
		}),
	)
}

// workspaceID returns the browser's workspace id, issuing a cookie on first visit
func workspaceID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(workspaceCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     workspaceCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (string, *upload.Orchestrator) {
	id := workspaceID(w, r)
	return id, h.workspaces.get(id)
}
