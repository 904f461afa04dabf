package handlers

import (
	"net/http"

	"github.com/lookbook-app/lookbook/internal/models"
	"github.com/lookbook-app/lookbook/internal/session"
	"github.com/lookbook-app/lookbook/internal/upload"
)

type indexPage struct {
	Workspace upload.Snapshot
	History   []*models.BatchRecord
	Guest     bool
}

// HandleIndex renders the upload page and the gallery of the current batch
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	_, orch := h.workspace(w, r)
	sess, _ := session.FromContext(r.Context())

	h.render(w, "index.html", indexPage{
		Workspace: orch.Snapshot(),
		History:   h.batches.List(),
		Guest:     sess.Guest && !sess.HasCredential(),
	})
}

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", nil)
}

// HandleLogin stores the credential or guest flag in the browser. The token is
// issued elsewhere; this only persists it.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess := session.Session{
		Token: r.PostFormValue("token"),
		Guest: r.PostFormValue("guest") == "true",
	}
	if !sess.HasCredential() && !sess.Guest {
		h.writeError(w, "token or guest is required", http.StatusBadRequest)
		return
	}

	session.WriteCookies(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.workspaces.discard(workspaceID(w, r))
	session.WriteCookies(w, session.Session{})
	http.Redirect(w, r, h.gate.LoginRoute(), http.StatusSeeOther)
}
