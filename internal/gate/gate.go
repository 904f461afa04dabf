// Package gate decides, per navigation, whether protected content may render or
// the caller must be sent to the login route first. The check is local: it only
// reads the session provider and never talks to the network.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lookbook-app/lookbook/internal/session"
)

// DefaultLoginRoute is where unauthenticated navigations are sent
const DefaultLoginRoute = "/login"

const (
	// LoginRouteAnnotation marks a cobra command as part of the login flow
	LoginRouteAnnotation = "lookbook/login-route"
	// PublicAnnotation marks a cobra command that needs no session
	PublicAnnotation = "lookbook/public"
)

// ErrAuthRequired is returned to CLI callers that have neither a credential nor guest mode
var ErrAuthRequired = errors.New("authentication required: run `lookbook session login --token <token>` or `lookbook session guest`")

// Phase is the state of a single navigation
type Phase int

const (
	// Checking is the initial phase; nothing protected renders while in it
	Checking Phase = iota
	Allow
	Redirecting
)

func (p Phase) String() string {
	switch p {
	case Allow:
		return "allow"
	case Redirecting:
		return "redirecting"
	default:
		return "checking"
	}
}

// Decision is the terminal outcome of a navigation
type Decision struct {
	Phase    Phase
	Redirect string
}

// Evaluate applies the gate rule to one route and session snapshot
func Evaluate(route, loginRoute string, sess session.Session) Decision {
	if route == loginRoute {
		return Decision{Phase: Allow}
	}
	if !sess.HasCredential() && !sess.Guest {
		return Decision{Phase: Redirecting, Redirect: loginRoute}
	}
	return Decision{Phase: Allow}
}

// Gate wraps a session provider with the routing rule
type Gate struct {
	sessions   session.Provider
	loginRoute string
	public     map[string]bool
}

// Option configures a Gate
type Option func(*Gate)

// WithLoginRoute overrides DefaultLoginRoute
func WithLoginRoute(route string) Option {
	return func(g *Gate) {
		g.loginRoute = route
	}
}

// WithPublic lets extra routes through without a session, like the login route
func WithPublic(routes ...string) Option {
	return func(g *Gate) {
		for _, r := range routes {
			g.public[r] = true
		}
	}
}

func New(sessions session.Provider, opts ...Option) *Gate {
	g := &Gate{
		sessions:   sessions,
		loginRoute: DefaultLoginRoute,
		public:     map[string]bool{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoginRoute returns the configured login route
func (g *Gate) LoginRoute() string {
	return g.loginRoute
}

// Navigate evaluates route against a fresh session read. Nothing is cached between calls.
func (g *Gate) Navigate(ctx context.Context, route string) Decision {
	if g.public[route] {
		return Decision{Phase: Allow}
	}
	return Evaluate(route, g.loginRoute, g.sessions.GetSession(ctx))
}

// Middleware redirects unauthenticated requests to the login route before next runs.
// The session read from the request cookies is attached to the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, ok := session.FromContext(ctx); !ok {
			ctx = session.WithSession(ctx, session.FromRequest(r))
			r = r.WithContext(ctx)
		}

		d := g.Navigate(ctx, r.URL.Path)
		if d.Phase != Allow {
			slog.Debug("Redirecting to login", "path", r.URL.Path, "redirect", d.Redirect)
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Command is a cobra PersistentPreRunE hook. Commands annotated with
// LoginRouteAnnotation or PublicAnnotation, or nested under one, always run.
func (g *Gate) Command(cmd *cobra.Command, args []string) error {
	route := cmd.CommandPath()
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[LoginRouteAnnotation]; ok {
			route = g.loginRoute
			break
		}
		if _, ok := c.Annotations[PublicAnnotation]; ok {
			return nil
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if d := g.Navigate(ctx, route); d.Phase != Allow {
		return ErrAuthRequired
	}
	return nil
}
