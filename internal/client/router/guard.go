package router

import (
	"context"

	"github.com/dmitrijs2005/catlog/internal/client/services"
	"github.com/dmitrijs2005/catlog/internal/logging"
)

// Sessions is the part of the session store the guard consults.
type Sessions interface {
	HasPersistedToken(ctx context.Context) (bool, error)
	IsAuthenticated() bool
	InitializeFromToken(ctx context.Context) (services.InitState, error)
}

// Decision is the outcome of a guard check. Redirect is set when Allow is
// false.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision { return Decision{Allow: true} }

func redirect(to string) Decision { return Decision{Redirect: to} }

// Guard decides whether navigation to a destination may proceed.
type Guard struct {
	sessions Sessions
	logger   logging.Logger
}

func NewGuard(sessions Sessions, logger logging.Logger) *Guard {
	return &Guard{sessions: sessions, logger: logger.With("component", "guard")}
}

// Check evaluates dest. Public destinations are always allowed. A protected
// destination needs a persisted token; if no session is loaded yet the guard
// waits for restoration to finish and allows only when it produced a
// session. Any error while checking denies access.
func (g *Guard) Check(ctx context.Context, dest string) Decision {
	if !IsProtected(dest) {
		return allow()
	}

	has, err := g.sessions.HasPersistedToken(ctx)
	if err != nil {
		g.logger.Error(ctx, "token lookup failed", "dest", dest, "error", err)
		return redirect(LoginPath)
	}
	if !has {
		g.logger.Debug(ctx, "no token, redirecting to login", "dest", dest)
		return redirect(LoginPath)
	}

	if g.sessions.IsAuthenticated() {
		return allow()
	}

	state, err := g.sessions.InitializeFromToken(ctx)
	if err != nil {
		g.logger.Error(ctx, "session restore failed", "dest", dest, "error", err)
		return redirect(LoginPath)
	}
	if !g.sessions.IsAuthenticated() {
		g.logger.Info(ctx, "no session after restore, redirecting to login", "dest", dest, "state", state.String())
		return redirect(LoginPath)
	}
	return allow()
}
