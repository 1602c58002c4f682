package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/catlog/internal/logging"
)

var (
	ErrNoRoute       = errors.New("no such route")
	ErrRedirectCycle = errors.New("too many redirects")
)

const maxRedirects = 8

// Resolved is where a navigation ended up.
type Resolved struct {
	Route  Route
	Path   string
	Params map[string]string
	// Requested is the cleaned path the caller asked for. It differs from
	// Path when a redirect or the guard moved the navigation elsewhere.
	Requested string
	// Denied is set when the guard refused Requested.
	Denied bool
}

// Param returns the named route parameter.
func (r Resolved) Param(name string) string {
	return r.Params[name]
}

type Router struct {
	guard  *Guard
	table  *table
	logger logging.Logger
}

func New(guard *Guard, logger logging.Logger) *Router {
	return &Router{guard: guard, table: newTable(Routes), logger: logger.With("component", "router")}
}

// Navigate resolves path to a route. Static redirects are followed first,
// then the guard is consulted; Navigate does not return a protected route
// until the guard has allowed it.
func (r *Router) Navigate(ctx context.Context, path string) (Resolved, error) {
	requested := Clean(path)
	res := Resolved{Requested: requested}

	cur := requested
	for i := 0; ; i++ {
		if i == maxRedirects {
			return res, fmt.Errorf("%w: %s", ErrRedirectCycle, requested)
		}

		if to, ok := redirects[cur]; ok {
			cur = to
			continue
		}

		route, params, ok := r.table.match(cur)
		if !ok {
			return res, fmt.Errorf("%w: %s", ErrNoRoute, cur)
		}

		d := r.guard.Check(ctx, cur)
		if !d.Allow {
			r.logger.Debug(ctx, "navigation redirected", "from", cur, "to", d.Redirect)
			res.Denied = true
			cur = d.Redirect
			continue
		}

		res.Route, res.Path, res.Params = route, cur, params
		return res, nil
	}
}
