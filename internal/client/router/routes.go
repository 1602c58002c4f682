// Package router maps screen paths to views and decides, through the Guard,
// whether a screen may be entered.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	PathRoot      = "/"
	PathHome      = "/home"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathEntryList = "/entry/list"
	PathEntryNew  = "/entry/create"
	PathEntryEdit = "/entry/edit/{id}"
)

// LoginPath is where the guard sends unauthenticated navigation.
const LoginPath = PathLogin

// ProtectedPrefixes lists the path prefixes that require a session.
var ProtectedPrefixes = []string{"/home", "/entry"}

// Route is a screen in the route table.
type Route struct {
	Name    string
	Pattern string
}

// Routes is the static route table.
var Routes = []Route{
	{Name: "home", Pattern: PathHome},
	{Name: "login", Pattern: PathLogin},
	{Name: "register", Pattern: PathRegister},
	{Name: "entry-list", Pattern: PathEntryList},
	{Name: "entry-create", Pattern: PathEntryNew},
	{Name: "entry-edit", Pattern: PathEntryEdit},
}

// redirects are followed before the guard runs.
var redirects = map[string]string{
	PathRoot: PathHome,
}

// IsProtected reports whether path lies under a protected prefix. Matching is
// per segment: "/entry/edit/7" is protected, "/entryway" is not.
func IsProtected(path string) bool {
	path = Clean(path)
	for _, p := range ProtectedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Clean normalizes a user supplied path: leading slash, no trailing slash,
// no query.
func Clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// table matches paths against Routes using chi's radix tree.
type table struct {
	mux    *chi.Mux
	byPath map[string]Route
}

func newTable(routes []Route) *table {
	t := &table{mux: chi.NewMux(), byPath: make(map[string]Route, len(routes))}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, r := range routes {
		t.mux.Get(r.Pattern, noop)
		t.byPath[r.Pattern] = r
	}
	return t
}

func (t *table) match(path string) (Route, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, path) {
		return Route{}, nil, false
	}
	r, ok := t.byPath[rctx.RoutePattern()]
	if !ok {
		return Route{}, nil, false
	}

	var params map[string]string
	if n := len(rctx.URLParams.Keys); n > 0 {
		params = make(map[string]string, n)
		for i, k := range rctx.URLParams.Keys {
			params[k] = rctx.URLParams.Values[i]
		}
	}
	return r, params, true
}
