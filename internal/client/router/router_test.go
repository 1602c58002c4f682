package router

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/catlog/internal/client/apitest"
	"github.com/dmitrijs2005/catlog/internal/client/client"
	"github.com/dmitrijs2005/catlog/internal/client/services"
	"github.com/dmitrijs2005/catlog/internal/client/storage"
	"github.com/dmitrijs2005/catlog/internal/client/token"
	"github.com/dmitrijs2005/catlog/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	hasToken   bool
	tokenErr   error
	authed     bool
	initErr    error
	initAuthed bool
	initCalls  int
}

func (f *fakeSessions) HasPersistedToken(context.Context) (bool, error) { return f.hasToken, f.tokenErr }
func (f *fakeSessions) IsAuthenticated() bool                          { return f.authed }
func (f *fakeSessions) InitializeFromToken(context.Context) (services.InitState, error) {
	f.initCalls++
	if f.initErr != nil {
		return services.StateUnknown, f.initErr
	}
	f.authed = f.initAuthed
	if f.authed {
		return services.StateSessionActive, nil
	}
	return services.StateRestoreFailed, nil
}

func TestIsProtected(t *testing.T) {
	tests := map[string]bool{
		"/home":          true,
		"/home/":         true,
		"/entry/list":    true,
		"/entry/edit/7":  true,
		"/entry":         true,
		"/entryway":      false,
		"/homepage":      false,
		"/login":         false,
		"/register":      false,
		"/":              false,
		"entry/create":   true,
		"/entry/list?x=": true,
	}
	for path, want := range tests {
		assert.Equal(t, want, IsProtected(path), path)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "/", Clean(""))
	assert.Equal(t, "/", Clean("///"))
	assert.Equal(t, "/home", Clean("home/"))
	assert.Equal(t, "/entry/edit/3", Clean(" /entry/edit/3?tab=1 "))
}

func TestGuard_Check(t *testing.T) {
	tests := []struct {
		name      string
		dest      string
		sessions  fakeSessions
		want      Decision
		wantInits int
	}{
		{name: "public ignores token state", dest: "/login", sessions: fakeSessions{tokenErr: errors.New("boom")}, want: Decision{Allow: true}},
		{name: "no token", dest: "/entry/list", want: Decision{Redirect: "/login"}},
		{name: "token lookup error", dest: "/home", sessions: fakeSessions{tokenErr: errors.New("boom")}, want: Decision{Redirect: "/login"}},
		{name: "token and session", dest: "/home", sessions: fakeSessions{hasToken: true, authed: true}, want: Decision{Allow: true}},
		{name: "restored", dest: "/home", sessions: fakeSessions{hasToken: true, initAuthed: true}, want: Decision{Allow: true}, wantInits: 1},
		{name: "restore without session", dest: "/entry/edit/1", sessions: fakeSessions{hasToken: true}, want: Decision{Redirect: "/login"}, wantInits: 1},
		{name: "restore error fails closed", dest: "/home", sessions: fakeSessions{hasToken: true, initErr: errors.New("db")}, want: Decision{Redirect: "/login"}, wantInits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.sessions
			g := NewGuard(&s, logging.NewNopLogger())

			assert.Equal(t, tt.want, g.Check(context.Background(), tt.dest))
			assert.Equal(t, tt.wantInits, s.initCalls)
		})
	}
}

func TestNavigate_Table(t *testing.T) {
	s := &fakeSessions{hasToken: true, authed: true}
	r := New(NewGuard(s, logging.NewNopLogger()), logging.NewNopLogger())
	ctx := context.Background()

	res, err := r.Navigate(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "home", res.Route.Name)
	assert.Equal(t, "/home", res.Path)
	assert.Equal(t, "/", res.Requested)
	assert.False(t, res.Denied)

	res, err = r.Navigate(ctx, "/entry/edit/42")
	require.NoError(t, err)
	assert.Equal(t, "entry-edit", res.Route.Name)
	assert.Equal(t, "42", res.Param("id"))

	res, err = r.Navigate(ctx, "register")
	require.NoError(t, err)
	assert.Equal(t, "register", res.Route.Name)
	assert.Nil(t, res.Params)

	_, err = r.Navigate(ctx, "/nowhere")
	require.ErrorIs(t, err, ErrNoRoute)
}

func TestNavigate_DeniedGoesToLogin(t *testing.T) {
	r := New(NewGuard(&fakeSessions{}, logging.NewNopLogger()), logging.NewNopLogger())

	res, err := r.Navigate(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "login", res.Route.Name)
	assert.Equal(t, "/login", res.Path)
	assert.True(t, res.Denied)
}

// The scenarios below run against the real session store and a fake backend.

type env struct {
	srv      *apitest.Server
	api      *client.HTTPClient
	tokens   *token.Store
	sessions *services.SessionStore
	router   *Router
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("tom", "tom@example.org", "pw")

	api, err := client.NewHTTPClient(srv.BaseURL())
	require.NoError(t, err)

	db, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "catlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens := token.NewStore(db)
	sessions := services.NewSessionStore(api, tokens, logging.NewNopLogger())
	return &env{
		srv:      srv,
		api:      api,
		tokens:   tokens,
		sessions: sessions,
		router:   New(NewGuard(sessions, logging.NewNopLogger()), logging.NewNopLogger()),
	}
}

func TestScenario_NoTokenEntryList(t *testing.T) {
	e := newEnv(t)

	res, err := e.router.Navigate(context.Background(), "/entry/list")
	require.NoError(t, err)
	assert.Equal(t, "/login", res.Path)
	assert.True(t, res.Denied)
	assert.Zero(t, e.srv.Calls("GET /user/profile"))
}

func TestScenario_ExpiredTokenHome(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.tokens.Save(context.Background(), e.srv.IssueToken("tom", time.Unix(1, 0))))

	res, err := e.router.Navigate(context.Background(), "/home")
	require.NoError(t, err)
	assert.Equal(t, "/login", res.Path)

	tok, err := e.tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.Nil(t, e.sessions.Current())
	assert.Zero(t, e.srv.Calls("GET /user/profile"))
}

func TestScenario_TokenRestoresSession(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.tokens.Save(context.Background(), e.srv.IssueToken("tom", time.Now().Add(time.Hour))))

	res, err := e.router.Navigate(context.Background(), "/home")
	require.NoError(t, err)
	assert.Equal(t, "/home", res.Path)
	assert.False(t, res.Denied)
	require.NotNil(t, e.sessions.Current())
	assert.Equal(t, "tom", e.sessions.Current().Username)

	// Session is loaded now; further navigation costs nothing.
	_, err = e.router.Navigate(context.Background(), "/entry/list")
	require.NoError(t, err)
	assert.Equal(t, 1, e.srv.Calls("GET /user/profile"))
}

func TestScenario_RejectedTokenHome(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.tokens.Save(context.Background(), "revoked"))

	res, err := e.router.Navigate(context.Background(), "/home")
	require.NoError(t, err)
	assert.Equal(t, "/login", res.Path)

	tok, err := e.tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestScenario_PublicRouteWithExpiredToken(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.tokens.Save(context.Background(), e.srv.IssueToken("tom", time.Unix(1, 0))))

	res, err := e.router.Navigate(context.Background(), "/register")
	require.NoError(t, err)
	assert.Equal(t, "/register", res.Path)
	assert.False(t, res.Denied)

	tok, err := e.tokens.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, tok, "public navigation does not touch the token")
}
