package cli

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/catlog/internal/client/apitest"
	"github.com/dmitrijs2005/catlog/internal/client/config"
	"github.com/dmitrijs2005/catlog/internal/client/models"
	"github.com/dmitrijs2005/catlog/internal/client/services"
	"github.com/dmitrijs2005/catlog/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) (string, error) { return pw, nil }
	t.Cleanup(func() { getPassword = orig })
}

func newTestApp(t *testing.T, input string) (*App, *apitest.Server, *bytes.Buffer) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("tom", "tom@example.org", "pw")

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerBaseURL = srv.BaseURL()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "catlog.db")

	a, err := NewApp(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	var out bytes.Buffer
	a.reader = rdr(input)
	a.out = &out
	stubPassword(t, "pw")
	return a, srv, &out
}

func TestNewApp_BadServerURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerBaseURL = "ftp://cats"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "catlog.db")

	_, err := NewApp(context.Background(), cfg, logging.NewNopLogger())
	require.Error(t, err)
}

func TestStart_NoToken(t *testing.T) {
	a, _, _ := newTestApp(t, "")

	state, err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, services.StateNoToken, state)
}

func TestNavigate_ProtectedAsksForLoginThenContinues(t *testing.T) {
	a, srv, out := newTestApp(t, "tom\n")
	srv.AddEntry(models.CatEntry{CatName: "Tom", Mood: "grumpy", Location: "sofa"})

	require.NoError(t, a.Navigate(context.Background(), "/entry/list"))

	assert.Contains(t, out.String(), "Please log in to continue.")
	assert.Contains(t, out.String(), "Welcome, tom!")
	assert.Contains(t, out.String(), "#1 Tom (grumpy) @ sofa")
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, " (tom)", a.status())
}

func TestNavigate_WrongPassword(t *testing.T) {
	a, _, _ := newTestApp(t, "tom\n")
	stubPassword(t, "nope")

	err := a.Navigate(context.Background(), "/home")
	require.Error(t, err)
	assert.False(t, a.isLoggedIn())
}

func TestNavigate_LoginScreenGoesHome(t *testing.T) {
	a, _, out := newTestApp(t, "tom\n")

	require.NoError(t, a.Navigate(context.Background(), "/login"))
	assert.Contains(t, out.String(), "Hello, tom!")
	assert.NotContains(t, out.String(), "Please log in")
}

func TestRegister_WithoutTokenAsksForLogin(t *testing.T) {
	a, _, out := newTestApp(t, "jerry\njerry@example.org\njerry\n")

	require.NoError(t, a.Navigate(context.Background(), "/register"))
	assert.Contains(t, out.String(), "Account jerry created. Please log in.")
	assert.Contains(t, out.String(), "Welcome, jerry!")
	assert.Contains(t, out.String(), "Hello, jerry!")
}

func TestRegister_WithTokenGoesHome(t *testing.T) {
	a, srv, out := newTestApp(t, "jerry\njerry@example.org\n")
	srv.RegisterIssuesToken = true

	require.NoError(t, a.Navigate(context.Background(), "/register"))
	assert.Contains(t, out.String(), "Account created, welcome, jerry!")
	assert.Contains(t, out.String(), "Hello, jerry!")
}

func TestCreateEditShowDelete(t *testing.T) {
	img := filepath.Join(t.TempDir(), "felix.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o600))

	input := "tom\n" + // login
		"Felix\nhappy\nroof\nlikes fish\n" + img + "\n" + // create
		"\nsleepy\n\n\n\n" // edit: keep all but mood
	a, srv, out := newTestApp(t, input)
	ctx := context.Background()

	require.NoError(t, a.Navigate(ctx, "/entry/create"))
	e, ok := srv.Entry(1)
	require.True(t, ok)
	assert.Equal(t, "Felix", e.CatName)
	assert.Equal(t, "/images/felix.png", e.ImageURL)
	require.NotNil(t, e.CreatedBy)
	assert.Equal(t, int64(1), *e.CreatedBy)

	require.NoError(t, a.Navigate(ctx, "/entry/edit/1"))
	e, _ = srv.Entry(1)
	assert.Equal(t, "sleepy", e.Mood)
	assert.Equal(t, "roof", e.Location)
	assert.Contains(t, out.String(), "Entry #1 updated.")

	require.NoError(t, a.Show(ctx, "1"))
	assert.Contains(t, out.String(), "Mood:     sleepy")

	require.NoError(t, a.Delete(ctx, "1"))
	_, ok = srv.Entry(1)
	assert.False(t, ok)
}

func TestCreate_ValidationFailsBeforeRequest(t *testing.T) {
	a, srv, _ := newTestApp(t, "tom\n\nhappy\nroof\n\n")

	err := a.Navigate(context.Background(), "/entry/create")
	require.ErrorIs(t, err, models.ErrMissingField)
	assert.Zero(t, srv.Calls("POST /catEntry/create"))
}

func TestUpload(t *testing.T) {
	img := filepath.Join(t.TempDir(), "tom.png")
	require.NoError(t, os.WriteFile(img, []byte("meow"), 0o600))

	a, srv, out := newTestApp(t, "tom\n")
	id := srv.AddEntry(models.CatEntry{CatName: "Tom", Mood: "grumpy"})

	require.NoError(t, a.Upload(context.Background(), "1", img))
	assert.Contains(t, out.String(), "Uploaded /images/tom.png (file f-4)")

	up := srv.LastUpload()
	require.NotNil(t, up)
	assert.Equal(t, "1", up.CatEntryID)
	assert.Equal(t, "1", up.UploadedBy)
	assert.Equal(t, int64(1), id)
}

func TestActions_RejectBadIDs(t *testing.T) {
	a, srv, _ := newTestApp(t, "")
	ctx := context.Background()

	require.ErrorIs(t, a.Show(ctx, "abc"), errInvalidID)
	require.ErrorIs(t, a.Delete(ctx, "-1"), errInvalidID)
	require.ErrorIs(t, a.Upload(ctx, "0", "x.png"), errInvalidID)
	assert.Empty(t, srv.RequestIDs())
}

func TestWhoamiAndLogout(t *testing.T) {
	a, _, out := newTestApp(t, "tom\n")
	ctx := context.Background()

	require.NoError(t, a.Whoami(ctx))
	assert.Contains(t, out.String(), "Not logged in")

	require.NoError(t, a.Navigate(ctx, "/login"))
	out.Reset()
	require.NoError(t, a.Whoami(ctx))
	assert.Equal(t, "tom <tom@example.org> (id 1)\n", out.String())

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn())
	has, err := a.sessions.HasPersistedToken(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRun_RestoresSessionBeforeREPL(t *testing.T) {
	captureOutput(t)
	a, _, out := newTestApp(t, "tom\n")
	ctx := context.Background()
	require.NoError(t, a.Navigate(ctx, "/login"))

	// A second App over the same database starts logged in.
	b, err := NewApp(ctx, a.config, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	b.out = out
	b.reader = rdr("exit\n")

	require.NoError(t, b.Run(ctx))
	assert.True(t, b.isLoggedIn())
}

func TestMetricsHandler(t *testing.T) {
	a, _, _ := newTestApp(t, "tom\n")
	require.NoError(t, a.Navigate(context.Background(), "/login"))

	rec := httptest.NewRecorder()
	metricsHandler(a.registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catlog_client_requests_total")
	assert.Contains(t, rec.Body.String(), "catlog_client_request_duration_seconds")
}

func TestServeMetricsOn_StopsWithContext(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveMetricsOn(ctx, ln, a.registry, logging.NewNopLogger()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
