package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/catlog/internal/client/client"
	"github.com/dmitrijs2005/catlog/internal/client/config"
	"github.com/dmitrijs2005/catlog/internal/client/imagesource"
	"github.com/dmitrijs2005/catlog/internal/client/router"
	"github.com/dmitrijs2005/catlog/internal/client/services"
	"github.com/dmitrijs2005/catlog/internal/client/storage"
	"github.com/dmitrijs2005/catlog/internal/client/token"
	"github.com/dmitrijs2005/catlog/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	api      *client.HTTPClient
	registry *prometheus.Registry
	sessions *services.SessionStore
	entries  *services.EntryStore
	router   *router.Router
	images   *imagesource.Opener

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the session database and wires the API client, stores and
// router. The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init session database: %w", err)
	}

	reg := prometheus.NewRegistry()
	api, err := client.NewHTTPClient(c.ServerBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithRegistry(reg))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := token.NewStore(db)
	sessions := services.NewSessionStore(api, tokens, logger)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		api:      api,
		registry: reg,
		sessions: sessions,
		entries:  services.NewEntryStore(api, tokens, api),
		router:   router.New(router.NewGuard(sessions, logger), logger),
		images:   imagesource.NewOpener(c.S3),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// SetOutput redirects user-facing screen output.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

func (a *App) Close() error {
	return a.db.Close()
}

// Start restores the session from the persisted token. It is run once
// before the REPL; failures to restore only mean the user has to log in.
func (a *App) Start(ctx context.Context) (services.InitState, error) {
	state, err := a.sessions.InitializeFromToken(ctx)
	if err != nil {
		return state, fmt.Errorf("restore session: %w", err)
	}
	a.logger.Debug(ctx, "startup session state", "state", state.String())
	return state, nil
}

// Run restores the session, starts the metrics endpoint if configured and
// blocks in the REPL until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.Start(ctx); err != nil {
		return err
	}

	if a.config.MetricsAddr != "" {
		go func() {
			if err := serveMetrics(ctx, a.config.MetricsAddr, a.registry, a.logger); err != nil {
				a.logger.Error(ctx, "metrics server failed", "error", err)
			}
		}()
	}

	fmt.Fprintln(a.out, "Welcome to catlog (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.sessions.IsAuthenticated()
}

func (a *App) status() string {
	if s := a.sessions.Current(); s != nil {
		return fmt.Sprintf(" (%s)", s.Username)
	}
	return ""
}

// Whoami prints the logged in user, restoring the session first if needed.
func (a *App) Whoami(ctx context.Context) error {
	if !a.sessions.IsAuthenticated() {
		if _, err := a.Start(ctx); err != nil {
			return err
		}
	}
	s := a.sessions.Current()
	if s == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	if s.Email != "" {
		fmt.Fprintf(a.out, "%s <%s> (id %s)\n", s.Username, s.Email, s.ID)
	} else {
		fmt.Fprintf(a.out, "%s (id %s)\n", s.Username, s.ID)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.sessions.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
