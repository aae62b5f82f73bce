// Package cli is the interactive front end of the marksync client: a small
// REPL over the submission, grading, and sync services, plus the background
// connectivity watcher that triggers sync cycles.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/dkrivenko/marksync/internal/client/api"
	"github.com/dkrivenko/marksync/internal/client/config"
	"github.com/dkrivenko/marksync/internal/client/connectivity"
	"github.com/dkrivenko/marksync/internal/client/services"
	"github.com/dkrivenko/marksync/internal/client/store"
	"github.com/dkrivenko/marksync/internal/client/syncx"
	"github.com/dkrivenko/marksync/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	ModeUnknown Mode = ""
)

type App struct {
	config       *config.Config
	db           *sql.DB
	repos        *store.Repositories
	api          *api.HTTPClient
	monitor      *connectivity.Monitor
	orchestrator *syncx.Orchestrator
	auth         services.AuthService
	submissions  services.SubmissionService
	grading      services.GradingService
	log          logging.Logger

	userName string
	mode     Mode
	reader   *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, repos, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerBaseURL, nil)

	monitor := connectivity.NewMonitor(apiClient, logger, connectivity.Options{
		ProbeTimeout:  c.ProbeTimeout,
		ProbeInterval: c.ProbeInterval,
		SettleDelay:   c.SettleDelay,
	})

	orchestrator := syncx.NewOrchestrator(repos, apiClient, logger, syncx.Options{
		SchoolsMinInterval: c.SchoolsRefreshInterval,
	})

	return &App{
		config:       c,
		db:           db,
		repos:        repos,
		api:          apiClient,
		monitor:      monitor,
		orchestrator: orchestrator,
		auth:         services.NewAuthService(apiClient, db, nil),
		submissions:  services.NewSubmissionService(repos.Submissions, repos.Assets, nil),
		grading:      services.NewGradingService(repos.Grades, repos.Mirror, nil),
		log:          logger,
		reader:       bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) setMode(mode Mode) {
	if a.mode != mode {
		a.mode = mode
		a.log.Info(context.Background(), "connectivity mode changed", "mode", string(mode))
	}
}

// Run starts the connectivity watcher and the sync trigger loop, then hands
// the terminal to the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.api.Close()
	defer a.db.Close()

	go a.monitor.Watch(ctx)
	go a.runSyncTriggers(ctx)

	a.Root(ctx)
}

// runSyncTriggers funnels connectivity transitions into the orchestrator's
// guarded entry point. A trigger while a cycle runs is a no-op.
func (a *App) runSyncTriggers(ctx context.Context) {
	statusCh, unsubscribe := a.monitor.Subscribe()
	defer unsubscribe()

	for {
		select {
		case online, ok := <-statusCh:
			if !ok {
				return
			}
			if online {
				a.setMode(ModeOnline)
				go a.runCycle(ctx, false)
			} else {
				a.setMode(ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) runCycle(ctx context.Context, force bool) {
	if err := a.orchestrator.Run(ctx, force); err != nil {
		a.log.Warn(ctx, "sync cycle not started", "error", err)
	}
}
