// cmd/dutyroster/main.go
//
// This is the entry point for the dutyroster TUI.
//
// Flow:
// 1. Load .env overrides and the .dutyroster/config.yaml file
// 2. Open the SQLite store and seed the default accounts on first run
// 3. Wire the directory service, session manager and logbook
// 4. Launch the bubbletea application

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/aksoyhq/dutyroster/internal/config"
	"github.com/aksoyhq/dutyroster/internal/directory"
	"github.com/aksoyhq/dutyroster/internal/logbook"
	"github.com/aksoyhq/dutyroster/internal/logging"
	"github.com/aksoyhq/dutyroster/internal/model"
	"github.com/aksoyhq/dutyroster/internal/session"
	"github.com/aksoyhq/dutyroster/internal/store"
	"github.com/aksoyhq/dutyroster/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dutyroster: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env next to the binary overrides config.yaml; absence is fine.
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	if err := config.InitDataDir(cwd); err != nil {
		return fmt.Errorf("init data dir: %w", err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogsDir())
	if err != nil {
		return err
	}
	defer logger.Close()

	st, err := store.Open(cfg.DatabasePath(), logger.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := store.EnsureSeeded(ctx, st, logger.Logger); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	dir := directory.NewService(newFetcher(cfg), st, logger.Logger,
		directory.WithFreshness(cfg.Freshness()))

	book, err := logbook.New(filepath.Join(cfg.LogsDir(), "journey.log"))
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}
	sess := session.NewManager(cfg.SessionPath())

	app := tui.NewApp(cfg, st, dir, sess, book)
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetSender(p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// newFetcher returns the HTTP feed client, or an always-unavailable fetcher
// when no feed URL is configured. The service then serves lookups from the
// local mirror.
func newFetcher(cfg *config.Config) directory.Fetcher {
	if url := cfg.FeedURL(); url != "" {
		return &directory.HTTPFetcher{URL: url}
	}
	return directory.FetcherFunc(func(context.Context) ([]model.Personnel, error) {
		return nil, fmt.Errorf("directory: no feed configured: %w", model.ErrServiceUnavailable)
	})
}
