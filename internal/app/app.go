package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chatsync/pkg/config"
	"chatsync/pkg/store"
	"chatsync/pkg/telemetry"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	addr    string
	dbPath  string
	sources string
	version string

	srv           *http.Server
	cancelJanitor context.CancelFunc
}

// New validates the effective config and opens resources that need no
// running context (the store, runtime keys). Call Run to start the janitor
// and HTTP server and block until shutdown.
func New(cfg *config.Config, addr, dbPath, sources, version string, backendKeys, signingKeys map[string]struct{}) (*App, error) {
	if err := validateConfig(cfg, addr, dbPath); err != nil {
		return nil, err
	}

	config.SetRuntime(&config.RuntimeConfig{BackendKeys: backendKeys, SigningKeys: signingKeys})

	if err := store.Open(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}

	return &App{cfg: cfg, addr: addr, dbPath: dbPath, sources: sources, version: version}, nil
}

// Run starts the janitor and the HTTP server and blocks until ctx is
// cancelled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	if err := a.startJanitor(ctx); err != nil {
		return err
	}
	telemetry.StartStoreSampler(ctx, time.Minute)

	a.printBanner()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Shutdown stops the server, the janitor and the store in order.
func (a *App) Shutdown() {
	if a.cancelJanitor != nil {
		a.cancelJanitor()
	}
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(ctx)
	}
	_ = store.Close()
}
