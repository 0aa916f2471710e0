package app

import (
	"context"

	"chatsync/internal/janitor"
	"chatsync/pkg/api"
	"chatsync/pkg/auth"
	"chatsync/pkg/banner"
	"chatsync/pkg/security"
	"chatsync/pkg/telemetry"

	"net/http"
)

func (a *App) printBanner() {
	banner.Print(a.cfg, a.addr, a.dbPath, a.sources, a.version)
}

func (a *App) startJanitor(ctx context.Context) error {
	if !a.cfg.Janitor.Enabled {
		return nil
	}
	cancel, err := janitor.Start(ctx, a.cfg.Janitor.Cron)
	if err != nil {
		return err
	}
	a.cancelJanitor = cancel
	return nil
}

// startHTTP wraps the API handler with the perimeter, identity and metrics
// middleware, starts the server in a goroutine and returns its error
// channel.
func (a *App) startHTTP() <-chan error {
	secCfg := security.SecConfig{
		AllowedOrigins: append([]string{}, a.cfg.Security.CORS.AllowedOrigins...),
		RPS:            a.cfg.Security.RateLimit.RPS,
		Burst:          a.cfg.Security.RateLimit.Burst,
		IPWhitelist:    append([]string{}, a.cfg.Security.IPWhitelist...),
		BackendKeys:    map[string]struct{}{},
		FrontendKeys:   map[string]struct{}{},
		AdminKeys:      map[string]struct{}{},
	}
	for _, k := range a.cfg.Security.APIKeys.Backend {
		secCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range a.cfg.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	for _, k := range a.cfg.Security.APIKeys.Admin {
		secCfg.AdminKeys[k] = struct{}{}
	}

	handler := auth.RequireSignedSubject(api.Handler())
	wrapped := security.AuthenticateRequestMiddleware(secCfg)(handler)
	wrapped = telemetry.Middleware(wrapped)

	a.srv = &http.Server{Addr: a.addr, Handler: wrapped}

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
