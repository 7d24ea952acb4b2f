package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vietddude/streampay/internal/core/config"
	"github.com/vietddude/streampay/internal/health"
	"github.com/vietddude/streampay/internal/infra/wallet"
	"github.com/vietddude/streampay/internal/stream"
)

// App manages the wallet session, stream operations and HTTP server lifecycle.
type App struct {
	cfg          *config.AppConfig
	env          wallet.Environment
	session      *wallet.Session
	streams      *stream.Service
	healthServer *health.Server
	log          *slog.Logger

	connected <-chan struct{}
}

// NewApp creates an App backed by the configured wallet environment.
func NewApp(cfg *config.AppConfig) *App {
	return NewAppWithEnvironment(cfg, wallet.NewConfigEnvironment(cfg.Wallet))
}

// NewAppWithEnvironment creates an App with an explicit wallet environment.
func NewAppWithEnvironment(cfg *config.AppConfig, env wallet.Environment) *App {
	session := wallet.NewSession(env, cfg.Contracts.Addresses())
	svc := stream.NewService(session, cfg.Streams)

	return &App{
		cfg:          cfg,
		env:          env,
		session:      session,
		streams:      svc,
		healthServer: health.NewServer(session, svc, cfg.Server.Port),
		log:          slog.Default().With("component", "app"),
	}
}

// Session returns the wallet session.
func (a *App) Session() *wallet.Session { return a.session }

// Streams returns the stream operations.
func (a *App) Streams() *stream.Service { return a.streams }

// Start fires the one-shot auto-connect and starts the HTTP server.
// It does not block.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Wallet.AutoConnect && a.env.Available() {
		a.log.Info("Injected wallet detected, connecting")
		a.connected = a.session.ConnectInBackground(ctx)
	} else {
		a.log.Info("Auto-connect skipped", "auto_connect", a.cfg.Wallet.AutoConnect)
	}

	go func() {
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	a.log.Info("Server listening", "port", a.cfg.Server.Port)
	return nil
}

// Stop shuts down the HTTP server and closes the wallet session.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping app...")

	err := a.healthServer.Stop(ctx)
	a.session.Close()
	return err
}
