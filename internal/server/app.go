// Package server provides the core application server and dependency wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zazmarga/tango-api/internal/api"
	"github.com/zazmarga/tango-api/internal/clock/system"
	"github.com/zazmarga/tango-api/internal/config"
	collyfetcher "github.com/zazmarga/tango-api/internal/fetcher/colly"
	"github.com/zazmarga/tango-api/internal/logging"
	"github.com/zazmarga/tango-api/internal/mail"
	"github.com/zazmarga/tango-api/internal/milonga"
	"github.com/zazmarga/tango-api/internal/quote"
	"github.com/zazmarga/tango-api/internal/storage"
)

// App contains the application's dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     storage.QuoteStore
	counter   *milonga.Counter
	quotes    *quote.Service
	mailer    mail.Sender
	apiServer *api.Server
}

// Build creates the application's dependencies. The returned App owns the
// quote store and must be closed.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("milongas_url", cfg.Milongas.URL),
	)
	app := &App{cfg: cfg, logger: logger}

	store, err := OpenQuoteStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.store = store
	app.quotes = quote.NewService(store, nil, logger.Named("quotes"))

	app.mailer, err = NewMailer(cfg.Mail, logger.Named("mail"))
	if err != nil {
		store.Close()
		return nil, err
	}

	app.counter = NewMilongaCounter(cfg.Milongas, system.New(), logger.Named("milongas"))

	app.apiServer = api.NewServer(
		app.counter,
		app.quotes,
		app.mailer,
		api.Options{
			APIKey:         cfg.Auth.APIKey,
			AllowUnsetKey:  cfg.Auth.AllowUnset,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout(),
			ImagesDir:      cfg.Static.ImagesDir,
			IndexFile:      cfg.Static.IndexFile,
		},
		logger.Named("api"),
	)
	if cfg.Auth.APIKey == "" {
		logger.Warn("no API key configured", zap.Bool("writes_open", cfg.Auth.AllowUnset))
	}
	return app, nil
}

// OpenQuoteStore connects the configured quote store and brings its schema up
// to date.
func OpenQuoteStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (storage.QuoteStore, error) {
	store, err := storage.Open(ctx, storage.Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		Path:            cfg.Path,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("quote store init failed: %w", err)
	}
	applied, err := store.Migrate(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("quote store migration failed: %w", err)
	}
	logger.Info("quote store ready", zap.String("driver", cfg.Driver), zap.Strings("migrations_applied", applied))
	return store, nil
}

// NewMailer returns the Resend relay, or a log-only sender when no key is set.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) (mail.Sender, error) {
	if cfg.ResendAPIKey == "" {
		logger.Warn("mail.resend_api_key not set, contact messages will only be logged")
		return mail.NewLogSender(logger), nil
	}
	sender, err := mail.NewResendSender(mail.ResendConfig{
		APIKey:   cfg.ResendAPIKey,
		From:     cfg.From,
		To:       cfg.To,
		SiteName: cfg.SiteName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("mail relay init failed: %w", err)
	}
	return sender, nil
}

// NewMilongaCounter wires the colly fetcher into a milonga.Counter.
func NewMilongaCounter(cfg config.MilongasConfig, clock milonga.Clock, logger *zap.Logger) *milonga.Counter {
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgents: cfg.UserAgents,
		Timeout:    cfg.Timeout(),
		MaxConns:   cfg.MaxConns,
	})
	logger.Info("using colly listing fetcher",
		zap.String("user_agent", fetcher.UserAgent()),
		zap.Duration("timeout", cfg.Timeout()),
		zap.Duration("window", cfg.RefreshWindow()),
	)
	return milonga.NewCounter(milonga.Config{
		URL:       cfg.URL,
		Window:    cfg.RefreshWindow(),
		UTCOffset: cfg.UTCOffset(),
	}, fetcher, clock, logger)
}

// Handler exposes the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Run listens on the configured port and blocks until SIGINT/SIGTERM or ctx
// is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is done, then drains and closes.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("application started")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Milongas.WarmOnStart {
		go func() {
			if err := a.counter.Warm(ctx); err != nil {
				a.logger.Warn("initial milonga refresh failed", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			cancel()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)
	if err := <-serveErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return closeErr
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.cfg.ShutdownTimeout(); d > 0 {
		return d
	}
	return 10 * time.Second
}

// Close releases the store and flushes the logger.
func (a *App) Close(_ context.Context) error {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	a.logger.Info("shutdown complete")
	// Sync on stderr-backed loggers fails on some platforms; ignore it.
	_ = a.logger.Sync()
	return nil
}
