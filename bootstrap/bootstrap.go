// Package bootstrap wires all dependencies and starts the application:
// logger, storage, metrics, the runtime and the diagnostics server.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/typeforge/adapters/memory"
	"github.com/artpar/typeforge/adapters/metrics"
	"github.com/artpar/typeforge/config"
	httpChannel "github.com/artpar/typeforge/core/channel/http"
	"github.com/artpar/typeforge/core/events"
	"github.com/artpar/typeforge/core/i18n"
	"github.com/artpar/typeforge/core/runtime"
	"github.com/artpar/typeforge/core/storage"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger  zerolog.Logger
	Config  *config.Config
	Runtime *runtime.Runtime
	Metrics *metrics.Collector
	HTTP    *httpChannel.Channel

	// Elements and Atoms are the stores the runtime runs on.
	Elements storage.ElementStore
	Atoms    storage.AtomStore

	holder *config.Holder
	closer io.Closer
}

// Options provides optional configuration for application initialization.
type Options struct {
	// Holder enables hot reload of the configuration it holds.
	Holder *config.Holder

	// Output receives log lines. Defaults to stdout.
	Output io.Writer
}

// New wires an application from cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	logger := setupLogger(cfg.Logging, out)

	a := &App{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics.New(),
		holder:  opts.Holder,
	}

	if err := a.initStorage(); err != nil {
		return nil, err
	}

	translations, err := i18n.NewMemory(cfg.I18n.DefaultLocale)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("translations: %w", err)
	}

	bus := events.NewBus(logger.With().Str("component", "events").Logger())
	a.Runtime, err = runtime.New(a.Elements, runtime.Config{
		Atoms:         a.Atoms,
		Translations:  translations,
		DefaultLocale: cfg.I18n.DefaultLocale,
		Locales:       cfg.I18n.Locales,
		Events:        bus,
		Metrics:       a.Metrics,
		Logger:        logger.With().Str("component", "runtime").Logger(),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("runtime: %w", err)
	}

	RegisterFunctions(a.Runtime, logger)
	SubscribeLifecycle(bus, logger)

	httpCfg := httpChannel.Config{
		Addr:         cfg.Server.Addr(),
		Metrics:      a.Metrics,
		PerPage:      cfg.Server.PageSize,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	}
	if cfg.Metrics.Enabled {
		httpCfg.MetricsHandler = a.Metrics.Handler()
	}
	a.HTTP = httpChannel.New(a.Runtime, httpCfg)

	if a.holder != nil {
		a.holder.SetRecorder(a.Metrics)
		a.holder.OnChange(a.ApplyConfig)
	}

	return a, nil
}

func (a *App) initStorage() error {
	switch a.Config.Database.Driver {
	case "memory":
		a.Elements = memory.NewElementStore()
		a.Atoms = memory.NewAtomStore()
		a.Logger.Warn().Msg("using in-memory storage, descriptors are lost on exit")
	default:
		store, err := storage.NewSQLiteStore(a.Config.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		a.Elements = store
		a.Atoms = store.Atoms()
		a.closer = store
		a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database opened")
	}
	return nil
}

// Boot compiles every stored descriptor.
func (a *App) Boot(ctx context.Context) error {
	start := time.Now()
	n, err := a.Runtime.Boot(ctx)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	a.Logger.Info().
		Int("compiled", n).
		Int("live_types", a.Runtime.Registry().Len()).
		Dur("elapsed", time.Since(start)).
		Msg("runtime booted")
	return nil
}

// ApplyConfig applies the reloadable settings of cfg.
func (a *App) ApplyConfig(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.HTTP.SetPerPage(cfg.Server.PageSize)
}

// Run boots the runtime, serves diagnostics when enabled and blocks until
// ctx is done or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	if err := a.Boot(ctx); err != nil {
		return err
	}

	if a.Config.Server.Enabled {
		if err := a.HTTP.Start(ctx); err != nil {
			return fmt.Errorf("start diagnostics: %w", err)
		}
	}

	if a.holder != nil {
		if err := a.holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		a.holder.WatchSignals()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		a.Logger.Info().Msg("context done, shutting down")
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	if err := a.HTTP.Stop(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("diagnostics shutdown error")
	}

	if err := a.Close(); err != nil {
		return err
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Close releases the storage.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// setupLogger builds the logger described by cfg and sets the global level.
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
