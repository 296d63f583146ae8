package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"golang.org/x/time/rate"

	"github.com/leofalp/uigen/core/client"
	"github.com/leofalp/uigen/core/client/middleware"
	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/internal/config"
	"github.com/leofalp/uigen/providers/ai/openai"
	"github.com/leofalp/uigen/providers/cache"
	cachemem "github.com/leofalp/uigen/providers/cache/inmemory"
	"github.com/leofalp/uigen/providers/cache/rediscache"
	"github.com/leofalp/uigen/providers/catalog"
	"github.com/leofalp/uigen/providers/history"
	historymem "github.com/leofalp/uigen/providers/history/inmemory"
	"github.com/leofalp/uigen/providers/history/sqlitehistory"
	"github.com/leofalp/uigen/providers/observability"
	"github.com/leofalp/uigen/providers/observability/otelobs"
	"github.com/leofalp/uigen/providers/observability/promobs"
	"github.com/leofalp/uigen/providers/observability/slogobs"
	"github.com/leofalp/uigen/providers/observability/zerologobs"
)

// environment holds what the commands share: configuration, the observer
// and the resources to release on exit.
type environment struct {
	cfg      *config.Config
	observer observability.Provider
	registry *prometheus.Registry
	closers  []func() error

	// debugLogger is set when the slog backend logs at debug level or
	// below; provider calls are then logged individually.
	debugLogger *slog.Logger
}

func newEnvironment(ctx context.Context, cfg *config.Config, flags *GlobalFlags, stderr io.Writer) (*environment, error) {
	level := cfg.Log.Level
	switch {
	case flags.Verbose:
		level = "debug"
	case flags.Quiet:
		level = "error"
	}

	var (
		logger      observability.Provider
		debugLogger *slog.Logger
	)
	switch cfg.Log.Backend {
	case config.LogZerolog:
		logger = zerologobs.NewWriter(stderr, zerologobs.ParseLevel(level))
	default:
		slogLevel, _ := slogobs.ParseLevel(level)
		observer := slogobs.New(
			slogobs.WithFormat(slogobs.ParseFormat(cfg.Log.Format)),
			slogobs.WithLevel(slogLevel),
			slogobs.WithOutput(stderr),
		)
		if slogLevel <= slog.LevelDebug {
			debugLogger = observer.Logger()
		}
		logger = observer
	}

	registry := prometheus.NewRegistry()
	metrics := promobs.New(registry, promobs.WithNamespace(cfg.Metrics.Namespace))

	env := &environment{
		cfg:         cfg,
		registry:    registry,
		debugLogger: debugLogger,
	}

	var tracer observability.Tracer
	if cfg.Tracing.Enabled {
		t, err := env.tracer(ctx)
		if err != nil {
			return nil, err
		}
		tracer = t
	}
	env.observer = observability.Combine(tracer, metrics, nil, logger)
	return env, nil
}

// tracer exports spans over OTLP/gRPC. The exporter connects lazily, so an
// unreachable collector only costs dropped spans.
func (e *environment) tracer(ctx context.Context) (observability.Tracer, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(e.cfg.Tracing.Endpoint)}
	if e.cfg.Tracing.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	tp := otelobs.NewTracerProvider(otelobs.ProviderConfig{
		ServiceName: e.cfg.Tracing.ServiceName,
		SampleRate:  e.cfg.Tracing.SampleRate,
	}, exporter)
	e.onClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	})
	return otelobs.New(tp), nil
}

func (e *environment) onClose(fn func() error) {
	e.closers = append(e.closers, fn)
}

// Close writes the metrics textfile when configured and releases resources
// in reverse order of acquisition.
func (e *environment) Close() error {
	var errs []error
	if path := e.cfg.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// loadCatalog returns nil when no catalog is configured. With watch set the
// catalog follows the file and onReload runs after every reload.
func (e *environment) loadCatalog(watch bool, onReload func(*catalog.Catalog)) (client.Catalog, error) {
	path := e.cfg.Catalog.Path
	if path == "" {
		return nil, nil
	}
	path, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if !watch {
		loaded, err := catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return loaded, nil
	}

	watcher, err := catalog.Watch(path,
		catalog.WithWatchObserver(e.observer),
		catalog.OnReload(onReload),
	)
	if err != nil {
		return nil, err
	}
	e.onClose(watcher.Close)
	return watcher, nil
}

func (e *environment) validatorOptions(cat client.Catalog) ([]schema.ValidatorOption, error) {
	var opts []schema.ValidatorOption
	if cat != nil {
		opts = append(opts, schema.WithCatalog(cat))
	}
	if e.cfg.Catalog.UnknownAsWarnings {
		opts = append(opts, schema.WithUnknownComponentsAsWarnings())
	}
	if constraint := e.cfg.Catalog.VersionConstraint; constraint != "" {
		parsed, err := semver.NewConstraint(constraint)
		if err != nil {
			return nil, fmt.Errorf("parse catalog.version_constraint: %w", err)
		}
		opts = append(opts, schema.WithVersionConstraint(parsed))
	}
	return opts, nil
}

func (e *environment) promptCache(ctx context.Context) (cache.Provider, error) {
	switch e.cfg.Cache.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		redisCfg := e.cfg.Cache.Redis
		c, err := rediscache.Dial(ctx, redisCfg.Addr, redisCfg.Password, redisCfg.DB,
			rediscache.WithPrefix(redisCfg.Prefix),
			rediscache.WithTTL(e.cfg.Cache.TTL),
			rediscache.WithObserver(e.observer),
		)
		if err != nil {
			return nil, err
		}
		e.onClose(c.Close)
		return c, nil
	default:
		return cachemem.New(cachemem.WithTTL(e.cfg.Cache.TTL), cachemem.WithObserver(e.observer)), nil
	}
}

// historyStore returns nil when history is disabled.
func (e *environment) historyStore(ctx context.Context) (history.Provider, error) {
	switch e.cfg.History.Backend {
	case config.HistoryMemory:
		return historymem.New(), nil
	case config.HistorySQLite:
		store, err := sqlitehistory.Open(ctx, e.cfg.History.Path)
		if err != nil {
			return nil, err
		}
		e.onClose(store.Close)
		return store, nil
	default:
		return nil, nil
	}
}

// newClient wires the full pipeline from configuration.
func (e *environment) newClient(ctx context.Context, watchCatalog bool) (*client.Client, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := openai.New(e.cfg.Generation)
	if err != nil {
		return nil, err
	}

	var generator atomic.Pointer[client.Client]
	cat, err := e.loadCatalog(watchCatalog, func(*catalog.Catalog) {
		if c := generator.Load(); c != nil {
			if err := c.InvalidatePrompts(context.Background()); err != nil {
				e.observer.Warn(context.Background(), "prompt cache invalidation failed", observability.Error(err))
			}
		}
	})
	if err != nil {
		return nil, err
	}

	promptCache, err := e.promptCache(ctx)
	if err != nil {
		return nil, err
	}
	store, err := e.historyStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithObserver(e.observer),
		client.WithRetryConfig(e.cfg.Retry),
		client.WithTokenBudget(e.cfg.Prompt.TokenBudget),
		client.WithLanguage(e.cfg.Prompt.Language),
		client.WithExamples(e.cfg.Prompt.Examples...),
		client.WithDesignTokens(e.cfg.Prompt.DesignTokens),
	}
	if cat != nil {
		opts = append(opts, client.WithCatalog(cat))
	}
	if e.cfg.Catalog.UnknownAsWarnings {
		opts = append(opts, client.WithUnknownComponentsAsWarnings())
	}
	if constraint := e.cfg.Catalog.VersionConstraint; constraint != "" {
		parsed, err := semver.NewConstraint(constraint)
		if err != nil {
			return nil, fmt.Errorf("parse catalog.version_constraint: %w", err)
		}
		opts = append(opts, client.WithVersionConstraint(parsed))
	}
	if promptCache != nil {
		opts = append(opts, client.WithCache(promptCache))
	}
	if store != nil {
		opts = append(opts, client.WithHistory(store))
	}
	if rl := e.cfg.RateLimit; rl.PerSecond > 0 {
		opts = append(opts, client.WithRateLimit(rate.Limit(rl.PerSecond), rl.Burst))
	}
	if e.cfg.Repair {
		opts = append(opts, client.WithRepair())
	}
	if e.debugLogger != nil {
		opts = append(opts, client.WithMiddleware(middleware.NewLoggingMiddleware(e.debugLogger, middleware.LogLevelStandard)))
	}
	opts = append(opts, client.WithMiddleware(middleware.NewTransientRetryMiddleware(middleware.RetryConfig{})))

	c, err := client.New(provider, e.cfg.Generation, opts...)
	if err != nil {
		return nil, err
	}
	generator.Store(c)
	return c, nil
}
