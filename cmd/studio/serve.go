package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeforge/giftstudio/cache"
	"github.com/leeforge/giftstudio/catalog"
	"github.com/leeforge/giftstudio/config"
	"github.com/leeforge/giftstudio/editor"
	"github.com/leeforge/giftstudio/env_mode"
	"github.com/leeforge/giftstudio/http/handler"
	"github.com/leeforge/giftstudio/http/middleware"
	"github.com/leeforge/giftstudio/logging"
	"github.com/leeforge/giftstudio/media/processor"
	"github.com/leeforge/giftstudio/media/storage"
	"github.com/leeforge/giftstudio/metrics"
	"github.com/leeforge/giftstudio/tokenstore"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the studio HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := loadConfig(true)
			if err != nil {
				return err
			}
			if addr != "" {
				sc.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, sc)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

// app holds everything serve wires together.
type app struct {
	handler  *handler.Handler
	registry *editor.Registry
	limiter  *middleware.RateLimiter
	memory   *tokenstore.MemoryStore
	closers  []func() error
}

func (a *app) close() {
	a.registry.Close()
	for _, c := range a.closers {
		_ = c()
	}
}

func newApp(ctx context.Context, sc *config.StudioConfig, logger logging.Logger, collector *metrics.Collector) (*app, error) {
	a := &app{}

	var observer catalog.Observer
	if collector != nil {
		observer = collector
	}
	client, err := catalog.New(catalog.Config{
		BaseURL:   sc.Catalog.BaseURL,
		Timeout:   sc.Catalog.Timeout,
		UserAgent: sc.Catalog.UserAgent,
		Observer:  observer,
		Logger:    logger.Named("catalog"),
	})
	if err != nil {
		return nil, err
	}

	var tokens tokenstore.Store
	switch sc.Tokens.Backend {
	case "redis":
		rc, err := tokenstore.NewRedisClient(ctx, sc.Tokens.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		tokens = tokenstore.NewRedisStore(rc, sc.Tokens.Redis.Prefix, sc.Tokens.Redis.TTL)
		logger.Info("token store: redis", zap.String("conn", sc.Tokens.Redis.LogFields()))
	default:
		a.memory = tokenstore.NewMemoryStore(sc.Tokens.MemoryTTL)
		tokens = a.memory
	}

	store, err := storage.NewFromConfig(sc.Storage)
	if err != nil {
		return nil, err
	}

	a.registry = editor.NewRegistry(sc.Editor.Options(), sc.Editor.SessionTTL, sc.Editor.MaxSessions)
	if collector != nil {
		collector.RegisterSessionGauge(a.registry.Len)
	}
	a.limiter = middleware.NewRateLimiter(sc.RateLimit.RPS, sc.RateLimit.Burst, logger.Named("ratelimit"))

	deps := handler.Deps{
		Registry:      a.registry,
		Origins:       editor.NewOriginPolicy(sc.Editor.AllowedOrigins...),
		Processor:     processor.NewProcessor(sc.Output),
		Storage:       store,
		StoragePrefix: sc.Storage.Prefix,
		SignedURLTTL:  sc.Storage.SignedURLTTL,
		Catalog:       client,
		Tokens:        tokens,
		Limiter:       a.limiter,
		Logger:        logger,
		CORS:          sc.Server.CORS,
		SecureCookies: env_mode.IsProduction(),
	}
	if sc.Editor.ImageCacheSize > 0 {
		deps.ImageCache = cache.New[handler.RemoteImage](sc.Editor.ImageCacheSize, sc.Editor.ImageCacheTTL)
		if collector != nil {
			collector.RegisterCacheStats("images", deps.ImageCache.Stats)
		}
	}
	if collector != nil && sc.Metrics.Enabled {
		deps.Metrics = collector
		deps.MetricsPath = sc.Metrics.Path
	}
	a.handler = handler.New(deps)
	return a, nil
}

func serve(ctx context.Context, sc *config.StudioConfig) error {
	var collector *metrics.Collector
	var hooks []logging.Hook
	if sc.Metrics.Enabled {
		collector = metrics.NewCollector()
		hooks = append(hooks, collector.LogHook)
	}
	logger := logging.Init(sc.Logging, hooks...)
	defer func() {
		_ = logger.Sync()
		_ = logging.CloseAllWriters()
	}()

	a, err := newApp(ctx, sc, logger, collector)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.close()

	a.limiter.StartCleanup(ctx, time.Minute)
	if a.memory != nil {
		go a.memory.Cleanup(ctx, time.Minute)
	}

	srv := &http.Server{
		Addr:         sc.Server.Addr,
		Handler:      a.handler.Routes(),
		ReadTimeout:  sc.Server.ReadTimeout,
		WriteTimeout: sc.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("studio listening",
			zap.String("addr", sc.Server.Addr),
			zap.String("env", string(env_mode.Mode())),
			zap.String("catalog", sc.Catalog.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
