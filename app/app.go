// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/contactsection/config"
	"github.com/dalemusser/contactsection/logging"
	"github.com/dalemusser/contactsection/metrics"
	"github.com/dalemusser/contactsection/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// VerifyTimeout bounds Hooks.Verify.
const VerifyTimeout = 10 * time.Second

// Hooks are the service-specific steps Run drives. C is the app config and
// D the bundle of outbound dependencies (email transport and friends).
type Hooks[C any, D any] struct {
	// Name appears in startup logs.
	Name string

	// LoadConfig returns the core config and the app config, validated.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// Connect builds the outbound dependencies from config.
	Connect func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// Verify runs optional startup checks against the built dependencies.
	Verify func(ctx context.Context, core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) error

	// BuildHandler assembles the router, middleware and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)
}

// Run performs the startup sequence and serves until ctx is canceled or a
// shutdown signal arrives:
//
//  1. bootstrap logger
//  2. LoadConfig
//  3. final logger from log_level/env
//  4. default metrics
//  5. Connect, then Verify (if set)
//  6. BuildHandler
//  7. serve with graceful shutdown
//
// Any startup failure is logged and returned.
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("starting", zap.String("app", hooks.Name))

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded",
		zap.String("app", hooks.Name),
		zap.String("log_level", coreCfg.LogLevel),
		zap.Bool("use_https", coreCfg.HTTP.UseHTTPS))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("metrics registration failed", zap.Error(err))
		return fmt.Errorf("register metrics: %w", err)
	}

	deps, err := hooks.Connect(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("connect failed", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}

	if hooks.Verify != nil {
		vctx, cancel := context.WithTimeout(ctx, VerifyTimeout)
		err := hooks.Verify(vctx, coreCfg, appCfg, deps, logger)
		cancel()
		if err != nil {
			logger.Error("startup verification failed", zap.Error(err))
			return fmt.Errorf("verify: %w", err)
		}
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
