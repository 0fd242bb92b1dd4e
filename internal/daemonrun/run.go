package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"mkvauto/internal/config"
	"mkvauto/internal/discdb"
	"mkvauto/internal/logging"
	"mkvauto/internal/monitor"
	"mkvauto/internal/pipeline"
	"mkvauto/internal/preflight"
)

// Options configures the monitor process.
type Options struct {
	// ConfigPath enables hot reload when set.
	ConfigPath string
	LogLevel   string
	// Logger overrides logger construction; used by tests.
	Logger          *slog.Logger
	MonitorOptions  []monitor.Option
	PipelineOptions []pipeline.Option
}

// Run blocks until SIGINT, SIGTERM, or cancellation of ctx.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := opts.Logger
	if logger == nil {
		loggerCfg := *cfg
		if opts.LogLevel != "" {
			loggerCfg.Logging.Level = opts.LogLevel
		}
		var err error
		if logger, err = logging.NewFromConfig(&loggerCfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	logDependencySnapshot(signalCtx, logger, cfg)

	store, err := discdb.Open(cfg.DiscDB, logger)
	if err != nil {
		logger.Error("open disc database", logging.Error(err))
		return err
	}
	defer store.Close()

	engine, err := pipeline.New(cfg, store, logger, opts.PipelineOptions...)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	monitorOpts := opts.MonitorOptions
	if opts.ConfigPath != "" {
		monitorOpts = append([]monitor.Option{monitor.WithConfigPath(opts.ConfigPath)}, monitorOpts...)
	}
	mon, err := monitor.New(cfg, engine, logger, monitorOpts...)
	if err != nil {
		return fmt.Errorf("create monitor: %w", err)
	}

	if err := mon.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("mkvauto monitor shutting down")
	return nil
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, result := range preflight.RunAll(ctx, cfg) {
		key := strings.ReplaceAll(strings.ToLower(result.Name), " ", "_")
		attrs = append(attrs, logging.Bool(key, result.Passed))
		if !result.Passed && !result.Optional {
			logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldImpact, "disc processing may fail"),
			)
		}
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
