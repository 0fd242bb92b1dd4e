package main

import (
	"log/slog"
	"strings"
	"sync"

	"mkvauto/internal/config"
	"mkvauto/internal/discdb"
	"mkvauto/internal/logging"
	"mkvauto/internal/pipeline"
)

type commandContext struct {
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	// pipelineOptions lets tests swap the scanner, ripper, and ejector.
	pipelineOptions []pipeline.Option
}

func newCommandContext(configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logLevel() string {
	if c.verboseFlag != nil && *c.verboseFlag {
		return "debug"
	}
	return ""
}

// logger writes to stderr only so command output stays parseable. Without
// --verbose only warnings reach the terminal.
func (c *commandContext) logger() *slog.Logger {
	level := c.logLevel()
	if level == "" {
		level = "warn"
	}
	format := "console"
	if cfg, err := c.ensureConfig(); err == nil && cfg.Logging.Format != "" {
		format = cfg.Logging.Format
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format, OutputPaths: []string{"stderr"}})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withEngine opens the disc database and builds a pipeline around it.
func (c *commandContext) withEngine(fn func(*pipeline.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.logger()
	store, err := discdb.Open(cfg.DiscDB, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	engine, err := pipeline.New(cfg, store, logger, c.pipelineOptions...)
	if err != nil {
		return err
	}
	return fn(engine)
}

func (c *commandContext) withStore(fn func(discdb.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := discdb.Open(cfg.DiscDB, c.logger())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
