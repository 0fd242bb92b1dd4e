package config

import (
	"fmt"
	"sort"
	"strings"
)

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrConfiguration, key, fmt.Sprintf(format, args...))
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateMakeMKV(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateDiscDB(); err != nil {
		return err
	}
	if err := c.validateService(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLibrary() error {
	if c.Paths.LibraryDir == "" {
		return invalid("paths.library_dir", "must be set")
	}
	if c.Library.MoviesDir == "" {
		return invalid("library.movies_dir", "must be set")
	}
	if c.Library.TVDir == "" {
		return invalid("library.tv_dir", "must be set")
	}
	if c.MoviesPath() == c.TVPath() {
		return invalid("library.tv_dir", "must differ from library.movies_dir")
	}
	return nil
}

func (c *Config) validateMakeMKV() error {
	if c.MakeMKV.RipTimeout < 0 {
		return invalid("makemkv.rip_timeout", "must be zero or positive")
	}
	if c.MakeMKV.MinLength < 0 {
		return invalid("makemkv.min_length", "must be zero or positive")
	}
	return nil
}

func (c *Config) validateDetection() error {
	d := c.Detection
	for key, value := range map[string]int{
		"detection.min_episode_duration": d.MinEpisodeDuration,
		"detection.max_episode_duration": d.MaxEpisodeDuration,
		"detection.min_movie_duration":   d.MinMovieDuration,
		"detection.tie_break_duration":   d.TieBreakDuration,
	} {
		if value <= 0 {
			return invalid(key, "must be positive")
		}
	}
	if d.MinTitleSeconds < 0 {
		return invalid("detection.min_title_seconds", "must be zero or positive")
	}
	if d.MaxEpisodeDuration < d.MinEpisodeDuration {
		return invalid("detection.max_episode_duration", "must be at least detection.min_episode_duration")
	}
	if d.FallbackGiBPerHour <= 0 {
		return invalid("detection.fallback_gib_per_hour", "must be positive")
	}
	var bad []string
	for name, kind := range d.ForcedTypes {
		switch kind {
		case "movie", "tv", "tvshow", "tv_show", "tv show":
		default:
			bad = append(bad, fmt.Sprintf("%q=%q", name, kind))
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return invalid("detection.forced_types", "accepts movie or tv, got %s", strings.Join(bad, ", "))
	}
	return nil
}

func (c *Config) validateDiscDB() error {
	switch c.DiscDB.Backend {
	case "json", "sqlite":
		return nil
	default:
		return invalid("disc_db.backend", "must be json or sqlite, got %q", c.DiscDB.Backend)
	}
}

func (c *Config) validateService() error {
	if c.Service.CheckInterval <= 0 {
		return invalid("service.check_interval", "must be positive")
	}
	if c.Service.RetryCount < 1 {
		return invalid("service.retry_count", "must be at least 1")
	}
	if c.Service.RetryDelay < 0 {
		return invalid("service.retry_delay", "must be zero or positive")
	}
	if c.Service.SettleDelay < 0 {
		return invalid("service.settle_delay", "must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format", "must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level", "must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Logging.MaxBackups < 0 || c.Logging.RetentionDays < 0 {
		return invalid("logging", "max_backups and retention_days must be zero or positive")
	}
	return nil
}
