package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envLibraryDir = "MKVAUTO_LIBRARY_DIR"
	envLogLevel   = "MKVAUTO_LOG_LEVEL"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMakeMKV()
	c.normalizeDetection()
	if err := c.normalizeDiscDB(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(envLibraryDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibraryDir = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.LibraryDir, err = expandPath(strings.TrimSpace(c.Paths.LibraryDir)); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}

	c.Library.MoviesDir = strings.TrimSpace(c.Library.MoviesDir)
	c.Library.TVDir = strings.TrimSpace(c.Library.TVDir)
	if strings.HasPrefix(c.Library.MoviesDir, "~") {
		if c.Library.MoviesDir, err = expandPath(c.Library.MoviesDir); err != nil {
			return fmt.Errorf("library.movies_dir: %w", err)
		}
	}
	if strings.HasPrefix(c.Library.TVDir, "~") {
		if c.Library.TVDir, err = expandPath(c.Library.TVDir); err != nil {
			return fmt.Errorf("library.tv_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeMakeMKV() {
	c.MakeMKV.Binary = strings.TrimSpace(c.MakeMKV.Binary)
	if c.MakeMKV.Binary == "" {
		c.MakeMKV.Binary = defaultMakemkvBinary
	}
	c.MakeMKV.FFprobeBinary = strings.TrimSpace(c.MakeMKV.FFprobeBinary)
	if c.MakeMKV.FFprobeBinary == "" {
		c.MakeMKV.FFprobeBinary = defaultFFprobeBinary
	}
	c.MakeMKV.EjectBinary = strings.TrimSpace(c.MakeMKV.EjectBinary)
	if c.MakeMKV.EjectBinary == "" {
		c.MakeMKV.EjectBinary = defaultEjectBinary
	}
	c.MakeMKV.OpticalDrive = strings.TrimSpace(c.MakeMKV.OpticalDrive)
	if c.MakeMKV.InfoTimeout <= 0 {
		c.MakeMKV.InfoTimeout = defaultInfoTimeout
	}
}

func (c *Config) normalizeDetection() {
	forced := make(map[string]string, len(c.Detection.ForcedTypes))
	for name, kind := range c.Detection.ForcedTypes {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		forced[name] = strings.ToLower(strings.TrimSpace(kind))
	}
	c.Detection.ForcedTypes = forced

	series := c.Detection.KnownSeries[:0]
	for _, name := range c.Detection.KnownSeries {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			series = append(series, trimmed)
		}
	}
	c.Detection.KnownSeries = series

	if c.Detection.FallbackGiBPerHour == 0 {
		c.Detection.FallbackGiBPerHour = defaultFallbackGiBPerHour
	}
}

func (c *Config) normalizeDiscDB() error {
	c.DiscDB.Backend = strings.ToLower(strings.TrimSpace(c.DiscDB.Backend))
	if c.DiscDB.Backend == "" {
		c.DiscDB.Backend = defaultDiscDBBackend
	}
	path := strings.TrimSpace(c.DiscDB.Path)
	if path == "" {
		name := "disc_db.json"
		if c.DiscDB.Backend == "sqlite" {
			name = "disc_db.sqlite"
		}
		path = filepath.Join(c.Paths.StateDir, name)
	}
	var err error
	if c.DiscDB.Path, err = expandPath(path); err != nil {
		return fmt.Errorf("disc_db.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
}
