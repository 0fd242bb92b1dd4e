package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mkvauto/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MKVAUTO_LIBRARY_DIR", "")
	t.Setenv("MKVAUTO_LOG_LEVEL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "mkvauto", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.LibraryDir != filepath.Join(tempHome, "Media") {
		t.Fatalf("unexpected library dir: %q", cfg.Paths.LibraryDir)
	}
	if cfg.MoviesPath() != filepath.Join(tempHome, "Media", "Movies") {
		t.Fatalf("unexpected movies path: %q", cfg.MoviesPath())
	}
	if cfg.TVPath() != filepath.Join(tempHome, "Media", "TV Shows") {
		t.Fatalf("unexpected tv path: %q", cfg.TVPath())
	}
	if cfg.DiscDB.Path != filepath.Join(tempHome, ".local", "share", "mkvauto", "disc_db.json") {
		t.Fatalf("unexpected disc db path: %q", cfg.DiscDB.Path)
	}
	if cfg.Detection.MinMovieDuration != 75 || cfg.Detection.MinTitleSeconds != 600 {
		t.Fatalf("unexpected detection defaults: %+v", cfg.Detection)
	}
	if !cfg.Detection.AutoEject || cfg.Detection.OverwriteExisting {
		t.Fatalf("unexpected policy defaults: %+v", cfg.Detection)
	}
	if cfg.CheckInterval().Seconds() != 5 || cfg.RetryDelay().Seconds() != 10 {
		t.Fatalf("unexpected service timings: %+v", cfg.Service)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MKVAUTO_LIBRARY_DIR", "")
	t.Setenv("MKVAUTO_LOG_LEVEL", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
library_dir = "~/library"

[library]
tv_dir = "/srv/tv"

[detection]
min_movie_duration = 80
known_series = [" Grantchester ", ""]

[detection.forced_types]
"MISS MARPLE" = "TV"

[disc_db]
backend = "sqlite"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.LibraryDir != filepath.Join(tempHome, "library") {
		t.Fatalf("unexpected library dir %q", cfg.Paths.LibraryDir)
	}
	if cfg.TVPath() != "/srv/tv" {
		t.Fatalf("absolute tv_dir should be kept, got %q", cfg.TVPath())
	}
	if cfg.Detection.MinMovieDuration != 80 {
		t.Fatalf("expected min movie 80, got %d", cfg.Detection.MinMovieDuration)
	}
	if cfg.Detection.MinEpisodeDuration != 18 {
		t.Fatalf("unset keys should keep defaults, got %d", cfg.Detection.MinEpisodeDuration)
	}
	if got := cfg.Detection.ForcedTypes["MISS MARPLE"]; got != "tv" {
		t.Fatalf("expected forced type tv, got %q", got)
	}
	if len(cfg.Detection.KnownSeries) != 1 || cfg.Detection.KnownSeries[0] != "Grantchester" {
		t.Fatalf("unexpected known series %v", cfg.Detection.KnownSeries)
	}
	if !strings.HasSuffix(cfg.DiscDB.Path, "disc_db.sqlite") {
		t.Fatalf("expected sqlite default path, got %q", cfg.DiscDB.Path)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	lib := t.TempDir()
	t.Setenv("MKVAUTO_LIBRARY_DIR", lib)
	t.Setenv("MKVAUTO_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.LibraryDir != lib {
		t.Fatalf("expected env library dir, got %q", cfg.Paths.LibraryDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestValidateNamesOffendingKey(t *testing.T) {
	cases := []struct {
		mutate func(*config.Config)
		key    string
	}{
		{func(c *config.Config) { c.Detection.MinMovieDuration = 0 }, "detection.min_movie_duration"},
		{func(c *config.Config) { c.Detection.MaxEpisodeDuration = 10 }, "detection.max_episode_duration"},
		{func(c *config.Config) { c.Detection.ForcedTypes = map[string]string{"X": "documentary"} }, "detection.forced_types"},
		{func(c *config.Config) { c.DiscDB.Backend = "redis" }, "disc_db.backend"},
		{func(c *config.Config) { c.Service.RetryCount = 0 }, "service.retry_count"},
		{func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{func(c *config.Config) { c.Library.TVDir = c.Library.MoviesDir }, "library.tv_dir"},
	}
	for _, tc := range cases {
		cfg := config.Default()
		cfg.Paths.LibraryDir = "/srv/media"
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("expected validation error for %s", tc.key)
		}
		if !errors.Is(err, config.ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration, got %v", err)
		}
		if !strings.Contains(err.Error(), tc.key) {
			t.Fatalf("expected error to name %s, got %v", tc.key, err)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[detection]\nmin_movie_minutes = 80\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown key, got %v", err)
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !strings.Contains(string(data), "[detection]") {
		t.Fatalf("expected detection section in %s", data)
	}
}
