package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrConfiguration marks validation failures.
var ErrConfiguration = errors.New("invalid configuration")

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	StateDir   string `toml:"state_dir"`
}

// Library contains the movie and TV roots. Relative values are resolved
// against paths.library_dir.
type Library struct {
	MoviesDir string `toml:"movies_dir"`
	TVDir     string `toml:"tv_dir"`
}

// MakeMKV contains configuration for disc scanning and ripping.
type MakeMKV struct {
	Binary        string `toml:"makemkvcon_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	EjectBinary   string `toml:"eject_binary"`
	OpticalDrive  string `toml:"optical_drive"`
	InfoTimeout   int    `toml:"info_timeout"`
	RipTimeout    int    `toml:"rip_timeout"`
	MinLength     int    `toml:"min_length"`
}

// Detection contains the classification thresholds and output policy.
type Detection struct {
	MinEpisodeDuration int               `toml:"min_episode_duration"`
	MaxEpisodeDuration int               `toml:"max_episode_duration"`
	MinMovieDuration   int               `toml:"min_movie_duration"`
	TieBreakDuration   int               `toml:"tie_break_duration"`
	MinTitleSeconds    int               `toml:"min_title_seconds"`
	OverwriteExisting  bool              `toml:"overwrite_existing"`
	AutoEject          bool              `toml:"auto_eject"`
	FallbackGiBPerHour float64           `toml:"fallback_gib_per_hour"`
	ForcedTypes        map[string]string `toml:"forced_types"`
	KnownSeries        []string          `toml:"known_series"`
}

// DiscDB selects the disc identity store.
type DiscDB struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// Service contains monitor timing.
type Service struct {
	CheckInterval int `toml:"check_interval"`
	RetryCount    int `toml:"retry_count"`
	RetryDelay    int `toml:"retry_delay"`
	SettleDelay   int `toml:"settle_delay"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mkvauto.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Library   Library   `toml:"library"`
	MakeMKV   MakeMKV   `toml:"makemkv"`
	Detection Detection `toml:"detection"`
	DiscDB    DiscDB    `toml:"disc_db"`
	Service   Service   `toml:"service"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. The bool reports whether a file was
// found; a missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("%w: %s", ErrConfiguration, strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. Library roots
// are created on a best-effort basis so the monitor can start while
// external storage is offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.MoviesPath(), c.TVPath()} {
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

// MoviesPath returns the absolute movie library root.
func (c *Config) MoviesPath() string {
	return c.libraryPath(c.Library.MoviesDir)
}

// TVPath returns the absolute TV library root.
func (c *Config) TVPath() string {
	return c.libraryPath(c.Library.TVDir)
}

func (c *Config) libraryPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Paths.LibraryDir, dir)
}

// InfoTimeout returns the disc scan timeout as a duration.
func (c *Config) InfoTimeout() time.Duration {
	return time.Duration(c.MakeMKV.InfoTimeout) * time.Second
}

// RipTimeout returns the rip timeout; zero disables it.
func (c *Config) RipTimeout() time.Duration {
	return time.Duration(c.MakeMKV.RipTimeout) * time.Second
}

// CheckInterval returns the monitor poll interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Service.CheckInterval) * time.Second
}

// RetryDelay returns the pause between scan attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Service.RetryDelay) * time.Second
}

// SettleDelay returns how long to wait after insertion before scanning.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Service.SettleDelay) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
