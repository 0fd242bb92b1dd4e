package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mkvauto/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.DiscDB.Path = filepath.Join(base, "state", "disc_db.json")
	cfgVal.Service.RetryDelay = 0
	cfgVal.Service.SettleDelay = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOpticalDrive overrides the optical drive path on the test config.
func WithOpticalDrive(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MakeMKV.OpticalDrive = path
	}
}

// WithForcedType pins a disc name to a content class.
func WithForcedType(name, class string) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Detection.ForcedTypes == nil {
			b.cfg.Detection.ForcedTypes = map[string]string{}
		}
		b.cfg.Detection.ForcedTypes[name] = class
	}
}

// WithSQLiteDiscDB switches the disc database to the sqlite backend.
func WithSQLiteDiscDB() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.DiscDB.Backend = "sqlite"
		b.cfg.DiscDB.Path = filepath.Join(b.baseDir, "state", "disc_db.sqlite")
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"makemkvcon", "ffprobe", "eject"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LibraryDir)
}
