package preflight

import (
	"context"

	"mkvauto/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes every doctor check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckMakeMKV(ctx, cfg.MakeMKV.Binary),
		CheckBinary("FFprobe", cfg.MakeMKV.FFprobeBinary, true),
		CheckBinary("Eject", cfg.MakeMKV.EjectBinary, !cfg.Detection.AutoEject),
	}
	if cfg.MakeMKV.OpticalDrive != "" {
		results = append(results, CheckOpticalDrive(cfg.MakeMKV.OpticalDrive))
	}
	results = append(results,
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
		CheckDirectoryAccess("Movies directory", cfg.MoviesPath()),
		CheckDirectoryAccess("TV directory", cfg.TVPath()),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("Library free space", cfg.Paths.LibraryDir, MinFreeBytes),
	)
	return results
}

// Failures counts required checks that did not pass.
func Failures(results []Result) int {
	count := 0
	for _, r := range results {
		if !r.Passed && !r.Optional {
			count++
		}
	}
	return count
}
