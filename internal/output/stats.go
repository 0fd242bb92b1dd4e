package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const bytesPerGiB = 1024 * 1024 * 1024

// DurationProber reports the runtime of a media file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Stats summarises the rips already in a folder.
type Stats struct {
	Files   int
	Seconds float64
}

// FolderStats counts the .mkv files directly inside dir and sums their
// runtimes. Files the prober cannot read are estimated from their size at
// gibPerHour. A missing dir or a non-directory at dir holds no rips.
func FolderStats(ctx context.Context, fs afero.Fs, dir string, prober DurationProber, gibPerHour float64) (Stats, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, nil
		}
		return Stats{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Stats{}, nil
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, nil
		}
		return Stats{}, fmt.Errorf("list %s: %w", dir, err)
	}
	if gibPerHour <= 0 {
		gibPerHour = 1
	}
	var stats Stats
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mkv") {
			continue
		}
		stats.Files++
		path := filepath.Join(dir, entry.Name())
		if prober != nil {
			if seconds, err := prober.Duration(ctx, path); err == nil && seconds > 0 {
				stats.Seconds += seconds
				continue
			}
		}
		stats.Seconds += EstimateSeconds(entry.Size(), gibPerHour)
	}
	return stats, nil
}

// EstimateSeconds converts a file size into a runtime at gibPerHour.
func EstimateSeconds(size int64, gibPerHour float64) float64 {
	if size <= 0 || gibPerHour <= 0 {
		return 0
	}
	return float64(size) / bytesPerGiB / gibPerHour * 3600
}
