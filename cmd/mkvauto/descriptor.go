package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"mkvauto/internal/classify"
)

// syntheticFlags describe a disc without a drive.
type syntheticFlags struct {
	titles string
	sizes  string
	name   string
	id     string
}

func (f syntheticFlags) enabled() bool {
	return strings.TrimSpace(f.titles) != ""
}

// descriptor parses --titles as minutes and --sizes as human byte counts.
func (f syntheticFlags) descriptor() (classify.Descriptor, error) {
	minutes := splitList(f.titles)
	sizes := splitList(f.sizes)
	if len(sizes) > 0 && len(sizes) != len(minutes) {
		return classify.Descriptor{}, fmt.Errorf("--sizes has %d entries, --titles has %d", len(sizes), len(minutes))
	}
	d := classify.Descriptor{
		RawName:  strings.TrimSpace(f.name),
		Identity: strings.TrimSpace(f.id),
		Titles:   make([]classify.Title, 0, len(minutes)),
	}
	for i, raw := range minutes {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return classify.Descriptor{}, fmt.Errorf("title %d: invalid minutes %q", i, raw)
		}
		title := classify.Title{Index: i, DurationSeconds: int(math.Round(value * 60))}
		if len(sizes) > 0 {
			bytes, err := humanize.ParseBytes(sizes[i])
			if err != nil {
				return classify.Descriptor{}, fmt.Errorf("title %d: invalid size %q", i, sizes[i])
			}
			title.SizeBytes = int64(bytes)
		}
		d.Titles = append(d.Titles, title)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(bytes))
}
