package ripping

import (
	"strconv"
	"strings"
)

// Progress is one progress update from makemkvcon.
type Progress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// parseProgress reads `PRGV:current,total,max`. The total counter drives
// the percentage.
func parseProgress(line string) (Progress, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "PRGV:") {
		return Progress{}, false
	}
	parts := strings.Split(strings.TrimPrefix(line, "PRGV:"), ",")
	if len(parts) < 3 {
		return Progress{}, false
	}
	total, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Progress{}, false
	}
	maximum, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil || maximum <= 0 {
		return Progress{}, false
	}
	percent := total / maximum * 100
	if percent > 100 {
		percent = 100
	}
	return Progress{Stage: "Ripping", Percent: percent}, true
}

// parseStageName reads the operation name from `PRGT:` and `PRGC:` lines.
func parseStageName(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "PRGT:") && !strings.HasPrefix(line, "PRGC:") {
		return "", false
	}
	parts := strings.SplitN(line[5:], ",", 3)
	if len(parts) < 3 {
		return "", false
	}
	name := strings.Trim(strings.TrimSpace(parts[2]), `"`)
	return name, name != ""
}
