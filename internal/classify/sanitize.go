package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameBytes caps sanitized folder names.
const MaxNameBytes = 200

var (
	invalidChars = strings.NewReplacer(
		`\`, "-", "/", "-", ":", "-", "*", "-", "?", "-",
		`"`, "-", "<", "-", ">", "-", "|", "-", "_", " ",
	)
	dashRuns       = regexp.MustCompile(`-{2,}`)
	whitespaceRuns = regexp.MustCompile(`\s+`)

	seasonSuffix = regexp.MustCompile(`(?i)(?:^|[\s:.-]+)(?:season|temporada)\s*\d+.*$`)
	shortSeason  = regexp.MustCompile(`(?i)\s+s\d+.*$`)
	discSuffix   = regexp.MustCompile(`(?i)(?:^|[\s:.-]+)disc\s*\d+.*$`)
	volumeSuffix = regexp.MustCompile(`(?i)(?:^|[\s:.-]+)(?:part|volume|vol)\.?\s*\d+.*$`)
	yearSuffix   = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
)

// Sanitize turns a raw disc name into a folder name by removing season,
// disc, part and year markers. Sanitize(Sanitize(x)) == Sanitize(x).
// When stripping would leave nothing, the normalized name is kept.
func Sanitize(raw string) string {
	base := normalizeName(raw)
	current := base
	for {
		next := tidy(stripMarkers(current))
		if next == current {
			break
		}
		current = next
	}
	if current == "" {
		return base
	}
	return current
}

func stripMarkers(name string) string {
	name = seasonSuffix.ReplaceAllString(name, "")
	name = shortSeason.ReplaceAllString(name, "")
	name = discSuffix.ReplaceAllString(name, "")
	name = volumeSuffix.ReplaceAllString(name, "")
	name = yearSuffix.ReplaceAllString(name, "")
	return name
}

func normalizeName(raw string) string {
	name := invalidChars.Replace(raw)
	name = dashRuns.ReplaceAllString(name, "-")
	name = tidy(name)
	if len(name) > MaxNameBytes {
		cut := MaxNameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = tidy(name[:cut])
	}
	return name
}

func tidy(name string) string {
	name = whitespaceRuns.ReplaceAllString(name, " ")
	return strings.Trim(name, " -.")
}
