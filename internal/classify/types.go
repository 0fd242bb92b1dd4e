package classify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptor reports a descriptor with negative durations or sizes.
var ErrInvalidDescriptor = errors.New("invalid disc descriptor")

// ContentClass is the kind of content a disc holds.
type ContentClass string

const (
	Movie   ContentClass = "movie"
	TV      ContentClass = "tv"
	Unknown ContentClass = "unknown"
)

// Label returns the human form used in reasons and CLI output.
func (c ContentClass) Label() string {
	switch c {
	case Movie:
		return "Movie"
	case TV:
		return "TV show"
	default:
		return "Unknown"
	}
}

// ParseContentClass maps operator-facing spellings onto a class. Only movie
// and tv are accepted; unknown cannot be forced.
func ParseContentClass(value string) (ContentClass, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	switch normalized {
	case "movie", "film":
		return Movie, true
	case "tv", "tvshow", "series", "show":
		return TV, true
	default:
		return Unknown, false
	}
}

// Confidence is the qualitative strength attached to a verdict.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Weight returns the vote weight of the confidence band.
func (c Confidence) Weight() float64 {
	switch c {
	case High:
		return 2.0
	case Medium:
		return 1.0
	default:
		return 0.5
	}
}

// Title is one selectable track reported for a disc.
type Title struct {
	Index           int   `json:"index"`
	DurationSeconds int   `json:"duration_seconds"`
	SizeBytes       int64 `json:"size_bytes"`
}

// Minutes returns the whole minutes of the title, rounded down.
func (t Title) Minutes() int {
	return t.DurationSeconds / 60
}

// Descriptor is everything the engine knows about a disc.
type Descriptor struct {
	RawName  string  `json:"raw_name"`
	Identity string  `json:"identity,omitempty"`
	Titles   []Title `json:"titles"`
}

func (d Descriptor) validate() error {
	for _, t := range d.Titles {
		if t.DurationSeconds < 0 {
			return fmt.Errorf("%w: title %d has negative duration", ErrInvalidDescriptor, t.Index)
		}
		if t.SizeBytes < 0 {
			return fmt.Errorf("%w: title %d has negative size", ErrInvalidDescriptor, t.Index)
		}
	}
	return nil
}

// Verdict is the output of a single signal.
type Verdict struct {
	Class      ContentClass `json:"class"`
	Confidence Confidence   `json:"confidence"`
	Reason     string       `json:"reason"`
	Signal     string       `json:"signal"`
}

func unknown(signal, reason string) Verdict {
	return Verdict{Class: Unknown, Confidence: Low, Reason: reason, Signal: signal}
}

// Result is the final classification of a disc.
type Result struct {
	Class         ContentClass `json:"class"`
	Confidence    Confidence   `json:"confidence"`
	Reason        string       `json:"reason"`
	SuggestedName string       `json:"suggested_name,omitempty"`
	// Signal names the short-circuit that decided, or "vote".
	Signal   string    `json:"signal"`
	Verdicts []Verdict `json:"verdicts,omitempty"`
	// MainTitles are the titles that survived the minimum-length filter.
	MainTitles []Title `json:"main_titles,omitempty"`
}

// Thresholds holds the duration limits that drive the detectors.
type Thresholds struct {
	MinTitleSeconds   int
	MinMovieMinutes   int
	MinEpisodeMinutes int
	MaxEpisodeMinutes int
	TieBreakMinutes   int
}

// DefaultThresholds mirrors the shipped configuration defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTitleSeconds:   600,
		MinMovieMinutes:   75,
		MinEpisodeMinutes: 18,
		MaxEpisodeMinutes: 70,
		TieBreakMinutes:   90,
	}
}
