package pipeline

import (
	"log/slog"
	"strings"

	"mkvauto/internal/classify"
	"mkvauto/internal/config"
	"mkvauto/internal/logging"
)

// Thresholds maps the detection section onto classifier thresholds.
func Thresholds(cfg *config.Config) classify.Thresholds {
	d := cfg.Detection
	return classify.Thresholds{
		MinTitleSeconds:   d.MinTitleSeconds,
		MinMovieMinutes:   d.MinMovieDuration,
		MinEpisodeMinutes: d.MinEpisodeDuration,
		MaxEpisodeMinutes: d.MaxEpisodeDuration,
		TieBreakMinutes:   d.TieBreakDuration,
	}
}

// NewClassifier builds a classifier from cfg. Override values that do not
// name a content class are logged and ignored.
func NewClassifier(cfg *config.Config, logger *slog.Logger) *classify.Classifier {
	overrides, invalid := classify.NewOverrides(cfg.Detection.ForcedTypes)
	for _, name := range invalid {
		logging.WarnWithContext(logger, "ignoring forced type", "forced_type_invalid",
			logging.String(logging.FieldDiscName, name),
			logging.String("value", cfg.Detection.ForcedTypes[name]),
			logging.String(logging.FieldErrorHint, "use movie or tv in detection.forced_types"),
			logging.String(logging.FieldImpact, "disc is classified by heuristics"),
		)
	}
	series := classify.NewRegistry(classify.DefaultKnownSeries, cfg.Detection.KnownSeries)
	return classify.New(Thresholds(cfg), overrides, series, logger)
}

// LibraryRoot picks the movies or TV root for a content class.
func LibraryRoot(cfg *config.Config, class classify.ContentClass) string {
	if class == classify.TV {
		return cfg.TVPath()
	}
	return cfg.MoviesPath()
}

func discLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Unknown disc"
	}
	return name
}
