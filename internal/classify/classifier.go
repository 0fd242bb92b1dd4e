package classify

import (
	"log/slog"

	"mkvauto/internal/logging"
)

// Classifier runs the short-circuit strategies and the voting detectors.
type Classifier struct {
	Thresholds    Thresholds
	ShortCircuits []ShortCircuit
	Detectors     []Detector
	Logger        *slog.Logger
}

// New builds a classifier with the standard strategy order: manual
// overrides, the known-series registry, then multi-disc markers.
func New(th Thresholds, overrides *Overrides, series *Registry, logger *slog.Logger) *Classifier {
	if series == nil {
		series = NewRegistry(DefaultKnownSeries)
	}
	short := make([]ShortCircuit, 0, 3)
	if overrides != nil {
		short = append(short, overrides)
	}
	short = append(short, series, MultiDisc{})
	return &Classifier{
		Thresholds:    th,
		ShortCircuits: short,
		Detectors:     DefaultDetectors(),
		Logger:        logging.NewComponentLogger(logger, "classify"),
	}
}

// Classify returns the classification for d. Only malformed descriptors
// produce an error.
func (c *Classifier) Classify(d Descriptor) (Result, error) {
	if err := d.validate(); err != nil {
		return Result{}, err
	}
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	suggested := Sanitize(d.RawName)
	titles := MainTitles(d.Titles, c.Thresholds.MinTitleSeconds)

	for _, sc := range c.ShortCircuits {
		verdict, ok := sc.Evaluate(d)
		if !ok {
			continue
		}
		result := Result{
			Class:         verdict.Class,
			Confidence:    verdict.Confidence,
			Reason:        verdict.Reason,
			SuggestedName: suggested,
			Signal:        sc.Name(),
			Verdicts:      []Verdict{verdict},
			MainTitles:    titles,
		}
		c.logResult(logger, d, result)
		return result, nil
	}

	if len(titles) == 0 {
		result := Result{
			Class:         Unknown,
			Confidence:    Low,
			Reason:        "no main content: every title is shorter than the minimum length",
			SuggestedName: suggested,
			Signal:        "title_filter",
		}
		c.logResult(logger, d, result)
		return result, nil
	}

	verdicts := make([]Verdict, 0, len(c.Detectors))
	for _, detect := range c.Detectors {
		v := detect(titles, d, c.Thresholds)
		logger.Debug("detector verdict",
			logging.String("signal", v.Signal),
			logging.String("class", string(v.Class)),
			logging.String("confidence", string(v.Confidence)),
			logging.String("reason", v.Reason),
		)
		verdicts = append(verdicts, v)
	}
	result := Combine(verdicts, titles, c.Thresholds)
	result.SuggestedName = suggested
	c.logResult(logger, d, result)
	return result, nil
}

func (c *Classifier) logResult(logger *slog.Logger, d Descriptor, result Result) {
	attrs := logging.DecisionAttrs("classification", string(result.Class), result.Reason)
	attrs = append(attrs,
		logging.String("disc_name", d.RawName),
		logging.String("confidence", string(result.Confidence)),
		logging.String("signal", result.Signal),
		logging.Int("main_titles", len(result.MainTitles)),
	)
	logger.Info("disc classified", logging.Args(attrs...)...)
}
