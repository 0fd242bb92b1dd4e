package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mkvauto/internal/classify"
	"mkvauto/internal/config"
	"mkvauto/internal/disc"
	"mkvauto/internal/discdb"
	"mkvauto/internal/logging"
	"mkvauto/internal/media/ffprobe"
	"mkvauto/internal/output"
	"mkvauto/internal/ripping"
)

// Scanner reads disc metadata.
type Scanner interface {
	Scan(ctx context.Context, device string) (*disc.ScanResult, error)
}

// Ripper writes a disc's titles into a folder.
type Ripper interface {
	Rip(ctx context.Context, device, outputDir string, minLength int, progress func(ripping.Progress)) (ripping.Summary, error)
}

// Plan is the decision for one disc before anything is written.
type Plan struct {
	Device      string              `json:"device,omitempty"`
	Scan        *disc.ScanResult    `json:"scan,omitempty"`
	Descriptor  classify.Descriptor `json:"-"`
	Result      classify.Result     `json:"classification"`
	LibraryRoot string              `json:"library_root"`
	Decision    output.Decision     `json:"decision"`
}

// Outcome reports what Process did.
type Outcome struct {
	Plan    Plan            `json:"plan"`
	Skipped bool            `json:"skipped"`
	Summary ripping.Summary `json:"summary"`
	Ejected bool            `json:"ejected"`
}

// Engine runs the disc pipeline. It is safe to Reload while another
// goroutine calls Process; Process calls themselves must be serialised by
// the caller.
type Engine struct {
	mu         sync.RWMutex
	cfg        *config.Config
	classifier *classify.Classifier
	resolver   *output.Resolver

	scanner Scanner
	ripper  Ripper
	ejector disc.Ejector
	store   discdb.Store
	base    *slog.Logger
	logger  *slog.Logger
}

// Option overrides an Engine collaborator.
type Option func(*Engine)

// WithScanner replaces the makemkvcon scanner.
func WithScanner(s Scanner) Option { return func(e *Engine) { e.scanner = s } }

// WithRipper replaces the makemkvcon ripper.
func WithRipper(r Ripper) Option { return func(e *Engine) { e.ripper = r } }

// WithEjector replaces the eject command.
func WithEjector(ej disc.Ejector) Option { return func(e *Engine) { e.ejector = ej } }

// WithResolver replaces the output resolver.
func WithResolver(r *output.Resolver) Option { return func(e *Engine) { e.resolver = r } }

// New builds an Engine from cfg. store is owned by the caller.
func New(cfg *config.Config, store discdb.Store, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("disc db is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		cfg:        cfg,
		classifier: NewClassifier(cfg, logger),
		store:      store,
		base:       logger,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = newResolver(cfg, store, logger)
	}
	if e.scanner == nil {
		e.scanner = disc.NewScanner(cfg.MakeMKV.Binary,
			disc.WithTimeout(cfg.InfoTimeout()),
			disc.WithRetry(cfg.Service.RetryCount, cfg.RetryDelay()),
			disc.WithLogger(logger),
		)
	}
	if e.ripper == nil {
		ripper, err := ripping.New(cfg.MakeMKV.Binary, cfg.RipTimeout(), ripping.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		e.ripper = ripper
	}
	if e.ejector == nil {
		e.ejector = disc.NewEjector(cfg.MakeMKV.EjectBinary)
	}
	return e, nil
}

func newResolver(cfg *config.Config, store discdb.Store, logger *slog.Logger) *output.Resolver {
	var prober output.DurationProber
	if cfg.MakeMKV.FFprobeBinary != "" {
		prober = ffprobe.NewProber(cfg.MakeMKV.FFprobeBinary)
	}
	return output.NewResolver(store, prober, cfg.Detection.FallbackGiBPerHour, cfg.Detection.OverwriteExisting, logger)
}

// Reload swaps in a new configuration for classification and output
// policy. Device and binary settings keep their startup values.
func (e *Engine) Reload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	classifier := NewClassifier(cfg, e.base)
	e.mu.Lock()
	defer e.mu.Unlock()
	resolver := *e.resolver
	resolver.OverwriteExisting = cfg.Detection.OverwriteExisting
	resolver.GiBPerHour = cfg.Detection.FallbackGiBPerHour
	e.cfg = cfg
	e.classifier = classifier
	e.resolver = &resolver
	e.logger.Info("configuration reloaded",
		logging.Int("forced_types", len(cfg.Detection.ForcedTypes)),
		logging.Int("known_series", len(cfg.Detection.KnownSeries)),
	)
}

func (e *Engine) snapshot() (*config.Config, *classify.Classifier) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg, e.classifier
}

func (e *Engine) currentResolver() *output.Resolver {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resolver
}

// Config returns the active configuration.
func (e *Engine) Config() *config.Config {
	cfg, _ := e.snapshot()
	return cfg
}

// Classify runs the classifier with the active configuration.
func (e *Engine) Classify(d classify.Descriptor) (classify.Result, error) {
	_, classifier := e.snapshot()
	return classifier.Classify(d)
}

// Scan reads the disc in device.
func (e *Engine) Scan(ctx context.Context, device string) (*disc.ScanResult, error) {
	return e.scanner.Scan(ctx, e.device(device))
}

// Plan scans, classifies, and resolves the disc in device.
func (e *Engine) Plan(ctx context.Context, device string) (Plan, error) {
	device = e.device(device)
	scan, err := e.scanner.Scan(ctx, device)
	if err != nil {
		return Plan{}, err
	}
	plan, err := e.PlanDescriptor(ctx, scan.Descriptor())
	if err != nil {
		return Plan{}, err
	}
	plan.Device = device
	plan.Scan = scan
	return plan, nil
}

// PlanDescriptor classifies and resolves an already-scanned disc.
func (e *Engine) PlanDescriptor(ctx context.Context, d classify.Descriptor) (Plan, error) {
	cfg, classifier := e.snapshot()
	result, err := classifier.Classify(d)
	if err != nil {
		return Plan{}, err
	}
	root := LibraryRoot(cfg, result.Class)
	decision, err := e.currentResolver().Resolve(ctx, output.Request{
		Result:   result,
		Identity: d.Identity,
		BaseDir:  root,
		Name:     result.SuggestedName,
		Titles:   result.MainTitles,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("resolve output: %w", err)
	}
	return Plan{Descriptor: d, Result: result, LibraryRoot: root, Decision: decision}, nil
}

// Process handles one disc event end to end.
func (e *Engine) Process(ctx context.Context, device string, progress func(ripping.Progress)) (Outcome, error) {
	cfg, _ := e.snapshot()
	plan, err := e.Plan(ctx, device)
	if err != nil {
		return Outcome{}, err
	}
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldDevice, plan.Device),
		logging.String(logging.FieldDiscName, plan.Descriptor.RawName),
	)
	outcome := Outcome{Plan: plan}

	if plan.Decision.Action == output.ActionSkipDuplicate {
		outcome.Skipped = true
		logger.Info("disc already ripped",
			logging.String("existing_path", plan.Decision.Path),
			logging.String("reason", plan.Decision.Reason),
		)
		outcome.Ejected = e.eject(ctx, logger, cfg, plan.Device)
		return outcome, nil
	}

	summary, err := e.ripper.Rip(ctx, plan.Device, plan.Decision.Path, cfg.MakeMKV.MinLength, progress)
	if err != nil {
		logging.ErrorWithContext(logger, "rip failed", "rip_failed",
			logging.Error(err),
			logging.String("output_path", plan.Decision.Path),
			logging.String(logging.FieldErrorHint, "check the disc and the makemkvcon output above"),
		)
		return outcome, err
	}
	outcome.Summary = summary
	e.record(logger, plan)
	outcome.Ejected = e.eject(ctx, logger, cfg, plan.Device)
	return outcome, nil
}

func (e *Engine) record(logger *slog.Logger, plan Plan) {
	if plan.Descriptor.Identity == "" {
		logging.WarnWithContext(logger, "disc has no identity", "disc_id_missing",
			logging.String(logging.FieldErrorHint, "duplicates of this disc are detected by runtime only"),
			logging.String(logging.FieldImpact, "disc not tracked in the disc database"),
		)
		return
	}
	record := discdb.Record{
		DiscID:       plan.Descriptor.Identity,
		Name:         discLabel(plan.Descriptor.RawName),
		OutputPath:   plan.Decision.Path,
		ContentClass: string(plan.Result.Class),
	}
	if err := e.store.Add(record); err != nil {
		logging.WarnWithContext(logger, "failed to record disc", "discdb_add_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the disc db path permissions"),
			logging.String(logging.FieldImpact, "disc may be ripped again on reinsertion"),
		)
	}
}

func (e *Engine) eject(ctx context.Context, logger *slog.Logger, cfg *config.Config, device string) bool {
	if !cfg.Detection.AutoEject || e.ejector == nil {
		return false
	}
	if err := e.ejector.Eject(ctx, device); err != nil {
		logging.WarnWithContext(logger, "eject failed", "eject_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "eject the disc manually"),
			logging.String(logging.FieldImpact, "next disc waits until the tray is emptied"),
		)
		return false
	}
	return true
}

func (e *Engine) device(device string) string {
	if device != "" {
		return device
	}
	cfg, _ := e.snapshot()
	return cfg.MakeMKV.OpticalDrive
}
