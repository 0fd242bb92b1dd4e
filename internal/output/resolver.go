package output

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"mkvauto/internal/classify"
	"mkvauto/internal/discdb"
	"mkvauto/internal/logging"
)

// MaxProbe is the highest disc or variant number tried before falling back
// to the base folder.
const MaxProbe = 20

const (
	maxTitleCountDiff  = 1
	maxDurationDiffPct = 5.0
	fallbackName       = "Unknown Disc"
)

// Action tells the caller what to do with the disc.
type Action string

const (
	ActionUsePath       Action = "use_path"
	ActionSkipDuplicate Action = "skip_duplicate"
)

// State records which resolution rule applied.
type State string

const (
	StateFresh         State = "fresh"
	StateDuplicateByID State = "duplicate_by_id"
	StateTVNextDisc    State = "tv_next_disc"
	StateMovieVariant  State = "movie_variant"
)

// IdentityLookup finds previously ripped discs.
type IdentityLookup interface {
	Get(discID string) (discdb.Record, bool)
}

// Request is the input to Resolve.
type Request struct {
	Result   classify.Result
	Identity string
	// BaseDir is the library root selected for the content class.
	BaseDir string
	// Name is the sanitized folder name; Result.SuggestedName is used when empty.
	Name string
	// Titles are the main titles about to be ripped.
	Titles []classify.Title
}

// Decision is the resolved output location.
type Decision struct {
	Action   Action `json:"action"`
	State    State  `json:"state"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
	Overflow bool   `json:"overflow,omitempty"`
}

// Resolver applies the output rules against a filesystem.
type Resolver struct {
	FS                afero.Fs
	Store             IdentityLookup
	Prober            DurationProber
	GiBPerHour        float64
	OverwriteExisting bool
	Logger            *slog.Logger
}

// NewResolver returns a resolver over the OS filesystem.
func NewResolver(store IdentityLookup, prober DurationProber, gibPerHour float64, overwrite bool, logger *slog.Logger) *Resolver {
	return &Resolver{
		FS:                afero.NewOsFs(),
		Store:             store,
		Prober:            prober,
		GiBPerHour:        gibPerHour,
		OverwriteExisting: overwrite,
		Logger:            logging.NewComponentLogger(logger, "output"),
	}
}

// Resolve returns the decision for req. Errors are limited to filesystem
// failures while inspecting the library; naming collisions never fail.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Decision, error) {
	logger := logging.WithContext(ctx, r.logger())
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.Result.SuggestedName)
	}
	if name == "" {
		name = fallbackName
	}
	base := filepath.Join(req.BaseDir, name)

	decision, err := r.resolve(ctx, logger, req, base)
	if err != nil {
		return Decision{}, err
	}
	attrs := logging.DecisionAttrs("output_path", string(decision.Action), decision.Reason)
	attrs = append(attrs,
		logging.String("state", string(decision.State)),
		logging.String("path", decision.Path),
	)
	logger.Info("output resolved", logging.Args(attrs...)...)
	return decision, nil
}

func (r *Resolver) resolve(ctx context.Context, logger *slog.Logger, req Request, base string) (Decision, error) {
	free, err := r.available(base)
	if err != nil {
		return Decision{}, err
	}
	if free || r.OverwriteExisting {
		reason := "output folder is free"
		if !free {
			reason = "overwriting existing output folder"
		}
		return Decision{Action: ActionUsePath, State: StateFresh, Path: base, Reason: reason}, nil
	}

	if id := strings.TrimSpace(req.Identity); id != "" && r.Store != nil {
		if record, ok := r.Store.Get(id); ok {
			path := record.OutputPath
			if strings.TrimSpace(path) == "" {
				path = base
			}
			return Decision{
				Action: ActionSkipDuplicate,
				State:  StateDuplicateByID,
				Path:   path,
				Reason: fmt.Sprintf("disc %s was already ripped", id),
			}, nil
		}
	}

	if req.Result.Class == classify.TV {
		path, overflow, err := r.probe(base, func(n int) string { return fmt.Sprintf("%s Disc %d", base, n) })
		if err != nil {
			return Decision{}, err
		}
		decision := Decision{Action: ActionUsePath, State: StateTVNextDisc, Path: path, Overflow: overflow,
			Reason: fmt.Sprintf("numbered as next disc of the set: %s", filepath.Base(path))}
		if overflow {
			decision.Reason = fmt.Sprintf("no free disc number up to %d; using base folder", MaxProbe)
			r.warnOverflow(logger, base)
		}
		return decision, nil
	}

	existing, err := FolderStats(ctx, r.FS, base, r.Prober, r.GiBPerHour)
	if err != nil {
		return Decision{}, err
	}
	incoming := titleSeconds(req.Titles)
	if sameMovie(existing, len(req.Titles), incoming) {
		return Decision{
			Action: ActionSkipDuplicate,
			State:  StateMovieVariant,
			Path:   base,
			Reason: fmt.Sprintf("existing rip matches (%d files, %.0f min)", existing.Files, existing.Seconds/60),
		}, nil
	}
	path, overflow, err := r.probe(base, func(n int) string { return fmt.Sprintf("%s (%d)", base, n) })
	if err != nil {
		return Decision{}, err
	}
	decision := Decision{Action: ActionUsePath, State: StateMovieVariant, Path: path, Overflow: overflow,
		Reason: fmt.Sprintf("different version of an existing title: %s", filepath.Base(path))}
	if overflow {
		decision.Reason = fmt.Sprintf("no free variant number up to %d; using base folder", MaxProbe)
		r.warnOverflow(logger, base)
	}
	return decision, nil
}

// probe returns the first free candidate numbered 2..MaxProbe, or base with
// overflow set.
func (r *Resolver) probe(base string, candidate func(n int) string) (string, bool, error) {
	for n := 2; n <= MaxProbe; n++ {
		path := candidate(n)
		free, err := r.available(path)
		if err != nil {
			return "", false, err
		}
		if free {
			return path, false, nil
		}
	}
	return base, true, nil
}

// available reports whether path is absent or an empty directory.
func (r *Resolver) available(path string) (bool, error) {
	info, err := r.FS.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("inspect %s: %w", path, err)
	}
	if !info.IsDir() {
		return false, nil
	}
	empty, err := afero.IsEmpty(r.FS, path)
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", path, err)
	}
	return empty, nil
}

func (r *Resolver) warnOverflow(logger *slog.Logger, base string) {
	logging.WarnWithContext(logger, "output numbering exhausted", "numbering_overflow",
		logging.String("base_path", base),
		logging.Int("max_probe", MaxProbe),
		logging.String(logging.FieldErrorHint, "tidy up numbered folders in the library"),
		logging.String(logging.FieldImpact, "rip written into the existing base folder"),
	)
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

func titleSeconds(titles []classify.Title) float64 {
	var total float64
	for _, t := range titles {
		total += float64(t.DurationSeconds)
	}
	return total
}

func sameMovie(existing Stats, titleCount int, incomingSeconds float64) bool {
	countDiff := existing.Files - titleCount
	if countDiff < 0 {
		countDiff = -countDiff
	}
	if countDiff > maxTitleCountDiff {
		return false
	}
	return durationDiffPct(existing.Seconds, incomingSeconds) < maxDurationDiffPct
}

func durationDiffPct(existing, incoming float64) float64 {
	return math.Abs(existing-incoming) / math.Max(incoming, 1) * 100
}
