package ripping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"mkvauto/internal/disc"
	"mkvauto/internal/logging"
)

// ErrRipFailed wraps every failed rip.
var ErrRipFailed = errors.New("rip failed")

// Option configures the ripper.
type Option func(*Ripper)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Ripper) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger sets the ripper logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ripper) {
		r.logger = logging.NewComponentLogger(logger, "ripper")
	}
}

// Ripper wraps `makemkvcon mkv`.
type Ripper struct {
	binary  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// New constructs a Ripper. A zero timeout leaves rips unbounded.
func New(binary string, timeout time.Duration, opts ...Option) (*Ripper, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("makemkv binary required")
	}
	r := &Ripper{
		binary:  binary,
		timeout: timeout,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rip writes every title of at least minLength seconds from device into
// outputDir. progress may be nil.
func (r *Ripper) Rip(ctx context.Context, device, outputDir string, minLength int, progress func(Progress)) (Summary, error) {
	if strings.TrimSpace(outputDir) == "" {
		return Summary{}, fmt.Errorf("%w: output directory required", ErrRipFailed)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("%w: create output directory: %w", ErrRipFailed, err)
	}
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldDevice, device),
		logging.String("output_dir", outputDir),
	)

	ripCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if r.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ripCtx, cancelTimeout = context.WithTimeout(ripCtx, r.timeout)
		defer cancelTimeout()
	}

	handler := &msgHandler{logger: logger, abort: cancel}
	stage := "Ripping"
	args := ripArgs(device, outputDir, minLength)
	logger.Info("rip started", logging.Int("min_length", minLength))
	started := time.Now()

	runErr := r.exec.Run(ripCtx, r.binary, args, func(line string) {
		if name, ok := parseStageName(line); ok {
			stage = name
			return
		}
		if update, ok := parseProgress(line); ok {
			if progress != nil {
				update.Stage = stage
				progress(update)
			}
			return
		}
		handler.handleLine(line)
	})

	if err := handler.outcome(); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrRipFailed, err)
	}

	summary, sumErr := Summarize(outputDir)
	if sumErr != nil {
		return Summary{}, fmt.Errorf("%w: inspect output: %w", ErrRipFailed, sumErr)
	}

	if runErr != nil {
		if !handler.evaluation || summary.Files == 0 {
			if cause := context.Cause(ripCtx); cause != nil && !errors.Is(cause, context.Canceled) {
				runErr = fmt.Errorf("%w (%v)", runErr, cause)
			}
			detail := handler.lastMessage
			if detail != "" {
				return Summary{}, fmt.Errorf("%w: %s: %w", ErrRipFailed, detail, runErr)
			}
			return Summary{}, fmt.Errorf("%w: %w", ErrRipFailed, runErr)
		}
		logging.WarnWithContext(logger, "makemkv exited with an error in evaluation mode", "makemkv_evaluation_exit",
			logging.Error(runErr),
			logging.Int("file_count", summary.Files),
			logging.String(logging.FieldErrorHint, "register a MakeMKV key"),
			logging.String(logging.FieldImpact, "rip kept; verify the output files"),
		)
	}
	if summary.Files == 0 {
		return Summary{}, fmt.Errorf("%w: makemkv produced no output file; check disc for read errors", ErrRipFailed)
	}

	logger.Info("rip completed",
		logging.Int("file_count", summary.Files),
		logging.Int64("total_bytes", summary.TotalBytes),
		logging.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

func ripArgs(device, outputDir string, minLength int) []string {
	args := []string{"-r", "--progress=-same"}
	if minLength > 0 {
		args = append(args, "--minlength="+strconv.Itoa(minLength))
	}
	return append(args, "mkv", disc.NormalizeDeviceArg(device), "all", outputDir)
}
