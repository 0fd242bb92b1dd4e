package disc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"mkvauto/internal/classify"
	"mkvauto/internal/logging"
)

var (
	// ErrNoDisc reports an empty drive.
	ErrNoDisc = errors.New("no disc in drive")
	// ErrScanFailed wraps makemkvcon info failures.
	ErrScanFailed = errors.New("disc scan failed")
)

// driveListTarget makes makemkvcon enumerate drives without opening a disc.
const driveListTarget = "disc:9999"

// Title represents a MakeMKV title entry.
type Title struct {
	Index           int    `json:"index"`
	Name            string `json:"name,omitempty"`
	Chapters        int    `json:"chapters,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	SizeBytes       int64  `json:"size_bytes"`
}

// Drive is one DRV line.
type Drive struct {
	Index     int    `json:"index"`
	DriveName string `json:"drive_name"`
	DiscName  string `json:"disc_name"`
	Device    string `json:"device"`
}

// HasDisc reports whether the drive holds readable media.
func (d Drive) HasDisc() bool {
	return strings.TrimSpace(d.DiscName) != ""
}

// ScanResult captures the parts of makemkvcon info output used downstream.
type ScanResult struct {
	DiscName  string   `json:"disc_name"`
	Identity  string   `json:"disc_id,omitempty"`
	Titles    []Title  `json:"titles"`
	Drives    []Drive  `json:"drives,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	RawOutput string   `json:"-"`
}

// Descriptor converts the scan into classifier input.
func (r *ScanResult) Descriptor() classify.Descriptor {
	d := classify.Descriptor{RawName: r.DiscName, Identity: r.Identity}
	d.Titles = make([]classify.Title, 0, len(r.Titles))
	for _, t := range r.Titles {
		d.Titles = append(d.Titles, classify.Title{
			Index:           t.Index,
			DurationSeconds: t.DurationSeconds,
			SizeBytes:       t.SizeBytes,
		})
	}
	return d
}

// Executor abstracts command execution for the scanner.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.Output()
}

// Scanner wraps MakeMKV info commands to gather disc metadata.
type Scanner struct {
	binary   string
	exec     Executor
	timeout  time.Duration
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

// ScannerOption customises a Scanner.
type ScannerOption func(*Scanner)

// WithTimeout bounds each makemkvcon invocation.
func WithTimeout(d time.Duration) ScannerOption {
	return func(s *Scanner) { s.timeout = d }
}

// WithRetry retries failed scans. attempts counts the first try.
func WithRetry(attempts int, delay time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.attempts = attempts
		s.delay = delay
	}
}

// WithLogger sets the scanner logger.
func WithLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) { s.logger = logging.NewComponentLogger(logger, "disc") }
}

// NewScanner constructs a Scanner for the provided MakeMKV binary.
func NewScanner(binary string, opts ...ScannerOption) *Scanner {
	return NewScannerWithExecutor(binary, commandExecutor{}, opts...)
}

// NewScannerWithExecutor allows injecting a custom executor for testing.
func NewScannerWithExecutor(binary string, exec Executor, opts ...ScannerOption) *Scanner {
	if exec == nil {
		exec = commandExecutor{}
	}
	s := &Scanner{
		binary:   strings.TrimSpace(binary),
		exec:     exec,
		attempts: 1,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.attempts < 1 {
		s.attempts = 1
	}
	return s
}

// Scan reads disc metadata from device, retrying transient failures.
// An empty drive returns ErrNoDisc without retrying.
func (s *Scanner) Scan(ctx context.Context, device string) (*ScanResult, error) {
	if s.binary == "" {
		return nil, errors.New("makemkv binary not configured")
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldDevice, device))

	var result *ScanResult
	err := retry.Do(
		func() error {
			scanned, err := s.scanOnce(ctx, device)
			if err != nil {
				if errors.Is(err, ErrNoDisc) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = scanned
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.attempts)),
		retry.Delay(s.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.WarnWithContext(logger, "disc scan failed; retrying", "disc_scan_retry",
				logging.Int("attempt", int(n)+1),
				logging.Int("max_attempts", s.attempts),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "clean the disc or check the drive"),
				logging.String(logging.FieldImpact, "scan delayed"),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	logger.Info("disc scanned",
		logging.String(logging.FieldDiscName, result.DiscName),
		logging.String(logging.FieldDiscID, result.Identity),
		logging.Int("title_count", len(result.Titles)),
	)
	for _, warning := range result.Warnings {
		logging.WarnWithContext(logger, "makemkv reported a read problem", "disc_read_warning",
			logging.String("detail", warning),
			logging.String(logging.FieldErrorHint, "inspect the disc surface"),
			logging.String(logging.FieldImpact, "some titles may rip with errors"),
		)
	}
	return result, nil
}

func (s *Scanner) scanOnce(ctx context.Context, device string) (*ScanResult, error) {
	output, err := s.run(ctx, []string{"-r", "--cache=1", "info", NormalizeDeviceArg(device)})
	if err != nil {
		return nil, err
	}
	result, err := parseInfo(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}
	if len(result.Titles) == 0 && !anyDisc(result.Drives) {
		return nil, fmt.Errorf("%w: %s", ErrNoDisc, device)
	}
	result.Warnings = ExtractWarnings(output)
	result.RawOutput = string(output)
	return result, nil
}

// Present reports whether the drive at device holds a disc, using the
// drive listing so no disc is opened.
func (s *Scanner) Present(ctx context.Context, device string) (bool, error) {
	if s.binary == "" {
		return false, errors.New("makemkv binary not configured")
	}
	output, err := s.run(ctx, []string{"-r", "--cache=1", "info", driveListTarget})
	if err != nil && len(output) == 0 {
		return false, err
	}
	result, parseErr := parseInfo(output)
	if parseErr != nil {
		return false, nil
	}
	path := ExtractDevicePath(device)
	for _, drive := range result.Drives {
		if path != "" && drive.Device != path {
			continue
		}
		if drive.HasDisc() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Scanner) run(ctx context.Context, args []string) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	output, err := s.exec.Run(ctx, s.binary, args)
	if err == nil {
		return output, nil
	}
	type exitCoder interface{ ExitCode() int }
	var exitErr exitCoder
	if errors.As(err, &exitErr) {
		if clean := ErrorMessage(output, commandStderr(err)); clean != "" {
			return output, fmt.Errorf("%w: makemkv info exit status %d: %s: %w", ErrScanFailed, exitErr.ExitCode(), clean, err)
		}
		return output, fmt.Errorf("%w: makemkv info exit status %d: %w", ErrScanFailed, exitErr.ExitCode(), err)
	}
	return output, fmt.Errorf("%w: %w", ErrScanFailed, err)
}

func anyDisc(drives []Drive) bool {
	for _, d := range drives {
		if d.HasDisc() {
			return true
		}
	}
	return false
}

func commandStderr(err error) []byte {
	type stderrProvider interface {
		Stderr() []byte
	}
	var provider stderrProvider
	if errors.As(err, &provider) {
		return provider.Stderr()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Stderr
	}
	return nil
}

// NormalizeDeviceArg turns a device path into a makemkvcon source argument.
func NormalizeDeviceArg(device string) string {
	trimmed := strings.TrimSpace(device)
	if trimmed == "" {
		return "disc:0"
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "disc:") || strings.HasPrefix(lower, "dev:") {
		return trimmed
	}
	if strings.HasPrefix(lower, "/dev/") {
		return "dev:" + trimmed
	}
	return trimmed
}

// ExtractDevicePath returns the raw /dev path from a device string.
// "disc:N" sources have no path and yield "".
func ExtractDevicePath(device string) string {
	trimmed := strings.TrimSpace(device)
	switch {
	case strings.HasPrefix(trimmed, "dev:"):
		return strings.TrimPrefix(trimmed, "dev:")
	case strings.HasPrefix(trimmed, "disc:"):
		return ""
	default:
		return trimmed
	}
}
