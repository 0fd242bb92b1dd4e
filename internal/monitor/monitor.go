package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mkvauto/internal/config"
	"mkvauto/internal/disc"
	"mkvauto/internal/logging"
	"mkvauto/internal/pipeline"
	"mkvauto/internal/ripping"
)

// LockFileName is created under paths.state_dir while a monitor runs.
const LockFileName = "mkvauto.lock"

// ErrAlreadyRunning is returned when another monitor holds the lock.
var ErrAlreadyRunning = errors.New("another mkvauto monitor is already running")

// Processor runs the disc pipeline for one event.
type Processor interface {
	Process(ctx context.Context, device string, progress func(ripping.Progress)) (pipeline.Outcome, error)
	Reload(cfg *config.Config)
}

// LockHolder reports the pid of a running monitor for stateDir. ok is
// false when no monitor holds the lock.
func LockHolder(stateDir string) (pid int, ok bool, err error) {
	lockPath := filepath.Join(stateDir, LockFileName)
	if _, statErr := os.Stat(lockPath); errors.Is(statErr, os.ErrNotExist) {
		return 0, false, nil
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return 0, false, err
	}
	if locked {
		return 0, false, lock.Unlock()
	}
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return 0, true, err
	}
	pid, _ = strconv.Atoi(strings.TrimSpace(string(data)))
	return pid, true, nil
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithPresence replaces the drive presence check.
func WithPresence(p Presence) Option {
	return func(m *Monitor) { m.presence = p }
}

// WithoutNetlink disables the udev listener so only polling is used.
func WithoutNetlink() Option {
	return func(m *Monitor) { m.netlink = false }
}

// WithConfigPath enables hot reload of the given config file.
func WithConfigPath(path string) Option {
	return func(m *Monitor) { m.configPath = path }
}

// Monitor watches one optical drive and feeds insertions to a Processor.
type Monitor struct {
	cfg        *config.Config
	configPath string
	engine     Processor
	presence   Presence
	netlink    bool
	logger     *slog.Logger
	device     string

	// inserted is only touched on the loop goroutine.
	inserted bool
	events   chan string
	reloads  chan *config.Config
}

// New builds a monitor. The default presence check uses the drive ioctl with
// a makemkvcon drive listing as fallback.
func New(cfg *config.Config, engine Processor, logger *slog.Logger, opts ...Option) (*Monitor, error) {
	if cfg == nil {
		return nil, errors.New("monitor requires configuration")
	}
	if engine == nil {
		return nil, errors.New("monitor requires a pipeline")
	}
	m := &Monitor{
		cfg:     cfg,
		engine:  engine,
		netlink: true,
		logger:  logging.NewComponentLogger(logger, "monitor"),
		device:  cfg.MakeMKV.OpticalDrive,
		events:  make(chan string, 1),
		reloads: make(chan *config.Config, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.presence == nil {
		scanner := disc.NewScanner(cfg.MakeMKV.Binary,
			disc.WithTimeout(cfg.InfoTimeout()),
			disc.WithLogger(logger),
		)
		m.presence = trayPresence{fallback: scanner}
	}
	return m, nil
}

// Run blocks until ctx is cancelled. It returns ErrAlreadyRunning when the
// state directory lock is held elsewhere.
func (m *Monitor) Run(ctx context.Context) error {
	lockPath := filepath.Join(m.cfg.Paths.StateDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire monitor lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, lockPath)
	}
	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		m.logger.Debug("failed to record pid in lock file", logging.Error(err))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release monitor lock", logging.Error(err))
		}
	}()

	m.logger.Info("monitor started",
		logging.String(logging.FieldEventType, "monitor_started"),
		logging.String(logging.FieldDevice, m.device),
		logging.Duration("check_interval", m.cfg.CheckInterval()),
	)

	if m.netlink {
		listener := &netlinkListener{device: m.device, logger: m.logger, notify: m.notify}
		listener.start(ctx)
	}
	if m.configPath != "" {
		if err := watchConfig(ctx, m.configPath, m.logger, m.reloads); err != nil {
			logging.WarnWithContext(m.logger, "config watch unavailable", "config_watch_failed",
				logging.Error(err),
				logging.String("config_path", m.configPath),
				logging.String(logging.FieldImpact, "config changes need a restart"),
			)
		}
	}

	interval := pollInterval(m.cfg)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped", logging.String(logging.FieldEventType, "monitor_stopped"))
			return nil
		case <-ticker.C:
			m.check(ctx, "poll")
		case <-m.events:
			m.check(ctx, "netlink")
		case cfg := <-m.reloads:
			m.apply(cfg)
			if next := pollInterval(cfg); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func pollInterval(cfg *config.Config) time.Duration {
	if d := cfg.CheckInterval(); d > 0 {
		return d
	}
	return 5 * time.Second
}

// notify coalesces netlink events; one pending event is enough.
func (m *Monitor) notify(string) {
	select {
	case m.events <- m.device:
	default:
	}
}

func (m *Monitor) apply(cfg *config.Config) {
	if cfg.MakeMKV.OpticalDrive != m.device {
		logging.WarnWithContext(m.logger, "optical drive change ignored until restart", "config_reload_partial",
			logging.String("configured_device", cfg.MakeMKV.OpticalDrive),
			logging.String(logging.FieldDevice, m.device),
		)
	}
	m.cfg = cfg
	m.engine.Reload(cfg)
}

// check tracks tray transitions. A disc is processed once per insertion;
// it becomes eligible again only after the drive reports empty.
func (m *Monitor) check(ctx context.Context, source string) {
	present, err := m.presence.Present(ctx, m.device)
	if err != nil {
		m.logger.Debug("presence check failed", logging.String("source", source), logging.Error(err))
		return
	}
	if !present {
		if m.inserted {
			m.logger.Info("disc removed",
				logging.String(logging.FieldEventType, "disc_removed"),
				logging.String(logging.FieldDevice, m.device),
			)
			m.inserted = false
		}
		return
	}
	if m.inserted {
		return
	}
	m.inserted = true
	m.handle(ctx, source)
	m.drain()
}

// drain discards udev events raised while the pipeline held the drive.
func (m *Monitor) drain() {
	for {
		select {
		case <-m.events:
		default:
			return
		}
	}
}

func (m *Monitor) handle(ctx context.Context, source string) {
	ctx = logging.WithSessionID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldDevice, m.device))
	logger.Info("disc inserted",
		logging.String(logging.FieldEventType, "disc_inserted"),
		logging.String("source", source),
	)

	if settle := m.cfg.SettleDelay(); settle > 0 {
		timer := time.NewTimer(settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	started := time.Now()
	outcome, err := m.engine.Process(ctx, m.device, progressLogger(logger))
	switch {
	case errors.Is(err, disc.ErrNoDisc):
		logger.Info("drive reported no disc after insertion", logging.String(logging.FieldEventType, "disc_not_ready"))
		m.inserted = false
		return
	case err != nil:
		logging.ErrorWithContext(logger, "disc processing failed", "disc_processing_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove and reinsert the disc to retry"),
		)
		return
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "disc_processed"),
		logging.String("output_path", outcome.Plan.Decision.Path),
		logging.Bool("skipped", outcome.Skipped),
		logging.Bool("ejected", outcome.Ejected),
		logging.Duration("elapsed", time.Since(started).Round(time.Second)),
	}
	if !outcome.Skipped {
		attrs = append(attrs,
			logging.Int("files", outcome.Summary.Files),
			logging.String("size", humanize.IBytes(uint64(max(outcome.Summary.TotalBytes, 0)))),
		)
	}
	logger.Info("disc processed", logging.Args(attrs...)...)
}

// progressLogger logs each stage once per 25% step.
func progressLogger(logger *slog.Logger) func(ripping.Progress) {
	var sampler progressSampler
	return func(p ripping.Progress) {
		if !sampler.due(p) {
			return
		}
		logger.Info("rip progress",
			logging.String(logging.FieldEventType, "rip_progress"),
			logging.String("stage", p.Stage),
			logging.Float64("percent", p.Percent),
		)
	}
}

type progressSampler struct {
	stage string
	next  float64
}

func (s *progressSampler) due(p ripping.Progress) bool {
	if p.Stage != s.stage {
		s.stage = p.Stage
		s.next = 0
	}
	if p.Percent < s.next {
		return false
	}
	for s.next <= p.Percent {
		s.next += 25
	}
	return true
}
