package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"mkvauto/internal/config"
	"mkvauto/internal/disc"
	"mkvauto/internal/logging"
	"mkvauto/internal/pipeline"
	"mkvauto/internal/ripping"
	"mkvauto/internal/testsupport"
)

type scriptedPresence struct {
	mu     sync.Mutex
	states []bool
}

// Present replays states and repeats the last one.
func (p *scriptedPresence) Present(context.Context, string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return false, nil
	}
	state := p.states[0]
	if len(p.states) > 1 {
		p.states = p.states[1:]
	}
	return state, nil
}

type fakeProcessor struct {
	mu       sync.Mutex
	calls    int
	sessions []string
	err      error
	reloaded []*config.Config
	done     chan struct{}
}

func (f *fakeProcessor) Process(ctx context.Context, device string, progress func(ripping.Progress)) (pipeline.Outcome, error) {
	f.mu.Lock()
	f.calls++
	id, _ := logging.SessionIDFromContext(ctx)
	f.sessions = append(f.sessions, id)
	f.mu.Unlock()
	if progress != nil {
		progress(ripping.Progress{Stage: "Saving to MKV file", Percent: 50})
	}
	if f.done != nil {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}
	return pipeline.Outcome{}, f.err
}

func (f *fakeProcessor) Reload(cfg *config.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloaded = append(f.reloaded, cfg)
}

func newTestMonitor(t *testing.T, presence Presence, proc *fakeProcessor) *Monitor {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithOpticalDrive("/dev/sr0"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	m, err := New(cfg, proc, logging.NewNop(), WithPresence(presence), WithoutNetlink())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestCheckProcessesOncePerInsertion(t *testing.T) {
	presence := &scriptedPresence{states: []bool{true, true, true, false, true}}
	proc := &fakeProcessor{}
	m := newTestMonitor(t, presence, proc)

	for i := 0; i < 5; i++ {
		m.check(context.Background(), "poll")
	}
	if proc.calls != 2 {
		t.Fatalf("expected 2 pipeline runs, got %d", proc.calls)
	}
	if proc.sessions[0] == "" || proc.sessions[0] == proc.sessions[1] {
		t.Fatalf("expected distinct session ids, got %v", proc.sessions)
	}
}

func TestCheckRetriesWhenDriveNotReady(t *testing.T) {
	presence := &scriptedPresence{states: []bool{true}}
	proc := &fakeProcessor{err: disc.ErrNoDisc}
	m := newTestMonitor(t, presence, proc)

	m.check(context.Background(), "poll")
	m.check(context.Background(), "poll")
	if proc.calls != 2 {
		t.Fatalf("expected a retry after ErrNoDisc, got %d calls", proc.calls)
	}
	if m.inserted {
		t.Fatal("inserted should be cleared after ErrNoDisc")
	}
}

func TestCheckKeepsFailedDiscUntilRemoved(t *testing.T) {
	presence := &scriptedPresence{states: []bool{true}}
	proc := &fakeProcessor{err: errors.New("rip failed")}
	m := newTestMonitor(t, presence, proc)

	m.check(context.Background(), "poll")
	m.check(context.Background(), "poll")
	if proc.calls != 1 {
		t.Fatalf("failed disc should not be retried while loaded, got %d calls", proc.calls)
	}
}

func TestCheckDrainsPendingEvents(t *testing.T) {
	presence := &scriptedPresence{states: []bool{true}}
	proc := &fakeProcessor{}
	m := newTestMonitor(t, presence, proc)

	m.notify("/dev/sr0")
	m.check(context.Background(), "netlink")
	select {
	case <-m.events:
		t.Fatal("expected events to be drained")
	default:
	}
}

func TestApplyReloadsEngine(t *testing.T) {
	proc := &fakeProcessor{}
	m := newTestMonitor(t, &scriptedPresence{}, proc)

	next := *m.cfg
	next.Detection.KnownSeries = []string{"bluey"}
	m.apply(&next)
	if len(proc.reloaded) != 1 || proc.reloaded[0] != &next {
		t.Fatalf("expected engine reload, got %v", proc.reloaded)
	}
	if m.cfg != &next {
		t.Fatal("monitor should keep the reloaded config")
	}
}

func TestRunProcessesAtStartup(t *testing.T) {
	presence := &scriptedPresence{states: []bool{true}}
	proc := &fakeProcessor{done: make(chan struct{}, 1)}
	m := newTestMonitor(t, presence, proc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	select {
	case <-proc.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline was not invoked")
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.cfg.Paths.StateDir, LockFileName)); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
}

func TestRunRejectsSecondInstance(t *testing.T) {
	m := newTestMonitor(t, &scriptedPresence{}, &fakeProcessor{})
	held := flock.New(filepath.Join(m.cfg.Paths.StateDir, LockFileName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	err = m.Run(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "mkvauto.toml")
	if err := os.WriteFile(path, []byte("[service]\ncheck_interval = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan *config.Config, 1)
	if err := watchConfig(ctx, path, logging.NewNop(), out); err != nil {
		t.Fatalf("watchConfig: %v", err)
	}
	if err := os.WriteFile(path, []byte("[service]\ncheck_interval = 9\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-out:
		if cfg.Service.CheckInterval != 9 {
			t.Fatalf("check_interval = %d", cfg.Service.CheckInterval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config reload not observed")
	}
}

func TestProgressSamplerSteps(t *testing.T) {
	var sampler progressSampler
	var logged []float64
	for _, p := range []ripping.Progress{
		{Stage: "copy", Percent: 0},
		{Stage: "copy", Percent: 5},
		{Stage: "copy", Percent: 26},
		{Stage: "copy", Percent: 30},
		{Stage: "copy", Percent: 99},
		{Stage: "copy", Percent: 100},
		{Stage: "verify", Percent: 10},
	} {
		if sampler.due(p) {
			logged = append(logged, p.Percent)
		}
	}
	want := []float64{0, 26, 99, 100, 10}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
}

func TestLockHolder(t *testing.T) {
	dir := t.TempDir()
	if _, ok, err := LockHolder(dir); ok || err != nil {
		t.Fatalf("expected no holder, got ok=%v err=%v", ok, err)
	}

	path := filepath.Join(dir, LockFileName)
	held := flock.New(path)
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pid, ok, err := LockHolder(dir)
	if err != nil || !ok || pid != 4242 {
		t.Fatalf("LockHolder = %d %v %v", pid, ok, err)
	}
}
