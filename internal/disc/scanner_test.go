package disc_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mkvauto/internal/disc"
)

const sampleInfo = `MSG:1005,0,1,"MakeMKV v1.17.7 linux(x64-release) started","%1 started","MakeMKV v1.17.7 linux(x64-release)"
DRV:0,2,999,1,"BD-RE HL-DT-ST BD-RE  WH16NS60","SHERLOCK_S1","/dev/sr0"
DRV:1,256,999,0,"","",""
CINFO:1,6209,"Blu-ray disc"
CINFO:2,0,"Sherlock Season 1"
CINFO:30,0,"SHERLOCK_S1"
CINFO:32,0,"0123456789ABCDEF0123456789ABCDEF"
TINFO:0,2,0,"Sherlock Season 1"
TINFO:0,8,0,"12"
TINFO:0,9,0,"1:28:03"
TINFO:0,10,0,"19.7 GB"
TINFO:0,11,0,"21172207616"
TINFO:1,9,0,"1:29:54"
TINFO:1,10,0,"20 GB"
TINFO:2,9,0,"0:02:10"
`

type stubExec struct {
	output []byte
	err    error
}

func (s stubExec) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	return s.output, s.err
}

type captureExec struct {
	output []byte
	calls  [][]string
}

func (c *captureExec) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	c.calls = append(c.calls, append([]string(nil), args...))
	return c.output, nil
}

// flakyExec fails until the configured attempt succeeds.
type flakyExec struct {
	failures int
	calls    int
	output   []byte
}

func (f *flakyExec) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("drive busy")
	}
	return f.output, nil
}

func TestScannerParsesInfo(t *testing.T) {
	scanner := disc.NewScannerWithExecutor("makemkvcon", stubExec{output: []byte(sampleInfo)})
	result, err := scanner.Scan(context.Background(), "/dev/sr0")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.DiscName != "Sherlock Season 1" {
		t.Fatalf("DiscName = %q", result.DiscName)
	}
	if result.Identity != "0123456789ABCDEF0123456789ABCDEF" {
		t.Fatalf("Identity = %q", result.Identity)
	}
	if len(result.Titles) != 3 {
		t.Fatalf("expected 3 titles, got %#v", result.Titles)
	}
	first := result.Titles[0]
	if first.DurationSeconds != 5283 || first.SizeBytes != 21172207616 || first.Chapters != 12 {
		t.Fatalf("unexpected first title: %#v", first)
	}
	if result.Titles[1].SizeBytes != 20000000000 {
		t.Fatalf("human size fallback = %d", result.Titles[1].SizeBytes)
	}
	if len(result.Drives) != 2 || !result.Drives[0].HasDisc() || result.Drives[1].HasDisc() {
		t.Fatalf("unexpected drives: %#v", result.Drives)
	}

	d := result.Descriptor()
	if d.RawName != result.DiscName || d.Identity != result.Identity || len(d.Titles) != 3 {
		t.Fatalf("unexpected descriptor: %#v", d)
	}
	if d.Titles[2].DurationSeconds != 130 {
		t.Fatalf("unexpected descriptor title: %#v", d.Titles[2])
	}
}

func TestScannerFallsBackToVolumeName(t *testing.T) {
	output := `CINFO:30,0,"HEAT_1995"
TINFO:0,9,0,"2:50:00"
`
	scanner := disc.NewScannerWithExecutor("makemkvcon", stubExec{output: []byte(output)})
	result, err := scanner.Scan(context.Background(), "/dev/sr0")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.DiscName != "HEAT_1995" {
		t.Fatalf("DiscName = %q", result.DiscName)
	}
	if result.Identity != "" {
		t.Fatalf("expected no identity, got %q", result.Identity)
	}
}

func TestScannerDefaultsUnknownName(t *testing.T) {
	output := "TINFO:0,9,0,\"1:40:00\"\n"
	scanner := disc.NewScannerWithExecutor("makemkvcon", stubExec{output: []byte(output)})
	result, err := scanner.Scan(context.Background(), "disc:0")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.DiscName != disc.UnknownDiscName {
		t.Fatalf("DiscName = %q", result.DiscName)
	}
}

func TestScannerReportsNoDisc(t *testing.T) {
	output := `DRV:0,0,999,0,"BD-RE","","/dev/sr0"
`
	exec := &flakyExec{output: []byte(output)}
	scanner := disc.NewScannerWithExecutor("makemkvcon", exec, disc.WithRetry(3, 0))
	_, err := scanner.Scan(context.Background(), "/dev/sr0")
	if !errors.Is(err, disc.ErrNoDisc) {
		t.Fatalf("expected ErrNoDisc, got %v", err)
	}
	if exec.calls != 1 {
		t.Fatalf("empty drive should not be retried, got %d calls", exec.calls)
	}
}

func TestScannerRetriesTransientFailures(t *testing.T) {
	exec := &flakyExec{failures: 2, output: []byte(sampleInfo)}
	scanner := disc.NewScannerWithExecutor("makemkvcon", exec, disc.WithRetry(3, time.Millisecond))
	result, err := scanner.Scan(context.Background(), "/dev/sr0")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if exec.calls != 3 || result.DiscName == "" {
		t.Fatalf("expected success on third call, got %d calls", exec.calls)
	}
}

func TestScannerGivesUpAfterAttempts(t *testing.T) {
	exec := &flakyExec{failures: 5, output: []byte(sampleInfo)}
	scanner := disc.NewScannerWithExecutor("makemkvcon", exec, disc.WithRetry(2, 0))
	_, err := scanner.Scan(context.Background(), "/dev/sr0")
	if !errors.Is(err, disc.ErrScanFailed) {
		t.Fatalf("expected ErrScanFailed, got %v", err)
	}
	if exec.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", exec.calls)
	}
}

func TestScannerNeedsBinary(t *testing.T) {
	scanner := disc.NewScannerWithExecutor("", stubExec{})
	if _, err := scanner.Scan(context.Background(), "disc:0"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestScannerNormalizesDevicePath(t *testing.T) {
	capture := &captureExec{output: []byte(sampleInfo)}
	scanner := disc.NewScannerWithExecutor("makemkvcon", capture)
	if _, err := scanner.Scan(context.Background(), "/dev/sr0"); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	want := []string{"-r", "--cache=1", "info", "dev:/dev/sr0"}
	if len(capture.calls) != 1 || strings.Join(capture.calls[0], " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected args: %#v", capture.calls)
	}
}

type failingExitError struct {
	code   int
	stderr []byte
}

func (f failingExitError) Error() string  { return "makemkv failed" }
func (f failingExitError) ExitCode() int  { return f.code }
func (f failingExitError) Stderr() []byte { return f.stderr }

func TestScannerIncludesMakemkvDetailsOnFailure(t *testing.T) {
	stdout := []byte("MSG:5010,0,1,\"MakeMKV failed to open disc\"")
	err := failingExitError{code: 10, stderr: []byte("additional context")}
	scanner := disc.NewScannerWithExecutor("makemkvcon", stubExec{output: stdout, err: err})
	_, scanErr := scanner.Scan(context.Background(), "disc:0")
	if scanErr == nil {
		t.Fatalf("expected error")
	}
	msg := scanErr.Error()
	if !strings.Contains(msg, "exit status 10") {
		t.Fatalf("expected exit status in message, got %q", msg)
	}
	if !strings.Contains(msg, "MakeMKV failed to open disc") {
		t.Fatalf("expected parsed MakeMKV message, got %q", msg)
	}
}

func TestScannerPresent(t *testing.T) {
	tests := []struct {
		name   string
		output string
		device string
		want   bool
	}{
		{"loaded", sampleInfo, "/dev/sr0", true},
		{"other device", sampleInfo, "/dev/sr1", false},
		{"empty tray", `DRV:0,0,999,0,"BD-RE","","/dev/sr0"`, "/dev/sr0", false},
		{"any drive", sampleInfo, "disc:0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := &captureExec{output: []byte(tt.output)}
			scanner := disc.NewScannerWithExecutor("makemkvcon", capture)
			got, err := scanner.Present(context.Background(), tt.device)
			if err != nil {
				t.Fatalf("Present: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Present = %v, want %v", got, tt.want)
			}
			if capture.calls[0][3] != "disc:9999" {
				t.Fatalf("Present should only list drives, args %v", capture.calls[0])
			}
		})
	}
}

func TestNormalizeDeviceArg(t *testing.T) {
	tests := map[string]string{
		"":             "disc:0",
		"/dev/sr0":     "dev:/dev/sr0",
		"dev:/dev/sr1": "dev:/dev/sr1",
		"disc:2":       "disc:2",
	}
	for input, want := range tests {
		if got := disc.NormalizeDeviceArg(input); got != want {
			t.Errorf("NormalizeDeviceArg(%q) = %q, want %q", input, got, want)
		}
	}
}
