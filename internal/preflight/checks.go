package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"mkvauto/internal/disc"
)

// MinFreeBytes is roughly one dual-layer Blu-ray rip.
const MinFreeBytes = 50 * humanize.GByte

const versionTimeout = 10 * time.Second

// CheckBinary reports whether cmd resolves on PATH.
func CheckBinary(name, cmd string, optional bool) Result {
	result := Result{Name: name, Optional: optional}
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		result.Detail = "command not configured"
		return result
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", cmd)
		return result
	}
	result.Passed = true
	result.Detail = path
	return result
}

// CheckMakeMKV resolves makemkvcon and reads its version banner from a
// drive listing.
func CheckMakeMKV(ctx context.Context, binary string) Result {
	result := CheckBinary("MakeMKV", binary, false)
	if !result.Passed {
		return result
	}
	path := result.Detail

	probeCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, _ := exec.CommandContext(probeCtx, path, "-r", "info", "disc:9999").Output()
	if version := makemkvVersion(out); version != "" {
		result.Detail = fmt.Sprintf("%s (%s)", path, version)
	}
	return result
}

func makemkvVersion(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		msg, ok := disc.ParseMessage(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if msg.Code == 1005 && len(msg.Params) > 0 {
			return msg.Params[0]
		}
		if strings.Contains(msg.Text, "MakeMKV") {
			return strings.TrimSuffix(msg.Text, " started")
		}
	}
	return ""
}

// CheckOpticalDrive verifies the device node exists and is readable.
func CheckOpticalDrive(device string) Result {
	const name = "Optical drive"
	path := disc.ExtractDevicePath(device)
	if path == "" {
		return Result{Name: name, Passed: true, Optional: true, Detail: device + " (resolved by makemkvcon)"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.Mode()&os.ModeDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a device node)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	status, err := disc.CheckDriveStatus(path)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: path}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, status)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports available bytes on the filesystem holding path.
// Missing directories are measured at their nearest existing parent.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	target := existingAncestor(path)
	if target == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(target, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", target, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.Bytes(free), target)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, humanize.Bytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

func existingAncestor(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	path = filepath.Clean(path)
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
