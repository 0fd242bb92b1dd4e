package disc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Ejector defines disc eject operations.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

type commandEjector struct {
	binary string
}

// NewEjector creates an ejector that shells out to binary (default "eject").
func NewEjector(binary string) Ejector {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "eject"
	}
	return commandEjector{binary: binary}
}

func (e commandEjector) Eject(ctx context.Context, device string) error {
	var args []string
	if path := ExtractDevicePath(device); path != "" {
		args = append(args, path)
	}
	cmd := exec.CommandContext(ctx, e.binary, args...) //nolint:gosec
	if out, err := cmd.CombinedOutput(); err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("eject %s: %s: %w", device, msg, err)
		}
		return fmt.Errorf("eject %s: %w", device, err)
	}
	return nil
}
