package monitor

import (
	"context"

	"mkvauto/internal/disc"
)

// Presence reports whether a disc is loaded.
type Presence interface {
	Present(ctx context.Context, device string) (bool, error)
}

// trayPresence asks the drive via ioctl and falls back to the makemkvcon
// drive listing when the ioctl is unavailable.
type trayPresence struct {
	fallback Presence
}

func (p trayPresence) Present(ctx context.Context, device string) (bool, error) {
	if path := disc.ExtractDevicePath(device); path != "" {
		if status, err := disc.CheckDriveStatus(path); err == nil {
			return status == disc.DriveStatusDiscOK, nil
		}
	}
	if p.fallback == nil {
		return false, nil
	}
	return p.fallback.Present(ctx, device)
}
