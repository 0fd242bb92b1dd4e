package monitor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pilebones/go-udev/netlink"

	"mkvauto/internal/logging"
)

// netlinkListener forwards udev media-change events for one device.
type netlinkListener struct {
	device string
	logger *slog.Logger
	notify func(device string)
}

// start connects to the udev netlink socket. It returns false when the
// socket is unavailable; the caller then relies on polling.
func (l *netlinkListener) start(ctx context.Context) bool {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(l.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon may open netlink sockets"),
			logging.String(logging.FieldImpact, "disc detection relies on polling"),
		)
		return false
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, mediaMatcher())

	go func() {
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				close(quit)
				return
			case uevent := <-queue:
				l.handle(uevent)
			case err := <-errs:
				logging.WarnWithContext(l.logger, "netlink monitor error", "netlink_monitor_error",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
					logging.String(logging.FieldImpact, "disc detection may be delayed until the next poll"),
				)
			}
		}
	}()

	l.logger.Info("netlink monitor started",
		logging.String(logging.FieldEventType, "netlink_monitor_started"),
		logging.String(logging.FieldDevice, l.device),
	)
	return true
}

// mediaMatcher matches SUBSYSTEM=block, ID_CDROM=1, ID_CDROM_MEDIA=1 on
// change or add.
func mediaMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func (l *netlinkListener) handle(uevent netlink.UEvent) {
	devname := deviceName(uevent)
	if devname == "" || devname != l.device {
		l.logger.Debug("ignoring netlink event",
			logging.String("event_device", devname),
			logging.String("action", string(uevent.Action)),
		)
		return
	}
	l.logger.Info("disc media detected via netlink",
		logging.String(logging.FieldEventType, "netlink_disc_detected"),
		logging.String(logging.FieldDevice, devname),
		logging.String("action", string(uevent.Action)),
	)
	if l.notify != nil {
		l.notify(devname)
	}
}

// deviceName reads DEVNAME, falling back to the last DEVPATH segment.
func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			devname = "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
