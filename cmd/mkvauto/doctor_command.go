package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkvauto/internal/monitor"
	"mkvauto/internal/preflight"
)

type doctorReport struct {
	Checks     []preflight.Result `json:"checks"`
	Failures   int                `json:"failures"`
	MonitorPID int                `json:"monitor_pid,omitempty"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, the drive, and library directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := doctorReport{Checks: preflight.RunAll(cmd.Context(), cfg)}
			report.Failures = preflight.Failures(report.Checks)
			pid, running, lockErr := monitor.LockHolder(cfg.Paths.StateDir)

			if ctx.jsonOutput() {
				if running {
					report.MonitorPID = pid
				}
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(report.Checks)+1)
				for _, check := range report.Checks {
					rows = append(rows, []string{check.Name, renderStatus(checkKind(check), colorize), check.Detail})
				}
				switch {
				case lockErr != nil:
					rows = append(rows, []string{"Monitor", renderStatus(statusWarn, colorize), lockErr.Error()})
				case running:
					rows = append(rows, []string{"Monitor", renderStatus(statusInfo, colorize), fmt.Sprintf("running (pid %d)", pid)})
				default:
					rows = append(rows, []string{"Monitor", renderStatus(statusInfo, colorize), "not running"})
				}
				fmt.Fprintln(out, renderTable("Health Check", []string{"Check", "Status", "Detail"}, rows, nil))
				if report.Failures == 0 {
					fmt.Fprintln(out, "All required checks passed")
				} else {
					fmt.Fprintf(out, "%d required check(s) failed\n", report.Failures)
				}
			}
			if report.Failures > 0 {
				return errChecksFailed
			}
			return nil
		},
	}
}

func checkKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
