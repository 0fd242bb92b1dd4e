package main

import (
	"github.com/spf13/cobra"

	"mkvauto/internal/daemonrun"
)

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch the drive and rip every inserted disc (foreground)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := daemonrun.Options{
				LogLevel:        ctx.logLevel(),
				PipelineOptions: ctx.pipelineOptions,
			}
			if ctx.configSeen {
				opts.ConfigPath = ctx.configPath
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
}
