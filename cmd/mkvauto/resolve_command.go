package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkvauto/internal/output"
	"mkvauto/internal/pipeline"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var synthetic syntheticFlags

	cmd := &cobra.Command{
		Use:   "resolve [device]",
		Short: "Show where a disc would be ripped without ripping it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *pipeline.Engine) error {
				var (
					plan pipeline.Plan
					err  error
				)
				if synthetic.enabled() {
					d, derr := synthetic.descriptor()
					if derr != nil {
						return derr
					}
					plan, err = engine.PlanDescriptor(cmd.Context(), d)
				} else {
					plan, err = engine.Plan(cmd.Context(), deviceArg(args))
				}
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, plan)
				}
				printPlan(cmd, plan)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&synthetic.titles, "titles", "", "Comma-separated title lengths in minutes (skips the drive)")
	cmd.Flags().StringVar(&synthetic.sizes, "sizes", "", "Comma-separated title sizes, e.g. 4.5GB")
	cmd.Flags().StringVar(&synthetic.name, "name", "", "Disc name for --titles")
	cmd.Flags().StringVar(&synthetic.id, "id", "", "Disc identity for --titles")
	return cmd
}

func printPlan(cmd *cobra.Command, plan pipeline.Plan) {
	out := cmd.OutOrStdout()
	if plan.Device != "" {
		fmt.Fprintf(out, "Device:         %s\n", plan.Device)
	}
	fmt.Fprintf(out, "Classification: %s (%s confidence)\n", plan.Result.Class.Label(), plan.Result.Confidence)
	fmt.Fprintf(out, "Library root:   %s\n", plan.LibraryRoot)

	d := plan.Decision
	switch d.Action {
	case output.ActionSkipDuplicate:
		fmt.Fprintf(out, "Decision:       skip (already ripped to %s)\n", d.Path)
	default:
		fmt.Fprintf(out, "Decision:       rip to %s\n", d.Path)
	}
	fmt.Fprintf(out, "State:          %s\n", d.State)
	fmt.Fprintf(out, "Reason:         %s\n", d.Reason)
	if d.Overflow {
		fmt.Fprintf(out, "Warning:        numbering exhausted after %d probes; base folder reused\n", output.MaxProbe)
	}
}
