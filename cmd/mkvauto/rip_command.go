package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvauto/internal/pipeline"
	"mkvauto/internal/ripping"
)

func newRipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rip [device]",
		Short: "Scan, classify, and rip the loaded disc once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *pipeline.Engine) error {
				var progress func(ripping.Progress)
				if !ctx.jsonOutput() {
					progress = progressPrinter(cmd.ErrOrStderr())
				}
				outcome, err := engine.Process(cmd.Context(), deviceArg(args), progress)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, outcome)
				}
				out := cmd.OutOrStdout()
				if outcome.Skipped {
					fmt.Fprintf(out, "Already ripped: %s\n", outcome.Plan.Decision.Path)
				} else {
					fmt.Fprintf(out, "Ripped %d file(s), %s, to %s\n",
						outcome.Summary.Files,
						humanize.Bytes(uint64(max(outcome.Summary.TotalBytes, 0))),
						outcome.Plan.Decision.Path,
					)
				}
				if outcome.Ejected {
					fmt.Fprintln(out, "Disc ejected")
				}
				return nil
			})
		},
	}
}

// progressPrinter reports whole-percent changes per stage.
func progressPrinter(w io.Writer) func(ripping.Progress) {
	stage := ""
	last := -1
	return func(p ripping.Progress) {
		pct := int(p.Percent)
		if p.Stage == stage && pct == last {
			return
		}
		stage, last = p.Stage, pct
		fmt.Fprintf(w, "\r%-40.40s %3d%%", p.Stage, pct)
		if pct >= 100 {
			fmt.Fprintln(w)
		}
	}
}
