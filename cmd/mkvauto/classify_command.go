package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mkvauto/internal/classify"
	"mkvauto/internal/config"
	"mkvauto/internal/pipeline"
)

type titleReport struct {
	Index           int           `json:"index"`
	DurationSeconds int           `json:"duration_seconds"`
	SizeBytes       int64         `json:"size_bytes"`
	Kind            classify.Kind `json:"kind"`
	Main            bool          `json:"main"`
}

type classifyReport struct {
	Device     string              `json:"device,omitempty"`
	Descriptor classify.Descriptor `json:"descriptor"`
	Result     classify.Result     `json:"result"`
	Titles     []titleReport       `json:"titles"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var synthetic syntheticFlags

	cmd := &cobra.Command{
		Use:   "classify [device]",
		Short: "Scan a disc and explain its movie or TV classification",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *pipeline.Engine) error {
				report := classifyReport{}
				if synthetic.enabled() {
					d, err := synthetic.descriptor()
					if err != nil {
						return err
					}
					report.Descriptor = d
				} else {
					scan, err := engine.Scan(cmd.Context(), deviceArg(args))
					if err != nil {
						return err
					}
					report.Device = deviceArg(args)
					report.Descriptor = scan.Descriptor()
				}
				result, err := engine.Classify(report.Descriptor)
				if err != nil {
					return err
				}
				report.Result = result
				report.Titles = titleReports(engine.Config(), report.Descriptor, result)

				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				printClassification(cmd, report)
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

func deviceArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

func titleReports(cfg *config.Config, d classify.Descriptor, result classify.Result) []titleReport {
	th := pipeline.Thresholds(cfg)
	main := make(map[int]bool, len(result.MainTitles))
	for _, t := range result.MainTitles {
		main[t.Index] = true
	}
	out := make([]titleReport, 0, len(d.Titles))
	for _, t := range d.Titles {
		out = append(out, titleReport{
			Index:           t.Index,
			DurationSeconds: t.DurationSeconds,
			SizeBytes:       t.SizeBytes,
			Kind:            classify.TitleKind(t.DurationSeconds, th),
			Main:            main[t.Index],
		})
	}
	return out
}

func printClassification(cmd *cobra.Command, report classifyReport) {
	out := cmd.OutOrStdout()
	name := report.Descriptor.RawName
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(out, "Disc:           %s\n", name)
	if report.Descriptor.Identity != "" {
		fmt.Fprintf(out, "Identity:       %s\n", report.Descriptor.Identity)
	}
	fmt.Fprintf(out, "Classification: %s (%s confidence)\n", report.Result.Class.Label(), report.Result.Confidence)
	fmt.Fprintf(out, "Reason:         %s\n", report.Result.Reason)
	if report.Result.SuggestedName != "" {
		fmt.Fprintf(out, "Folder name:    %s\n", report.Result.SuggestedName)
	}

	if len(report.Result.Verdicts) > 0 {
		rows := make([][]string, 0, len(report.Result.Verdicts))
		for _, v := range report.Result.Verdicts {
			rows = append(rows, []string{v.Signal, v.Class.Label(), string(v.Confidence), v.Reason})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable("Signals", []string{"Signal", "Class", "Confidence", "Reason"}, rows, nil))
	}

	if len(report.Titles) > 0 {
		rows := make([][]string, 0, len(report.Titles))
		for _, t := range report.Titles {
			rows = append(rows, []string{
				strconv.Itoa(t.Index),
				formatDuration(t.DurationSeconds),
				formatSize(t.SizeBytes),
				string(t.Kind),
				yesNo(t.Main),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable("Titles",
			[]string{"#", "Length", "Size", "Kind", "Main"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
		))
	}
}
