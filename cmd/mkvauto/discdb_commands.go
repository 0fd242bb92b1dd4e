package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvauto/internal/discdb"
)

func newDiscDBCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "discdb",
		Aliases: []string{"db"},
		Short:   "Inspect the database of ripped disc identities",
	}
	cmd.AddCommand(newDiscDBListCommand(ctx))
	cmd.AddCommand(newDiscDBRemoveCommand(ctx))
	cmd.AddCommand(newDiscDBClearCommand(ctx))
	return cmd
}

func newDiscDBListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ripped discs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store discdb.Store) error {
				records := store.List()
				if ctx.jsonOutput() {
					if records == nil {
						records = []discdb.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No discs recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					ripped := "-"
					if !r.RippedAt.IsZero() {
						ripped = humanize.Time(r.RippedAt)
					}
					rows = append(rows, []string{shortID(r.DiscID), r.Name, r.ContentClass, r.OutputPath, ripped})
				}
				fmt.Fprintln(out, renderTable("", []string{"Disc ID", "Name", "Class", "Path", "Ripped"}, rows, nil))
				return nil
			})
		},
	}
}

func newDiscDBRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <disc-id>",
		Short: "Forget a disc so it is ripped again on insertion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(store discdb.Store) error {
				if err := store.Remove(id); err != nil {
					if errors.Is(err, discdb.ErrNotFound) {
						return fmt.Errorf("disc %s is not recorded", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
				return nil
			})
		},
	}
}

func newDiscDBClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every recorded disc",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear the disc database without --yes")
			}
			return ctx.withStore(func(store discdb.Store) error {
				count := len(store.List())
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d disc record(s)\n", count)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing all records")
	return cmd
}

func shortID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:16] + "…"
}
