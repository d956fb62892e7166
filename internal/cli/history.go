package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/forPelevin/img2vid/internal/runlog"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <output-dir>",
		Short: "Show the render log of an output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			entries, skipped, err := runlog.Read(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no renders recorded in %s\n", args[0])
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			writeHistory(cmd.OutOrStdout(), entries)
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d unreadable line(s) skipped\n", skipped)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Show only the most recent N renders (0 for all)")
	return cmd
}

func writeHistory(w io.Writer, entries []runlog.Entry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Started", "Status", "Took", "Video", "Output", "Error"})
	for _, e := range entries {
		tw.AppendRow(table.Row{
			e.Start.Local().Format(time.DateTime),
			e.Status,
			seconds(e.DurationSeconds),
			seconds(e.VideoDurationSeconds),
			e.Output,
			text.Trim(e.Error, 60),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "s"
}
