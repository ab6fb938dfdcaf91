// Package report renders run summaries and history for the terminal:
// rounded tables on a TTY, plain key=value lines for pipes and cron mail.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"favsync/internal/mirror"
	"favsync/internal/runlog"
)

// WriteSummary renders one run summary.
func WriteSummary(w io.Writer, summary *mirror.Summary, tty bool) {
	verb := ""
	if summary.DryRun {
		verb = " (dry run, no changes made)"
	}
	fmt.Fprintf(w, "run %s%s\n", summary.RunID, verb)

	if tty {
		writeSummaryTable(w, summary)
	} else {
		fmt.Fprintf(w, "remote=%d created=%d deleted=%d unchanged=%d failed=%d duration=%s converged=%t\n",
			summary.Remote, summary.Created, summary.Deleted, summary.Unchanged,
			summary.Failed(), runDuration(summary), summary.Converged)
	}

	for _, failure := range summary.Failures {
		key := failure.Key.String()
		if key == "" {
			key = "(run)"
		}
		fmt.Fprintf(w, "failed %s: %s: %s\n", failure.Op, key, failure.Reason)
	}
}

func writeSummaryTable(w io.Writer, summary *mirror.Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Remote", "Created", "Deleted", "Unchanged", "Failed", "Duration"})
	tw.AppendRow(table.Row{
		summary.Remote, summary.Created, summary.Deleted, summary.Unchanged,
		summary.Failed(), runDuration(summary),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteHistory renders past run records, newest first.
func WriteHistory(w io.Writer, records []runlog.Record, tty bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return
	}
	if !tty {
		for _, rec := range records {
			fmt.Fprintf(w, "%s run=%s created=%d deleted=%d unchanged=%d failed=%d converged=%t dry_run=%t\n",
				rec.Started.Local().Format(time.RFC3339), rec.RunID,
				rec.Created, rec.Deleted, rec.Unchanged, rec.Failed, rec.Converged, rec.DryRun)
		}
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Started", "Run", "Created", "Deleted", "Unchanged", "Failed", "Converged"})
	for _, rec := range records {
		run := rec.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		if rec.DryRun {
			run += " (dry)"
		}
		tw.AppendRow(table.Row{
			rec.Started.Local().Format("2006-01-02 15:04"),
			run, rec.Created, rec.Deleted, rec.Unchanged, rec.Failed, rec.Converged,
		})
	}
	tw.Render()
}

func runDuration(summary *mirror.Summary) time.Duration {
	if summary.Finished.IsZero() || summary.Started.IsZero() {
		return 0
	}
	return summary.Finished.Sub(summary.Started).Round(time.Millisecond)
}
