package main

import (
	"github.com/pterm/pterm"

	"github.com/correlator-io/patchkit/report"
)

// printReport renders a report.Report as a pterm panel plus an event table,
// adapted from the teacher pack's argon-it-seedfast-cli console renderers.
func printReport(rep *report.Report) {
	status := pterm.FgGreen.Sprint("SUCCESS")
	if !rep.Success() {
		status = pterm.FgRed.Sprint("FAILURE")
	}

	pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("PatchKit Report")).
		WithPadding(1).
		Println(pterm.Sprintf(
			"patch      %s\nstatus     %s\nrun id     %s\nduration   %dms\naffected   %d rows",
			rep.PatchID, status, rep.RunID, rep.DurationMs(), rep.AffectedRows,
		))

	if len(rep.Events) == 0 {
		return
	}

	rows := pterm.TableData{{"TIME", "CODE", "MESSAGE"}}

	for _, ev := range rep.Events {
		rows = append(rows, []string{
			pterm.Sprintf("%d", ev.Timestamp),
			string(ev.Code),
			ev.Message,
		})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
