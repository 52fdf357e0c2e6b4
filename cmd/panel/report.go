package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"lessonpanel/internal/notify"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func printChartReport(w io.Writer, source string, run pageRun) {
	fmt.Fprintln(w, titleStyle.Render("Charts: "+source))
	for _, o := range run.Report.Outcomes {
		if o.Rendered {
			fmt.Fprintf(w, "  %s %s %s\n", okStyle.Render("rendered"), o.MountID, dimStyle.Render("via "+o.Strategy))
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", failStyle.Render("failed"), o.MountID, dimStyle.Render(fmt.Sprint(o.Err)))
	}
	fmt.Fprintf(w, "  %d of %d charts rendered\n", run.Report.Rendered(), len(run.Report.Outcomes))

	if run.Booking.DateMin != "" {
		fmt.Fprintf(w, "  booking date minimum %s\n", run.Booking.DateMin)
	}
	if run.Booking.EndTime != "" {
		fmt.Fprintf(w, "  booking end time %s\n", run.Booking.EndTime)
	}
}

func printNotifyResult(w io.Writer, endpoint string, res notify.Result) {
	status := "-"
	if res.Status != 0 {
		status = fmt.Sprint(res.Status)
	}
	if res.OK() {
		fmt.Fprintf(w, "%s notification %s %s\n", okStyle.Render("read"), res.ID, dimStyle.Render(endpoint+" "+status))
		return
	}
	fmt.Fprintf(w, "%s notification %s %s: %v\n", failStyle.Render("failed"), res.ID, dimStyle.Render(endpoint+" "+status), res.Err)
}
