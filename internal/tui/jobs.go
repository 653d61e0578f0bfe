package tui

import (
	"fmt"
	"strings"

	"twinfm/internal/jobs"
)

func (m *Model) renderJobs() string {
	var b strings.Builder
	b.WriteString("Jobs\n\n")

	records := m.state.Manager.All()
	for i, rec := range records {
		line := formatJobLine(rec)
		if i == m.state.JobsCursor {
			line = styleSelected.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(records) == 0 {
		b.WriteString("(no jobs yet)\n")
	}
	return b.String()
}

func formatJobLine(rec jobs.JobRecord) string {
	style := styleJobQueued
	switch rec.Status {
	case jobs.Running:
		style = styleJobRunning
	case jobs.Succeeded:
		style = styleJobDone
	case jobs.Failed:
		style = styleJobFailed
	case jobs.Canceled:
		style = styleJobCanceled
	}

	pct := ""
	if rec.Progress != nil {
		pct = fmt.Sprintf(" %3d%%", rec.Progress.Percent())
	}
	errText := ""
	if rec.LastError != nil {
		errText = ": " + rec.LastError.Message
	}

	return style.Render(fmt.Sprintf("#%d %-8s %s%s%s", rec.ID, rec.Status.String(), rec.Summary, pct, errText))
}
