package main

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
)

var (
	dueColor  = color.New(color.FgRed, color.Bold)
	soonColor = color.New(color.FgYellow)
	warnColor = color.New(color.FgYellow)
)

// renderTable prints a pretty table to w.
func renderTable(w io.Writer, headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

// remainingCell highlights doses that are due or within the next quarter hour.
func remainingCell(d time.Duration) string {
	s := countdown.FormatRemaining(d)
	switch {
	case d <= 0:
		return dueColor.Sprint(s)
	case d <= 15*time.Minute:
		return soonColor.Sprint(s)
	default:
		return s
	}
}

// renderCountdown prints one frame of the countdown.
func renderCountdown(w io.Writer, entries []countdown.Entry, now time.Time) {
	if len(entries) == 0 {
		_, _ = io.WriteString(w, "No upcoming doses.\n")
		return
	}
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.Medication, e.TimeOfDay.String(), e.Occurrence.Label, remainingCell(e.Remaining)})
	}
	renderTable(w, []string{"Medication", "Time", "Next dose", "In"}, rows)
	_, _ = io.WriteString(w, "as of "+now.Local().Format("15:04:05")+"\n")
}
