// Package report renders scenario outcomes to the console: a colored section
// header per run and a summary table once every scenario has finished.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	subColor    = color.New(color.FgHiBlack)
	okColor     = color.New(color.FgGreen)
	faultColor  = color.New(color.FgRed, color.Bold)
	noteColor   = color.New(color.FgYellow)
)

// Outcome is the result of one scenario run. Err marks the scenario failed;
// Notes carry observational output that is reported but never asserted.
type Outcome struct {
	Scenario string
	Summary  string
	Duration time.Duration
	Notes    []string
	Err      error
}

// OK reports whether the scenario completed without a fault.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// SectionHeader prints a bold title with optional dimmed subtitle lines.
func SectionHeader(w io.Writer, title string, sub ...string) {
	fmt.Fprintln(w)
	headerColor.Fprintf(w, "── %s ──\n", title)
	for _, s := range sub {
		subColor.Fprintf(w, "   %s\n", s)
	}
}

// RenderTable prints the summary table for all outcomes and returns the
// number of faulted scenarios.
func RenderTable(w io.Writer, outcomes []Outcome) int {
	table := tablewriter.NewWriter(w)
	table.Header("Scenario", "Status", "Duration", "Observations")

	faulted := 0
	for _, o := range outcomes {
		status := okColor.Sprint("ok")
		obs := firstNote(o.Notes)
		if !o.OK() {
			faulted++
			status = faultColor.Sprint("fault")
			obs = o.Err.Error()
		}
		_ = table.Append(o.Scenario, status, o.Duration.Round(time.Millisecond).String(), obs)
	}

	if err := table.Render(); err != nil {
		fmt.Fprintf(os.Stderr, "report: rendering summary table: %v\n", err)
	}
	return faulted
}

// RenderNotes prints every observational note for one outcome.
func RenderNotes(w io.Writer, o Outcome) {
	for _, n := range o.Notes {
		noteColor.Fprintf(w, "   • %s\n", n)
	}
}

func firstNote(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	return notes[0]
}
