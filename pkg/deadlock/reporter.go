package deadlock

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"deadlockwatch/pkg/primitives"
)

// recommendation is a fixed presentational trailer line appended to every
// deadlock report.
const recommendation = "Check the lock acquisition order in your code!"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89B4FA")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A6E3A1")).
		Bold(true)

	recommendationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAB387")).
				Italic(true).
				MarginTop(1)
)

// Reporter renders structural facts about a detected cycle, or the
// detector's overall status, reading the live tables under the standard
// locking discipline rather than a historical snapshot. It produces
// no machine-readable output by contract — the participant/edge data is
// available as plain Go values through Detector.cycleParticipants before
// any rendering happens.
type Reporter struct {
	tables *Tables
	graph  *WaitForGraph
}

// NewReporter returns a reporter reading from the given tables and graph.
func NewReporter(tables *Tables, graph *WaitForGraph) *Reporter {
	return &Reporter{tables: tables, graph: graph}
}

// PrintDeadlockInfo reports, for every participating thread, the
// awaited lock and its current holder, then dumps the graph structure.
func (r *Reporter) PrintDeadlockInfo(w io.Writer, participants []primitives.ThreadID) {
	fmt.Fprintln(w, titleStyle.Render("DEADLOCK DETECTED"))

	for _, tid := range participants {
		lock, waiting := r.tables.LiveWaiter(tid)
		if !waiting {
			fmt.Fprintf(w, "%s %s\n", labelStyle.Render(tid.String()), valueStyle.Render("is not currently waiting (transient)"))
			continue
		}

		holder, held := r.tables.LiveHolder(lock)
		holderDesc := "unknown"
		if held {
			holderDesc = holder.String()
		}

		fmt.Fprintf(w, "%s waits for %s, held by %s\n",
			labelStyle.Render(tid.String()),
			valueStyle.Render(lock.String()),
			valueStyle.Render(holderDesc),
		)
	}

	fmt.Fprintln(w, labelStyle.Render("Wait-for graph:"))
	r.graph.PrintGraph(w)

	fmt.Fprintln(w, recommendationStyle.Render(recommendation))
}

// PrintStatus renders a diagnostic dump of the three tables plus the
// running/interval state.
func (r *Reporter) PrintStatus(w io.Writer, running bool, interval string) {
	fmt.Fprintln(w, titleStyle.Render("DETECTOR STATUS"))

	state := okStyle.Render("running")
	if !running {
		state = valueStyle.Render("idle")
	}
	fmt.Fprintf(w, "%s %s (interval %s)\n", labelStyle.Render("state:"), state, interval)

	fmt.Fprintf(w, "%s %d locks held\n", labelStyle.Render("holders:"), r.tables.HolderCount())
	for lock, tid := range r.tables.Holders() {
		fmt.Fprintf(w, "  %s held by %s\n", valueStyle.Render(lock.String()), valueStyle.Render(tid.String()))
	}

	fmt.Fprintf(w, "%s %d threads blocked\n", labelStyle.Render("waiters:"), r.tables.WaiterCount())
	for tid, lock := range r.tables.Waiters() {
		fmt.Fprintf(w, "  %s waiting on %s\n", valueStyle.Render(tid.String()), valueStyle.Render(lock.String()))
	}
}

// PrintDeadlockInfo renders the first detected cycle, if any.
func (d *Detector) PrintDeadlockInfo(w io.Writer) {
	NewReporter(d.tables, d.graph).PrintDeadlockInfo(w, d.cycleParticipants())
}

// PrintStatus renders the detector's current state to w.
func (d *Detector) PrintStatus(w io.Writer) {
	NewReporter(d.tables, d.graph).PrintStatus(w, d.IsRunning(), d.currentInterval().String())
}
