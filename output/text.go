package output

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/nfairburn/chartlog/analysis"
)

// PrintRunSummary displays the run summary on the console after the
// output files are written.
func PrintRunSummary(res *analysis.MergeResult, offset time.Duration, files int, elapsed time.Duration) {
	start, end := runBounds(res)
	duration := end.Sub(start)

	// ANSI style for bold text.
	bold := "\033[1m"
	reset := "\033[0m"

	fmt.Println(bold + "\nSUMMARY\n" + reset)
	fmt.Printf("  %-25s : %d\n", "Files analyzed", files)
	fmt.Printf("  %-25s : %s\n", "Start date", displayTime(start, offset))
	fmt.Printf("  %-25s : %s\n", "End date", displayTime(end, offset))
	fmt.Printf("  %-25s : %s\n", "Duration", duration)
	fmt.Printf("  %-25s : %s\n", "Analysis time", elapsed.Round(time.Millisecond))

	printTableLine := func(name string, t *analysis.MergedTable) {
		if t == nil {
			return
		}
		fmt.Printf("  %-25s : %d rows, %d columns\n", name, len(t.Rows), t.Schema.Len())
	}
	printTableLine("Status lines", res.Status)
	printTableLine("User status lines", res.UserStatus)
	printTableLine("Proxy status lines", res.Proxy)

	if res.Status != nil && len(res.Status.Instances) > 1 {
		fmt.Printf("  %-25s : %d\n", "Correlator instances", len(res.Status.Instances))
	}
	if len(res.Connections) > 0 {
		fmt.Printf("  %-25s : %d\n", "Connection events", len(res.Connections))
	}

	printIncidents(res.Incidents.Incidents())
}

// printIncidents prints the most frequent WARN/ERROR incidents, samples
// truncated to the terminal width.
func printIncidents(incidents []*analysis.Incident) {
	if len(incidents) == 0 {
		return
	}

	bold := "\033[1m"
	reset := "\033[0m"
	fmt.Println(bold + "\nWARNINGS & ERRORS\n" + reset)

	width := 120
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		width = w
	}

	limit := 10
	if len(incidents) < limit {
		limit = len(incidents)
	}
	for _, inc := range incidents[:limit] {
		line := fmt.Sprintf("  %6dx %-5s %s", inc.Count, inc.Level, inc.Sample)
		if len(line) > width {
			line = line[:width-3] + "..."
		}
		fmt.Println(line)
	}
	if len(incidents) > limit {
		fmt.Printf("  ... and %d more distinct incident(s)\n", len(incidents)-limit)
	}
}
