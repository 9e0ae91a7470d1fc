package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/danieljhkim/debplan/internal/engine"
	"github.com/danieljhkim/debplan/internal/planner"
	"github.com/danieljhkim/debplan/internal/queue"
	"github.com/danieljhkim/debplan/internal/resolver"
)

var (
	// fatih/color disables these when stdout is not a terminal.
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Println()
	_, _ = headerColor.Printf("▸ %s\n", title)
	fmt.Println()
}

// PrintSuccess prints a success message with a checkmark
func PrintSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

// PrintWarning prints a warning message with a warning symbol
func PrintWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

// PrintError prints an error message to stderr
func PrintError(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}

// PrintInfo prints an informational message
func PrintInfo(msg string) {
	fmt.Println(msg)
}

// PrintLabelValue prints a label-value pair with proper formatting
func PrintLabelValue(label, value string) {
	_, _ = labelColor.Printf("  %s: ", label)
	_, _ = valueColor.Println(value)
}

// PrintTable prints rows under a header, columns padded to the widest cell.
func PrintTable(headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}

	_, _ = headerColor.Println(tableLine(headers, widths))
	fmt.Println(tableLine(rule, widths))
	for _, row := range rows {
		_, _ = valueColor.Println(tableLine(row, widths))
	}
}

func tableLine(cells []string, widths []int) string {
	var b strings.Builder
	b.WriteString("  ")
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		fmt.Fprintf(&b, "%-*s", w, cell)
	}
	return strings.TrimRight(b.String(), " ")
}

// PrintEmptyState prints a message when there's no data to show
func PrintEmptyState(msg string) {
	_, _ = dimColor.Printf("  %s\n", msg)
}

// PrintCount prints a count with proper formatting
func PrintCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// colorForQueueType returns the color queue t is shown in.
func colorForQueueType(t queue.Type) *color.Color {
	switch t {
	case queue.Install, queue.Reinstall:
		return successColor
	case queue.Upgrade, queue.Downgrade:
		return infoColor
	case queue.Remove:
		return errorColor
	case queue.Conflict:
		return warningColor
	case queue.Dependency, queue.Essential:
		return dimColor
	}
	return valueColor
}

// printStatus prints the queues of a session.
func printStatus(status *engine.StatusResult) {
	PrintSection(fmt.Sprintf("Session %s", status.Session))
	PrintLabelValue("Snapshot", status.Snapshot)
	PrintLabelValue("Generation", fmt.Sprintf("%d", status.Generation))

	if len(status.Queues) == 0 {
		fmt.Println()
		PrintEmptyState("Nothing queued")
	}
	for _, q := range status.Queues {
		fmt.Println()
		title := fmt.Sprintf("%s (%s)", q.Name, PrintCount(len(q.Packages), "package", "packages"))
		if q.DownloadSize > 0 {
			title += ", " + resolver.FormatSize(q.DownloadSize)
		}
		_, _ = colorForQueueType(q.Type).Printf("  %s\n", title)
		for _, p := range q.Packages {
			fmt.Printf("    %s %s%s\n", p.ID, dimColor.Sprint(p.Version), describeLinks(p))
		}
	}

	if status.DownloadSize > 0 {
		fmt.Println()
		PrintLabelValue("Download", resolver.FormatSize(status.DownloadSize))
	}

	for _, sel := range status.Stale {
		PrintWarning(fmt.Sprintf("Dropped %s %s: version no longer in snapshot", sel.ID, sel.Version))
	}
	if status.TouchesEssential {
		PrintWarning("Transaction touches essential or required packages")
	}
	if status.RemovingSelf {
		PrintWarning("Transaction removes debplan itself")
	}
	if len(status.Issues) > 0 {
		printIssues(status.Issues)
	}
}

func describeLinks(p engine.PackageInfo) string {
	var parts []string
	if len(p.DependencyOf) > 0 {
		parts = append(parts, "for "+strings.Join(p.DependencyOf, ", "))
	}
	if p.RemovedBy != "" {
		parts = append(parts, "removed by "+p.RemovedBy)
	}
	if len(p.ConflictOf) > 0 {
		parts = append(parts, "conflicts with "+strings.Join(p.ConflictOf, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return dimColor.Sprintf(" (%s)", strings.Join(parts, "; "))
}

// printIssues prints resolution issues.
func printIssues(issues []queue.Issue) {
	PrintSection("Issues")
	if len(issues) == 0 {
		PrintEmptyState("No issues")
		return
	}
	for _, issue := range issues {
		_, _ = errorColor.Printf("  ✗ %s", issue.PackageID)
		fmt.Printf(": %s %s\n", issue.Reason, dimColor.Sprintf("[%s]", issue.Kind))
	}
}

// printPlan prints the ordered tasks, and the install levels when asked.
func printPlan(plan *planner.Plan, levels bool) {
	PrintSection("Plan")
	if len(plan.Tasks) == 0 {
		PrintEmptyState("Nothing to do")
	}
	for i, task := range plan.Tasks {
		line := fmt.Sprintf("%s %s %s", task.Action, task.ID, task.Version)
		_, _ = colorForAction(task.Action).Printf("  %d. %s\n", i+1, line)
		if task.Path != "" {
			PrintEmptyState("     " + task.Path)
		}
	}

	if plan.HasCycles() {
		for _, level := range plan.Levels {
			if !level.Cyclic {
				continue
			}
			PrintWarning(fmt.Sprintf("Level %d installs a dependency cycle together: %s", level.Index, strings.Join(level.IDs, ", ")))
		}
	}

	if levels && len(plan.Levels) > 0 {
		PrintSection("Install Levels")
		rows := make([][]string, 0, len(plan.Levels))
		for _, level := range plan.Levels {
			cyclic := ""
			if level.Cyclic {
				cyclic = "yes"
			}
			rows = append(rows, []string{fmt.Sprintf("%d", level.Index), strings.Join(level.IDs, ", "), cyclic})
		}
		PrintTable([]string{"Level", "Packages", "Cycle"}, rows)
	}

	if len(plan.Issues) > 0 {
		printIssues(plan.Issues)
	}
}

func colorForAction(a planner.Action) *color.Color {
	switch a {
	case planner.ActionRemove:
		return errorColor
	case planner.ActionUpgrade, planner.ActionDowngrade:
		return infoColor
	}
	return successColor
}

// printMismatches prints staged archives that failed verification.
func printMismatches(mismatches []planner.Mismatch) {
	PrintSection("Verification")
	for _, m := range mismatches {
		PrintError(fmt.Sprintf("%s: %s (%s)", m.ID, m.Reason, m.Path))
		if m.Expected != "" {
			PrintLabelValue("Expected", m.Expected)
			PrintLabelValue("Actual", m.Actual)
		}
	}
}
