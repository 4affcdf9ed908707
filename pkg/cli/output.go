package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// progress prints live scenario results.
type progress struct {
	w io.Writer
}

func (p progress) onScenarioStart(idx, total int, name string) {
	fmt.Fprintf(p.w, "\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), idx+1, total, color(colorReset),
		color(colorBold), name, color(colorReset))
	fmt.Fprintln(p.w, strings.Repeat("─", 60))
}

func (p progress) onScenarioEnd(_ int, res core.ScenarioResult) {
	if res.Status == core.StatusSkipped {
		return
	}
	for _, step := range res.Steps {
		p.step(step)
	}
	durStr := formatDuration(res.Duration.Milliseconds())
	switch {
	case res.Status.IsSuccess():
		fmt.Fprintf(p.w, "%s✓ %s%s %s%s%s\n",
			color(colorGreen), color(colorReset), res.Name, color(colorGray), durStr, color(colorReset))
	default:
		fmt.Fprintf(p.w, "%s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), res.Name, color(colorGray), durStr, color(colorReset))
		if res.Error != "" {
			fmt.Fprintf(p.w, "  %s╰─%s [%s] %s\n", color(colorGray), color(colorReset), res.Category, res.Error)
		}
	}
}

func (p progress) step(s core.StepResult) {
	durationMs := s.Duration.Milliseconds()
	durStr := formatDuration(durationMs)

	switch s.Status {
	case core.StatusPassed:
		symbol := "✓"
		symbolColor := color(colorGreen)
		durColor := ""
		if durationMs >= slowThresholdMs {
			durColor = color(colorYellow)
			symbol = "⚠"
			symbolColor = color(colorYellow)
		}
		fmt.Fprintf(p.w, "    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), s.Name, durColor, durStr, color(colorReset))
	case core.StatusWarned:
		fmt.Fprintf(p.w, "    %s⚠%s %s (%s)\n", color(colorYellow), color(colorReset), s.Name, durStr)
		if s.Error != "" {
			fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), s.Error)
		}
	case core.StatusSkipped:
		fmt.Fprintf(p.w, "    %s-%s %s\n", color(colorCyan), color(colorReset), s.Name)
	default:
		fmt.Fprintf(p.w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), s.Name, durStr)
		if s.Error != "" {
			fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), s.Error)
		}
	}
}

func printSummary(w io.Writer, result *core.SuiteResult) {
	// Calculate totals
	totalSteps := 0
	passedSteps := 0
	failedSteps := 0
	skippedSteps := 0
	warnedSteps := 0
	for _, sr := range result.Scenarios {
		totalSteps += sr.TotalSteps
		passedSteps += sr.PassedSteps
		failedSteps += sr.FailedSteps
		skippedSteps += sr.SkippedSteps
		warnedSteps += sr.WarnedSteps
	}

	// Print step summary
	fmt.Fprintln(w)
	if passedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps passing%s (%s)\n", color(colorGreen), passedSteps, color(colorReset), formatDuration(result.Duration.Milliseconds()))
	}
	if warnedSteps > 0 {
		fmt.Fprintf(w, "  %s%d optional steps warned%s\n", color(colorYellow), warnedSteps, color(colorReset))
	}
	if failedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps failing%s\n", color(colorRed), failedSteps, color(colorReset))
	}
	if skippedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps skipped%s\n", color(colorCyan), skippedSteps, color(colorReset))
	}
	fmt.Fprintln(w)

	// Print table
	tableWidth := 92
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-42s %6s %7s %6s %6s %6s %10s\n", "Scenario", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, sr := range result.Scenarios {
		var status string
		var statusColor string
		switch {
		case sr.Status == core.StatusSkipped:
			status = "- SKIP"
			statusColor = color(colorCyan)
		case sr.Status == core.StatusWarned:
			status = "⚠ WARN"
			statusColor = color(colorYellow)
		case sr.Status.IsSuccess():
			status = "✓ PASS"
			statusColor = color(colorGreen)
		default:
			status = "✗ FAIL"
			statusColor = color(colorRed)
		}

		// Truncate name if too long
		name := sr.Name
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		fmt.Fprintf(w, "  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, color(colorReset),
			sr.TotalSteps, sr.PassedSteps, sr.FailedSteps, sr.SkippedSteps,
			formatDuration(sr.Duration.Milliseconds()))
	}

	// Print totals row
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.PassedScenarios, result.TotalScenarios-result.SkippedScenarios)
	statusColor := color(colorGreen)
	if result.FailedScenarios > 0 {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(result.Duration.Milliseconds()))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
