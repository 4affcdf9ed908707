package diagnose

import (
	"fmt"
	"io"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Console writes procedure output.
type Console struct {
	w     io.Writer
	color bool
}

// NewConsole writes to w, with ANSI colors when color is set.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{w: w, color: color}
}

func (c *Console) c(code string) string {
	if c.color {
		return code
	}
	return ""
}

// Title prints the banner of a procedure.
func (c *Console) Title(title string) {
	rule := strings.Repeat("═", 60)
	fmt.Fprintf(c.w, "\n%s%s%s\n", c.c(colorBold), title, c.c(colorReset))
	fmt.Fprintln(c.w, rule)
}

// Section prints a step header.
func (c *Console) Section(title string) {
	fmt.Fprintf(c.w, "\n%s%s%s\n", c.c(colorCyan), title, c.c(colorReset))
}

// Command echoes a command line about to run.
func (c *Console) Command(line string) {
	fmt.Fprintf(c.w, "  %s$ %s%s\n", c.c(colorDim), line, c.c(colorReset))
}

// Output prints command output indented.
func (c *Console) Output(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(c.w, "    %s\n", line)
	}
}

// OK prints a passing check.
func (c *Console) OK(format string, args ...interface{}) {
	fmt.Fprintf(c.w, "  %s✓%s %s\n", c.c(colorGreen), c.c(colorReset), fmt.Sprintf(format, args...))
}

// Fail prints a failing check.
func (c *Console) Fail(format string, args ...interface{}) {
	fmt.Fprintf(c.w, "  %s✗%s %s\n", c.c(colorRed), c.c(colorReset), fmt.Sprintf(format, args...))
}

// Warn prints a non-fatal problem.
func (c *Console) Warn(format string, args ...interface{}) {
	fmt.Fprintf(c.w, "  %s⚠%s %s\n", c.c(colorYellow), c.c(colorReset), fmt.Sprintf(format, args...))
}

// Info prints a plain indented line.
func (c *Console) Info(format string, args ...interface{}) {
	fmt.Fprintf(c.w, "  %s\n", fmt.Sprintf(format, args...))
}

// Steps prints a numbered list.
func (c *Console) Steps(steps ...string) {
	for i, s := range steps {
		fmt.Fprintf(c.w, "  %d. %s\n", i+1, s)
	}
}
