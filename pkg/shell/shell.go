// Package shell runs the external tools the diagnostics drive (xcrun,
// appium, lsof, xcodebuild) behind an interface tests can replace.
package shell

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// Runner executes commands.
type Runner interface {
	// Run waits for the command and returns its combined output, trimmed.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// Start launches a long-running command in the background.
	Start(name string, args ...string) error
	// LookPath reports where name is installed.
	LookPath(name string) (string, error)
}

// Exec runs real processes.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	logger.Debug("exec: %s", Line(name, args...))
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		if text != "" {
			return text, fmt.Errorf("%s: %w: %s", name, err, text)
		}
		return text, fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

// Start implements Runner. The child is released and outlives the caller.
func (Exec) Start(name string, args ...string) error {
	logger.Debug("exec (background): %s", Line(name, args...))
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return cmd.Process.Release()
}

// LookPath implements Runner.
func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Line joins a command for display and for Fake lookups.
func Line(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

// Result is a canned Fake response.
type Result struct {
	Output string
	Err    error
}

// Fake answers commands from a table keyed by Line. Unknown commands
// succeed with no output; unknown tools are reported as installed.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]Result
	missing   map[string]bool
	calls     []string
	started   []string
}

// NewFake creates an empty fake.
func NewFake() *Fake {
	return &Fake{responses: map[string][]Result{}, missing: map[string]bool{}}
}

// On queues results for the command line. The last result repeats.
func (f *Fake) On(line string, results ...Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = append(f.responses[line], results...)
	return f
}

// Missing makes LookPath fail for name.
func (f *Fake) Missing(name string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[name] = true
	return f
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	line := Line(name, args...)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, line)
	rs := f.responses[line]
	if len(rs) == 0 {
		return "", nil
	}
	r := rs[0]
	if len(rs) > 1 {
		f.responses[line] = rs[1:]
	}
	return r.Output, r.Err
}

// Start implements Runner.
func (f *Fake) Start(name string, args ...string) error {
	line := Line(name, args...)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, line)
	if rs := f.responses[line]; len(rs) > 0 {
		return rs[0].Err
	}
	return nil
}

// LookPath implements Runner.
func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns the command lines run so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Started returns the command lines started in the background.
func (f *Fake) Started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}
