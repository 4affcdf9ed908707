// Package simulator wraps xcrun simctl: listing simulators, finding the
// booted one, booting and shutting down.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/shell"
	"github.com/devicelab-dev/shop-e2e/pkg/wait"
)

// Simctl drives xcrun simctl through a shell.Runner.
type Simctl struct {
	sh    shell.Runner
	clock backoff.Clock
	timer backoff.Timer
}

// Option configures Simctl.
type Option func(*Simctl)

// WithClock sets the clock and timer used while polling boot state.
func WithClock(c backoff.Clock, t backoff.Timer) Option {
	return func(s *Simctl) {
		s.clock = c
		s.timer = t
	}
}

// New creates a Simctl over sh.
func New(sh shell.Runner, opts ...Option) *Simctl {
	s := &Simctl{sh: sh}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available verifies that xcrun/simctl is installed.
func (s *Simctl) Available() error {
	if _, err := s.sh.LookPath("xcrun"); err != nil {
		return fmt.Errorf("xcrun not found; install Xcode Command Line Tools: xcode-select --install")
	}
	return nil
}

// simctlDevicesOutput represents the JSON output from xcrun simctl list devices.
type simctlDevicesOutput struct {
	Devices map[string][]simctlDevice `json:"devices"`
}

type simctlDevice struct {
	Name        string `json:"name"`
	UDID        string `json:"udid"`
	State       string `json:"state"`
	IsAvailable bool   `json:"isAvailable"`
}

// List returns all available iOS simulators.
func (s *Simctl) List(ctx context.Context) ([]Device, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}
	out, err := s.sh.Run(ctx, "xcrun", "simctl", "list", "devices", "available", "-j")
	if err != nil {
		return nil, fmt.Errorf("failed to list simulators: %w", err)
	}
	return parseDevices([]byte(out))
}

func parseDevices(out []byte) ([]Device, error) {
	var data simctlDevicesOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("failed to parse simctl output: %w", err)
	}

	var sims []Device
	for runtime, devices := range data.Devices {
		osVersion := extractOSVersion(runtime)
		for _, dev := range devices {
			if !dev.IsAvailable {
				continue
			}
			sims = append(sims, Device{
				Name:        dev.Name,
				UDID:        dev.UDID,
				Runtime:     runtime,
				OSVersion:   osVersion,
				State:       dev.State,
				IsAvailable: dev.IsAvailable,
			})
		}
	}
	logger.Debug("found %d available simulators", len(sims))
	return sims, nil
}

// Booted returns the first booted simulator, or nil when none is running.
func (s *Simctl) Booted(ctx context.Context) (*Device, error) {
	sims, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sim := range sims {
		if sim.IsBooted() {
			sim := sim
			return &sim, nil
		}
	}
	return nil, nil
}

// Find returns the simulator whose name (case-insensitive) or UDID matches.
// When osVersion is set, the runtime must match as well.
func (s *Simctl) Find(ctx context.Context, name, osVersion string) (*Device, error) {
	sims, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sim := range sims {
		if !strings.EqualFold(sim.Name, name) && sim.UDID != name {
			continue
		}
		if osVersion != "" && sim.OSVersion != osVersion {
			continue
		}
		sim := sim
		return &sim, nil
	}
	if osVersion != "" {
		return nil, fmt.Errorf("simulator not found: %s (iOS %s)", name, osVersion)
	}
	return nil, fmt.Errorf("simulator not found: %s", name)
}

// state returns the simctl state of udid.
func (s *Simctl) state(ctx context.Context, udid string) (string, error) {
	sims, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	for _, sim := range sims {
		if sim.UDID == udid {
			return sim.State, nil
		}
	}
	return "", fmt.Errorf("simulator not found: %s", udid)
}

func (s *Simctl) pollOpts(what string, timeout time.Duration) wait.Options {
	return wait.Options{
		Timeout:  timeout,
		Interval: time.Second,
		What:     what,
		Clock:    s.clock,
		Timer:    s.timer,
	}
}

// WaitForBoot waits for a simulator to reach "Booted" state.
func (s *Simctl) WaitForBoot(ctx context.Context, udid string, timeout time.Duration) error {
	logger.Info("waiting for simulator boot: %s", udid)
	err := wait.Until(ctx, s.pollOpts("simulator "+udid+" boot", timeout), func() (bool, error) {
		st, err := s.state(ctx, udid)
		if err != nil {
			return false, err
		}
		return st == StateBooted, nil
	})
	if err != nil {
		return fmt.Errorf("simulator boot timeout after %v: %w", timeout, err)
	}
	logger.Info("simulator booted: %s", udid)
	return nil
}

// Boot boots a simulator and waits for it to be ready.
func (s *Simctl) Boot(ctx context.Context, udid string, timeout time.Duration) error {
	logger.Info("booting simulator: %s", udid)
	if out, err := s.sh.Run(ctx, "xcrun", "simctl", "boot", udid); err != nil {
		if strings.Contains(out, "current state: Booted") {
			logger.Info("simulator already booted: %s", udid)
			return nil
		}
		return fmt.Errorf("failed to boot simulator: %w", err)
	}

	if err := s.WaitForBoot(ctx, udid, timeout); err != nil {
		return err
	}

	// Open the Simulator UI
	if _, err := s.sh.Run(ctx, "open", "-a", "Simulator"); err != nil {
		logger.Debug("failed to open Simulator app: %v", err)
	}
	return nil
}

// Shutdown shuts a simulator down and waits until simctl confirms it.
func (s *Simctl) Shutdown(ctx context.Context, udid string, timeout time.Duration) error {
	logger.Info("shutting down simulator: %s", udid)
	if out, err := s.sh.Run(ctx, "xcrun", "simctl", "shutdown", udid); err != nil {
		if strings.Contains(out, "current state: Shutdown") {
			logger.Info("simulator already shut down: %s", udid)
			return nil
		}
		logger.Warn("simctl shutdown failed for %s: %v", udid, err)
	}

	err := wait.Until(ctx, s.pollOpts("simulator "+udid+" shutdown", timeout), func() (bool, error) {
		st, err := s.state(ctx, udid)
		return err != nil || st != StateBooted, nil
	})
	if err != nil {
		return fmt.Errorf("simulator shutdown timeout after %v: %w", timeout, err)
	}
	logger.Info("simulator shutdown confirmed: %s", udid)
	return nil
}

// extractOSVersion extracts version from runtime string.
// e.g., "com.apple.CoreSimulator.SimRuntime.iOS-18-4" -> "18.4"
func extractOSVersion(runtime string) string {
	idx := strings.LastIndex(runtime, "iOS-")
	if idx == -1 {
		// Try other platforms (watchOS, tvOS, visionOS)
		for _, prefix := range []string{"watchOS-", "tvOS-", "xrOS-"} {
			idx = strings.LastIndex(runtime, prefix)
			if idx != -1 {
				version := runtime[idx+len(prefix):]
				return strings.ReplaceAll(version, "-", ".")
			}
		}
		return ""
	}
	version := runtime[idx+4:] // skip "iOS-"
	return strings.ReplaceAll(version, "-", ".")
}
