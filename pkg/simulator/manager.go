package simulator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// StartedBy marks simulators booted by this tool.
const StartedBy = "shop-e2e"

// NewManager creates a simulator manager over simctl.
func NewManager(simctl *Simctl) *Manager {
	return &Manager{simctl: simctl}
}

func (m *Manager) now() time.Time {
	if m.simctl.clock != nil {
		return m.simctl.clock.Now()
	}
	return time.Now()
}

// EnsureBooted returns the booted simulator, booting the one named name
// (optionally on osVersion) when none is running.
func (m *Manager) EnsureBooted(ctx context.Context, name, osVersion string, timeout time.Duration) (*Device, error) {
	booted, err := m.simctl.Booted(ctx)
	if err != nil {
		return nil, err
	}
	if booted != nil {
		logger.Info("simulator already booted: %s (%s)", booted.Name, booted.UDID)
		return booted, nil
	}

	sim, err := m.simctl.Find(ctx, name, osVersion)
	if err != nil {
		return nil, err
	}
	if err := m.Start(ctx, sim.UDID, sim.Name, timeout); err != nil {
		return nil, err
	}
	sim.State = StateBooted
	return sim, nil
}

// Start boots a simulator by UDID and tracks it.
func (m *Manager) Start(ctx context.Context, udid, name string, timeout time.Duration) error {
	logger.Info("starting simulator: %s (timeout: %v)", udid, timeout)
	bootStart := m.now()

	if err := m.simctl.Boot(ctx, udid, timeout); err != nil {
		return fmt.Errorf("failed to boot simulator %s: %w", udid, err)
	}

	inst := &Instance{
		UDID:         udid,
		Name:         name,
		StartedBy:    StartedBy,
		BootStart:    bootStart,
		BootDuration: m.now().Sub(bootStart),
	}
	m.started.Store(udid, inst)
	logger.Info("simulator started and tracked: %s (%s, boot time: %v)", name, udid, inst.BootDuration)
	return nil
}

// Shutdown shuts down a simulator if we started it.
func (m *Manager) Shutdown(ctx context.Context, udid string) error {
	if _, ok := m.started.Load(udid); !ok {
		logger.Debug("simulator %s not started by us, skipping shutdown", udid)
		return nil
	}
	if err := m.simctl.Shutdown(ctx, udid, 30*time.Second); err != nil {
		logger.Error("failed to shutdown simulator %s: %v", udid, err)
		return err
	}
	m.started.Delete(udid)
	return nil
}

// ShutdownAll shuts down all simulators started by us, in parallel.
func (m *Manager) ShutdownAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, udid := range m.Started() {
		udid := udid
		g.Go(func() error { return m.Shutdown(ctx, udid) })
	}
	return g.Wait()
}

// IsStartedByUs checks if we started this simulator.
func (m *Manager) IsStartedByUs(udid string) bool {
	_, ok := m.started.Load(udid)
	return ok
}

// Started returns the UDIDs of all simulators we started.
func (m *Manager) Started() []string {
	var udids []string
	m.started.Range(func(key, _ interface{}) bool {
		udids = append(udids, key.(string))
		return true
	})
	return udids
}
