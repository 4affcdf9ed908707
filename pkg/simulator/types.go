package simulator

import (
	"sync"
	"time"
)

// Simulator states reported by simctl.
const (
	StateBooted   = "Booted"
	StateShutdown = "Shutdown"
)

// Device represents an available iOS simulator from simctl list.
type Device struct {
	Name        string // e.g., "iPhone 16 Plus"
	UDID        string // e.g., "A1B2C3D4-E5F6-..."
	Runtime     string // e.g., "com.apple.CoreSimulator.SimRuntime.iOS-18-4"
	OSVersion   string // e.g., "18.4" (extracted from Runtime)
	State       string // "Shutdown", "Booted", etc.
	IsAvailable bool
}

// IsBooted reports whether the simulator is running.
func (d Device) IsBooted() bool {
	return d.State == StateBooted
}

// Instance tracks a simulator booted by shop-e2e.
type Instance struct {
	UDID         string        // Simulator UDID
	Name         string        // Simulator name (e.g., "iPhone 16 Plus")
	StartedBy    string        // "shop-e2e"
	BootStart    time.Time     // When boot was initiated
	BootDuration time.Duration // Total boot duration
}

// Manager boots simulators on demand and shuts down only the ones it
// booted.
type Manager struct {
	simctl  *Simctl
	started sync.Map // UDID -> *Instance (thread-safe)
}
