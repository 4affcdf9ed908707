// Package report writes JSON run reports that can be polled while a run is
// in progress.
//
// Layout:
//   - report.json: index with run status and one entry per scenario
//     (small, rewritten on every change, mutex-protected)
//   - scenarios/scenario-XXX.json: full scenario results, written once when
//     the scenario finishes
//
// Every file is written to a temp file and renamed so readers never see a
// partial document.
package report

import (
	"time"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// StatusOf maps a scenario status onto the report's coarser statuses.
func StatusOf(s core.StepStatus) Status {
	switch s {
	case core.StatusPassed, core.StatusWarned:
		return StatusPassed
	case core.StatusFailed, core.StatusErrored:
		return StatusFailed
	case core.StatusSkipped:
		return StatusSkipped
	case core.StatusRunning:
		return StatusRunning
	}
	return StatusPending
}

// Index is the report.json document.
type Index struct {
	Version     string          `json:"version"`
	RunID       string          `json:"runId"`
	UpdateSeq   uint64          `json:"updateSeq"`
	Status      Status          `json:"status"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Device      Device          `json:"device"`
	App         App             `json:"app"`
	Runner      RunnerInfo      `json:"runner"`
	Summary     Summary         `json:"summary"`
	Scenarios   []ScenarioEntry `json:"scenarios"`
}

// Device contains device information.
type Device struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	OSVersion   string `json:"osVersion"`
	IsSimulator bool   `json:"isSimulator"`
}

// DeviceFrom converts session platform info.
func DeviceFrom(p core.PlatformInfo) Device {
	return Device{
		ID:          p.DeviceID,
		Name:        p.DeviceName,
		Platform:    p.Platform,
		OSVersion:   p.OSVersion,
		IsSimulator: p.IsSimulator,
	}
}

// App contains application information.
type App struct {
	ID   string `json:"id"` // bundle id or app path
	Name string `json:"name,omitempty"`
}

// RunnerInfo identifies the harness build and driver.
type RunnerInfo struct {
	Version string `json:"version"`
	Driver  string `json:"driver"` // appium, mock
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
}

// ScenarioEntry is the index entry for a scenario.
type ScenarioEntry struct {
	Index       int        `json:"index"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Tags        []string   `json:"tags,omitempty"`
	DataFile    string     `json:"dataFile"` // scenarios/scenario-XXX.json, once finished
	Status      Status     `json:"status"`
	UpdateSeq   uint64     `json:"updateSeq"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	Duration    *int64     `json:"duration,omitempty"` // milliseconds
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	Category    string     `json:"errorCategory,omitempty"`
	Error       *string    `json:"error,omitempty"`
}
