package core

import (
	"time"
)

// StepResult captures the outcome of one named step inside a scenario
type StepResult struct {
	Index    int           `json:"index"` // 0-based position in scenario
	Name     string        `json:"name"`  // e.g. "login", "add to cart"
	Optional bool          `json:"optional,omitempty"`
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Error string `json:"error,omitempty"` // Technical error message
}

// ScenarioResult captures the complete outcome of running a scenario
type ScenarioResult struct {
	// Identity
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	RunID string   `json:"runId"`

	// Status (aggregated from steps and the scenario error)
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Steps       []StepResult `json:"steps"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Summary (computed)
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`

	Error string `json:"error,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice
func (r *ScenarioResult) ComputeSummary() {
	r.TotalSteps = len(r.Steps)
	r.PassedSteps = 0
	r.FailedSteps = 0
	r.SkippedSteps = 0
	r.WarnedSteps = 0

	for _, step := range r.Steps {
		switch step.Status {
		case StatusPassed:
			r.PassedSteps++
		case StatusFailed, StatusErrored:
			r.FailedSteps++
		case StatusSkipped:
			r.SkippedSteps++
		case StatusWarned:
			r.WarnedSteps++
		}
	}
}

// AggregateStatus determines the scenario status from its steps.
// Rules:
// - Any failed/errored step → StatusFailed
// - All passed with some warned → StatusWarned
// - Otherwise → StatusPassed
func (r *ScenarioResult) AggregateStatus() StepStatus {
	warned := false
	for _, step := range r.Steps {
		switch step.Status {
		case StatusFailed, StatusErrored:
			return StatusFailed
		case StatusWarned:
			warned = true
		}
	}
	if warned {
		return StatusWarned
	}
	return StatusPassed
}

// SuiteResult captures the outcome of running several scenarios
type SuiteResult struct {
	Name  string `json:"name"`
	RunID string `json:"runId"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Scenarios []ScenarioResult `json:"scenarios"`

	TotalScenarios   int `json:"totalScenarios"`
	PassedScenarios  int `json:"passedScenarios"`
	FailedScenarios  int `json:"failedScenarios"`
	SkippedScenarios int `json:"skippedScenarios"`
}

// ComputeSummary calculates scenario counts from the Scenarios slice
func (s *SuiteResult) ComputeSummary() {
	s.TotalScenarios = len(s.Scenarios)
	s.PassedScenarios = 0
	s.FailedScenarios = 0
	s.SkippedScenarios = 0

	for _, sc := range s.Scenarios {
		switch sc.Status {
		case StatusPassed, StatusWarned:
			s.PassedScenarios++
		case StatusFailed, StatusErrored:
			s.FailedScenarios++
		case StatusSkipped:
			s.SkippedScenarios++
		}
	}
}

// Success returns true if at least one scenario ran and none failed
func (s *SuiteResult) Success() bool {
	ran := false
	for _, sc := range s.Scenarios {
		if sc.Status == StatusSkipped {
			continue
		}
		if !sc.Status.IsSuccess() {
			return false
		}
		ran = true
	}
	return ran
}
