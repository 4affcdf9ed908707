package core

import (
	"testing"
)

func TestScenarioResult_ComputeSummary(t *testing.T) {
	result := &ScenarioResult{
		Name: "checkout happy path",
		Steps: []StepResult{
			{Status: StatusPassed},
			{Status: StatusPassed},
			{Status: StatusFailed},
			{Status: StatusErrored},
			{Status: StatusSkipped},
			{Status: StatusWarned},
		},
	}

	result.ComputeSummary()

	if result.TotalSteps != 6 {
		t.Errorf("TotalSteps = %d, want 6", result.TotalSteps)
	}
	if result.PassedSteps != 2 {
		t.Errorf("PassedSteps = %d, want 2", result.PassedSteps)
	}
	if result.FailedSteps != 2 {
		t.Errorf("FailedSteps = %d, want 2", result.FailedSteps)
	}
	if result.SkippedSteps != 1 {
		t.Errorf("SkippedSteps = %d, want 1", result.SkippedSteps)
	}
	if result.WarnedSteps != 1 {
		t.Errorf("WarnedSteps = %d, want 1", result.WarnedSteps)
	}
}

func TestScenarioResult_AggregateStatus(t *testing.T) {
	tests := []struct {
		name  string
		steps []StepStatus
		want  StepStatus
	}{
		{"all passed", []StepStatus{StatusPassed, StatusPassed}, StatusPassed},
		{"empty", nil, StatusPassed},
		{"warned", []StepStatus{StatusPassed, StatusWarned}, StatusWarned},
		{"failed", []StepStatus{StatusPassed, StatusFailed, StatusWarned}, StatusFailed},
		{"errored", []StepStatus{StatusErrored}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ScenarioResult{}
			for _, s := range tt.steps {
				r.Steps = append(r.Steps, StepResult{Status: s})
			}
			if got := r.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSuiteResult_ComputeSummary(t *testing.T) {
	suite := &SuiteResult{
		Scenarios: []ScenarioResult{
			{Status: StatusPassed},
			{Status: StatusWarned},
			{Status: StatusFailed},
			{Status: StatusErrored},
			{Status: StatusSkipped},
		},
	}

	suite.ComputeSummary()

	if suite.TotalScenarios != 5 {
		t.Errorf("TotalScenarios = %d, want 5", suite.TotalScenarios)
	}
	if suite.PassedScenarios != 2 {
		t.Errorf("PassedScenarios = %d, want 2", suite.PassedScenarios)
	}
	if suite.FailedScenarios != 2 {
		t.Errorf("FailedScenarios = %d, want 2", suite.FailedScenarios)
	}
	if suite.SkippedScenarios != 1 {
		t.Errorf("SkippedScenarios = %d, want 1", suite.SkippedScenarios)
	}
}

func TestSuiteResult_Success(t *testing.T) {
	tests := []struct {
		name     string
		statuses []StepStatus
		want     bool
	}{
		{"all passed", []StepStatus{StatusPassed, StatusWarned}, true},
		{"one failed", []StepStatus{StatusPassed, StatusFailed}, false},
		{"skipped ignored", []StepStatus{StatusPassed, StatusSkipped}, true},
		{"only skipped", []StepStatus{StatusSkipped}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite := &SuiteResult{}
			for _, s := range tt.statuses {
				suite.Scenarios = append(suite.Scenarios, ScenarioResult{Status: s})
			}
			if got := suite.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}
