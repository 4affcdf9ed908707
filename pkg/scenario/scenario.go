// Package scenario defines the shop scenarios and the runner that executes
// them, one automation session per scenario.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/devicelab-dev/shop-e2e/pkg/config"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/page"
	"github.com/devicelab-dev/shop-e2e/pkg/state"
)

// Scenario is one end-to-end check.
type Scenario struct {
	Name string
	Tags []string
	Run  func(ctx context.Context, env *Env) error
}

// HasTag reports whether the scenario carries tag.
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Env is what a scenario works with. A new Env is built for every scenario.
type Env struct {
	Driver core.Driver
	Pages  *page.Set
	Data   *fixture.Generator
	State  *state.State
	Config *config.Config
	Log    *zap.SugaredLogger

	opts  page.Options
	clock backoff.Clock
	steps []core.StepResult
}

func newEnv(d core.Driver, opts page.Options, cfg *config.Config, data *fixture.Generator, st *state.State, clk backoff.Clock, log *zap.SugaredLogger) *Env {
	return &Env{
		Driver: d,
		Pages:  page.NewSet(d, opts),
		Data:   data,
		State:  st,
		Config: cfg,
		Log:    log,
		opts:   opts,
		clock:  clk,
	}
}

// UsePayments rebuilds the page set with r as the payment backend.
func (e *Env) UsePayments(r page.PaymentResponder) {
	e.opts.Payments = r
	e.Pages = page.NewSet(e.Driver, e.opts)
}

// Step runs fn as a named step and records its outcome. The error is
// returned unchanged.
func (e *Env) Step(name string, fn func() error) error {
	return e.step(name, false, fn)
}

// OptionalStep runs fn as a step whose failure is recorded as a warning and
// does not fail the scenario.
func (e *Env) OptionalStep(name string, fn func() error) {
	_ = e.step(name, true, fn)
}

func (e *Env) step(name string, optional bool, fn func() error) error {
	start := e.clock.Now()
	res := core.StepResult{
		Index:     len(e.steps),
		Name:      name,
		Optional:  optional,
		StartTime: start,
	}
	err := fn()
	res.Duration = e.clock.Now().Sub(start)
	switch {
	case err == nil:
		res.Status = core.StatusPassed
	case optional:
		res.Status = core.StatusWarned
		res.Error = err.Error()
		res.Category = core.CategoryOf(err)
		e.Log.Warnw("optional step failed", "step", name, "error", err)
		err = nil
	default:
		res.Status, res.Category = classify(err)
		res.Error = err.Error()
	}
	e.steps = append(e.steps, res)
	e.Log.Debugw("step finished", "step", name, "status", res.Status.String(), "duration", res.Duration)
	return err
}

// Steps returns the recorded steps.
func (e *Env) Steps() []core.StepResult {
	return append([]core.StepResult(nil), e.steps...)
}

// classify maps an error to errored for infrastructure problems and failed
// for everything else. A lost session is reported as a session error even
// when it surfaced through a lookup or wait.
func classify(err error) (core.StepStatus, core.ErrorCategory) {
	if errors.Is(err, core.ErrSessionLost) {
		return core.StatusErrored, core.ErrCategorySession
	}
	cat := core.CategoryOf(err)
	switch cat {
	case core.ErrCategorySession, core.ErrCategoryConfig:
		return core.StatusErrored, cat
	}
	return core.StatusFailed, cat
}

// Assertions. Each returns nil or an assertion-category error.

// Equal fails when got differs from want.
func Equal(what string, want, got interface{}) error {
	if reflect.DeepEqual(want, got) {
		return nil
	}
	return core.ErrTextMismatch.
		WithMessage(fmt.Sprintf("%s: expected %v, got %v", what, want, got)).
		WithDetails(map[string]interface{}{"expected": want, "actual": got})
}

// Contains fails when s does not contain sub.
func Contains(what, s, sub string) error {
	if strings.Contains(s, sub) {
		return nil
	}
	return core.ErrTextMismatch.
		WithMessage(fmt.Sprintf("%s: %q does not contain %q", what, s, sub)).
		WithDetails(map[string]interface{}{"expected": sub, "actual": s})
}

// True fails when cond is false.
func True(what string, cond bool) error {
	if cond {
		return nil
	}
	return core.ErrConditionNotMet.WithMessage(what)
}

// timed returns how long has elapsed on clk since start.
func timed(clk backoff.Clock, start time.Time) time.Duration {
	return clk.Now().Sub(start)
}
