package scenario

import (
	"context"
	"errors"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/devicelab-dev/shop-e2e/pkg/config"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/page"
	"github.com/devicelab-dev/shop-e2e/pkg/report"
	"github.com/devicelab-dev/shop-e2e/pkg/state"
)

// SuiteName names the suite in results.
const SuiteName = "shop-e2e"

// SessionFactory opens a new automation session.
type SessionFactory func(ctx context.Context) (core.Session, error)

// RunnerConfig configures the scenario runner.
type RunnerConfig struct {
	Config      *config.Config
	PageOptions page.Options
	Seed        int64 // generator seed; scenario i uses Seed+i

	// Tag filters. A scenario runs when it has any include tag (or no
	// include tags are set) and none of the exclude tags.
	IncludeTags []string
	ExcludeTags []string

	// Clock defaults to the wall clock.
	Clock backoff.Clock

	// Report, when set, receives live progress.
	Report *report.Writer

	// Live progress callbacks
	OnScenarioStart func(idx, total int, name string)
	OnScenarioEnd   func(idx int, res core.ScenarioResult)
}

// Runner executes scenarios sequentially.
type Runner struct {
	factory SessionFactory
	config  RunnerConfig
}

// NewRunner creates a runner that opens sessions with factory.
func NewRunner(factory SessionFactory, cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = backoff.SystemClock
	}
	if cfg.Config == nil {
		cfg.Config = config.Default()
	}
	return &Runner{factory: factory, config: cfg}
}

// Selected reports whether s passes the tag filters.
func (r *Runner) Selected(s Scenario) bool {
	return Selected(s, r.config.IncludeTags, r.config.ExcludeTags)
}

// Selected reports whether s passes the include and exclude tag filters.
func Selected(s Scenario, include, exclude []string) bool {
	for _, t := range exclude {
		if s.HasTag(t) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, t := range include {
		if s.HasTag(t) {
			return true
		}
	}
	return false
}

// Run executes scenarios in order. Filtered scenarios, and every scenario
// after ctx is cancelled, are recorded as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) *core.SuiteResult {
	clk := r.config.Clock
	suite := &core.SuiteResult{
		Name:      SuiteName,
		RunID:     uuid.NewString(),
		StartTime: clk.Now(),
		Scenarios: make([]core.ScenarioResult, len(scenarios)),
	}
	r.reportDo(func(w *report.Writer) error { return w.Start() })

	for i, s := range scenarios {
		switch {
		case ctx.Err() != nil:
			suite.Scenarios[i] = skipped(s, clk, "cancelled: "+ctx.Err().Error())
		case !r.Selected(s):
			suite.Scenarios[i] = skipped(s, clk, "")
		default:
			if r.config.OnScenarioStart != nil {
				r.config.OnScenarioStart(i, len(scenarios), s.Name)
			}
			r.reportDo(func(w *report.Writer) error { return w.ScenarioStarted(i) })
			suite.Scenarios[i] = r.runOne(ctx, i, s)
		}

		res := suite.Scenarios[i]
		r.reportDo(func(w *report.Writer) error { return w.ScenarioFinished(i, res) })
		if r.config.OnScenarioEnd != nil {
			r.config.OnScenarioEnd(i, res)
		}
	}

	r.reportDo(func(w *report.Writer) error { return w.End() })
	suite.Duration = timed(clk, suite.StartTime)
	suite.ComputeSummary()
	logger.Info("suite %s finished: %d passed, %d failed, %d skipped in %s",
		suite.RunID, suite.PassedScenarios, suite.FailedScenarios, suite.SkippedScenarios, suite.Duration)
	return suite
}

// reportDo applies fn to the report writer, if any. Report failures are
// logged and never fail the run.
func (r *Runner) reportDo(fn func(w *report.Writer) error) {
	if r.config.Report == nil {
		return
	}
	if err := fn(r.config.Report); err != nil {
		logger.Warn("report update failed: %v", err)
	}
}

func skipped(s Scenario, clk backoff.Clock, reason string) core.ScenarioResult {
	return core.ScenarioResult{
		Name:      s.Name,
		Tags:      s.Tags,
		Status:    core.StatusSkipped,
		StartTime: clk.Now(),
		Error:     reason,
	}
}

func (r *Runner) runOne(ctx context.Context, idx int, s Scenario) core.ScenarioResult {
	clk := r.config.Clock
	res := core.ScenarioResult{
		Name:      s.Name,
		Tags:      s.Tags,
		RunID:     uuid.NewString(),
		Status:    core.StatusRunning,
		StartTime: clk.Now(),
	}
	log := logger.L().Sugar().With("scenario", s.Name, "runId", res.RunID)
	log.Infow("scenario started")

	sess, err := r.factory(ctx)
	if err != nil {
		if !errors.Is(err, core.ErrSessionNotCreated) {
			err = core.ErrSessionNotCreated.WithCause(err)
		}
		log.Errorw("session not created", "error", err)
		res.Status = core.StatusErrored
		res.Category = core.ErrCategorySession
		res.Error = err.Error()
		res.Duration = timed(clk, res.StartTime)
		return res
	}
	defer func() {
		if err := sess.Disconnect(); err != nil {
			log.Warnw("disconnect failed", "error", err)
		}
	}()

	st := state.New(clk)
	st.InitTest(res.RunID)
	data := fixture.New(r.config.Seed+int64(idx), fixture.WithNow(clk.Now))
	env := newEnv(sess, r.config.PageOptions, r.config.Config, data, st, clk, log)

	err = s.Run(ctx, env)

	res.Steps = env.Steps()
	res.ComputeSummary()
	if err != nil {
		res.Status, res.Category = classify(err)
		res.Error = err.Error()
		if a, ok := r.failureScreenshot(sess, s.Name); ok {
			res.Attachments = append(res.Attachments, a)
		}
		log.Errorw("scenario failed", "category", res.Category.String(), "error", err)
	} else {
		res.Status = res.AggregateStatus()
		if res.Status == core.StatusFailed {
			res.Error = "one or more steps failed"
			res.Category = firstStepCategory(res.Steps)
		}
	}
	res.Duration = timed(clk, res.StartTime)
	log.Infow("scenario finished", "status", res.Status.String(), "duration", res.Duration)
	return res
}

// failureScreenshot saves FAIL_<name>. Errors are logged only.
func (r *Runner) failureScreenshot(d core.ScreenCapturer, name string) (core.Attachment, bool) {
	path, err := core.SaveScreenshot(d, r.screenshotDir(), "FAIL_"+fileSafe(name), r.config.Clock.Now())
	if err != nil {
		logger.Warn("failure screenshot for %s: %v", name, err)
		return core.Attachment{}, false
	}
	return core.NewScreenshotAttachment(path, nil), true
}

func (r *Runner) screenshotDir() string {
	if r.config.PageOptions.ScreenshotDir != "" {
		return r.config.PageOptions.ScreenshotDir
	}
	return r.config.Config.ScreenshotsDir()
}

func firstStepCategory(steps []core.StepResult) core.ErrorCategory {
	for _, s := range steps {
		if s.Status == core.StatusFailed || s.Status == core.StatusErrored {
			return s.Category
		}
	}
	return core.ErrCategoryNone
}

// fileSafe replaces characters that do not belong in file names.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '(', ')', ',':
			return '_'
		}
		return r
	}, name)
}
