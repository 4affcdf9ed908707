package scenario

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/devicelab-dev/shop-e2e/pkg/clock"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/mock"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/page"
	"github.com/devicelab-dev/shop-e2e/pkg/report"
)

// shops is a SessionFactory over mock shops that remembers what it opened.
type shops struct {
	mu     sync.Mutex
	opened []*mock.Shop
	err    error
}

func (s *shops) factory(context.Context) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	shop := mock.NewShop()
	s.opened = append(s.opened, shop)
	return shop, nil
}

func (s *shops) last() *mock.Shop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened[len(s.opened)-1]
}

type fixtureEnv struct {
	shops *shops
	clock *clock.Fake
	dir   string
	cfg   RunnerConfig
}

func newFixture(t *testing.T) *fixtureEnv {
	t.Helper()
	fc := clock.NewFake(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	dir := t.TempDir()
	opts := page.DefaultOptions()
	opts.Clock = fc
	opts.Timer = fc
	opts.ScreenshotDir = filepath.Join(dir, core.ScreenshotDirName)
	return &fixtureEnv{
		shops: &shops{},
		clock: fc,
		dir:   dir,
		cfg:   RunnerConfig{PageOptions: opts, Seed: 42, Clock: fc},
	}
}

func (f *fixtureEnv) run(t *testing.T, ctx context.Context, scenarios ...Scenario) *core.SuiteResult {
	t.Helper()
	return NewRunner(f.shops.factory, f.cfg).Run(ctx, scenarios)
}

func byName(t *testing.T, suite *core.SuiteResult, name string) core.ScenarioResult {
	t.Helper()
	for _, r := range suite.Scenarios {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no result for %q", name)
	return core.ScenarioResult{}
}

func TestCatalogue_PassesAgainstShop(t *testing.T) {
	f := newFixture(t)

	suite := f.run(t, context.Background(), All()...)

	for _, r := range suite.Scenarios {
		want := core.StatusPassed
		if r.Name == "checkout rejects missing email" {
			want = core.StatusWarned
		}
		assert.Equal(t, want.String(), r.Status.String(), "%s: %s", r.Name, r.Error)
		assert.NotEmpty(t, r.RunID, r.Name)
		assert.NotEmpty(t, r.Steps, r.Name)
	}
	assert.True(t, suite.Success())
	assert.Equal(t, len(All()), suite.PassedScenarios)
	assert.Len(t, f.shops.opened, len(All()), "one session per scenario")
	for _, s := range f.shops.opened {
		assert.True(t, s.Disconnected())
	}
}

func TestCatalogue_Contents(t *testing.T) {
	all := All()
	names := map[string]bool{}
	for _, s := range all {
		assert.False(t, names[s.Name], "duplicate scenario %q", s.Name)
		names[s.Name] = true
		assert.NotEmpty(t, s.Tags, s.Name)
	}
	for _, want := range []string{
		"login page is displayed",
		"login with locked out user",
		"add product to cart from details",
		"sort products by Price (high to low)",
		"toggle product view",
		"checkout requires zipCode",
		"checkout with amex",
		"checkout rejects missing cvv",
		"payment server error",
	} {
		assert.True(t, names[want], want)
	}
	assert.Len(t, all, 7+5+4+1+3+2+5+4+1)
}

func TestCatalogue_MissingEmailIsWarned(t *testing.T) {
	f := newFixture(t)

	suite := f.run(t, context.Background(), All()...)

	r := byName(t, suite, "checkout rejects missing email")
	require.NotEmpty(t, r.Steps)
	var warned []core.StepResult
	for _, s := range r.Steps {
		if s.Status == core.StatusWarned {
			warned = append(warned, s)
		}
	}
	require.Len(t, warned, 1)
	assert.True(t, warned[0].Optional)
	assert.Equal(t, "form collects email", warned[0].Name)
	assert.Equal(t, core.ErrCategoryAssertion, warned[0].Category)
	assert.Equal(t, mock.ScreenOverview, f.shops.opened[indexOf(suite, r.Name)].Screen())
}

func indexOf(suite *core.SuiteResult, name string) int {
	for i, r := range suite.Scenarios {
		if r.Name == name {
			return i
		}
	}
	return -1
}

func TestRunner_SessionNotCreated(t *testing.T) {
	f := newFixture(t)
	f.shops.err = errors.New("connection refused")

	suite := f.run(t, context.Background(), Login()[0])

	r := suite.Scenarios[0]
	assert.Equal(t, core.StatusErrored, r.Status)
	assert.Equal(t, core.ErrCategorySession, r.Category)
	assert.Contains(t, r.Error, "connection refused")
	assert.Empty(t, r.Steps)
	assert.False(t, suite.Success())
	assert.Equal(t, 1, suite.FailedScenarios)
}

func TestRunner_FailureTakesScreenshot(t *testing.T) {
	f := newFixture(t)
	failing := Scenario{
		Name: "wrong cart count",
		Run: func(ctx context.Context, env *Env) error {
			return env.Step("count", func() error {
				if err := env.Pages.Products.WaitForPageToLoad(ctx); err != nil {
					return err
				}
				return Equal("cart badge", 3, env.Pages.Products.CartCount())
			})
		},
	}

	suite := f.run(t, context.Background(), failing)

	r := suite.Scenarios[0]
	assert.Equal(t, core.StatusFailed, r.Status)
	assert.Equal(t, core.ErrCategoryAssertion, r.Category)
	assert.ErrorContains(t, errors.New(r.Error), "cart badge: expected 3, got 0")
	require.Len(t, r.Attachments, 1)
	assert.Equal(t, core.AttachmentScreenshot, r.Attachments[0].Name)
	assert.FileExists(t, r.Attachments[0].Path)
	assert.Regexp(t, `^FAIL_wrong_cart_count_2025-05-01T09-\d\d-\d\d-\d{3}Z\.png$`, filepath.Base(r.Attachments[0].Path))
	require.Len(t, r.Steps, 1)
	assert.Equal(t, core.StatusFailed, r.Steps[0].Status)
}

func TestRunner_SessionLostIsErrored(t *testing.T) {
	f := newFixture(t)
	lost := Scenario{
		Name: "session drops",
		Run: func(ctx context.Context, env *Env) error {
			if err := env.Pages.Products.WaitForPageToLoad(ctx); err != nil {
				return err
			}
			require.NoError(t, f.shops.last().Disconnect())
			return env.Step("toggle", func() error { return env.Pages.Products.ToggleView(ctx) })
		},
	}

	suite := f.run(t, context.Background(), lost)

	r := suite.Scenarios[0]
	assert.Equal(t, core.StatusErrored, r.Status)
	assert.Equal(t, core.ErrCategorySession, r.Category)
	assert.Equal(t, core.StatusErrored, r.Steps[0].Status)
	assert.Empty(t, r.Attachments, "no screenshot from a lost session")
}

func TestRunner_SwallowedStepFailureStillFails(t *testing.T) {
	f := newFixture(t)
	s := Scenario{
		Name: "ignores its own failure",
		Run: func(ctx context.Context, env *Env) error {
			_ = env.Step("broken", func() error { return True("never", false) })
			return nil
		},
	}

	r := f.run(t, context.Background(), s).Scenarios[0]

	assert.Equal(t, core.StatusFailed, r.Status)
	assert.Equal(t, core.ErrCategoryAssertion, r.Category)
	assert.Equal(t, 1, r.FailedSteps)
}

func TestRunner_TagFilters(t *testing.T) {
	f := newFixture(t)
	f.cfg.IncludeTags = []string{TagLogin}
	f.cfg.ExcludeTags = []string{TagSmoke}

	suite := f.run(t, context.Background(), All()[:9]...)

	for _, r := range suite.Scenarios {
		s := Scenario{Tags: r.Tags}
		if s.HasTag(TagLogin) && !s.HasTag(TagSmoke) {
			assert.Equal(t, core.StatusPassed, r.Status, r.Name)
		} else {
			assert.Equal(t, core.StatusSkipped, r.Status, r.Name)
		}
	}
	assert.Equal(t, 5, suite.PassedScenarios)
	assert.Equal(t, 4, suite.SkippedScenarios)
}

func TestSelected(t *testing.T) {
	s := Scenario{Tags: []string{TagCart, TagSmoke}}
	assert.True(t, Selected(s, nil, nil))
	assert.True(t, Selected(s, []string{TagCart}, nil))
	assert.False(t, Selected(s, []string{TagLogin}, nil))
	assert.False(t, Selected(s, nil, []string{TagSmoke}))
}

func TestRunner_CancelledContextSkipsRemaining(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := Scenario{
		Name: "cancels",
		Run: func(context.Context, *Env) error {
			cancel()
			return nil
		},
	}

	suite := f.run(t, ctx, cancelling, Login()[0], Login()[1])

	assert.Equal(t, core.StatusPassed, suite.Scenarios[0].Status)
	assert.Equal(t, core.StatusSkipped, suite.Scenarios[1].Status)
	assert.Contains(t, suite.Scenarios[2].Error, "cancelled")
	assert.Len(t, f.shops.opened, 1)
}

func TestRunner_StateAndDataPerScenario(t *testing.T) {
	f := newFixture(t)
	var ids []string
	var customers []fixture.Customer
	probe := Scenario{
		Name: "probe",
		Run: func(ctx context.Context, env *Env) error {
			md := env.State.Metadata()
			assert.True(t, md.Started)
			assert.Nil(t, env.State.Customer(), "state starts empty")
			ids = append(ids, md.TestID)
			c := env.Data.ValidCustomer()
			env.State.SetCustomer(c)
			customers = append(customers, c)
			return nil
		},
	}

	f.run(t, context.Background(), probe, probe)
	again := newFixture(t)
	again.run(t, context.Background(), probe)

	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, customers[0], customers[1], "seed differs per scenario index")
	assert.Equal(t, customers[0], customers[2], "same seed and index give the same data")
}

func TestRunner_WritesReport(t *testing.T) {
	f := newFixture(t)
	scenarios := []Scenario{Login()[0], Login()[3]}
	planned := make([]report.Planned, len(scenarios))
	for i, s := range scenarios {
		planned[i] = report.Planned{Name: s.Name, Tags: s.Tags}
	}
	w, err := report.NewWriter(report.Config{OutputDir: f.dir, Now: f.clock.Now}, planned)
	require.NoError(t, err)
	f.cfg.Report = w

	var started, ended []int
	f.cfg.OnScenarioStart = func(idx, total int, name string) {
		assert.Equal(t, 2, total)
		started = append(started, idx)
	}
	f.cfg.OnScenarioEnd = func(idx int, res core.ScenarioResult) { ended = append(ended, idx) }

	suite := f.run(t, context.Background(), scenarios...)

	assert.True(t, suite.Success())
	assert.Equal(t, []int{0, 1}, started)
	assert.Equal(t, []int{0, 1}, ended)
	idx, err := report.ReadIndex(f.dir)
	require.NoError(t, err)
	assert.Equal(t, report.StatusPassed, idx.Status)
	assert.Equal(t, report.Summary{Total: 2, Passed: 2}, idx.Summary)
	assert.FileExists(t, filepath.Join(f.dir, idx.Scenarios[1].DataFile))
}

func TestEnv_StepLogging(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	logger.Use(zap.New(obs))
	t.Cleanup(func() { logger.Use(zap.NewNop()) })

	f := newFixture(t)
	s := Scenario{
		Name: "optional",
		Run: func(ctx context.Context, env *Env) error {
			env.OptionalStep("nice to have", func() error { return errors.New("missing") })
			return nil
		},
	}

	r := f.run(t, context.Background(), s).Scenarios[0]

	assert.Equal(t, "warned", r.Status.String())
	warn := logs.FilterMessage("optional step failed").All()
	require.Len(t, warn, 1)
	assert.Equal(t, "optional", warn[0].ContextMap()["scenario"])
	assert.Equal(t, "nice to have", warn[0].ContextMap()["step"])
}

func TestAssertions(t *testing.T) {
	assert.NoError(t, Equal("x", []string{"a"}, []string{"a"}))
	err := Equal("count", 1, 2)
	assert.ErrorIs(t, err, core.ErrTextMismatch)
	assert.EqualError(t, err, "count: expected 1, got 2")

	assert.NoError(t, Contains("msg", "Server error processing payment", "Server error"))
	assert.ErrorIs(t, Contains("msg", "ok", "error"), core.ErrTextMismatch)

	assert.NoError(t, True("fine", true))
	assert.ErrorIs(t, True("not fine", false), core.ErrConditionNotMet)
	assert.Equal(t, core.ErrCategoryAssertion, core.CategoryOf(True("x", false)))
}
