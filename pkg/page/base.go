// Package page implements page objects for the shop app screens. Each page
// composes the selector resolver, the wait engine and the retry engine over a
// core.Driver so scenarios can talk in terms of screens and products rather
// than element handles.
//
// Pages are not safe for concurrent use; a session runs one command at a
// time.
package page

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/shop-e2e/pkg/config"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/locator"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/retry"
	"github.com/devicelab-dev/shop-e2e/pkg/wait"
)

// State tracks where a page is in its lifecycle.
type State int

// Page states
const (
	NotLoaded State = iota
	Loaded
	Interacting
	Navigated
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Interacting:
		return "interacting"
	case Navigated:
		return "navigated"
	}
	return "not loaded"
}

// Swipe geometry, as fractions of the window height.
const (
	swipeTop      = 0.3
	swipeBottom   = 0.7
	swipeDuration = 800 * time.Millisecond
)

// Options configures page behaviour.
type Options struct {
	Retry            retry.Config  // element actions
	ElementTimeout   time.Duration // WaitForElement
	PageLoadTimeout  time.Duration // WaitForPageToLoad
	CandidateTimeout time.Duration // per locator in a chain
	Interval         time.Duration // polling interval
	ScreenshotDir    string

	// Credentials used when a page finds itself on the login screen.
	Credentials fixture.Credentials
	// Payments stands in for the payment backend.
	Payments PaymentResponder

	// Clock and Timer default to the wall clock.
	Clock backoff.Clock
	Timer backoff.Timer
}

// DefaultOptions returns the defaults: three attempts 500ms apart for element
// actions, 10s element and page-load waits polled every 500ms.
func DefaultOptions() Options {
	r := retry.DefaultConfig()
	r.IntervalMs = 500
	return Options{
		Retry:            r,
		ElementTimeout:   10 * time.Second,
		PageLoadTimeout:  10 * time.Second,
		CandidateTimeout: locator.DefaultCandidateTimeout,
		Interval:         wait.DefaultInterval,
		ScreenshotDir:    "reports/" + core.ScreenshotDirName,
		Credentials:      fixture.StandardUser,
		Payments:         AcceptAll,
	}
}

// OptionsFromConfig derives page options from the run configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	o := DefaultOptions()
	o.ElementTimeout = cfg.Timeouts.Element
	o.PageLoadTimeout = cfg.Timeouts.PageLoad
	o.CandidateTimeout = cfg.Timeouts.Candidate
	o.Interval = cfg.Timeouts.Poll
	o.ScreenshotDir = cfg.ScreenshotsDir()
	return o
}

func (o Options) clock() backoff.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return backoff.SystemClock
}

// Base holds what every page shares: the driver, a resolver and the chain
// that identifies the screen.
type Base struct {
	name     string
	driver   core.Driver
	resolver *locator.Resolver
	opts     Options
	identity locator.Chain
	state    State
}

func newBase(d core.Driver, name string, identity locator.Chain, opts Options) *Base {
	ropts := []locator.Option{locator.WithInterval(opts.Interval)}
	if opts.CandidateTimeout > 0 {
		ropts = append(ropts, locator.WithTimeout(opts.CandidateTimeout))
	}
	if opts.Clock != nil || opts.Timer != nil {
		ropts = append(ropts, locator.WithClock(opts.Clock, opts.Timer))
	}
	if opts.Payments == nil {
		opts.Payments = AcceptAll
	}
	return &Base{
		name:     name,
		driver:   d,
		resolver: locator.NewResolver(d, ropts...),
		opts:     opts,
		identity: identity,
	}
}

// Name returns the screen name.
func (b *Base) Name() string { return b.name }

// State returns the page state.
func (b *Base) State() State { return b.state }

func (b *Base) waitOpts(timeout time.Duration, what string) wait.Options {
	return wait.Options{
		Timeout:  timeout,
		Interval: b.opts.Interval,
		What:     what,
		Clock:    b.opts.Clock,
		Timer:    b.opts.Timer,
	}
}

func (b *Base) retryOpts(what string) []retry.Option {
	opts := []retry.Option{retry.WithName(what)}
	if b.opts.Timer != nil {
		opts = append(opts, retry.WithTimer(b.opts.Timer))
	}
	return opts
}

// permanent stops retries for errors no retry can fix.
func permanent(err error) error {
	if errors.Is(err, core.ErrSessionLost) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Permanent(err)
	}
	return err
}

// WaitForPageToLoad waits until the screen's identifying element is shown.
func (b *Base) WaitForPageToLoad(ctx context.Context) error {
	_, err := wait.For(ctx, b.waitOpts(b.opts.PageLoadTimeout, b.name+" screen"), func() (locator.Match, error) {
		return b.resolver.Probe(b.identity, locator.Displayed)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b.debugScreenshot(b.name + "-not-loaded")
		return core.ErrPageNotLoaded.WithMessage(fmt.Sprintf("%s screen not loaded", b.name)).WithCause(err)
	}
	b.state = Loaded
	logger.Debug("%s screen loaded", b.name)
	return nil
}

// IsPageDisplayed reports whether the screen is showing, without waiting.
func (b *Base) IsPageDisplayed() bool {
	return b.IsDisplayed(b.identity)
}

// WaitForElement waits up to the element timeout for any candidate of chain
// to be displayed.
func (b *Base) WaitForElement(ctx context.Context, chain locator.Chain) (string, error) {
	m, err := wait.For(ctx, b.waitOpts(b.opts.ElementTimeout, chain.Name+" displayed"), func() (locator.Match, error) {
		return b.resolver.Probe(chain, locator.Displayed)
	})
	if err != nil {
		return "", err
	}
	return m.ElementID, nil
}

func (b *Base) resolve(ctx context.Context, chain locator.Chain, pred locator.Predicate) (string, error) {
	m, err := b.resolver.Resolve(ctx, chain, pred)
	if err != nil {
		return "", err
	}
	return m.ElementID, nil
}

func (b *Base) clickOnce(ctx context.Context, chain locator.Chain) error {
	id, err := b.resolve(ctx, chain, locator.Displayed)
	if err != nil {
		return permanent(err)
	}
	return permanent(b.driver.ClickElement(id))
}

// Click taps the element.
func (b *Base) Click(ctx context.Context, chain locator.Chain) error {
	b.state = Interacting
	return retry.Do(ctx, b.opts.Retry, func() error {
		return b.clickOnce(ctx, chain)
	}, b.retryOpts("click "+chain.Name)...)
}

// Navigate taps an element that leaves this screen. A screenshot is taken on
// the first failed attempt.
func (b *Base) Navigate(ctx context.Context, chain locator.Chain) error {
	b.state = Interacting
	attempt := 0
	err := retry.Do(ctx, b.opts.Retry, func() error {
		attempt++
		err := b.clickOnce(ctx, chain)
		if err != nil && attempt == 1 {
			b.debugScreenshot(b.name + "-" + chain.Name + "-failed")
		}
		return err
	}, b.retryOpts("navigate "+chain.Name)...)
	if err != nil {
		return err
	}
	b.state = Navigated
	return nil
}

// SetText clears the field and types text.
func (b *Base) SetText(ctx context.Context, chain locator.Chain, text string) error {
	b.state = Interacting
	return retry.Do(ctx, b.opts.Retry, func() error {
		id, err := b.resolve(ctx, chain, locator.Displayed)
		if err != nil {
			return permanent(err)
		}
		if err := b.driver.ClearElement(id); err != nil {
			return permanent(err)
		}
		if text == "" {
			return nil
		}
		return permanent(b.driver.ElementSendKeys(id, text))
	}, b.retryOpts("set text "+chain.Name)...)
}

// Text returns the element's text.
func (b *Base) Text(ctx context.Context, chain locator.Chain) (string, error) {
	return retry.DoValue(ctx, b.opts.Retry, func() (string, error) {
		id, err := b.resolve(ctx, chain, locator.Exists)
		if err != nil {
			return "", permanent(err)
		}
		s, err := b.driver.GetElementText(id)
		return s, permanent(err)
	}, b.retryOpts("text "+chain.Name)...)
}

// OptionalText returns the element's text, or "" when no candidate exists.
func (b *Base) OptionalText(chain locator.Chain) (string, error) {
	m, err := b.resolver.Probe(chain, locator.Exists)
	if err != nil {
		return "", nil
	}
	return b.driver.GetElementText(m.ElementID)
}

// childText reads the text of chain under parentID.
func (b *Base) childText(parentID string, chain locator.Chain) (string, error) {
	m, err := b.resolver.ProbeWithin(parentID, chain, locator.Exists)
	if err != nil {
		return "", err
	}
	return b.driver.GetElementText(m.ElementID)
}

// IsDisplayed reports whether chain is showing now. It never errors.
func (b *Base) IsDisplayed(chain locator.Chain) bool {
	_, err := b.resolver.Probe(chain, locator.Displayed)
	return err == nil
}

// Exists reports whether chain is in the tree now, shown or not.
func (b *Base) Exists(chain locator.Chain) bool {
	_, err := b.resolver.Probe(chain, locator.Exists)
	return err == nil
}

// Count returns how many elements chain matches.
func (b *Base) Count(chain locator.Chain) (int, error) {
	ids, err := b.resolver.FindAll(chain)
	return len(ids), err
}

// TakeScreenshot saves a PNG named after name under the screenshot directory.
func (b *Base) TakeScreenshot(name string) (string, error) {
	path, err := core.SaveScreenshot(b.driver, b.opts.ScreenshotDir, name, b.opts.clock().Now())
	if err != nil {
		return "", err
	}
	logger.Info("screenshot saved: %s", path)
	return path, nil
}

func (b *Base) debugScreenshot(name string) {
	if _, err := b.TakeScreenshot(name); err != nil {
		logger.Warn("debug screenshot %s: %v", name, err)
	}
}

// SwipeVertical swipes along the window's vertical centre line between two
// fractions of its height.
func (b *Base) SwipeVertical(start, end float64, duration time.Duration) error {
	rect, err := b.driver.WindowRect()
	if err != nil {
		return fmt.Errorf("window rect: %w", err)
	}
	x, _ := rect.Center()
	return b.driver.Swipe(x, rect.YAt(start), x, rect.YAt(end), int(duration/time.Millisecond))
}

// SwipeUp scrolls content up.
func (b *Base) SwipeUp() error {
	return b.SwipeVertical(swipeBottom, swipeTop, swipeDuration)
}

// SwipeDown scrolls content down.
func (b *Base) SwipeDown() error {
	return b.SwipeVertical(swipeTop, swipeBottom, swipeDuration)
}

var nonDigits = regexp.MustCompile(`\D`)

// badgeCount reads a numeric badge; 0 when absent or empty.
func (b *Base) badgeCount(chain locator.Chain) int {
	m, err := b.resolver.Probe(chain, locator.Exists)
	if err != nil {
		return 0
	}
	s, err := b.driver.GetElementText(m.ElementID)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(nonDigits.ReplaceAllString(s, ""))
	if err != nil {
		return 0
	}
	return n
}

// rowByName returns the row whose title reads name.
func (b *Base) rowByName(rows locator.Chain, title locator.Chain, name string) (string, error) {
	ids, err := b.resolver.FindAll(rows)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		t, err := b.childText(id, title)
		if err == nil && strings.EqualFold(strings.TrimSpace(t), name) {
			return id, nil
		}
	}
	return "", &core.NotFoundError{Name: rows.Name + "(" + name + ")", Locators: rows.Locators()}
}

func outOfBounds(what string, i, n int) error {
	return fmt.Errorf("%s index %d out of bounds (max: %d)", what, i, n-1)
}
