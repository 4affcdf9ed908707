package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/wait"
)

// DefaultCandidateTimeout bounds the wait on each candidate of a chain.
const DefaultCandidateTimeout = 2 * time.Second

var errNotDisplayed = errors.New("element not displayed")

// Finder is the subset of core.Driver the resolver queries.
type Finder interface {
	FindElement(strategy, value string) (string, error)
	FindElements(strategy, value string) ([]string, error)
	FindChildElement(parentID, strategy, value string) (string, error)
	FindChildElements(parentID, strategy, value string) ([]string, error)
	IsElementDisplayed(elementID string) (bool, error)
}

// Match is a resolved element and the locator that found it.
type Match struct {
	Locator   Locator
	ElementID string
}

// Resolver resolves chains against a Finder.
type Resolver struct {
	finder   Finder
	timeout  time.Duration
	interval time.Duration
	clock    backoff.Clock
	timer    backoff.Timer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the default per-candidate timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(r *Resolver) { r.interval = d }
}

// WithClock replaces the wall clock and timer used while polling.
func WithClock(c backoff.Clock, t backoff.Timer) Option {
	return func(r *Resolver) {
		r.clock = c
		r.timer = t
	}
}

// NewResolver creates a resolver over f.
func NewResolver(f Finder, opts ...Option) *Resolver {
	r := &Resolver{finder: f, timeout: DefaultCandidateTimeout, interval: wait.DefaultInterval}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve tries each candidate in order, polling it for up to the chain's
// per-candidate timeout, and returns the first that satisfies pred. When none
// does it returns a *core.NotFoundError listing every locator tried.
func (r *Resolver) Resolve(ctx context.Context, chain Chain, pred Predicate) (Match, error) {
	return r.resolve(ctx, "", chain, pred, r.candidateTimeout(chain))
}

// ResolveWithin is Resolve scoped to the descendants of parentID.
func (r *Resolver) ResolveWithin(ctx context.Context, parentID string, chain Chain, pred Predicate) (Match, error) {
	return r.resolve(ctx, parentID, chain, pred, r.candidateTimeout(chain))
}

// Probe makes a single pass over the chain without waiting.
func (r *Resolver) Probe(chain Chain, pred Predicate) (Match, error) {
	return r.resolve(context.Background(), "", chain, pred, 0)
}

// ProbeWithin is Probe scoped to the descendants of parentID.
func (r *Resolver) ProbeWithin(parentID string, chain Chain, pred Predicate) (Match, error) {
	return r.resolve(context.Background(), parentID, chain, pred, 0)
}

// FindAll returns the elements matched by the first candidate that yields
// any. An empty result is not an error.
func (r *Resolver) FindAll(chain Chain) ([]string, error) {
	return r.findAll("", chain)
}

// FindAllWithin is FindAll scoped to the descendants of parentID.
func (r *Resolver) FindAllWithin(parentID string, chain Chain) ([]string, error) {
	return r.findAll(parentID, chain)
}

func (r *Resolver) candidateTimeout(chain Chain) time.Duration {
	if chain.Timeout > 0 {
		return chain.Timeout
	}
	return r.timeout
}

func (r *Resolver) resolve(ctx context.Context, parentID string, chain Chain, pred Predicate, timeout time.Duration) (Match, error) {
	var lastErr error
	for _, loc := range chain.Candidates {
		opts := wait.Options{
			Timeout:  timeout,
			Interval: r.interval,
			What:     fmt.Sprintf("%s %s via %s", chain.Name, pred, loc),
			Clock:    r.clock,
			Timer:    r.timer,
		}
		id, err := wait.For(ctx, opts, func() (string, error) {
			return r.lookup(parentID, loc, pred)
		})
		if err == nil {
			logger.Debug("resolved %s via %s", chain.Name, loc)
			return Match{Locator: loc, ElementID: id}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Match{}, ctxErr
		}
		logger.Debug("candidate %s for %s failed: %v", loc, chain.Name, err)
		lastErr = err
	}
	return Match{}, &core.NotFoundError{Name: chain.Name, Locators: chain.Locators(), Cause: lastErr}
}

func (r *Resolver) lookup(parentID string, loc Locator, pred Predicate) (string, error) {
	strategy, value := loc.Parse()
	var (
		id  string
		err error
	)
	if parentID != "" {
		id, err = r.finder.FindChildElement(parentID, strategy, value)
	} else {
		id, err = r.finder.FindElement(strategy, value)
	}
	if err != nil {
		return "", err
	}
	if pred == Displayed {
		shown, err := r.finder.IsElementDisplayed(id)
		if err != nil {
			return "", err
		}
		if !shown {
			return "", errNotDisplayed
		}
	}
	return id, nil
}

func (r *Resolver) findAll(parentID string, chain Chain) ([]string, error) {
	var lastErr error
	for _, loc := range chain.Candidates {
		strategy, value := loc.Parse()
		var (
			ids []string
			err error
		)
		if parentID != "" {
			ids, err = r.finder.FindChildElements(parentID, strategy, value)
		} else {
			ids, err = r.finder.FindElements(strategy, value)
		}
		if err != nil {
			lastErr = err
			continue
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("find all %s: %w", chain.Name, lastErr)
	}
	return nil, nil
}
