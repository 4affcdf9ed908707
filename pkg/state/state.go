// Package state holds the mutable record of a single test run: the fixtures a
// scenario chose, what it read back from the app, and run metadata.
//
// A State is owned by one scenario at a time and is not safe for concurrent
// use.
package state

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
)

// Metadata describes the current run.
type Metadata struct {
	TestID    string        `json:"testId"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Started   bool          `json:"started"`
}

// State is the per-run record. Every setter is last-write-wins; getters
// return nil after Reset.
type State struct {
	clock backoff.Clock

	testID    string
	startTime time.Time

	product      *fixture.Product
	products     []fixture.Product
	customer     *fixture.Customer
	payment      *fixture.Payment
	summary      *fixture.OrderSummary
	confirmation *fixture.OrderConfirmation
	custom       map[string]interface{}
}

// New creates an empty state. A nil clock uses the wall clock.
func New(clock backoff.Clock) *State {
	if clock == nil {
		clock = backoff.SystemClock
	}
	return &State{clock: clock, custom: map[string]interface{}{}}
}

// InitTest clears everything and starts a run named id.
func (s *State) InitTest(id string) {
	s.Reset()
	s.testID = id
	s.startTime = s.clock.Now()
}

// Reset clears every slot, the custom values and the run metadata.
func (s *State) Reset() {
	s.testID = ""
	s.startTime = time.Time{}
	s.product = nil
	s.products = nil
	s.customer = nil
	s.payment = nil
	s.summary = nil
	s.confirmation = nil
	s.custom = map[string]interface{}{}
}

// SetProduct records the product currently under test.
func (s *State) SetProduct(p fixture.Product) { s.product = &p }

// Product returns the product under test, or nil.
func (s *State) Product() *fixture.Product { return s.product }

// AddProduct appends p to the products placed in the cart.
func (s *State) AddProduct(p fixture.Product) {
	s.products = append(s.products, p)
}

// Products returns the products placed in the cart, in order.
func (s *State) Products() []fixture.Product {
	out := make([]fixture.Product, len(s.products))
	copy(out, s.products)
	return out
}

// SetCustomer records the customer entered at checkout.
func (s *State) SetCustomer(c fixture.Customer) { s.customer = &c }

// Customer returns the recorded customer, or nil.
func (s *State) Customer() *fixture.Customer { return s.customer }

// SetPayment records the payment used.
func (s *State) SetPayment(p fixture.Payment) { s.payment = &p }

// Payment returns the recorded payment, or nil.
func (s *State) Payment() *fixture.Payment { return s.payment }

// SetOrderSummary records the totals read from the overview screen.
func (s *State) SetOrderSummary(o fixture.OrderSummary) { s.summary = &o }

// OrderSummary returns the recorded summary, or nil.
func (s *State) OrderSummary() *fixture.OrderSummary { return s.summary }

// SetOrderConfirmation records what the complete screen showed.
func (s *State) SetOrderConfirmation(o fixture.OrderConfirmation) { s.confirmation = &o }

// OrderConfirmation returns the recorded confirmation, or nil.
func (s *State) OrderConfirmation() *fixture.OrderConfirmation { return s.confirmation }

// Set stores a custom value.
func (s *State) Set(key string, v interface{}) { s.custom[key] = v }

// Get returns a custom value.
func (s *State) Get(key string) (interface{}, bool) {
	v, ok := s.custom[key]
	return v, ok
}

// Metadata returns the run id, start time and elapsed time so far.
func (s *State) Metadata() Metadata {
	if s.startTime.IsZero() {
		return Metadata{TestID: s.testID}
	}
	return Metadata{
		TestID:    s.testID,
		StartTime: s.startTime,
		Duration:  s.clock.Now().Sub(s.startTime),
		Started:   true,
	}
}
