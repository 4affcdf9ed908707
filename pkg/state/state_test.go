package state

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/shop-e2e/pkg/clock"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestState_InitTestAndMetadata(t *testing.T) {
	fc := clock.NewFake(start)
	s := New(fc)

	assert.False(t, s.Metadata().Started)

	s.InitTest("run-1")
	fc.Advance(3 * time.Second)

	want := Metadata{TestID: "run-1", StartTime: start, Duration: 3 * time.Second, Started: true}
	if diff := cmp.Diff(want, s.Metadata()); diff != "" {
		t.Errorf("Metadata() mismatch (-want +got):\n%s", diff)
	}
}

func TestState_LastWriteWins(t *testing.T) {
	s := New(clock.NewFake(start))
	g := fixture.New(1)

	first, second := g.ValidCustomer(), g.ValidCustomer()
	s.SetCustomer(first)
	s.SetCustomer(second)
	require.NotNil(t, s.Customer())
	assert.Equal(t, second, *s.Customer())

	p, _ := fixture.ProductByID("2")
	s.SetProduct(p)
	assert.Equal(t, "Sauce Labs Bike Light", s.Product().Name)
}

func TestState_StoresCopies(t *testing.T) {
	s := New(nil)
	c := fixture.New(2).ValidCustomer()
	s.SetCustomer(c)
	c.FirstName = "mutated"
	assert.NotEqual(t, "mutated", s.Customer().FirstName)
}

func TestState_ResetClearsEverything(t *testing.T) {
	s := New(clock.NewFake(start))
	g := fixture.New(3)
	s.InitTest("run-2")
	s.SetProduct(g.RandomProduct())
	s.AddProduct(g.RandomProduct())
	s.SetCustomer(g.ValidCustomer())
	s.SetPayment(g.ValidPayment(fixture.Amex))
	s.SetOrderSummary(fixture.OrderSummary{Total: "Total: $32.39"})
	s.SetOrderConfirmation(fixture.OrderConfirmation{Header: fixture.MsgOrderComplete})
	s.Set("sortOrder", "hilo")

	s.Reset()

	assert.Nil(t, s.Product())
	assert.Empty(t, s.Products())
	assert.Nil(t, s.Customer())
	assert.Nil(t, s.Payment())
	assert.Nil(t, s.OrderSummary())
	assert.Nil(t, s.OrderConfirmation())
	_, ok := s.Get("sortOrder")
	assert.False(t, ok)
	assert.Equal(t, Metadata{}, s.Metadata())
}

func TestState_InitTestClearsPreviousRun(t *testing.T) {
	s := New(clock.NewFake(start))
	s.Set("k", 1)
	s.AddProduct(fixture.Products()[0])

	s.InitTest("run-3")

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Empty(t, s.Products())
	assert.Equal(t, "run-3", s.Metadata().TestID)
}

func TestState_Products(t *testing.T) {
	s := New(nil)
	all := fixture.Products()
	s.AddProduct(all[0])
	s.AddProduct(all[2])

	got := s.Products()
	require.Len(t, got, 2)
	assert.Equal(t, all[2].Name, got[1].Name)

	got[0].Name = "changed"
	assert.Equal(t, all[0].Name, s.Products()[0].Name)
}
