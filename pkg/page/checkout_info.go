package page

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/locator"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// CheckoutInfo is the customer information form.
type CheckoutInfo struct {
	*Base
}

// NewCheckoutInfo creates the checkout information page.
func NewCheckoutInfo(d core.Driver, opts Options) *CheckoutInfo {
	return &CheckoutInfo{Base: newBase(d, "checkout info", checkoutInfoSelectors.Screen, opts)}
}

// Fill enters c into the form. Fields the screen does not render are
// skipped.
func (p *CheckoutInfo) Fill(ctx context.Context, c fixture.Customer) error {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return err
	}
	fields := []struct {
		chain locator.Chain
		value string
	}{
		{checkoutInfoSelectors.FirstName, c.FirstName},
		{checkoutInfoSelectors.LastName, c.LastName},
		{checkoutInfoSelectors.Address, c.Address},
		{checkoutInfoSelectors.City, c.City},
		{checkoutInfoSelectors.State, c.State},
		{checkoutInfoSelectors.ZipCode, c.ZipCode},
		{checkoutInfoSelectors.Phone, c.Phone},
		{checkoutInfoSelectors.Email, c.Email},
	}
	for _, f := range fields {
		if f.chain.Optional && !p.Exists(f.chain) {
			logger.Debug("%s not on screen, skipped", f.chain.Name)
			continue
		}
		if err := p.SetText(ctx, f.chain, f.value); err != nil {
			return fmt.Errorf("fill %s: %w", f.chain.Name, err)
		}
	}
	return nil
}

// Collects reports whether the form renders an input for f.
func (p *CheckoutInfo) Collects(f fixture.CustomerField) bool {
	chains := map[fixture.CustomerField]locator.Chain{
		fixture.FirstName: checkoutInfoSelectors.FirstName,
		fixture.LastName:  checkoutInfoSelectors.LastName,
		fixture.Address:   checkoutInfoSelectors.Address,
		fixture.City:      checkoutInfoSelectors.City,
		fixture.State:     checkoutInfoSelectors.State,
		fixture.ZipCode:   checkoutInfoSelectors.ZipCode,
		fixture.Phone:     checkoutInfoSelectors.Phone,
		fixture.Email:     checkoutInfoSelectors.Email,
	}
	c, ok := chains[f]
	return ok && p.Exists(c)
}

// Continue taps CONTINUE. With missing fields the app stays here and shows
// an error.
func (p *CheckoutInfo) Continue(ctx context.Context) error {
	return p.Click(ctx, checkoutInfoSelectors.Continue)
}

// Cancel returns to the cart.
func (p *CheckoutInfo) Cancel(ctx context.Context) error {
	return p.Navigate(ctx, checkoutInfoSelectors.Cancel)
}

// FillAndContinue fills the form and taps CONTINUE.
func (p *CheckoutInfo) FillAndContinue(ctx context.Context, c fixture.Customer) error {
	if err := p.Fill(ctx, c); err != nil {
		return err
	}
	return p.Continue(ctx)
}

// IsErrorDisplayed reports whether a validation error is showing.
func (p *CheckoutInfo) IsErrorDisplayed() bool {
	return p.IsDisplayed(checkoutInfoSelectors.Error)
}

// ErrorMessage returns the validation error, or "" when none is shown.
func (p *CheckoutInfo) ErrorMessage() (string, error) {
	return p.OptionalText(checkoutInfoSelectors.Error)
}
