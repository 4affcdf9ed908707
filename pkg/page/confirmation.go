package page

import (
	"context"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
)

// OrderConfirmation is the checkout complete screen.
type OrderConfirmation struct {
	*Base
}

// NewOrderConfirmation creates the confirmation page.
func NewOrderConfirmation(d core.Driver, opts Options) *OrderConfirmation {
	return &OrderConfirmation{Base: newBase(d, "order confirmation", confirmationSelectors.Screen, opts)}
}

// Header returns the confirmation headline.
func (p *OrderConfirmation) Header(ctx context.Context) (string, error) {
	return p.Text(ctx, confirmationSelectors.Header)
}

// Message returns the confirmation body.
func (p *OrderConfirmation) Message(ctx context.Context) (string, error) {
	return p.Text(ctx, confirmationSelectors.Message)
}

// Extract reads the confirmation. Order number and dates are only filled
// when the build shows them.
func (p *OrderConfirmation) Extract(ctx context.Context) (fixture.OrderConfirmation, error) {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return fixture.OrderConfirmation{}, err
	}
	var out fixture.OrderConfirmation
	var err error
	if out.Header, err = p.Header(ctx); err != nil {
		return out, err
	}
	if out.Message, err = p.Message(ctx); err != nil {
		return out, err
	}
	out.OrderNumber, _ = p.OptionalText(confirmationSelectors.OrderNumber)
	out.OrderDate, _ = p.OptionalText(confirmationSelectors.OrderDate)
	out.OrderTotal, _ = p.OptionalText(confirmationSelectors.OrderTotal)
	out.DeliveryDate, _ = p.OptionalText(confirmationSelectors.DeliveryDate)
	return out, nil
}

// IsConfirmationDisplayed reports whether the complete screen is showing.
func (p *OrderConfirmation) IsConfirmationDisplayed() bool {
	return p.IsPageDisplayed() || p.IsDisplayed(confirmationSelectors.Header)
}

// IsOrderSuccessful reports whether the header or message mentions success
// or thanks.
func (p *OrderConfirmation) IsOrderSuccessful(ctx context.Context) bool {
	c, err := p.Extract(ctx)
	if err != nil {
		return false
	}
	text := strings.ToLower(c.Header + " " + c.Message)
	return strings.Contains(text, "success") || strings.Contains(text, "thank you")
}

// BackHome returns to the product list.
func (p *OrderConfirmation) BackHome(ctx context.Context) error {
	return p.Navigate(ctx, confirmationSelectors.BackHome)
}
