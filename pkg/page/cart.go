package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/locator"
)

// CartItem is one line of the cart.
type CartItem struct {
	Name  string
	Price string
}

// Cart is the cart screen.
type Cart struct {
	*Base
}

// NewCart creates the cart page.
func NewCart(d core.Driver, opts Options) *Cart {
	return &Cart{Base: newBase(d, "cart", cartSelectors.Screen, opts)}
}

// items returns the row elements; an empty cart is not an error.
func (p *Cart) items() ([]string, error) {
	return p.resolver.FindAll(cartSelectors.Item)
}

// Items reads every line of the cart.
func (p *Cart) Items(ctx context.Context) ([]CartItem, error) {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return nil, err
	}
	rows, err := p.items()
	if err != nil {
		return nil, err
	}
	out := make([]CartItem, 0, len(rows))
	for _, row := range rows {
		name, err := p.childText(row, cartSelectors.ItemTitle)
		if err != nil {
			return nil, fmt.Errorf("read cart item name: %w", err)
		}
		price, err := p.childText(row, cartSelectors.ItemPrice)
		if err != nil {
			return nil, fmt.Errorf("read cart item price: %w", err)
		}
		out = append(out, CartItem{Name: strings.TrimSpace(name), Price: strings.TrimSpace(price)})
	}
	return out, nil
}

// ItemCount returns the number of lines in the cart.
func (p *Cart) ItemCount(ctx context.Context) (int, error) {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return 0, err
	}
	return p.Count(cartSelectors.Item)
}

func (p *Cart) row(ctx context.Context, i int) (string, error) {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return "", err
	}
	rows, err := p.items()
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(rows) {
		return "", outOfBounds("item", i, len(rows))
	}
	return rows[i], nil
}

// ItemName returns the name on line i.
func (p *Cart) ItemName(ctx context.Context, i int) (string, error) {
	row, err := p.row(ctx, i)
	if err != nil {
		return "", err
	}
	return p.childText(row, cartSelectors.ItemTitle)
}

// ItemPrice returns the price on line i.
func (p *Cart) ItemPrice(ctx context.Context, i int) (string, error) {
	row, err := p.row(ctx, i)
	if err != nil {
		return "", err
	}
	return p.childText(row, cartSelectors.ItemPrice)
}

// RemoveItem taps REMOVE on line i.
func (p *Cart) RemoveItem(ctx context.Context, i int) error {
	row, err := p.row(ctx, i)
	if err != nil {
		return err
	}
	m, err := p.resolver.ResolveWithin(ctx, row, cartSelectors.Remove, locator.Displayed)
	if err != nil {
		return err
	}
	p.state = Interacting
	return p.driver.ClickElement(m.ElementID)
}

// TotalAmount returns the cart total. Builds without a total label get the
// sum of the line prices.
func (p *Cart) TotalAmount(ctx context.Context) (float64, error) {
	if s, err := p.OptionalText(cartSelectors.Total); err == nil && s != "" {
		return fixture.ParsePrice(s), nil
	}
	items, err := p.Items(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		total += fixture.ParsePrice(it.Price)
	}
	return total, nil
}

// Checkout proceeds to the customer information screen.
func (p *Cart) Checkout(ctx context.Context) error {
	return p.Navigate(ctx, cartSelectors.Checkout)
}

// ContinueShopping returns to the product list.
func (p *Cart) ContinueShopping(ctx context.Context) error {
	return p.Navigate(ctx, cartSelectors.ContinueShopping)
}

// IsEmpty reports whether the cart has no lines.
func (p *Cart) IsEmpty(ctx context.Context) bool {
	if p.IsDisplayed(cartSelectors.EmptyMessage) {
		return true
	}
	n, err := p.ItemCount(ctx)
	return err == nil && n == 0
}

// IsProductInCart reports whether a line named name is present. The cart is
// read afresh on every call.
func (p *Cart) IsProductInCart(ctx context.Context, name string) (bool, error) {
	items, err := p.Items(ctx)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// VerifyCartContents checks that every name is in the cart.
func (p *Cart) VerifyCartContents(ctx context.Context, names []string) error {
	items, err := p.Items(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(items))
	for _, it := range items {
		have[strings.ToLower(it.Name)] = true
	}
	var missing []string
	for _, n := range names {
		if !have[strings.ToLower(n)] {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return core.ErrTextMismatch.
			WithMessage(fmt.Sprintf("cart is missing %s", strings.Join(missing, ", "))).
			WithDetails(map[string]interface{}{"missing": missing, "items": len(items)})
	}
	return nil
}
