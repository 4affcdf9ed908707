package page

import (
	"context"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

// ProductDetails is the single product screen.
type ProductDetails struct {
	*Base
}

// NewProductDetails creates the details page.
func NewProductDetails(d core.Driver, opts Options) *ProductDetails {
	return &ProductDetails{Base: newBase(d, "product details", detailsSelectors.Screen, opts)}
}

// Title returns the product name.
func (p *ProductDetails) Title(ctx context.Context) (string, error) {
	return p.Text(ctx, detailsSelectors.Title)
}

// Description returns the product description.
func (p *ProductDetails) Description(ctx context.Context) (string, error) {
	return p.Text(ctx, detailsSelectors.Description)
}

// Price returns the price label.
func (p *ProductDetails) Price(ctx context.Context) (string, error) {
	return p.Text(ctx, detailsSelectors.Price)
}

// AddToCart taps ADD TO CART.
func (p *ProductDetails) AddToCart(ctx context.Context) error {
	return p.Click(ctx, detailsSelectors.AddToCart)
}

// RemoveFromCart taps REMOVE.
func (p *ProductDetails) RemoveFromCart(ctx context.Context) error {
	return p.Click(ctx, detailsSelectors.Remove)
}

// IsInCart reports whether the product shows a REMOVE button.
func (p *ProductDetails) IsInCart() bool {
	return p.Exists(detailsSelectors.Remove)
}

// Back returns to the product list.
func (p *ProductDetails) Back(ctx context.Context) error {
	return p.Navigate(ctx, detailsSelectors.Back)
}

// CartCount returns the cart badge number.
func (p *ProductDetails) CartCount() int {
	return p.badgeCount(detailsSelectors.Cart)
}

// OpenCart taps the cart icon.
func (p *ProductDetails) OpenCart(ctx context.Context) error {
	return p.Navigate(ctx, detailsSelectors.Cart)
}
