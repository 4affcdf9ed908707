package page

import "github.com/devicelab-dev/shop-e2e/pkg/core"

// Set is every page bound to one driver.
type Set struct {
	Login        *Login
	Products     *Products
	Details      *ProductDetails
	Cart         *Cart
	CheckoutInfo *CheckoutInfo
	Payment      *PaymentDetails
	Summary      *OrderSummary
	Confirmation *OrderConfirmation
}

// NewSet creates all pages over d.
func NewSet(d core.Driver, opts Options) *Set {
	login := NewLogin(d, opts)
	return &Set{
		Login:        login,
		Products:     NewProducts(d, opts, login),
		Details:      NewProductDetails(d, opts),
		Cart:         NewCart(d, opts),
		CheckoutInfo: NewCheckoutInfo(d, opts),
		Payment:      NewPaymentDetails(d, opts),
		Summary:      NewOrderSummary(d, opts),
		Confirmation: NewOrderConfirmation(d, opts),
	}
}
