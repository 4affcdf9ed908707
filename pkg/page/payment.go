package page

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/locator"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// PaymentResponder stands in for the payment backend the app does not have.
// Authorize returns the message the backend would show, or nil to accept.
type PaymentResponder interface {
	Authorize(p fixture.Payment) error
}

// ResponderFunc adapts a function to PaymentResponder.
type ResponderFunc func(p fixture.Payment) error

// Authorize calls f.
func (f ResponderFunc) Authorize(p fixture.Payment) error { return f(p) }

// AcceptAll approves every payment.
var AcceptAll PaymentResponder = ResponderFunc(func(fixture.Payment) error { return nil })

// ServerErrorCard is the card number FailingResponder rejects by default.
const ServerErrorCard = "4111-SERVER-ERROR"

// FailingResponder rejects payments with CardNumber, and approves the rest.
type FailingResponder struct {
	CardNumber string // default ServerErrorCard
	Message    string // default "Server error processing payment"
}

// Authorize implements PaymentResponder.
func (r FailingResponder) Authorize(p fixture.Payment) error {
	card, msg := r.CardNumber, r.Message
	if card == "" {
		card = ServerErrorCard
	}
	if msg == "" {
		msg = fixture.MsgPaymentServerError
	}
	if p.CardNumber == card {
		return errors.New(msg)
	}
	return nil
}

// RequireCardFields rejects payments missing a card number, expiry or CVV.
var RequireCardFields PaymentResponder = ResponderFunc(func(p fixture.Payment) error {
	switch {
	case p.CardNumber == "":
		return errors.New("Card number is required")
	case p.ExpirationDate == "":
		return errors.New("Expiration date is required")
	case p.CVV == "":
		return errors.New("CVV is required")
	}
	return nil
})

// Card entry fields. The sample app takes no card details, so all are
// optional and skipped when absent.
var paymentFields = struct {
	CardNumber, Expiry, CVV, Holder locator.Chain
}{
	CardNumber: locator.NewChain("payment.cardNumber", "~test-Card Number", "~card-number-input").AsOptional(),
	Expiry:     locator.NewChain("payment.expiry", "~test-Expiration Date", "~expiration-date-input").AsOptional(),
	CVV:        locator.NewChain("payment.cvv", "~test-CVV", "~cvv-input").AsOptional(),
	Holder:     locator.NewChain("payment.holder", "~test-Card Holder", "~card-holder-input").AsOptional(),
}

// PaymentDetails is the checkout overview, where payment is reviewed and the
// order finished.
type PaymentDetails struct {
	*Base
	payment  *fixture.Payment
	errorMsg string
}

// NewPaymentDetails creates the payment page.
func NewPaymentDetails(d core.Driver, opts Options) *PaymentDetails {
	return &PaymentDetails{Base: newBase(d, "payment details", overviewSelectors.Screen, opts)}
}

// PaymentInfo returns the payment method summary.
func (p *PaymentDetails) PaymentInfo(ctx context.Context) (string, error) {
	return p.Text(ctx, overviewSelectors.PaymentInfo)
}

// ShippingInfo returns the shipping method.
func (p *PaymentDetails) ShippingInfo(ctx context.Context) (string, error) {
	return p.Text(ctx, overviewSelectors.ShippingInfo)
}

// ItemTotal returns the subtotal label.
func (p *PaymentDetails) ItemTotal(ctx context.Context) (string, error) {
	return p.Text(ctx, overviewSelectors.ItemTotal)
}

// Tax returns the tax label.
func (p *PaymentDetails) Tax(ctx context.Context) (string, error) {
	return p.Text(ctx, overviewSelectors.Tax)
}

// Total returns the total label.
func (p *PaymentDetails) Total(ctx context.Context) (string, error) {
	return p.Text(ctx, overviewSelectors.Total)
}

// ItemCount returns the number of order lines.
func (p *PaymentDetails) ItemCount(ctx context.Context) (int, error) {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return 0, err
	}
	return p.Count(overviewSelectors.Item)
}

// Fill records the payment and types it into any card fields on screen.
func (p *PaymentDetails) Fill(ctx context.Context, pay fixture.Payment) error {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return err
	}
	p.payment = &pay
	p.errorMsg = ""
	fields := []struct {
		chain locator.Chain
		value string
	}{
		{paymentFields.CardNumber, pay.CardNumber},
		{paymentFields.Expiry, pay.ExpirationDate},
		{paymentFields.CVV, pay.CVV},
		{paymentFields.Holder, pay.CardHolderName},
	}
	for _, f := range fields {
		if !p.Exists(f.chain) {
			continue
		}
		if err := p.SetText(ctx, f.chain, f.value); err != nil {
			return fmt.Errorf("fill %s: %w", f.chain.Name, err)
		}
	}
	return nil
}

// SubmitPayment fills pay and asks the payment responder to authorize it.
// A rejection is shown as an error message and the order is not finished;
// otherwise the order is finished.
func (p *PaymentDetails) SubmitPayment(ctx context.Context, pay fixture.Payment) error {
	if err := p.Fill(ctx, pay); err != nil {
		return err
	}
	if err := p.opts.Payments.Authorize(pay); err != nil {
		p.errorMsg = err.Error()
		logger.Info("payment rejected: %s", p.errorMsg)
		return nil
	}
	return p.Finish(ctx)
}

// Finish taps FINISH.
func (p *PaymentDetails) Finish(ctx context.Context) error {
	return p.Navigate(ctx, overviewSelectors.Finish)
}

// Cancel abandons checkout.
func (p *PaymentDetails) Cancel(ctx context.Context) error {
	return p.Navigate(ctx, overviewSelectors.Cancel)
}

// IsErrorDisplayed reports whether the last submission was rejected.
func (p *PaymentDetails) IsErrorDisplayed() bool {
	return p.errorMsg != ""
}

// ErrorMessage returns the last rejection message, or "".
func (p *PaymentDetails) ErrorMessage() string {
	return p.errorMsg
}

// Payment returns the last payment filled, or nil.
func (p *PaymentDetails) Payment() *fixture.Payment {
	return p.payment
}

// OrderSummary reads the totals on the overview screen.
type OrderSummary struct {
	*Base
}

// NewOrderSummary creates the order summary page.
func NewOrderSummary(d core.Driver, opts Options) *OrderSummary {
	return &OrderSummary{Base: newBase(d, "order summary", overviewSelectors.Screen, opts)}
}

// Extract reads subtotal, tax, shipping and total.
func (p *OrderSummary) Extract(ctx context.Context) (fixture.OrderSummary, error) {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return fixture.OrderSummary{}, err
	}
	var (
		out fixture.OrderSummary
		err error
	)
	for _, f := range []struct {
		chain locator.Chain
		dst   *string
	}{
		{overviewSelectors.ItemTotal, &out.Subtotal},
		{overviewSelectors.Tax, &out.Tax},
		{overviewSelectors.ShippingInfo, &out.Shipping},
		{overviewSelectors.Total, &out.Total},
	} {
		if *f.dst, err = p.Text(ctx, f.chain); err != nil {
			return fixture.OrderSummary{}, err
		}
	}
	return out, nil
}

// PlaceOrder taps FINISH.
func (p *OrderSummary) PlaceOrder(ctx context.Context) error {
	return p.Navigate(ctx, overviewSelectors.Finish)
}

// Back abandons the order.
func (p *OrderSummary) Back(ctx context.Context) error {
	return p.Navigate(ctx, overviewSelectors.Cancel)
}

// VerifyOrderInfo checks every non-empty field of expected appears in the
// corresponding label on screen.
func (p *OrderSummary) VerifyOrderInfo(ctx context.Context, expected fixture.OrderSummary) error {
	got, err := p.Extract(ctx)
	if err != nil {
		return err
	}
	mismatch := map[string]interface{}{}
	check := func(name, want, have string) {
		if want != "" && !strings.Contains(have, want) {
			mismatch[name] = fmt.Sprintf("want %q in %q", want, have)
		}
	}
	check("subtotal", expected.Subtotal, got.Subtotal)
	check("tax", expected.Tax, got.Tax)
	check("shipping", expected.Shipping, got.Shipping)
	check("total", expected.Total, got.Total)
	if len(mismatch) > 0 {
		return core.ErrTextMismatch.WithMessage("order summary does not match").WithDetails(mismatch)
	}
	return nil
}
