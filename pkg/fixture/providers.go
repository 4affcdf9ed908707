package fixture

// Credentials is a login pair.
type Credentials struct {
	Username string
	Password string
}

// Accounts known to the sample app.
var (
	StandardUser  = Credentials{Username: "standard_user", Password: "secret_sauce"}
	LockedOutUser = Credentials{Username: "locked_out_user", Password: "secret_sauce"}
	ProblemUser   = Credentials{Username: "problem_user", Password: "secret_sauce"}
	InvalidUser   = Credentials{Username: "invalid_user", Password: "invalid_password"}
)

// Messages shown by the app.
const (
	MsgCredentialsMismatch = "Username and password do not match any user in this service."
	MsgLockedOut           = "Sorry, this user has been locked out."
	MsgUsernameRequired    = "Username is required"
	MsgPasswordRequired    = "Password is required"
	MsgFirstNameRequired   = "First Name is required"
	MsgLastNameRequired    = "Last Name is required"
	MsgPostalCodeRequired  = "Postal Code is required"
	MsgPaymentServerError  = "Server error processing payment"
	MsgOrderComplete       = "THANK YOU FOR YOU ORDER"
	MsgShipping            = "FREE PONY EXPRESS DELIVERY!"
)

// CheckoutCase is one end-to-end checkout input.
type CheckoutCase struct {
	Description string
	Products    []Product
	Customer    Customer
	Payment     Payment
}

// InvalidCheckoutCase is a checkout input expected to be rejected.
type InvalidCheckoutCase struct {
	Description string
	Product     Product
	Customer    Customer
	Payment     Payment
	// MissingField is the blanked customer or payment field.
	MissingField string
}

// HappyPath is a single random product bought with a visa.
func (g *Generator) HappyPath() CheckoutCase {
	return CheckoutCase{
		Description: "single product with visa",
		Products:    []Product{g.RandomProduct()},
		Customer:    g.ValidCustomer(),
		Payment:     g.ValidPayment(Visa),
	}
}

// MultipleItems buys the first three catalog products.
func (g *Generator) MultipleItems() CheckoutCase {
	return CheckoutCase{
		Description: "multiple products",
		Products:    Products()[:3],
		Customer:    g.ValidCustomer(),
		Payment:     g.ValidPayment(Visa),
	}
}

// CheckoutCases covers each card type and a separate billing address.
func (g *Generator) CheckoutCases() []CheckoutCase {
	one := func(id string) []Product { return []Product{mustProduct(id)} }
	return []CheckoutCase{
		{Description: "visa", Products: one("1"), Customer: g.ValidCustomer(), Payment: g.ValidPayment(Visa)},
		{Description: "different billing address", Products: one("2"), Customer: g.ValidCustomer(), Payment: g.PaymentWithDifferentBillingAddress(Visa)},
		{Description: "mastercard", Products: one("3"), Customer: g.ValidCustomer(), Payment: g.ValidPayment(Mastercard)},
		{Description: "amex", Products: one("4"), Customer: g.ValidCustomer(), Payment: g.ValidPayment(Amex)},
		{Description: "discover", Products: one("5"), Customer: g.ValidCustomer(), Payment: g.ValidPayment(Discover)},
	}
}

// InvalidCheckoutCases each blank one required field.
func (g *Generator) InvalidCheckoutCases() []InvalidCheckoutCase {
	p := mustProduct("1")
	return []InvalidCheckoutCase{
		{Description: "missing first name", Product: p, Customer: g.InvalidCustomer(FirstName), Payment: g.ValidPayment(Visa), MissingField: string(FirstName)},
		{Description: "missing email", Product: p, Customer: g.InvalidCustomer(Email), Payment: g.ValidPayment(Visa), MissingField: string(Email)},
		{Description: "missing card number", Product: p, Customer: g.ValidCustomer(), Payment: g.InvalidPayment(CardNumber), MissingField: string(CardNumber)},
		{Description: "missing cvv", Product: p, Customer: g.ValidCustomer(), Payment: g.InvalidPayment(CVV), MissingField: string(CVV)},
	}
}
