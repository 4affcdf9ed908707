package fixture

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// CardType selects the test card number used by a generated Payment.
type CardType string

// Card types
const (
	Visa       CardType = "visa"
	Mastercard CardType = "mastercard"
	Amex       CardType = "amex"
	Discover   CardType = "discover"
)

// testCards are processor test numbers that pass Luhn checks.
var testCards = map[CardType]string{
	Visa:       "4111111111111111",
	Mastercard: "5555555555554444",
	Amex:       "378282246310005",
	Discover:   "6011111111111117",
}

// ParseCardType maps a name to a CardType. Unknown names fall back to Visa.
func ParseCardType(s string) CardType {
	t := CardType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := testCards[t]; ok {
		return t
	}
	return Visa
}

// Generator produces test data from a seeded source so runs are repeatable.
// It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithNow sets the time source used for card expiry dates.
func WithNow(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// New creates a generator seeded with seed.
func New(seed int64, opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(seed)), //#nosec G404 -- test data, not secrets
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// digits returns n random decimal digits.
func (g *Generator) digits(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + g.rng.Intn(10)))
	}
	return b.String()
}

// ValidCustomer returns a complete customer. The id in [0, 9999] ties the
// name, street number and email together.
func (g *Generator) ValidCustomer() Customer {
	id := g.rng.Intn(10000)
	return Customer{
		FirstName: fmt.Sprintf("Test%d", id),
		LastName:  fmt.Sprintf("User%d", id),
		Address:   fmt.Sprintf("%d Main Street", 100+id),
		City:      "San Francisco",
		State:     "CA",
		ZipCode:   "9" + g.digits(4),
		Phone:     "415" + g.digits(7),
		Email:     fmt.Sprintf("test.user%d@example.com", id),
	}
}

// InvalidCustomer returns a valid customer with the named fields blanked.
func (g *Generator) InvalidCustomer(missing ...CustomerField) Customer {
	c := g.ValidCustomer()
	for _, f := range missing {
		c.blank(f)
	}
	return c
}

// ValidPayment returns a payment for card that ships and bills to the same
// address.
func (g *Generator) ValidPayment(card CardType) Payment {
	card = ParseCardType(string(card))
	cvvLen := 3
	if card == Amex {
		cvvLen = 4
	}
	month := g.rng.Intn(12) + 1
	year := g.now().Year() + g.rng.Intn(5) + 1
	return Payment{
		CardNumber:     testCards[card],
		ExpirationDate: fmt.Sprintf("%02d/%02d", month, year%100),
		CVV:            g.digits(cvvLen),
		CardHolderName: fmt.Sprintf("Test %s User", strings.ToUpper(string(card))),
		UseSameAddress: true,
	}
}

// PaymentWithDifferentBillingAddress returns a payment whose billing address differs
// from the shipping one.
func (g *Generator) PaymentWithDifferentBillingAddress(card CardType) Payment {
	p := g.ValidPayment(card)
	id := g.rng.Intn(10000)
	p.UseSameAddress = false
	p.BillingAddress = fmt.Sprintf("%d Second Street", 200+id)
	p.BillingCity = "New York"
	p.BillingState = "NY"
	p.BillingZipCode = "10" + g.digits(3)
	return p
}

// InvalidPayment returns a valid visa payment with the named fields blanked.
// Blanking UseSameAddress sets it to false.
func (g *Generator) InvalidPayment(missing ...PaymentField) Payment {
	p := g.ValidPayment(Visa)
	for _, f := range missing {
		p.blank(f)
	}
	return p
}

// RandomProduct picks a catalog product.
func (g *Generator) RandomProduct() Product {
	return catalog[g.rng.Intn(len(catalog))]
}
