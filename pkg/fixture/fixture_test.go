package fixture

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

func TestValidCustomer_Shape(t *testing.T) {
	g := New(42)
	for i := 0; i < 50; i++ {
		c := g.ValidCustomer()
		m := regexp.MustCompile(`^Test(\d+)$`).FindStringSubmatch(c.FirstName)
		require.Len(t, m, 2, c.FirstName)
		id := m[1]
		assert.Equal(t, "User"+id, c.LastName)
		assert.Equal(t, "test.user"+id+"@example.com", c.Email)
		assert.True(t, strings.HasSuffix(c.Address, " Main Street"))
		assert.Equal(t, "San Francisco", c.City)
		assert.Equal(t, "CA", c.State)
		assert.Regexp(t, `^9\d{4}$`, c.ZipCode)
		assert.Regexp(t, `^415\d{7}$`, c.Phone)
	}
}

func TestGenerator_SameSeedSameData(t *testing.T) {
	a, b := New(7, WithNow(fixedNow)), New(7, WithNow(fixedNow))
	assert.Equal(t, a.ValidCustomer(), b.ValidCustomer())
	assert.Equal(t, a.ValidPayment(Amex), b.ValidPayment(Amex))
	assert.Equal(t, a.CheckoutCases(), b.CheckoutCases())
}

func TestInvalidCustomer_BlanksOnlyNamedFields(t *testing.T) {
	c := New(1).InvalidCustomer(FirstName, ZipCode)
	for _, f := range CustomerFields {
		if f == FirstName || f == ZipCode {
			assert.Empty(t, c.Get(f), f)
		} else {
			assert.NotEmpty(t, c.Get(f), f)
		}
	}
}

func TestValidPayment_Cards(t *testing.T) {
	tests := []struct {
		card   CardType
		number string
		cvv    string
		holder string
	}{
		{Visa, "4111111111111111", `^\d{3}$`, "Test VISA User"},
		{Mastercard, "5555555555554444", `^\d{3}$`, "Test MASTERCARD User"},
		{Amex, "378282246310005", `^\d{4}$`, "Test AMEX User"},
		{Discover, "6011111111111117", `^\d{3}$`, "Test DISCOVER User"},
		{"diners", "4111111111111111", `^\d{3}$`, "Test VISA User"},
	}
	g := New(3, WithNow(fixedNow))
	for _, tt := range tests {
		t.Run(string(tt.card), func(t *testing.T) {
			p := g.ValidPayment(tt.card)
			assert.Equal(t, tt.number, p.CardNumber)
			assert.Regexp(t, tt.cvv, p.CVV)
			assert.Equal(t, tt.holder, p.CardHolderName)
			assert.True(t, p.UseSameAddress)
			assert.Empty(t, p.BillingAddress)
		})
	}
}

func TestValidPayment_ExpiryInFuture(t *testing.T) {
	g := New(9, WithNow(fixedNow))
	for i := 0; i < 100; i++ {
		exp := g.ValidPayment(Visa).ExpirationDate
		m := regexp.MustCompile(`^(\d{2})/(\d{2})$`).FindStringSubmatch(exp)
		require.Len(t, m, 3, exp)
		assert.True(t, m[1] >= "01" && m[1] <= "12", exp)
		assert.True(t, m[2] >= "26" && m[2] <= "30", exp)
	}
}

func TestPaymentWithDifferentBillingAddress(t *testing.T) {
	p := New(5).PaymentWithDifferentBillingAddress(Mastercard)
	assert.False(t, p.UseSameAddress)
	assert.True(t, strings.HasSuffix(p.BillingAddress, " Second Street"))
	assert.Equal(t, "New York", p.BillingCity)
	assert.Equal(t, "NY", p.BillingState)
	assert.Regexp(t, `^10\d{3}$`, p.BillingZipCode)
}

func TestInvalidPayment(t *testing.T) {
	g := New(5)

	p := g.InvalidPayment(CardNumber, CVV)
	assert.Empty(t, p.CardNumber)
	assert.Empty(t, p.CVV)
	assert.NotEmpty(t, p.ExpirationDate)
	assert.True(t, p.UseSameAddress)

	p = g.InvalidPayment(UseSameAddress)
	assert.False(t, p.UseSameAddress)
	assert.NotEmpty(t, p.CardNumber)
}

func TestCatalog(t *testing.T) {
	products := Products()
	require.Len(t, products, 6)
	assert.Equal(t, "Sauce Labs Backpack", products[0].Name)
	assert.InDelta(t, 29.99, products[0].PriceValue(), 0.001)

	products[0].Name = "changed"
	p, ok := ProductByID("1")
	require.True(t, ok)
	assert.Equal(t, "Sauce Labs Backpack", p.Name, "Products returns a copy")

	p, ok = ProductByName("Sauce Labs Onesie")
	require.True(t, ok)
	assert.Equal(t, "$7.99", p.Price)

	_, ok = ProductByID("99")
	assert.False(t, ok)
}

func TestParsePrice(t *testing.T) {
	assert.InDelta(t, 32.39, ParsePrice("Total: $32.39"), 0.001)
	assert.InDelta(t, 1234.5, ParsePrice("$1,234.50"), 0.001)
	assert.Zero(t, ParsePrice("free"))
}

func TestProviders(t *testing.T) {
	g := New(11)

	hp := g.HappyPath()
	assert.Len(t, hp.Products, 1)

	mi := g.MultipleItems()
	require.Len(t, mi.Products, 3)
	assert.Equal(t, "1", mi.Products[0].ID)
	assert.Equal(t, "3", mi.Products[2].ID)

	cases := g.CheckoutCases()
	require.Len(t, cases, 5)
	assert.False(t, cases[1].Payment.UseSameAddress)
	assert.Equal(t, "5555555555554444", cases[2].Payment.CardNumber)
	assert.Equal(t, "378282246310005", cases[3].Payment.CardNumber)
	assert.Equal(t, "6011111111111117", cases[4].Payment.CardNumber)

	invalid := g.InvalidCheckoutCases()
	require.Len(t, invalid, 4)
	assert.Empty(t, invalid[0].Customer.FirstName)
	assert.Empty(t, invalid[1].Customer.Email)
	assert.Empty(t, invalid[2].Payment.CardNumber)
	assert.Empty(t, invalid[3].Payment.CVV)
}
