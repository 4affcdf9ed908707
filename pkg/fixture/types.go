// Package fixture produces synthetic customers, payments and products for
// checkout scenarios, including deliberately invalid variants.
package fixture

import (
	"strconv"
	"strings"
)

// Customer is the shipping/contact information entered at checkout.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// CustomerField names a Customer field that InvalidCustomer can blank.
type CustomerField string

// Customer fields
const (
	FirstName CustomerField = "firstName"
	LastName  CustomerField = "lastName"
	Address   CustomerField = "address"
	City      CustomerField = "city"
	State     CustomerField = "state"
	ZipCode   CustomerField = "zipCode"
	Phone     CustomerField = "phone"
	Email     CustomerField = "email"
)

// CustomerFields lists every customer field in form order.
var CustomerFields = []CustomerField{FirstName, LastName, Address, City, State, ZipCode, Phone, Email}

// Get returns the value of field f.
func (c Customer) Get(f CustomerField) string {
	switch f {
	case FirstName:
		return c.FirstName
	case LastName:
		return c.LastName
	case Address:
		return c.Address
	case City:
		return c.City
	case State:
		return c.State
	case ZipCode:
		return c.ZipCode
	case Phone:
		return c.Phone
	case Email:
		return c.Email
	}
	return ""
}

func (c *Customer) blank(f CustomerField) {
	switch f {
	case FirstName:
		c.FirstName = ""
	case LastName:
		c.LastName = ""
	case Address:
		c.Address = ""
	case City:
		c.City = ""
	case State:
		c.State = ""
	case ZipCode:
		c.ZipCode = ""
	case Phone:
		c.Phone = ""
	case Email:
		c.Email = ""
	}
}

// Payment is card and billing information.
type Payment struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"` // MM/YY
	CVV            string `json:"cvv"`
	CardHolderName string `json:"cardHolderName"`
	UseSameAddress bool   `json:"useSameAddress"`
	BillingAddress string `json:"billingAddress,omitempty"`
	BillingCity    string `json:"billingCity,omitempty"`
	BillingState   string `json:"billingState,omitempty"`
	BillingZipCode string `json:"billingZipCode,omitempty"`
}

// PaymentField names a Payment field that InvalidPayment can blank.
type PaymentField string

// Payment fields
const (
	CardNumber     PaymentField = "cardNumber"
	ExpirationDate PaymentField = "expirationDate"
	CVV            PaymentField = "cvv"
	CardHolderName PaymentField = "cardHolderName"
	UseSameAddress PaymentField = "useSameAddress"
	BillingAddress PaymentField = "billingAddress"
	BillingCity    PaymentField = "billingCity"
	BillingState   PaymentField = "billingState"
	BillingZipCode PaymentField = "billingZipCode"
)

func (p *Payment) blank(f PaymentField) {
	switch f {
	case CardNumber:
		p.CardNumber = ""
	case ExpirationDate:
		p.ExpirationDate = ""
	case CVV:
		p.CVV = ""
	case CardHolderName:
		p.CardHolderName = ""
	case UseSameAddress:
		p.UseSameAddress = false
	case BillingAddress:
		p.BillingAddress = ""
	case BillingCity:
		p.BillingCity = ""
	case BillingState:
		p.BillingState = ""
	case BillingZipCode:
		p.BillingZipCode = ""
	}
}

// Product is one catalog entry as shown in the app.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"` // "$29.99"
	Description string `json:"description"`
}

// PriceValue parses Price as a number; 0 when unparseable.
func (p Product) PriceValue() float64 {
	return ParsePrice(p.Price)
}

// ParsePrice extracts the amount from text like "$29.99" or "Total: $32.39".
func ParsePrice(s string) float64 {
	if i := strings.LastIndex(s, "$"); i >= 0 {
		s = s[i+1:]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", "")), 64)
	if err != nil {
		return 0
	}
	return v
}

// OrderSummary is read from the checkout overview screen.
type OrderSummary struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

// OrderConfirmation is read from the checkout complete screen.
type OrderConfirmation struct {
	Header       string `json:"header"`
	Message      string `json:"message"`
	OrderNumber  string `json:"orderNumber,omitempty"`
	OrderDate    string `json:"orderDate,omitempty"`
	OrderTotal   string `json:"orderTotal,omitempty"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
}
