package page

import (
	"fmt"

	"github.com/devicelab-dev/shop-e2e/pkg/locator"
)

// Selector tables, one per screen. The first candidate of each chain is the
// accessibility id the app ships with; later candidates are fallbacks for
// builds that expose different ids. Chains marked optional name fields some
// builds do not render.

var loginSelectors = struct {
	Username, Password, Button, Error locator.Chain
}{
	Username: locator.NewChain("login.username",
		"~test-Username",
		`//XCUIElementTypeTextField[@name="test-Username"]`,
		"~username-input"),
	Password: locator.NewChain("login.password",
		"~test-Password",
		`//XCUIElementTypeSecureTextField[@name="test-Password"]`,
		"~password-input"),
	Button: locator.NewChain("login.button",
		"~test-LOGIN",
		`//XCUIElementTypeOther[@name="test-LOGIN"]`,
		"~login-button"),
	Error: locator.NewChain("login.error",
		"~test-Error message",
		"~error-message"),
}

var productsSelectors = struct {
	Header, Item, ItemTitle, ItemPrice, AddToCart, Remove, Cart, SortButton, Toggle locator.Chain
}{
	Header: locator.NewChain("products.header",
		"~test-PRODUCTS",
		`//XCUIElementTypeStaticText[@name="PRODUCTS"]`),
	Item: locator.NewChain("products.item",
		"~test-Item",
		"~product-item"),
	ItemTitle: locator.NewChain("products.itemTitle",
		"~test-Item title",
		"~product-title"),
	ItemPrice: locator.NewChain("products.itemPrice",
		"~test-Price",
		"~product-price"),
	AddToCart: locator.NewChain("products.addToCart",
		"~test-ADD TO CART",
		"~add-to-cart-button"),
	Remove: locator.NewChain("products.remove",
		"~test-REMOVE",
		"~remove-button"),
	Cart: locator.NewChain("products.cart",
		"~test-Cart",
		"~cart-icon"),
	SortButton: locator.NewChain("products.sort",
		"~test-Modal Selector Button",
		"~sort-button"),
	Toggle: locator.NewChain("products.toggle",
		"~test-Toggle",
		"~toggle-button"),
}

// productByName finds a product title on the list by its display name.
func productByName(name string) locator.Chain {
	return locator.NewChain("products.byName("+name+")",
		locator.ID(name),
		locator.XPath(fmt.Sprintf(`//*[@name="test-Item title" and @label="%s"]`, name)),
		locator.XPath(fmt.Sprintf(`//XCUIElementTypeStaticText[@label="%s"]`, name)))
}

// SortOrder is an option of the product sort dialog.
type SortOrder string

// Sort orders
const (
	SortNameAsc   SortOrder = "Name (A to Z)"
	SortNameDesc  SortOrder = "Name (Z to A)"
	SortPriceAsc  SortOrder = "Price (low to high)"
	SortPriceDesc SortOrder = "Price (high to low)"
)

func sortOption(o SortOrder) locator.Chain {
	return locator.NewChain("products.sortOption("+string(o)+")",
		locator.ID(string(o)),
		locator.LabelContains(string(o)))
}

var detailsSelectors = struct {
	Screen, Title, Description, Price, AddToCart, Remove, Back, Cart locator.Chain
}{
	Screen: locator.NewChain("details.screen",
		"~test-Inventory item page",
		"~product-details"),
	Title: locator.NewChain("details.title",
		"~test-Item title",
		"~product-title"),
	Description: locator.NewChain("details.description",
		"~test-Item description",
		"~product-description"),
	Price: locator.NewChain("details.price",
		"~test-Price",
		"~product-price"),
	AddToCart: locator.NewChain("details.addToCart",
		"~test-ADD TO CART",
		"~add-to-cart-button"),
	Remove: locator.NewChain("details.remove",
		"~test-REMOVE",
		"~remove-button"),
	Back: locator.NewChain("details.back",
		"~test-BACK TO PRODUCTS",
		"~back-button"),
	Cart: productsSelectors.Cart,
}

var cartSelectors = struct {
	Screen, Item, ItemTitle, ItemPrice, Remove, Checkout, ContinueShopping, Total, EmptyMessage locator.Chain
}{
	Screen: locator.NewChain("cart.screen",
		"~test-Cart Content",
		`//XCUIElementTypeStaticText[@name="YOUR CART"]`),
	Item: locator.NewChain("cart.item",
		"~test-Item",
		"~cart-item"),
	ItemTitle: locator.NewChain("cart.itemTitle",
		"~test-Item title",
		"~item-title"),
	ItemPrice: locator.NewChain("cart.itemPrice",
		"~test-Price",
		"~item-price"),
	Remove: locator.NewChain("cart.remove",
		"~test-REMOVE",
		"~remove-button"),
	Checkout: locator.NewChain("cart.checkout",
		"~test-CHECKOUT",
		"~checkout-button"),
	ContinueShopping: locator.NewChain("cart.continueShopping",
		"~test-CONTINUE SHOPPING",
		"~continue-shopping-button"),
	Total: locator.NewChain("cart.total",
		"~total-amount").AsOptional(),
	EmptyMessage: locator.NewChain("cart.empty",
		"~empty-cart-message").AsOptional(),
}

var checkoutInfoSelectors = struct {
	Screen, FirstName, LastName, Address, City, State, ZipCode, Phone, Email, Continue, Cancel, Error locator.Chain
}{
	Screen: locator.NewChain("checkoutInfo.screen",
		"~test-Checkout: Your Info",
		"~first-name-input"),
	FirstName: locator.NewChain("checkoutInfo.firstName",
		"~test-First Name",
		"~first-name-input"),
	LastName: locator.NewChain("checkoutInfo.lastName",
		"~test-Last Name",
		"~last-name-input"),
	Address: locator.NewChain("checkoutInfo.address",
		"~test-Address",
		"~address-input").AsOptional(),
	City: locator.NewChain("checkoutInfo.city",
		"~test-City",
		"~city-input").AsOptional(),
	State: locator.NewChain("checkoutInfo.state",
		"~test-State",
		"~state-input").AsOptional(),
	ZipCode: locator.NewChain("checkoutInfo.zipCode",
		"~test-Zip/Postal Code",
		"~zip-code-input"),
	Phone: locator.NewChain("checkoutInfo.phone",
		"~test-Phone",
		"~phone-input").AsOptional(),
	Email: locator.NewChain("checkoutInfo.email",
		"~test-Email",
		"~email-input").AsOptional(),
	Continue: locator.NewChain("checkoutInfo.continue",
		"~test-CONTINUE",
		"~continue-button"),
	Cancel: locator.NewChain("checkoutInfo.cancel",
		"~test-CANCEL",
		"~cancel-button"),
	Error: locator.NewChain("checkoutInfo.error",
		"~test-Error message",
		"~error-message"),
}

var overviewSelectors = struct {
	Screen, Item, PaymentInfo, ShippingInfo, ItemTotal, Tax, Total, Finish, Cancel locator.Chain
}{
	Screen: locator.NewChain("overview.screen",
		"~test-CHECKOUT: OVERVIEW",
		`//XCUIElementTypeStaticText[@name="CHECKOUT: OVERVIEW"]`),
	Item: locator.NewChain("overview.item",
		"~test-Item",
		"~summary-item"),
	PaymentInfo: locator.NewChain("overview.paymentInfo",
		"~test-Payment Information:",
		"~payment-info"),
	ShippingInfo: locator.NewChain("overview.shippingInfo",
		"~test-Shipping Information:",
		"~shipping-info"),
	ItemTotal: locator.NewChain("overview.itemTotal",
		"~test-Item total:",
		"~subtotal"),
	Tax: locator.NewChain("overview.tax",
		"~test-Tax:",
		"~tax"),
	Total: locator.NewChain("overview.total",
		"~test-Total:",
		"~total"),
	Finish: locator.NewChain("overview.finish",
		"~test-FINISH",
		"~finish-button"),
	Cancel: locator.NewChain("overview.cancel",
		"~test-CANCEL",
		"~cancel-button"),
}

var confirmationSelectors = struct {
	Screen, Header, Message, OrderNumber, OrderDate, OrderTotal, DeliveryDate, BackHome locator.Chain
}{
	Screen: locator.NewChain("confirmation.screen",
		"~test-CHECKOUT: COMPLETE!",
		"~confirmation-message"),
	Header: locator.NewChain("confirmation.header",
		"~test-Complete header",
		locator.LabelContains("THANK YOU")),
	Message: locator.NewChain("confirmation.message",
		"~test-Complete message",
		"~confirmation-message"),
	OrderNumber:  locator.NewChain("confirmation.orderNumber", "~order-number").AsOptional(),
	OrderDate:    locator.NewChain("confirmation.orderDate", "~order-date").AsOptional(),
	OrderTotal:   locator.NewChain("confirmation.orderTotal", "~order-total").AsOptional(),
	DeliveryDate: locator.NewChain("confirmation.deliveryDate", "~delivery-date").AsOptional(),
	BackHome: locator.NewChain("confirmation.backHome",
		"~test-BACK HOME",
		"~continue-shopping-button"),
}
