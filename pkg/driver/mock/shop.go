package mock

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
)

// Screens of the simulated shop.
const (
	ScreenLogin        = "login"
	ScreenProducts     = "products"
	ScreenDetails      = "details"
	ScreenCart         = "cart"
	ScreenCheckoutInfo = "checkoutInfo"
	ScreenOverview     = "overview"
	ScreenComplete     = "complete"
)

const (
	taxRate        = 0.08
	paymentSummary = "SauceCard #31337"
	orderMessage   = "Your order has been dispatched, and will arrive just as fast as the pony can get there!"
)

const (
	typeButton     = "XCUIElementTypeButton"
	typeOther      = "XCUIElementTypeOther"
	typeStaticText = "XCUIElementTypeStaticText"
	typeTextField  = "XCUIElementTypeTextField"
	typeSecure     = "XCUIElementTypeSecureTextField"
)

// Shop simulates the sample shopping app on top of a Device. It implements
// the login, catalog, cart and checkout flows with the app's validation
// messages.
type Shop struct {
	*Device

	mu       sync.Mutex
	screen   string
	user     string
	username string
	password string
	loginErr string

	products  []fixture.Product
	sortBy    string
	sortOpen  bool
	grid      bool
	cart      []string        // product ids in the order added
	detailID  string
	offscreen map[string]bool // product names whose title is scrolled out

	firstName, lastName, zip string
	infoErr                  string
}

// NewShop starts the simulated app on the login screen.
func NewShop() *Shop {
	s := &Shop{
		screen:   ScreenLogin,
		products: fixture.Products(),
		sortBy:   "Name (A to Z)",
		grid:     true,
	}
	s.Device = New(Config{Render: s.render})
	return s
}

// Screen returns the current screen.
func (s *Shop) Screen() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// User returns the logged in user, or "".
func (s *Shop) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// CartIDs returns the product ids in the cart.
func (s *Shop) CartIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cart...)
}

// SetOffscreen marks product titles as scrolled out of view. They stay in
// the tree and tappable but report not visible.
func (s *Shop) SetOffscreen(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offscreen == nil {
		s.offscreen = make(map[string]bool)
	}
	for _, n := range names {
		s.offscreen[n] = true
	}
}

// LoginAs skips the login screen.
func (s *Shop) LoginAs(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.screen = ScreenProducts
}

func (s *Shop) render() []*Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.screen {
	case ScreenLogin:
		return s.loginScreen()
	case ScreenProducts:
		return s.productsScreen()
	case ScreenDetails:
		return s.detailsScreen()
	case ScreenCart:
		return s.cartScreen()
	case ScreenCheckoutInfo:
		return s.checkoutInfoScreen()
	case ScreenOverview:
		return s.overviewScreen()
	case ScreenComplete:
		return s.completeScreen()
	}
	return nil
}

// do wraps a handler so it runs under the shop lock.
func (s *Shop) do(fn func()) func() {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
	}
}

func (s *Shop) field(name, typ string, dst *string) *Element {
	return &Element{
		Name: name,
		Type: typ,
		Text: *dst,
		OnType: func(text string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			*dst += text
		},
		OnClear: s.do(func() { *dst = "" }),
	}
}

func button(name string, onClick func()) *Element {
	return &Element{Name: name, Type: typeButton, Label: strings.TrimPrefix(name, "test-"), OnClick: onClick}
}

func text(name, value string) *Element {
	return &Element{Name: name, Type: typeStaticText, Label: value}
}

func (s *Shop) loginScreen() []*Element {
	elems := []*Element{
		s.field("test-Username", typeTextField, &s.username),
		s.field("test-Password", typeSecure, &s.password),
		button("test-LOGIN", s.do(s.submitLogin)),
	}
	elems[0].XPaths = []string{`//XCUIElementTypeTextField[@name="test-Username"]`}
	elems[1].XPaths = []string{`//XCUIElementTypeSecureTextField[@name="test-Password"]`}
	if s.loginErr != "" {
		elems = append(elems, &Element{
			Name:     "test-Error message",
			Type:     typeOther,
			Label:    s.loginErr,
			Children: []*Element{{Type: typeStaticText, Label: s.loginErr}},
		})
	}
	return elems
}

func (s *Shop) submitLogin() {
	switch {
	case s.username == "":
		s.loginErr = fixture.MsgUsernameRequired
	case s.password == "":
		s.loginErr = fixture.MsgPasswordRequired
	case s.username == fixture.LockedOutUser.Username:
		s.loginErr = fixture.MsgLockedOut
	case (s.username == fixture.StandardUser.Username || s.username == fixture.ProblemUser.Username) &&
		s.password == fixture.StandardUser.Password:
		s.user = s.username
		s.username, s.password, s.loginErr = "", "", ""
		s.screen = ScreenProducts
	default:
		s.loginErr = fixture.MsgCredentialsMismatch
	}
}

func (s *Shop) inCart(id string) bool {
	for _, c := range s.cart {
		if c == id {
			return true
		}
	}
	return false
}

func (s *Shop) add(id string) {
	if !s.inCart(id) {
		s.cart = append(s.cart, id)
	}
}

func (s *Shop) remove(id string) {
	for i, c := range s.cart {
		if c == id {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			return
		}
	}
}

func (s *Shop) cartBadge() *Element {
	el := &Element{Name: "test-Cart", Type: typeOther, OnClick: s.do(func() { s.screen = ScreenCart })}
	if n := len(s.cart); n > 0 {
		el.Label = fmt.Sprint(n)
		el.Children = []*Element{text("", fmt.Sprint(n))}
	}
	return el
}

func (s *Shop) sorted() []fixture.Product {
	out := append([]fixture.Product(nil), s.products...)
	var less func(a, b fixture.Product) bool
	switch s.sortBy {
	case "Name (Z to A)":
		less = func(a, b fixture.Product) bool { return a.Name > b.Name }
	case "Price (low to high)":
		less = func(a, b fixture.Product) bool { return a.PriceValue() < b.PriceValue() }
	case "Price (high to low)":
		less = func(a, b fixture.Product) bool { return a.PriceValue() > b.PriceValue() }
	default:
		less = func(a, b fixture.Product) bool { return a.Name < b.Name }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// cartButton is the ADD TO CART or REMOVE button for p.
func (s *Shop) cartButton(p fixture.Product) *Element {
	if s.inCart(p.ID) {
		return button("test-REMOVE", s.do(func() { s.remove(p.ID) }))
	}
	return button("test-ADD TO CART", s.do(func() { s.add(p.ID) }))
}

func (s *Shop) productsScreen() []*Element {
	view := "Grid"
	if !s.grid {
		view = "List"
	}
	elems := []*Element{
		text("test-PRODUCTS", "PRODUCTS"),
		s.cartBadge(),
		button("test-Modal Selector Button", s.do(func() { s.sortOpen = true })),
		{Name: "test-Toggle", Type: typeOther, Label: view, OnClick: s.do(func() { s.grid = !s.grid })},
	}
	for _, p := range s.sorted() {
		p := p
		open := s.do(func() {
			s.detailID = p.ID
			s.screen = ScreenDetails
		})
		title := &Element{
			Name:     "test-Item title",
			AltNames: []string{p.Name},
			Type:     typeStaticText,
			Label:    p.Name,
			XPaths: []string{
				fmt.Sprintf(`//*[@name="test-Item title" and @label="%s"]`, p.Name),
				fmt.Sprintf(`//XCUIElementTypeStaticText[@label="%s"]`, p.Name),
			},
			Offscreen: s.offscreen[p.Name],
			OnClick:   open,
		}
		elems = append(elems, &Element{
			Name: "test-Item",
			Type: typeOther,
			Children: []*Element{
				title,
				text("test-Item description", p.Description),
				text("test-Price", p.Price),
				s.cartButton(p),
			},
		})
	}
	if s.sortOpen {
		for _, o := range []string{"Name (A to Z)", "Name (Z to A)", "Price (low to high)", "Price (high to low)"} {
			o := o
			elems = append(elems, &Element{Name: o, Type: typeOther, Label: o, OnClick: s.do(func() {
				s.sortBy = o
				s.sortOpen = false
			})})
		}
		elems = append(elems, button("Cancel", s.do(func() { s.sortOpen = false })))
	}
	return elems
}

func (s *Shop) detailsScreen() []*Element {
	p, ok := fixture.ProductByID(s.detailID)
	if !ok {
		return nil
	}
	return []*Element{
		{Name: "test-Inventory item page", Type: typeOther},
		text("test-Item title", p.Name),
		text("test-Item description", p.Description),
		text("test-Price", p.Price),
		s.cartButton(p),
		button("test-BACK TO PRODUCTS", s.do(func() { s.screen = ScreenProducts })),
		s.cartBadge(),
	}
}

func (s *Shop) cartItems(withRemove bool) []*Element {
	var out []*Element
	for _, id := range s.cart {
		p, ok := fixture.ProductByID(id)
		if !ok {
			continue
		}
		children := []*Element{
			text("test-Amount", "1"),
			text("test-Item title", p.Name),
			text("test-Price", p.Price),
		}
		if withRemove {
			id := id
			children = append(children, button("test-REMOVE", s.do(func() { s.remove(id) })))
		}
		out = append(out, &Element{Name: "test-Item", Type: typeOther, Children: children})
	}
	return out
}

func (s *Shop) cartScreen() []*Element {
	elems := []*Element{
		{Name: "test-Cart Content", Type: typeOther},
		{Type: typeStaticText, Label: "YOUR CART", XPaths: []string{`//XCUIElementTypeStaticText[@name="YOUR CART"]`}},
		s.cartBadge(),
	}
	elems = append(elems, s.cartItems(true)...)
	return append(elems,
		button("test-CONTINUE SHOPPING", s.do(func() { s.screen = ScreenProducts })),
		button("test-CHECKOUT", s.do(func() {
			s.firstName, s.lastName, s.zip, s.infoErr = "", "", "", ""
			s.screen = ScreenCheckoutInfo
		})),
	)
}

func (s *Shop) checkoutInfoScreen() []*Element {
	elems := []*Element{
		{Name: "test-Checkout: Your Info", Type: typeOther},
		s.field("test-First Name", typeTextField, &s.firstName),
		s.field("test-Last Name", typeTextField, &s.lastName),
		s.field("test-Zip/Postal Code", typeTextField, &s.zip),
		button("test-CANCEL", s.do(func() { s.screen = ScreenCart })),
		button("test-CONTINUE", s.do(s.submitInfo)),
	}
	if s.infoErr != "" {
		elems = append(elems, &Element{Name: "test-Error message", Type: typeOther, Label: s.infoErr})
	}
	return elems
}

func (s *Shop) submitInfo() {
	switch {
	case s.firstName == "":
		s.infoErr = fixture.MsgFirstNameRequired
	case s.lastName == "":
		s.infoErr = fixture.MsgLastNameRequired
	case s.zip == "":
		s.infoErr = fixture.MsgPostalCodeRequired
	default:
		s.infoErr = ""
		s.screen = ScreenOverview
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (s *Shop) totals() (subtotal, tax, total float64) {
	for _, id := range s.cart {
		if p, ok := fixture.ProductByID(id); ok {
			subtotal += p.PriceValue()
		}
	}
	subtotal = round2(subtotal)
	tax = round2(subtotal * taxRate)
	return subtotal, tax, round2(subtotal + tax)
}

func (s *Shop) overviewScreen() []*Element {
	subtotal, tax, total := s.totals()
	elems := []*Element{
		{Name: "test-CHECKOUT: OVERVIEW", Type: typeOther},
	}
	elems = append(elems, s.cartItems(false)...)
	return append(elems,
		text("test-Payment Information:", paymentSummary),
		text("test-Shipping Information:", fixture.MsgShipping),
		text("test-Item total:", fmt.Sprintf("Item total: $%.2f", subtotal)),
		text("test-Tax:", fmt.Sprintf("Tax: $%.2f", tax)),
		text("test-Total:", fmt.Sprintf("Total: $%.2f", total)),
		button("test-CANCEL", s.do(func() { s.screen = ScreenProducts })),
		button("test-FINISH", s.do(func() {
			s.cart = nil
			s.screen = ScreenComplete
		})),
	)
}

func (s *Shop) completeScreen() []*Element {
	return []*Element{
		{Name: "test-CHECKOUT: COMPLETE!", Type: typeOther},
		text("test-Complete header", fixture.MsgOrderComplete),
		text("test-Complete message", orderMessage),
		button("test-BACK HOME", s.do(func() { s.screen = ScreenProducts })),
	}
}
