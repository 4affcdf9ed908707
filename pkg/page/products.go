package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/locator"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/retry"
)

// selectRetry governs SelectProduct: three passes over the name chain one
// second apart.
var selectRetry = retry.Config{MaxAttempts: 3, IntervalMs: 1000}

// Products is the catalog list.
type Products struct {
	*Base
	login *Login
}

// NewProducts creates the products page. login is used when the app turns
// out to be on the sign-in screen.
func NewProducts(d core.Driver, opts Options, login *Login) *Products {
	return &Products{Base: newBase(d, "products", productsSelectors.Header, opts), login: login}
}

// WaitForPageToLoad signs in first if the login screen is showing.
func (p *Products) WaitForPageToLoad(ctx context.Context) error {
	if p.login != nil && p.login.IsPageDisplayed() {
		logger.Info("login screen shown, signing in as %s", p.opts.Credentials.Username)
		if err := p.login.LoginAs(ctx, p.opts.Credentials); err != nil {
			return err
		}
	}
	return p.Base.WaitForPageToLoad(ctx)
}

func (p *Products) rows(ctx context.Context) ([]string, error) {
	if _, err := p.WaitForElement(ctx, productsSelectors.Item); err != nil {
		return nil, err
	}
	return p.resolver.FindAll(productsSelectors.Item)
}

func (p *Products) texts(ctx context.Context, chain locator.Chain) ([]string, error) {
	if _, err := p.WaitForElement(ctx, productsSelectors.Item); err != nil {
		return nil, err
	}
	ids, err := p.resolver.FindAll(chain)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		s, err := p.driver.GetElementText(id)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", chain.Name, err)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

// ProductNames returns the product titles in display order.
func (p *Products) ProductNames(ctx context.Context) ([]string, error) {
	return p.texts(ctx, productsSelectors.ItemTitle)
}

// ProductPrices returns the price labels in display order.
func (p *Products) ProductPrices(ctx context.Context) ([]string, error) {
	return p.texts(ctx, productsSelectors.ItemPrice)
}

// SelectProduct opens a product's details by its display name, trying the
// accessibility id, then title xpath, then any static text with that label.
// A title only needs to exist; rows partly scrolled out still take the tap.
func (p *Products) SelectProduct(ctx context.Context, name string) error {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return err
	}
	chain := productByName(name)
	opts := []retry.Option{retry.WithName("select product " + name)}
	if p.opts.Timer != nil {
		opts = append(opts, retry.WithTimer(p.opts.Timer))
	}
	err := retry.Do(ctx, selectRetry, func() error {
		m, err := p.resolver.Probe(chain, locator.Exists)
		if err != nil {
			return err
		}
		return permanent(p.driver.ClickElement(m.ElementID))
	}, opts...)
	if err != nil {
		p.debugScreenshot("product-not-found")
		return fmt.Errorf("select product %q: %w", name, err)
	}
	p.state = Navigated
	return nil
}

// ProductNameByIndex returns the title of the i-th product.
func (p *Products) ProductNameByIndex(ctx context.Context, i int) (string, error) {
	rows, err := p.rows(ctx)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(rows) {
		return "", outOfBounds("product", i, len(rows))
	}
	return p.childText(rows[i], productsSelectors.ItemTitle)
}

// AddToCartByIndex taps ADD TO CART on the i-th product.
func (p *Products) AddToCartByIndex(ctx context.Context, i int) error {
	rows, err := p.rows(ctx)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(rows) {
		return outOfBounds("product", i, len(rows))
	}
	return p.clickInRow(ctx, rows[i], productsSelectors.AddToCart)
}

// AddToCart adds the first product.
func (p *Products) AddToCart(ctx context.Context) error {
	return p.AddToCartByIndex(ctx, 0)
}

// AddToCartByName taps ADD TO CART on the named product.
func (p *Products) AddToCartByName(ctx context.Context, name string) error {
	row, err := p.row(ctx, name)
	if err != nil {
		return err
	}
	return p.clickInRow(ctx, row, productsSelectors.AddToCart)
}

// RemoveFromCartByName taps REMOVE on the named product.
func (p *Products) RemoveFromCartByName(ctx context.Context, name string) error {
	row, err := p.row(ctx, name)
	if err != nil {
		return err
	}
	return p.clickInRow(ctx, row, productsSelectors.Remove)
}

func (p *Products) row(ctx context.Context, name string) (string, error) {
	if _, err := p.WaitForElement(ctx, productsSelectors.Item); err != nil {
		return "", err
	}
	return p.rowByName(productsSelectors.Item, productsSelectors.ItemTitle, name)
}

func (p *Products) clickInRow(ctx context.Context, row string, chain locator.Chain) error {
	p.state = Interacting
	return retry.Do(ctx, p.opts.Retry, func() error {
		m, err := p.resolver.ResolveWithin(ctx, row, chain, locator.Displayed)
		if err != nil {
			return permanent(err)
		}
		return permanent(p.driver.ClickElement(m.ElementID))
	}, p.retryOpts("click "+chain.Name)...)
}

// IsProductInCart reports whether the named product shows a REMOVE button.
// The row is looked up afresh on every call.
func (p *Products) IsProductInCart(ctx context.Context, name string) bool {
	row, err := p.row(ctx, name)
	if err != nil {
		return false
	}
	_, err = p.resolver.ProbeWithin(row, productsSelectors.Remove, locator.Exists)
	return err == nil
}

// CartCount returns the cart badge number, 0 when the badge is empty.
func (p *Products) CartCount() int {
	return p.badgeCount(productsSelectors.Cart)
}

// OpenCart taps the cart icon.
func (p *Products) OpenCart(ctx context.Context) error {
	return p.Navigate(ctx, productsSelectors.Cart)
}

// Sort opens the sort dialog and picks order.
func (p *Products) Sort(ctx context.Context, order SortOrder) error {
	if err := p.Click(ctx, productsSelectors.SortButton); err != nil {
		return err
	}
	return p.Click(ctx, sortOption(order))
}

// ToggleView switches between grid and list layout.
func (p *Products) ToggleView(ctx context.Context) error {
	return p.Click(ctx, productsSelectors.Toggle)
}

// IsGridView reports whether the list is in grid layout. Defaults to true
// when the toggle cannot be read, which is the app's initial layout.
func (p *Products) IsGridView(ctx context.Context) bool {
	s, err := p.OptionalText(productsSelectors.Toggle)
	if err != nil || s == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), "grid")
}
