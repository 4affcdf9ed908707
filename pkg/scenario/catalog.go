package scenario

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/page"
)

// Tags
const (
	TagSmoke      = "smoke"
	TagLogin      = "login"
	TagCart       = "cart"
	TagSort       = "sort"
	TagView       = "view"
	TagValidation = "validation"
	TagCheckout   = "checkout"
	TagPayment    = "payment"
)

// All returns the full catalogue in execution order.
func All() []Scenario {
	var all []Scenario
	all = append(all, Login()...)
	all = append(all, Cart()...)
	all = append(all, Sorting()...)
	all = append(all, ViewToggle())
	all = append(all, FormValidation()...)
	all = append(all, Checkout()...)
	return all
}

// Login covers the sign-in screen.
func Login() []Scenario {
	rejected := func(name string, creds fixture.Credentials, want string) Scenario {
		return Scenario{
			Name: name,
			Tags: []string{TagLogin},
			Run: func(ctx context.Context, env *Env) error {
				login := env.Pages.Login
				if err := env.Step("sign in", func() error { return login.LoginAs(ctx, creds) }); err != nil {
					return err
				}
				return env.Step("error shown", func() error {
					if err := True("login error displayed", login.IsErrorDisplayed()); err != nil {
						return err
					}
					msg, err := login.ErrorMessage(ctx)
					if err != nil {
						return err
					}
					return Contains("login error", msg, want)
				})
			},
		}
	}
	accepted := func(name string, creds fixture.Credentials, tags ...string) Scenario {
		return Scenario{
			Name: name,
			Tags: append([]string{TagLogin}, tags...),
			Run: func(ctx context.Context, env *Env) error {
				if err := env.Step("sign in", func() error { return env.Pages.Login.LoginAs(ctx, creds) }); err != nil {
					return err
				}
				return env.Step("products shown", func() error {
					if err := env.Pages.Products.WaitForPageToLoad(ctx); err != nil {
						return err
					}
					names, err := env.Pages.Products.ProductNames(ctx)
					if err != nil {
						return err
					}
					return True("product list is not empty", len(names) > 0)
				})
			},
		}
	}

	return []Scenario{
		{
			Name: "login page is displayed",
			Tags: []string{TagLogin, TagSmoke},
			Run: func(ctx context.Context, env *Env) error {
				return env.Step("login screen loads", func() error {
					if err := env.Pages.Login.WaitForPageToLoad(ctx); err != nil {
						return err
					}
					return True("login page displayed", env.Pages.Login.IsPageDisplayed())
				})
			},
		},
		accepted("login with valid credentials", fixture.StandardUser, TagSmoke),
		accepted("login with problem user", fixture.ProblemUser),
		rejected("login with invalid credentials", fixture.InvalidUser, fixture.MsgCredentialsMismatch),
		rejected("login with locked out user", fixture.LockedOutUser, fixture.MsgLockedOut),
		rejected("login without username", fixture.Credentials{Password: fixture.StandardUser.Password}, fixture.MsgUsernameRequired),
		rejected("login without password", fixture.Credentials{Username: fixture.StandardUser.Username}, fixture.MsgPasswordRequired),
	}
}

// addToCart adds every product from the list and records them in state.
func addToCart(ctx context.Context, env *Env, products ...fixture.Product) error {
	return env.Step("add to cart", func() error {
		if err := env.Pages.Products.WaitForPageToLoad(ctx); err != nil {
			return err
		}
		for _, p := range products {
			if err := env.Pages.Products.AddToCartByName(ctx, p.Name); err != nil {
				return err
			}
			env.State.AddProduct(p)
		}
		return Equal("cart badge", len(products), env.Pages.Products.CartCount())
	})
}

func productNames(products []fixture.Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

// openCart opens the cart and checks it holds exactly the state's products.
func openCart(ctx context.Context, env *Env) error {
	return env.Step("verify cart", func() error {
		if err := env.Pages.Products.OpenCart(ctx); err != nil {
			return err
		}
		return env.Pages.Cart.VerifyCartContents(ctx, productNames(env.State.Products()))
	})
}

// Cart covers cart management.
func Cart() []Scenario {
	return []Scenario{
		{
			Name: "add product to cart from list",
			Tags: []string{TagCart, TagSmoke},
			Run: func(ctx context.Context, env *Env) error {
				p := env.Data.RandomProduct()
				env.State.SetProduct(p)
				if err := addToCart(ctx, env, p); err != nil {
					return err
				}
				if err := env.Step("button shows remove", func() error {
					return True(p.Name+" marked as in cart", env.Pages.Products.IsProductInCart(ctx, p.Name))
				}); err != nil {
					return err
				}
				return openCart(ctx, env)
			},
		},
		{
			Name: "add product to cart from details",
			Tags: []string{TagCart},
			Run: func(ctx context.Context, env *Env) error {
				p := env.Data.RandomProduct()
				env.State.SetProduct(p)
				details := env.Pages.Details
				if err := env.Step("open details", func() error {
					if err := env.Pages.Products.SelectProduct(ctx, p.Name); err != nil {
						return err
					}
					if err := details.WaitForPageToLoad(ctx); err != nil {
						return err
					}
					title, err := details.Title(ctx)
					if err != nil {
						return err
					}
					if err := Equal("details title", p.Name, title); err != nil {
						return err
					}
					price, err := details.Price(ctx)
					if err != nil {
						return err
					}
					return Equal("details price", p.Price, price)
				}); err != nil {
					return err
				}
				if err := env.Step("add from details", func() error {
					if err := details.AddToCart(ctx); err != nil {
						return err
					}
					env.State.AddProduct(p)
					if err := True("details shows remove", details.IsInCart()); err != nil {
						return err
					}
					return Equal("cart badge", 1, details.CartCount())
				}); err != nil {
					return err
				}
				return env.Step("verify cart", func() error {
					if err := details.OpenCart(ctx); err != nil {
						return err
					}
					return env.Pages.Cart.VerifyCartContents(ctx, []string{p.Name})
				})
			},
		},
		{
			Name: "remove product from cart",
			Tags: []string{TagCart},
			Run: func(ctx context.Context, env *Env) error {
				p := env.Data.RandomProduct()
				if err := addToCart(ctx, env, p); err != nil {
					return err
				}
				if err := openCart(ctx, env); err != nil {
					return err
				}
				return env.Step("remove item", func() error {
					if err := env.Pages.Cart.RemoveItem(ctx, 0); err != nil {
						return err
					}
					if err := True("cart is empty", env.Pages.Cart.IsEmpty(ctx)); err != nil {
						return err
					}
					if err := env.Pages.Cart.ContinueShopping(ctx); err != nil {
						return err
					}
					if err := env.Pages.Products.WaitForPageToLoad(ctx); err != nil {
						return err
					}
					return Equal("cart badge", 0, env.Pages.Products.CartCount())
				})
			},
		},
		{
			Name: "add multiple products to cart",
			Tags: []string{TagCart},
			Run: func(ctx context.Context, env *Env) error {
				products := fixture.Products()[:3]
				if err := addToCart(ctx, env, products...); err != nil {
					return err
				}
				if err := openCart(ctx, env); err != nil {
					return err
				}
				return env.Step("cart total", func() error {
					var want float64
					for _, p := range products {
						want += p.PriceValue()
					}
					got, err := env.Pages.Cart.TotalAmount(ctx)
					if err != nil {
						return err
					}
					return Equal("cart total", fmt.Sprintf("%.2f", want), fmt.Sprintf("%.2f", got))
				})
			},
		},
		{
			Name: "product already in cart cannot be added twice",
			Tags: []string{TagCart},
			Run: func(ctx context.Context, env *Env) error {
				p := env.Data.RandomProduct()
				if err := addToCart(ctx, env, p); err != nil {
					return err
				}
				if err := env.Step("details shows remove", func() error {
					if err := env.Pages.Products.SelectProduct(ctx, p.Name); err != nil {
						return err
					}
					if err := env.Pages.Details.WaitForPageToLoad(ctx); err != nil {
						return err
					}
					return True(p.Name+" already in cart", env.Pages.Details.IsInCart())
				}); err != nil {
					return err
				}
				return env.Step("single cart entry", func() error {
					if err := env.Pages.Details.OpenCart(ctx); err != nil {
						return err
					}
					n, err := env.Pages.Cart.ItemCount(ctx)
					if err != nil {
						return err
					}
					return Equal("cart items", 1, n)
				})
			},
		},
	}
}

// Sorting covers each option of the sort dialog.
func Sorting() []Scenario {
	byName := func(desc bool) []string {
		names := productNames(fixture.Products())
		sort.Strings(names)
		if desc {
			sort.Sort(sort.Reverse(sort.StringSlice(names)))
		}
		return names
	}
	byPrice := func(desc bool) []string {
		products := fixture.Products()
		sort.SliceStable(products, func(i, j int) bool {
			if desc {
				return products[i].PriceValue() > products[j].PriceValue()
			}
			return products[i].PriceValue() < products[j].PriceValue()
		})
		prices := make([]string, len(products))
		for i, p := range products {
			prices[i] = p.Price
		}
		return prices
	}

	tests := []struct {
		order   page.SortOrder
		byPrice bool
		want    []string
	}{
		{page.SortNameAsc, false, byName(false)},
		{page.SortNameDesc, false, byName(true)},
		{page.SortPriceAsc, true, byPrice(false)},
		{page.SortPriceDesc, true, byPrice(true)},
	}
	out := make([]Scenario, 0, len(tests))
	for _, tt := range tests {
		tt := tt
		out = append(out, Scenario{
			Name: "sort products by " + string(tt.order),
			Tags: []string{TagSort},
			Run: func(ctx context.Context, env *Env) error {
				products := env.Pages.Products
				if err := env.Step("sort", func() error {
					if err := products.WaitForPageToLoad(ctx); err != nil {
						return err
					}
					return products.Sort(ctx, tt.order)
				}); err != nil {
					return err
				}
				return env.Step("verify order", func() error {
					got, err := products.ProductNames(ctx)
					if tt.byPrice {
						got, err = products.ProductPrices(ctx)
					}
					if err != nil {
						return err
					}
					return Equal(string(tt.order), tt.want, got)
				})
			},
		})
	}
	return out
}

// ViewToggle switches the product list layout and back.
func ViewToggle() Scenario {
	return Scenario{
		Name: "toggle product view",
		Tags: []string{TagView},
		Run: func(ctx context.Context, env *Env) error {
			products := env.Pages.Products
			if err := products.WaitForPageToLoad(ctx); err != nil {
				return err
			}
			initial := products.IsGridView(ctx)
			for _, name := range []string{"toggle", "toggle back"} {
				name := name
				if err := env.Step(name, func() error {
					before := products.IsGridView(ctx)
					if err := products.ToggleView(ctx); err != nil {
						return err
					}
					return True("layout changed", products.IsGridView(ctx) != before)
				}); err != nil {
					return err
				}
			}
			return Equal("layout restored", initial, products.IsGridView(ctx))
		},
	}
}

// toCheckoutInfo puts p in the cart and opens the information form.
func toCheckoutInfo(ctx context.Context, env *Env, products ...fixture.Product) error {
	if err := addToCart(ctx, env, products...); err != nil {
		return err
	}
	if err := openCart(ctx, env); err != nil {
		return err
	}
	return env.Step("start checkout", func() error {
		if err := env.Pages.Cart.Checkout(ctx); err != nil {
			return err
		}
		return env.Pages.CheckoutInfo.WaitForPageToLoad(ctx)
	})
}

// FormValidation submits the information form with one required field blank.
func FormValidation() []Scenario {
	tests := []struct {
		field fixture.CustomerField
		msg   string
	}{
		{fixture.FirstName, fixture.MsgFirstNameRequired},
		{fixture.LastName, fixture.MsgLastNameRequired},
		{fixture.ZipCode, fixture.MsgPostalCodeRequired},
	}
	out := make([]Scenario, 0, len(tests))
	for _, tt := range tests {
		tt := tt
		out = append(out, Scenario{
			Name: "checkout requires " + string(tt.field),
			Tags: []string{TagValidation, TagCheckout},
			Run: func(ctx context.Context, env *Env) error {
				if err := toCheckoutInfo(ctx, env, env.Data.RandomProduct()); err != nil {
					return err
				}
				info := env.Pages.CheckoutInfo
				return env.Step("submit incomplete form", func() error {
					if err := info.FillAndContinue(ctx, env.Data.InvalidCustomer(tt.field)); err != nil {
						return err
					}
					if err := True("validation error displayed", info.IsErrorDisplayed()); err != nil {
						return err
					}
					msg, err := info.ErrorMessage()
					if err != nil {
						return err
					}
					return Equal("validation message", tt.msg, msg)
				})
			},
		})
	}
	return out
}

// completeCheckout runs the purchase from the product list to the
// confirmation screen and back home.
func completeCheckout(ctx context.Context, env *Env, c fixture.CheckoutCase) error {
	if err := toCheckoutInfo(ctx, env, c.Products...); err != nil {
		return err
	}
	if err := env.Step("enter customer", func() error {
		env.State.SetCustomer(c.Customer)
		return env.Pages.CheckoutInfo.FillAndContinue(ctx, c.Customer)
	}); err != nil {
		return err
	}
	if err := env.Step("review order", func() error {
		summary := env.Pages.Summary
		if err := summary.WaitForPageToLoad(ctx); err != nil {
			return err
		}
		o, err := summary.Extract(ctx)
		if err != nil {
			return err
		}
		env.State.SetOrderSummary(o)
		var subtotal float64
		for _, p := range c.Products {
			subtotal += p.PriceValue()
		}
		if err := Contains("item total", o.Subtotal, fmt.Sprintf("$%.2f", subtotal)); err != nil {
			return err
		}
		n, err := env.Pages.Payment.ItemCount(ctx)
		if err != nil {
			return err
		}
		return Equal("items in summary", len(c.Products), n)
	}); err != nil {
		return err
	}
	if err := env.Step("pay", func() error {
		env.State.SetPayment(c.Payment)
		if err := env.Pages.Payment.SubmitPayment(ctx, c.Payment); err != nil {
			return err
		}
		if env.Pages.Payment.IsErrorDisplayed() {
			return Equal("payment error", "", env.Pages.Payment.ErrorMessage())
		}
		return nil
	}); err != nil {
		return err
	}
	if err := env.Step("confirmation", func() error {
		conf := env.Pages.Confirmation
		if err := conf.WaitForPageToLoad(ctx); err != nil {
			return err
		}
		if err := True("order successful", conf.IsOrderSuccessful(ctx)); err != nil {
			return err
		}
		o, err := conf.Extract(ctx)
		if err != nil {
			return err
		}
		env.State.SetOrderConfirmation(o)
		return Equal("confirmation header", fixture.MsgOrderComplete, o.Header)
	}); err != nil {
		return err
	}
	return env.Step("back home", func() error {
		if err := env.Pages.Confirmation.BackHome(ctx); err != nil {
			return err
		}
		if err := env.Pages.Products.WaitForPageToLoad(ctx); err != nil {
			return err
		}
		return Equal("cart badge", 0, env.Pages.Products.CartCount())
	})
}

// Checkout covers purchases, rejected inputs and payment failures.
func Checkout() []Scenario {
	out := []Scenario{
		{
			Name: "checkout happy path",
			Tags: []string{TagCheckout, TagSmoke},
			Run: func(ctx context.Context, env *Env) error {
				return completeCheckout(ctx, env, env.Data.HappyPath())
			},
		},
		{
			Name: "checkout multiple items",
			Tags: []string{TagCheckout},
			Run: func(ctx context.Context, env *Env) error {
				return completeCheckout(ctx, env, env.Data.MultipleItems())
			},
		},
	}

	// Descriptions only; each scenario draws its own data at run time.
	labels := fixture.New(0)
	for i, c := range labels.CheckoutCases() {
		i := i
		out = append(out, Scenario{
			Name: "checkout with " + c.Description,
			Tags: []string{TagCheckout, TagPayment},
			Run: func(ctx context.Context, env *Env) error {
				return completeCheckout(ctx, env, env.Data.CheckoutCases()[i])
			},
		})
	}
	for i, c := range labels.InvalidCheckoutCases() {
		i := i
		out = append(out, Scenario{
			Name: "checkout rejects " + c.Description,
			Tags: []string{TagCheckout, TagValidation},
			Run: func(ctx context.Context, env *Env) error {
				return invalidCheckout(ctx, env, env.Data.InvalidCheckoutCases()[i])
			},
		})
	}

	out = append(out, Scenario{
		Name: "payment server error",
		Tags: []string{TagCheckout, TagPayment},
		Run: func(ctx context.Context, env *Env) error {
			env.UsePayments(page.FailingResponder{})
			if err := toCheckoutInfo(ctx, env, env.Data.RandomProduct()); err != nil {
				return err
			}
			if err := env.Step("enter customer", func() error {
				return env.Pages.CheckoutInfo.FillAndContinue(ctx, env.Data.ValidCustomer())
			}); err != nil {
				return err
			}
			return env.Step("payment rejected", func() error {
				pay := env.Data.ValidPayment(fixture.Visa)
				pay.CardNumber = page.ServerErrorCard
				if err := env.Pages.Payment.SubmitPayment(ctx, pay); err != nil {
					return err
				}
				if err := True("payment error displayed", env.Pages.Payment.IsErrorDisplayed()); err != nil {
					return err
				}
				if err := Contains("payment error", env.Pages.Payment.ErrorMessage(), "Server error"); err != nil {
					return err
				}
				return True("order not confirmed", !env.Pages.Confirmation.IsConfirmationDisplayed())
			})
		},
	})
	return out
}

func isCustomerField(name string) bool {
	for _, f := range fixture.CustomerFields {
		if string(f) == name {
			return true
		}
	}
	return false
}

// invalidCheckout expects the blanked field to be rejected by the
// information form or, for card fields, by the payment backend.
func invalidCheckout(ctx context.Context, env *Env, c fixture.InvalidCheckoutCase) error {
	env.UsePayments(page.RequireCardFields)
	if err := toCheckoutInfo(ctx, env, c.Product); err != nil {
		return err
	}
	info := env.Pages.CheckoutInfo

	if isCustomerField(c.MissingField) {
		field := fixture.CustomerField(c.MissingField)
		if !info.Collects(field) {
			// The field is not on this build's form, so there is nothing to
			// reject. Recorded as a warning.
			env.OptionalStep("form collects "+c.MissingField, func() error {
				return True("form has a "+c.MissingField+" input", false)
			})
			return env.Step("submit form", func() error {
				if err := info.FillAndContinue(ctx, c.Customer); err != nil {
					return err
				}
				return env.Pages.Summary.WaitForPageToLoad(ctx)
			})
		}
		return env.Step("form rejected", func() error {
			if err := info.FillAndContinue(ctx, c.Customer); err != nil {
				return err
			}
			if err := True("validation error displayed", info.IsErrorDisplayed()); err != nil {
				return err
			}
			msg, err := info.ErrorMessage()
			if err != nil {
				return err
			}
			return Contains("validation message", strings.ToLower(msg), "required")
		})
	}

	if err := env.Step("enter customer", func() error {
		return info.FillAndContinue(ctx, c.Customer)
	}); err != nil {
		return err
	}
	return env.Step("payment rejected", func() error {
		if err := env.Pages.Payment.SubmitPayment(ctx, c.Payment); err != nil {
			return err
		}
		if err := True("payment error displayed", env.Pages.Payment.IsErrorDisplayed()); err != nil {
			return err
		}
		if err := Contains("payment error", strings.ToLower(env.Pages.Payment.ErrorMessage()), "required"); err != nil {
			return err
		}
		return True("order not confirmed", !env.Pages.Confirmation.IsConfirmationDisplayed())
	})
}
