package page

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/fixture"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// Login is the sign-in screen.
type Login struct {
	*Base
}

// NewLogin creates the login page.
func NewLogin(d core.Driver, opts Options) *Login {
	return &Login{Base: newBase(d, "login", loginSelectors.Username, opts)}
}

// Login enters the credentials and taps LOGIN. It does not wait for the next
// screen; a rejected login leaves the app here with an error message.
func (p *Login) Login(ctx context.Context, username, password string) error {
	if err := p.WaitForPageToLoad(ctx); err != nil {
		return err
	}
	logger.Info("logging in as %q", username)
	if err := p.SetText(ctx, loginSelectors.Username, username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	if err := p.SetText(ctx, loginSelectors.Password, password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	return p.Click(ctx, loginSelectors.Button)
}

// LoginAs logs in with a known account.
func (p *Login) LoginAs(ctx context.Context, c fixture.Credentials) error {
	return p.Login(ctx, c.Username, c.Password)
}

// IsErrorDisplayed reports whether a login error is showing.
func (p *Login) IsErrorDisplayed() bool {
	return p.IsDisplayed(loginSelectors.Error)
}

// ErrorMessage returns the login error text.
func (p *Login) ErrorMessage(ctx context.Context) (string, error) {
	return p.Text(ctx, loginSelectors.Error)
}
