// Package diagnose implements the environment procedures behind the
// fix-wda, check-appium, inspector-config, setup-ios and doctor commands.
//
// Each procedure is a fixed sequence of checks printed to a Console. Problems
// that only need reporting are printed and the procedure carries on;
// verification failures stop it with a cli.Exit error carrying exit code 1.
package diagnose

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/shop-e2e/pkg/capability"
	"github.com/devicelab-dev/shop-e2e/pkg/config"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/appium"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/wda"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/shell"
	"github.com/devicelab-dev/shop-e2e/pkg/simulator"
)

const (
	wdaPollAttempts    = 15
	wdaPollInterval    = 2 * time.Second
	appiumStartTimeout = 30 * time.Second
	bootTimeout        = 2 * time.Minute
)

// SessionOpener creates an automation session with the given capabilities.
type SessionOpener func(caps map[string]interface{}) (core.Session, error)

// AppiumSessions opens sessions on the Appium server at serverURL.
func AppiumSessions(serverURL string, timeout time.Duration) SessionOpener {
	return func(caps map[string]interface{}) (core.Session, error) {
		return appium.Open(serverURL, timeout, caps)
	}
}

// Diagnostics runs the procedures against one configuration.
type Diagnostics struct {
	cfg     *config.Config
	out     *Console
	sh      shell.Runner
	open    SessionOpener
	homeDir string
	clock   backoff.Clock
	timer   backoff.Timer

	simctl *simulator.Simctl
	sims   *simulator.Manager
	wda    *wda.Client
	appium *appium.Client
}

// Option configures Diagnostics.
type Option func(*Diagnostics)

// WithOutput sets where procedure output goes.
func WithOutput(w io.Writer, color bool) Option {
	return func(d *Diagnostics) { d.out = NewConsole(w, color) }
}

// WithShell replaces the process runner.
func WithShell(sh shell.Runner) Option {
	return func(d *Diagnostics) { d.sh = sh }
}

// WithSessionOpener replaces how test sessions are created.
func WithSessionOpener(open SessionOpener) Option {
	return func(d *Diagnostics) { d.open = open }
}

// WithHomeDir overrides the user's home directory.
func WithHomeDir(dir string) Option {
	return func(d *Diagnostics) { d.homeDir = dir }
}

// WithClock sets the clock and timer used by polling steps.
func WithClock(c backoff.Clock, t backoff.Timer) Option {
	return func(d *Diagnostics) {
		d.clock = c
		d.timer = t
	}
}

// New creates Diagnostics for cfg.
func New(cfg *config.Config, opts ...Option) *Diagnostics {
	d := &Diagnostics{
		cfg: cfg,
		out: NewConsole(os.Stdout, false),
		sh:  shell.Exec{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.open == nil {
		d.open = AppiumSessions(cfg.AppiumURL, cfg.Timeouts.Command)
	}
	var simOpts []simulator.Option
	if d.clock != nil {
		simOpts = append(simOpts, simulator.WithClock(d.clock, d.timer))
	}
	d.simctl = simulator.New(d.sh, simOpts...)
	d.sims = simulator.NewManager(d.simctl)
	d.wda = wda.NewClient(d.wdaURL())
	d.appium = appium.NewClient(cfg.AppiumURL, 10*time.Second)
	return d
}

func (d *Diagnostics) now() time.Time {
	if d.clock != nil {
		return d.clock.Now()
	}
	return time.Now()
}

func (d *Diagnostics) wdaURL() string {
	if d.cfg.WDAURL != "" {
		return d.cfg.WDAURL
	}
	return config.DefaultWDAURL
}

// wdaPort is the port of the configured WDA URL.
func (d *Diagnostics) wdaPort() string {
	if u, err := url.Parse(d.wdaURL()); err == nil && u.Port() != "" {
		return u.Port()
	}
	return strconv.Itoa(wda.DefaultPort)
}

func (d *Diagnostics) home() (string, error) {
	if d.homeDir != "" {
		return d.homeDir, nil
	}
	return homedir.Dir()
}

// run echoes and runs a command, printing its output. Failures are printed
// and returned.
func (d *Diagnostics) run(ctx context.Context, name string, args ...string) (string, error) {
	d.out.Command(shell.Line(name, args...))
	out, err := d.sh.Run(ctx, name, args...)
	d.out.Output(out)
	if err != nil {
		d.out.Fail("%v", err)
	}
	return out, err
}

// fail prints msg and returns it as an exit-code-1 error.
func (d *Diagnostics) fail(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	d.out.Fail("%s", msg)
	logger.Error("%s", msg)
	return cli.Exit(msg, 1)
}

// cleanCapabilities cleans and verifies caps, failing with exit code 1 when
// placeholder values survive.
func (d *Diagnostics) cleanCapabilities(caps map[string]interface{}) (map[string]interface{}, error) {
	cleaned := capability.Clean(caps)
	if err := capability.Verify(cleaned); err != nil {
		return nil, d.fail("capabilities verification failed: %v", err)
	}
	return cleaned, nil
}

func (d *Diagnostics) printCapabilities(caps map[string]interface{}) error {
	data, err := json.MarshalIndent(caps, "", "  ")
	if err != nil {
		return err
	}
	d.out.Output(string(data))
	return nil
}

func (d *Diagnostics) printInspectorSteps() {
	d.out.Section("Appium Inspector")
	d.out.Steps(
		"Start Appium server: npx appium --relaxed-security",
		"Make sure WebDriverAgent is running at "+d.wdaURL(),
		"Copy the above capabilities to Appium Inspector",
		"Remote Host: localhost, Port: 4723, Path: /",
		"Click Start Session",
	)
}

// derivedDataDir returns Xcode's DerivedData folder.
func (d *Diagnostics) derivedDataDir() (string, error) {
	home, err := d.home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Developer", "Xcode", "DerivedData"), nil
}
