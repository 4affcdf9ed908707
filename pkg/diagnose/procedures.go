package diagnose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/appium"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/wda"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/wait"
)

// FixWDA inspects the WebDriverAgent toolchain, clears stale WDA builds and
// rebuilds it. Problems are reported, never fatal.
func (d *Diagnostics) FixWDA(ctx context.Context) error {
	d.out.Title("WebDriverAgent Troubleshooting")

	d.out.Section("Appium installation")
	_, _ = d.run(ctx, "appium", "--version")
	_, _ = d.run(ctx, "appium", "driver", "list", "--installed")

	d.out.Section("Available simulators")
	_, _ = d.run(ctx, "xcrun", "simctl", "list", "devices", "available")

	d.out.Section("Port " + d.wdaPort())
	out, _ := d.sh.Run(ctx, "lsof", "-i", ":"+d.wdaPort())
	if out == "" {
		d.out.OK("port %s is free", d.wdaPort())
	} else {
		d.out.Warn("port %s is in use:", d.wdaPort())
		d.out.Output(out)
	}

	d.out.Section("Cleaning Xcode DerivedData")
	if err := d.cleanDerivedData(); err != nil {
		d.out.Fail("%v", err)
	}

	d.out.Section("Rebuilding WebDriverAgent")
	if _, err := d.run(ctx, "npx", "appium", "driver", "run", "xcuitest", "build-wda"); err == nil {
		d.out.OK("WebDriverAgent built")
	}

	d.out.Section("Booted simulator")
	udid := "<UDID>"
	sim, err := d.simctl.Booted(ctx)
	switch {
	case err != nil:
		d.out.Fail("%v", err)
	case sim == nil:
		d.out.Warn("no booted simulator; boot one with: xcrun simctl boot \"%s\"", d.cfg.IOS.DeviceName)
	default:
		udid = sim.UDID
		d.out.OK("%s (%s)", sim.Name, sim.UDID)
	}

	d.out.Section("Start WebDriverAgent manually")
	d.out.Info("npx appium driver run xcuitest open-wda -p %s --udid=%s", d.wdaPort(), udid)

	d.out.Section("Next steps")
	d.out.Steps(
		"Start WebDriverAgent with the command above",
		"Check it responds: curl "+d.wdaURL()+"/status",
		"Start Appium: npx appium --relaxed-security",
		"Run: shop-e2e check-appium",
	)
	return ctx.Err()
}

// cleanDerivedData removes WebDriverAgent build folders from Xcode's
// DerivedData.
func (d *Diagnostics) cleanDerivedData() error {
	dir, err := d.derivedDataDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "WebDriverAgent-*"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		d.out.OK("no WebDriverAgent builds in %s", dir)
		return nil
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			return fmt.Errorf("remove %s: %w", m, err)
		}
		d.out.OK("removed %s", m)
	}
	return nil
}

// CheckAppium verifies that a session can be created and the app reaches
// its login screen.
func (d *Diagnostics) CheckAppium(ctx context.Context) error {
	d.out.Title("Appium Connection Check")

	d.out.Section("Capabilities")
	caps, err := d.cleanCapabilities(d.cfg.Capabilities())
	if err != nil {
		return err
	}
	d.out.OK("capabilities verified (%d keys)", len(caps))

	d.out.Section("WebDriverAgent")
	st, err := d.wda.Status()
	if err != nil || !st.Ready {
		return d.fail("WebDriverAgent is not running at %s; run: shop-e2e setup-ios", d.wdaURL())
	}
	d.out.OK("WebDriverAgent is ready at %s", d.wdaURL())

	if err := ctx.Err(); err != nil {
		return err
	}

	d.out.Section("Session")
	sess, err := d.open(caps)
	if err != nil {
		return d.fail("failed to create session at %s: %v", d.cfg.AppiumURL, err)
	}
	defer func() {
		if err := sess.Disconnect(); err != nil {
			d.out.Warn("failed to delete session: %v", err)
			return
		}
		d.out.OK("session deleted")
	}()
	d.out.OK("session created")

	source, err := sess.Source()
	if err != nil {
		return d.fail("failed to read page source: %v", err)
	}
	elements, err := appium.ParseSource(source)
	switch {
	case err != nil:
		d.out.Warn("app launched but the page source could not be read: %v", err)
	case appium.HasAll(elements, "test-Username", "test-Password"):
		d.out.OK("app launched on the login screen")
	default:
		d.out.Warn("app launched but the login screen was not found")
	}
	return nil
}

// InspectorConfig prints cleaned capabilities for Appium Inspector.
func (d *Diagnostics) InspectorConfig(ctx context.Context) error {
	d.out.Title("Appium Inspector Configuration")

	if p := d.cfg.IOS.DerivedDataPath; p != "" {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
	}

	d.out.Section("Capabilities")
	caps, err := d.cleanCapabilities(d.cfg.Capabilities())
	if err != nil {
		return err
	}
	if err := d.printCapabilities(caps); err != nil {
		return err
	}
	d.printInspectorSteps()
	return ctx.Err()
}

// SetupIOS prepares a simulator, WebDriverAgent and Appium, then proves the
// stack with a test session and screenshot.
func (d *Diagnostics) SetupIOS(ctx context.Context) error {
	d.out.Title("iOS Appium Setup")
	port := d.wdaPort()

	d.out.Section("Freeing port " + port)
	if err := d.freePort(ctx, port); err != nil {
		d.out.Warn("%v", err)
	}

	d.out.Section("Simulator")
	sim, err := d.sims.EnsureBooted(ctx, d.cfg.IOS.DeviceName, d.cfg.IOS.PlatformVersion, bootTimeout)
	if err != nil {
		return d.fail("no simulator available: %v", err)
	}
	d.out.OK("%s (%s) is booted", sim.Name, sim.UDID)

	d.out.Section("WebDriverAgent")
	if err := d.sh.Start("npx", "appium", "driver", "run", "xcuitest", "open-wda", "-p", port, "--udid", sim.UDID); err != nil {
		return d.fail("failed to start WebDriverAgent: %v", err)
	}
	st, err := d.wda.WaitReady(ctx, wait.Options{
		Timeout:  (wdaPollAttempts - 1) * wdaPollInterval,
		Interval: wdaPollInterval,
		Clock:    d.clock,
		Timer:    d.timer,
	})
	if err != nil {
		return d.fail("WebDriverAgent did not become ready at %s; try: shop-e2e fix-wda", d.wdaURL())
	}
	d.out.OK("WebDriverAgent is ready (iOS %s)", st.OS.Version)

	d.out.Section("Appium")
	if err := d.ensureAppium(ctx); err != nil {
		return err
	}

	d.out.Section("Test session")
	caps := d.cfg.Capabilities()
	caps["appium:udid"] = sim.UDID
	caps["appium:usePrebuiltWDA"] = true
	caps["appium:preventWDAAttachments"] = true
	caps, err = d.cleanCapabilities(caps)
	if err != nil {
		return err
	}
	sess, err := d.open(caps)
	if err != nil {
		return d.fail("failed to create session: %v", err)
	}
	d.out.OK("session created")
	path, err := core.SaveScreenshot(sess, d.cfg.ScreenshotsDir(), "setup-ios", d.now())
	if err != nil {
		d.out.Warn("screenshot failed: %v", err)
	} else {
		d.out.OK("screenshot saved: %s", path)
	}
	if err := sess.Disconnect(); err != nil {
		d.out.Warn("failed to delete session: %v", err)
	}

	d.out.Section("Inspector capabilities")
	if err := d.printCapabilities(caps); err != nil {
		return err
	}
	d.printInspectorSteps()
	return nil
}

// freePort kills whatever listens on port.
func (d *Diagnostics) freePort(ctx context.Context, port string) error {
	out, _ := d.sh.Run(ctx, "lsof", "-ti", ":"+port)
	pids := strings.Fields(out)
	if len(pids) == 0 {
		d.out.OK("port %s is free", port)
		return nil
	}
	for _, pid := range pids {
		if _, err := d.sh.Run(ctx, "kill", "-9", pid); err != nil {
			return fmt.Errorf("failed to kill process %s on port %s: %w", pid, port, err)
		}
		d.out.OK("killed process %s", pid)
	}
	return nil
}

// ensureAppium starts the Appium server unless it already answers /status.
func (d *Diagnostics) ensureAppium(ctx context.Context) error {
	if st, err := d.appium.Status(); err == nil {
		d.out.OK("Appium %s is running at %s", st.Version, d.cfg.AppiumURL)
		return nil
	}
	if err := d.sh.Start("npx", "appium", "--relaxed-security"); err != nil {
		return d.fail("failed to start Appium: %v", err)
	}
	err := wait.Until(ctx, wait.Options{
		Timeout:  appiumStartTimeout,
		Interval: time.Second,
		What:     "Appium at " + d.cfg.AppiumURL,
		Clock:    d.clock,
		Timer:    d.timer,
	}, func() (bool, error) {
		_, err := d.appium.Status()
		return err == nil, err
	})
	if err != nil {
		return d.fail("Appium did not start at %s: %v", d.cfg.AppiumURL, err)
	}
	d.out.OK("Appium started at %s", d.cfg.AppiumURL)
	return nil
}

// probe is one Doctor check.
type probe struct {
	name   string
	ok     bool
	detail string
}

// Doctor probes Appium, WebDriverAgent and the simulator concurrently and
// reports all three.
func (d *Diagnostics) Doctor(ctx context.Context) error {
	d.out.Title("Environment Check")

	results := make([]probe, 3)
	var g errgroup.Group
	g.Go(func() error {
		results[0] = d.probeAppium()
		return nil
	})
	g.Go(func() error {
		results[1] = d.probeWDA()
		return nil
	})
	g.Go(func() error {
		results[2] = d.probeSimulator(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	var failed []string
	for _, r := range results {
		if r.ok {
			d.out.OK("%s: %s", r.name, r.detail)
			continue
		}
		d.out.Fail("%s: %s", r.name, r.detail)
		failed = append(failed, r.name)
	}
	logger.Info("doctor: %d/%d checks passed", len(results)-len(failed), len(results))
	if len(failed) > 0 {
		return cli.Exit(fmt.Sprintf("environment not ready: %s", strings.Join(failed, ", ")), 1)
	}
	return nil
}

func (d *Diagnostics) probeAppium() probe {
	p := probe{name: "Appium"}
	st, err := d.appium.Status()
	if err != nil {
		p.detail = fmt.Sprintf("not reachable at %s", d.cfg.AppiumURL)
		return p
	}
	p.ok = true
	p.detail = describeAppium(st, d.cfg.AppiumURL)
	return p
}

func describeAppium(st *appium.ServerStatus, url string) string {
	if st.Version != "" {
		return fmt.Sprintf("%s at %s", st.Version, url)
	}
	return "running at " + url
}

func (d *Diagnostics) probeWDA() probe {
	p := probe{name: "WebDriverAgent"}
	st, err := d.wda.Status()
	switch {
	case err != nil:
		p.detail = fmt.Sprintf("not reachable at %s", d.wdaURL())
	case !st.Ready:
		p.detail = fmt.Sprintf("not ready at %s (state %q)", d.wdaURL(), st.State)
	default:
		p.ok = true
		p.detail = describeWDA(st, d.wdaURL())
	}
	return p
}

func describeWDA(st *wda.Status, url string) string {
	if st.OS.Version != "" {
		return fmt.Sprintf("ready at %s (iOS %s)", url, st.OS.Version)
	}
	return "ready at " + url
}

func (d *Diagnostics) probeSimulator(ctx context.Context) probe {
	p := probe{name: "Simulator"}
	if err := d.simctl.Available(); err != nil {
		p.detail = err.Error()
		return p
	}
	sim, err := d.simctl.Booted(ctx)
	switch {
	case err != nil:
		p.detail = err.Error()
	case sim == nil:
		p.detail = "none booted"
	default:
		p.ok = true
		p.detail = fmt.Sprintf("%s (%s) booted", sim.Name, sim.UDID)
	}
	return p
}

// WDAStatus prints the WebDriverAgent /status response.
func (d *Diagnostics) WDAStatus(ctx context.Context) error {
	st, err := d.wda.Status()
	if err != nil {
		return d.fail("WebDriverAgent not reachable at %s: %v", d.wdaURL(), err)
	}
	if !st.Ready {
		return d.fail("WebDriverAgent at %s is not ready (state %q)", d.wdaURL(), st.State)
	}
	d.out.OK("WebDriverAgent ready at %s", d.wdaURL())
	if st.OS.Name != "" {
		d.out.Info("OS:     %s %s (SDK %s)", st.OS.Name, st.OS.Version, st.OS.SDKVersion)
	}
	if st.IOS.IP != "" {
		d.out.Info("IP:     %s", st.IOS.IP)
	}
	if st.Build.BundleID != "" {
		d.out.Info("Bundle: %s", st.Build.BundleID)
	}
	return ctx.Err()
}
