package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/shop-e2e/pkg/config"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/appium"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/mock"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/page"
	"github.com/devicelab-dev/shop-e2e/pkg/report"
	"github.com/devicelab-dev/shop-e2e/pkg/scenario"
)

// Drivers
const (
	driverAppium = "appium"
	driverMock   = "mock"
)

var tagFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "include-tags",
		Usage: "Only run scenarios with any of these tags",
	},
	&cli.StringSliceFlag{
		Name:  "exclude-tags",
		Usage: "Skip scenarios with any of these tags",
	},
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the end-to-end scenarios",
	Description: `Run the scenario catalogue against the app, one fresh session per
scenario.

Reports are written to <reports-dir>/report.json with one detail file per
scenario under <reports-dir>/scenarios/. Failure screenshots go to
<reports-dir>/screenshots/.

Examples:
  shop-e2e run
  shop-e2e run --include-tags smoke
  shop-e2e run --exclude-tags payment --seed 7
  shop-e2e run --driver mock`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "driver",
			Aliases: []string{"d"},
			Usage:   "Driver to use (appium, mock)",
			Value:   driverAppium,
			EnvVars: []string{"SHOP_E2E_DRIVER"},
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "Test data seed (default: time based)",
		},
	}, tagFlags...),
	Action: runScenarios,
}

func runScenarios(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	driver := c.String("driver")
	factory, err := sessionFactory(driver, cfg)
	if err != nil {
		return err
	}

	include, exclude := tagFilters(c, cfg)
	seed := c.Int64("seed")
	if !c.IsSet("seed") {
		seed = time.Now().UnixNano()
	}

	scenarios := scenario.All()
	planned := make([]report.Planned, len(scenarios))
	for i, s := range scenarios {
		planned[i] = report.Planned{Name: s.Name, Tags: s.Tags}
	}
	writer, err := report.NewWriter(report.Config{
		OutputDir: cfg.ReportsDir,
		Device: report.Device{
			ID:          cfg.IOS.UDID,
			Name:        cfg.IOS.DeviceName,
			Platform:    cfg.Platform,
			OSVersion:   cfg.IOS.PlatformVersion,
			IsSimulator: true,
		},
		App:    report.App{ID: cfg.IOS.AppPath, Name: strings.TrimSuffix(filepath.Base(cfg.IOS.AppPath), ".app")},
		Runner: report.RunnerInfo{Version: Version, Driver: driver},
	}, planned)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "\n  %sshop-e2e %s%s  driver: %s  seed: %d\n", color(colorBold), Version, color(colorReset), driver, seed)
	if len(include) > 0 || len(exclude) > 0 {
		fmt.Fprintf(w, "  tags: include=%v exclude=%v\n", include, exclude)
	}

	out := progress{w: w}
	runner := scenario.NewRunner(factory, scenario.RunnerConfig{
		Config:          cfg,
		PageOptions:     page.OptionsFromConfig(cfg),
		Seed:            seed,
		IncludeTags:     include,
		ExcludeTags:     exclude,
		Report:          writer,
		OnScenarioStart: out.onScenarioStart,
		OnScenarioEnd:   out.onScenarioEnd,
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	suite := runner.Run(ctx, scenarios)

	printSummary(w, suite)
	fmt.Fprintf(w, "\n  Report: %s\n\n", writer.Path())

	if !suite.Success() {
		if suite.PassedScenarios+suite.FailedScenarios == 0 {
			return cli.Exit("no scenarios matched the tag filters", 1)
		}
		return cli.Exit(fmt.Sprintf("%d of %d scenarios failed", suite.FailedScenarios, suite.TotalScenarios-suite.SkippedScenarios), 1)
	}
	return nil
}

// sessionFactory opens sessions for the named driver.
func sessionFactory(driver string, cfg *config.Config) (scenario.SessionFactory, error) {
	switch driver {
	case driverAppium:
		return func(context.Context) (core.Session, error) {
			return appium.Open(cfg.AppiumURL, cfg.Timeouts.Command, cfg.Capabilities())
		}, nil
	case driverMock:
		return func(context.Context) (core.Session, error) {
			return mock.NewShop(), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown driver %q (expected %s or %s)", driver, driverAppium, driverMock)
}

// tagFilters returns the flag tags, falling back to the config file's.
func tagFilters(c *cli.Context, cfg *config.Config) (include, exclude []string) {
	include, exclude = cfg.IncludeTags, cfg.ExcludeTags
	if c.IsSet("include-tags") {
		include = c.StringSlice("include-tags")
	}
	if c.IsSet("exclude-tags") {
		exclude = c.StringSlice("exclude-tags")
	}
	return include, exclude
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List the scenario catalogue",
	Flags: tagFlags,
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		include, exclude := tagFilters(c, cfg)
		w := c.App.Writer
		selected := 0
		for _, s := range scenario.All() {
			tags := ""
			if len(s.Tags) > 0 {
				tags = " " + color(colorGray) + "[" + strings.Join(s.Tags, ", ") + "]" + color(colorReset)
			}
			if scenario.Selected(s, include, exclude) {
				selected++
				fmt.Fprintf(w, "  %s✓%s %s%s\n", color(colorGreen), color(colorReset), s.Name, tags)
			} else {
				fmt.Fprintf(w, "  %s-%s %s%s\n", color(colorCyan), color(colorReset), s.Name, tags)
			}
		}
		fmt.Fprintf(w, "\n  %d of %d scenarios selected\n", selected, len(scenario.All()))
		return nil
	},
}
