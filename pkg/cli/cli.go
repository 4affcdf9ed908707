// Package cli provides the command-line interface for shop-e2e.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to shop-e2e.yaml (default: ./shop-e2e.yaml when present)",
		EnvVars: []string{"SHOP_E2E_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "wda-url",
		Usage:   "WebDriverAgent URL",
		EnvVars: []string{"WDA_URL"},
	},
	&cli.StringFlag{
		Name:    "reports-dir",
		Usage:   "Directory for reports, screenshots and logs",
		EnvVars: []string{"REPORTS_DIR"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"SHOP_E2E_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the shop-e2e application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "shop-e2e",
		Usage:   "End-to-end tests for the shopping sample app on iOS",
		Version: Version,
		Description: `shop-e2e drives the shopping sample app through Appium and
WebDriverAgent: login, catalogue, cart, sorting and checkout scenarios,
plus tools to get the simulator stack running.

Examples:
  shop-e2e run
  shop-e2e run --include-tags smoke
  shop-e2e run --driver mock
  shop-e2e doctor
  shop-e2e setup-ios`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			listCommand,
			doctorCommand,
			fixWDACommand,
			checkAppiumCommand,
			inspectorConfigCommand,
			setupIOSCommand,
			wdaCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		if _, ok := err.(cli.ExitCoder); !ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
