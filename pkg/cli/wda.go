package cli

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/shop-e2e/pkg/diagnose"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// diagnoseAction runs one diagnostics procedure with the loaded config.
func diagnoseAction(proc func(*diagnose.Diagnostics, context.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := setup(c)
		if err != nil {
			return err
		}
		defer logger.Close()
		d := diagnose.New(cfg, diagnose.WithOutput(c.App.Writer, colorsEnabled))
		return proc(d, c.Context)
	}
}

var doctorCommand = &cli.Command{
	Name:   "doctor",
	Usage:  "Check that Appium, WebDriverAgent and a simulator are available",
	Action: diagnoseAction((*diagnose.Diagnostics).Doctor),
}

var fixWDACommand = &cli.Command{
	Name:  "fix-wda",
	Usage: "Diagnose and rebuild WebDriverAgent",
	Description: `Print the Appium and simulator setup, show what holds the WDA port,
remove stale WebDriverAgent builds from Xcode DerivedData and rebuild WDA.`,
	Action: diagnoseAction((*diagnose.Diagnostics).FixWDA),
}

var checkAppiumCommand = &cli.Command{
	Name:  "check-appium",
	Usage: "Verify capabilities, WebDriverAgent and a test session",
	Description: `Exits with status 1 when capabilities fail verification, WDA is
not running, or no session can be created.`,
	Action: diagnoseAction((*diagnose.Diagnostics).CheckAppium),
}

var inspectorConfigCommand = &cli.Command{
	Name:   "inspector-config",
	Usage:  "Print capabilities for Appium Inspector",
	Action: diagnoseAction((*diagnose.Diagnostics).InspectorConfig),
}

var setupIOSCommand = &cli.Command{
	Name:   "setup-ios",
	Usage:  "Boot a simulator, start WebDriverAgent and Appium, and test a session",
	Action: diagnoseAction((*diagnose.Diagnostics).SetupIOS),
}

var wdaCommand = &cli.Command{
	Name:  "wda",
	Usage: "Inspect WebDriverAgent",
	Description: `Examples:
  # Show WebDriverAgent status
  shop-e2e wda status

  # Against another WDA
  shop-e2e --wda-url http://127.0.0.1:8101 wda status`,
	Subcommands: []*cli.Command{
		{
			Name:   "status",
			Usage:  "Show WebDriverAgent /status",
			Action: diagnoseAction((*diagnose.Diagnostics).WDAStatus),
		},
	},
	// Default action when running 'shop-e2e wda' without subcommand
	Action: func(c *cli.Context) error {
		return cli.ShowSubcommandHelp(c)
	},
}
