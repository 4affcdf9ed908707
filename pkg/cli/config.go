package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/shop-e2e/pkg/config"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// loadConfig layers the configuration: defaults, the config file, the
// environment, then flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)

	if v := c.String("appium-url"); v != "" {
		cfg.AppiumURL = v
	}
	if v := c.String("wda-url"); v != "" {
		cfg.WDAURL = v
	}
	if v := c.String("reports-dir"); v != "" {
		cfg.ReportsDir = v
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogging opens the run log under the reports directory. Verbose runs
// mirror the log to stderr.
func initLogging(c *cli.Context, cfg *config.Config) error {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Log.File == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.ReportsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	if c.Bool("verbose") {
		logger.EnableConsole(os.Stderr)
	}
	if err := logger.Init(cfg.LogFile()); err != nil {
		return err
	}
	logger.Info("shop-e2e %s, config: appium=%s wda=%s reports=%s", Version, cfg.AppiumURL, cfg.WDAURL, cfg.ReportsDir)
	return nil
}

// setup loads the configuration and starts logging.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := initLogging(c, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
