// Package config handles configuration for shop-e2e.
//
// Values are layered: built-in defaults, then the workspace file
// (shop-e2e.yaml), then environment variables, then CLI flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/shop-e2e/pkg/capability"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/retry"
)

// Environment variables read by ApplyEnv.
const (
	EnvPlatform        = "PLATFORM"
	EnvDeviceName      = "IOS_DEVICE_NAME"
	EnvPlatformVersion = "IOS_PLATFORM_VERSION"
	EnvAppPath         = "IOS_APP_PATH"
	EnvAppiumURL       = "APPIUM_URL"
	EnvWDAURL          = "WDA_URL"
	EnvLogLevel        = "LOG_LEVEL"
	EnvReportsDir      = "REPORTS_DIR"
)

// Defaults
const (
	PlatformIOS            = "ios"
	DefaultAppiumURL       = "http://127.0.0.1:4723"
	DefaultWDAURL          = "http://127.0.0.1:8100"
	DefaultDeviceName      = "iPhone 16 Plus"
	DefaultPlatformVersion = "18.4"
	DefaultAppPath         = "./apps/iOS.Simulator.SauceLabs.Mobile.Sample.app.2.7.1.app"
	DefaultDerivedDataPath = "./derived_data"
	DefaultReportsDir      = "reports"
)

// Config represents the workspace configuration (shop-e2e.yaml).
type Config struct {
	Platform   string `yaml:"platform"`   // Target platform, only "ios"
	AppiumURL  string `yaml:"appiumUrl"`  // Automation server
	WDAURL     string `yaml:"wdaUrl"`     // WebDriverAgent; empty lets the driver manage WDA
	ReportsDir string `yaml:"reportsDir"` // Reports and screenshots root

	IOS      IOSConfig    `yaml:"ios"`
	Timeouts Timeouts     `yaml:"timeouts"`
	Retry    retry.Config `yaml:"retry"`
	Log      LogConfig    `yaml:"log"`

	// Scenario selection
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`

	// Extra capabilities merged over the generated ones
	ExtraCapabilities map[string]interface{} `yaml:"capabilities"`
}

// IOSConfig holds simulator and app settings.
type IOSConfig struct {
	DeviceName              string `yaml:"deviceName"`
	PlatformVersion         string `yaml:"platformVersion"`
	AppPath                 string `yaml:"appPath"`
	UDID                    string `yaml:"udid"`
	DerivedDataPath         string `yaml:"derivedDataPath"`
	NoReset                 bool   `yaml:"noReset"`
	WDAStartupRetries       int    `yaml:"wdaStartupRetries"`
	WDAStartupRetryInterval int    `yaml:"wdaStartupRetryIntervalMs"`
}

// Timeouts bound waits at each layer.
type Timeouts struct {
	Element   time.Duration `yaml:"element"`   // wait for a single element
	Candidate time.Duration `yaml:"candidate"` // per locator in a fallback chain
	PageLoad  time.Duration `yaml:"pageLoad"`  // screen identification
	Poll      time.Duration `yaml:"poll"`      // wait interval
	Command   time.Duration `yaml:"command"`   // HTTP round trip to the server
}

// LogConfig controls the run log.
type LogConfig struct {
	Level string `yaml:"level"` // 0-3 or debug/info/warn/error
	File  string `yaml:"file"`  // relative paths are under ReportsDir
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Platform:   PlatformIOS,
		AppiumURL:  DefaultAppiumURL,
		WDAURL:     DefaultWDAURL,
		ReportsDir: DefaultReportsDir,
		IOS: IOSConfig{
			DeviceName:              DefaultDeviceName,
			PlatformVersion:         DefaultPlatformVersion,
			AppPath:                 DefaultAppPath,
			DerivedDataPath:         DefaultDerivedDataPath,
			WDAStartupRetries:       4,
			WDAStartupRetryInterval: 20000,
		},
		Timeouts: Timeouts{
			Element:   10 * time.Second,
			Candidate: 2 * time.Second,
			PageLoad:  15 * time.Second,
			Poll:      500 * time.Millisecond,
			Command:   60 * time.Second,
		},
		Retry: retry.DefaultConfig(),
		Log:   LogConfig{Level: "info", File: "shop-e2e.log"},
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir looks for shop-e2e.yaml or shop-e2e.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"shop-e2e.yaml", "shop-e2e.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, use defaults
	return Default(), nil
}

// ApplyEnv overrides values from environment variables. getenv is usually
// os.Getenv; empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Platform, EnvPlatform)
	set(&c.IOS.DeviceName, EnvDeviceName)
	set(&c.IOS.PlatformVersion, EnvPlatformVersion)
	set(&c.IOS.AppPath, EnvAppPath)
	set(&c.AppiumURL, EnvAppiumURL)
	set(&c.WDAURL, EnvWDAURL)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.ReportsDir, EnvReportsDir)
	c.Platform = strings.ToLower(c.Platform)
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Platform != PlatformIOS {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported platform %q (only %q is configured)", c.Platform, PlatformIOS))
	}
	if err := checkURL("appiumUrl", c.AppiumURL, true); err != nil {
		return err
	}
	if err := checkURL("wdaUrl", c.WDAURL, false); err != nil {
		return err
	}
	if c.IOS.DeviceName == "" {
		return core.ErrMissingRequired.WithMessage("ios.deviceName is required")
	}
	if c.IOS.AppPath == "" {
		return core.ErrMissingRequired.WithMessage("ios.appPath is required")
	}
	for name, d := range map[string]time.Duration{
		"timeouts.element":   c.Timeouts.Element,
		"timeouts.candidate": c.Timeouts.Candidate,
		"timeouts.pageLoad":  c.Timeouts.PageLoad,
		"timeouts.poll":      c.Timeouts.Poll,
		"timeouts.command":   c.Timeouts.Command,
	} {
		if d <= 0 {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s must be positive, got %v", name, d))
		}
	}
	return c.Retry.Validate()
}

func checkURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return core.ErrMissingRequired.WithMessage(field + " is required")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s %q is not an absolute URL", field, raw))
	}
	return nil
}

// ScreenshotsDir returns <reportsDir>/screenshots.
func (c *Config) ScreenshotsDir() string {
	return filepath.Join(c.ReportsDir, core.ScreenshotDirName)
}

// LogFile returns the log file path, resolved against ReportsDir.
func (c *Config) LogFile() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.ReportsDir, c.Log.File)
}

// Capabilities builds the W3C capabilities for an XCUITest session against a
// pre-started WebDriverAgent. Unset optional values are left nil so that
// capability cleaning drops them.
func (c *Config) Capabilities() map[string]interface{} {
	caps := map[string]interface{}{
		"platformName":                   "iOS",
		"appium:automationName":          "XCUITest",
		"appium:deviceName":              c.IOS.DeviceName,
		"appium:platformVersion":         c.IOS.PlatformVersion,
		"appium:app":                     absPath(c.IOS.AppPath),
		"appium:udid":                    optional(c.IOS.UDID),
		"appium:webDriverAgentUrl":       optional(c.WDAURL),
		"appium:useNewWDA":               false,
		"appium:derivedDataPath":         absPath(c.IOS.DerivedDataPath),
		"appium:noReset":                 c.IOS.NoReset,
		"appium:wdaStartupRetries":       c.IOS.WDAStartupRetries,
		"appium:wdaStartupRetryInterval": c.IOS.WDAStartupRetryInterval,
		"appium:newCommandTimeout":       int(c.Timeouts.Command / time.Second),
	}
	for k, v := range c.ExtraCapabilities {
		caps[k] = v
	}
	return caps
}

// AutoWDACapabilities is Capabilities with WebDriverAgent built and launched
// by the driver instead of attached to by URL.
func (c *Config) AutoWDACapabilities() map[string]interface{} {
	caps := capability.RemoveKeys(c.Capabilities(), "appium:webDriverAgentUrl")
	caps["appium:useNewWDA"] = true
	caps["appium:usePrebuiltWDA"] = false
	return caps
}

func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// absPath expands ~ and makes p absolute. Empty stays nil.
func absPath(p string) interface{} {
	if p == "" {
		return nil
	}
	if expanded, err := homedir.Expand(p); err == nil {
		p = expanded
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
