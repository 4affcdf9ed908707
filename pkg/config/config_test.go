package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/shop-e2e/pkg/capability"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "shop-e2e.yaml")

	content := `
platform: ios
appiumUrl: http://10.0.0.5:4723
ios:
  deviceName: iPhone 15
  platformVersion: "17.5"
timeouts:
  element: 5s
  pageLoad: 20s
retry:
  maxAttempts: 5
  intervalMs: 250
  exponentialBackoff: false
includeTags:
  - smoke
capabilities:
  appium:language: en
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AppiumURL != "http://10.0.0.5:4723" {
		t.Errorf("expected appiumUrl override, got %s", cfg.AppiumURL)
	}
	if cfg.IOS.DeviceName != "iPhone 15" || cfg.IOS.PlatformVersion != "17.5" {
		t.Errorf("expected ios overrides, got %+v", cfg.IOS)
	}
	if cfg.Timeouts.Element != 5*time.Second || cfg.Timeouts.PageLoad != 20*time.Second {
		t.Errorf("expected duration overrides, got %+v", cfg.Timeouts)
	}
	if cfg.Timeouts.Candidate != 2*time.Second {
		t.Errorf("expected candidate default kept, got %v", cfg.Timeouts.Candidate)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.IntervalMs != 250 || cfg.Retry.ExponentialBackoff {
		t.Errorf("expected retry overrides, got %+v", cfg.Retry)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "smoke" {
		t.Errorf("expected includeTags [smoke], got %v", cfg.IncludeTags)
	}
	if cfg.WDAURL != DefaultWDAURL {
		t.Errorf("expected default wdaUrl, got %s", cfg.WDAURL)
	}
	if cfg.ExtraCapabilities["appium:language"] != "en" {
		t.Errorf("expected extra capability, got %v", cfg.ExtraCapabilities)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/shop-e2e.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "shop-e2e.yaml")

	content := `includeTags: [invalid yaml`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EmptyConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "shop-e2e.yaml")

	if err := os.WriteFile(configPath, []byte(``), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AppiumURL != DefaultAppiumURL || cfg.IOS.DeviceName != DefaultDeviceName {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "shop-e2e.yaml"), []byte(`reportsDir: out-yaml`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shop-e2e.yml"), []byte(`reportsDir: out-yml`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ReportsDir != "out-yaml" {
		t.Errorf("expected reportsDir from shop-e2e.yaml, got %s", cfg.ReportsDir)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Platform != PlatformIOS {
		t.Errorf("expected default platform, got %s", cfg.Platform)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPlatform:        "IOS",
		EnvDeviceName:      "iPhone SE (3rd generation)",
		EnvPlatformVersion: "17.0",
		EnvAppPath:         "/apps/Sample.app",
		EnvAppiumURL:       "http://appium:4723",
		EnvLogLevel:        "0",
		EnvReportsDir:      "/tmp/reports",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Platform != "ios" {
		t.Errorf("platform should be lower-cased, got %s", cfg.Platform)
	}
	if cfg.IOS.DeviceName != "iPhone SE (3rd generation)" || cfg.IOS.PlatformVersion != "17.0" || cfg.IOS.AppPath != "/apps/Sample.app" {
		t.Errorf("unexpected ios settings: %+v", cfg.IOS)
	}
	if cfg.AppiumURL != "http://appium:4723" || cfg.Log.Level != "0" || cfg.ReportsDir != "/tmp/reports" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.WDAURL != DefaultWDAURL {
		t.Errorf("unset env must keep default, got %s", cfg.WDAURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"android", func(c *Config) { c.Platform = "android" }, core.ErrInvalidConfig},
		{"no appium url", func(c *Config) { c.AppiumURL = "" }, core.ErrMissingRequired},
		{"relative appium url", func(c *Config) { c.AppiumURL = "localhost" }, core.ErrInvalidConfig},
		{"no wda url is fine", func(c *Config) { c.WDAURL = "" }, nil},
		{"no device", func(c *Config) { c.IOS.DeviceName = "" }, core.ErrMissingRequired},
		{"zero poll", func(c *Config) { c.Timeouts.Poll = 0 }, core.ErrInvalidConfig},
		{"bad retry", func(c *Config) { c.Retry.MaxAttempts = 0 }, core.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	cfg := Default()
	cfg.IOS.AppPath = "/apps/Sample.app"
	caps := cfg.Capabilities()

	if caps["platformName"] != "iOS" || caps["appium:automationName"] != "XCUITest" {
		t.Errorf("unexpected platform caps: %v", caps)
	}
	if caps["appium:app"] != "/apps/Sample.app" {
		t.Errorf("expected absolute app path, got %v", caps["appium:app"])
	}
	if caps["appium:webDriverAgentUrl"] != DefaultWDAURL {
		t.Errorf("expected WDA url, got %v", caps["appium:webDriverAgentUrl"])
	}
	if caps["appium:useNewWDA"] != false || caps["appium:noReset"] != false {
		t.Errorf("expected false flags to be present, got %v", caps)
	}
	if caps["appium:wdaStartupRetries"] != 4 || caps["appium:wdaStartupRetryInterval"] != 20000 {
		t.Errorf("unexpected startup settings: %v", caps)
	}
	derived, _ := caps["appium:derivedDataPath"].(string)
	if !filepath.IsAbs(derived) {
		t.Errorf("derivedDataPath should be absolute, got %q", derived)
	}

	// unset udid is nil until cleaned
	if v, ok := caps["appium:udid"]; !ok || v != nil {
		t.Errorf("expected nil udid placeholder, got %v (present=%v)", v, ok)
	}
	cleaned, err := capability.Prepare(caps)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, ok := cleaned["appium:udid"]; ok {
		t.Error("udid should be removed by cleaning")
	}
}

func TestCapabilities_ExtraOverrides(t *testing.T) {
	cfg := Default()
	cfg.ExtraCapabilities = map[string]interface{}{
		"appium:language":    "en",
		"appium:noReset":     true,
		"appium:udid":        "ABC-123",
		"appium:processArgs": map[string]interface{}{"args": []string{"-reset"}},
	}
	caps := cfg.Capabilities()

	if caps["appium:language"] != "en" {
		t.Errorf("expected extra capability, got %v", caps["appium:language"])
	}
	if caps["appium:noReset"] != true {
		t.Errorf("expected extra to override generated value, got %v", caps["appium:noReset"])
	}
	if caps["appium:udid"] != "ABC-123" {
		t.Errorf("expected udid from extras, got %v", caps["appium:udid"])
	}
	if caps["platformName"] != "iOS" {
		t.Errorf("expected generated caps kept, got %v", caps["platformName"])
	}
	if _, ok := Default().Capabilities()["appium:language"]; ok {
		t.Error("extras should not leak into other configs")
	}
}

func TestAutoWDACapabilities(t *testing.T) {
	caps := Default().AutoWDACapabilities()

	if _, ok := caps["appium:webDriverAgentUrl"]; ok {
		t.Error("webDriverAgentUrl should be removed")
	}
	if caps["appium:useNewWDA"] != true || caps["appium:usePrebuiltWDA"] != false {
		t.Errorf("unexpected WDA flags: %v", caps)
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.ReportsDir = "/r"

	if got := cfg.ScreenshotsDir(); got != filepath.Join("/r", "screenshots") {
		t.Errorf("ScreenshotsDir() = %q", got)
	}
	if got := cfg.LogFile(); got != filepath.Join("/r", "shop-e2e.log") {
		t.Errorf("LogFile() = %q", got)
	}
	cfg.Log.File = "/var/log/e2e.log"
	if got := cfg.LogFile(); got != "/var/log/e2e.log" {
		t.Errorf("LogFile() = %q", got)
	}
}
