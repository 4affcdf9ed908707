package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/shop-e2e/pkg/config"
	"github.com/devicelab-dev/shop-e2e/pkg/driver/mock"
	"github.com/devicelab-dev/shop-e2e/pkg/report"
)

// newTestApp returns the app writing to buffers, with os.Exit disabled.
func newTestApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	t.Helper()
	exiter := cli.OsExiter
	cli.OsExiter = func(int) {}
	errWriter := cli.ErrWriter
	t.Cleanup(func() {
		cli.OsExiter = exiter
		cli.ErrWriter = errWriter
	})

	colors := colorsEnabled
	t.Cleanup(func() { colorsEnabled = colors })

	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &out
	cli.ErrWriter = &out
	return app, &out
}

// writeConfig writes a config file with short timeouts and reports under a
// temp dir.
func writeConfig(t *testing.T) (path, reportsDir string) {
	t.Helper()
	dir := t.TempDir()
	reportsDir = filepath.Join(dir, "reports")
	path = filepath.Join(dir, "shop-e2e.yaml")
	content := `reportsDir: ` + reportsDir + `
ios:
  deviceName: iPhone 16 Plus
  platformVersion: "18.4"
  appPath: /apps/Sample.app
timeouts:
  element: 50ms
  candidate: 10ms
  pageLoad: 50ms
  poll: 5ms
  command: 5s
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, reportsDir
}

func TestGlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range GlobalFlags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	requiredFlags := []string{"config", "appium-url", "wda-url", "reports-dir", "verbose", "no-ansi"}
	for _, name := range requiredFlags {
		if !flagNames[name] {
			t.Errorf("expected flag %q to be defined", name)
		}
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := NewApp()
	for _, name := range []string{"run", "list", "doctor", "fix-wda", "check-appium", "inspector-config", "setup-ios", "wda"} {
		if app.Command(name) == nil {
			t.Errorf("expected command %q", name)
		}
	}
	if wda := app.Command("wda"); wda != nil && wda.Subcommands[0].Name != "status" {
		t.Errorf("expected wda status subcommand, got %q", wda.Subcommands[0].Name)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{0, "0ms"},
		{50, "50ms"},
		{999, "999ms"},
		{1000, "1.0s"},
		{1500, "1.5s"},
		{59999, "60.0s"},
		{60000, "1m 0s"},
		{90000, "1m 30s"},
		{125000, "2m 5s"},
	}

	for _, tc := range tests {
		result := formatDuration(tc.ms)
		if result != tc.expected {
			t.Errorf("formatDuration(%d) = %q, expected %q", tc.ms, result, tc.expected)
		}
	}
}

func TestSessionFactory(t *testing.T) {
	cfg := config.Default()

	factory, err := sessionFactory(driverMock, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sess, err := factory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sess.(*mock.Shop); !ok {
		t.Errorf("expected *mock.Shop, got %T", sess)
	}

	if _, err := sessionFactory(driverAppium, cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	_, err = sessionFactory("uiautomator2", cfg)
	if err == nil || !strings.Contains(err.Error(), `unknown driver "uiautomator2"`) {
		t.Errorf("expected unknown driver error, got %v", err)
	}
}

func TestLoadConfig_Layering(t *testing.T) {
	path, _ := writeConfig(t)
	t.Setenv("IOS_DEVICE_NAME", "iPhone 15")

	var got *config.Config
	app := &cli.App{
		Name:  "test-app",
		Flags: GlobalFlags,
		Action: func(c *cli.Context) error {
			var err error
			got, err = loadConfig(c)
			return err
		},
	}
	err := app.Run([]string{"test-app", "--config", path, "--appium-url", "http://10.0.0.2:4723", "--verbose"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.IOS.AppPath != "/apps/Sample.app" {
		t.Errorf("expected app path from file, got %q", got.IOS.AppPath)
	}
	if got.IOS.DeviceName != "iPhone 15" {
		t.Errorf("expected device name from environment, got %q", got.IOS.DeviceName)
	}
	if got.AppiumURL != "http://10.0.0.2:4723" {
		t.Errorf("expected appium url from flag, got %q", got.AppiumURL)
	}
	if got.Log.Level != "debug" {
		t.Errorf("expected --verbose to select debug logging, got %q", got.Log.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path, _ := writeConfig(t)
	app := &cli.App{
		Name:  "test-app",
		Flags: GlobalFlags,
		Action: func(c *cli.Context) error {
			_, err := loadConfig(c)
			return err
		},
	}
	err := app.Run([]string{"test-app", "--config", path, "--appium-url", "not a url"})
	if err == nil || !strings.Contains(err.Error(), "not an absolute URL") {
		t.Errorf("expected invalid URL error, got %v", err)
	}

	err = app.Run([]string{"test-app", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestListCommand(t *testing.T) {
	path, _ := writeConfig(t)
	app, out := newTestApp(t)

	err := app.Run([]string{"shop-e2e", "--no-ansi", "--config", path, "list", "--include-tags", "login"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "7 of 32 scenarios selected") {
		t.Errorf("unexpected list output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "  ✓ login with valid credentials [login, smoke]") {
		t.Errorf("expected login scenario to be selected:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "  - checkout happy path") {
		t.Errorf("expected checkout scenario to be filtered:\n%s", out.String())
	}
}

func TestRunCommand_MockDriver(t *testing.T) {
	path, reportsDir := writeConfig(t)
	app, out := newTestApp(t)

	err := app.Run([]string{"shop-e2e", "--no-ansi", "--config", path, "run", "--driver", "mock", "--include-tags", "smoke", "--seed", "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out.String())
	}

	output := out.String()
	for _, want := range []string{"driver: mock  seed: 7", "[1/32]", "✓ PASS", "TOTAL", "Report: "} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q:\n%s", want, output)
		}
	}

	idx, err := report.ReadIndex(reportsDir)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if idx.Status != report.StatusPassed {
		t.Errorf("expected passed run, got %s", idx.Status)
	}
	if idx.Runner.Driver != driverMock {
		t.Errorf("expected driver mock in report, got %q", idx.Runner.Driver)
	}
	if idx.Summary.Total != 32 || idx.Summary.Passed != 4 || idx.Summary.Skipped != 28 {
		t.Errorf("unexpected summary: %+v", idx.Summary)
	}
	if _, err := os.Stat(filepath.Join(reportsDir, "shop-e2e.log")); err != nil {
		t.Errorf("expected log file: %v", err)
	}
}

func TestRunCommand_NothingSelected(t *testing.T) {
	path, _ := writeConfig(t)
	app, out := newTestApp(t)

	err := app.Run([]string{"shop-e2e", "--no-ansi", "--config", path, "run", "--driver", "mock", "--include-tags", "nightly"})

	exitErr, ok := err.(cli.ExitCoder)
	if !ok {
		t.Fatalf("expected exit error, got %v", err)
	}
	if exitErr.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %d", exitErr.ExitCode())
	}
	if exitErr.Error() != "no scenarios matched the tag filters" {
		t.Errorf("unexpected exit message %q", exitErr.Error())
	}
	if !strings.Contains(out.String(), "- SKIP") {
		t.Errorf("expected skipped rows in the summary:\n%s", out.String())
	}
}

func TestRunCommand_UnknownDriver(t *testing.T) {
	path, _ := writeConfig(t)
	app, _ := newTestApp(t)

	err := app.Run([]string{"shop-e2e", "--config", path, "run", "--driver", "espresso"})
	if err == nil || !strings.Contains(err.Error(), "unknown driver") {
		t.Errorf("expected unknown driver error, got %v", err)
	}
}

func TestWDAStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value": map[string]interface{}{
				"ready": true,
				"state": "success",
				"os":    map[string]interface{}{"name": "iOS", "version": "18.4", "sdkVersion": "18.4"},
			},
		})
	}))
	defer server.Close()

	path, _ := writeConfig(t)
	app, out := newTestApp(t)

	err := app.Run([]string{"shop-e2e", "--no-ansi", "--config", path, "--wda-url", server.URL, "wda", "status"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "✓ WebDriverAgent ready at "+server.URL) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
