// Package appium implements core.Session against an Appium server via the
// W3C WebDriver protocol, targeting the XCUITest driver.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/shop-e2e/pkg/capability"
	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// DefaultCommandTimeout bounds a single HTTP round trip. Session creation
// installs the app and can take minutes.
const DefaultCommandTimeout = 5 * time.Minute

var _ core.Session = (*Client)(nil)

// WebDriverError is an error payload returned by the server.
type WebDriverError struct {
	Code    string // W3C error code, e.g. "no such element"
	Message string
	Status  int
}

func (e *WebDriverError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is maps protocol errors onto the session taxonomy.
func (e *WebDriverError) Is(target error) bool {
	switch target {
	case core.ErrSessionLost:
		return e.Code == "invalid session id"
	case core.ErrElementNotFound:
		return e.Code == "no such element" || e.Code == "stale element reference"
	}
	return false
}

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	info      core.PlatformInfo
}

// NewClient creates a new Appium client. timeout <= 0 uses
// DefaultCommandTimeout.
func NewClient(serverURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

// Open creates a client and connects it with caps.
func Open(serverURL string, timeout time.Duration, caps map[string]interface{}) (*Client, error) {
	c := NewClient(serverURL, timeout)
	if err := c.Connect(caps); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect creates a new session. Capabilities are cleaned and verified first
// so that no undefined value reaches the server.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	caps, err := capability.Prepare(capabilities)
	if err != nil {
		return core.ErrSessionNotCreated.WithCause(err)
	}

	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": caps,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		var wdErr *WebDriverError
		if errors.As(err, &wdErr) {
			return core.ErrSessionNotCreated.WithCause(err)
		}
		return core.ErrServerUnreachable.WithCause(err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.ErrSessionNotCreated.WithMessage("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return core.ErrSessionNotCreated.WithMessage("no session ID in response")
	}

	c.info = core.PlatformInfo{Platform: "ios", IsSimulator: true}
	if returned, ok := value["capabilities"].(map[string]interface{}); ok {
		c.info.Platform = strings.ToLower(stringCap(returned, "platformName", c.info.Platform))
		c.info.OSVersion = stringCap(returned, "platformVersion", "")
		c.info.DeviceName = stringCap(returned, "deviceName", "")
		c.info.DeviceID = stringCap(returned, "udid", "")
		c.info.AppID = stringCap(returned, "bundleId", stringCap(returned, "app", ""))
	}
	if c.info.DeviceName == "" {
		c.info.DeviceName, _ = caps["appium:deviceName"].(string)
	}

	if rect, err := c.WindowRect(); err == nil {
		c.info.ScreenWidth, c.info.ScreenHeight = rect.Width, rect.Height
	}

	// Lookups poll on our side; a server-side implicit wait would stack on
	// every candidate of a fallback chain.
	if err := c.SetImplicitWait(0); err != nil {
		logger.Warn("failed to disable implicit wait: %v", err)
	}
	// animationCoolOffTimeout: don't wait for animations to finish (default 2s)
	if err := c.SetSettings(map[string]interface{}{"animationCoolOffTimeout": 0}); err != nil {
		logger.Debug("failed to apply XCUITest settings: %v", err)
	}

	logger.Info("session %s created on %s %s", c.sessionID, c.info.DeviceName, c.info.OSVersion)
	return nil
}

// stringCap reads a returned capability with or without the appium: prefix.
func stringCap(caps map[string]interface{}, name, fallback string) string {
	if v, ok := caps[name].(string); ok && v != "" {
		return v
	}
	if v, ok := caps["appium:"+name].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	logger.Info("session %s closed", c.sessionID)
	c.sessionID = ""
	return err
}

// SessionID returns the active session, or "" when disconnected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// PlatformInfo returns what the server reported at session creation.
func (c *Client) PlatformInfo() core.PlatformInfo {
	return c.info
}

// ServerStatus is the payload of GET /status.
type ServerStatus struct {
	Ready   bool
	Message string
	Version string
}

// Status queries the server's /status endpoint; no session is needed.
func (c *Client) Status() (*ServerStatus, error) {
	resp, err := c.get("/status")
	if err != nil {
		return nil, core.ErrServerUnreachable.WithCause(err)
	}
	st := &ServerStatus{}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		st.Ready, _ = value["ready"].(bool)
		st.Message, _ = value["message"].(string)
		if build, ok := value["build"].(map[string]interface{}); ok {
			st.Version, _ = build["version"].(string)
		}
	}
	return st, nil
}

// WindowRect returns the current window bounds.
func (c *Client) WindowRect() (core.Bounds, error) {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return core.Bounds{}, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Bounds{}, fmt.Errorf("invalid window rect response")
	}
	return rectFromValue(value), nil
}

func rectFromValue(value map[string]interface{}) core.Bounds {
	xf, _ := value["x"].(float64)
	yf, _ := value["y"].(float64)
	wf, _ := value["width"].(float64)
	hf, _ := value["height"].(float64)
	return core.Bounds{X: int(xf), Y: int(yf), Width: int(wf), Height: int(hf)}
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(strategy, value string) (string, error) {
	return c.findOne(c.sessionPath()+"/element", strategy, value)
}

// FindElements finds multiple elements.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	return c.findMany(c.sessionPath()+"/elements", strategy, value)
}

// FindChildElement finds a single descendant of parentID.
func (c *Client) FindChildElement(parentID, strategy, value string) (string, error) {
	return c.findOne(c.elementPath(parentID)+"/element", strategy, value)
}

// FindChildElements finds descendants of parentID.
func (c *Client) FindChildElements(parentID, strategy, value string) ([]string, error) {
	return c.findMany(c.elementPath(parentID)+"/elements", strategy, value)
}

func (c *Client) findOne(path, strategy, value string) (string, error) {
	resp, err := c.post(path, map[string]interface{}{
		"using": strategy,
		"value": value,
	})
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", &WebDriverError{Code: "no such element", Message: value}
	}
	id := extractElementID(elemValue)
	if id == "" {
		return "", &WebDriverError{Code: "no such element", Message: value}
	}
	return id, nil
}

func (c *Client) findMany(path, strategy, value string) ([]string, error) {
	resp, err := c.post(path, map[string]interface{}{
		"using": strategy,
		"value": value,
	})
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ClickElement clicks an element using WebDriver standard endpoint.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", nil)
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", nil)
	return err
}

// ElementSendKeys types text into an element.
func (c *Client) ElementSendKeys(elementID, text string) error {
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// GetElementText returns an element's text.
func (c *Client) GetElementText(elementID string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// GetElementAttribute returns an element's attribute value.
func (c *Client) GetElementAttribute(elementID, name string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/attribute/" + name)
	if err != nil {
		return "", err
	}
	switch v := resp["value"].(type) {
	case string:
		return v, nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	}
	return "", nil
}

// GetElementRect returns an element's position and size.
func (c *Client) GetElementRect(elementID string) (core.Bounds, error) {
	resp, err := c.get(c.elementPath(elementID) + "/rect")
	if err != nil {
		return core.Bounds{}, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Bounds{}, fmt.Errorf("invalid rect response")
	}
	return rectFromValue(value), nil
}

// IsElementDisplayed checks if element is visible.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// Touch/Gesture Operations (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates using W3C touch actions.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Swipe performs a swipe gesture.
func (c *Client) Swipe(startX, startY, endX, endY, durationMs int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": startX, "y": startY},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerMove", "duration": durationMs, "x": endX, "y": endY},
		{"type": "pointerUp", "button": 0},
	})
}

// HideKeyboard hides the on-screen keyboard.
func (c *Client) HideKeyboard() error {
	_, err := c.post(c.sessionPath()+"/appium/device/hide_keyboard", nil)
	return err
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Timeouts

// SetImplicitWait sets the implicit wait timeout.
func (c *Client) SetImplicitWait(timeout time.Duration) error {
	_, err := c.post(c.sessionPath()+"/timeouts", map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// SetSettings updates Appium driver settings.
// For iOS XCUITest: snapshotMaxDepth, customSnapshotTimeout, animationCoolOffTimeout
func (c *Client) SetSettings(settings map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/appium/settings", map[string]interface{}{
		"settings": settings,
	})
	return err
}

// ExecuteMobile executes a mobile: command.
func (c *Client) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": "mobile: " + command,
		"args":   []interface{}{args},
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errType, ok := errValue["error"].(string); ok {
			msg, _ := errValue["message"].(string)
			return result, &WebDriverError{Code: errType, Message: msg, Status: resp.StatusCode}
		}
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
