package core

// Driver defines the automation session operations the page layer needs.
// Implementations: appium.Client (real session), mock.Device (tests).
// Element handles are opaque W3C element IDs. The protocol is strictly
// sequential per session, so implementations need not be goroutine-safe.
type Driver interface {
	// Lookup
	FindElement(strategy, value string) (string, error)
	FindElements(strategy, value string) ([]string, error)
	FindChildElement(parentID, strategy, value string) (string, error)
	FindChildElements(parentID, strategy, value string) ([]string, error)

	// Element interaction
	ClickElement(elementID string) error
	ClearElement(elementID string) error
	ElementSendKeys(elementID, text string) error
	GetElementText(elementID string) (string, error)
	GetElementAttribute(elementID, name string) (string, error)
	IsElementDisplayed(elementID string) (bool, error)

	// Screen
	Screenshot() ([]byte, error)
	Source() (string, error)
	WindowRect() (Bounds, error)
	Swipe(startX, startY, endX, endY, durationMs int) error
	HideKeyboard() error
}

// Session is a Driver bound to a live automation session that must be closed.
type Session interface {
	Driver
	Disconnect() error
}

// Bounds represents element or window position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// YAt returns the y coordinate at fraction f (0..1) of the height.
func (b Bounds) YAt(f float64) int {
	return b.Y + int(float64(b.Height)*f)
}

// PlatformInfo contains device and platform details reported by a session
type PlatformInfo struct {
	Platform     string `json:"platform"`               // ios
	OSVersion    string `json:"osVersion"`              // e.g., "18.4"
	DeviceName   string `json:"deviceName"`             // e.g., "iPhone 16 Plus"
	DeviceID     string `json:"deviceId,omitempty"`     // Simulator UDID
	IsSimulator  bool   `json:"isSimulator"`            // Simulator vs real device
	ScreenWidth  int    `json:"screenWidth,omitempty"`  // Screen width in points
	ScreenHeight int    `json:"screenHeight,omitempty"` // Screen height in points
	AppID        string `json:"appId,omitempty"`        // Bundle ID or app path
}
