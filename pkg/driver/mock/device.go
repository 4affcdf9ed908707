// Package mock provides an in-memory device for testing without a simulator.
//
// A Device renders its element tree on demand from a Render function, so a
// simulated app only has to describe what its current screen looks like.
// Element IDs are derived from each element's position among same-named
// siblings, which keeps them stable across renders while the screen layout
// is unchanged; an ID that no longer renders is reported as stale.
package mock

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

var _ core.Session = (*Device)(nil)

// W3C locator strategies understood by the device.
const (
	strategyAccessibilityID = "accessibility id"
	strategyXPath           = "xpath"
	strategyPredicate       = "-ios predicate string"
)

// Element is one node of a rendered screen.
type Element struct {
	ID       string   // optional fixed ID; derived from Name when empty
	Name     string   // accessibility id
	AltNames []string // additional accessibility ids
	Type     string   // e.g. XCUIElementTypeButton
	Label    string
	Text     string // value; falls back to Label
	XPaths   []string
	Hidden   bool

	// Offscreen elements report not visible but still accept taps, like a
	// row scrolled partly out of view.
	Offscreen bool

	Attrs    map[string]string
	Children []*Element

	OnClick func()
	OnType  func(text string)
	OnClear func()
}

func (e *Element) visible() bool { return !e.Hidden && !e.Offscreen }

func (e *Element) text() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Label
}

// Call is one recorded driver call.
type Call struct {
	Method string
	Args   []string
}

// Config configures a Device.
type Config struct {
	// Render returns the current screen. Called before every lookup.
	Render func() []*Element
	// Window is the reported window rect. Default 430x932.
	Window core.Bounds
	// OnSwipe observes swipe gestures.
	OnSwipe func(startX, startY, endX, endY int)
}

// Device is an in-memory core.Session.
type Device struct {
	cfg Config

	mu           sync.Mutex
	calls        []Call
	failures     map[string]*injected
	disconnected bool
	keyboard     bool
}

type injected struct {
	remaining int
	err       error
}

// New creates a device.
func New(cfg Config) *Device {
	if cfg.Window.Width == 0 {
		cfg.Window = core.Bounds{Width: 430, Height: 932}
	}
	if cfg.Render == nil {
		cfg.Render = func() []*Element { return nil }
	}
	return &Device{cfg: cfg, failures: map[string]*injected{}}
}

// Fail makes the next n calls of method return err.
func (d *Device) Fail(method string, n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[method] = &injected{remaining: n, err: err}
}

// Calls returns the recorded calls in order.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallCount counts recorded calls of method.
func (d *Device) CallCount(method string) int {
	n := 0
	for _, c := range d.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Disconnected reports whether Disconnect was called.
func (d *Device) Disconnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disconnected
}

// record logs the call and returns an injected or session error, if any.
func (d *Device) record(method string, args ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Method: method, Args: args})
	if d.disconnected {
		return core.ErrSessionLost.WithMessage("session deleted")
	}
	if f := d.failures[method]; f != nil && f.remaining > 0 {
		f.remaining--
		return f.err
	}
	return nil
}

// node is a rendered element with its resolved ID.
type node struct {
	id       string
	el       *Element
	children []*node
}

func (d *Device) tree() []*node {
	return build("", d.cfg.Render())
}

func build(prefix string, elems []*Element) []*node {
	seen := map[string]int{}
	out := make([]*node, 0, len(elems))
	for _, el := range elems {
		if el == nil {
			continue
		}
		id := el.ID
		if id == "" {
			key := el.Name
			if key == "" {
				key = el.Type
			}
			id = fmt.Sprintf("%s%s#%d", prefix, key, seen[key])
			seen[key]++
		}
		out = append(out, &node{id: id, el: el, children: build(id+"/", el.Children)})
	}
	return out
}

func walk(nodes []*node, fn func(*node) bool) bool {
	for _, n := range nodes {
		if fn(n) || walk(n.children, fn) {
			return true
		}
	}
	return false
}

func (d *Device) byID(id string) (*node, error) {
	var found *node
	walk(d.tree(), func(n *node) bool {
		if n.id == id {
			found = n
			return true
		}
		return false
	})
	if found == nil {
		return nil, core.ErrElementNotFound.WithMessage("stale element reference: " + id)
	}
	return found, nil
}

func (d *Device) find(roots []*node, strategy, value string) []string {
	var ids []string
	walk(roots, func(n *node) bool {
		if matches(n.el, strategy, value) {
			ids = append(ids, n.id)
		}
		return false
	})
	return ids
}

var containsPredicate = regexp.MustCompile(`label CONTAINS\[c\] "((?:[^"\\]|\\.)*)"`)

func matches(el *Element, strategy, value string) bool {
	switch strategy {
	case strategyAccessibilityID:
		if el.Name == value {
			return true
		}
		for _, n := range el.AltNames {
			if n == value {
				return true
			}
		}
	case strategyXPath:
		if value == "//*" {
			return true
		}
		for _, x := range el.XPaths {
			if x == value {
				return true
			}
		}
	case strategyPredicate:
		m := containsPredicate.FindStringSubmatch(value)
		if m == nil {
			return false
		}
		want := strings.ToLower(strings.ReplaceAll(m[1], `\"`, `"`))
		return strings.Contains(strings.ToLower(el.Label), want) ||
			strings.Contains(strings.ToLower(el.Name), want)
	}
	return false
}

func noSuchElement(strategy, value string) error {
	return core.ErrElementNotFound.WithMessage(fmt.Sprintf("no such element: %s %q", strategy, value))
}

// FindElement returns the first element matching the locator.
func (d *Device) FindElement(strategy, value string) (string, error) {
	if err := d.record("FindElement", strategy, value); err != nil {
		return "", err
	}
	ids := d.find(d.tree(), strategy, value)
	if len(ids) == 0 {
		return "", noSuchElement(strategy, value)
	}
	return ids[0], nil
}

// FindElements returns every element matching the locator.
func (d *Device) FindElements(strategy, value string) ([]string, error) {
	if err := d.record("FindElements", strategy, value); err != nil {
		return nil, err
	}
	return d.find(d.tree(), strategy, value), nil
}

// FindChildElement returns the first descendant of parentID matching the locator.
func (d *Device) FindChildElement(parentID, strategy, value string) (string, error) {
	if err := d.record("FindChildElement", parentID, strategy, value); err != nil {
		return "", err
	}
	parent, err := d.byID(parentID)
	if err != nil {
		return "", err
	}
	ids := d.find(parent.children, strategy, value)
	if len(ids) == 0 {
		return "", noSuchElement(strategy, value)
	}
	return ids[0], nil
}

// FindChildElements returns every descendant of parentID matching the locator.
func (d *Device) FindChildElements(parentID, strategy, value string) ([]string, error) {
	if err := d.record("FindChildElements", parentID, strategy, value); err != nil {
		return nil, err
	}
	parent, err := d.byID(parentID)
	if err != nil {
		return nil, err
	}
	return d.find(parent.children, strategy, value), nil
}

// ClickElement runs the element's OnClick handler.
func (d *Device) ClickElement(elementID string) error {
	if err := d.record("ClickElement", elementID); err != nil {
		return err
	}
	n, err := d.byID(elementID)
	if err != nil {
		return err
	}
	if n.el.Hidden {
		return core.ErrElementNotFound.WithMessage("element not interactable: " + elementID)
	}
	if n.el.OnClick != nil {
		n.el.OnClick()
	}
	return nil
}

// ClearElement runs the element's OnClear handler.
func (d *Device) ClearElement(elementID string) error {
	if err := d.record("ClearElement", elementID); err != nil {
		return err
	}
	n, err := d.byID(elementID)
	if err != nil {
		return err
	}
	if n.el.OnClear != nil {
		n.el.OnClear()
	}
	return nil
}

// ElementSendKeys runs the element's OnType handler and shows the keyboard.
func (d *Device) ElementSendKeys(elementID, text string) error {
	if err := d.record("ElementSendKeys", elementID, text); err != nil {
		return err
	}
	n, err := d.byID(elementID)
	if err != nil {
		return err
	}
	if n.el.OnType == nil {
		return fmt.Errorf("element %s does not accept text", elementID)
	}
	n.el.OnType(text)
	d.mu.Lock()
	d.keyboard = true
	d.mu.Unlock()
	return nil
}

// GetElementText returns the element's text, or its label when it has none.
func (d *Device) GetElementText(elementID string) (string, error) {
	if err := d.record("GetElementText", elementID); err != nil {
		return "", err
	}
	n, err := d.byID(elementID)
	if err != nil {
		return "", err
	}
	return n.el.text(), nil
}

// GetElementAttribute returns a named attribute. name, label, value, type
// and visible are derived from the element.
func (d *Device) GetElementAttribute(elementID, name string) (string, error) {
	if err := d.record("GetElementAttribute", elementID, name); err != nil {
		return "", err
	}
	n, err := d.byID(elementID)
	if err != nil {
		return "", err
	}
	switch name {
	case "name":
		return n.el.Name, nil
	case "label":
		return n.el.Label, nil
	case "value":
		return n.el.Text, nil
	case "type":
		return n.el.Type, nil
	case "visible":
		return fmt.Sprintf("%t", n.el.visible()), nil
	}
	return n.el.Attrs[name], nil
}

// IsElementDisplayed reports whether the element is neither hidden nor
// offscreen.
func (d *Device) IsElementDisplayed(elementID string) (bool, error) {
	if err := d.record("IsElementDisplayed", elementID); err != nil {
		return false, err
	}
	n, err := d.byID(elementID)
	if err != nil {
		return false, err
	}
	return n.el.visible(), nil
}

// Screenshot returns a 1x1 PNG.
func (d *Device) Screenshot() ([]byte, error) {
	if err := d.record("Screenshot"); err != nil {
		return nil, err
	}
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// sourceNode is the XML form of an element in Source output.
type sourceNode struct {
	XMLName  xml.Name
	Name     string        `xml:"name,attr,omitempty"`
	Label    string        `xml:"label,attr,omitempty"`
	Value    string        `xml:"value,attr,omitempty"`
	Visible  bool          `xml:"visible,attr"`
	Children []*sourceNode `xml:",any"`
}

func toSource(nodes []*node) []*sourceNode {
	out := make([]*sourceNode, 0, len(nodes))
	for _, n := range nodes {
		typ := n.el.Type
		if typ == "" {
			typ = "XCUIElementTypeOther"
		}
		out = append(out, &sourceNode{
			XMLName:  xml.Name{Local: typ},
			Name:     n.el.Name,
			Label:    n.el.Label,
			Value:    n.el.Text,
			Visible:  n.el.visible(),
			Children: toSource(n.children),
		})
	}
	return out
}

// Source returns the current screen as XCUITest-style XML.
func (d *Device) Source() (string, error) {
	if err := d.record("Source"); err != nil {
		return "", err
	}
	root := &sourceNode{
		XMLName:  xml.Name{Local: "XCUIElementTypeApplication"},
		Name:     "mock",
		Visible:  true,
		Children: toSource(d.tree()),
	}
	data, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(data), nil
}

// WindowRect returns the configured window.
func (d *Device) WindowRect() (core.Bounds, error) {
	if err := d.record("WindowRect"); err != nil {
		return core.Bounds{}, err
	}
	return d.cfg.Window, nil
}

// Swipe records the gesture and notifies OnSwipe.
func (d *Device) Swipe(startX, startY, endX, endY, durationMs int) error {
	if err := d.record("Swipe", fmt.Sprint(startX), fmt.Sprint(startY), fmt.Sprint(endX), fmt.Sprint(endY), fmt.Sprint(durationMs)); err != nil {
		return err
	}
	if d.cfg.OnSwipe != nil {
		d.cfg.OnSwipe(startX, startY, endX, endY)
	}
	return nil
}

// HideKeyboard dismisses the keyboard if shown.
func (d *Device) HideKeyboard() error {
	if err := d.record("HideKeyboard"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.keyboard {
		return fmt.Errorf("soft keyboard not present")
	}
	d.keyboard = false
	return nil
}

// Disconnect ends the session; later calls fail with core.ErrSessionLost.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Method: "Disconnect"})
	d.disconnected = true
	return nil
}
