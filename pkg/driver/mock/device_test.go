package mock

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

func screen(elems ...*Element) func() []*Element {
	return func() []*Element { return elems }
}

func TestDevice_FindByStrategy(t *testing.T) {
	d := New(Config{Render: screen(
		&Element{Name: "test-LOGIN", Type: "XCUIElementTypeButton", Label: "LOGIN", XPaths: []string{`//XCUIElementTypeButton[@name="test-LOGIN"]`}},
		&Element{Name: "test-Item", Children: []*Element{{Name: "test-Price", Label: "$9.99"}}},
	)})

	id, err := d.FindElement(strategyAccessibilityID, "test-LOGIN")
	require.NoError(t, err)
	assert.Equal(t, "test-LOGIN#0", id)

	xid, err := d.FindElement(strategyXPath, `//XCUIElementTypeButton[@name="test-LOGIN"]`)
	require.NoError(t, err)
	assert.Equal(t, id, xid)

	pid, err := d.FindElement(strategyPredicate, `label CONTAINS[c] "login" OR name CONTAINS[c] "login"`)
	require.NoError(t, err)
	assert.Equal(t, id, pid)

	price, err := d.FindElement(strategyAccessibilityID, "test-Price")
	require.NoError(t, err)
	assert.Equal(t, "test-Item#0/test-Price#0", price)

	_, err = d.FindElement(strategyAccessibilityID, "missing")
	assert.ErrorIs(t, err, core.ErrElementNotFound)
}

func TestDevice_ChildLookupScopedToParent(t *testing.T) {
	d := New(Config{Render: screen(
		&Element{Name: "test-Item", Children: []*Element{{Name: "test-Price", Label: "$1"}}},
		&Element{Name: "test-Item", Children: []*Element{{Name: "test-Price", Label: "$2"}}},
	)})

	rows, err := d.FindElements(strategyAccessibilityID, "test-Item")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	id, err := d.FindChildElement(rows[1], strategyAccessibilityID, "test-Price")
	require.NoError(t, err)
	txt, err := d.GetElementText(id)
	require.NoError(t, err)
	assert.Equal(t, "$2", txt)

	_, err = d.FindChildElement("gone#0", strategyAccessibilityID, "test-Price")
	assert.ErrorIs(t, err, core.ErrElementNotFound)
}

func TestDevice_HandlersAndText(t *testing.T) {
	var value string
	clicks := 0
	d := New(Config{Render: func() []*Element {
		return []*Element{
			{Name: "field", Text: value, OnType: func(s string) { value += s }, OnClear: func() { value = "" }},
			{Name: "button", OnClick: func() { clicks++ }},
		}
	}})

	require.NoError(t, d.ElementSendKeys("field#0", "abc"))
	require.NoError(t, d.ElementSendKeys("field#0", "d"))
	txt, _ := d.GetElementText("field#0")
	assert.Equal(t, "abcd", txt)

	require.NoError(t, d.ClearElement("field#0"))
	assert.Empty(t, value)

	require.NoError(t, d.HideKeyboard())
	assert.Error(t, d.HideKeyboard(), "keyboard already hidden")

	require.NoError(t, d.ClickElement("button#0"))
	assert.Equal(t, 1, clicks)
	assert.Equal(t, 1, d.CallCount("ClickElement"))
}

func TestDevice_HiddenElements(t *testing.T) {
	d := New(Config{Render: screen(&Element{Name: "ghost", Hidden: true, OnClick: func() { t.Fatal("clicked hidden element") }})})

	shown, err := d.IsElementDisplayed("ghost#0")
	require.NoError(t, err)
	assert.False(t, shown)
	assert.Error(t, d.ClickElement("ghost#0"))
	v, _ := d.GetElementAttribute("ghost#0", "visible")
	assert.Equal(t, "false", v)
}

func TestDevice_OffscreenElements(t *testing.T) {
	clicks := 0
	d := New(Config{Render: screen(&Element{Name: "row", Offscreen: true, OnClick: func() { clicks++ }})})

	shown, err := d.IsElementDisplayed("row#0")
	require.NoError(t, err)
	assert.False(t, shown)
	require.NoError(t, d.ClickElement("row#0"))
	assert.Equal(t, 1, clicks)
	v, _ := d.GetElementAttribute("row#0", "visible")
	assert.Equal(t, "false", v)
}

func TestDevice_FailInjection(t *testing.T) {
	d := New(Config{Render: screen(&Element{Name: "b"})})
	boom := errors.New("boom")
	d.Fail("ClickElement", 2, boom)

	assert.Same(t, boom, d.ClickElement("b#0"))
	assert.Same(t, boom, d.ClickElement("b#0"))
	assert.NoError(t, d.ClickElement("b#0"))
}

func TestDevice_Disconnect(t *testing.T) {
	d := New(Config{})
	require.NoError(t, d.Disconnect())
	assert.True(t, d.Disconnected())

	_, err := d.Screenshot()
	assert.ErrorIs(t, err, core.ErrSessionLost)
}

func TestDevice_SourceAndWindow(t *testing.T) {
	d := New(Config{Render: screen(&Element{Name: "test-Username", Type: "XCUIElementTypeTextField"})})

	src, err := d.Source()
	require.NoError(t, err)
	assert.True(t, strings.Contains(src, `<XCUIElementTypeTextField name="test-Username"`), src)

	rect, err := d.WindowRect()
	require.NoError(t, err)
	assert.Equal(t, core.Bounds{Width: 430, Height: 932}, rect)

	png, err := d.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestDevice_Swipe(t *testing.T) {
	var got []int
	d := New(Config{OnSwipe: func(sx, sy, ex, ey int) { got = []int{sx, sy, ex, ey} }})

	require.NoError(t, d.Swipe(215, 652, 215, 279, 800))
	assert.Equal(t, []int{215, 652, 215, 279}, got)
	assert.Equal(t, []string{"215", "652", "215", "279", "800"}, d.Calls()[0].Args)
}
