package appium

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

// SourceElement is one node of an XCUITest page source.
type SourceElement struct {
	Type     string // XCUIElementType
	Name     string // accessibility identifier
	Label    string // accessibility label
	Value    string // current value
	Enabled  bool
	Visible  bool
	Bounds   core.Bounds
	Depth    int
	Parent   *SourceElement
	Children []*SourceElement
}

// ParseSource parses XCUITest page source XML into a flat list in document
// order. The AppiumAUT wrapper is skipped.
func ParseSource(xmlData string) ([]*SourceElement, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var elements []*SourceElement
	var stack []*SourceElement
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(elements) > 0 {
				break
			}
			return nil, fmt.Errorf("failed to parse page source: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "AppiumAUT" {
				continue
			}
			elem := newSourceElement(t)
			if n := len(stack); n > 0 {
				elem.Parent = stack[n-1]
				elem.Depth = n
				elem.Parent.Children = append(elem.Parent.Children, elem)
			}
			elements = append(elements, elem)
			stack = append(stack, elem)
		case xml.EndElement:
			if t.Name.Local == "AppiumAUT" {
				continue
			}
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		}
	}

	if len(elements) == 0 {
		return nil, fmt.Errorf("no elements found in page source")
	}
	return elements, nil
}

func newSourceElement(t xml.StartElement) *SourceElement {
	elem := &SourceElement{
		Type:    t.Name.Local,
		Enabled: true,
		Visible: true,
	}
	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "type":
			elem.Type = attr.Value
		case "name":
			elem.Name = attr.Value
		case "label":
			elem.Label = attr.Value
		case "value":
			elem.Value = attr.Value
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "visible":
			elem.Visible = attr.Value == "true"
		case "x":
			elem.Bounds.X, _ = strconv.Atoi(attr.Value)
		case "y":
			elem.Bounds.Y, _ = strconv.Atoi(attr.Value)
		case "width":
			elem.Bounds.Width, _ = strconv.Atoi(attr.Value)
		case "height":
			elem.Bounds.Height, _ = strconv.Atoi(attr.Value)
		}
	}
	return elem
}

// FindByName returns the first element with the accessibility identifier.
func FindByName(elements []*SourceElement, name string) *SourceElement {
	for _, e := range elements {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// HasAll reports whether every name is present in the source.
func HasAll(elements []*SourceElement, names ...string) bool {
	for _, name := range names {
		if FindByName(elements, name) == nil {
			return false
		}
	}
	return true
}
