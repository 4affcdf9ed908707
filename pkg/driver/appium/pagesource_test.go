package appium

import (
	"testing"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

const loginSource = `<?xml version="1.0" encoding="UTF-8"?>
<AppiumAUT>
  <XCUIElementTypeApplication type="XCUIElementTypeApplication" name="Swag Labs" label="Swag Labs" enabled="true" visible="true" x="0" y="0" width="430" height="932">
    <XCUIElementTypeOther type="XCUIElementTypeOther" name="test-Login" enabled="true" visible="true" x="0" y="0" width="430" height="932">
      <XCUIElementTypeTextField type="XCUIElementTypeTextField" name="test-Username" value="Username" enabled="true" visible="true" x="15" y="300" width="400" height="44"/>
      <XCUIElementTypeSecureTextField type="XCUIElementTypeSecureTextField" name="test-Password" value="Password" enabled="true" visible="true" x="15" y="360" width="400" height="44"/>
      <XCUIElementTypeOther type="XCUIElementTypeOther" name="test-LOGIN" label="LOGIN" enabled="false" visible="true" x="15" y="420" width="400" height="50"/>
    </XCUIElementTypeOther>
  </XCUIElementTypeApplication>
</AppiumAUT>`

func TestParseSource(t *testing.T) {
	elements, err := ParseSource(loginSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(elements) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(elements))
	}

	user := FindByName(elements, "test-Username")
	if user == nil {
		t.Fatal("expected test-Username")
	}
	if user.Type != "XCUIElementTypeTextField" {
		t.Errorf("expected text field, got %s", user.Type)
	}
	if user.Value != "Username" {
		t.Errorf("expected placeholder value, got %q", user.Value)
	}
	want := core.Bounds{X: 15, Y: 300, Width: 400, Height: 44}
	if user.Bounds != want {
		t.Errorf("expected bounds %+v, got %+v", want, user.Bounds)
	}
	if user.Depth != 2 {
		t.Errorf("expected depth 2, got %d", user.Depth)
	}
	if user.Parent == nil || user.Parent.Name != "test-Login" {
		t.Errorf("expected parent test-Login, got %+v", user.Parent)
	}
	if len(user.Parent.Children) != 3 {
		t.Errorf("expected 3 children, got %d", len(user.Parent.Children))
	}

	login := FindByName(elements, "test-LOGIN")
	if login.Enabled {
		t.Error("expected test-LOGIN to be disabled")
	}
	if login.Label != "LOGIN" {
		t.Errorf("expected label LOGIN, got %q", login.Label)
	}
}

func TestHasAll(t *testing.T) {
	elements, err := ParseSource(loginSource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !HasAll(elements, "test-Username", "test-Password") {
		t.Error("expected login fields")
	}
	if HasAll(elements, "test-Username", "test-PRODUCTS") {
		t.Error("did not expect products header")
	}
	if FindByName(elements, "missing") != nil {
		t.Error("expected nil for unknown name")
	}
}

func TestParseSource_Errors(t *testing.T) {
	if _, err := ParseSource(""); err == nil {
		t.Error("expected error for empty source")
	}
	if _, err := ParseSource("<AppiumAUT></AppiumAUT>"); err == nil {
		t.Error("expected error when no elements")
	}
	if _, err := ParseSource("<<not xml"); err == nil {
		t.Error("expected error for malformed source")
	}
}
