package core

import (
	"testing"
)

func TestBounds_Center(t *testing.T) {
	tests := []struct {
		bounds    Bounds
		expectedX int
		expectedY int
	}{
		{Bounds{X: 0, Y: 0, Width: 100, Height: 100}, 50, 50},
		{Bounds{X: 10, Y: 20, Width: 100, Height: 200}, 60, 120},
		{Bounds{X: 0, Y: 0, Width: 0, Height: 0}, 0, 0},
	}

	for _, tt := range tests {
		x, y := tt.bounds.Center()
		if x != tt.expectedX || y != tt.expectedY {
			t.Errorf("Bounds%+v.Center() = (%d, %d), want (%d, %d)",
				tt.bounds, x, y, tt.expectedX, tt.expectedY)
		}
	}
}

func TestBounds_Contains(t *testing.T) {
	bounds := Bounds{X: 10, Y: 10, Width: 100, Height: 100}

	tests := []struct {
		x, y     int
		expected bool
	}{
		{50, 50, true},    // Center
		{10, 10, true},    // Top-left corner
		{109, 109, true},  // Just inside bottom-right
		{110, 110, false}, // Exactly at boundary (exclusive)
		{0, 0, false},     // Outside
		{200, 200, false}, // Far outside
	}

	for _, tt := range tests {
		if got := bounds.Contains(tt.x, tt.y); got != tt.expected {
			t.Errorf("Bounds.Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestBounds_YAt(t *testing.T) {
	b := Bounds{X: 0, Y: 0, Width: 430, Height: 932}

	if got := b.YAt(0.7); got != 652 {
		t.Errorf("YAt(0.7) = %d, want 652", got)
	}
	if got := b.YAt(0.3); got != 279 {
		t.Errorf("YAt(0.3) = %d, want 279", got)
	}
	if got := (Bounds{Y: 100, Height: 200}).YAt(0.5); got != 200 {
		t.Errorf("YAt(0.5) with offset = %d, want 200", got)
	}
}
