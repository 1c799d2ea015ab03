package export

import (
	"errors"
	"math"
	"testing"
)

func TestToOutputUnits(t *testing.T) {
	got, err := ToOutputUnits(397, 794, 210)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-105) > 1e-9 {
		t.Fatalf("got %v, want 105", got)
	}
}

func TestToOutputUnitsRejectsInvalidBasis(t *testing.T) {
	cases := []struct {
		name       string
		pixel, out float64
	}{
		{"zero pixel basis", 0, 190},
		{"negative pixel basis", -10, 190},
		{"zero output basis", 100, 0},
		{"nan basis", math.NaN(), 190},
	}
	for _, tc := range cases {
		_, err := ToOutputUnits(10, tc.pixel, tc.out)
		if !errors.Is(err, ErrInvalidBasis) {
			t.Errorf("%s: error = %v, want InvalidBasis", tc.name, err)
		}
	}
}

func TestScaleKeepsAspectRatio(t *testing.T) {
	s, err := NewScale(380, 190)
	if err != nil {
		t.Fatalf("new scale: %v", err)
	}
	got := s.MapRect(Rect{X: 20, Y: 40, Width: 100, Height: 50})
	want := Rect{X: 10, Y: 20, Width: 50, Height: 25}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestPageSpecA4(t *testing.T) {
	spec := A4()
	if spec.ContentWidth() != 190 {
		t.Fatalf("content width = %v", spec.ContentWidth())
	}
	if spec.UsableHeight() != 273 {
		t.Fatalf("usable height = %v", spec.UsableHeight())
	}
	if spec.PixelWidth() != 794 {
		t.Fatalf("pixel width = %d", spec.PixelWidth())
	}
}
