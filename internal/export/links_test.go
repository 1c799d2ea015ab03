package export

import (
	"errors"
	"math"
	"testing"
)

func TestCollectLinksMapsOffsetsWithOneScale(t *testing.T) {
	block := Rect{X: 100, Y: 2000, Width: 760, Height: 300}
	anchors := []Anchor{
		{Href: "https://example.com", Box: Rect{X: 140, Y: 2060, Width: 200, Height: 20}},
	}
	contentWidth := 190.0
	placedX, placedY := 10.0, 50.0

	got, err := CollectLinks(anchors, block, contentWidth, placedX, placedY)
	if err != nil {
		t.Fatalf("collect links: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 link, got %d", len(got))
	}

	k := contentWidth / block.Width
	want := LinkRect{
		URL:    "https://example.com",
		X:      placedX + 40*k,
		Y:      placedY + 60*k,
		Width:  200 * k,
		Height: 20 * k,
	}
	l := got[0]
	if l.URL != want.URL || !near(l.X, want.X) || !near(l.Y, want.Y) || !near(l.Width, want.Width) || !near(l.Height, want.Height) {
		t.Fatalf("got %+v, want %+v", l, want)
	}
}

func TestCollectLinksSkipsEmptyHref(t *testing.T) {
	block := Rect{Width: 100, Height: 100}
	anchors := []Anchor{
		{Href: "", Box: Rect{Width: 10, Height: 10}},
		{Href: "   ", Box: Rect{Width: 10, Height: 10}},
		{Href: "mailto:me@example.com", Box: Rect{X: 5, Y: 5, Width: 10, Height: 10}},
	}
	got, err := CollectLinks(anchors, block, 190, 10, 12)
	if err != nil {
		t.Fatalf("collect links: %v", err)
	}
	if len(got) != 1 || got[0].URL != "mailto:me@example.com" {
		t.Fatalf("unexpected links %+v", got)
	}
}

func TestCollectLinksRejectsZeroWidthBlock(t *testing.T) {
	_, err := CollectLinks([]Anchor{{Href: "https://x"}}, Rect{}, 190, 0, 0)
	if !errors.Is(err, ErrInvalidBasis) {
		t.Fatalf("error = %v, want InvalidBasis", err)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
