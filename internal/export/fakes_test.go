package export

import (
	"context"
	"errors"
	"fmt"
	"io"
)

type fakeElement struct {
	box        Rect
	anchors    []Anchor
	captureErr error
	captures   int
}

func (e *fakeElement) Box(context.Context) (Rect, error) { return e.box, nil }

func (e *fakeElement) Capture(_ context.Context, opts CaptureOptions) ([]byte, error) {
	e.captures++
	if e.captureErr != nil {
		return nil, e.captureErr
	}
	return []byte(fmt.Sprintf("bitmap@%v", opts.Scale)), nil
}

func (e *fakeElement) Anchors(context.Context) ([]Anchor, error) { return e.anchors, nil }

type fakeRegion struct {
	blocks    map[string]*fakeElement
	sanitized int
	detached  int
}

func (r *fakeRegion) Sanitize(context.Context) error {
	r.sanitized++
	return nil
}

func (r *fakeRegion) Block(_ context.Context, key string) (Element, error) {
	el, ok := r.blocks[key]
	if !ok {
		return nil, fmt.Errorf("no element for %q", key)
	}
	return el, nil
}

func (r *fakeRegion) Detach(context.Context) error {
	r.detached++
	return nil
}

type fakeSurface struct {
	region   *fakeRegion
	widthPx  int
	cloneErr error
}

func (s *fakeSurface) Clone(_ context.Context, widthPx int) (Region, error) {
	s.widthPx = widthPx
	if s.cloneErr != nil {
		return nil, s.cloneErr
	}
	return s.region, nil
}

type drawnImage struct {
	page int
	x, y float64
	w, h float64
}

type drawnLink struct {
	page int
	link LinkRect
}

type fakeCanvas struct {
	pages       int
	background  []byte
	backgrounds []int
	images      []drawnImage
	links       []drawnLink
	outputErr   error
	bgErr       error
}

func (c *fakeCanvas) AddPage() error {
	c.pages++
	return nil
}

func (c *fakeCanvas) SetBackground(data []byte) error {
	if c.bgErr != nil {
		return c.bgErr
	}
	c.background = data
	return nil
}

func (c *fakeCanvas) DrawBackground() error {
	if c.background == nil {
		return errors.New("no background registered")
	}
	c.backgrounds = append(c.backgrounds, c.pages-1)
	return nil
}

func (c *fakeCanvas) DrawImage(_ Bitmap, x, y, w, h float64) error {
	c.images = append(c.images, drawnImage{page: c.pages - 1, x: x, y: y, w: w, h: h})
	return nil
}

func (c *fakeCanvas) AddLink(l LinkRect) error {
	c.links = append(c.links, drawnLink{page: c.pages - 1, link: l})
	return nil
}

func (c *fakeCanvas) PageCount() int { return c.pages }

func (c *fakeCanvas) Output(w io.Writer) error {
	if c.outputErr != nil {
		return c.outputErr
	}
	_, err := fmt.Fprintf(w, "%%PDF pages=%d", c.pages)
	return err
}

type fakeEmitter struct {
	files map[string][]byte
	err   error
}

func (e *fakeEmitter) Emit(_ context.Context, name string, data []byte) error {
	if e.err != nil {
		return e.err
	}
	if e.files == nil {
		e.files = map[string][]byte{}
	}
	e.files[name] = data
	return nil
}

type fakeBusy struct {
	busy   bool
	begins int
	ends   int
}

func (b *fakeBusy) Begin(context.Context) error {
	b.busy = true
	b.begins++
	return nil
}

func (b *fakeBusy) End(context.Context) error {
	b.busy = false
	b.ends++
	return nil
}

type fakeBackground struct {
	data  []byte
	err   error
	loads int
}

func (b *fakeBackground) LoadBackground(context.Context) ([]byte, error) {
	b.loads++
	return b.data, b.err
}
