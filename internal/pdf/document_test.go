package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"showcase/internal/export"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 128})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDocumentPagesImagesAndLinks(t *testing.T) {
	doc := NewDocument(export.A4())
	doc.SetInfo("Jane Doe", "Jane")

	if err := doc.SetBackground(testPNG(t, 8, 12)); err != nil {
		t.Fatalf("set background: %v", err)
	}
	block := export.Bitmap{Data: testPNG(t, 20, 10), Format: "png", PixelWidth: 20, PixelHeight: 10}

	for page := 0; page < 2; page++ {
		if err := doc.AddPage(); err != nil {
			t.Fatalf("add page: %v", err)
		}
		if err := doc.DrawBackground(); err != nil {
			t.Fatalf("draw background: %v", err)
		}
		if err := doc.DrawImage(block, 10, 12, 190, 95); err != nil {
			t.Fatalf("draw image: %v", err)
		}
	}
	if err := doc.AddLink(export.LinkRect{URL: "https://example.com/jane", X: 20, Y: 30, Width: 40, Height: 6}); err != nil {
		t.Fatalf("add link: %v", err)
	}

	if doc.PageCount() != 2 {
		t.Fatalf("page count = %d", doc.PageCount())
	}
	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		t.Fatalf("output: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", out.Bytes()[:16])
	}
	if !bytes.Contains(out.Bytes(), []byte("https://example.com/jane")) {
		t.Fatal("link annotation missing from output")
	}
}

func TestDocumentDrawBackgroundRequiresRegistration(t *testing.T) {
	doc := NewDocument(export.A4())
	if err := doc.AddPage(); err != nil {
		t.Fatalf("add page: %v", err)
	}
	if err := doc.DrawBackground(); err == nil {
		t.Fatal("expected error without background")
	}
}

func TestDocumentRejectsUndecodableBackground(t *testing.T) {
	doc := NewDocument(export.A4())
	if err := doc.SetBackground([]byte("not an image")); err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeImagePassesThroughNativeFormats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	var jpg, gf bytes.Buffer
	if err := jpeg.Encode(&jpg, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	if err := gif.Encode(&gf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", testPNG(t, 4, 4), "png"},
		{"jpeg", jpg.Bytes(), "jpeg"},
		{"gif", gf.Bytes(), "gif"},
	}
	for _, tt := range tests {
		data, format, err := NormalizeImage(tt.data)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if format != tt.want || !bytes.Equal(data, tt.data) {
			t.Fatalf("%s: format=%s, rewritten=%v", tt.name, format, !bytes.Equal(data, tt.data))
		}
	}
}

func TestNormalizeImageConvertsBMP(t *testing.T) {
	// 2x1 24-bit BMP
	bmp := []byte{
		'B', 'M', 62, 0, 0, 0, 0, 0, 0, 0, 54, 0, 0, 0,
		40, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 1, 0, 24, 0, 0, 0, 0, 0, 8, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 255, 0, 255, 0, 0, 0,
	}
	data, format, err := NormalizeImage(bmp)
	if err != nil {
		t.Fatalf("normalize bmp: %v", err)
	}
	if format != "png" {
		t.Fatalf("format = %s", format)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width != 2 || cfg.Height != 1 {
		t.Fatalf("converted image: %+v, %v", cfg, err)
	}
}
