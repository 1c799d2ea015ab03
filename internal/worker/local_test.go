package worker

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/export"
	"showcase/internal/render"
)

type stubElement struct {
	box     export.Rect
	anchors []export.Anchor
}

func (e stubElement) Box(context.Context) (export.Rect, error) { return e.box, nil }

func (e stubElement) Capture(_ context.Context, opts export.CaptureOptions) ([]byte, error) {
	w := int(math.Round(e.box.Width * opts.Scale))
	h := int(math.Round(e.box.Height * opts.Scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 250, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e stubElement) Anchors(context.Context) ([]export.Anchor, error) { return e.anchors, nil }

type stubRegion struct {
	blocks   map[string]stubElement
	detached int
}

func (r *stubRegion) Sanitize(context.Context) error { return nil }

func (r *stubRegion) Block(_ context.Context, key string) (export.Element, error) {
	el, ok := r.blocks[key]
	if !ok {
		return nil, fmt.Errorf("block %q not found", key)
	}
	return el, nil
}

func (r *stubRegion) Detach(context.Context) error {
	r.detached++
	return nil
}

type stubSurface struct {
	region *stubRegion
}

func (s stubSurface) Clone(context.Context, int) (export.Region, error) { return s.region, nil }

// stubOpener 记录收到的打印页，并返回预置的页面。
type stubOpener struct {
	region *stubRegion
	html   []byte
	closed int
}

func (o *stubOpener) OpenDocument(_ context.Context, _ *slog.Logger, html []byte) (export.Surface, func(), error) {
	o.html = html
	return stubSurface{region: o.region}, func() { o.closed++ }, nil
}

func testExportConfig() config.ExportConfig {
	return config.ExportConfig{
		PageWidth:    210,
		PageHeight:   297,
		MarginTop:    12,
		MarginBottom: 12,
		MarginLeft:   10,
		MarginRight:  10,
		BlockGap:     4,
		RenderScale:  1,
	}
}

func TestLocalExportWritesFileWithoutTouchingStatus(t *testing.T) {
	db := newTestDB(t)
	owner := database.User{Username: "jane", Name: "Jane", LastName: "Doe"}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	row := database.Resume{
		Title:    "Jane CV",
		UserID:   owner.ID,
		Sections: []byte(`[{"id":"a","type":"about","data":{"bio":"hi"}}]`),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	page := fmt.Sprintf(`<html><body><main id=%q><div %s="profile"></div><div %s="section-0"></div></main></body></html>`,
		render.RegionID, render.BlockAttr, render.BlockAttr)
	var gotSecret, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Internal-Secret")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	region := &stubRegion{blocks: map[string]stubElement{
		"profile": {box: export.Rect{X: 0, Y: 0, Width: 700, Height: 120}},
		"section-0": {
			box: export.Rect{X: 0, Y: 140, Width: 700, Height: 200},
			anchors: []export.Anchor{
				{Href: "https://go.dev", Box: export.Rect{X: 10, Y: 150, Width: 80, Height: 20}},
			},
		},
	}}
	opener := &stubOpener{region: region}

	composer, err := NewComposer(testExportConfig(), nil, discardLogger())
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}

	local := LocalExport{
		DB:             db,
		Browser:        opener,
		Composer:       composer,
		Logger:         discardLogger(),
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		InternalSecret: "s3cret",
	}
	dir := filepath.Join(t.TempDir(), "out")
	result, path, err := local.Run(context.Background(), row.ID, dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if gotSecret != "s3cret" {
		t.Fatalf("internal secret header = %q", gotSecret)
	}
	if want := fmt.Sprintf("/internal/v1/resumes/%d/print", row.ID); gotPath != want {
		t.Fatalf("print path = %s, want %s", gotPath, want)
	}
	if string(opener.html) != page {
		t.Fatal("browser did not receive the print page")
	}
	if opener.closed != 1 || region.detached != 1 {
		t.Fatalf("page closed %d times, clone detached %d times", opener.closed, region.detached)
	}

	if path != filepath.Join(dir, "Jane_CV.pdf") || result.FileName != "Jane_CV.pdf" {
		t.Fatalf("path = %s, file name = %s", path, result.FileName)
	}
	if result.Blocks != 2 || result.Links != 1 || result.Pages < 1 {
		t.Fatalf("result = %+v", result)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) || len(data) != result.Bytes {
		t.Fatalf("file is not the exported pdf (%d bytes, result %d)", len(data), result.Bytes)
	}

	var after database.Resume
	if err := db.First(&after, row.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if after.ExportStatus != database.ExportStatusIdle || after.ExportStartedAt != nil {
		t.Fatalf("export status = %s, started at %v", after.ExportStatus, after.ExportStartedAt)
	}
	if after.PdfKey != "" || after.ExportedAt != nil {
		t.Fatalf("local export wrote back pdf_key %q", after.PdfKey)
	}
}
