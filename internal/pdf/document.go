package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"showcase/internal/export"
)

const backgroundImage = "page-background"

// Document 是基于 gofpdf 的分页画布，单位为毫米，坐标原点在页面左上角。
type Document struct {
	pdf           *gofpdf.Fpdf
	spec          export.PageSpec
	images        int
	hasBackground bool
}

// NewDocument 创建一份空文档；页面由 AddPage 显式打开，不自动分页。
func NewDocument(spec export.PageSpec) *Document {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: spec.Width, Ht: spec.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("showcase", true)
	return &Document{pdf: pdf, spec: spec}
}

// NewCanvas adapts NewDocument to export.CanvasFactory.
func NewCanvas(spec export.PageSpec) export.Canvas {
	return NewDocument(spec)
}

// SetInfo 写入 PDF 元数据。
func (d *Document) SetInfo(title, author string) {
	if title = strings.TrimSpace(title); title != "" {
		d.pdf.SetTitle(title, true)
	}
	if author = strings.TrimSpace(author); author != "" {
		d.pdf.SetAuthor(author, true)
	}
}

func (d *Document) AddPage() error {
	d.pdf.AddPage()
	return d.pdf.Error()
}

// SetBackground 只注册一次图片，之后每页按名称复用同一个 XObject。
func (d *Document) SetBackground(data []byte) error {
	normalized, imageType, err := NormalizeImage(data)
	if err != nil {
		return fmt.Errorf("normalize background: %w", err)
	}
	d.pdf.RegisterImageOptionsReader(backgroundImage, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(normalized))
	if err := d.takeError(); err != nil {
		return fmt.Errorf("register background: %w", err)
	}
	d.hasBackground = true
	return nil
}

func (d *Document) DrawBackground() error {
	if !d.hasBackground {
		return errors.New("background not registered")
	}
	d.pdf.ImageOptions(backgroundImage, 0, 0, d.spec.Width, d.spec.Height, false, gofpdf.ImageOptions{}, 0, "")
	return d.pdf.Error()
}

func (d *Document) DrawImage(bmp export.Bitmap, x, y, width, height float64) error {
	imageType := strings.ToLower(bmp.Format)
	data := bmp.Data
	if imageType != "png" && imageType != "jpeg" && imageType != "jpg" && imageType != "gif" {
		var err error
		if data, imageType, err = NormalizeImage(bmp.Data); err != nil {
			return err
		}
	}

	d.images++
	name := fmt.Sprintf("block-%d", d.images)
	opts := gofpdf.ImageOptions{ImageType: imageType}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	d.pdf.ImageOptions(name, x, y, width, height, false, opts, 0, "")
	return d.takeError()
}

// AddLink 在当前页登记不可见的可点击区域。
func (d *Document) AddLink(link export.LinkRect) error {
	d.pdf.LinkString(link.X, link.Y, link.Width, link.Height, link.URL)
	return d.pdf.Error()
}

func (d *Document) PageCount() int {
	return d.pdf.PageCount()
}

func (d *Document) Output(w io.Writer) error {
	if err := d.pdf.Error(); err != nil {
		return err
	}
	return d.pdf.Output(w)
}

// takeError 返回并清除 gofpdf 的粘性错误，便于调用方把失败归因到具体步骤。
func (d *Document) takeError() error {
	if !d.pdf.Err() {
		return nil
	}
	err := d.pdf.Error()
	d.pdf.ClearError()
	return err
}
