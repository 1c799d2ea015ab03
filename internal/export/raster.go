package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"math"
)

// DefaultRenderScale 把 CSS 分辨率提高一倍，打印时文字保持清晰。
const DefaultRenderScale = 2

// CaptureOptions 传给 Element.Capture。
type CaptureOptions struct {
	Scale       float64
	Transparent bool
}

// Bitmap 是一张卡片的截图。
type Bitmap struct {
	Data        []byte
	Format      string
	PixelWidth  int
	PixelHeight int
}

// Rasterizer 把已布局的元素转为位图。
type Rasterizer struct {
	scale       float64
	transparent bool
}

// NewRasterizer 要求 scale >= 1；transparent 为 true 时卡片下方的页面背景保持可见。
func NewRasterizer(scale float64, transparent bool) (Rasterizer, error) {
	if !(scale >= 1) || math.IsInf(scale, 0) {
		return Rasterizer{}, fmt.Errorf("render scale must be >= 1, got %v", scale)
	}
	return Rasterizer{scale: scale, transparent: transparent}, nil
}

func (r Rasterizer) Scale() float64 {
	return r.scale
}

// Rasterize 截取 el，返回位图及截图时的 CSS 盒。
func (r Rasterizer) Rasterize(ctx context.Context, el Element) (Bitmap, Rect, error) {
	box, err := el.Box(ctx)
	if err != nil {
		return Bitmap{}, Rect{}, newError(CodeEmptyElement, err, "measure element")
	}
	if box.Empty() {
		return Bitmap{}, Rect{}, newError(CodeEmptyElement, nil, "element has no layout box (%vx%v)", box.Width, box.Height)
	}

	data, err := el.Capture(ctx, CaptureOptions{Scale: r.scale, Transparent: r.transparent})
	if err != nil {
		return Bitmap{}, Rect{}, newError(CodeCaptureFailed, err, "capture element")
	}

	bmp := Bitmap{
		Data:        data,
		Format:      "PNG",
		PixelWidth:  int(math.Round(box.Width * r.scale)),
		PixelHeight: int(math.Round(box.Height * r.scale)),
	}
	// 以图像头里的真实尺寸为准，浏览器可能对亚像素做取整。
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		bmp.PixelWidth, bmp.PixelHeight = cfg.Width, cfg.Height
		bmp.Format = format
	}
	if bmp.PixelWidth <= 0 || bmp.PixelHeight <= 0 {
		return Bitmap{}, Rect{}, newError(CodeEmptyElement, nil, "captured bitmap is empty")
	}
	return bmp, box, nil
}
