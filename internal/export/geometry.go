package export

import "math"

// Rect 是轴对齐的矩形。单位取决于来源：DOM 测量为 CSS 像素，映射后为输出单位（mm）。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty 表示元素没有布局尺寸。
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Scale 把像素长度换算为输出单位，两个方向使用同一比例以保持宽高比。
type Scale float64

// NewScale 返回 outputBasisWidth / pixelBasisWidth。
func NewScale(pixelBasisWidth, outputBasisWidth float64) (Scale, error) {
	if !(pixelBasisWidth > 0) || math.IsInf(pixelBasisWidth, 0) {
		return 0, newError(CodeInvalidBasis, nil, "pixel basis width %v", pixelBasisWidth)
	}
	if !(outputBasisWidth > 0) || math.IsInf(outputBasisWidth, 0) {
		return 0, newError(CodeInvalidBasis, nil, "output basis width %v", outputBasisWidth)
	}
	return Scale(outputBasisWidth / pixelBasisWidth), nil
}

func (s Scale) ToOutput(px float64) float64 {
	return px * float64(s)
}

// MapRect 按比例缩放 r 的每个分量。
func (s Scale) MapRect(r Rect) Rect {
	return Rect{X: s.ToOutput(r.X), Y: s.ToOutput(r.Y), Width: s.ToOutput(r.Width), Height: s.ToOutput(r.Height)}
}

// ToOutputUnits 换算单个像素值：pixelValue * outputBasisWidth / pixelBasisWidth。
func ToOutputUnits(pixelValue, pixelBasisWidth, outputBasisWidth float64) (float64, error) {
	s, err := NewScale(pixelBasisWidth, outputBasisWidth)
	if err != nil {
		return 0, err
	}
	return s.ToOutput(pixelValue), nil
}

// cssPixelsPerMM 是 96dpi 下 CSS 参考像素密度。
const cssPixelsPerMM = 96 / 25.4

// PageSpec 是输出文档的物理页面，单位为 mm。
type PageSpec struct {
	Width        float64
	Height       float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	// Gap 是同一页相邻卡片之间的间距。
	Gap float64
}

// A4 是默认的纵向页面。
func A4() PageSpec {
	return PageSpec{
		Width: 210, Height: 297,
		MarginTop: 12, MarginBottom: 12,
		MarginLeft: 10, MarginRight: 10,
		Gap: 4,
	}
}

// ContentWidth 是左右边距之间的可用宽度。
func (p PageSpec) ContentWidth() float64 {
	return p.Width - p.MarginLeft - p.MarginRight
}

// UsableHeight 是上下边距之间的高度。
func (p PageSpec) UsableHeight() float64 {
	return p.Height - p.MarginTop - p.MarginBottom
}

// BottomLimit 是卡片不溢出时可到达的最低 y。
func (p PageSpec) BottomLimit() float64 {
	return p.Height - p.MarginBottom
}

// PixelWidth 是 96dpi 下页面宽度的 CSS 像素数，即离屏克隆的宽度。
func (p PageSpec) PixelWidth() int {
	return int(math.Round(p.Width * cssPixelsPerMM))
}
