package export

import (
	"context"
	"io"
)

// Surface 是导出所依据的已渲染页面。
type Surface interface {
	// Clone 把导出区域深拷贝到给定 CSS 像素宽度、已参与布局的离屏容器中。
	Clone(ctx context.Context, widthPx int) (Region, error)
}

// Region 是一次导出独占的离屏克隆。
type Region interface {
	// Sanitize 从克隆中移除媒体播放器与交互控件。
	Sanitize(ctx context.Context) error
	// Block 返回克隆中标记为 key 的卡片。
	Block(ctx context.Context, key string) (Element, error)
	// Detach 把克隆从文档中移除。
	Detach(ctx context.Context) error
}

// Element 是克隆中已布局的一张卡片。
type Element interface {
	// Box 是元素在文档坐标系中的边框盒（CSS 像素）。
	Box(ctx context.Context) (Rect, error)
	// Capture 把元素截图为 PNG。
	Capture(ctx context.Context, opts CaptureOptions) ([]byte, error)
	// Anchors 列出元素内的超链接，坐标与 Box 同一空间。
	Anchors(ctx context.Context) ([]Anchor, error)
}

// Canvas 是分页的输出文档，使用输出单位。
type Canvas interface {
	AddPage() error
	// SetBackground 登记一次页面背景。
	SetBackground(data []byte) error
	// DrawBackground 在当前页铺满已登记的背景。
	DrawBackground() error
	DrawImage(bmp Bitmap, x, y, width, height float64) error
	AddLink(link LinkRect) error
	PageCount() int
	Output(w io.Writer) error
}

// CanvasFactory 为一次导出创建空文档。
type CanvasFactory func(spec PageSpec) Canvas

// BackgroundLoader 加载页面背景图。
type BackgroundLoader interface {
	LoadBackground(ctx context.Context) ([]byte, error)
}

// Emitter 交付完成的文件。
type Emitter interface {
	Emit(ctx context.Context, fileName string, data []byte) error
}

// BusyIndicator 是展示给用户的“导出中”状态。
type BusyIndicator interface {
	Begin(ctx context.Context) error
	End(ctx context.Context) error
}
