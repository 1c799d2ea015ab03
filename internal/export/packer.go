package export

// Placement 是卡片被放置的位置。
type Placement struct {
	Page int
	Y    float64
	// NewPage 表示这张卡片开启了新页，调用方负责绘制该页背景。
	NewPage bool
}

// Cursor 是当前页码与该页下一个空闲 y。
type Cursor struct {
	Page int
	Y    float64
}

// Packer 决定一次导出的分页。卡片从不拆分：放不下的卡片整体移到下一页；
// 比整页还高的卡片独占一页，从上边距开始放置并越过下边距。
type Packer struct {
	spec   PageSpec
	cursor Cursor
	onPage int
}

func NewPacker(spec PageSpec) *Packer {
	return &Packer{spec: spec, cursor: Cursor{Page: 0, Y: spec.MarginTop}}
}

// Place 按文档顺序为下一张卡片预留 height。
func (p *Packer) Place(height float64) Placement {
	newPage := false
	if p.onPage > 0 && p.cursor.Y+height > p.spec.BottomLimit() {
		p.cursor = Cursor{Page: p.cursor.Page + 1, Y: p.spec.MarginTop}
		p.onPage = 0
		newPage = true
	}

	placed := Placement{Page: p.cursor.Page, Y: p.cursor.Y, NewPage: newPage}
	p.cursor.Y += height + p.spec.Gap
	p.onPage++
	return placed
}

// Cursor 返回当前游标。
func (p *Packer) Cursor() Cursor {
	return p.cursor
}

// Pages 是已开启的页数（第 0 页始终存在）。
func (p *Packer) Pages() int {
	return p.cursor.Page + 1
}
