package export

import "strings"

// Anchor 是从卡片 DOM 读出的超链接，坐标与卡片同处 CSS 像素空间。
type Anchor struct {
	Href string `json:"href"`
	Box  Rect   `json:"box"`
}

// LinkRect 是相对页面左上角、以输出单位表示的可点击区域。
type LinkRect struct {
	URL    string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CollectLinks 映射放置在 (placedX, placedY) 的卡片内的链接。
// 偏移相对卡片计算，两个方向都按 contentWidth / block.Width 缩放；没有 href 的链接跳过。
func CollectLinks(anchors []Anchor, block Rect, contentWidth, placedX, placedY float64) ([]LinkRect, error) {
	if len(anchors) == 0 {
		return nil, nil
	}
	scale, err := NewScale(block.Width, contentWidth)
	if err != nil {
		return nil, err
	}

	links := make([]LinkRect, 0, len(anchors))
	for _, a := range anchors {
		href := strings.TrimSpace(a.Href)
		if href == "" {
			continue
		}
		offset := scale.MapRect(Rect{
			X:      a.Box.X - block.X,
			Y:      a.Box.Y - block.Y,
			Width:  a.Box.Width,
			Height: a.Box.Height,
		})
		links = append(links, LinkRect{
			URL:    href,
			X:      placedX + offset.X,
			Y:      placedY + offset.Y,
			Width:  offset.Width,
			Height: offset.Height,
		})
	}
	return links, nil
}
