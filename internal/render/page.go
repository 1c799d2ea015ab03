package render

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"showcase/internal/resume"
)

// 导出流程与页面之间的约定。
const (
	RegionID         = "showcase-export"
	RegionSelector   = "#" + RegionID
	BlockAttr        = "data-export-block"
	ExcludeAttr      = "data-export-exclude"
	ReadySelector    = "#showcase-ready"
	SanitizeSelector = "iframe, video, audio, embed, object, button, input, select, textarea, [" + ExcludeAttr + "]"
	// TransparentClass 加在 <html> 上时页面背景透明，供透明截图使用。
	TransparentClass = "sc-transparent-capture"
	// MissingKeysHeader 由内部打印接口返回，列出未能内联的图片对象 key。
	MissingKeysHeader = "X-Showcase-Missing-Keys"
)

// Mode 区分公开页面与 Worker 使用的打印页面。
type Mode string

const (
	ModePublic Mode = "public"
	ModePrint  Mode = "print"
)

// Page 是 showcase 页面的输入。
type Page struct {
	Title    string
	Profile  *resume.Profile
	Sections []resume.Section
	Mode     Mode
	// ExportURL 非空时渲染导出按钮（仅所有者可见）。
	ExportURL     string
	BackgroundURL string
	Views         int64
}

type profileView struct {
	Name     string
	Location string
	Photo    template.URL
	Links    []contactView
}

type pageView struct {
	Title      string
	Print      bool
	ExportURL  string
	Background template.URL
	Views      int64
	Profile    *profileView
	Sections   []sectionView
	RegionID   string
	ProfileKey string
}

// BlockSelector 返回页面中带指定 key 的卡片选择器。
func BlockSelector(key string) string {
	return fmt.Sprintf(`[%s=%q]`, BlockAttr, key)
}

// Render 输出完整 HTML 页面。
func Render(w io.Writer, page Page) error {
	sections, err := buildSections(page.Sections)
	if err != nil {
		return fmt.Errorf("build sections: %w", err)
	}

	view := pageView{
		Title:      strings.TrimSpace(page.Title),
		Print:      page.Mode == ModePrint,
		ExportURL:  page.ExportURL,
		Background: imageURL(page.BackgroundURL),
		Views:      page.Views,
		Sections:   sections,
		RegionID:   RegionID,
		ProfileKey: resume.ProfileBlockKey,
	}
	if view.Title == "" {
		view.Title = resume.DefaultTitle
	}
	if view.Print {
		view.ExportURL = ""
	}
	if p := page.Profile; p.Present() {
		view.Profile = &profileView{
			Name:     p.FullName(),
			Location: p.Location(),
			Photo:    imageURL(p.PhotoURL),
			Links:    contactLinks(p.Email, p.Phone, "", p.LinkedIn, p.GitHub, p.Portfolio),
		}
	}

	if err := showcaseTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("execute showcase template: %w", err)
	}
	return nil
}

// Inventory 按文档顺序列出页面里所有可导出卡片的 key。
func Inventory(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse showcase html: %w", err)
	}
	var keys []string
	doc.Find(RegionSelector + " [" + BlockAttr + "]").Each(func(_ int, s *goquery.Selection) {
		if key, ok := s.Attr(BlockAttr); ok && key != "" {
			keys = append(keys, key)
		}
	})
	return keys, nil
}

// imageURL 只放行 data:image 与 http(s) 图片地址。
func imageURL(raw string) template.URL {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "data:image/"):
		return template.URL(raw)
	case strings.HasPrefix(raw, "https://"), strings.HasPrefix(raw, "http://"):
		return template.URL(raw)
	default:
		return ""
	}
}
