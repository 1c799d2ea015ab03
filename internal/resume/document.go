package resume

import (
	"strings"
	"time"
)

// DefaultTitle 是新建草稿的标题。
const DefaultTitle = "Untitled Resume"

// Document 是导出流程的只读输入：标题 + 有序 sections + 所有者。
type Document struct {
	ID        uint
	OwnerID   uint
	Title     string
	Sections  []Section
	Published bool
	Views     int64
	UpdatedAt time.Time
}

// DisplayTitle 在标题为空时回退为 DefaultTitle。
func (d Document) DisplayTitle() string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	return DefaultTitle
}

// Profile 是所有者的公开资料，渲染为 profile card。
type Profile struct {
	Name      string `json:"name"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github"`
	Portfolio string `json:"portfolio"`
	City      string `json:"city"`
	Country   string `json:"country"`
	// PhotoURL 在打印页里是内联的 data URI。
	PhotoURL string `json:"photoURL"`
}

// Present 表示是否有内容可放进 profile card。
func (p *Profile) Present() bool {
	if p == nil {
		return false
	}
	return p.FullName() != "" || p.PhotoURL != "" || p.Location() != "" ||
		p.Email != "" || p.Phone != "" || p.LinkedIn != "" || p.GitHub != "" || p.Portfolio != ""
}

func (p *Profile) FullName() string {
	return joinNonEmpty(" ", p.Name, p.LastName)
}

// Location 输出 "City, Country"，不留多余分隔符。
func (p *Profile) Location() string {
	return joinNonEmpty(", ", p.City, p.Country)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, sep)
}
