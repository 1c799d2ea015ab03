package render

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"showcase/internal/resume"
)

// richText 允许简单排版标签，去掉脚本与事件属性。
// 打印页以 about:blank 载入，相对地址与锚点无法解析，只保留绝对链接。
var richText = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowRelativeURLs(false)
	p.AllowURLSchemes("tel")
	return p
}()

type sectionView struct {
	Key       string
	Kind      string
	Heading   string
	Printable bool

	Headline   string
	Bio        template.HTML
	Skills     []string
	Experience []experienceView
	Projects   []projectView
	Contacts   []contactView
	Video      *videoView
}

type experienceView struct {
	Role        string
	Company     string
	Period      string
	Description template.HTML
}

type projectView struct {
	Title       string
	Description template.HTML
	Link        string
	ImageURL    template.URL
}

type contactView struct {
	Label string
	Text  string
	Href  template.URL
}

type videoView struct {
	Src    string
	IFrame bool
}

// sectionBuilder 把每种 section 映射为模板视图。
type sectionBuilder struct {
	view *sectionView
}

func (b sectionBuilder) VisitAbout(d resume.About) error {
	b.view.Headline = d.Headline
	b.view.Bio = sanitize(d.Bio)
	return nil
}

func (b sectionBuilder) VisitSkills(d resume.Skills) error {
	for _, s := range d.Skills {
		if s = strings.TrimSpace(s); s != "" {
			b.view.Skills = append(b.view.Skills, s)
		}
	}
	return nil
}

func (b sectionBuilder) VisitExperience(d resume.Experience) error {
	for _, item := range d.Items {
		b.view.Experience = append(b.view.Experience, experienceView{
			Role:        item.Role,
			Company:     item.Company,
			Period:      item.Period,
			Description: sanitize(item.Description),
		})
	}
	return nil
}

func (b sectionBuilder) VisitProjects(d resume.Projects) error {
	for _, p := range d.Projects {
		b.view.Projects = append(b.view.Projects, projectView{
			Title:       p.Title,
			Description: sanitize(p.Description),
			Link:        externalURL(p.Link),
			ImageURL:    imageURL(p.ImageURL),
		})
	}
	return nil
}

func (b sectionBuilder) VisitContacts(d resume.Contacts) error {
	b.view.Contacts = contactLinks(d.Email, d.Phone, d.Location, d.LinkedIn, d.GitHub, d.Portfolio)
	return nil
}

func (b sectionBuilder) VisitVideo(d resume.Video) error {
	if src, iframe := VideoEmbed(d.URL); src != "" {
		b.view.Video = &videoView{Src: src, IFrame: iframe}
	}
	return nil
}

func buildSections(sections []resume.Section) ([]sectionView, error) {
	views := make([]sectionView, 0, len(sections))
	for i, section := range sections {
		kind := section.Kind()
		view := sectionView{
			Key:       resume.SectionBlockKey(i),
			Kind:      string(kind),
			Heading:   heading(kind),
			Printable: kind.Printable(),
		}
		if err := section.Accept(sectionBuilder{view: &view}); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func contactLinks(email, phone, location, linkedin, github, portfolio string) []contactView {
	var out []contactView
	add := func(label, text, href string) {
		if text = strings.TrimSpace(text); text != "" {
			// href 均由 mailto/tel/externalURL 构造，已校验协议。
			out = append(out, contactView{Label: label, Text: text, Href: template.URL(href)})
		}
	}
	add("Email", email, mailto(email))
	add("Phone", phone, tel(phone))
	add("Location", location, "")
	add("LinkedIn", linkedin, externalURL(linkedin))
	add("GitHub", github, externalURL(github))
	add("Portfolio", portfolio, externalURL(portfolio))
	return out
}

// VideoEmbed 把 YouTube 链接改写为 embed 地址；其它地址按原生 <video> 播放。
func VideoEmbed(raw string) (src string, iframe bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, "youtube") || strings.Contains(raw, "youtu.be") {
		src = strings.Replace(raw, "watch?v=", "embed/", 1)
		src = strings.Replace(src, "youtu.be/", "youtube.com/embed/", 1)
		return src, true
	}
	return raw, false
}

func heading(kind resume.Kind) string {
	s := string(kind)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sanitize(s string) template.HTML {
	return template.HTML(richText.Sanitize(s))
}

func mailto(email string) string {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ""
	}
	return "mailto:" + email
}

func tel(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "tel:" + b.String()
}

// externalURL 补全缺失的协议，只接受 http(s)。
func externalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}
