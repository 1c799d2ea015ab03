package resume

// Kind 是 section 的类型判别字段。
type Kind string

const (
	KindAbout      Kind = "about"
	KindSkills     Kind = "skills"
	KindExperience Kind = "experience"
	KindProjects   Kind = "projects"
	KindContacts   Kind = "contacts"
	KindVideo      Kind = "video"
)

// Printable 表示该类 section 能否平铺到静态页面上，嵌入媒体不能。
func (k Kind) Printable() bool {
	return k != KindVideo
}

// Section 是简历中的一个卡片，Data 的具体类型与 Kind 一一对应。
type Section struct {
	ID   string
	Data SectionData
}

// SectionData 是封闭的 section 载荷集合。未导出的方法把实现限制在本包内；
// SectionVisitor 要求使用方处理每一种类型，新增类型在所有 visitor 补齐前无法编译。
type SectionData interface {
	Kind() Kind
	Accept(v SectionVisitor) error
	sealed()
}

// SectionVisitor 按具体载荷类型分派。
type SectionVisitor interface {
	VisitAbout(About) error
	VisitSkills(Skills) error
	VisitExperience(Experience) error
	VisitProjects(Projects) error
	VisitContacts(Contacts) error
	VisitVideo(Video) error
}

// Kind 返回类型判别值；没有 data 的 section 视为空 about。
func (s Section) Kind() Kind {
	return s.data().Kind()
}

// Accept 把 visitor 转给具体载荷。
func (s Section) Accept(v SectionVisitor) error {
	return s.data().Accept(v)
}

func (s Section) data() SectionData {
	if s.Data == nil {
		return About{}
	}
	return s.Data
}

type About struct {
	Headline string `json:"headline"`
	Bio      string `json:"bio"`
}

type Skills struct {
	Skills []string `json:"skills"`
}

type ExperienceItem struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

type Experience struct {
	Items []ExperienceItem `json:"items"`
}

type ProjectItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type Projects struct {
	Projects []ProjectItem `json:"projects"`
}

type Contacts struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

type Video struct {
	URL string `json:"url"`
}

func (About) Kind() Kind      { return KindAbout }
func (Skills) Kind() Kind     { return KindSkills }
func (Experience) Kind() Kind { return KindExperience }
func (Projects) Kind() Kind   { return KindProjects }
func (Contacts) Kind() Kind   { return KindContacts }
func (Video) Kind() Kind      { return KindVideo }

func (d About) Accept(v SectionVisitor) error      { return v.VisitAbout(d) }
func (d Skills) Accept(v SectionVisitor) error     { return v.VisitSkills(d) }
func (d Experience) Accept(v SectionVisitor) error { return v.VisitExperience(d) }
func (d Projects) Accept(v SectionVisitor) error   { return v.VisitProjects(d) }
func (d Contacts) Accept(v SectionVisitor) error   { return v.VisitContacts(d) }
func (d Video) Accept(v SectionVisitor) error      { return v.VisitVideo(d) }

func (About) sealed()      {}
func (Skills) sealed()     {}
func (Experience) sealed() {}
func (Projects) sealed()   {}
func (Contacts) sealed()   {}
func (Video) sealed()      {}
