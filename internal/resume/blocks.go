package resume

import "strconv"

// BlockKind 区分导出时的两类卡片。
type BlockKind string

const (
	BlockProfileCard BlockKind = "profile-card"
	BlockSectionCard BlockKind = "section-card"
)

// ProfileBlockKey 标记渲染页中的 profile card。
const ProfileBlockKey = "profile"

// ContentBlock 是导出中视觉上不可拆分的一张卡片，只在单次导出内存在。
type ContentBlock struct {
	Kind        BlockKind
	Key         string
	SectionID   string
	SectionKind Kind
}

// SectionBlockKey 由 section 在文档中的位置生成，id 为空或重复时仍一一对应一张卡片。
func SectionBlockKey(index int) string {
	return "section-" + strconv.Itoa(index)
}

// DeriveBlocks 按打印顺序列出导出卡片：先是 profile card（若有），再按文档顺序列出可打印的 section。
func DeriveBlocks(doc Document, profile *Profile) []ContentBlock {
	blocks := make([]ContentBlock, 0, len(doc.Sections)+1)
	if profile.Present() {
		blocks = append(blocks, ContentBlock{Kind: BlockProfileCard, Key: ProfileBlockKey})
	}
	for i, section := range doc.Sections {
		kind := section.Kind()
		if !kind.Printable() {
			continue
		}
		blocks = append(blocks, ContentBlock{
			Kind:        BlockSectionCard,
			Key:         SectionBlockKey(i),
			SectionID:   section.ID,
			SectionKind: kind,
		})
	}
	return blocks
}
