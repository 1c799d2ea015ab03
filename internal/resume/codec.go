package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type wireSection struct {
	ID   string          `json:"id"`
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// looseSection 容忍 id 与 type 的 JSON 类型不对。
type looseSection struct {
	ID   json.RawMessage `json:"id"`
	Type json.RawMessage `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON 输出 {id, type, data} 结构。
func (s Section) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.data())
	if err != nil {
		return nil, fmt.Errorf("marshal %s section data: %w", s.Kind(), err)
	}
	return json.Marshal(wireSection{ID: s.ID, Type: s.Kind(), Data: data})
}

// UnmarshalJSON 不会失败：未知 type、缺少 data 或 data 结构不对时，解码为保留原 id 的空 about section。
func (s *Section) UnmarshalJSON(b []byte) error {
	var wire looseSection
	if err := json.Unmarshal(b, &wire); err != nil {
		*s = Section{Data: About{}}
		return nil
	}
	*s = Section{
		ID:   rawString(wire.ID),
		Data: decodeData(Kind(rawString(wire.Type)), wire.Data),
	}
	return nil
}

func rawString(raw json.RawMessage) string {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}

func decodeData(kind Kind, raw json.RawMessage) SectionData {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return About{}
	}

	var (
		data SectionData
		err  error
	)
	switch kind {
	case KindAbout:
		var v About
		err = json.Unmarshal(trimmed, &v)
		data = v
	case KindSkills:
		var v Skills
		err = json.Unmarshal(trimmed, &v)
		data = v
	case KindExperience:
		var v Experience
		err = json.Unmarshal(trimmed, &v)
		data = v
	case KindProjects:
		var v Projects
		err = json.Unmarshal(trimmed, &v)
		data = v
	case KindContacts:
		var v Contacts
		err = json.Unmarshal(trimmed, &v)
		data = v
	case KindVideo:
		var v Video
		err = json.Unmarshal(trimmed, &v)
		data = v
	default:
		return About{}
	}
	if err != nil {
		return About{}
	}
	return data
}

// DecodeSections 解析 JSONB 中的 sections 数组；null/空内容视为没有 section。
func DecodeSections(raw []byte) ([]Section, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var sections []Section
	if err := json.Unmarshal(trimmed, &sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	return sections, nil
}

// EncodeSections 是 DecodeSections 的逆操作，nil 编码为空数组。
func EncodeSections(sections []Section) ([]byte, error) {
	if sections == nil {
		sections = []Section{}
	}
	data, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}
	return data, nil
}
