package database

import (
	"fmt"

	"showcase/internal/resume"
)

// Document 把数据库行转换为导出流程的只读输入，sections 在此处完成规范化。
func (r *Resume) Document() (resume.Document, error) {
	sections, err := resume.DecodeSections(r.Sections)
	if err != nil {
		return resume.Document{}, fmt.Errorf("decode sections of resume %d: %w", r.ID, err)
	}
	return resume.Document{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Title:     r.Title,
		Sections:  sections,
		Published: r.IsPublished,
		Views:     r.Views,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// Profile 返回用户公开资料；PhotoURL 暂存对象 key，由调用方替换为可访问地址。
func (u *User) Profile() *resume.Profile {
	return &resume.Profile{
		Name:      u.Name,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		LinkedIn:  u.LinkedIn,
		GitHub:    u.GitHub,
		Portfolio: u.Portfolio,
		City:      u.City,
		Country:   u.Country,
		PhotoURL:  u.PhotoKey,
	}
}
