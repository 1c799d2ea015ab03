package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 导出状态，ExportStatus 字段即前端的忙碌指示。
const (
	ExportStatusIdle      = "idle"
	ExportStatusExporting = "exporting"
)

// User 表示账号及其公开资料（profile card 的数据来源）。
type User struct {
	gorm.Model
	Username  string   `gorm:"uniqueIndex;size:64"`
	Name      string   `gorm:"size:128"`
	LastName  string   `gorm:"size:128"`
	Email     string   `gorm:"size:255"`
	Phone     string   `gorm:"size:64"`
	LinkedIn  string   `gorm:"size:255"`
	GitHub    string   `gorm:"size:255"`
	Portfolio string   `gorm:"size:255"`
	City      string   `gorm:"size:128"`
	Country   string   `gorm:"size:128"`
	PhotoKey  string   `gorm:"size:512"`
	Resumes   []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume 表示用户创建的 showcase 简历。
// ExportStartedAt 记录最近一次进入 exporting 的时间，超过过期窗口视为遗留状态。
type Resume struct {
	gorm.Model
	Title           string         `gorm:"size:255"`
	Sections        datatypes.JSON `gorm:"type:jsonb"`
	UserID          uint           `gorm:"index"`
	User            User           `gorm:"constraint:OnDelete:CASCADE"`
	IsPublished     bool           `gorm:"default:false;index"`
	Views           int64          `gorm:"default:0"`
	PdfKey          string         `gorm:"size:512"`
	PdfFileName     string         `gorm:"size:255"`
	ExportStatus    string         `gorm:"size:32;default:idle"`
	ExportStartedAt *time.Time
	ExportedAt      *time.Time
}
