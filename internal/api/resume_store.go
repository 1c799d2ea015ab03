package api

import (
	"context"
	"time"

	"gorm.io/gorm"

	"showcase/internal/database"
)

// resumeStore 封装 handler 用到的简历查询，测试中用 sqlite 驱动同一实现。
type resumeStore interface {
	Create(ctx context.Context, row *database.Resume) error
	ListByUser(ctx context.Context, userID uint) ([]database.Resume, error)
	GetForUser(ctx context.Context, id, userID uint) (*database.Resume, error)
	GetWithOwner(ctx context.Context, id uint) (*database.Resume, error)
	Update(ctx context.Context, row *database.Resume, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) (int64, error)
	ClaimExport(ctx context.Context, id uint, now time.Time, staleAfter time.Duration) (bool, error)
	ReleaseExport(ctx context.Context, id uint) error
}

type gormResumeStore struct {
	db *gorm.DB
}

func newGormResumeStore(db *gorm.DB) *gormResumeStore {
	return &gormResumeStore{db: db}
}

func (s *gormResumeStore) Create(ctx context.Context, row *database.Resume) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *gormResumeStore) ListByUser(ctx context.Context, userID uint) ([]database.Resume, error) {
	var rows []database.Resume
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error
	return rows, err
}

func (s *gormResumeStore) GetForUser(ctx context.Context, id, userID uint) (*database.Resume, error) {
	var row database.Resume
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *gormResumeStore) GetWithOwner(ctx context.Context, id uint) (*database.Resume, error) {
	var row database.Resume
	if err := s.db.WithContext(ctx).Preload("User").First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update 写入字段并刷新 updated_at，然后重新加载整行。
func (s *gormResumeStore) Update(ctx context.Context, row *database.Resume, updates map[string]any) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	if err := s.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).First(row, row.ID).Error
}

func (s *gormResumeStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&database.Resume{}, id).Error
}

// IncrementViews 在 SQL 中原子自增，避免读改写竞争。
func (s *gormResumeStore) IncrementViews(ctx context.Context, id uint) (int64, error) {
	err := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return 0, err
	}
	var row database.Resume
	if err := s.db.WithContext(ctx).Select("views").First(&row, id).Error; err != nil {
		return 0, err
	}
	return row.Views, nil
}

// ClaimExport 原子地把简历置为 exporting：仅当它空闲、没有开始时间或开始时间已超过 staleAfter。
// 返回 false 表示已有导出在进行。
func (s *gormResumeStore) ClaimExport(ctx context.Context, id uint, now time.Time, staleAfter time.Duration) (bool, error) {
	now = now.UTC()
	res := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ?", id).
		Where("export_status <> ? OR export_started_at IS NULL OR export_started_at < ?",
			database.ExportStatusExporting, now.Add(-staleAfter)).
		UpdateColumns(map[string]any{
			"export_status":     database.ExportStatusExporting,
			"export_started_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseExport 在入队失败时撤销 ClaimExport。
func (s *gormResumeStore) ReleaseExport(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"export_status":     database.ExportStatusIdle,
			"export_started_at": nil,
		}).Error
}

// ListExporting 返回用户在 startedAfter 之后开始、仍处于 exporting 的简历。
func (s *gormResumeStore) ListExporting(ctx context.Context, userID uint, startedAfter time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("user_id = ? AND export_status = ? AND export_started_at >= ?",
			userID, database.ExportStatusExporting, startedAfter.UTC()).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}
