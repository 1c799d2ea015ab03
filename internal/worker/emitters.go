package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"showcase/internal/database"
	"showcase/internal/storage"
)

// maxBackgroundBytes 限制页面背景图大小。
const maxBackgroundBytes = 10 << 20

// objectEmitter 把导出的 PDF 上传到对象存储的固定 key。
type objectEmitter struct {
	store storage.ObjectStore
	key   string
}

func (e *objectEmitter) Emit(ctx context.Context, _ string, data []byte) error {
	if _, err := e.store.UploadFile(ctx, e.key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		return fmt.Errorf("upload pdf to object storage: %w", err)
	}
	return nil
}

// FileEmitter 把导出的 PDF 写入本地目录，供命令行导出使用。
type FileEmitter struct {
	Dir string
	// Path 在 Emit 成功后记录写入的文件路径。
	Path string
}

func (e *FileEmitter) Emit(_ context.Context, fileName string, data []byte) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	target := filepath.Join(e.Dir, filepath.Base(fileName))
	tmp := target + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	e.Path = target
	return nil
}

// exportStatus 用 resumes.export_status 充当前端的“导出中”指示。
// Begin 重新记录开始时间，API 据此判断标记是否已过期。
type exportStatus struct {
	db       *gorm.DB
	resumeID uint
	now      func() time.Time
}

func (s *exportStatus) Begin(ctx context.Context) error {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return s.set(ctx, database.ExportStatusExporting, now().UTC())
}

func (s *exportStatus) End(ctx context.Context) error {
	return s.set(ctx, database.ExportStatusIdle, nil)
}

func (s *exportStatus) set(ctx context.Context, status string, startedAt any) error {
	err := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ?", s.resumeID).
		UpdateColumns(map[string]any{
			"export_status":     status,
			"export_started_at": startedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("set export status %s: %w", status, err)
	}
	return nil
}

// ObjectBackground 从对象存储加载页面背景。
type ObjectBackground struct {
	Store storage.ObjectStore
	Key   string
}

func (b ObjectBackground) LoadBackground(ctx context.Context) ([]byte, error) {
	key := strings.TrimSpace(b.Key)
	data, err := b.Store.ReadObject(ctx, key, maxBackgroundBytes)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			return nil, fmt.Errorf("background %q does not exist: %w", key, err)
		}
		return nil, err
	}
	return data, nil
}
