package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"showcase/internal/database"
	"showcase/internal/export"
	"showcase/internal/resume"
)

// LocalExport 不经过队列直接导出一份简历到本地目录，供命令行使用。
// 不修改 export_status，也不写回 pdf_key。
type LocalExport struct {
	DB             *gorm.DB
	Browser        PageOpener
	Composer       *export.Composer
	Logger         *slog.Logger
	HTTPClient     *http.Client
	BaseURL        string
	InternalSecret string
}

// Run 导出 resumeID 到 dir，返回导出结果与写入路径。
func (l LocalExport) Run(ctx context.Context, resumeID uint, dir string) (export.Result, string, error) {
	correlationID := uuid.NewString()
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("correlation_id", correlationID), slog.Int("resume_id", int(resumeID)))

	var row database.Resume
	if err := l.DB.WithContext(ctx).Preload("User").First(&row, resumeID).Error; err != nil {
		return export.Result{}, "", fmt.Errorf("load resume %d: %w", resumeID, err)
	}

	client := l.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	doc, profile, printPage, err := preparePrint(ctx, log, client, l.BaseURL, l.InternalSecret, &row, correlationID)
	if err != nil {
		return export.Result{}, "", err
	}

	surface, closePage, err := l.Browser.OpenDocument(ctx, log, printPage.HTML)
	if err != nil {
		return export.Result{}, "", err
	}
	defer closePage()

	emitter := &FileEmitter{Dir: dir}
	result, err := l.Composer.Export(ctx, export.Job{
		Document: doc,
		Profile:  profile,
		Surface:  surface,
		FileName: resume.ExportFileName(doc.Title),
		Emitter:  emitter,
	})
	if err != nil {
		return export.Result{}, "", err
	}
	if len(printPage.MissingKeys) > 0 {
		log.Warn("pdf exported with missing assets", slog.Any("missing_keys", printPage.MissingKeys))
	}
	return result, emitter.Path, nil
}
