package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"showcase/internal/database"
	"showcase/internal/errcode"
	"showcase/internal/export"
	"showcase/internal/metrics"
	"showcase/internal/resume"
	"showcase/internal/storage"
	"showcase/internal/tasks"
)

// PageOpener 打开打印页 HTML 并返回可供导出的页面。
type PageOpener interface {
	OpenDocument(ctx context.Context, logger *slog.Logger, html []byte) (export.Surface, func(), error)
}

// ExportTaskHandler 负责消费 PDF 导出任务。
type ExportTaskHandler struct {
	db                 *gorm.DB
	storage            storage.ObjectStore
	redisClient        redis.UniversalClient
	browser            PageOpener
	composer           *export.Composer
	logger             *slog.Logger
	httpClient         *http.Client
	internalSecret     string
	internalAPIBaseURL string
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	store storage.ObjectStore,
	redisClient redis.UniversalClient,
	browser PageOpener,
	composer *export.Composer,
	logger *slog.Logger,
	internalSecret string,
	internalAPIBaseURL string,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:                 db,
		storage:            store,
		redisClient:        redisClient,
		browser:            browser,
		composer:           composer,
		logger:             logger,
		httpClient:         &http.Client{Timeout: 15 * time.Second},
		internalSecret:     internalSecret,
		internalAPIBaseURL: strings.TrimRight(strings.TrimSpace(internalAPIBaseURL), "/"),
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	payload, err := tasks.ParseExportPDFPayload(t.Payload())
	if err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
	)
	log.Info("Starting PDF export task...")

	var row database.Resume
	if err := h.db.WithContext(ctx).Preload("User").First(&row, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(row.UserID)))
	started := time.Now()

	defer func() {
		if retErr == nil {
			return
		}
		metrics.ObserveExport(time.Since(started), 0, failureLabel(retErr))
		if !errors.Is(retErr, asynq.SkipRetry) && !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := tasks.ExportNotifyMessage{
			Status:        tasks.NotifyStatusError,
			ResumeID:      row.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     export.NumericCode(retErr),
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishExportNotify(context.WithoutCancel(ctx), h.redisClient, row.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	doc, profile, printPage, err := preparePrint(ctx, log, h.httpClient, h.internalAPIBaseURL, h.internalSecret, &row, payload.CorrelationID)
	if err != nil {
		return err
	}

	surface, closePage, err := h.browser.OpenDocument(ctx, log, printPage.HTML)
	if err != nil {
		log.Error("open print page failed", slog.Any("error", err))
		return err
	}
	defer closePage()

	fileName := resume.ExportFileName(doc.Title)
	objectKey := storage.ExportObjectKey(row.UserID, row.ID, fileName)
	result, err := h.composer.Export(ctx, export.Job{
		Document: doc,
		Profile:  profile,
		Surface:  surface,
		FileName: fileName,
		Emitter:  &objectEmitter{store: h.storage, key: objectKey},
		Busy:     &exportStatus{db: h.db, resumeID: row.ID},
	})
	if err != nil {
		log.Error("export pdf failed", slog.Any("error", err), slog.String("code", string(export.CodeOf(err))))
		if export.CodeOf(err) != "" {
			// 导出流程错误由用户重新触发，不自动重试。
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	now := time.Now()
	update := map[string]any{
		"pdf_key":       objectKey,
		"pdf_file_name": result.FileName,
		"exported_at":   &now,
	}
	if err := h.db.WithContext(ctx).Model(&row).Updates(update).Error; err != nil {
		log.Error("update resume failed", slog.Any("error", err))
		return err
	}
	if err := h.storage.PruneExcept(ctx, storage.ExportPrefix(row.UserID, row.ID), objectKey); err != nil {
		log.Warn("prune previous exports failed", slog.Any("error", err))
	}
	metrics.ObserveExport(time.Since(started), result.Pages, "")

	notify := tasks.ExportNotifyMessage{
		Status:        tasks.NotifyStatusCompleted,
		ResumeID:      row.ID,
		CorrelationID: payload.CorrelationID,
		FileName:      result.FileName,
		Pages:         result.Pages,
		ErrorCode:     errcode.OK,
	}
	if len(printPage.MissingKeys) > 0 {
		notify.ErrorCode = errcode.ResourceMissing
		notify.ErrorMessage = "部分图片资源缺失/无效，已自动跳过并继续导出"
		notify.MissingKeys = printPage.MissingKeys
		log.Warn("pdf exported with missing assets",
			slog.Int("missing_count", len(printPage.MissingKeys)),
			slog.Any("missing_keys", printPage.MissingKeys),
		)
	}
	if err := publishExportNotify(ctx, h.redisClient, row.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
	}

	log.Info("PDF export task completed successfully.",
		slog.String("object_key", objectKey),
		slog.Int("pages", result.Pages),
	)
	return nil
}

// preparePrint 解码简历并拉取打印页，让导出块与实际渲染的卡片保持一致。
func preparePrint(
	ctx context.Context,
	log *slog.Logger,
	client *http.Client,
	baseURL, secret string,
	row *database.Resume,
	correlationID string,
) (resume.Document, *resume.Profile, *PrintPage, error) {
	doc, err := row.Document()
	if err != nil {
		log.Error("decode resume failed", slog.Any("error", err))
		return resume.Document{}, nil, nil, fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	profile := row.User.Profile()

	printPage, err := FetchPrintPage(ctx, client, baseURL, row.ID, secret, correlationID)
	if err != nil {
		log.Error("fetch print page failed", slog.Any("error", err))
		return resume.Document{}, nil, nil, err
	}
	dropMissingPhoto(profile, printPage.MissingKeys)
	checkInventory(log, resume.DeriveBlocks(doc, profile), printPage.BlockKeys)
	return doc, profile, printPage, nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

// dropMissingPhoto 与打印页保持一致：头像未能内联时按无头像处理。
func dropMissingPhoto(profile *resume.Profile, missingKeys []string) {
	if profile == nil || profile.PhotoURL == "" {
		return
	}
	if slices.Contains(missingKeys, profile.PhotoURL) {
		profile.PhotoURL = ""
	}
}

// checkInventory 记录导出块与打印页卡片不一致的情况；缺失的块会在导出时报 EmptyElement。
func checkInventory(log *slog.Logger, blocks []resume.ContentBlock, pageKeys []string) {
	var missing []string
	for _, b := range blocks {
		if !slices.Contains(pageKeys, b.Key) {
			missing = append(missing, b.Key)
		}
	}
	if len(missing) > 0 {
		log.Warn("print page lacks export blocks",
			slog.Any("missing_blocks", missing),
			slog.Any("page_blocks", pageKeys),
		)
	}
}

func failureLabel(err error) string {
	if code := export.CodeOf(err); code != "" {
		return string(code)
	}
	return "SYSTEM"
}
