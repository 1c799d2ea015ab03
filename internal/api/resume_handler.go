package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"showcase/internal/api/middleware"
	"showcase/internal/database"
	"showcase/internal/resume"
	"showcase/internal/storage"
	"showcase/internal/tasks"
)

const (
	maxResumeBodyBytes = 1 << 20
	downloadLinkTTL    = 5 * time.Minute
)

// taskEnqueuer 是 asynq.Client 的最小子集。
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ResumeHandler 负责处理与简历相关的 API 请求。
type ResumeHandler struct {
	store   resumeStore
	queue   taskEnqueuer
	storage storage.ObjectStore
	// exportStaleAfter 之后的 exporting 标记不再阻止重新导出。
	exportStaleAfter time.Duration
	now              func() time.Time
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, queue taskEnqueuer, storageClient storage.ObjectStore, exportStaleAfter time.Duration) *ResumeHandler {
	return &ResumeHandler{
		store:            newGormResumeStore(db),
		queue:            queue,
		storage:          storageClient,
		exportStaleAfter: exportStaleAfter,
		now:              time.Now,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type resumePayload struct {
	Title    string          `json:"title"`
	Sections json.RawMessage `json:"sections"`
}

type resumeListItem struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	IsPublished  bool      `json:"is_published"`
	Views        int64     `json:"views"`
	ExportStatus string    `json:"export_status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type resumeResponse struct {
	ID           uint             `json:"id"`
	Title        string           `json:"title"`
	Sections     []resume.Section `json:"sections"`
	IsPublished  bool             `json:"is_published"`
	Views        int64            `json:"views"`
	ExportStatus string           `json:"export_status"`
	PdfFileName  string           `json:"pdf_file_name,omitempty"`
	ExportedAt   *time.Time       `json:"exported_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateResume 创建草稿；请求体可选，缺省为 "Untitled Resume" 与空 sections。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	row := database.Resume{
		Title:        resume.DefaultTitle,
		Sections:     datatypes.JSON("[]"),
		UserID:       userID,
		ExportStatus: database.ExportStatusIdle,
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxResumeBodyBytes))
	if err != nil {
		BadRequest(c, "failed to read body")
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		title, sections, err := parseResumePayload(raw)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		if title != "" {
			row.Title = title
		}
		row.Sections = sections
	}

	if err := h.store.Create(c.Request.Context(), &row); err != nil {
		middleware.LoggerFromContext(c).Error("create resume failed", slog.Any("error", err))
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(row))
}

// ListResumes 列出用户全部简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rows, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, resumeListItem{
			ID:           r.ID,
			Title:        r.Title,
			IsPublished:  r.IsPublished,
			Views:        r.Views,
			ExportStatus: r.ExportStatus,
			UpdatedAt:    r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume 返回指定 ID 的简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	row, ok := h.ownedResume(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(*row))
}

// UpdateResume 覆盖标题与 sections。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxResumeBodyBytes))
	if err != nil {
		BadRequest(c, "failed to read body")
		return
	}
	title, sections, err := parseResumePayload(raw)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	row, ok := h.ownedResume(c)
	if !ok {
		return
	}

	updates := map[string]any{
		"title":    title,
		"sections": sections,
	}
	if err := h.store.Update(c.Request.Context(), row, updates); err != nil {
		Internal(c, "failed to update resume")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*row))
}

// DeleteResume 删除简历及其全部导出文件。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	row, ok := h.ownedResume(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Delete(ctx, row.ID); err != nil {
		Internal(c, "failed to delete resume")
		return
	}
	if err := h.storage.DeletePrefix(ctx, storage.ExportPrefix(row.UserID, row.ID)); err != nil {
		middleware.LoggerFromContext(c).Warn("delete exported pdfs failed",
			slog.Uint64("resume_id", uint64(row.ID)),
			slog.Any("error", err),
		)
	}

	c.Status(http.StatusNoContent)
}

// PublishResume 让简历出现在公开页面。
func (h *ResumeHandler) PublishResume(c *gin.Context) {
	h.setPublished(c, true)
}

// UnpublishResume 撤下公开页面。
func (h *ResumeHandler) UnpublishResume(c *gin.Context) {
	h.setPublished(c, false)
}

func (h *ResumeHandler) setPublished(c *gin.Context, published bool) {
	row, ok := h.ownedResume(c)
	if !ok {
		return
	}
	if err := h.store.Update(c.Request.Context(), row, map[string]any{"is_published": published}); err != nil {
		Internal(c, "failed to update resume")
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(*row))
}

// ExportResume 将 PDF 导出任务入队并立即返回 202。
// 入队前先占用忙碌标记，重复请求在 Worker 接手之前也会得到 409。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	row, ok := h.ownedResume(c)
	if !ok {
		return
	}
	log := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewExportPDFTask(row.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	claimed, err := h.store.ClaimExport(ctx, row.ID, h.now(), h.exportStaleAfter)
	if err != nil {
		log.Error("claim export failed", slog.Any("error", err))
		Internal(c, "failed to start pdf export")
		return
	}
	if !claimed {
		Conflict(c, "export already in progress")
		return
	}
	if row.ExportStatus == database.ExportStatusExporting {
		log.Warn("reclaimed stale export flag",
			slog.Uint64("resume_id", uint64(row.ID)),
			slog.Any("export_started_at", row.ExportStartedAt),
		)
	}

	info, err := h.queue.Enqueue(task)
	if err != nil {
		log.Error("enqueue export failed", slog.Any("error", err))
		if releaseErr := h.store.ReleaseExport(context.WithoutCancel(ctx), row.ID); releaseErr != nil {
			log.Error("release export flag failed", slog.Any("error", releaseErr))
		}
		Internal(c, "failed to enqueue pdf export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":        "PDF export request accepted",
		"task_id":        info.ID,
		"correlation_id": correlationID,
	})
}

// GetDownloadLink 生成最近一次导出的预签名下载链接，下载文件名即导出文件名。
func (h *ResumeHandler) GetDownloadLink(c *gin.Context) {
	row, ok := h.ownedResume(c)
	if !ok {
		return
	}

	if row.PdfKey == "" {
		Conflict(c, "pdf not ready")
		return
	}

	fileName := row.PdfFileName
	if fileName == "" {
		fileName = resume.ExportFileName(row.Title)
	}
	signedURL, err := h.storage.GeneratePresignedURLWithParams(c.Request.Context(), row.PdfKey, downloadLinkTTL, storage.DownloadParams(fileName))
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL, "file_name": fileName})
}

// ownedResume 读取路径中的简历并校验归属；失败时已写好响应。
func (h *ResumeHandler) ownedResume(c *gin.Context) (*database.Resume, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	row, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidResumeID):
			BadRequest(c, "invalid resume id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "resume not found")
		default:
			Internal(c, "failed to query resume")
		}
		return nil, false
	}
	return row, true
}

func (h *ResumeHandler) getResumeForUser(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	resumeID, err := parseResumeID(idParam)
	if err != nil {
		return nil, err
	}
	return h.store.GetForUser(ctx, resumeID, userID)
}

func parseResumeID(idParam string) (uint, error) {
	id, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidResumeID
	}
	return uint(id), nil
}

// parseResumePayload 先做 schema 校验，再把 sections 归一化后重新编码。
func parseResumePayload(raw []byte) (string, datatypes.JSON, error) {
	if err := resume.ValidatePayload(raw); err != nil {
		return "", nil, err
	}
	var payload resumePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", nil, err
	}
	sections, err := resume.DecodeSections(payload.Sections)
	if err != nil {
		return "", nil, err
	}
	encoded, err := resume.EncodeSections(sections)
	if err != nil {
		return "", nil, err
	}
	return payload.Title, datatypes.JSON(encoded), nil
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

func newResumeResponse(row database.Resume) resumeResponse {
	sections, err := resume.DecodeSections(row.Sections)
	if err != nil || sections == nil {
		sections = []resume.Section{}
	}
	return resumeResponse{
		ID:           row.ID,
		Title:        row.Title,
		Sections:     sections,
		IsPublished:  row.IsPublished,
		Views:        row.Views,
		ExportStatus: row.ExportStatus,
		PdfFileName:  row.PdfFileName,
		ExportedAt:   row.ExportedAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
