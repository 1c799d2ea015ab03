package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"showcase/internal/api/middleware"
	"showcase/internal/database"
	"showcase/internal/metrics"
	"showcase/internal/render"
	"showcase/internal/resume"
	"showcase/internal/storage"
)

const publicAssetTTL = time.Hour

// PublicHandler 提供已发布简历的公开页面与 JSON，并统计浏览量。
type PublicHandler struct {
	store         resumeStore
	storage       storage.ObjectStore
	views         viewDeduper
	backgroundKey string
	now           func() time.Time
}

// NewPublicHandler 构造 PublicHandler；views 为 nil 时不统计浏览量。
func NewPublicHandler(db *gorm.DB, storageClient storage.ObjectStore, views viewDeduper, backgroundKey string) *PublicHandler {
	return &PublicHandler{
		store:         newGormResumeStore(db),
		storage:       storageClient,
		views:         views,
		backgroundKey: strings.TrimSpace(backgroundKey),
		now:           time.Now,
	}
}

type publicResumeResponse struct {
	ID        uint             `json:"id"`
	Title     string           `json:"title"`
	Sections  []resume.Section `json:"sections"`
	Profile   *resume.Profile  `json:"profile,omitempty"`
	Views     int64            `json:"views"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// GetPublicResume 返回公开简历 JSON。
func (h *PublicHandler) GetPublicResume(c *gin.Context) {
	row, doc, ok := h.visibleResume(c)
	if !ok {
		return
	}
	views := h.countView(c, row)

	sections := doc.Sections
	if sections == nil {
		sections = []resume.Section{}
	}
	resp := publicResumeResponse{
		ID:        row.ID,
		Title:     doc.DisplayTitle(),
		Sections:  sections,
		Views:     views,
		UpdatedAt: row.UpdatedAt,
	}
	if profile := h.publicProfile(c, &row.User); profile.Present() {
		resp.Profile = profile
	}
	c.JSON(http.StatusOK, resp)
}

// GetPublicPage 渲染公开 HTML 页面；所有者可见导出按钮。
func (h *PublicHandler) GetPublicPage(c *gin.Context) {
	row, doc, ok := h.visibleResume(c)
	if !ok {
		return
	}
	views := h.countView(c, row)

	page := render.Page{
		Title:    doc.DisplayTitle(),
		Profile:  h.publicProfile(c, &row.User),
		Sections: doc.Sections,
		Mode:     render.ModePublic,
		Views:    views,
	}
	if viewer, ok := userIDFromContext(c); ok && viewer == row.UserID {
		page.ExportURL = fmt.Sprintf("/v1/resumes/%d/export", row.ID)
	}
	if h.backgroundKey != "" {
		page.BackgroundURL = h.presign(c, h.backgroundKey)
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, page); err != nil {
		middleware.LoggerFromContext(c).Error("render public page failed", slog.Any("error", err))
		Internal(c, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// visibleResume 只放行已发布的简历；所有者可以预览未发布的简历。
func (h *PublicHandler) visibleResume(c *gin.Context) (*database.Resume, resume.Document, bool) {
	resumeID, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return nil, resume.Document{}, false
	}

	row, err := h.store.GetWithOwner(c.Request.Context(), resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
		} else {
			Internal(c, "failed to load resume")
		}
		return nil, resume.Document{}, false
	}

	viewer, _ := userIDFromContext(c)
	if !row.IsPublished && viewer != row.UserID {
		Forbidden(c, "resume not published")
		return nil, resume.Document{}, false
	}

	doc, err := row.Document()
	if err != nil {
		Internal(c, "failed to decode resume")
		return nil, resume.Document{}, false
	}
	return row, doc, true
}

// countView 按访客去重后原子自增浏览量；所有者的浏览不计数。统计失败不影响页面。
func (h *PublicHandler) countView(c *gin.Context, row *database.Resume) int64 {
	viewer, _ := userIDFromContext(c)
	if h.views == nil || viewer == row.UserID {
		return row.Views
	}
	log := middleware.LoggerFromContext(c)

	ctx := context.WithoutCancel(c.Request.Context())
	first, err := claimView(ctx, h.views, row.ID, viewer, h.now())
	if err != nil {
		log.Warn("dedupe resume view failed", slog.Any("error", err))
		return row.Views
	}
	if !first {
		return row.Views
	}

	views, err := h.store.IncrementViews(ctx, row.ID)
	if err != nil {
		log.Warn("increment resume views failed", slog.Any("error", err))
		return row.Views
	}
	metrics.CountResumeView()
	return views
}

func (h *PublicHandler) publicProfile(c *gin.Context, user *database.User) *resume.Profile {
	profile := user.Profile()
	profile.PhotoURL = ""
	if user.PhotoKey != "" {
		profile.PhotoURL = h.presign(c, user.PhotoKey)
	}
	return profile
}

func (h *PublicHandler) presign(c *gin.Context, key string) string {
	url, err := h.storage.GeneratePresignedURLWithParams(c.Request.Context(), key, publicAssetTTL, nil)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("presign asset failed", slog.String("object_key", key), slog.Any("error", err))
		return ""
	}
	return url
}
