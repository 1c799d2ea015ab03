package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"showcase/internal/api/middleware"
	"showcase/internal/database"
	"showcase/internal/errcode"
	"showcase/internal/render"
	"showcase/internal/resume"
	"showcase/internal/storage"
)

// maxInlinePhotoBytes 限制内联到打印页的头像大小。
const maxInlinePhotoBytes = 5 << 20

// PrintHandler 输出 Worker 截图用的打印页，只能通过内部密钥访问。
type PrintHandler struct {
	store   resumeStore
	storage storage.ObjectStore
}

// NewPrintHandler 构造 PrintHandler。
func NewPrintHandler(db *gorm.DB, storageClient storage.ObjectStore) *PrintHandler {
	return &PrintHandler{
		store:   newGormResumeStore(db),
		storage: storageClient,
	}
}

// GetPrintPage 渲染打印页：头像以 data URI 内联，缺失的对象 key 通过响应头告知 Worker。
func (h *PrintHandler) GetPrintPage(c *gin.Context) {
	log := middleware.LoggerFromContext(c)

	resumeID, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	ctx := c.Request.Context()
	row, err := h.store.GetWithOwner(ctx, resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return
		}
		Internal(c, "failed to load resume")
		return
	}

	doc, err := row.Document()
	if err != nil {
		Internal(c, "failed to decode resume")
		return
	}

	profile, missing, err := inlineProfilePhoto(ctx, h.storage, &row.User)
	if err != nil {
		log.Error("inline profile photo failed", slog.Any("error", err))
		Internal(c, "failed to load profile photo")
		return
	}
	if len(missing) > 0 {
		log.Warn("print page rendered without assets",
			slog.Int("code", errcode.ResourceMissing),
			slog.Any("missing_keys", missing),
		)
		c.Header(render.MissingKeysHeader, strings.Join(missing, ","))
	}

	var buf bytes.Buffer
	err = render.Render(&buf, render.Page{
		Title:    doc.DisplayTitle(),
		Profile:  profile,
		Sections: doc.Sections,
		Mode:     render.ModePrint,
	})
	if err != nil {
		log.Error("render print page failed", slog.Any("error", err))
		Internal(c, "failed to render print page")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// inlineProfilePhoto 把头像对象读成 data URI。
// 约定：
// - 对象不存在(NoSuchKey) => 不渲染头像，返回缺失 key（4004）
// - Bucket 不存在(NoSuchBucket) 或其它读取错误 => 系统错误
func inlineProfilePhoto(ctx context.Context, store storage.ObjectStore, user *database.User) (*resume.Profile, []string, error) {
	profile := user.Profile()
	key := strings.TrimSpace(user.PhotoKey)
	profile.PhotoURL = ""
	if key == "" {
		return profile, nil, nil
	}
	if !isValidPhotoKey(user.ID, key) {
		return profile, []string{key}, nil
	}

	data, err := store.ReadObject(ctx, key, maxInlinePhotoBytes)
	if err != nil {
		if storage.IsNoSuchBucket(err) {
			return nil, nil, fmt.Errorf("minio bucket does not exist: %w", err)
		}
		if storage.IsNoSuchKey(err) {
			return profile, []string{key}, nil
		}
		return nil, nil, fmt.Errorf("read photo %s: %w", key, err)
	}

	contentType := http.DetectContentType(data)
	if _, ok := photoExtensions[contentType]; !ok {
		return profile, []string{key}, nil
	}
	profile.PhotoURL = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	return profile, nil, nil
}

func isValidPhotoKey(userID uint, key string) bool {
	if !strings.HasPrefix(key, storage.PhotoPrefix(userID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	return len(key) <= 200
}
