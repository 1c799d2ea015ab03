package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"showcase/internal/api/middleware"
	"showcase/internal/database"
	"showcase/internal/resume"
	"showcase/internal/storage"
)

const (
	maxPhotoBytes   = 5 << 20
	photoURLTTL     = 15 * time.Minute
	maxProfileField = 255
	// maxPhotoUploadsPerDay 限制单个用户每天的头像上传次数。
	maxPhotoUploadsPerDay = 20
)

var photoExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// ProfileHandler 负责用户公开资料与头像。
type ProfileHandler struct {
	db      *gorm.DB
	storage storage.ObjectStore
	scanner virusScanner
	// counter 为 nil 时不限制上传次数。
	counter redisRateCounter
}

// NewProfileHandler 构造 ProfileHandler。
func NewProfileHandler(db *gorm.DB, storageClient storage.ObjectStore, redisClient redis.UniversalClient, clamdAddr string) *ProfileHandler {
	return &ProfileHandler{
		db:      db,
		storage: storageClient,
		scanner: newClamdScanner(clamdAddr),
		counter: redisClient,
	}
}

type profileResponse struct {
	resume.Profile
	PhotoKey string `json:"photoKey,omitempty"`
}

// GetProfile 返回当前用户资料，头像以短期预签名链接返回。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.newProfileResponse(c, user))
}

// UpdateProfile 覆盖资料字段；头像只能通过上传接口修改。
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req resume.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	fields := map[string]string{
		"name":      req.Name,
		"last_name": req.LastName,
		"email":     req.Email,
		"phone":     req.Phone,
		"linked_in": req.LinkedIn,
		"git_hub":   req.GitHub,
		"portfolio": req.Portfolio,
		"city":      req.City,
		"country":   req.Country,
	}
	updates := make(map[string]any, len(fields))
	for column, value := range fields {
		value = strings.TrimSpace(value)
		if len(value) > maxProfileField {
			BadRequest(c, column+" is too long")
			return
		}
		updates[column] = value
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		Internal(c, "failed to update profile")
		return
	}
	if err := h.db.WithContext(ctx).First(user, user.ID).Error; err != nil {
		Internal(c, "failed to reload profile")
		return
	}

	c.JSON(http.StatusOK, h.newProfileResponse(c, user))
}

// UploadPhoto 扫描病毒后保存头像，并删除旧头像。
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	log := middleware.LoggerFromContext(c)

	if h.counter != nil {
		count, err := incrWithTTL(c.Request.Context(), h.counter, uploadCounterKey(user.ID, time.Now()), 24*time.Hour)
		if err != nil {
			log.Error("count photo uploads", slog.Any("error", err))
			Internal(c, "failed to check upload quota")
			return
		}
		if count > maxPhotoUploadsPerDay {
			Error(c, http.StatusTooManyRequests, "daily upload limit reached")
			return
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size <= 0 || file.Size > maxPhotoBytes {
		Error(c, http.StatusRequestEntityTooLarge, "photo must be between 1 byte and 5MB")
		return
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(io.LimitReader(reader, maxPhotoBytes+1))
	reader.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}

	contentType := http.DetectContentType(data)
	ext, allowed := photoExtensions[contentType]
	if !allowed {
		Error(c, http.StatusUnsupportedMediaType, "photo must be png, jpeg or webp")
		return
	}

	if err := h.scanner.Scan(bytes.NewReader(data)); err != nil {
		if errors.Is(err, errMaliciousFile) {
			log.Warn("photo upload rejected", slog.Any("error", err))
			BadRequest(c, "malicious file detected")
			return
		}
		log.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return
	}

	ctx := c.Request.Context()
	objectKey := storage.PhotoObjectKey(user.ID, ext)
	if _, err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		log.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	previous := user.PhotoKey
	if err := h.db.WithContext(ctx).Model(user).Update("photo_key", objectKey).Error; err != nil {
		_ = h.storage.DeleteObject(ctx, objectKey)
		Internal(c, "failed to update profile")
		return
	}
	user.PhotoKey = objectKey
	if previous != "" && previous != objectKey {
		if err := h.storage.DeleteObject(ctx, previous); err != nil {
			log.Warn("delete previous photo failed", slog.String("object_key", previous), slog.Any("error", err))
		}
	}

	c.JSON(http.StatusCreated, h.newProfileResponse(c, user))
}

func (h *ProfileHandler) currentUser(c *gin.Context) (*database.User, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}
	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "user not found")
		} else {
			Internal(c, "failed to load profile")
		}
		return nil, false
	}
	return &user, true
}

func (h *ProfileHandler) newProfileResponse(c *gin.Context, user *database.User) profileResponse {
	profile := user.Profile()
	resp := profileResponse{Profile: *profile, PhotoKey: user.PhotoKey}
	resp.PhotoURL = ""
	if user.PhotoKey != "" {
		url, err := h.storage.GeneratePresignedURLWithParams(c.Request.Context(), user.PhotoKey, photoURLTTL, nil)
		if err != nil {
			middleware.LoggerFromContext(c).Warn("presign photo failed", slog.Any("error", err))
		} else {
			resp.PhotoURL = url
		}
	}
	return resp
}
