package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ObjectStore 是 API 与 Worker 实际用到的存储能力，测试里用内存实现替换。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	ReadObject(ctx context.Context, objectKey string, maxBytes int64) ([]byte, error)
	GeneratePresignedURLWithParams(ctx context.Context, objectKey string, duration time.Duration, params map[string]string) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
	DeletePrefix(ctx context.Context, prefix string) error
	PruneExcept(ctx context.Context, prefix, keep string) error
}

var _ ObjectStore = (*Client)(nil)

// ExportPrefix 是某份简历所有导出文件的公共前缀。
func ExportPrefix(userID, resumeID uint) string {
	return fmt.Sprintf("exports/%d/%d/", userID, resumeID)
}

// ExportObjectKey 为一次导出生成唯一的对象 key，文件名保留在末尾便于排查。
func ExportObjectKey(userID, resumeID uint, fileName string) string {
	return ExportPrefix(userID, resumeID) + uuid.NewString() + "/" + path.Base(fileName)
}

// PhotoPrefix 是用户头像的公共前缀。
func PhotoPrefix(userID uint) string {
	return fmt.Sprintf("profile-photos/%d/", userID)
}

// PhotoObjectKey 生成新的头像对象 key。
func PhotoObjectKey(userID uint, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s%s.%s", PhotoPrefix(userID), uuid.NewString(), ext)
}

// DownloadParams 让预签名链接以附件形式下载，并带上导出的文件名。
func DownloadParams(fileName string) map[string]string {
	return map[string]string{
		"response-content-disposition": mime.FormatMediaType("attachment", map[string]string{"filename": fileName}),
		"response-content-type":        "application/pdf",
	}
}
