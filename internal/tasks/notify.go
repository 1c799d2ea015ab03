package tasks

import "fmt"

// 导出结果状态
const (
	NotifyStatusCompleted = "completed"
	NotifyStatusError     = "error"
)

// ExportNotifyMessage 是统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。
type ExportNotifyMessage struct {
	Status        string   `json:"status"`
	ResumeID      uint     `json:"resume_id"`
	CorrelationID string   `json:"correlation_id"`
	FileName      string   `json:"file_name,omitempty"`
	Pages         int      `json:"pages,omitempty"`
	ErrorCode     int      `json:"error_code"`
	ErrorMessage  string   `json:"error_message"`
	MissingKeys   []string `json:"missing_keys,omitempty"`
}

// NotifyChannel 返回用户的通知频道名，Worker 发布、API 的 WebSocket 端订阅。
func NotifyChannel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}
