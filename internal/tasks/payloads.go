package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportPDF = "export:pdf"
)

// ExportMaxRetry 之后的失败会通过 WebSocket 通知用户手动重试。
const ExportMaxRetry = 3

// ExportTimeout 限制单次导出尝试的时长，需小于 API 判定忙碌标记过期的窗口。
const ExportTimeout = 5 * time.Minute

// ExportPDFPayload 描述导出 PDF 所需的最小信息。
type ExportPDFPayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportPDFTask 构造一个新的简历导出任务。
func NewExportPDFTask(resumeID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportPDFPayload{
		ResumeID:      resumeID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportPDF, payload,
		asynq.MaxRetry(ExportMaxRetry),
		asynq.Timeout(ExportTimeout),
	), nil
}

// ParseExportPDFPayload 解析并校验任务载荷。
func ParseExportPDFPayload(raw []byte) (ExportPDFPayload, error) {
	var payload ExportPDFPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("unmarshal export payload: %w", err)
	}
	if payload.ResumeID == 0 {
		return payload, fmt.Errorf("export payload missing resume_id")
	}
	return payload, nil
}
