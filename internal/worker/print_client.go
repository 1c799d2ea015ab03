package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"showcase/internal/render"
)

const resumePrintPath = "internal/v1/resumes"

// maxPrintPageBytes 限制打印页大小（头像以 data URI 内联）。
const maxPrintPageBytes = 32 << 20

// PrintPage 是内部打印接口返回的页面及其资源告警。
type PrintPage struct {
	HTML        []byte
	MissingKeys []string
	BlockKeys   []string
}

// FetchPrintPage 从后端内部打印接口拉取服务端渲染的 showcase 页面。
// 只允许 Worker 通过 Header 携带 INTERNAL_API_SECRET 访问。
func FetchPrintPage(ctx context.Context, client *http.Client, baseURL string, resumeID uint, secret, correlationID string) (*PrintPage, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("internal api secret missing")
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("internal api base url missing")
	}

	targetURL := fmt.Sprintf("%s/%s/%d/print", baseURL, resumePrintPath, resumeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build internal request: %w", err)
	}
	req.Header.Set("X-Internal-Secret", secret)
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request print page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, fmt.Errorf("print page status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, maxPrintPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read print page: %w", err)
	}
	keys, err := render.Inventory(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	return &PrintPage{
		HTML:        html,
		MissingKeys: splitKeys(resp.Header.Get(render.MissingKeysHeader)),
		BlockKeys:   keys,
	}, nil
}

func splitKeys(raw string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		key := strings.TrimSpace(part)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
