package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"showcase/internal/config"
	"showcase/internal/export"
	"showcase/internal/render"
)

// 打印页视口：宽于 A4 的 794px，避免响应式布局把卡片挤窄。
const (
	viewportWidth  = 1280
	viewportHeight = 900
)

// Browser 持有一个长期运行的无头 Chromium，每个任务打开独立的标签页。
type Browser struct {
	launch  *launcher.Launcher
	browser *rod.Browser
	timeout time.Duration
}

// LaunchBrowser 启动 Chromium 并建立 CDP 连接。
func LaunchBrowser(cfg config.WorkerConfig) (_ *Browser, err error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer func() {
		if err != nil {
			launch.Cleanup()
		}
	}()

	if bin := strings.TrimSpace(cfg.BrowserBin); bin != "" {
		launch = launch.Bin(bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	timeout := cfg.BrowserTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &Browser{launch: launch, browser: browser, timeout: timeout}, nil
}

// Close 关闭浏览器并清理临时用户目录。
func (b *Browser) Close() {
	_ = b.browser.Close()
	b.launch.Cleanup()
}

// OpenDocument 在新标签页中载入打印页 HTML，等待渲染与字体就绪，返回可供导出的页面。
func (b *Browser) OpenDocument(ctx context.Context, logger *slog.Logger, html []byte) (_ export.Surface, cleanup func(), err error) {
	cleanup = func() {}

	page, err := b.browser.Context(ctx).Timeout(b.timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, cleanup, fmt.Errorf("create page: %w", err)
	}
	cleanup = func() {
		_ = page.Close()
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}).Call(page); err != nil {
		return nil, cleanup, fmt.Errorf("set viewport: %w", err)
	}

	logger.Info("Worker: Loading showcase print page...", slog.Int("bytes", len(html)))
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, cleanup, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, cleanup, fmt.Errorf("wait load: %w", err)
	}
	if _, err := page.Timeout(30 * time.Second).Element(render.ReadySelector); err != nil {
		return nil, cleanup, fmt.Errorf("wait render signal %s: %w", render.ReadySelector, err)
	}

	// 额外等待 WebFont/系统字体就绪，避免回退字体度量导致排版差异
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		logger.Warn("Worker: document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	if err := page.WaitIdle(10 * time.Second); err != nil {
		logger.Warn("Worker: page did not become idle, continue", slog.Any("error", err))
	}
	return newPageSurface(page), cleanup, nil
}

func float64Ptr(value float64) *float64 {
	return &value
}
