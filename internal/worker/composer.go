package worker

import (
	"log/slog"
	"strings"

	"showcase/internal/config"
	"showcase/internal/export"
	"showcase/internal/pdf"
	"showcase/internal/storage"
)

// PageSpec 把导出配置转换为页面几何。
func PageSpec(cfg config.ExportConfig) export.PageSpec {
	return export.PageSpec{
		Width:        cfg.PageWidth,
		Height:       cfg.PageHeight,
		MarginTop:    cfg.MarginTop,
		MarginBottom: cfg.MarginBottom,
		MarginLeft:   cfg.MarginLeft,
		MarginRight:  cfg.MarginRight,
		Gap:          cfg.BlockGap,
	}
}

// NewComposer 按配置组装导出流水线；配置了背景 key 时每页绘制背景。
// 背景存在时卡片以透明底截图，避免遮住背景。
func NewComposer(cfg config.ExportConfig, store storage.ObjectStore, logger *slog.Logger) (*export.Composer, error) {
	backgroundKey := strings.TrimSpace(cfg.BackgroundKey)
	rasterizer, err := export.NewRasterizer(cfg.RenderScale, backgroundKey != "")
	if err != nil {
		return nil, err
	}

	opts := []export.Option{
		export.WithSettleDelay(cfg.SettleDelay),
		export.WithLogger(logger),
	}
	if backgroundKey != "" && store != nil {
		opts = append(opts, export.WithBackground(ObjectBackground{Store: store, Key: backgroundKey}))
	}
	return export.NewComposer(PageSpec(cfg), rasterizer, pdf.NewCanvas, opts...)
}
