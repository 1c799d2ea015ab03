package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"showcase/internal/resume"
)

// State 是一次导出中 Composer 所处的阶段。
type State string

const (
	StateIdle       State = "idle"
	StateCloning    State = "cloning"
	StateSanitizing State = "sanitizing"
	StateRasterize  State = "rasterize"
	StatePlace      State = "place"
	StateOverlay    State = "overlay"
	StateFinalize   State = "finalize"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// documentInfo 由支持文档元信息的画布实现。
type documentInfo interface {
	SetInfo(title, author string)
}

// Job 是一次导出的输入，Document 与 Profile 已由调用方解析好。
type Job struct {
	Document resume.Document
	Profile  *resume.Profile
	Surface  Surface
	// FileName 缺省为 resume.ExportFileName(Document.Title)。
	FileName string
	Emitter  Emitter
	// Busy 可选。
	Busy BusyIndicator
}

// Result 描述已交付的文件。
type Result struct {
	FileName string
	Pages    int
	Blocks   int
	Links    int
	Bytes    int
}

// Composer 执行导出流水线：克隆、清理、逐块截图、分页、叠加链接、交付。
// 各次导出互不影响，同一个 Composer 可在多个 goroutine 间共享。
type Composer struct {
	spec       PageSpec
	rasterizer Rasterizer
	settle     time.Duration
	newCanvas  CanvasFactory
	background BackgroundLoader
	logger     *slog.Logger
	wait       func(ctx context.Context, d time.Duration) error
	observe    func(State)
}

// Option 定制 Composer。
type Option func(*Composer)

// WithSettleDelay 设置克隆挂载后到第一次截图之间的等待。
func WithSettleDelay(d time.Duration) Option {
	return func(c *Composer) { c.settle = d }
}

// WithBackground 在每一页绘制 loader 提供的背景图。
func WithBackground(loader BackgroundLoader) Option {
	return func(c *Composer) { c.background = loader }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStateObserver 在每次状态切换时回调。
func WithStateObserver(fn func(State)) Option {
	return func(c *Composer) { c.observe = fn }
}

// NewComposer 预先校验页面几何。
func NewComposer(spec PageSpec, rasterizer Rasterizer, newCanvas CanvasFactory, opts ...Option) (*Composer, error) {
	if spec.ContentWidth() <= 0 || spec.UsableHeight() <= 0 {
		return nil, newError(CodeInvalidBasis, nil, "page %vx%v leaves no content area", spec.Width, spec.Height)
	}
	if newCanvas == nil {
		return nil, errors.New("canvas factory is required")
	}
	c := &Composer{
		spec:       spec,
		rasterizer: rasterizer,
		newCanvas:  newCanvas,
		logger:     slog.Default(),
		wait:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Export 为 job 生成分页文件并交给 job.Emitter。
// 失败时不交付任何内容；无论从哪条路径返回，克隆与忙碌指示都恰好释放一次。
func (c *Composer) Export(ctx context.Context, job Job) (_ Result, retErr error) {
	if job.Surface == nil || job.Emitter == nil {
		return Result{}, errors.New("export job needs a surface and an emitter")
	}
	fileName := job.FileName
	if fileName == "" {
		fileName = resume.ExportFileName(job.Document.Title)
	}
	log := c.logger.With(slog.String("file_name", fileName))
	started := time.Now()

	c.enter(log, StateIdle)
	guard := &Guard{}
	defer func() {
		if err := guard.Release(ctx); err != nil {
			log.Warn("export cleanup failed", slog.Any("error", err))
		}
		if retErr != nil {
			c.enter(log, StateFailed)
		}
	}()

	if job.Busy != nil {
		if err := job.Busy.Begin(ctx); err != nil {
			return Result{}, fmt.Errorf("mark export busy: %w", err)
		}
		guard.Defer(job.Busy.End)
	}

	c.enter(log, StateCloning)
	region, err := job.Surface.Clone(ctx, c.spec.PixelWidth())
	if err != nil {
		return Result{}, fmt.Errorf("clone export region: %w", err)
	}
	guard.Defer(region.Detach)

	c.enter(log, StateSanitizing)
	if err := region.Sanitize(ctx); err != nil {
		return Result{}, fmt.Errorf("sanitize export region: %w", err)
	}
	if err := c.wait(ctx, c.settle); err != nil {
		return Result{}, fmt.Errorf("wait for layout: %w", err)
	}

	canvas := c.newCanvas(c.spec)
	if info, ok := canvas.(documentInfo); ok {
		author := ""
		if job.Profile != nil {
			author = job.Profile.FullName()
		}
		info.SetInfo(job.Document.DisplayTitle(), author)
	}
	hasBackground, err := c.loadBackground(ctx, canvas)
	if err != nil {
		return Result{}, err
	}
	if err := c.openPage(canvas, hasBackground); err != nil {
		return Result{}, err
	}

	blocks := resume.DeriveBlocks(job.Document, job.Profile)
	packer := NewPacker(c.spec)
	contentWidth := c.spec.ContentWidth()
	links := 0

	for _, block := range blocks {
		blockLog := log.With(slog.String("block", block.Key))

		c.enter(blockLog, StateRasterize)
		el, err := region.Block(ctx, block.Key)
		if err != nil {
			return Result{}, newError(CodeEmptyElement, err, "locate block %q", block.Key)
		}
		bmp, box, err := c.rasterizer.Rasterize(ctx, el)
		if err != nil {
			return Result{}, fmt.Errorf("rasterize block %q: %w", block.Key, err)
		}
		height, err := ToOutputUnits(float64(bmp.PixelHeight), float64(bmp.PixelWidth), contentWidth)
		if err != nil {
			return Result{}, err
		}

		c.enter(blockLog, StatePlace)
		placed := packer.Place(height)
		if placed.NewPage {
			if err := c.openPage(canvas, hasBackground); err != nil {
				return Result{}, err
			}
		}
		if err := canvas.DrawImage(bmp, c.spec.MarginLeft, placed.Y, contentWidth, height); err != nil {
			return Result{}, fmt.Errorf("draw block %q: %w", block.Key, err)
		}

		c.enter(blockLog, StateOverlay)
		anchors, err := el.Anchors(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("read links of block %q: %w", block.Key, err)
		}
		rects, err := CollectLinks(anchors, box, contentWidth, c.spec.MarginLeft, placed.Y)
		if err != nil {
			return Result{}, err
		}
		for _, rect := range rects {
			if err := canvas.AddLink(rect); err != nil {
				return Result{}, fmt.Errorf("add link %q: %w", rect.URL, err)
			}
		}
		links += len(rects)
	}

	c.enter(log, StateFinalize)
	var buf bytes.Buffer
	if err := canvas.Output(&buf); err != nil {
		return Result{}, newError(CodeEmission, err, "serialize document")
	}
	if err := job.Emitter.Emit(ctx, fileName, buf.Bytes()); err != nil {
		return Result{}, newError(CodeEmission, err, "emit %s", fileName)
	}

	result := Result{
		FileName: fileName,
		Pages:    canvas.PageCount(),
		Blocks:   len(blocks),
		Links:    links,
		Bytes:    buf.Len(),
	}
	c.enter(log, StateDone)
	log.Info("export completed",
		slog.Int("pages", result.Pages),
		slog.Int("blocks", result.Blocks),
		slog.Int("links", result.Links),
		slog.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (c *Composer) loadBackground(ctx context.Context, canvas Canvas) (bool, error) {
	if c.background == nil {
		return false, nil
	}
	data, err := c.background.LoadBackground(ctx)
	if err != nil {
		return false, newError(CodeBackgroundLoadFailed, err, "load background")
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := canvas.SetBackground(data); err != nil {
		return false, newError(CodeBackgroundLoadFailed, err, "decode background")
	}
	return true, nil
}

func (c *Composer) openPage(canvas Canvas, background bool) error {
	if err := canvas.AddPage(); err != nil {
		return fmt.Errorf("add page: %w", err)
	}
	if !background {
		return nil
	}
	if err := canvas.DrawBackground(); err != nil {
		return newError(CodeBackgroundLoadFailed, err, "draw background")
	}
	return nil
}

func (c *Composer) enter(log *slog.Logger, s State) {
	log.Debug("export state", slog.String("state", string(s)))
	if c.observe != nil {
		c.observe(s)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
