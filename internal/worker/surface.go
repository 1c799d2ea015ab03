package worker

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"showcase/internal/export"
	"showcase/internal/render"
)

// cloneAttr 标记离屏克隆的宿主节点。
const cloneAttr = "data-export-clone"

// linkProtocols 是 PDF 链接注释可以打开的协议。
var linkProtocols = []string{"http:", "https:", "mailto:", "tel:"}

// pageSurface 把已载入的 showcase 页面适配为 export.Surface。
type pageSurface struct {
	page *rod.Page
}

func newPageSurface(page *rod.Page) *pageSurface {
	return &pageSurface{page: page}
}

// Clone 深拷贝导出区域，挂到文档底部之外的绝对定位宿主上。
// 宿主仍在文档流中参与布局，截图时依靠 captureBeyondViewport 取到它。
func (s *pageSurface) Clone(ctx context.Context, widthPx int) (export.Region, error) {
	id := uuid.NewString()
	_, err := s.page.Context(ctx).Eval(`(selector, attr, id, width) => {
	  const source = document.querySelector(selector);
	  if (!source) {
	    throw new Error('export region ' + selector + ' not found');
	  }
	  const host = document.createElement('div');
	  host.setAttribute(attr, id);
	  host.setAttribute('aria-hidden', 'true');
	  const top = Math.max(document.documentElement.scrollHeight, document.body.scrollHeight) + 10000;
	  Object.assign(host.style, {
	    position: 'absolute',
	    left: '0px',
	    top: top + 'px',
	    width: width + 'px',
	    background: 'transparent',
	    pointerEvents: 'none',
	  });
	  host.appendChild(source.cloneNode(true));
	  document.body.appendChild(host);
	  return true;
	}`, render.RegionSelector, cloneAttr, id, widthPx)
	if err != nil {
		return nil, fmt.Errorf("clone export region: %w", err)
	}
	return &pageRegion{page: s.page, root: fmt.Sprintf(`[%s=%q]`, cloneAttr, id)}, nil
}

type pageRegion struct {
	page *rod.Page
	root string
}

func (r *pageRegion) Sanitize(ctx context.Context) error {
	_, err := r.page.Context(ctx).Eval(`(root, selector) => {
	  const host = document.querySelector(root);
	  if (!host) {
	    throw new Error('export clone missing');
	  }
	  host.querySelectorAll(selector).forEach((node) => node.remove());
	  return true;
	}`, r.root, render.SanitizeSelector)
	if err != nil {
		return fmt.Errorf("sanitize clone: %w", err)
	}
	return nil
}

func (r *pageRegion) Block(ctx context.Context, key string) (export.Element, error) {
	selector := r.root + " " + render.BlockSelector(key)
	has, el, err := r.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("no element matches %s", selector)
	}
	return &pageElement{page: r.page, el: el}, nil
}

func (r *pageRegion) Detach(ctx context.Context) error {
	_, err := r.page.Context(ctx).Eval(`(root) => {
	  document.querySelectorAll(root).forEach((node) => node.remove());
	  return true;
	}`, r.root)
	if err != nil {
		return fmt.Errorf("detach clone: %w", err)
	}
	return nil
}

type pageElement struct {
	page *rod.Page
	el   *rod.Element
}

// Box 返回元素在文档坐标系（CSS 像素）中的边框盒。
func (e *pageElement) Box(ctx context.Context) (export.Rect, error) {
	res, err := e.el.Context(ctx).Eval(`function () {
	  const r = this.getBoundingClientRect();
	  return { x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height };
	}`)
	if err != nil {
		return export.Rect{}, fmt.Errorf("measure element: %w", err)
	}
	var box export.Rect
	if err := res.Value.Unmarshal(&box); err != nil {
		return export.Rect{}, fmt.Errorf("decode element box: %w", err)
	}
	return box, nil
}

func (e *pageElement) Capture(ctx context.Context, opts export.CaptureOptions) (_ []byte, err error) {
	box, err := e.Box(ctx)
	if err != nil {
		return nil, err
	}
	page := e.page.Context(ctx)

	if opts.Transparent {
		if err := setTransparent(page, true); err != nil {
			return nil, err
		}
		defer func() {
			if resetErr := setTransparent(page, false); resetErr != nil && err == nil {
				err = resetErr
			}
		}()
	}

	return page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  opts.Scale,
		},
		CaptureBeyondViewport: true,
	})
}

// Anchors 读取元素内全部超链接，href 为浏览器解析后的绝对地址。
// 页面以 about:blank 载入，相对地址与锚点解析不出可用目标，一律丢弃。
func (e *pageElement) Anchors(ctx context.Context) ([]export.Anchor, error) {
	res, err := e.el.Context(ctx).Eval(`function (protocols) {
	  const usable = (href) => {
	    try {
	      return protocols.includes(new URL(href).protocol);
	    } catch (e) {
	      return false;
	    }
	  };
	  return Array.from(this.querySelectorAll('a[href]'))
	    .filter((a) => usable(a.href))
	    .map((a) => {
	      const r = a.getBoundingClientRect();
	      return {
	        href: a.href,
	        box: { x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height },
	      };
	    });
	}`, linkProtocols)
	if err != nil {
		return nil, fmt.Errorf("read anchors: %w", err)
	}
	var anchors []export.Anchor
	if err := res.Value.Unmarshal(&anchors); err != nil {
		return nil, fmt.Errorf("decode anchors: %w", err)
	}
	return anchors, nil
}

// setTransparent 切换默认背景色与页面背景，使截图只包含卡片本身的像素。
func setTransparent(page *rod.Page, on bool) error {
	override := proto.EmulationSetDefaultBackgroundColorOverride{}
	if on {
		override.Color = &proto.DOMRGBA{A: float64Ptr(0)}
	}
	if err := override.Call(page); err != nil {
		return fmt.Errorf("override background color: %w", err)
	}
	if _, err := page.Eval(`(cls, on) => {
	  document.documentElement.classList.toggle(cls, on);
	  return true;
	}`, render.TransparentClass, on); err != nil {
		return fmt.Errorf("toggle transparent capture: %w", err)
	}
	return nil
}
