package export

import (
	"context"
	"errors"
	"sync"
)

// Guard 在任意退出路径上恰好释放一次导出占用的资源。
// 按注册的逆序执行，使用不受调用方取消影响的 context，调用方被取消时克隆仍会被移除。
type Guard struct {
	mu       sync.Mutex
	releases []func(context.Context) error
	once     sync.Once
	err      error
}

// Defer 登记在 Release 时执行的 fn。
func (g *Guard) Defer(fn func(context.Context) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releases = append(g.releases, fn)
}

// Release 执行全部已登记的函数一次，之后的调用返回第一次的结果。
func (g *Guard) Release(ctx context.Context) error {
	g.once.Do(func() {
		ctx = context.WithoutCancel(ctx)

		g.mu.Lock()
		releases := g.releases
		g.releases = nil
		g.mu.Unlock()

		var errs []error
		for i := len(releases) - 1; i >= 0; i-- {
			if err := releases[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		g.err = errors.Join(errs...)
	})
	return g.err
}
