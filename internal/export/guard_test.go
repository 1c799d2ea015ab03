package export

import (
	"context"
	"errors"
	"testing"
)

func TestGuardReleasesOnceInReverseOrder(t *testing.T) {
	var order []string
	g := &Guard{}
	g.Defer(func(context.Context) error { order = append(order, "busy"); return nil })
	g.Defer(func(context.Context) error { order = append(order, "clone"); return nil })

	if err := g.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := g.Release(context.Background()); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if len(order) != 2 || order[0] != "clone" || order[1] != "busy" {
		t.Fatalf("release order = %v", order)
	}
}

func TestGuardIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	g := &Guard{}
	g.Defer(func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	})
	_ = g.Release(ctx)
	if sawErr != nil {
		t.Fatalf("release context was cancelled: %v", sawErr)
	}
}

func TestGuardJoinsErrorsAndRunsEverything(t *testing.T) {
	boom := errors.New("boom")
	ran := 0
	g := &Guard{}
	g.Defer(func(context.Context) error { ran++; return nil })
	g.Defer(func(context.Context) error { ran++; return boom })

	if err := g.Release(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if ran != 2 {
		t.Fatalf("ran %d releases", ran)
	}
}
