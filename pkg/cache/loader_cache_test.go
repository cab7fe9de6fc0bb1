package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLoaderCache_Get_miss_then_hit(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, []float32](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(_ context.Context, _ string) ([]float32, error) {
		loads.Add(1)

		return []float32{1, 2, 3}, nil
	}

	v, hit, err := c.GetWithStats(ctx, "salt italian cuisine taste", load)
	if err != nil {
		t.Fatal(err)
	}

	if hit {
		t.Error("expected miss")
	}

	if len(v) != 3 {
		t.Errorf("got %v", v)
	}

	if loads.Load() != 1 {
		t.Errorf("loads = %d", loads.Load())
	}

	_, hit, err = c.GetWithStats(ctx, "salt italian cuisine taste", load)
	if err != nil {
		t.Fatal(err)
	}

	if !hit {
		t.Error("expected hit")
	}

	if loads.Load() != 1 {
		t.Errorf("loads = %d", loads.Load())
	}
}

func TestLoaderCache_Get_error_not_cached(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(_ context.Context, _ string) (int, error) {
		if loads.Add(1) == 1 {
			return 0, errors.New("load failed")
		}

		return 7, nil
	}

	if _, _, err := c.GetWithStats(ctx, "k", load); err == nil {
		t.Fatal("expected error from first load")
	}

	v, hit, err := c.GetWithStats(ctx, "k", load)
	if err != nil {
		t.Fatal(err)
	}

	if hit {
		t.Error("failed load must not populate the cache")
	}

	if v != 7 {
		t.Errorf("got %d", v)
	}
}

func TestLoaderCache_Get_singleflight(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	var gate sync.WaitGroup
	gate.Add(1)

	var arrived atomic.Int32

	load := func(_ context.Context, _ string) (int, error) {
		loads.Add(1)

		return 42, nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if arrived.Add(1) == 10 {
				gate.Done()
			}

			gate.Wait()

			val, _, err := c.GetWithStats(ctx, "x", load)
			if err != nil {
				t.Error(err)

				return
			}

			if val != 42 {
				t.Errorf("got %d", val)
			}
		}()
	}

	wg.Wait()

	// Singleflight coalesces in-flight callers; with the barrier we expect one
	// load, but scheduling may let fewer overlap, so accept 1-10.
	if n := loads.Load(); n < 1 || n > 10 {
		t.Errorf("loads = %d", n)
	}
}

func TestLoaderCache_Invalidate(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) {
		return "v-" + key, nil
	}

	if _, err := c.Get(ctx, "a", load); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get(ctx, "b", load); err != nil {
		t.Fatal(err)
	}

	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}

	c.Invalidate("a")

	if c.Len() != 1 {
		t.Errorf("Len after Invalidate = %d", c.Len())
	}

	c.InvalidateAll()

	if c.Len() != 0 {
		t.Errorf("Len after InvalidateAll = %d", c.Len())
	}
}
