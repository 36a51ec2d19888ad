package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWorkerPoolLanes(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 2, MaxSlowWorkers: 1})
	ctx := context.Background()

	if err := pool.AcquireFast(ctx); err != nil {
		t.Fatalf("AcquireFast: %v", err)
	}
	if err := pool.AcquireSlow(ctx); err != nil {
		t.Fatalf("AcquireSlow: %v", err)
	}
	if pool.TryAcquireSlow() {
		t.Error("TryAcquireSlow succeeded on a full lane")
	}
	if !pool.TryAcquireFast() {
		t.Error("TryAcquireFast failed with a free slot")
	}

	stats := pool.Stats()
	if stats.ActiveFast != 2 || stats.ActiveSlow != 1 {
		t.Errorf("ActiveFast = %d, ActiveSlow = %d, want 2, 1", stats.ActiveFast, stats.ActiveSlow)
	}

	pool.ReleaseFast()
	pool.ReleaseFast()
	pool.ReleaseSlow()

	stats = pool.Stats()
	if stats.ActiveFast != 0 || stats.TotalFast != 2 || stats.TotalSlow != 1 {
		t.Errorf("stats after release = %+v", stats)
	}
}

func TestWorkerPoolDefaults(t *testing.T) {
	stats := NewWorkerPool(PoolConfig{}).Stats()
	def := DefaultPoolConfig()
	if stats.MaxFast != def.MaxFastWorkers || stats.MaxSlow != def.MaxSlowWorkers {
		t.Errorf("MaxFast = %d, MaxSlow = %d, want %d, %d",
			stats.MaxFast, stats.MaxSlow, def.MaxFastWorkers, def.MaxSlowWorkers)
	}
}

func TestWorkerPoolCancellation(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	if err := pool.AcquireFast(context.Background()); err != nil {
		t.Fatalf("AcquireFast: %v", err)
	}
	defer pool.ReleaseFast()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.AcquireFast(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("AcquireFast error = %v, want %v", err, context.Canceled)
	}
}

func TestWorkerPoolTimeout(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	if err := pool.AcquireSlow(context.Background()); err != nil {
		t.Fatalf("AcquireSlow: %v", err)
	}
	defer pool.ReleaseSlow()

	if err := pool.AcquireSlowWithTimeout(10 * time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AcquireSlowWithTimeout error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestWorkerPoolConcurrency(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 3, MaxSlowWorkers: 1})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		running int
		peak    int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pool.AcquireFast(ctx); err != nil {
				t.Errorf("AcquireFast: %v", err)
				return
			}
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			pool.ReleaseFast()
		}()
	}
	wg.Wait()

	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
	if got := pool.Stats().TotalFast; got != 12 {
		t.Errorf("TotalFast = %d, want 12", got)
	}
}
