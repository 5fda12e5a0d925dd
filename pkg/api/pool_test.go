package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestWorkerPoolDefaults(t *testing.T) {
	stats := NewWorkerPool(PoolConfig{}).Stats()
	def := DefaultPoolConfig()
	if stats.MaxFast != def.MaxFastWorkers || stats.MaxSlow != def.MaxSlowWorkers {
		t.Errorf("Max = %d/%d, want %d/%d", stats.MaxFast, stats.MaxSlow, def.MaxFastWorkers, def.MaxSlowWorkers)
	}
}

func TestWorkerPoolLanesIndependent(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 2, MaxSlowWorkers: 1})
	ctx := context.Background()

	if err := pool.AcquireSlow(ctx); err != nil {
		t.Fatalf("AcquireSlow error: %v", err)
	}
	// A full slow lane must not hold up rounds and decisions.
	for i := 0; i < 2; i++ {
		if err := pool.AcquireFast(ctx); err != nil {
			t.Fatalf("AcquireFast %d error: %v", i, err)
		}
	}

	stats := pool.Stats()
	if stats.ActiveFast != 2 || stats.ActiveSlow != 1 {
		t.Errorf("Active = %d/%d, want 2/1", stats.ActiveFast, stats.ActiveSlow)
	}

	pool.ReleaseFast()
	pool.ReleaseFast()
	pool.ReleaseSlow()
	stats = pool.Stats()
	if stats.ActiveFast != 0 || stats.ActiveSlow != 0 {
		t.Errorf("Active after release = %d/%d", stats.ActiveFast, stats.ActiveSlow)
	}
	if stats.TotalFast != 2 || stats.TotalSlow != 1 {
		t.Errorf("Total = %d/%d, want 2/1", stats.TotalFast, stats.TotalSlow)
	}
}

func TestWorkerPoolCancelledWait(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	if err := pool.AcquireSlow(context.Background()); err != nil {
		t.Fatalf("AcquireSlow error: %v", err)
	}
	defer pool.ReleaseSlow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.AcquireSlow(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AcquireSlow error = %v, want DeadlineExceeded", err)
	}
	if q := pool.Stats().QueuedSlow; q != 0 {
		t.Errorf("QueuedSlow = %d after giving up, want 0", q)
	}
}

func TestWorkerPoolBoundsSampling(t *testing.T) {
	h := getTestHandlers(t)
	h.pool = NewWorkerPool(PoolConfig{MaxFastWorkers: 4, MaxSlowWorkers: 2})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := postJSON(t, h.Sample, "/api/sample", SampleRequest{A: "Cautious", B: "Defensive", Matches: 50})
			if resp.StatusCode != http.StatusOK {
				t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
		}()
	}
	wg.Wait()

	stats := h.pool.Stats()
	if stats.TotalSlow != 6 || stats.ActiveSlow != 0 {
		t.Errorf("slow lane total/active = %d/%d, want 6/0", stats.TotalSlow, stats.ActiveSlow)
	}
	if stats.TotalFast != 0 {
		t.Errorf("TotalFast = %d, sampling must use the slow lane", stats.TotalFast)
	}
}

func TestWorkerPoolBusy(t *testing.T) {
	h := getTestHandlers(t)
	h.pool = NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	if err := h.pool.AcquireSlow(context.Background()); err != nil {
		t.Fatalf("AcquireSlow error: %v", err)
	}
	defer h.pool.ReleaseSlow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := SampleRequest{A: "Cautious", B: "Defensive"}
	resp := postJSONContext(t, ctx, h.Sample, "/api/sample", req)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
	if e := decodeError(t, resp); e.Code != "SERVER_BUSY" {
		t.Errorf("Code = %q, want SERVER_BUSY", e.Code)
	}
}
