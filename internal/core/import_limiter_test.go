package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestImportLimiter_AcquireRelease(t *testing.T) {
	limiter := NewImportLimiter(2, time.Second)
	ctx := context.Background()

	release1, err := limiter.Acquire(ctx)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	release2, err := limiter.Acquire(ctx)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	if got := limiter.Status(); got.Active != 2 || got.Available != 0 {
		t.Errorf("Status = %+v, want 2 active, 0 available", got)
	}

	release1()
	release1() // releasing twice is a no-op
	if got := limiter.ActiveCount(); got != 1 {
		t.Errorf("after Release, ActiveCount = %d, want 1", got)
	}

	release2()
	if got := limiter.Status(); got.Active != 0 || got.Available != 2 || got.MaxConcurrent != 2 {
		t.Errorf("Status = %+v, want 0 active, 2 available", got)
	}
}

func TestImportLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewImportLimiter(1, 50*time.Millisecond)
	release, err := limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	start := time.Now()
	_, err = limiter.Acquire(context.Background())
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("expected ErrTooManyImports, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
}

func TestImportLimiter_ContextCancellation(t *testing.T) {
	limiter := NewImportLimiter(1, 5*time.Second)
	release, _ := limiter.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := limiter.Acquire(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestImportLimiter_TryAcquire(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)

	release, ok := limiter.TryAcquire()
	if !ok {
		t.Fatal("first TryAcquire should succeed")
	}
	if _, ok := limiter.TryAcquire(); ok {
		t.Error("second TryAcquire should fail")
	}
	release()

	release, ok = limiter.TryAcquire()
	if !ok {
		t.Fatal("TryAcquire after release should succeed")
	}
	release()
}

func TestImportLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewImportLimiter(maxConcurrent, time.Second)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		maxObserved int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := limiter.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer release()

			mu.Lock()
			if n := limiter.ActiveCount(); n > maxObserved {
				maxObserved = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d concurrent imports, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	limiter := NewImportLimiter(2, time.Second)

	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("WaitForDrain on idle limiter: %v", err)
	}

	release1, _ := limiter.Acquire(context.Background())
	release2, _ := limiter.Acquire(context.Background())

	done := make(chan error, 1)
	go func() { done <- limiter.WaitForDrain(context.Background()) }()

	release1()
	select {
	case <-done:
		t.Fatal("WaitForDrain returned with one import active")
	case <-time.After(30 * time.Millisecond):
	}

	release2()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after all released")
	}
}

func TestImportLimiter_WaitForDrainCancelled(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)
	release, _ := limiter.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestImportLimiter_Defaults(t *testing.T) {
	limiter := NewImportLimiter(0, 0)
	if got := limiter.Status().MaxConcurrent; got != DefaultMaxConcurrentImports {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentImports)
	}
}
