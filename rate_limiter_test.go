package svgmaker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10)

	if rl == nil {
		t.Fatal("NewRateLimiter() returned nil")
	}
	if rl.capacity != 10 {
		t.Errorf("Expected capacity=10, got %d", rl.capacity)
	}
	if rl.window != time.Minute {
		t.Errorf("Expected window=1m, got %v", rl.window)
	}
	if len(rl.admitted) != 0 {
		t.Errorf("Expected empty admissions, got %d", len(rl.admitted))
	}
}

func TestRateLimiterNonPositiveCapacity(t *testing.T) {
	ctx := context.Background()

	for _, capacity := range []int{0, -1} {
		rl := NewRateLimiter(capacity)
		for i := 0; i < 100; i++ {
			if err := rl.Wait(ctx); err != nil {
				t.Fatalf("Wait() with capacity=%d returned error: %v", capacity, err)
			}
		}
		if got := rl.inWindow(); got != 0 {
			t.Errorf("Expected unlimited admissions to record no timestamps, got %d", got)
		}
	}
}

func TestRateLimiterAdmitsCapacityWithoutDelay(t *testing.T) {
	rl := newRateLimiter(5, time.Minute)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() %d returned error: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected immediate admission, took %v", elapsed)
	}
	if got := rl.inWindow(); got != 5 {
		t.Errorf("Expected 5 admissions in window, got %d", got)
	}
}

func TestRateLimiterDelaysOverCapacity(t *testing.T) {
	rl := newRateLimiter(2, 100*time.Millisecond)
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond {
		t.Errorf("Expected third admission to wait for the window, waited %v", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("Expected wait close to the window, waited %v", elapsed)
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	base := time.Now()
	current := base
	rl.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		if _, admitted := rl.tryAdmit(); !admitted {
			t.Fatalf("Expected admission %d", i+1)
		}
	}

	wait, admitted := rl.tryAdmit()
	if admitted {
		t.Fatal("Expected fourth admission to be denied")
	}
	if wait != time.Minute {
		t.Errorf("Expected wait=1m with fresh window, got %v", wait)
	}

	// One second before the oldest entry ages out.
	current = base.Add(59 * time.Second)
	wait, admitted = rl.tryAdmit()
	if admitted {
		t.Fatal("Expected admission denied at 59s")
	}
	if wait != time.Second {
		t.Errorf("Expected wait=1s at 59s, got %v", wait)
	}

	// Exactly one window later the oldest entry is out.
	current = base.Add(time.Minute)
	if _, admitted = rl.tryAdmit(); !admitted {
		t.Error("Expected admission once the oldest entry is a full window old")
	}
}

func TestRateLimiterPrunes(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	base := time.Now()
	current := base
	rl.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		rl.tryAdmit()
	}
	if got := rl.inWindow(); got != 3 {
		t.Fatalf("Expected 3 in window, got %d", got)
	}

	current = base.Add(61 * time.Second)
	if got := rl.inWindow(); got != 0 {
		t.Errorf("Expected 0 in window after expiry, got %d", got)
	}
}

func TestRateLimiterContextCancellation(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected the context's own error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected prompt cancellation, waited %v", elapsed)
	}
}

func TestRateLimiterConcurrentAdmission(t *testing.T) {
	rl := newRateLimiter(10, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rl.Wait(ctx); err != nil {
				t.Errorf("Wait() returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := rl.inWindow(); got != 10 {
		t.Errorf("Expected exactly 10 admissions, got %d", got)
	}
}
