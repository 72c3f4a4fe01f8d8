package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingWarmer struct {
	mu    sync.Mutex
	calls [][]int
}

func (w *recordingWarmer) Warm(_ context.Context, years ...int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, years)
}

func (w *recordingWarmer) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}

func TestHolidayWarmupWarmsCurrentAndNextYear(t *testing.T) {
	warmer := &recordingWarmer{}
	job := NewHolidayWarmup(warmer, nil, func() time.Time {
		return time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)
	})
	job.Run(context.Background())

	if len(warmer.calls) != 1 {
		t.Fatalf("calls = %v", warmer.calls)
	}
	years := warmer.calls[0]
	if len(years) != 2 || years[0] != 2025 || years[1] != 2026 {
		t.Fatalf("years = %v", years)
	}
}

func TestHolidayWarmupStart(t *testing.T) {
	warmer := &recordingWarmer{}
	job := NewHolidayWarmup(warmer, nil, nil)

	if _, err := job.Start(context.Background(), "not a schedule"); err == nil {
		t.Fatal("expected schedule error")
	}

	stop, err := job.Start(context.Background(), "")
	if err != nil {
		t.Fatalf("empty schedule should disable the job: %v", err)
	}
	stop()
	if warmer.count() != 0 {
		t.Fatal("disabled job must not run")
	}

	stop, err = job.Start(context.Background(), "0 3 * * *")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for warmer.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if warmer.count() == 0 {
		t.Fatal("expected an immediate warm-up run")
	}
}
