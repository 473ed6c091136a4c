package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestForEachRunsEveryIndex(t *testing.T) {
	var count int64
	errs := ForEach(context.Background(), 100, 4, func(i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	if count != 100 {
		t.Errorf("Expected 100 tasks, ran %d", count)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("Task %d: unexpected error %v", i, err)
		}
	}
}

func TestForEachCapturesErrorsByIndex(t *testing.T) {
	sentinel := errors.New("site failed")
	errs := ForEach(context.Background(), 10, 3, func(i int) error {
		if i == 4 || i == 7 {
			return sentinel
		}
		return nil
	})
	for i, err := range errs {
		if (i == 4 || i == 7) != errors.Is(err, sentinel) {
			t.Errorf("Task %d: got %v", i, err)
		}
	}
}

func TestForEachRecoversPanics(t *testing.T) {
	errs := ForEach(context.Background(), 5, 2, func(i int) error {
		if i == 2 {
			panic("boom")
		}
		return nil
	})
	if errs[2] == nil {
		t.Error("Panicking task should surface as an error")
	}
	if errs[0] != nil || errs[4] != nil {
		t.Error("Sibling tasks must not be affected by a panic")
	}
}

func TestForEachHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := ForEach(ctx, 8, 2, func(i int) error {
		return nil
	})
	cancelled := 0
	for _, err := range errs {
		if errors.Is(err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled != 8 {
		t.Errorf("Expected all 8 tasks cancelled, got %d", cancelled)
	}
}

func TestForEachZeroTasks(t *testing.T) {
	errs := ForEach(context.Background(), 0, 4, func(i int) error { return nil })
	if len(errs) != 0 {
		t.Errorf("Expected no error slots, got %d", len(errs))
	}
}

func TestForEachDefaultsWorkerCount(t *testing.T) {
	errs := ForEach(context.Background(), 3, 0, func(i int) error { return nil })
	if len(errs) != 3 {
		t.Errorf("Expected 3 error slots, got %d", len(errs))
	}
}
