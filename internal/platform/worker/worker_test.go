package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var iterations atomic.Int64

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			iterations.Add(1)

			return nil
		},
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Loop() error = %v, want context.Canceled", err)
	}

	if iterations.Load() == 0 {
		t.Error("Process was never called")
	}
}

func TestLoopOnErrorStops(t *testing.T) {
	wantErr := errors.New("fatal")

	err := Loop(context.Background(), Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			return wantErr
		},
		OnError: func(error) bool { return false },
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("Loop() error = %v, want %v", err, wantErr)
	}
}

func TestLoopPeriodicTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Int64

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_ = Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		PeriodicTasks: []PeriodicTask{{
			Name:     "tick",
			Interval: time.Millisecond,
			Run:      func(context.Context) { ran.Add(1) },
		}},
	})

	if ran.Load() == 0 {
		t.Error("periodic task never ran")
	}
}

func TestWaitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestWaitZeroDuration(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait(0) error = %v, want nil", err)
	}
}

func TestIntervalLoopRunOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int64

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := IntervalLoop(ctx, IntervalConfig{
		Name:       "test",
		Interval:   time.Hour,
		RunOnStart: true,
		OnTick:     func(context.Context) { ticks.Add(1) },
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("IntervalLoop() error = %v, want context.Canceled", err)
	}

	if ticks.Load() != 1 {
		t.Errorf("ticks = %d, want 1", ticks.Load())
	}
}
