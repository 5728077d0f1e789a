package memory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMonitor(limit int64, alloc *atomic.Uint64) *Monitor {
	cfg := DefaultConfig()
	cfg.LimitBytes = limit
	cfg.Sample = alloc.Load
	return NewMonitor(cfg)
}

func TestMonitorPausesAndResumes(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(1000, &alloc)
	defer m.Stop()

	alloc.Store(500)
	m.check()
	if m.IsPaused() {
		t.Fatal("monitor paused at 50% usage")
	}

	alloc.Store(900)
	m.check()
	if !m.IsPaused() {
		t.Fatal("monitor not paused at 90% usage")
	}

	// Between the thresholds the state holds.
	alloc.Store(800)
	m.check()
	if !m.IsPaused() {
		t.Fatal("monitor resumed above the resume threshold")
	}

	alloc.Store(100)
	m.check()
	if m.IsPaused() {
		t.Fatal("monitor still paused at 10% usage")
	}
}

func TestWaitIfPausedReturnsImmediatelyWhenNotPaused(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(1000, &alloc)
	defer m.Stop()

	if !m.WaitIfPaused(context.Background()) {
		t.Error("WaitIfPaused() = false, want true")
	}
}

func TestWaitIfPausedNilMonitor(t *testing.T) {
	var m *Monitor
	if !m.WaitIfPaused(context.Background()) {
		t.Error("nil monitor should never block")
	}
}

func TestWaitIfPausedReleasedOnResume(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(1000, &alloc)
	defer m.Stop()

	alloc.Store(950)
	m.check()

	done := make(chan bool, 1)
	go func() { done <- m.WaitIfPaused(context.Background()) }()

	select {
	case <-done:
		t.Fatal("WaitIfPaused returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	alloc.Store(10)
	m.check()

	select {
	case ok := <-done:
		if !ok {
			t.Error("WaitIfPaused() = false after resume, want true")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused not released after resume")
	}
}

func TestWaitIfPausedHonorsContextAndStop(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(1000, &alloc)

	alloc.Store(950)
	m.check()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if m.WaitIfPaused(ctx) {
		t.Error("WaitIfPaused with cancelled context = true, want false")
	}

	m.Stop()
	m.Stop()
	if m.WaitIfPaused(context.Background()) {
		t.Error("WaitIfPaused after Stop = true, want false")
	}
}

func TestStats(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(2000, &alloc)
	defer m.Stop()

	alloc.Store(500)
	m.check()

	current, limit, usage := m.Stats()
	if current != 500 || limit != 2000 || usage != 0.25 {
		t.Errorf("Stats() = (%d, %d, %v), want (500, 2000, 0.25)", current, limit, usage)
	}
}
