package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("Generating devices...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}

func TestSpinnerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Exporting mask...")
	s.Start()

	if s.Cancelled() {
		t.Error("spinner reports cancelled while running")
	}
	cancel()
	time.Sleep(100 * time.Millisecond)
	if !s.Cancelled() {
		t.Error("spinner not cancelled after context cancellation")
	}
}

func TestSpinnerStopsOnContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Exporting mask...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	if !s.Cancelled() {
		t.Error("spinner not cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Generating devices...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerDefaultMessage(t *testing.T) {
	s := newSpinner("")
	if s.message != "Working..." {
		t.Errorf("default message = %q, want %q", s.message, "Working...")
	}
	s.Start()
	s.Stop()
}

func TestSpinnerStopWithOutcome(t *testing.T) {
	s := newSpinner("Generating devices...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Mask complete")

	s = newSpinner("Generating devices...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("Build failed")
}
