package usage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCounterStartsAtZero(t *testing.T) {
	counter := NewCounter(t.TempDir(), 5)

	if counter.Count() != 0 {
		t.Errorf("expected 0, got %d", counter.Count())
	}
	if counter.Remaining() != 5 {
		t.Errorf("expected 5 remaining, got %d", counter.Remaining())
	}
	if counter.ReachedLimit() {
		t.Error("expected fresh counter not to be at the limit")
	}
}

func TestCounterIncrementAndLimit(t *testing.T) {
	counter := NewCounter(t.TempDir(), 3)

	for i := 1; i <= 3; i++ {
		if got := counter.Increment(); got != i {
			t.Errorf("expected count %d, got %d", i, got)
		}
	}

	if !counter.ReachedLimit() {
		t.Error("expected limit to be reached after 3 uses")
	}
	if counter.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", counter.Remaining())
	}

	// Remaining never goes negative.
	counter.Increment()
	if counter.Remaining() != 0 {
		t.Errorf("expected remaining to stay at 0, got %d", counter.Remaining())
	}
}

func TestCounterPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	NewCounter(dir, 5).Increment()
	reopened := NewCounter(dir, 5)

	if reopened.Count() != 1 {
		t.Errorf("expected persisted count 1, got %d", reopened.Count())
	}
}

func TestCounterReset(t *testing.T) {
	dir := t.TempDir()
	counter := NewCounter(dir, 2)

	counter.Increment()
	counter.Increment()
	if !counter.ReachedLimit() {
		t.Fatal("expected limit to be reached")
	}

	if err := counter.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if counter.Count() != 0 || counter.ReachedLimit() {
		t.Error("expected counter to be back at zero after reset")
	}
}

func TestCounterTreatsCorruptedFileAsZero(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, counterFileName), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	counter := NewCounter(dir, 5)
	if counter.Count() != 0 {
		t.Errorf("expected corrupted file to read as 0, got %d", counter.Count())
	}
}

func TestCounterDefaultLimit(t *testing.T) {
	counter := NewCounter(t.TempDir(), 0)
	if counter.Remaining() != DefaultFreeUses {
		t.Errorf("expected default limit %d, got %d", DefaultFreeUses, counter.Remaining())
	}
}
