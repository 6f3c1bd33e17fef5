package store

import (
	"context"
	"testing"
)

func TestMemoryStoreSaveAndLoadRun(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	results := map[string]Snapshot{
		"T1": {WCRT: 10, BCRT: 5, QWCRT: 1, BusyTimes: []int64{0, 10}},
	}
	if err := s.SaveRun(ctx, "run-1", results); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	loaded, err := s.LoadPriorResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadPriorResults: %v", err)
	}
	if loaded["T1"].WCRT != 10 {
		t.Errorf("wcrt = %d, want 10", loaded["T1"].WCRT)
	}

	loaded["T1"] = Snapshot{WCRT: 999}
	again, _ := s.LoadPriorResults(ctx, "run-1")
	if again["T1"].WCRT == 999 {
		t.Errorf("mutating a loaded snapshot map must not affect the store's copy")
	}
}

func TestMemoryStoreLoadMissingRun(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.LoadPriorResults(context.Background(), "nonexistent"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreCheckpointsAreIndependentOfRuns(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	results := map[string]Snapshot{"T1": {WCRT: 20}}
	if err := s.SaveCheckpoint(ctx, "run-1", "before-change", results); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if _, err := s.LoadPriorResults(ctx, "run-1"); err != ErrNotFound {
		t.Errorf("a checkpoint save should not create a run entry, got err=%v", err)
	}
	loaded, err := s.LoadCheckpoint(ctx, "run-1", "before-change")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if loaded["T1"].WCRT != 20 {
		t.Errorf("wcrt = %d, want 20", loaded["T1"].WCRT)
	}
}
