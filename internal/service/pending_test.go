package service

import (
	"testing"
	"time"
)

func TestPendingTracker_ScheduleAndFire(t *testing.T) {
	delayer := newManualDelayer()
	tracker := NewPendingTracker(delayer)

	var gotFlag bool
	fired := 0
	ok := tracker.Schedule("i1", PendingSchedulerRestore, time.Second, false, func(eo bool) {
		fired++
		gotFlag = eo
	})
	if !ok {
		t.Fatalf("expected first Schedule to report a new operation")
	}
	if !tracker.Pending("i1", PendingSchedulerRestore) {
		t.Fatalf("expected operation to be pending")
	}

	delayer.fireAll()
	if fired != 1 {
		t.Fatalf("expected 1 fire, got %d", fired)
	}
	if gotFlag {
		t.Fatalf("expected expired-offline flag to be false")
	}
	if tracker.Pending("i1", PendingSchedulerRestore) {
		t.Fatalf("fired operation should no longer be pending")
	}
}

func TestPendingTracker_MergeKeepsOneOperationAndOrsFlag(t *testing.T) {
	delayer := newManualDelayer()
	tracker := NewPendingTracker(delayer)

	fired := 0
	var gotFlag bool
	run := func(eo bool) {
		fired++
		gotFlag = eo
	}

	if ok := tracker.Schedule("i1", PendingSchedulerRestore, time.Second, false, run); !ok {
		t.Fatalf("first Schedule should be new")
	}
	if ok := tracker.Schedule("i1", PendingSchedulerRestore, time.Second, true, run); ok {
		t.Fatalf("second Schedule of the same kind should merge, not create")
	}
	if delayer.pendingCount() != 1 {
		t.Fatalf("expected a single scheduled callback, got %d", delayer.pendingCount())
	}

	delayer.fireAll()
	if fired != 1 {
		t.Fatalf("expected exactly 1 fire, got %d", fired)
	}
	if !gotFlag {
		t.Fatalf("expected merged expired-offline flag to be true")
	}
}

func TestPendingTracker_SeparateKindsCoexist(t *testing.T) {
	delayer := newManualDelayer()
	tracker := NewPendingTracker(delayer)

	if ok := tracker.Schedule("i1", PendingSchedulerRestore, time.Second, false, func(bool) {}); !ok {
		t.Fatalf("scheduler restore should schedule")
	}
	if ok := tracker.Schedule("i1", PendingTemperatureRestore, time.Second, false, func(bool) {}); !ok {
		t.Fatalf("temperature restore is a different kind and should schedule")
	}
	if delayer.pendingCount() != 2 {
		t.Fatalf("expected 2 scheduled callbacks, got %d", delayer.pendingCount())
	}
}

func TestPendingTracker_CancelPreventsFire(t *testing.T) {
	delayer := newManualDelayer()
	tracker := NewPendingTracker(delayer)

	fired := 0
	tracker.Schedule("i1", PendingRetrigger, time.Second, false, func(bool) { fired++ })
	tracker.Cancel("i1", PendingRetrigger)

	delayer.fireAll()
	if fired != 0 {
		t.Fatalf("cancelled operation must not fire, fired=%d", fired)
	}
	if tracker.Pending("i1", PendingRetrigger) {
		t.Fatalf("cancelled operation should not be pending")
	}
}

func TestPendingTracker_CancelAllDropsEverythingForInstance(t *testing.T) {
	delayer := newManualDelayer()
	tracker := NewPendingTracker(delayer)

	fired := 0
	run := func(bool) { fired++ }
	tracker.Schedule("i1", PendingSchedulerRestore, time.Second, false, run)
	tracker.Schedule("i1", PendingTemperatureRestore, time.Second, false, run)
	tracker.Schedule("i2", PendingSchedulerRestore, time.Second, false, run)

	tracker.CancelAll("i1")
	delayer.fireAll()

	if fired != 1 {
		t.Fatalf("only the i2 operation should fire, fired=%d", fired)
	}
}
