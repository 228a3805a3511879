package service

import (
	"sync"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
)

// PendingKind identifies one class of delayed operation. At most one
// operation of each kind may be pending per instance.
type PendingKind int

const (
	PendingSchedulerRestore PendingKind = iota
	PendingTemperatureRestore
	PendingRetrigger
	PendingStabilize
)

type pendingOp struct {
	cancel         host.CancelFunc
	expiredOffline bool
}

// PendingTracker owns every outstanding delayed callback, keyed by instance
// id and kind. Scheduling a kind that is already pending merges the
// offline-expiry flag into the existing operation and is otherwise a no-op.
type PendingTracker struct {
	delayer host.Delayer

	mu  sync.Mutex
	ops map[string]map[PendingKind]*pendingOp
}

func NewPendingTracker(delayer host.Delayer) *PendingTracker {
	return &PendingTracker{
		delayer: delayer,
		ops:     make(map[string]map[PendingKind]*pendingOp),
	}
}

// Schedule arms a delayed callback. Returns true if a new operation was
// scheduled, false if one of the same kind was already pending (in which
// case only the expired-offline flag is merged). The callback receives the
// merged flag as of firing time.
func (t *PendingTracker) Schedule(instanceID string, kind PendingKind, delay time.Duration, expiredOffline bool, run func(expiredOffline bool)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.ops[instanceID][kind]; ok {
		existing.expiredOffline = existing.expiredOffline || expiredOffline
		return false
	}

	if t.ops[instanceID] == nil {
		t.ops[instanceID] = make(map[PendingKind]*pendingOp)
	}
	op := &pendingOp{expiredOffline: expiredOffline}
	t.ops[instanceID][kind] = op
	op.cancel = t.delayer.AfterFunc(delay, func() {
		t.fire(instanceID, kind, run)
	})
	return true
}

// fire consumes the pending entry and runs the callback with the flag
// accumulated across deferrals. Does nothing if the entry was cancelled.
func (t *PendingTracker) fire(instanceID string, kind PendingKind, run func(bool)) {
	t.mu.Lock()
	op, ok := t.ops[instanceID][kind]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.ops[instanceID], kind)
	flag := op.expiredOffline
	t.mu.Unlock()

	run(flag)
}

// Pending reports whether an operation of the given kind is outstanding.
func (t *PendingTracker) Pending(instanceID string, kind PendingKind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ops[instanceID][kind]
	return ok
}

// Cancel drops one pending operation, if any.
func (t *PendingTracker) Cancel(instanceID string, kind PendingKind) {
	t.mu.Lock()
	op, ok := t.ops[instanceID][kind]
	if ok {
		delete(t.ops[instanceID], kind)
	}
	t.mu.Unlock()
	if ok && op.cancel != nil {
		op.cancel()
	}
}

// CancelAll drops every pending operation for the instance.
func (t *PendingTracker) CancelAll(instanceID string) {
	t.mu.Lock()
	ops := t.ops[instanceID]
	delete(t.ops, instanceID)
	t.mu.Unlock()

	for _, op := range ops {
		if op.cancel != nil {
			op.cancel()
		}
	}
}
