package service

import (
	"context"
	"sync"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/models"
)

// TopicTimerFinished is the event bus topic published when a boost timer
// completes, whether live or recovered after a restart.
const TopicTimerFinished = "boost.timer_finished"

// BoostTimer is the per-instance countdown. The end time is persisted through
// the registry before any in-memory mutation is considered committed, so a
// restart can never observe memory ahead of storage.
type BoostTimer struct {
	instanceID     string
	thermostatRef  string
	thermostatName string
	reg            *TimerRegistry

	mu           sync.Mutex
	end          *time.Time
	cancelDue    host.CancelFunc
	listeners    map[int]func()
	nextListener int
}

func newBoostTimer(reg *TimerRegistry, instanceID, thermostatRef, thermostatName string) *BoostTimer {
	return &BoostTimer{
		instanceID:     instanceID,
		thermostatRef:  thermostatRef,
		thermostatName: thermostatName,
		reg:            reg,
		listeners:      make(map[int]func()),
	}
}

// AddListener subscribes to timer updates. Returns a detach func. Listener
// invocation order is unspecified.
func (t *BoostTimer) AddListener(fn func()) func() {
	t.mu.Lock()
	id := t.nextListener
	t.nextListener++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *BoostTimer) notify() {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Snapshot returns the current timer read model.
func (t *BoostTimer) Snapshot() models.TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	if t.end == nil || !t.end.After(now) {
		return models.TimerSnapshot{
			RemainingSeconds: 0,
			Status:           models.TimerIdle,
			End:              copyTime(t.end),
		}
	}
	return models.TimerSnapshot{
		RemainingSeconds: t.end.Sub(now).Seconds(),
		Status:           models.TimerActive,
		End:              copyTime(t.end),
	}
}

// Start arms the timer for the duration. A non-positive duration finishes
// immediately instead of scheduling.
func (t *BoostTimer) Start(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return t.Finish(ctx, false)
	}

	end := time.Now().UTC().Add(duration)
	if err := t.reg.setEnd(ctx, t.instanceID, &end); err != nil {
		return err
	}

	t.mu.Lock()
	t.end = &end
	t.armLocked(duration)
	t.mu.Unlock()

	t.notify()
	return nil
}

// Cancel clears the timer without firing the finish event. Idempotent.
func (t *BoostTimer) Cancel(ctx context.Context) error {
	if err := t.reg.setEnd(ctx, t.instanceID, nil); err != nil {
		return err
	}

	t.mu.Lock()
	t.end = nil
	t.disarmLocked()
	t.mu.Unlock()

	t.notify()
	return nil
}

// Finish clears the timer, then delivers completion twice: on the event bus
// and through the registry's direct finish callback. Both deliveries funnel
// into the orchestrator's re-entrancy guard, so redundancy is safe.
func (t *BoostTimer) Finish(ctx context.Context, expiredWhileOffline bool) error {
	if err := t.reg.setEnd(ctx, t.instanceID, nil); err != nil {
		return err
	}

	t.mu.Lock()
	t.end = nil
	t.disarmLocked()
	t.mu.Unlock()

	t.notify()

	t.reg.bus.Publish(TopicTimerFinished, map[string]any{
		"instance_id":           t.instanceID,
		"thermostat_ref":        t.thermostatRef,
		"thermostat_name":       t.thermostatName,
		"expired_while_offline": expiredWhileOffline,
	})

	// Direct fallback in case no bus subscription was registered yet.
	t.reg.dispatchFinish(ctx, t.instanceID, expiredWhileOffline)
	return nil
}

// armLocked schedules the due-time callback. Caller holds t.mu.
func (t *BoostTimer) armLocked(until time.Duration) {
	t.disarmLocked()
	t.cancelDue = t.reg.delayer.AfterFunc(until, t.handleDue)
}

func (t *BoostTimer) disarmLocked() {
	if t.cancelDue != nil {
		t.cancelDue()
		t.cancelDue = nil
	}
}

// handleDue fires when the scheduled end time arrives. A cancelled or
// restarted timer is detected by re-checking the end under the lock.
func (t *BoostTimer) handleDue() {
	t.mu.Lock()
	due := t.end != nil && !t.end.After(time.Now().UTC())
	t.mu.Unlock()

	if !due {
		return
	}
	if err := t.Finish(context.Background(), false); err != nil {
		t.reg.log.Errorw("timer_finish_failed", "instance_id", t.instanceID, "err", err)
	}
}

// unload detaches callbacks and listeners without touching persisted state.
func (t *BoostTimer) unload() {
	t.mu.Lock()
	t.disarmLocked()
	t.listeners = make(map[int]func())
	t.mu.Unlock()
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
