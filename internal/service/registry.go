package service

import (
	"context"
	"sync"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/repository"
)

// FinishFunc is the direct finish-delivery callback registered by the
// orchestrator.
type FinishFunc func(ctx context.Context, instanceID string, expiredWhileOffline bool)

// TimerRegistry lazily creates and caches one BoostTimer per instance and
// owns the persisted end-time table. On first access after a restart it
// detects timers that expired while the process was down and finishes them
// with expired_while_offline=true.
type TimerRegistry struct {
	repo    repository.TimerRepo
	bus     host.EventBus
	delayer host.Delayer
	log     *logger.Logger

	mu     sync.Mutex
	loaded bool
	ends   map[string]time.Time
	timers map[string]*BoostTimer

	finishMu sync.RWMutex
	finish   FinishFunc
}

func NewTimerRegistry(repo repository.TimerRepo, bus host.EventBus, delayer host.Delayer, log *logger.Logger) *TimerRegistry {
	return &TimerRegistry{
		repo:    repo,
		bus:     bus,
		delayer: delayer,
		log:     log,
		timers:  make(map[string]*BoostTimer),
	}
}

// SetFinishHandler registers the direct fallback invoked on every Finish.
func (r *TimerRegistry) SetFinishHandler(fn FinishFunc) {
	r.finishMu.Lock()
	r.finish = fn
	r.finishMu.Unlock()
}

func (r *TimerRegistry) dispatchFinish(ctx context.Context, instanceID string, expiredWhileOffline bool) {
	r.finishMu.RLock()
	fn := r.finish
	r.finishMu.RUnlock()
	if fn == nil {
		r.log.Debugw("timer_finish_no_direct_handler", "instance_id", instanceID)
		return
	}
	fn(ctx, instanceID, expiredWhileOffline)
}

// ensureLoadedLocked loads the persisted end-time table once per process.
// Caller holds r.mu.
func (r *TimerRegistry) ensureLoadedLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	ends, err := r.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	r.ends = ends
	r.loaded = true
	return nil
}

// GetOrCreate returns the cached timer for the instance, constructing it
// from persisted state on first access. Construction happens under the
// registry lock, so concurrent calls can never build two timers for the same
// id; the offline-expiry finish runs after the lock is released.
func (r *TimerRegistry) GetOrCreate(ctx context.Context, instanceID, thermostatRef, thermostatName string) (*BoostTimer, error) {
	r.mu.Lock()
	if err := r.ensureLoadedLocked(ctx); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if t, ok := r.timers[instanceID]; ok {
		r.mu.Unlock()
		return t, nil
	}

	t := newBoostTimer(r, instanceID, thermostatRef, thermostatName)
	var expiredOffline bool
	var until time.Duration
	if end, ok := r.ends[instanceID]; ok {
		e := end
		t.end = &e
		now := time.Now().UTC()
		if end.After(now) {
			until = end.Sub(now)
		} else {
			expiredOffline = true
		}
	}
	r.timers[instanceID] = t
	r.mu.Unlock()

	switch {
	case expiredOffline:
		r.log.Infow("timer_expired_while_offline", "instance_id", instanceID)
		if err := t.Finish(ctx, true); err != nil {
			return nil, err
		}
	case until > 0:
		// No scheduling survives a restart; re-arm from the persisted end.
		t.mu.Lock()
		t.armLocked(until)
		t.mu.Unlock()
	}

	return t, nil
}

// setEnd persists an end-time mutation (nil clears it) and then updates the
// in-memory table. Called by timers before they commit their own state.
func (r *TimerRegistry) setEnd(ctx context.Context, instanceID string, end *time.Time) error {
	r.mu.Lock()
	if err := r.ensureLoadedLocked(ctx); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	if end == nil {
		if err := r.repo.ClearEnd(ctx, instanceID); err != nil {
			return err
		}
	} else {
		if err := r.repo.SetEnd(ctx, instanceID, *end); err != nil {
			return err
		}
	}

	r.mu.Lock()
	if end == nil {
		delete(r.ends, instanceID)
	} else {
		r.ends[instanceID] = end.UTC()
	}
	r.mu.Unlock()
	return nil
}

// Remove cancels and discards the cached timer and purges its persisted end
// time. Used when the instance is destroyed.
func (r *TimerRegistry) Remove(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	t := r.timers[instanceID]
	delete(r.timers, instanceID)
	r.mu.Unlock()

	if t != nil {
		if err := t.Cancel(ctx); err != nil {
			return err
		}
	}
	return r.setEnd(ctx, instanceID, nil)
}

// UnloadEntry detaches the cached timer's callbacks without touching
// persisted state. Used when the instance is unloaded but not destroyed.
func (r *TimerRegistry) UnloadEntry(instanceID string) {
	r.mu.Lock()
	t := r.timers[instanceID]
	delete(r.timers, instanceID)
	r.mu.Unlock()

	if t != nil {
		t.unload()
	}
}

// UnloadAll detaches every cached timer; used on graceful shutdown.
func (r *TimerRegistry) UnloadAll() {
	r.mu.Lock()
	timers := r.timers
	r.timers = make(map[string]*BoostTimer)
	r.mu.Unlock()

	for _, t := range timers {
		t.unload()
	}
}
