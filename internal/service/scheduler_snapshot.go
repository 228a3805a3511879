package service

import (
	"context"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/repository"
)

// Fixed delays for deferred operations. A deferred restore reschedules
// indefinitely until its entities become available or the instance is
// cleared/overridden.
const (
	restoreRetryDelay = 30 * time.Second
	retriggerDelay    = 5 * time.Second
	stabilizeDelay    = 2 * time.Second
)

// FlagsSource reads the per-instance boost-active / schedule-override flags.
type FlagsSource interface {
	GetFlags(ctx context.Context, id string) (models.InstanceFlags, error)
}

// SchedulerSnapshotService captures the on/off positions of the scheduler
// switches tied to a thermostat before a boost suspends them, and reinstates
// them afterwards. A snapshot is consumed exactly once by a successful
// restore; restores blocked by unavailable entities defer and retry.
type SchedulerSnapshotService struct {
	repo    repository.SchedulerSnapshotRepo
	flags   FlagsSource
	states  host.StateQuery
	invoker host.Invoker
	pending *PendingTracker
	events  repository.EventRepo
	log     *logger.Logger

	// retrigger enables the delayed off→on pulse after a restore, forcing
	// the scheduler integration to recompute its effective setpoints.
	retrigger bool
}

func NewSchedulerSnapshotService(
	repo repository.SchedulerSnapshotRepo,
	flags FlagsSource,
	states host.StateQuery,
	invoker host.Invoker,
	pending *PendingTracker,
	events repository.EventRepo,
	log *logger.Logger,
	retrigger bool,
) *SchedulerSnapshotService {
	return &SchedulerSnapshotService{
		repo:      repo,
		flags:     flags,
		states:    states,
		invoker:   invoker,
		pending:   pending,
		events:    events,
		log:       log,
		retrigger: retrigger,
	}
}

// Capture snapshots every available scheduler switch matching the
// thermostat, replacing any prior unconsumed snapshot. Returns the captured
// entity set; an empty set means nothing to suspend and is not an error.
func (s *SchedulerSnapshotService) Capture(ctx context.Context, instanceID, thermostatName string) ([]string, error) {
	switches := SchedulerSwitchesFor(s.states, thermostatName)
	if len(switches) == 0 {
		return nil, nil
	}

	snapshot := make(map[string]models.SwitchState, len(switches))
	for _, entityID := range switches {
		st, ok := s.states.Get(entityID)
		if !ok || !st.Usable() {
			continue
		}
		if st.State == host.StateOn {
			snapshot[entityID] = models.SwitchOn
		} else {
			snapshot[entityID] = models.SwitchOff
		}
	}
	if len(snapshot) == 0 {
		return nil, nil
	}

	if err := s.repo.Save(ctx, instanceID, snapshot); err != nil {
		return nil, err
	}

	captured := make([]string, 0, len(snapshot))
	for entityID := range snapshot {
		captured = append(captured, entityID)
	}
	return captured, nil
}

// Has reports whether an unconsumed snapshot exists for the instance.
func (s *SchedulerSnapshotService) Has(ctx context.Context, instanceID string) (bool, error) {
	_, ok, err := s.repo.Get(ctx, instanceID)
	return ok, err
}

// Restore reinstates the captured switch positions. No-op without a
// snapshot. If any captured entity is unavailable, or a bulk call fails, the
// whole restore is deferred and the snapshot stays unconsumed; the
// expired-offline flag is OR-merged across deferrals. Attempts are abandoned
// outright while the boost is active or the schedule override is set.
func (s *SchedulerSnapshotService) Restore(ctx context.Context, instanceID string, expiredWhileOffline bool) error {
	flags, err := s.flags.GetFlags(ctx, instanceID)
	if err != nil {
		return err
	}
	if flags.BoostActive || flags.ScheduleOverride {
		s.pending.Cancel(instanceID, PendingSchedulerRestore)
		s.log.Debugw("scheduler_restore_abandoned",
			"instance_id", instanceID,
			"boost_active", flags.BoostActive,
			"schedule_override", flags.ScheduleOverride)
		return nil
	}

	snapshot, ok, err := s.repo.Get(ctx, instanceID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	for entityID := range snapshot {
		if st, known := s.states.Get(entityID); !known || !st.Usable() {
			s.deferRestore(instanceID, expiredWhileOffline, "entity unavailable: "+entityID)
			return nil
		}
	}

	var toTurnOn, toTurnOff []string
	for entityID, state := range snapshot {
		if state == models.SwitchOn {
			toTurnOn = append(toTurnOn, entityID)
		} else {
			toTurnOff = append(toTurnOff, entityID)
		}
	}

	if len(toTurnOn) > 0 {
		if err := s.invoker.Invoke(ctx, "switch", "turn_on", toTurnOn, nil); err != nil {
			s.log.Warnw("scheduler_restore_turn_on_failed", "instance_id", instanceID, "err", err)
			s.deferRestore(instanceID, expiredWhileOffline, "turn_on failed")
			return nil
		}
	}
	if len(toTurnOff) > 0 {
		if err := s.invoker.Invoke(ctx, "switch", "turn_off", toTurnOff, nil); err != nil {
			s.log.Warnw("scheduler_restore_turn_off_failed", "instance_id", instanceID, "err", err)
			s.deferRestore(instanceID, expiredWhileOffline, "turn_off failed")
			return nil
		}
	}

	if err := s.repo.Delete(ctx, instanceID); err != nil {
		return err
	}
	s.log.Infow("scheduler_snapshot_restored",
		"instance_id", instanceID,
		"turned_on", len(toTurnOn),
		"turned_off", len(toTurnOff),
		"expired_while_offline", expiredWhileOffline)

	if s.retrigger && len(toTurnOn) > 0 {
		s.scheduleRetrigger(instanceID, toTurnOn)
	}
	return nil
}

// deferRestore schedules (or merges into) the single pending restore retry.
func (s *SchedulerSnapshotService) deferRestore(instanceID string, expiredWhileOffline bool, reason string) {
	scheduled := s.pending.Schedule(instanceID, PendingSchedulerRestore, restoreRetryDelay, expiredWhileOffline,
		func(eo bool) {
			if err := s.Restore(context.Background(), instanceID, eo); err != nil {
				s.log.Errorw("scheduler_restore_retry_failed", "instance_id", instanceID, "err", err)
			}
		})
	if scheduled {
		s.log.Infow("scheduler_restore_deferred", "instance_id", instanceID, "reason", reason)
		_ = s.events.Append(context.Background(), models.BoostEvent{
			Type:        models.EventRestoreDeferred,
			Description: "Scheduler restore deferred: " + reason,
			Metadata:    map[string]any{"instance_id": instanceID},
		})
	}
}

// scheduleRetrigger arms the off→on pulse on the just-restored "on"
// switches. At most one retrigger and one stabilize wait may be pending per
// instance.
func (s *SchedulerSnapshotService) scheduleRetrigger(instanceID string, entities []string) {
	s.pending.Schedule(instanceID, PendingRetrigger, retriggerDelay, false, func(bool) {
		ctx := context.Background()
		if err := s.invoker.Invoke(ctx, "switch", "turn_off", entities, nil); err != nil {
			s.log.Warnw("scheduler_retrigger_off_failed", "instance_id", instanceID, "err", err)
			return
		}
		s.pending.Schedule(instanceID, PendingStabilize, stabilizeDelay, false, func(bool) {
			if err := s.invoker.Invoke(context.Background(), "switch", "turn_on", entities, nil); err != nil {
				s.log.Warnw("scheduler_retrigger_on_failed", "instance_id", instanceID, "err", err)
			}
		})
	})
}

// Clear deletes any snapshot and cancels every pending deferred operation
// for the instance, unconditionally.
func (s *SchedulerSnapshotService) Clear(ctx context.Context, instanceID string) error {
	s.pending.CancelAll(instanceID)
	return s.repo.Delete(ctx, instanceID)
}
