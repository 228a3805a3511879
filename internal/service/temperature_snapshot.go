package service

import (
	"context"
	"strconv"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/repository"
)

// TemperatureSnapshotService captures the thermostat's pre-boost target
// setpoint and reinstates it when the boost ends. Used as the restore path
// when no scheduler integration is present, and as a baseline safety net
// before a scheduler restore.
type TemperatureSnapshotService struct {
	repo    repository.TemperatureSnapshotRepo
	flags   FlagsSource
	states  host.StateQuery
	invoker host.Invoker
	pending *PendingTracker
	log     *logger.Logger

	// displayUnit is the unit the thermostat expects; snapshots are stored
	// canonically in °C.
	displayUnit string
}

func NewTemperatureSnapshotService(
	repo repository.TemperatureSnapshotRepo,
	flags FlagsSource,
	states host.StateQuery,
	invoker host.Invoker,
	pending *PendingTracker,
	log *logger.Logger,
	displayUnit string,
) *TemperatureSnapshotService {
	return &TemperatureSnapshotService{
		repo:        repo,
		flags:       flags,
		states:      states,
		invoker:     invoker,
		pending:     pending,
		log:         log,
		displayUnit: displayUnit,
	}
}

// Capture stores the thermostat's current target temperature, replacing any
// prior unconsumed snapshot. Returns nil without error when the thermostat
// is unavailable or reports no usable target.
func (s *TemperatureSnapshotService) Capture(ctx context.Context, instanceID, thermostatRef string) (*float64, error) {
	st, ok := s.states.Get(thermostatRef)
	if !ok || !st.Usable() {
		return nil, nil
	}

	raw, ok := st.Attributes["temperature"]
	if !ok {
		return nil, nil
	}
	value, ok := toFloat(raw)
	if !ok {
		return nil, nil
	}

	targetC := displayToCelsius(value, s.displayUnit)
	if err := s.repo.Save(ctx, instanceID, targetC); err != nil {
		return nil, err
	}
	return &targetC, nil
}

// Restore reinstates the captured setpoint. No-op without a snapshot;
// defers with retry while the thermostat is unavailable or the set
// operation fails. Absence of a snapshot is never an error. Abandoned while
// a boost is active.
func (s *TemperatureSnapshotService) Restore(ctx context.Context, instanceID, thermostatRef string, expiredWhileOffline bool) error {
	flags, err := s.flags.GetFlags(ctx, instanceID)
	if err != nil {
		return err
	}
	if flags.BoostActive {
		s.pending.Cancel(instanceID, PendingTemperatureRestore)
		s.log.Debugw("temperature_restore_abandoned", "instance_id", instanceID)
		return nil
	}

	targetC, ok, err := s.repo.Get(ctx, instanceID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if st, known := s.states.Get(thermostatRef); !known || !st.Usable() {
		s.deferRestore(instanceID, thermostatRef, expiredWhileOffline, "thermostat unavailable")
		return nil
	}

	target := celsiusToDisplay(targetC, s.displayUnit)
	err = s.invoker.Invoke(ctx, "climate", "set_temperature", []string{thermostatRef}, map[string]any{
		"temperature": target,
	})
	if err != nil {
		s.log.Warnw("temperature_restore_set_failed", "instance_id", instanceID, "err", err)
		s.deferRestore(instanceID, thermostatRef, expiredWhileOffline, "set_temperature failed")
		return nil
	}

	if err := s.repo.Delete(ctx, instanceID); err != nil {
		return err
	}
	s.log.Infow("temperature_snapshot_restored",
		"instance_id", instanceID,
		"thermostat", thermostatRef,
		"target_c", targetC,
		"expired_while_offline", expiredWhileOffline)
	return nil
}

func (s *TemperatureSnapshotService) deferRestore(instanceID, thermostatRef string, expiredWhileOffline bool, reason string) {
	scheduled := s.pending.Schedule(instanceID, PendingTemperatureRestore, restoreRetryDelay, expiredWhileOffline,
		func(eo bool) {
			if err := s.Restore(context.Background(), instanceID, thermostatRef, eo); err != nil {
				s.log.Errorw("temperature_restore_retry_failed", "instance_id", instanceID, "err", err)
			}
		})
	if scheduled {
		s.log.Infow("temperature_restore_deferred", "instance_id", instanceID, "reason", reason)
	}
}

// Clear deletes any snapshot and cancels a pending deferred restore.
func (s *TemperatureSnapshotService) Clear(ctx context.Context, instanceID string) error {
	s.pending.Cancel(instanceID, PendingTemperatureRestore)
	return s.repo.Delete(ctx, instanceID)
}

// toFloat coerces attribute values that may arrive as JSON numbers or
// strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
