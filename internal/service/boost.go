package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/repository"
)

var (
	// ErrInstanceNotFound is returned by operations on an unknown instance
	// id. No side effects are performed in that case.
	ErrInstanceNotFound = errors.New("boost instance not found")

	// ErrNoBoostTemperature is returned when a start carries no explicit
	// temperature and the instance controls hold none either.
	ErrNoBoostTemperature = errors.New("no boost temperature: pass one explicitly or set the instance control")

	// ErrThermostatUnavailable is returned when the thermostat entity is
	// missing or unusable at start time.
	ErrThermostatUnavailable = errors.New("thermostat unavailable")
)

// defaultBoostDuration applies when neither the request nor the instance
// controls specify one.
const defaultBoostDuration = time.Hour

// StartParams are the optional per-call overrides for starting a boost.
// Missing values fall back to the instance controls.
type StartParams struct {
	TemperatureC *float64        `json:"temperature_c,omitempty"`
	Duration     json.RawMessage `json:"duration,omitempty"`
}

// BoostService orchestrates the boost lifecycle: suspending the scheduler,
// pushing the boost setpoint, arming the timer, and undoing all of it on
// finish. Finish is guarded per instance so the redundant bus and direct
// deliveries of timer completion collapse into one pass.
type BoostService struct {
	instances repository.InstanceRepo
	events    repository.EventRepo
	registry  *TimerRegistry
	scheduler *SchedulerSnapshotService
	temps     *TemperatureSnapshotService
	states    host.StateQuery
	invoker   host.Invoker
	log       *logger.Logger

	displayUnit string

	mu        sync.Mutex
	finishing map[string]bool
}

func NewBoostService(
	instances repository.InstanceRepo,
	events repository.EventRepo,
	registry *TimerRegistry,
	scheduler *SchedulerSnapshotService,
	temps *TemperatureSnapshotService,
	states host.StateQuery,
	invoker host.Invoker,
	log *logger.Logger,
	displayUnit string,
) *BoostService {
	return &BoostService{
		instances:   instances,
		events:      events,
		registry:    registry,
		scheduler:   scheduler,
		temps:       temps,
		states:      states,
		invoker:     invoker,
		log:         log,
		displayUnit: displayUnit,
		finishing:   make(map[string]bool),
	}
}

// Start begins or extends a boost session. All inputs are validated before
// any side effect: an invalid duration or missing temperature leaves the
// system untouched. Starting while a boost is already active reuses the
// original snapshots and simply rearms the timer at the new setpoint.
func (b *BoostService) Start(ctx context.Context, instanceID string, params StartParams) error {
	inst, ok, err := b.instances.Get(ctx, instanceID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInstanceNotFound
	}

	controls, err := b.instances.GetControls(ctx, instanceID)
	if err != nil {
		return err
	}

	tempC, err := resolveTemperature(params, controls)
	if err != nil {
		return err
	}
	duration, err := resolveDuration(params, controls)
	if err != nil {
		return err
	}

	if st, known := b.states.Get(inst.ThermostatRef); !known || !st.Usable() {
		return ErrThermostatUnavailable
	}

	flags, err := b.instances.GetFlags(ctx, instanceID)
	if err != nil {
		return err
	}

	// Snapshots are taken only on the first activation so that extending a
	// running boost cannot overwrite the pre-boost state with boost state.
	if !flags.BoostActive {
		if _, err := b.temps.Capture(ctx, instanceID, inst.ThermostatRef); err != nil {
			return err
		}
		if !flags.ScheduleOverride {
			if _, err := b.scheduler.Capture(ctx, instanceID, inst.ThermostatName); err != nil {
				return err
			}
		}
	}

	if !flags.ScheduleOverride {
		if switches := SchedulerSwitchesFor(b.states, inst.ThermostatName); len(switches) > 0 {
			if err := b.invoker.Invoke(ctx, "switch", "turn_off", switches, nil); err != nil {
				return err
			}
		}
	}

	target := celsiusToDisplay(tempC, b.displayUnit)
	err = b.invoker.Invoke(ctx, "climate", "set_temperature", []string{inst.ThermostatRef}, map[string]any{
		"temperature": target,
	})
	if err != nil {
		return err
	}

	controls.BoostTempC = &tempC
	controls.DurationHours = duration.Hours()
	if err := b.instances.SetControls(ctx, instanceID, controls); err != nil {
		return err
	}
	flags.BoostActive = true
	if err := b.instances.SetFlags(ctx, instanceID, flags); err != nil {
		return err
	}

	timer, err := b.registry.GetOrCreate(ctx, instanceID, inst.ThermostatRef, inst.ThermostatName)
	if err != nil {
		return err
	}
	if err := timer.Start(ctx, duration); err != nil {
		return err
	}

	b.log.Infow("boost_started",
		"instance_id", instanceID,
		"thermostat", inst.ThermostatRef,
		"temp_c", tempC,
		"duration", duration)
	_ = b.events.Append(ctx, models.BoostEvent{
		Type:        models.EventBoostStarted,
		Description: "Boost started on " + inst.ThermostatName,
		Metadata: map[string]any{
			"instance_id":    instanceID,
			"temp_c":         tempC,
			"duration_hours": duration.Hours(),
		},
	})
	return nil
}

// Finish ends a boost session and reinstates the pre-boost state. Concurrent
// or repeated deliveries for the same instance are dropped while one pass is
// in flight; every individual effect is also idempotent, so a second
// sequential pass is harmless.
func (b *BoostService) Finish(ctx context.Context, instanceID string, expiredWhileOffline bool) error {
	b.mu.Lock()
	if b.finishing[instanceID] {
		b.mu.Unlock()
		b.log.Debugw("boost_finish_duplicate_dropped", "instance_id", instanceID)
		return nil
	}
	b.finishing[instanceID] = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.finishing, instanceID)
		b.mu.Unlock()
	}()

	inst, ok, err := b.instances.Get(ctx, instanceID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInstanceNotFound
	}

	timer, err := b.registry.GetOrCreate(ctx, instanceID, inst.ThermostatRef, inst.ThermostatName)
	if err != nil {
		return err
	}
	if err := timer.Cancel(ctx); err != nil {
		return err
	}

	controls, err := b.instances.GetControls(ctx, instanceID)
	if err != nil {
		return err
	}
	controls.DurationHours = 0
	if err := b.instances.SetControls(ctx, instanceID, controls); err != nil {
		return err
	}

	flags, err := b.instances.GetFlags(ctx, instanceID)
	if err != nil {
		return err
	}
	// The active flag must clear before restore runs, otherwise the restore
	// services see a running boost and abandon.
	flags.BoostActive = false
	if err := b.instances.SetFlags(ctx, instanceID, flags); err != nil {
		return err
	}

	if err := b.restore(ctx, instanceID, inst, flags, expiredWhileOffline); err != nil {
		return err
	}

	if expiredWhileOffline {
		_ = b.events.Append(ctx, models.BoostEvent{
			Type:        models.EventTimerExpiredOffline,
			Description: "Boost timer expired while the service was down",
			Metadata:    map[string]any{"instance_id": instanceID},
		})
	}
	b.log.Infow("boost_finished",
		"instance_id", instanceID,
		"thermostat", inst.ThermostatRef,
		"expired_while_offline", expiredWhileOffline)
	_ = b.events.Append(ctx, models.BoostEvent{
		Type:        models.EventBoostFinished,
		Description: "Boost finished on " + inst.ThermostatName,
		Metadata: map[string]any{
			"instance_id":           instanceID,
			"expired_while_offline": expiredWhileOffline,
		},
	})
	return nil
}

// restore picks the restore path. The temperature baseline always goes first
// so the thermostat is never left at the boost setpoint waiting on switch
// recovery. The scheduler path applies only when the override is clear: with
// no snapshot there is nothing to reinstate, and with a snapshot but no
// currently matching switches the restore still runs, deferring and retrying
// rather than consuming or dropping the snapshot while the captured switches
// are offline.
func (b *BoostService) restore(ctx context.Context, instanceID string, inst models.BoostInstance, flags models.InstanceFlags, expiredWhileOffline bool) error {
	if err := b.temps.Restore(ctx, instanceID, inst.ThermostatRef, expiredWhileOffline); err != nil {
		return err
	}

	if flags.ScheduleOverride {
		return nil
	}
	if len(SchedulerSwitchesFor(b.states, inst.ThermostatName)) == 0 {
		hasSnap, err := b.scheduler.Has(ctx, instanceID)
		if err != nil {
			return err
		}
		if !hasSnap {
			return nil
		}
		// Switches captured earlier may be temporarily unavailable; let the
		// restore path defer rather than dropping the snapshot.
	}
	return b.scheduler.Restore(ctx, instanceID, expiredWhileOffline)
}

func resolveTemperature(params StartParams, controls models.InstanceControls) (float64, error) {
	if params.TemperatureC != nil {
		return *params.TemperatureC, nil
	}
	if controls.BoostTempC != nil {
		return *controls.BoostTempC, nil
	}
	return 0, ErrNoBoostTemperature
}

func resolveDuration(params StartParams, controls models.InstanceControls) (time.Duration, error) {
	if len(params.Duration) > 0 {
		return ParseBoostDuration(params.Duration)
	}
	if controls.DurationHours > 0 {
		return time.Duration(controls.DurationHours * float64(time.Hour)), nil
	}
	return defaultBoostDuration, nil
}
