package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/repository"
)

// ErrThermostatRefRequired rejects instance creation without a thermostat
// entity id.
var ErrThermostatRefRequired = errors.New("thermostat_ref is required")

// InstanceDetail is the full read model of one instance.
type InstanceDetail struct {
	models.BoostInstance
	Controls models.InstanceControls `json:"controls"`
	Flags    models.InstanceFlags    `json:"flags"`
	Timer    models.TimerSnapshot    `json:"timer"`
}

// InstanceService manages the configured thermostats and their persisted
// controls and flags.
type InstanceService struct {
	repo     repository.InstanceRepo
	events   repository.EventRepo
	registry *TimerRegistry
	pending  *PendingTracker
	log      *logger.Logger

	// purge removes an instance's snapshots when the instance is destroyed.
	// Set at wiring time to break the service-construction cycle.
	purge func(ctx context.Context, instanceID string) error
}

func NewInstanceService(
	repo repository.InstanceRepo,
	events repository.EventRepo,
	registry *TimerRegistry,
	pending *PendingTracker,
	log *logger.Logger,
) *InstanceService {
	return &InstanceService{
		repo:     repo,
		events:   events,
		registry: registry,
		pending:  pending,
		log:      log,
	}
}

// SetPurgeHook registers the snapshot cleanup invoked on Remove.
func (s *InstanceService) SetPurgeHook(fn func(ctx context.Context, instanceID string) error) {
	s.purge = fn
}

// Create registers a new instance. The thermostat name defaults to the
// entity id's object part when omitted.
func (s *InstanceService) Create(ctx context.Context, thermostatRef, thermostatName string) (models.BoostInstance, error) {
	if thermostatRef == "" {
		return models.BoostInstance{}, ErrThermostatRefRequired
	}
	if thermostatName == "" {
		thermostatName = objectID(thermostatRef)
	}

	inst := models.BoostInstance{
		ID:             uuid.NewString(),
		ThermostatRef:  thermostatRef,
		ThermostatName: thermostatName,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, inst); err != nil {
		return models.BoostInstance{}, err
	}

	s.log.Infow("instance_created", "instance_id", inst.ID, "thermostat", thermostatRef)
	_ = s.events.Append(ctx, models.BoostEvent{
		Type:        models.EventInstanceCreated,
		Description: "Instance created for " + thermostatName,
		Metadata:    map[string]any{"instance_id": inst.ID, "thermostat_ref": thermostatRef},
	})
	return inst, nil
}

// List returns every configured instance.
func (s *InstanceService) List(ctx context.Context) ([]models.BoostInstance, error) {
	return s.repo.List(ctx)
}

// Describe returns the instance with its controls, flags and live timer
// state.
func (s *InstanceService) Describe(ctx context.Context, id string) (InstanceDetail, error) {
	inst, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return InstanceDetail{}, err
	}
	if !ok {
		return InstanceDetail{}, ErrInstanceNotFound
	}

	controls, err := s.repo.GetControls(ctx, id)
	if err != nil {
		return InstanceDetail{}, err
	}
	flags, err := s.repo.GetFlags(ctx, id)
	if err != nil {
		return InstanceDetail{}, err
	}
	timer, err := s.registry.GetOrCreate(ctx, id, inst.ThermostatRef, inst.ThermostatName)
	if err != nil {
		return InstanceDetail{}, err
	}

	return InstanceDetail{
		BoostInstance: inst,
		Controls:      controls,
		Flags:         flags,
		Timer:         timer.Snapshot(),
	}, nil
}

// Remove destroys the instance: its timer, snapshots, pending operations and
// the instance row itself. The event log keeps its history.
func (s *InstanceService) Remove(ctx context.Context, id string) error {
	inst, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInstanceNotFound
	}

	s.pending.CancelAll(id)
	if err := s.registry.Remove(ctx, id); err != nil {
		return err
	}
	if s.purge != nil {
		if err := s.purge(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Infow("instance_removed", "instance_id", id, "thermostat", inst.ThermostatRef)
	_ = s.events.Append(ctx, models.BoostEvent{
		Type:        models.EventInstanceRemoved,
		Description: "Instance removed for " + inst.ThermostatName,
		Metadata:    map[string]any{"instance_id": id},
	})
	return nil
}

// Unload detaches the instance's in-memory timer without touching persisted
// state.
func (s *InstanceService) Unload(id string) {
	s.pending.CancelAll(id)
	s.registry.UnloadEntry(id)
}

// GetControls returns the persisted boost inputs.
func (s *InstanceService) GetControls(ctx context.Context, id string) (models.InstanceControls, error) {
	if err := s.mustExist(ctx, id); err != nil {
		return models.InstanceControls{}, err
	}
	return s.repo.GetControls(ctx, id)
}

// SetControls replaces the persisted boost inputs.
func (s *InstanceService) SetControls(ctx context.Context, id string, c models.InstanceControls) error {
	if err := s.mustExist(ctx, id); err != nil {
		return err
	}
	if c.DurationHours < 0 {
		return ErrInvalidDuration
	}
	return s.repo.SetControls(ctx, id, c)
}

// GetFlags returns the persisted toggles.
func (s *InstanceService) GetFlags(ctx context.Context, id string) (models.InstanceFlags, error) {
	if err := s.mustExist(ctx, id); err != nil {
		return models.InstanceFlags{}, err
	}
	return s.repo.GetFlags(ctx, id)
}

// SetFlags replaces the persisted toggles. Toggling the schedule override in
// either direction drops every pending deferred operation, since a restore
// scheduled under the old setting may no longer be wanted.
func (s *InstanceService) SetFlags(ctx context.Context, id string, f models.InstanceFlags) error {
	prev, err := s.GetFlags(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetFlags(ctx, id, f); err != nil {
		return err
	}
	if prev.ScheduleOverride != f.ScheduleOverride {
		s.pending.CancelAll(id)
		s.log.Infow("schedule_override_toggled", "instance_id", id, "override", f.ScheduleOverride)
	}
	return nil
}

func (s *InstanceService) mustExist(ctx context.Context, id string) error {
	_, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInstanceNotFound
	}
	return nil
}

// objectID strips the domain prefix from an entity id ("climate.living_room"
// becomes "living_room").
func objectID(entityID string) string {
	for i := 0; i < len(entityID); i++ {
		if entityID[i] == '.' {
			return entityID[i+1:]
		}
	}
	return entityID
}
