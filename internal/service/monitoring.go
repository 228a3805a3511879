package service

import (
	"context"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/repository"
)

// MonitoringService exposes timer read models and the live entity states,
// including the write path external feeds use to push state in.
type MonitoringService struct {
	instances repository.InstanceRepo
	registry  *TimerRegistry
	states    *host.StateStore
}

func NewMonitoringService(instances repository.InstanceRepo, registry *TimerRegistry, states *host.StateStore) *MonitoringService {
	return &MonitoringService{
		instances: instances,
		registry:  registry,
		states:    states,
	}
}

// TimerState returns the live countdown read model for an instance. First
// access after a restart recovers persisted timers, including ones that
// expired while the service was down.
func (s *MonitoringService) TimerState(ctx context.Context, instanceID string) (models.TimerSnapshot, error) {
	inst, ok, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		return models.TimerSnapshot{}, err
	}
	if !ok {
		return models.TimerSnapshot{}, ErrInstanceNotFound
	}

	timer, err := s.registry.GetOrCreate(ctx, instanceID, inst.ThermostatRef, inst.ThermostatName)
	if err != nil {
		return models.TimerSnapshot{}, err
	}
	return timer.Snapshot(), nil
}

// Timer returns the underlying timer for listener attachment (used by the
// websocket stream). The same recovery semantics as TimerState apply.
func (s *MonitoringService) Timer(ctx context.Context, instanceID string) (*BoostTimer, error) {
	inst, ok, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return s.registry.GetOrCreate(ctx, instanceID, inst.ThermostatRef, inst.ThermostatName)
}

// Entity returns the live host state of one entity.
func (s *MonitoringService) Entity(entityID string) (host.EntityState, bool) {
	return s.states.Get(entityID)
}

// Entities lists every known entity id.
func (s *MonitoringService) Entities() []string {
	return s.states.EntityIDs()
}

// SetEntity feeds a live state update into the store, creating the entity if
// needed. Nil attributes keep the previous ones.
func (s *MonitoringService) SetEntity(entityID, state string, attributes map[string]any) {
	s.states.Set(entityID, state, attributes)
}
