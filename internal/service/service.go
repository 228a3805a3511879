package service

import (
	"context"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Boost exposes the boost session lifecycle.
type Boost interface {
	Start(ctx context.Context, instanceID string, params StartParams) error
	Finish(ctx context.Context, instanceID string, expiredWhileOffline bool) error
}

// Instances manages configured thermostats and their controls/flags.
type Instances interface {
	Create(ctx context.Context, thermostatRef, thermostatName string) (models.BoostInstance, error)
	List(ctx context.Context) ([]models.BoostInstance, error)
	Describe(ctx context.Context, id string) (InstanceDetail, error)
	Remove(ctx context.Context, id string) error
	Unload(id string)
	GetControls(ctx context.Context, id string) (models.InstanceControls, error)
	SetControls(ctx context.Context, id string, c models.InstanceControls) error
	GetFlags(ctx context.Context, id string) (models.InstanceFlags, error)
	SetFlags(ctx context.Context, id string, f models.InstanceFlags) error
}

// Monitoring exposes timer read models and live entity state, plus the write
// path external feeds use to push entity updates in.
type Monitoring interface {
	TimerState(ctx context.Context, instanceID string) (models.TimerSnapshot, error)
	Timer(ctx context.Context, instanceID string) (*BoostTimer, error)
	Entity(entityID string) (host.EntityState, bool)
	Entities() []string
	SetEntity(entityID, state string, attributes map[string]any)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.BoostEvent, error)
}

// Simulator runs the background loop that drifts thermostat readings.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services. Embedded interfaces share method
// names (List in particular), so callers qualify: svc.EventLog.List.
type Service struct {
	Boost
	Instances
	Monitoring
	EventLog
	Simulator
	Authorization

	Registry *TimerRegistry
	Pending  *PendingTracker
}

// Deps carries everything NewService wires together.
type Deps struct {
	Repos   *repository.Repository
	States  *host.StateStore
	Bus     host.EventBus
	Invoker host.Invoker
	Delayer host.Delayer
	Log     *logger.Logger

	DisplayUnit string
	Retrigger   bool
	SigningKey  string
}

// NewService wires the repository and host layers into concrete services.
// Timer completion is delivered to the boost orchestrator through the
// registry's direct handler; the bus topic stays free for observers.
func NewService(d Deps) *Service {
	pending := NewPendingTracker(d.Delayer)
	registry := NewTimerRegistry(d.Repos.Timers, d.Bus, d.Delayer, d.Log)

	scheduler := NewSchedulerSnapshotService(
		d.Repos.SchedulerSnap, d.Repos.Instances, d.States, d.Invoker, pending, d.Repos.Events, d.Log, d.Retrigger)
	temps := NewTemperatureSnapshotService(
		d.Repos.TempSnap, d.Repos.Instances, d.States, d.Invoker, pending, d.Log, d.DisplayUnit)

	boost := NewBoostService(
		d.Repos.Instances, d.Repos.Events, registry, scheduler, temps, d.States, d.Invoker, d.Log, d.DisplayUnit)
	registry.SetFinishHandler(func(ctx context.Context, instanceID string, expiredWhileOffline bool) {
		if err := boost.Finish(ctx, instanceID, expiredWhileOffline); err != nil {
			d.Log.Errorw("boost_finish_failed", "instance_id", instanceID, "err", err)
		}
	})

	instances := NewInstanceService(d.Repos.Instances, d.Repos.Events, registry, pending, d.Log)
	instances.SetPurgeHook(func(ctx context.Context, instanceID string) error {
		if err := scheduler.Clear(ctx, instanceID); err != nil {
			return err
		}
		return temps.Clear(ctx, instanceID)
	})

	return &Service{
		Boost:         boost,
		Instances:     instances,
		Monitoring:    NewMonitoringService(d.Repos.Instances, registry, d.States),
		EventLog:      NewEventLogService(d.Repos.Events),
		Simulator:     NewThermostatSimulator(d.States, d.Log),
		Authorization: NewAuthService(d.Repos.Auth, d.SigningKey),
		Registry:      registry,
		Pending:       pending,
	}
}
