package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// InstanceRepo persists boost instances together with their user-facing
// controls and flags.
type InstanceRepo interface {
	Create(ctx context.Context, inst models.BoostInstance) error
	Get(ctx context.Context, id string) (models.BoostInstance, bool, error)
	List(ctx context.Context) ([]models.BoostInstance, error)
	Delete(ctx context.Context, id string) error

	GetControls(ctx context.Context, id string) (models.InstanceControls, error)
	SetControls(ctx context.Context, id string, c models.InstanceControls) error
	GetFlags(ctx context.Context, id string) (models.InstanceFlags, error)
	SetFlags(ctx context.Context, id string, f models.InstanceFlags) error
}

// TimerRepo persists the per-instance timer end times.
type TimerRepo interface {
	LoadAll(ctx context.Context) (map[string]time.Time, error)
	SetEnd(ctx context.Context, instanceID string, end time.Time) error
	ClearEnd(ctx context.Context, instanceID string) error
}

// SchedulerSnapshotRepo persists the captured on/off positions of scheduler
// switches, one snapshot per instance.
type SchedulerSnapshotRepo interface {
	Save(ctx context.Context, instanceID string, entities map[string]models.SwitchState) error
	Get(ctx context.Context, instanceID string) (map[string]models.SwitchState, bool, error)
	Delete(ctx context.Context, instanceID string) error
}

// TemperatureSnapshotRepo persists the pre-boost target temperature, one
// snapshot per instance.
type TemperatureSnapshotRepo interface {
	Save(ctx context.Context, instanceID string, targetC float64) error
	Get(ctx context.Context, instanceID string) (float64, bool, error)
	Delete(ctx context.Context, instanceID string) error
}

// EventRepo is the append-only boost event log.
type EventRepo interface {
	Append(ctx context.Context, e models.BoostEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.BoostEvent, error)
}

type Repository struct {
	Instances     InstanceRepo
	Timers        TimerRepo
	SchedulerSnap SchedulerSnapshotRepo
	TempSnap      TemperatureSnapshotRepo
	Events        EventRepo
	Auth          Authorization
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		Instances:     NewInstanceSQLite(sqlDB),
		Timers:        NewTimerSQLite(sqlDB),
		SchedulerSnap: NewSchedulerSnapshotSQLite(sqlDB),
		TempSnap:      NewTemperatureSnapshotSQLite(sqlDB),
		Events:        NewEventSQLite(sqlDB),
		Auth:          NewUserRepository(sqlDB),
	}
}

// InitDB opens the SQLite database and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
