package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/londondev77/thermostat-boost/internal/models"
)

// SchedulerSnapshotSQLite stores captured switch positions as a JSON object
// of entity_id -> "on"/"off". Parse/format happens here so the rest of the
// code only sees the SwitchState enum.
type SchedulerSnapshotSQLite struct {
	db *sql.DB
}

func NewSchedulerSnapshotSQLite(db *sql.DB) *SchedulerSnapshotSQLite {
	return &SchedulerSnapshotSQLite{db: db}
}

var _ SchedulerSnapshotRepo = (*SchedulerSnapshotSQLite)(nil)

const (
	upsertSchedulerSnapshotSQL = `
		INSERT INTO scheduler_snapshots (instance_id, entities)
		VALUES (?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET entities=excluded.entities
	`
	selectSchedulerSnapshotSQL = `SELECT entities FROM scheduler_snapshots WHERE instance_id = ?`
	deleteSchedulerSnapshotSQL = `DELETE FROM scheduler_snapshots WHERE instance_id = ?`
)

// Save writes a full replacement snapshot for the instance.
func (r *SchedulerSnapshotSQLite) Save(ctx context.Context, instanceID string, entities map[string]models.SwitchState) error {
	raw := make(map[string]string, len(entities))
	for id, st := range entities {
		raw[id] = st.String()
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal scheduler snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertSchedulerSnapshotSQL, instanceID, string(b))
	return err
}

// Get returns the snapshot for the instance, or false if none is stored.
func (r *SchedulerSnapshotSQLite) Get(ctx context.Context, instanceID string) (map[string]models.SwitchState, bool, error) {
	var blob string
	err := r.db.QueryRowContext(ctx, selectSchedulerSnapshotSQL, instanceID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, false, fmt.Errorf("unmarshal scheduler snapshot for %s: %w", instanceID, err)
	}
	out := make(map[string]models.SwitchState, len(raw))
	for id, s := range raw {
		st, err := models.ParseSwitchState(s)
		if err != nil {
			return nil, false, fmt.Errorf("scheduler snapshot for %s: %w", instanceID, err)
		}
		out[id] = st
	}
	return out, true, nil
}

// Delete removes the snapshot. No-op if none exists.
func (r *SchedulerSnapshotSQLite) Delete(ctx context.Context, instanceID string) error {
	_, err := r.db.ExecContext(ctx, deleteSchedulerSnapshotSQL, instanceID)
	return err
}

// TemperatureSnapshotSQLite stores the pre-boost target setpoint in °C.
type TemperatureSnapshotSQLite struct {
	db *sql.DB
}

func NewTemperatureSnapshotSQLite(db *sql.DB) *TemperatureSnapshotSQLite {
	return &TemperatureSnapshotSQLite{db: db}
}

var _ TemperatureSnapshotRepo = (*TemperatureSnapshotSQLite)(nil)

const (
	upsertTempSnapshotSQL = `
		INSERT INTO temperature_snapshots (instance_id, target_c)
		VALUES (?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET target_c=excluded.target_c
	`
	selectTempSnapshotSQL = `SELECT target_c FROM temperature_snapshots WHERE instance_id = ?`
	deleteTempSnapshotSQL = `DELETE FROM temperature_snapshots WHERE instance_id = ?`
)

func (r *TemperatureSnapshotSQLite) Save(ctx context.Context, instanceID string, targetC float64) error {
	_, err := r.db.ExecContext(ctx, upsertTempSnapshotSQL, instanceID, targetC)
	return err
}

func (r *TemperatureSnapshotSQLite) Get(ctx context.Context, instanceID string) (float64, bool, error) {
	var target float64
	err := r.db.QueryRowContext(ctx, selectTempSnapshotSQL, instanceID).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return target, true, nil
}

func (r *TemperatureSnapshotSQLite) Delete(ctx context.Context, instanceID string) error {
	_, err := r.db.ExecContext(ctx, deleteTempSnapshotSQL, instanceID)
	return err
}
