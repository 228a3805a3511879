package repository

import (
	"context"
	"database/sql"
	"time"
)

type TimerSQLite struct {
	db *sql.DB
}

func NewTimerSQLite(db *sql.DB) *TimerSQLite {
	return &TimerSQLite{db: db}
}

var _ TimerRepo = (*TimerSQLite)(nil)

const (
	selectTimerEndsSQL = `SELECT instance_id, end_at FROM boost_timers`

	upsertTimerEndSQL = `
		INSERT INTO boost_timers (instance_id, end_at)
		VALUES (?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET end_at=excluded.end_at
	`

	deleteTimerEndSQL = `DELETE FROM boost_timers WHERE instance_id = ?`
)

// LoadAll returns every persisted end time, keyed by instance id.
func (r *TimerSQLite) LoadAll(ctx context.Context) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, selectTimerEndsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var end time.Time
		if err := rows.Scan(&id, &end); err != nil {
			return nil, err
		}
		out[id] = end.UTC()
	}
	return out, rows.Err()
}

// SetEnd upserts the end time for an instance, always stored as UTC.
func (r *TimerSQLite) SetEnd(ctx context.Context, instanceID string, end time.Time) error {
	_, err := r.db.ExecContext(ctx, upsertTimerEndSQL, instanceID, end.UTC())
	return err
}

// ClearEnd removes the persisted end time. No-op if none exists.
func (r *TimerSQLite) ClearEnd(ctx context.Context, instanceID string) error {
	_, err := r.db.ExecContext(ctx, deleteTimerEndSQL, instanceID)
	return err
}
