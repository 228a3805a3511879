package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/londondev77/thermostat-boost/internal/models"
)

type InstanceSQLite struct {
	db *sql.DB
}

func NewInstanceSQLite(db *sql.DB) *InstanceSQLite {
	return &InstanceSQLite{db: db}
}

var _ InstanceRepo = (*InstanceSQLite)(nil)

const (
	insertInstanceSQL = `
		INSERT INTO boost_instances (id, thermostat_ref, thermostat_name, created_at)
		VALUES (?, ?, ?, ?)
	`
	selectInstanceSQL = `
		SELECT id, thermostat_ref, thermostat_name, created_at
		FROM boost_instances WHERE id = ?
	`
	listInstancesSQL = `
		SELECT id, thermostat_ref, thermostat_name, created_at
		FROM boost_instances ORDER BY created_at ASC
	`
	deleteInstanceSQL = `DELETE FROM boost_instances WHERE id = ?`

	selectControlsSQL = `SELECT boost_temp_c, duration_hours FROM boost_instances WHERE id = ?`
	updateControlsSQL = `UPDATE boost_instances SET boost_temp_c = ?, duration_hours = ? WHERE id = ?`

	selectFlagsSQL = `SELECT boost_active, schedule_override FROM boost_instances WHERE id = ?`
	updateFlagsSQL = `UPDATE boost_instances SET boost_active = ?, schedule_override = ? WHERE id = ?`
)

// ErrInstanceRowMissing is returned when controls/flags are read or written
// for an instance that does not exist.
var ErrInstanceRowMissing = errors.New("boost instance not found")

func (r *InstanceSQLite) Create(ctx context.Context, inst models.BoostInstance) error {
	created := inst.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertInstanceSQL,
		inst.ID, inst.ThermostatRef, inst.ThermostatName, created.UTC())
	return err
}

func (r *InstanceSQLite) Get(ctx context.Context, id string) (models.BoostInstance, bool, error) {
	var inst models.BoostInstance
	err := r.db.QueryRowContext(ctx, selectInstanceSQL, id).Scan(
		&inst.ID, &inst.ThermostatRef, &inst.ThermostatName, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BoostInstance{}, false, nil
	}
	if err != nil {
		return models.BoostInstance{}, false, err
	}
	inst.CreatedAt = inst.CreatedAt.UTC()
	return inst, true, nil
}

func (r *InstanceSQLite) List(ctx context.Context) ([]models.BoostInstance, error) {
	rows, err := r.db.QueryContext(ctx, listInstancesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.BoostInstance, 0, 8)
	for rows.Next() {
		var inst models.BoostInstance
		if err := rows.Scan(&inst.ID, &inst.ThermostatRef, &inst.ThermostatName, &inst.CreatedAt); err != nil {
			return nil, err
		}
		inst.CreatedAt = inst.CreatedAt.UTC()
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (r *InstanceSQLite) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, deleteInstanceSQL, id)
	return err
}

func (r *InstanceSQLite) GetControls(ctx context.Context, id string) (models.InstanceControls, error) {
	var c models.InstanceControls
	var temp sql.NullFloat64
	err := r.db.QueryRowContext(ctx, selectControlsSQL, id).Scan(&temp, &c.DurationHours)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InstanceControls{}, ErrInstanceRowMissing
	}
	if err != nil {
		return models.InstanceControls{}, err
	}
	if temp.Valid {
		c.BoostTempC = &temp.Float64
	}
	return c, nil
}

func (r *InstanceSQLite) SetControls(ctx context.Context, id string, c models.InstanceControls) error {
	var temp sql.NullFloat64
	if c.BoostTempC != nil {
		temp = sql.NullFloat64{Float64: *c.BoostTempC, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, updateControlsSQL, temp, c.DurationHours, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *InstanceSQLite) GetFlags(ctx context.Context, id string) (models.InstanceFlags, error) {
	var f models.InstanceFlags
	err := r.db.QueryRowContext(ctx, selectFlagsSQL, id).Scan(&f.BoostActive, &f.ScheduleOverride)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InstanceFlags{}, ErrInstanceRowMissing
	}
	if err != nil {
		return models.InstanceFlags{}, err
	}
	return f, nil
}

func (r *InstanceSQLite) SetFlags(ctx context.Context, id string, f models.InstanceFlags) error {
	res, err := r.db.ExecContext(ctx, updateFlagsSQL, f.BoostActive, f.ScheduleOverride, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps zero affected rows to ErrInstanceRowMissing.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInstanceRowMissing
	}
	return nil
}
