package models

import (
	"fmt"
	"time"
)

// BoostInstance is one configured thermostat. The thermostat name is used for
// tag-matching against scheduler switches.
type BoostInstance struct {
	ID             string    `json:"id"`
	ThermostatRef  string    `json:"thermostat_ref"`
	ThermostatName string    `json:"thermostat_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// InstanceControls are the user-facing boost inputs, persisted per instance.
// They provide the defaults when a boost is started without explicit values.
type InstanceControls struct {
	BoostTempC    *float64 `json:"boost_temp_c,omitempty"`
	DurationHours float64  `json:"duration_hours"`
}

// InstanceFlags are the persisted toggles consumed by the orchestrator.
// BoostActive marks a running boost session; ScheduleOverride suppresses all
// scheduler snapshot/restore interaction.
type InstanceFlags struct {
	BoostActive      bool `json:"boost_active"`
	ScheduleOverride bool `json:"schedule_override"`
}

// Timer status values.
const (
	TimerIdle   = "idle"
	TimerActive = "active"
)

// TimerSnapshot is the read model of a boost timer.
type TimerSnapshot struct {
	RemainingSeconds float64    `json:"remaining_seconds"`
	Status           string     `json:"status"` // idle | active
	End              *time.Time `json:"end,omitempty"`
}

// BoostEvent is a single entry in the boost event log.
type BoostEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // BOOST_STARTED | BOOST_FINISHED | ...
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// Event log types.
const (
	EventBoostStarted        = "BOOST_STARTED"
	EventBoostFinished       = "BOOST_FINISHED"
	EventRestoreDeferred     = "RESTORE_DEFERRED"
	EventTimerExpiredOffline = "TIMER_EXPIRED_OFFLINE"
	EventInstanceCreated     = "INSTANCE_CREATED"
	EventInstanceRemoved     = "INSTANCE_REMOVED"
)

// SwitchState is the captured on/off position of a scheduler switch.
type SwitchState uint8

const (
	SwitchOff SwitchState = iota
	SwitchOn
)

// String formats the state for storage ("on"/"off").
func (s SwitchState) String() string {
	if s == SwitchOn {
		return "on"
	}
	return "off"
}

// ParseSwitchState parses a stored state string. Anything other than
// "on"/"off" is rejected so corrupt snapshots surface instead of silently
// restoring the wrong position.
func ParseSwitchState(raw string) (SwitchState, error) {
	switch raw {
	case "on":
		return SwitchOn, nil
	case "off":
		return SwitchOff, nil
	default:
		return SwitchOff, fmt.Errorf("invalid switch state %q", raw)
	}
}
