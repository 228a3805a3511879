package service

import (
	"context"
	"strings"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
)

// ----------- Simulation constants -----------
const (
	approachCPerMin = 0.8 // °C per minute toward the setpoint while heating
	driftCPerMin    = 0.2 // °C per minute toward ambient otherwise
	simAmbientC     = 18.0
	simToleranceC   = 0.1
)

const climateDomainPrefix = "climate."

// ThermostatSimulator drifts the current_temperature of every climate entity
// toward its target setpoint, standing in for real hardware in local runs.
type ThermostatSimulator struct {
	states *host.StateStore
	log    *logger.Logger
}

func NewThermostatSimulator(states *host.StateStore, log *logger.Logger) *ThermostatSimulator {
	return &ThermostatSimulator{states: states, log: log}
}

// Run ticks at the given interval until ctx is canceled.
func (s *ThermostatSimulator) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			elapsedMin := now.Sub(last).Minutes()
			last = now
			if elapsedMin <= 0 {
				continue
			}
			s.step(elapsedMin)
		}
	}
}

// step advances every usable climate entity by elapsed minutes.
func (s *ThermostatSimulator) step(elapsedMin float64) {
	for _, entityID := range s.states.EntityIDs() {
		if !strings.HasPrefix(entityID, climateDomainPrefix) {
			continue
		}
		st, ok := s.states.Get(entityID)
		if !ok || !st.Usable() {
			continue
		}

		current, ok := toFloat(st.Attributes["current_temperature"])
		if !ok {
			current = simAmbientC
		}
		goal := simAmbientC
		rate := driftCPerMin
		if target, ok := toFloat(st.Attributes["temperature"]); ok && st.State == host.StateOn {
			goal = target
			if target > current {
				rate = approachCPerMin
			}
		}

		next := moveToward(current, goal, rate*elapsedMin)
		if absFloat(next-current) < simToleranceC {
			continue
		}
		s.states.SetAttribute(entityID, "current_temperature", next)
	}
}

func moveToward(current, goal, step float64) float64 {
	switch {
	case current < goal:
		if current+step > goal {
			return goal
		}
		return current + step
	case current > goal:
		if current-step < goal {
			return goal
		}
		return current - step
	default:
		return current
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
