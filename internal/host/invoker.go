package host

import (
	"context"
	"fmt"

	"github.com/londondev77/thermostat-boost/internal/logger"
)

// LoopbackInvoker applies switch and climate operations directly to the
// in-memory state store. It stands in for a real home-automation backend so
// the service is fully observable end to end.
type LoopbackInvoker struct {
	states *StateStore
	log    *logger.Logger
}

func NewLoopbackInvoker(states *StateStore, log *logger.Logger) *LoopbackInvoker {
	return &LoopbackInvoker{states: states, log: log}
}

var _ Invoker = (*LoopbackInvoker)(nil)

func (i *LoopbackInvoker) Invoke(ctx context.Context, domain, operation string, targets []string, params map[string]any) error {
	switch {
	case domain == "switch" && operation == "turn_on":
		i.setAll(targets, StateOn)
	case domain == "switch" && operation == "turn_off":
		i.setAll(targets, StateOff)
	case domain == "climate" && operation == "set_temperature":
		temp, ok := params["temperature"]
		if !ok {
			return fmt.Errorf("set_temperature: missing temperature param")
		}
		for _, id := range targets {
			if st, known := i.states.Get(id); !known || !st.Usable() {
				return fmt.Errorf("set_temperature: entity %s unavailable", id)
			}
			i.states.SetAttribute(id, "temperature", temp)
		}
	default:
		return fmt.Errorf("unsupported operation %s.%s", domain, operation)
	}

	if i.log != nil {
		i.log.Debugw("operation_invoked", "domain", domain, "operation", operation, "targets", targets)
	}
	return nil
}

func (i *LoopbackInvoker) setAll(targets []string, state string) {
	for _, id := range targets {
		i.states.Set(id, state, nil)
	}
}
