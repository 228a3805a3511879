// Package host abstracts the platform capabilities the boost core consumes:
// a live entity state store, a service-invocation mechanism, a pub/sub event
// bus and cancellable delayed callbacks. In-memory implementations back the
// running binary; tests substitute fakes.
package host

import (
	"context"
	"time"
)

// Well-known entity state values.
const (
	StateOn          = "on"
	StateOff         = "off"
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// EntityState is the live value and attributes of one entity.
type EntityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Usable reports whether the state carries a meaningful value.
func (e EntityState) Usable() bool {
	return e.State != StateUnknown && e.State != StateUnavailable
}

// StateQuery reads the live state store.
type StateQuery interface {
	// Get returns the current state of an entity, or false if unknown to
	// the store.
	Get(entityID string) (EntityState, bool)
	// EntityIDs returns all known entity ids.
	EntityIDs() []string
}

// Invoker dispatches an operation to a target entity set, e.g.
// ("switch", "turn_off", [...ids]) or ("climate", "set_temperature", ...).
type Invoker interface {
	Invoke(ctx context.Context, domain, operation string, targets []string, params map[string]any) error
}

// EventBus is a minimal in-process topic bus. Subscribe returns a detach
// function; handlers run synchronously on Publish.
type EventBus interface {
	Publish(topic string, data map[string]any)
	Subscribe(topic string, handler func(data map[string]any)) (unsubscribe func())
}

// CancelFunc cancels a scheduled callback. Safe to call more than once.
type CancelFunc func()

// Delayer schedules cancellable delayed callbacks. The production
// implementation wraps time.AfterFunc; tests fire callbacks by hand.
type Delayer interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}
