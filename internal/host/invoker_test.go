package host

import (
	"context"
	"testing"
)

func TestLoopbackInvokerSwitchOps(t *testing.T) {
	s := NewStateStore()
	s.Set("switch.a", StateOn, nil)
	s.Set("switch.b", StateOn, nil)
	inv := NewLoopbackInvoker(s, nil)
	ctx := context.Background()

	if err := inv.Invoke(ctx, "switch", "turn_off", []string{"switch.a", "switch.b"}, nil); err != nil {
		t.Fatalf("turn_off: %v", err)
	}
	for _, id := range []string{"switch.a", "switch.b"} {
		if st, _ := s.Get(id); st.State != StateOff {
			t.Fatalf("%s: got %q, want off", id, st.State)
		}
	}

	if err := inv.Invoke(ctx, "switch", "turn_on", []string{"switch.a"}, nil); err != nil {
		t.Fatalf("turn_on: %v", err)
	}
	if st, _ := s.Get("switch.a"); st.State != StateOn {
		t.Fatalf("switch.a: got %q, want on", st.State)
	}
}

func TestLoopbackInvokerSetTemperature(t *testing.T) {
	s := NewStateStore()
	s.Set("climate.a", StateOn, map[string]any{"temperature": 20.0})
	inv := NewLoopbackInvoker(s, nil)
	ctx := context.Background()

	err := inv.Invoke(ctx, "climate", "set_temperature", []string{"climate.a"}, map[string]any{"temperature": 22.5})
	if err != nil {
		t.Fatalf("set_temperature: %v", err)
	}
	if st, _ := s.Get("climate.a"); st.Attributes["temperature"] != 22.5 {
		t.Fatalf("temperature not applied: %v", st.Attributes)
	}
}

func TestLoopbackInvokerSetTemperatureErrors(t *testing.T) {
	s := NewStateStore()
	s.Set("climate.a", StateUnavailable, nil)
	inv := NewLoopbackInvoker(s, nil)
	ctx := context.Background()

	if err := inv.Invoke(ctx, "climate", "set_temperature", []string{"climate.a"}, nil); err == nil {
		t.Fatalf("missing temperature param must error")
	}
	if err := inv.Invoke(ctx, "climate", "set_temperature", []string{"climate.a"}, map[string]any{"temperature": 21.0}); err == nil {
		t.Fatalf("unavailable entity must error")
	}
	if err := inv.Invoke(ctx, "light", "turn_on", []string{"light.a"}, nil); err == nil {
		t.Fatalf("unsupported operation must error")
	}
}
