package host

import (
	"reflect"
	"testing"
)

func TestStateStoreSetNilAttributesKeepsPrevious(t *testing.T) {
	s := NewStateStore()
	s.Set("switch.a", StateOn, map[string]any{"tags": []string{"living_room"}})

	s.Set("switch.a", StateOff, nil)

	st, ok := s.Get("switch.a")
	if !ok || st.State != StateOff {
		t.Fatalf("unexpected state: ok=%v st=%+v", ok, st)
	}
	if _, kept := st.Attributes["tags"]; !kept {
		t.Fatalf("nil attributes must keep previous metadata: %+v", st.Attributes)
	}
}

func TestStateStoreSetAttributePreservesRest(t *testing.T) {
	s := NewStateStore()
	s.Set("climate.a", StateOn, map[string]any{"temperature": 20.0, "current_temperature": 19.5})

	s.SetAttribute("climate.a", "temperature", 22.5)

	st, _ := s.Get("climate.a")
	if st.Attributes["temperature"] != 22.5 {
		t.Fatalf("attribute not updated: %v", st.Attributes)
	}
	if st.Attributes["current_temperature"] != 19.5 {
		t.Fatalf("other attributes must survive: %v", st.Attributes)
	}
}

func TestStateStoreSetAttributeDoesNotMutateReadSnapshot(t *testing.T) {
	s := NewStateStore()
	s.Set("climate.a", StateOn, map[string]any{"temperature": 20.0})

	before, _ := s.Get("climate.a")
	s.SetAttribute("climate.a", "temperature", 25.0)

	if before.Attributes["temperature"] != 20.0 {
		t.Fatalf("earlier read mutated by later write: %v", before.Attributes)
	}
}

func TestStateStoreEntityIDsSorted(t *testing.T) {
	s := NewStateStore()
	s.Set("switch.b", StateOn, nil)
	s.Set("climate.a", StateOn, nil)
	s.Set("switch.a", StateOff, nil)

	got := s.EntityIDs()
	want := []string{"climate.a", "switch.a", "switch.b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ids: got %v, want %v", got, want)
	}
}

func TestStateStoreRemove(t *testing.T) {
	s := NewStateStore()
	s.Set("switch.a", StateOn, nil)
	s.Remove("switch.a")
	if _, ok := s.Get("switch.a"); ok {
		t.Fatalf("removed entity still present")
	}
}

func TestEntityStateUsable(t *testing.T) {
	cases := []struct {
		state string
		want  bool
	}{
		{StateOn, true},
		{StateOff, true},
		{"heat", true},
		{StateUnknown, false},
		{StateUnavailable, false},
	}
	for _, tc := range cases {
		if got := (EntityState{State: tc.state}).Usable(); got != tc.want {
			t.Fatalf("Usable(%q): got %v, want %v", tc.state, got, tc.want)
		}
	}
}
