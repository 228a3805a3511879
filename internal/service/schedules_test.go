package service

import (
	"testing"

	"github.com/londondev77/thermostat-boost/internal/host"
)

func TestSchedulerSwitchesFor(t *testing.T) {
	states := host.NewStateStore()
	states.Set("switch.schedule_living_room", host.StateOn, map[string]any{"tags": []string{"Living_Room", "weekday"}})
	states.Set("switch.schedule_kitchen", host.StateOn, map[string]any{"tags": "kitchen"})
	states.Set("switch.schedule_hall", host.StateOn, map[string]any{"tags": []any{"hall", "daily"}})
	states.Set("switch.untagged", host.StateOn, nil)
	states.Set("switch.schedule_living_room_b", host.StateUnavailable, map[string]any{"tags": "living_room"})
	states.Set("climate.living_room", host.StateOn, map[string]any{"tags": "living_room"})

	got := SchedulerSwitchesFor(states, "living_room")
	if len(got) != 1 || got[0] != "switch.schedule_living_room" {
		t.Fatalf("unexpected matches: %v", got)
	}

	if got := SchedulerSwitchesFor(states, "kitchen"); len(got) != 1 || got[0] != "switch.schedule_kitchen" {
		t.Fatalf("single string tag should match: %v", got)
	}
	if got := SchedulerSwitchesFor(states, "hall"); len(got) != 1 || got[0] != "switch.schedule_hall" {
		t.Fatalf("[]any tag should match: %v", got)
	}
	if got := SchedulerSwitchesFor(states, "bedroom"); len(got) != 0 {
		t.Fatalf("expected no matches for bedroom, got %v", got)
	}
}

func TestSchedulerSwitchesFor_SubstringMatch(t *testing.T) {
	states := host.NewStateStore()
	states.Set("switch.sched", host.StateOff, map[string]any{"tags": "schedule-living_room-morning"})

	if got := SchedulerSwitchesFor(states, "living_room"); len(got) != 1 {
		t.Fatalf("substring of a tag should match, got %v", got)
	}
}
