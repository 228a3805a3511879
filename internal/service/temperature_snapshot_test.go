package service

import (
	"context"
	"errors"
	"testing"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/models"
)

type tempFixture struct {
	repo    *fakeTempSnapRepo
	flags   *fakeInstanceRepo
	states  *host.StateStore
	invoker *recordingInvoker
	pending *PendingTracker
	delayer *manualDelayer
	svc     *TemperatureSnapshotService
}

func newTempFixture(unit string) *tempFixture {
	f := &tempFixture{
		repo:    newFakeTempSnapRepo(),
		flags:   newFakeInstanceRepo(),
		states:  host.NewStateStore(),
		delayer: newManualDelayer(),
	}
	f.invoker = &recordingInvoker{states: f.states}
	f.pending = NewPendingTracker(f.delayer)
	f.svc = NewTemperatureSnapshotService(f.repo, f.flags, f.states, f.invoker, f.pending, testLog(), unit)
	f.flags.seed(models.BoostInstance{ID: "i1"}, models.InstanceControls{}, models.InstanceFlags{})
	return f
}

func TestTemperatureSnapshot_CaptureStoresCurrentTarget(t *testing.T) {
	f := newTempFixture(UnitCelsius)
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 19.5})

	got, err := f.svc.Capture(context.Background(), "i1", "climate.living_room")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got == nil || *got != 19.5 {
		t.Fatalf("unexpected captured value: %v", got)
	}
	if v, ok, _ := f.repo.Get(context.Background(), "i1"); !ok || v != 19.5 {
		t.Fatalf("stored snapshot: ok=%v v=%v", ok, v)
	}
}

func TestTemperatureSnapshot_CaptureConvertsFromDisplayUnit(t *testing.T) {
	f := newTempFixture(UnitFahrenheit)
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 68.0})

	got, err := f.svc.Capture(context.Background(), "i1", "climate.living_room")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got == nil || *got != 20 {
		t.Fatalf("expected 68F stored as 20C, got %v", got)
	}
}

func TestTemperatureSnapshot_CaptureUnavailableThermostatStoresNothing(t *testing.T) {
	f := newTempFixture(UnitCelsius)
	f.states.Set("climate.living_room", host.StateUnavailable, map[string]any{"temperature": 19.5})

	got, err := f.svc.Capture(context.Background(), "i1", "climate.living_room")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no capture, got %v", *got)
	}
	if _, ok, _ := f.repo.Get(context.Background(), "i1"); ok {
		t.Fatalf("no snapshot should be stored")
	}
}

func TestTemperatureSnapshot_RestoreSetsTargetAndConsumes(t *testing.T) {
	f := newTempFixture(UnitCelsius)
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 25.0})
	_ = f.repo.Save(context.Background(), "i1", 19.5)

	if err := f.svc.Restore(context.Background(), "i1", "climate.living_room", false); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	calls := f.invoker.callsFor("climate", "set_temperature")
	if len(calls) != 1 || calls[0].params["temperature"] != 19.5 {
		t.Fatalf("unexpected set_temperature calls: %+v", calls)
	}
	if _, ok, _ := f.repo.Get(context.Background(), "i1"); ok {
		t.Fatalf("restore must consume the snapshot")
	}
}

func TestTemperatureSnapshot_RestoreConvertsToDisplayUnit(t *testing.T) {
	f := newTempFixture(UnitFahrenheit)
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 77.0})
	_ = f.repo.Save(context.Background(), "i1", 20)

	if err := f.svc.Restore(context.Background(), "i1", "climate.living_room", false); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	calls := f.invoker.callsFor("climate", "set_temperature")
	if len(calls) != 1 || calls[0].params["temperature"] != 68.0 {
		t.Fatalf("expected 20C sent as 68F, got %+v", calls)
	}
}

func TestTemperatureSnapshot_RestoreDefersWhileThermostatUnavailable(t *testing.T) {
	f := newTempFixture(UnitCelsius)
	f.states.Set("climate.living_room", host.StateUnavailable, nil)
	_ = f.repo.Save(context.Background(), "i1", 19.5)

	if err := f.svc.Restore(context.Background(), "i1", "climate.living_room", true); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !f.pending.Pending("i1", PendingTemperatureRestore) {
		t.Fatalf("expected a deferred temperature restore")
	}
	if _, ok, _ := f.repo.Get(context.Background(), "i1"); !ok {
		t.Fatalf("deferred restore must keep the snapshot")
	}

	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 25.0})
	f.delayer.fireAll()

	if _, ok, _ := f.repo.Get(context.Background(), "i1"); ok {
		t.Fatalf("retry should consume the snapshot")
	}
	if calls := f.invoker.callsFor("climate", "set_temperature"); len(calls) != 1 {
		t.Fatalf("expected the retried set_temperature, got %+v", calls)
	}
}

func TestTemperatureSnapshot_RestoreDefersOnSetFailure(t *testing.T) {
	f := newTempFixture(UnitCelsius)
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 25.0})
	_ = f.repo.Save(context.Background(), "i1", 19.5)
	f.invoker.failNext = errors.New("backend down")

	if err := f.svc.Restore(context.Background(), "i1", "climate.living_room", false); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !f.pending.Pending("i1", PendingTemperatureRestore) {
		t.Fatalf("failed set should defer the restore")
	}
	if _, ok, _ := f.repo.Get(context.Background(), "i1"); !ok {
		t.Fatalf("failed restore must keep the snapshot")
	}
}

func TestTemperatureSnapshot_RestoreAbandonedWhileBoostActive(t *testing.T) {
	f := newTempFixture(UnitCelsius)
	f.flags.seed(models.BoostInstance{ID: "i1"}, models.InstanceControls{}, models.InstanceFlags{BoostActive: true})
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 25.0})
	_ = f.repo.Save(context.Background(), "i1", 19.5)

	if err := f.svc.Restore(context.Background(), "i1", "climate.living_room", false); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(f.invoker.callsFor("climate", "set_temperature")) != 0 {
		t.Fatalf("active boost must abandon the restore")
	}
	if _, ok, _ := f.repo.Get(context.Background(), "i1"); !ok {
		t.Fatalf("abandoned restore must keep the snapshot")
	}
}

func TestTemperatureSnapshot_RestoreProceedsDespiteOverride(t *testing.T) {
	// Schedule override suppresses scheduler interaction only; the setpoint
	// still comes back.
	f := newTempFixture(UnitCelsius)
	f.flags.seed(models.BoostInstance{ID: "i1"}, models.InstanceControls{}, models.InstanceFlags{ScheduleOverride: true})
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 25.0})
	_ = f.repo.Save(context.Background(), "i1", 19.5)

	if err := f.svc.Restore(context.Background(), "i1", "climate.living_room", false); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(f.invoker.callsFor("climate", "set_temperature")) != 1 {
		t.Fatalf("override must not block the temperature restore")
	}
}

func TestTemperatureSnapshot_RestoreWithoutSnapshotIsNoop(t *testing.T) {
	f := newTempFixture(UnitCelsius)
	f.states.Set("climate.living_room", host.StateOn, map[string]any{"temperature": 25.0})

	if err := f.svc.Restore(context.Background(), "i1", "climate.living_room", false); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(f.invoker.callsFor("climate", "set_temperature")) != 0 {
		t.Fatalf("no snapshot means no set_temperature")
	}
}
