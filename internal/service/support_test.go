package service

import (
	"context"
	"sync"
	"time"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/models"
)

// testLog returns the shared logger at error level so test output stays quiet.
func testLog() *logger.Logger {
	return logger.Get(logger.ErrorLevel)
}

// ---- manual delayer ----

// manualDelayer captures scheduled callbacks so tests fire them explicitly
// instead of sleeping.
type manualDelayer struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]scheduledCall
}

type scheduledCall struct {
	delay time.Duration
	fn    func()
}

func newManualDelayer() *manualDelayer {
	return &manualDelayer{pending: make(map[int]scheduledCall)}
}

var _ host.Delayer = (*manualDelayer)(nil)

func (d *manualDelayer) AfterFunc(delay time.Duration, fn func()) host.CancelFunc {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.pending[id] = scheduledCall{delay: delay, fn: fn}
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
	}
}

// fireAll runs every pending callback once, in scheduling order.
func (d *manualDelayer) fireAll() {
	d.mu.Lock()
	calls := make([]scheduledCall, 0, len(d.pending))
	for id := 0; id < d.nextID; id++ {
		if c, ok := d.pending[id]; ok {
			calls = append(calls, c)
			delete(d.pending, id)
		}
	}
	d.mu.Unlock()

	for _, c := range calls {
		c.fn()
	}
}

func (d *manualDelayer) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// ---- fake repositories ----

type fakeTimerRepo struct {
	mu      sync.Mutex
	ends    map[string]time.Time
	failSet error
	loads   int
}

func newFakeTimerRepo() *fakeTimerRepo {
	return &fakeTimerRepo{ends: make(map[string]time.Time)}
}

func (r *fakeTimerRepo) LoadAll(ctx context.Context) (map[string]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	out := make(map[string]time.Time, len(r.ends))
	for k, v := range r.ends {
		out[k] = v
	}
	return out, nil
}

func (r *fakeTimerRepo) SetEnd(ctx context.Context, instanceID string, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return r.failSet
	}
	r.ends[instanceID] = end.UTC()
	return nil
}

func (r *fakeTimerRepo) ClearEnd(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return r.failSet
	}
	delete(r.ends, instanceID)
	return nil
}

func (r *fakeTimerRepo) end(instanceID string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.ends[instanceID]
	return t, ok
}

type fakeInstanceRepo struct {
	mu        sync.Mutex
	instances map[string]models.BoostInstance
	controls  map[string]models.InstanceControls
	flags     map[string]models.InstanceFlags

	// getHook, when set, runs at the top of Get. Lets a test hold a caller
	// mid-operation to overlap it with another.
	getHook func(id string)
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{
		instances: make(map[string]models.BoostInstance),
		controls:  make(map[string]models.InstanceControls),
		flags:     make(map[string]models.InstanceFlags),
	}
}

func (r *fakeInstanceRepo) Create(ctx context.Context, inst models.BoostInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[inst.ID] = inst
	return nil
}

func (r *fakeInstanceRepo) Get(ctx context.Context, id string) (models.BoostInstance, bool, error) {
	if hook := r.getHook; hook != nil {
		hook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	return inst, ok, nil
}

func (r *fakeInstanceRepo) List(ctx context.Context) ([]models.BoostInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.BoostInstance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst)
	}
	return out, nil
}

func (r *fakeInstanceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, id)
	delete(r.controls, id)
	delete(r.flags, id)
	return nil
}

func (r *fakeInstanceRepo) GetControls(ctx context.Context, id string) (models.InstanceControls, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controls[id], nil
}

func (r *fakeInstanceRepo) SetControls(ctx context.Context, id string, c models.InstanceControls) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controls[id] = c
	return nil
}

func (r *fakeInstanceRepo) GetFlags(ctx context.Context, id string) (models.InstanceFlags, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flags[id], nil
}

func (r *fakeInstanceRepo) SetFlags(ctx context.Context, id string, f models.InstanceFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[id] = f
	return nil
}

func (r *fakeInstanceRepo) seed(inst models.BoostInstance, c models.InstanceControls, f models.InstanceFlags) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[inst.ID] = inst
	r.controls[inst.ID] = c
	r.flags[inst.ID] = f
}

type fakeSchedulerSnapRepo struct {
	mu    sync.Mutex
	snaps map[string]map[string]models.SwitchState
}

func newFakeSchedulerSnapRepo() *fakeSchedulerSnapRepo {
	return &fakeSchedulerSnapRepo{snaps: make(map[string]map[string]models.SwitchState)}
}

func (r *fakeSchedulerSnapRepo) Save(ctx context.Context, instanceID string, entities map[string]models.SwitchState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]models.SwitchState, len(entities))
	for k, v := range entities {
		cp[k] = v
	}
	r.snaps[instanceID] = cp
	return nil
}

func (r *fakeSchedulerSnapRepo) Get(ctx context.Context, instanceID string) (map[string]models.SwitchState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snaps[instanceID]
	return s, ok, nil
}

func (r *fakeSchedulerSnapRepo) Delete(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, instanceID)
	return nil
}

type fakeTempSnapRepo struct {
	mu    sync.Mutex
	snaps map[string]float64
}

func newFakeTempSnapRepo() *fakeTempSnapRepo {
	return &fakeTempSnapRepo{snaps: make(map[string]float64)}
}

func (r *fakeTempSnapRepo) Save(ctx context.Context, instanceID string, targetC float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps[instanceID] = targetC
	return nil
}

func (r *fakeTempSnapRepo) Get(ctx context.Context, instanceID string) (float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.snaps[instanceID]
	return v, ok, nil
}

func (r *fakeTempSnapRepo) Delete(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, instanceID)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.BoostEvent

	lastFrom time.Time
	lastTo   time.Time
	lastType string
	listErr  error
}

func (r *fakeEventRepo) Append(ctx context.Context, e models.BoostEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.BoostEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFrom, r.lastTo, r.lastType = from, to, typ
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.BoostEvent, 0, len(r.events))
	for _, e := range r.events {
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEventRepo) ofType(typ string) []models.BoostEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BoostEvent
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// ---- recording invoker ----

type invocation struct {
	domain    string
	operation string
	targets   []string
	params    map[string]any
}

// recordingInvoker records operations and optionally applies them to a state
// store, so restores are observable end to end. failNext makes the next call
// fail once.
type recordingInvoker struct {
	mu       sync.Mutex
	calls    []invocation
	states   *host.StateStore
	failNext error
}

var _ host.Invoker = (*recordingInvoker)(nil)

func (i *recordingInvoker) Invoke(ctx context.Context, domain, operation string, targets []string, params map[string]any) error {
	i.mu.Lock()
	if err := i.failNext; err != nil {
		i.failNext = nil
		i.mu.Unlock()
		return err
	}
	i.calls = append(i.calls, invocation{domain: domain, operation: operation, targets: targets, params: params})
	states := i.states
	i.mu.Unlock()

	if states == nil {
		return nil
	}
	switch {
	case domain == "switch" && operation == "turn_on":
		for _, id := range targets {
			states.Set(id, host.StateOn, nil)
		}
	case domain == "switch" && operation == "turn_off":
		for _, id := range targets {
			states.Set(id, host.StateOff, nil)
		}
	case domain == "climate" && operation == "set_temperature":
		for _, id := range targets {
			states.SetAttribute(id, "temperature", params["temperature"])
		}
	}
	return nil
}

func (i *recordingInvoker) callsFor(domain, operation string) []invocation {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []invocation
	for _, c := range i.calls {
		if c.domain == domain && c.operation == operation {
			out = append(out, c)
		}
	}
	return out
}
