package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockBoost struct {
	startErr    error
	finishErr   error
	startCalls  int
	finishCalls int

	lastStartID     string
	lastStartParams service.StartParams
	lastFinishID    string
}

func (m *mockBoost) Start(ctx context.Context, instanceID string, params service.StartParams) error {
	m.startCalls++
	m.lastStartID = instanceID
	m.lastStartParams = params
	return m.startErr
}
func (m *mockBoost) Finish(ctx context.Context, instanceID string, expiredWhileOffline bool) error {
	m.finishCalls++
	m.lastFinishID = instanceID
	return m.finishErr
}

type mockInstances struct {
	created     models.BoostInstance
	createErr   error
	list        []models.BoostInstance
	listErr     error
	detail      service.InstanceDetail
	describeErr error
	removeErr   error
	controls    models.InstanceControls
	controlsErr error
	flags       models.InstanceFlags
	flagsErr    error

	lastRemoveID    string
	lastSetControls models.InstanceControls
	lastSetFlags    models.InstanceFlags
	unloaded        []string
}

func (m *mockInstances) Create(ctx context.Context, ref, name string) (models.BoostInstance, error) {
	return m.created, m.createErr
}
func (m *mockInstances) List(ctx context.Context) ([]models.BoostInstance, error) {
	return m.list, m.listErr
}
func (m *mockInstances) Describe(ctx context.Context, id string) (service.InstanceDetail, error) {
	return m.detail, m.describeErr
}
func (m *mockInstances) Remove(ctx context.Context, id string) error {
	m.lastRemoveID = id
	return m.removeErr
}
func (m *mockInstances) Unload(id string) { m.unloaded = append(m.unloaded, id) }
func (m *mockInstances) GetControls(ctx context.Context, id string) (models.InstanceControls, error) {
	return m.controls, m.controlsErr
}
func (m *mockInstances) SetControls(ctx context.Context, id string, c models.InstanceControls) error {
	m.lastSetControls = c
	return m.controlsErr
}
func (m *mockInstances) GetFlags(ctx context.Context, id string) (models.InstanceFlags, error) {
	return m.flags, m.flagsErr
}
func (m *mockInstances) SetFlags(ctx context.Context, id string, f models.InstanceFlags) error {
	m.lastSetFlags = f
	return m.flagsErr
}

type mockMonitoring struct {
	snap     models.TimerSnapshot
	snapErr  error
	timer    *service.BoostTimer
	timerErr error
	entities map[string]host.EntityState
}

func (m *mockMonitoring) TimerState(ctx context.Context, instanceID string) (models.TimerSnapshot, error) {
	return m.snap, m.snapErr
}
func (m *mockMonitoring) Timer(ctx context.Context, instanceID string) (*service.BoostTimer, error) {
	return m.timer, m.timerErr
}
func (m *mockMonitoring) Entity(entityID string) (host.EntityState, bool) {
	st, ok := m.entities[entityID]
	return st, ok
}
func (m *mockMonitoring) Entities() []string {
	ids := make([]string, 0, len(m.entities))
	for id := range m.entities {
		ids = append(ids, id)
	}
	return ids
}
func (m *mockMonitoring) SetEntity(entityID, state string, attributes map[string]any) {
	if m.entities == nil {
		m.entities = make(map[string]host.EntityState)
	}
	m.entities[entityID] = host.EntityState{State: state, Attributes: attributes}
}

type mockEventLog struct {
	resp     []models.BoostEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.BoostEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, logger.Get(logger.ErrorLevel))
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
