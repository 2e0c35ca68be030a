package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"zone_scheduler/internal/models"
	"zone_scheduler/internal/service"
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

type mockSchedules struct {
	schedule models.Schedule
	list     []models.Schedule
	deleted  bool
	err      error

	lastZone   string
	lastID     string
	lastAdd    service.AddParams
	lastPatch  service.SchedulePatch
	lastToggle *bool
	lastUser   int
	calls      int
}

func (m *mockSchedules) Add(ctx context.Context, zone string, p service.AddParams) (models.Schedule, error) {
	m.calls++
	m.lastZone, m.lastAdd = zone, p
	m.lastUser, _ = service.UserIDFrom(ctx)
	return m.schedule, m.err
}
func (m *mockSchedules) Update(ctx context.Context, zone, id string, p service.SchedulePatch) (models.Schedule, error) {
	m.calls++
	m.lastZone, m.lastID, m.lastPatch = zone, id, p
	return m.schedule, m.err
}
func (m *mockSchedules) Delete(ctx context.Context, zone, id string) (bool, error) {
	m.calls++
	m.lastZone, m.lastID = zone, id
	return m.deleted, m.err
}
func (m *mockSchedules) Toggle(ctx context.Context, zone, id string, enabled bool) (models.Schedule, error) {
	m.calls++
	m.lastZone, m.lastID, m.lastToggle = zone, id, &enabled
	return m.schedule, m.err
}
func (m *mockSchedules) List(zone string) []models.Schedule {
	m.lastZone = zone
	return m.list
}

type mockHolds struct {
	hold    models.Hold
	cleared bool
	err     error

	lastZone   string
	lastParams service.HoldParams
	lastUser   int
	calls      int
}

func (m *mockHolds) SetHold(ctx context.Context, zone string, p service.HoldParams) (models.Hold, error) {
	m.calls++
	m.lastZone, m.lastParams = zone, p
	m.lastUser, _ = service.UserIDFrom(ctx)
	return m.hold, m.err
}
func (m *mockHolds) ClearHold(ctx context.Context, zone string) (bool, error) {
	m.calls++
	m.lastZone = zone
	return m.cleared, m.err
}
func (m *mockHolds) ActiveHold(zone string) (models.Hold, bool) {
	return m.hold, m.hold.Mode != ""
}

type mockSetpoints struct {
	zones     []string
	snapshots map[string]models.ZoneSnapshot
	effective *models.Setpoint
	next      *models.NextSetpoint
}

func (m *mockSetpoints) Zones() []string { return m.zones }
func (m *mockSetpoints) Snapshot(zone string) models.ZoneSnapshot {
	if s, ok := m.snapshots[zone]; ok {
		return s
	}
	return models.ZoneSnapshot{ZoneID: zone, Schedules: []models.Schedule{}}
}
func (m *mockSetpoints) CurrentMatch(zone string) (models.Schedule, bool) {
	return models.Schedule{}, false
}
func (m *mockSetpoints) EffectiveSetpoint(zone string) (models.Setpoint, bool) {
	if m.effective == nil {
		return models.Setpoint{}, false
	}
	return *m.effective, true
}
func (m *mockSetpoints) NextSetpoint(zone string) (models.NextSetpoint, bool) {
	if m.next == nil {
		return models.NextSetpoint{}, false
	}
	return *m.next, true
}

type mockEvaluator struct {
	current *models.Setpoint
}

func (m *mockEvaluator) Run(ctx context.Context, tick time.Duration) {}
func (m *mockEvaluator) Current(zone string) (models.Setpoint, bool) {
	if m.current == nil {
		return models.Setpoint{}, false
	}
	return *m.current, true
}

type mockEventLog struct {
	resp     []models.Event
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
	lastZone string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastZone = f.ZoneID
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
