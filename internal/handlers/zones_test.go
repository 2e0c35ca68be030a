package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zone_scheduler/internal/models"
	"zone_scheduler/internal/service"
)

func doJSON(t *testing.T, s *service.Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestZoneRoutes_RequireAuth(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}, Setpoints: &mockSetpoints{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("zone_scheduler_up 1\n"))
	})
	r := NewHandler(&service.Service{}, nil, metrics, nil).InitRoutes()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.String() != "zone_scheduler_up 1\n" {
		t.Fatalf("metrics status=%d body=%q", w.Code, w.Body.String())
	}

	// without a metrics handler the route does not exist
	w = httptest.NewRecorder()
	newTestRouter(&service.Service{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics handler, got %d", w.Code)
	}
}

func TestZoneHandlers_ReadEndpoints(t *testing.T) {
	next := models.NextSetpoint{Time: time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), Temperature: 72, ScheduleID: "b", Name: "Evening"}
	sp := models.Setpoint{Temperature: 95, Source: models.SourceHold}
	applied := models.Setpoint{Temperature: 90, Source: models.SourceHold, Clamped: true}
	points := &mockSetpoints{
		zones: []string{"bedroom", "living"},
		snapshots: map[string]models.ZoneSnapshot{
			"living": {ZoneID: "living", Schedules: []models.Schedule{{ID: "a", Time: "07:00"}}, Effective: &sp},
		},
		effective: &sp,
		next:      &next,
	}
	s := &service.Service{
		Authorization: &mockAuth{parseID: 1},
		Setpoints:     points,
		Schedules:     &mockSchedules{list: []models.Schedule{{ID: "a"}, {ID: "b", Enabled: false}}},
		Evaluator:     &mockEvaluator{current: &applied},
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/zones", "")
	if w.Code != http.StatusOK {
		t.Fatalf("zones status=%d body=%s", w.Code, w.Body.String())
	}
	var zones struct {
		Count int                   `json:"count"`
		Zones []models.ZoneSnapshot `json:"zones"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &zones)
	if zones.Count != 2 || zones.Zones[1].ZoneID != "living" || len(zones.Zones[1].Schedules) != 1 {
		t.Fatalf("unexpected zones: %+v", zones)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/zones/living", "")
	var snap models.ZoneSnapshot
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if w.Code != http.StatusOK || snap.Effective == nil || snap.Effective.Temperature != 95 {
		t.Fatalf("zone status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/zones/living/schedules", "")
	var list struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || list.Count != 2 {
		t.Fatalf("schedules status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/zones/living/setpoint", "")
	var setpoint struct {
		ZoneID   string          `json:"zone_id"`
		Setpoint models.Setpoint `json:"setpoint"`
		Applied  models.Setpoint `json:"applied"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &setpoint)
	if w.Code != http.StatusOK || setpoint.Setpoint != sp || setpoint.Applied != applied {
		t.Fatalf("setpoint status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/zones/living/next", "")
	var gotNext models.NextSetpoint
	_ = json.Unmarshal(w.Body.Bytes(), &gotNext)
	if w.Code != http.StatusOK || !gotNext.Time.Equal(next.Time) || gotNext.ScheduleID != "b" {
		t.Fatalf("next status=%d body=%s", w.Code, w.Body.String())
	}

	points.effective, points.next = nil, nil
	if w := doJSON(t, s, http.MethodGet, "/api/v1/zones/living/setpoint", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without setpoint, got %d", w.Code)
	}
	if w := doJSON(t, s, http.MethodGet, "/api/v1/zones/living/next", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without next, got %d", w.Code)
	}
}

func TestScheduleHandlers_AddPassesParams(t *testing.T) {
	sched := &mockSchedules{schedule: models.Schedule{ID: "abc", Time: "07:00", Temperature: 68, Enabled: true}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Schedules: sched}

	w := doJSON(t, s, http.MethodPost, "/api/v1/zones/living/schedules", `{"weekdays":["Monday"],"time":"7:00","temperature":68,"name":"Morning"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", w.Code, w.Body.String())
	}
	if sched.lastZone != "living" || sched.lastAdd.Time != "7:00" || sched.lastAdd.Temperature != 68 || sched.lastAdd.Name != "Morning" {
		t.Fatalf("unexpected params: zone=%q %+v", sched.lastZone, sched.lastAdd)
	}
	var got models.Schedule
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != "abc" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	// missing temperature never reaches the service
	calls := sched.calls
	w = doJSON(t, s, http.MethodPost, "/api/v1/zones/living/schedules", `{"weekdays":["monday"],"time":"07:00"}`)
	if w.Code != http.StatusBadRequest || sched.calls != calls {
		t.Fatalf("expected 400 without temperature, got %d (calls=%d)", w.Code, sched.calls)
	}
}

func TestScheduleHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		applied bool
	}{
		{"validation", fmt.Errorf("%w: unknown weekday", service.ErrValidation), http.StatusBadRequest, false},
		{"not found", fmt.Errorf("%w: schedule", service.ErrNotFound), http.StatusNotFound, false},
		{"store failure", fmt.Errorf("%w: disk full", service.ErrStoreFailure), http.StatusInternalServerError, true},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched := &mockSchedules{schedule: models.Schedule{ID: "abc", Temperature: 70}, err: tc.err}
			s := &service.Service{Authorization: &mockAuth{parseID: 1}, Schedules: sched}

			w := doJSON(t, s, http.MethodPatch, "/api/v1/zones/living/schedules/abc", `{"temperature":70}`)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d; body=%s", w.Code, tc.code, w.Body.String())
			}
			var body struct {
				Error   string           `json:"error"`
				Applied *models.Schedule `json:"applied"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.Error == "" {
				t.Fatalf("expected error message, body=%s", w.Body.String())
			}
			if tc.applied && (body.Applied == nil || body.Applied.ID != "abc") {
				t.Fatalf("expected applied schedule in body, got %s", w.Body.String())
			}
			if !tc.applied && body.Applied != nil {
				t.Fatalf("unexpected applied in body: %s", w.Body.String())
			}
		})
	}
}

func TestScheduleHandlers_UpdateDeleteToggle(t *testing.T) {
	sched := &mockSchedules{schedule: models.Schedule{ID: "abc"}, deleted: true}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Schedules: sched}

	w := doJSON(t, s, http.MethodPatch, "/api/v1/zones/living/schedules/abc", `{"time":"08:30","name":"Late"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", w.Code, w.Body.String())
	}
	p := sched.lastPatch
	if sched.lastID != "abc" || p.Time == nil || *p.Time != "08:30" || p.Name == nil || *p.Name != "Late" || p.Temperature != nil || p.Weekdays != nil {
		t.Fatalf("unexpected patch: id=%q %+v", sched.lastID, p)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/v1/zones/living/schedules/abc", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"deleted":true}` {
		t.Fatalf("delete status=%d body=%s", w.Code, w.Body.String())
	}
	sched.deleted = false
	w = doJSON(t, s, http.MethodDelete, "/api/v1/zones/living/schedules/abc", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"deleted":false}` {
		t.Fatalf("repeated delete status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/zones/living/schedules/abc/toggle", `{"enabled":false}`)
	if w.Code != http.StatusOK || sched.lastToggle == nil || *sched.lastToggle {
		t.Fatalf("toggle status=%d toggle=%v", w.Code, sched.lastToggle)
	}
	w = doJSON(t, s, http.MethodPost, "/api/v1/zones/living/schedules/abc/toggle", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without enabled, got %d", w.Code)
	}
}

func TestHoldHandlers(t *testing.T) {
	holds := &mockHolds{hold: models.Hold{Mode: models.HoldTemporary, Temperature: 62}, cleared: true}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Holds: holds}

	w := doJSON(t, s, http.MethodPut, "/api/v1/zones/living/hold", `{"mode":"temporary","temperature":62,"until":"2025-01-06T18:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set hold status=%d body=%s", w.Code, w.Body.String())
	}
	p := holds.lastParams
	if p.Mode != models.HoldTemporary || p.Temperature != 62 || p.Until == nil || !p.Until.Equal(time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected hold params: %+v", p)
	}

	w = doJSON(t, s, http.MethodPut, "/api/v1/zones/living/hold", `{"temperature":62}`)
	if w.Code != http.StatusOK || holds.lastParams.Until != nil {
		t.Fatalf("indefinite hold status=%d params=%+v", w.Code, holds.lastParams)
	}

	calls := holds.calls
	w = doJSON(t, s, http.MethodPut, "/api/v1/zones/living/hold", `{"temperature":62,"until":"soon"}`)
	if w.Code != http.StatusBadRequest || holds.calls != calls {
		t.Fatalf("expected 400 for bad until, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/v1/zones/living/hold", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"cleared":true}` {
		t.Fatalf("clear status=%d body=%s", w.Code, w.Body.String())
	}

	holds.err = fmt.Errorf("%w: bad mode", service.ErrValidation)
	w = doJSON(t, s, http.MethodPut, "/api/v1/zones/living/hold", `{"mode":"forever","temperature":62}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation error, got %d", w.Code)
	}
}
