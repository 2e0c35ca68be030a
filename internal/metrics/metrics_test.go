package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone_scheduler/internal/metrics"
	"zone_scheduler/internal/models"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Setpoint(t *testing.T) {
	m := metrics.New()

	m.Notify(models.Event{
		Type:     models.EventSetpointChanged,
		ZoneID:   "living",
		Change:   models.ChangeApplied,
		Setpoint: &models.Setpoint{Temperature: 68, Source: models.SourceSchedule, ScheduleID: "a"},
	})
	out := scrape(t, m)
	assert.Contains(t, out, `zone_scheduler_setpoint{source="schedule",zone="living"} 68`)
	assert.Contains(t, out, `zone_scheduler_setpoint_clamped{zone="living"} 0`)

	m.Notify(models.Event{
		Type:     models.EventSetpointChanged,
		ZoneID:   "living",
		Change:   models.ChangeApplied,
		Setpoint: &models.Setpoint{Temperature: 90, Source: models.SourceHold, Clamped: true},
	})
	out = scrape(t, m)
	assert.Contains(t, out, `zone_scheduler_setpoint{source="hold",zone="living"} 90`)
	assert.NotContains(t, out, `zone_scheduler_setpoint{source="schedule",zone="living"}`)
	assert.Contains(t, out, `zone_scheduler_setpoint_clamped{zone="living"} 1`)
	assert.Contains(t, out, `zone_scheduler_events_total{change="changed",type="setpoint_changed"} 2`)
}

func TestMetrics_Holds(t *testing.T) {
	m := metrics.New()

	m.Notify(models.Event{Type: models.EventHoldChanged, ZoneID: "bed", Change: models.ChangeSet})
	assert.Contains(t, scrape(t, m), `zone_scheduler_hold_active{zone="bed"} 1`)

	m.Notify(models.Event{Type: models.EventHoldChanged, ZoneID: "bed", Change: models.ChangeExpired})
	out := scrape(t, m)
	assert.Contains(t, out, `zone_scheduler_hold_active{zone="bed"} 0`)
	assert.Contains(t, out, `zone_scheduler_events_total{change="expired",type="hold_changed"} 1`)
}

func TestMetrics_RuntimeCollectors(t *testing.T) {
	out := scrape(t, metrics.New())
	assert.Contains(t, out, "go_goroutines")
}

func TestMetrics_SetpointClearedDropsSeries(t *testing.T) {
	m := metrics.New()

	m.Notify(models.Event{
		Type:     models.EventSetpointChanged,
		ZoneID:   "living",
		Change:   models.ChangeApplied,
		Setpoint: &models.Setpoint{Temperature: 68, Source: models.SourceSchedule},
	})
	require.Contains(t, scrape(t, m), `zone_scheduler_setpoint{source="schedule",zone="living"} 68`)

	m.Notify(models.Event{Type: models.EventSetpointChanged, ZoneID: "living", Change: models.ChangeCleared})
	out := scrape(t, m)
	assert.NotContains(t, out, `zone_scheduler_setpoint{source="schedule",zone="living"}`)
	assert.NotContains(t, out, `zone_scheduler_setpoint_clamped{zone="living"}`)
	assert.Contains(t, out, `zone_scheduler_events_total{change="cleared",type="setpoint_changed"} 1`)
}

func TestMetrics_ObserveZone(t *testing.T) {
	m := metrics.New()

	m.ObserveZone(models.ZoneSnapshot{ZoneID: "bed", Hold: &models.Hold{Mode: models.HoldPermanent, Temperature: 60}})
	m.ObserveZone(models.ZoneSnapshot{ZoneID: "office"})

	out := scrape(t, m)
	assert.Contains(t, out, `zone_scheduler_hold_active{zone="bed"} 1`)
	assert.Contains(t, out, `zone_scheduler_hold_active{zone="office"} 0`)
}
