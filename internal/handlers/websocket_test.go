package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"zone_scheduler/internal/models"
	"zone_scheduler/internal/service"
)

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func eventsURL(t *testing.T, hub *EventHub, s *service.Service, query url.Values) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := NewHandler(s, hub, nil, nil).InitRoutes()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()
	return u.String()
}

// dialEvents connects with a token in the query, as a browser would.
func dialEvents(t *testing.T, hub *EventHub, s *service.Service, query string) *websocket.Conn {
	t.Helper()
	if s.Authorization == nil {
		s.Authorization = &mockAuth{parseID: 1}
	}
	q, _ := url.ParseQuery(query)
	q.Set(tokenQueryParam, "ws-token")

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(eventsURL(t, hub, s, q), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_SnapshotThenEvents(t *testing.T) {
	sp := models.Setpoint{Temperature: 68, Source: models.SourceSchedule, ScheduleID: "a"}
	points := &mockSetpoints{
		zones: []string{"living"},
		snapshots: map[string]models.ZoneSnapshot{
			"living": {ZoneID: "living", Schedules: []models.Schedule{{ID: "a"}}, Effective: &sp},
		},
	}
	hub := NewEventHub(nil)
	conn := dialEvents(t, hub, &service.Service{Setpoints: points}, "")

	env := readEnvelope(t, conn)
	if env.Type != msgSnapshot {
		t.Fatalf("expected snapshot first, got %+v", env)
	}
	var snaps []models.ZoneSnapshot
	if err := json.Unmarshal(env.Data, &snaps); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snaps) != 1 || snaps[0].ZoneID != "living" || snaps[0].Effective == nil {
		t.Fatalf("unexpected snapshot: %+v", snaps)
	}
	if hub.Clients() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.Clients())
	}

	hub.Notify(models.Event{EventID: "e1", Type: models.EventHoldChanged, ZoneID: "living", Change: models.ChangeSet})

	env = readEnvelope(t, conn)
	if env.Type != msgEvent {
		t.Fatalf("expected event, got %+v", env)
	}
	var ev models.Event
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.EventID != "e1" || ev.Change != models.ChangeSet {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestWebSocket_ZoneFilter(t *testing.T) {
	points := &mockSetpoints{zones: []string{"bedroom", "living"}}
	hub := NewEventHub(nil)
	conn := dialEvents(t, hub, &service.Service{Setpoints: points}, "zone=living")

	env := readEnvelope(t, conn)
	var snap models.ZoneSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if env.Type != msgSnapshot || snap.ZoneID != "living" {
		t.Fatalf("unexpected snapshot: %+v", env)
	}

	hub.Notify(models.Event{EventID: "other", ZoneID: "bedroom"})
	hub.Notify(models.Event{EventID: "mine", ZoneID: "living"})

	env = readEnvelope(t, conn)
	var ev models.Event
	_ = json.Unmarshal(env.Data, &ev)
	if ev.EventID != "mine" {
		t.Fatalf("expected only living events, got %+v", ev)
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	auth := &mockAuth{parseErr: errors.New("expired")}
	s := &service.Service{Authorization: auth, Setpoints: &mockSetpoints{}}
	hub := NewEventHub(nil)
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}

	_, resp, err := dialer.Dial(eventsURL(t, hub, s, url.Values{}), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial without token: err=%v resp=%v, want 401", err, resp)
	}

	_, resp, err = dialer.Dial(eventsURL(t, hub, s, url.Values{tokenQueryParam: {"stale"}}), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial with rejected token: err=%v resp=%v, want 401", err, resp)
	}
	if auth.lastParseToken != "stale" {
		t.Fatalf("ParseToken got %q, want the query token", auth.lastParseToken)
	}
	if hub.Clients() != 0 {
		t.Fatalf("rejected clients must not subscribe, got %d", hub.Clients())
	}
}

func TestEventHub_DropsWhenClientIsSlow(t *testing.T) {
	hub := NewEventHub(nil)
	sub := hub.subscribe("")
	defer hub.unsubscribe(sub)

	for i := 0; i < subscriberSize+5; i++ {
		hub.Notify(models.Event{ZoneID: "living"})
	}
	if len(sub.events) != subscriberSize {
		t.Fatalf("expected buffer to hold %d events, got %d", subscriberSize, len(sub.events))
	}

	hub.unsubscribe(sub)
	if hub.Clients() != 0 {
		t.Fatalf("expected no clients after unsubscribe, got %d", hub.Clients())
	}
}
