package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMsgSize     = 1 << 12 // 4 KB
	subscriberSize = 32
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

const (
	msgSnapshot = "snapshot"
	msgEvent    = "event"
)

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub fans engine events out to websocket clients. It is registered as
// a listener, so Notify must never block: a client that falls behind loses
// events.
type EventHub struct {
	mu   sync.RWMutex
	subs map[*wsSubscriber]struct{}
	log  *logger.Logger
}

type wsSubscriber struct {
	zone   string
	events chan models.Event
}

func NewEventHub(log *logger.Logger) *EventHub {
	if log == nil {
		log = logger.Nop()
	}
	return &EventHub{subs: make(map[*wsSubscriber]struct{}), log: log}
}

func (hub *EventHub) Notify(e models.Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for s := range hub.subs {
		if s.zone != "" && s.zone != e.ZoneID {
			continue
		}
		select {
		case s.events <- e:
		default:
			hub.log.Warnw("ws_event_dropped", "zone", e.ZoneID, "type", e.Type)
		}
	}
}

func (hub *EventHub) subscribe(zone string) *wsSubscriber {
	s := &wsSubscriber{zone: zone, events: make(chan models.Event, subscriberSize)}
	hub.mu.Lock()
	hub.subs[s] = struct{}{}
	hub.mu.Unlock()
	return s
}

func (hub *EventHub) unsubscribe(s *wsSubscriber) {
	hub.mu.Lock()
	delete(hub.subs, s)
	hub.mu.Unlock()
}

// Clients returns the number of connected subscribers.
func (hub *EventHub) Clients() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subs)
}

// @Summary      Event stream
// @Description  WebSocket. Sends a snapshot first, then every event. Optional ?zone= filter.
// @Description  The token may be passed as ?access_token= instead of the Authorization header.
// @Tags         events
// @Security     BearerAuth
// @Param        zone          query  string  false  "Zone id"
// @Param        access_token  query  string  false  "JWT"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	zone := strings.TrimSpace(c.Query("zone"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Subscribe before the snapshot so nothing between the two is missed.
	sub := h.hub.subscribe(zone)
	defer h.hub.unsubscribe(sub)

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.writeEnvelope(conn, wsEnvelope{Type: msgSnapshot, Data: h.snapshot(zone)}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case e := <-sub.events:
			if err := h.writeEnvelope(conn, wsEnvelope{Type: msgEvent, Data: e}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// snapshot is one zone, or every zone when zone is empty.
func (h *Handler) snapshot(zone string) interface{} {
	if zone != "" {
		return h.services.Setpoints.Snapshot(zone)
	}
	ids := h.services.Setpoints.Zones()
	out := make([]models.ZoneSnapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.services.Setpoints.Snapshot(id))
	}
	return out
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func (h *Handler) writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
