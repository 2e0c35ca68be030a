package models

import "time"

type EventType string

const (
	EventScheduleChanged EventType = "schedule_changed"
	EventHoldChanged     EventType = "hold_changed"
	EventSetpointChanged EventType = "setpoint_changed"
	EventNextSetpoint    EventType = "next_setpoint"
)

type Change string

const (
	ChangeAdded     Change = "added"
	ChangeUpdated   Change = "updated"
	ChangeDeleted   Change = "deleted"
	ChangeToggled   Change = "toggled"
	ChangeSet       Change = "set"
	ChangeCleared   Change = "cleared"
	ChangeExpired   Change = "expired"
	ChangeApplied   Change = "changed"
	ChangeScheduled Change = "scheduled"
)

// Event tells observers that a zone changed and its setpoint should be re-read.
type Event struct {
	EventID    string        `json:"event_id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Type       EventType     `json:"type"`
	ZoneID     string        `json:"zone_id"`
	Change     Change        `json:"change"`
	Schedule   *Schedule     `json:"schedule,omitempty"`
	ScheduleID string        `json:"schedule_id,omitempty"`
	Hold       *Hold         `json:"hold,omitempty"`
	Setpoint   *Setpoint     `json:"setpoint,omitempty"`
	Next       *NextSetpoint `json:"next,omitempty"`
	UserID     int           `json:"user_id,omitempty"` // who caused it; zero for time-driven events
}
