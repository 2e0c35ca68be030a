package models

import "time"

type SetpointSource string

const (
	SourceHold     SetpointSource = "hold"
	SourceSchedule SetpointSource = "schedule"
)

// Setpoint is the effective target of a zone at one instant.
type Setpoint struct {
	Temperature float64        `json:"temperature"`
	Source      SetpointSource `json:"source"`
	ScheduleID  string         `json:"schedule_id,omitempty"`
	Clamped     bool           `json:"clamped,omitempty"` // limited to the safety range
}

// NextSetpoint is the next scheduled change of a zone.
type NextSetpoint struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	ScheduleID  string    `json:"schedule_id"`
	Name        string    `json:"name"`
}

// ZoneSnapshot bundles everything known about a zone for display.
type ZoneSnapshot struct {
	ZoneID    string        `json:"zone_id"`
	Schedules []Schedule    `json:"schedules"`
	Hold      *Hold         `json:"hold,omitempty"`
	Effective *Setpoint     `json:"effective,omitempty"`
	Next      *NextSetpoint `json:"next,omitempty"`
}
