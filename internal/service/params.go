package service

import (
	"time"

	"zone_scheduler/internal/models"
)

// AddParams describes a new schedule entry. An empty Name gets "Schedule N".
type AddParams struct {
	Weekdays    []string
	Time        string // HH:MM
	Temperature float64
	Name        string
}

// SchedulePatch changes only the fields that are set.
type SchedulePatch struct {
	Weekdays    []string // nil means unchanged
	Time        *string
	Temperature *float64
	Name        *string
}

// HoldParams describes a hold. An empty Mode means temporary; a nil Until
// holds indefinitely.
type HoldParams struct {
	Mode        models.HoldMode
	Temperature float64
	Until       *time.Time
}

// LogFilter supports change log filtering by time range, event type and zone.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "schedule_changed", "hold_changed", "setpoint_changed", "next_setpoint"
	ZoneID string
}
