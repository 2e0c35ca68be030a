package notifier

import (
	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
)

// LogNotifier writes every event to the application log.
type LogNotifier struct {
	Logger *logger.Logger
}

var _ Notifier = &LogNotifier{}

func (l LogNotifier) Notify(e models.Event) {
	kv := []interface{}{"zone", e.ZoneID, "change", e.Change, "event_id", e.EventID}
	if e.UserID != 0 {
		kv = append(kv, "user_id", e.UserID)
	}
	if e.ScheduleID != "" {
		kv = append(kv, "schedule_id", e.ScheduleID)
	}
	if e.Setpoint != nil {
		kv = append(kv, "temperature", e.Setpoint.Temperature, "source", e.Setpoint.Source)
	}
	if e.Next != nil {
		kv = append(kv, "temperature", e.Next.Temperature, "at", e.Next.Time)
	}
	if e.Hold != nil {
		kv = append(kv, "temperature", e.Hold.Temperature, "mode", e.Hold.Mode)
	}
	l.Logger.Debugw(string(e.Type), kv...)
}
