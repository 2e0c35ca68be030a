package service

import (
	"time"

	"zone_scheduler/internal/models"
)

// CurrentMatch returns the enabled entry for today whose time passed most
// recently. Equal times resolve to the smallest id.
func (e *ScheduleEngine) CurrentMatch(zone string) (models.Schedule, bool) {
	now := e.now()
	today := weekdayName(now)
	elapsed := timeOfDay(now)

	e.mu.RLock()
	defer e.mu.RUnlock()
	zs, ok := e.zones[zone]
	if !ok {
		return models.Schedule{}, false
	}

	var (
		best   *models.Schedule
		bestAt time.Duration
	)
	for i := range zs.schedules {
		s := &zs.schedules[i]
		if !s.Enabled || !hasWeekday(s.Weekdays, today) {
			continue
		}
		h, m, err := parseClock(s.Time)
		if err != nil {
			continue
		}
		at := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
		if at > elapsed {
			continue
		}
		if best == nil || at > bestAt || (at == bestAt && s.ID < best.ID) {
			best, bestAt = s, at
		}
	}
	if best == nil {
		return models.Schedule{}, false
	}
	return best.Clone(), true
}

// NextSetpoint returns the earliest enabled entry strictly after now on the
// first day of the search horizon that has one.
func (e *ScheduleEngine) NextSetpoint(zone string) (models.NextSetpoint, bool) {
	now := e.now()

	e.mu.RLock()
	defer e.mu.RUnlock()
	zs, ok := e.zones[zone]
	if !ok {
		return models.NextSetpoint{}, false
	}

	for offset := 0; offset < e.horizon; offset++ {
		day := now.AddDate(0, 0, offset)
		name := weekdayName(day)
		y, mo, d := day.Date()

		var (
			best   *models.Schedule
			bestAt time.Time
		)
		for i := range zs.schedules {
			s := &zs.schedules[i]
			if !s.Enabled || !hasWeekday(s.Weekdays, name) {
				continue
			}
			h, m, err := parseClock(s.Time)
			if err != nil {
				continue
			}
			at := time.Date(y, mo, d, h, m, 0, 0, now.Location())
			if !at.After(now) {
				continue
			}
			if best == nil || at.Before(bestAt) || (at.Equal(bestAt) && s.ID < best.ID) {
				best, bestAt = s, at
			}
		}
		if best != nil {
			return models.NextSetpoint{
				Time:        bestAt,
				Temperature: best.Temperature,
				ScheduleID:  best.ID,
				Name:        best.Name,
			}, true
		}
	}
	return models.NextSetpoint{}, false
}

// EffectiveSetpoint resolves the target of zone: an active hold wins over
// any schedule. It returns false when neither applies.
func (e *ScheduleEngine) EffectiveSetpoint(zone string) (models.Setpoint, bool) {
	if h, ok := e.ActiveHold(zone); ok {
		return models.Setpoint{Temperature: h.Temperature, Source: models.SourceHold}, true
	}
	if s, ok := e.CurrentMatch(zone); ok {
		return models.Setpoint{Temperature: s.Temperature, Source: models.SourceSchedule, ScheduleID: s.ID}, true
	}
	return models.Setpoint{}, false
}
