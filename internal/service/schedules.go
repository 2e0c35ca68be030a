package service

import (
	"context"
	"fmt"
	"strings"

	"zone_scheduler/internal/models"
)

// Add appends an enabled schedule to zone and saves it. Invalid input is
// rejected with ErrValidation before anything changes. On ErrStoreFailure the
// returned entry is already active in memory.
func (e *ScheduleEngine) Add(ctx context.Context, zone string, p AddParams) (models.Schedule, error) {
	if err := validateZone(zone); err != nil {
		return models.Schedule{}, err
	}
	weekdays, err := normalizeWeekdays(p.Weekdays)
	if err != nil {
		return models.Schedule{}, err
	}
	clock, err := normalizeClock(p.Time)
	if err != nil {
		return models.Schedule{}, err
	}
	if err := validateTemperature(p.Temperature); err != nil {
		return models.Schedule{}, err
	}

	e.mu.Lock()
	zs := e.zoneLocked(zone)
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fmt.Sprintf("Schedule %d", len(zs.schedules)+1)
	}
	entry := models.Schedule{
		ID:          e.newID(),
		Weekdays:    weekdays,
		Time:        clock,
		Temperature: p.Temperature,
		Name:        name,
		Enabled:     true,
		Created:     models.NewTimestamp(e.now()),
	}
	zs.schedules = append(zs.schedules, entry)
	e.mu.Unlock()

	out := entry.Clone()
	if err := e.persist(ctx); err != nil {
		return out, err
	}
	e.log.Infow("schedule_added", "zone", zone, "id", out.ID, "time", out.Time, "temperature", out.Temperature)
	e.publishBy(ctx, models.Event{Type: models.EventScheduleChanged, ZoneID: zone, Change: models.ChangeAdded, Schedule: &out, ScheduleID: out.ID})
	return out, nil
}

// Update changes the supplied fields of one entry and stamps Updated.
func (e *ScheduleEngine) Update(ctx context.Context, zone, id string, p SchedulePatch) (models.Schedule, error) {
	var (
		weekdays []string
		clock    string
		err      error
	)
	if p.Weekdays != nil {
		if weekdays, err = normalizeWeekdays(p.Weekdays); err != nil {
			return models.Schedule{}, err
		}
	}
	if p.Time != nil {
		if clock, err = normalizeClock(*p.Time); err != nil {
			return models.Schedule{}, err
		}
	}
	if p.Temperature != nil {
		if err = validateTemperature(*p.Temperature); err != nil {
			return models.Schedule{}, err
		}
	}

	out, err := e.modify(zone, id, func(s *models.Schedule) {
		if weekdays != nil {
			s.Weekdays = weekdays
		}
		if p.Time != nil {
			s.Time = clock
		}
		if p.Temperature != nil {
			s.Temperature = *p.Temperature
		}
		if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
			s.Name = strings.TrimSpace(*p.Name)
		}
	})
	if err != nil {
		return models.Schedule{}, err
	}
	if err := e.persist(ctx); err != nil {
		return out, err
	}
	e.log.Infow("schedule_updated", "zone", zone, "id", id)
	e.publishBy(ctx, models.Event{Type: models.EventScheduleChanged, ZoneID: zone, Change: models.ChangeUpdated, Schedule: &out, ScheduleID: id})
	return out, nil
}

// Toggle enables or disables an entry without removing it.
func (e *ScheduleEngine) Toggle(ctx context.Context, zone, id string, enabled bool) (models.Schedule, error) {
	out, err := e.modify(zone, id, func(s *models.Schedule) { s.Enabled = enabled })
	if err != nil {
		return models.Schedule{}, err
	}
	if err := e.persist(ctx); err != nil {
		return out, err
	}
	e.log.Infow("schedule_toggled", "zone", zone, "id", id, "enabled", enabled)
	e.publishBy(ctx, models.Event{Type: models.EventScheduleChanged, ZoneID: zone, Change: models.ChangeToggled, Schedule: &out, ScheduleID: id})
	return out, nil
}

// modify applies fn to entry id of zone under the write lock.
func (e *ScheduleEngine) modify(zone, id string, fn func(s *models.Schedule)) (models.Schedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	zs, ok := e.zones[zone]
	if ok {
		for i := range zs.schedules {
			s := &zs.schedules[i]
			if s.ID != id {
				continue
			}
			fn(s)
			updated := models.NewTimestamp(e.now())
			s.Updated = &updated
			return s.Clone(), nil
		}
	}
	return models.Schedule{}, fmt.Errorf("%w: schedule %q in zone %q", ErrNotFound, id, zone)
}

// Delete removes an entry. It returns false, and no error, when id is unknown.
func (e *ScheduleEngine) Delete(ctx context.Context, zone, id string) (bool, error) {
	var removed *models.Schedule

	e.mu.Lock()
	if zs, ok := e.zones[zone]; ok {
		for i, s := range zs.schedules {
			if s.ID == id {
				s := s.Clone()
				removed = &s
				zs.schedules = append(zs.schedules[:i:i], zs.schedules[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()

	if removed == nil {
		return false, nil
	}
	if err := e.persist(ctx); err != nil {
		return true, err
	}
	e.log.Infow("schedule_deleted", "zone", zone, "id", id)
	e.publishBy(ctx, models.Event{Type: models.EventScheduleChanged, ZoneID: zone, Change: models.ChangeDeleted, Schedule: removed, ScheduleID: id})
	return true, nil
}
