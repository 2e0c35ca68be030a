package service

import (
	"context"
	"time"

	"zone_scheduler/internal/models"
)

// SetHold replaces any hold of zone and saves it.
func (e *ScheduleEngine) SetHold(ctx context.Context, zone string, p HoldParams) (models.Hold, error) {
	if err := validateZone(zone); err != nil {
		return models.Hold{}, err
	}
	mode, err := normalizeHoldMode(p.Mode)
	if err != nil {
		return models.Hold{}, err
	}
	if err := validateTemperature(p.Temperature); err != nil {
		return models.Hold{}, err
	}

	hold := models.Hold{
		Mode:        mode,
		Temperature: p.Temperature,
		Created:     models.NewTimestamp(e.now()),
	}
	if p.Until != nil {
		hold.Until = p.Until.Format(time.RFC3339Nano)
	}

	e.mu.Lock()
	stored := hold
	e.zoneLocked(zone).hold = &stored
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		return hold, err
	}
	e.log.Infow("hold_set", "zone", zone, "mode", hold.Mode, "temperature", hold.Temperature, "until", hold.Until)
	e.publishBy(ctx, models.Event{Type: models.EventHoldChanged, ZoneID: zone, Change: models.ChangeSet, Hold: &hold})
	return hold, nil
}

// ClearHold removes the hold of zone and reports whether there was one.
// Without a hold nothing is saved, but the cleared event is still sent.
func (e *ScheduleEngine) ClearHold(ctx context.Context, zone string) (bool, error) {
	var removed *models.Hold

	e.mu.Lock()
	if zs, ok := e.zones[zone]; ok && zs.hold != nil {
		removed = zs.hold
		zs.hold = nil
	}
	e.mu.Unlock()

	if removed == nil {
		e.publishBy(ctx, models.Event{Type: models.EventHoldChanged, ZoneID: zone, Change: models.ChangeCleared})
		return false, nil
	}
	if err := e.persist(ctx); err != nil {
		return true, err
	}
	e.log.Infow("hold_cleared", "zone", zone)
	e.publishBy(ctx, models.Event{Type: models.EventHoldChanged, ZoneID: zone, Change: models.ChangeCleared, Hold: removed})
	return true, nil
}

// ActiveHold returns the hold of zone unless it has expired. An expired hold
// is dropped from memory; its removal is saved and announced in the
// background, so the call never waits for the store or for listeners.
func (e *ScheduleEngine) ActiveHold(zone string) (models.Hold, bool) {
	now := e.now()

	e.mu.RLock()
	zs, ok := e.zones[zone]
	if !ok || zs.hold == nil {
		e.mu.RUnlock()
		return models.Hold{}, false
	}
	current := zs.hold
	hold := *current
	e.mu.RUnlock()

	if !hold.Expired(now) {
		return hold, true
	}

	e.mu.Lock()
	// a concurrent SetHold may have replaced it meanwhile
	zs, ok = e.zones[zone]
	expired := ok && zs.hold == current
	if expired {
		zs.hold = nil
	}
	e.mu.Unlock()

	if expired {
		e.log.Infow("hold_expired", "zone", zone, "until", hold.Until)
		e.persistAsync(models.Event{Type: models.EventHoldChanged, ZoneID: zone, Change: models.ChangeExpired, Hold: &hold})
	}
	return models.Hold{}, false
}
