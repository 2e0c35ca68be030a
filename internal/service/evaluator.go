package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
)

// DefaultEvaluateTick re-evaluates every zone once a minute.
const DefaultEvaluateTick = time.Minute

// SafetyLimits bounds the setpoints the evaluator hands out. A zero range
// disables clamping.
type SafetyLimits struct {
	Min float64
	Max float64
}

func (l SafetyLimits) enabled() bool { return l.Max > l.Min }

// setpointSource is the part of the engine the evaluator reads.
type setpointSource interface {
	Zones() []string
	EffectiveSetpoint(zone string) (models.Setpoint, bool)
	NextSetpoint(zone string) (models.NextSetpoint, bool)
}

// EvaluatorService turns engine state into "setpoint changed" events. It runs
// on a ticker, so time-driven changes are seen, and also reacts to engine
// events right away.
type EvaluatorService struct {
	setpoints setpointSource
	notify    Listener
	limits    SafetyLimits
	now       func() time.Time
	log       *logger.Logger

	mu   sync.Mutex
	last map[string]models.Setpoint
}

func NewEvaluatorService(setpoints setpointSource, notify Listener, limits SafetyLimits, log *logger.Logger) *EvaluatorService {
	if log == nil {
		log = logger.Nop()
	}
	if notify == nil {
		notify = ListenerFunc(func(models.Event) {})
	}
	return &EvaluatorService{
		setpoints: setpoints,
		notify:    notify,
		limits:    limits,
		now:       time.Now,
		log:       log,
		last:      make(map[string]models.Setpoint),
	}
}

// Run evaluates all zones now and on every tick until ctx is canceled.
func (s *EvaluatorService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultEvaluateTick
	}
	s.EvaluateAll()

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.EvaluateAll()
		}
	}
}

// Notify re-evaluates the zone of a schedule or hold event. After a schedule
// change the next scheduled setpoint is reported as well.
func (s *EvaluatorService) Notify(ev models.Event) {
	switch ev.Type {
	case models.EventScheduleChanged:
		s.Evaluate(ev.ZoneID)
		s.ReportNext(ev.ZoneID)
	case models.EventHoldChanged:
		s.Evaluate(ev.ZoneID)
	}
}

func (s *EvaluatorService) EvaluateAll() {
	for _, zone := range s.setpoints.Zones() {
		s.Evaluate(zone)
	}
}

// Evaluate publishes the setpoint of zone if it differs from the last one
// published. A zone that loses its opinion publishes one cleared event.
func (s *EvaluatorService) Evaluate(zone string) {
	sp, ok := s.setpoints.EffectiveSetpoint(zone)

	s.mu.Lock()
	if !ok {
		_, had := s.last[zone]
		delete(s.last, zone)
		s.mu.Unlock()
		if had {
			s.log.Infow("setpoint_cleared", "zone", zone)
			s.notify.Notify(models.Event{
				EventID:    uuid.NewString(),
				OccurredAt: s.now(),
				Type:       models.EventSetpointChanged,
				ZoneID:     zone,
				Change:     models.ChangeCleared,
			})
		}
		return
	}
	sp = s.clamp(zone, sp)
	if prev, seen := s.last[zone]; seen && prev == sp {
		s.mu.Unlock()
		return
	}
	s.last[zone] = sp
	s.mu.Unlock()

	s.log.Infow("setpoint_changed", "zone", zone, "temperature", sp.Temperature, "source", sp.Source, "schedule_id", sp.ScheduleID)
	s.notify.Notify(models.Event{
		EventID:    uuid.NewString(),
		OccurredAt: s.now(),
		Type:       models.EventSetpointChanged,
		ZoneID:     zone,
		Change:     models.ChangeApplied,
		Setpoint:   &sp,
	})
}

// ReportNext publishes the next scheduled setpoint of zone. Nothing is
// published when no entry falls within the search horizon.
func (s *EvaluatorService) ReportNext(zone string) {
	next, ok := s.setpoints.NextSetpoint(zone)
	if !ok {
		return
	}
	s.log.Debugw("next_setpoint", "zone", zone, "at", next.Time, "temperature", next.Temperature, "schedule_id", next.ScheduleID)
	s.notify.Notify(models.Event{
		EventID:    uuid.NewString(),
		OccurredAt: s.now(),
		Type:       models.EventNextSetpoint,
		ZoneID:     zone,
		Change:     models.ChangeScheduled,
		ScheduleID: next.ScheduleID,
		Next:       &next,
	})
}

// Current returns the last setpoint published for zone.
func (s *EvaluatorService) Current(zone string) (models.Setpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.last[zone]
	return sp, ok
}

func (s *EvaluatorService) clamp(zone string, sp models.Setpoint) models.Setpoint {
	if !s.limits.enabled() {
		return sp
	}
	requested := sp.Temperature
	switch {
	case requested < s.limits.Min:
		sp.Temperature, sp.Clamped = s.limits.Min, true
	case requested > s.limits.Max:
		sp.Temperature, sp.Clamped = s.limits.Max, true
	}
	if sp.Clamped {
		s.log.Warnw("setpoint_clamped", "zone", zone, "requested", requested, "applied", sp.Temperature)
	}
	return sp
}
