package service

import (
	"context"
	"time"

	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
	"zone_scheduler/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Schedules manages the weekly entries of a zone.
type Schedules interface {
	Add(ctx context.Context, zone string, p AddParams) (models.Schedule, error)
	Update(ctx context.Context, zone, id string, p SchedulePatch) (models.Schedule, error)
	Delete(ctx context.Context, zone, id string) (bool, error)
	Toggle(ctx context.Context, zone, id string, enabled bool) (models.Schedule, error)
	List(zone string) []models.Schedule
}

// Holds manages the override of a zone.
type Holds interface {
	SetHold(ctx context.Context, zone string, p HoldParams) (models.Hold, error)
	ClearHold(ctx context.Context, zone string) (bool, error)
	ActiveHold(zone string) (models.Hold, bool)
}

// Setpoints answers the read-only questions about a zone.
type Setpoints interface {
	Zones() []string
	Snapshot(zone string) models.ZoneSnapshot
	CurrentMatch(zone string) (models.Schedule, bool)
	EffectiveSetpoint(zone string) (models.Setpoint, bool)
	NextSetpoint(zone string) (models.NextSetpoint, bool)
}

// EventLog exposes the persisted change log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// Evaluator runs the background loop that publishes setpoint changes.
// Stop via context cancellation in main() for graceful shutdown.
type Evaluator interface {
	Run(ctx context.Context, tick time.Duration)
	Current(zone string) (models.Setpoint, bool)
}

// Config carries the service level settings.
type Config struct {
	StoreKey        string
	NextHorizonDays int
	Safety          SafetyLimits
	SigningKey      string
	TokenTTL        time.Duration
}

// Service aggregates all sub-services. Schedules, Holds and Setpoints are
// all backed by Engine.
type Service struct {
	Schedules     Schedules
	Holds         Holds
	Setpoints     Setpoints
	EventLog      EventLog
	Evaluator     Evaluator
	Authorization Authorization

	Engine *ScheduleEngine
}

// NewService wires the repository layer into concrete services. notify
// receives every engine event and every setpoint change; the evaluator is
// subscribed after it.
func NewService(repos *repository.Repository, cfg Config, notify Listener, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	engine := NewScheduleEngine(repos.Documents,
		WithStoreKey(cfg.StoreKey),
		WithNextHorizon(cfg.NextHorizonDays),
		WithLogger(log),
	)
	evaluator := NewEvaluatorService(engine, notify, cfg.Safety, log)
	if notify != nil {
		engine.Subscribe(notify)
	}
	engine.Subscribe(evaluator)

	return &Service{
		Schedules:     engine,
		Holds:         engine,
		Setpoints:     engine,
		EventLog:      NewEventLogService(repos.ChangeLog),
		Evaluator:     evaluator,
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey, cfg.TokenTTL),
		Engine:        engine,
	}
}
