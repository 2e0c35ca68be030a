package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
	"zone_scheduler/internal/repository"
)

const (
	// DefaultStoreKey is the key the document is saved under.
	DefaultStoreKey = "zone_scheduler_schedules"
	// DefaultNextHorizonDays limits NextSetpoint to today and tomorrow.
	DefaultNextHorizonDays = 2
)

// Listener receives engine events. Notify is called synchronously, after
// the engine released its locks, so it may call back into the engine.
type Listener interface {
	Notify(e models.Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e models.Event)

func (f ListenerFunc) Notify(e models.Event) { f(e) }

// zoneState is everything the engine owns for one zone.
type zoneState struct {
	schedules []models.Schedule
	hold      *models.Hold
}

// ScheduleEngine resolves zone setpoints from weekly schedules and holds and
// keeps them in a DocumentStore.
type ScheduleEngine struct {
	store   repository.DocumentStore
	key     string
	now     func() time.Time
	newID   func() string
	horizon int
	log     *logger.Logger

	mu    sync.RWMutex
	zones map[string]*zoneState

	// saveMu orders saves; each save snapshots the latest state.
	saveMu  sync.Mutex
	pending sync.WaitGroup

	listenersMu sync.RWMutex
	listeners   []Listener
}

type EngineOption func(*ScheduleEngine)

// WithClock replaces time.Now. The clock's location is the zone's local time.
func WithClock(now func() time.Time) EngineOption {
	return func(e *ScheduleEngine) { e.now = now }
}

// WithNextHorizon sets how many days, today included, NextSetpoint searches.
func WithNextHorizon(days int) EngineOption {
	return func(e *ScheduleEngine) {
		if days > 0 {
			e.horizon = days
		}
	}
}

func WithStoreKey(key string) EngineOption {
	return func(e *ScheduleEngine) {
		if key != "" {
			e.key = key
		}
	}
}

func WithLogger(l *logger.Logger) EngineOption {
	return func(e *ScheduleEngine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithIDGenerator(newID func() string) EngineOption {
	return func(e *ScheduleEngine) { e.newID = newID }
}

func NewScheduleEngine(store repository.DocumentStore, opts ...EngineOption) *ScheduleEngine {
	e := &ScheduleEngine{
		store:   store,
		key:     DefaultStoreKey,
		now:     time.Now,
		newID:   newScheduleID,
		horizon: DefaultNextHorizonDays,
		log:     logger.Nop(),
		zones:   make(map[string]*zoneState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newScheduleID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Load replaces the in-memory state with the stored document. A missing
// document is an empty state. Entries without a (unique) id get a new one
// and the migrated document is saved once.
func (e *ScheduleEngine) Load(ctx context.Context) error {
	doc, err := e.store.Load(ctx, e.key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	zones := make(map[string]*zoneState)
	migrated := 0
	holds := 0
	if doc != nil {
		for zone, items := range doc.Schedules {
			zs := &zoneState{schedules: make([]models.Schedule, 0, len(items))}
			seen := make(map[string]struct{}, len(items))
			for _, s := range items {
				s = s.Clone()
				if _, dup := seen[s.ID]; s.ID == "" || dup {
					s.ID = e.newID()
					migrated++
				}
				seen[s.ID] = struct{}{}
				zs.schedules = append(zs.schedules, s)
			}
			zones[zone] = zs
		}
		for zone, h := range doc.Holds {
			h := h
			zs, ok := zones[zone]
			if !ok {
				zs = &zoneState{}
				zones[zone] = zs
			}
			zs.hold = &h
			holds++
		}
	}

	e.mu.Lock()
	e.zones = zones
	e.mu.Unlock()

	e.log.Infow("schedules_loaded", "zones", len(zones), "holds", holds)

	if doc != nil && (migrated > 0 || doc.Version < models.DocumentVersion) {
		if err := e.persist(ctx); err != nil {
			return err
		}
		e.log.Infow("document_migrated", "from_version", doc.Version, "to_version", models.DocumentVersion, "ids_assigned", migrated)
	}
	return nil
}

// Persist saves the current state. Use it to retry after ErrStoreFailure.
func (e *ScheduleEngine) Persist(ctx context.Context) error {
	return e.persist(ctx)
}

func (e *ScheduleEngine) persist(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.RLock()
	doc := e.documentLocked()
	e.mu.RUnlock()

	if err := e.store.Save(ctx, e.key, doc); err != nil {
		e.log.Errorw("document_save_failed", "err", err, "key", e.key)
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return nil
}

// persistAsync saves and then publishes ev without blocking the caller. The
// event goes out even if the save fails: memory already reflects it.
// Wait blocks until done.
func (e *ScheduleEngine) persistAsync(ev models.Event) {
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		if err := e.persist(context.Background()); err != nil {
			e.log.Warnw("async_save_failed", "err", err)
		}
		e.publish(ev)
	}()
}

// Wait blocks until background saves and their events have finished.
func (e *ScheduleEngine) Wait() {
	e.pending.Wait()
}

func (e *ScheduleEngine) documentLocked() *models.Document {
	doc := models.NewDocument()
	for zone, zs := range e.zones {
		items := make([]models.Schedule, 0, len(zs.schedules))
		for _, s := range zs.schedules {
			items = append(items, s.Clone())
		}
		doc.Schedules[zone] = items
		if zs.hold != nil {
			doc.Holds[zone] = *zs.hold
		}
	}
	return doc
}

// zoneLocked returns the state of zone, creating it. Caller holds e.mu.
func (e *ScheduleEngine) zoneLocked(zone string) *zoneState {
	zs, ok := e.zones[zone]
	if !ok {
		zs = &zoneState{}
		e.zones[zone] = zs
	}
	return zs
}

// Subscribe registers l for every schedule and hold event.
func (e *ScheduleEngine) Subscribe(l Listener) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, l)
}

// publishBy publishes ev on behalf of the user in ctx, if any.
func (e *ScheduleEngine) publishBy(ctx context.Context, ev models.Event) {
	ev.UserID, _ = UserIDFrom(ctx)
	e.publish(ev)
}

func (e *ScheduleEngine) publish(ev models.Event) {
	ev.EventID = uuid.NewString()
	ev.OccurredAt = e.now()

	e.listenersMu.RLock()
	listeners := append([]Listener(nil), e.listeners...)
	e.listenersMu.RUnlock()

	for _, l := range listeners {
		l.Notify(ev)
	}
}

// Zones returns the ids of every zone that was ever written, sorted.
func (e *ScheduleEngine) Zones() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.zones))
	for zone := range e.zones {
		out = append(out, zone)
	}
	sort.Strings(out)
	return out
}

// List returns a copy of every entry of zone, disabled ones included.
func (e *ScheduleEngine) List(zone string) []models.Schedule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	zs, ok := e.zones[zone]
	if !ok {
		return []models.Schedule{}
	}
	out := make([]models.Schedule, 0, len(zs.schedules))
	for _, s := range zs.schedules {
		out = append(out, s.Clone())
	}
	return out
}

// Snapshot returns the schedules, active hold, effective and next setpoint of zone.
func (e *ScheduleEngine) Snapshot(zone string) models.ZoneSnapshot {
	snap := models.ZoneSnapshot{ZoneID: zone, Schedules: e.List(zone)}
	if h, ok := e.ActiveHold(zone); ok {
		snap.Hold = &h
	}
	if sp, ok := e.EffectiveSetpoint(zone); ok {
		snap.Effective = &sp
	}
	if next, ok := e.NextSetpoint(zone); ok {
		snap.Next = &next
	}
	return snap
}
