package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"zone_scheduler/internal/models"
)

type ChangeLogSQLite struct {
	db *sql.DB
}

func NewChangeLogSQLite(db *sql.DB) *ChangeLogSQLite { return &ChangeLogSQLite{db: db} }

var _ ChangeLog = (*ChangeLogSQLite)(nil)

const insertEventSQL = `
		INSERT INTO schedule_events (id, occurred_at, type, zone_id, change, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`

// eventPayload is the part of an event not covered by dedicated columns.
type eventPayload struct {
	Schedule   *models.Schedule     `json:"schedule,omitempty"`
	ScheduleID string               `json:"schedule_id,omitempty"`
	Hold       *models.Hold         `json:"hold,omitempty"`
	Setpoint   *models.Setpoint     `json:"setpoint,omitempty"`
	Next       *models.NextSetpoint `json:"next,omitempty"`
	UserID     int                  `json:"user_id,omitempty"`
}

func (p eventPayload) empty() bool {
	return p.Schedule == nil && p.ScheduleID == "" && p.Hold == nil && p.Setpoint == nil && p.Next == nil && p.UserID == 0
}

// Append inserts a new event. If EventID or OccurredAt are empty, they’re set.
func (r *ChangeLogSQLite) Append(ctx context.Context, e models.Event) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var payloadPtr *string
	if p := (eventPayload{Schedule: e.Schedule, ScheduleID: e.ScheduleID, Hold: e.Hold, Setpoint: e.Setpoint, Next: e.Next, UserID: e.UserID}); !p.empty() {
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode event payload: %w", err)
		}
		s := string(b)
		payloadPtr = &s
	}

	if _, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt,
		string(e.Type),
		e.ZoneID,
		string(e.Change),
		payloadPtr,
	); err != nil {
		return fmt.Errorf("append event %s/%s: %w", e.Type, e.ZoneID, err)
	}
	return nil
}

// List returns events filtered by [from, to] (inclusive), type and zone, ordered ASC.
func (r *ChangeLogSQLite) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	var (
		conds []string
		args  []any
	)

	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, f.To.UTC())
	}
	if typ := strings.ToLower(strings.TrimSpace(f.Type)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if f.ZoneID != "" {
		conds = append(conds, "zone_id = ?")
		args = append(args, f.ZoneID)
	}

	q := `SELECT id, occurred_at, type, zone_id, change, payload FROM schedule_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Event, 0, 64)
	for rows.Next() {
		var (
			ev         models.Event
			typ, chg   string
			payloadStr sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &typ, &ev.ZoneID, &chg, &payloadStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Type = models.EventType(typ)
		ev.Change = models.Change(chg)

		if payloadStr.Valid && payloadStr.String != "" {
			var p eventPayload
			// a malformed payload still yields the event header
			if err := json.Unmarshal([]byte(payloadStr.String), &p); err == nil {
				ev.Schedule, ev.ScheduleID, ev.Hold, ev.Setpoint, ev.Next = p.Schedule, p.ScheduleID, p.Hold, p.Setpoint, p.Next
				ev.UserID = p.UserID
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
