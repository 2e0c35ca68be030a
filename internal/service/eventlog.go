package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"zone_scheduler/internal/models"
	"zone_scheduler/internal/repository"
)

type EventLogService struct {
	changeLog repository.ChangeLog
}

func NewEventLogService(changeLog repository.ChangeLog) *EventLogService {
	return &EventLogService{changeLog: changeLog}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and lowercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (repository.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.EventFilter{}, errInvalidTimeRange
	}

	return repository.EventFilter{
		From:   from,
		To:     to,
		Type:   normalizeEventType(f.Type),
		ZoneID: strings.TrimSpace(f.ZoneID),
	}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	filter, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.changeLog.List(ctx, filter)
}
