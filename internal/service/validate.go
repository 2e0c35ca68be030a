package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"zone_scheduler/internal/models"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func weekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// normalizeWeekdays lower-cases and deduplicates, keeping input order.
func normalizeWeekdays(days []string) ([]string, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: weekdays must not be empty", ErrValidation)
	}
	out := make([]string, 0, len(days))
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		name := strings.ToLower(strings.TrimSpace(d))
		if _, ok := weekdayNames[name]; !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrValidation, d)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func hasWeekday(days []string, name string) bool {
	for _, d := range days {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}

// parseClock parses HH:MM (one or two digits each) on a 24h clock.
func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	if hour, err = clockField(parts[0], 23); err != nil {
		return 0, 0, fmt.Errorf("time %q: hour %w", s, err)
	}
	if minute, err = clockField(parts[1], 59); err != nil {
		return 0, 0, fmt.Errorf("time %q: minute %w", s, err)
	}
	return hour, minute, nil
}

func clockField(s string, limit int) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, fmt.Errorf("must have one or two digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("must be numeric")
		}
	}
	v, _ := strconv.Atoi(s)
	if v > limit {
		return 0, fmt.Errorf("must be between 0 and %d", limit)
	}
	return v, nil
}

// normalizeClock validates s and returns it zero-padded.
func normalizeClock(s string) (string, error) {
	h, m, err := parseClock(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func validateTemperature(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: temperature must be a finite number", ErrValidation)
	}
	return nil
}

func validateZone(zone string) error {
	if strings.TrimSpace(zone) == "" {
		return fmt.Errorf("%w: zone id must not be empty", ErrValidation)
	}
	return nil
}

func normalizeHoldMode(mode models.HoldMode) (models.HoldMode, error) {
	switch models.HoldMode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case "", models.HoldTemporary:
		return models.HoldTemporary, nil
	case models.HoldPermanent:
		return models.HoldPermanent, nil
	default:
		return "", fmt.Errorf("%w: hold mode %q must be temporary or permanent", ErrValidation, mode)
	}
}

// timeOfDay is the wall-clock offset of t from its midnight, ignoring DST shifts.
func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
