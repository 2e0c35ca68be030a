package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// naiveLayouts are the zone-less ISO forms written by older versions of the
// document. They are read in host local time.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts RFC 3339 as well as the naive ISO forms.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// Timestamp is a time.Time that tolerates naive ISO text when decoded.
// Text that does not parse at all decodes as the zero time and is written
// back unchanged: these timestamps are informational and must not make a
// document unreadable.
type Timestamp struct {
	time.Time
	raw string
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Round(0)}
}

// Raw returns the stored text of a timestamp that could not be parsed.
func (t Timestamp) Raw() string {
	return t.raw
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		if t.raw != "" {
			return json.Marshal(t.raw)
		}
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		t.raw = s
		return nil
	}
	t.Time = parsed
	return nil
}
