package models

import "encoding/json"

// Schedule is one weekly recurring rule of a zone.
type Schedule struct {
	ID          string     `json:"id"`
	Weekdays    []string   `json:"weekdays"`    // lower-case weekday names
	Time        string     `json:"time"`        // HH:MM, host local time
	Temperature float64    `json:"temperature"` // unit is caller-defined
	Name        string     `json:"name"`
	Enabled     bool       `json:"enabled"`
	Created     Timestamp  `json:"created"`
	Updated     *Timestamp `json:"updated,omitempty"`
}

// UnmarshalJSON reads entries written before "enabled" existed as enabled.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	type plain Schedule
	aux := struct {
		*plain
		Enabled *bool `json:"enabled"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Enabled = aux.Enabled == nil || *aux.Enabled
	return nil
}

// Clone returns a deep copy.
func (s Schedule) Clone() Schedule {
	out := s
	out.Weekdays = append([]string(nil), s.Weekdays...)
	if s.Updated != nil {
		u := *s.Updated
		out.Updated = &u
	}
	return out
}
