package models

import "time"

type HoldMode string

const (
	HoldTemporary HoldMode = "temporary"
	HoldPermanent HoldMode = "permanent"
)

// Hold is a manual override that supersedes the schedules of a zone.
// Until is kept as text: a value that does not parse must never disable the hold.
type Hold struct {
	Mode        HoldMode  `json:"mode"`
	Temperature float64   `json:"temperature"`
	Until       string    `json:"until,omitempty"`
	Created     Timestamp `json:"created"`
}

// Expired reports whether the hold ended before now. Holds without Until,
// or with an Until that cannot be parsed, never expire.
func (h Hold) Expired(now time.Time) bool {
	if h.Until == "" {
		return false
	}
	until, err := ParseTimestamp(h.Until)
	if err != nil {
		return false
	}
	return until.Before(now)
}
