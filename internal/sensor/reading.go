package sensor

import "time"

// Reading is a single normalized sample from one channel. Readings are
// immutable once produced and are discarded after reporting.
type Reading struct {
	Channel string    `json:"channel"`
	Value   float64   `json:"value"`
	Unit    string    `json:"unit"`
	TS      time.Time `json:"ts"`
}
