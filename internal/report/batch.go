package report

import (
	"time"

	"homewatch/internal/alert"
	"homewatch/internal/sensor"
)

// Batch groups one cycle's readings and alerts for a single reporting
// call.
type Batch struct {
	Seq       uint64           `json:"seq"`
	Readings  []sensor.Reading `json:"readings"`
	Alerts    []alert.Alert    `json:"alerts,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (b Batch) Empty() bool {
	return len(b.Readings) == 0 && len(b.Alerts) == 0
}

// Result summarizes what happened to one batch.
type Result struct {
	Sent     bool `json:"sent"`
	Attempts int  `json:"attempts"`
	Dropped  bool `json:"dropped"`
}
