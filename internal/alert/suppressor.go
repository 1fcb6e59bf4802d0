package alert

import (
	"sync"
	"time"
)

// WithinCooldown reports whether an alert fired at last is still inside
// its cooldown window at now.
func WithinCooldown(last time.Time, cooldownSeconds int, now time.Time) bool {
	return now.Sub(last) < time.Duration(cooldownSeconds)*time.Second
}

// Suppressor drops repeat alerts for a rule until its cooldown lapses.
type Suppressor struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
}

func NewSuppressor() *Suppressor {
	return &Suppressor{lastHit: map[string]time.Time{}}
}

// Allow records a hit for ruleID unless a previous hit is still inside
// the cooldown window.
func (s *Suppressor) Allow(ruleID string, cooldownSeconds int, now time.Time) bool {
	if cooldownSeconds <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHit[ruleID]; ok && WithinCooldown(last, cooldownSeconds, now) {
		return false
	}
	s.lastHit[ruleID] = now
	return true
}
