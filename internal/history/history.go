// Package history keeps a bounded in-memory window of recent checks and
// alerts for the status surface.
package history

import (
	"sync"

	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

// DefaultCapacity bounds the window when no explicit capacity is given.
const DefaultCapacity = 256

// Store implements monitor.Recorder. Writes come from the supervisor
// goroutine, reads from the HTTP handlers; once the window is full the oldest
// entries are dropped.
type Store struct {
	mu       sync.RWMutex
	capacity int
	checks   []monitor.CheckRecord
	alerts   []monitor.AlertRecord
}

// NewStore constructs a Store holding up to capacity entries per kind.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// RecordCheck appends one check outcome, evicting the oldest past capacity.
func (s *Store) RecordCheck(rec monitor.CheckRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, rec)
	if len(s.checks) > s.capacity {
		s.checks = s.checks[1:]
	}
}

// RecordAlert appends one notification attempt, evicting the oldest past
// capacity.
func (s *Store) RecordAlert(rec monitor.AlertRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, rec)
	if len(s.alerts) > s.capacity {
		s.alerts = s.alerts[1:]
	}
}

// RecentChecks returns up to limit checks, newest first. A non-positive limit
// returns the whole window.
func (s *Store) RecentChecks(limit int) []monitor.CheckRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.checks) {
		limit = len(s.checks)
	}
	out := make([]monitor.CheckRecord, 0, limit)
	for i := len(s.checks) - 1; i >= len(s.checks)-limit; i-- {
		out = append(out, s.checks[i])
	}
	return out
}

// RecentAlerts returns up to limit alerts, newest first. A non-positive limit
// returns the whole window.
func (s *Store) RecentAlerts(limit int) []monitor.AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.alerts) {
		limit = len(s.alerts)
	}
	out := make([]monitor.AlertRecord, 0, limit)
	for i := len(s.alerts) - 1; i >= len(s.alerts)-limit; i-- {
		out = append(out, s.alerts[i])
	}
	return out
}
