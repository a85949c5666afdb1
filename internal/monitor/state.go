package monitor

import (
	"sync"
	"time"
)

// State is the supervisor's mutable record. The supervisor goroutine is the
// only writer; the status surface reads through Snapshot, which copies under
// the lock. Restart and check counters persist for the process lifetime and
// survive inner restarts.
type State struct {
	mu           sync.Mutex
	active       bool
	startedAt    time.Time
	lastDetected HighlightSet
	lastAlert    time.Time
	lastSuccess  time.Time
	totalChecks  int64
	restartCount int64
	innerErrors  int64
	outerErrors  int64
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// SetActive flips the active-thread indicator. The start timestamp is set on
// first activation and kept afterwards.
func (s *State) SetActive(active bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	if active && s.startedAt.IsZero() {
		s.startedAt = now
	}
}

// RecordTick folds one tick outcome into the counters. A nil err counts a
// success, clears both consecutive-error streaks, and stamps the last-success
// time; otherwise the inner streak grows. The post-update inner streak is
// returned so the supervisor can compare it against its threshold.
func (s *State) RecordTick(err error, now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalChecks++
	if err != nil {
		s.innerErrors++
		return s.innerErrors
	}
	s.innerErrors = 0
	s.outerErrors = 0
	s.lastSuccess = now
	return 0
}

// MarkNotified records a successfully delivered highlight alert. The alert
// timestamp only moves forward, never backward.
func (s *State) MarkNotified(set HighlightSet, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDetected = set
	if now.After(s.lastAlert) {
		s.lastAlert = now
	}
}

// RecordRestart counts an inner restart and clears the inner error streak.
// It returns the new restart count.
func (s *State) RecordRestart() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartCount++
	s.innerErrors = 0
	return s.restartCount
}

// RecordOuterFailure counts a failure of a whole monitor run. Both the outer
// streak and the restart count grow; the inner streak starts over for the
// next run. It returns the new restart count.
func (s *State) RecordOuterFailure() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outerErrors++
	s.restartCount++
	s.innerErrors = 0
	return s.restartCount
}

// Snapshot returns a copy of the state for the status surface.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Active:                 s.active,
		StartedAt:              s.startedAt,
		TotalChecks:            s.totalChecks,
		RestartCount:           s.restartCount,
		ConsecutiveInnerErrors: s.innerErrors,
		ConsecutiveOuterErrors: s.outerErrors,
		LastSuccess:            s.lastSuccess,
		LastAlert:              s.lastAlert,
		LastDetected:           s.lastDetected,
	}
}
