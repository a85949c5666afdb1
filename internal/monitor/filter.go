package monitor

import "time"

// Filter decides whether a freshly detected set warrants a highlight alert.
// It is a pure decision over a state snapshot: mutation stays with the
// supervisor and happens only after a successful send. Status and critical
// messages never pass through the filter, so the cooldown binds highlight
// alerts only.
type Filter struct {
	cooldown time.Duration
}

// NewFilter returns a Filter with the given cooldown window.
func NewFilter(cooldown time.Duration) *Filter {
	return &Filter{cooldown: cooldown}
}

// ShouldNotify applies the dedup rules in order: empty sets never alert,
// a set equal to the last notified one never alerts, and a change arriving
// inside the cooldown window is suppressed.
func (f *Filter) ShouldNotify(current HighlightSet, snap Snapshot, now time.Time) bool {
	if current.Empty() {
		return false
	}
	if current.Equal(snap.LastDetected) {
		return false
	}
	if now.Sub(snap.LastAlert) < f.cooldown {
		return false
	}
	return true
}
