package monitor

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Bounds of the keno number space. Detected values outside this range are
// never surfaced.
const (
	MinNumber = 1
	MaxNumber = 80
)

// HighlightSet is an immutable set of numbers the page marks as highlighted.
// Values are deduplicated, bounds-checked to [MinNumber, MaxNumber], and held
// sorted. The zero value is the empty set.
type HighlightSet struct {
	values []int
}

// NewHighlightSet builds a set from raw candidates, dropping values outside
// the keno range and collapsing duplicates.
func NewHighlightSet(values ...int) HighlightSet {
	out := make([]int, 0, len(values))
	for _, v := range values {
		if v < MinNumber || v > MaxNumber {
			continue
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return HighlightSet{values: out}
}

// Empty reports whether the set has no members.
func (s HighlightSet) Empty() bool {
	return len(s.values) == 0
}

// Size returns the number of members.
func (s HighlightSet) Size() int {
	return len(s.values)
}

// Contains reports whether n is a member.
func (s HighlightSet) Contains(n int) bool {
	return slices.Contains(s.values, n)
}

// Values returns the members in ascending order. The slice is a copy.
func (s HighlightSet) Values() []int {
	out := make([]int, len(s.values))
	copy(out, s.values)
	return out
}

// Equal reports value equality with another set.
func (s HighlightSet) Equal(other HighlightSet) bool {
	return slices.Equal(s.values, other.values)
}

// String renders the set as "[7, 23, 41]".
func (s HighlightSet) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s HighlightSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a JSON array back into a canonical set.
func (s *HighlightSet) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewHighlightSet(values...)
	return nil
}

// MessageKind classifies outbound notifications.
type MessageKind string

// Message kinds delivered through the Notifier.
const (
	MessageHighlight MessageKind = "highlight"
	MessageStatus    MessageKind = "status"
	MessageCritical  MessageKind = "critical"
)

// Message is one outbound notification.
type Message struct {
	Kind MessageKind
	Text string
}

// Snapshot is a read-only copy of the supervisor's state, safe to hand to the
// status surface while ticks keep running.
type Snapshot struct {
	Active                 bool         `json:"active"`
	StartedAt              time.Time    `json:"started_at"`
	TotalChecks            int64        `json:"total_checks"`
	RestartCount           int64        `json:"restart_count"`
	ConsecutiveInnerErrors int64        `json:"consecutive_inner_errors"`
	ConsecutiveOuterErrors int64        `json:"consecutive_outer_errors"`
	LastSuccess            time.Time    `json:"last_success_at"`
	LastAlert              time.Time    `json:"last_alert_at"`
	LastDetected           HighlightSet `json:"last_detected_numbers"`
}

// CheckOutcome summarizes a single tick for the history log.
type CheckOutcome string

// Check outcome values recorded per tick.
const (
	CheckOutcomeClear    CheckOutcome = "clear"
	CheckOutcomeDetected CheckOutcome = "detected"
	CheckOutcomeError    CheckOutcome = "error"
)

// CheckRecord is kept for each tick the supervisor completes.
type CheckRecord struct {
	ID          string       `json:"id"`
	At          time.Time    `json:"at"`
	Outcome     CheckOutcome `json:"outcome"`
	Numbers     []int        `json:"numbers,omitempty"`
	ErrorText   string       `json:"error_text,omitempty"`
	DurationMs  int64        `json:"duration_ms"`
	ContentHash string       `json:"content_hash,omitempty"`
}

// AlertRecord is kept for each notification attempt.
type AlertRecord struct {
	ID        string      `json:"id"`
	At        time.Time   `json:"at"`
	Kind      MessageKind `json:"kind"`
	Numbers   []int       `json:"numbers,omitempty"`
	Delivered bool        `json:"delivered"`
	ErrorText string      `json:"error_text,omitempty"`
}
