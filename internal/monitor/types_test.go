package monitor

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestNewHighlightSet(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   []int
	}{
		{name: "sorted and deduped", values: []int{23, 7, 23, 41, 7}, want: []int{7, 23, 41}},
		{name: "out of range dropped", values: []int{0, 5, 81, 80, -3, 1}, want: []int{1, 5, 80}},
		{name: "empty", values: nil, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewHighlightSet(tt.values...)
			if !slices.Equal(got.Values(), tt.want) {
				t.Fatalf("expected %v got %v", tt.want, got.Values())
			}
		})
	}
}

func TestHighlightSetEqual(t *testing.T) {
	a := NewHighlightSet(7, 23)
	b := NewHighlightSet(23, 7)
	c := NewHighlightSet(7, 23, 41)

	if !a.Equal(b) {
		t.Fatal("expected order-independent equality")
	}
	if a.Equal(c) {
		t.Fatal("expected different sets to compare unequal")
	}
	var zero HighlightSet
	if !zero.Empty() {
		t.Fatal("expected zero value to be empty")
	}
}

func TestHighlightSetString(t *testing.T) {
	got := NewHighlightSet(41, 7, 23).String()
	if got != "[7, 23, 41]" {
		t.Fatalf("expected [7, 23, 41], got %s", got)
	}
}

func TestHighlightSetJSON(t *testing.T) {
	data, err := json.Marshal(NewHighlightSet(23, 7))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[7,23]" {
		t.Fatalf("expected [7,23], got %s", data)
	}

	var back HighlightSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(NewHighlightSet(7, 23)) {
		t.Fatalf("expected round trip to preserve members, got %v", back.Values())
	}
}
