package monitor

import (
	"context"
	"time"
)

// Fetcher retrieves the raw markup of the monitored page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFactory builds a fresh Fetcher. The supervisor calls it at startup
// and after every inner restart so each run gets a clean HTTP client.
type FetcherFactory func() (Fetcher, error)

// Detector extracts the highlighted number set from markup. It never fails:
// malformed input yields the empty set.
type Detector interface {
	Detect(markup string) HighlightSet
}

// Notifier delivers outbound messages. Implementations own their own rate
// limiting and retries; a returned error means the message was not delivered.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Recorder captures tick and alert outcomes for the status surface.
type Recorder interface {
	RecordCheck(rec CheckRecord)
	RecordAlert(rec AlertRecord)
}

// Hasher computes digests for markup change detection.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
