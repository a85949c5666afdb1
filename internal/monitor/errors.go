package monitor

import "errors"

// Failure taxonomy for the monitoring pipeline. Every error crossing a tick
// boundary wraps one of these sentinels so callers classify with errors.Is
// instead of string matching.
var (
	// ErrFetch marks a network, timeout, or HTTP-status failure from the
	// page fetch.
	ErrFetch = errors.New("fetch failed")

	// ErrDetect marks markup the detector could not process. The detector
	// maps these to an empty set internally, so the sentinel appears only
	// in logs.
	ErrDetect = errors.New("detection failed")

	// ErrNotify marks an undelivered outbound message. A failed delivery
	// never advances the dedup state.
	ErrNotify = errors.New("notification failed")

	// ErrConfiguration marks missing or invalid startup configuration,
	// fatal to the supervisor but not to the status surface.
	ErrConfiguration = errors.New("configuration invalid")

	// ErrCatastrophic marks a failure that escaped the tick boundary. The
	// outer recovery loop owns these.
	ErrCatastrophic = errors.New("catastrophic failure")
)
