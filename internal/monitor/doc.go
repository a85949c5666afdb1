// Package monitor contains the core of the keno bright-number watcher: the
// shared domain types, the dedup/cooldown alert filter, and the supervising
// loop that drives fetch, detect, decide, and notify on a fixed cadence and
// keeps itself alive across failures.
package monitor
