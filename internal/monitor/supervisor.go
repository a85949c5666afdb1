package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/keno-monitor/internal/metrics"
)

// Defaults for the supervising loop. None of them is load-bearing; all are
// overridable through configuration.
const (
	DefaultTickInterval        = 2 * time.Second
	DefaultMinTickSleep        = 500 * time.Millisecond
	DefaultCooldownWindow      = 10 * time.Second
	DefaultStatusEvery         = 150
	DefaultInnerErrorThreshold = 10
	DefaultInnerBackoff        = 5 * time.Second
	DefaultOuterBackoff        = 12 * time.Second
)

// Config controls Supervisor behavior. Zero fields fall back to the package
// defaults so tests can build minimal configs.
type Config struct {
	// TargetURL is the page polled on every tick.
	TargetURL string
	// TickInterval is the nominal full cycle length; each tick's processing
	// time is subtracted from the next delay.
	TickInterval time.Duration
	// MinTickSleep floors the inter-tick delay.
	MinTickSleep time.Duration
	// CooldownWindow suppresses highlight alerts arriving too soon after
	// the previous one.
	CooldownWindow time.Duration
	// StatusEvery is the number of ticks between unconditional status
	// notifications.
	StatusEvery int
	// InnerErrorThreshold is the consecutive-failure streak that triggers
	// an inner restart with a fresh fetcher.
	InnerErrorThreshold int64
	// InnerBackoff is the pause before an inner restart.
	InnerBackoff time.Duration
	// OuterBackoff is the pause before re-entering Starting after a whole
	// run fails.
	OuterBackoff time.Duration
}

func (c *Config) normalize() {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.MinTickSleep <= 0 {
		c.MinTickSleep = DefaultMinTickSleep
	}
	if c.CooldownWindow <= 0 {
		c.CooldownWindow = DefaultCooldownWindow
	}
	if c.StatusEvery <= 0 {
		c.StatusEvery = DefaultStatusEvery
	}
	if c.InnerErrorThreshold <= 0 {
		c.InnerErrorThreshold = DefaultInnerErrorThreshold
	}
	if c.InnerBackoff <= 0 {
		c.InnerBackoff = DefaultInnerBackoff
	}
	if c.OuterBackoff <= 0 {
		c.OuterBackoff = DefaultOuterBackoff
	}
}

// Supervisor drives the fetch, detect, decide, notify cycle on a fixed
// cadence and keeps the monitor alive across failures. Tick-level errors are
// counted and, past a threshold, trigger a short backoff plus a fresh
// fetcher; anything escaping a whole run is caught in Run, reported
// best-effort, and retried after a longer delay. The loop leaves only when
// its context is canceled.
type Supervisor struct {
	cfg        Config
	state      *State
	filter     *Filter
	detector   Detector
	notifier   Notifier
	newFetcher FetcherFactory
	hasher     Hasher
	recorder   Recorder
	ids        IDGenerator
	clock      Clock
	logger     *zap.Logger

	// markup fingerprint of the previous tick; identical pages skip the
	// detector and reuse the prior outcome.
	lastHash    string
	lastOutcome HighlightSet
	haveOutcome bool
}

// New constructs a Supervisor. The detector, notifier, fetcher factory,
// clock, and state are required; recorder, hasher, and id generator may be
// nil, which disables history recording and the fingerprint short-circuit.
func New(
	cfg Config,
	state *State,
	detector Detector,
	notifier Notifier,
	newFetcher FetcherFactory,
	hasher Hasher,
	recorder Recorder,
	ids IDGenerator,
	clock Clock,
	logger *zap.Logger,
) (*Supervisor, error) {
	if state == nil || detector == nil || notifier == nil || newFetcher == nil || clock == nil {
		return nil, fmt.Errorf("%w: supervisor requires state, detector, notifier, fetcher factory, and clock", ErrConfiguration)
	}
	if cfg.TargetURL == "" {
		return nil, fmt.Errorf("%w: target URL is empty", ErrConfiguration)
	}
	cfg.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		cfg:        cfg,
		state:      state,
		filter:     NewFilter(cfg.CooldownWindow),
		detector:   detector,
		notifier:   notifier,
		newFetcher: newFetcher,
		hasher:     hasher,
		recorder:   recorder,
		ids:        ids,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Run blocks, supervising the monitor until ctx is canceled. It never
// returns on its own: a failed run increments the restart counters, emits a
// best-effort critical notification, waits out the outer backoff, and starts
// over.
func (s *Supervisor) Run(ctx context.Context) {
	s.state.SetActive(true, s.clock.Now())
	metrics.SetMonitorActive(true)
	defer func() {
		s.state.SetActive(false, s.clock.Now())
		metrics.SetMonitorActive(false)
	}()

	for {
		if ctx.Err() != nil {
			s.logger.Info("monitor stopped")
			return
		}
		err := s.runOnce(ctx)
		if err == nil || ctx.Err() != nil {
			s.logger.Info("monitor stopped")
			return
		}
		restarts := s.state.RecordOuterFailure()
		metrics.ObserveRestart("outer")
		s.logger.Error("monitor run failed, scheduling restart",
			zap.Error(err),
			zap.Int64("restart_count", restarts),
			zap.Duration("delay", s.cfg.OuterBackoff),
		)
		s.notifyBestEffort(ctx, criticalMessage(restarts, err))
		if !s.sleep(ctx, s.cfg.OuterBackoff) {
			s.logger.Info("monitor stopped")
			return
		}
	}
}

// runOnce is one Starting-to-Running life of the monitor. It returns nil
// when ctx is canceled and an error when the run cannot continue (fetcher
// construction failed or a tick escaped its boundary).
func (s *Supervisor) runOnce(ctx context.Context) error {
	fetcher, err := s.newFetcher()
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	s.logger.Info("monitor starting",
		zap.String("url", s.cfg.TargetURL),
		zap.Duration("tick_interval", s.cfg.TickInterval),
		zap.Duration("cooldown", s.cfg.CooldownWindow),
	)
	s.notifyBestEffort(ctx, statusMessage(s.state.Snapshot(), s.clock.Now(), s.cfg.TickInterval))

	ticksSinceStatus := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		tickStart := s.clock.Now()
		tickErr := s.tick(ctx, fetcher)
		if tickErr != nil && errors.Is(tickErr, ErrCatastrophic) {
			return tickErr
		}
		if ctx.Err() != nil {
			return nil
		}

		streak := s.state.RecordTick(tickErr, s.clock.Now())
		metrics.SetConsecutiveErrors(streak)
		if tickErr != nil {
			s.logger.Warn("check failed",
				zap.Error(tickErr),
				zap.Int64("consecutive_errors", streak),
			)
			if streak > s.cfg.InnerErrorThreshold {
				restarts, rebuildErr := s.innerRestart(ctx, &fetcher)
				if rebuildErr != nil {
					return rebuildErr
				}
				if restarts < 0 {
					return nil
				}
				continue
			}
		}

		ticksSinceStatus++
		if ticksSinceStatus >= s.cfg.StatusEvery {
			s.notifyBestEffort(ctx, statusMessage(s.state.Snapshot(), s.clock.Now(), s.cfg.TickInterval))
			ticksSinceStatus = 0
		}

		processing := s.clock.Now().Sub(tickStart)
		if !s.sleep(ctx, s.delayFor(processing)) {
			return nil
		}
	}
}

// innerRestart waits out the inner backoff and swaps in a fresh fetcher. It
// returns the new restart count, or -1 when ctx was canceled during the
// backoff, or an error when the fetcher could not be rebuilt.
func (s *Supervisor) innerRestart(ctx context.Context, fetcher *Fetcher) (int64, error) {
	s.logger.Warn("error threshold exceeded, restarting with fresh client",
		zap.Int64("threshold", s.cfg.InnerErrorThreshold),
		zap.Duration("backoff", s.cfg.InnerBackoff),
	)
	if !s.sleep(ctx, s.cfg.InnerBackoff) {
		return -1, nil
	}
	fresh, err := s.newFetcher()
	if err != nil {
		return 0, fmt.Errorf("rebuild fetcher: %w", err)
	}
	*fetcher = fresh
	restarts := s.state.RecordRestart()
	metrics.ObserveRestart("inner")
	metrics.SetConsecutiveErrors(0)
	s.logger.Info("monitor restarted", zap.Int64("restart_count", restarts))
	return restarts, nil
}

// tick performs one fetch, detect, decide, notify cycle. Panics are
// converted to catastrophic errors for the outer loop; everything else comes
// back as an ordinary tick error.
func (s *Supervisor) tick(ctx context.Context, fetcher Fetcher) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: tick panic: %v", ErrCatastrophic, r)
		}
	}()

	start := s.clock.Now()
	markup, err := fetcher.Fetch(ctx, s.cfg.TargetURL)
	if err != nil {
		metrics.ObserveCheck("fetch_error", s.clock.Now().Sub(start))
		s.recordCheck(CheckRecord{
			At:         s.clock.Now(),
			Outcome:    CheckOutcomeError,
			ErrorText:  err.Error(),
			DurationMs: s.clock.Now().Sub(start).Milliseconds(),
		})
		return fmt.Errorf("fetch page: %w", err)
	}

	set, contentHash := s.detect(markup)
	now := s.clock.Now()

	if set.Empty() {
		metrics.ObserveCheck("clear", now.Sub(start))
		s.recordCheck(CheckRecord{
			At:          now,
			Outcome:     CheckOutcomeClear,
			DurationMs:  now.Sub(start).Milliseconds(),
			ContentHash: contentHash,
		})
		return nil
	}

	metrics.ObserveCheck("detected", now.Sub(start))
	metrics.ObserveDetection()
	s.logger.Info("bright numbers detected",
		zap.Ints("numbers", set.Values()),
		zap.Int("count", set.Size()),
	)
	s.recordCheck(CheckRecord{
		At:          now,
		Outcome:     CheckOutcomeDetected,
		Numbers:     set.Values(),
		DurationMs:  now.Sub(start).Milliseconds(),
		ContentHash: contentHash,
	})

	if !s.filter.ShouldNotify(set, s.state.Snapshot(), now) {
		s.logger.Debug("alert suppressed", zap.Ints("numbers", set.Values()))
		return nil
	}

	msg := highlightMessage(set, now)
	if sendErr := s.notifier.Notify(ctx, msg); sendErr != nil {
		metrics.ObserveNotification(string(MessageHighlight), false)
		s.recordAlert(AlertRecord{
			At:        now,
			Kind:      MessageHighlight,
			Numbers:   set.Values(),
			Delivered: false,
			ErrorText: sendErr.Error(),
		})
		return fmt.Errorf("%w: highlight alert: %v", ErrNotify, sendErr)
	}

	s.state.MarkNotified(set, now)
	metrics.ObserveNotification(string(MessageHighlight), true)
	s.recordAlert(AlertRecord{
		At:        now,
		Kind:      MessageHighlight,
		Numbers:   set.Values(),
		Delivered: true,
	})
	s.logger.Info("highlight alert sent", zap.Ints("numbers", set.Values()))
	return nil
}

// detect runs the detector, short-circuiting when the markup fingerprint
// matches the previous tick. Detection is deterministic, so reusing the
// prior outcome for identical markup cannot change behavior.
func (s *Supervisor) detect(markup string) (HighlightSet, string) {
	if s.hasher == nil {
		return s.detector.Detect(markup), ""
	}
	hash, err := s.hasher.Hash([]byte(markup))
	if err != nil {
		return s.detector.Detect(markup), ""
	}
	if s.haveOutcome && hash == s.lastHash {
		return s.lastOutcome, hash
	}
	set := s.detector.Detect(markup)
	s.lastHash = hash
	s.lastOutcome = set
	s.haveOutcome = true
	return set, hash
}

// notifyBestEffort delivers status and critical messages outside the dedup
// filter. Failures are logged and recorded, never propagated.
func (s *Supervisor) notifyBestEffort(ctx context.Context, msg Message) {
	if ctx.Err() != nil {
		return
	}
	now := s.clock.Now()
	if err := s.notifier.Notify(ctx, msg); err != nil {
		metrics.ObserveNotification(string(msg.Kind), false)
		s.recordAlert(AlertRecord{At: now, Kind: msg.Kind, Delivered: false, ErrorText: err.Error()})
		s.logger.Warn("notification failed",
			zap.String("kind", string(msg.Kind)),
			zap.Error(err),
		)
		return
	}
	metrics.ObserveNotification(string(msg.Kind), true)
	s.recordAlert(AlertRecord{At: now, Kind: msg.Kind, Delivered: true})
}

// delayFor computes the adaptive inter-tick delay: the nominal interval
// minus the previous tick's processing time, floored at MinTickSleep.
func (s *Supervisor) delayFor(processing time.Duration) time.Duration {
	delay := s.cfg.TickInterval - processing
	if delay < s.cfg.MinTickSleep {
		delay = s.cfg.MinTickSleep
	}
	return delay
}

// sleep waits d or until ctx is canceled. It reports false on cancellation.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Supervisor) recordCheck(rec CheckRecord) {
	if s.recorder == nil {
		return
	}
	rec.ID = s.newID()
	s.recorder.RecordCheck(rec)
}

func (s *Supervisor) recordAlert(rec AlertRecord) {
	if s.recorder == nil {
		return
	}
	rec.ID = s.newID()
	s.recorder.RecordAlert(rec)
}

func (s *Supervisor) newID() string {
	if s.ids == nil {
		return ""
	}
	id, err := s.ids.NewID()
	if err != nil {
		return ""
	}
	return id
}
