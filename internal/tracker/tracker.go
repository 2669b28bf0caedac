package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gatewatch/internal/domain/anpr"
)

// Ledger is the slice of persistence the tracker writes through. The tracker
// is the sole writer of detection events and vehicle rows.
type Ledger interface {
	InsertDetection(ctx context.Context, det *anpr.Detection) error
	UpsertVehicle(ctx context.Context, det *anpr.Detection) error
}

// Outcome classifies what the tracker did with a reading.
type Outcome int

const (
	// OutcomeLowConfidence means the reading fell below the confidence
	// threshold and was discarded.
	OutcomeLowConfidence Outcome = iota
	// OutcomeCooldown means the plate was seen again within the cooldown
	// window; no event was emitted and no ledger row changed.
	OutcomeCooldown
	// OutcomeRecorded means an event was emitted and the vehicle row
	// upserted.
	OutcomeRecorded
)

// Config controls acceptance.
type Config struct {
	// Cooldown is the minimum time between two accepted detections of the
	// same plate.
	Cooldown time.Duration
	// ConfidenceThreshold is the minimum OCR confidence to accept.
	ConfidenceThreshold float64
}

// Tracker owns the per-plate cooldown timestamps and last-direction state and
// turns accepted readings into persisted visits. Directions strictly
// alternate per plate; the first-ever accepted detection is always IN.
// Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	cfg  Config
	last map[string]time.Time
	dirs map[string]anpr.Direction

	counters anpr.Counters

	ledger Ledger
	log    zerolog.Logger
	now    func() time.Time
}

func New(ledger Ledger, cfg Config, log zerolog.Logger) *Tracker {
	return &Tracker{
		cfg:    cfg,
		last:   make(map[string]time.Time),
		dirs:   make(map[string]anpr.Direction),
		ledger: ledger,
		log:    log,
		now:    time.Now,
	}
}

// SeedDirection loads a persisted last direction for a plate at startup.
func (t *Tracker) SeedDirection(plate string, dir anpr.Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirs[plate] = dir
}

// SeedCounters loads persisted running totals at startup.
func (t *Tracker) SeedCounters(c anpr.Counters) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters = c
}

// Counters returns the running totals.
func (t *Tracker) Counters() anpr.Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}

// CooldownRemaining reports how long until the plate may be accepted again.
func (t *Tracker) CooldownRemaining(plate string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen, ok := t.last[plate]
	if !ok {
		return 0
	}
	remaining := t.cfg.Cooldown - t.now().Sub(seen)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Track decides the fate of a recognized plate. An accepted detection toggles
// the plate's direction, appends an immutable event to the ledger and upserts
// the vehicle row. Persistence failures are logged and swallowed: in-memory
// state has already advanced and the next accepted detection gets a fresh
// chance to land.
func (t *Tracker) Track(ctx context.Context, plate string, confidence float64, region *anpr.Region, observations []anpr.Observation) (*anpr.Detection, Outcome) {
	if confidence <= t.cfg.ConfidenceThreshold {
		return nil, OutcomeLowConfidence
	}

	t.mu.Lock()
	now := t.now()
	if seen, ok := t.last[plate]; ok && now.Sub(seen) < t.cfg.Cooldown {
		t.mu.Unlock()
		return nil, OutcomeCooldown
	}
	t.last[plate] = now

	direction := t.dirs[plate].Toggle()
	t.dirs[plate] = direction

	t.counters.Detections++
	if direction == anpr.DirectionIn {
		t.counters.Entries++
	} else {
		t.counters.Exits++
	}
	t.mu.Unlock()

	det := &anpr.Detection{
		EventID:      uuid.NewString(),
		Plate:        plate,
		Region:       region,
		Direction:    direction,
		Confidence:   confidence,
		ObservedAt:   now,
		Observations: observations,
	}

	if err := t.ledger.InsertDetection(ctx, det); err != nil {
		t.log.Error().
			Err(err).
			Str("plate", plate).
			Str("direction", string(direction)).
			Msg("failed to persist detection event")
	}
	if err := t.ledger.UpsertVehicle(ctx, det); err != nil {
		t.log.Error().
			Err(err).
			Str("plate", plate).
			Msg("failed to upsert vehicle record")
	}

	event := t.log.Info().
		Str("plate", plate).
		Str("direction", string(direction)).
		Float64("confidence", confidence)
	if region != nil {
		event = event.Str("region", region.Name)
	}
	event.Msg("vehicle detected")

	return det, OutcomeRecorded
}
