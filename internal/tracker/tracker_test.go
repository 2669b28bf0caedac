package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatewatch/internal/domain/anpr"
)

type fakeLedger struct {
	events   []*anpr.Detection
	upserts  []*anpr.Detection
	insertEr error
	upsertEr error
}

func (f *fakeLedger) InsertDetection(_ context.Context, det *anpr.Detection) error {
	if f.insertEr != nil {
		return f.insertEr
	}
	f.events = append(f.events, det)
	return nil
}

func (f *fakeLedger) UpsertVehicle(_ context.Context, det *anpr.Detection) error {
	if f.upsertEr != nil {
		return f.upsertEr
	}
	f.upserts = append(f.upserts, det)
	return nil
}

func newTestTracker(ledger Ledger, cfg Config) (*Tracker, *time.Time) {
	tr := New(ledger, cfg, zerolog.Nop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, &now
}

var testCfg = Config{Cooldown: 10 * time.Second, ConfidenceThreshold: 0.35}

func TestTrackRejectsLowConfidence(t *testing.T) {
	ledger := &fakeLedger{}
	tr, _ := newTestTracker(ledger, testCfg)

	det, outcome := tr.Track(context.Background(), "ABC-123-DE", 0.2, nil, nil)
	assert.Nil(t, det)
	assert.Equal(t, OutcomeLowConfidence, outcome)
	assert.Empty(t, ledger.events)
}

func TestTrackFirstDetectionIsIn(t *testing.T) {
	ledger := &fakeLedger{}
	tr, _ := newTestTracker(ledger, testCfg)

	det, outcome := tr.Track(context.Background(), "ABC-123-DE", 0.5, nil, nil)
	require.Equal(t, OutcomeRecorded, outcome)
	require.NotNil(t, det)
	assert.Equal(t, anpr.DirectionIn, det.Direction)
	assert.NotEmpty(t, det.EventID)
	require.Len(t, ledger.events, 1)
	require.Len(t, ledger.upserts, 1)
}

func TestTrackCooldownScenario(t *testing.T) {
	ledger := &fakeLedger{}
	tr, now := newTestTracker(ledger, testCfg)
	ctx := context.Background()

	// t=0: accepted
	det, outcome := tr.Track(ctx, "ABC-123-DE", 0.5, nil, nil)
	require.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, anpr.DirectionIn, det.Direction)

	// t=5s: suppressed, exactly one event persisted
	*now = now.Add(5 * time.Second)
	_, outcome = tr.Track(ctx, "ABC-123-DE", 0.5, nil, nil)
	assert.Equal(t, OutcomeCooldown, outcome)
	assert.Len(t, ledger.events, 1)
	assert.Equal(t, 5*time.Second, tr.CooldownRemaining("ABC-123-DE"))

	// t=11s: accepted again, direction flipped
	*now = now.Add(6 * time.Second)
	det, outcome = tr.Track(ctx, "ABC-123-DE", 0.5, nil, nil)
	require.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, anpr.DirectionOut, det.Direction)
	assert.Len(t, ledger.events, 2)
}

func TestTrackDirectionsAlternate(t *testing.T) {
	ledger := &fakeLedger{}
	tr, now := newTestTracker(ledger, testCfg)
	ctx := context.Background()

	want := []anpr.Direction{
		anpr.DirectionIn, anpr.DirectionOut, anpr.DirectionIn,
		anpr.DirectionOut, anpr.DirectionIn,
	}
	for i, dir := range want {
		det, outcome := tr.Track(ctx, "ABC-123-DE", 0.5, nil, nil)
		require.Equal(t, OutcomeRecorded, outcome, i)
		assert.Equal(t, dir, det.Direction, i)
		*now = now.Add(11 * time.Second)
	}

	counters := tr.Counters()
	assert.Equal(t, int64(5), counters.Detections)
	assert.Equal(t, int64(3), counters.Entries)
	assert.Equal(t, int64(2), counters.Exits)
}

func TestTrackSeededDirectionToggles(t *testing.T) {
	ledger := &fakeLedger{}
	tr, _ := newTestTracker(ledger, testCfg)
	tr.SeedDirection("ABC-123-DE", anpr.DirectionIn)

	det, outcome := tr.Track(context.Background(), "ABC-123-DE", 0.5, nil, nil)
	require.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, anpr.DirectionOut, det.Direction)
}

func TestTrackPlatesAreIndependent(t *testing.T) {
	ledger := &fakeLedger{}
	tr, _ := newTestTracker(ledger, testCfg)
	ctx := context.Background()

	det1, _ := tr.Track(ctx, "ABC-123-DE", 0.5, nil, nil)
	det2, _ := tr.Track(ctx, "XYZ-999-ZZ", 0.5, nil, nil)

	assert.Equal(t, anpr.DirectionIn, det1.Direction)
	assert.Equal(t, anpr.DirectionIn, det2.Direction)
}

func TestTrackSwallowsPersistenceErrors(t *testing.T) {
	ledger := &fakeLedger{insertEr: errors.New("connection refused"), upsertEr: errors.New("connection refused")}
	tr, now := newTestTracker(ledger, testCfg)
	ctx := context.Background()

	det, outcome := tr.Track(ctx, "ABC-123-DE", 0.5, nil, nil)
	require.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, anpr.DirectionIn, det.Direction)

	// In-memory state advanced despite the failed writes.
	*now = now.Add(11 * time.Second)
	det, _ = tr.Track(ctx, "ABC-123-DE", 0.5, nil, nil)
	assert.Equal(t, anpr.DirectionOut, det.Direction)
	assert.Equal(t, int64(2), tr.Counters().Detections)
}

func TestTrackSeededCounters(t *testing.T) {
	ledger := &fakeLedger{}
	tr, _ := newTestTracker(ledger, testCfg)
	tr.SeedCounters(anpr.Counters{Detections: 10, Entries: 6, Exits: 4})

	_, outcome := tr.Track(context.Background(), "ABC-123-DE", 0.5, nil, nil)
	require.Equal(t, OutcomeRecorded, outcome)

	counters := tr.Counters()
	assert.Equal(t, int64(11), counters.Detections)
	assert.Equal(t, int64(7), counters.Entries)
}

func TestTrackRegionCarriedOnEvent(t *testing.T) {
	ledger := &fakeLedger{}
	tr, _ := newTestTracker(ledger, testCfg)
	region := &anpr.Region{Code: "LAG", Name: "LAGOS"}

	det, outcome := tr.Track(context.Background(), "LAG-123-DE", 0.5, region, []anpr.Observation{{Text: "LAG123DE", Confidence: 0.5, Area: 100}})
	require.Equal(t, OutcomeRecorded, outcome)
	require.NotNil(t, det.Region)
	assert.Equal(t, "LAG", det.Region.Code)
	require.Len(t, det.Observations, 1)
}
