package gate

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGate(cfg Config) (*Gate, *time.Time) {
	g := New(cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g, &now
}

func TestGateNeverAcceptsFirstObservation(t *testing.T) {
	g, _ := newTestGate(Config{StabilizationTime: 150 * time.Millisecond, MinFrames: 2})

	assert.False(t, g.Observe(image.Rect(100, 100, 300, 160)))
}

func TestGateAcceptsAfterTimeAndCount(t *testing.T) {
	g, now := newTestGate(Config{StabilizationTime: 150 * time.Millisecond, MinFrames: 2})
	box := image.Rect(100, 100, 300, 160)

	assert.False(t, g.Observe(box))

	// Count satisfied, time not.
	*now = now.Add(50 * time.Millisecond)
	assert.False(t, g.Observe(box))

	*now = now.Add(150 * time.Millisecond)
	assert.True(t, g.Observe(box))
}

func TestGateBucketsJitteredBoxes(t *testing.T) {
	g, now := newTestGate(Config{StabilizationTime: 150 * time.Millisecond, MinFrames: 2})

	// Boxes within the quantization grid share one bucket.
	assert.False(t, g.Observe(image.Rect(100, 100, 300, 160)))
	*now = now.Add(200 * time.Millisecond)
	assert.True(t, g.Observe(image.Rect(104, 97, 305, 158)))
}

func TestGateDistinctBucketsStabilizeIndependently(t *testing.T) {
	g, now := newTestGate(Config{StabilizationTime: 150 * time.Millisecond, MinFrames: 2})

	assert.False(t, g.Observe(image.Rect(100, 100, 300, 160)))
	*now = now.Add(200 * time.Millisecond)
	assert.False(t, g.Observe(image.Rect(500, 400, 700, 460)))
}

func TestGateEvictsStaleBuckets(t *testing.T) {
	g, now := newTestGate(Config{
		StabilizationTime: 150 * time.Millisecond,
		MinFrames:         2,
		EvictEvery:        1,
		StaleAfter:        5 * time.Second,
	})
	box := image.Rect(100, 100, 300, 160)

	g.Observe(box)
	assert.Equal(t, 1, g.tracked())

	*now = now.Add(6 * time.Second)
	g.Tick()
	assert.Equal(t, 0, g.tracked())

	// Evicted bucket restabilizes from scratch.
	assert.False(t, g.Observe(box))
}

func TestGateEvictionKeepsFreshBuckets(t *testing.T) {
	g, now := newTestGate(Config{
		StabilizationTime: 150 * time.Millisecond,
		MinFrames:         2,
		EvictEvery:        1,
		StaleAfter:        5 * time.Second,
	})

	g.Observe(image.Rect(100, 100, 300, 160))
	*now = now.Add(4 * time.Second)
	g.Observe(image.Rect(500, 400, 700, 460))
	*now = now.Add(2 * time.Second)

	g.Tick()
	assert.Equal(t, 1, g.tracked())
}
