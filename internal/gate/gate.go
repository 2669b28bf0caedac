package gate

import (
	"image"
	"math"
	"sync"
	"time"
)

// bucketSize quantizes bounding boxes so that small jitter between frames
// maps to the same key.
const bucketSize = 30

// Key is a bounding box rounded to the coarse grid.
type Key struct {
	X, Y, W, H int
}

func keyFor(box image.Rectangle) Key {
	return Key{
		X: roundTo(box.Min.X),
		Y: roundTo(box.Min.Y),
		W: roundTo(box.Dx()),
		H: roundTo(box.Dy()),
	}
}

func roundTo(v int) int {
	return int(math.Round(float64(v)/bucketSize)) * bucketSize
}

type entry struct {
	firstSeen time.Time
	lastSeen  time.Time
	count     int
}

// Config controls the debounce thresholds and bucket maintenance.
type Config struct {
	// StabilizationTime is the minimum elapsed time since a bucket was first
	// seen before its candidates are accepted.
	StabilizationTime time.Duration
	// MinFrames is the minimum number of sightings of a bucket.
	MinFrames int
	// EvictEvery is the frame interval between eviction sweeps.
	EvictEvery int
	// StaleAfter drops buckets not touched within this window.
	StaleAfter time.Duration
}

// Gate debounces candidate regions across frames. A candidate passes only
// once its spatial bucket has been seen for long enough and often enough;
// a box seen for the first time never passes. Safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	cfg     Config
	entries map[Key]*entry
	frames  int

	now func() time.Time
}

func New(cfg Config) *Gate {
	return &Gate{
		cfg:     cfg,
		entries: make(map[Key]*entry),
		now:     time.Now,
	}
}

// Observe records a sighting of the bounding box and reports whether the
// candidate has stabilized.
func (g *Gate) Observe(box image.Rectangle) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	key := keyFor(box)

	e, ok := g.entries[key]
	if !ok {
		g.entries[key] = &entry{firstSeen: now, lastSeen: now, count: 1}
		return false
	}
	e.count++
	e.lastSeen = now
	return now.Sub(e.firstSeen) >= g.cfg.StabilizationTime && e.count >= g.cfg.MinFrames
}

// Tick marks one processed frame and periodically evicts stale buckets to
// bound memory growth. Eviction is maintenance, not correctness: a dropped
// bucket simply restabilizes.
func (g *Gate) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.frames++
	if g.cfg.EvictEvery <= 0 || g.frames%g.cfg.EvictEvery != 0 {
		return
	}
	cutoff := g.now().Add(-g.cfg.StaleAfter)
	for key, e := range g.entries {
		if e.lastSeen.Before(cutoff) {
			delete(g.entries, key)
		}
	}
}

func (g *Gate) tracked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
