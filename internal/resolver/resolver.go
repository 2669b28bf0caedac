package resolver

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"gatewatch/internal/domain/anpr"
)

// Store is the slice of the ledger the resolver needs for backfills.
type Store interface {
	// BackfillRegion sets the region on every vehicle row and detection
	// event whose plate shares the prefix and whose region is currently
	// null. Returns the number of rows changed.
	BackfillRegion(ctx context.Context, prefix string, region anpr.Region) (int64, error)
}

// Resolver owns the in-memory plate-to-region cache. The cache is seeded once
// at startup from persisted vehicles with a known region and mutated only
// through Discover.
//
// Prefix resolution and backfill both assume that the 3-letter plate prefix
// encodes the issuing region for every plate sharing it. That assumption is
// not verified anywhere: the first region discovered for a prefix wins and
// silently fills every null sibling.
type Resolver struct {
	mu      sync.Mutex
	byPlate map[string]anpr.Region
	// order preserves insertion order so prefix scans are deterministic.
	// If a prefix ever legitimately maps to more than one region, the
	// earliest-seeded plate decides.
	order []string

	store Store
	log   zerolog.Logger
}

func New(store Store, log zerolog.Logger) *Resolver {
	return &Resolver{
		byPlate: make(map[string]anpr.Region),
		store:   store,
		log:     log,
	}
}

// Seed loads a persisted plate-to-region mapping. Called once per plate at
// startup, before the pipeline runs.
func (r *Resolver) Seed(plate string, region anpr.Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(plate, region)
}

func (r *Resolver) put(plate string, region anpr.Region) {
	if _, ok := r.byPlate[plate]; !ok {
		r.order = append(r.order, plate)
	}
	r.byPlate[plate] = region
}

// Resolve looks up the region for a plate whose OCR pass found no region
// text: exact plate first, then the first cached plate sharing the 3-letter
// prefix, in insertion order.
func (r *Resolver) Resolve(plate string) (anpr.Region, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if region, ok := r.byPlate[plate]; ok {
		return region, true
	}

	prefix := platePrefix(plate) + "-"
	for _, p := range r.order {
		if strings.HasPrefix(p, prefix) {
			r.log.Debug().
				Str("plate", plate).
				Str("via", p).
				Str("region", r.byPlate[p].Name).
				Msg("region resolved by prefix")
			return r.byPlate[p], true
		}
	}
	return anpr.Region{}, false
}

// Discover records a region newly read from OCR. When it differs from the
// cached value for that exact plate, the cache is updated and the region is
// backfilled to every persisted sibling with a null region. Backfill failures
// are logged and swallowed; the cache has already advanced.
func (r *Resolver) Discover(ctx context.Context, plate string, region anpr.Region) {
	r.mu.Lock()
	if cached, ok := r.byPlate[plate]; ok && cached.Code == region.Code {
		r.mu.Unlock()
		return
	}
	r.put(plate, region)
	r.mu.Unlock()

	prefix := platePrefix(plate)
	changed, err := r.store.BackfillRegion(ctx, prefix, region)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("prefix", prefix).
			Str("region", region.Name).
			Msg("region backfill failed")
		return
	}
	if changed > 0 {
		r.log.Info().
			Str("prefix", prefix).
			Str("region", region.Name).
			Int64("rows", changed).
			Msg("backfilled region by prefix")
	}
}

func platePrefix(plate string) string {
	if i := strings.IndexByte(plate, '-'); i > 0 {
		return plate[:i]
	}
	return plate
}
