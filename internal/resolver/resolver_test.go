package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatewatch/internal/domain/anpr"
)

type fakeStore struct {
	calls []backfillCall
	err   error
}

type backfillCall struct {
	prefix string
	region anpr.Region
}

func (f *fakeStore) BackfillRegion(_ context.Context, prefix string, region anpr.Region) (int64, error) {
	f.calls = append(f.calls, backfillCall{prefix: prefix, region: region})
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

var (
	lagos = anpr.Region{Code: "LAG", Name: "LAGOS"}
	kano  = anpr.Region{Code: "KAN", Name: "KANO"}
)

func newTestResolver(store Store) *Resolver {
	return New(store, zerolog.Nop())
}

func TestResolveExact(t *testing.T) {
	r := newTestResolver(&fakeStore{})
	r.Seed("ABC-123-DE", lagos)

	region, ok := r.Resolve("ABC-123-DE")
	require.True(t, ok)
	assert.Equal(t, lagos, region)
}

func TestResolveByPrefix(t *testing.T) {
	r := newTestResolver(&fakeStore{})
	r.Seed("ABC-123-DE", lagos)

	region, ok := r.Resolve("ABC-999-ZZ")
	require.True(t, ok)
	assert.Equal(t, lagos, region)
}

func TestResolvePrefixUsesInsertionOrder(t *testing.T) {
	r := newTestResolver(&fakeStore{})
	r.Seed("ABC-111-AA", lagos)
	r.Seed("ABC-222-BB", kano)

	// Two regions behind one prefix should not happen, but when it does
	// the earliest-seeded plate decides.
	region, ok := r.Resolve("ABC-999-ZZ")
	require.True(t, ok)
	assert.Equal(t, lagos, region)
}

func TestResolveMiss(t *testing.T) {
	r := newTestResolver(&fakeStore{})
	r.Seed("ABC-123-DE", lagos)

	_, ok := r.Resolve("XYZ-999-ZZ")
	assert.False(t, ok)
}

func TestDiscoverBackfillsOnce(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)

	r.Discover(context.Background(), "ABC-123-DE", lagos)
	require.Len(t, store.calls, 1)
	assert.Equal(t, "ABC", store.calls[0].prefix)
	assert.Equal(t, lagos, store.calls[0].region)

	// Same region again is a no-op.
	r.Discover(context.Background(), "ABC-123-DE", lagos)
	assert.Len(t, store.calls, 1)

	// The discovery is visible to later prefix lookups.
	region, ok := r.Resolve("ABC-777-QQ")
	require.True(t, ok)
	assert.Equal(t, lagos, region)
}

func TestDiscoverChangedRegionBackfillsAgain(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)

	r.Discover(context.Background(), "ABC-123-DE", lagos)
	r.Discover(context.Background(), "ABC-123-DE", kano)
	assert.Len(t, store.calls, 2)

	region, ok := r.Resolve("ABC-123-DE")
	require.True(t, ok)
	assert.Equal(t, kano, region)
}

func TestDiscoverSwallowsStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	r := newTestResolver(store)

	r.Discover(context.Background(), "ABC-123-DE", lagos)

	// Cache advanced even though persistence failed.
	region, ok := r.Resolve("ABC-123-DE")
	require.True(t, ok)
	assert.Equal(t, lagos, region)
}
