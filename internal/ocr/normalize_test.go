package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlateWellFormed(t *testing.T) {
	plate, ok := NormalizePlate("ABC123DE")
	require.True(t, ok)
	assert.Equal(t, "ABC-123-DE", plate)
}

func TestNormalizePlateIdempotent(t *testing.T) {
	for _, canonical := range []string{"ABC-123-DE", "LAG-456-XY", "OIS-018-BG"} {
		plate, ok := NormalizePlate(canonical)
		require.True(t, ok, canonical)
		assert.Equal(t, canonical, plate)
	}
}

func TestNormalizePlateConfusionCorrection(t *testing.T) {
	cases := map[string]string{
		"A8C1Z3DE": "ABC-123-DE", // 8 in head, Z in middle
		"A8C1Z3D5": "ABC-123-DS", // 5 in tail reads as S
		"018-1Z0-56": "OIB-120-SG",
		"abc 123 de": "ABC-123-DE",
		"LAG5O7XY": "LAG-507-XY",
	}
	for raw, want := range cases {
		plate, ok := NormalizePlate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, plate, raw)
	}
}

func TestNormalizePlateConfusableRecovery(t *testing.T) {
	// Every character of a canonical plate replaced by a visually
	// confusable alternative still recovers the original.
	plate, ok := NormalizePlate("018" + "1Z0" + "56")
	require.True(t, ok)
	assert.Equal(t, "OIB-120-SG", plate)

	plate, ok = NormalizePlate("5IB" + "O17" + "8G")
	require.True(t, ok)
	assert.Equal(t, "SIB-017-BG", plate)
}

func TestNormalizePlateEmbeddedFallback(t *testing.T) {
	plate, ok := NormalizePlate("XYZ ABC123DE QQ")
	require.True(t, ok)
	assert.Equal(t, "ABC-123-DE", plate)
}

func TestNormalizePlateFailures(t *testing.T) {
	for _, raw := range []string{"", "HELLO", "AB123CD", "12345678", "LAGOS STATE"} {
		_, ok := NormalizePlate(raw)
		assert.False(t, ok, raw)
	}
}
