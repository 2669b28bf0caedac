package detector

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{
	AspectRatioMin: 2.0,
	AspectRatioMax: 6.0,
	WidthMin:       100,
	WidthMaxRatio:  0.85,
	HeightMin:      35,
	HeightMaxRatio: 0.5,
	AreaMin:        3000,
	AreaMax:        60000,
	TopContours:    10,
	MaxPerFrame:    3,
}

const (
	frameW = 1280
	frameH = 720
)

func TestAcceptPlateShapedBox(t *testing.T) {
	// 300x75: aspect 4.0, area 22500
	c, ok := testCfg.accept(image.Rect(100, 100, 400, 175), frameW, frameH)
	require.True(t, ok)
	assert.InDelta(t, 4.0, c.AspectRatio, 1e-9)
	assert.Equal(t, 22500, c.Area)
}

func TestRejectAspectRatio(t *testing.T) {
	// Square-ish box
	_, ok := testCfg.accept(image.Rect(0, 0, 150, 140), frameW, frameH)
	assert.False(t, ok)

	// Too elongated
	_, ok = testCfg.accept(image.Rect(0, 0, 700, 50), frameW, frameH)
	assert.False(t, ok)
}

func TestRejectSizeBounds(t *testing.T) {
	// Too narrow
	_, ok := testCfg.accept(image.Rect(0, 0, 90, 40), frameW, frameH)
	assert.False(t, ok)

	// Too short
	_, ok = testCfg.accept(image.Rect(0, 0, 120, 30), frameW, frameH)
	assert.False(t, ok)

	// Nearly frame-wide
	_, ok = testCfg.accept(image.Rect(0, 0, 1100, 300), frameW, frameH)
	assert.False(t, ok)
}

func TestRejectAreaBounds(t *testing.T) {
	// The default width/height floors imply more than 3000 area, so raise
	// the floor to exercise it.
	cfg := testCfg
	cfg.AreaMin = 5000
	_, ok := cfg.accept(image.Rect(0, 0, 110, 40), frameW, frameH)
	assert.False(t, ok)

	// Huge but within relative bounds: 600x120 = 72000 over the ceiling.
	_, ok = testCfg.accept(image.Rect(0, 0, 600, 120), frameW, frameH)
	assert.False(t, ok)
}

func TestRejectZeroHeight(t *testing.T) {
	_, ok := testCfg.accept(image.Rect(0, 0, 100, 0), frameW, frameH)
	assert.False(t, ok)
}
