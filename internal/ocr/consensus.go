package ocr

import (
	"context"
	"image"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"gatewatch/internal/domain/anpr"
	"gatewatch/internal/regions"
)

// Config controls the consensus step.
type Config struct {
	// AutoZoom reruns OCR on an upscaled top slice of the crop when a plate
	// was read but no region text was found. Region names are printed above
	// the plate body in a smaller font.
	AutoZoom        bool
	ZoomScale       float64
	ZoomTopFraction float64
}

// Consensus merges multi-pass OCR output into at most one plate reading per
// crop.
type Consensus struct {
	engine Engine
	cfg    Config
	log    zerolog.Logger
}

func NewConsensus(engine Engine, cfg Config, log zerolog.Logger) *Consensus {
	return &Consensus{
		engine: engine,
		cfg:    cfg,
		log:    log,
	}
}

// Reading is the outcome of the consensus step for one crop. Plate is empty
// when no observation normalized to a plate; Region is nil when no region
// text was recognized (the caller may still resolve it from cache).
type Reading struct {
	Plate        string
	Confidence   float64
	PlateIndex   int
	Region       *anpr.Region
	Observations []anpr.Observation
}

// Read runs the full consensus over a clarity/stability-accepted crop.
func (c *Consensus) Read(ctx context.Context, crop gocv.Mat) Reading {
	obs := c.scan(ctx, crop)
	reading := Reading{PlateIndex: -1, Observations: obs}

	if plate, conf, idx, ok := pickPlate(obs); ok {
		reading.Plate = plate
		reading.Confidence = conf
		reading.PlateIndex = idx
	}

	if region, ok := regions.Extract(joinTexts(obs, reading.PlateIndex)); ok {
		reading.Region = &region
	}

	if reading.Plate != "" && reading.Region == nil && c.cfg.AutoZoom {
		if region, ok := c.zoomRegion(ctx, crop); ok {
			reading.Region = &region
			c.log.Debug().
				Str("plate", reading.Plate).
				Str("region", region.Name).
				Msg("region recovered by auto-zoom")
		}
	}

	return reading
}

// scan OCRs every preprocessing variant and merges the results. A failed OCR
// pass yields zero observations for that variant rather than aborting the
// crop.
func (c *Consensus) scan(ctx context.Context, img gocv.Mat) []anpr.Observation {
	var raw []Result
	for _, v := range variants(img) {
		results, err := c.engine.Recognize(ctx, v)
		if err != nil {
			c.log.Warn().Err(err).Msg("OCR pass failed")
		} else {
			raw = append(raw, results...)
		}
		v.Close()
	}
	return mergeResults(raw)
}

// zoomRegion retries region extraction on the upscaled top slice of the crop.
func (c *Consensus) zoomRegion(ctx context.Context, crop gocv.Mat) (anpr.Region, bool) {
	topHeight := int(float64(crop.Rows()) * c.cfg.ZoomTopFraction)
	if topHeight <= 0 {
		return anpr.Region{}, false
	}
	top := crop.Region(image.Rect(0, 0, crop.Cols(), topHeight))
	defer top.Close()

	zoomed := gocv.NewMat()
	defer zoomed.Close()
	gocv.Resize(top, &zoomed, image.Point{}, c.cfg.ZoomScale, c.cfg.ZoomScale, gocv.InterpolationCubic)

	return regions.Extract(joinTexts(c.scan(ctx, zoomed), -1))
}

// mergeResults deduplicates raw recognitions by uppercased/trimmed text.
// Duplicates keep the instance with the largest text-region area, and the
// merged set is ordered by area descending.
func mergeResults(raw []Result) []anpr.Observation {
	obs := make([]anpr.Observation, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		obs = append(obs, anpr.Observation{
			Text:       r.Text,
			Confidence: r.Confidence,
			Area:       r.Quad.Area(),
		})
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Area > obs[j].Area })

	seen := make(map[string]bool, len(obs))
	unique := obs[:0]
	for _, o := range obs {
		key := strings.ToUpper(strings.TrimSpace(o.Text))
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, o)
	}
	return unique
}

// pickPlate walks the area-ordered observations and selects the first whose
// text normalizes to a canonical plate.
func pickPlate(obs []anpr.Observation) (string, float64, int, bool) {
	for i, o := range obs {
		if plate, ok := NormalizePlate(o.Text); ok {
			return plate, o.Confidence, i, true
		}
	}
	return "", 0, -1, false
}

// joinTexts concatenates observation texts, skipping the given index. Pass -1
// to join everything.
func joinTexts(obs []anpr.Observation, skip int) string {
	parts := make([]string, 0, len(obs))
	for i, o := range obs {
		if i == skip {
			continue
		}
		parts = append(parts, o.Text)
	}
	return strings.Join(parts, " ")
}
