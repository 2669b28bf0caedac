package service

import (
	"context"
	"image"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"gatewatch/internal/detector"
	"gatewatch/internal/domain/anpr"
	"gatewatch/internal/gate"
	"gatewatch/internal/ocr"
	"gatewatch/internal/resolver"
	"gatewatch/internal/tracker"
)

// CandidateState is the outcome of one candidate region in one frame.
type CandidateState string

const (
	StateBlurry        CandidateState = "BLURRY"
	StateStabilizing   CandidateState = "STABILIZING"
	StateNoPlate       CandidateState = "NO_PLATE"
	StateLowConfidence CandidateState = "LOW_CONFIDENCE"
	StateCooldown      CandidateState = "COOLDOWN"
	StateRecorded      CandidateState = "RECORDED"
)

// CandidateResult annotates what happened to each candidate, for logging and
// overlay consumers.
type CandidateResult struct {
	Box          image.Rectangle
	State        CandidateState
	Plate        string
	Region       *anpr.Region
	Direction    anpr.Direction
	CooldownLeft time.Duration
}

// Pipeline runs the per-frame recognition flow: detect candidate regions,
// gate them for clarity and stability, run OCR consensus, resolve the issuing
// region, and track the visit. One frame is fully processed before the next
// is read.
type Pipeline struct {
	detector  *detector.Detector
	gate      *gate.Gate
	consensus *ocr.Consensus
	resolver  *resolver.Resolver
	tracker   *tracker.Tracker

	blurThreshold float64
	log           zerolog.Logger
}

func NewPipeline(
	det *detector.Detector,
	g *gate.Gate,
	consensus *ocr.Consensus,
	res *resolver.Resolver,
	track *tracker.Tracker,
	blurThreshold float64,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		detector:      det,
		gate:          g,
		consensus:     consensus,
		resolver:      res,
		tracker:       track,
		blurThreshold: blurThreshold,
		log:           log,
	}
}

// ProcessFrame runs the pipeline over one frame and returns the outcome of
// every candidate region.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame gocv.Mat) []CandidateResult {
	p.gate.Tick()

	var results []CandidateResult
	for _, candidate := range p.detector.Detect(frame) {
		results = append(results, p.processCandidate(ctx, frame, candidate))
	}
	return results
}

func (p *Pipeline) processCandidate(ctx context.Context, frame gocv.Mat, candidate detector.Candidate) CandidateResult {
	result := CandidateResult{Box: candidate.Box}

	crop := frame.Region(candidate.Box)
	defer crop.Close()

	if gate.Sharpness(crop) <= p.blurThreshold {
		result.State = StateBlurry
		return result
	}

	if !p.gate.Observe(candidate.Box) {
		result.State = StateStabilizing
		return result
	}

	reading := p.consensus.Read(ctx, crop)
	if reading.Plate == "" {
		result.State = StateNoPlate
		return result
	}
	result.Plate = reading.Plate

	if reading.Region != nil {
		// Region came from OCR or zoom: remember it and fill siblings.
		p.resolver.Discover(ctx, reading.Plate, *reading.Region)
	} else if region, ok := p.resolver.Resolve(reading.Plate); ok {
		reading.Region = &region
	}
	result.Region = reading.Region

	det, outcome := p.tracker.Track(ctx, reading.Plate, reading.Confidence, reading.Region, reading.Observations)
	switch outcome {
	case tracker.OutcomeLowConfidence:
		result.State = StateLowConfidence
		p.log.Debug().
			Str("plate", reading.Plate).
			Float64("confidence", reading.Confidence).
			Msg("reading below confidence threshold")
	case tracker.OutcomeCooldown:
		result.State = StateCooldown
		result.CooldownLeft = p.tracker.CooldownRemaining(reading.Plate)
	case tracker.OutcomeRecorded:
		result.State = StateRecorded
		result.Direction = det.Direction
	}
	return result
}
