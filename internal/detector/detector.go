package detector

import (
	"image"
	"sort"

	"gocv.io/x/gocv"
)

// Candidate is a plate-shaped rectangle found in one frame. Candidates are
// transient: produced and consumed within the frame that contains them.
type Candidate struct {
	Box         image.Rectangle
	AspectRatio float64
	Area        int
}

// Config holds the geometric acceptance thresholds.
type Config struct {
	AspectRatioMin float64
	AspectRatioMax float64
	WidthMin       int
	WidthMaxRatio  float64 // of frame width
	HeightMin      int
	HeightMaxRatio float64 // of frame height
	AreaMin        int
	AreaMax        int
	TopContours    int
	MaxPerFrame    int
}

// Detector finds candidate plate regions with classical thresholding and
// contour geometry. It is stateless; Detect is a pure function of the frame
// and the configured thresholds.
type Detector struct {
	cfg Config
}

func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect returns candidate plate rectangles in the frame, largest contours
// first, truncated to the configured per-frame maximum.
func (d *Detector) Detect(frame gocv.Mat) []Candidate {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	type blob struct {
		area float64
		box  image.Rectangle
	}
	blobs := make([]blob, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		blobs = append(blobs, blob{area: gocv.ContourArea(c), box: gocv.BoundingRect(c)})
	}
	sort.Slice(blobs, func(i, j int) bool { return blobs[i].area > blobs[j].area })
	if len(blobs) > d.cfg.TopContours {
		blobs = blobs[:d.cfg.TopContours]
	}

	var candidates []Candidate
	for _, b := range blobs {
		if c, ok := d.cfg.accept(b.box, frame.Cols(), frame.Rows()); ok {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) > d.cfg.MaxPerFrame {
		candidates = candidates[:d.cfg.MaxPerFrame]
	}
	return candidates
}

// accept applies the aspect-ratio, size and area bands to a bounding box.
func (cfg Config) accept(box image.Rectangle, frameW, frameH int) (Candidate, bool) {
	w, h := box.Dx(), box.Dy()
	if h <= 0 {
		return Candidate{}, false
	}
	ar := float64(w) / float64(h)
	area := w * h

	if ar < cfg.AspectRatioMin || ar > cfg.AspectRatioMax {
		return Candidate{}, false
	}
	if w <= cfg.WidthMin || float64(w) >= float64(frameW)*cfg.WidthMaxRatio {
		return Candidate{}, false
	}
	if h <= cfg.HeightMin || float64(h) >= float64(frameH)*cfg.HeightMaxRatio {
		return Candidate{}, false
	}
	if area <= cfg.AreaMin || area >= cfg.AreaMax {
		return Candidate{}, false
	}
	return Candidate{Box: box, AspectRatio: ar, Area: area}, true
}
