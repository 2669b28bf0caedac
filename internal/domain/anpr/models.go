package anpr

import (
	"time"
)

// Direction of an accepted detection. Successive accepted detections of the
// same plate strictly alternate; nothing cross-checks physical plausibility,
// so two real entries in a row are recorded as IN then OUT.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Toggle returns the direction assigned to the next accepted detection.
// The zero value (no prior direction) toggles to IN.
func (d Direction) Toggle() Direction {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

// Status of a vehicle relative to the gate.
type Status string

const (
	StatusInside  Status = "INSIDE"
	StatusOutside Status = "OUTSIDE"
)

// Region is an issuing-region resolution: a 3-letter code and its canonical
// name.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Observation is one merged OCR reading of a plate crop: the recognized text,
// the engine confidence in [0,1], and the area of the detected text region in
// pixels. Larger areas carry more pixels per character and are treated as the
// more reliable readings.
type Observation struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Area       float64 `json:"area"`
}

// Detection is one accepted, non-suppressed sighting of a plate.
type Detection struct {
	EventID      string
	Plate        string
	Region       *Region
	Direction    Direction
	Confidence   float64
	ObservedAt   time.Time
	Observations []Observation
}

// Counters are the running totals shown in the frame log and on the stats
// endpoint.
type Counters struct {
	Detections int64 `json:"detections"`
	Entries    int64 `json:"entries"`
	Exits      int64 `json:"exits"`
}
