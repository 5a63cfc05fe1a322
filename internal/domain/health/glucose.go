// Package health scores a meal by predicted postprandial glucose and macro-nutrient fit.
package health

import "math"

// Band is a postprandial glucose classification.
type Band string

// Bands from best to worst.
const (
	BandNormal   Band = "normal"
	BandGood     Band = "good"
	BandFair     Band = "fair"
	BandPoor     Band = "poor"
	BandVeryPoor Band = "very_poor"
)

// Points returns the score awarded for a band.
func (b Band) Points() float64 {
	switch b {
	case BandNormal:
		return 10
	case BandGood:
		return 8
	case BandFair:
		return 6
	case BandPoor:
		return 4
	default:
		return 0
	}
}

// Checkpoint is a postprandial measurement time in minutes.
type Checkpoint int

// Checkpoints used by the predictor and the scorer.
const (
	Checkpoint60  Checkpoint = 60
	Checkpoint120 Checkpoint = 120
	Checkpoint180 Checkpoint = 180
)

// Checkpoints lists the checkpoints in prediction order.
var Checkpoints = [3]Checkpoint{Checkpoint60, Checkpoint120, Checkpoint180}

// Prediction is predicted glucose in mmol/L at 60, 120 and 180 minutes.
type Prediction [3]float64

// IsValid reports whether every checkpoint is a finite, non-negative reading.
func (p Prediction) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// bandTable holds the upper bounds (exclusive) of normal, good, fair and poor for one checkpoint.
// Values at or above the last bound are very_poor; values below the first are normal.
type bandTable [4]float64

// Type II diabetes postprandial reference ranges in mmol/L, closed into a partition of
// the real line: each band is [previous upper, upper).
var referenceRanges = map[Checkpoint]bandTable{
	Checkpoint60:  {7.0, 10.0, 12.7, 16.6},
	Checkpoint120: {7.2, 8.9, 11.1, 15.5},
	Checkpoint180: {6.7, 8.3, 9.9, 14.4},
}

var bandOrder = [5]Band{BandNormal, BandGood, BandFair, BandPoor, BandVeryPoor}

// Classify returns the band of a glucose value at a checkpoint.
func Classify(cp Checkpoint, glucose float64) Band {
	table, ok := referenceRanges[cp]
	if !ok {
		return BandVeryPoor
	}
	for i, upper := range table {
		if glucose < upper {
			return bandOrder[i]
		}
	}
	return BandVeryPoor
}

// GlucoseScore averages the band points of the three checkpoints. Result is in [0, 10].
func GlucoseScore(p Prediction) float64 {
	var sum float64
	for i, cp := range Checkpoints {
		sum += Classify(cp, p[i]).Points()
	}
	return sum / float64(len(Checkpoints))
}
