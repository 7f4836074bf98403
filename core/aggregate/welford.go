package aggregate

import "math"

// SpeedStats accumulates online speed statistics using Welford's
// algorithm, so finalizing an aggregate never needs a second pass over
// the raw samples.
type SpeedStats struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	m2    float64
}

// Add folds one speed observation into the running statistics.
func (s *SpeedStats) Add(v float64) {
	s.Count++
	if s.Count == 1 {
		s.Min, s.Max = v, v
	} else {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	delta := v - s.Mean
	s.Mean += delta / float64(s.Count)
	s.m2 += delta * (v - s.Mean)
}

// Variance returns the sample variance, NaN below two observations.
func (s SpeedStats) Variance() float64 {
	if s.Count < 2 {
		return math.NaN()
	}
	return s.m2 / float64(s.Count-1)
}

// StdDev returns the sample standard deviation.
func (s SpeedStats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}
