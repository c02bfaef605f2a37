package engine

import (
	"math"
	"time"
)

// SimilarityStats summarizes the off-diagonal similarity entries.
type SimilarityStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// RatingStats summarizes ratings over the trained corpus.
type RatingStats struct {
	Rated int     `json:"rated"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// TrainingReport is returned by Train for validation and monitoring.
type TrainingReport struct {
	Samples    int             `json:"samples"`
	Dropped    int             `json:"dropped"`
	Features   int             `json:"features"`
	Similarity SimilarityStats `json:"similarity"`
	Rating     RatingStats     `json:"rating"`
	Duration   time.Duration   `json:"duration"`
}

func buildReport(m *model, dropped int, took time.Duration) TrainingReport {
	r := TrainingReport{
		Samples:  m.size(),
		Dropped:  dropped,
		Features: m.features.Cols(),
		Duration: took,
	}

	n := m.size()
	if n > 1 {
		var sum float64
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				v := m.sim(i, j)
				sum += v
				lo = min(lo, v)
				hi = max(hi, v)
			}
		}
		pairs := float64(n*(n-1)) / 2
		r.Similarity = SimilarityStats{Mean: sum / pairs, Min: lo, Max: hi}
	}

	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range m.games {
		if !m.games[i].HasRating() {
			continue
		}
		v := *m.games[i].Rating
		r.Rating.Rated++
		sum += v
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if r.Rating.Rated > 0 {
		r.Rating.Mean = sum / float64(r.Rating.Rated)
		r.Rating.Min = lo
		r.Rating.Max = hi
	}
	return r
}
