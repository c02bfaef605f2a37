package features

import "math"

// Scaler z-scores one column with statistics captured at fit time.
// Missing values are imputed with the fit-time mean of present values.
type Scaler struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// FitScaler computes mean and population std over the present values.
// A column with no present values gets mean 0. A constant column gets std 1.
func FitScaler(values []float64, present []bool) Scaler {
	var sum float64
	var n int
	for i, v := range values {
		if present[i] {
			sum += v
			n++
		}
	}
	if n == 0 {
		return Scaler{Mean: 0, Std: 1}
	}
	mean := sum / float64(n)

	// Imputed entries sit on the mean and contribute nothing to the variance
	// but still count towards the population size.
	var ss float64
	for i, v := range values {
		if present[i] {
			d := v - mean
			ss += d * d
		}
	}
	std := math.Sqrt(ss / float64(len(values)))
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return Scaler{Mean: mean, Std: std}
}

// Scale imputes a missing value and returns the standardized value.
func (s Scaler) Scale(v float64, present bool) float64 {
	if !present {
		v = s.Mean
	}
	return (v - s.Mean) / s.Std
}
