package forecast

// MinMaxScaler maps values into [0, 1] using bounds observed at fit time.
// The bounds are part of the persisted model state; predictions must reuse
// the exact bounds the model was trained with, never refit.
type MinMaxScaler struct {
	Min float64
	Max float64
}

// Fit records the min and max of values.
func (s *MinMaxScaler) Fit(values []float64) {
	if len(values) == 0 {
		return
	}
	s.Min, s.Max = values[0], values[0]
	for _, v := range values[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
}

// Transform scales a single value. A degenerate range maps to 0.
func (s *MinMaxScaler) Transform(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// TransformAll scales a slice.
func (s *MinMaxScaler) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Transform(v)
	}
	return out
}

// Inverse maps a scaled value back to original units.
func (s *MinMaxScaler) Inverse(v float64) float64 {
	return v*(s.Max-s.Min) + s.Min
}
