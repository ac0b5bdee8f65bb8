package stereo

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the valid disparities of a map in pixels.
type Summary struct {
	Valid   int
	Invalid int
	Density float64
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
}

// Summarize collects coverage and value statistics of m.
func Summarize(m *DisparityMap) Summary {
	values := make([]float64, 0, len(m.Data))
	for _, v := range m.Data {
		if v != Invalid {
			values = append(values, float64(v)/SubpixelScale)
		}
	}

	s := Summary{Valid: len(values), Invalid: len(m.Data) - len(values)}
	if len(m.Data) > 0 {
		s.Density = float64(s.Valid) / float64(len(m.Data))
	}
	if len(values) == 0 {
		return s
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}
	return s
}
