package config

import (
	"fmt"
	"math"
)

// ParameterRange defines valid range for a parameter
type ParameterRange struct {
	Min  float64
	Max  float64
	Step float64
}

// Contains reports whether v lies in the range and on its step grid.
func (pr ParameterRange) Contains(v float64) bool {
	if v < pr.Min || v > pr.Max {
		return false
	}
	if pr.Step <= 0 {
		return true
	}
	steps := (v - pr.Min) / pr.Step
	return math.Abs(steps-math.Round(steps)) < 1e-9
}

// Ranges returns the slider ranges of the tuning UI keyed by JSON field.
// The block size and uniqueness bounds depend on the algorithm. The
// disparity count stops at the largest multiple of 16 the matchers accept.
func Ranges(algorithm string) map[string]ParameterRange {
	blockMin, uniquenessMax := 5.0, 255.0
	if algorithm == AlgorithmSGBM {
		blockMin, uniquenessMax = 1, 99
	}
	return map[string]ParameterRange{
		"block_size":          {Min: blockMin, Max: 255, Step: 2},
		"num_disparities":     {Min: 16, Max: 2032, Step: 16},
		"min_disparity":       {Min: 0, Max: 255, Step: 1},
		"p1":                  {Min: 0, Max: 2048, Step: 1},
		"p2":                  {Min: 0, Max: 2048, Step: 1},
		"uniqueness_ratio":    {Min: 0, Max: uniquenessMax, Step: 1},
		"pre_filter_cap":      {Min: 1, Max: 63, Step: 1},
		"pre_filter_size":     {Min: 5, Max: 255, Step: 2},
		"disp12_max_diff":     {Min: -1, Max: 255, Step: 1},
		"speckle_window_size": {Min: 0, Max: 2048, Step: 1},
		"speckle_range":       {Min: 0, Max: 255, Step: 1},
		"texture_threshold":   {Min: 0, Max: 255, Step: 1},
		"lambda":              {Min: 0, Max: 100000},
		"sigma_color":         {Min: 0, Max: 10},
	}
}

// CheckRanges reports the first field outside its UI range.
func (r Record) CheckRanges() error {
	values := map[string]float64{
		"block_size":          float64(r.BlockSize),
		"num_disparities":     float64(r.NumDisparities),
		"min_disparity":       float64(r.MinDisparity),
		"p1":                  float64(r.P1),
		"p2":                  float64(r.P2),
		"uniqueness_ratio":    float64(r.UniquenessRatio),
		"pre_filter_cap":      float64(r.PreFilterCap),
		"pre_filter_size":     float64(r.PreFilterSize),
		"disp12_max_diff":     float64(r.Disp12MaxDiff),
		"speckle_window_size": float64(r.SpeckleWindowSize),
		"speckle_range":       float64(r.SpeckleRange),
		"texture_threshold":   float64(r.TextureThreshold),
		"lambda":              r.Lambda,
		"sigma_color":         r.SigmaColor,
	}

	ranges := Ranges(r.Algorithm)
	for _, key := range fieldOrder {
		pr := ranges[key]
		if v := values[key]; !pr.Contains(v) {
			return fmt.Errorf("%s=%v outside [%v, %v] step %v", key, v, pr.Min, pr.Max, pr.Step)
		}
	}

	switch r.Algorithm {
	case AlgorithmBM, AlgorithmSGBM:
	default:
		return fmt.Errorf("algorithm %q must be %q or %q", r.Algorithm, AlgorithmBM, AlgorithmSGBM)
	}
	switch r.Mode {
	case "", ModeDefault, ModeHH, Mode3Way:
	default:
		return fmt.Errorf("mode %q must be %q, %q or %q", r.Mode, ModeDefault, ModeHH, Mode3Way)
	}
	return nil
}

var fieldOrder = []string{
	"block_size", "num_disparities", "min_disparity", "p1", "p2",
	"uniqueness_ratio", "pre_filter_cap", "pre_filter_size", "disp12_max_diff",
	"speckle_window_size", "speckle_range", "texture_threshold", "lambda", "sigma_color",
}
