package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stereo-tuner/internal/stereo"
)

const (
	AlgorithmBM   = "bm"
	AlgorithmSGBM = "sgbm"

	ModeDefault = "default"
	ModeHH      = "hh"
	Mode3Way    = "3way"
)

// maxFileSize bounds parameter files read by Load.
const maxFileSize = 1 << 20

// Logger is the subset of the module logger used while loading.
type Logger interface {
	Warning(component, message string, fields map[string]interface{})
}

// Record is the flat parameter set persisted between tuning sessions.
type Record struct {
	Algorithm         string  `json:"algorithm"`
	BlockSize         int     `json:"block_size"`
	NumDisparities    int     `json:"num_disparities"`
	MinDisparity      int     `json:"min_disparity"`
	P1                int     `json:"p1"`
	P2                int     `json:"p2"`
	UniquenessRatio   int     `json:"uniqueness_ratio"`
	PreFilterCap      int     `json:"pre_filter_cap"`
	PreFilterSize     int     `json:"pre_filter_size"`
	UseXSobel         bool    `json:"use_xsobel"`
	Mode              string  `json:"mode"`
	Disp12MaxDiff     int     `json:"disp12_max_diff"`
	SpeckleWindowSize int     `json:"speckle_window_size"`
	SpeckleRange      int     `json:"speckle_range"`
	TextureThreshold  int     `json:"texture_threshold"`
	Filter            bool    `json:"filter"`
	Lambda            float64 `json:"lambda"`
	SigmaColor        float64 `json:"sigma_color"`
}

// Default returns the initial slider positions of the tuning UI.
func Default() Record {
	return Record{
		Algorithm:      AlgorithmBM,
		BlockSize:      5,
		NumDisparities: 64,
		PreFilterCap:   1,
		PreFilterSize:  5,
		Mode:           ModeDefault,
		Disp12MaxDiff:  -1,
		Lambda:         8000,
		SigmaColor:     1.0,
	}
}

// Load reads a record from path on top of the defaults. A missing file is
// not an error: the defaults are returned and a warning is logged.
func Load(path string, logger Logger) (*Record, error) {
	rec := Default()

	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warning("Config", "parameter file not found, using defaults", map[string]interface{}{
				"path": cleanPath,
			})
			return &rec, nil
		}
		return nil, fmt.Errorf("failed to stat parameter file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("parameter file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", cleanPath, err)
	}
	if err := rec.CheckRanges(); err != nil {
		return nil, fmt.Errorf("parameter file %s: %w", cleanPath, err)
	}
	return &rec, nil
}

// Save writes r to path as indented JSON.
func (r Record) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write parameter file: %w", err)
	}
	return nil
}

// MatchParameters converts r into validated matcher parameters.
func (r Record) MatchParameters() (stereo.MatchParameters, error) {
	var params stereo.MatchParameters
	switch r.Algorithm {
	case AlgorithmBM:
		prefilter := stereo.PreFilterNormalizedResponse
		if r.UseXSobel {
			prefilter = stereo.PreFilterXSobel
		}
		params = stereo.BlockMatchParams{
			BlockSize:         r.BlockSize,
			NumDisparities:    r.NumDisparities,
			MinDisparity:      r.MinDisparity,
			PreFilterCap:      r.PreFilterCap,
			PreFilterSize:     r.PreFilterSize,
			PreFilterType:     prefilter,
			Disp12MaxDiff:     r.Disp12MaxDiff,
			UniquenessRatio:   r.UniquenessRatio,
			SpeckleWindowSize: r.SpeckleWindowSize,
			SpeckleRange:      r.SpeckleRange,
			TextureThreshold:  r.TextureThreshold,
		}
	case AlgorithmSGBM:
		mode, err := parseMode(r.Mode)
		if err != nil {
			return nil, err
		}
		params = stereo.SemiGlobalParams{
			BlockSize:         r.BlockSize,
			NumDisparities:    r.NumDisparities,
			MinDisparity:      r.MinDisparity,
			P1:                r.P1,
			P2:                r.P2,
			PreFilterCap:      r.PreFilterCap,
			Disp12MaxDiff:     r.Disp12MaxDiff,
			UniquenessRatio:   r.UniquenessRatio,
			SpeckleWindowSize: r.SpeckleWindowSize,
			SpeckleRange:      r.SpeckleRange,
			Mode:              mode,
		}
	default:
		return nil, fmt.Errorf("%w: algorithm %q", stereo.ErrUnsupportedMatcherVariant, r.Algorithm)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// FilterParameters returns the refiner settings of r.
func (r Record) FilterParameters() stereo.FilterParameters {
	return stereo.FilterParameters{Lambda: r.Lambda, SigmaColor: r.SigmaColor}
}

// FromParameters builds a record from matcher and optional filter settings.
func FromParameters(params stereo.MatchParameters, filter *stereo.FilterParameters) Record {
	rec := Default()
	switch p := params.(type) {
	case stereo.BlockMatchParams:
		rec.Algorithm = AlgorithmBM
		rec.BlockSize = p.BlockSize
		rec.NumDisparities = p.NumDisparities
		rec.MinDisparity = p.MinDisparity
		rec.PreFilterCap = p.PreFilterCap
		rec.PreFilterSize = p.PreFilterSize
		rec.UseXSobel = p.PreFilterType == stereo.PreFilterXSobel
		rec.Disp12MaxDiff = p.Disp12MaxDiff
		rec.UniquenessRatio = p.UniquenessRatio
		rec.SpeckleWindowSize = p.SpeckleWindowSize
		rec.SpeckleRange = p.SpeckleRange
		rec.TextureThreshold = p.TextureThreshold
	case stereo.SemiGlobalParams:
		rec.Algorithm = AlgorithmSGBM
		rec.BlockSize = p.BlockSize
		rec.NumDisparities = p.NumDisparities
		rec.MinDisparity = p.MinDisparity
		rec.P1 = p.P1
		rec.P2 = p.P2
		rec.PreFilterCap = p.PreFilterCap
		rec.Disp12MaxDiff = p.Disp12MaxDiff
		rec.UniquenessRatio = p.UniquenessRatio
		rec.SpeckleWindowSize = p.SpeckleWindowSize
		rec.SpeckleRange = p.SpeckleRange
		rec.Mode = formatMode(p.Mode)
	}
	if filter != nil {
		rec.Filter = true
		rec.Lambda = filter.Lambda
		rec.SigmaColor = filter.SigmaColor
	}
	return rec
}

func parseMode(name string) (stereo.Mode, error) {
	switch name {
	case "", ModeDefault:
		return stereo.ModeDefault, nil
	case ModeHH:
		return stereo.ModeFullDP, nil
	case Mode3Way:
		return stereo.ModeThreeWay, nil
	default:
		return 0, fmt.Errorf("%w: mode %q", stereo.ErrInvalidParameter, name)
	}
}

func formatMode(m stereo.Mode) string {
	switch m {
	case stereo.ModeFullDP:
		return ModeHH
	case stereo.ModeThreeWay:
		return Mode3Way
	default:
		return ModeDefault
	}
}
