package stereo

import (
	"fmt"
	"math"
)

// Variant identifies the matching algorithm.
type Variant int

const (
	VariantBlockMatch Variant = iota
	VariantSemiGlobal
)

func (v Variant) String() string {
	switch v {
	case VariantBlockMatch:
		return "block-match"
	case VariantSemiGlobal:
		return "semi-global-block-match"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// PreFilterType selects the block matcher's image normalization.
type PreFilterType int

const (
	PreFilterNormalizedResponse PreFilterType = iota
	PreFilterXSobel
)

func (t PreFilterType) String() string {
	switch t {
	case PreFilterNormalizedResponse:
		return "normalized-response"
	case PreFilterXSobel:
		return "x-sobel"
	default:
		return fmt.Sprintf("prefilter(%d)", int(t))
	}
}

// Mode selects the semi-global aggregation paths.
type Mode int

const (
	// ModeDefault aggregates five directions in a single pass.
	ModeDefault Mode = iota
	// ModeFullDP aggregates all eight directions.
	ModeFullDP
	// ModeThreeWay aggregates the two horizontal directions and the downward one.
	ModeThreeWay
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeFullDP:
		return "full-dynamic-programming"
	case ModeThreeWay:
		return "three-way"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Limits of the fixed-point representation: every candidate disparity
// scaled by SubpixelScale must fit in an int16 without reaching Invalid.
const (
	minSearchDisparity = -2047
	maxSearchDisparity = 2047
)

// MatchParameters is the union of BlockMatchParams and SemiGlobalParams.
type MatchParameters interface {
	Variant() Variant
	Validate() error

	searchRange() (minDisparity, numDisparities int)
	windowSize() int
}

// BlockMatchParams configures the block matcher.
type BlockMatchParams struct {
	BlockSize         int
	NumDisparities    int
	MinDisparity      int
	PreFilterCap      int
	PreFilterSize     int
	PreFilterType     PreFilterType
	Disp12MaxDiff     int
	UniquenessRatio   int
	SpeckleWindowSize int
	SpeckleRange      int
	TextureThreshold  int
}

// DefaultBlockMatchParams returns a conventional starting point.
func DefaultBlockMatchParams() BlockMatchParams {
	return BlockMatchParams{
		BlockSize:        21,
		NumDisparities:   64,
		PreFilterCap:     31,
		PreFilterSize:    9,
		PreFilterType:    PreFilterXSobel,
		Disp12MaxDiff:    -1,
		UniquenessRatio:  15,
		TextureThreshold: 10,
	}
}

func (p BlockMatchParams) Variant() Variant { return VariantBlockMatch }

func (p BlockMatchParams) searchRange() (int, int) { return p.MinDisparity, p.NumDisparities }

func (p BlockMatchParams) windowSize() int { return p.BlockSize }

// speckleDiff is the neighbour tolerance of the speckle filter in raw map
// units. The block matcher uses SpeckleRange as given.
func (p BlockMatchParams) speckleDiff() int { return p.SpeckleRange }

// Validate checks every field and reports the first violation.
func (p BlockMatchParams) Validate() error {
	if p.BlockSize < 5 || p.BlockSize > 255 || p.BlockSize%2 == 0 {
		return invalid("BlockSize", p.BlockSize, "must be odd and within [5, 255]")
	}
	if err := validateSearchRange(p.MinDisparity, p.NumDisparities); err != nil {
		return err
	}
	if p.PreFilterCap < 1 || p.PreFilterCap > 63 {
		return invalid("PreFilterCap", p.PreFilterCap, "must be within [1, 63]")
	}
	if p.PreFilterSize < 5 || p.PreFilterSize > 255 || p.PreFilterSize%2 == 0 {
		return invalid("PreFilterSize", p.PreFilterSize, "must be odd and within [5, 255]")
	}
	if p.PreFilterType != PreFilterNormalizedResponse && p.PreFilterType != PreFilterXSobel {
		return invalid("PreFilterType", p.PreFilterType, "must be normalized-response or x-sobel")
	}
	if p.UniquenessRatio < 0 {
		return invalid("UniquenessRatio", p.UniquenessRatio, "must be non-negative")
	}
	if p.SpeckleWindowSize < 0 {
		return invalid("SpeckleWindowSize", p.SpeckleWindowSize, "must be non-negative")
	}
	if p.SpeckleRange < 0 {
		return invalid("SpeckleRange", p.SpeckleRange, "must be non-negative")
	}
	if p.TextureThreshold < 0 {
		return invalid("TextureThreshold", p.TextureThreshold, "must be non-negative")
	}
	return nil
}

// MaxPenalty bounds P1 and P2 so path costs stay inside int32.
const MaxPenalty = 1 << 20

// SemiGlobalParams configures the semi-global block matcher.
type SemiGlobalParams struct {
	BlockSize         int
	NumDisparities    int
	MinDisparity      int
	P1                int
	P2                int
	PreFilterCap      int
	Disp12MaxDiff     int
	UniquenessRatio   int
	SpeckleWindowSize int
	SpeckleRange      int
	Mode              Mode
}

// DefaultSemiGlobalParams returns a conventional starting point for
// single-channel input.
func DefaultSemiGlobalParams() SemiGlobalParams {
	return SemiGlobalParams{
		BlockSize:       5,
		NumDisparities:  64,
		P1:              8 * 5 * 5,
		P2:              32 * 5 * 5,
		PreFilterCap:    63,
		Disp12MaxDiff:   -1,
		UniquenessRatio: 10,
		Mode:            ModeDefault,
	}
}

func (p SemiGlobalParams) Variant() Variant { return VariantSemiGlobal }

func (p SemiGlobalParams) searchRange() (int, int) { return p.MinDisparity, p.NumDisparities }

func (p SemiGlobalParams) windowSize() int { return p.BlockSize }

// speckleDiff scales SpeckleRange from whole pixels to raw map units.
func (p SemiGlobalParams) speckleDiff() int { return p.SpeckleRange * SubpixelScale }

// Validate checks every field and reports the first violation.
func (p SemiGlobalParams) Validate() error {
	if p.BlockSize < 1 || p.BlockSize > 255 || p.BlockSize%2 == 0 {
		return invalid("BlockSize", p.BlockSize, "must be odd and within [1, 255]")
	}
	if err := validateSearchRange(p.MinDisparity, p.NumDisparities); err != nil {
		return err
	}
	if p.P1 < 0 || p.P1 > MaxPenalty {
		return invalid("P1", p.P1, "must be within [0, 1<<20]")
	}
	if p.P2 < 0 || p.P2 > MaxPenalty {
		return invalid("P2", p.P2, "must be within [0, 1<<20]")
	}
	if p.PreFilterCap < 1 || p.PreFilterCap > 63 {
		return invalid("PreFilterCap", p.PreFilterCap, "must be within [1, 63]")
	}
	if p.UniquenessRatio < 0 || p.UniquenessRatio > 99 {
		return invalid("UniquenessRatio", p.UniquenessRatio, "must be within [0, 99]")
	}
	if p.SpeckleWindowSize < 0 {
		return invalid("SpeckleWindowSize", p.SpeckleWindowSize, "must be non-negative")
	}
	if p.SpeckleRange < 0 {
		return invalid("SpeckleRange", p.SpeckleRange, "must be non-negative")
	}
	switch p.Mode {
	case ModeDefault, ModeFullDP, ModeThreeWay:
	default:
		return invalid("Mode", p.Mode, "must be default, full-dynamic-programming or three-way")
	}
	return nil
}

// effectiveP2 keeps the large-jump penalty strictly above the small one.
func (p SemiGlobalParams) effectiveP2() int {
	return max(p.P2, p.P1+1)
}

func validateSearchRange(minDisparity, numDisparities int) error {
	if numDisparities <= 0 || numDisparities%16 != 0 {
		return invalid("NumDisparities", numDisparities, "must be a positive multiple of 16")
	}
	if minDisparity < minSearchDisparity {
		return invalid("MinDisparity", minDisparity, fmt.Sprintf("must be at least %d", minSearchDisparity))
	}
	if minDisparity+numDisparities > maxSearchDisparity {
		return invalid("NumDisparities", numDisparities,
			fmt.Sprintf("MinDisparity+NumDisparities must not exceed %d", maxSearchDisparity))
	}
	return nil
}

// FilterParameters configures the edge-aware refiner.
type FilterParameters struct {
	// Lambda is the smoothness strength; larger values give smoother maps.
	Lambda float64
	// SigmaColor is the edge sensitivity in guide intensity units; smaller
	// values treat smaller intensity changes as edges.
	SigmaColor float64
	// LRCThreshold bounds |dL + dR| in 1/16 pixel units. Zero selects 24.
	LRCThreshold int
	// DiscontinuityRadius is the neighbourhood radius used to lower the
	// confidence near depth edges. Zero derives it from the block size.
	DiscontinuityRadius int
}

// DefaultFilterParameters returns lambda 8000 and sigma 1.0.
func DefaultFilterParameters() FilterParameters {
	return FilterParameters{Lambda: 8000, SigmaColor: 1.0}
}

func (f FilterParameters) Validate() error {
	if math.IsNaN(f.Lambda) || math.IsInf(f.Lambda, 0) || f.Lambda < 0 {
		return invalid("Lambda", f.Lambda, "must be a finite non-negative number")
	}
	if math.IsNaN(f.SigmaColor) || math.IsInf(f.SigmaColor, 0) || f.SigmaColor < 0 {
		return invalid("SigmaColor", f.SigmaColor, "must be a finite non-negative number")
	}
	if f.LRCThreshold < 0 {
		return invalid("LRCThreshold", f.LRCThreshold, "must be non-negative")
	}
	if f.DiscontinuityRadius < 0 {
		return invalid("DiscontinuityRadius", f.DiscontinuityRadius, "must be non-negative")
	}
	return nil
}
