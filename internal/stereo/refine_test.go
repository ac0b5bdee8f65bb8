package stereo

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// occludedPair shifts a textured scene by 6 px and blanks a strip of the
// right view so part of the left view has no match.
func occludedPair(w, h int) (*image.Gray, *image.Gray) {
	texture := func(x, y int) uint8 { return lowContrast(x, y, 120, 8) }
	left := grayFrom(w, h, texture)
	right := grayFrom(w, h, func(x, y int) uint8 {
		if x >= 40 && x <= 52 {
			return 128
		}
		return texture(x+6, y)
	})
	return left, right
}

func occlusionParams() BlockMatchParams {
	return BlockMatchParams{
		BlockSize:       7,
		NumDisparities:  16,
		PreFilterCap:    31,
		PreFilterSize:   9,
		PreFilterType:   PreFilterXSobel,
		Disp12MaxDiff:   1,
		UniquenessRatio: 15,
	}
}

func TestRefineFillsOcclusion(t *testing.T) {
	left, right := occludedPair(96, 48)
	lp, rp := copyPix(left), copyPix(right)
	params := occlusionParams()

	primary, err := NewMatcher(params)
	require.NoError(t, err)
	fused, roi, err := Refine(primary, params, left, right, FilterParameters{Lambda: 8000, SigmaColor: 1.0})
	require.NoError(t, err)

	assert.Equal(t, lp, left.Pix)
	assert.Equal(t, rp, right.Pix)
	assert.Equal(t, ValidRegion{X: 18, Y: 3, Width: 75, Height: 42}, roi)

	lm, err := NewMatcher(params)
	require.NoError(t, err)
	dl, err := lm.Compute(left, right)
	require.NoError(t, err)
	rm, err := NewRightMatcher(params)
	require.NoError(t, err)
	dr, err := rm.Compute(left, right)
	require.NoError(t, err)

	require.Equal(t, dl.Width, fused.Width)
	require.Equal(t, dl.Height, fused.Height)
	assert.Less(t, fused.InvalidCount(), dl.InvalidCount())
	assert.Less(t, fused.InvalidCount(), dr.InvalidCount())
}

func TestRefineSemiGlobal(t *testing.T) {
	left, right := shiftedPair(80, 40, 4)
	params := sgbmParams(ModeThreeWay)

	primary, err := NewSemiGlobalMatcher(params)
	require.NoError(t, err)
	fused, roi, err := Refine(primary, params, left, right, DefaultFilterParameters())
	require.NoError(t, err)

	assert.Equal(t, ValidRegion{X: 17, Y: 2, Width: 61, Height: 36}, roi)
	assert.Less(t, fused.InvalidCount(), 80*40)
}

func TestRefineErrors(t *testing.T) {
	left, right := shiftedPair(64, 32, 2)
	params := occlusionParams()
	primary, err := NewBlockMatcher(params)
	require.NoError(t, err)
	mirror, err := NewRightMatcher(params)
	require.NoError(t, err)

	other := params
	other.BlockSize = 9

	tests := []struct {
		name    string
		primary Matcher
		params  MatchParameters
		right   image.Image
		filter  FilterParameters
		want    error
	}{
		{"nil primary", nil, params, right, DefaultFilterParameters(), ErrUnsupportedMatcherVariant},
		{"mirrored primary", mirror, params, right, DefaultFilterParameters(), ErrUnsupportedMatcherVariant},
		{"foreign primary", foreignMatcher{}, params, right, DefaultFilterParameters(), ErrUnsupportedMatcherVariant},
		{"different parameters", primary, other, right, DefaultFilterParameters(), ErrInvalidParameter},
		{"different variant", primary, DefaultSemiGlobalParams(), right, DefaultFilterParameters(), ErrInvalidParameter},
		{"size mismatch", primary, params, image.NewGray(image.Rect(0, 0, 60, 32)), DefaultFilterParameters(), ErrDimensionMismatch},
		{"negative lambda", primary, params, right, FilterParameters{Lambda: -1}, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fused, _, err := Refine(tt.primary, tt.params, left, tt.right, tt.filter)
			assert.Nil(t, fused)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestComputeROI(t *testing.T) {
	tests := []struct {
		name   string
		params MatchParameters
		w, h   int
		want   ValidRegion
	}{
		{"block match", occlusionParams(), 96, 48, ValidRegion{X: 18, Y: 3, Width: 75, Height: 42}},
		{"negative min disparity", SemiGlobalParams{BlockSize: 5, MinDisparity: -16, NumDisparities: 32}, 100, 50,
			ValidRegion{X: 17, Y: 2, Width: 65, Height: 46}},
		{"search wider than image", BlockMatchParams{BlockSize: 21, NumDisparities: 64}, 40, 40,
			ValidRegion{X: 40, Y: 10, Width: 0, Height: 20}},
		{"window taller than image", BlockMatchParams{BlockSize: 31, NumDisparities: 16}, 64, 20,
			ValidRegion{X: 30, Y: 15, Width: 19, Height: 0}},
		{"far negative range", SemiGlobalParams{BlockSize: 1, MinDisparity: -32, NumDisparities: 16}, 20, 10,
			ValidRegion{X: 0, Y: 0, Width: 0, Height: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeROI(tt.params, tt.w, tt.h)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.X, 0)
			assert.GreaterOrEqual(t, got.Y, 0)
			assert.LessOrEqual(t, got.X+got.Width, tt.w)
			assert.LessOrEqual(t, got.Y+got.Height, tt.h)
		})
	}
}
