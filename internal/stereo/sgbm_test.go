package stereo

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sgbmParams(mode Mode) SemiGlobalParams {
	return SemiGlobalParams{
		BlockSize:      5,
		NumDisparities: 16,
		P1:             200,
		P2:             800,
		PreFilterCap:   63,
		Disp12MaxDiff:  -1,
		Mode:           mode,
	}
}

func TestSemiGlobalRecoversShift(t *testing.T) {
	left, right := shiftedPair(96, 48, 8)
	m, err := NewSemiGlobalMatcher(sgbmParams(ModeDefault))
	require.NoError(t, err)

	disp, err := m.Compute(left, right)
	require.NoError(t, err)

	total, hits := 0, 0
	for y := 4; y < 44; y++ {
		for x := 20; x < 86; x++ {
			total++
			if v := disp.At(x, y); v != Invalid && wholePixels(v) == 8 {
				hits++
			}
		}
	}
	assert.GreaterOrEqual(t, float64(hits)/float64(total), 0.9)
}

func TestSemiGlobalModes(t *testing.T) {
	left, right := shiftedPair(80, 40, 5)

	invalid := map[Mode]int{}
	for _, mode := range []Mode{ModeDefault, ModeFullDP, ModeThreeWay} {
		t.Run(mode.String(), func(t *testing.T) {
			m, err := NewMatcher(sgbmParams(mode))
			require.NoError(t, err)
			disp, err := Compute(m, left, right)
			require.NoError(t, err)
			require.Equal(t, 80*40, len(disp.Data))
			invalid[mode] = disp.InvalidCount()
		})
	}
	assert.LessOrEqual(t, invalid[ModeFullDP], invalid[ModeDefault])
}

func TestSemiGlobalValidColumns(t *testing.T) {
	left, right := shiftedPair(64, 24, 2)
	p := sgbmParams(ModeDefault)
	p.MinDisparity = -4
	m, err := NewSemiGlobalMatcher(p)
	require.NoError(t, err)
	disp, err := m.Compute(left, right)
	require.NoError(t, err)

	xlo := p.MinDisparity + p.NumDisparities - 1
	xhi := 64 - 1 + p.MinDisparity
	for y := 0; y < 24; y++ {
		for x := 0; x < 64; x++ {
			inside := x >= xlo && x <= xhi
			assert.Equal(t, inside, disp.Valid(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestSemiGlobalReusesBuffers(t *testing.T) {
	left, right := shiftedPair(64, 32, 4)
	m, err := NewSemiGlobalMatcher(sgbmParams(ModeDefault))
	require.NoError(t, err)

	first, err := m.Compute(left, right)
	require.NoError(t, err)
	second, err := m.Compute(left, right)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
}

func TestSGBMUnique(t *testing.T) {
	assert.True(t, sgbmUnique([]int32{50, 60, 10, 12, 60}, 2, 10))
	assert.False(t, sgbmUnique([]int32{50, 60, 10, 12, 11}, 2, 10))
}

func TestSubpixelParabolic(t *testing.T) {
	assert.Equal(t, int16(32), subpixelParabolic([]int32{10, 4, 0, 4, 10}, 2, 0))
	assert.Equal(t, int16(35), subpixelParabolic([]int32{10, 8, 0, 4, 10}, 2, 0))
	assert.Equal(t, int16(-16), subpixelParabolic([]int32{9, 3, 0}, 2, -3))
}

func TestBoxFilterVolume(t *testing.T) {
	vol := make([]int32, 3*3*2)
	for i := 0; i < 9; i++ {
		vol[i*2] = 1
		vol[i*2+1] = int32(i)
	}
	boxFilterVolume(vol, 3, 3, 2, 1)

	// centre sums the whole 3x3, corners a 2x2
	assert.Equal(t, int32(9), vol[4*2])
	assert.Equal(t, int32(36), vol[4*2+1])
	assert.Equal(t, int32(4), vol[0])
	assert.Equal(t, int32(0+1+3+4), vol[1])
}

func TestSemiGlobalRejectsOversizedVolume(t *testing.T) {
	p := sgbmParams(ModeDefault)
	p.NumDisparities = 32
	m, err := NewSemiGlobalMatcher(p)
	require.NoError(t, err)

	img := image.NewGray(image.Rect(0, 0, 4096, 2049))
	_, err = m.Compute(img, img)
	require.ErrorIs(t, err, ErrInvalidParameter)

	var pe *ParameterError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "NumDisparities", pe.Field)
}
