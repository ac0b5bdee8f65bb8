package stereo

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bmParams(block, numD int) BlockMatchParams {
	return BlockMatchParams{
		BlockSize:      block,
		NumDisparities: numD,
		PreFilterCap:   63,
		PreFilterSize:  9,
		PreFilterType:  PreFilterXSobel,
		Disp12MaxDiff:  -1,
	}
}

func TestBlockMatchZeroParallax(t *testing.T) {
	left, _ := shiftedPair(128, 48, 0)
	right := grayFrom(128, 48, func(x, y int) uint8 { return left.GrayAt(x, y).Y })

	p := bmParams(5, 64)
	p.PreFilterCap = 31
	m, err := NewBlockMatcher(p)
	require.NoError(t, err)

	disp, err := m.Compute(left, right)
	require.NoError(t, err)
	require.Equal(t, 128, disp.Width)
	require.Equal(t, 48, disp.Height)

	valid := 0
	for _, v := range disp.Data {
		if v == Invalid {
			continue
		}
		valid++
		assert.Equal(t, int16(0), v)
	}
	assert.Positive(t, valid)
}

func TestBlockMatchShiftedSquare(t *testing.T) {
	const (
		w, h  = 96, 64
		shift = 8
		sx    = 40
		sy    = 16
		side  = 32
	)
	stripe := func(c int) uint8 { return lowContrast(c, 0, 100, 16) }
	background := func(x, y int) uint8 { return lowContrast(x, y+1000, 60, 16) }

	left := grayFrom(w, h, func(x, y int) uint8 {
		if x >= sx && x < sx+side && y >= sy && y < sy+side {
			return stripe(x - sx)
		}
		return background(x, y)
	})
	right := grayFrom(w, h, func(x, y int) uint8 {
		if x >= sx-shift && x < sx-shift+side && y >= sy && y < sy+side {
			return stripe(x - sx + shift)
		}
		return background(x, y)
	})

	m, err := NewBlockMatcher(bmParams(9, 16))
	require.NoError(t, err)
	disp, err := m.Compute(left, right)
	require.NoError(t, err)

	// the window plus the sobel support stays inside the square
	for y := sy + 5; y <= sy+side-6; y++ {
		for x := sx + 5; x <= sx+side-6; x++ {
			v := disp.At(x, y)
			require.NotEqual(t, Invalid, v, "pixel (%d,%d)", x, y)
			assert.InDelta(t, shift*SubpixelScale, int(v), SubpixelScale/2, "pixel (%d,%d)", x, y)
			assert.Equal(t, shift, wholePixels(v))
		}
	}
}

func TestBlockMatchValidColumns(t *testing.T) {
	left, right := shiftedPair(80, 40, 4)
	p := bmParams(7, 16)
	m, err := NewBlockMatcher(p)
	require.NoError(t, err)
	disp, err := m.Compute(left, right)
	require.NoError(t, err)

	r := p.BlockSize / 2
	xlo := p.NumDisparities - 1 + r
	xhi := 80 - 1 - r
	for y := 0; y < disp.Height; y++ {
		for x := 0; x < disp.Width; x++ {
			if x < xlo || x > xhi || y < r || y > 40-1-r {
				assert.False(t, disp.Valid(x, y), "pixel (%d,%d) outside the search window", x, y)
			}
		}
	}
}

func TestBlockMatchTextureThreshold(t *testing.T) {
	flat := grayFrom(64, 32, func(int, int) uint8 { return 128 })
	p := bmParams(5, 16)
	p.TextureThreshold = 10
	m, err := NewBlockMatcher(p)
	require.NoError(t, err)

	disp, err := m.Compute(flat, flat)
	require.NoError(t, err)
	assert.Equal(t, 64*32, disp.InvalidCount())
}

func TestBlockMatchNormalizedPrefilter(t *testing.T) {
	left, right := shiftedPair(96, 48, 6)
	p := bmParams(9, 16)
	p.PreFilterType = PreFilterNormalizedResponse
	p.PreFilterCap = 31
	m, err := NewBlockMatcher(p)
	require.NoError(t, err)
	disp, err := m.Compute(left, right)
	require.NoError(t, err)

	total, hits := 0, 0
	for y := 8; y < 40; y++ {
		for x := 30; x < 80; x++ {
			if v := disp.At(x, y); v != Invalid {
				total++
				if wholePixels(v) == 6 {
					hits++
				}
			}
		}
	}
	require.Positive(t, total)
	assert.GreaterOrEqual(t, float64(hits)/float64(total), 0.9)
}

func TestBlockMatchDoesNotMutateInput(t *testing.T) {
	left, right := shiftedPair(64, 32, 3)
	lp, rp := copyPix(left), copyPix(right)

	m, err := NewBlockMatcher(bmParams(5, 16))
	require.NoError(t, err)
	_, err = m.Compute(left, right)
	require.NoError(t, err)

	assert.Equal(t, lp, left.Pix)
	assert.Equal(t, rp, right.Pix)
}

func TestBlockMatchColorInput(t *testing.T) {
	gl, gr := shiftedPair(64, 32, 3)
	toRGBA := func(g *image.Gray) *image.RGBA {
		out := image.NewRGBA(g.Bounds())
		for y := 0; y < 32; y++ {
			for x := 0; x < 64; x++ {
				out.Set(x, y, g.GrayAt(x, y))
			}
		}
		return out
	}

	m, err := NewBlockMatcher(bmParams(5, 16))
	require.NoError(t, err)
	fromGray, err := m.Compute(gl, gr)
	require.NoError(t, err)
	fromColor, err := m.Compute(toRGBA(gl), toRGBA(gr))
	require.NoError(t, err)

	assert.Equal(t, fromGray.Data, fromColor.Data)
}

func TestUnique(t *testing.T) {
	assert.True(t, unique([]int32{50, 60, 10, 12, 60}, 2, 15))
	assert.False(t, unique([]int32{11, 60, 10, 12, 60}, 2, 15))
	// neighbours of the winner never reject it
	assert.True(t, unique([]int32{50, 10, 10, 10, 60}, 2, 15))
}

func TestSubpixelEquiangular(t *testing.T) {
	assert.Equal(t, int16(32), subpixelEquiangular([]int32{10, 4, 0, 4, 10}, 2, 0))
	assert.Equal(t, int16(36), subpixelEquiangular([]int32{10, 8, 0, 4, 10}, 2, 0))
	assert.Equal(t, int16(4*SubpixelScale), subpixelEquiangular([]int32{0, 3, 9}, 0, 4))
}
