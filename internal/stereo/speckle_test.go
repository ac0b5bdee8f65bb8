package stereo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSpeckles(t *testing.T) {
	m := filledMap(10, 10, 32)
	// 2x2 outlier blob
	for _, p := range [][2]int{{2, 2}, {3, 2}, {2, 3}, {3, 3}} {
		m.Set(p[0], p[1], 320)
	}
	// 5-pixel outlier row
	for x := 4; x < 9; x++ {
		m.Set(x, 7, 400)
	}

	filterSpeckles(m, 4, 16)

	assert.Equal(t, Invalid, m.At(2, 2))
	assert.Equal(t, Invalid, m.At(3, 3))
	assert.Equal(t, int16(400), m.At(6, 7))
	assert.Equal(t, int16(32), m.At(0, 0))
	assert.Equal(t, 4, m.InvalidCount())
}

func TestFilterSpecklesJoinsWithinRange(t *testing.T) {
	m := NewDisparityMap(6, 1)
	copy(m.Data, []int16{16, 30, 44, Invalid, 100, 116})

	filterSpeckles(m, 2, 16)

	// 16-30-44 chain within range forms one blob of three
	assert.Equal(t, []int16{16, 30, 44, Invalid, Invalid, Invalid}, m.Data)
}

func TestBlockMatchSpeckleWindow(t *testing.T) {
	left, right := shiftedPair(64, 32, 4)
	p := bmParams(5, 16)
	p.SpeckleWindowSize = 64 * 32
	p.SpeckleRange = 0

	m, err := NewBlockMatcher(p)
	assert.NoError(t, err)
	disp, err := m.Compute(left, right)
	assert.NoError(t, err)
	// every blob is smaller than the whole image
	assert.Equal(t, 64*32, disp.InvalidCount())
}

func TestSpeckleRangeUnits(t *testing.T) {
	bm := bmParams(5, 16)
	bm.SpeckleWindowSize, bm.SpeckleRange = 3, 1
	sg := sgbmParams(ModeDefault)
	sg.SpeckleWindowSize, sg.SpeckleRange = 3, 1

	assert.Equal(t, 1, bm.speckleDiff())
	assert.Equal(t, 16, sg.speckleDiff())

	row := []int16{32, 32, 32, 40, 40, 40}

	// block matcher: 8 raw units exceed the range, two blobs of three
	m := NewDisparityMap(6, 1)
	copy(m.Data, row)
	filterSpeckles(m, bm.SpeckleWindowSize, bm.speckleDiff())
	assert.Equal(t, 6, m.InvalidCount())

	// semi-global: the range is in pixels, one blob of six survives
	m = NewDisparityMap(6, 1)
	copy(m.Data, row)
	filterSpeckles(m, sg.SpeckleWindowSize, sg.speckleDiff())
	assert.Equal(t, row, m.Data)
}
