package stereo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	m := &DisparityMap{Width: 2, Height: 2, Data: []int16{16, 32, 48, Invalid}}
	s := Summarize(m)

	assert.Equal(t, 3, s.Valid)
	assert.Equal(t, 1, s.Invalid)
	assert.InDelta(t, 0.75, s.Density, 1e-12)
	assert.InDelta(t, 1.0, s.Min, 1e-12)
	assert.InDelta(t, 3.0, s.Max, 1e-12)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.StdDev, 1e-12)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(NewDisparityMap(3, 3))
	assert.Equal(t, Summary{Invalid: 9}, s)

	single := Summarize(&DisparityMap{Width: 1, Height: 1, Data: []int16{40}})
	assert.InDelta(t, 2.5, single.Mean, 1e-12)
	assert.Zero(t, single.StdDev)
}
