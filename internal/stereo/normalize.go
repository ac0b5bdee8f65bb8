package stereo

import (
	"image"
	"math"
)

// Normalize rescales the valid disparities of m linearly so that the
// smallest maps to 0 and the largest to 255. Invalid pixels become 0.
// The result is for display only; absolute disparity units are lost.
func Normalize(m *DisparityMap) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	lo, hi := int32(math.MaxInt32), int32(math.MinInt32)
	for _, v := range m.Data {
		if v == Invalid {
			continue
		}
		lo = min(lo, int32(v))
		hi = max(hi, int32(v))
	}
	if lo > hi {
		return out
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := m.At(x, y)
			if v == Invalid {
				continue
			}
			out.Pix[out.PixOffset(x, y)] = rescale(int32(v), lo, hi)
		}
	}
	return out
}

// NormalizeGray stretches src to the full 0..255 range. An image that
// already spans the full range is returned as an identical copy.
func NormalizeGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	lo, hi := int32(255), int32(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for _, v := range src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)] {
			lo = min(lo, int32(v))
			hi = max(hi, int32(v))
		}
	}
	if lo > hi {
		return out
	}
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = rescale(int32(row[x]), lo, hi)
		}
	}
	return out
}

func rescale(v, lo, hi int32) uint8 {
	if hi == lo {
		return 0
	}
	return uint8((int64(v-lo)*255 + int64(hi-lo)/2) / int64(hi-lo))
}

// Downscale8 converts m to whole pixels by dividing by 16 and truncating.
// Invalid and negative values become 0 and values above 255 saturate.
func Downscale8(m *DisparityMap) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Data {
		if v == Invalid || v < 0 {
			continue
		}
		out.Pix[i] = uint8(min(int(v)/SubpixelScale, 255))
	}
	return out
}
