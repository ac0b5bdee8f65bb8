package stereo

import (
	"image"
)

func hash2(x, y int) uint32 {
	h := uint32(x)*73856093 ^ uint32(y)*19349663
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return h
}

// lowContrast returns a textured value in [base, base+spread).
func lowContrast(x, y int, base, spread uint8) uint8 {
	return base + uint8(hash2(x, y)%uint32(spread))
}

func grayFrom(w, h int, f func(x, y int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Pix[y*g.Stride+x] = f(x, y)
		}
	}
	return g
}

// shiftedPair returns a left image and a right image whose content at x
// is the left content at x+d.
func shiftedPair(w, h, d int) (*image.Gray, *image.Gray) {
	left := grayFrom(w, h, func(x, y int) uint8 { return lowContrast(x, y, 100, 16) })
	right := grayFrom(w, h, func(x, y int) uint8 { return lowContrast(x+d, y, 100, 16) })
	return left, right
}

func filledMap(w, h int, v int16) *DisparityMap {
	m := NewDisparityMap(w, h)
	for i := range m.Data {
		m.Data[i] = v
	}
	return m
}

func copyPix(g *image.Gray) []uint8 {
	return append([]uint8(nil), g.Pix...)
}
