package stereo

import (
	"image"
	"math"
)

const (
	// SubpixelBits is the number of fractional bits in a raw disparity.
	SubpixelBits = 4
	// SubpixelScale converts raw values to pixels.
	SubpixelScale = 1 << SubpixelBits
	// Invalid marks pixels without a disparity estimate.
	Invalid int16 = math.MinInt16
)

// plane is a single-channel 8-bit image stored row-major.
type plane struct {
	w, h int
	pix  []uint8
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]uint8, w*h)}
}

func (p *plane) at(x, y int) uint8 {
	return p.pix[y*p.w+x]
}

// clampedAt reads with replicated borders.
func (p *plane) clampedAt(x, y int) int32 {
	x = min(max(x, 0), p.w-1)
	y = min(max(y, 0), p.h-1)
	return int32(p.pix[y*p.w+x])
}

func (p *plane) flipped() *plane {
	out := newPlane(p.w, p.h)
	for y := 0; y < p.h; y++ {
		row := p.pix[y*p.w : (y+1)*p.w]
		dst := out.pix[y*p.w : (y+1)*p.w]
		for x := range row {
			dst[p.w-1-x] = row[x]
		}
	}
	return out
}

// lumaPlane converts any image to BT.601 luma in a new buffer.
func lumaPlane(img image.Image) *plane {
	b := img.Bounds()
	p := newPlane(b.Dx(), b.Dy())

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < p.h; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(p.pix[y*p.w:(y+1)*p.w], g.Pix[off:off+p.w])
		}
		return p
	}

	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// 14-bit fixed-point weights 0.299, 0.587, 0.114
			v := (uint32(r>>8)*4899 + uint32(g>>8)*9617 + uint32(bl>>8)*1868 + 8192) >> 14
			p.pix[y*p.w+x] = uint8(min(v, 255))
		}
	}
	return p
}

func (p *plane) gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, p.w, p.h))
	copy(g.Pix, p.pix)
	return g
}

// Grayscale returns a new single-channel copy of img.
func Grayscale(img image.Image) *image.Gray {
	return lumaPlane(img).gray()
}

// DisparityMap holds fixed-point disparities: value/SubpixelScale pixels.
type DisparityMap struct {
	Width  int
	Height int
	Data   []int16
}

// NewDisparityMap returns a map with every pixel set to Invalid.
func NewDisparityMap(width, height int) *DisparityMap {
	m := &DisparityMap{Width: width, Height: height, Data: make([]int16, width*height)}
	for i := range m.Data {
		m.Data[i] = Invalid
	}
	return m
}

func (m *DisparityMap) At(x, y int) int16 {
	return m.Data[y*m.Width+x]
}

func (m *DisparityMap) Set(x, y int, v int16) {
	m.Data[y*m.Width+x] = v
}

func (m *DisparityMap) Valid(x, y int) bool {
	return m.Data[y*m.Width+x] != Invalid
}

// Disparity returns the disparity in pixels and whether it is valid.
func (m *DisparityMap) Disparity(x, y int) (float64, bool) {
	v := m.At(x, y)
	if v == Invalid {
		return 0, false
	}
	return float64(v) / SubpixelScale, true
}

// InvalidCount returns the number of pixels without an estimate.
func (m *DisparityMap) InvalidCount() int {
	n := 0
	for _, v := range m.Data {
		if v == Invalid {
			n++
		}
	}
	return n
}

func (m *DisparityMap) Clone() *DisparityMap {
	c := &DisparityMap{Width: m.Width, Height: m.Height, Data: make([]int16, len(m.Data))}
	copy(c.Data, m.Data)
	return c
}

// Crop returns a copy of the pixels inside r. r is clamped to the map.
func (m *DisparityMap) Crop(r ValidRegion) *DisparityMap {
	r = r.clamp(m.Width, m.Height)
	c := &DisparityMap{Width: r.Width, Height: r.Height, Data: make([]int16, r.Width*r.Height)}
	for y := 0; y < r.Height; y++ {
		src := m.Data[(r.Y+y)*m.Width+r.X:]
		copy(c.Data[y*r.Width:(y+1)*r.Width], src[:r.Width])
	}
	return c
}

// mirrored flips the map horizontally and negates valid values, turning a
// disparity computed on flipped, swapped images into a right-view map.
func (m *DisparityMap) mirrored() *DisparityMap {
	out := NewDisparityMap(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := m.At(x, y)
			if v != Invalid {
				out.Set(m.Width-1-x, y, -v)
			}
		}
	}
	return out
}

// ValidRegion is the rectangle of pixels a refined map considers reliable.
type ValidRegion struct {
	X, Y, Width, Height int
}

func (r ValidRegion) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r ValidRegion) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r ValidRegion) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r ValidRegion) clamp(w, h int) ValidRegion {
	x0 := min(max(r.X, 0), w)
	y0 := min(max(r.Y, 0), h)
	x1 := min(max(r.X+r.Width, x0), w)
	y1 := min(max(r.Y+r.Height, y0), h)
	return ValidRegion{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func checkPair(left, right image.Image) error {
	if left == nil || left.Bounds().Empty() {
		return invalid("left", nil, "must be a non-empty image")
	}
	if right == nil || right.Bounds().Empty() {
		return invalid("right", nil, "must be a non-empty image")
	}
	lb, rb := left.Bounds(), right.Bounds()
	if lb.Dx() != rb.Dx() || lb.Dy() != rb.Dy() {
		return mismatch(lb.Dx(), lb.Dy(), rb.Dx(), rb.Dy())
	}
	return nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// wholePixels rounds a raw disparity to the nearest pixel.
func wholePixels(v int16) int {
	return int(math.Round(float64(v) / SubpixelScale))
}

func toFixed(d float64) int16 {
	v := math.Round(d * SubpixelScale)
	return int16(min(max(v, -math.MaxInt16), math.MaxInt16))
}
