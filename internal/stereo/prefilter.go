package stereo

// prefilterNormalized subtracts the local mean over a size×size window and
// maps the clipped response to [0, 2*clip].
func prefilterNormalized(src *plane, size, clip int) []uint8 {
	w, h := src.w, src.h
	r := size / 2

	// integral image with a one pixel zero border
	stride := w + 1
	integral := make([]int64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(src.pix[y*w+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	out := make([]uint8, w*h)
	c := int32(clip)
	for y := 0; y < h; y++ {
		y0, y1 := max(y-r, 0), min(y+r, h-1)+1
		for x := 0; x < w; x++ {
			x0, x1 := max(x-r, 0), min(x+r, w-1)+1
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] - integral[y1*stride+x0] + integral[y0*stride+x0]
			area := int64((y1 - y0) * (x1 - x0))
			mean := int32((sum + area/2) / area)
			v := int32(src.pix[y*w+x]) - mean
			out[y*w+x] = uint8(min(max(v, -c), c) + c)
		}
	}
	return out
}

// prefilterXSobel maps the clipped horizontal Sobel response to [0, 2*clip].
func prefilterXSobel(src *plane, clip int) []uint8 {
	w, h := src.w, src.h
	out := make([]uint8, w*h)
	c := int32(clip)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.clampedAt(x+1, y-1) + 2*src.clampedAt(x+1, y) + src.clampedAt(x+1, y+1) -
				src.clampedAt(x-1, y-1) - 2*src.clampedAt(x-1, y) - src.clampedAt(x-1, y+1)
			out[y*w+x] = uint8(min(max(v, -c), c) + c)
		}
	}
	return out
}
