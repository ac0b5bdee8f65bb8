package stereo

import "math"

// direction is a path step (dx, dy): the predecessor of (x, y) is (x-dx, y-dy).
type direction struct{ dx, dy int }

var (
	fiveWay  = []direction{{1, 0}, {-1, 0}, {1, 1}, {0, 1}, {-1, 1}}
	eightWay = []direction{{1, 0}, {-1, 0}, {1, 1}, {0, 1}, {-1, 1}, {1, -1}, {0, -1}, {-1, -1}}
	threeWay = []direction{{1, 0}, {-1, 0}, {0, 1}}
)

func (m Mode) directions() []direction {
	switch m {
	case ModeFullDP:
		return eightWay
	case ModeThreeWay:
		return threeWay
	default:
		return fiveWay
	}
}

// match computes the left-view disparity of ref against tgt.
func (sg *SemiGlobalMatcher) match(ref, tgt *plane) *DisparityMap {
	p := sg.params
	w, h := ref.w, ref.h
	out := NewDisparityMap(w, h)

	minD, numD := p.MinDisparity, p.NumDisparities
	maxD := minD + numD
	xlo := max(maxD-1, 0)
	xhi := w - 1 + min(minD, 0)
	if xlo > xhi {
		return out
	}
	cw := xhi - xlo + 1

	sg.cost = grow(sg.cost, cw*h*numD)
	sg.pixelCosts(ref, tgt, xlo, cw)
	if r := p.BlockSize / 2; r > 0 {
		boxFilterVolume(sg.cost, cw, h, numD, r)
	}

	sg.sum = grow(sg.sum, cw*h*numD)
	aggregatePaths(sg.cost, sg.sum, cw, h, numD, int32(p.P1), int32(p.effectiveP2()), p.Mode.directions())

	sg.selectDisparities(out, xlo, cw)

	if p.SpeckleWindowSize > 0 {
		filterSpeckles(out, p.SpeckleWindowSize, p.speckleDiff())
	}
	return out
}

// pixelCosts fills sg.cost with Birchfield-Tomasi dissimilarities of the
// clipped x-sobel images plus a quarter of those of the raw intensities.
func (sg *SemiGlobalMatcher) pixelCosts(ref, tgt *plane, xlo, cw int) {
	p := sg.params
	w, h := ref.w, ref.h
	minD, numD := p.MinDisparity, p.NumDisparities

	ls := halfSampled(prefilterXSobel(ref, p.PreFilterCap), w, h)
	rs := halfSampled(prefilterXSobel(tgt, p.PreFilterCap), w, h)
	li := halfSampled(ref.pix, w, h)
	ri := halfSampled(tgt.pix, w, h)

	for y := 0; y < h; y++ {
		for i := 0; i < cw; i++ {
			x := xlo + i
			lo := y*w + x
			c := sg.cost[(y*cw+i)*numD : (y*cw+i+1)*numD]
			for k := 0; k < numD; k++ {
				ro := y*w + x - minD - k
				c[k] = ls.dissimilarity(lo, rs, ro) + li.dissimilarity(lo, ri, ro)>>2
			}
		}
	}
}

// sampled keeps each pixel with the min and max of its half-pixel
// linear interpolations along the row.
type sampled struct {
	val, lo, hi []int32
}

func halfSampled(pix []uint8, w, h int) sampled {
	s := sampled{
		val: make([]int32, w*h),
		lo:  make([]int32, w*h),
		hi:  make([]int32, w*h),
	}
	for y := 0; y < h; y++ {
		row := pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			v := int32(row[x])
			l := (v + int32(row[max(x-1, 0)])) / 2
			r := (v + int32(row[min(x+1, w-1)])) / 2
			s.val[y*w+x] = v
			s.lo[y*w+x] = min(v, l, r)
			s.hi[y*w+x] = max(v, l, r)
		}
	}
	return s
}

func (s sampled) dissimilarity(i int, o sampled, j int) int32 {
	a, b := s.val[i], o.val[j]
	c1 := max(0, a-o.hi[j], o.lo[j]-a)
	c2 := max(0, b-s.hi[i], s.lo[i]-b)
	return min(c1, c2)
}

// boxFilterVolume replaces every cost with its sum over a (2r+1)² window,
// clipped at the volume borders.
func boxFilterVolume(vol []int32, cols, rows, depth, r int) {
	line := make([]int32, (max(cols, rows)+1)*depth)

	for y := 0; y < rows; y++ {
		base := y * cols * depth
		for x := 0; x < cols; x++ {
			for k := 0; k < depth; k++ {
				line[(x+1)*depth+k] = line[x*depth+k] + vol[base+x*depth+k]
			}
		}
		for x := 0; x < cols; x++ {
			lo, hi := max(x-r, 0), min(x+r, cols-1)+1
			for k := 0; k < depth; k++ {
				vol[base+x*depth+k] = line[hi*depth+k] - line[lo*depth+k]
			}
		}
	}

	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			for k := 0; k < depth; k++ {
				line[(y+1)*depth+k] = line[y*depth+k] + vol[(y*cols+x)*depth+k]
			}
		}
		for y := 0; y < rows; y++ {
			lo, hi := max(y-r, 0), min(y+r, rows-1)+1
			for k := 0; k < depth; k++ {
				vol[(y*cols+x)*depth+k] = line[hi*depth+k] - line[lo*depth+k]
			}
		}
	}
}

// aggregatePaths adds the smoothness-penalized path costs of every
// direction into sum.
func aggregatePaths(cost, sum []int32, cols, rows, depth int, p1, p2 int32, dirs []direction) {
	prev := make([]int32, cols*depth)
	cur := make([]int32, cols*depth)
	prevMin := make([]int32, cols)
	curMin := make([]int32, cols)

	for _, dir := range dirs {
		y0, y1, ystep := 0, rows, 1
		if dir.dy < 0 {
			y0, y1, ystep = rows-1, -1, -1
		}
		x0, x1, xstep := 0, cols, 1
		if dir.dx < 0 {
			x0, x1, xstep = cols-1, -1, -1
		}

		for y := y0; y != y1; y += ystep {
			py := y - dir.dy
			for x := x0; x != x1; x += xstep {
				px := x - dir.dx
				off := (y*cols + x) * depth
				c := cost[off : off+depth]
				l := cur[x*depth : (x+1)*depth]

				if px < 0 || px >= cols || py < 0 || py >= rows {
					copy(l, c)
					curMin[x] = minOf(l)
				} else {
					var lp []int32
					var mp int32
					if dir.dy == 0 {
						lp, mp = cur[px*depth:(px+1)*depth], curMin[px]
					} else {
						lp, mp = prev[px*depth:(px+1)*depth], prevMin[px]
					}
					jump := mp + p2
					lmin := int32(math.MaxInt32)
					for k := 0; k < depth; k++ {
						v := min(lp[k], jump)
						if k > 0 {
							v = min(v, lp[k-1]+p1)
						}
						if k < depth-1 {
							v = min(v, lp[k+1]+p1)
						}
						l[k] = c[k] + v - mp
						lmin = min(lmin, l[k])
					}
					curMin[x] = lmin
				}

				s := sum[off : off+depth]
				for k, v := range l {
					s[k] += v
				}
			}
			prev, cur = cur, prev
			prevMin, curMin = curMin, prevMin
		}
	}
}

func minOf(v []int32) int32 {
	m := v[0]
	for _, c := range v[1:] {
		m = min(m, c)
	}
	return m
}

// selectDisparities picks the winner of every aggregated cost vector and
// applies the uniqueness and left/right checks.
func (sg *SemiGlobalMatcher) selectDisparities(out *DisparityMap, xlo, cw int) {
	p := sg.params
	w := out.Width
	minD, numD := p.MinDisparity, p.NumDisparities

	rCost := make([]int32, w)
	rDisp := make([]int, w)

	for y := 0; y < out.Height; y++ {
		for i := range rCost {
			rCost[i] = math.MaxInt32
		}
		for i := 0; i < cw; i++ {
			x := xlo + i
			s := sg.sum[(y*cw+i)*numD : (y*cw+i+1)*numD]

			best := 0
			for k := 1; k < numD; k++ {
				if s[k] < s[best] {
					best = k
				}
			}
			for k := 0; k < numD; k++ {
				xr := x - minD - k
				if s[k] < rCost[xr] {
					rCost[xr] = s[k]
					rDisp[xr] = minD + k
				}
			}

			if p.UniquenessRatio > 0 && !sgbmUnique(s, best, p.UniquenessRatio) {
				continue
			}
			out.Set(x, y, subpixelParabolic(s, best, minD))
		}

		if p.Disp12MaxDiff < 0 {
			continue
		}
		for i := 0; i < cw; i++ {
			x := xlo + i
			v := out.At(x, y)
			if v == Invalid {
				continue
			}
			d := wholePixels(v)
			xr := x - d
			if xr < 0 || xr >= w || rCost[xr] == math.MaxInt32 {
				continue
			}
			if diff := rDisp[xr] - d; diff > p.Disp12MaxDiff || -diff > p.Disp12MaxDiff {
				out.Set(x, y, Invalid)
			}
		}
	}
}

func sgbmUnique(s []int32, best, ratio int) bool {
	limit := int64(s[best]) * 100
	for k, v := range s {
		if (k < best-1 || k > best+1) && int64(v)*int64(100-ratio) < limit {
			return false
		}
	}
	return true
}

// subpixelParabolic refines best with a parabola through its neighbours.
func subpixelParabolic(s []int32, best, minD int) int16 {
	d := float64(minD + best)
	if best == 0 || best == len(s)-1 {
		return toFixed(d)
	}
	n, c, p := int64(s[best-1]), int64(s[best]), int64(s[best+1])
	den := max(n+p-2*c, 1)
	return toFixed(d + float64(n-p)/float64(2*den))
}
