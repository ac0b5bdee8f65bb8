package stereo

import "math"

// match computes the left-view disparity of ref against tgt.
func (bm *BlockMatcher) match(ref, tgt *plane) *DisparityMap {
	p := bm.params
	w, h := ref.w, ref.h
	out := NewDisparityMap(w, h)

	r := p.BlockSize / 2
	minD, numD := p.MinDisparity, p.NumDisparities
	maxD := minD + numD

	// pixels whose window and whole search range stay inside both images
	xlo := max(r, maxD-1+r)
	xhi := w - 1 - r + min(minD, 0)
	ylo, yhi := r, h-1-r
	if xlo > xhi || ylo > yhi {
		return out
	}

	var lp, rp []uint8
	switch p.PreFilterType {
	case PreFilterXSobel:
		lp, rp = prefilterXSobel(ref, p.PreFilterCap), prefilterXSobel(tgt, p.PreFilterCap)
	default:
		lp = prefilterNormalized(ref, p.PreFilterSize, p.PreFilterCap)
		rp = prefilterNormalized(tgt, p.PreFilterSize, p.PreFilterCap)
	}

	cx0 := xlo - r
	ncols := xhi + r - cx0 + 1
	bm.colSAD = grow(bm.colSAD, numD*ncols)
	bm.colTex = grow(bm.colTex, ncols)
	colSAD, colTex := bm.colSAD, bm.colTex
	center := int32(p.PreFilterCap)

	addRow := func(y int, sign int32) {
		row := y * w
		for i := 0; i < ncols; i++ {
			x := cx0 + i
			a := int32(lp[row+x])
			colTex[i] += sign * abs32(a-center)
			base := row + x - minD
			for k := 0; k < numD; k++ {
				colSAD[k*ncols+i] += sign * abs32(a-int32(rp[base-k]))
			}
		}
	}
	for y := ylo - r; y <= ylo+r; y++ {
		addRow(y, 1)
	}

	sad := make([]int32, numD)
	rCost := make([]int32, w)
	rDisp := make([]int, w)
	win := 2*r + 1

	for y := ylo; y <= yhi; y++ {
		if y > ylo {
			addRow(y+r, 1)
			addRow(y-r-1, -1)
		}
		for i := range rCost {
			rCost[i] = math.MaxInt32
		}

		var tex int32
		for k := range sad {
			sad[k] = 0
		}
		for i := 0; i < win; i++ {
			tex += colTex[i]
			for k := 0; k < numD; k++ {
				sad[k] += colSAD[k*ncols+i]
			}
		}

		for x := xlo; x <= xhi; x++ {
			if x > xlo {
				in, outCol := x+r-cx0, x-r-1-cx0
				tex += colTex[in] - colTex[outCol]
				for k := 0; k < numD; k++ {
					sad[k] += colSAD[k*ncols+in] - colSAD[k*ncols+outCol]
				}
			}

			best := 0
			for k := 1; k < numD; k++ {
				if sad[k] < sad[best] {
					best = k
				}
			}
			for k := 0; k < numD; k++ {
				xr := x - minD - k
				if sad[k] < rCost[xr] {
					rCost[xr] = sad[k]
					rDisp[xr] = minD + k
				}
			}

			if tex < int32(p.TextureThreshold) {
				continue
			}
			if p.UniquenessRatio > 0 && !unique(sad, best, p.UniquenessRatio) {
				continue
			}
			out.Set(x, y, subpixelEquiangular(sad, best, minD))
		}

		if p.Disp12MaxDiff >= 0 {
			for x := xlo; x <= xhi; x++ {
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

	if p.SpeckleWindowSize > 0 {
		filterSpeckles(out, p.SpeckleWindowSize, p.speckleDiff())
	}
	return out
}

// unique reports whether no candidate away from best is within ratio
// percent of the best cost.
func unique(cost []int32, best, ratio int) bool {
	limit := int64(cost[best]) + int64(cost[best])*int64(ratio)/100
	for k, c := range cost {
		if (k < best-1 || k > best+1) && int64(c) <= limit {
			return false
		}
	}
	return true
}

// subpixelEquiangular refines best with a symmetric V fit, matching the
// linear shape of SAD costs around the minimum.
func subpixelEquiangular(cost []int32, best, minD int) int16 {
	d := float64(minD + best)
	if best == 0 || best == len(cost)-1 {
		return toFixed(d)
	}
	c := int64(cost[best])
	p, n := int64(cost[best+1]), int64(cost[best-1])
	den := p + n - 2*c
	if p > n {
		den += p - n
	} else {
		den += n - p
	}
	if den == 0 {
		return toFixed(d)
	}
	return toFixed(d + float64(n-p)/float64(den))
}
