package stereo

import "math"

const (
	defaultLRCThreshold = 24
	smootherIterations  = 3
	// minConfidence is the smallest propagated confidence that still
	// yields a fused value.
	minConfidence = 1e-12
)

// wlsFilter fuses a left and a right disparity map with a fast global
// smoother guided by the left image.
type wlsFilter struct {
	lambda     float64
	sigma      float64
	lrc        int
	ddr        int
	iterations int
}

func newWLSFilter(fp FilterParameters, blockSize int) *wlsFilter {
	f := &wlsFilter{
		lambda:     fp.Lambda,
		sigma:      fp.SigmaColor,
		lrc:        fp.LRCThreshold,
		ddr:        fp.DiscontinuityRadius,
		iterations: smootherIterations,
	}
	if f.lrc == 0 {
		f.lrc = defaultLRCThreshold
	}
	if f.ddr == 0 {
		f.ddr = int(math.Ceil(0.33 * float64(blockSize)))
	}
	return f
}

func (f *wlsFilter) filter(left, right *DisparityMap, guide *plane, roi ValidRegion) *DisparityMap {
	w, h := left.Width, left.Height
	conf := f.confidence(left, right, roi)

	num := make([]float64, w*h)
	for i, c := range conf {
		if c > 0 {
			num[i] = float64(left.Data[i]) * c
		}
	}
	f.smooth(guide, num, conf)

	out := NewDisparityMap(w, h)
	for i := range out.Data {
		if conf[i] > minConfidence {
			out.Data[i] = toFixed(num[i] / conf[i] / SubpixelScale)
		}
	}
	return out
}

// confidence is zero outside roi, for invalid or left/right inconsistent
// pixels, and falls with the local disparity spread elsewhere.
func (f *wlsFilter) confidence(left, right *DisparityMap, roi ValidRegion) []float64 {
	w, h := left.Width, left.Height
	conf := make([]float64, w*h)
	spread := localSpread(left, f.ddr)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := left.Data[i]
			if v == Invalid || !roi.Contains(x, y) {
				continue
			}
			xr := x - wholePixels(v)
			if xr < 0 || xr >= w {
				continue
			}
			rv := right.Data[y*w+xr]
			if rv == Invalid {
				continue
			}
			if diff := int(v) + int(rv); diff > f.lrc || -diff > f.lrc {
				continue
			}
			conf[i] = 1 / (1 + float64(spread[i])/SubpixelScale)
		}
	}
	return conf
}

// localSpread returns max-min of the valid values in a (2r+1)² window.
func localSpread(m *DisparityMap, r int) []int32 {
	w, h := m.Width, m.Height
	lo := make([]int32, w*h)
	hi := make([]int32, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mn, mx := int32(math.MaxInt32), int32(math.MinInt32)
			for xx := max(x-r, 0); xx <= min(x+r, w-1); xx++ {
				if v := m.Data[y*w+xx]; v != Invalid {
					mn, mx = min(mn, int32(v)), max(mx, int32(v))
				}
			}
			lo[y*w+x], hi[y*w+x] = mn, mx
		}
	}

	spread := make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mn, mx := int32(math.MaxInt32), int32(math.MinInt32)
			for yy := max(y-r, 0); yy <= min(y+r, h-1); yy++ {
				mn, mx = min(mn, lo[yy*w+x]), max(mx, hi[yy*w+x])
			}
			if mx >= mn {
				spread[y*w+x] = mx - mn
			}
		}
	}
	return spread
}

// smooth runs the separable weighted-least-squares solver on a and b in
// place. Both share the guide-derived system.
func (f *wlsFilter) smooth(guide *plane, a, b []float64) {
	w, h := guide.w, guide.h
	wx := make([]float64, w*h)
	wy := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := guide.at(x, y)
			if x < w-1 {
				wx[y*w+x] = f.weight(g, guide.at(x+1, y))
			}
			if y < h-1 {
				wy[y*w+x] = f.weight(g, guide.at(x, y+1))
			}
		}
	}

	n := max(w, h)
	s := &tridiag{
		weights: make([]float64, n),
		cp:      make([]float64, n),
		a:       make([]float64, n),
		b:       make([]float64, n),
	}

	denom := math.Pow(4, float64(f.iterations)) - 1
	for t := 0; t < f.iterations; t++ {
		lambda := 1.5 * f.lambda * math.Pow(4, float64(f.iterations-1-t)) / denom
		if lambda == 0 {
			return
		}
		for y := 0; y < h; y++ {
			s.solve(lambda, w, wx[y*w:], 1, a[y*w:], b[y*w:])
		}
		for x := 0; x < w; x++ {
			s.solve(lambda, h, wy[x:], w, a[x:], b[x:])
		}
	}
}

func (f *wlsFilter) weight(a, b uint8) float64 {
	d := math.Abs(float64(a) - float64(b))
	if f.sigma == 0 {
		if d == 0 {
			return 1
		}
		return 0
	}
	return math.Exp(-d / f.sigma)
}

// tridiag holds scratch space for 1-D solves of
// (I + lambda*L) u = f, where L is the weighted path Laplacian.
type tridiag struct {
	weights, cp, a, b []float64
}

// solve processes n samples spaced stride apart in weights, u and v.
func (s *tridiag) solve(lambda float64, n int, weights []float64, stride int, u, v []float64) {
	for i := 0; i < n-1; i++ {
		s.weights[i] = lambda * weights[i*stride]
	}
	s.weights[n-1] = 0

	// forward sweep (Thomas algorithm)
	var prevC, prevW float64
	for i := 0; i < n; i++ {
		lower := prevW
		upper := s.weights[i]
		diag := 1 + lower + upper - lower*prevC
		s.cp[i] = -upper / diag
		ai, bi := u[i*stride], v[i*stride]
		if i > 0 {
			ai += lower * s.a[i-1]
			bi += lower * s.b[i-1]
		}
		s.a[i], s.b[i] = ai/diag, bi/diag
		prevC, prevW = -s.cp[i], upper
	}
	// back substitution
	u[(n-1)*stride], v[(n-1)*stride] = s.a[n-1], s.b[n-1]
	for i := n - 2; i >= 0; i-- {
		s.a[i] -= s.cp[i] * s.a[i+1]
		s.b[i] -= s.cp[i] * s.b[i+1]
		u[i*stride], v[i*stride] = s.a[i], s.b[i]
	}
}
