package stereo

import (
	"fmt"
	"image"
)

// Matcher computes a disparity map for a rectified stereo pair.
//
// A Matcher owns scratch buffers and must not be used from several
// goroutines at once.
type Matcher interface {
	Compute(left, right image.Image) (*DisparityMap, error)
}

// Compute runs m on the pair. It is equivalent to m.Compute(left, right).
func Compute(m Matcher, left, right image.Image) (*DisparityMap, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matcher", ErrUnsupportedMatcherVariant)
	}
	return m.Compute(left, right)
}

// NewMatcher builds the matcher selected by the parameter variant.
func NewMatcher(params MatchParameters) (Matcher, error) {
	switch p := params.(type) {
	case BlockMatchParams:
		return NewBlockMatcher(p)
	case SemiGlobalParams:
		return NewSemiGlobalMatcher(p)
	case nil:
		return nil, invalid("params", nil, "must not be nil")
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMatcherVariant, params)
	}
}

// NewBlockMatcher validates params and returns a left-to-right block matcher.
func NewBlockMatcher(params BlockMatchParams) (*BlockMatcher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &BlockMatcher{params: params}, nil
}

// NewSemiGlobalMatcher validates params and returns a left-to-right
// semi-global matcher.
func NewSemiGlobalMatcher(params SemiGlobalParams) (*SemiGlobalMatcher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &SemiGlobalMatcher{params: params}, nil
}

// NewRightMatcher builds the right-to-left counterpart of the matcher that
// params describe. It searches the same range with the same window; the
// uniqueness, texture and left/right checks are left to the fusion stage.
// Its output is the right-view map with negated disparities.
func NewRightMatcher(params MatchParameters) (Matcher, error) {
	switch p := params.(type) {
	case BlockMatchParams:
		if err := p.Validate(); err != nil {
			return nil, err
		}
		mp := p
		mp.UniquenessRatio = 0
		mp.TextureThreshold = 0
		mp.Disp12MaxDiff = -1
		return &BlockMatcher{params: mp, mirrored: true}, nil
	case SemiGlobalParams:
		if err := p.Validate(); err != nil {
			return nil, err
		}
		mp := p
		mp.UniquenessRatio = 0
		mp.Disp12MaxDiff = -1
		return &SemiGlobalMatcher{params: mp, mirrored: true}, nil
	case nil:
		return nil, invalid("params", nil, "must not be nil")
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMatcherVariant, params)
	}
}

// CreateRightMatcher derives the mirrored matcher from a left matcher built
// by this package.
func CreateRightMatcher(left Matcher) (Matcher, error) {
	params, err := paramsOf(left)
	if err != nil {
		return nil, err
	}
	return NewRightMatcher(params)
}

// paramsOf returns the construction parameters of a non-mirrored matcher.
func paramsOf(m Matcher) (MatchParameters, error) {
	switch h := m.(type) {
	case *BlockMatcher:
		if h == nil || h.mirrored {
			break
		}
		return h.params, nil
	case *SemiGlobalMatcher:
		if h == nil || h.mirrored {
			break
		}
		return h.params, nil
	}
	return nil, fmt.Errorf("%w: cannot derive a right matcher from %T", ErrUnsupportedMatcherVariant, m)
}

// BlockMatcher is the handle returned by NewBlockMatcher.
type BlockMatcher struct {
	params   BlockMatchParams
	mirrored bool

	colSAD []int32
	colTex []int32
}

// Params returns the parameters the matcher was built with.
func (bm *BlockMatcher) Params() BlockMatchParams { return bm.params }

// Compute runs block matching on the pair.
func (bm *BlockMatcher) Compute(left, right image.Image) (*DisparityMap, error) {
	if err := checkPair(left, right); err != nil {
		return nil, err
	}
	ref, tgt := lumaPlane(left), lumaPlane(right)
	if bm.mirrored {
		return bm.match(tgt.flipped(), ref.flipped()).mirrored(), nil
	}
	return bm.match(ref, tgt), nil
}

// MaxVolumeCells bounds the W·H·NumDisparities cells of each SGBM cost
// volume; two int32 volumes of this size take 2 GiB.
const MaxVolumeCells = 1 << 28

// SemiGlobalMatcher is the handle returned by NewSemiGlobalMatcher.
type SemiGlobalMatcher struct {
	params   SemiGlobalParams
	mirrored bool

	cost []int32
	sum  []int32
}

// Params returns the parameters the matcher was built with.
func (sg *SemiGlobalMatcher) Params() SemiGlobalParams { return sg.params }

// Compute runs semi-global matching on the pair.
func (sg *SemiGlobalMatcher) Compute(left, right image.Image) (*DisparityMap, error) {
	if err := checkPair(left, right); err != nil {
		return nil, err
	}
	b := left.Bounds()
	if cells := int64(b.Dx()) * int64(b.Dy()) * int64(sg.params.NumDisparities); cells > MaxVolumeCells {
		return nil, invalid("NumDisparities", sg.params.NumDisparities,
			fmt.Sprintf("cost volume of %d cells for %dx%d exceeds %d", cells, b.Dx(), b.Dy(), MaxVolumeCells))
	}
	ref, tgt := lumaPlane(left), lumaPlane(right)
	if sg.mirrored {
		return sg.match(tgt.flipped(), ref.flipped()).mirrored(), nil
	}
	return sg.match(ref, tgt), nil
}

// grow returns buf resliced to n elements, reallocating when too small.
func grow(buf []int32, n int) []int32 {
	if cap(buf) < n {
		return make([]int32, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}
