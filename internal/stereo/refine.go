package stereo

import (
	"fmt"
	"image"
)

// Refine computes the left and mirrored right disparity maps of the pair
// and fuses them with an edge-aware smoother guided by the left image.
//
// primary must be a left matcher built by this package from params. The
// returned map keeps the 1/16 pixel scale; the region marks the pixels
// the fusion considers reliable and is always inside the image.
func Refine(primary Matcher, params MatchParameters, left, right image.Image, fp FilterParameters) (*DisparityMap, ValidRegion, error) {
	if err := fp.Validate(); err != nil {
		return nil, ValidRegion{}, err
	}
	own, err := paramsOf(primary)
	if err != nil {
		return nil, ValidRegion{}, err
	}
	if params != own {
		return nil, ValidRegion{}, invalid("params", params, "must match the primary matcher")
	}
	if err := checkPair(left, right); err != nil {
		return nil, ValidRegion{}, err
	}

	leftGray, rightGray := Grayscale(left), Grayscale(right)

	mirror, err := NewRightMatcher(params)
	if err != nil {
		return nil, ValidRegion{}, err
	}

	dl, err := primary.Compute(leftGray, rightGray)
	if err != nil {
		return nil, ValidRegion{}, fmt.Errorf("left disparity: %w", err)
	}
	dr, err := mirror.Compute(leftGray, rightGray)
	if err != nil {
		return nil, ValidRegion{}, fmt.Errorf("right disparity: %w", err)
	}

	w, h := dl.Width, dl.Height
	roi := computeROI(params, w, h)
	guide := lumaPlane(leftGray)

	fused := newWLSFilter(fp, params.windowSize()).filter(dl, dr, guide, roi)
	return fused, roi, nil
}

// computeROI returns the rectangle where both the block window and the
// whole search range fit inside the image.
func computeROI(params MatchParameters, w, h int) ValidRegion {
	minD, numD := params.searchRange()
	half := params.windowSize() / 2

	xmin := minD + numD - 1 + half
	xmax := w + minD - half
	ymin := half
	ymax := h - half

	return ValidRegion{X: xmin, Y: ymin, Width: xmax - xmin, Height: ymax - ymin}.clamp(w, h)
}
