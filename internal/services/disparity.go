package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"stereo-tuner/internal/stereo"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrIncompletePair is returned when a request lacks one of its views.
var ErrIncompletePair = errors.New("stereo pair incomplete")

type Logger interface {
	Debug(component string, message string, fields map[string]interface{})
	Info(component string, message string, fields map[string]interface{})
	Warning(component string, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

type TimingTracker interface {
	StartTiming(parent context.Context, operation string) context.Context
	EndTiming(ctx context.Context) time.Duration
}

// Request is one disparity computation. A nil Filter skips refinement.
// Reference is the view returned alongside the disparity, typically the
// color left image when Left is its grayscale rendition; nil uses Left.
type Request struct {
	Left      image.Image
	Right     image.Image
	Reference image.Image
	Params    stereo.MatchParameters
	Filter    *stereo.FilterParameters
}

func (r Request) reference() (image.Image, error) {
	if r.Reference == nil {
		return r.Left, nil
	}
	lb, rb := r.Left.Bounds(), r.Reference.Bounds()
	if lb.Dx() != rb.Dx() || lb.Dy() != rb.Dy() {
		return nil, fmt.Errorf("%w: reference %dx%d, left %dx%d",
			stereo.ErrDimensionMismatch, rb.Dx(), rb.Dy(), lb.Dx(), lb.Dy())
	}
	return r.Reference, nil
}

// Result holds the display image of a run and the map it was built from.
// With refinement, Raw, Disparity and Reference are cropped to Region.
type Result struct {
	RunID     string
	Disparity *image.Gray
	Reference image.Image
	Raw       *stereo.DisparityMap
	Region    stereo.ValidRegion
	Summary   stereo.Summary
	Elapsed   time.Duration
	Filtered  bool
}

type ProcessingStats struct {
	TotalProcessed     int
	SuccessfulRuns     int
	FailedRuns         int
	AverageTime        time.Duration
	LastRunID          string
	LastProcessingTime time.Time
}

// DisparityService runs requests on a bounded number of worker slots.
type DisparityService struct {
	logger     Logger
	timing     TimingTracker
	workerPool chan struct{}

	mu        sync.Mutex
	succeeded int
	failed    int
	totalTime time.Duration
	lastRunID string
	lastRunAt time.Time
}

// NewDisparityService creates a service with the given number of worker
// slots; workers <= 0 uses one slot per CPU.
func NewDisparityService(logger Logger, tracker TimingTracker, workers int) *DisparityService {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		pool <- struct{}{}
	}

	return &DisparityService{
		logger:     logger,
		timing:     tracker,
		workerPool: pool,
	}
}

// Process computes the disparity of req. The context bounds the wait for a
// worker slot; a started computation runs to completion.
func (s *DisparityService) Process(ctx context.Context, req Request) (*Result, error) {
	if req.Left == nil || req.Right == nil {
		return nil, ErrIncompletePair
	}

	select {
	case <-s.workerPool:
		defer func() { s.workerPool <- struct{}{} }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	runID := uuid.NewString()
	timingCtx := s.timing.StartTiming(ctx, "disparity_run")
	start := time.Now()

	var (
		result *Result
		err    error
	)
	if req.Filter != nil {
		result, err = s.refined(req)
	} else {
		result, err = s.unfiltered(req)
	}

	s.timing.EndTiming(timingCtx)
	elapsed := time.Since(start)
	s.record(runID, elapsed, err == nil)

	if err != nil {
		s.logger.Error("DisparityService", err, map[string]interface{}{
			"run_id":  runID,
			"variant": variantName(req.Params),
		})
		return nil, err
	}

	result.RunID = runID
	result.Elapsed = elapsed
	result.Summary = stereo.Summarize(result.Raw)

	s.logger.Info("DisparityService", "disparity computed", map[string]interface{}{
		"run_id":   runID,
		"variant":  variantName(req.Params),
		"filtered": result.Filtered,
		"width":    result.Raw.Width,
		"height":   result.Raw.Height,
		"density":  result.Summary.Density,
		"elapsed":  elapsed.String(),
	})
	return result, nil
}

func (s *DisparityService) unfiltered(req Request) (*Result, error) {
	reference, err := req.reference()
	if err != nil {
		return nil, err
	}
	matcher, err := stereo.NewMatcher(req.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}
	disparity, err := stereo.Compute(matcher, req.Left, req.Right)
	if err != nil {
		return nil, fmt.Errorf("disparity computation failed: %w", err)
	}

	return &Result{
		Disparity: stereo.Normalize(disparity),
		Reference: reference,
		Raw:       disparity,
		Region:    stereo.ValidRegion{Width: disparity.Width, Height: disparity.Height},
	}, nil
}

func (s *DisparityService) refined(req Request) (*Result, error) {
	source, err := req.reference()
	if err != nil {
		return nil, err
	}
	matcher, err := stereo.NewMatcher(req.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}
	fused, region, err := stereo.Refine(matcher, req.Params, req.Left, req.Right, *req.Filter)
	if err != nil {
		return nil, fmt.Errorf("disparity refinement failed: %w", err)
	}
	if region.Empty() {
		return nil, fmt.Errorf("refined region is empty for %dx%d input", fused.Width, fused.Height)
	}

	cropped := fused.Crop(region)
	origin := source.Bounds().Min
	reference := imaging.Crop(source, region.Rect().Add(origin))

	return &Result{
		Disparity: stereo.NormalizeGray(stereo.Downscale8(cropped)),
		Reference: reference,
		Raw:       cropped,
		Region:    region,
		Filtered:  true,
	}, nil
}

func (s *DisparityService) record(runID string, elapsed time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok {
		s.succeeded++
		s.totalTime += elapsed
	} else {
		s.failed++
	}
	s.lastRunID = runID
	s.lastRunAt = time.Now()
}

// GetProcessingStats returns processing performance statistics
func (s *DisparityService) GetProcessingStats() ProcessingStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := ProcessingStats{
		TotalProcessed:     s.succeeded + s.failed,
		SuccessfulRuns:     s.succeeded,
		FailedRuns:         s.failed,
		LastRunID:          s.lastRunID,
		LastProcessingTime: s.lastRunAt,
	}
	if s.succeeded > 0 {
		stats.AverageTime = s.totalTime / time.Duration(s.succeeded)
	}
	return stats
}

func variantName(params stereo.MatchParameters) string {
	if params == nil {
		return "none"
	}
	return params.Variant().String()
}
