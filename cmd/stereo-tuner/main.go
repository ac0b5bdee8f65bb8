package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"stereo-tuner/internal/config"
	"stereo-tuner/internal/debug/timing"
	"stereo-tuner/internal/logger"
	"stereo-tuner/internal/pipeline"
	"stereo-tuner/internal/services"

	"github.com/rs/zerolog"
)

const AppName = "stereo-tuner"

type options struct {
	left         string
	right        string
	configPath   string
	out          string
	referenceOut string
	saveConfig   string

	filter    bool
	lambda    float64
	sigma     float64
	lambdaSet bool
	sigmaSet  bool
}

func main() {
	log := logger.NewConsoleLogger(logger.ParseLevel(os.Getenv("LOG_LEVEL"))).
		With(map[string]interface{}{"pid": os.Getpid()})

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.Error(AppName, err, nil)
		stop()
		os.Exit(1)
	}
}

func parseArgs(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{}
	fs.StringVar(&opts.left, "left", "", "left image of the rectified pair")
	fs.StringVar(&opts.right, "right", "", "right image of the rectified pair")
	fs.StringVar(&opts.configPath, "config", "", "parameter file (JSON)")
	fs.StringVar(&opts.out, "out", "disparity.png", "output disparity image")
	fs.StringVar(&opts.referenceOut, "reference-out", "", "output left image cropped like the disparity")
	fs.StringVar(&opts.saveConfig, "save-config", "", "write the effective parameters to this file")
	fs.BoolVar(&opts.filter, "filter", false, "refine with the WLS filter")
	fs.Float64Var(&opts.lambda, "lambda", 0, "WLS smoothness weight")
	fs.Float64Var(&opts.sigma, "sigma", 0, "WLS color sensitivity")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lambda":
			opts.lambdaSet = true
		case "sigma":
			opts.sigmaSet = true
		}
	})

	if opts.left == "" || opts.right == "" {
		return nil, fmt.Errorf("both -left and -right are required")
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// apply overlays the command line refiner settings on rec.
func (o *options) apply(rec *config.Record) error {
	if o.filter {
		rec.Filter = true
	}
	if o.lambdaSet {
		rec.Lambda = o.lambda
	}
	if o.sigmaSet {
		rec.SigmaColor = o.sigma
	}
	return rec.CheckRanges()
}

func run(ctx context.Context, opts *options, log logger.Logger) error {
	log.Info(AppName, "starting", map[string]interface{}{
		"go_version": runtime.Version(),
		"num_cpu":    runtime.NumCPU(),
	})

	rec := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath, log)
		if err != nil {
			return err
		}
		rec = *loaded
	}
	if err := opts.apply(&rec); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	params, err := rec.MatchParameters()
	if err != nil {
		return err
	}

	tracker := timing.NewTracker()
	if l, ok := log.(interface{ Enabled(zerolog.Level) bool }); ok {
		tracker.SetEnabled(l.Enabled(zerolog.DebugLevel))
	}
	coordinator := pipeline.NewCoordinator(log, tracker)
	if _, err := coordinator.LoadImage(ctx, pipeline.Left, opts.left); err != nil {
		return fmt.Errorf("left image: %w", err)
	}
	if _, err := coordinator.LoadImage(ctx, pipeline.Right, opts.right); err != nil {
		return fmt.Errorf("right image: %w", err)
	}
	left, right := coordinator.Pair()

	req := services.Request{
		Left:      left.Gray,
		Right:     right.Gray,
		Reference: left.Image,
		Params:    params,
	}
	if rec.Filter {
		fp := rec.FilterParameters()
		req.Filter = &fp
	}

	service := services.NewDisparityService(log, tracker, 1)
	result, err := service.Process(ctx, req)
	if err != nil {
		return err
	}

	if err := coordinator.SaveImage(ctx, opts.out, result.Disparity); err != nil {
		return fmt.Errorf("failed to save disparity: %w", err)
	}
	if opts.referenceOut != "" {
		if err := coordinator.SaveImage(ctx, opts.referenceOut, result.Reference); err != nil {
			return fmt.Errorf("failed to save reference: %w", err)
		}
	}
	if opts.saveConfig != "" {
		if err := rec.Save(opts.saveConfig); err != nil {
			return err
		}
	}

	log.Info(AppName, "done", map[string]interface{}{
		"run_id":  result.RunID,
		"output":  opts.out,
		"region":  result.Region.Rect().String(),
		"valid":   result.Summary.Valid,
		"density": result.Summary.Density,
		"min":     result.Summary.Min,
		"max":     result.Summary.Max,
		"elapsed": result.Elapsed.String(),
	})
	if fields := timingFields(tracker); len(fields) > 0 {
		log.Debug(AppName, "timings", fields)
	}
	return nil
}

// timingFields summarizes every recorded operation as count and average.
func timingFields(tracker *timing.Tracker) map[string]interface{} {
	fields := make(map[string]interface{})
	for op, durations := range tracker.GetAllTimings() {
		if len(durations) == 0 {
			continue
		}
		fields[op] = fmt.Sprintf("%dx avg %s", len(durations), tracker.GetAverageTime(op))
	}
	return fields
}
