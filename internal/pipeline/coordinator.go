package pipeline

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// Side selects one view of a stereo pair.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Coordinator keeps the most recently loaded stereo pair and saves results.
type Coordinator struct {
	mu     sync.RWMutex
	left   *ImageData
	right  *ImageData
	loader ImageLoader
	saver  ImageSaver
	logger Logger
}

func NewCoordinator(logger Logger, timingTracker TimingTracker) *Coordinator {
	return &Coordinator{
		loader: &imageLoader{logger: logger, timingTracker: timingTracker},
		saver:  &imageSaver{logger: logger, timingTracker: timingTracker},
		logger: logger,
	}
}

// LoadImage replaces one view of the pair with the decoded file.
func (c *Coordinator) LoadImage(ctx context.Context, side Side, path string) (*ImageData, error) {
	imageData, err := c.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	c.store(side, imageData)
	return imageData, nil
}

// LoadImageBytes is LoadImage for in-memory uploads.
func (c *Coordinator) LoadImageBytes(ctx context.Context, side Side, data []byte, extension string) (*ImageData, error) {
	imageData, err := c.loader.LoadFromBytes(ctx, data, extension)
	if err != nil {
		return nil, err
	}
	c.store(side, imageData)
	return imageData, nil
}

func (c *Coordinator) store(side Side, imageData *ImageData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if side == Right {
		c.right = imageData
	} else {
		c.left = imageData
	}
	c.logger.Debug("Coordinator", "image stored", map[string]interface{}{
		"side":   side.String(),
		"width":  imageData.Width,
		"height": imageData.Height,
	})
}

// Pair returns the loaded views; either may be nil.
func (c *Coordinator) Pair() (left, right *ImageData) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.left, c.right
}

// Reset forgets both views.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.left, c.right = nil, nil
}

func (c *Coordinator) SaveImage(ctx context.Context, path string, img image.Image) error {
	if path == "" {
		return fmt.Errorf("output path is empty")
	}
	return c.saver.SaveToPath(ctx, path, img)
}
