package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"stereo-tuner/internal/opencv/conversion"
	"stereo-tuner/internal/opencv/safe"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageLoader struct {
	logger        Logger
	timingTracker TimingTracker
}

func (l *imageLoader) LoadFile(ctx context.Context, path string) (*ImageData, error) {
	ctx = l.timingTracker.StartTiming(ctx, "load_file")
	defer l.timingTracker.EndTiming(ctx)

	extension := strings.ToLower(filepath.Ext(path))
	l.logger.Debug("ImageLoader", "loading image", map[string]interface{}{
		"path":      path,
		"extension": extension,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	imageData, err := l.LoadFromBytes(ctx, data, extension)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	imageData.Path = path
	return imageData, nil
}

func (l *imageLoader) LoadFromBytes(ctx context.Context, data []byte, extension string) (*ImageData, error) {
	ctx = l.timingTracker.StartTiming(ctx, "load_from_bytes")
	defer l.timingTracker.EndTiming(ctx)

	if len(data) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}

	// The standard decoders only name the format; OpenCV does the decoding.
	sniffed := ""
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		sniffed = format
	}

	cvCtx := l.timingTracker.StartTiming(ctx, "opencv_decode")
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	l.timingTracker.EndTiming(cvCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image with OpenCV: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("OpenCV could not decode %s data", l.determineActualFormat(extension, sniffed))
	}

	color, err := safe.NewMatFromMat(mat, "loaded_image")
	if err != nil {
		return nil, fmt.Errorf("failed to create safe Mat: %w", err)
	}
	defer color.Close()

	gray, err := conversion.ConvertToGrayscale(color)
	if err != nil {
		return nil, fmt.Errorf("grayscale conversion failed: %w", err)
	}
	defer gray.Close()

	img, err := conversion.MatToImage(color)
	if err != nil {
		return nil, err
	}
	grayImg, err := conversion.MatToImage(gray)
	if err != nil {
		return nil, err
	}

	actualFormat := l.determineActualFormat(extension, sniffed)
	bounds := img.Bounds()

	imageData := &ImageData{
		Image:    img,
		Gray:     grayImg.(*image.Gray),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: color.Channels(),
		Format:   actualFormat,
	}

	l.logger.Info("ImageLoader", "image loaded successfully", map[string]interface{}{
		"width":    imageData.Width,
		"height":   imageData.Height,
		"channels": imageData.Channels,
		"format":   actualFormat,
	})

	return imageData, nil
}

func (l *imageLoader) determineActualFormat(extension, stdLibFormat string) string {
	if stdLibFormat != "" {
		return stdLibFormat
	}
	return formatFromExtension(extension, "unknown")
}

func formatFromExtension(extension, fallback string) string {
	switch strings.ToLower(extension) {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return fallback
	}
}
