package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"stereo-tuner/internal/opencv/conversion"

	"gocv.io/x/gocv"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type imageSaver struct {
	logger        Logger
	timingTracker TimingTracker
}

// SaveToWriter encodes img as png, jpeg, bmp or tiff. An empty format
// selects png.
func (s *imageSaver) SaveToWriter(ctx context.Context, writer io.Writer, img image.Image, format string) error {
	if img == nil {
		return fmt.Errorf("no image data to save")
	}

	ctx = s.timingTracker.StartTiming(ctx, "save_to_writer")
	defer s.timingTracker.EndTiming(ctx)

	saveFormat := format
	if saveFormat == "" {
		saveFormat = "png"
	}

	bounds := img.Bounds()
	s.logger.Debug("ImageSaver", "saving image", map[string]interface{}{
		"format": saveFormat,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	})

	var err error
	switch saveFormat {
	case "jpeg":
		err = jpeg.Encode(writer, img, &jpeg.Options{Quality: 95})
	case "png":
		err = png.Encode(writer, img)
	case "bmp":
		err = bmp.Encode(writer, img)
	case "tiff":
		err = tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = fmt.Errorf("unsupported output format %q", saveFormat)
	}

	if err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": saveFormat,
		})
		return err
	}

	return nil
}

// SaveToPath picks the encoder from the file extension. Extensions without
// a Go encoder are written through OpenCV.
func (s *imageSaver) SaveToPath(ctx context.Context, path string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("no image data to save")
	}

	format := formatFromExtension(filepath.Ext(path), "")
	if format == "" || format == "gif" || format == "webp" {
		return s.saveWithOpenCV(path, img)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := s.SaveToWriter(ctx, file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": format,
	})
	return nil
}

func (s *imageSaver) saveWithOpenCV(path string, img image.Image) error {
	mat, err := conversion.ImageToMat(img)
	if err != nil {
		return fmt.Errorf("image to Mat conversion failed: %w", err)
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat.GetMat()) {
		return fmt.Errorf("OpenCV could not write %s", path)
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": "opencv",
	})
	return nil
}
