package pipeline

import (
	"context"
	"image"
	"io"
)

// ImageLoader decodes images from files or memory.
type ImageLoader interface {
	LoadFile(ctx context.Context, path string) (*ImageData, error)
	LoadFromBytes(ctx context.Context, data []byte, extension string) (*ImageData, error)
}

// ImageSaver encodes images to files or writers.
type ImageSaver interface {
	SaveToWriter(ctx context.Context, writer io.Writer, img image.Image, format string) error
	SaveToPath(ctx context.Context, path string, img image.Image) error
}

// ImageData is a decoded image together with its grayscale rendition.
type ImageData struct {
	Image    image.Image
	Gray     *image.Gray
	Width    int
	Height   int
	Channels int
	Format   string
	Path     string
}
