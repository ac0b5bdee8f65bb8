package conversion

import (
	"fmt"
	"image"

	"stereo-tuner/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ConvertToGrayscale converts multi-channel images to single-channel grayscale
func ConvertToGrayscale(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 1 {
		return src.Clone()
	}

	dst := gocv.NewMat()
	defer dst.Close()

	switch src.Channels() {
	case 3:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRAToGray)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	return safe.NewMatFromMat(dst, "grayscale")
}

// MatToImage converts an 8-bit GoCV Mat to a standard Go image. Gray Mats
// become *image.Gray, BGR and BGRA Mats become *image.RGBA.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	channels := src.Channels()
	if err := safe.ValidateChannels(channels, "Mat to image conversion"); err != nil {
		return nil, err
	}

	data, err := src.Bytes()
	if err != nil {
		return nil, fmt.Errorf("pixel access failed: %w", err)
	}
	if len(data) != rows*cols*channels {
		return nil, fmt.Errorf("unexpected buffer size %d for %dx%dx%d Mat", len(data), cols, rows, channels)
	}

	if channels == 1 {
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data)
		return img, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for i, j := 0, 0; i < len(data); i, j = i+channels, j+4 {
		img.Pix[j] = data[i+2]
		img.Pix[j+1] = data[i+1]
		img.Pix[j+2] = data[i]
		img.Pix[j+3] = 255
		if channels == 4 {
			img.Pix[j+3] = data[i+3]
		}
	}
	return img, nil
}

// ImageToMat converts a standard Go image to a GoCV Mat: gray images give
// a single-channel Mat, everything else a BGR Mat.
func ImageToMat(img image.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if err := safe.ValidateDimensions(width, height, "image to Mat conversion"); err != nil {
		return nil, err
	}

	var (
		data    []byte
		matType gocv.MatType
	)
	if gray, ok := img.(*image.Gray); ok {
		data, matType = grayBytes(gray), gocv.MatTypeCV8UC1
	} else {
		data, matType = bgrBytes(img), gocv.MatTypeCV8UC3
	}

	mat, err := gocv.NewMatFromBytes(height, width, matType, data)
	if err != nil {
		return nil, fmt.Errorf("Mat creation failed: %w", err)
	}
	defer mat.Close()

	return safe.NewMatFromMat(mat, "from_image")
}

func grayBytes(img *image.Gray) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		out = append(out, img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]...)
	}
	return out
}

func bgrBytes(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, uint8(bl>>8), uint8(g>>8), uint8(r>>8))
		}
	}
	return out
}
