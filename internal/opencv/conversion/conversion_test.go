package conversion

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrayBytesHonoursSubImage(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range g.Pix {
		g.Pix[i] = uint8(i)
	}
	sub := g.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)
	assert.Equal(t, []byte{5, 6, 9, 10}, grayBytes(sub))
}

func TestBGRBytesSwapsChannels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	assert.Equal(t, []byte{30, 20, 10, 50, 100, 200}, bgrBytes(img))
}

func TestImageToMatRejectsNil(t *testing.T) {
	_, err := ImageToMat(nil)
	assert.Error(t, err)
}
