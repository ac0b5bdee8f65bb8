package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDimensions(t *testing.T) {
	assert.NoError(t, ValidateDimensions(640, 480, "load"))
	assert.Error(t, ValidateDimensions(0, 480, "load"))
	assert.Error(t, ValidateDimensions(640, -1, "load"))
	assert.ErrorContains(t, ValidateDimensions(40000, 10, "load"), "exceed maximum size")
}

func TestValidateChannels(t *testing.T) {
	for _, c := range []int{1, 3, 4} {
		assert.NoError(t, ValidateChannels(c, "convert"))
	}
	assert.ErrorContains(t, ValidateChannels(2, "convert"), "unsupported channel count 2")
}

func TestValidateNilMat(t *testing.T) {
	assert.ErrorContains(t, ValidateMatForOperation(nil, "grayscale"), "nil")
}

func TestValidateClosedMatNamesTag(t *testing.T) {
	assert.ErrorContains(t, ValidateMatForOperation(&Mat{}, "grayscale"), "untagged is invalid")
	assert.ErrorContains(t, ValidateMatForOperation(&Mat{tag: "left"}, "grayscale"), "Mat left is invalid")
}
