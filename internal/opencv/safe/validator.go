package safe

import (
	"fmt"
)

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat %s is invalid for operation: %s", mat.Tag(), operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat %s is empty for operation: %s", mat.Tag(), operation)
	}

	return ValidateDimensions(mat.Cols(), mat.Rows(), operation)
}

// ValidateDimensions rejects empty sizes and sizes beyond what an int16
// disparity column index can address.
func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > 32768 || height > 32768 {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

// ValidateChannels accepts the channel counts produced by IMDecode.
func ValidateChannels(channels int, operation string) error {
	switch channels {
	case 1, 3, 4:
		return nil
	default:
		return fmt.Errorf("unsupported channel count %d for operation: %s", channels, operation)
	}
}
