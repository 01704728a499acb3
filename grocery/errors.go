package grocery

import (
	"errors"
	"fmt"
)

var ErrInvalidImage = errors.New("invalid image")

// DetectionError wraps a failure raised by the detector. It is fatal for the request.
type DetectionError struct {
	Cause error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detection failed: %v", e.Cause)
}

func (e *DetectionError) Unwrap() error {
	return e.Cause
}
