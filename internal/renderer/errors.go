package renderer

import (
	"errors"
	"fmt"
	"image"
)

// Sentinel errors for renderer operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrInvalidInput indicates an image or mask that cannot be prepared.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyWindow indicates an amplitude window with no samples.
	ErrEmptyWindow = errors.New("empty amplitude window")
)

// InvalidInputError describes why an image or mask was rejected.
// It matches ErrInvalidInput under errors.Is.
type InvalidInputError struct {
	Subject string // "image" or "mask"
	Reason  string

	// Populated for channel-count failures
	Channels int

	// Populated for dimension failures
	Got  image.Point
	Want image.Point
}

func (e *InvalidInputError) Error() string {
	switch {
	case e.Channels != 0:
		return fmt.Sprintf("%s has %d channels, must be an RGB image with 3 channels", e.Subject, e.Channels)
	case e.Want != (image.Point{}):
		return fmt.Sprintf("%s size %dx%d does not match image size %dx%d", e.Subject, e.Got.X, e.Got.Y, e.Want.X, e.Want.Y)
	default:
		return fmt.Sprintf("%s %dx%d: %s", e.Subject, e.Got.X, e.Got.Y, e.Reason)
	}
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
