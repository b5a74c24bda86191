package config

import "errors"

// Validation errors returned by Config.Validate. Callers match them with
// errors.Is.
var (
	// ErrInvalidCanvasSize is returned when the logical canvas has a
	// non-positive side.
	ErrInvalidCanvasSize = errors.New("invalid canvas size: width and height must be positive")

	// ErrInvalidContainerWidth is returned when the display container is not
	// wider than zero.
	ErrInvalidContainerWidth = errors.New("invalid container width: must be positive")

	// ErrInvalidZoom is returned when the zoom level is outside the slider range.
	ErrInvalidZoom = errors.New("invalid zoom level: must be between 0.1 and 4")

	// ErrInvalidMaxImageSize is returned when a max image side is negative.
	// Zero leaves that side unbounded.
	ErrInvalidMaxImageSize = errors.New("invalid max image size: must be non-negative")

	ErrInvalidQuality = errors.New("invalid export quality: must be between 1 and 100")

	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")
)
