package tracer

import "errors"

var (
	// ErrInvalidWorkerCount is returned by NewScheduler when the caller
	// requests a non-positive worker count.
	ErrInvalidWorkerCount = errors.New("tracer: worker count must be positive")

	// ErrInvalidDimensions is returned by NewScheduler when the image
	// dimensions are non-positive.
	ErrInvalidDimensions = errors.New("tracer: image dimensions must be positive")

	// ErrSceneNotDefined is returned by NewScheduler when no scene is
	// supplied.
	ErrSceneNotDefined = errors.New("tracer: no scene defined")
)
