package renderer

import "errors"

var (
	// ErrInvalidOptions is returned when the worker count or frame
	// dimensions in Options are non-positive.
	ErrInvalidOptions = errors.New("renderer: invalid options")

	// ErrSceneNotDefined is returned when no scene is supplied.
	ErrSceneNotDefined = errors.New("renderer: no scene defined")

	// ErrInterrupted is returned by Render when it is stopped by Close
	// before its configured duration elapses.
	ErrInterrupted = errors.New("renderer: interrupted while rendering")
)
