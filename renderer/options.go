package renderer

import "time"

// Options configures a Renderer.
type Options struct {
	// Number of worker goroutines driving the scheduler.
	NumWorkers int

	// Frame dimensions.
	FrameW int
	FrameH int

	// Exposure for tonemapping.
	Exposure float32

	// How long to keep rendering before Render returns. Zero means run
	// until Close is called (used by the interactive renderer).
	Duration time.Duration

	// Where to write the final tonemapped frame. Ignored by the
	// interactive renderer.
	OutputPath string
}
