package renderer

import "time"

// FrameStats summarizes throughput over a render run.
type FrameStats struct {
	// Mean and standard deviation of recent batches/sec samples, taken
	// from the scheduler's performance window.
	BatchesPerSecMean   float32
	BatchesPerSecStdDev float32

	// Total wall-clock time since Render was called.
	RenderTime time.Duration
}
