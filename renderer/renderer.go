// Package renderer wires a tracer.Scheduler to a pool of worker goroutines
// and, optionally, an interactive display.
package renderer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/luculentus/pathtracer/log"
	"github.com/luculentus/pathtracer/scene"
	"github.com/luculentus/pathtracer/tracer"
)

// Renderer drives a scene to completion (or indefinitely, for the
// interactive variant) and exposes its running statistics.
type Renderer interface {
	// Render blocks until the configured duration elapses or Close is
	// called.
	Render() error

	// Close stops any running workers and releases attached resources.
	Close()

	// Stats returns a snapshot of the current run's statistics.
	Stats() FrameStats
}

// defaultRenderer drives a tracer.Scheduler with a pool of worker
// goroutines and no display surface. Each worker repeatedly asks the
// scheduler for a task and executes whichever stage it names; the
// scheduler itself never touches pixels.
type defaultRenderer struct {
	options   Options
	scheduler *tracer.Scheduler
	logger    log.Logger

	mu        sync.Mutex
	lastFrame []byte
	startedAt time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDefault builds a batch renderer for sc using opts.
func NewDefault(sc *scene.Scene, opts Options, logger log.Logger) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if opts.NumWorkers < 1 || opts.FrameW <= 0 || opts.FrameH <= 0 {
		return nil, ErrInvalidOptions
	}

	r := &defaultRenderer{options: opts, logger: logger}

	scheduler, err := tracer.NewScheduler(opts.NumWorkers, opts.FrameW, opts.FrameH, sc, opts.Exposure, r.onFrame, logger)
	if err != nil {
		return nil, err
	}
	r.scheduler = scheduler

	return r, nil
}

func (r *defaultRenderer) onFrame(width, height int, rgb []byte) {
	r.mu.Lock()
	r.lastFrame = rgb
	r.mu.Unlock()

	if r.logger != nil {
		mean, stddev, n := r.scheduler.PerfStats()
		r.logger.Debugf("frame delivered: %dx%d, throughput %.2f +- %.2f batches/sec (n=%d)", width, height, mean, stddev, n)
	}
}

// LastFrame returns the most recently delivered tonemapped frame, or nil if
// none has been produced yet.
func (r *defaultRenderer) LastFrame() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFrame
}

// Render starts the worker pool and blocks until options.Duration elapses
// (or forever, if it is zero, until Close is called).
func (r *defaultRenderer) Render() error {
	var ctx context.Context
	if r.options.Duration > 0 {
		ctx, r.cancel = context.WithTimeout(context.Background(), r.options.Duration)
	} else {
		ctx, r.cancel = context.WithCancel(context.Background())
	}
	r.startedAt = time.Now()

	for i := 0; i < r.options.NumWorkers; i++ {
		r.wg.Add(1)
		go r.runWorker(ctx, i)
	}

	<-ctx.Done()
	r.wg.Wait()

	if ctx.Err() == context.DeadlineExceeded {
		return nil
	}
	return ErrInterrupted
}

// runWorker is the loop every worker goroutine runs: ask the scheduler for
// a task, execute whichever stage body it names, and report completion by
// handing it back on the next call. It never inspects scheduler internals
// beyond the accessor methods.
func (r *defaultRenderer) runWorker(ctx context.Context, id int) {
	defer r.wg.Done()

	rnd := rand.New(rand.NewSource(int64(id) + 1))
	task := tracer.Task{}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task = r.scheduler.GetNewTask(task)
		switch task.Kind {
		case tracer.Sleep:
			time.Sleep(time.Duration(10+rnd.Intn(15)) * time.Millisecond)
		case tracer.Trace:
			r.scheduler.TraceUnit(task.PrimaryUnit).Trace(r.scheduler.Scene())
		case tracer.Plot:
			r.scheduler.PlotUnit(task.PrimaryUnit).Plot(r.scheduler.TraceUnitsFor(task.InputUnits))
		case tracer.Gather:
			r.scheduler.GatherUnit().Gather(r.scheduler.PlotUnitsFor(task.InputUnits))
		case tracer.Tonemap:
			r.scheduler.TonemapUnit().Tonemap(r.scheduler.GatherUnit())
		}
	}
}

func (r *defaultRenderer) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *defaultRenderer) Stats() FrameStats {
	mean, stddev, _ := r.scheduler.PerfStats()
	return FrameStats{
		BatchesPerSecMean:   mean,
		BatchesPerSecStdDev: stddev,
		RenderTime:          time.Since(r.startedAt),
	}
}
