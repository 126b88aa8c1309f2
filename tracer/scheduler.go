package tracer

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/luculentus/pathtracer/log"
	"github.com/luculentus/pathtracer/scene"
)

// tonemapInterval is the minimum wall-clock gap between display refreshes.
const tonemapInterval = 30 * time.Second

type unitState uint8

const (
	stateAvailable unitState = iota
	stateDone
	stateInFlight
)

// Scheduler coordinates rendering work across a pool of CPU worker threads.
// It owns four disjoint unit pools (trace, plot, gather, tonemap) and hands
// out Tasks through the single exported scheduling operation, GetNewTask. All mutable
// state lives behind one mutex; stage bodies never run while it is held.
type Scheduler struct {
	mu sync.Mutex

	width, height int
	scene         *scene.Scene
	logger        log.Logger
	onFrame       func(width, height int, rgb []byte)
	nowFunc       func() time.Time

	traceUnits  []*TraceUnit
	plotUnits   []*PlotUnit
	gatherUnit  *GatherUnit
	tonemapUnit *TonemapUnit

	traceState []unitState
	plotState  []unitState

	availableTrace intQueue
	doneTrace      intQueue
	availablePlot  intQueue
	donePlot       intQueue

	gatherAvailable  bool
	tonemapAvailable bool
	imageChanged     bool

	lastTonemap     time.Time
	completedTraces int
	perf            perfWindow
}

// NewScheduler allocates the four unit pools for a worker count of n and an
// image of width x height pixels, and returns a scheduler ready to dispense
// its first Trace task. onFrame is invoked once per completed Tonemap task,
// outside the scheduler's lock, with a private copy of the frame bytes.
func NewScheduler(n, width, height int, sc *scene.Scene, exposure float32, onFrame func(width, height int, rgb []byte), logger log.Logger) (*Scheduler, error) {
	if n < 1 {
		return nil, ErrInvalidWorkerCount
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if sc == nil {
		return nil, ErrSceneNotDefined
	}

	traceCount := n * 3
	if traceCount < 1 {
		traceCount = 1
	}
	plotCount := n / 2
	if plotCount < 1 {
		plotCount = 1
	}

	seedSrc := rand.New(rand.NewSource(time.Now().UnixNano()))

	s := &Scheduler{
		width:            width,
		height:           height,
		scene:            sc,
		logger:           logger,
		onFrame:          onFrame,
		nowFunc:          time.Now,
		traceUnits:       make([]*TraceUnit, traceCount),
		plotUnits:        make([]*PlotUnit, plotCount),
		gatherUnit:       newGatherUnit(width, height),
		tonemapUnit:      newTonemapUnit(width, height, exposure),
		traceState:       make([]unitState, traceCount),
		plotState:        make([]unitState, plotCount),
		gatherAvailable:  true,
		tonemapAvailable: true,
		imageChanged:     false,
	}

	for i := 0; i < traceCount; i++ {
		s.traceUnits[i] = newTraceUnit(width, height, seedSrc.Int63())
		s.availableTrace.push(i)
	}
	for i := 0; i < plotCount; i++ {
		s.plotUnits[i] = newPlotUnit(width, height)
		s.availablePlot.push(i)
	}

	s.lastTonemap = s.nowFunc()

	return s, nil
}

// Dimensions returns the image width and height this scheduler was built
// for.
func (s *Scheduler) Dimensions() (int, int) { return s.width, s.height }

// Scene returns the opaque scene object forwarded to trace units.
func (s *Scheduler) Scene() *scene.Scene { return s.scene }

// TraceUnit returns the trace unit at index i. Safe to call without holding
// the scheduler's lock: a unit named in a dispatched task is exclusively
// borrowed by the worker holding that task until it completes.
func (s *Scheduler) TraceUnit(i int) *TraceUnit { return s.traceUnits[i] }

// PlotUnit returns the plot unit at index i.
func (s *Scheduler) PlotUnit(i int) *PlotUnit { return s.plotUnits[i] }

// GatherUnit returns the single gather unit.
func (s *Scheduler) GatherUnit() *GatherUnit { return s.gatherUnit }

// TonemapUnit returns the single tonemap unit.
func (s *Scheduler) TonemapUnit() *TonemapUnit { return s.tonemapUnit }

// TraceUnitsFor resolves a Plot task's input indices to their trace units.
func (s *Scheduler) TraceUnitsFor(indices []int) []*TraceUnit {
	out := make([]*TraceUnit, len(indices))
	for i, idx := range indices {
		out[i] = s.traceUnits[idx]
	}
	return out
}

// PlotUnitsFor resolves a Gather task's input indices to their plot units.
func (s *Scheduler) PlotUnitsFor(indices []int) []*PlotUnit {
	out := make([]*PlotUnit, len(indices))
	for i, idx := range indices {
		out[i] = s.plotUnits[idx]
	}
	return out
}

// PerfStats returns the mean and standard deviation of recent batches/sec
// throughput samples, and the number of samples currently retained.
func (s *Scheduler) PerfStats() (mean, stddev float32, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perf.stats()
}

// GetNewTask applies the completion effects of previouslyCompleted and
// returns the next task to run, all under one critical section. Pass
// sleepTask (the zero Task) on the very first call.
func (s *Scheduler) GetNewTask(previouslyCompleted Task) Task {
	s.mu.Lock()
	frame, hasFrame := s.completeTask(previouslyCompleted)
	next := s.dispatch()
	s.mu.Unlock()

	if hasFrame && s.onFrame != nil {
		s.onFrame(s.width, s.height, frame)
	}
	return next
}

// completeTask applies the bookkeeping effects of a completed task. Must be
// called with s.mu held.
func (s *Scheduler) completeTask(t Task) (frame []byte, hasFrame bool) {
	switch t.Kind {
	case Sleep:
		// Consumes no resources.

	case Trace:
		s.expectInFlight(s.traceState, t.PrimaryUnit, "trace")
		s.traceState[t.PrimaryUnit] = stateDone
		s.doneTrace.push(t.PrimaryUnit)
		s.completedTraces++

	case Plot:
		s.expectInFlight(s.plotState, t.PrimaryUnit, "plot")
		s.plotState[t.PrimaryUnit] = stateDone
		s.donePlot.push(t.PrimaryUnit)
		for _, ti := range t.InputUnits {
			s.expectInFlight(s.traceState, ti, "trace")
			s.traceState[ti] = stateAvailable
			s.availableTrace.push(ti)
		}

	case Gather:
		for _, pi := range t.InputUnits {
			s.expectInFlight(s.plotState, pi, "plot")
			s.plotState[pi] = stateAvailable
			s.availablePlot.push(pi)
		}
		s.gatherAvailable = true
		s.imageChanged = true

	case Tonemap:
		s.gatherAvailable = true
		s.tonemapAvailable = true
		s.imageChanged = false

		now := s.nowFunc()
		elapsedMs := float32(now.Sub(s.lastTonemap).Milliseconds())
		if elapsedMs <= 0 {
			elapsedMs = 1
		}
		batchesPerSecond := float32(s.completedTraces) * 1000 / elapsedMs
		s.perf.add(batchesPerSecond)
		mean, stddev, n := s.perf.stats()
		if s.logger != nil {
			s.logger.Noticef("performance: %.2f +- %.2f batches/sec (n=%d)", mean, stddev, n)
		}

		s.lastTonemap = now
		s.completedTraces = 0

		frame = append([]byte(nil), s.tonemapUnit.Frame...)
		hasFrame = true

	default:
		panic(fmt.Sprintf("tracer: unknown task kind %d completed", t.Kind))
	}

	return frame, hasFrame
}

// expectInFlight panics if idx does not name a unit currently InFlight in
// states. A conforming worker never triggers this; tripping it means a
// caller completed a task naming a unit it never held (§7 error kind 1).
func (s *Scheduler) expectInFlight(states []unitState, idx int, kind string) {
	if idx < 0 || idx >= len(states) {
		panic(fmt.Sprintf("tracer: completed %s task names out-of-range unit %d", kind, idx))
	}
	if states[idx] != stateInFlight {
		panic(fmt.Sprintf("tracer: completed %s task names unit %d which is not in flight", kind, idx))
	}
}

// dispatch selects the next task under the ordered policy in
// SPEC_FULL.md §4.2. Must be called with s.mu held.
func (s *Scheduler) dispatch() Task {
	now := s.nowFunc()
	if now.Sub(s.lastTonemap) > tonemapInterval {
		if s.imageChanged {
			if s.gatherAvailable && s.tonemapAvailable {
				return s.createTonemapTask()
			}
		} else if s.gatherAvailable && !s.donePlot.empty() {
			return s.createGatherTask()
		}
	}

	if s.doneTrace.len() > len(s.traceUnits)/2 && !s.availablePlot.empty() {
		return s.createPlotTask()
	}

	if !s.availableTrace.empty() {
		return s.createTraceTask()
	}

	if !s.availablePlot.empty() && !s.doneTrace.empty() {
		return s.createPlotTask()
	}

	if s.gatherAvailable && !s.donePlot.empty() {
		return s.createGatherTask()
	}

	return sleepTask
}

func (s *Scheduler) createTraceTask() Task {
	idx := s.availableTrace.popFront()
	s.traceState[idx] = stateInFlight
	return Task{Kind: Trace, PrimaryUnit: idx}
}

func (s *Scheduler) createPlotTask() Task {
	idx := s.availablePlot.popFront()
	s.plotState[idx] = stateInFlight

	// Guarded even though the caller only ever reaches here with
	// |doneTrace| > 0; kept robust against future policy changes
	// (SPEC_FULL.md §9 Design Notes, Open Question).
	done := s.doneTrace.len()
	n := 1
	if done > 0 {
		n = done / 2
		if n < 1 {
			n = 1
		}
		if n > done {
			n = done
		}
	} else {
		n = 0
	}

	inputs := s.doneTrace.popFrontN(n)
	for _, ti := range inputs {
		s.traceState[ti] = stateInFlight
	}

	return Task{Kind: Plot, PrimaryUnit: idx, InputUnits: inputs}
}

func (s *Scheduler) createGatherTask() Task {
	s.gatherAvailable = false
	inputs := s.donePlot.drainAll()
	for _, pi := range inputs {
		s.plotState[pi] = stateInFlight
	}
	return Task{Kind: Gather, InputUnits: inputs}
}

func (s *Scheduler) createTonemapTask() Task {
	s.gatherAvailable = false
	s.tonemapAvailable = false
	return Task{Kind: Tonemap}
}
