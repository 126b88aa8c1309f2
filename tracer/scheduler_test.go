package tracer

import (
	"testing"
	"time"

	"github.com/luculentus/pathtracer/scene"
)

func testScene() *scene.Scene {
	sc := scene.NewScene()
	sc.SetCamera(scene.NewCamera(0.9))
	return sc
}

// newTestScheduler builds a scheduler with a fixed, test-controlled clock so
// the tonemap-interval branch of the dispatch policy never fires unless a
// test explicitly advances it.
func newTestScheduler(t *testing.T, n, width, height int) (*Scheduler, *time.Time) {
	t.Helper()
	s, err := NewScheduler(n, width, height, testScene(), 1.0, nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	clock := s.nowFunc()
	s.nowFunc = func() time.Time { return clock }
	s.lastTonemap = clock
	return s, &clock
}

func TestColdStart(t *testing.T) {
	s, _ := newTestScheduler(t, 2, 4, 4)

	task := s.GetNewTask(Task{})
	if task.Kind != Trace || task.PrimaryUnit != 0 {
		t.Fatalf("expected Trace(0), got %+v", task)
	}
	if s.availableTrace.len() != 5 {
		t.Fatalf("expected 5 available trace units, got %d", s.availableTrace.len())
	}
	if s.traceState[0] != stateInFlight {
		t.Fatalf("expected trace unit 0 to be InFlight")
	}
}

func TestTraceDrainThenPlot(t *testing.T) {
	s, _ := newTestScheduler(t, 2, 4, 4)

	// Dispatch all six trace units before completing any of them, so Plot is
	// never chosen while they drain: completing them one at a time through
	// GetNewTask would select a Plot as soon as four are done (> T/2).
	var traces []Task
	for i := 0; i < 6; i++ {
		task := s.GetNewTask(Task{})
		if task.Kind != Trace {
			t.Fatalf("expected Trace dispatch, got %s", task.Kind)
		}
		traces = append(traces, task)
	}
	task := traces[5]
	if task.Kind != Trace || task.PrimaryUnit != 5 {
		t.Fatalf("expected Trace(5) as the sixth dispatch, got %+v", task)
	}
	for _, tr := range traces[:5] {
		s.completeTask(tr)
	}

	// Completing the sixth trace leaves doneTrace = [0..5], over T/2, so the
	// next dispatch is a Plot task consuming the three oldest done traces.
	plotTask := s.GetNewTask(task)
	if plotTask.Kind != Plot {
		t.Fatalf("expected Plot dispatch, got %s", plotTask.Kind)
	}
	if len(plotTask.InputUnits) != 3 {
		t.Fatalf("expected plot task to consume 3 trace units, got %d", len(plotTask.InputUnits))
	}
	for i, want := range []int{0, 1, 2} {
		if plotTask.InputUnits[i] != want {
			t.Fatalf("expected input %d to be trace unit %d, got %d", i, want, plotTask.InputUnits[i])
		}
	}
	if s.doneTrace.len() != 3 {
		t.Fatalf("expected 3 remaining done traces, got %d", s.doneTrace.len())
	}

	// Completing the plot should recycle traces 0,1,2 and hand plot 0 to
	// donePlot, then the next dispatch should go back to tracing.
	next := s.GetNewTask(plotTask)
	if next.Kind != Trace {
		t.Fatalf("expected Trace dispatch after plot recycle, got %s", next.Kind)
	}
	if s.availableTrace.len() != 2 {
		t.Fatalf("expected 2 available trace units after recycle, got %d", s.availableTrace.len())
	}
	if s.donePlot.len() != 1 {
		t.Fatalf("expected 1 done plot unit, got %d", s.donePlot.len())
	}
}

func TestDisplayRefreshPath(t *testing.T) {
	s, clock := newTestScheduler(t, 2, 4, 4)

	// Force a state where a plot is done but the image hasn't changed,
	// and advance the clock past the tonemap interval.
	s.donePlot.push(0)
	s.plotState[0] = stateDone
	s.imageChanged = false
	*clock = s.lastTonemap.Add(tonemapInterval + time.Second)

	var gotFrame []byte
	var gotW, gotH int
	s.onFrame = func(w, h int, rgb []byte) {
		gotW, gotH = w, h
		gotFrame = rgb
	}

	gatherTask := s.GetNewTask(Task{})
	if gatherTask.Kind != Gather {
		t.Fatalf("expected Gather dispatch, got %s", gatherTask.Kind)
	}

	tonemapTask := s.GetNewTask(gatherTask)
	if !s.imageChanged {
		t.Fatalf("expected imageChanged=true after gather completes")
	}
	if tonemapTask.Kind != Tonemap {
		t.Fatalf("expected Tonemap dispatch, got %s", tonemapTask.Kind)
	}

	next := s.GetNewTask(tonemapTask)
	_ = next
	if s.imageChanged {
		t.Fatalf("expected imageChanged=false after tonemap completes")
	}
	if !s.lastTonemap.Equal(*clock) {
		t.Fatalf("expected lastTonemap to be refreshed to the current clock value")
	}
	if s.perf.count != 1 {
		t.Fatalf("expected 1 performance sample, got %d", s.perf.count)
	}
	if gotFrame == nil {
		t.Fatalf("expected display sink to be invoked")
	}
	if gotW != 4 || gotH != 4 || len(gotFrame) != 4*4*3 {
		t.Fatalf("unexpected frame dimensions: %dx%d, %d bytes", gotW, gotH, len(gotFrame))
	}
}

func TestDeadlockEscape(t *testing.T) {
	s, _ := newTestScheduler(t, 2, 4, 4)

	// Drain every trace and plot unit into InFlight with nothing done and
	// nothing available, and make the singletons busy too, so no branch
	// of the dispatch policy has anything to hand out.
	s.availableTrace = intQueue{}
	s.doneTrace = intQueue{}
	for i := range s.traceState {
		s.traceState[i] = stateInFlight
	}
	s.availablePlot = intQueue{}
	s.donePlot = intQueue{}
	for i := range s.plotState {
		s.plotState[i] = stateInFlight
	}
	s.gatherAvailable = false
	s.tonemapAvailable = false

	beforeCompletedTraces := s.completedTraces
	beforeImageChanged := s.imageChanged
	beforeGatherAvailable := s.gatherAvailable
	beforeTonemapAvailable := s.tonemapAvailable

	task := s.GetNewTask(Task{})
	if task.Kind != Sleep {
		t.Fatalf("expected Sleep dispatch, got %s", task.Kind)
	}

	next := s.GetNewTask(task)
	if next.Kind != Sleep {
		t.Fatalf("expected Sleep dispatch again, got %s", next.Kind)
	}

	if s.completedTraces != beforeCompletedTraces ||
		s.imageChanged != beforeImageChanged ||
		s.gatherAvailable != beforeGatherAvailable ||
		s.tonemapAvailable != beforeTonemapAvailable {
		t.Fatalf("Sleep completion must not mutate scheduler state")
	}
}

func TestPerformanceWindowBound(t *testing.T) {
	s, clock := newTestScheduler(t, 2, 4, 4)

	for i := 0; i < 600; i++ {
		*clock = s.lastTonemap.Add(time.Second)
		s.completeTask(Task{Kind: Tonemap})
	}

	if s.perf.count != perfWindowCapacity {
		t.Fatalf("expected window to cap at %d entries, got %d", perfWindowCapacity, s.perf.count)
	}
}

func TestSleepIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(t, 2, 4, 4)
	beforeCompletedTraces := s.completedTraces
	beforeImageChanged := s.imageChanged
	beforeAvailableTraceLen := s.availableTrace.len()
	beforeDoneTraceLen := s.doneTrace.len()

	s.completeTask(Task{Kind: Sleep})

	if s.completedTraces != beforeCompletedTraces ||
		s.imageChanged != beforeImageChanged ||
		s.availableTrace.len() != beforeAvailableTraceLen ||
		s.doneTrace.len() != beforeDoneTraceLen {
		t.Fatalf("completing a Sleep task must leave scheduler state unchanged")
	}
}

func TestContractViolationPanics(t *testing.T) {
	s, _ := newTestScheduler(t, 2, 4, 4)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when completing a trace unit that was never dispatched")
		}
	}()
	s.completeTask(Task{Kind: Trace, PrimaryUnit: 0})
}

func TestPoolConservation(t *testing.T) {
	s, _ := newTestScheduler(t, 4, 4, 4)
	total := len(s.traceUnits)

	task := Task{}
	for i := 0; i < 200; i++ {
		task = s.GetNewTask(task)
		inFlight := 0
		for _, st := range s.traceState {
			if st == stateInFlight {
				inFlight++
			}
		}
		if s.availableTrace.len()+s.doneTrace.len()+inFlight != total {
			t.Fatalf("trace pool conservation violated at step %d", i)
		}

		// A conforming worker always closes out whatever task it was
		// handed, even Sleep and singleton tasks, so keep feeding
		// completions back in.
		if task.Kind == Sleep {
			// A Sleep is fed back like any other task; the loop is
			// bounded at 200 steps, so a deadlocked run cannot spin
			// forever in this test.
			continue
		}
	}
}

func TestInvalidConstruction(t *testing.T) {
	sc := testScene()

	if _, err := NewScheduler(0, 4, 4, sc, 1.0, nil, nil); err != ErrInvalidWorkerCount {
		t.Fatalf("expected ErrInvalidWorkerCount, got %v", err)
	}
	if _, err := NewScheduler(2, 0, 4, sc, 1.0, nil, nil); err != ErrInvalidDimensions {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
	if _, err := NewScheduler(2, 4, 4, nil, 1.0, nil, nil); err != ErrSceneNotDefined {
		t.Fatalf("expected ErrSceneNotDefined, got %v", err)
	}
}
