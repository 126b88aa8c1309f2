package tracer

// Kind identifies which stage body a Task belongs to. The set is closed: a
// tagged enum plus an exhaustive switch is preferred over an interface
// hierarchy since no new stage is ever added at runtime.
type Kind uint8

const (
	// Sleep is the sentinel completion passed on the very first call to
	// GetNewTask, and the task returned when no other stage has useful
	// work to dispense.
	Sleep Kind = iota
	Trace
	Plot
	Gather
	Tonemap
)

func (k Kind) String() string {
	switch k {
	case Trace:
		return "trace"
	case Plot:
		return "plot"
	case Gather:
		return "gather"
	case Tonemap:
		return "tonemap"
	default:
		return "sleep"
	}
}

// Task is an immutable value describing one unit of pipeline work: which
// stage body to run, the unit it will write (unused for Gather, Tonemap and
// Sleep), and the units it will read and consume.
//
// A worker executes the stage body named by Kind against PrimaryUnit and
// InputUnits, then calls Scheduler.GetNewTask passing this same Task back as
// the completed task, receiving its next assignment in the same call.
type Task struct {
	Kind Kind

	// PrimaryUnit is the unit index this task writes to. Meaningless for
	// Gather, Tonemap and Sleep, which either have no single output unit
	// or write to a singleton implicitly.
	PrimaryUnit int

	// InputUnits are the unit indices this task reads (and, once the
	// task completes, will have consumed).
	InputUnits []int
}

// sleepTask is the sentinel completion used for the very first GetNewTask
// call and the value returned whenever no pipeline stage has useful work.
var sleepTask = Task{Kind: Sleep}
