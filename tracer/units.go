package tracer

import (
	"math"
	"math/rand"

	"github.com/luculentus/pathtracer/scene"
)

// xyz is a single-precision CIE XYZ tristimulus sample.
type xyz struct {
	X, Y, Z float32
}

// xyz64 is a double-precision XYZ accumulator, used for the plot and gather
// buffers which sum many samples over the run.
type xyz64 struct {
	X, Y, Z float64
}

func (a xyz64) add(b xyz) xyz64 {
	return xyz64{a.X + float64(b.X), a.Y + float64(b.Y), a.Z + float64(b.Z)}
}

func (a xyz64) addAccum(b xyz64) xyz64 {
	return xyz64{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// TraceUnit holds one batch of wavelength-sampled ray contributions and the
// private random state used to produce them. Each trace unit is seeded
// independently at construction (§3 Lifecycle) so concurrent trace tasks
// never share mutable RNG state.
type TraceUnit struct {
	Width, Height int
	Random        *rand.Rand
	Samples       []xyz
}

func newTraceUnit(width, height int, seed int64) *TraceUnit {
	return &TraceUnit{
		Width:   width,
		Height:  height,
		Random:  rand.New(rand.NewSource(seed)),
		Samples: make([]xyz, width*height),
	}
}

// Trace fills the unit with one fresh batch of samples for sc.
func (tu *TraceUnit) Trace(sc *scene.Scene) {
	for y := 0; y < tu.Height; y++ {
		for x := 0; x < tu.Width; x++ {
			wavelength := visibleSpectrumMin + tu.Random.Float64()*visibleSpectrumRange
			r := cameraRay(sc.Camera, tu.Width, tu.Height, x, y, tu.Random)
			radiance := traceRay(sc, r, tu.Random, 0)

			xBar, yBar, zBar := colorMatch(wavelength)
			weight := float32(radiance) * float32(visibleSpectrumRange)
			tu.Samples[y*tu.Width+x] = xyz{
				X: float32(xBar) * weight,
				Y: float32(yBar) * weight,
				Z: float32(zBar) * weight,
			}
		}
	}
}

// PlotUnit accumulates the contribution of one or more trace units into a
// local framebuffer. It is treated as empty on every dispatch (§4.5): the
// scheduler only ever hands it a fresh batch of trace inputs to sum, never
// asks it to keep accumulating across dispatches while Available.
type PlotUnit struct {
	Width, Height int
	Framebuffer   []xyz64

	// TraceCount is the number of trace batches summed into this plot
	// unit by the most recent Plot call, used to normalize the gather
	// accumulator's running mean.
	TraceCount int
}

func newPlotUnit(width, height int) *PlotUnit {
	return &PlotUnit{
		Width:       width,
		Height:      height,
		Framebuffer: make([]xyz64, width*height),
	}
}

// Plot sums the given trace units' samples into the plot unit's buffer.
func (pu *PlotUnit) Plot(traceUnits []*TraceUnit) {
	for i := range pu.Framebuffer {
		pu.Framebuffer[i] = xyz64{}
	}
	for _, tu := range traceUnits {
		for i, s := range tu.Samples {
			pu.Framebuffer[i] = pu.Framebuffer[i].add(s)
		}
	}
	pu.TraceCount = len(traceUnits)
}

// GatherUnit is the single canonical HDR accumulator that plot units are
// summed into.
type GatherUnit struct {
	Width, Height int
	Accum         []xyz64
	SampleCount   int
}

func newGatherUnit(width, height int) *GatherUnit {
	return &GatherUnit{
		Width:  width,
		Height: height,
		Accum:  make([]xyz64, width*height),
	}
}

// Gather adds each plot unit's framebuffer into the accumulator and zeroes
// the consumed plot units, per the external contract in §4.5.
func (gu *GatherUnit) Gather(plotUnits []*PlotUnit) {
	for _, pu := range plotUnits {
		for i, s := range pu.Framebuffer {
			gu.Accum[i] = gu.Accum[i].addAccum(s)
			pu.Framebuffer[i] = xyz64{}
		}
		gu.SampleCount += pu.TraceCount
	}
}

// TonemapUnit is the single 8-bit display buffer produced from the gather
// unit via a tonemap curve.
type TonemapUnit struct {
	Width, Height int
	Exposure      float32
	Frame         []byte
}

func newTonemapUnit(width, height int, exposure float32) *TonemapUnit {
	return &TonemapUnit{
		Width:    width,
		Height:   height,
		Exposure: exposure,
		Frame:    make([]byte, width*height*3),
	}
}

// Tonemap reads gu and writes a tightly packed width*height*3 sRGB buffer,
// row-major, no alpha (matching §6's display sink contract exactly).
func (tm *TonemapUnit) Tonemap(gu *GatherUnit) {
	n := float64(gu.SampleCount)
	if n < 1 {
		n = 1
	}

	for i, acc := range gu.Accum {
		x, y, z := acc.X/n, acc.Y/n, acc.Z/n
		r, g, b := xyzToLinearRGB(x, y, z)

		r = reinhard(r*float64(tm.Exposure))
		g = reinhard(g*float64(tm.Exposure))
		b = reinhard(b*float64(tm.Exposure))

		tm.Frame[i*3+0] = toSRGB8(r)
		tm.Frame[i*3+1] = toSRGB8(g)
		tm.Frame[i*3+2] = toSRGB8(b)
	}
}

func xyzToLinearRGB(x, y, z float64) (r, g, b float64) {
	r = 3.2406*x - 1.5372*y - 0.4986*z
	g = -0.9689*x + 1.8758*y + 0.0415*z
	b = 0.0557*x - 0.2040*y + 1.0570*z
	return r, g, b
}

func reinhard(v float64) float64 {
	if v < 0 {
		v = 0
	}
	return v / (1 + v)
}

func toSRGB8(linear float64) byte {
	if linear < 0 {
		linear = 0
	}
	if linear > 1 {
		linear = 1
	}
	gamma := math.Pow(linear, 1.0/2.2)
	return byte(gamma*255 + 0.5)
}
