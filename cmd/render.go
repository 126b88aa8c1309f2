package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/luculentus/pathtracer/renderer"
	"github.com/luculentus/pathtracer/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// RenderFrame renders the built-in default scene to a still PNG file.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := renderer.Options{
		NumWorkers: ctx.Int("workers"),
		FrameW:     ctx.Int("width"),
		FrameH:     ctx.Int("height"),
		Exposure:   float32(ctx.Float64("exposure")),
		Duration:   time.Duration(ctx.Int("seconds")) * time.Second,
		OutputPath: ctx.String("out"),
	}

	sc := scene.NewDefaultScene()

	r, err := renderer.NewDefault(sc, opts, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Noticef("rendering %dx%d for %s using %d workers", opts.FrameW, opts.FrameH, opts.Duration, opts.NumWorkers)
	if err := r.Render(); err != nil {
		return err
	}

	frame, ok := r.(interface{ LastFrame() []byte })
	if !ok || frame.LastFrame() == nil {
		return fmt.Errorf("render: no frame was produced")
	}

	if err := writePNG(opts.OutputPath, opts.FrameW, opts.FrameH, frame.LastFrame()); err != nil {
		return err
	}

	displayFrameStats(r.Stats())
	return nil
}

// RenderInteractive opens a window showing the render as it converges,
// allowing the camera to be flown around with the keyboard and mouse.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := renderer.Options{
		NumWorkers: ctx.Int("workers"),
		FrameW:     ctx.Int("width"),
		FrameH:     ctx.Int("height"),
		Exposure:   float32(ctx.Float64("exposure")),
	}

	sc := scene.NewDefaultScene()

	r, err := renderer.NewInteractive(sc, opts, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	err = r.Render()
	displayFrameStats(r.Stats())
	return err
}

func writePNG(path string, width, height int, rgb []byte) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Set(i%width, i/width, color.RGBA{rgb[i*3+0], rgb[i*3+1], rgb[i*3+2], 255})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Mean throughput", fmt.Sprintf("%.2f batches/sec", stats.BatchesPerSecMean)})
	table.Append([]string{"Throughput stddev", fmt.Sprintf("%.2f batches/sec", stats.BatchesPerSecStdDev)})
	table.SetFooter([]string{"Render time", stats.RenderTime.String()})

	table.Render()
	logger.Noticef("render statistics\n%s", buf.String())
}
