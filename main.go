package main

import (
	"os"

	"github.com/luculentus/pathtracer/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "pathtracer"
	app.Usage = "render scenes using spectral path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "render",
			Usage:  "render the built-in scene",
			Action: nil,
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render a single frame and write it to disk",
					Description: `Render for the given duration and write the last tonemapped frame to a PNG file. The first frame is tonemapped only after the 30 second display-refresh interval has passed; a shorter run produces no frame and ends with an error.`,
					Flags: []cli.Flag{
						cli.IntFlag{
							Name:  "width",
							Value: 512,
							Usage: "frame width",
						},
						cli.IntFlag{
							Name:  "height",
							Value: 512,
							Usage: "frame height",
						},
						cli.IntFlag{
							Name:  "workers",
							Value: 4,
							Usage: "number of worker goroutines driving the scheduler",
						},
						cli.IntFlag{
							Name:  "seconds",
							Value: 40,
							Usage: "how long to accumulate samples before writing the frame",
						},
						cli.Float64Flag{
							Name:  "exposure",
							Value: 1.0,
							Usage: "camera exposure for tone-mapping",
						},
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
					},
					Action: cmd.RenderFrame,
				},
				{
					Name:        "interactive",
					Usage:       "render an interactive, continuously updating view of the scene",
					Description: `Open a window and keep tracing until it is closed. Arrow keys or WASD move the camera, drag the left mouse button to look around.`,
					Flags: []cli.Flag{
						cli.IntFlag{
							Name:  "width",
							Value: 512,
							Usage: "frame width",
						},
						cli.IntFlag{
							Name:  "height",
							Value: 512,
							Usage: "frame height",
						},
						cli.IntFlag{
							Name:  "workers",
							Value: 4,
							Usage: "number of worker goroutines driving the scheduler",
						},
						cli.Float64Flag{
							Name:  "exposure",
							Value: 1.0,
							Usage: "camera exposure for tone-mapping",
						},
					},
					Action: cmd.RenderInteractive,
				},
			},
		},
	}

	app.Run(os.Args)
}
