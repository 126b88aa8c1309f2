package renderer

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/luculentus/pathtracer/log"
	"github.com/luculentus/pathtracer/scene"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	cameraMoveSpeed float32 = 0.05
)

// interactiveGLRenderer wraps a defaultRenderer with an on-screen window.
// It blits every tonemapped frame as it arrives and lets the camera be
// flown around interactively; any camera change is expected to eventually
// show up as a fresh image once the scheduler has cycled through Trace,
// Plot, Gather and Tonemap again.
type interactiveGLRenderer struct {
	*defaultRenderer

	camera *scene.Camera
	window *glfw.Window
	tex    uint32

	mu          sync.Mutex
	lastCursorX float32
	lastCursorY float32
	mouseDown   bool
}

// NewInteractive builds an interactive renderer for sc using opts.
func NewInteractive(sc *scene.Scene, opts Options, logger log.Logger) (Renderer, error) {
	base, err := NewDefault(sc, opts, logger)
	if err != nil {
		return nil, err
	}

	r := &interactiveGLRenderer{
		defaultRenderer: base.(*defaultRenderer),
		camera:          sc.Camera,
	}

	if err := r.initGL(opts); err != nil {
		r.defaultRenderer.Close()
		return nil, err
	}

	return r, nil
}

func (r *interactiveGLRenderer) initGL(opts Options) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("renderer: failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(opts.FrameW, opts.FrameH, "pathtracer", nil, nil)
	if err != nil {
		return fmt.Errorf("renderer: could not create window: %w", err)
	}
	window.MakeContextCurrent()
	r.window = window

	if err := gl.Init(); err != nil {
		return fmt.Errorf("renderer: could not init opengl: %w", err)
	}

	gl.GenTextures(1, &r.tex)
	gl.BindTexture(gl.TEXTURE_2D, r.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	window.SetKeyCallback(r.onKeyEvent)
	window.SetMouseButtonCallback(r.onMouseEvent)
	window.SetCursorPosCallback(r.onCursorPosEvent)

	return nil
}

// Render starts the worker pool in the background and pumps the glfw event
// loop, blitting the latest tonemapped frame to the window on every pass.
func (r *interactiveGLRenderer) Render() error {
	go func() {
		_ = r.defaultRenderer.Render()
	}()

	w, h := r.scheduler.Dimensions()
	for !r.window.ShouldClose() {
		glfw.PollEvents()

		if frame := r.LastFrame(); frame != nil {
			r.blit(w, h, frame)
		}

		r.window.SwapBuffers()
	}

	r.defaultRenderer.Close()
	return nil
}

func (r *interactiveGLRenderer) blit(width, height int, rgb []byte) {
	gl.BindTexture(gl.TEXTURE_2D, r.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB, int32(width), int32(height), 0, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(rgb))

	gl.Enable(gl.TEXTURE_2D)
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(-1, -1)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(1, -1)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(1, 1)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(-1, 1)
	gl.End()
}

func (r *interactiveGLRenderer) Close() {
	if r.window != nil {
		r.window.SetShouldClose(true)
	}
	r.defaultRenderer.Close()
}

func (r *interactiveGLRenderer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	var dir scene.CameraDirection
	switch key {
	case glfw.KeyEscape:
		r.window.SetShouldClose(true)
		return
	case glfw.KeyUp, glfw.KeyW:
		dir = scene.Forward
	case glfw.KeyDown, glfw.KeyS:
		dir = scene.Backward
	case glfw.KeyLeft, glfw.KeyA:
		dir = scene.Left
	case glfw.KeyRight, glfw.KeyD:
		dir = scene.Right
	default:
		return
	}

	speed := cameraMoveSpeed
	if mods&glfw.ModShift == glfw.ModShift {
		speed *= 2
	}

	r.mu.Lock()
	r.camera.Move(dir, speed)
	r.mu.Unlock()
}

func (r *interactiveGLRenderer) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if action == glfw.Press {
		x, y := w.GetCursorPos()
		r.lastCursorX, r.lastCursorY = float32(x), float32(y)
		r.mouseDown = true
	} else {
		r.mouseDown = false
	}
}

func (r *interactiveGLRenderer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.mouseDown {
		return
	}

	dx := (float32(xPos) - r.lastCursorX) * mouseSensitivityX
	dy := (float32(yPos) - r.lastCursorY) * mouseSensitivityY
	r.lastCursorX, r.lastCursorY = float32(xPos), float32(yPos)

	r.camera.Yaw += dx
	r.camera.Pitch -= dy
	r.camera.Update()
}
