package engine

import (
	"portalroom/internal/config"
	"portalroom/internal/logger"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Key is a key the driver polls every frame.
type Key int

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyEscape
)

var glfwKeys = [...]glfw.Key{
	KeyW:      glfw.KeyW,
	KeyA:      glfw.KeyA,
	KeyS:      glfw.KeyS,
	KeyD:      glfw.KeyD,
	KeyEscape: glfw.KeyEscape,
}

// InputHandler receives the window's event callbacks.
type InputHandler interface {
	OnResize(width, height int)
	OnCursor(x, y float64)
	OnScroll(dy float64)
}

// Window is the platform surface the frame driver runs against.
type Window interface {
	ShouldClose() bool
	SetShouldClose(bool)
	SwapBuffers()
	PollEvents()
	Pressed(k Key) bool
	Time() float64
	FramebufferSize() (width, height int)
	SetInputHandler(h InputHandler)
}

// GLFWWindow is a GLFW window with a current OpenGL 4.1 core context and a
// stencil buffer.
type GLFWWindow struct {
	window  *glfw.Window
	handler InputHandler
}

var _ Window = (*GLFWWindow)(nil)

// NewGLFWWindow initializes GLFW and opens the window. It must run on the
// main thread. Close terminates GLFW again.
func NewGLFWWindow(cfg config.WindowConfig, clear [3]float32) (*GLFWWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing glfw")
	}

	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.StencilBits, cfg.StencilBits)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "creating window")
	}
	win.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	decorate(win, clear)

	w := &GLFWWindow{window: win}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if w.handler != nil {
			w.handler.OnResize(width, height)
		}
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.handler != nil {
			w.handler.OnCursor(x, y)
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, dy float64) {
		if w.handler != nil {
			w.handler.OnScroll(dy)
		}
	})

	logger.Log.Info("Window created",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("stencilBits", cfg.StencilBits))
	return w, nil
}

func (w *GLFWWindow) ShouldClose() bool { return w.window.ShouldClose() }
func (w *GLFWWindow) SetShouldClose(v bool) { w.window.SetShouldClose(v) }
func (w *GLFWWindow) SwapBuffers() { w.window.SwapBuffers() }
func (w *GLFWWindow) PollEvents() { glfw.PollEvents() }
func (w *GLFWWindow) Time() float64 { return glfw.GetTime() }
func (w *GLFWWindow) SetInputHandler(h InputHandler) { w.handler = h }

func (w *GLFWWindow) Pressed(k Key) bool {
	return w.window.GetKey(glfwKeys[k]) == glfw.Press
}

func (w *GLFWWindow) FramebufferSize() (int, int) {
	return w.window.GetFramebufferSize()
}

// Close destroys the window and terminates GLFW.
func (w *GLFWWindow) Close() {
	w.window.Destroy()
	glfw.Terminate()
}
