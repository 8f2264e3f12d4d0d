// Package engine wires the window, the GL device and the portal room world
// into a running application.
package engine

import (
	"portalroom/internal/config"
	"portalroom/internal/gpu"
	"portalroom/internal/logger"
	"portalroom/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gopxl/mainthread/v2"
	"go.uber.org/zap"
)

// App is the top-level owner of every resource of the program.
type App struct {
	cfg    *config.Config
	window *GLFWWindow
	dev    *gpu.Device
	world  *World
	camera *renderer.Camera
	driver *Driver

	cleanup Unwind
}

// NewCamera places the camera from cfg, looking at the room.
func NewCamera(cfg config.CameraConfig, width, height int) *renderer.Camera {
	cam := renderer.NewCamera(mgl32.Vec3(cfg.Position), int32(width), int32(height))
	cam.Zoom = cfg.Zoom
	cam.Near, cam.Far = cfg.Near, cfg.Far
	cam.Speed = cfg.Speed
	cam.Sensitivity = cfg.Sensitivity
	cam.LookAt(mgl32.Vec3{})
	cam.UpdateProjection()
	return cam
}

// NewApp opens the window and builds the world. It must be called on the
// main thread; use mainthread.Call from inside mainthread.Run.
func NewApp(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.cleanup.Unwind()
		}
	}()

	window, err := NewGLFWWindow(cfg.Window, cfg.Render.ClearColor)
	if err != nil {
		return nil, err
	}
	a.window = window
	a.cleanup.Add(window.Close)

	dev, err := gpu.New()
	if err != nil {
		return nil, err
	}
	a.dev = dev
	a.cleanup.Add(dev.Release)

	world, err := NewWorld(dev, cfg, nil)
	if err != nil {
		return nil, err
	}
	a.world = world
	a.cleanup.Add(world.Release)

	width, height := window.FramebufferSize()
	dev.Viewport(0, 0, int32(width), int32(height))
	a.camera = NewCamera(cfg.Camera, width, height)
	a.driver = NewDriver(window, a.camera, world.Pipeline, world.Scene, func(w, h int32) {
		dev.Viewport(0, 0, w, h)
	})

	logger.Log.Info("Application initialized",
		zap.Int("framebufferWidth", width),
		zap.Int("framebufferHeight", height),
		zap.Int("models", len(world.Models)))
	ok = true
	return a, nil
}

// Run drives frames until the window closes. Each tick runs on the main
// thread; between ticks queued GPU cleanups get their turn.
func (a *App) Run() {
	for {
		var more bool
		mainthread.Call(func() { more = a.driver.Tick() })
		if !more {
			break
		}
	}
	logger.Log.Info("Window closed", zap.Uint64("frames", a.driver.Frames()))
}

// Close releases the world, the device and the window in reverse order of
// creation.
func (a *App) Close() {
	mainthread.Call(a.cleanup.Unwind)
}
