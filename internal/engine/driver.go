package engine

import (
	"portalroom/internal/renderer"
)

// FrameRenderer draws one frame of a scene.
type FrameRenderer interface {
	Render(s *renderer.Scene, f renderer.Frame)
}

// Driver runs the per-frame tick: input, render, present, poll.
type Driver struct {
	window   Window
	camera   *renderer.Camera
	frames   FrameRenderer
	scene    *renderer.Scene
	viewport func(width, height int32)

	last    float64
	started bool
	count   uint64
}

// NewDriver wires a driver and registers it as the window's input handler.
// viewport, when not nil, is called on framebuffer resizes.
func NewDriver(w Window, cam *renderer.Camera, frames FrameRenderer, scene *renderer.Scene, viewport func(width, height int32)) *Driver {
	d := &Driver{window: w, camera: cam, frames: frames, scene: scene, viewport: viewport}
	w.SetInputHandler(d)
	return d
}

// Frames returns how many frames have been presented.
func (d *Driver) Frames() uint64 { return d.count }

// Tick renders one frame. It returns false, without rendering, once the
// window has been asked to close.
func (d *Driver) Tick() bool {
	if d.window.ShouldClose() {
		return false
	}
	now := d.window.Time()
	if !d.started {
		d.last, d.started = now, true
	}
	dt := float32(now - d.last)
	d.last = now

	d.processInput(dt)
	d.frames.Render(d.scene, renderer.FrameFromCamera(d.camera, float32(now)))
	d.window.SwapBuffers()
	d.window.PollEvents()
	d.count++
	return true
}

// Run ticks until the window closes.
func (d *Driver) Run() {
	for d.Tick() {
	}
}

// Pump hands Tick to a host scheduler that keeps calling it until it
// returns false, for platforms that own the loop.
func (d *Driver) Pump(host func(step func() bool)) {
	host(d.Tick)
}

var movement = [...]struct {
	key Key
	dir renderer.Direction
}{
	{KeyW, renderer.Forward},
	{KeyS, renderer.Backward},
	{KeyA, renderer.Left},
	{KeyD, renderer.Right},
}

func (d *Driver) processInput(dt float32) {
	if d.window.Pressed(KeyEscape) {
		d.window.SetShouldClose(true)
	}
	for _, m := range movement {
		if d.window.Pressed(m.key) {
			d.camera.ProcessKeyboard(m.dir, dt)
		}
	}
}

func (d *Driver) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if d.viewport != nil {
		d.viewport(int32(width), int32(height))
	}
	d.camera.SetViewport(int32(width), int32(height))
}

func (d *Driver) OnCursor(x, y float64) {
	d.camera.MouseMoved(float32(x), float32(y))
}

func (d *Driver) OnScroll(dy float64) {
	d.camera.ProcessMouseScroll(float32(dy))
}
