package engine

import (
	"testing"

	"portalroom/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	closeAfter int
	close      bool
	now, step  float64
	pressed    map[Key]bool
	swaps      int
	polls      int
	handler    InputHandler
}

func newFakeWindow(closeAfter int, step float64) *fakeWindow {
	return &fakeWindow{closeAfter: closeAfter, step: step, pressed: make(map[Key]bool)}
}

func (w *fakeWindow) ShouldClose() bool { return w.close }
func (w *fakeWindow) SetShouldClose(v bool) { w.close = v }
func (w *fakeWindow) SwapBuffers() { w.swaps++ }
func (w *fakeWindow) Pressed(k Key) bool { return w.pressed[k] }
func (w *fakeWindow) FramebufferSize() (int, int) { return 800, 600 }
func (w *fakeWindow) SetInputHandler(h InputHandler) { w.handler = h }

func (w *fakeWindow) PollEvents() {
	w.polls++
	if w.closeAfter > 0 && w.polls >= w.closeAfter {
		w.close = true
	}
}

func (w *fakeWindow) Time() float64 {
	t := w.now
	w.now += w.step
	return t
}

type fakeRenderer struct {
	frames []renderer.Frame
}

func (r *fakeRenderer) Render(_ *renderer.Scene, f renderer.Frame) {
	r.frames = append(r.frames, f)
}

func newTestDriver(w *fakeWindow) (*Driver, *fakeRenderer, *renderer.Camera, *[][2]int32) {
	var viewports [][2]int32
	rend := &fakeRenderer{}
	cam := renderer.NewCamera(mgl32.Vec3{0, 0, 3}, 800, 600)
	d := NewDriver(w, cam, rend, &renderer.Scene{}, func(width, height int32) {
		viewports = append(viewports, [2]int32{width, height})
	})
	return d, rend, cam, &viewports
}

func TestDriverRunStopsOnClose(t *testing.T) {
	w := newFakeWindow(3, 0.5)
	d, rend, _, _ := newTestDriver(w)
	require.Same(t, d, w.handler)

	d.Run()

	assert.Equal(t, uint64(3), d.Frames())
	assert.Len(t, rend.frames, 3)
	assert.Equal(t, 3, w.swaps)
	assert.Equal(t, 3, w.polls)
	assert.Equal(t, float32(0), rend.frames[0].Time)
	assert.Equal(t, float32(1), rend.frames[2].Time)

	assert.False(t, d.Tick(), "closed window does not tick")
	assert.Len(t, rend.frames, 3)
}

func TestDriverPump(t *testing.T) {
	w := newFakeWindow(4, 0.1)
	d, rend, _, _ := newTestDriver(w)

	calls := 0
	d.Pump(func(step func() bool) {
		for {
			calls++
			if !step() {
				return
			}
		}
	})

	assert.Equal(t, 5, calls, "four frames and the call that sees the close")
	assert.Len(t, rend.frames, 4)
}

func TestDriverEscapeClosesWindow(t *testing.T) {
	w := newFakeWindow(0, 0.1)
	w.pressed[KeyEscape] = true
	d, rend, _, _ := newTestDriver(w)

	assert.True(t, d.Tick())
	assert.True(t, w.close)
	assert.False(t, d.Tick())
	assert.Len(t, rend.frames, 1)
}

func TestDriverMovesCamera(t *testing.T) {
	w := newFakeWindow(0, 1)
	d, rend, cam, _ := newTestDriver(w)
	w.pressed[KeyW] = true

	start := cam.Position
	d.Tick() // first frame has no elapsed time
	assert.Equal(t, start, cam.Position)

	d.Tick()
	moved := cam.Position.Sub(start)
	assert.InDelta(t, cam.Speed, moved.Len(), 1e-5)
	dir := moved.Normalize()
	assert.InDeltaSlice(t, cam.Front[:], dir[:], 1e-4)
	assert.Equal(t, cam.Position, rend.frames[1].ViewPos)

	w.pressed[KeyW] = false
	w.pressed[KeyD] = true
	before := cam.Position
	d.Tick()
	assert.InDelta(t, cam.Speed, cam.Position.Sub(before).Dot(cam.Right), 1e-5)
}

func TestDriverInputCallbacks(t *testing.T) {
	w := newFakeWindow(0, 0)
	_, _, cam, viewports := newTestDriver(w)

	w.handler.OnResize(1024, 512)
	assert.Equal(t, [][2]int32{{1024, 512}}, *viewports)
	assert.Equal(t, float32(2), cam.AspectRatio)

	w.handler.OnResize(0, 0)
	assert.Len(t, *viewports, 1, "minimized window is ignored")
	assert.Equal(t, float32(2), cam.AspectRatio)

	w.handler.OnScroll(5)
	assert.Equal(t, float32(40), cam.Zoom)

	yaw := cam.Yaw
	w.handler.OnCursor(100, 100)
	assert.Equal(t, yaw, cam.Yaw, "first cursor event only primes")
	w.handler.OnCursor(110, 100)
	assert.InDelta(t, yaw+10*cam.Sensitivity, cam.Yaw, 1e-5)

}
