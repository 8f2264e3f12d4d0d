package renderer

import "fmt"

// RenderState is the full depth/stencil/cull/color configuration set before
// every draw of the pass sequence.
type RenderState struct {
	DepthTest  bool
	DepthFunc  CompareFunc
	DepthWrite bool

	StencilTest      bool
	StencilFunc      CompareFunc
	StencilRef       int32
	StencilReadMask  uint32
	StencilWriteMask uint32
	StencilFail      StencilAction
	StencilDepthFail StencilAction
	StencilPass      StencilAction

	Cull      bool
	CullFace  Face
	FrontFace Winding

	ColorWrite bool
}

func (s RenderState) String() string {
	cull := "off"
	if s.Cull {
		cull = s.CullFace.String()
	}
	return fmt.Sprintf("stencil(%s ref=%d write=%#02x) depthWrite=%t cull=%s color=%t",
		s.StencilFunc, s.StencilRef, s.StencilWriteMask, s.DepthWrite, cull, s.ColorWrite)
}

// frameState is the state established right after the clear: depth test
// LESS, stencil test on with keep/keep/replace.
func frameState() RenderState {
	return RenderState{
		DepthTest:        true,
		DepthFunc:        Less,
		DepthWrite:       true,
		StencilTest:      true,
		StencilFunc:      Always,
		StencilReadMask:  0xFF,
		StencilWriteMask: 0xFF,
		StencilFail:      Keep,
		StencilDepthFail: Keep,
		StencilPass:      Replace,
		FrontFace:        CCW,
		ColorWrite:       true,
	}
}

// InteriorState paints the inside of the room and tags it with 1.
func InteriorState() RenderState {
	s := frameState()
	s.Cull, s.CullFace = true, FaceFront
	s.DepthWrite = false
	s.StencilFunc, s.StencilRef, s.StencilWriteMask = Always, 1, 0xFF
	return s
}

// WindowState stamps window i (0-based) into the stencil. The first window
// writes ref 1 without color; every later window writes i+1 wherever the
// buffer does not already hold it, with color.
func WindowState(i int) RenderState {
	s := frameState()
	s.Cull, s.CullFace = true, FaceBack
	s.DepthWrite = false
	s.StencilWriteMask = 0xFF
	if i == 0 {
		s.StencilFunc, s.StencilRef = Always, 1
		s.ColorWrite = false
		return s
	}
	s.StencilFunc, s.StencilRef = NotEqual, int32(i+1)
	return s
}

// ExteriorState paints only pixels no interior or window pass claimed.
func ExteriorState() RenderState {
	s := frameState()
	s.Cull = false
	s.DepthWrite = true
	s.StencilFunc, s.StencilRef, s.StencilWriteMask = Equal, 0, 0
	return s
}

// SlotState restricts a draw to pixels tagged with slot.
func SlotState(slot int) RenderState {
	s := ExteriorState()
	s.StencilRef = int32(slot)
	return s
}

// StateTracker applies RenderStates to a Device, skipping calls whose value
// is already current. The first Apply after Reset issues every call.
type StateTracker struct {
	dev     Device
	current RenderState
	valid   bool
}

func NewStateTracker(dev Device) *StateTracker {
	return &StateTracker{dev: dev}
}

// Reset forgets the cached state, e.g. after the context was touched
// outside the tracker.
func (t *StateTracker) Reset() { t.valid = false }

// Current returns the last applied state.
func (t *StateTracker) Current() RenderState { return t.current }

func (t *StateTracker) Apply(s RenderState) {
	c, all := t.current, !t.valid
	d := t.dev

	if all || c.DepthTest != s.DepthTest {
		setCap(d, CapDepthTest, s.DepthTest)
	}
	if all || c.DepthFunc != s.DepthFunc {
		d.DepthFunc(s.DepthFunc)
	}
	if all || c.DepthWrite != s.DepthWrite {
		d.DepthMask(s.DepthWrite)
	}

	if all || c.StencilTest != s.StencilTest {
		setCap(d, CapStencilTest, s.StencilTest)
	}
	if all || c.StencilFail != s.StencilFail || c.StencilDepthFail != s.StencilDepthFail || c.StencilPass != s.StencilPass {
		d.StencilOp(s.StencilFail, s.StencilDepthFail, s.StencilPass)
	}
	if all || c.StencilFunc != s.StencilFunc || c.StencilRef != s.StencilRef || c.StencilReadMask != s.StencilReadMask {
		d.StencilFunc(s.StencilFunc, s.StencilRef, s.StencilReadMask)
	}
	if all || c.StencilWriteMask != s.StencilWriteMask {
		d.StencilMask(s.StencilWriteMask)
	}

	if all || c.Cull != s.Cull {
		setCap(d, CapCullFace, s.Cull)
	}
	if s.Cull && (all || !c.Cull || c.CullFace != s.CullFace) {
		d.CullFace(s.CullFace)
	}
	if all || c.FrontFace != s.FrontFace {
		d.FrontFace(s.FrontFace)
	}

	if all || c.ColorWrite != s.ColorWrite {
		d.ColorMask(s.ColorWrite, s.ColorWrite, s.ColorWrite, s.ColorWrite)
	}

	t.current, t.valid = s, true
}

// StencilMask changes only the write mask, keeping the cache in sync.
func (t *StateTracker) StencilMask(mask uint32) {
	t.dev.StencilMask(mask)
	t.current.StencilWriteMask = mask
}

func setCap(d Device, c Cap, on bool) {
	if on {
		d.Enable(c)
	} else {
		d.Disable(c)
	}
}
