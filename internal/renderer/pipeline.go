package renderer

import (
	"fmt"

	"portalroom/internal/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MaxWindows is the most window passes an 8-bit stencil can tell apart:
// refs 1..255, plus 0 for open space.
const MaxWindows = 255

// Transform computes a pass's model matrix at time t (seconds).
type Transform func(t float32) mgl32.Mat4

// Pass is one draw of the frame: what to draw, what to bind and where.
type Pass struct {
	Name     string
	Drawable Drawable
	// Diffuse and Specular are bound to units 0 and 1 before the draw.
	// Models bind their own mesh textures on top.
	Diffuse  Texture
	Specular Texture
	// Transform nil means identity.
	Transform Transform
}

func (p Pass) model(t float32) mgl32.Mat4 {
	if p.Transform == nil {
		return mgl32.Ident4()
	}
	return p.Transform(t)
}

// ModelPass is a pass confined to pixels whose stencil holds Slot.
type ModelPass struct {
	Pass
	Slot int
}

// Scene is a declarative description of one portal room frame.
type Scene struct {
	ClearColor mgl32.Vec3
	Interior   Pass
	Windows    []Pass
	Exterior   []Pass
	Models     []ModelPass
}

// Validate checks the scene can be rendered: an interior, at most
// MaxWindows windows, and every model slot in 1..max(1, len(Windows)).
func (s *Scene) Validate() error {
	if s.Interior.Drawable == nil {
		return fmt.Errorf("scene has no interior pass")
	}
	if len(s.Windows) > MaxWindows {
		return fmt.Errorf("scene has %d windows, at most %d fit the stencil", len(s.Windows), MaxWindows)
	}
	maxSlot := max(1, len(s.Windows))
	for _, p := range s.allPasses() {
		if p.Drawable == nil {
			return fmt.Errorf("pass %q has nothing to draw", p.Name)
		}
	}
	for _, m := range s.Models {
		if m.Slot < 1 || m.Slot > maxSlot {
			return fmt.Errorf("model pass %q: slot %d outside 1..%d", m.Name, m.Slot, maxSlot)
		}
	}
	return nil
}

func (s *Scene) allPasses() []Pass {
	out := append([]Pass{s.Interior}, s.Windows...)
	out = append(out, s.Exterior...)
	for _, m := range s.Models {
		out = append(out, m.Pass)
	}
	return out
}

// PassKind classifies a step of the frame.
type PassKind int

const (
	PassInterior PassKind = iota
	PassWindow
	PassExterior
	PassModel
)

func (k PassKind) String() string {
	switch k {
	case PassInterior:
		return "interior"
	case PassWindow:
		return "window"
	case PassExterior:
		return "exterior"
	case PassModel:
		return "model"
	}
	return fmt.Sprintf("PassKind(%d)", int(k))
}

// Step is a pass paired with the render state it runs under.
type Step struct {
	Kind  PassKind
	State RenderState
	Pass  Pass
}

// Plan expands a scene into its ordered steps: interior, windows in order,
// exterior passes, then models.
func Plan(s *Scene) []Step {
	steps := make([]Step, 0, 1+len(s.Windows)+len(s.Exterior)+len(s.Models))
	steps = append(steps, Step{PassInterior, InteriorState(), s.Interior})
	for i, w := range s.Windows {
		steps = append(steps, Step{PassWindow, WindowState(i), w})
	}
	for _, e := range s.Exterior {
		steps = append(steps, Step{PassExterior, ExteriorState(), e})
	}
	for _, m := range s.Models {
		steps = append(steps, Step{PassModel, SlotState(m.Slot), m.Pass})
	}
	return steps
}

// Frame holds the per-frame camera inputs.
type Frame struct {
	Time       float32
	Projection mgl32.Mat4
	View       mgl32.Mat4
	ViewPos    mgl32.Vec3
}

// FrameFromCamera captures the camera at time t.
func FrameFromCamera(c *Camera, t float32) Frame {
	return Frame{
		Time:       t,
		Projection: c.GetProjectionMatrix(),
		View:       c.GetViewMatrix(),
		ViewPos:    c.Position,
	}
}

// Pipeline renders scenes with the stencil portal technique.
type Pipeline struct {
	dev       Device
	shader    *Shader
	lighting  Lighting
	shininess float32
	states    *StateTracker
}

func NewPipeline(dev Device, shader *Shader, lighting Lighting, shininess float32) *Pipeline {
	return &Pipeline{
		dev:       dev,
		shader:    shader,
		lighting:  lighting,
		shininess: shininess,
		states:    NewStateTracker(dev),
	}
}

// States exposes the tracker, mainly so callers that touch GL state
// directly can Reset it.
func (p *Pipeline) States() *StateTracker { return p.states }

// Render draws one frame. The stencil write mask is left at all bits so the
// next frame's clear reaches the whole buffer.
func (p *Pipeline) Render(s *Scene, f Frame) {
	p.states.Apply(frameState())
	c := s.ClearColor
	p.dev.ClearColor(c.X(), c.Y(), c.Z(), 1)
	p.dev.Clear()

	sh := p.shader
	sh.Use()
	sh.SetMat4("projection", f.Projection)
	sh.SetMat4("view", f.View)
	sh.SetVec3("viewPos", f.ViewPos)
	sh.SetFloat("material.shininess", p.shininess)
	p.lighting.Apply(sh)

	for _, step := range Plan(s) {
		p.states.Apply(step.State)
		p.draw(step.Pass, f.Time)
	}

	p.states.StencilMask(0xFF)
}

func (p *Pipeline) draw(pass Pass, t float32) {
	sh := p.shader
	sh.SetMat4("model", pass.model(t))
	sh.SetInt("material.diffuse", 0)
	sh.SetInt("material.specular", 1)
	p.dev.BindTexture(0, pass.Diffuse.Handle)
	p.dev.BindTexture(1, pass.Specular.Handle)
	pass.Drawable.Draw(sh)
}

// LogPlan writes the frame's step sequence at debug level.
func LogPlan(s *Scene) {
	for i, step := range Plan(s) {
		logger.Log.Debug("Render step",
			zap.Int("index", i),
			zap.Stringer("kind", step.Kind),
			zap.String("pass", step.Pass.Name),
			zap.Stringer("state", step.State))
	}
}
