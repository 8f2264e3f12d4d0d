// Package recorder provides an in-memory renderer.Device. It records every
// call, snapshots the render state at each draw and simulates a stencil
// buffer over caller-provided pixel coverage, so pass sequencing can be
// tested without a GPU.
package recorder

import (
	"fmt"
	"maps"

	"portalroom/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// Draw is one recorded draw submission.
type Draw struct {
	Index    int
	Geometry renderer.Handle
	Mode     renderer.Primitive
	Count    int32
	Indexed  bool
	Program  renderer.Handle
	State    renderer.RenderState
	Textures map[uint32]renderer.Handle
	Uniforms map[string]any
}

// Model returns the "model" uniform at the time of the draw.
func (d Draw) Model() mgl32.Mat4 {
	m, _ := d.Uniforms["model"].(mgl32.Mat4)
	return m
}

type Geometry struct {
	Vertices []float32
	Indices  []uint32
	Deleted  bool
}

type Texture struct {
	Image   renderer.Image
	Params  renderer.TextureParams
	Deleted bool
}

type Program struct {
	VertexSrc, FragmentSrc string
	Deleted                bool
}

type uniformKey struct {
	program renderer.Handle
	name    string
}

// Device records calls made through renderer.Device.
type Device struct {
	Calls      []string
	Draws      []Draw
	Geometries map[renderer.Handle]*Geometry
	Textures   map[renderer.Handle]*Texture
	Programs   map[renderer.Handle]*Program
	Viewports  [][4]int32

	// Errors injected into the next matching create call.
	FailProgram  error
	FailTexture  error
	FailGeometry error

	// Stencil simulation. Pixel i of Stencil is covered by every geometry
	// whose coverage contains i. Painted holds the index of the last draw
	// that wrote color to the pixel, or -1.
	Stencil  []uint8
	Painted  []int
	coverage map[renderer.Handle][]int

	state     renderer.RenderState
	clear     mgl32.Vec4
	next      renderer.Handle
	program   renderer.Handle
	bound     map[uint32]renderer.Handle
	locations map[uniformKey]int32
	locNames  map[int32]uniformKey
	uniforms  map[renderer.Handle]map[string]any
}

var _ renderer.Device = (*Device)(nil)

// New returns a recorder with a stencil target of the given pixel count.
func New(pixels int) *Device {
	d := &Device{
		Geometries: make(map[renderer.Handle]*Geometry),
		Textures:   make(map[renderer.Handle]*Texture),
		Programs:   make(map[renderer.Handle]*Program),
		Stencil:    make([]uint8, pixels),
		Painted:    make([]int, pixels),
		coverage:   make(map[renderer.Handle][]int),
		bound:      make(map[uint32]renderer.Handle),
		locations:  make(map[uniformKey]int32),
		locNames:   make(map[int32]uniformKey),
		uniforms:   make(map[renderer.Handle]map[string]any),
	}
	// GL defaults.
	d.state.StencilFunc = renderer.Always
	d.state.StencilReadMask = 0xFF
	d.state.StencilWriteMask = 0xFF
	d.state.DepthFunc = renderer.Less
	d.state.DepthWrite = true
	d.state.ColorWrite = true
	for i := range d.Painted {
		d.Painted[i] = -1
	}
	return d
}

// Cover declares the pixels a geometry rasterizes to when drawn.
func (d *Device) Cover(geometry renderer.Handle, pixels ...int) {
	d.coverage[geometry] = append(d.coverage[geometry], pixels...)
}

// State returns the current simulated render state.
func (d *Device) State() renderer.RenderState { return d.state }

// Reset drops recorded calls and draws but keeps resources and coverage.
func (d *Device) Reset() {
	d.Calls = nil
	d.Draws = nil
}

func (d *Device) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) handle() renderer.Handle {
	d.next++
	return d.next
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.clear = mgl32.Vec4{r, g, b, a}
	d.record("ClearColor(%g,%g,%g,%g)", r, g, b, a)
}

func (d *Device) ClearValue() mgl32.Vec4 { return d.clear }

func (d *Device) Clear() {
	mask := uint8(d.state.StencilWriteMask)
	for i := range d.Stencil {
		d.Stencil[i] &^= mask
		if d.state.ColorWrite {
			d.Painted[i] = -1
		}
	}
	d.record("Clear")
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.Viewports = append(d.Viewports, [4]int32{x, y, width, height})
	d.record("Viewport(%d,%d,%d,%d)", x, y, width, height)
}

func (d *Device) setCap(c renderer.Cap, on bool) {
	switch c {
	case renderer.CapDepthTest:
		d.state.DepthTest = on
	case renderer.CapStencilTest:
		d.state.StencilTest = on
	case renderer.CapCullFace:
		d.state.Cull = on
	}
}

func (d *Device) Enable(c renderer.Cap) {
	d.setCap(c, true)
	d.record("Enable(%s)", c)
}

func (d *Device) Disable(c renderer.Cap) {
	d.setCap(c, false)
	d.record("Disable(%s)", c)
}

func (d *Device) DepthFunc(f renderer.CompareFunc) {
	d.state.DepthFunc = f
	d.record("DepthFunc(%s)", f)
}

func (d *Device) DepthMask(write bool) {
	d.state.DepthWrite = write
	d.record("DepthMask(%t)", write)
}

func (d *Device) StencilOp(sfail, dpfail, dppass renderer.StencilAction) {
	d.state.StencilFail, d.state.StencilDepthFail, d.state.StencilPass = sfail, dpfail, dppass
	d.record("StencilOp(%s,%s,%s)", sfail, dpfail, dppass)
}

func (d *Device) StencilFunc(f renderer.CompareFunc, ref int32, mask uint32) {
	d.state.StencilFunc, d.state.StencilRef, d.state.StencilReadMask = f, ref, mask
	d.record("StencilFunc(%s,%d,%#x)", f, ref, mask)
}

func (d *Device) StencilMask(mask uint32) {
	d.state.StencilWriteMask = mask
	d.record("StencilMask(%#x)", mask)
}

func (d *Device) CullFace(f renderer.Face) {
	d.state.CullFace = f
	d.record("CullFace(%s)", f)
}

func (d *Device) FrontFace(w renderer.Winding) {
	d.state.FrontFace = w
	d.record("FrontFace(%d)", w)
}

func (d *Device) ColorMask(r, g, b, a bool) {
	d.state.ColorWrite = r || g || b || a
	d.record("ColorMask(%t,%t,%t,%t)", r, g, b, a)
}

func (d *Device) UploadGeometry(vertices []float32, indices []uint32) (renderer.Handle, error) {
	if err := d.FailGeometry; err != nil {
		d.FailGeometry = nil
		return 0, err
	}
	h := d.handle()
	d.Geometries[h] = &Geometry{
		Vertices: append([]float32(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
	}
	d.record("UploadGeometry(%d,%d)", len(vertices), len(indices))
	return h, nil
}

func (d *Device) DrawArrays(geometry renderer.Handle, mode renderer.Primitive, count int32) {
	d.draw(geometry, mode, count, false)
}

func (d *Device) DrawIndexed(geometry renderer.Handle, mode renderer.Primitive, count int32) {
	d.draw(geometry, mode, count, true)
}

func (d *Device) draw(geometry renderer.Handle, mode renderer.Primitive, count int32, indexed bool) {
	idx := len(d.Draws)
	d.Draws = append(d.Draws, Draw{
		Index:    idx,
		Geometry: geometry,
		Mode:     mode,
		Count:    count,
		Indexed:  indexed,
		Program:  d.program,
		State:    d.state,
		Textures: maps.Clone(d.bound),
		Uniforms: maps.Clone(d.uniforms[d.program]),
	})
	d.record("Draw(%d,%d,indexed=%t)", geometry, count, indexed)
	d.rasterize(geometry, idx)
}

// rasterize applies the stencil test and write to every covered pixel.
// Depth is assumed to pass.
func (d *Device) rasterize(geometry renderer.Handle, drawIdx int) {
	s := d.state
	for _, p := range d.coverage[geometry] {
		pass := true
		if s.StencilTest {
			stored := uint32(d.Stencil[p])
			pass = s.StencilFunc.Test(uint32(s.StencilRef)&s.StencilReadMask, stored&s.StencilReadMask)
			action := s.StencilPass
			if !pass {
				action = s.StencilFail
			}
			d.Stencil[p] = applyStencil(action, d.Stencil[p], uint8(s.StencilRef), uint8(s.StencilWriteMask))
		}
		if pass && s.ColorWrite {
			d.Painted[p] = drawIdx
		}
	}
}

func applyStencil(a renderer.StencilAction, stored, ref, writeMask uint8) uint8 {
	v := stored
	switch a {
	case renderer.Zero:
		v = 0
	case renderer.Replace:
		v = ref
	case renderer.Incr:
		if v < 0xFF {
			v++
		}
	case renderer.Decr:
		if v > 0 {
			v--
		}
	case renderer.Invert:
		v = ^v
	}
	return v&writeMask | stored&^writeMask
}

func (d *Device) DeleteGeometry(geometry renderer.Handle) {
	if g, ok := d.Geometries[geometry]; ok {
		g.Deleted = true
	}
	d.record("DeleteGeometry(%d)", geometry)
}

func (d *Device) CreateTexture(img renderer.Image, params renderer.TextureParams) (renderer.Handle, error) {
	if err := d.FailTexture; err != nil {
		d.FailTexture = nil
		return 0, err
	}
	h := d.handle()
	d.Textures[h] = &Texture{Image: img, Params: params}
	d.record("CreateTexture(%dx%d,%s,%s)", img.Width, img.Height, params.WrapS, params.WrapT)
	return h, nil
}

func (d *Device) BindTexture(unit uint32, texture renderer.Handle) {
	d.bound[unit] = texture
	d.record("BindTexture(%d,%d)", unit, texture)
}

// Bound returns the texture bound to a unit.
func (d *Device) Bound(unit uint32) renderer.Handle { return d.bound[unit] }

func (d *Device) DeleteTexture(texture renderer.Handle) {
	if t, ok := d.Textures[texture]; ok {
		t.Deleted = true
	}
	d.record("DeleteTexture(%d)", texture)
}

// LiveTextures counts textures not yet deleted.
func (d *Device) LiveTextures() int {
	n := 0
	for _, t := range d.Textures {
		if !t.Deleted {
			n++
		}
	}
	return n
}

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (renderer.Handle, error) {
	if err := d.FailProgram; err != nil {
		d.FailProgram = nil
		return 0, err
	}
	h := d.handle()
	d.Programs[h] = &Program{VertexSrc: vertexSrc, FragmentSrc: fragmentSrc}
	d.uniforms[h] = make(map[string]any)
	d.record("CreateProgram(%d)", h)
	return h, nil
}

func (d *Device) UseProgram(program renderer.Handle) {
	d.program = program
	d.record("UseProgram(%d)", program)
}

// UniformLocation hands out a stable location per (program, name).
func (d *Device) UniformLocation(program renderer.Handle, name string) int32 {
	key := uniformKey{program, name}
	if loc, ok := d.locations[key]; ok {
		return loc
	}
	loc := int32(len(d.locations))
	d.locations[key] = loc
	d.locNames[loc] = key
	d.record("UniformLocation(%d,%s)", program, name)
	return loc
}

// Uniform returns the last value set for a uniform of a program.
func (d *Device) Uniform(program renderer.Handle, name string) (any, bool) {
	v, ok := d.uniforms[program][name]
	return v, ok
}

func (d *Device) setUniform(loc int32, v any) {
	key, ok := d.locNames[loc]
	if !ok {
		return
	}
	if d.uniforms[key.program] == nil {
		d.uniforms[key.program] = make(map[string]any)
	}
	d.uniforms[key.program][key.name] = v
}

func (d *Device) UniformMat4(loc int32, m mgl32.Mat4) { d.setUniform(loc, m) }
func (d *Device) UniformVec3(loc int32, v mgl32.Vec3) { d.setUniform(loc, v) }
func (d *Device) UniformFloat(loc int32, v float32) { d.setUniform(loc, v) }
func (d *Device) UniformInt(loc int32, v int32) { d.setUniform(loc, v) }

func (d *Device) DeleteProgram(program renderer.Handle) {
	if p, ok := d.Programs[program]; ok {
		p.Deleted = true
	}
	d.record("DeleteProgram(%d)", program)
}
