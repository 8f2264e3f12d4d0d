// Package renderer implements the stencil-masked room renderer: textures,
// geometry, models and the per-frame pass sequence. All GPU access goes
// through Device so the pipeline can be driven by a real GL context or by
// an in-memory recorder.
package renderer

import "github.com/go-gl/mathgl/mgl32"

// Handle is an opaque GPU resource id. Zero means "none" and is always safe
// to bind.
type Handle uint32

type Cap int

const (
	CapDepthTest Cap = iota
	CapStencilTest
	CapCullFace
)

func (c Cap) String() string {
	switch c {
	case CapDepthTest:
		return "DEPTH_TEST"
	case CapStencilTest:
		return "STENCIL_TEST"
	case CapCullFace:
		return "CULL_FACE"
	}
	return "UNKNOWN_CAP"
}

// CompareFunc is shared by the depth and stencil tests.
type CompareFunc int

const (
	Never CompareFunc = iota
	Less
	Equal
	LessEqual
	Greater
	NotEqual
	GreaterEqual
	Always
)

func (f CompareFunc) String() string {
	return [...]string{"NEVER", "LESS", "EQUAL", "LEQUAL", "GREATER", "NOTEQUAL", "GEQUAL", "ALWAYS"}[f]
}

// Test reports whether a comparison of ref against stored passes.
func (f CompareFunc) Test(ref, stored uint32) bool {
	switch f {
	case Never:
		return false
	case Less:
		return ref < stored
	case Equal:
		return ref == stored
	case LessEqual:
		return ref <= stored
	case Greater:
		return ref > stored
	case NotEqual:
		return ref != stored
	case GreaterEqual:
		return ref >= stored
	}
	return true
}

type StencilAction int

const (
	Keep StencilAction = iota
	Zero
	Replace
	Incr
	Decr
	Invert
)

func (a StencilAction) String() string {
	return [...]string{"KEEP", "ZERO", "REPLACE", "INCR", "DECR", "INVERT"}[a]
}

type Face int

const (
	FaceBack Face = iota
	FaceFront
	FaceFrontAndBack
)

func (f Face) String() string {
	return [...]string{"BACK", "FRONT", "FRONT_AND_BACK"}[f]
}

type Winding int

const (
	CCW Winding = iota
	CW
)

type Primitive int

const (
	Triangles Primitive = iota
	Points
)

type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
)

func (w Wrap) String() string {
	if w == WrapClampToEdge {
		return "CLAMP_TO_EDGE"
	}
	return "REPEAT"
}

type Filter int

const (
	FilterLinear Filter = iota
	FilterLinearMipmapLinear
)

// TextureParams is the sampler and upload configuration of a texture.
type TextureParams struct {
	WrapS, WrapT    Wrap
	MinFilter       Filter
	MagFilter       Filter
	Mipmaps         bool
	UnpackAlignment int32
}

// Image is tightly packed RGBA8 pixel data, row 0 first.
type Image struct {
	Width, Height int
	Pix           []byte
}

// Device is the GPU surface used by the renderer. Implementations are not
// safe for concurrent use; every call happens on the thread owning the
// context.
type Device interface {
	ClearColor(r, g, b, a float32)
	// Clear clears color, depth and stencil. Stencil is cleared to 0.
	Clear()
	Viewport(x, y, width, height int32)

	Enable(c Cap)
	Disable(c Cap)
	DepthFunc(f CompareFunc)
	DepthMask(write bool)
	StencilOp(sfail, dpfail, dppass StencilAction)
	StencilFunc(f CompareFunc, ref int32, mask uint32)
	StencilMask(mask uint32)
	CullFace(f Face)
	FrontFace(w Winding)
	ColorMask(r, g, b, a bool)

	// UploadGeometry uploads interleaved position|normal|texcoord vertices
	// (8 floats each) and an optional index buffer.
	UploadGeometry(vertices []float32, indices []uint32) (Handle, error)
	DrawArrays(geometry Handle, mode Primitive, count int32)
	DrawIndexed(geometry Handle, mode Primitive, count int32)
	DeleteGeometry(geometry Handle)

	CreateTexture(img Image, params TextureParams) (Handle, error)
	BindTexture(unit uint32, texture Handle)
	DeleteTexture(texture Handle)

	CreateProgram(vertexSrc, fragmentSrc string) (Handle, error)
	UseProgram(program Handle)
	UniformLocation(program Handle, name string) int32
	UniformMat4(loc int32, m mgl32.Mat4)
	UniformVec3(loc int32, v mgl32.Vec3)
	UniformFloat(loc int32, v float32)
	UniformInt(loc int32, v int32)
	DeleteProgram(program Handle)
}
