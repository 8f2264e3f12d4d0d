// Package gpu implements renderer.Device on OpenGL 4.1 core. Every method
// must be called on the thread that owns the context.
package gpu

import (
	"portalroom/internal/logger"
	"portalroom/internal/renderer"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Device struct {
	next       renderer.Handle
	programs   map[renderer.Handle]*program
	geometries map[renderer.Handle]*geometry
	textures   map[renderer.Handle]*texture
}

var _ renderer.Device = (*Device)(nil)

// New loads the GL function pointers for the current context.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing OpenGL")
	}
	logger.Log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	var stencilBits int32
	gl.GetFramebufferAttachmentParameteriv(gl.FRAMEBUFFER, gl.STENCIL,
		gl.FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE, &stencilBits)
	if stencilBits < 8 {
		return nil, errors.Errorf("default framebuffer has %d stencil bits, need 8", stencilBits)
	}

	return &Device{
		programs:   make(map[renderer.Handle]*program),
		geometries: make(map[renderer.Handle]*geometry),
		textures:   make(map[renderer.Handle]*texture),
	}, nil
}

func (d *Device) handle() renderer.Handle {
	d.next++
	return d.next
}

// Release deletes every object still owned by the device.
func (d *Device) Release() {
	for h, g := range d.geometries {
		g.release()
		delete(d.geometries, h)
	}
	for h, t := range d.textures {
		t.release()
		delete(d.textures, h)
	}
	for h, p := range d.programs {
		p.release()
		delete(d.programs, h)
	}
}

func (d *Device) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (d *Device) Clear() {
	gl.ClearStencil(0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
}

func (d *Device) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func glCap(c renderer.Cap) uint32 {
	switch c {
	case renderer.CapDepthTest:
		return gl.DEPTH_TEST
	case renderer.CapStencilTest:
		return gl.STENCIL_TEST
	}
	return gl.CULL_FACE
}

func (d *Device) Enable(c renderer.Cap) { gl.Enable(glCap(c)) }
func (d *Device) Disable(c renderer.Cap) { gl.Disable(glCap(c)) }

var compareFuncs = [...]uint32{
	renderer.Never:        gl.NEVER,
	renderer.Less:         gl.LESS,
	renderer.Equal:        gl.EQUAL,
	renderer.LessEqual:    gl.LEQUAL,
	renderer.Greater:      gl.GREATER,
	renderer.NotEqual:     gl.NOTEQUAL,
	renderer.GreaterEqual: gl.GEQUAL,
	renderer.Always:       gl.ALWAYS,
}

var stencilActions = [...]uint32{
	renderer.Keep:    gl.KEEP,
	renderer.Zero:    gl.ZERO,
	renderer.Replace: gl.REPLACE,
	renderer.Incr:    gl.INCR,
	renderer.Decr:    gl.DECR,
	renderer.Invert:  gl.INVERT,
}

var faces = [...]uint32{
	renderer.FaceBack:         gl.BACK,
	renderer.FaceFront:        gl.FRONT,
	renderer.FaceFrontAndBack: gl.FRONT_AND_BACK,
}

func (d *Device) DepthFunc(f renderer.CompareFunc) { gl.DepthFunc(compareFuncs[f]) }
func (d *Device) DepthMask(write bool) { gl.DepthMask(write) }

func (d *Device) StencilOp(sfail, dpfail, dppass renderer.StencilAction) {
	gl.StencilOp(stencilActions[sfail], stencilActions[dpfail], stencilActions[dppass])
}

func (d *Device) StencilFunc(f renderer.CompareFunc, ref int32, mask uint32) {
	gl.StencilFunc(compareFuncs[f], ref, mask)
}

func (d *Device) StencilMask(mask uint32) { gl.StencilMask(mask) }
func (d *Device) CullFace(f renderer.Face) { gl.CullFace(faces[f]) }

func (d *Device) FrontFace(w renderer.Winding) {
	if w == renderer.CW {
		gl.FrontFace(gl.CW)
		return
	}
	gl.FrontFace(gl.CCW)
}

func (d *Device) ColorMask(r, g, b, a bool) { gl.ColorMask(r, g, b, a) }

func (d *Device) UploadGeometry(vertices []float32, indices []uint32) (renderer.Handle, error) {
	if len(vertices) == 0 {
		return 0, errors.New("no vertices to upload")
	}
	h := d.handle()
	d.geometries[h] = newGeometry(vertices, indices)
	return h, nil
}

func glPrimitive(p renderer.Primitive) uint32 {
	if p == renderer.Points {
		return gl.POINTS
	}
	return gl.TRIANGLES
}

func (d *Device) DrawArrays(h renderer.Handle, mode renderer.Primitive, count int32) {
	g, ok := d.geometries[h]
	if !ok {
		return
	}
	gl.BindVertexArray(g.ids.vao)
	gl.DrawArrays(glPrimitive(mode), 0, count)
	gl.BindVertexArray(0)
}

func (d *Device) DrawIndexed(h renderer.Handle, mode renderer.Primitive, count int32) {
	g, ok := d.geometries[h]
	if !ok {
		return
	}
	gl.BindVertexArray(g.ids.vao)
	gl.DrawElementsWithOffset(glPrimitive(mode), count, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func (d *Device) DeleteGeometry(h renderer.Handle) {
	if g, ok := d.geometries[h]; ok {
		g.release()
		delete(d.geometries, h)
	}
}

func glWrap(w renderer.Wrap) int32 {
	if w == renderer.WrapClampToEdge {
		return gl.CLAMP_TO_EDGE
	}
	return gl.REPEAT
}

func glFilter(f renderer.Filter) int32 {
	if f == renderer.FilterLinearMipmapLinear {
		return gl.LINEAR_MIPMAP_LINEAR
	}
	return gl.LINEAR
}

// CreateTexture uploads tightly packed RGBA8 pixels.
func (d *Device) CreateTexture(img renderer.Image, params renderer.TextureParams) (renderer.Handle, error) {
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) < img.Width*img.Height*4 {
		return 0, errors.Errorf("invalid %dx%d image with %d bytes", img.Width, img.Height, len(img.Pix))
	}
	t := newTexture()
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, params.UnpackAlignment)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(img.Width), int32(img.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if params.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(params.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(params.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(params.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(params.MagFilter))

	h := d.handle()
	d.textures[h] = t
	return h, nil
}

// BindTexture binds h to a texture unit. Unknown or zero handles unbind.
func (d *Device) BindTexture(unit uint32, h renderer.Handle) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	var id uint32
	if t, ok := d.textures[h]; ok {
		id = t.id
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
}

func (d *Device) DeleteTexture(h renderer.Handle) {
	if t, ok := d.textures[h]; ok {
		t.release()
		delete(d.textures, h)
	}
}

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (renderer.Handle, error) {
	p, err := newProgram(vertexSrc, fragmentSrc)
	if err != nil {
		logger.Log.Error("Shader program build failed", zap.Error(err))
		return 0, err
	}
	h := d.handle()
	d.programs[h] = p
	return h, nil
}

func (d *Device) UseProgram(h renderer.Handle) {
	var id uint32
	if p, ok := d.programs[h]; ok {
		id = p.id
	}
	gl.UseProgram(id)
}

func (d *Device) UniformLocation(h renderer.Handle, name string) int32 {
	p, ok := d.programs[h]
	if !ok {
		return -1
	}
	return gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
}

func (d *Device) UniformMat4(loc int32, m mgl32.Mat4) { gl.UniformMatrix4fv(loc, 1, false, &m[0]) }
func (d *Device) UniformVec3(loc int32, v mgl32.Vec3) { gl.Uniform3fv(loc, 1, &v[0]) }
func (d *Device) UniformFloat(loc int32, v float32) { gl.Uniform1f(loc, v) }
func (d *Device) UniformInt(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (d *Device) DeleteProgram(h renderer.Handle) {
	if p, ok := d.programs[h]; ok {
		p.release()
		delete(d.programs, h)
	}
}
