package gpu

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gopxl/mainthread/v2"
)

// Every GL object is owned by a Go value. Release deletes it right away;
// if the value is dropped without Release, a cleanup queues the delete on
// the main thread.

type program struct {
	id      uint32
	cleanup runtime.Cleanup
}

func newProgram(vertexSrc, fragmentSrc string) (*program, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return nil, err
	}

	id := gl.CreateProgram()
	gl.AttachShader(id, vert)
	gl.AttachShader(id, frag)
	gl.LinkProgram(id)
	gl.DetachShader(id, vert)
	gl.DeleteShader(vert)
	gl.DetachShader(id, frag)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}

	p := &program{id: id}
	p.cleanup = runtime.AddCleanup(p, deleteProgram, id)
	return p, nil
}

func deleteProgram(id uint32) {
	mainthread.CallNonBlock(func() {
		gl.DeleteProgram(id)
	})
}

func (p *program) release() {
	p.cleanup.Stop()
	gl.DeleteProgram(p.id)
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(src)
	defer free()
	length := int32(len(src))
	gl.ShaderSource(shader, 1, csource, &length)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile %s shader: %v", shaderName(shaderType), strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func shaderName(shaderType uint32) string {
	if shaderType == gl.FRAGMENT_SHADER {
		return "fragment"
	}
	return "vertex"
}

// geometryIDs are the GL names behind one geometry.
type geometryIDs struct {
	vao, vbo, ebo uint32
}

type geometry struct {
	ids     geometryIDs
	cleanup runtime.Cleanup
}

const (
	floatSize    = 4
	vertexStride = 8 * floatSize
)

// newGeometry uploads interleaved position|normal|uv vertices and, when
// given, a uint32 index buffer.
func newGeometry(vertices []float32, indices []uint32) *geometry {
	var ids geometryIDs
	gl.GenVertexArrays(1, &ids.vao)
	gl.GenBuffers(1, &ids.vbo)
	gl.BindVertexArray(ids.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, ids.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*floatSize, gl.Ptr(vertices), gl.STATIC_DRAW)

	if len(indices) > 0 {
		gl.GenBuffers(1, &ids.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ids.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride, 3*floatSize)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride, 6*floatSize)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	g := &geometry{ids: ids}
	g.cleanup = runtime.AddCleanup(g, deleteGeometry, ids)
	return g
}

func deleteGeometry(ids geometryIDs) {
	mainthread.CallNonBlock(func() {
		ids.delete()
	})
}

func (ids geometryIDs) delete() {
	gl.DeleteVertexArrays(1, &ids.vao)
	gl.DeleteBuffers(1, &ids.vbo)
	if ids.ebo != 0 {
		gl.DeleteBuffers(1, &ids.ebo)
	}
}

func (g *geometry) release() {
	g.cleanup.Stop()
	g.ids.delete()
}

type texture struct {
	id      uint32
	cleanup runtime.Cleanup
}

func newTexture() *texture {
	t := &texture{}
	gl.GenTextures(1, &t.id)
	t.cleanup = runtime.AddCleanup(t, deleteTexture, t.id)
	return t
}

func deleteTexture(id uint32) {
	mainthread.CallNonBlock(func() {
		gl.DeleteTextures(1, &id)
	})
}

func (t *texture) release() {
	t.cleanup.Stop()
	gl.DeleteTextures(1, &t.id)
}
