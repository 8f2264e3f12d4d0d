package renderer

import (
	"portalroom/internal/logger"
	"portalroom/internal/mesh"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Drawable is anything a pass can submit. Draw assumes the caller has bound
// the shader and set the per-pass uniforms.
type Drawable interface {
	Draw(sh *Shader)
}

// Geometry is an uploaded vertex buffer, optionally indexed.
type Geometry struct {
	dev     Device
	handle  Handle
	name    string
	count   int32
	indexed bool
	mode    Primitive
}

func (g *Geometry) Handle() Handle { return g.handle }
func (g *Geometry) Name() string { return g.name }
func (g *Geometry) Count() int32 { return g.count }
func (g *Geometry) Mode() Primitive { return g.mode }
func (g *Geometry) Indexed() bool { return g.indexed }
func (g *Geometry) Released() bool { return g.handle == 0 }

func (g *Geometry) Draw(*Shader) {
	if g.handle == 0 || g.count == 0 {
		return
	}
	if g.indexed {
		g.dev.DrawIndexed(g.handle, g.mode, g.count)
		return
	}
	g.dev.DrawArrays(g.handle, g.mode, g.count)
}

// Release frees the GPU buffers. Safe to call twice.
func (g *Geometry) Release() {
	if g.handle == 0 {
		return
	}
	g.dev.DeleteGeometry(g.handle)
	g.handle = 0
}

// NewMeshGeometry uploads an imported mesh as an indexed triangle list.
func NewMeshGeometry(dev Device, md *mesh.MeshData) (*Geometry, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	h, err := dev.UploadGeometry(md.Interleave(), md.Indices)
	if err != nil {
		return nil, errors.Wrapf(err, "uploading mesh %q", md.Name)
	}
	return &Geometry{
		dev:     dev,
		handle:  h,
		name:    md.Name,
		count:   int32(len(md.Indices)),
		indexed: true,
		mode:    Triangles,
	}, nil
}

// GeometryRegistry owns the static, non-indexed shapes of the scene. Shapes
// are uploaded once and never mutated.
type GeometryRegistry struct {
	dev    Device
	shapes map[string]*Geometry
	order  []string
}

func NewGeometryRegistry(dev Device) *GeometryRegistry {
	return &GeometryRegistry{dev: dev, shapes: make(map[string]*Geometry)}
}

// Register uploads interleaved vertices (mesh.FloatsPerVertex floats each)
// under name.
func (r *GeometryRegistry) Register(name string, vertices []float32, mode Primitive) (*Geometry, error) {
	if _, exists := r.shapes[name]; exists {
		return nil, errors.Errorf("geometry %q already registered", name)
	}
	if len(vertices) == 0 || len(vertices)%mesh.FloatsPerVertex != 0 {
		return nil, errors.Errorf("geometry %q: %d floats is not a whole number of vertices", name, len(vertices))
	}
	h, err := r.dev.UploadGeometry(vertices, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "uploading geometry %q", name)
	}
	g := &Geometry{
		dev:    r.dev,
		handle: h,
		name:   name,
		count:  int32(len(vertices) / mesh.FloatsPerVertex),
		mode:   mode,
	}
	r.shapes[name] = g
	r.order = append(r.order, name)

	logger.Log.Debug("Geometry registered",
		zap.String("name", name),
		zap.Int32("vertices", g.count))
	return g, nil
}

func (r *GeometryRegistry) Get(name string) (*Geometry, bool) {
	g, ok := r.shapes[name]
	return g, ok
}

// Names lists registered shapes in registration order.
func (r *GeometryRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Release frees every shape, last registered first.
func (r *GeometryRegistry) Release() {
	for i := len(r.order) - 1; i >= 0; i-- {
		r.shapes[r.order[i]].Release()
	}
	r.shapes = make(map[string]*Geometry)
	r.order = nil
}
