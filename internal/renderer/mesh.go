package renderer

import (
	"portalroom/internal/mesh"
)

// Mesh is an imported mesh resident on the GPU with its texture bindings.
type Mesh struct {
	Name     string
	Textures []Texture

	dev      Device
	geometry *Geometry
}

// NewMesh uploads md. The textures are bound in order, one unit each, when
// the mesh is drawn.
func NewMesh(dev Device, md *mesh.MeshData, textures []Texture) (*Mesh, error) {
	g, err := NewMeshGeometry(dev, md)
	if err != nil {
		return nil, err
	}
	return &Mesh{Name: md.Name, Textures: textures, dev: dev, geometry: g}, nil
}

func (m *Mesh) Geometry() *Geometry { return m.geometry }

// Draw binds texture i to unit i, points the matching material sampler at
// it and issues one indexed draw.
func (m *Mesh) Draw(sh *Shader) {
	for i, tex := range m.Textures {
		unit := uint32(i)
		if name := tex.Kind.Uniform(); name != "" {
			sh.SetInt(name, int32(unit))
		}
		m.dev.BindTexture(unit, tex.Handle)
	}
	m.geometry.Draw(sh)
}
