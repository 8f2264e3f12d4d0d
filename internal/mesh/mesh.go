// Package mesh holds the GPU-independent geometry produced by the importers.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxBoneInfluence is the number of bone slots carried by a Vertex.
const MaxBoneInfluence = 4

// FloatsPerVertex is the interleaved GPU layout: position(3) normal(3) texcoord(2).
const FloatsPerVertex = 8

// Vertex is one imported vertex. Tangent, Bitangent and the bone slots mirror
// the extended on-disk layout and stay zero unless an importer fills them.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoords mgl32.Vec2
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
	BoneIDs   [MaxBoneInfluence]int32
	Weights   [MaxBoneInfluence]float32
}

// TextureKind is the semantic tag of a texture binding.
type TextureKind string

const (
	Diffuse  TextureKind = "diffuse"
	Specular TextureKind = "specular"
)

// Uniform returns the sampler uniform the kind binds to.
func (k TextureKind) Uniform() string {
	switch k {
	case Diffuse:
		return "material.diffuse"
	case Specular:
		return "material.specular"
	}
	return ""
}

// TextureRef is a texture referenced by a model file, not yet on the GPU.
type TextureRef struct {
	Kind TextureKind
	Path string
}

// MeshData is one triangle-list mesh: every three indices form a triangle.
type MeshData struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Textures []TextureRef
}

// Interleave packs the vertices into the 8-float GPU layout.
func (m *MeshData) Interleave() []float32 {
	out := make([]float32, 0, len(m.Vertices)*FloatsPerVertex)
	for _, v := range m.Vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.TexCoords[0], v.TexCoords[1])
	}
	return out
}

// Validate checks that every index addresses an existing vertex and that the
// index count forms whole triangles.
func (m *MeshData) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: %d indices is not a triangle list", m.Name, len(m.Indices))
	}
	n := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("mesh %q: index %d at %d out of range (%d vertices)", m.Name, idx, i, n)
		}
	}
	return nil
}

// Empty reports whether the mesh would draw nothing.
func (m *MeshData) Empty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}
