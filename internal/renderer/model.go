package renderer

import (
	"path/filepath"

	"portalroom/internal/loader"
	"portalroom/internal/logger"
	"portalroom/internal/mesh"

	"go.uber.org/zap"
)

// Model is the ordered list of meshes loaded from one file. A model with no
// meshes draws nothing.
type Model struct {
	Name      string
	Path      string
	Directory string
	Meshes    []*Mesh

	textures *TextureManager
}

// LoadModel imports path and uploads every mesh. Material textures found by
// the importer are loaded through textures. Import and upload failures are
// logged; the returned model holds whatever loaded and is never nil. The
// import error, if any, is returned for the caller's information.
func LoadModel(dev Device, textures *TextureManager, path string) (*Model, error) {
	model := &Model{
		Name:      filepath.Base(path),
		Path:      path,
		Directory: filepath.Dir(path),
		textures:  textures,
	}

	meshes, importErr := loader.Load(path)
	for i := range meshes {
		md := &meshes[i]
		if md.Empty() {
			continue
		}
		texs := model.loadTextures(md.Textures)
		m, err := NewMesh(dev, md, texs)
		if err != nil {
			logger.Log.Error("Mesh upload failed",
				zap.String("model", path),
				zap.String("mesh", md.Name),
				zap.Error(err))
			for _, tex := range texs {
				textures.ReleaseTexture(tex.Handle)
			}
			continue
		}
		model.Meshes = append(model.Meshes, m)
	}

	logger.Log.Debug("Model ready",
		zap.String("path", path),
		zap.Int("meshes", len(model.Meshes)))
	return model, importErr
}

// NewModel assembles a model from already uploaded meshes.
func NewModel(name string, textures *TextureManager, meshes ...*Mesh) *Model {
	return &Model{Name: name, Meshes: meshes, textures: textures}
}

func (m *Model) loadTextures(refs []mesh.TextureRef) []Texture {
	var out []Texture
	for _, ref := range refs {
		tex := m.textures.Load(ref.Path, ref.Kind, RoleTiling)
		if tex.Handle == 0 {
			continue
		}
		out = append(out, tex)
	}
	return out
}

// Draw issues one draw per mesh in storage order. The caller binds the
// shader and sets the model transform.
func (m *Model) Draw(sh *Shader) {
	for _, msh := range m.Meshes {
		msh.Draw(sh)
	}
}

// SetDiffuseTexture loads path and makes it the only texture of every mesh.
// Repeated calls replace, never append. When loading fails the meshes are
// left with a single unbound (0) diffuse entry and the error is returned.
func (m *Model) SetDiffuseTexture(path string) error {
	id, err := m.textures.LoadTexture(path, RoleTiling)
	tex := Texture{Handle: id, Kind: mesh.Diffuse, Path: path, Role: RoleTiling}

	for i, msh := range m.Meshes {
		m.releaseTextures(msh)
		if i > 0 {
			m.textures.AddReference(id)
		}
		msh.Textures = []Texture{tex}
	}
	if len(m.Meshes) == 0 {
		m.textures.ReleaseTexture(id)
	}
	return err
}

func (m *Model) releaseTextures(msh *Mesh) {
	for _, tex := range msh.Textures {
		m.textures.ReleaseTexture(tex.Handle)
	}
	msh.Textures = nil
}

// Release frees the meshes' buffers and drops their texture references.
func (m *Model) Release() {
	for _, msh := range m.Meshes {
		m.releaseTextures(msh)
		msh.geometry.Release()
	}
	m.Meshes = nil
}
