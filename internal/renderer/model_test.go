package renderer_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"portalroom/internal/loader"
	"portalroom/internal/mesh"
	"portalroom/internal/renderer"
	"portalroom/internal/renderer/recorder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleOBJ = `# one triangle
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

func writeOBJ(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadModelOBJ(t *testing.T) {
	dev := recorder.New(0)
	tm := renderer.NewTextureManager(dev, newFakeDecoder())
	sh, err := renderer.NewPlanetsShader(dev)
	require.NoError(t, err)

	path := writeOBJ(t, triangleOBJ)
	m, err := renderer.LoadModel(dev, tm, path)
	require.NoError(t, err)
	require.Len(t, m.Meshes, 1)
	assert.Equal(t, "tri.obj", m.Name)
	assert.Equal(t, filepath.Dir(path), m.Directory)

	g := m.Meshes[0].Geometry()
	uploaded := dev.Geometries[g.Handle()]
	require.NotNil(t, uploaded)
	assert.Len(t, uploaded.Vertices, 3*mesh.FloatsPerVertex)
	assert.Equal(t, []uint32{0, 1, 2}, uploaded.Indices)

	m.Draw(sh)
	require.Len(t, dev.Draws, 1)
	assert.True(t, dev.Draws[0].Indexed)
	assert.Equal(t, int32(3), dev.Draws[0].Count)

	m.Release()
	assert.True(t, uploaded.Deleted)
	assert.Empty(t, m.Meshes)
}

func TestLoadModelMissingFile(t *testing.T) {
	dev := recorder.New(0)
	tm := renderer.NewTextureManager(dev, newFakeDecoder())
	sh, err := renderer.NewPlanetsShader(dev)
	require.NoError(t, err)

	m, err := renderer.LoadModel(dev, tm, filepath.Join(t.TempDir(), "gone.obj"))
	assert.ErrorIs(t, err, loader.ErrNoFile)
	require.NotNil(t, m)
	assert.Empty(t, m.Meshes)

	m.Draw(sh)
	assert.Empty(t, dev.Draws)

	m, err = renderer.LoadModel(dev, tm, "model.fbx")
	assert.ErrorIs(t, err, loader.ErrUnsupportedFormat)
	assert.Empty(t, m.Meshes)
}

func TestLoadModelUploadFailure(t *testing.T) {
	dev := recorder.New(0)
	tm := renderer.NewTextureManager(dev, newFakeDecoder())
	dev.FailGeometry = errors.New("no buffers left")

	m, err := renderer.LoadModel(dev, tm, writeOBJ(t, triangleOBJ))
	assert.NoError(t, err, "upload failures are logged, not returned")
	assert.Empty(t, m.Meshes)
}

func TestSetDiffuseTextureReplaces(t *testing.T) {
	dev := recorder.New(0)
	dec := newFakeDecoder()
	dec.add("sun.jpg", 4, 4, 3)
	dec.add("moon.jpg", 4, 4, 3)
	tm := renderer.NewTextureManager(dev, dec)

	var meshes []*renderer.Mesh
	for _, name := range []string{"a", "b"} {
		md := &mesh.MeshData{
			Name:     name,
			Vertices: make([]mesh.Vertex, 3),
			Indices:  []uint32{0, 1, 2},
		}
		msh, err := renderer.NewMesh(dev, md, nil)
		require.NoError(t, err)
		meshes = append(meshes, msh)
	}
	m := renderer.NewModel("pair", tm, meshes...)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.SetDiffuseTexture("sun.jpg"))
		for _, msh := range m.Meshes {
			require.Len(t, msh.Textures, 1, "call %d", i)
			assert.Equal(t, mesh.Diffuse, msh.Textures[0].Kind)
			assert.Equal(t, "sun.jpg", msh.Textures[0].Path)
		}
	}
	assert.Equal(t, 1, dec.calls["sun.jpg"])
	assert.Equal(t, 1, tm.GetStats().ActiveTextures)

	sun := m.Meshes[0].Textures[0].Handle
	require.NoError(t, m.SetDiffuseTexture("moon.jpg"))
	assert.True(t, dev.Textures[sun].Deleted, "last reference to the old texture dropped")
	for _, msh := range m.Meshes {
		require.Len(t, msh.Textures, 1)
		assert.Equal(t, "moon.jpg", msh.Textures[0].Path)
	}

	err := m.SetDiffuseTexture("missing.jpg")
	assert.ErrorIs(t, err, renderer.ErrDecode)
	for _, msh := range m.Meshes {
		require.Len(t, msh.Textures, 1)
		assert.Zero(t, msh.Textures[0].Handle)
	}
	assert.Zero(t, dev.LiveTextures())
}

func TestSetDiffuseTextureEmptyModel(t *testing.T) {
	dev := recorder.New(0)
	dec := newFakeDecoder()
	dec.add("sun.jpg", 1, 1, 3)
	tm := renderer.NewTextureManager(dev, dec)

	m := renderer.NewModel("empty", tm)
	require.NoError(t, m.SetDiffuseTexture("sun.jpg"))
	assert.Zero(t, dev.LiveTextures())
}

func TestMeshDrawBindsTextures(t *testing.T) {
	dev := recorder.New(0)
	sh, err := renderer.NewPlanetsShader(dev)
	require.NoError(t, err)

	md := &mesh.MeshData{Name: "m", Vertices: make([]mesh.Vertex, 3), Indices: []uint32{0, 1, 2}}
	msh, err := renderer.NewMesh(dev, md, []renderer.Texture{
		{Handle: 7, Kind: mesh.Diffuse},
		{Handle: 8, Kind: mesh.Specular},
	})
	require.NoError(t, err)

	sh.Use()
	msh.Draw(sh)
	require.Len(t, dev.Draws, 1)
	d := dev.Draws[0]
	assert.Equal(t, renderer.Handle(7), d.Textures[0])
	assert.Equal(t, renderer.Handle(8), d.Textures[1])
	assert.Equal(t, int32(0), d.Uniforms["material.diffuse"])
	assert.Equal(t, int32(1), d.Uniforms["material.specular"])
}

func TestNewMeshRejectsBadIndices(t *testing.T) {
	dev := recorder.New(0)
	md := &mesh.MeshData{Name: "bad", Vertices: make([]mesh.Vertex, 3), Indices: []uint32{0, 1, 3}}
	_, err := renderer.NewMesh(dev, md, nil)
	assert.Error(t, err)
	assert.Empty(t, dev.Geometries)
}
