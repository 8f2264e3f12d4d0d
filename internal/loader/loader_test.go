package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portalroom/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cubeOBJ = `# unit cube
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
v -1 -1  1
v  1 -1  1
v  1  1  1
v -1  1  1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 -1
vn 0 0 1
vn -1 0 0
vn 1 0 0
vn 0 -1 0
vn 0 1 0
f 1/1/1 2/2/1 3/3/1
f 3/3/1 4/4/1 1/1/1
f 5/1/2 6/2/2 7/3/2
f 7/3/2 8/4/2 5/1/2
f 1/1/3 4/2/3 8/3/3
f 8/3/3 5/4/3 1/1/3
f 2/1/4 3/2/4 7/3/4
f 7/3/4 6/4/4 2/1/4
f 1/1/5 2/2/5 6/3/5
f 6/3/5 5/4/5 1/1/5
f 4/1/6 3/2/6 7/3/6
f 7/3/6 8/4/6 4/1/6
`

func TestParseOBJCube(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(cubeOBJ), "cube.obj")
	require.NoError(t, err)

	assert.Equal(t, "cube", m.Name)
	require.Len(t, m.Vertices, 36)
	require.Len(t, m.Indices, 36)
	for i, idx := range m.Indices {
		assert.Equal(t, uint32(i), idx)
	}
	require.NoError(t, m.Validate())

	// f 5/1/2 ... is the first vertex of the third face.
	v := m.Vertices[6]
	assert.Equal(t, mgl32.Vec3{-1, -1, 1}, v.Position)
	assert.Equal(t, mgl32.Vec2{0, 0}, v.TexCoords)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, v.Normal)
}

func TestParseOBJFaceForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0.5
vn 0 0 1
f 1 2 3
f 1/1 2/1 3/1
f 1//1 2//1 3//1
`
	m, err := ParseOBJ(strings.NewReader(src), "forms.obj")
	require.NoError(t, err)
	require.Len(t, m.Vertices, 9)

	assert.Equal(t, mgl32.Vec2{}, m.Vertices[0].TexCoords)
	assert.Equal(t, mgl32.Vec3{}, m.Vertices[0].Normal)
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, m.Vertices[3].TexCoords)
	assert.Equal(t, mgl32.Vec3{}, m.Vertices[3].Normal)
	assert.Equal(t, mgl32.Vec2{}, m.Vertices[6].TexCoords)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, m.Vertices[6].Normal)
}

func TestParseOBJQuadUsesFirstTriangle(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	m, err := ParseOBJ(strings.NewReader(src), "quad.obj")
	require.NoError(t, err)
	require.Len(t, m.Vertices, 3)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, m.Vertices[2].Position)
}

func TestParseOBJMalformedLinesAreSkipped(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v nope 0 0
v 1 1 1
f 1 2 3
f 1 2
f 1 2 99
f a b c
f 2 3 5
o ignored
`
	m, err := ParseOBJ(strings.NewReader(src), "broken.obj")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 4, perr.Line)
	assert.Equal(t, 4, perr.Skipped)

	// The bad "v" keeps its slot, so index 5 still reaches (1,1,1).
	require.Len(t, m.Vertices, 6)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.Vertices[5].Position)
	assert.NoError(t, m.Validate())
}

func TestParseOBJRejectsRelativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
f 0 1 2
`
	m, err := ParseOBJ(strings.NewReader(src), "relative.obj")
	require.Error(t, err)
	assert.True(t, m.Empty())
}

func TestSniff(t *testing.T) {
	cases := map[string]Format{
		"a/b/model.obj":   FormatOBJ,
		"MODEL.OBJ":       FormatOBJ,
		"scene.gltf":      FormatGLTF,
		"scene.GLB":       FormatGLB,
		"model.fbx":       FormatUnknown,
		"no_extension":    FormatUnknown,
		"objects/obj.txt": FormatUnknown,
	}
	for path, want := range cases {
		assert.Equal(t, want, Sniff(path), path)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	meshes, err := Load(filepath.Join(t.TempDir(), "model.fbx"))
	assert.Nil(t, meshes)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadMissingFile(t *testing.T) {
	meshes, err := Load(filepath.Join(t.TempDir(), "missing.obj"))
	assert.Empty(t, meshes)
	assert.True(t, errors.Is(err, ErrNoFile))
}

func TestLoadOBJFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.obj")
	require.NoError(t, os.WriteFile(path, []byte(cubeOBJ), 0o644))

	meshes, err := Load(path)
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Len(t, meshes[0].Vertices, 36)
}

// quad is two triangles over four vertices.
var (
	quadPositions = []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	quadNormals   = []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1}
	quadUVs       = []float32{0, 0, 1, 0, 1, 1, 0, 1}
	quadIndices   = []uint32{0, 1, 2, 2, 3, 0}
)

func ptr(i int) *int { return &i }

func putFloats(buf *bytes.Buffer, fs []float32) {
	for _, f := range fs {
		_ = binary.Write(buf, binary.LittleEndian, math.Float32bits(f))
	}
}

// quadBuffer lays out positions, normals, uvs then indices of the given
// component type and returns the bytes plus the index byte offset.
func quadBuffer(indexType gltf.ComponentType) ([]byte, int) {
	var buf bytes.Buffer
	putFloats(&buf, quadPositions)
	putFloats(&buf, quadNormals)
	putFloats(&buf, quadUVs)
	offset := buf.Len()
	for _, idx := range quadIndices {
		switch indexType {
		case gltf.ComponentUshort:
			_ = binary.Write(&buf, binary.LittleEndian, uint16(idx))
		case gltf.ComponentUint:
			_ = binary.Write(&buf, binary.LittleEndian, idx)
		case gltf.ComponentUbyte:
			buf.WriteByte(byte(idx))
		}
	}
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes(), offset
}

func quadDoc(indexType gltf.ComponentType) *gltf.Document {
	data, indexOffset := quadBuffer(indexType)
	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 48},
			{Buffer: 0, ByteOffset: 48, ByteLength: 48},
			{Buffer: 0, ByteOffset: 96, ByteLength: 32},
			{Buffer: 0, ByteOffset: indexOffset, ByteLength: len(data) - indexOffset},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: ptr(0), ComponentType: gltf.ComponentFloat, Count: 4, Type: gltf.AccessorVec3},
			{BufferView: ptr(1), ComponentType: gltf.ComponentFloat, Count: 4, Type: gltf.AccessorVec3},
			{BufferView: ptr(2), ComponentType: gltf.ComponentFloat, Count: 4, Type: gltf.AccessorVec2},
			{BufferView: ptr(3), ComponentType: indexType, Count: len(quadIndices), Type: gltf.AccessorScalar},
		},
		Meshes: []*gltf.Mesh{{
			Name: "quad",
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{"POSITION": 0, "NORMAL": 1, "TEXCOORD_0": 2},
				Indices:    ptr(3),
			}},
		}},
	}
}

func TestConvertDocumentIndexWidths(t *testing.T) {
	short, err := ConvertDocument(quadDoc(gltf.ComponentUshort), "")
	require.NoError(t, err)
	long, err := ConvertDocument(quadDoc(gltf.ComponentUint), "")
	require.NoError(t, err)

	require.Len(t, short, 1)
	assert.Equal(t, short, long)

	m := short[0]
	assert.Equal(t, "quad", m.Name)
	assert.Equal(t, quadIndices, m.Indices)
	require.Len(t, m.Vertices, 4)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, m.Vertices[2].Position)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, m.Vertices[2].Normal)
	assert.Equal(t, mgl32.Vec2{1, 1}, m.Vertices[2].TexCoords)
}

func TestConvertDocumentRejectsByteIndices(t *testing.T) {
	meshes, err := ConvertDocument(quadDoc(gltf.ComponentUbyte), "")
	require.Error(t, err)
	assert.Empty(t, meshes)
}

func TestConvertDocumentMissingPosition(t *testing.T) {
	doc := quadDoc(gltf.ComponentUshort)
	delete(doc.Meshes[0].Primitives[0].Attributes, "POSITION")

	meshes, err := ConvertDocument(doc, "")
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Empty(t, meshes[0].Vertices)
	assert.True(t, meshes[0].Empty())
}

func TestConvertDocumentSequentialIndices(t *testing.T) {
	doc := quadDoc(gltf.ComponentUshort)
	doc.Accessors[0].Count = 3
	doc.Meshes[0].Primitives[0].Indices = nil

	meshes, err := ConvertDocument(doc, "")
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Equal(t, []uint32{0, 1, 2}, meshes[0].Indices)
}

func TestConvertDocumentStride(t *testing.T) {
	// Positions interleaved with a 4-byte pad per element.
	var buf bytes.Buffer
	for i := 0; i < 4; i++ {
		putFloats(&buf, quadPositions[i*3:i*3+3])
		putFloats(&buf, []float32{-1})
	}
	doc := &gltf.Document{
		Buffers:     []*gltf.Buffer{{ByteLength: buf.Len(), Data: buf.Bytes()}},
		BufferViews: []*gltf.BufferView{{Buffer: 0, ByteLength: buf.Len(), ByteStride: 16}},
		Accessors: []*gltf.Accessor{
			{BufferView: ptr(0), ComponentType: gltf.ComponentFloat, Count: 4, Type: gltf.AccessorVec3},
		},
		Meshes: []*gltf.Mesh{{Primitives: []*gltf.Primitive{{Attributes: map[string]int{"POSITION": 0}}}}},
	}

	meshes, err := ConvertDocument(doc, "")
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	require.Len(t, meshes[0].Vertices, 4)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, meshes[0].Vertices[3].Position)
}

func TestConvertDocumentOutOfBoundsAccessor(t *testing.T) {
	doc := quadDoc(gltf.ComponentUshort)
	doc.Accessors[0].Count = 40

	meshes, err := ConvertDocument(doc, "")
	require.Error(t, err)
	assert.Empty(t, meshes)
}

func TestConvertDocumentMaterialTexture(t *testing.T) {
	doc := quadDoc(gltf.ComponentUshort)
	doc.Images = []*gltf.Image{{URI: "textures/base.png"}}
	doc.Textures = []*gltf.Texture{{Source: ptr(0)}}
	doc.Materials = []*gltf.Material{{
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}
	doc.Meshes[0].Primitives[0].Material = ptr(0)

	meshes, err := ConvertDocument(doc, filepath.Join("objects", "sun"))
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Equal(t, []mesh.TextureRef{{
		Kind: mesh.Diffuse,
		Path: filepath.Join("objects", "sun", "textures", "base.png"),
	}}, meshes[0].Textures)
}

const quadJSON = `{
  "asset": {"version": "2.0"},
  "buffers": [{%s"byteLength": %d}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 48},
    {"buffer": 0, "byteOffset": 48, "byteLength": 48},
    {"buffer": 0, "byteOffset": 96, "byteLength": 32},
    {"buffer": 0, "byteOffset": %d, "byteLength": %d}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 4, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5126, "count": 4, "type": "VEC3"},
    {"bufferView": 2, "componentType": 5126, "count": 4, "type": "VEC2"},
    {"bufferView": 3, "componentType": %d, "count": 6, "type": "SCALAR"}
  ],
  "meshes": [{"name": "quad", "primitives": [{"attributes": {"POSITION": 0, "NORMAL": 1, "TEXCOORD_0": 2}, "indices": 3}]}]
}`

func quadFileJSON(indexType gltf.ComponentType, embed bool) (string, []byte) {
	data, offset := quadBuffer(indexType)
	uri := ""
	if embed {
		uri = fmt.Sprintf(`"uri": "data:application/octet-stream;base64,%s", `, base64.StdEncoding.EncodeToString(data))
	}
	glType := map[gltf.ComponentType]int{
		gltf.ComponentUbyte:  5121,
		gltf.ComponentUshort: 5123,
		gltf.ComponentUint:   5125,
	}[indexType]
	return fmt.Sprintf(quadJSON, uri, len(data), offset, len(data)-offset, glType), data
}

func writeGLB(t *testing.T, path string, indexType gltf.ComponentType) {
	t.Helper()
	js, bin := quadFileJSON(indexType, false)
	jsonChunk := []byte(js)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var buf bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(bin)
	for _, v := range []uint32{0x46546C67, 2, uint32(total), uint32(len(jsonChunk)), 0x4E4F534A} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(jsonChunk)
	for _, v := range []uint32{uint32(len(bin)), 0x004E4942} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(bin)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestLoadGLTFAndGLBAgree(t *testing.T) {
	dir := t.TempDir()

	gltfPath := filepath.Join(dir, "quad.gltf")
	js, _ := quadFileJSON(gltf.ComponentUshort, true)
	require.NoError(t, os.WriteFile(gltfPath, []byte(js), 0o644))

	glbPath := filepath.Join(dir, "quad.glb")
	writeGLB(t, glbPath, gltf.ComponentUint)

	fromText, err := Load(gltfPath)
	require.NoError(t, err)
	fromBinary, err := Load(glbPath)
	require.NoError(t, err)

	require.Len(t, fromText, 1)
	assert.Equal(t, fromText, fromBinary)
	assert.Equal(t, quadIndices, fromText[0].Indices)
}

func TestLoadCorruptGLTF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gltf")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	meshes, err := Load(path)
	assert.Error(t, err)
	assert.Empty(t, meshes)
}

func TestLoadGLTFHugeAccessorCount(t *testing.T) {
	// 12*count wraps to 8 in 64-bit arithmetic, which would pass a naive
	// end-offset check against the 16-byte buffer.
	data := base64.StdEncoding.EncodeToString(make([]byte, 16))
	js := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"uri": "data:application/octet-stream;base64,%s", "byteLength": 16}],
  "bufferViews": [{"buffer": 0, "byteLength": 16}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 1537228672809129302, "type": "VEC3"}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]
}`, data)
	path := filepath.Join(t.TempDir(), "huge.gltf")
	require.NoError(t, os.WriteFile(path, []byte(js), 0o644))

	var meshes []mesh.MeshData
	var err error
	require.NotPanics(t, func() { meshes, err = Load(path) })
	assert.Error(t, err)
	assert.Empty(t, meshes)
}

func TestConvertDocumentRejectsOversizedAccessors(t *testing.T) {
	tests := []struct {
		name  string
		apply func(doc *gltf.Document)
	}{
		{"huge index count", func(doc *gltf.Document) { doc.Accessors[3].Count = math.MaxInt64 / 2 }},
		{"negative count", func(doc *gltf.Document) { doc.Accessors[0].Count = -1 }},
		{"viewless count", func(doc *gltf.Document) {
			doc.Accessors[1].BufferView = nil
			doc.Accessors[1].Count = math.MaxInt32
		}},
		{"stride below element", func(doc *gltf.Document) { doc.BufferViews[0].ByteStride = 4 }},
		{"negative stride", func(doc *gltf.Document) { doc.BufferViews[0].ByteStride = -12 }},
		{"offset past view", func(doc *gltf.Document) { doc.Accessors[2].ByteOffset = 1 << 20 }},
		{"sparse", func(doc *gltf.Document) {
			doc.Accessors[0].Sparse = &gltf.Sparse{Count: 1}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := quadDoc(gltf.ComponentUshort)
			tt.apply(doc)

			var meshes []mesh.MeshData
			var err error
			require.NotPanics(t, func() { meshes, err = ConvertDocument(doc, "") })
			assert.Error(t, err)
			assert.Empty(t, meshes)
		})
	}
}

func TestConvertDocumentViewlessNormalsAreZero(t *testing.T) {
	doc := quadDoc(gltf.ComponentUshort)
	doc.Accessors[1].BufferView = nil

	meshes, err := ConvertDocument(doc, "")
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	for _, v := range meshes[0].Vertices {
		assert.Equal(t, mgl32.Vec3{}, v.Normal)
	}
}
