package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"portalroom/internal/logger"
	"portalroom/internal/mesh"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// GLTFImporter reads glTF 2.0 (.gltf with external or embedded buffers, or
// binary .glb). Each primitive becomes one mesh built from its POSITION,
// NORMAL and TEXCOORD_0 accessors and a 16- or 32-bit index accessor.
type GLTFImporter struct{}

func (GLTFImporter) Import(path string) ([]mesh.MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return ConvertDocument(doc, filepath.Dir(path))
}

// ConvertDocument turns every (mesh, primitive) pair of doc into a MeshData.
// dir resolves relative image URIs. A failing primitive is skipped and the
// first failure is returned with the meshes that did convert.
func ConvertDocument(doc *gltf.Document, dir string) ([]mesh.MeshData, error) {
	var out []mesh.MeshData
	var firstErr error
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			md, err := convertPrimitive(doc, prim)
			if err != nil {
				err = errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
				logger.Log.Warn("Skipping glTF primitive", zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			md.Name = gm.Name
			if len(gm.Primitives) > 1 {
				md.Name = fmt.Sprintf("%s.%d", gm.Name, pi)
			}
			md.Textures = materialTextures(doc, prim, dir)
			out = append(out, md)
		}
	}
	return out, firstErr
}

func convertPrimitive(doc *gltf.Document, prim *gltf.Primitive) (mesh.MeshData, error) {
	var md mesh.MeshData

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return md, nil
	}
	positions, err := readAttribute(doc, posIdx, modeler.ReadPosition)
	if err != nil {
		return md, errors.Wrap(err, "POSITION")
	}

	var normals [][3]float32
	var texCoords [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = readAttribute(doc, idx, modeler.ReadNormal); err != nil {
			return md, errors.Wrap(err, "NORMAL")
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if texCoords, err = readAttribute(doc, idx, modeler.ReadTextureCoord); err != nil {
			return md, errors.Wrap(err, "TEXCOORD_0")
		}
	}

	md.Vertices = make([]mesh.Vertex, len(positions))
	for i := range md.Vertices {
		v := &md.Vertices[i]
		v.Position = positions[i]
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(texCoords) {
			v.TexCoords = texCoords[i]
		}
	}

	if prim.Indices == nil {
		// Non-indexed primitives draw their vertices in order.
		md.Indices = make([]uint32, len(positions))
		for i := range md.Indices {
			md.Indices[i] = uint32(i)
		}
		return md, nil
	}
	if md.Indices, err = readIndices(doc, *prim.Indices); err != nil {
		return mesh.MeshData{}, errors.Wrap(err, "indices")
	}
	if err := md.Validate(); err != nil {
		return mesh.MeshData{}, err
	}
	return md, nil
}

// maxViewlessElements bounds accessors without a buffer view, which decode
// to zeros and would otherwise allocate whatever count they declare.
const maxViewlessElements = 1 << 24

// checkAccessor validates that every element of an accessor lies inside its
// buffer view and buffer before any slice is allocated for it. Sparse
// accessors are rejected.
func checkAccessor(doc *gltf.Document, accIdx int) (*gltf.Accessor, error) {
	if accIdx < 0 || accIdx >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", accIdx)
	}
	acc := doc.Accessors[accIdx]
	if acc.Count < 0 {
		return nil, errors.Errorf("accessor %d: negative count %d", accIdx, acc.Count)
	}
	if acc.Sparse != nil {
		return nil, errors.Errorf("accessor %d: sparse storage not supported", accIdx)
	}
	if acc.BufferView == nil {
		if acc.Count > maxViewlessElements {
			return nil, errors.Errorf("accessor %d: %d elements without a buffer view", accIdx, acc.Count)
		}
		return acc, nil
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, errors.Errorf("buffer view %d out of range", *acc.BufferView)
	}
	view := doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, errors.Errorf("buffer %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data

	elemSize := gltf.SizeOfElement(acc.ComponentType, acc.Type)
	stride := elemSize
	if view.ByteStride > 0 {
		stride = view.ByteStride
	}
	if elemSize <= 0 || stride < elemSize || view.ByteStride < 0 {
		return nil, errors.Errorf("accessor %d: stride %d below element size %d", accIdx, stride, elemSize)
	}

	start := view.ByteOffset + acc.ByteOffset
	end := min(len(data), view.ByteOffset+view.ByteLength)
	if view.ByteOffset < 0 || acc.ByteOffset < 0 || start > end {
		return nil, errors.Errorf("accessor %d starts at byte %d outside its view/buffer (%d bytes)", accIdx, start, len(data))
	}
	if acc.Count == 0 {
		return acc, nil
	}
	// Division keeps the bound free of overflow for any declared count.
	avail := end - start
	if avail < elemSize || acc.Count-1 > (avail-elemSize)/stride {
		return nil, errors.Errorf("accessor %d: %d elements of stride %d exceed the %d bytes available", accIdx, acc.Count, stride, avail)
	}
	return acc, nil
}

// readAttribute checks an accessor and decodes it with read. Accessors
// without a buffer view are all zeros; modeler would hand back its pooled
// scratch buffer for those, so they are built here.
func readAttribute[T any](doc *gltf.Document, accIdx int, read func(*gltf.Document, *gltf.Accessor, []T) ([]T, error)) ([]T, error) {
	acc, err := checkAccessor(doc, accIdx)
	if err != nil {
		return nil, err
	}
	if acc.BufferView == nil {
		return make([]T, acc.Count), nil
	}
	return read(doc, acc, nil)
}

// readIndices decodes a scalar 16- or 32-bit unsigned index accessor.
func readIndices(doc *gltf.Document, accIdx int) ([]uint32, error) {
	acc, err := checkAccessor(doc, accIdx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorScalar {
		return nil, errors.Errorf("index accessor %d is not scalar", accIdx)
	}
	switch acc.ComponentType {
	case gltf.ComponentUshort, gltf.ComponentUint:
	default:
		return nil, errors.Errorf("index accessor %d: unsupported component type %v", accIdx, acc.ComponentType)
	}
	if acc.BufferView == nil {
		return make([]uint32, acc.Count), nil
	}
	return modeler.ReadIndices(doc, acc, nil)
}

// materialTextures resolves the base colour texture of the primitive's
// material to a diffuse reference. Embedded images are not referenced.
func materialTextures(doc *gltf.Document, prim *gltf.Primitive, dir string) []mesh.TextureRef {
	if prim.Material == nil || *prim.Material < 0 || *prim.Material >= len(doc.Materials) {
		return nil
	}
	mat := doc.Materials[*prim.Material]
	if mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
		return nil
	}
	texIdx := mat.PBRMetallicRoughness.BaseColorTexture.Index
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return nil
	}
	imgIdx := *doc.Textures[texIdx].Source
	if imgIdx < 0 || imgIdx >= len(doc.Images) {
		return nil
	}
	uri := doc.Images[imgIdx].URI
	if uri == "" || strings.HasPrefix(uri, "data:") {
		logger.Log.Debug("Skipping embedded glTF image", zap.Int("image", imgIdx))
		return nil
	}
	path := uri
	if !filepath.IsAbs(uri) {
		path = filepath.Join(dir, filepath.FromSlash(uri))
	}
	return []mesh.TextureRef{{Kind: mesh.Diffuse, Path: path}}
}
