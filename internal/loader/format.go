// Package loader imports model files into GPU-independent meshes.
package loader

import (
	"path/filepath"
	"strings"

	"portalroom/internal/logger"
	"portalroom/internal/mesh"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrNoFile            = errors.New("model file cannot be opened")
)

// Format is the closed set of model formats the importer understands.
type Format int

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatGLTF
	FormatGLB
)

func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatGLTF:
		return "gltf"
	case FormatGLB:
		return "glb"
	}
	return "unknown"
}

// Sniff selects a format from the file extension, case-insensitively.
func Sniff(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ
	case ".gltf":
		return FormatGLTF
	case ".glb":
		return FormatGLB
	}
	return FormatUnknown
}

// Importer parses one file into meshes. On error the returned slice still
// holds whatever was parsed before the failure.
type Importer interface {
	Import(path string) ([]mesh.MeshData, error)
}

// ImporterFor returns the importer for a format.
func ImporterFor(f Format) (Importer, error) {
	switch f {
	case FormatOBJ:
		return OBJImporter{}, nil
	case FormatGLTF, FormatGLB:
		return GLTFImporter{}, nil
	}
	return nil, ErrUnsupportedFormat
}

// Load sniffs the format of path and imports it. Errors are logged here;
// the partial result is always returned alongside them.
func Load(path string) ([]mesh.MeshData, error) {
	format := Sniff(path)
	imp, err := ImporterFor(format)
	if err != nil {
		logger.Log.Error("Model format not supported",
			zap.String("path", path),
			zap.String("ext", filepath.Ext(path)))
		return nil, errors.Wrapf(err, "%s", path)
	}

	meshes, err := imp.Import(path)
	if err != nil {
		logger.Log.Error("Model import failed",
			zap.String("path", path),
			zap.String("format", format.String()),
			zap.Int("meshesParsed", len(meshes)),
			zap.Error(err))
		return meshes, err
	}

	vertices := 0
	for i := range meshes {
		vertices += len(meshes[i].Vertices)
	}
	logger.Log.Info("Model loaded",
		zap.String("path", path),
		zap.String("format", format.String()),
		zap.Int("meshes", len(meshes)),
		zap.Int("vertices", vertices))
	return meshes, nil
}
