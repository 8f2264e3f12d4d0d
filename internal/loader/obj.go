package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"portalroom/internal/logger"
	"portalroom/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// OBJImporter reads the v/vt/vn/f subset of Wavefront OBJ. Faces are
// triangles: only the first three vertex tokens of an "f" line are used.
// Vertices are not deduplicated; every face vertex gets the next index.
type OBJImporter struct{}

// ParseError summarises the malformed lines skipped while parsing.
type ParseError struct {
	Path    string
	Line    int // first malformed line
	Skipped int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v (%d malformed lines skipped)", e.Path, e.Line, e.Err, e.Skipped)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (OBJImporter) Import(path string) ([]mesh.MeshData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrNoFile, err.Error())
	}
	defer file.Close()

	m, err := ParseOBJ(file, path)
	if m.Empty() {
		return nil, err
	}
	return []mesh.MeshData{m}, err
}

// ParseOBJ parses OBJ text from r. name is used for diagnostics and the mesh
// name. Malformed lines are logged and skipped; the returned mesh holds every
// face that parsed cleanly.
func ParseOBJ(r io.Reader, name string) (mesh.MeshData, error) {
	var positions []mgl32.Vec3
	var texCoords []mgl32.Vec2
	var normals []mgl32.Vec3

	out := mesh.MeshData{Name: strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))}
	var perr *ParseError
	fail := func(line int, err error) {
		logger.Log.Warn("Skipping malformed OBJ line",
			zap.String("path", name),
			zap.Int("line", line),
			zap.Error(err))
		if perr == nil {
			perr = &ParseError{Path: name, Line: line, Err: err}
		}
		perr.Skipped++
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "v":
			// A bad position still occupies its slot so later indices stay aligned.
			v, err := parseVec3(parts[1:])
			if err != nil {
				fail(lineNo, errors.Wrap(err, "vertex"))
			}
			positions = append(positions, v)
		case "vt":
			vt, err := parseVec2(parts[1:])
			if err != nil {
				fail(lineNo, errors.Wrap(err, "texture coordinate"))
			}
			texCoords = append(texCoords, vt)
		case "vn":
			vn, err := parseVec3(parts[1:])
			if err != nil {
				fail(lineNo, errors.Wrap(err, "normal"))
			}
			normals = append(normals, vn)
		case "f":
			face, err := parseFace(parts[1:])
			if err != nil {
				fail(lineNo, errors.Wrap(err, "face"))
				continue
			}
			var tri [3]mesh.Vertex
			for i, fv := range face {
				tri[i], err = fv.resolve(positions, texCoords, normals)
				if err != nil {
					break
				}
			}
			if err != nil {
				fail(lineNo, errors.Wrap(err, "face"))
				continue
			}
			for _, v := range tri {
				out.Indices = append(out.Indices, uint32(len(out.Vertices)))
				out.Vertices = append(out.Vertices, v)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return out, errors.Wrapf(err, "reading %s", name)
	}
	if perr != nil {
		return out, perr
	}
	return out, nil
}

type faceVertex struct {
	VertexIdx   int
	TexCoordIdx int // -1 when absent
	NormalIdx   int // -1 when absent
}

func (fv faceVertex) resolve(positions []mgl32.Vec3, texCoords []mgl32.Vec2, normals []mgl32.Vec3) (mesh.Vertex, error) {
	var v mesh.Vertex
	if fv.VertexIdx >= len(positions) {
		return v, errors.Errorf("position index %d out of range (%d positions)", fv.VertexIdx+1, len(positions))
	}
	v.Position = positions[fv.VertexIdx]
	if fv.TexCoordIdx >= 0 && fv.TexCoordIdx < len(texCoords) {
		v.TexCoords = texCoords[fv.TexCoordIdx]
	}
	if fv.NormalIdx >= 0 && fv.NormalIdx < len(normals) {
		v.Normal = normals[fv.NormalIdx]
	}
	return v, nil
}

// parseFace reads the first three tokens of a face. Tokens are v, v/vt,
// v/vt/vn or v//vn with 1-based absolute indices.
func parseFace(parts []string) ([3]faceVertex, error) {
	var face [3]faceVertex
	if len(parts) < 3 {
		return face, errors.Errorf("need 3 vertices, got %d", len(parts))
	}
	for i := 0; i < 3; i++ {
		vals := strings.Split(parts[i], "/")
		if len(vals) > 3 {
			return face, errors.Errorf("invalid face token %q", parts[i])
		}

		vertexIdx, err := parseIndex(vals[0], true)
		if err != nil {
			return face, errors.Wrapf(err, "token %q", parts[i])
		}
		texCoordIdx, normalIdx := -1, -1
		if len(vals) > 1 {
			if texCoordIdx, err = parseIndex(vals[1], false); err != nil {
				return face, errors.Wrapf(err, "token %q", parts[i])
			}
		}
		if len(vals) > 2 {
			if normalIdx, err = parseIndex(vals[2], false); err != nil {
				return face, errors.Wrapf(err, "token %q", parts[i])
			}
		}
		face[i] = faceVertex{VertexIdx: vertexIdx, TexCoordIdx: texCoordIdx, NormalIdx: normalIdx}
	}
	return face, nil
}

// parseIndex converts a 1-based OBJ index to 0-based. An empty optional
// component yields -1.
func parseIndex(s string, required bool) (int, error) {
	if s == "" {
		if required {
			return 0, errors.New("missing position index")
		}
		return -1, nil
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("invalid index %q", s)
	}
	if idx <= 0 {
		return 0, errors.Errorf("relative or zero index %d not supported", idx)
	}
	return idx - 1, nil
}

func parseFloats(parts []string, n int) ([]float32, error) {
	if len(parts) < n {
		return make([]float32, n), errors.Errorf("need %d components, got %d", n, len(parts))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		val, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return make([]float32, n), errors.Errorf("invalid value %q", parts[i])
		}
		out[i] = float32(val)
	}
	return out, nil
}

func parseVec3(parts []string) (mgl32.Vec3, error) {
	f, err := parseFloats(parts, 3)
	return mgl32.Vec3{f[0], f[1], f[2]}, err
}

func parseVec2(parts []string) (mgl32.Vec2, error) {
	f, err := parseFloats(parts, 2)
	return mgl32.Vec2{f[0], f[1]}, err
}
