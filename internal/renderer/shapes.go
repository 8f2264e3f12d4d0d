package renderer

import (
	"github.com/aquilax/go-perlin"
	"github.com/chewxy/math32"
)

// Names of the static shapes registered by RegisterShapes.
const (
	ShapeRoom         = "room"
	ShapeWindowRight  = "window.right"
	ShapeWindowOthers = "window.others"
	ShapeFloor        = "floor"
	ShapePointCloud   = "pointcloud"
)

// RoomCube is a unit cube centred on the origin, position|normal|uv per
// vertex, with outward normals and CCW front faces.
var RoomCube = []float32{
	// back face (z = -0.5)
	-0.5, -0.5, -0.5, 0, 0, -1, 0, 0,
	0.5, 0.5, -0.5, 0, 0, -1, 1, 1,
	0.5, -0.5, -0.5, 0, 0, -1, 1, 0,
	0.5, 0.5, -0.5, 0, 0, -1, 1, 1,
	-0.5, -0.5, -0.5, 0, 0, -1, 0, 0,
	-0.5, 0.5, -0.5, 0, 0, -1, 0, 1,

	// front face (z = 0.5)
	-0.5, -0.5, 0.5, 0, 0, 1, 0, 0,
	0.5, -0.5, 0.5, 0, 0, 1, 1, 0,
	0.5, 0.5, 0.5, 0, 0, 1, 1, 1,
	0.5, 0.5, 0.5, 0, 0, 1, 1, 1,
	-0.5, 0.5, 0.5, 0, 0, 1, 0, 1,
	-0.5, -0.5, 0.5, 0, 0, 1, 0, 0,

	// left face (x = -0.5)
	-0.5, 0.5, 0.5, -1, 0, 0, 1, 0,
	-0.5, 0.5, -0.5, -1, 0, 0, 1, 1,
	-0.5, -0.5, -0.5, -1, 0, 0, 0, 1,
	-0.5, -0.5, -0.5, -1, 0, 0, 0, 1,
	-0.5, -0.5, 0.5, -1, 0, 0, 0, 0,
	-0.5, 0.5, 0.5, -1, 0, 0, 1, 0,

	// right face (x = 0.5)
	0.5, 0.5, 0.5, 1, 0, 0, 1, 0,
	0.5, -0.5, -0.5, 1, 0, 0, 0, 1,
	0.5, 0.5, -0.5, 1, 0, 0, 1, 1,
	0.5, -0.5, -0.5, 1, 0, 0, 0, 1,
	0.5, 0.5, 0.5, 1, 0, 0, 1, 0,
	0.5, -0.5, 0.5, 1, 0, 0, 0, 0,

	// bottom face (y = -0.5)
	-0.5, -0.5, -0.5, 0, -1, 0, 0, 1,
	0.5, -0.5, -0.5, 0, -1, 0, 1, 1,
	0.5, -0.5, 0.5, 0, -1, 0, 1, 0,
	0.5, -0.5, 0.5, 0, -1, 0, 1, 0,
	-0.5, -0.5, 0.5, 0, -1, 0, 0, 0,
	-0.5, -0.5, -0.5, 0, -1, 0, 0, 1,

	// top face (y = 0.5)
	-0.5, 0.5, -0.5, 0, 1, 0, 0, 1,
	0.5, 0.5, 0.5, 0, 1, 0, 1, 0,
	0.5, 0.5, -0.5, 0, 1, 0, 1, 1,
	0.5, 0.5, 0.5, 0, 1, 0, 1, 0,
	-0.5, 0.5, -0.5, 0, 1, 0, 0, 1,
	-0.5, 0.5, 0.5, 0, 1, 0, 0, 0,
}

// WindowRight is the cutout in the room's +X wall.
var WindowRight = []float32{
	0.5, 0.3, -0.3, 1, 0, 0, 0.625, 0.5,
	0.5, -0.3, 0.3, 1, 0, 0, 0.375, 0.75,
	0.5, -0.3, -0.3, 1, 0, 0, 0.375, 0.5,
	0.5, 0.3, -0.3, 1, 0, 0, 0.625, 0.5,
	0.5, 0.3, 0.3, 1, 0, 0, 0.625, 0.75,
	0.5, -0.3, 0.3, 1, 0, 0, 0.375, 0.75,
}

// WindowOthers holds the cutouts in the +Z, -X and -Z walls.
var WindowOthers = []float32{
	// front (z = 0.5)
	0.3, 0.3, 0.5, 0, 0, 1, 0.625, 0.75,
	-0.3, -0.3, 0.5, 0, 0, 1, 0.375, 1,
	0.3, -0.3, 0.5, 0, 0, 1, 0.375, 0.75,
	0.3, 0.3, 0.5, 0, 0, 1, 0.625, 0.75,
	-0.3, 0.3, 0.5, 0, 0, 1, 0.625, 1,
	-0.3, -0.3, 0.5, 0, 0, 1, 0.375, 1,

	// left (x = -0.5)
	-0.5, 0.3, 0.3, -1, 0, 0, 0.625, 0.5,
	-0.5, -0.3, -0.3, -1, 0, 0, 0.375, 0.75,
	-0.5, -0.3, 0.3, -1, 0, 0, 0.375, 0.5,
	-0.5, 0.3, 0.3, -1, 0, 0, 0.625, 0.5,
	-0.5, 0.3, -0.3, -1, 0, 0, 0.625, 0.75,
	-0.5, -0.3, -0.3, -1, 0, 0, 0.375, 0.75,

	// back (z = -0.5)
	0.3, 0.3, -0.5, 0, 0, -1, 0.625, 0.75,
	-0.3, -0.3, -0.5, 0, 0, -1, 0.375, 1,
	-0.3, 0.3, -0.5, 0, 0, -1, 0.375, 0.75,
	0.3, 0.3, -0.5, 0, 0, -1, 0.625, 0.75,
	0.3, -0.3, -0.5, 0, 0, -1, 0.625, 1,
	-0.3, -0.3, -0.5, 0, 0, -1, 0.375, 1,
}

// Floor returns a square ground plane of half-size extent at y=0 whose
// texture coordinates tile tiles times across it.
func Floor(extent, tiles float32) []float32 {
	e, t := extent, tiles
	return []float32{
		-e, 0, -e, 0, 1, 0, 0, t,
		-e, 0, e, 0, 1, 0, 0, 0,
		e, 0, e, 0, 1, 0, t, 0,
		e, 0, e, 0, 1, 0, t, 0,
		e, 0, -e, 0, 1, 0, t, t,
		-e, 0, -e, 0, 1, 0, 0, t,
	}
}

// PointCloud returns n points on a noise-displaced sphere of the given base
// radius. Points are spread with a Fibonacci lattice; the same seed always
// yields the same cloud.
func PointCloud(n int, radius float32, seed int64) []float32 {
	if n <= 0 {
		return nil
	}
	noise := perlin.NewPerlin(2, 2, 3, seed)
	golden := math32.Pi * (3 - math32.Sqrt(5))

	out := make([]float32, 0, n*8)
	for i := 0; i < n; i++ {
		y := 1 - 2*(float32(i)+0.5)/float32(n)
		ring := math32.Sqrt(1 - y*y)
		theta := golden * float32(i)
		x, z := ring*math32.Cos(theta), ring*math32.Sin(theta)

		bump := float32(noise.Noise3D(float64(x)*1.5, float64(y)*1.5, float64(z)*1.5))
		r := radius * (1 + 0.35*bump)

		u := 0.5 + math32.Atan2(z, x)/(2*math32.Pi)
		v := 0.5 + math32.Asin(y)/math32.Pi
		out = append(out, x*r, y*r, z*r, x, y, z, u, v)
	}
	return out
}

// ShapeOptions controls the optional shapes of RegisterShapes.
type ShapeOptions struct {
	FloorExtent float32
	FloorTiles  float32
	Points      int // 0 skips the point cloud
	PointRadius float32
	PointSeed   int64
}

// RegisterShapes uploads the room, both window sets, the floor and, when
// requested, the point cloud.
func RegisterShapes(r *GeometryRegistry, opts ShapeOptions) error {
	type shape struct {
		name     string
		vertices []float32
		mode     Primitive
	}
	shapes := []shape{
		{ShapeRoom, RoomCube, Triangles},
		{ShapeWindowRight, WindowRight, Triangles},
		{ShapeWindowOthers, WindowOthers, Triangles},
	}
	if opts.FloorExtent > 0 {
		shapes = append(shapes, shape{ShapeFloor, Floor(opts.FloorExtent, opts.FloorTiles), Triangles})
	}
	if opts.Points > 0 {
		shapes = append(shapes, shape{ShapePointCloud, PointCloud(opts.Points, opts.PointRadius, opts.PointSeed), Points})
	}

	for _, s := range shapes {
		if _, err := r.Register(s.name, s.vertices, s.mode); err != nil {
			return err
		}
	}
	return nil
}
