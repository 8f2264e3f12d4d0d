package renderer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// wrapAngle keeps long-running animation angles in [0, 2π) so float32
// precision does not degrade over time.
func wrapAngle(a float32) float32 {
	a = math32.Mod(a, 2*math32.Pi)
	if a < 0 {
		a += 2 * math32.Pi
	}
	return a
}

// Static scales uniformly and never moves.
func Static(scale float32) Transform {
	m := mgl32.Scale3D(scale, scale, scale)
	return func(float32) mgl32.Mat4 { return m }
}

// Spin scales uniformly and turns about Y at rate radians per second.
func Spin(scale, rate float32) Transform {
	s := mgl32.Scale3D(scale, scale, scale)
	return func(t float32) mgl32.Mat4 {
		return s.Mul4(mgl32.HomogRotate3DY(wrapAngle(t * rate)))
	}
}

// Orbit is a body of the given scale circling the origin at distance
// radius. It orbits at orbitRate and turns about its own axis at spinRate,
// both in radians per second.
func Orbit(scale, orbitRate, radius, spinRate float32) Transform {
	s := mgl32.Scale3D(scale, scale, scale)
	offset := mgl32.Translate3D(radius, 0, 0)
	return func(t float32) mgl32.Mat4 {
		return s.Mul4(mgl32.HomogRotate3DY(wrapAngle(t * orbitRate))).
			Mul4(offset).
			Mul4(mgl32.HomogRotate3DY(wrapAngle(t * spinRate)))
	}
}
