package renderer

import (
	"portalroom/internal/config"

	"github.com/go-gl/mathgl/mgl32"
)

// DirLight is the scene's single directional light.
type DirLight struct {
	Direction mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
}

// PointLight is an attenuated point light.
type PointLight struct {
	Position  mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Constant  float32
	Linear    float32
	Quadratic float32
}

// NewPointLight derives the light terms from one color: ambient is color
// scaled by ambientFactor, diffuse and specular are the color itself.
func NewPointLight(position, color mgl32.Vec3, ambientFactor, constant, linear, quadratic float32) PointLight {
	return PointLight{
		Position:  position,
		Ambient:   color.Mul(ambientFactor),
		Diffuse:   color,
		Specular:  color,
		Constant:  constant,
		Linear:    linear,
		Quadratic: quadratic,
	}
}

// Lighting is the fixed lighting model: one directional and one point light.
type Lighting struct {
	Dir   DirLight
	Point PointLight
}

// Apply uploads the lights to the dirLight and pointLights[0] uniforms of
// the bound shader.
func (l Lighting) Apply(sh *Shader) {
	sh.SetVec3("dirLight.direction", l.Dir.Direction)
	sh.SetVec3("dirLight.ambient", l.Dir.Ambient)
	sh.SetVec3("dirLight.diffuse", l.Dir.Diffuse)
	sh.SetVec3("dirLight.specular", l.Dir.Specular)

	sh.SetVec3("pointLights[0].position", l.Point.Position)
	sh.SetVec3("pointLights[0].ambient", l.Point.Ambient)
	sh.SetVec3("pointLights[0].diffuse", l.Point.Diffuse)
	sh.SetVec3("pointLights[0].specular", l.Point.Specular)
	sh.SetFloat("pointLights[0].constant", l.Point.Constant)
	sh.SetFloat("pointLights[0].linear", l.Point.Linear)
	sh.SetFloat("pointLights[0].quadratic", l.Point.Quadratic)
}

// LightingFromConfig builds the lights from their configured constants.
func LightingFromConfig(c config.LightingConfig) Lighting {
	d, p := c.Directional, c.Point
	return Lighting{
		Dir: DirLight{
			Direction: mgl32.Vec3(d.Direction),
			Ambient:   mgl32.Vec3(d.Ambient),
			Diffuse:   mgl32.Vec3(d.Diffuse),
			Specular:  mgl32.Vec3(d.Specular),
		},
		Point: NewPointLight(mgl32.Vec3(p.Position), mgl32.Vec3(p.Color),
			p.AmbientFactor, p.Constant, p.Linear, p.Quadratic),
	}
}
