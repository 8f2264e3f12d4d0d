package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Shader is a linked program plus its uniform location cache. Setters are
// no-ops for uniforms the program does not use.
type Shader struct {
	dev      Device
	program  Handle
	uniforms *UniformCache
}

// NewShader compiles and links a program from GLSL sources.
func NewShader(dev Device, vertexSrc, fragmentSrc string) (*Shader, error) {
	program, err := dev.CreateProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, errors.Wrap(err, "building shader program")
	}
	return &Shader{
		dev:      dev,
		program:  program,
		uniforms: NewUniformCache(dev, program),
	}, nil
}

// NewPlanetsShader builds the lit, textured program used by every pass.
func NewPlanetsShader(dev Device) (*Shader, error) {
	return NewShader(dev, planetsVertexShader, planetsFragmentShader)
}

func (s *Shader) Program() Handle { return s.program }

func (s *Shader) Use() {
	s.dev.UseProgram(s.program)
}

func (s *Shader) SetMat4(name string, m mgl32.Mat4) {
	if loc := s.uniforms.GetLocation(name); loc != -1 {
		s.dev.UniformMat4(loc, m)
	}
}

func (s *Shader) SetVec3(name string, v mgl32.Vec3) {
	if loc := s.uniforms.GetLocation(name); loc != -1 {
		s.dev.UniformVec3(loc, v)
	}
}

func (s *Shader) SetFloat(name string, v float32) {
	if loc := s.uniforms.GetLocation(name); loc != -1 {
		s.dev.UniformFloat(loc, v)
	}
}

func (s *Shader) SetInt(name string, v int32) {
	if loc := s.uniforms.GetLocation(name); loc != -1 {
		s.dev.UniformInt(loc, v)
	}
}

// Release deletes the program. The shader must not be used afterwards.
func (s *Shader) Release() {
	if s.program == 0 {
		return
	}
	s.dev.DeleteProgram(s.program)
	s.program = 0
	s.uniforms.Clear()
}

const planetsVertexShader = `#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoords;

out vec3 FragPos;
out vec3 Normal;
out vec2 TexCoords;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

void main()
{
    FragPos = vec3(model * vec4(aPos, 1.0));
    Normal = mat3(transpose(inverse(model))) * aNormal;
    TexCoords = aTexCoords;
    gl_PointSize = 2.0;
    gl_Position = projection * view * vec4(FragPos, 1.0);
}
`

const planetsFragmentShader = `#version 330 core
out vec4 FragColor;

struct Material {
    sampler2D diffuse;
    sampler2D specular;
    float shininess;
};

struct DirLight {
    vec3 direction;
    vec3 ambient;
    vec3 diffuse;
    vec3 specular;
};

struct PointLight {
    vec3 position;
    float constant;
    float linear;
    float quadratic;
    vec3 ambient;
    vec3 diffuse;
    vec3 specular;
};

#define NR_POINT_LIGHTS 1

in vec3 FragPos;
in vec3 Normal;
in vec2 TexCoords;

uniform vec3 viewPos;
uniform DirLight dirLight;
uniform PointLight pointLights[NR_POINT_LIGHTS];
uniform Material material;

vec3 CalcDirLight(DirLight light, vec3 normal, vec3 viewDir, vec3 albedo, vec3 spec)
{
    vec3 lightDir = normalize(-light.direction);
    float diff = max(dot(normal, lightDir), 0.0);
    vec3 reflectDir = reflect(-lightDir, normal);
    float s = pow(max(dot(viewDir, reflectDir), 0.0), material.shininess);
    return light.ambient * albedo + light.diffuse * diff * albedo + light.specular * s * spec;
}

vec3 CalcPointLight(PointLight light, vec3 normal, vec3 fragPos, vec3 viewDir, vec3 albedo, vec3 spec)
{
    vec3 lightDir = normalize(light.position - fragPos);
    float diff = max(dot(normal, lightDir), 0.0);
    vec3 reflectDir = reflect(-lightDir, normal);
    float s = pow(max(dot(viewDir, reflectDir), 0.0), material.shininess);
    float distance = length(light.position - fragPos);
    float attenuation = 1.0 / (light.constant + light.linear * distance + light.quadratic * (distance * distance));
    return (light.ambient * albedo + light.diffuse * diff * albedo + light.specular * s * spec) * attenuation;
}

void main()
{
    vec3 norm = normalize(Normal);
    vec3 viewDir = normalize(viewPos - FragPos);
    vec3 albedo = vec3(texture(material.diffuse, TexCoords));
    vec3 spec = vec3(texture(material.specular, TexCoords));

    vec3 result = CalcDirLight(dirLight, norm, viewDir, albedo, spec);
    for (int i = 0; i < NR_POINT_LIGHTS; i++)
        result += CalcPointLight(pointLights[i], norm, FragPos, viewDir, albedo, spec);

    FragColor = vec4(result, 1.0);
}
`
