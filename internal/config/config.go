// Package config holds the scene, window and asset settings of the demo.
package config

import (
	"github.com/pkg/errors"
)

// Config holds every tunable of the application. Default returns the values
// the program ships with; a YAML file may override any subset of them.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Camera   CameraConfig   `yaml:"camera"`
	Render   RenderConfig   `yaml:"render"`
	Lighting LightingConfig `yaml:"lighting"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds window and context settings.
type WindowConfig struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Title       string `yaml:"title"`
	StencilBits int    `yaml:"stencil_bits"`
	VSync       bool   `yaml:"vsync"`
}

// CameraConfig holds the initial camera state.
type CameraConfig struct {
	Position    [3]float32 `yaml:"position"`
	Zoom        float32    `yaml:"zoom"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Speed       float32    `yaml:"speed"`
	Sensitivity float32    `yaml:"sensitivity"`
}

// RenderConfig holds per-frame constants of the portal pipeline.
type RenderConfig struct {
	ClearColor [3]float32 `yaml:"clear_color"`
	Shininess  float32    `yaml:"shininess"`
	RoomScale  float32    `yaml:"room_scale"`
	RoomSpin   float32    `yaml:"room_spin"`
}

// DirLightConfig is the single directional light.
type DirLightConfig struct {
	Direction [3]float32 `yaml:"direction"`
	Ambient   [3]float32 `yaml:"ambient"`
	Diffuse   [3]float32 `yaml:"diffuse"`
	Specular  [3]float32 `yaml:"specular"`
}

// PointLightConfig is the single point light. Ambient is Color scaled by
// AmbientFactor; diffuse and specular are Color.
type PointLightConfig struct {
	Position      [3]float32 `yaml:"position"`
	Color         [3]float32 `yaml:"color"`
	AmbientFactor float32    `yaml:"ambient_factor"`
	Constant      float32    `yaml:"constant"`
	Linear        float32    `yaml:"linear"`
	Quadratic     float32    `yaml:"quadratic"`
}

// LightingConfig holds the fixed lighting model.
type LightingConfig struct {
	Directional DirLightConfig   `yaml:"directional"`
	Point       PointLightConfig `yaml:"point"`
}

// ModelAsset names a model file and the diffuse texture forced onto it.
// An empty Texture keeps whatever the importer resolved.
type ModelAsset struct {
	Path    string `yaml:"path"`
	Texture string `yaml:"texture"`
}

// PointCloudConfig controls the generated point-cloud blob.
type PointCloudConfig struct {
	Enabled bool    `yaml:"enabled"`
	Points  int     `yaml:"points"`
	Radius  float32 `yaml:"radius"`
	Seed    int64   `yaml:"seed"`
}

// AssetsConfig lists every file the scene loads. Relative paths resolve
// against Dir.
type AssetsConfig struct {
	Dir           string           `yaml:"dir"`
	WallTexture   string           `yaml:"wall_texture"`
	WindowTexture string           `yaml:"window_texture"`
	FloorTexture  string           `yaml:"floor_texture"`
	Sun           ModelAsset       `yaml:"sun"`
	Planet        ModelAsset       `yaml:"planet"`
	Backpack      ModelAsset       `yaml:"backpack"`
	PointCloud    PointCloudConfig `yaml:"point_cloud"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:       800,
			Height:      600,
			Title:       "Portal Room",
			StencilBits: 8,
			VSync:       true,
		},
		Camera: CameraConfig{
			Position:    [3]float32{15, 5, 13},
			Zoom:        45,
			Near:        0.1,
			Far:         100,
			Speed:       2.5,
			Sensitivity: 0.1,
		},
		Render: RenderConfig{
			ClearColor: [3]float32{0.07, 0.13, 0.17},
			Shininess:  3,
			RoomScale:  10,
			RoomSpin:   0.05,
		},
		Lighting: LightingConfig{
			Directional: DirLightConfig{
				Direction: [3]float32{-0.2, -1.0, -0.3},
				Ambient:   [3]float32{0.3, 0.24, 0.14},
				Diffuse:   [3]float32{0.7, 0.42, 0.26},
				Specular:  [3]float32{0.5, 0.5, 0.5},
			},
			Point: PointLightConfig{
				Position:      [3]float32{8, 0, 0},
				Color:         [3]float32{0.75, 0, 1},
				AmbientFactor: 0.1,
				Constant:      1,
				Linear:        0.09,
				Quadratic:     0.032,
			},
		},
		Assets: AssetsConfig{
			Dir:           "assets",
			WallTexture:   "wall.jpg",
			WindowTexture: "purple.jpeg",
			FloorTexture:  "floor.jpg",
			Sun:           ModelAsset{Path: "objects/sun/scene.gltf", Texture: "objects/sun/sun.jpg"},
			Planet:        ModelAsset{Path: "objects/mercury/Mercury 1K.obj", Texture: "objects/mercury/mercury.jpg"},
			Backpack:      ModelAsset{Path: "objects/backpack/backpack.obj", Texture: "objects/backpack/diffuse.jpg"},
			PointCloud:    PointCloudConfig{Enabled: true, Points: 20000, Radius: 0.6, Seed: 7},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings the application cannot start with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.StencilBits < 8 {
		return errors.Errorf("stencil buffer needs at least 8 bits, got %d", c.Window.StencilBits)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return errors.Errorf("invalid clip planes near=%v far=%v", c.Camera.Near, c.Camera.Far)
	}
	required := map[string]string{
		"assets.wall_texture":   c.Assets.WallTexture,
		"assets.window_texture": c.Assets.WindowTexture,
		"assets.sun.path":       c.Assets.Sun.Path,
		"assets.planet.path":    c.Assets.Planet.Path,
		"assets.backpack.path":  c.Assets.Backpack.Path,
	}
	for key, value := range required {
		if value == "" {
			return errors.Errorf("%s must not be empty", key)
		}
	}
	return nil
}
