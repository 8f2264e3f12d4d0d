package engine

import (
	"portalroom/internal/config"
	"portalroom/internal/logger"
	"portalroom/internal/mesh"
	"portalroom/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Model slots. Slot 1 is the interior and the first window; slot 2 is
// seen through the second window set.
const (
	slotInterior = 1
	slotWindows  = 2
)

const (
	floorExtent = 50
	floorTiles  = 25
)

// World owns every GPU resource of the portal room scene.
type World struct {
	Scene    *renderer.Scene
	Pipeline *renderer.Pipeline
	Textures *renderer.TextureManager
	Shapes   *renderer.GeometryRegistry
	Models   map[string]*renderer.Model

	shader  *renderer.Shader
	release Unwind
}

// NewWorld builds the scene described by cfg on dev. Missing or corrupt
// assets are logged and leave their pass empty; only failures that make
// rendering impossible (shader, fallback texture, shape upload) are
// returned.
func NewWorld(dev renderer.Device, cfg *config.Config, decoder renderer.ImageDecoder) (*World, error) {
	w := &World{Models: make(map[string]*renderer.Model)}
	ok := false
	defer func() {
		if !ok {
			w.Release()
		}
	}()

	sh, err := renderer.NewPlanetsShader(dev)
	if err != nil {
		return nil, err
	}
	w.shader = sh
	w.release.Add(sh.Release)

	w.Textures = renderer.NewTextureManager(dev, decoder)
	w.release.Add(func() {
		w.Textures.LogStats()
		w.Textures.Clear()
	})
	white, err := w.Textures.White()
	if err != nil {
		return nil, err
	}

	w.Shapes = renderer.NewGeometryRegistry(dev)
	w.release.Add(w.Shapes.Release)
	opts := renderer.ShapeOptions{}
	if cfg.Assets.FloorTexture != "" {
		opts.FloorExtent, opts.FloorTiles = floorExtent, floorTiles
	}
	if pc := cfg.Assets.PointCloud; pc.Enabled {
		opts.Points, opts.PointRadius, opts.PointSeed = pc.Points, pc.Radius, pc.Seed
	}
	if err := renderer.RegisterShapes(w.Shapes, opts); err != nil {
		return nil, errors.Wrap(err, "uploading scene shapes")
	}

	tex := func(path string, role renderer.TextureRole) renderer.Texture {
		return w.Textures.Load(cfg.AssetPath(path), mesh.Diffuse, role)
	}
	wall := tex(cfg.Assets.WallTexture, renderer.RoleTiling)
	window := tex(cfg.Assets.WindowTexture, renderer.RoleCutout)

	room := renderer.Spin(cfg.Render.RoomScale, cfg.Render.RoomSpin)
	shape := func(name string) renderer.Drawable {
		g, _ := w.Shapes.Get(name)
		return g
	}

	scene := &renderer.Scene{
		ClearColor: mgl32.Vec3(cfg.Render.ClearColor),
		Interior:   renderer.Pass{Name: "interior", Drawable: shape(renderer.ShapeRoom), Diffuse: white, Transform: room},
		Windows: []renderer.Pass{
			{Name: "window.right", Drawable: shape(renderer.ShapeWindowRight), Diffuse: window, Transform: room},
			{Name: "window.others", Drawable: shape(renderer.ShapeWindowOthers), Diffuse: window, Transform: room},
		},
		Exterior: []renderer.Pass{
			{Name: "walls", Drawable: shape(renderer.ShapeRoom), Diffuse: wall, Transform: room},
		},
	}
	if opts.FloorExtent > 0 {
		below := cfg.Render.RoomScale / 2
		scene.Exterior = append(scene.Exterior, renderer.Pass{
			Name:      "floor",
			Drawable:  shape(renderer.ShapeFloor),
			Diffuse:   tex(cfg.Assets.FloorTexture, renderer.RoleTiling),
			Transform: func(float32) mgl32.Mat4 { return mgl32.Translate3D(0, -below, 0) },
		})
	}

	models := []struct {
		name      string
		asset     config.ModelAsset
		slot      int
		transform renderer.Transform
	}{
		{"sun", cfg.Assets.Sun, slotInterior, renderer.Static(0.2)},
		{"planet", cfg.Assets.Planet, slotInterior, renderer.Orbit(3, mgl32.DegToRad(90), 2.5, 5.5)},
		{"backpack", cfg.Assets.Backpack, slotWindows, renderer.Static(1.2)},
	}
	for _, m := range models {
		model := w.loadModel(dev, cfg, m.asset)
		w.Models[m.name] = model
		scene.Models = append(scene.Models, renderer.ModelPass{
			Pass: renderer.Pass{Name: m.name, Drawable: model, Transform: m.transform},
			Slot: m.slot,
		})
	}
	if opts.Points > 0 {
		scene.Models = append(scene.Models, renderer.ModelPass{
			Pass: renderer.Pass{Name: "pointcloud", Drawable: shape(renderer.ShapePointCloud), Diffuse: white, Transform: renderer.Spin(1, 0.3)},
			Slot: slotWindows,
		})
	}

	if err := scene.Validate(); err != nil {
		return nil, err
	}
	w.Scene = scene
	w.Pipeline = renderer.NewPipeline(dev, sh, renderer.LightingFromConfig(cfg.Lighting), cfg.Render.Shininess)
	renderer.LogPlan(scene)

	ok = true
	return w, nil
}

func (w *World) loadModel(dev renderer.Device, cfg *config.Config, asset config.ModelAsset) *renderer.Model {
	path := cfg.AssetPath(asset.Path)
	model, err := renderer.LoadModel(dev, w.Textures, path)
	w.release.Add(model.Release)
	if err != nil {
		logger.Log.Warn("Model unavailable, its pass draws nothing",
			zap.String("path", path),
			zap.Error(err))
	}
	if asset.Texture != "" {
		if err := model.SetDiffuseTexture(cfg.AssetPath(asset.Texture)); err != nil {
			logger.Log.Warn("Model texture unavailable",
				zap.String("model", path),
				zap.Error(err))
		}
	}
	return model
}

// Render draws one frame of the world's scene.
func (w *World) Render(f renderer.Frame) {
	w.Pipeline.Render(w.Scene, f)
}

// Release frees models, shapes, textures and the shader, newest first.
func (w *World) Release() {
	w.release.Unwind()
}
