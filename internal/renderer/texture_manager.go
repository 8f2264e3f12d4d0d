package renderer

import (
	"sync"

	"portalroom/internal/logger"
	"portalroom/internal/mesh"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TextureRole selects the sampler policy of a texture.
type TextureRole int

const (
	// RoleTiling textures repeat outside [0,1].
	RoleTiling TextureRole = iota
	// RoleCutout textures are window cutouts and clamp at their edges.
	RoleCutout
)

func (r TextureRole) String() string {
	if r == RoleCutout {
		return "cutout"
	}
	return "tiling"
}

// ParamsFor returns the upload and sampler settings for a role: trilinear
// filtering with mipmaps, unpack alignment 1, and REPEAT or CLAMP_TO_EDGE.
func ParamsFor(role TextureRole) TextureParams {
	wrap := WrapRepeat
	if role == RoleCutout {
		wrap = WrapClampToEdge
	}
	return TextureParams{
		WrapS:           wrap,
		WrapT:           wrap,
		MinFilter:       FilterLinearMipmapLinear,
		MagFilter:       FilterLinear,
		Mipmaps:         true,
		UnpackAlignment: 1,
	}
}

// Texture is a GPU texture bound to a mesh under a semantic kind.
type Texture struct {
	Handle Handle
	Kind   mesh.TextureKind
	Path   string
	Role   TextureRole
}

// TextureStats provides debugging and profiling information
type TextureStats struct {
	TotalTextures  int
	CacheHits      int
	CacheMisses    int
	DecodeFailures int
	ActiveTextures int
}

type textureKey struct {
	path string
	role TextureRole
}

const whiteTextureName = "<white>"

// TextureManager loads textures once per (path, role) and reference counts
// the handles it hands out.
type TextureManager struct {
	dev             Device
	decoder         ImageDecoder
	textureCache    map[textureKey]Handle // (path, role) -> texture
	textureRefCount map[Handle]int        // texture -> reference count
	textureKeys     map[Handle]textureKey // texture -> (path, role), for debugging
	white           Handle
	mu              sync.RWMutex
	stats           TextureStats
}

// NewTextureManager creates a texture manager. A nil decoder reads files
// from disk.
func NewTextureManager(dev Device, decoder ImageDecoder) *TextureManager {
	if decoder == nil {
		decoder = FileDecoder{}
	}
	return &TextureManager{
		dev:             dev,
		decoder:         decoder,
		textureCache:    make(map[textureKey]Handle),
		textureRefCount: make(map[Handle]int),
		textureKeys:     make(map[Handle]textureKey),
	}
}

// LoadTexture returns the cached texture for (path, role) or decodes and
// uploads it. Each call adds a reference. On failure the handle is 0, which
// is safe to bind.
func (tm *TextureManager) LoadTexture(path string, role TextureRole) (Handle, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	key := textureKey{path, role}
	if id, exists := tm.textureCache[key]; exists {
		tm.textureRefCount[id]++
		tm.stats.CacheHits++

		logger.Log.Debug("Texture cache hit",
			zap.String("path", path),
			zap.Stringer("role", role),
			zap.Uint32("textureID", uint32(id)),
			zap.Int("refCount", tm.textureRefCount[id]))
		return id, nil
	}

	tm.stats.CacheMisses++
	img, err := tm.decoder.Decode(path)
	if err != nil {
		tm.stats.DecodeFailures++
		logger.Log.Error("Texture failed to load",
			zap.String("path", path),
			zap.Error(err))
		return 0, err
	}

	id, err := tm.dev.CreateTexture(img.Image, ParamsFor(role))
	if err != nil {
		logger.Log.Error("Texture upload failed",
			zap.String("path", path),
			zap.Error(err))
		return 0, errors.Wrapf(err, "uploading %s", path)
	}
	tm.track(key, id)

	logger.Log.Info("Texture loaded and cached",
		zap.String("path", path),
		zap.Stringer("role", role),
		zap.Uint32("textureID", uint32(id)),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("channels", img.Channels))
	return id, nil
}

// Load is LoadTexture returning a Texture tagged with kind. Failures are
// already logged; the Texture then carries handle 0.
func (tm *TextureManager) Load(path string, kind mesh.TextureKind, role TextureRole) Texture {
	id, _ := tm.LoadTexture(path, role)
	return Texture{Handle: id, Kind: kind, Path: path, Role: role}
}

func (tm *TextureManager) track(key textureKey, id Handle) {
	tm.textureCache[key] = id
	tm.textureRefCount[id] = 1
	tm.textureKeys[id] = key
	tm.stats.TotalTextures++
}

// White returns the shared 1x1 opaque white texture, creating it on first
// use. It is for surfaces whose shader still samples a diffuse map.
func (tm *TextureManager) White() (Texture, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.white == 0 {
		img := Image{Width: 1, Height: 1, Pix: []byte{255, 255, 255, 255}}
		id, err := tm.dev.CreateTexture(img, ParamsFor(RoleTiling))
		if err != nil {
			return Texture{}, errors.Wrap(err, "creating white texture")
		}
		tm.track(textureKey{whiteTextureName, RoleTiling}, id)
		tm.white = id
		logger.Log.Debug("White texture created", zap.Uint32("textureID", uint32(id)))
	}
	return Texture{Handle: tm.white, Kind: mesh.Diffuse, Path: whiteTextureName}, nil
}

// AddReference increments the reference count for a texture
func (tm *TextureManager) AddReference(id Handle) {
	if id == 0 {
		return
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, ok := tm.textureRefCount[id]; ok {
		tm.textureRefCount[id]++
	}
}

// ReleaseTexture drops one reference and deletes the texture at zero.
func (tm *TextureManager) ReleaseTexture(id Handle) {
	if id == 0 {
		return
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()

	refCount, exists := tm.textureRefCount[id]
	if !exists {
		logger.Log.Warn("Attempted to release unknown texture",
			zap.Uint32("textureID", uint32(id)))
		return
	}

	refCount--
	tm.textureRefCount[id] = refCount
	if refCount > 0 {
		return
	}

	tm.dev.DeleteTexture(id)
	key := tm.textureKeys[id]
	delete(tm.textureCache, key)
	delete(tm.textureRefCount, id)
	delete(tm.textureKeys, id)
	if id == tm.white {
		tm.white = 0
	}

	logger.Log.Debug("Texture freed",
		zap.Uint32("textureID", uint32(id)),
		zap.String("path", key.path))
}

// GetStats returns current texture manager statistics
func (tm *TextureManager) GetStats() TextureStats {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	stats := tm.stats
	stats.ActiveTextures = len(tm.textureRefCount)
	return stats
}

// LogStats logs current texture statistics
func (tm *TextureManager) LogStats() {
	stats := tm.GetStats()
	hitRate := 0.0
	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		hitRate = float64(stats.CacheHits) / float64(lookups)
	}
	logger.Log.Info("Texture Manager Stats",
		zap.Int("totalTextures", stats.TotalTextures),
		zap.Int("activeTextures", stats.ActiveTextures),
		zap.Int("cacheHits", stats.CacheHits),
		zap.Int("cacheMisses", stats.CacheMisses),
		zap.Int("decodeFailures", stats.DecodeFailures),
		zap.Float64("hitRate", hitRate))
}

// Clear deletes every texture regardless of reference counts.
func (tm *TextureManager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for id := range tm.textureRefCount {
		tm.dev.DeleteTexture(id)
	}
	tm.textureCache = make(map[textureKey]Handle)
	tm.textureRefCount = make(map[Handle]int)
	tm.textureKeys = make(map[Handle]textureKey)
	tm.white = 0

	logger.Log.Info("Texture manager cleared")
}
