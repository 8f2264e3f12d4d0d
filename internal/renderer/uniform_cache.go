package renderer

// UniformCache caches uniform locations so each name is looked up once per
// program.
type UniformCache struct {
	dev       Device
	locations map[string]int32
	program   Handle
}

func NewUniformCache(dev Device, program Handle) *UniformCache {
	return &UniformCache{
		dev:       dev,
		locations: make(map[string]int32),
		program:   program,
	}
}

// GetLocation returns the cached location, fetching it on first use. Unknown
// names are cached as -1 too.
func (uc *UniformCache) GetLocation(name string) int32 {
	if loc, exists := uc.locations[name]; exists {
		return loc
	}
	loc := uc.dev.UniformLocation(uc.program, name)
	uc.locations[name] = loc
	return loc
}

// Clear empties the cache (call when the program is relinked or deleted).
func (uc *UniformCache) Clear() {
	uc.locations = make(map[string]int32)
}
