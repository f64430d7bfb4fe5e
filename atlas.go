package atlas

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
)

// Atlas is a keyed texture atlas backed by an Allocator and a CPU-side RGBA
// surface.
//
// Entries are leased by key, drawn into the surface, and tracked as dirty
// until they are handed to the GPU through Uploads or Flush.
//
// Atlas is safe for concurrent use. All access to the underlying Allocator
// is serialized by one mutex.
type Atlas[K comparable] struct {
	mu sync.Mutex

	config  Config
	alloc   *Allocator
	surface *image.RGBA

	entries map[K]Region
	owners  map[int]K
	dirty   map[int]struct{}
	closed  bool

	// Statistics (atomic for lock-free reads)
	hits   atomic.Uint64
	misses atomic.Uint64
	full   atomic.Uint64
}

// NewAtlas creates an atlas for the given configuration.
func NewAtlas[K comparable](config Config, opts ...AtlasOption) (*Atlas[K], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var o atlasOptions
	for _, opt := range opts {
		opt(&o)
	}

	surface := o.surface
	if surface == nil {
		surface = image.NewRGBA(image.Rect(0, 0, config.Size, config.Size))
	} else if surface.Rect != image.Rect(0, 0, config.Size, config.Size) {
		return nil, fmt.Errorf("%w: surface bounds %v, want %dx%d at origin",
			ErrInvalidArgument, surface.Rect, config.Size, config.Size)
	}

	alloc, err := NewAllocator(config.Size, WithMinSubTextureSize(config.MinRegionSize))
	if err != nil {
		return nil, err
	}

	return &Atlas[K]{
		config:  config,
		alloc:   alloc,
		surface: surface,
		entries: make(map[K]Region),
		owners:  make(map[int]K),
		dirty:   make(map[int]struct{}),
	}, nil
}

// NewAtlasDefault creates an atlas with DefaultConfig.
func NewAtlasDefault[K comparable]() *Atlas[K] {
	a, _ := NewAtlas[K](DefaultConfig())
	return a
}

// Config returns the atlas configuration.
func (a *Atlas[K]) Config() Config { return a.config }

// Acquire returns the region of key, leasing one with room for w x h pixels
// of content if key is new.
//
// If key already holds a region of a different lease size, a new region is
// leased and the old one released; on failure the old region is kept.
// ErrAtlasFull is returned when no free region is large enough.
func (a *Atlas[K]) Acquire(key K, w, h int) (Region, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acquireLocked(key, w, h)
}

// Put stores img under key and copies its pixels into the atlas.
// The region is sized to fit img plus padding.
func (a *Atlas[K]) Put(key K, img image.Image) (Region, error) {
	if img == nil {
		return Region{}, ErrNilImage
	}
	b := img.Bounds()

	a.mu.Lock()
	defer a.mu.Unlock()

	region, err := a.acquireLocked(key, b.Dx(), b.Dy())
	if err != nil {
		return Region{}, err
	}
	a.clearLocked(region.Lease)
	xdraw.Copy(a.surface, region.Content.Min, img, b, xdraw.Src, nil)
	a.dirty[region.Node] = struct{}{}
	return region, nil
}

// PutScaled stores img under key, resampled to w x h with Catmull-Rom.
func (a *Atlas[K]) PutScaled(key K, img image.Image, w, h int) (Region, error) {
	if img == nil {
		return Region{}, ErrNilImage
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	region, err := a.acquireLocked(key, w, h)
	if err != nil {
		return Region{}, err
	}
	a.clearLocked(region.Lease)
	xdraw.CatmullRom.Scale(a.surface, region.Content, img, img.Bounds(), xdraw.Src, nil)
	a.dirty[region.Node] = struct{}{}
	return region, nil
}

// Lookup returns the region of key without leasing anything.
func (a *Atlas[K]) Lookup(key K) (Region, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.entries[key]
	return r, ok
}

// Release frees the region of key. It returns false if key has no region.
// The pixels are left in place and overwritten by the next lease.
func (a *Atlas[K]) Release(key K) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.entries[key]
	if !ok {
		return false
	}
	a.dropLocked(key, r)
	Logger().Debug("atlas: released", "node", r.Node, "size", r.Size)
	return true
}

// Len returns the number of entries.
func (a *Atlas[K]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Keys returns the keys of all entries in no particular order.
func (a *Atlas[K]) Keys() []K {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]K, 0, len(a.entries))
	for k := range a.entries {
		keys = append(keys, k)
	}
	return keys
}

// KeyAt returns the key leasing node, if any.
func (a *Atlas[K]) KeyAt(node int) (K, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	k, ok := a.owners[node]
	return k, ok
}

// Image returns the atlas surface. Callers must not write to it while
// other goroutines use the atlas.
func (a *Atlas[K]) Image() *image.RGBA {
	return a.surface
}

// Reset releases all entries and clears the surface.
func (a *Atlas[K]) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.alloc.Reset()
	clear(a.entries)
	clear(a.owners)
	clear(a.dirty)
	clear(a.surface.Pix)
	a.hits.Store(0)
	a.misses.Store(0)
	a.full.Store(0)
}

// Close releases the allocator. The surface stays readable. Calling Close
// more than once is a no-op.
func (a *Atlas[K]) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	clear(a.entries)
	clear(a.owners)
	clear(a.dirty)
	return a.alloc.Close()
}

// AtlasStats is a snapshot of atlas usage.
type AtlasStats struct {
	Entries   int
	Dirty     int
	Hits      uint64
	Misses    uint64
	Full      uint64
	Allocator AllocatorStats
}

// Stats returns usage counters.
func (a *Atlas[K]) Stats() AtlasStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return AtlasStats{
		Entries:   len(a.entries),
		Dirty:     len(a.dirty),
		Hits:      a.hits.Load(),
		Misses:    a.misses.Load(),
		Full:      a.full.Load(),
		Allocator: a.alloc.Stats(),
	}
}

// leaseSize returns the lease side needed for w x h content.
func (a *Atlas[K]) leaseSize(w, h int) int {
	side := max(w, h) + 2*a.config.Padding
	return nextPowerOfTwo(max(side, a.config.MinRegionSize))
}

// acquireLocked must be called with a.mu held.
func (a *Atlas[K]) acquireLocked(key K, w, h int) (Region, error) {
	if a.closed {
		return Region{}, ErrClosed
	}
	if w <= 0 || h <= 0 {
		return Region{}, fmt.Errorf("%w: content size %dx%d", ErrInvalidArgument, w, h)
	}

	size := a.leaseSize(w, h)
	if size > a.config.Size {
		return Region{}, fmt.Errorf("%w: %dx%d content needs a %d region in a %d atlas",
			ErrOutOfRange, w, h, size, a.config.Size)
	}

	old, exists := a.entries[key]
	if exists && old.Size == size {
		a.hits.Add(1)
		region := newRegion(old.Lease, w, h, a.config.Padding, a.config.Size)
		a.entries[key] = region
		return region, nil
	}
	a.misses.Add(1)

	lease, ok, err := a.alloc.Alloc(size)
	if err != nil {
		return Region{}, err
	}
	if !ok {
		a.full.Add(1)
		Logger().Warn("atlas: full", "size", size, "entries", len(a.entries))
		return Region{}, fmt.Errorf("%w: %dx%d", ErrAtlasFull, size, size)
	}

	if exists {
		a.dropLocked(key, old)
	}

	region := newRegion(lease, w, h, a.config.Padding, a.config.Size)
	a.entries[key] = region
	a.owners[lease.Node] = key
	Logger().Debug("atlas: leased", "node", lease.Node, "x", lease.X, "y", lease.Y, "size", size)
	return region, nil
}

// dropLocked frees r and forgets key. Must be called with a.mu held.
func (a *Atlas[K]) dropLocked(key K, r Region) {
	a.alloc.Free(r.Node)
	delete(a.entries, key)
	delete(a.owners, r.Node)
	delete(a.dirty, r.Node)
}

// clearLocked zeroes the pixels of l. Must be called with a.mu held.
func (a *Atlas[K]) clearLocked(l Lease) {
	xdraw.Draw(a.surface, l.Rect(), image.Transparent, image.Point{}, xdraw.Src)
}
