package atlas

import "image"

// AllocatorOption configures an Allocator during creation.
//
// Example:
//
//	// 4096x4096 atlas that never hands out regions smaller than 16x16
//	a, err := atlas.NewAllocator(4096, atlas.WithMinSubTextureSize(16))
type AllocatorOption func(*allocatorOptions)

type allocatorOptions struct {
	minSubTextureSize int
}

func defaultAllocatorOptions() allocatorOptions {
	return allocatorOptions{minSubTextureSize: 1}
}

// WithMinSubTextureSize sets the smallest region the allocator can hand out.
// The quadtree levels below it are never created, which shrinks the node
// array by a factor of about 4 per dropped level.
func WithMinSubTextureSize(size int) AllocatorOption {
	return func(o *allocatorOptions) {
		o.minSubTextureSize = size
	}
}

// AtlasOption configures an Atlas during creation.
type AtlasOption func(*atlasOptions)

type atlasOptions struct {
	surface *image.RGBA
}

// WithSurface makes the atlas draw into img instead of allocating its own
// surface. img must be exactly Size x Size with its origin at (0, 0).
func WithSurface(img *image.RGBA) AtlasOption {
	return func(o *atlasOptions) {
		o.surface = img
	}
}
