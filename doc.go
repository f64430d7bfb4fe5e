// Package atlas packs square power-of-two regions into a shared square
// texture at runtime.
//
// # Overview
//
// The package is built around Allocator, a buddy-style allocator over an
// implicit quadtree. Level 0 is the whole texture, every deeper level splits
// each region into four quadrants, and node indices follow Morton (Z-order)
// within a level, so converting a node to pixel coordinates is a bit
// de-interleave.
//
//	a, _ := atlas.NewAllocator(1024)
//	lease, ok, err := a.Alloc(64) // 64x64 region
//	if err != nil { ... }         // size not a power of two, or too large
//	if !ok { ... }                // atlas has no free 64x64 region
//	// upload pixels to lease.X, lease.Y ...
//	a.Free(lease.Node)
//
// Allocator is single-threaded. Atlas wraps one behind a mutex, adds keyed
// entries, an RGBA surface drawn with golang.org/x/image/draw, and dirty
// region tracking for GPU uploads.
//
//	at, _ := atlas.NewAtlas[string](atlas.DefaultConfig())
//	region, err := at.Put("icon.png", img)
//	// sample with region.U0, region.V0, region.U1, region.V1
//	err = at.Flush(texture) // gpucontext.TextureRegionUpdater
//
// # Errors
//
// Running out of space is not an error for Allocator: Alloc reports it with
// ok == false. Invalid sizes and indices return ErrInvalidArgument or
// ErrOutOfRange. Broken internal invariants, such as freeing with a
// corrupted ref-count, panic.
//
// # Logging
//
// The package is silent unless SetLogger is called.
package atlas

// Version is the current version of the library.
const Version = "0.1.0"
