package atlas

import (
	"fmt"
	"image"
)

// Lease is an allocated square region of the atlas.
type Lease struct {
	// Node is the quadtree node index. Pass it back to Allocator.Free.
	Node int
	// Level is the quadtree level; 0 is the whole atlas.
	Level int
	// X and Y are the top-left corner in pixels.
	X, Y int
	// Size is the side length in pixels.
	Size int
}

// Rect returns the leased pixels as a rectangle.
func (l Lease) Rect() image.Rectangle {
	return image.Rect(l.X, l.Y, l.X+l.Size, l.Y+l.Size)
}

// Overlaps reports whether the two leases share any pixel.
func (l Lease) Overlaps(o Lease) bool {
	return l.Rect().Overlaps(o.Rect())
}

// String returns a string representation of the lease.
func (l Lease) String() string {
	return fmt.Sprintf("Lease(node %d, L%d, %d,%d %dx%d)", l.Node, l.Level, l.X, l.Y, l.Size, l.Size)
}

// Region describes where an entry lives inside an Atlas.
type Region struct {
	Lease

	// Content is the part of the lease holding pixel data, inset by the
	// atlas padding.
	Content image.Rectangle

	// UV coordinates [0, 1] of Content for texture sampling.
	U0, V0, U1, V1 float32
}

// newRegion places a w x h content rectangle padding pixels inside l.
func newRegion(l Lease, w, h, padding, atlasSize int) Region {
	content := image.Rect(l.X+padding, l.Y+padding, l.X+padding+w, l.Y+padding+h)
	s := float32(atlasSize)
	return Region{
		Lease:   l,
		Content: content,
		U0:      float32(content.Min.X) / s,
		V0:      float32(content.Min.Y) / s,
		U1:      float32(content.Max.X) / s,
		V1:      float32(content.Max.Y) / s,
	}
}
