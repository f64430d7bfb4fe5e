// Package morton converts between 2D grid coordinates and Z-order (Morton)
// keys, and between keys and flat quadtree node indices.
//
// The x coordinate occupies the odd bits of a key and y the even bits, so
// the four children of a quadtree node are ordered (0,0), (0,1), (1,0),
// (1,1) in (x, y) terms and every subtree maps to one contiguous key range.
//
// Two implementations exist: a BMI2 path (PDEP/PEXT) selected at startup on
// amd64 CPUs that support it, and a portable path built on a per-byte lookup
// table and bit compaction. Both produce identical keys.
package morton

import "math/bits"

const (
	// xMask selects the bits holding x.
	xMask uint64 = 0xAAAAAAAAAAAAAAAA
	// yMask selects the bits holding y.
	yMask uint64 = 0x5555555555555555
)

var (
	encodeImpl = encodeLUT
	decodeImpl = decodeCompact
	implName   = "lut"
)

// Encode interleaves x and y into a Morton key.
func Encode(x, y uint32) uint64 { return encodeImpl(x, y) }

// Decode splits a Morton key back into x and y.
func Decode(key uint64) (x, y uint32) { return decodeImpl(key) }

// Implementation names the active code path: "bmi2" or "lut".
func Implementation() string { return implName }

// LevelStart returns the flat index of the first node at level:
// 1 + 4 + ... + 4^(level-1) = (4^level - 1) / 3.
func LevelStart(level int) int {
	return ((1 << (2 * level)) - 1) / 3
}

// NodeLevel returns the level of a flat node index.
func NodeLevel(node int) int {
	return (bits.Len(uint(3*node+1)) - 1) >> 1
}

// NodeIndex returns the flat index of the node at grid position (x, y) on
// level. x and y are in units of that level's cells, not pixels.
func NodeIndex(x, y uint32, level int) int {
	return LevelStart(level) + int(Encode(x, y))
}

// NodeCoords is the inverse of NodeIndex.
func NodeCoords(node int) (x, y uint32, level int) {
	level = NodeLevel(node)
	x, y = Decode(uint64(node - LevelStart(level)))
	return x, y, level
}
