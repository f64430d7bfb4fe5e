// Package quadtree provides a fixed-depth, complete quadtree stored as one
// flat slice.
//
// Nodes are addressed by integer index. Node 0 is the root, the children of
// node i occupy [4i+1, 4i+5), and every level occupies one contiguous index
// range. Parent, child and level lookups are pure arithmetic, so no pointers
// are stored and walking the tree never allocates.
//
// The tree shape is fixed at construction. Only the per-node payload T
// changes afterwards.
//
//	t, _ := quadtree.New[uint8](4, 0) // 1 + 4 + 16 + 64 nodes
//	start, end := t.LevelRange(2)     // 5, 21
package quadtree

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxLevels is the deepest tree New accepts. A 16-level tree already holds
// about 1.4 billion nodes.
const MaxLevels = 16

var (
	// ErrInvalidArgument is returned when a tree is configured with an
	// unusable level count.
	ErrInvalidArgument = errors.New("quadtree: invalid argument")

	// ErrOutOfRange is returned when a node index is outside the tree.
	ErrOutOfRange = errors.New("quadtree: node index out of range")
)

// Tree is a complete quadtree with a payload of type T per node.
//
// Tree is not safe for concurrent mutation.
type Tree[T any] struct {
	nodes []T

	// offsets[l] is the index of the first node at level l.
	// offsets[levels] equals the node count.
	offsets []int
	levels  int
}

// New creates a tree with levelCount-minLevel levels. minLevel truncates the
// finest levels of a levelCount deep tree, which lets callers drop leaves
// they will never address.
//
// Every payload starts as the zero value of T.
func New[T any](levelCount, minLevel int) (*Tree[T], error) {
	levels := levelCount - minLevel
	if levels < 1 {
		return nil, fmt.Errorf("%w: level count %d (min level %d) leaves no levels",
			ErrInvalidArgument, levelCount, minLevel)
	}
	if levels > MaxLevels {
		return nil, fmt.Errorf("%w: %d levels exceeds maximum of %d",
			ErrInvalidArgument, levels, MaxLevels)
	}

	offsets := make([]int, levels+1)
	total := 0
	for l := 0; l < levels; l++ {
		offsets[l] = total
		total += 1 << (2 * l)
	}
	offsets[levels] = total

	return &Tree[T]{
		nodes:   make([]T, total),
		offsets: offsets,
		levels:  levels,
	}, nil
}

// Levels returns the number of levels in the tree.
func (t *Tree[T]) Levels() int { return t.levels }

// Len returns the number of nodes. It is 0 after Release.
func (t *Tree[T]) Len() int { return len(t.nodes) }

// At returns a pointer to the payload of node i.
func (t *Tree[T]) At(i int) (*T, error) {
	if i < 0 || i >= len(t.nodes) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(t.nodes))
	}
	return &t.nodes[i], nil
}

// Nodes returns the backing slice. Writes through it mutate the tree.
func (t *Tree[T]) Nodes() []T { return t.nodes }

// HasChildren reports whether node i is not a leaf.
func (t *Tree[T]) HasChildren(i int) bool {
	return ChildStart(i) < len(t.nodes)
}

// NodesAtLevel returns 4^level.
func (t *Tree[T]) NodesAtLevel(level int) int {
	return 1 << (2 * level)
}

// FirstNodeAtLevel returns the index of the first node at level.
func (t *Tree[T]) FirstNodeAtLevel(level int) int {
	return t.offsets[level]
}

// LevelRange returns the half-open index range [start, end) of level.
func (t *Tree[T]) LevelRange(level int) (start, end int) {
	return t.offsets[level], t.offsets[level+1]
}

// Clear resets every payload to its zero value.
func (t *Tree[T]) Clear() {
	clear(t.nodes)
}

// Release drops the backing storage. The tree is unusable afterwards;
// calling Release again is a no-op.
func (t *Tree[T]) Release() {
	t.nodes = nil
}

// ChildStart returns the index of the first child of node i.
func ChildStart(i int) int { return i<<2 + 1 }

// Parent returns the parent of node i. The root has no parent; Parent(0)
// returns 0.
func Parent(i int) int {
	if i <= 0 {
		return 0
	}
	return (i - 1) >> 2
}

// Level returns the level of node i: floor(log2(3i+1) / 2).
func Level(i int) int {
	return (bits.Len(uint(3*i+1)) - 1) >> 1
}

// LevelStart returns the index of the first node at level in a tree of any
// depth: (4^level - 1) / 3.
func LevelStart(level int) int {
	return ((1 << (2 * level)) - 1) / 3
}
