package atlas

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/atlas/internal/morton"
	"github.com/gogpu/atlas/quadtree"
)

// node is the per-quadtree-node allocation state.
type node struct {
	// refs counts allocated nodes strictly below this one.
	refs uint32

	allocated bool
}

// Allocator packs power-of-two square regions into a square texture.
//
// The texture is modeled as a complete quadtree: level 0 is the whole
// texture, every deeper level quarters the region size. An allocated node
// reserves its entire subtree, and each node counts the allocations beneath
// it, so a node is free exactly when it is not allocated, has no allocated
// descendants and has no allocated ancestor.
//
// Allocation scans the requested level left to right in Morton order. When
// the scan lands inside a subtree whose root is already allocated, it jumps
// past the rest of that subtree in one step instead of rejecting its nodes
// one at a time.
//
// Allocator is not safe for concurrent use. Atlas wraps one behind a mutex.
type Allocator struct {
	tree *quadtree.Tree[node]

	textureSize int
	mipCount    int
	minSize     int

	leases     int
	leasedArea int64

	searches  uint64
	lastScan  int
	totalScan uint64

	closed bool
}

// NewAllocator creates an allocator for a textureSize x textureSize atlas.
// textureSize must be a power of two.
func NewAllocator(textureSize int, opts ...AllocatorOption) (*Allocator, error) {
	o := defaultAllocatorOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !isPowerOfTwo(textureSize) {
		return nil, fmt.Errorf("%w: texture size %d is not a positive power of two", ErrInvalidArgument, textureSize)
	}
	if !isPowerOfTwo(o.minSubTextureSize) {
		return nil, fmt.Errorf("%w: min sub-texture size %d is not a positive power of two",
			ErrInvalidArgument, o.minSubTextureSize)
	}

	mipCount := log2(textureSize) + 1
	tree, err := quadtree.New[node](mipCount, log2(o.minSubTextureSize))
	if err != nil {
		return nil, fmt.Errorf("%w: texture size %d, min sub-texture size %d: %w",
			ErrInvalidArgument, textureSize, o.minSubTextureSize, err)
	}

	Logger().Debug("atlas: allocator created",
		"textureSize", textureSize,
		"minSubTextureSize", o.minSubTextureSize,
		"levels", tree.Levels(),
		"nodes", tree.Len(),
		"morton", morton.Implementation())

	return &Allocator{
		tree:        tree,
		textureSize: textureSize,
		mipCount:    mipCount,
		minSize:     o.minSubTextureSize,
	}, nil
}

// TextureSize returns the side length of the atlas in pixels.
func (a *Allocator) TextureSize() int { return a.textureSize }

// MipCount returns log2(TextureSize) + 1, the number of levels a tree
// reaching down to 1x1 regions would have.
func (a *Allocator) MipCount() int { return a.mipCount }

// Levels returns the number of levels actually present. It is smaller than
// MipCount when a minimum sub-texture size was configured.
func (a *Allocator) Levels() int { return a.tree.Levels() }

// MinSubTextureSize returns the smallest region size the allocator serves.
func (a *Allocator) MinSubTextureSize() int { return a.minSize }

// NodeCount returns the number of quadtree nodes, 0 once closed.
func (a *Allocator) NodeCount() int { return a.tree.Len() }

// SizeToLevel converts a region size to its quadtree level:
// MipCount - log2(size) - 1.
func (a *Allocator) SizeToLevel(size int) (int, error) {
	if !isPowerOfTwo(size) {
		return 0, fmt.Errorf("%w: region size %d is not a positive power of two", ErrInvalidArgument, size)
	}
	level := a.mipCount - log2(size) - 1
	if level < 0 || level >= a.tree.Levels() {
		return 0, fmt.Errorf("%w: region size %d maps to level %d, allocator has levels [0, %d)",
			ErrOutOfRange, size, level, a.tree.Levels())
	}
	return level, nil
}

// LevelToSize returns the region side length at level.
func (a *Allocator) LevelToSize(level int) int {
	return a.textureSize >> level
}

// AllocNode reserves a size x size region and returns its node index.
//
// ok is false when no free region of that size exists; this is the normal
// "atlas full" outcome, not an error. err is non-nil only when size is not
// a power of two, maps outside the allocator's levels, or the allocator is
// closed.
func (a *Allocator) AllocNode(size int) (nodeIndex int, ok bool, err error) {
	if a.closed {
		return -1, false, ErrClosed
	}
	level, err := a.SizeToLevel(size)
	if err != nil {
		return -1, false, err
	}

	nodeIndex = a.allocLevel(level)
	if nodeIndex < 0 {
		return -1, false, nil
	}
	return nodeIndex, true, nil
}

// Alloc reserves a size x size region and returns it with its pixel
// coordinates. See AllocNode for the meaning of ok and err.
func (a *Allocator) Alloc(size int) (Lease, bool, error) {
	n, ok, err := a.AllocNode(size)
	if !ok || err != nil {
		return Lease{}, ok, err
	}
	return a.lease(n), true, nil
}

// AllocRaw reserves the node at grid position (x, y) on level without
// searching. x and y are in units of that level's regions, not pixels.
//
// The caller must know the node is free. Placing a region on top of an
// existing one breaks the no-overlap invariant and panics.
func (a *Allocator) AllocRaw(x, y, level int) (int, error) {
	if a.closed {
		return -1, ErrClosed
	}
	if level < 0 || level >= a.tree.Levels() {
		return -1, fmt.Errorf("%w: level %d not in [0, %d)", ErrOutOfRange, level, a.tree.Levels())
	}
	side := 1 << level
	if x < 0 || y < 0 || x >= side || y >= side {
		return -1, fmt.Errorf("%w: (%d, %d) outside the %dx%d grid of level %d",
			ErrOutOfRange, x, y, side, side, level)
	}

	n := morton.NodeIndex(uint32(x), uint32(y), level)
	nodes := a.tree.Nodes()
	if nodes[n].allocated || nodes[n].refs > 0 || a.blockingAncestor(n) >= 0 {
		panic(fmt.Sprintf("atlas: AllocRaw(%d, %d, %d) overlaps an existing allocation at node %d", x, y, level, n))
	}
	a.mark(n)
	return n, nil
}

// Free releases the region at nodeIndex. It returns false, doing nothing,
// when the node is not currently allocated.
func (a *Allocator) Free(nodeIndex int) bool {
	nodes := a.tree.Nodes()
	if nodeIndex < 0 || nodeIndex >= len(nodes) || !nodes[nodeIndex].allocated {
		return false
	}

	nodes[nodeIndex].allocated = false
	for p := nodeIndex; p != 0; {
		p = quadtree.Parent(p)
		if nodes[p].refs == 0 {
			panic(fmt.Sprintf("atlas: ref-count underflow at node %d while freeing node %d", p, nodeIndex))
		}
		nodes[p].refs--
	}

	size := a.LevelToSize(quadtree.Level(nodeIndex))
	a.leases--
	a.leasedArea -= int64(size) * int64(size)
	return true
}

// NodeToCoords returns the pixel position of the top-left corner of
// nodeIndex and its level. It does not modify the allocator.
func (a *Allocator) NodeToCoords(nodeIndex int) (x, y, level int, err error) {
	if a.closed {
		return 0, 0, 0, ErrClosed
	}
	if nodeIndex < 0 || nodeIndex >= a.tree.Len() {
		return 0, 0, 0, fmt.Errorf("%w: node %d not in [0, %d)", ErrOutOfRange, nodeIndex, a.tree.Len())
	}
	l := a.lease(nodeIndex)
	return l.X, l.Y, l.Level, nil
}

// NodeLease describes nodeIndex as a Lease, whether or not it is allocated.
func (a *Allocator) NodeLease(nodeIndex int) (Lease, error) {
	if _, _, _, err := a.NodeToCoords(nodeIndex); err != nil {
		return Lease{}, err
	}
	return a.lease(nodeIndex), nil
}

// IsAllocated reports whether nodeIndex is itself allocated.
func (a *Allocator) IsAllocated(nodeIndex int) bool {
	nodes := a.tree.Nodes()
	return nodeIndex >= 0 && nodeIndex < len(nodes) && nodes[nodeIndex].allocated
}

// ForEachLease calls fn for every allocated region in Morton order until fn
// returns false. Subtrees without allocations are not visited.
func (a *Allocator) ForEachLease(fn func(Lease) bool) {
	nodes := a.tree.Nodes()
	if len(nodes) == 0 {
		return
	}

	stack := make([]int, 0, 4*a.tree.Levels())
	stack = append(stack, 0)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if nodes[n].allocated {
			if !fn(a.lease(n)) {
				return
			}
			continue
		}
		if nodes[n].refs == 0 || !a.tree.HasChildren(n) {
			continue
		}
		// Push in reverse so the first child is visited first.
		first := quadtree.ChildStart(n)
		for c := first + 3; c >= first; c-- {
			stack = append(stack, c)
		}
	}
}

// Reset releases every region at once.
func (a *Allocator) Reset() {
	a.tree.Clear()
	a.leases = 0
	a.leasedArea = 0
}

// Close releases the node storage. Further allocations fail with
// ErrClosed. Calling Close more than once is a no-op.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	a.tree.Release()
	a.closed = true
	a.leases = 0
	a.leasedArea = 0
	Logger().Debug("atlas: allocator closed", "textureSize", a.textureSize)
	return nil
}

// AllocatorStats is a snapshot of allocator usage.
type AllocatorStats struct {
	// Leases is the number of live regions.
	Leases int
	// LeasedArea is the number of pixels covered by live regions.
	LeasedArea int64
	// Utilization is LeasedArea divided by the texture area (0.0 to 1.0).
	Utilization float64
	// Searches counts AllocNode/Alloc calls that reached the scan.
	Searches uint64
	// LastScanSteps is the number of nodes the last search examined.
	LastScanSteps int
	// TotalScanSteps sums the nodes examined by all searches.
	TotalScanSteps uint64
}

// Stats returns usage counters.
func (a *Allocator) Stats() AllocatorStats {
	total := float64(a.textureSize) * float64(a.textureSize)
	return AllocatorStats{
		Leases:         a.leases,
		LeasedArea:     a.leasedArea,
		Utilization:    float64(a.leasedArea) / total,
		Searches:       a.searches,
		LastScanSteps:  a.lastScan,
		TotalScanSteps: a.totalScan,
	}
}

// allocLevel finds, marks and returns the first free node on level, or -1.
func (a *Allocator) allocLevel(level int) int {
	nodes := a.tree.Nodes()

	if level == 0 {
		a.recordScan(1)
		if nodes[0].allocated || nodes[0].refs > 0 {
			return -1
		}
		a.mark(0)
		return 0
	}

	start, end := a.tree.LevelRange(level)
	steps := 0
	for i := start; i < end; {
		steps++
		n := &nodes[i]
		if n.allocated || n.refs > 0 {
			i++
			continue
		}
		if skip := a.skipCount(i, start, level); skip > 0 {
			i += skip
			continue
		}

		a.recordScan(steps)
		a.mark(i)
		return i
	}

	a.recordScan(steps)
	return -1
}

// skipCount returns how many slots of level, starting at nodeIndex, lie
// under the nearest allocated ancestor of nodeIndex. It returns 0 when no
// ancestor is allocated.
//
// An ancestor d levels up covers a run of 4^d consecutive slots at the scan
// level, aligned to a multiple of 4^d from the level start. nodeIndex sits
// (local mod 4^d) slots into that run, so the remainder of the run is
// 4^d - (local mod 4^d) slots long.
func (a *Allocator) skipCount(nodeIndex, levelStart, level int) int {
	d := a.blockingDistance(nodeIndex, level)
	if d == 0 {
		return 0
	}
	span := 1 << (2 * d)
	local := nodeIndex - levelStart
	return span - local&(span-1)
}

// blockingDistance returns how many levels above nodeIndex its nearest
// allocated ancestor sits, or 0 if there is none.
func (a *Allocator) blockingDistance(nodeIndex, level int) int {
	nodes := a.tree.Nodes()
	p := nodeIndex
	for d := 1; d <= level; d++ {
		p = quadtree.Parent(p)
		if nodes[p].allocated {
			return d
		}
	}
	return 0
}

// blockingAncestor returns the nearest allocated ancestor of nodeIndex, or -1.
func (a *Allocator) blockingAncestor(nodeIndex int) int {
	d := a.blockingDistance(nodeIndex, quadtree.Level(nodeIndex))
	if d == 0 {
		return -1
	}
	p := nodeIndex
	for ; d > 0; d-- {
		p = quadtree.Parent(p)
	}
	return p
}

// mark allocates nodeIndex and counts it in every ancestor.
func (a *Allocator) mark(nodeIndex int) {
	nodes := a.tree.Nodes()
	nodes[nodeIndex].allocated = true
	for p := nodeIndex; p != 0; {
		p = quadtree.Parent(p)
		nodes[p].refs++
	}

	size := a.LevelToSize(quadtree.Level(nodeIndex))
	a.leases++
	a.leasedArea += int64(size) * int64(size)
}

func (a *Allocator) recordScan(steps int) {
	a.searches++
	a.lastScan = steps
	a.totalScan += uint64(steps)
}

// lease builds the Lease for a valid node index.
func (a *Allocator) lease(nodeIndex int) Lease {
	x, y, level := morton.NodeCoords(nodeIndex)
	size := a.LevelToSize(level)
	return Lease{
		Node:  nodeIndex,
		Level: level,
		X:     int(x) * size,
		Y:     int(y) * size,
		Size:  size,
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n int) int {
	return bits.Len(uint(n)) - 1
}

// nextPowerOfTwo returns the smallest power of two >= n, for n >= 1.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
