package atlas

import (
	"testing"

	"github.com/gogpu/atlas/quadtree"
)

// isAncestor reports whether anc lies on the path from n to the root,
// n itself excluded.
func isAncestor(anc, n int) bool {
	if n <= anc {
		return false
	}
	for n > anc {
		n = quadtree.Parent(n)
	}
	return n == anc
}

// TestSkipCount_MatchesBruteForce places a single region on every node of a
// small tree in turn and compares the jump computed for every deeper node
// with a slot-by-slot count of the run covered by that region.
func TestSkipCount_MatchesBruteForce(t *testing.T) {
	const size = 32
	a := mustAllocator(t, size)

	for blocker := 0; blocker < a.NodeCount(); blocker++ {
		a.Reset()
		a.mark(blocker)
		blockerLevel := quadtree.Level(blocker)

		for level := blockerLevel + 1; level < a.Levels(); level++ {
			start, end := a.tree.LevelRange(level)
			for i := start; i < end; i++ {
				want := 0
				for j := i; j < end && isAncestor(blocker, j); j++ {
					want++
				}
				if got := a.skipCount(i, start, level); got != want {
					t.Fatalf("blocker %d, node %d (level %d): skipCount = %d, want %d",
						blocker, i, level, got, want)
				}
			}
		}
	}
}

// TestSkipCount_NearestAncestorWins checks that nested blockers jump by the
// closest allocated ancestor.
func TestSkipCount_NearestAncestorWins(t *testing.T) {
	a := mustAllocator(t, 16)

	// Node 5 is the first level-2 child of node 1. Both allocated cannot
	// happen through the public API, but the scan must still honour the
	// nearest one.
	a.mark(1)
	a.tree.Nodes()[5].allocated = true

	start, _ := a.tree.LevelRange(3)
	if got := a.skipCount(start, start, 3); got != 4 {
		t.Errorf("skipCount under nested blockers = %d, want 4", got)
	}
	if got := a.skipCount(start+4, start, 3); got != 12 {
		t.Errorf("skipCount beside nested blocker = %d, want 12", got)
	}
}

func TestSkipCount_NoBlocker(t *testing.T) {
	a := mustAllocator(t, 16)
	if _, ok, _ := a.AllocNode(2); !ok {
		t.Fatal("AllocNode(2) failed")
	}

	// Only the allocated node itself and its subtree block; siblings and
	// their descendants never jump.
	for level := 1; level < a.Levels(); level++ {
		start, end := a.tree.LevelRange(level)
		for i := start; i < end; i++ {
			if isAncestor(a.firstAllocated(), i) {
				continue
			}
			if got := a.skipCount(i, start, level); got != 0 {
				t.Fatalf("node %d: skipCount = %d with no allocated ancestor", i, got)
			}
		}
	}
}

func (a *Allocator) firstAllocated() int {
	for i, n := range a.tree.Nodes() {
		if n.allocated {
			return i
		}
	}
	return -1
}
