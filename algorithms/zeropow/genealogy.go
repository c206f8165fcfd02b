package zeropow

import "sort"

// walkAncestors recursively expands a CollisionPair's Left/Right
// references down to raw seed indices, appending them to out. This is
// the sparse genealogy representation used for reporting: a reported
// solution's raw index set is rebuilt by a single O(2^K) walk over the
// CollisionPair slices, performed once for each final-round pair whose
// last window is zero. The dense per-row ancestor sets that runStage
// carries forward for the disjointness check cover only the latest
// stage and are not used here.
func walkAncestors(arena *Arena, pair CollisionPair, out []uint32) []uint32 {
	if pair.Stage == 0 {
		return append(out, pair.Left, pair.Right)
	}
	left := arena.collisions[pair.Stage-1][pair.Left]
	right := arena.collisions[pair.Stage-1][pair.Right]
	out = walkAncestors(arena, left, out)
	out = walkAncestors(arena, right, out)
	return out
}

// uniqueSorted sorts raw in place and reports whether it contained no
// duplicates. A final solution is only valid if all 2^K raw indices it
// names are distinct; the disjointness check at every stage should
// already guarantee this, so a duplicate surfacing here means a defect
// in the collision engine, not a legitimately rejectable solution.
func uniqueSorted(raw []uint32) ([]uint32, bool) {
	sort.Slice(raw, func(i, j int) bool { return raw[i] < raw[j] })
	for i := 1; i < len(raw); i++ {
		if raw[i] == raw[i-1] {
			return raw, false
		}
	}
	return raw, true
}
