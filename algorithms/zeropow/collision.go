package zeropow

import "sort"

// CollisionPair is a single accepted row at some stage of the pipeline.
// Left and Right are sparse parent references: at Stage 0 they are raw
// seed indices in [0, M); at Stage >= 1 they are row indices into the
// previous stage's CollisionPair slice, the same slice a stage's
// output row lands at position-for-position, so no separate row->pair
// lookup table is needed (see genealogy.go).
type CollisionPair struct {
	Left, Right uint32
	XORResult   [digestSize]byte
	Stage       int
}

// DebugAssertions gates a leading-zero-bits assertion on every accepted
// pair, worth paying for in debug builds and tests but not in
// production once the bucketing logic is trusted. It is a runtime
// switch rather than a build tag so tests can flip it without a
// separate build.
var DebugAssertions = false

// collisionBitsBytes returns W/8, the byte width of one stage's bucket
// key. W=24 (a multiple of 8) for N=192,K=7; the smaller test
// parameterizations this package also supports keep that same
// byte-aligned property.
func (p Params) collisionBitsBytes() int { return p.collisionBits() / 8 }

// extractKey reads the W-bit big-endian bucket key for stage s out of a
// 32-byte value, at byte offset s*(W/8).
func extractKey(value []byte, stage, keyBytes int) uint32 {
	start := stage * keyBytes
	var key uint32
	for _, b := range value[start : start+keyBytes] {
		key = key<<8 | uint32(b)
	}
	return key
}

func xor32(a, b []byte) (out [digestSize]byte) {
	for i := 0; i < digestSize; i++ {
		out[i] = a[i] ^ b[i]
	}
	return
}

// leadingZeroBits reports how many leading bits of v are zero, capped
// at limit (the algorithmically significant prefix; the trailing 64
// bits of a 256-bit digest go unused by the collision algorithm).
func leadingZeroBits(v []byte, limit int) int {
	count := 0
	for _, b := range v {
		if count >= limit {
			break
		}
		if b == 0 {
			count += 8
			continue
		}
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) != 0 {
				return count
			}
			count++
		}
	}
	if count > limit {
		return limit
	}
	return count
}

// pairCancelInterval is how many pair comparisons pass between
// cancellation polls during a bucket scan.
const pairCancelInterval = 4096

// stageResult carries a completed stage's output rows forward: how many
// were produced (also arena.stageCount[outBuf] / len(arena.collisions[stage]))
// and each row's ancestor set, indexed identically to
// arena.collisions[stage], so the next stage's disjointness check runs
// in O(|ancestors|) instead of re-walking genealogy from scratch.
type stageResult struct {
	ancestors [][]uint32
	cancelled bool
}

// runStage groups the stage's input rows into 24-bit-window buckets,
// enumerates every unordered same-bucket pair, and accepts those whose
// merged ancestor sets stay disjoint. Accepted pairs are appended to
// arena.collisions[stage] and, unless this is the final stage, their
// XOR result is written into arena.stageBuffers[outBuf] at the same row
// index, the 1:1 row/pair correspondence genealogy.go relies on.
//
// Buckets are visited in sorted key order rather than map iteration
// order: Go randomizes the latter per run, and within-bucket pair order
// is already fixed by input scan order, so sorting keys is what makes
// two Solve calls on the same (header, nonce) report solutions in the
// same order, not just the same set.
func runStage(arena *Arena, stage int, input []byte, count int, prevAncestors [][]uint32, outBuf int, cancel func() bool, isFinal bool) stageResult {
	keyBytes := arena.params.collisionBitsBytes()
	for k := range arena.buckets {
		delete(arena.buckets, k)
	}
	for i := 0; i < count; i++ {
		row := input[i*digestSize : (i+1)*digestSize]
		key := extractKey(row, stage, keyBytes)
		arena.buckets[key] = append(arena.buckets[key], uint32(i))
	}

	keys := make([]uint32, 0, len(arena.buckets))
	for k := range arena.buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	ancestorsOut := make([][]uint32, 0, count/2)
	comparisons := 0
	for _, key := range keys {
		bucket := arena.buckets[key]
		if len(bucket) < 2 {
			continue
		}
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				comparisons++
				if comparisons%pairCancelInterval == 0 && cancel() {
					return stageResult{cancelled: true}
				}

				a, b := bucket[i], bucket[j]
				var ancestorsA, ancestorsB []uint32
				if stage == 0 {
					ancestorsA = []uint32{a}
					ancestorsB = []uint32{b}
				} else {
					ancestorsA = prevAncestors[a]
					ancestorsB = prevAncestors[b]
				}
				merged, ok := disjointUnion(ancestorsA, ancestorsB)
				if !ok {
					continue // ancestor sets must stay disjoint
				}

				rowA := input[int(a)*digestSize : int(a)*digestSize+digestSize]
				rowB := input[int(b)*digestSize : int(b)*digestSize+digestSize]
				result := xor32(rowA, rowB)
				if DebugAssertions {
					needed := (stage + 1) * arena.params.collisionBits()
					if got := leadingZeroBits(result[:], needed); got < needed {
						panic("zeropow: collision pair failed leading-zero assertion")
					}
				}

				pair := CollisionPair{Left: a, Right: b, XORResult: result, Stage: stage}
				row := len(arena.collisions[stage])
				arena.collisions[stage] = append(arena.collisions[stage], pair)
				ancestorsOut = append(ancestorsOut, merged)
				if !isFinal {
					arena.setStageRow(outBuf, row, result)
				}
			}
		}
	}
	if !isFinal {
		arena.stageCount[outBuf] = len(arena.collisions[stage])
	}
	return stageResult{ancestors: ancestorsOut}
}

// disjointUnion returns the sorted union of a and b, and false if they
// share any element: a genealogy's raw indices must all be pairwise
// distinct. Inputs are already sorted (every set this package builds is
// built through this same function), so the check and merge both run
// in a single linear merge pass.
func disjointUnion(a, b []uint32) ([]uint32, bool) {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			return nil, false
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out, true
}
