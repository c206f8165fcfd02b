package zeropow

import (
	"fmt"
	"unsafe"
)

// maxIndexBits bounds how large an Arena NewArena will attempt to
// allocate: 2^30 rows of 32 bytes is already 32 GiB for a single
// region. Go's make() panics rather than returning an error on real
// allocation failure, so this pre-check is what actually makes
// ErrArenaAllocation reachable for absurd inputs instead of crashing
// the process.
const maxIndexBits = 30

// alignment is the byte boundary every raw hash region is aligned to,
// wide enough for unaligned-free vector loads across the SIMD widths a
// future backend might use. The core itself only ever does scalar XOR
// here (SIMD dispatch is treated as an external, swappable collaborator),
// but the layout is prepared for it regardless, exactly as the
// teacher's C kernel buffers were laid out for OpenCL vector loads even
// though gominer's Go side never issued them itself.
const alignment = 64

// Arena is the single owned, double-buffered memory region backing one
// Solver. It is allocated once (at NewArena / Start) and reused across
// every Solve call the Solver performs: zero-initialized on allocation,
// retained across solves, released only when the Solver stops.
//
// This generalizes the teacher's MemObject buffers
// (algorithms/zcash/miner.go's bufferHt/bufferRowCounters/bufferSolutions,
// themselves backed by mining.CreateEmptyBuffer) from GPU-resident
// cl.MemObject allocations to plain aligned Go byte slices: same
// double-buffered, preallocated-once shape, different substrate.
type Arena struct {
	params Params
	rows   int // Q: upper bound on per-stage surviving rows

	initialHashes []byte // 64-byte aligned, len = M*digestSize
	initialCount  int

	stageBuffers [2][]byte // 64-byte aligned, len = rows*digestSize each
	stageCount   [2]int

	collisions [][]CollisionPair // one growable slice per merge round, index 0..K-1
	buckets    map[uint32][]uint32
}

// newAligned returns a slice of the requested size whose first byte
// sits on an `alignment`-byte boundary, by over-allocating and slicing.
// This is the portable Go equivalent of the teacher's
// AlignedAllocator::allocate (original_source/solver1927/memory_pool.hpp)
// which called posix_memalign directly; Go has no such call, so the
// standard idiom is to over-allocate and trim.
func newAligned(size int) []byte {
	if size == 0 {
		size = 1
	}
	buf := make([]byte, size+alignment-1)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	pad := (alignment - int(addr%alignment)) % alignment
	return buf[pad : pad+size : pad+size]
}

// NewArena allocates every region a solve needs, sized from params. The
// per-stage row bound (Q) is set to the initial hash count: one seed
// digest can appear in at most one surviving pair per stage, so no
// stage can ever produce more rows than the previous stage had inputs.
func NewArena(params Params) (*Arena, error) {
	p, err := params.resolved()
	if err != nil {
		return nil, err
	}
	if p.IndexBits > maxIndexBits {
		return nil, wrapArena(fmt.Sprintf("index bits %d exceeds sane allocation bound %d", p.IndexBits, maxIndexBits))
	}
	m := p.initialHashCount()

	a := &Arena{
		params:        p,
		rows:          m,
		initialHashes: newAligned(m * digestSize),
		buckets:       make(map[uint32][]uint32, 1<<16),
		collisions:    make([][]CollisionPair, p.K),
	}
	a.stageBuffers[0] = newAligned(m * digestSize)
	a.stageBuffers[1] = newAligned(m * digestSize)
	return a, nil
}

// reset clears per-solve bookkeeping without releasing or reallocating
// any backing byte region, so consecutive solves on the same Arena
// never grow the hash and stage buffers. The per-stage CollisionPair
// slices and bucket lists are not fixed-size: they grow by append
// during a solve, and each stage also allocates its ancestor sets.
func (a *Arena) reset() {
	a.initialCount = 0
	a.stageCount[0] = 0
	a.stageCount[1] = 0
	for i := range a.collisions {
		a.collisions[i] = a.collisions[i][:0]
	}
	for k := range a.buckets {
		delete(a.buckets, k)
	}
}

func (a *Arena) hashAt(i int) []byte {
	return a.initialHashes[i*digestSize : (i+1)*digestSize]
}

func (a *Arena) setHash(i int, digest [digestSize]byte) {
	copy(a.hashAt(i), digest[:])
}

func (a *Arena) stageRow(buf, row int) []byte {
	return a.stageBuffers[buf][row*digestSize : (row+1)*digestSize]
}

func (a *Arena) setStageRow(buf, row int, value [digestSize]byte) {
	copy(a.stageRow(buf, row), value[:])
}
