// Package zeropow implements the generalized-birthday proof-of-work
// solver for Equihash-192,7 ("ZERO_PoW"): a deterministic Blake2b hash
// generator feeding an eight-stage layered XOR-collision engine, backed
// by a single cache-sized memory arena.
//
// The package is single-threaded and synchronous per solve: one Solve
// call runs the full pipeline to completion on the calling goroutine.
// Concurrency across nonces belongs to the caller (see package harness),
// one Arena per worker.
package zeropow

import "fmt"

const (
	// N is the total number of significant bits carried by a digest,
	// for the package's namesake parameterization.
	N = 192
	// K is the number of pairwise merge rounds the collision engine
	// runs, and log2 of the reported solution's index count.
	K = 7
	// Stages is the number of distinct W-bit windows the digest space
	// is carved into: K of them drive a merge round each, and the
	// (K+1)th is checked as a final exact-zero filter with no merge.
	Stages = K + 1
	// CollisionBits is the per-window width, W = N/(K+1).
	CollisionBits = N / Stages

	// IndexBits is the width of a seed index for N=192, K=7. Earlier
	// descriptions of this algorithm disagree with themselves on the seed
	// count (2^24 in one place, roughly 800,000 generated in another);
	// 21-bit indices is the value actually documented for the produced
	// solutions, and is a tractable seed count for this collision width.
	// Do not silently change it.
	IndexBits = 21
	// InitialHashCount is M = 2^21, the number of seed digests generated
	// per solve of the namesake parameterization.
	InitialHashCount = 1 << IndexBits

	// SolutionSize is the number of distinct raw indices in a reported
	// solution, 2^K.
	SolutionSize = 1 << K

	// digestSize is the raw Blake2b output length in bytes; 256 bits.
	digestSize = 32

	// personalizationTag is the fixed 8-byte ASCII prefix of the Blake2b
	// personalization field.
	personalizationTag = "ZERO_PoW"
)

// Params carries the tunables a caller supplies to NewSolver. Only
// N/K/IndexBits are algorithmically load-bearing; they are fields
// (rather than hardcoded) so tests can exercise a smaller
// parameterization against a published test vector without duplicating
// the package.
type Params struct {
	// N and K default to 192 and 7, the package's namesake parameters.
	N int
	K int
	// IndexBits is the seed-index width; the number of initial hashes
	// generated is 2^IndexBits. Defaults to 21 when N==192 && K==7;
	// callers targeting a different (N, K) must supply it explicitly,
	// since the relation between (N, K) and seed count is only settled
	// for the 192,7 case.
	IndexBits int
}

// resolved defaults zero fields to the package's Equihash-192,7
// parameterization and validates the result.
func (p Params) resolved() (Params, error) {
	if p.N == 0 && p.K == 0 {
		p.N, p.K = N, K
	}
	if p.N == N && p.K == K && p.IndexBits == 0 {
		p.IndexBits = IndexBits
	}
	if p.K <= 0 || p.N <= 0 {
		return Params{}, fmt.Errorf("zeropow: invalid parameters N=%d K=%d", p.N, p.K)
	}
	if p.N%(p.K+1) != 0 {
		return Params{}, fmt.Errorf("zeropow: N=%d is not evenly divisible by K+1=%d", p.N, p.K+1)
	}
	if w := p.N / (p.K + 1); w%8 != 0 {
		return Params{}, fmt.Errorf("zeropow: collision width W=%d (N=%d, K=%d) is not byte-aligned", w, p.N, p.K)
	}
	if p.IndexBits == 0 {
		return Params{}, fmt.Errorf("zeropow: IndexBits must be supplied for non-default N=%d K=%d", p.N, p.K)
	}
	return p, nil
}

func (p Params) collisionBits() int    { return p.N / (p.K + 1) }
func (p Params) stages() int           { return p.K + 1 }
func (p Params) solutionSize() int     { return 1 << uint(p.K) }
func (p Params) initialHashCount() int { return 1 << uint(p.IndexBits) }

// Stages reports K+1, the number of W-bit windows a Solve call checks
// for these parameters: K windows drive a merge round each, and the
// final window is checked as an exact-zero filter on the K-round output.
func (p Params) Stages() int { return p.stages() }

// SolutionSize reports 2^K, the number of raw indices a complete
// solution contains under these parameters.
func (p Params) SolutionSize() int { return p.solutionSize() }

// InitialHashCount reports the number of seed digests a Solve call
// generates before collision-finding begins, once N/K/IndexBits are
// resolved to concrete values.
func (p Params) InitialHashCount() int { return p.initialHashCount() }
