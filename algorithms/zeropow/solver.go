package zeropow

import "context"

// Solver runs one Equihash pipeline, owning exactly one Arena. It is
// not safe for concurrent use: a caller that wants parallelism runs one
// Solver per goroutine, each with its own Arena (see package harness).
type Solver struct {
	params     Params
	capability Capability
	arena      *Arena
	started    bool
}

// NewSolver validates params and returns an unstarted Solver running at
// CapabilityScalar. Start must be called before Solve to allocate its
// Arena.
func NewSolver(params Params) (*Solver, error) {
	p, err := params.resolved()
	if err != nil {
		return nil, err
	}
	return &Solver{params: p, capability: CapabilityScalar}, nil
}

// Capability reports the XOR/compare kernel variant this Solver runs.
func (s *Solver) Capability() Capability { return s.capability }

// SetCapability records which kernel variant the caller has determined
// this Solver should be attributed to running, for reporting purposes;
// see backend.go. It does not change what Solve actually executes.
func (s *Solver) SetCapability(c Capability) { s.capability = c }

// Start allocates the Solver's Arena. Safe to call once; calling it
// again on an already-started Solver replaces the Arena, releasing the
// previous one to the garbage collector.
func (s *Solver) Start() error {
	arena, err := NewArena(s.params)
	if err != nil {
		return err
	}
	s.arena = arena
	s.started = true
	return nil
}

// Stop releases the Arena. The Solver can be Start-ed again afterward.
func (s *Solver) Stop() {
	s.arena = nil
	s.started = false
}

// Params returns the resolved parameterization this Solver runs.
func (s *Solver) Params() Params { return s.params }

// Solve runs one full pipeline for (header, nonce): generate the
// initial hash set, then run each collision stage in turn, reporting
// every complete solution found at the final stage through onSolution.
// A search that runs to completion without any solution, or that is
// cancelled midway, is not an error: Solve returns nil either way, and
// the caller distinguishes the two only by whether onSolution ever
// fired.
//
// cancel is polled on every Stage-0 hash and at coarse intervals during
// bucket scans; ctx is polled at the same points. Either ending the
// search early still calls onHashDone exactly once, when the attempt
// for this (header, nonce) is over.
func (s *Solver) Solve(ctx context.Context, header, nonce []byte, cancel func() bool, onSolution func([]uint32), onHashDone func()) error {
	if !s.started {
		return ErrNotStarted
	}
	arena := s.arena
	arena.reset()

	hasher, err := NewHasher(s.params, header, nonce)
	if err != nil {
		return err
	}

	shouldStop := func() bool {
		if cancel != nil && cancel() {
			return true
		}
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	// Checked every hash rather than at a coarser interval: a cancel
	// predicate wired to fire on its Nth call must see the search stop
	// within N hashes, and one predicate check is cheap next to the
	// digest computation it gates, so the check cost stays negligible.
	m := s.params.initialHashCount()
	for i := 0; i < m; i++ {
		if shouldStop() {
			onHashDone()
			return nil
		}
		digest := hasher.Hash(uint32(i))
		arena.setHash(i, digest)
		arena.initialCount++
	}

	// The engine runs K pairwise merge rounds (windows 0..K-1), doubling
	// the surviving row's ancestor count each round from 1 to 2^K. The
	// last window (index K) is never matched against another row; it is
	// checked directly against zero once the K rounds are done. A row
	// that passes both (2^K disjoint ancestors, a zero final window) has
	// all N bits of its XOR zero, which is what a solution is.
	var ancestors [][]uint32
	mergeRounds := s.params.K
	for stage := 0; stage < mergeRounds; stage++ {
		var input []byte
		var count int
		if stage == 0 {
			input = arena.initialHashes
			count = arena.initialCount
		} else {
			buf := (stage - 1) % 2
			input = arena.stageBuffers[buf]
			count = arena.stageCount[buf]
		}

		isFinal := stage == mergeRounds-1
		outBuf := stage % 2
		result := runStage(arena, stage, input, count, ancestors, outBuf, shouldStop, isFinal)
		if result.cancelled {
			onHashDone()
			return nil
		}
		if len(arena.collisions[stage]) == 0 {
			onHashDone()
			return nil
		}
		ancestors = result.ancestors
	}

	keyBytes := s.params.collisionBitsBytes()
	for _, pair := range arena.collisions[mergeRounds-1] {
		if extractKey(pair.XORResult[:], mergeRounds, keyBytes) != 0 {
			continue // final window isn't zero: not a full solution
		}
		raw := walkAncestors(arena, pair, nil)
		sorted, ok := uniqueSorted(raw)
		if !ok || len(sorted) != s.params.solutionSize() {
			continue
		}
		onSolution(append([]uint32(nil), sorted...))
	}

	onHashDone()
	return nil
}
