package harness

import "encoding/binary"

// StaticJobSource hands out headers built deterministically from a
// counter, with no network transport involved. It exists for
// benchmarking the solver in isolation and for driving deterministic
// end-to-end tests, generalizing the role a hardcoded test header plays
// in the teacher's own miner_test.go fixtures into a reusable type.
type StaticJobSource struct {
	BaseJobSource
	Prefix []byte

	counter uint64
}

// NewStaticJobSource returns a source whose headers are prefix ‖ LE64(n)
// for an incrementing counter n, so successive jobs are distinct without
// requiring any caller-supplied randomness.
func NewStaticJobSource(prefix []byte) *StaticJobSource {
	return &StaticJobSource{Prefix: prefix}
}

func (s *StaticJobSource) Start() error { return nil }

func (s *StaticJobSource) NextJob() (Job, error) {
	var suffix [8]byte
	binary.LittleEndian.PutUint64(suffix[:], s.counter)
	s.counter++

	header := make([]byte, 0, len(s.Prefix)+8)
	header = append(header, s.Prefix...)
	header = append(header, suffix[:]...)

	return Job{
		ID:          "static",
		Header:      header,
		Deprecation: make(chan struct{}),
	}, nil
}

func (s *StaticJobSource) SubmitSolution(SolutionReport) error { return nil }
