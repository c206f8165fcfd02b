// Package harness generalizes a single-nonce Solve call into a running
// miner: fetching work, spreading the search across a worker pool, and
// reporting solutions and hash rate upstream. None of this lives in
// package zeropow: the core solver stays a synchronous library call
// that does no I/O or logging (it is not allocation-free: each Solve
// allocates per-stage bookkeeping), and everything about scheduling, transport, and
// observability is a caller concern layered on top of it.
package harness

import "sync"

// Job is one unit of work handed to a Worker: a fixed header the
// solver searches nonces against, plus the deprecation channel that
// closes when the source wants outstanding work on this job abandoned.
type Job struct {
	ID          string
	Header      []byte
	Deprecation chan struct{}
}

// SolutionReport is what a Worker sends upstream when Solve finds a
// complete solution.
type SolutionReport struct {
	JobID    string
	Header   []byte
	Nonce    []byte
	Solution []uint32
}

// DeprecatedJobCall runs when a JobSource decides all outstanding jobs
// should be abandoned, e.g. because a pool pushed new work.
type DeprecatedJobCall func()

// JobSource supplies jobs to search and accepts found solutions. It
// generalizes the teacher's clients.Client/HeaderProvider/HeaderReporter
// trio: NextJob replaces GetHeaderForWork, SubmitSolution replaces
// SubmitHeader, and Start keeps its name and role unchanged.
type JobSource interface {
	// Start begins supplying jobs; it may be a no-op for a plain
	// request/response source, or open a persistent connection for a
	// push-based one.
	Start() error
	// NextJob blocks until a job is available or the source is closed.
	NextJob() (Job, error)
	// SubmitSolution reports a found solution back to the source.
	SubmitSolution(report SolutionReport) error
	// SetDeprecatedJobCall registers the function to run when
	// outstanding jobs should be abandoned.
	SetDeprecatedJobCall(call DeprecatedJobCall)
}

// BaseJobSource implements the deprecation-channel bookkeeping shared by
// every JobSource, generalized from the teacher's BaseClient
// (clients/clients.go) with a mutex added since harness JobSources are
// driven from multiple worker goroutines instead of the teacher's
// single mining loop.
type BaseJobSource struct {
	mu                  sync.Mutex
	deprecationChannels map[string]chan struct{}
	deprecatedJobCall   DeprecatedJobCall
}

// AddJobToDeprecate registers jobID and returns the channel that closes
// when that job is deprecated.
func (b *BaseJobSource) AddJobToDeprecate(jobID string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deprecationChannels == nil {
		b.deprecationChannels = make(map[string]chan struct{})
	}
	ch := make(chan struct{})
	b.deprecationChannels[jobID] = ch
	return ch
}

// DeprecateOutstandingJobs closes every registered deprecation channel
// and clears the registry, then fires the deprecated-job callback, if
// one is set, on its own goroutine so a slow callback cannot block the
// source's next NextJob call.
func (b *BaseJobSource) DeprecateOutstandingJobs() {
	b.mu.Lock()
	for jobID, ch := range b.deprecationChannels {
		close(ch)
		delete(b.deprecationChannels, jobID)
	}
	call := b.deprecatedJobCall
	b.mu.Unlock()
	if call != nil {
		go call()
	}
}

// SetDeprecatedJobCall sets the function to run on deprecation.
func (b *BaseJobSource) SetDeprecatedJobCall(call DeprecatedJobCall) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deprecatedJobCall = call
}
