package harness

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/onyxlabs/zeropow/algorithms/zeropow"
)

// HashRateReport is sent from a worker after every solve attempt,
// generalizing the teacher's mining.HashRateReport (mining/mining.go)
// from a GPU device index to a worker goroutine index.
type HashRateReport struct {
	WorkerID int
	HashRate float64 // hashes per second over the just-finished attempt
}

// Pool runs one zeropow.Solver per worker goroutine against a shared
// JobSource, generalizing the teacher's per-device mining loop (main.go)
// from OpenCL device handles to plain CPU goroutines coordinated with
// golang.org/x/sync/errgroup. The teacher's own dependency footprint
// never included a structured fan-out helper because each device ran
// its own independent, unsupervised goroutine, but a CPU worker pool
// benefits from errgroup's shared-cancellation semantics instead.
type Pool struct {
	solvers   []*zeropow.Solver
	jobSource JobSource
	log       *logrus.Entry

	Reports   chan HashRateReport
	Solutions chan SolutionReport
}

// NewPool starts (allocates the Arena for) one Solver per worker.
func NewPool(params zeropow.Params, workers int, source JobSource, log *logrus.Entry) (*Pool, error) {
	if workers <= 0 {
		return nil, errors.New("harness: pool needs at least one worker")
	}
	solvers := make([]*zeropow.Solver, workers)
	for i := range solvers {
		s, err := zeropow.NewSolver(params)
		if err != nil {
			return nil, err
		}
		if err := s.Start(); err != nil {
			return nil, err
		}
		solvers[i] = s
	}
	return &Pool{
		solvers:   solvers,
		jobSource: source,
		log:       log,
		Reports:   make(chan HashRateReport, workers),
		Solutions: make(chan SolutionReport, workers),
	}, nil
}

// Run starts the job source and every worker, blocking until ctx is
// cancelled or a worker returns a non-cancellation error.
func (p *Pool) Run(ctx context.Context) error {
	if err := p.jobSource.Start(); err != nil {
		return errors.Wrap(err, "harness: starting job source")
	}
	g, ctx := errgroup.WithContext(ctx)
	for id, solver := range p.solvers {
		id, solver := id, solver
		g.Go(func() error {
			return p.runWorker(ctx, id, solver)
		})
	}
	return g.Wait()
}

// runWorker repeatedly fetches a job, searches a worker-private nonce
// stream against it, and forwards any solution and every attempt's hash
// rate upstream, until ctx is cancelled.
func (p *Pool) runWorker(ctx context.Context, id int, solver *zeropow.Solver) error {
	log := p.log.WithField("worker", id).WithField("capability", solver.Capability())
	var attempt uint64
	m := float64(solver.Params().InitialHashCount())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := p.jobSource.NextJob()
		if err != nil {
			return errors.Wrap(err, "harness: fetching job")
		}
		nonce := workerNonce(id, attempt)
		attempt++

		cancel := func() bool {
			select {
			case <-job.Deprecation:
				return true
			default:
				return false
			}
		}

		start := time.Now()
		onSolution := func(solution []uint32) {
			report := SolutionReport{JobID: job.ID, Header: job.Header, Nonce: nonce, Solution: solution}
			select {
			case p.Solutions <- report:
			default:
			}
			if err := p.jobSource.SubmitSolution(report); err != nil {
				log.WithError(err).Warn("failed to submit solution")
			}
		}
		onHashDone := func() {
			elapsed := time.Since(start).Seconds()
			var rate float64
			if elapsed > 0 {
				rate = m / elapsed
			}
			select {
			case p.Reports <- HashRateReport{WorkerID: id, HashRate: rate}:
			default:
			}
		}

		if err := solver.Solve(ctx, job.Header, nonce, cancel, onSolution, onHashDone); err != nil {
			log.WithError(err).Warn("solve attempt failed")
		}
	}
}

// workerNonce derives a per-worker, per-attempt nonce so concurrent
// workers searching the same job header never duplicate each other's
// seed-index space.
func workerNonce(workerID int, attempt uint64) []byte {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(workerID))
	binary.BigEndian.PutUint64(b[4:12], attempt)
	return b[:]
}
