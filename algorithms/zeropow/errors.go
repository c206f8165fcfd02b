package zeropow

import "github.com/pkg/errors"

// Sentinel errors for the three-tier taxonomy this package reports:
// resource failure, input failure, and search exhaustion. Search
// exhaustion is deliberately not one of these errors: an empty stage
// or a search that finds nothing is Solve returning nil with zero
// callbacks, not a failure.
var (
	// ErrArenaAllocation reports that the Arena's backing allocation
	// failed. Fatal: Start refuses and Solve cannot proceed.
	ErrArenaAllocation = errors.New("zeropow: arena allocation failed")

	// ErrInputTooLarge reports a header+nonce length far beyond any real
	// use (see maxHeaderNonceLen in hasher.go). Blake2b itself imposes no
	// such limit; this guards against pathological allocation, not
	// against block-alignment artifacts, which Hash absorbs correctly
	// for any length.
	ErrInputTooLarge = errors.New("zeropow: header or nonce exceeds blake2b input capacity")

	// ErrNotStarted reports Solve called before Start allocated the
	// Arena.
	ErrNotStarted = errors.New("zeropow: solve called before start")
)

func wrapInput(context string) error {
	return errors.Wrap(ErrInputTooLarge, context)
}

func wrapArena(context string) error {
	return errors.Wrap(ErrArenaAllocation, context)
}
