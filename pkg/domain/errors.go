package domain

import "fmt"

// Sentinel errors for the one-time DAG construction checks. Callers wrap
// these into *apperror.Error at their own boundary; pkg/domain imports no
// other package of this module so everything can import it without cycles.
var (
	ErrInvalidBlockCount = fmt.Errorf("domain: block count must be non-negative")
	ErrDanglingEdge      = fmt.Errorf("domain: edge references a block outside [0, n)")
	ErrSelfLoop          = fmt.Errorf("domain: self-loop edge")
	ErrCyclicPrecedence  = fmt.Errorf("domain: precedence graph contains a cycle")
)

func errInvalidBlockCount(n int64) error {
	return fmt.Errorf("%w: n=%d", ErrInvalidBlockCount, n)
}

func errDanglingEdge(e Edge) error {
	return fmt.Errorf("%w: %d->%d", ErrDanglingEdge, e.U, e.V)
}

func errSelfLoop(b int64) error {
	return fmt.Errorf("%w: block=%d", ErrSelfLoop, b)
}

func errCyclicPrecedence(cause error) error {
	return fmt.Errorf("%w: %v", ErrCyclicPrecedence, cause)
}
