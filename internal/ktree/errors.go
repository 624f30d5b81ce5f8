package ktree

import (
	"errors"
	"fmt"
)

// ErrEmptyTree is returned by read-only introspection called before the
// first insert has completed.
var ErrEmptyTree = errors.New("ktree: tree is empty")

// ErrDimensionZero is returned when a tree is constructed with
// dimensionality 0.
var ErrDimensionZero = errors.New("ktree: dimensionality must be > 0")

// ErrDimensionMismatch indicates a vector whose length does not match
// the tree's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("ktree: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidBranchingFactor indicates a tree constructed with k < 2.
type ErrInvalidBranchingFactor struct {
	K int
}

func (e *ErrInvalidBranchingFactor) Error() string {
	return fmt.Sprintf("ktree: invalid branching factor: %d (must be >= 2)", e.K)
}

// ErrArenaExhausted wraps an allocation failure from the arena. It is
// fatal to the insert in progress.
type ErrArenaExhausted struct {
	cause error
}

func (e *ErrArenaExhausted) Error() string {
	return fmt.Sprintf("ktree: arena exhausted: %v", e.cause)
}

func (e *ErrArenaExhausted) Unwrap() error { return e.cause }

// ErrParse indicates a malformed serialization token, wrong field
// count, or truncated stream.
type ErrParse struct {
	Line  int
	cause error
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("ktree: parse error at line %d: %v", e.Line, e.cause)
}

func (e *ErrParse) Unwrap() error { return e.cause }
