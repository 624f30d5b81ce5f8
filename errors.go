package ktree

import (
	"errors"
	"fmt"

	engine "github.com/hupe1980/ktree/internal/ktree"
)

// ErrEmptyTree is returned by read-only introspection called before any
// insert has completed.
var ErrEmptyTree = engine.ErrEmptyTree

// ErrDimensionZero is returned when a tree is constructed with
// dimensionality 0.
var ErrDimensionZero = engine.ErrDimensionZero

// ErrDimensionMismatch indicates a vector whose length does not match
// the tree's configured dimensionality.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("ktree: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidBranchingFactor indicates a tree constructed with k < 2.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidBranchingFactor struct {
	K     int
	cause error
}

func (e *ErrInvalidBranchingFactor) Error() string {
	return fmt.Sprintf("ktree: invalid branching factor: %d (must be >= 2)", e.K)
}

func (e *ErrInvalidBranchingFactor) Unwrap() error { return e.cause }

// ErrArenaExhausted wraps an allocation failure from the arena. It is
// fatal to the insert in progress.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrArenaExhausted struct {
	cause error
}

func (e *ErrArenaExhausted) Error() string {
	return fmt.Sprintf("ktree: arena exhausted: %v", e.cause)
}

func (e *ErrArenaExhausted) Unwrap() error { return e.cause }

// ErrParse indicates a malformed serialization token, wrong field
// count, or truncated stream.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrParse struct {
	Line  int
	cause error
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("ktree: parse error at line %d: %v", e.Line, e.cause)
}

func (e *ErrParse) Unwrap() error { return e.cause }

// translateError maps the internal engine's error types onto this
// package's public error types, keeping internal/ktree free of any
// awareness of the public API surface.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *engine.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	var bf *engine.ErrInvalidBranchingFactor
	if errors.As(err, &bf) {
		return &ErrInvalidBranchingFactor{K: bf.K, cause: err}
	}

	var ae *engine.ErrArenaExhausted
	if errors.As(err, &ae) {
		return &ErrArenaExhausted{cause: err}
	}

	var pe *engine.ErrParse
	if errors.As(err, &pe) {
		return &ErrParse{Line: pe.Line, cause: err}
	}

	return err
}
