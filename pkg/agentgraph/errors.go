package agentgraph

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for building and invocation.
var (
	// ErrMissingObjective indicates Invoke was called without an objective.
	ErrMissingObjective = errors.New("objective is required")

	// ErrNilContext indicates Invoke was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrMaxIterations indicates the execution loop exceeded the configured limit.
	ErrMaxIterations = errors.New("exceeded maximum iterations")

	// ErrBuilderConsumed indicates a builder was used after Build().
	ErrBuilderConsumed = errors.New("builder already consumed by Build")
)

// ConstructionError reports builder misuse. It is always a programmer error
// and is surfaced by Build() rather than panicking mid-chain: the first
// violation is recorded, every later call on the builder becomes a no-op,
// and Build() returns the recorded error.
type ConstructionError struct {
	// Op is the builder operation that was misused ("start", "then", ...).
	Op string
	// Rule describes the violated construction rule.
	Rule string
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("invalid graph construction: %s: %s", e.Op, e.Rule)
}

// CycleError reports a cycle found at build time.
type CycleError struct {
	// Path is the offending cycle; its first and last elements are equal,
	// e.g. ["A", "B", "C", "A"].
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// NodeExecutionError wraps a node failure with node context.
type NodeExecutionError struct {
	// Node is the name of the node that failed.
	Node string
	// Attempt is the attempt number that produced Err (1 = first attempt).
	Attempt int
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s (attempt %d): %v", e.Node, e.Attempt, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// NodeTimeoutError indicates a node attempt lost the race against its
// deadline. The abandoned attempt may still be running; the supervisor does
// not force-terminate it.
type NodeTimeoutError struct {
	// Node is the name of the node that timed out.
	Node string
	// Timeout is the configured per-attempt deadline.
	Timeout time.Duration
	// Attempt is the attempt number that timed out (1 = first attempt).
	Attempt int
}

// Error implements the error interface.
func (e *NodeTimeoutError) Error() string {
	return fmt.Sprintf("node %s timed out after %s (attempt %d)", e.Node, e.Timeout, e.Attempt)
}

// PanicError captures a panic raised inside a node's execution unit.
type PanicError struct {
	// Node is the name of the node that panicked.
	Node string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.Node, e.Value)
}

// MaxIterationsError provides context when the engine loop limit is exceeded.
type MaxIterationsError struct {
	// Max is the configured iteration limit.
	Max int
	// LastNode is the node that would have executed next.
	LastNode string
}

// Error implements the error interface.
func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded maximum iterations (%d) at node %s", e.Max, e.LastNode)
}

// Unwrap returns ErrMaxIterations for errors.Is support.
func (e *MaxIterationsError) Unwrap() error {
	return ErrMaxIterations
}
