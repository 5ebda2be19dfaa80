package agentgraph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestConstructionError_Error verifies the message format.
func TestConstructionError_Error(t *testing.T) {
	err := &ConstructionError{Op: "then", Rule: "start must be called first"}
	assert.Equal(t, "invalid graph construction: then: start must be called first", err.Error())
}

// TestCycleError_Error verifies the path rendering.
func TestCycleError_Error(t *testing.T) {
	err := &CycleError{Path: []string{"a", "b", "a"}}
	assert.Equal(t, "cycle detected: a -> b -> a", err.Error())
}

// TestNodeExecutionError_Unwrap verifies errors.Is reaches the cause.
func TestNodeExecutionError_Unwrap(t *testing.T) {
	err := &NodeExecutionError{Node: "a", Attempt: 2, Err: errBoom}

	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, "node a (attempt 2): boom", err.Error())
}

// TestNodeTimeoutError_Error verifies the message carries the deadline.
func TestNodeTimeoutError_Error(t *testing.T) {
	err := &NodeTimeoutError{Node: "slow", Timeout: 50 * time.Millisecond, Attempt: 1}
	assert.Equal(t, "node slow timed out after 50ms (attempt 1)", err.Error())
}

// TestPanicError_Error verifies the panic value is surfaced.
func TestPanicError_Error(t *testing.T) {
	err := &PanicError{Node: "wild", Value: "kaboom", Stack: "stack"}
	assert.Equal(t, "node wild panicked: kaboom", err.Error())
}

// TestMaxIterationsError_Unwrap verifies the sentinel is reachable.
func TestMaxIterationsError_Unwrap(t *testing.T) {
	err := &MaxIterationsError{Max: 1000, LastNode: "a"}

	assert.True(t, errors.Is(err, ErrMaxIterations))
	assert.Equal(t, "exceeded maximum iterations (1000) at node a", err.Error())
}
