package agentgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Shared test helpers.

// quickConfig returns a workflow configuration tuned for tests: no retries
// and a millisecond backoff so failure paths stay fast.
func quickConfig() WorkflowConfig {
	return WorkflowConfig{
		Timeout:     5 * time.Second,
		Retries:     Ptr(0),
		BackoffBase: time.Millisecond,
	}
}

// makeTrackingRunner creates a unit that records its execution order and
// appends its name to the action results.
func makeTrackingRunner(name string, tracker *[]string) Runner {
	return NewRunner(name, func(ctx Context, s State) (Update, error) {
		*tracker = append(*tracker, name)
		return Update{
			ActionResults: append(slices.Clone(s.ActionResults), name),
			ActionedTasks: append(slices.Clone(s.ActionedTasks), name),
		}, nil
	})
}

// makeFailingRunner creates a unit that always returns the given error.
func makeFailingRunner(name string, err error) Runner {
	return NewRunner(name, func(ctx Context, s State) (Update, error) {
		return Update{}, err
	})
}

// makeFlakyRunner creates a unit that fails the first failures invocations,
// then succeeds. calls counts every invocation.
func makeFlakyRunner(name string, failures int, calls *int) Runner {
	return NewRunner(name, func(ctx Context, s State) (Update, error) {
		*calls++
		if *calls <= failures {
			return Update{}, fmt.Errorf("attempt %d failed", *calls)
		}
		return Update{LastActionResult: Ptr("recovered")}, nil
	})
}

// makePanicRunner creates a unit that panics with the given value.
func makePanicRunner(name string, value any) Runner {
	return NewRunner(name, func(ctx Context, s State) (Update, error) {
		panic(value)
	})
}

// makeConcludingRunner creates a unit that sets the conclusion.
func makeConcludingRunner(name, conclusion string) Runner {
	return NewRunner(name, func(ctx Context, s State) (Update, error) {
		return Update{Conclusion: Ptr(conclusion)}, nil
	})
}

// passthrough returns the empty update.
func passthrough(name string) Runner {
	return NewRunner(name, func(ctx Context, s State) (Update, error) {
		return Update{}, nil
	})
}

// testCtx creates a plain execution context for tests.
func testCtx() Context {
	return NewContext(context.Background())
}

var errBoom = errors.New("boom")
