package agentgraph

import (
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
)

// supervise wraps one node invocation with bounded exponential-backoff
// retry and a per-attempt deadline.
//
// Attempts run 0..retries inclusive. Each attempt races the node's Run
// against a timer; a timed-out attempt is abandoned, not force-terminated -
// the unit itself must be cooperatively cancellable if hard cancellation is
// required. Between failed attempts the supervisor waits backoffBase<<attempt.
//
// Once all attempts fail: FailFast propagates the last error and aborts the
// run; Fallback and Retry (whose budget is already spent, so it degrades to
// Fallback) synthesize an update that records the failure and advances the
// task index, letting the run continue to a conclusion.
func (w *Workflow) supervise(ec *executionContext, n *node, state State) (Update, error) {
	cfg := w.settingsFor(n)

	var lastErr error
	for attempt := 0; attempt <= cfg.retries; attempt++ {
		attemptCtx := ec.withNode(n.name, attempt+1)

		update, err := runWithDeadline(attemptCtx, n, state, cfg.timeout)
		if err == nil {
			return update, nil
		}
		lastErr = err

		if attempt < cfg.retries {
			wait := cfg.backoffBase << attempt
			observability.LogNodeRetry(attemptCtx.logger, n.name, attempt+1, wait, err)
			select {
			case <-ec.Done():
				return Update{}, &NodeExecutionError{Node: n.name, Attempt: attempt + 1, Err: ec.Err()}
			case <-time.After(wait):
			}
		}
	}

	if cfg.strategy == FailFast {
		return Update{}, lastErr
	}
	return fallbackUpdate(n.name, state, lastErr), nil
}

// runWithDeadline races one invocation of n against the timeout.
// Panics inside the unit are recovered and surfaced as a PanicError.
func runWithDeadline(ctx *executionContext, n *node, state State, timeout time.Duration) (Update, error) {
	type result struct {
		update Update
		err    error
	}
	// Buffered so an abandoned attempt can still deliver and exit.
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: &PanicError{Node: n.name, Value: r, Stack: string(debug.Stack())}}
			}
		}()
		update, err := n.runner.Run(ctx, state)
		ch <- result{update: update, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			if _, ok := r.err.(*PanicError); ok {
				return Update{}, r.err
			}
			return Update{}, &NodeExecutionError{Node: n.name, Attempt: ctx.attempt, Err: r.err}
		}
		return r.update, nil
	case <-timer.C:
		return Update{}, &NodeTimeoutError{Node: n.name, Timeout: timeout, Attempt: ctx.attempt}
	case <-ctx.Done():
		return Update{}, &NodeExecutionError{Node: n.name, Attempt: ctx.attempt, Err: ctx.Err()}
	}
}

// fallbackUpdate synthesizes the partial update recorded when a node's
// failure is absorbed: an error-annotated result is appended (read-then-write,
// the channel policy replaces slices wholesale) and the task index advances
// by one.
func fallbackUpdate(nodeName string, state State, err error) Update {
	task := nodeName
	if state.CurrentTaskIndex >= 0 && state.CurrentTaskIndex < len(state.Tasks) {
		task = state.Tasks[state.CurrentTaskIndex]
	}

	results := append(slices.Clone(state.ActionResults),
		fmt.Sprintf("[%s failed: %v]", nodeName, err))
	actioned := append(slices.Clone(state.ActionedTasks), task)
	failure := results[len(results)-1]

	return Update{
		ActionResults:     results,
		ActionedTasks:     actioned,
		LastActionResult:  &failure,
		CurrentTaskIndex:  Ptr(state.CurrentTaskIndex + 1),
		AgentPhaseHistory: append(slices.Clone(state.AgentPhaseHistory), nodeName),
	}
}
