package agentgraph

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
)

// NodeEvent is the payload emitted to the event sink around each node
// invocation and at run boundaries.
type NodeEvent struct {
	Node       string  `json:"node,omitempty"`
	Op         string  `json:"op"`
	RunID      string  `json:"run_id"`
	SessionID  string  `json:"session_id"`
	DurationMs float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// invokeConfig holds per-invoke observability configuration.
type invokeConfig struct {
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

func defaultInvokeConfig() invokeConfig {
	return invokeConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// InvokeOption configures one Invoke call.
type InvokeOption func(*invokeConfig)

// WithMetrics enables OpenTelemetry metrics for the run.
// Pass a specific recorder, or observability.NewMetricsRecorder() for the
// global meter provider.
func WithMetrics(m observability.MetricsRecorder) InvokeOption {
	return func(c *invokeConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry spans for the run and each node,
// using the global tracer provider.
func WithTracing() InvokeOption {
	return func(c *invokeConfig) {
		c.spans = observability.NewSpanManager()
		c.tracingEnabled = true
	}
}

// Invoke runs the workflow against one request.
//
// Invoke never panics across the API boundary and never returns an error
// value: failures are reported through Response.Error with Conclusion set
// to a fixed fallback string. Run-time node failures are contained by the
// retry and timeout supervisor per the configured strategy; only FailFast
// lets a node failure abort the run.
//
// Invoke is safe to call concurrently; each call owns its own State.
func (w *Workflow) Invoke(ctx Context, req Request, opts ...InvokeOption) Response {
	if ctx == nil {
		return Response{Conclusion: NoConclusion, Error: ErrNilContext.Error()}
	}
	if strings.TrimSpace(req.Objective) == "" {
		return Response{Conclusion: NoConclusion, Error: ErrMissingObjective.Error()}
	}

	cfg := defaultInvokeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	ec := asExecution(ctx).withSession(sessionID)

	prompt := req.Prompt
	if prompt == "" {
		prompt = req.Objective
	}
	state := State{
		Objective: req.Objective,
		Prompt:    prompt,
	}

	start := time.Now()
	observability.LogRunStart(ec.logger, ec.runID)
	w.emit(ec, "run.start", NodeEvent{Op: "run.start", RunID: ec.runID, SessionID: sessionID})

	var tracingCtx context.Context = ec
	var runSpan trace.Span
	if cfg.tracingEnabled {
		tracingCtx, runSpan = cfg.spans.StartRunSpan(ec, "agentgraph", ec.runID)
	}

	state, runErr := w.run(tracingCtx, ec, state, &cfg)

	duration := time.Since(start)
	cfg.metrics.RecordRun(ec, runErr == nil, duration)
	if cfg.tracingEnabled {
		cfg.spans.EndSpanWithError(runSpan, runErr)
	}

	if runErr != nil {
		observability.LogRunError(ec.logger, ec.runID, runErr, float64(duration.Milliseconds()))
		w.emit(ec, "run.error", NodeEvent{
			Op: "run.error", RunID: ec.runID, SessionID: sessionID,
			DurationMs: float64(duration.Milliseconds()), Error: runErr.Error(),
		})
		return Response{
			Conclusion: NoConclusion,
			SessionID:  sessionID,
			FullState:  state,
			Error:      runErr.Error(),
		}
	}

	observability.LogRunComplete(ec.logger, ec.runID, float64(duration.Milliseconds()), len(state.AgentPhaseHistory))
	w.emit(ec, "run.complete", NodeEvent{
		Op: "run.complete", RunID: ec.runID, SessionID: sessionID,
		DurationMs: float64(duration.Milliseconds()),
	})

	return Response{
		Conclusion: state.FinalConclusion(),
		SessionID:  sessionID,
		FullState:  state,
	}
}

// run walks the graph from START until END, merging each node's partial
// update into the state. Within one run merges are applied strictly in
// visit order; no two merges for the same run are ever concurrent.
func (w *Workflow) run(tracingCtx context.Context, ec *executionContext, state State, cfg *invokeConfig) (State, error) {
	current := w.entry
	iterations := 0

	for current != END {
		iterations++
		if iterations > w.cfg.MaxIterations {
			return state, &MaxIterationsError{Max: w.cfg.MaxIterations, LastNode: current}
		}

		select {
		case <-ec.Done():
			return state, ec.Err()
		default:
		}

		n, ok := w.nodes[current]
		if !ok {
			// Shouldn't happen if Build() succeeded.
			return state, &NodeExecutionError{Node: current, Attempt: 1, Err: errors.New("node not found")}
		}

		observability.LogNodeStart(ec.logger, current)
		w.emit(ec, "node.start", NodeEvent{
			Node: current, Op: "node.start", RunID: ec.runID, SessionID: ec.sessionID,
		})

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.spans.StartNodeSpan(tracingCtx, current)
		}

		nodeStart := time.Now()
		update, nodeErr := w.supervise(ec, n, state)
		nodeDuration := time.Since(nodeStart)
		durationMs := float64(nodeDuration.Milliseconds())

		cfg.metrics.RecordNodeExecution(nodeTracingCtx, current, nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			observability.LogNodeError(ec.logger, current, nodeErr)
			w.emit(ec, "node.error", NodeEvent{
				Node: current, Op: "node.error", RunID: ec.runID, SessionID: ec.sessionID,
				DurationMs: durationMs, Error: nodeErr.Error(),
			})
			return state, nodeErr
		}

		state = state.Apply(update)

		observability.LogNodeComplete(ec.logger, current, durationMs)
		w.emit(ec, "node.complete", NodeEvent{
			Node: current, Op: "node.complete", RunID: ec.runID, SessionID: ec.sessionID,
			DurationMs: durationMs,
		})

		current = w.next(current, state)
	}

	return state, nil
}

// next resolves the destination of current's outgoing edge against the
// merged state. A switch label with no matching case falls back to the
// configured default, or to END.
func (w *Workflow) next(current string, state State) string {
	e, ok := w.out[current]
	if !ok {
		// Shouldn't happen: Build() finalizes every dangling endpoint.
		return END
	}
	switch e.kind {
	case edgeBranch:
		if e.condition(state) {
			return e.ifTrue
		}
		return e.ifFalse
	case edgeSwitch:
		label := e.selector(state)
		if dest, ok := e.cases[label]; ok {
			return dest
		}
		if e.defaultTo != "" {
			return e.defaultTo
		}
		return END
	default:
		return e.to
	}
}

// emit delivers an event to the sink, swallowing any panic or misbehavior.
// Event emission is best-effort and must never affect the run.
func (w *Workflow) emit(ec *executionContext, name string, payload NodeEvent) {
	sink := ec.events
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			observability.LogEventSinkFailure(ec.logger, name, r)
		}
	}()
	sink.Emit(name, payload)
}
