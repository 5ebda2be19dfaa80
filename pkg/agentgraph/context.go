package agentgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/event"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/memory"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tools"
)

// Context provides execution context to nodes. It extends context.Context
// with the per-run collaborators and metadata, and is the single place the
// engine merges run configuration into every node invocation.
//
// Context is immutable after creation. The engine derives per-node contexts
// with updated NodeID, Attempt, and enriched logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with run and node
	// context. Never returns nil - defaults to slog.Default().
	Logger() *slog.Logger

	// LLM returns the generation backend, or nil if not configured.
	// Nodes should check for nil before using.
	LLM() llm.Client

	// Memory returns the cross-node memory store, or nil if not configured.
	Memory() memory.Store

	// Events returns the event sink, or nil if not configured.
	// The engine wraps every emission; a failing sink never aborts a run.
	Events() event.Sink

	// Tools returns the side-effect function registry, or nil if not
	// configured.
	Tools() *tools.Registry

	// Metadata

	// RunID returns the unique identifier for this run.
	// Auto-generated if not configured.
	RunID() string

	// SessionID returns the conversation session this run belongs to.
	// Empty until Invoke assigns one from the request.
	SessionID() string

	// NodeID returns the node currently executing.
	// Empty before execution starts.
	NodeID() string

	// Attempt returns the retry attempt number (1 = first attempt).
	Attempt() int
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger    *slog.Logger
	llmClient llm.Client
	mem       memory.Store
	events    event.Sink
	registry  *tools.Registry
	runID     string
	sessionID string
	nodeID    string
	attempt   int
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger { return c.logger }

// LLM returns the generation backend.
func (c *executionContext) LLM() llm.Client { return c.llmClient }

// Memory returns the cross-node memory store.
func (c *executionContext) Memory() memory.Store { return c.mem }

// Events returns the event sink.
func (c *executionContext) Events() event.Sink { return c.events }

// Tools returns the side-effect function registry.
func (c *executionContext) Tools() *tools.Registry { return c.registry }

// RunID returns the run identifier.
func (c *executionContext) RunID() string { return c.runID }

// SessionID returns the session identifier.
func (c *executionContext) SessionID() string { return c.sessionID }

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string { return c.nodeID }

// Attempt returns the retry attempt number.
func (c *executionContext) Attempt() int { return c.attempt }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger is enriched with run_id, node_id, and attempt during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithLLM sets the generation backend for the context.
func WithLLM(client llm.Client) ContextOption {
	return func(c *executionContext) {
		c.llmClient = client
	}
}

// WithMemory sets the cross-node memory store for the context.
func WithMemory(store memory.Store) ContextOption {
	return func(c *executionContext) {
		c.mem = store
	}
}

// WithEvents sets the event sink for the context.
func WithEvents(sink event.Sink) ContextOption {
	return func(c *executionContext) {
		c.events = sink
	}
}

// WithTools sets the side-effect function registry for the context.
func WithTools(registry *tools.Registry) ContextOption {
	return func(c *executionContext) {
		c.registry = registry
	}
}

// WithRunID sets the run identifier. If not set, a UUID is auto-generated.
func WithRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
// The returned Context wraps the provided context.Context and adds the
// per-run collaborators and metadata.
//
// Example:
//
//	ctx := agentgraph.NewContext(context.Background(),
//	    agentgraph.WithLogger(logger),
//	    agentgraph.WithLLM(client),
//	    agentgraph.WithMemory(memory.NewInMemory()))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
		attempt: 1,
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// clone returns a shallow copy for derivation.
func (c *executionContext) clone() *executionContext {
	cp := *c
	return &cp
}

// withSession returns a derived context bound to the given session id.
func (c *executionContext) withSession(sessionID string) *executionContext {
	cp := c.clone()
	cp.sessionID = sessionID
	return cp
}

// withNode returns a derived context for one node attempt, with the logger
// enriched accordingly.
func (c *executionContext) withNode(nodeID string, attempt int) *executionContext {
	cp := c.clone()
	cp.nodeID = nodeID
	cp.attempt = attempt
	cp.logger = c.logger.With(
		slog.String("run_id", c.runID),
		slog.String("node_id", nodeID),
		slog.Int("attempt", attempt),
	)
	return cp
}

// asExecution normalizes a caller-supplied Context to the internal type,
// wrapping foreign implementations so derivation keeps working.
func asExecution(ctx Context) *executionContext {
	if ec, ok := ctx.(*executionContext); ok {
		return ec
	}
	return &executionContext{
		Context:   ctx,
		logger:    ctx.Logger(),
		llmClient: ctx.LLM(),
		mem:       ctx.Memory(),
		events:    ctx.Events(),
		registry:  ctx.Tools(),
		runID:     ctx.RunID(),
		sessionID: ctx.SessionID(),
		nodeID:    ctx.NodeID(),
		attempt:   ctx.Attempt(),
	}
}
