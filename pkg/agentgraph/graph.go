package agentgraph

import (
	"strings"
	"time"
)

// Markers for the synthetic entry and exit of every graph.
const (
	// START is the synthetic source every graph begins at.
	START = "__start__"

	// END is the terminal marker. Routing to END finishes the run.
	END = "__end__"
)

// Runner is an execution unit placed in the graph. Given the current state
// it produces a sparse Update, asynchronously, possibly failing.
//
// Run must treat its State argument as read-only: append-style changes are
// expressed by returning the full new slice in the Update.
type Runner interface {
	// Name is the unit's declared name. The node identity is derived from
	// it with a fixed transform (see nodeName).
	Name() string

	// Run executes the unit against the current state.
	Run(ctx Context, s State) (Update, error)
}

// RunnerFunc adapts a named function to the Runner interface.
type RunnerFunc struct {
	name string
	fn   func(ctx Context, s State) (Update, error)
}

// NewRunner wraps fn as a Runner with the given name.
func NewRunner(name string, fn func(ctx Context, s State) (Update, error)) RunnerFunc {
	return RunnerFunc{name: name, fn: fn}
}

// Name implements Runner.
func (r RunnerFunc) Name() string { return r.name }

// Run implements Runner.
func (r RunnerFunc) Run(ctx Context, s State) (Update, error) { return r.fn(ctx, s) }

// Strategy selects how a node failure is handled once retries are exhausted.
type Strategy string

// Recognized failure strategies.
const (
	// FailFast propagates the last error and aborts the run.
	FailFast Strategy = "fail-fast"

	// Fallback records an error-annotated result and lets the run continue.
	Fallback Strategy = "fallback"

	// Retry behaves like Fallback once the retry budget is exhausted.
	Retry Strategy = "retry"
)

// ValidStrategy reports whether s is a recognized failure strategy.
func ValidStrategy(s Strategy) bool {
	switch s {
	case FailFast, Fallback, Retry:
		return true
	}
	return false
}

// NodeConfig carries per-node configuration. Zero values inherit the
// enclosing workflow's defaults.
type NodeConfig struct {
	// Timeout is the per-attempt deadline. Zero inherits the workflow value.
	Timeout time.Duration

	// Retries is the number of retries after the initial attempt.
	// Nil inherits the workflow value.
	Retries *int

	// Strategy is the failure strategy. Empty inherits the workflow value.
	Strategy Strategy

	// MaxTokens bounds generation calls made by this node, when the node's
	// unit consults it. Zero means no node-level bound.
	MaxTokens int

	// Extra carries domain-specific options the engine does not interpret.
	Extra map[string]any
}

// Condition is a boolean routing function for branch edges.
type Condition func(State) bool

// Selector is a label routing function for switch edges.
type Selector func(State) string

// BranchSpec describes a two-way conditional split.
type BranchSpec struct {
	// Condition picks the destination: true routes to IfTrue, false to IfFalse.
	Condition Condition

	IfTrue  Runner
	IfFalse Runner

	// TrueConfig and FalseConfig optionally configure the destination nodes.
	TrueConfig  NodeConfig
	FalseConfig NodeConfig
}

// SwitchSpec describes a multi-way conditional split.
type SwitchSpec struct {
	// Select returns a label that is matched against Cases.
	Select Selector

	// Cases maps labels to destination units.
	Cases map[string]Runner

	// Default receives labels with no matching case. If nil, an unmatched
	// label routes to END.
	Default Runner

	// Configs optionally configures case destinations by label.
	Configs map[string]NodeConfig

	// DefaultConfig optionally configures the default destination.
	DefaultConfig NodeConfig
}

// edgeKind discriminates the edge variants.
type edgeKind int

const (
	edgeLinear edgeKind = iota
	edgeBranch
	edgeSwitch
)

// edge connects a source node (or START) to its destination(s).
// Exactly one variant's fields are populated, per kind.
type edge struct {
	from string
	kind edgeKind

	// linear
	to string

	// branch
	condition Condition
	ifTrue    string
	ifFalse   string

	// switch
	selector  Selector
	cases     map[string]string
	defaultTo string // empty means END on no match
}

// destinations returns every node the edge can route to, excluding END.
func (e edge) destinations() []string {
	var dests []string
	add := func(d string) {
		if d != "" && d != END {
			dests = append(dests, d)
		}
	}
	switch e.kind {
	case edgeLinear:
		add(e.to)
	case edgeBranch:
		add(e.ifTrue)
		add(e.ifFalse)
	case edgeSwitch:
		for _, d := range e.cases {
			add(d)
		}
		add(e.defaultTo)
	}
	return dests
}

// node is a named execution unit plus its configuration.
type node struct {
	name   string
	runner Runner
	config NodeConfig
}

// graph is the mutable graph model shared by a builder session and its
// sub-path views. It is consumed by Build(); the resulting Workflow holds
// its own immutable copies.
type graph struct {
	nodes map[string]*node
	order []string        // node names in insertion order, for determinism
	out   map[string]edge // one outgoing edge per source (incl. START)
}

func newGraph() *graph {
	return &graph{
		nodes: make(map[string]*node),
		out:   make(map[string]edge),
	}
}

// nodeName derives the node identity from a unit's declared name:
// surrounding whitespace is trimmed and interior whitespace runs become
// single underscores. The transform is deterministic so re-adding the same
// unit maps to the same node.
func nodeName(r Runner) string {
	return strings.Join(strings.Fields(r.Name()), "_")
}

// addNode registers the unit under its derived name. Re-adding a unit with
// the same derived name is idempotent: the existing node (and its config)
// is kept. Returns the node name and whether the name was valid.
func (g *graph) addNode(r Runner, cfg NodeConfig) (string, bool) {
	name := nodeName(r)
	if name == "" {
		return "", false
	}
	if lower := strings.ToLower(name); lower == "end" || lower == END || lower == "start" || lower == START {
		return name, false
	}
	if _, exists := g.nodes[name]; exists {
		return name, true
	}
	g.nodes[name] = &node{name: name, runner: r, config: cfg}
	g.order = append(g.order, name)
	return name, true
}

// hasOutgoing reports whether from already has an outgoing edge.
func (g *graph) hasOutgoing(from string) bool {
	_, ok := g.out[from]
	return ok
}

func (g *graph) addEdge(e edge) {
	g.out[e.from] = e
}
