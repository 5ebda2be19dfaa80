package agentgraph

import "sort"

// Workflow is an immutable, executable graph produced by Builder.Build().
//
// Workflow is safe for concurrent use: every Invoke call owns its own State
// and the graph structure cannot be modified after compilation.
type Workflow struct {
	nodes map[string]*node
	out   map[string]edge
	entry string
	cfg   WorkflowConfig
}

// newWorkflow copies the builder's graph into an immutable Workflow.
func newWorkflow(g *graph, cfg WorkflowConfig) *Workflow {
	nodes := make(map[string]*node, len(g.nodes))
	for name, n := range g.nodes {
		copied := *n
		nodes[name] = &copied
	}
	out := make(map[string]edge, len(g.out))
	for from, e := range g.out {
		if e.kind == edgeSwitch {
			cases := make(map[string]string, len(e.cases))
			for label, dest := range e.cases {
				cases[label] = dest
			}
			e.cases = cases
		}
		out[from] = e
	}
	return &Workflow{
		nodes: nodes,
		out:   out,
		entry: out[START].to,
		cfg:   cfg.withDefaults(),
	}
}

// EntryPoint returns the first node executed after START.
func (w *Workflow) EntryPoint() string {
	return w.entry
}

// NodeNames returns all node names in the graph, sorted.
func (w *Workflow) NodeNames() []string {
	names := make([]string, 0, len(w.nodes))
	for name := range w.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasNode reports whether the graph contains the named node.
func (w *Workflow) HasNode(name string) bool {
	_, ok := w.nodes[name]
	return ok
}

// Successors returns every node the named node can route to, sorted.
// END is not included. Returns nil for unknown nodes.
func (w *Workflow) Successors(name string) []string {
	e, ok := w.out[name]
	if !ok {
		return nil
	}
	dests := e.destinations()
	sort.Strings(dests)
	return dests
}

// Config returns the workflow-level configuration.
func (w *Workflow) Config() WorkflowConfig {
	return w.cfg
}
