package agentgraph

import "sort"

// Builder incrementally constructs a graph model while tracking the set of
// open path endpoints (nodes with no outgoing edge yet).
//
// A builder session is created once with NewBuilder, mutated through chained
// calls, and consumed by Build(). Builder misuse does not panic: the first
// violated rule is recorded as a ConstructionError, every later call becomes
// a no-op, and Build() returns the recorded error. A malformed graph never
// compiles.
//
// Builder is not safe for concurrent use. Compile once, then share the
// resulting Workflow.
//
// Example:
//
//	wf, err := agentgraph.NewBuilder().
//	    Start(analyze).
//	    Then(plan).
//	    Then(conclude).
//	    Build()
type Builder struct {
	g         *graph
	cfg       WorkflowConfig
	endpoints []string
	started   bool
	built     bool
	err       error
}

// Path is a sub-path view created by Branch or Switch. It shares the root
// session's graph and tracks its own open endpoint.
type Path struct {
	root      *Builder
	endpoints []string
}

// NewBuilder creates a new root builder session with default configuration.
func NewBuilder() *Builder {
	return &Builder{
		g:   newGraph(),
		cfg: DefaultWorkflowConfig(),
	}
}

// fail records the first construction error. Later calls keep the first.
func (b *Builder) fail(op, rule string) {
	if b.err == nil {
		b.err = &ConstructionError{Op: op, Rule: rule}
	}
}

// usable reports whether the builder can still accept op, recording an
// error when it cannot.
func (b *Builder) usable(op string) bool {
	if b.err != nil {
		return false
	}
	if b.built {
		b.fail(op, ErrBuilderConsumed.Error())
		return false
	}
	return true
}

// addNode registers r and reports its node name, recording a construction
// error for invalid unit names.
func (b *Builder) addNode(op string, r Runner, cfg NodeConfig) (string, bool) {
	if r == nil {
		b.fail(op, "execution unit cannot be nil")
		return "", false
	}
	name, ok := b.g.addNode(r, cfg)
	if !ok {
		if name == "" {
			b.fail(op, "execution unit name cannot be empty")
		} else {
			b.fail(op, "execution unit name is reserved: "+name)
		}
		return "", false
	}
	return name, true
}

// Start seeds the session with its first node, connected from START.
// It must be called exactly once, before any other construction call.
func (b *Builder) Start(r Runner, cfg ...NodeConfig) *Builder {
	if !b.usable("start") {
		return b
	}
	if b.started {
		b.fail("start", "start may only be called once per session")
		return b
	}
	name, ok := b.addNode("start", r, firstConfig(cfg))
	if !ok {
		return b
	}
	b.started = true
	b.g.addEdge(edge{from: START, kind: edgeLinear, to: name})
	b.endpoints = []string{name}
	return b
}

// Then connects every open endpoint to a new node and collapses the
// endpoint set to that node. It requires at least one open endpoint;
// after Branch or Switch the set is empty until an explicit Merge.
func (b *Builder) Then(r Runner, cfg ...NodeConfig) *Builder {
	if !b.usable("then") {
		return b
	}
	if !b.started {
		b.fail("then", "start must be called first")
		return b
	}
	if len(b.endpoints) == 0 {
		b.fail("then", "no open path endpoint; merge split paths first")
		return b
	}
	name, ok := b.addNode("then", r, firstConfig(cfg))
	if !ok {
		return b
	}
	for _, from := range b.endpoints {
		if from == name {
			continue // re-adding the unit that is already the endpoint
		}
		if b.g.hasOutgoing(from) {
			b.fail("then", "node "+from+" already has an outgoing edge")
			return b
		}
		b.g.addEdge(edge{from: from, kind: edgeLinear, to: name})
	}
	b.endpoints = []string{name}
	return b
}

// Branch connects the single open endpoint to two new nodes chosen at
// runtime by spec.Condition, and clears the endpoint set. Further linear
// chaining on the root requires an explicit Merge of the returned paths.
func (b *Builder) Branch(spec BranchSpec) (truePath, falsePath *Path) {
	truePath = &Path{root: b}
	falsePath = &Path{root: b}
	if !b.usable("branch") {
		return truePath, falsePath
	}
	if len(b.endpoints) != 1 {
		b.fail("branch", "branch requires exactly one open endpoint")
		return truePath, falsePath
	}
	if spec.Condition == nil {
		b.fail("branch", "branch condition cannot be nil")
		return truePath, falsePath
	}
	trueName, ok := b.addNode("branch", spec.IfTrue, spec.TrueConfig)
	if !ok {
		return truePath, falsePath
	}
	falseName, ok := b.addNode("branch", spec.IfFalse, spec.FalseConfig)
	if !ok {
		return truePath, falsePath
	}
	from := b.endpoints[0]
	if b.g.hasOutgoing(from) {
		b.fail("branch", "node "+from+" already has an outgoing edge")
		return truePath, falsePath
	}
	b.g.addEdge(edge{
		from:      from,
		kind:      edgeBranch,
		condition: spec.Condition,
		ifTrue:    trueName,
		ifFalse:   falseName,
	})
	b.endpoints = nil
	truePath.endpoints = []string{trueName}
	falsePath.endpoints = []string{falseName}
	return truePath, falsePath
}

// SwitchPaths exposes the sub-paths created by Switch.
type SwitchPaths struct {
	cases       map[string]*Path
	defaultPath *Path
}

// Case returns the sub-path for the given label, or an empty path when the
// label was not part of the SwitchSpec.
func (sp *SwitchPaths) Case(label string) *Path {
	if p, ok := sp.cases[label]; ok {
		return p
	}
	return &Path{}
}

// Default returns the sub-path for the default destination, or an empty
// path when no default was configured.
func (sp *SwitchPaths) Default() *Path {
	if sp.defaultPath != nil {
		return sp.defaultPath
	}
	return &Path{}
}

// All returns every sub-path (cases plus default), suitable for Merge.
func (sp *SwitchPaths) All() []*Path {
	labels := make([]string, 0, len(sp.cases))
	for label := range sp.cases {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	paths := make([]*Path, 0, len(sp.cases)+1)
	for _, label := range labels {
		paths = append(paths, sp.cases[label])
	}
	if sp.defaultPath != nil {
		paths = append(paths, sp.defaultPath)
	}
	return paths
}

// Switch connects the single open endpoint to N new nodes chosen at runtime
// by spec.Select, and clears the endpoint set. A label with no matching case
// routes to the default destination, or to END when none is configured.
func (b *Builder) Switch(spec SwitchSpec) *SwitchPaths {
	sp := &SwitchPaths{cases: make(map[string]*Path)}
	for label := range spec.Cases {
		sp.cases[label] = &Path{root: b}
	}
	if !b.usable("switch") {
		return sp
	}
	if len(b.endpoints) != 1 {
		b.fail("switch", "switch requires exactly one open endpoint")
		return sp
	}
	if spec.Select == nil {
		b.fail("switch", "switch selector cannot be nil")
		return sp
	}
	if len(spec.Cases) == 0 {
		b.fail("switch", "switch requires at least one case")
		return sp
	}

	cases := make(map[string]string, len(spec.Cases))
	labels := make([]string, 0, len(spec.Cases))
	for label := range spec.Cases {
		labels = append(labels, label)
	}
	sort.Strings(labels) // deterministic node registration order
	for _, label := range labels {
		name, ok := b.addNode("switch", spec.Cases[label], spec.Configs[label])
		if !ok {
			return sp
		}
		cases[label] = name
		sp.cases[label].endpoints = []string{name}
	}

	defaultTo := ""
	if spec.Default != nil {
		name, ok := b.addNode("switch", spec.Default, spec.DefaultConfig)
		if !ok {
			return sp
		}
		defaultTo = name
		sp.defaultPath = &Path{root: b, endpoints: []string{name}}
	}

	from := b.endpoints[0]
	if b.g.hasOutgoing(from) {
		b.fail("switch", "node "+from+" already has an outgoing edge")
		return sp
	}
	b.g.addEdge(edge{
		from:      from,
		kind:      edgeSwitch,
		selector:  spec.Select,
		cases:     cases,
		defaultTo: defaultTo,
	})
	b.endpoints = nil
	return sp
}

// Merge rejoins split paths: the session's endpoint set becomes the union
// of the given paths' open endpoints. Merge is only valid on the root
// session that created the paths.
func (b *Builder) Merge(paths ...*Path) *Builder {
	if !b.usable("merge") {
		return b
	}
	if len(paths) == 0 {
		b.fail("merge", "merge requires at least one path")
		return b
	}
	seen := make(map[string]bool)
	var merged []string
	for _, p := range paths {
		if p == nil {
			b.fail("merge", "merge path cannot be nil")
			return b
		}
		if p.root != nil && p.root != b {
			b.fail("merge", "merge is only valid on the session that created the paths")
			return b
		}
		for _, ep := range p.endpoints {
			if !seen[ep] {
				seen[ep] = true
				merged = append(merged, ep)
			}
		}
	}
	b.endpoints = merged
	return b
}

// WithConfig replaces the workflow-level configuration, filling unset
// fields with defaults.
func (b *Builder) WithConfig(cfg WorkflowConfig) *Builder {
	if !b.usable("config") {
		return b
	}
	if cfg.Strategy != "" && !ValidStrategy(cfg.Strategy) {
		b.fail("config", "unrecognized error strategy: "+string(cfg.Strategy))
		return b
	}
	b.cfg = cfg.withDefaults()
	return b
}

// Then extends the sub-path with a new node, collapsing the sub-path's
// endpoint set to it.
func (p *Path) Then(r Runner, cfg ...NodeConfig) *Path {
	b := p.root
	if b == nil || !b.usable("then") {
		return p
	}
	if len(p.endpoints) == 0 {
		b.fail("then", "path has no open endpoint")
		return p
	}
	name, ok := b.addNode("then", r, firstConfig(cfg))
	if !ok {
		return p
	}
	for _, from := range p.endpoints {
		if from == name {
			continue
		}
		if b.g.hasOutgoing(from) {
			b.fail("then", "node "+from+" already has an outgoing edge")
			return p
		}
		b.g.addEdge(edge{from: from, kind: edgeLinear, to: name})
	}
	p.endpoints = []string{name}
	return p
}

// Branch splits the sub-path's single endpoint, mirroring Builder.Branch.
func (p *Path) Branch(spec BranchSpec) (truePath, falsePath *Path) {
	b := p.root
	truePath, falsePath = &Path{root: b}, &Path{root: b}
	if b == nil || !b.usable("branch") {
		return truePath, falsePath
	}
	if len(p.endpoints) != 1 {
		b.fail("branch", "branch requires exactly one open endpoint")
		return truePath, falsePath
	}
	// Delegate through a temporary endpoint view on the root.
	saved := b.endpoints
	b.endpoints = p.endpoints
	truePath, falsePath = b.Branch(spec)
	b.endpoints = saved
	p.endpoints = nil
	return truePath, falsePath
}

// Switch splits the sub-path's single endpoint multi-way, mirroring
// Builder.Switch.
func (p *Path) Switch(spec SwitchSpec) *SwitchPaths {
	b := p.root
	if b == nil || !b.usable("switch") {
		return &SwitchPaths{}
	}
	if len(p.endpoints) != 1 {
		b.fail("switch", "switch requires exactly one open endpoint")
		return &SwitchPaths{}
	}
	// Delegate through a temporary endpoint view on the root.
	saved := b.endpoints
	b.endpoints = p.endpoints
	sp := b.Switch(spec)
	b.endpoints = saved
	p.endpoints = nil
	return sp
}

// Build finalizes the session: every dangling endpoint is connected to END,
// the cycle detector validates the graph, and an immutable Workflow is
// produced. The builder is consumed and must not be reused.
func (b *Builder) Build() (*Workflow, error) {
	if b.built {
		return nil, &ConstructionError{Op: "build", Rule: ErrBuilderConsumed.Error()}
	}
	b.built = true
	if b.err != nil {
		return nil, b.err
	}
	if !b.started {
		return nil, &ConstructionError{Op: "build", Rule: "start must be called before build"}
	}

	// Finalize dangling endpoints (any node with no outgoing edge) to END.
	for _, name := range b.g.order {
		if !b.g.hasOutgoing(name) {
			b.g.addEdge(edge{from: name, kind: edgeLinear, to: END})
		}
	}

	if cycle := detectCycle(b.g); cycle != nil {
		return nil, cycle
	}

	return newWorkflow(b.g, b.cfg), nil
}

func firstConfig(cfg []NodeConfig) NodeConfig {
	if len(cfg) > 0 {
		return cfg[0]
	}
	return NodeConfig{}
}
