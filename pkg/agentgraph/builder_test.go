package agentgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder_LinearChain verifies Start/Then builds a linear topology with
// the tail connected to END.
func TestBuilder_LinearChain(t *testing.T) {
	wf, err := NewBuilder().
		Start(passthrough("a")).
		Then(passthrough("b")).
		Then(passthrough("c")).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "a", wf.EntryPoint())
	assert.Equal(t, []string{"a", "b", "c"}, wf.NodeNames())
	assert.Equal(t, []string{"b"}, wf.Successors("a"))
	assert.Equal(t, []string{"c"}, wf.Successors("b"))
	assert.Empty(t, wf.Successors("c")) // END is not reported
}

// TestBuilder_Chaining verifies the fluent API returns the same session.
func TestBuilder_Chaining(t *testing.T) {
	b := NewBuilder()
	assert.Same(t, b, b.Start(passthrough("a")))
	assert.Same(t, b, b.Then(passthrough("b")))
}

// TestBuilder_NameNormalization verifies whitespace in unit names collapses
// to underscores when deriving the node identity.
func TestBuilder_NameNormalization(t *testing.T) {
	wf, err := NewBuilder().
		Start(passthrough("  plan   next step ")).
		Build()

	require.NoError(t, err)
	assert.True(t, wf.HasNode("plan_next_step"))
}

// TestBuilder_ReaddingSameNameIsIdempotent verifies that adding a unit whose
// derived name already exists keeps the first registration.
func TestBuilder_ReaddingSameNameIsIdempotent(t *testing.T) {
	var first, second []string
	a := makeTrackingRunner("a", &first)
	dup := makeTrackingRunner("a", &second)

	wf, err := NewBuilder().
		Start(a).
		Then(dup). // same derived name: existing node kept, no self edge
		Build()
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, wf.NodeNames())

	resp := wf.Invoke(testCtx(), Request{Objective: "goal"})
	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{"a"}, first)
	assert.Empty(t, second)
}

// TestBuilder_StartTwice fails construction.
func TestBuilder_StartTwice(t *testing.T) {
	_, err := NewBuilder().
		Start(passthrough("a")).
		Start(passthrough("b")).
		Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "start", cerr.Op)
}

// TestBuilder_ThenBeforeStart fails construction.
func TestBuilder_ThenBeforeStart(t *testing.T) {
	_, err := NewBuilder().
		Then(passthrough("a")).
		Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "then", cerr.Op)
}

// TestBuilder_BuildWithoutStart fails construction.
func TestBuilder_BuildWithoutStart(t *testing.T) {
	_, err := NewBuilder().Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "build", cerr.Op)
}

// TestBuilder_NilRunner fails construction.
func TestBuilder_NilRunner(t *testing.T) {
	_, err := NewBuilder().Start(nil).Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "nil")
}

// TestBuilder_EmptyName fails construction.
func TestBuilder_EmptyName(t *testing.T) {
	_, err := NewBuilder().Start(passthrough("   ")).Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "empty")
}

// TestBuilder_ReservedNames fails construction for START/END spellings.
func TestBuilder_ReservedNames(t *testing.T) {
	testCases := []string{"end", "END", "End", END, "start", "START", START}

	for _, name := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := NewBuilder().Start(passthrough(name)).Build()
			var cerr *ConstructionError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Rule, "reserved")
		})
	}
}

// TestBuilder_FirstErrorSticks verifies later misuse does not mask the
// first recorded violation.
func TestBuilder_FirstErrorSticks(t *testing.T) {
	b := NewBuilder().
		Then(passthrough("a")). // first violation: then before start
		Start(nil)              // would be a different violation

	_, err := b.Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "then", cerr.Op)
}

// TestBuilder_BranchSplitsAndClearsEndpoints verifies Then after Branch
// without a Merge fails.
func TestBuilder_BranchSplitsAndClearsEndpoints(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	b.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("t"),
		IfFalse:   passthrough("f"),
	})

	_, err := b.Then(passthrough("c")).Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "merge")
}

// TestBuilder_BranchMergeThen verifies the diamond topology: split, extend
// one side, merge, continue linearly.
func TestBuilder_BranchMergeThen(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	truePath, falsePath := b.Branch(BranchSpec{
		Condition: func(s State) bool { return len(s.ActionResults) > 0 },
		IfTrue:    passthrough("t"),
		IfFalse:   passthrough("f"),
	})
	truePath.Then(passthrough("t2"))

	wf, err := b.Merge(truePath, falsePath).
		Then(passthrough("join")).
		Build()

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "f", "join", "t", "t2"}, wf.NodeNames())
	assert.ElementsMatch(t, []string{"t", "f"}, wf.Successors("a"))
	assert.Equal(t, []string{"t2"}, wf.Successors("t"))
	assert.Equal(t, []string{"join"}, wf.Successors("t2"))
	assert.Equal(t, []string{"join"}, wf.Successors("f"))
}

// TestBuilder_BranchNilCondition fails construction.
func TestBuilder_BranchNilCondition(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	b.Branch(BranchSpec{IfTrue: passthrough("t"), IfFalse: passthrough("f")})

	_, err := b.Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "condition")
}

// TestBuilder_BranchRequiresSingleEndpoint fails when the endpoint set was
// already cleared by a split.
func TestBuilder_BranchRequiresSingleEndpoint(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	b.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("t"),
		IfFalse:   passthrough("f"),
	})
	b.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("t2"),
		IfFalse:   passthrough("f2"),
	})

	_, err := b.Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "exactly one")
}

// TestBuilder_SwitchPathsAndMerge verifies the multi-way split with a
// default destination and a full rejoin.
func TestBuilder_SwitchPathsAndMerge(t *testing.T) {
	b := NewBuilder().Start(passthrough("route"))
	paths := b.Switch(SwitchSpec{
		Select: func(s State) string { return s.LastActionResult },
		Cases: map[string]Runner{
			"x": passthrough("x_handler"),
			"y": passthrough("y_handler"),
		},
		Default: passthrough("z_handler"),
	})

	wf, err := b.Merge(paths.All()...).
		Then(passthrough("join")).
		Build()

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x_handler", "y_handler", "z_handler"}, wf.Successors("route"))
	assert.Equal(t, []string{"join"}, wf.Successors("x_handler"))
	assert.Equal(t, []string{"join"}, wf.Successors("z_handler"))
}

// TestBuilder_SwitchWithoutCases fails construction.
func TestBuilder_SwitchWithoutCases(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	b.Switch(SwitchSpec{Select: func(State) string { return "" }})

	_, err := b.Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "at least one case")
}

// TestBuilder_SwitchNilSelector fails construction.
func TestBuilder_SwitchNilSelector(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	b.Switch(SwitchSpec{Cases: map[string]Runner{"x": passthrough("x")}})

	_, err := b.Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "selector")
}

// TestSwitchPaths_UnknownLabel returns an inert path instead of nil.
func TestSwitchPaths_UnknownLabel(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	paths := b.Switch(SwitchSpec{
		Select: func(State) string { return "x" },
		Cases:  map[string]Runner{"x": passthrough("x")},
	})

	p := paths.Case("nope")
	require.NotNil(t, p)
	assert.Empty(t, p.endpoints)

	d := paths.Default()
	require.NotNil(t, d)
	assert.Empty(t, d.endpoints)
}

// TestPath_SwitchNestedUnderBranch splits a branch arm multi-way without
// merging back to the root first.
func TestPath_SwitchNestedUnderBranch(t *testing.T) {
	b := NewBuilder().Start(passthrough("intake"))
	urgent, normal := b.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("triage"),
		IfFalse:   passthrough("queue"),
	})
	sub := urgent.Switch(SwitchSpec{
		Select: func(s State) string { return s.LastActionResult },
		Cases: map[string]Runner{
			"page": passthrough("page_oncall"),
			"mail": passthrough("mail_team"),
		},
	})

	wf, err := b.Merge(append(sub.All(), normal)...).
		Then(passthrough("record")).
		Build()

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"page_oncall", "mail_team"}, wf.Successors("triage"))
	assert.Equal(t, []string{"record"}, wf.Successors("page_oncall"))
	assert.Equal(t, []string{"record"}, wf.Successors("mail_team"))
	assert.Equal(t, []string{"record"}, wf.Successors("queue"))
}

// TestPath_SwitchWithoutEndpoint fails construction on a consumed path.
func TestPath_SwitchWithoutEndpoint(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	tp, _ := b.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("t"),
		IfFalse:   passthrough("f"),
	})
	tp.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("tt"),
		IfFalse:   passthrough("tf"),
	})

	// tp was consumed by its own branch; splitting it again is invalid.
	tp.Switch(SwitchSpec{
		Select: func(State) string { return "x" },
		Cases:  map[string]Runner{"x": passthrough("x")},
	})

	_, err := b.Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "exactly one open endpoint")
}

// TestBuilder_MergeForeignPath rejects paths from another session.
func TestBuilder_MergeForeignPath(t *testing.T) {
	other := NewBuilder().Start(passthrough("a"))
	tp, _ := other.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("t"),
		IfFalse:   passthrough("f"),
	})

	b := NewBuilder().Start(passthrough("x"))
	_, err := b.Merge(tp).Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "merge", cerr.Op)
}

// TestBuilder_MergeNoPaths fails construction.
func TestBuilder_MergeNoPaths(t *testing.T) {
	_, err := NewBuilder().Start(passthrough("a")).Merge().Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "at least one path")
}

// TestBuilder_WithConfig_InvalidStrategy fails construction.
func TestBuilder_WithConfig_InvalidStrategy(t *testing.T) {
	_, err := NewBuilder().
		Start(passthrough("a")).
		WithConfig(WorkflowConfig{Strategy: "explode"}).
		Build()

	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Rule, "strategy")
}

// TestBuilder_WithConfig_FillsDefaults applies defaults to unset fields.
func TestBuilder_WithConfig_FillsDefaults(t *testing.T) {
	wf, err := NewBuilder().
		Start(passthrough("a")).
		WithConfig(WorkflowConfig{Strategy: FailFast}).
		Build()

	require.NoError(t, err)
	cfg := wf.Config()
	assert.Equal(t, FailFast, cfg.Strategy)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	require.NotNil(t, cfg.Retries)
	assert.Equal(t, DefaultRetries, *cfg.Retries)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
}

// TestBuilder_BuildTwice fails the second call.
func TestBuilder_BuildTwice(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))

	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "build", cerr.Op)
}

// TestBuilder_UseAfterBuild fails construction on the consumed session.
func TestBuilder_UseAfterBuild(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	_, err := b.Build()
	require.NoError(t, err)

	b.Then(passthrough("b"))
	_, err = b.Build()
	require.Error(t, err)
}

// TestWorkflow_Introspection covers the read-only accessors.
func TestWorkflow_Introspection(t *testing.T) {
	wf, err := NewBuilder().
		Start(passthrough("b_node")).
		Then(passthrough("a_node")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "b_node", wf.EntryPoint())
	assert.Equal(t, []string{"a_node", "b_node"}, wf.NodeNames()) // sorted
	assert.True(t, wf.HasNode("a_node"))
	assert.False(t, wf.HasNode("missing"))
	assert.Empty(t, wf.Successors("missing"))
}
