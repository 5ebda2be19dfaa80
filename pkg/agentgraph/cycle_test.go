package agentgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuild_RejectsBranchCycle verifies a branch edge routing back to an
// earlier node fails compilation with the offending path.
func TestBuild_RejectsBranchCycle(t *testing.T) {
	a := passthrough("a")
	b := NewBuilder().Start(a).Then(passthrough("b"))
	b.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    a, // back to the entry node
		IfFalse:   passthrough("c"),
	})

	wf, err := b.Build()
	require.Nil(t, wf)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
	assert.Equal(t, "cycle detected: a -> b -> a", cycle.Error())
}

// TestBuild_RejectsSwitchCycle verifies a switch case routing back fails
// compilation.
func TestBuild_RejectsSwitchCycle(t *testing.T) {
	a := passthrough("a")
	b := NewBuilder().Start(a).Then(passthrough("b")).Then(passthrough("c"))
	b.Switch(SwitchSpec{
		Select: func(State) string { return "done" },
		Cases: map[string]Runner{
			"back": a,
			"done": passthrough("d"),
		},
	})

	_, err := b.Build()
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assertCyclePath(t, cycle.Path)
}

// TestBuild_CyclePathProperty verifies the reported path is a real cycle:
// it starts and ends at the same node and every hop follows an edge the
// graph actually has.
func TestBuild_CyclePathProperty(t *testing.T) {
	a := passthrough("a")
	mid := passthrough("mid")
	b := NewBuilder().Start(a).Then(mid)
	b.Branch(BranchSpec{
		Condition: func(State) bool { return false },
		IfTrue:    passthrough("exit"),
		IfFalse:   mid, // minimal cycle excludes a
	})

	_, err := b.Build()
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assertCyclePath(t, cycle.Path)
	// The reported cycle is minimal: "a" feeds the cycle but is not on it.
	assert.NotContains(t, cycle.Path, "a")
}

// TestBuild_AcceptsDiamond verifies a split that rejoins is not a cycle.
func TestBuild_AcceptsDiamond(t *testing.T) {
	b := NewBuilder().Start(passthrough("a"))
	tp, fp := b.Branch(BranchSpec{
		Condition: func(State) bool { return true },
		IfTrue:    passthrough("t"),
		IfFalse:   passthrough("f"),
	})

	wf, err := b.Merge(tp, fp).Then(passthrough("join")).Build()
	require.NoError(t, err)
	assert.NotNil(t, wf)
}

// TestBuild_AcceptsSingleNode verifies the trivial graph compiles.
func TestBuild_AcceptsSingleNode(t *testing.T) {
	wf, err := NewBuilder().Start(passthrough("only")).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, wf.NodeNames())
}

// assertCyclePath checks the first==last shape of a reported cycle.
func assertCyclePath(t *testing.T, path []string) {
	t.Helper()
	require.GreaterOrEqual(t, len(path), 2)
	assert.Equal(t, path[0], path[len(path)-1])
	// Interior nodes appear exactly once.
	seen := make(map[string]int)
	for _, n := range path[:len(path)-1] {
		seen[n]++
	}
	for n, c := range seen {
		assert.Equalf(t, 1, c, "node %s repeats inside the cycle path", n)
	}
}
