package agentgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestState_Apply_ZeroUpdate verifies the zero update is an identity merge.
func TestState_Apply_ZeroUpdate(t *testing.T) {
	s := State{
		Objective:         "goal",
		Prompt:            "prompt",
		Tasks:             []string{"a", "b"},
		CurrentTaskIndex:  1,
		ActionResults:     []string{"r1"},
		ActionedTasks:     []string{"a"},
		LastActionResult:  "r1",
		ObjectiveAchieved: true,
		Conclusion:        "done",
		AgentPhaseHistory: []string{"plan"},
	}

	assert.Equal(t, s, s.Apply(Update{}))
}

// TestState_Apply_EmptySliceDoesNotOverwrite verifies empty slices in an
// update leave the existing values intact.
func TestState_Apply_EmptySliceDoesNotOverwrite(t *testing.T) {
	s := State{
		Tasks:         []string{"a", "b"},
		ActionResults: []string{"r1"},
	}

	merged := s.Apply(Update{
		Tasks:         []string{},
		ActionResults: nil,
	})

	assert.Equal(t, []string{"a", "b"}, merged.Tasks)
	assert.Equal(t, []string{"r1"}, merged.ActionResults)
}

// TestState_Apply_NonEmptySliceReplacesWholesale verifies slice updates
// replace, not append.
func TestState_Apply_NonEmptySliceReplacesWholesale(t *testing.T) {
	s := State{ActionResults: []string{"r1", "r2"}}

	merged := s.Apply(Update{ActionResults: []string{"r3"}})

	assert.Equal(t, []string{"r3"}, merged.ActionResults)
}

// TestState_Apply_PointerFields verifies scalar channels merge only when set.
func TestState_Apply_PointerFields(t *testing.T) {
	s := State{
		Prompt:           "old",
		CurrentTaskIndex: 3,
		LastActionResult: "old result",
	}

	merged := s.Apply(Update{
		Prompt:            Ptr("new"),
		ObjectiveAchieved: Ptr(true),
	})

	assert.Equal(t, "new", merged.Prompt)
	assert.True(t, merged.ObjectiveAchieved)
	// Unset pointers keep the old values.
	assert.Equal(t, 3, merged.CurrentTaskIndex)
	assert.Equal(t, "old result", merged.LastActionResult)
}

// TestState_Apply_ObjectiveImmutable verifies Update has no channel for the
// objective: merging never changes it.
func TestState_Apply_ObjectiveImmutable(t *testing.T) {
	s := State{Objective: "goal"}

	merged := s.Apply(Update{
		Prompt:     Ptr("rewritten"),
		Conclusion: Ptr("done"),
	})

	assert.Equal(t, "goal", merged.Objective)
}

// TestState_Apply_DoesNotMutateReceiver verifies Apply is value semantics.
func TestState_Apply_DoesNotMutateReceiver(t *testing.T) {
	s := State{Prompt: "old", Tasks: []string{"a"}}

	_ = s.Apply(Update{Prompt: Ptr("new"), Tasks: []string{"b"}})

	assert.Equal(t, "old", s.Prompt)
	assert.Equal(t, []string{"a"}, s.Tasks)
}

// TestState_FinalConclusion covers the conclusion resolution order.
func TestState_FinalConclusion(t *testing.T) {
	testCases := []struct {
		name  string
		state State
		want  string
	}{
		{
			name:  "conclusion wins",
			state: State{Conclusion: "c", LastActionResult: "l", ActionResults: []string{"r"}},
			want:  "c",
		},
		{
			name:  "last action result second",
			state: State{LastActionResult: "l", ActionResults: []string{"r"}},
			want:  "l",
		},
		{
			name:  "last of action results third",
			state: State{ActionResults: []string{"r1", "r2"}},
			want:  "r2",
		},
		{
			name:  "fallback string when nothing set",
			state: State{Objective: "goal"},
			want:  NoConclusion,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.FinalConclusion())
		})
	}
}

// TestPtr verifies the pointer helper.
func TestPtr(t *testing.T) {
	p := Ptr("x")
	assert.NotNil(t, p)
	assert.Equal(t, "x", *p)

	n := Ptr(7)
	assert.Equal(t, 7, *n)
}
