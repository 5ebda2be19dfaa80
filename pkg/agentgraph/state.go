package agentgraph

// State is the run-state record threaded through a single workflow run.
// Each run owns its own State; nodes never share one across runs.
//
// Nodes do not mutate State directly. They return a sparse Update which the
// engine merges with Apply. Objective is set once at run start and is not
// part of Update.
type State struct {
	// Objective is the caller-supplied goal for the run. Immutable.
	Objective string `json:"objective"`

	// Prompt is the text actually sent to generation calls.
	// It may be rewritten once by an early node.
	Prompt string `json:"prompt,omitempty"`

	// Tasks is the ordered task list. CurrentTaskIndex points into it.
	Tasks            []string `json:"tasks,omitempty"`
	CurrentTaskIndex int      `json:"current_task_index"`

	// ActionResults holds node outputs so far; ActionedTasks records which
	// task produced each result. The two are parallel:
	// len(ActionResults) == len(ActionedTasks).
	ActionResults []string `json:"action_results,omitempty"`
	ActionedTasks []string `json:"actioned_tasks,omitempty"`

	// LastActionResult is the most recent node output, if any.
	LastActionResult string `json:"last_action_result,omitempty"`

	ObjectiveAchieved bool `json:"objective_achieved"`

	// Conclusion is set by the terminal node.
	Conclusion string `json:"conclusion,omitempty"`

	// AgentPhaseHistory records which node executed at each step.
	// Used for context summarization in later prompts.
	AgentPhaseHistory []string `json:"agent_phase_history,omitempty"`
}

// Update is a sparse partial update returned by a node.
//
// The merge rule per field ("channel") is last-write-wins-if-present:
//   - slice fields replace the old value wholesale, but only when non-empty.
//     This is NOT an append; a node that wants to append must read the
//     current slice, copy it, and return the full new slice.
//   - pointer fields replace the old value only when non-nil.
//
// The zero Update is a no-op.
type Update struct {
	Prompt            *string  `json:"prompt,omitempty"`
	Tasks             []string `json:"tasks,omitempty"`
	CurrentTaskIndex  *int     `json:"current_task_index,omitempty"`
	ActionResults     []string `json:"action_results,omitempty"`
	ActionedTasks     []string `json:"actioned_tasks,omitempty"`
	LastActionResult  *string  `json:"last_action_result,omitempty"`
	ObjectiveAchieved *bool    `json:"objective_achieved,omitempty"`
	Conclusion        *string  `json:"conclusion,omitempty"`
	AgentPhaseHistory []string `json:"agent_phase_history,omitempty"`
}

// Ptr returns a pointer to v. Convenience for building Updates.
//
//	agentgraph.Update{Conclusion: agentgraph.Ptr("done")}
func Ptr[T any](v T) *T {
	return &v
}

// Apply merges u into s and returns the merged state.
// Merging the zero Update returns s unchanged.
func (s State) Apply(u Update) State {
	if u.Prompt != nil {
		s.Prompt = *u.Prompt
	}
	if len(u.Tasks) > 0 {
		s.Tasks = u.Tasks
	}
	if u.CurrentTaskIndex != nil {
		s.CurrentTaskIndex = *u.CurrentTaskIndex
	}
	if len(u.ActionResults) > 0 {
		s.ActionResults = u.ActionResults
	}
	if len(u.ActionedTasks) > 0 {
		s.ActionedTasks = u.ActionedTasks
	}
	if u.LastActionResult != nil {
		s.LastActionResult = *u.LastActionResult
	}
	if u.ObjectiveAchieved != nil {
		s.ObjectiveAchieved = *u.ObjectiveAchieved
	}
	if u.Conclusion != nil {
		s.Conclusion = *u.Conclusion
	}
	if len(u.AgentPhaseHistory) > 0 {
		s.AgentPhaseHistory = u.AgentPhaseHistory
	}
	return s
}

// NoConclusion is returned when a run ends without any node producing
// a conclusion or an action result, and when a run fails.
const NoConclusion = "No conclusion was reached."

// FinalConclusion resolves the run's conclusion:
// Conclusion if set, else LastActionResult, else the last action result,
// else NoConclusion.
func (s State) FinalConclusion() string {
	if s.Conclusion != "" {
		return s.Conclusion
	}
	if s.LastActionResult != "" {
		return s.LastActionResult
	}
	if n := len(s.ActionResults); n > 0 {
		return s.ActionResults[n-1]
	}
	return NoConclusion
}
