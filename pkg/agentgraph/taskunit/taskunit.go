// Package taskunit implements the Plan -> Process -> Validate execution
// contract on top of a single workflow node.
//
// Each phase is overridable through Config; the defaults ask the run's
// generation backend. A unit never fails its node: phase errors are converted
// to failure strings recorded in the run state, so the workflow keeps moving.
package taskunit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/memory"
)

// PlanResult is the outcome of the Plan phase.
type PlanResult struct {
	CanExecute bool   `json:"canExecute"`
	Plan       string `json:"plan"`
	Reason     string `json:"reason,omitempty"`
}

// Validation statuses.
const (
	StatusConfirmed = "confirmed"
	StatusError     = "error"
)

// ValidationResult is the outcome of the Validate phase.
type ValidationResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Phase functions. Each receives the unit's Config so overrides can reuse
// its knobs.
type (
	// PlanFunc decides whether and how to execute the current task.
	PlanFunc func(ctx agentgraph.Context, s agentgraph.State, cfg Config) (PlanResult, error)

	// ProcessFunc carries out the planned task and returns free text.
	ProcessFunc func(ctx agentgraph.Context, s agentgraph.State, plan PlanResult, cfg Config) (string, error)

	// ValidateFunc judges the process result.
	ValidateFunc func(ctx agentgraph.Context, s agentgraph.State, result string, cfg Config) (ValidationResult, error)
)

// Defaults for Config.
const (
	// DefaultHistoryWindow is how many phase-history/result pairs the
	// planning prompt includes.
	DefaultHistoryWindow = 3

	// DefaultResultBudget is the character budget each included result is
	// truncated to.
	DefaultResultBudget = 500
)

// Config configures a Unit. Zero values take defaults; nil phase functions
// take the LLM-backed defaults.
type Config struct {
	// HistoryWindow is the number of recent phase/result pairs included in
	// the planning prompt. Zero means DefaultHistoryWindow.
	HistoryWindow int

	// ResultBudget truncates each included result text to this many
	// characters. Zero means DefaultResultBudget.
	ResultBudget int

	// Provider, Model, and MaxTokens flow into every generation call the
	// default phases make.
	Provider  string
	Model     string
	MaxTokens int

	// KnowledgeBase, when non-empty, injects retrieval-augmentation
	// guidance into the Process prompt.
	KnowledgeBase string

	// Phase overrides.
	Plan     PlanFunc
	Process  ProcessFunc
	Validate ValidateFunc
}

func (c Config) withDefaults() Config {
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
	if c.ResultBudget <= 0 {
		c.ResultBudget = DefaultResultBudget
	}
	if c.Plan == nil {
		c.Plan = defaultPlan
	}
	if c.Process == nil {
		c.Process = defaultProcess
	}
	if c.Validate == nil {
		c.Validate = defaultValidate
	}
	return c
}

// Unit is a three-phase execution unit. It implements agentgraph.Runner.
type Unit struct {
	name string
	cfg  Config
}

// Compile-time interface check.
var _ agentgraph.Runner = (*Unit)(nil)

// New creates a task unit with the given name.
func New(name string, cfg ...Config) *Unit {
	c := Config{}
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &Unit{name: name, cfg: c.withDefaults()}
}

// Name implements agentgraph.Runner.
func (u *Unit) Name() string { return u.name }

// Run implements agentgraph.Runner. It executes Plan, then - when the plan
// allows - Process and Validate, and records the outcome:
// the planned task description goes to ActionedTasks, the process result to
// ActionResults, and the unit's name is appended to AgentPhaseHistory.
func (u *Unit) Run(ctx agentgraph.Context, s agentgraph.State) (agentgraph.Update, error) {
	cfg := u.cfg

	plan, err := cfg.Plan(ctx, s, cfg)
	if err != nil {
		plan = PlanResult{
			CanExecute: false,
			Plan:       "Failed to generate a plan",
			Reason:     "Error in planning phase",
		}
	}

	var result string
	if !plan.CanExecute {
		reason := plan.Reason
		if reason == "" {
			reason = "no reason given"
		}
		result = fmt.Sprintf("Task could not be executed: %s", reason)
	} else {
		result = u.process(ctx, s, plan, cfg)

		// Validation bias: any failure to validate counts as confirmed.
		// Workflow progression is preferred over strict correctness here.
		v, verr := cfg.Validate(ctx, s, result, cfg)
		if verr != nil {
			v = ValidationResult{Status: StatusConfirmed}
		}
		if v.Status == StatusError {
			result = fmt.Sprintf("%s [validation failed: %s]", result, v.Reason)
		}
	}

	planned := plan.Plan
	if planned == "" {
		planned = u.currentTask(s)
	}

	results := append(slices.Clone(s.ActionResults), result)
	actioned := append(slices.Clone(s.ActionedTasks), planned)
	history := append(slices.Clone(s.AgentPhaseHistory), u.name)

	return agentgraph.Update{
		ActionResults:     results,
		ActionedTasks:     actioned,
		LastActionResult:  &result,
		AgentPhaseHistory: history,
		CurrentTaskIndex:  agentgraph.Ptr(s.CurrentTaskIndex + 1),
	}, nil
}

// process runs the Process phase, converting panics and errors into failure
// strings rather than propagating them.
func (u *Unit) process(ctx agentgraph.Context, s agentgraph.State, plan PlanResult, cfg Config) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("Task failed: panic: %v", r)
		}
	}()
	out, err := cfg.Process(ctx, s, plan, cfg)
	if err != nil {
		return fmt.Sprintf("Task failed: %v", err)
	}
	return out
}

// currentTask returns the task the run is pointing at, or the unit's name
// when the task list is exhausted or empty.
func (u *Unit) currentTask(s agentgraph.State) string {
	if s.CurrentTaskIndex >= 0 && s.CurrentTaskIndex < len(s.Tasks) {
		return s.Tasks[s.CurrentTaskIndex]
	}
	return u.name
}

// resolve applies memory indirection to text when the run has a memory
// store configured.
func resolve(ctx agentgraph.Context, text string) string {
	return memory.Resolve(ctx, ctx.Memory(), text)
}

// truncate limits s to budget runes, appending an ellipsis when cut.
func truncate(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + "..."
}

// stripCodeFences removes a surrounding Markdown code fence, with or
// without a language tag, from model output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
