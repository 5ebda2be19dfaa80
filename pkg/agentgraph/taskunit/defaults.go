package taskunit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// genOptions maps the unit's Config onto generation options.
func genOptions(ctx agentgraph.Context, cfg Config) llm.Options {
	return llm.Options{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		SessionID: ctx.SessionID(),
	}
}

// defaultPlan asks the generation backend whether the current task can be
// executed and how. Any generation or parse failure yields the fixed
// cannot-execute plan.
func defaultPlan(ctx agentgraph.Context, s agentgraph.State, cfg Config) (PlanResult, error) {
	failed := PlanResult{
		CanExecute: false,
		Plan:       "Failed to generate a plan",
		Reason:     "Error in planning phase",
	}

	client := ctx.LLM()
	if client == nil {
		return failed, nil
	}

	prompt := resolve(ctx, contextPrompt(s, cfg))
	raw, err := client.Generate(ctx, prompt, genOptions(ctx, cfg))
	if err != nil {
		return failed, nil
	}

	var plan PlanResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &plan); err != nil {
		return failed, nil
	}
	return plan, nil
}

// contextPrompt builds the planning prompt: the objective, a window of the
// most recent phase-history/result pairs (each result truncated to the
// configured budget), the current task, and the required response shape.
// The overall objective is restated on the first invocation.
func contextPrompt(s agentgraph.State, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Objective: %s\n", s.Objective)
	if len(s.AgentPhaseHistory) == 0 {
		fmt.Fprintf(&b, "This is the first step toward the objective above.\n")
	}

	pairs := min(cfg.HistoryWindow, min(len(s.AgentPhaseHistory), len(s.ActionResults)))
	if pairs > 0 {
		b.WriteString("\nRecent steps:\n")
		histStart := len(s.AgentPhaseHistory) - pairs
		resStart := len(s.ActionResults) - pairs
		for i := 0; i < pairs; i++ {
			fmt.Fprintf(&b, "- %s: %s\n",
				s.AgentPhaseHistory[histStart+i],
				truncate(s.ActionResults[resStart+i], cfg.ResultBudget))
		}
	}

	if s.CurrentTaskIndex >= 0 && s.CurrentTaskIndex < len(s.Tasks) {
		fmt.Fprintf(&b, "\nCurrent task: %s\n", s.Tasks[s.CurrentTaskIndex])
	}

	b.WriteString("\nDecide whether the next step can be executed and plan it.\n")
	b.WriteString(`Respond with JSON only, exactly this shape: {"canExecute": boolean, "plan": string, "reason": string}`)
	return b.String()
}

// defaultProcess asks the generation backend to carry out the planned task.
// When a knowledge base is configured, retrieval-augmentation guidance is
// injected into the prompt.
func defaultProcess(ctx agentgraph.Context, _ agentgraph.State, plan PlanResult, cfg Config) (string, error) {
	client := ctx.LLM()
	if client == nil {
		return "", fmt.Errorf("no generation backend configured")
	}

	var b strings.Builder
	b.WriteString("Carry out the following task and reply with the outcome.\n\n")
	fmt.Fprintf(&b, "Task: %s\n", plan.Plan)
	if cfg.KnowledgeBase != "" {
		fmt.Fprintf(&b, "\nGround your answer in the %q knowledge base: retrieve the relevant passages first and cite what you used.\n", cfg.KnowledgeBase)
	}

	return client.Generate(ctx, resolve(ctx, b.String()), genOptions(ctx, cfg))
}

// defaultValidate asks the generation backend to judge the result leniently.
// A generation or parse failure defaults to confirmed.
func defaultValidate(ctx agentgraph.Context, _ agentgraph.State, result string, cfg Config) (ValidationResult, error) {
	confirmed := ValidationResult{Status: StatusConfirmed}

	client := ctx.LLM()
	if client == nil {
		return confirmed, nil
	}

	prompt := fmt.Sprintf(
		"Judge leniently whether the following task outcome is acceptable. "+
			"Minor imperfections are acceptable.\n\nOutcome:\n%s\n\n"+
			`Respond with JSON only, exactly this shape: {"status": "confirmed" or "error", "reason": string}`,
		truncate(result, cfg.ResultBudget*2))

	raw, err := client.Generate(ctx, prompt, genOptions(ctx, cfg))
	if err != nil {
		return confirmed, nil
	}

	var v ValidationResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &v); err != nil {
		return confirmed, nil
	}
	if v.Status != StatusConfirmed && v.Status != StatusError {
		return confirmed, nil
	}
	return v, nil
}
