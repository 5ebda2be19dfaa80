/*
Package agentgraph compiles a directed graph of named execution units into
an executable agent workflow.

# Overview

agentgraph is a Go library for multi-step agent computations: a caller
describes the steps as a graph of nodes that each consume and partially
update a shared run state, and the library compiles that description into a
workflow with retry, timeout, and failure-handling semantics.

The core pieces:
  - A versioned run state with a deterministic per-field merge policy
  - A fluent, path-tracking builder with branch, switch, and merge
  - Compile-time validation (the graph must be acyclic)
  - A sequential execution engine that supervises every node with bounded
    exponential-backoff retry and a deadline race
  - A Plan -> Process -> Validate task-unit protocol for LLM-backed nodes

# Basic Usage

Build a workflow, compile it once, and invoke it per request:

	analyze := agentgraph.NewRunner("analyze", func(ctx agentgraph.Context, s agentgraph.State) (agentgraph.Update, error) {
	    return agentgraph.Update{Tasks: []string{"collect", "summarize"}}, nil
	})
	conclude := agentgraph.NewRunner("conclude", func(ctx agentgraph.Context, s agentgraph.State) (agentgraph.Update, error) {
	    return agentgraph.Update{Conclusion: agentgraph.Ptr("done")}, nil
	})

	wf, err := agentgraph.NewBuilder().
	    Start(analyze).
	    Then(conclude).
	    Build()
	if err != nil {
	    log.Fatal(err)
	}

	ctx := agentgraph.NewContext(context.Background())
	resp := wf.Invoke(ctx, agentgraph.Request{Objective: "summarize the report"})
	fmt.Println(resp.Conclusion)

Invoke never panics across the API boundary: a failed run returns a
Response whose Error field is populated.

# State Merging

Nodes return sparse Updates. The engine merges each Update into the run
state with a last-write-wins-if-present rule per field: slices replace the
old value only when non-empty, optional scalars only when non-nil. Appending
therefore means returning the full new slice:

	results := append(slices.Clone(s.ActionResults), "new result")
	return agentgraph.Update{ActionResults: results}, nil

# Splitting and Rejoining

Branch and Switch split the single open path; Merge rejoins:

	b := agentgraph.NewBuilder().Start(triage)
	hi, lo := b.Branch(agentgraph.BranchSpec{
	    Condition: func(s agentgraph.State) bool { return len(s.ActionResults) > 0 },
	    IfTrue:    escalate,
	    IfFalse:   archive,
	})
	wf, err := b.Merge(hi, lo).Then(report).Build()

Build finalizes dangling endpoints to END and rejects cyclic graphs with a
CycleError carrying the offending path.

# Failure Handling

Each node invocation races a configurable deadline (default 30s) and is
retried with exponential backoff (default 2 retries). Once the budget is
exhausted the strategy decides: FailFast aborts the run, Fallback (the
default) records an error-annotated result and keeps going.
*/
package agentgraph
