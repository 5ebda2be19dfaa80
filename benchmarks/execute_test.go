package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
)

// noop does minimal work to measure framework overhead.
func noop(name string) agentgraph.Runner {
	return agentgraph.NewRunner(name, func(ctx agentgraph.Context, s agentgraph.State) (agentgraph.Update, error) {
		return agentgraph.Update{}, nil
	})
}

// buildLinear compiles an n-node linear workflow of no-op units.
func buildLinear(b *testing.B, n int) *agentgraph.Workflow {
	builder := agentgraph.NewBuilder().Start(noop("unit_0"))
	for i := 1; i < n; i++ {
		builder.Then(noop(fmt.Sprintf("unit_%d", i)))
	}
	wf, err := builder.Build()
	if err != nil {
		b.Fatal(err)
	}
	return wf
}

func benchmarkLinear(b *testing.B, n int) {
	wf := buildLinear(b, n)
	ctx := agentgraph.NewContext(context.Background())
	req := agentgraph.Request{Objective: "bench"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wf.Invoke(ctx, req)
	}
}

// BenchmarkInvoke_Linear_5 runs a 5-node linear workflow.
func BenchmarkInvoke_Linear_5(b *testing.B) { benchmarkLinear(b, 5) }

// BenchmarkInvoke_Linear_10 runs a 10-node linear workflow.
func BenchmarkInvoke_Linear_10(b *testing.B) { benchmarkLinear(b, 10) }

// BenchmarkInvoke_Linear_50 runs a 50-node linear workflow.
func BenchmarkInvoke_Linear_50(b *testing.B) { benchmarkLinear(b, 50) }

// BenchmarkInvoke_Branching runs a workflow with a conditional split.
func BenchmarkInvoke_Branching(b *testing.B) {
	builder := agentgraph.NewBuilder().Start(noop("seed"))
	tp, fp := builder.Branch(agentgraph.BranchSpec{
		Condition: func(s agentgraph.State) bool { return len(s.Prompt)%2 == 0 },
		IfTrue:    noop("even"),
		IfFalse:   noop("odd"),
	})
	wf, err := builder.Merge(tp, fp).Then(noop("join")).Build()
	if err != nil {
		b.Fatal(err)
	}

	ctx := agentgraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wf.Invoke(ctx, agentgraph.Request{
			Objective: "bench",
			Prompt:    fmt.Sprintf("p%d", i),
		})
	}
}

// BenchmarkInvoke_StateMerge measures a workflow whose units grow the state.
func BenchmarkInvoke_StateMerge(b *testing.B) {
	appender := func(name string) agentgraph.Runner {
		return agentgraph.NewRunner(name, func(ctx agentgraph.Context, s agentgraph.State) (agentgraph.Update, error) {
			results := make([]string, len(s.ActionResults)+1)
			copy(results, s.ActionResults)
			results[len(results)-1] = name
			return agentgraph.Update{
				ActionResults:    results,
				LastActionResult: agentgraph.Ptr(name),
			}, nil
		})
	}
	builder := agentgraph.NewBuilder().Start(appender("unit_0"))
	for i := 1; i < 10; i++ {
		builder.Then(appender(fmt.Sprintf("unit_%d", i)))
	}
	wf, err := builder.Build()
	if err != nil {
		b.Fatal(err)
	}

	ctx := agentgraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wf.Invoke(ctx, agentgraph.Request{Objective: "bench"})
	}
}

// BenchmarkInvoke_FallbackPath measures the supervisor's absorbed-failure path.
func BenchmarkInvoke_FallbackPath(b *testing.B) {
	failing := agentgraph.NewRunner("bad", func(ctx agentgraph.Context, s agentgraph.State) (agentgraph.Update, error) {
		return agentgraph.Update{}, fmt.Errorf("always fails")
	})
	wf, err := agentgraph.NewBuilder().
		Start(failing).
		Then(noop("after")).
		WithConfig(agentgraph.WorkflowConfig{
			Retries:     agentgraph.Ptr(0),
			BackoffBase: time.Nanosecond,
		}).
		Build()
	if err != nil {
		b.Fatal(err)
	}

	ctx := agentgraph.NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wf.Invoke(ctx, agentgraph.Request{Objective: "bench"})
	}
}
