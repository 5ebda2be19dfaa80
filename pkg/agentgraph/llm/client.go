// Package llm defines the generation backend collaborator and its adapters.
//
// The engine and task units talk to the backend exclusively through the
// Client interface; the OpenAI adapter and the scripted Mock are the two
// shipped implementations.
package llm

import (
	"context"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tools"
)

// maxToolIterations caps the tool-call resolution loop per Generate call,
// bounding cost and runaway model loops.
const maxToolIterations = 5

// Options configures one generation call.
type Options struct {
	// Provider names the backing provider, for adapters that multiplex.
	Provider string

	// Model overrides the adapter's default model.
	Model string

	// MaxTokens bounds the completion length. Zero means provider default.
	MaxTokens int

	// Temperature, when set, overrides the provider default.
	Temperature float32

	// Tools are offered to the model for tool calls. When empty, adapters
	// fall back to their configured registry.
	Tools []tools.Spec

	// SessionID attaches the call to a conversation session: prior history
	// is prepended and this exchange is appended afterwards.
	SessionID string
}

// Client is the generation backend contract: given a text prompt, produce a
// text response, resolving intermediate tool calls up to a fixed iteration
// cap.
type Client interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}
