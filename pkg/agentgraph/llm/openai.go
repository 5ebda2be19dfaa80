package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/memory"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/session"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tools"
)

// OpenAIClient implements Client using the OpenAI chat completions API.
type OpenAIClient struct {
	api      *openai.Client
	model    string
	sessions session.Store
	registry *tools.Registry
	mem      memory.Store
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithModel sets the default model.
func WithModel(model string) OpenAIOption {
	return func(c *OpenAIClient) { c.model = model }
}

// WithSessions sets the session-history store. When configured, calls that
// carry a SessionID read prior turns and append the new exchange.
func WithSessions(store session.Store) OpenAIOption {
	return func(c *OpenAIClient) { c.sessions = store }
}

// WithToolRegistry sets the registry used to execute tool calls when the
// call's Options carry no explicit tool specs.
func WithToolRegistry(registry *tools.Registry) OpenAIOption {
	return func(c *OpenAIClient) { c.registry = registry }
}

// WithMemory sets the store used to resolve @in-memory indirection tokens
// in prompts and tool-call arguments before dispatch.
func WithMemory(store memory.Store) OpenAIOption {
	return func(c *OpenAIClient) { c.mem = store }
}

// NewOpenAIClient creates an OpenAI-backed generation client.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		api:   openai.NewClient(apiKey),
		model: openai.GPT4oMini,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate implements Client. Tool calls returned by the model are resolved
// through the tool specs (or the configured registry) and fed back, up to
// maxToolIterations rounds.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	prompt = memory.Resolve(ctx, c.mem, prompt)

	model := opts.Model
	if model == "" {
		model = c.model
	}

	specs := opts.Tools
	if len(specs) == 0 && c.registry != nil {
		specs = c.registry.Specs()
	}
	byName := make(map[string]tools.Spec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}

	messages, err := c.history(ctx, opts.SessionID)
	if err != nil {
		return "", fmt.Errorf("load session history: %w", err)
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
			Tools:       toOpenAITools(specs),
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			if err := c.record(ctx, opts.SessionID, prompt, msg.Content); err != nil {
				return "", fmt.Errorf("record session history: %w", err)
			}
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			out := c.dispatch(ctx, byName, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("tool-call iteration cap (%d) reached", maxToolIterations)
}

// dispatch executes one tool call, applying memory indirection to its
// arguments first. Failures are reported back to the model as text rather
// than aborting the generation.
func (c *OpenAIClient) dispatch(ctx context.Context, byName map[string]tools.Spec, call openai.ToolCall) string {
	args := memory.Resolve(ctx, c.mem, call.Function.Arguments)

	if spec, ok := byName[call.Function.Name]; ok {
		out, err := spec.Fn(ctx, json.RawMessage(args))
		if err != nil {
			return fmt.Sprintf("tool %s failed: %v", call.Function.Name, err)
		}
		return out
	}
	if c.registry != nil {
		out, err := c.registry.Call(ctx, call.Function.Name, json.RawMessage(args))
		if err != nil {
			return fmt.Sprintf("tool %s failed: %v", call.Function.Name, err)
		}
		return out
	}
	return fmt.Sprintf("tool %s is not available", call.Function.Name)
}

// history loads the session's prior turns as chat messages.
func (c *OpenAIClient) history(ctx context.Context, sessionID string) ([]openai.ChatCompletionMessage, error) {
	if sessionID == "" || c.sessions == nil {
		return nil, nil
	}
	turns, err := c.sessions.History(ctx, sessionID)
	if err != nil {
		if err == session.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    t.Role,
			Content: t.Content,
		})
	}
	return messages, nil
}

// record appends the completed exchange to the session's history.
func (c *OpenAIClient) record(ctx context.Context, sessionID, prompt, reply string) error {
	if sessionID == "" || c.sessions == nil {
		return nil
	}
	return c.sessions.Append(ctx, sessionID,
		session.Turn{Role: openai.ChatMessageRoleUser, Content: prompt},
		session.Turn{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)
}

// toOpenAITools converts tool specs to the wire format.
func toOpenAITools(specs []tools.Spec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return out
}
