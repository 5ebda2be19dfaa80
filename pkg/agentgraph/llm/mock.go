package llm

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted Client for tests and examples. Responses are returned
// in order; every prompt is recorded.
type Mock struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

// NewMock creates a mock that replays the given responses in order.
// Once exhausted, the last response is repeated.
func NewMock(responses ...string) *Mock {
	return &Mock{responses: responses}
}

// FailWith queues an error before the scripted responses: the first
// len(errs) calls fail, then scripted responses resume.
func (m *Mock) FailWith(errs ...error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
	return m
}

// Generate implements Client.
func (m *Mock) Generate(_ context.Context, prompt string, _ Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	call := m.calls
	m.calls++

	if call < len(m.errs) {
		return "", m.errs[call]
	}
	idx := call - len(m.errs)
	if len(m.responses) == 0 {
		return "", fmt.Errorf("mock has no scripted responses")
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// Prompts returns every prompt seen so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Calls returns the number of Generate calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
