package agentgraph

import "time"

// Defaults for WorkflowConfig.
const (
	// DefaultTimeout is the per-attempt node deadline.
	DefaultTimeout = 30 * time.Second

	// DefaultRetries is the number of retries after the initial attempt.
	DefaultRetries = 2

	// DefaultMaxIterations bounds the engine loop. Compiled graphs are
	// acyclic, so this only trips on router misuse.
	DefaultMaxIterations = 1000

	// DefaultBackoffBase is the base of the exponential retry backoff:
	// the wait before retry n is DefaultBackoffBase << n.
	DefaultBackoffBase = 1 * time.Second
)

// WorkflowConfig carries the workflow-level execution configuration.
// Per-node NodeConfig values override these defaults.
//
// The recognized options are deliberately narrow; anything else belongs in
// Extra, which the engine passes through untouched.
type WorkflowConfig struct {
	// Strategy is the failure strategy applied once retries are exhausted.
	// Empty means Fallback.
	Strategy Strategy

	// Timeout is the per-attempt node deadline. Zero means DefaultTimeout.
	Timeout time.Duration

	// Retries is the number of retries after the initial attempt.
	// Nil means DefaultRetries; explicit zero disables retries.
	Retries *int

	// MaxIterations bounds the engine loop. Zero means DefaultMaxIterations.
	MaxIterations int

	// BackoffBase is the base of the exponential retry backoff.
	// Zero means DefaultBackoffBase. Tests shrink it to keep retries fast.
	BackoffBase time.Duration

	// Extra carries unrecognized options for callers that need passthrough.
	Extra map[string]any
}

// DefaultWorkflowConfig returns the default workflow configuration.
func DefaultWorkflowConfig() WorkflowConfig {
	retries := DefaultRetries
	return WorkflowConfig{
		Strategy:      Fallback,
		Timeout:       DefaultTimeout,
		Retries:       &retries,
		MaxIterations: DefaultMaxIterations,
		BackoffBase:   DefaultBackoffBase,
	}
}

// withDefaults fills unset fields with their defaults.
func (c WorkflowConfig) withDefaults() WorkflowConfig {
	if c.Strategy == "" {
		c.Strategy = Fallback
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retries == nil {
		retries := DefaultRetries
		c.Retries = &retries
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	return c
}

// nodeSettings is the effective supervisor configuration for one node:
// workflow defaults overridden by the node's NodeConfig.
type nodeSettings struct {
	timeout     time.Duration
	retries     int
	strategy    Strategy
	backoffBase time.Duration
}

// settingsFor resolves the effective configuration for n.
func (w *Workflow) settingsFor(n *node) nodeSettings {
	s := nodeSettings{
		timeout:     w.cfg.Timeout,
		retries:     *w.cfg.Retries,
		strategy:    w.cfg.Strategy,
		backoffBase: w.cfg.BackoffBase,
	}
	if n.config.Timeout > 0 {
		s.timeout = n.config.Timeout
	}
	if n.config.Retries != nil {
		s.retries = *n.config.Retries
	}
	if n.config.Strategy != "" && ValidStrategy(n.config.Strategy) {
		s.strategy = n.config.Strategy
	}
	return s
}
