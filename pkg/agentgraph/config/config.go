// Package config loads workflow configuration from YAML or JSON files into
// the explicit agentgraph.WorkflowConfig struct.
//
// Recognized keys: errorStrategy, timeout (milliseconds), retries,
// maxIterations. Unrecognized keys are preserved in Extra for callers that
// need passthrough; they are never interpreted by the engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
)

// FromFile loads workflow configuration from a file, auto-detecting format
// by extension. Supported extensions: .yaml, .yml, .json
func FromFile(path string) (agentgraph.WorkflowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return agentgraph.WorkflowConfig{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return agentgraph.WorkflowConfig{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a WorkflowConfig.
func FromYAML(data []byte) (agentgraph.WorkflowConfig, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return agentgraph.WorkflowConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	return fromMap(m)
}

// FromJSON parses JSON data into a WorkflowConfig.
func FromJSON(data []byte) (agentgraph.WorkflowConfig, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return agentgraph.WorkflowConfig{}, fmt.Errorf("parse json: %w", err)
	}
	return fromMap(m)
}

// fromMap extracts the recognized options and stashes the rest in Extra.
func fromMap(m map[string]any) (agentgraph.WorkflowConfig, error) {
	cfg := agentgraph.WorkflowConfig{}

	for key, val := range m {
		switch key {
		case "errorStrategy":
			s, ok := val.(string)
			if !ok {
				return cfg, fmt.Errorf("errorStrategy must be a string, got %T", val)
			}
			strategy := agentgraph.Strategy(s)
			if !agentgraph.ValidStrategy(strategy) {
				return cfg, fmt.Errorf("unrecognized errorStrategy: %q", s)
			}
			cfg.Strategy = strategy

		case "timeout":
			millis, ok := toInt(val)
			if !ok || millis < 0 {
				return cfg, fmt.Errorf("timeout must be a non-negative integer (milliseconds), got %v", val)
			}
			cfg.Timeout = time.Duration(millis) * time.Millisecond

		case "retries":
			n, ok := toInt(val)
			if !ok || n < 0 {
				return cfg, fmt.Errorf("retries must be a non-negative integer, got %v", val)
			}
			cfg.Retries = &n

		case "maxIterations":
			n, ok := toInt(val)
			if !ok || n <= 0 {
				return cfg, fmt.Errorf("maxIterations must be a positive integer, got %v", val)
			}
			cfg.MaxIterations = n

		default:
			if cfg.Extra == nil {
				cfg.Extra = make(map[string]any)
			}
			cfg.Extra[key] = val
		}
	}

	return cfg, nil
}

// toInt normalizes the numeric types YAML and JSON decoders produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
