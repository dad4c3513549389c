package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelBinding ties one pipeline role to an adapter and model, with the
// window sizes the token budget is derived from.
type ModelBinding struct {
	Adapter         string  `yaml:"adapter"`
	Model           string  `yaml:"model"`
	ContextWindow   int     `yaml:"context_window"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature,omitempty"`
}

// Roles binds each pipeline role to a model.
type Roles struct {
	Generator  ModelBinding `yaml:"generator"`
	Judge      ModelBinding `yaml:"judge"`
	Researcher ModelBinding `yaml:"researcher"`
	Comparator ModelBinding `yaml:"comparator"`
}

// RoleNames lists the pipeline roles in wiring order.
var RoleNames = []string{"generator", "judge", "researcher", "comparator"}

// LoadRoles reads role bindings from a YAML file.
func LoadRoles(path string) (*Roles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var roles Roles
	if err := yaml.Unmarshal(data, &roles); err != nil {
		return nil, err
	}

	applyRoleDefaults(&roles)
	return &roles, nil
}

// Binding returns the binding for a named role.
func (r *Roles) Binding(role string) (ModelBinding, error) {
	switch role {
	case "generator":
		return r.Generator, nil
	case "judge":
		return r.Judge, nil
	case "researcher":
		return r.Researcher, nil
	case "comparator":
		return r.Comparator, nil
	default:
		return ModelBinding{}, fmt.Errorf("unknown role %q", role)
	}
}

// SetBinding replaces the binding for a named role.
func (r *Roles) SetBinding(role string, b ModelBinding) error {
	switch role {
	case "generator":
		r.Generator = b
	case "judge":
		r.Judge = b
	case "researcher":
		r.Researcher = b
	case "comparator":
		r.Comparator = b
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	return nil
}

// Validate checks every role has an adapter, model, and a usable window.
func (r *Roles) Validate() error {
	for _, name := range RoleNames {
		b, err := r.Binding(name)
		if err != nil {
			return err
		}
		if b.Adapter == "" || b.Model == "" {
			return &ConfigurationError{Field: "models." + name, Reason: "adapter and model are required"}
		}
		if b.ContextWindow <= 0 {
			return &ConfigurationError{Field: "models." + name + ".context_window", Reason: fmt.Sprintf("must be positive, got %d", b.ContextWindow)}
		}
		if b.MaxOutputTokens <= 0 || b.MaxOutputTokens >= b.ContextWindow {
			return &ConfigurationError{Field: "models." + name + ".max_output_tokens", Reason: fmt.Sprintf("must be in (0, context_window), got %d", b.MaxOutputTokens)}
		}
	}
	return nil
}

// DefaultRoles returns the default role bindings.
func DefaultRoles() *Roles {
	roles := &Roles{
		Generator: ModelBinding{
			Adapter:         "anthropic",
			Model:           "claude-sonnet-4-20250514",
			ContextWindow:   200_000,
			MaxOutputTokens: 8192,
			Temperature:     0.7,
		},
		Judge: ModelBinding{
			Adapter:         "openai",
			Model:           "gpt-5.2-thinking",
			ContextWindow:   128_000,
			MaxOutputTokens: 8192,
		},
		Researcher: ModelBinding{
			Adapter:         "google",
			Model:           "gemini-2.0-pro",
			ContextWindow:   1_000_000,
			MaxOutputTokens: 8192,
		},
		Comparator: ModelBinding{
			Adapter:         "deepseek",
			Model:           "deepseek-reasoner",
			ContextWindow:   64_000,
			MaxOutputTokens: 8192,
		},
	}
	applyRoleDefaults(roles)
	return roles
}

func applyRoleDefaults(roles *Roles) {
	for _, name := range RoleNames {
		b, _ := roles.Binding(name)
		if b.ContextWindow == 0 {
			b.ContextWindow = 128_000
		}
		if b.MaxOutputTokens == 0 {
			b.MaxOutputTokens = 8192
		}
		_ = roles.SetBinding(name, b)
	}
}
