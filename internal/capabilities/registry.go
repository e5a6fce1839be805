// Package capabilities declares the retrieval and summarization
// capabilities the agent advertises to the reasoning service. The
// declarations live in an embedded YAML file so the schema text (branch
// enums, argument guidance) can change without touching executor code.
package capabilities

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"finbot/internal/llm"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the declared capabilities in file order.
type Registry struct {
	capabilities []Capability
	byName       map[string]*Capability
}

// NewRegistry creates a capability registry from the embedded YAML file.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/tools.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read capability declarations: %w", err)
	}

	var file capabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capability declarations: %w", err)
	}
	if len(file.Capabilities) == 0 {
		return nil, fmt.Errorf("capability declaration file is empty")
	}

	r := &Registry{
		capabilities: file.Capabilities,
		byName:       make(map[string]*Capability, len(file.Capabilities)),
	}
	for i := range r.capabilities {
		c := &r.capabilities[i]
		if c.Name == "" {
			return nil, fmt.Errorf("capability %d has no name", i)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate capability name: %s", c.Name)
		}
		r.byName[c.Name] = c
	}

	return r, nil
}

// List returns the declared capabilities in declaration order.
func (r *Registry) List() []Capability {
	return r.capabilities
}

// Get returns a capability by name, or nil if not declared.
func (r *Registry) Get(name string) *Capability {
	return r.byName[name]
}

// Definitions converts the declarations to the wire tool format sent
// verbatim to the reasoning service.
func (r *Registry) Definitions() []llm.Tool {
	tools := make([]llm.Tool, len(r.capabilities))
	for i, c := range r.capabilities {
		tools[i] = llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        c.Name,
				Description: c.Description,
				Parameters:  c.Parameters,
			},
		}
	}
	return tools
}
