package tools

import (
	"github.com/VladRad03/Adulter/pkg/errors"
	"github.com/VladRad03/Adulter/pkg/llm"
)

// Registry holds the process-wide set of callable operations. Specs are
// registered during construction and never mutated afterwards, so the
// registry is safe for concurrent read by multiple conversations.
type Registry struct {
	specs map[string]ToolSpec
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]ToolSpec)}
}

// Register adds a tool spec. Duplicate or incomplete specs are a
// configuration error.
func (r *Registry) Register(spec ToolSpec) error {
	if spec.Name == "" {
		return errors.New(errors.CodeConfiguration, "tool name is required", nil)
	}
	if spec.Handler == nil {
		return errors.New(errors.CodeConfiguration, "tool handler is required", nil).
			WithContext("tool", spec.Name)
	}
	if _, exists := r.specs[spec.Name]; exists {
		return errors.New(errors.CodeConfiguration, "tool already registered", nil).
			WithContext("tool", spec.Name)
	}
	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// MustRegister registers specs and panics on configuration errors. Meant
// for wiring at process start where a bad registry is fatal anyway.
func (r *Registry) MustRegister(specs ...ToolSpec) {
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
}

// Get returns the spec for a tool name.
func (r *Registry) Get(name string) (ToolSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns backend-facing definitions for the named tools,
// preserving the caller's capability ordering. Unknown names are skipped.
func (r *Registry) Definitions(names []string) []llm.Tool {
	defs := make([]llm.Tool, 0, len(names))
	for _, name := range names {
		if spec, ok := r.specs[name]; ok {
			defs = append(defs, spec.Definition())
		}
	}
	return defs
}
