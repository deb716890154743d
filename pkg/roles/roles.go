// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

// Package roles defines the specialized participants of a conversation.
// Each role carries its own instructions and a bounded capability set;
// a role can only dispatch the tools its capabilities name.
package roles

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/VladRad03/Adulter/pkg/errors"
	"github.com/VladRad03/Adulter/pkg/tools"
)

// Role is a conversation participant with bounded tool capabilities.
type Role struct {
	name         string
	instructions string
	capabilities map[string]struct{}
	order        []string
}

// NewRole creates a role. Capabilities are tool names the role is
// allowed to dispatch.
func NewRole(name, instructions string, capabilities ...string) *Role {
	r := &Role{
		name:         name,
		instructions: instructions,
		capabilities: make(map[string]struct{}, len(capabilities)),
	}
	for _, c := range capabilities {
		if _, dup := r.capabilities[c]; dup {
			continue
		}
		r.capabilities[c] = struct{}{}
		r.order = append(r.order, c)
	}
	return r
}

// Name returns the role's unique name.
func (r *Role) Name() string { return r.name }

// Instructions returns the role's system instructions.
func (r *Role) Instructions() string { return r.instructions }

// Allows reports whether the role may dispatch the named tool.
func (r *Role) Allows(tool string) bool {
	_, ok := r.capabilities[tool]
	return ok
}

// Capabilities returns the role's tool names in declaration order.
func (r *Role) Capabilities() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Registry holds the roles of a conversation keyed by name.
type Registry struct {
	roles   map[string]*Role
	order   []string
	initial string
}

// NewRegistry creates a role registry. The first registered role is the
// initial role unless SetInitial overrides it.
func NewRegistry() *Registry {
	return &Registry{roles: make(map[string]*Role)}
}

// Register adds a role. Duplicate names are a configuration error.
func (reg *Registry) Register(r *Role) error {
	if r == nil || r.name == "" {
		return errors.New(errors.CodeConfiguration, "role must have a name", nil)
	}
	if _, exists := reg.roles[r.name]; exists {
		return errors.New(errors.CodeConfiguration, "role already registered", nil).WithContext("role", r.name)
	}
	reg.roles[r.name] = r
	reg.order = append(reg.order, r.name)
	if reg.initial == "" {
		reg.initial = r.name
	}
	return nil
}

// MustRegister is Register but panics on error. Meant for built-in
// role wiring at startup.
func (reg *Registry) MustRegister(r *Role) {
	if err := reg.Register(r); err != nil {
		panic(err)
	}
}

// SetInitial marks the role that opens every conversation.
func (reg *Registry) SetInitial(name string) error {
	if _, ok := reg.roles[name]; !ok {
		return errors.New(errors.CodeConfiguration, "initial role is not registered", nil).WithContext("role", name)
	}
	reg.initial = name
	return nil
}

// Initial returns the role that opens every conversation.
func (reg *Registry) Initial() (*Role, error) {
	if reg.initial == "" {
		return nil, errors.New(errors.CodeConfiguration, "registry has no roles", nil)
	}
	return reg.roles[reg.initial], nil
}

// Get returns the named role.
func (reg *Registry) Get(name string) (*Role, bool) {
	r, ok := reg.roles[name]
	return r, ok
}

// All returns every registered role in registration order.
func (reg *Registry) All() []*Role {
	out := make([]*Role, 0, len(reg.order))
	for _, name := range reg.order {
		out = append(out, reg.roles[name])
	}
	return out
}

// Names returns registered role names in registration order.
func (reg *Registry) Names() []string {
	out := make([]string, len(reg.order))
	copy(out, reg.order)
	return out
}

// Validate checks every role's capabilities against the tool registry.
// A capability naming an unregistered tool is a configuration error;
// it must fail at startup, not at dispatch time.
func (reg *Registry) Validate(toolReg *tools.Registry) error {
	names := make([]string, 0, len(reg.roles))
	for name := range reg.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, cap := range reg.roles[name].Capabilities() {
			if !toolReg.Has(cap) {
				return errors.New(errors.CodeConfiguration, "role declares unknown tool", nil).
					WithContext("role", name).
					WithContext("tool", cap)
			}
		}
	}
	return nil
}

type roleManifest struct {
	Roles []struct {
		Name         string   `yaml:"name"`
		Instructions string   `yaml:"instructions"`
		Capabilities []string `yaml:"capabilities"`
	} `yaml:"roles"`
	Initial string `yaml:"initial"`
}

// LoadManifest reads roles from a YAML manifest file and registers
// them, replacing nothing already present.
func (reg *Registry) LoadManifest(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.CodeConfiguration, "failed to read roles manifest", err)
	}
	var manifest roleManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return errors.New(errors.CodeConfiguration, "failed to parse roles manifest", err)
	}
	for _, m := range manifest.Roles {
		if err := reg.Register(NewRole(m.Name, m.Instructions, m.Capabilities...)); err != nil {
			return err
		}
	}
	if manifest.Initial != "" {
		return reg.SetInitial(manifest.Initial)
	}
	return nil
}
