// Package schema implements the Service Loader: an
// immutable view of the schema catalog, loaded once at boot from YAML
// documents (grounded on jinterlante1206-AleutianLocal's and
// viant-agently's gopkg.in/yaml.v3-driven declarative configuration), and
// the (scope, command) -> handler callable registry.
package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeDef describes one entry in the type catalog.
type TypeDef struct {
	Description string   `yaml:"description"`
	DerivedFrom string   `yaml:"derivedFrom,omitempty"`
	Examples    []string `yaml:"examples,omitempty"`
}

// ParameterDefinition describes one command parameter.
type ParameterDefinition struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	IsList      bool   `yaml:"isList,omitempty"`
	Optional    bool   `yaml:"optional,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
	Min         *int   `yaml:"min,omitempty"`
	Max         *int   `yaml:"max,omitempty"`
}

// Syntax is one alternative signature of a command: an ordered parameter
// list (a YAML sequence, so order survives for free) paired with the
// roles allowed to use it.
type Syntax struct {
	AllowedRoles []string              `yaml:"allowedRoles"`
	Parameters   []ParameterDefinition `yaml:"parameters"`
}

// RoleAllowed reports whether any of effectiveRoles is explicitly listed
// or the wildcard is present.
func (s Syntax) RoleAllowed(effectiveRoles []string) bool {
	for _, allowed := range s.AllowedRoles {
		if allowed == "*" {
			return true
		}
		for _, r := range effectiveRoles {
			if allowed == r {
				return true
			}
		}
	}
	return false
}

// CommandDefinition describes one command.
type CommandDefinition struct {
	Description  string   `yaml:"description"`
	Interactive  *bool    `yaml:"interactive,omitempty"`
	AllowedRoles []string `yaml:"allowedRoles,omitempty"`
	Syntaxes     []Syntax `yaml:"syntaxes"`
}

// IsInteractive reports whether this command drives session prompting
// when arguments are missing; defaults to true.
func (c CommandDefinition) IsInteractive() bool {
	return c.Interactive == nil || *c.Interactive
}

// orderedCommands decodes a YAML mapping node of command-name -> command
// definition while recording declaration order, since Go maps have none
// and help output must list commands in declaration order.
func orderedCommands(node *yaml.Node) (map[string]CommandDefinition, []string, error) {
	if node == nil {
		return map[string]CommandDefinition{}, nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("schema: commands must be a mapping")
	}

	cmds := make(map[string]CommandDefinition, len(node.Content)/2)
	order := make([]string, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var name string
		if err := keyNode.Decode(&name); err != nil {
			return nil, nil, fmt.Errorf("schema: command key: %w", err)
		}
		var def CommandDefinition
		if err := valNode.Decode(&def); err != nil {
			return nil, nil, fmt.Errorf("schema: command %q: %w", name, err)
		}
		canonical := strings.ToLower(name)
		cmds[canonical] = def
		order = append(order, canonical)
	}
	return cmds, order, nil
}

// ScopeDefinition is one of the builtin/admin/root catalogs.
type ScopeDefinition struct {
	Settings map[string]string `yaml:"settings,omitempty"`
	Commands map[string]CommandDefinition
	order    []string
}

// CommandNamesInOrder returns every command name in this scope in the
// order they were declared.
func (s ScopeDefinition) CommandNamesInOrder() []string {
	return s.order
}

// UnmarshalYAML implements order-preserving decoding for Commands.
func (s *ScopeDefinition) UnmarshalYAML(node *yaml.Node) error {
	type alias struct {
		Settings map[string]string `yaml:"settings,omitempty"`
		Commands yaml.Node         `yaml:"commands"`
	}
	var a alias
	if err := node.Decode(&a); err != nil {
		return err
	}
	cmds, order, err := orderedCommands(&a.Commands)
	if err != nil {
		return err
	}
	s.Settings = a.Settings
	s.Commands = cmds
	s.order = order
	return nil
}

// ServiceDefinition describes one installable service.
type ServiceDefinition struct {
	ID                 string
	DisplayName        string
	Description        string
	Roles              []string
	AllowInPrivateChat bool
	OneCmdPerMsg       bool
	Commands           map[string]CommandDefinition
	Settings           map[string]string
	Storage            []string
	order              []string
}

// CommandNamesInOrder returns every command name for this service in
// declared order.
func (s ServiceDefinition) CommandNamesInOrder() []string {
	return s.order
}

// UnmarshalYAML implements order-preserving decoding for Commands, and
// applies the rule that missing admin/member roles are implicitly added.
func (s *ServiceDefinition) UnmarshalYAML(node *yaml.Node) error {
	type alias struct {
		ID                 string            `yaml:"id"`
		DisplayName        string            `yaml:"displayName"`
		Description        string            `yaml:"description"`
		Roles              []string          `yaml:"roles"`
		AllowInPrivateChat bool              `yaml:"allowInPrivateChat"`
		OneCmdPerMsg       bool              `yaml:"oneCmdPerMsg"`
		Commands           yaml.Node         `yaml:"commands"`
		Settings           map[string]string `yaml:"settings,omitempty"`
		Storage            []string          `yaml:"storage,omitempty"`
	}
	var a alias
	if err := node.Decode(&a); err != nil {
		return err
	}
	cmds, order, err := orderedCommands(&a.Commands)
	if err != nil {
		return err
	}

	s.ID = a.ID
	s.DisplayName = a.DisplayName
	s.Description = a.Description
	s.Roles = normalizeRoles(a.Roles)
	s.AllowInPrivateChat = a.AllowInPrivateChat
	s.OneCmdPerMsg = a.OneCmdPerMsg
	s.Commands = cmds
	s.Settings = a.Settings
	s.Storage = a.Storage
	s.order = order
	return nil
}

// normalizeRoles ensures admin and member are present: missing
// admin/member roles are implicitly added.
func normalizeRoles(roles []string) []string {
	hasAdmin, hasMember := false, false
	for _, r := range roles {
		if strings.EqualFold(r, "admin") {
			hasAdmin = true
		}
		if strings.EqualFold(r, "member") {
			hasMember = true
		}
	}
	out := append([]string(nil), roles...)
	if !hasMember {
		out = append(out, "member")
	}
	if !hasAdmin {
		out = append(out, "admin")
	}
	return out
}
