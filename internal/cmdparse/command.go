package cmdparse

import (
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/state"
)

// ParsedCommand is the Command Parser's output for one recognized
// invocation: a scope, a canonical command name, the
// candidate syntax bound against so far, and the shell tokens available
// for re-binding once the Permission Manager selects a syntax.
type ParsedCommand struct {
	CommandType state.CommandType
	// Service names the service id when CommandType is CommandService;
	// empty for builtin/admin/root.
	Service string
	// Command is the canonical (lowercased) command name.
	Command string

	// Tokens holds the argument tokens, already shell-tokenized, in the
	// order they appeared after the command name. Re-parsing a different
	// syntax rebinds from these same tokens.
	Tokens []string

	// RawArgsEmpty records whether the original raw-argument portion was
	// empty (no tokens at all). The router opens an interactive session for
	// a missing-parameter command only when this is true; otherwise it
	// invokes the handler with the arguments that did bind.
	RawArgsEmpty bool

	// ArgsOnly marks a command bound via args-only mode, informing the router's ParseError policy (§7).
	ArgsOnly bool

	// SyntaxIndex is the syntax tentatively used to produce Args/Missing;
	// the Permission Manager may direct a re-bind against another index.
	SyntaxIndex int
	Args        map[string]any
	Missing     []string
}

// CommandDef resolves the CommandDefinition this parsed command refers
// to, given the loaded catalog.
func (pc *ParsedCommand) CommandDef(cat *schema.Catalog) (schema.CommandDefinition, bool) {
	switch pc.CommandType {
	case state.CommandBuiltin:
		def, ok := cat.Builtin.Commands[pc.Command]
		return def, ok
	case state.CommandAdmin:
		def, ok := cat.Admin.Commands[pc.Command]
		return def, ok
	case state.CommandRoot:
		def, ok := cat.Root.Commands[pc.Command]
		return def, ok
	case state.CommandService:
		svc, ok := cat.Services[pc.Service]
		if !ok {
			return schema.CommandDefinition{}, false
		}
		def, ok := svc.Commands[pc.Command]
		return def, ok
	default:
		return schema.CommandDefinition{}, false
	}
}
