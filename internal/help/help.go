// Package help implements the Help Generator: pure functions rendering a
// scope's or service's visible commands for one caller's role set, in
// declaration order.
package help

import (
	"fmt"
	"strings"

	"github.com/pocketbrain/wacore/internal/schema"
)

// visible reports whether any syntax of def would admit userRoles.
func visible(def schema.CommandDefinition, userRoles []string) bool {
	if len(def.Syntaxes) == 0 {
		return true
	}
	for _, syn := range def.Syntaxes {
		if syn.RoleAllowed(userRoles) {
			return true
		}
	}
	return false
}

func bullet(name string, def schema.CommandDefinition) string {
	if def.Description == "" {
		return "- " + name
	}
	return fmt.Sprintf("- %s: %s", name, def.Description)
}

// Generate renders a scope's commands visible to userRoles under the
// heading "*<title>*", one bullet per command, in declaration order.
func Generate(title string, cmds map[string]schema.CommandDefinition, order []string, userRoles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*", title)
	for _, name := range order {
		def, ok := cmds[name]
		if !ok || !visible(def, userRoles) {
			continue
		}
		b.WriteString("\n")
		b.WriteString(bullet(name, def))
	}
	return b.String()
}

// GenerateScope renders one of the builtin/admin/root scopes.
func GenerateScope(title string, scope schema.ScopeDefinition, userRoles []string) string {
	return Generate(title, scope.Commands, scope.CommandNamesInOrder(), userRoles)
}

// GenerateService renders one service's commands, headed by its display
// name.
func GenerateService(def *schema.ServiceDefinition, userRoles []string) string {
	title := def.DisplayName
	if title == "" {
		title = def.ID
	}
	return Generate(title, def.Commands, def.CommandNamesInOrder(), userRoles)
}
