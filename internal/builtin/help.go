package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketbrain/wacore/internal/hctx"
	"github.com/pocketbrain/wacore/internal/help"
	"github.com/pocketbrain/wacore/internal/permission"
)

// helpHandler renders the visible commands for the caller. Passing service=<id> narrows the reply
// to one installed service's commands instead.
func helpHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("builtin: help called without handler context")
	}

	if svcID, ok := args["service"].(string); ok && svcID != "" {
		svcDef, ok := hc.Catalog.Services[svcID]
		if !ok {
			return fmt.Sprintf("%q is not a known service.", svcID), nil
		}
		instance := hc.Chat.Services[svcID]
		roles := hc.UserRoles
		if instance != nil {
			roles = permission.EffectiveRoles(hc.Doc.Root, instance, hc.UserID)
		}
		return help.GenerateService(svcDef, roles), nil
	}

	var b strings.Builder
	b.WriteString(help.GenerateScope("Commands", hc.Catalog.Builtin, hc.UserRoles))

	if contains(hc.UserRoles, "root") {
		b.WriteString("\n\n")
		b.WriteString(help.GenerateScope("Root Commands", hc.Catalog.Root, hc.UserRoles))
	}
	if contains(hc.UserRoles, "admin") {
		b.WriteString("\n\n")
		b.WriteString(help.GenerateScope("Admin Commands", hc.Catalog.Admin, hc.UserRoles))
	}

	var installed []string
	for id, inst := range hc.Chat.Services {
		if inst.Installed && inst.Enabled {
			installed = append(installed, id)
		}
	}
	if len(installed) > 0 {
		b.WriteString("\n\nInstalled services: " + strings.Join(installed, ", "))
		b.WriteString("\nSend .help <service> for a service's commands.")
	}

	return b.String(), nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
