package builtin

import (
	"context"
	"fmt"

	"github.com/pocketbrain/wacore/internal/hctx"
	"github.com/pocketbrain/wacore/internal/state"
)

// installHandler creates a ServiceInstance for the chat. The live group
// roster is an external-gateway concern out of this core's scope, so the
// admin list comes from the command's explicit "admins" argument and
// every other chat participant the core has already observed (via a
// prior message or a group.participants event) becomes a member.
func installHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("builtin: install called without handler context")
	}
	svcID, _ := args["service"].(string)
	svcDef, ok := hc.Catalog.Services[svcID]
	if !ok {
		return fmt.Sprintf("%q is not a known service.", svcID), nil
	}
	if _, exists := hc.Chat.Services[svcID]; exists {
		return fmt.Sprintf("%q is already installed in this chat.", svcID), nil
	}

	instance := state.NewServiceInstance(svcDef.Roles)

	adminSet := map[string]bool{}
	if raw, ok := args["admins"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				instance.AddUserRole("admin", s)
				adminSet[s] = true
			}
		}
	}
	for uid := range hc.Chat.DisplayNames {
		if !adminSet[uid] {
			instance.AddUserRole("member", uid)
		}
	}

	hc.Chat.Services[svcID] = instance
	return fmt.Sprintf("Installed %q.", svcID), nil
}

// uninstallHandler removes a chat's ServiceInstance entirely.
func uninstallHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("builtin: uninstall called without handler context")
	}
	svcID, _ := args["service"].(string)
	if _, exists := hc.Chat.Services[svcID]; !exists {
		return fmt.Sprintf("%q is not installed in this chat.", svcID), nil
	}
	delete(hc.Chat.Services, svcID)
	return fmt.Sprintf("Uninstalled %q.", svcID), nil
}

// whoamiHandler reports the caller's status. Reachable only by root
// (the command's sole syntax requires it), so the reply is informational
// rather than conditional.
func whoamiHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("builtin: whoami called without handler context")
	}
	return fmt.Sprintf("You are a root user (%s).", hc.UserID), nil
}

// rootBlacklistHandler manages the global blacklist.
func rootBlacklistHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("builtin: blacklist called without handler context")
	}
	action, _ := args["action"].(string)
	userID, _ := args["userId"].(string)
	rest, _ := args["rest"].(string)
	groups, services, commands := parseScoping(rest)
	entry := state.BlacklistEntry{UserID: userID, Groups: groups, Services: services, Commands: commands}

	switch action {
	case "add":
		hc.Doc.Root.GlobalBlacklist = append(hc.Doc.Root.GlobalBlacklist, entry)
		return fmt.Sprintf("Blacklisted %s globally.", userID), nil
	case "remove":
		hc.Doc.Root.GlobalBlacklist = removeMatchingEntry(hc.Doc.Root.GlobalBlacklist, entry)
		return fmt.Sprintf("Removed %s from the global blacklist.", userID), nil
	default:
		return `Unknown action; use "add" or "remove".`, nil
	}
}

// adminBlacklistHandler mirrors rootBlacklistHandler, scoped to this
// chat's groupBlacklist instead of the global one.
func adminBlacklistHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("builtin: blacklist called without handler context")
	}
	action, _ := args["action"].(string)
	userID, _ := args["userId"].(string)
	rest, _ := args["rest"].(string)
	_, services, commands := parseScoping(rest)
	entry := state.BlacklistEntry{UserID: userID, Services: services, Commands: commands}

	switch action {
	case "add":
		hc.Chat.GroupBlacklist = append(hc.Chat.GroupBlacklist, entry)
		return fmt.Sprintf("Blacklisted %s in this chat.", userID), nil
	case "remove":
		hc.Chat.GroupBlacklist = removeMatchingEntry(hc.Chat.GroupBlacklist, entry)
		return fmt.Sprintf("Removed %s from this chat's blacklist.", userID), nil
	default:
		return `Unknown action; use "add" or "remove".`, nil
	}
}
