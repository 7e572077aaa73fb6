// Package permission implements the Permission Manager:
// effective role computation, bot-enabled and blacklist checks, per-
// command-type authorization, and deterministic syntax selection.
package permission

import (
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/state"
)

// Decision is the Permission Manager's verdict for one parsed command.
type Decision struct {
	Allowed        bool
	Reason         string
	EffectiveRoles []string
	SyntaxIndex    int
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Request bundles everything Authorize needs about one parsed command
// and the chat/root state it runs against.
type Request struct {
	Catalog     *schema.Catalog
	Root        *state.RootState
	Chat        *state.ChatState
	CommandType state.CommandType
	Service     string
	Command     string
	UserID      string
	ChatID      string
	IsPrivate   bool
}

// EffectiveRoles computes (userId, chatId, service)'s effective role set:
// root membership contributes root+admin; every role whose member list
// contains the user (or the wildcard) in the given service instance
// contributes that role.
func EffectiveRoles(root *state.RootState, svc *state.ServiceInstance, userID string) []string {
	seen := map[string]struct{}{}
	var roles []string
	add := func(r string) {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			roles = append(roles, r)
		}
	}

	if root != nil && root.IsRoot(userID) {
		add("root")
		add("admin")
	}
	if svc != nil {
		for _, r := range svc.EffectiveRoles(userID) {
			add(r)
		}
	}
	return roles
}

// chatHasAdmin reports whether userID holds the admin role in any
// installed, enabled service instance of chat — admin being a per-
// service role rather than an inherent attribute.
func chatHasAdmin(chat *state.ChatState, userID string) bool {
	for _, svc := range chat.Services {
		if svc.Installed && svc.Enabled && svc.HasRole("admin", userID) {
			return true
		}
	}
	return false
}

// blacklisted reports whether any entry in entries denies this
// invocation.
func blacklisted(entries []state.BlacklistEntry, userID, chatID, service, command string) bool {
	for _, e := range entries {
		if e.Matches(userID, chatID, service, command) {
			return true
		}
	}
	return false
}

// Authorize runs the full permission algorithm for one parsed command.
func Authorize(req Request) Decision {
	if req.Root == nil || !req.Root.BotEnabled {
		return deny("the bot is disabled")
	}
	if req.Chat != nil && !req.Chat.BotEnabled {
		return deny("the bot is disabled in this chat")
	}

	blacklistService := req.Service
	if blacklistService == "" {
		blacklistService = string(req.CommandType)
	}
	if blacklisted(req.Root.GlobalBlacklist, req.UserID, req.ChatID, blacklistService, req.Command) {
		return deny("you are blacklisted")
	}
	if req.Chat != nil && blacklisted(req.Chat.GroupBlacklist, req.UserID, req.ChatID, blacklistService, req.Command) {
		return deny("you are blacklisted")
	}

	switch req.CommandType {
	case state.CommandBuiltin:
		return Decision{Allowed: true, EffectiveRoles: EffectiveRoles(req.Root, nil, req.UserID)}

	case state.CommandRoot:
		if !req.Root.IsRoot(req.UserID) {
			return deny("this command requires root")
		}
		return Decision{Allowed: true, EffectiveRoles: []string{"root", "admin"}}

	case state.CommandAdmin:
		if req.Root.IsRoot(req.UserID) {
			return Decision{Allowed: true, EffectiveRoles: []string{"root", "admin"}}
		}
		if req.IsPrivate {
			return deny("admin commands are not available in private chats")
		}
		if req.Chat == nil || !chatHasAdmin(req.Chat, req.UserID) {
			return deny("this command requires permission: admin role in an installed service")
		}
		return Decision{Allowed: true, EffectiveRoles: []string{"admin"}}

	case state.CommandService:
		return authorizeService(req)

	default:
		return deny("unrecognized command scope")
	}
}

func authorizeService(req Request) Decision {
	svcDef, ok := req.Catalog.Services[req.Service]
	if !ok {
		return deny("unknown service")
	}
	if req.Chat == nil {
		return deny("service not installed")
	}
	instance, ok := req.Chat.Services[req.Service]
	if !ok || !instance.Installed {
		return deny("service not installed")
	}
	if !instance.Enabled {
		return deny("service disabled")
	}
	if req.IsPrivate && !svcDef.AllowInPrivateChat {
		return deny("this service is not available in private chats")
	}

	roles := EffectiveRoles(req.Root, instance, req.UserID)
	cmdDef, ok := svcDef.Commands[req.Command]
	if !ok {
		return deny("unknown command")
	}

	idx, ok := SelectSyntax(cmdDef, roles)
	if !ok {
		return deny("permission denied: no syntax available for your roles")
	}
	return Decision{Allowed: true, EffectiveRoles: roles, SyntaxIndex: idx}
}

// SelectSyntax deterministically selects the lowest-indexed syntax whose
// allowedRoles contains "*" or intersects effectiveRoles. Admin is never
// an implicit match — it must appear explicitly in a syntax's
// allowedRoles.
func SelectSyntax(def schema.CommandDefinition, effectiveRoles []string) (int, bool) {
	for i, syn := range def.Syntaxes {
		if syn.RoleAllowed(effectiveRoles) {
			return i, true
		}
	}
	return 0, false
}
