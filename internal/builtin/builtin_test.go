package builtin

import (
	"context"
	"testing"

	"github.com/pocketbrain/wacore/internal/hctx"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/state"
)

func testHandlerContext(t *testing.T) (context.Context, *hctx.Context) {
	t.Helper()
	doc := state.NewDocument("root1")
	chat := doc.GetOrCreateChat("chat1", state.ChatTypeGroup)
	chat.DisplayNames["u1"] = "Alice"
	chat.DisplayNames["u2"] = "Bob"

	catalog := &schema.Catalog{
		Services: map[string]*schema.ServiceDefinition{
			"exp": {ID: "exp", Roles: []string{"admin", "member"}},
		},
	}

	hc := &hctx.Context{
		ChatID:  "chat1",
		UserID:  "root1",
		Doc:     doc,
		Chat:    chat,
		Catalog: catalog,
	}
	return hctx.With(context.Background(), hc), hc
}

// ---------------------------------------------------------------------------
// install / uninstall
// ---------------------------------------------------------------------------

func TestInstallHandler_UnknownService(t *testing.T) {
	ctx, _ := testHandlerContext(t)
	reply, err := installHandler(ctx, map[string]any{"service": "nope"})
	if err != nil {
		t.Fatalf("installHandler returned error: %v", err)
	}
	if reply != `"nope" is not a known service.` {
		t.Errorf("reply = %q", reply)
	}
}

func TestInstallHandler_AdminsAndMembers(t *testing.T) {
	ctx, hc := testHandlerContext(t)

	_, err := installHandler(ctx, map[string]any{
		"service": "exp",
		"admins":  []any{"u1"},
	})
	if err != nil {
		t.Fatalf("installHandler returned error: %v", err)
	}

	instance, ok := hc.Chat.Services["exp"]
	if !ok {
		t.Fatal("expected exp to be installed")
	}
	if !instance.HasRole("admin", "u1") {
		t.Error("expected u1 to be an admin")
	}
	if !instance.HasRole("member", "u2") {
		t.Error("expected u2 (not in admins) to be a member")
	}
	if instance.HasRole("member", "u1") {
		t.Error("expected u1 not to also be a member")
	}
}

func TestInstallHandler_AlreadyInstalled(t *testing.T) {
	ctx, hc := testHandlerContext(t)
	hc.Chat.Services["exp"] = state.NewServiceInstance([]string{"admin", "member"})

	reply, err := installHandler(ctx, map[string]any{"service": "exp"})
	if err != nil {
		t.Fatalf("installHandler returned error: %v", err)
	}
	if reply != `"exp" is already installed in this chat.` {
		t.Errorf("reply = %q", reply)
	}
}

func TestUninstallHandler(t *testing.T) {
	ctx, hc := testHandlerContext(t)
	hc.Chat.Services["exp"] = state.NewServiceInstance([]string{"admin", "member"})

	reply, err := uninstallHandler(ctx, map[string]any{"service": "exp"})
	if err != nil {
		t.Fatalf("uninstallHandler returned error: %v", err)
	}
	if reply != `Uninstalled "exp".` {
		t.Errorf("reply = %q", reply)
	}
	if _, exists := hc.Chat.Services["exp"]; exists {
		t.Error("expected exp to be removed from chat services")
	}
}

func TestUninstallHandler_NotInstalled(t *testing.T) {
	ctx, _ := testHandlerContext(t)
	reply, err := uninstallHandler(ctx, map[string]any{"service": "exp"})
	if err != nil {
		t.Fatalf("uninstallHandler returned error: %v", err)
	}
	if reply != `"exp" is not installed in this chat.` {
		t.Errorf("reply = %q", reply)
	}
}

// ---------------------------------------------------------------------------
// whoami
// ---------------------------------------------------------------------------

func TestWhoamiHandler(t *testing.T) {
	ctx, _ := testHandlerContext(t)
	reply, err := whoamiHandler(ctx, nil)
	if err != nil {
		t.Fatalf("whoamiHandler returned error: %v", err)
	}
	if reply != "You are a root user (root1)." {
		t.Errorf("reply = %q", reply)
	}
}

// ---------------------------------------------------------------------------
// root / admin blacklist
// ---------------------------------------------------------------------------

func TestRootBlacklistHandler_AddAndRemove(t *testing.T) {
	ctx, hc := testHandlerContext(t)

	_, err := rootBlacklistHandler(ctx, map[string]any{
		"action": "add",
		"userId": "u1",
		"rest":   "service=exp command=add",
	})
	if err != nil {
		t.Fatalf("rootBlacklistHandler add returned error: %v", err)
	}
	if len(hc.Doc.Root.GlobalBlacklist) != 1 {
		t.Fatalf("expected 1 global blacklist entry, got %d", len(hc.Doc.Root.GlobalBlacklist))
	}
	entry := hc.Doc.Root.GlobalBlacklist[0]
	if !entry.Matches("u1", "any-chat", "exp", "add") {
		t.Errorf("entry %+v should match (u1, *, exp, add)", entry)
	}

	_, err = rootBlacklistHandler(ctx, map[string]any{
		"action": "remove",
		"userId": "u1",
		"rest":   "service=exp command=add",
	})
	if err != nil {
		t.Fatalf("rootBlacklistHandler remove returned error: %v", err)
	}
	if len(hc.Doc.Root.GlobalBlacklist) != 0 {
		t.Errorf("expected global blacklist to be empty after remove, got %d entries", len(hc.Doc.Root.GlobalBlacklist))
	}
}

func TestAdminBlacklistHandler_ScopedToChat(t *testing.T) {
	ctx, hc := testHandlerContext(t)

	_, err := adminBlacklistHandler(ctx, map[string]any{
		"action": "add",
		"userId": "u2",
		"rest":   "service=exp",
	})
	if err != nil {
		t.Fatalf("adminBlacklistHandler add returned error: %v", err)
	}
	if len(hc.Chat.GroupBlacklist) != 1 {
		t.Fatalf("expected 1 chat blacklist entry, got %d", len(hc.Chat.GroupBlacklist))
	}
	if hc.Chat.GroupBlacklist[0].Groups != nil {
		t.Error("chat-scoped blacklist entries should not carry a Groups dimension")
	}
}

func TestBlacklistHandlers_UnknownAction(t *testing.T) {
	ctx, _ := testHandlerContext(t)
	reply, err := rootBlacklistHandler(ctx, map[string]any{"action": "frob", "userId": "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != `Unknown action; use "add" or "remove".` {
		t.Errorf("reply = %q", reply)
	}
}

// ---------------------------------------------------------------------------
// settings
// ---------------------------------------------------------------------------

func TestSettingsHandler_SetAndGetKnownKey(t *testing.T) {
	ctx, _ := testHandlerContext(t)

	_, err := settingsHandler(ctx, map[string]any{
		"action": "set",
		"key":    settingReplyOnParsingError,
		"value":  "true",
	})
	if err != nil {
		t.Fatalf("set returned error: %v", err)
	}

	reply, err := settingsHandler(ctx, map[string]any{
		"action": "get",
		"key":    settingReplyOnParsingError,
	})
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if reply != "replyOnParsingError = true" {
		t.Errorf("reply = %q", reply)
	}
}

func TestSettingsHandler_ArgsOnlyCommand(t *testing.T) {
	ctx, hc := testHandlerContext(t)

	_, err := settingsHandler(ctx, map[string]any{
		"action": "set",
		"key":    settingArgsOnlyCommand,
		"value":  "exp add",
	})
	if err != nil {
		t.Fatalf("set returned error: %v", err)
	}
	if hc.Chat.AdminSettings.ArgsOnlyCommand == nil {
		t.Fatal("expected ArgsOnlyCommand to be set")
	}
	if hc.Chat.AdminSettings.ArgsOnlyCommand.Service != "exp" || hc.Chat.AdminSettings.ArgsOnlyCommand.Command != "add" {
		t.Errorf("ArgsOnlyCommand = %+v", hc.Chat.AdminSettings.ArgsOnlyCommand)
	}
}

func TestSettingsHandler_ArgsOnlyCommandRejectsMalformedValue(t *testing.T) {
	ctx, _ := testHandlerContext(t)
	_, err := settingsHandler(ctx, map[string]any{
		"action": "set",
		"key":    settingArgsOnlyCommand,
		"value":  "onlyOneToken",
	})
	if err == nil {
		t.Fatal("expected an error for a malformed argsOnlyCommand value")
	}
}

func TestSettingsHandler_UnknownKeyFallsThroughToExtra(t *testing.T) {
	ctx, hc := testHandlerContext(t)

	_, err := settingsHandler(ctx, map[string]any{
		"action": "set",
		"key":    "customFlag",
		"value":  "on",
	})
	if err != nil {
		t.Fatalf("set returned error: %v", err)
	}
	if hc.Chat.AdminSettings.Extra["customFlag"] != "on" {
		t.Errorf("Extra[customFlag] = %q; want on", hc.Chat.AdminSettings.Extra["customFlag"])
	}

	reply, err := settingsHandler(ctx, map[string]any{"action": "get", "key": "customFlag"})
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if reply != `customFlag = "on"` {
		t.Errorf("reply = %q", reply)
	}
}

// ---------------------------------------------------------------------------
// scoping helpers
// ---------------------------------------------------------------------------

func TestParseScoping(t *testing.T) {
	groups, services, commands := parseScoping("group=g1 service=exp command=add command=edit")
	if len(groups) != 1 || groups[0] != "g1" {
		t.Errorf("groups = %v", groups)
	}
	if len(services) != 1 || services[0] != "exp" {
		t.Errorf("services = %v", services)
	}
	if len(commands) != 2 || commands[0] != "add" || commands[1] != "edit" {
		t.Errorf("commands = %v", commands)
	}
}

func TestRemoveMatchingEntry(t *testing.T) {
	entries := []state.BlacklistEntry{
		{UserID: "u1", Services: []string{"exp"}},
		{UserID: "u2"},
	}
	out := removeMatchingEntry(entries, state.BlacklistEntry{UserID: "u1", Services: []string{"exp"}})
	if len(out) != 1 || out[0].UserID != "u2" {
		t.Errorf("removeMatchingEntry result = %+v", out)
	}

	// No match leaves the slice untouched.
	same := removeMatchingEntry(out, state.BlacklistEntry{UserID: "nonexistent"})
	if len(same) != 1 {
		t.Errorf("expected no-op removal to leave 1 entry, got %d", len(same))
	}
}
