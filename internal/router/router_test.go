package router

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pocketbrain/wacore/internal/cmdparse"
	"github.com/pocketbrain/wacore/internal/event"
	"github.com/pocketbrain/wacore/internal/hctx"
	"github.com/pocketbrain/wacore/internal/outbound"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/session"
	"github.com/pocketbrain/wacore/internal/state"
)

// fakeStore is an in-memory state.Store, avoiding a real SQLite backend
// for these end-to-end router scenarios.
type fakeStore struct{ doc *state.Document }

func (f *fakeStore) Load(ctx context.Context, initialRootUserID string) (*state.Document, error) {
	if f.doc == nil {
		f.doc = state.NewDocument(initialRootUserID)
	}
	return f.doc, nil
}

func (f *fakeStore) Save(ctx context.Context, doc *state.Document) error { return nil }

func testCatalog() *schema.Catalog {
	yes := []string{"*"}
	return &schema.Catalog{
		Builtin: schema.ScopeDefinition{
			Commands: map[string]schema.CommandDefinition{
				"ping": {
					Syntaxes: []schema.Syntax{{AllowedRoles: yes}},
				},
			},
		},
		Admin: schema.ScopeDefinition{Commands: map[string]schema.CommandDefinition{}},
		Root: schema.ScopeDefinition{
			Commands: map[string]schema.CommandDefinition{
				"ban": {
					Syntaxes: []schema.Syntax{
						{
							AllowedRoles: []string{"root"},
							Parameters: []schema.ParameterDefinition{
								{Name: "userId", Type: "string"},
							},
						},
					},
				},
			},
		},
		Services: map[string]*schema.ServiceDefinition{
			"exp": {
				ID:                 "exp",
				Roles:              []string{"admin", "member"},
				AllowInPrivateChat: true,
				Commands: map[string]schema.CommandDefinition{
					"add": {
						Syntaxes: []schema.Syntax{
							{
								AllowedRoles: []string{"member"},
								Parameters: []schema.ParameterDefinition{
									{Name: "amount", Type: "int"},
									{Name: "item", Type: "string"},
								},
							},
						},
					},
					"admin-only": {
						Syntaxes: []schema.Syntax{
							{AllowedRoles: []string{"admin"}, Parameters: []schema.ParameterDefinition{
								{Name: "note", Type: "string"},
							}},
						},
					},
				},
			},
		},
	}
}

type testRig struct {
	router   *Router
	stateMgr *state.Manager
	sender   *outbound.Recorder
	registry *schema.Registry
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	cat := testCatalog()
	reg := schema.NewRegistry()
	reg.Register("builtin", "ping", func(ctx context.Context, args map[string]any) (string, error) {
		return "pong", nil
	})
	var addedAmount int
	var addedItem string
	reg.Register("exp", "add", func(ctx context.Context, args map[string]any) (string, error) {
		addedAmount, _ = args["amount"].(int)
		addedItem, _ = args["item"].(string)
		return "Added: " + addedItem, nil
	})
	reg.Register("exp", "admin-only", func(ctx context.Context, args map[string]any) (string, error) {
		return "ok", nil
	})
	reg.Register("root", "ban", func(ctx context.Context, args map[string]any) (string, error) {
		hc, _ := hctx.From(ctx)
		userID, _ := args["userId"].(string)
		hc.Doc.Root.GlobalBlacklist = append(hc.Doc.Root.GlobalBlacklist, state.BlacklistEntry{UserID: userID})
		return "Banned: " + userID, nil
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stateMgr, err := state.NewManager(context.Background(), &fakeStore{}, "root1", logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	sessionMgr := session.New(5 * time.Minute)
	parser := cmdparse.New(cmdparse.DefaultConfig(), cat)
	sender := outbound.NewRecorder()

	r := New(cat, reg, stateMgr, sessionMgr, parser, sender, nil, nil, logger)
	return &testRig{router: r, stateMgr: stateMgr, sender: sender, registry: reg}
}

func sendMessage(t *testing.T, rig *testRig, chatID, from, body string) {
	t.Helper()
	in := event.Inbound{
		Event: event.TypeMessage,
		Payload: event.InboundPayload{
			ID:     "m1",
			ChatID: chatID,
			From:   from,
			Body:   body,
		},
	}
	if err := rig.router.Handle(context.Background(), in); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

// Scenario 1: builtin ping.
func TestRouter_Ping(t *testing.T) {
	rig := newTestRig(t)
	sendMessage(t, rig, "chat1", "u1", ".ping")

	if len(rig.sender.Sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(rig.sender.Sent))
	}
	if rig.sender.Sent[0].Text != "pong" {
		t.Errorf("reply = %q; want pong", rig.sender.Sent[0].Text)
	}
}

// Scenario 3: a fully-specified exp add runs immediately, no session.
func TestRouter_ExpAdd_FullySpecified(t *testing.T) {
	rig := newTestRig(t)
	installExp(t, rig, "chat1", "u1", "member")

	sendMessage(t, rig, "chat1", "u1", ".exp add 50 Lunch")

	if len(rig.sender.Sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(rig.sender.Sent))
	}
	if rig.sender.Sent[0].Text != "Added: Lunch" {
		t.Errorf("reply = %q", rig.sender.Sent[0].Text)
	}
}

// Scenario 3 (interactive path): a missing required argument opens a
// session, and the next message from the same user completes it.
func TestRouter_ExpAdd_InteractiveSession(t *testing.T) {
	rig := newTestRig(t)
	installExp(t, rig, "chat1", "u1", "member")

	sendMessage(t, rig, "chat1", "u1", ".exp add")
	if len(rig.sender.Sent) != 1 {
		t.Fatalf("expected a prompt after missing args, got %d replies", len(rig.sender.Sent))
	}

	sendMessage(t, rig, "chat1", "u1", "50")
	sendMessage(t, rig, "chat1", "u1", "Lunch")

	last := rig.sender.Sent[len(rig.sender.Sent)-1]
	if last.Text != "Added: Lunch" {
		t.Errorf("final reply after completing the session = %q", last.Text)
	}
}

// Scenario 4: a member-only user cannot reach the admin-only syntax.
func TestRouter_PermissionDenied_NoMatchingSyntax(t *testing.T) {
	rig := newTestRig(t)
	installExp(t, rig, "chat1", "u1", "member")

	sendMessage(t, rig, "chat1", "u1", ".exp admin-only some note")

	if len(rig.sender.Sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(rig.sender.Sent))
	}
	text := rig.sender.Sent[0].Text
	if !contains(text, "permission") {
		t.Errorf("deny reply = %q; want it to contain %q", text, "permission")
	}
}

// Scenario 5: args-only mode binds a bare line without any prefix.
func TestRouter_ArgsOnlyMode(t *testing.T) {
	rig := newTestRig(t)
	installExp(t, rig, "chat1", "u1", "member")

	err := rig.stateMgr.WithChat(context.Background(), "chat1", func(doc *state.Document) error {
		chat := doc.GetOrCreateChat("chat1", state.ChatTypeGroup)
		chat.AdminSettings.ArgsOnlyCommand = &state.ArgsOnlyCommand{Service: "exp", Command: "add"}
		return nil
	})
	if err != nil {
		t.Fatalf("WithChat: %v", err)
	}

	sendMessage(t, rig, "chat1", "u1", "50 Lunch")

	if len(rig.sender.Sent) != 1 {
		t.Fatalf("expected 1 reply from args-only binding, got %d", len(rig.sender.Sent))
	}
	if rig.sender.Sent[0].Text != "Added: Lunch" {
		t.Errorf("reply = %q", rig.sender.Sent[0].Text)
	}
}

// Root commands arriving concurrently from different chats
// are serialized against the shared RootState by the nested root lock,
// not just by their own (distinct) chat locks.
func TestRouter_RootCommand_SerializedAcrossChats(t *testing.T) {
	rig := newTestRig(t)

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			chatID := "chat" + string(rune('a'+i%5))
			in := event.Inbound{
				Event: event.TypeMessage,
				Payload: event.InboundPayload{
					ID:     "m1",
					ChatID: chatID,
					From:   "root1",
					Body:   ".root ban user" + string(rune('a'+i)),
				},
			}
			errs <- rig.router.Handle(context.Background(), in)
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Handle: %v", err)
		}
	}

	var blacklisted int
	rig.stateMgr.ReadOnly(func(doc *state.Document) {
		blacklisted = len(doc.Root.GlobalBlacklist)
	})
	if blacklisted != n {
		t.Fatalf("GlobalBlacklist entries = %d; want %d (lost update under concurrent root commands)", blacklisted, n)
	}
}

func installExp(t *testing.T, rig *testRig, chatID, userID, role string) {
	t.Helper()
	err := rig.stateMgr.WithChat(context.Background(), chatID, func(doc *state.Document) error {
		chat := doc.GetOrCreateChat(chatID, state.ChatTypeGroup)
		instance := state.NewServiceInstance([]string{"admin", "member"})
		instance.AddUserRole(role, userID)
		chat.Services["exp"] = instance
		return nil
	})
	if err != nil {
		t.Fatalf("installExp: %v", err)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
