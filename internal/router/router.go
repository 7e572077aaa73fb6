// Package router implements the Message Router: the
// orchestrator that sequences session lookup, parsing, permission
// checking, interactive prompting, handler dispatch and reply delivery
// for every inbound event.
package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pocketbrain/wacore/internal/cmdparse"
	"github.com/pocketbrain/wacore/internal/event"
	"github.com/pocketbrain/wacore/internal/outbound"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/session"
	"github.com/pocketbrain/wacore/internal/state"
)

// Router wires every core component together and is the only component
// that holds a reference to the outbound send interface.
type Router struct {
	catalog    *schema.Catalog
	registry   *schema.Registry
	stateMgr   *state.Manager
	sessionMgr *session.Manager
	parser     *cmdparse.Parser
	sender     outbound.Sender
	audit      state.AuditSink
	hooks      map[string]session.ContextHook
	logger     *slog.Logger
}

// New returns a Router ready to handle inbound events.
func New(
	catalog *schema.Catalog,
	registry *schema.Registry,
	stateMgr *state.Manager,
	sessionMgr *session.Manager,
	parser *cmdparse.Parser,
	sender outbound.Sender,
	audit state.AuditSink,
	hooks map[string]session.ContextHook,
	logger *slog.Logger,
) *Router {
	if hooks == nil {
		hooks = map[string]session.ContextHook{}
	}
	return &Router{
		catalog:    catalog,
		registry:   registry,
		stateMgr:   stateMgr,
		sessionMgr: sessionMgr,
		parser:     parser,
		sender:     sender,
		audit:      audit,
		hooks:      hooks,
		logger:     logger,
	}
}

// Handle dispatches one inbound event: "message" runs the
// full pipeline, "group.participants" mutates role lists, anything else
// is acknowledged as unhandled.
func (r *Router) Handle(ctx context.Context, in event.Inbound) error {
	switch in.Event {
	case event.TypeMessage:
		return r.handleMessage(ctx, in)
	case event.TypeParticipants:
		return r.handleParticipants(ctx, in)
	default:
		r.logger.Debug("router: ignoring unhandled event", "event", in.Event)
		return nil
	}
}

func isGroupChat(chatID string) bool {
	return strings.HasSuffix(chatID, "@g.us")
}

func hookKey(scope, command string) string {
	return strings.ToLower(scope) + "." + strings.ToLower(command)
}

func (r *Router) contextHook(pc cmdparse.ParsedCommand) session.ContextHook {
	scope := pc.Service
	if scope == "" {
		scope = string(pc.CommandType)
	}
	return r.hooks[hookKey(scope, pc.Command)]
}

func newAuditRecord(userID, chatID, rawMessage string, now time.Time) state.AuditRecord {
	return state.AuditRecord{
		ID:         uuid.NewString(),
		Timestamp:  now,
		UserID:     userID,
		ChatID:     chatID,
		RawMessage: rawMessage,
		Status:     state.AuditPending,
	}
}

func (r *Router) appendAudit(ctx context.Context, rec state.AuditRecord) {
	if r.audit == nil {
		return
	}
	if err := r.audit.Append(ctx, rec); err != nil {
		r.logger.Error("router: audit append failed", "error", err)
	}
}

// appendReply joins two reply fragments with "\n", skipping an empty
// side, for concatenating replies across a multi-command message.
func appendReply(existing, addition string) string {
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	return existing + "\n" + addition
}
