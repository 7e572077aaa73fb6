// Package session implements the Session Manager: the
// interactive multi-turn state machine that collects missing required
// arguments one at a time, with cancel/skip/expiry transitions and
// strict re-validation before completion.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/pocketbrain/wacore/internal/argtype"
	"github.com/pocketbrain/wacore/internal/cmdparse"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/state"
)

// DefaultTTL is the session inactivity expiry.
const DefaultTTL = 5 * time.Minute

// Manager drives session creation, advancement and expiry against a
// state.Document. It holds no document state itself — every method takes
// the document explicitly, so callers control locking (state.Manager's
// per-chat lock covers the whole operation).
type Manager struct {
	ttl time.Duration
}

// New returns a Manager with the given inactivity timeout.
func New(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{ttl: ttl}
}

// Active returns the live, non-expired session for (chatID, userID), if
// any. An expired session is deleted silently and reported as absent,
// moving it from AWAITING_ARG_i to NONE without a reply.
func (m *Manager) Active(doc *state.Document, chatID, userID string, now time.Time) *state.Session {
	sess := doc.FindSessionForUser(chatID, userID)
	if sess == nil {
		return nil
	}
	if sess.Expired(now, m.ttl) {
		doc.DeleteSession(chatID, userID)
		return nil
	}
	return sess
}

// Start creates and persists a new session for a command missing
// required arguments, moving the command from NONE to AWAITING_ARG_i.
func (m *Manager) Start(doc *state.Document, chatID, userID string, pc cmdparse.ParsedCommand, effectiveRoles []string, now time.Time) *state.Session {
	sess := &state.Session{
		Key: state.SessionKey{
			ChatID:  chatID,
			UserID:  userID,
			Service: pc.Service,
			Command: pc.Command,
		},
		CommandType:    pc.CommandType,
		SyntaxIndex:    pc.SyntaxIndex,
		Args:           cloneArgs(pc.Args),
		Pending:        append([]string(nil), pc.Missing...),
		Index:          0,
		EffectiveRoles: effectiveRoles,
		RawArgsEmpty:   pc.RawArgsEmpty,
		StartedAt:      now,
		LastActivity:   now,
	}
	doc.PutSession(sess)
	return sess
}

func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

// Outcome classifies the result of Advance.
type Outcome int

const (
	// Cancelled means the user typed "cancel"; the session is deleted.
	Cancelled Outcome = iota
	// Invalid means the supplied value failed re-validation; the
	// session stays at the same parameter so the user can retry.
	Invalid
	// Continue means one value was collected and another prompt follows.
	Continue
	// Complete means every pending parameter has been collected.
	Complete
)

// Advance feeds one user message into an in-progress session. syntax is
// the Syntax the session was opened against, needed to resolve each
// pending parameter's ParameterDefinition for re-validation.
func (m *Manager) Advance(doc *state.Document, sess *state.Session, input string, syntax schema.Syntax, now time.Time) (Outcome, error) {
	trimmed := strings.TrimSpace(input)

	if strings.EqualFold(trimmed, "cancel") {
		doc.DeleteSession(sess.Key.ChatID, sess.Key.UserID)
		return Cancelled, nil
	}

	paramName := sess.CurrentParam()
	def, ok := findParam(syntax, paramName)
	if !ok {
		return Invalid, fmt.Errorf("session: unknown parameter %q", paramName)
	}

	if strings.EqualFold(trimmed, "skip") {
		if !def.Optional {
			return Invalid, fmt.Errorf("%q is required and cannot be skipped", def.Name)
		}
		sess.Args[def.Name] = def.Default
		return m.advanceIndex(doc, sess, now), nil
	}

	value, err := reValidate(def, trimmed)
	if err != nil {
		sess.LastActivity = now
		doc.PutSession(sess)
		return Invalid, err
	}
	sess.Args[def.Name] = value
	return m.advanceIndex(doc, sess, now), nil
}

func (m *Manager) advanceIndex(doc *state.Document, sess *state.Session, now time.Time) Outcome {
	sess.Index++
	sess.LastActivity = now
	if sess.Done() {
		doc.PutSession(sess)
		return Complete
	}
	doc.PutSession(sess)
	return Continue
}

// Finish deletes the session for (chatID, userID), moving it from
// COMPLETE to NONE once the router has executed it.
func (m *Manager) Finish(doc *state.Document, chatID, userID string) {
	doc.DeleteSession(chatID, userID)
}

func findParam(syntax schema.Syntax, name string) (schema.ParameterDefinition, bool) {
	for _, p := range syntax.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return schema.ParameterDefinition{}, false
}

// reValidate re-parses a session-collected raw value against its
// parameter definition before allowing the COMPLETE transition.
func reValidate(def schema.ParameterDefinition, raw string) (any, error) {
	if def.IsList {
		return argtype.ParseList(def.Type, raw, def.Min, def.Max)
	}
	return argtype.Parse(def.Type, raw)
}
