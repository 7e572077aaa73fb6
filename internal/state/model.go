// Package state defines the runtime state document shared by every
// component of the bot core: root state, per-chat state, per-(chat,service)
// instances, blacklist entries, interactive sessions, and the audit log.
//
// The document is expressed as a sum of concrete structs rather than a
// dynamic map tree (nested mappings in the source system this core
// reimplements): dots-in-keys are an encoding concern, never handled in
// these types. Escape/Unescape provide the key encoding; package store
// saves the document as a JSON blob and does not apply it.
package state

import (
	"sync"
	"time"
)

// ChatType distinguishes a WhatsApp group from a private chat.
type ChatType string

const (
	ChatTypeGroup   ChatType = "group"
	ChatTypePrivate ChatType = "private"
)

// RootState is the single global aggregate: root users, root scope
// settings, and the global blacklist.
type RootState struct {
	RootUsers           map[string]struct{} `json:"rootUsers"`
	RootSettings        map[string]string   `json:"rootSettings"`
	InvokePrefixPattern string              `json:"invokePrefixPattern"`
	GlobalBlacklist     []BlacklistEntry    `json:"globalBlacklist"`
	BotEnabled          bool                `json:"botEnabled"`
}

// NewRootState returns a RootState seeded with one root user, as the core
// does on first boot.
func NewRootState(rootUserID string) *RootState {
	return &RootState{
		RootUsers:    map[string]struct{}{rootUserID: {}},
		RootSettings: map[string]string{},
		BotEnabled:   true,
	}
}

// IsRoot reports whether userID is a configured root user.
func (r *RootState) IsRoot(userID string) bool {
	_, ok := r.RootUsers[userID]
	return ok
}

// AdminSettings holds the per-chat admin-configurable settings that are
// not otherwise placed in the data model.
type AdminSettings struct {
	ReplyOnParsingError  bool               `json:"replyOnParsingError"`
	DisableServicePrefix string             `json:"disableServicePrefix,omitempty"`
	ArgsOnlyCommand      *ArgsOnlyCommand   `json:"argsOnlyCommand,omitempty"`
	Extra                map[string]string  `json:"extra,omitempty"`
}

// ArgsOnlyCommand names the (service, command) pair that bare, prefix-less
// lines are bound to under args-only mode.
type ArgsOnlyCommand struct {
	Service string `json:"service"`
	Command string `json:"command"`
}

// ChatState is the per-chat aggregate: chat type, admin settings, installed
// services, display-name labels, and the chat's own blacklist.
type ChatState struct {
	ChatID          string                      `json:"chatID"`
	ChatType        ChatType                    `json:"chatType"`
	BotEnabled      bool                        `json:"botEnabled"`
	AdminSettings   AdminSettings               `json:"adminSettings"`
	Services        map[string]*ServiceInstance `json:"services"`
	DisplayNames    map[string]string           `json:"displayNames"`
	GroupBlacklist  []BlacklistEntry            `json:"groupBlacklist"`
}

// NewChatState creates a lazily-initialized ChatState for a chat's first
// message.
func NewChatState(chatID string, chatType ChatType) *ChatState {
	return &ChatState{
		ChatID:       chatID,
		ChatType:     chatType,
		BotEnabled:   true,
		Services:     map[string]*ServiceInstance{},
		DisplayNames: map[string]string{},
	}
}

// ServiceInstance is a service installed into one chat: its role
// membership, per-chat service settings, and service-owned storage.
type ServiceInstance struct {
	Installed bool                         `json:"installed"`
	Enabled   bool                         `json:"enabled"`
	Roles     map[string][]string          `json:"roles"`
	Settings  map[string]string            `json:"settings"`
	Storage   map[string][]StorageRecord   `json:"storage"`
}

// NewServiceInstance creates a ServiceInstance with the given role names
// initialized to empty membership lists.
func NewServiceInstance(roleNames []string) *ServiceInstance {
	si := &ServiceInstance{
		Installed: true,
		Enabled:   true,
		Roles:     map[string][]string{},
		Settings:  map[string]string{},
		Storage:   map[string][]StorageRecord{},
	}
	for _, r := range roleNames {
		si.Roles[r] = []string{}
	}
	return si
}

// HasRole reports whether userID holds role r, directly or via the
// wildcard "*" member.
func (si *ServiceInstance) HasRole(r, userID string) bool {
	for _, u := range si.Roles[r] {
		if u == userID || u == "*" {
			return true
		}
	}
	return false
}

// EffectiveRoles returns every role name in si whose member list contains
// userID or the wildcard.
func (si *ServiceInstance) EffectiveRoles(userID string) []string {
	var roles []string
	for r := range si.Roles {
		if si.HasRole(r, userID) {
			roles = append(roles, r)
		}
	}
	return roles
}

// AddUserRole appends userID to role r if not already present.
func (si *ServiceInstance) AddUserRole(r, userID string) {
	if si.HasRole(r, userID) {
		return
	}
	si.Roles[r] = append(si.Roles[r], userID)
}

// RemoveUserRole removes userID from role r.
func (si *ServiceInstance) RemoveUserRole(r, userID string) {
	members := si.Roles[r]
	out := members[:0]
	for _, u := range members {
		if u != userID {
			out = append(out, u)
		}
	}
	si.Roles[r] = out
}

// RemoveUserFromAllRoles removes userID from every role list, used when a
// participant leaves the group.
func (si *ServiceInstance) RemoveUserFromAllRoles(userID string) {
	for r := range si.Roles {
		si.RemoveUserRole(r, userID)
	}
}

// StorageRecord is one record in a service's declared storage collection.
// Fields is the record payload as decoded JSON (map[string]any), so the
// Storage Manager can perform shallow-merge updates without knowing the
// service's concrete record type.
type StorageRecord struct {
	ID     string         `json:"_id"`
	Fields map[string]any `json:"fields"`
}

// BlacklistEntry is a deny rule keyed by user id, scoped by group/service/
// command wildcards. A nil set means "unrestricted on
// this dimension"; a set containing "*" also means unrestricted.
type BlacklistEntry struct {
	UserID   string   `json:"userID"`
	Groups   []string `json:"groups,omitempty"`
	Services []string `json:"services,omitempty"`
	Commands []string `json:"commands,omitempty"`
}

// Matches reports whether this entry denies userID's command invocation in
// chatID against service/command.
func (b BlacklistEntry) Matches(userID, chatID, service, command string) bool {
	if b.UserID != userID {
		return false
	}
	return setMatches(b.Groups, chatID) && setMatches(b.Services, service) && setMatches(b.Commands, command)
}

// setMatches reports whether an unset/empty/wildcard set matches anything,
// or whether value is a literal member.
func setMatches(set []string, value string) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == "*" || v == value {
			return true
		}
	}
	return false
}

// CommandType classifies a parsed command for permission purposes.
type CommandType string

const (
	CommandBuiltin CommandType = "builtin"
	CommandRoot    CommandType = "root"
	CommandAdmin   CommandType = "admin"
	CommandService CommandType = "service"
)

// SessionKey identifies one live interactive session.
type SessionKey struct {
	ChatID  string `json:"chatID"`
	UserID  string `json:"userID"`
	Service string `json:"service,omitempty"`
	Command string `json:"command"`
}

// Session is persisted conversational state for collecting missing
// arguments from a user across multiple inbound messages.
type Session struct {
	Key              SessionKey        `json:"key"`
	CommandType      CommandType       `json:"commandType"`
	SyntaxIndex      int               `json:"syntaxIndex"`
	Args             map[string]any    `json:"args"`
	Pending          []string          `json:"pending"`
	Index            int               `json:"index"`
	EffectiveRoles   []string          `json:"effectiveRoles"`
	RawArgsEmpty     bool              `json:"rawArgsEmpty"`
	StartedAt        time.Time         `json:"startedAt"`
	LastActivity     time.Time         `json:"lastActivity"`
}

// CurrentParam returns the parameter name the session is currently
// awaiting, or "" if the pending list is exhausted.
func (s *Session) CurrentParam() string {
	if s.Index < 0 || s.Index >= len(s.Pending) {
		return ""
	}
	return s.Pending[s.Index]
}

// Done reports whether every pending parameter has been collected.
func (s *Session) Done() bool {
	return s.Index >= len(s.Pending)
}

// Expired reports whether the session has been inactive for longer than
// ttl, relative to now.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}

// AuditStatus is the outcome recorded for one inbound event.
type AuditStatus string

const (
	AuditPending AuditStatus = "pending"
	AuditSuccess AuditStatus = "success"
	AuditError   AuditStatus = "error"
)

// AuditRecord is one append-only entry in the audit log.
type AuditRecord struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    string      `json:"userID"`
	ChatID    string      `json:"chatID"`
	RawMessage string     `json:"rawMessage"`
	Parsed    string      `json:"parsed,omitempty"`
	Status    AuditStatus `json:"status"`
	Response  string      `json:"response,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Document is the whole persisted aggregate: root state, every chat's
// state, and every live session. It is what the persistence interface
// loads and saves atomically.
//
// mu guards only structural map access (looking up/creating/removing a
// chat or session entry): messages from different (chatId,userId) pairs
// must process concurrently, so business logic is ordered by a per-chat
// lock (state.Manager), not this one; but Go maps are not safe for
// concurrent structural mutation even on distinct keys, so the map
// operations themselves still need a guard.
type Document struct {
	mu sync.Mutex

	Root     *RootState             `json:"root"`
	Chats    map[string]*ChatState  `json:"chats"`
	Sessions map[string]*Session    `json:"sessions"`
}

// NewDocument creates an empty Document seeded with root state.
func NewDocument(rootUserID string) *Document {
	return &Document{
		Root:     NewRootState(rootUserID),
		Chats:    map[string]*ChatState{},
		Sessions: map[string]*Session{},
	}
}

// GetOrCreateChat returns the ChatState for chatID, creating one lazily on
// first access.
func (d *Document) GetOrCreateChat(chatID string, chatType ChatType) *ChatState {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cs, ok := d.Chats[chatID]; ok {
		return cs
	}
	cs := NewChatState(chatID, chatType)
	d.Chats[chatID] = cs
	return cs
}

func sessionMapKey(k SessionKey) string {
	return k.ChatID + "\x1f" + k.UserID + "\x1f" + k.Service + "\x1f" + k.Command
}

// FindSessionForUser returns the one live session for (chatID, userID), if
// any. At most one session can be active per (chatID, userID) at a time.
func (d *Document) FindSessionForUser(chatID, userID string) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.Sessions {
		if s.Key.ChatID == chatID && s.Key.UserID == userID {
			return s
		}
	}
	return nil
}

// PutSession stores or replaces a session.
func (d *Document) PutSession(s *Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Sessions[sessionMapKey(s.Key)] = s
}

// DeleteSession removes the session for (chatID, userID), if any.
func (d *Document) DeleteSession(chatID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, s := range d.Sessions {
		if s.Key.ChatID == chatID && s.Key.UserID == userID {
			delete(d.Sessions, k)
			return
		}
	}
}
