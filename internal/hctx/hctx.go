// Package hctx carries the handler execution context into a
// schema.HandlerFunc via context.Context, so service handlers can reach
// the state document and storage without every package in the
// dependency graph importing package router.
package hctx

import (
	"context"

	"github.com/pocketbrain/wacore/internal/outbound"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/state"
	"github.com/pocketbrain/wacore/internal/storage"
)

type key struct{}

// Context is everything a handler may need, bound fresh for each
// dispatch.
type Context struct {
	Args map[string]any

	ChatID      string
	UserID      string
	UserName    string
	IsGroup     bool
	RepliedToID string
	QuotedBody  string
	UserRoles   []string

	Doc      *state.Document
	Chat     *state.ChatState
	Instance *state.ServiceInstance // nil outside service scope
	Catalog  *schema.Catalog
	Sender   outbound.Sender
}

// Storage returns a Storage Manager scoped to this handler's service
// instance. Panics if called outside service scope — a programming
// error, since only service handlers declare storage.
func (c *Context) Storage() *storage.Manager {
	if c.Instance == nil {
		panic("hctx: Storage() called outside service scope")
	}
	return storage.For(c.Instance)
}

// GetUsersWithRole returns every user id holding role r in this
// handler's service instance.
func (c *Context) GetUsersWithRole(role string) []string {
	if c.Instance == nil {
		return nil
	}
	return append([]string(nil), c.Instance.Roles[role]...)
}

// AddUserRole grants userID role in this handler's service instance.
func (c *Context) AddUserRole(role, userID string) {
	if c.Instance != nil {
		c.Instance.AddUserRole(role, userID)
	}
}

// RemoveUserRole revokes userID's role in this handler's service
// instance.
func (c *Context) RemoveUserRole(role, userID string) {
	if c.Instance != nil {
		c.Instance.RemoveUserRole(role, userID)
	}
}

// ResolveUserName returns the chat's display-name label for userID, or
// userID itself if none is recorded.
func (c *Context) ResolveUserName(userID string) string {
	if c.Chat == nil {
		return userID
	}
	if name, ok := c.Chat.DisplayNames[userID]; ok {
		return name
	}
	return userID
}

// With attaches hc to ctx.
func With(ctx context.Context, hc *Context) context.Context {
	return context.WithValue(ctx, key{}, hc)
}

// From retrieves the Context attached by With.
func From(ctx context.Context) (*Context, bool) {
	hc, ok := ctx.Value(key{}).(*Context)
	return hc, ok
}
