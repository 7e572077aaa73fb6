package router

import (
	"context"

	"github.com/pocketbrain/wacore/internal/event"
	"github.com/pocketbrain/wacore/internal/state"
)

// handleParticipants applies a group.participants event's role mutation
// across every installed service instance in the chat:
// join/demote add or restore "member"; promote moves a user to "admin";
// leave removes the user from every role list in every installed
// service.
func (r *Router) handleParticipants(ctx context.Context, in event.Inbound) error {
	payload := in.Payload
	return r.stateMgr.WithChat(ctx, payload.ChatID, func(doc *state.Document) error {
		chat := doc.GetOrCreateChat(payload.ChatID, state.ChatTypeGroup)

		for _, jid := range payload.JIDs {
			for _, instance := range chat.Services {
				if !instance.Installed {
					continue
				}
				switch payload.Type {
				case event.ParticipantJoin:
					instance.AddUserRole("member", jid)
				case event.ParticipantDemote:
					instance.RemoveUserRole("admin", jid)
					instance.AddUserRole("member", jid)
				case event.ParticipantPromote:
					instance.RemoveUserRole("member", jid)
					instance.AddUserRole("admin", jid)
				case event.ParticipantLeave:
					instance.RemoveUserFromAllRoles(jid)
				}
			}
		}
		return nil
	})
}
