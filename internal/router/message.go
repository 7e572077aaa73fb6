package router

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbrain/wacore/internal/cmdparse"
	"github.com/pocketbrain/wacore/internal/event"
	"github.com/pocketbrain/wacore/internal/hctx"
	"github.com/pocketbrain/wacore/internal/permission"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/session"
	"github.com/pocketbrain/wacore/internal/state"
)

const genericHandlerError = "An error occurred while processing your command"

func (r *Router) handleMessage(ctx context.Context, in event.Inbound) error {
	if in.IsSelf() {
		return nil
	}
	payload := in.Payload
	now := time.Now()
	rec := newAuditRecord(payload.From, payload.ChatID, payload.Body, now)
	r.appendAudit(ctx, rec)

	isPrivate := !isGroupChat(payload.ChatID)
	var reply string
	runErr := r.stateMgr.WithChat(ctx, payload.ChatID, func(doc *state.Document) error {
		chatType := state.ChatTypePrivate
		if !isPrivate {
			chatType = state.ChatTypeGroup
		}
		chat := doc.GetOrCreateChat(payload.ChatID, chatType)
		if payload.FromName != "" {
			chat.DisplayNames[payload.From] = payload.FromName
		}

		if sess := r.sessionMgr.Active(doc, payload.ChatID, payload.From, now); sess != nil {
			return r.handleSessionInput(ctx, doc, chat, payload, sess, now, &reply)
		}
		return r.handleParse(ctx, doc, chat, payload, isPrivate, now, &reply)
	})

	rec.Status = state.AuditSuccess
	rec.Response = reply
	if runErr != nil {
		rec.Status = state.AuditError
		rec.Error = runErr.Error()
	}
	r.appendAudit(ctx, rec)

	if reply != "" {
		if err := r.sender.SendReply(ctx, payload.ChatID, reply, payload.ID); err != nil {
			r.logger.Error("router: send reply failed", "error", err, "chatID", payload.ChatID)
		}
	}
	return runErr
}

func (r *Router) handleSessionInput(ctx context.Context, doc *state.Document, chat *state.ChatState, payload event.InboundPayload, sess *state.Session, now time.Time, reply *string) error {
	def, ok := commandDefFor(r.catalog, sess.CommandType, sess.Key.Service, sess.Key.Command)
	if !ok || sess.SyntaxIndex >= len(def.Syntaxes) {
		r.sessionMgr.Finish(doc, payload.ChatID, payload.From)
		return fmt.Errorf("router: session references unknown command %s.%s", sess.Key.Service, sess.Key.Command)
	}
	syntax := def.Syntaxes[sess.SyntaxIndex]

	outcome, err := r.sessionMgr.Advance(doc, sess, payload.Body, syntax, now)
	switch outcome {
	case session.Cancelled:
		*reply = "Cancelled."
		return nil

	case session.Invalid:
		paramDef, _ := paramByName(syntax, sess.CurrentParam())
		*reply = fmt.Sprintf("%s\n\n%s", err.Error(), session.Prompt(paramDef, nil))
		return nil

	case session.Continue:
		paramDef, _ := paramByName(syntax, sess.CurrentParam())
		hookResult, herr := r.runHook(pcFromSession(sess), sess.Args, sess.CurrentParam())
		if herr != nil {
			r.logger.Error("router: interactive context hook failed", "error", herr)
		}
		*reply = session.Prompt(paramDef, hookResult)
		return nil

	case session.Complete:
		r.sessionMgr.Finish(doc, payload.ChatID, payload.From)
		pc := pcFromSession(sess)
		return r.dispatch(ctx, doc, chat, payload, pc, sess.EffectiveRoles, reply)

	default:
		return nil
	}
}

func pcFromSession(sess *state.Session) cmdparse.ParsedCommand {
	return cmdparse.ParsedCommand{
		CommandType: sess.CommandType,
		Service:     sess.Key.Service,
		Command:     sess.Key.Command,
		Args:        sess.Args,
		SyntaxIndex: sess.SyntaxIndex,
	}
}

func (r *Router) handleParse(ctx context.Context, doc *state.Document, chat *state.ChatState, payload event.InboundPayload, isPrivate bool, now time.Time, reply *string) error {
	chatCtx := cmdparse.ChatContext{
		InstalledServices:    installedServices(chat),
		DisableServicePrefix: chat.AdminSettings.DisableServicePrefix,
		ArgsOnly:             chat.AdminSettings.ArgsOnlyCommand,
	}
	result := r.parser.Parse(payload.Body, chatCtx)

	for range result.Unknown {
		*reply = appendReply(*reply, "Unknown command. Send .help to see available commands.")
	}
	if len(result.Commands) == 0 {
		return nil
	}
	if len(result.Commands) == 1 {
		return r.handleSingle(ctx, doc, chat, payload, result.Commands[0], isPrivate, now, reply)
	}
	return r.handleMultiple(ctx, doc, chat, payload, result.Commands, isPrivate, now, reply)
}

func installedServices(chat *state.ChatState) map[string]bool {
	out := make(map[string]bool, len(chat.Services))
	for id, inst := range chat.Services {
		out[id] = inst.Installed && inst.Enabled
	}
	return out
}

func (r *Router) handleSingle(ctx context.Context, doc *state.Document, chat *state.ChatState, payload event.InboundPayload, pc cmdparse.ParsedCommand, isPrivate bool, now time.Time, reply *string) error {
	decision := permission.Authorize(permission.Request{
		Catalog:     r.catalog,
		Root:        doc.Root,
		Chat:        chat,
		CommandType: pc.CommandType,
		Service:     pc.Service,
		Command:     pc.Command,
		UserID:      payload.From,
		ChatID:      payload.ChatID,
		IsPrivate:   isPrivate,
	})
	if !decision.Allowed {
		if pc.ArgsOnly {
			return nil
		}
		*reply = appendReply(*reply, "Permission denied: "+decision.Reason)
		return nil
	}

	if pc.CommandType == state.CommandService && decision.SyntaxIndex != pc.SyntaxIndex {
		rebound, err := r.parser.Rebind(pc, decision.SyntaxIndex)
		if err != nil {
			if !pc.ArgsOnly {
				*reply = appendReply(*reply, "Could not parse arguments: "+err.Error())
			}
			return nil
		}
		pc = rebound
	}

	def, ok := pc.CommandDef(r.catalog)
	if !ok {
		*reply = appendReply(*reply, "Unknown command. Send .help to see available commands.")
		return nil
	}

	if def.IsInteractive() && pc.RawArgsEmpty && len(pc.Missing) > 0 {
		sess := r.sessionMgr.Start(doc, payload.ChatID, payload.From, pc, decision.EffectiveRoles, now)
		syntax := def.Syntaxes[pc.SyntaxIndex]
		paramDef, _ := paramByName(syntax, sess.CurrentParam())
		hookResult, herr := r.runHook(pc, sess.Args, sess.CurrentParam())
		if herr != nil {
			r.logger.Error("router: interactive context hook failed", "error", herr)
		}
		*reply = appendReply(*reply, session.CancelHint+session.Prompt(paramDef, hookResult))
		return nil
	}

	return r.dispatch(ctx, doc, chat, payload, pc, decision.EffectiveRoles, reply)
}

func (r *Router) handleMultiple(ctx context.Context, doc *state.Document, chat *state.ChatState, payload event.InboundPayload, cmds []cmdparse.ParsedCommand, isPrivate bool, now time.Time, reply *string) error {
	interactiveCount := 0
	executedForOneCmdService := map[string]bool{}

	for _, pc := range cmds {
		if pc.Service != "" {
			if svc, ok := r.catalog.Services[pc.Service]; ok && svc.OneCmdPerMsg {
				if executedForOneCmdService[pc.Service] {
					continue
				}
			}
		}

		decision := permission.Authorize(permission.Request{
			Catalog: r.catalog, Root: doc.Root, Chat: chat,
			CommandType: pc.CommandType, Service: pc.Service, Command: pc.Command,
			UserID: payload.From, ChatID: payload.ChatID, IsPrivate: isPrivate,
		})
		if !decision.Allowed {
			if !pc.ArgsOnly {
				*reply = appendReply(*reply, "Permission denied: "+decision.Reason)
			}
			continue
		}
		if pc.CommandType == state.CommandService && decision.SyntaxIndex != pc.SyntaxIndex {
			rebound, err := r.parser.Rebind(pc, decision.SyntaxIndex)
			if err != nil {
				continue
			}
			pc = rebound
		}

		def, ok := pc.CommandDef(r.catalog)
		if !ok {
			continue
		}

		if def.IsInteractive() && pc.RawArgsEmpty && len(pc.Missing) > 0 {
			interactiveCount++
			if interactiveCount > 1 {
				// Only one interactive command per message.
				continue
			}
			sess := r.sessionMgr.Start(doc, payload.ChatID, payload.From, pc, decision.EffectiveRoles, now)
			syntax := def.Syntaxes[pc.SyntaxIndex]
			paramDef, _ := paramByName(syntax, sess.CurrentParam())
			hookResult, _ := r.runHook(pc, sess.Args, sess.CurrentParam())
			*reply = appendReply(*reply, session.CancelHint+session.Prompt(paramDef, hookResult))
			continue
		}

		if err := r.dispatch(ctx, doc, chat, payload, pc, decision.EffectiveRoles, reply); err != nil {
			r.logger.Error("router: dispatch failed", "error", err, "service", pc.Service, "command", pc.Command)
		}
		if pc.Service != "" {
			executedForOneCmdService[pc.Service] = true
		}
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, doc *state.Document, chat *state.ChatState, payload event.InboundPayload, pc cmdparse.ParsedCommand, effectiveRoles []string, reply *string) error {
	scope := pc.Service
	if scope == "" {
		scope = string(pc.CommandType)
	}
	fn, ok := r.registry.Get(scope, pc.Command)
	if !ok {
		*reply = appendReply(*reply, genericHandlerError)
		return fmt.Errorf("router: no handler registered for %s.%s", scope, pc.Command)
	}

	var instance *state.ServiceInstance
	if pc.Service != "" {
		instance = chat.Services[pc.Service]
	}

	hc := &hctx.Context{
		Args:        pc.Args,
		ChatID:      payload.ChatID,
		UserID:      payload.From,
		UserName:    payload.FromName,
		IsGroup:     isGroupChat(payload.ChatID),
		RepliedToID: payload.RepliedToID,
		QuotedBody:  payload.QuotedBody,
		UserRoles:   effectiveRoles,
		Doc:         doc,
		Chat:        chat,
		Instance:    instance,
		Catalog:     r.catalog,
		Sender:      r.sender,
	}

	var text string
	var err error
	if pc.CommandType == state.CommandRoot {
		// Root commands read and mutate the single shared RootState, which
		// the chat lock already held by the caller does not protect against
		// a concurrent root command arriving from a different chat: nest
		// the global root lock inside it for the handler call itself.
		err = r.stateMgr.WithRoot(ctx, func(_ *state.Document) error {
			var herr error
			text, herr = fn(hctx.With(ctx, hc), pc.Args)
			return herr
		})
	} else {
		text, err = fn(hctx.With(ctx, hc), pc.Args)
	}
	if err != nil {
		r.logger.Error("router: handler error", "error", err, "service", pc.Service, "command", pc.Command)
		*reply = appendReply(*reply, genericHandlerError)
		return err
	}
	if text != "" {
		*reply = appendReply(*reply, text)
	}
	return nil
}

func (r *Router) runHook(pc cmdparse.ParsedCommand, argsSoFar map[string]any, paramName string) (*session.ContextResult, error) {
	hook := r.contextHook(pc)
	if hook == nil {
		return nil, nil
	}
	return hook(argsSoFar, paramName)
}

func commandDefFor(cat *schema.Catalog, ct state.CommandType, service, command string) (schema.CommandDefinition, bool) {
	switch ct {
	case state.CommandBuiltin:
		def, ok := cat.Builtin.Commands[command]
		return def, ok
	case state.CommandAdmin:
		def, ok := cat.Admin.Commands[command]
		return def, ok
	case state.CommandRoot:
		def, ok := cat.Root.Commands[command]
		return def, ok
	case state.CommandService:
		svc, ok := cat.Services[service]
		if !ok {
			return schema.CommandDefinition{}, false
		}
		def, ok := svc.Commands[command]
		return def, ok
	default:
		return schema.CommandDefinition{}, false
	}
}

func paramByName(syntax schema.Syntax, name string) (schema.ParameterDefinition, bool) {
	for _, p := range syntax.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return schema.ParameterDefinition{}, false
}
