package cmdparse

import (
	"strings"

	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/state"
)

// Parser turns raw message bodies into ParsedCommands against a loaded
// schema catalog.
type Parser struct {
	cfg Config
	cat *schema.Catalog
}

// New returns a Parser bound to cat under cfg.
func New(cfg Config, cat *schema.Catalog) *Parser {
	return &Parser{cfg: cfg, cat: cat}
}

// Result is the Command Parser's output for one message body: zero or
// more recognized commands, plus the raw text of any prefixed line that
// failed to resolve to a known command.
type Result struct {
	Commands []ParsedCommand
	Unknown  []string
}

// None reports whether parsing produced nothing at all.
func (r Result) None() bool {
	return len(r.Commands) == 0 && len(r.Unknown) == 0
}

// Parse runs the full command-parsing process end to end.
func (p *Parser) Parse(body string, chat ChatContext) Result {
	lines := SplitLines(body)
	if len(lines) == 0 {
		return Result{}
	}

	if _, ok := isPrefixed(p.cfg, lines[0]); ok {
		return p.parseAllPrefixed(lines, chat)
	}

	if cmd, ok := p.tryArgsOnly(strings.Join(lines, " "), chat); ok {
		return Result{Commands: []ParsedCommand{cmd}}
	}

	return p.parseMixed(lines, chat)
}

func (p *Parser) parseAllPrefixed(lines []string, chat ChatContext) Result {
	var res Result
	for _, line := range lines {
		remainder, ok := isPrefixed(p.cfg, line)
		if !ok {
			continue
		}
		if cmd, ok := p.parsePrefixedRemainder(remainder, chat); ok {
			res.Commands = append(res.Commands, cmd)
		} else {
			res.Unknown = append(res.Unknown, line)
		}
	}
	return res
}

func (p *Parser) parseMixed(lines []string, chat ChatContext) Result {
	var res Result
	for _, line := range lines {
		if remainder, ok := isPrefixed(p.cfg, line); ok {
			if cmd, ok := p.parsePrefixedRemainder(remainder, chat); ok {
				res.Commands = append(res.Commands, cmd)
			} else {
				res.Unknown = append(res.Unknown, line)
			}
			continue
		}
		if cmd, ok := p.tryArgsOnly(line, chat); ok {
			res.Commands = append(res.Commands, cmd)
		}
		// Non-prefixed, non-binding lines are silently discarded.
	}
	return res
}

// parsePrefixedRemainder tokenizes and dispatches an already prefix-
// stripped line, then binds against the command's first syntax (the
// Permission Manager may later direct a re-bind against another index).
func (p *Parser) parsePrefixedRemainder(remainder string, chat ChatContext) (ParsedCommand, bool) {
	tokens := Tokenize(remainder)
	cmdType, service, command, rest, ok := dispatch(p.cfg, p.cat, chat, tokens)
	if !ok {
		return ParsedCommand{}, false
	}

	pc := ParsedCommand{
		CommandType:  cmdType,
		Service:      service,
		Command:      command,
		Tokens:       rest,
		RawArgsEmpty: len(rest) == 0,
	}

	def, ok := pc.CommandDef(p.cat)
	if !ok {
		return ParsedCommand{}, false
	}
	if len(def.Syntaxes) == 0 {
		return ParsedCommand{}, false
	}

	args, missing, err := bindArgs(rest, def.Syntaxes[0].Parameters)
	if err != nil {
		return ParsedCommand{}, false
	}
	pc.Args = args
	pc.Missing = missing
	pc.SyntaxIndex = 0
	return pc, true
}

// tryArgsOnly implements args-only mode: bind line's tokens against the
// designated (service, command) pair's first syntax, only succeeding if
// every required parameter resolves.
func (p *Parser) tryArgsOnly(line string, chat ChatContext) (ParsedCommand, bool) {
	if chat.ArgsOnly == nil {
		return ParsedCommand{}, false
	}
	if !chat.InstalledServices[chat.ArgsOnly.Service] {
		return ParsedCommand{}, false
	}
	svc, ok := p.cat.Services[chat.ArgsOnly.Service]
	if !ok {
		return ParsedCommand{}, false
	}
	def, ok := svc.Commands[strings.ToLower(chat.ArgsOnly.Command)]
	if !ok || len(def.Syntaxes) == 0 {
		return ParsedCommand{}, false
	}

	tokens := Tokenize(line)
	args, missing, err := bindArgs(tokens, def.Syntaxes[0].Parameters)
	if err != nil || len(missing) > 0 {
		return ParsedCommand{}, false
	}

	return ParsedCommand{
		CommandType:  state.CommandService,
		Service:      chat.ArgsOnly.Service,
		Command:      strings.ToLower(chat.ArgsOnly.Command),
		Tokens:       tokens,
		RawArgsEmpty: len(tokens) == 0,
		ArgsOnly:     true,
		Args:         args,
		SyntaxIndex:  0,
	}, true
}

// Rebind re-binds an already-dispatched command's tokens against a
// different syntax index, once the Permission Manager has selected the
// syntax to use.
func (p *Parser) Rebind(pc ParsedCommand, syntaxIndex int) (ParsedCommand, error) {
	def, ok := pc.CommandDef(p.cat)
	if !ok || syntaxIndex < 0 || syntaxIndex >= len(def.Syntaxes) {
		return pc, nil
	}
	args, missing, err := bindArgs(pc.Tokens, def.Syntaxes[syntaxIndex].Parameters)
	if err != nil {
		return pc, err
	}
	pc.Args = args
	pc.Missing = missing
	pc.SyntaxIndex = syntaxIndex
	return pc, nil
}
