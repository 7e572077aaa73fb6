package cmdparse

import (
	"regexp"
	"strings"

	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/state"
)

// DefaultInvokePrefixPattern is the default invocation-prefix regex: a
// line starting with a single "." (not "..") addresses the bot. The
// pattern has no capture group; the prefix is stripped separately.
const DefaultInvokePrefixPattern = `^\.(?:[^.].*|)$`

// Config holds the Command Parser's tunables.
type Config struct {
	RootPrefix    string
	AdminPrefix   string
	CommandPrefix string
	InvokePrefix  *regexp.Regexp
}

// DefaultConfig returns the parser's stated defaults.
func DefaultConfig() Config {
	return Config{
		RootPrefix:    "root",
		AdminPrefix:   "admin",
		CommandPrefix: ".",
		InvokePrefix:  regexp.MustCompile(DefaultInvokePrefixPattern),
	}
}

// isPrefixed reports whether line addresses the bot under cfg's
// invocation-prefix regex, and returns the remainder with the leading
// command-prefix character stripped.
func isPrefixed(cfg Config, line string) (remainder string, ok bool) {
	if cfg.InvokePrefix == nil || !cfg.InvokePrefix.MatchString(line) {
		return "", false
	}
	return strings.TrimPrefix(line, cfg.CommandPrefix), true
}

// ChatContext supplies the per-chat facts dispatch needs: which services
// are installed (and thus addressable), whether the chat has dropped its
// service prefix requirement, and whether args-only binding is active.
type ChatContext struct {
	InstalledServices    map[string]bool
	DisableServicePrefix string
	ArgsOnly             *state.ArgsOnlyCommand
}

// dispatch decides the scope and command name for a tokenized,
// prefix-stripped line.
func dispatch(cfg Config, cat *schema.Catalog, chat ChatContext, tokens []string) (cmdType state.CommandType, service, command string, rest []string, ok bool) {
	if len(tokens) == 0 {
		return "", "", "", nil, false
	}
	first := strings.ToLower(tokens[0])

	switch {
	case first == strings.ToLower(cfg.RootPrefix):
		if len(tokens) < 2 {
			return "", "", "", nil, false
		}
		return state.CommandRoot, "", strings.ToLower(tokens[1]), tokens[2:], true

	case first == strings.ToLower(cfg.AdminPrefix):
		if len(tokens) < 2 {
			return "", "", "", nil, false
		}
		return state.CommandAdmin, "", strings.ToLower(tokens[1]), tokens[2:], true

	case isBuiltin(cat, first):
		return state.CommandBuiltin, "", first, tokens[1:], true

	case chat.InstalledServices[first]:
		if len(tokens) < 2 {
			return "", "", "", nil, false
		}
		return state.CommandService, first, strings.ToLower(tokens[1]), tokens[2:], true

	case chat.DisableServicePrefix != "" && chat.InstalledServices[chat.DisableServicePrefix]:
		return state.CommandService, chat.DisableServicePrefix, first, tokens[1:], true

	default:
		return "", "", "", nil, false
	}
}

func isBuiltin(cat *schema.Catalog, name string) bool {
	_, ok := cat.Builtin.Commands[name]
	return ok
}
