package session

import (
	"fmt"
	"strings"

	"github.com/pocketbrain/wacore/internal/schema"
)

// ListItem is one entry of a ContextResult's List, optionally annotated
// with a sublabel.
type ListItem struct {
	Label    string
	Sublabel string
}

// ContextResult is what a service's interactive-context hook may return
// for one prompt: free text, a numbered list, an echoed
// selection, or a message — at most one of these is populated.
type ContextResult struct {
	Text         string
	List         []ListItem
	EmptyMessage string
	Selected     *ListItem
	Message      string
}

// ContextHook is the per-command capability a service may expose under
// the export name "_interactiveContext_<command>": given
// the args collected so far and the parameter currently being prompted
// for, it returns context to render above the prompt, or nil for none.
type ContextHook func(argsSoFar map[string]any, paramName string) (*ContextResult, error)

// renderContext turns a ContextResult into the text block preceding the
// prompt line, or "" if r is nil.
func renderContext(r *ContextResult) string {
	if r == nil {
		return ""
	}
	switch {
	case r.Selected != nil:
		if r.Selected.Sublabel != "" {
			return fmt.Sprintf("Selected: %s (%s)", r.Selected.Label, r.Selected.Sublabel)
		}
		return "Selected: " + r.Selected.Label
	case len(r.List) > 0:
		var b strings.Builder
		for i, item := range r.List {
			if item.Sublabel != "" {
				fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, item.Label, item.Sublabel)
			} else {
				fmt.Fprintf(&b, "%d. %s\n", i+1, item.Label)
			}
		}
		return strings.TrimRight(b.String(), "\n")
	case len(r.List) == 0 && r.EmptyMessage != "":
		return r.EmptyMessage
	case r.Message != "":
		return r.Message
	case r.Text != "":
		return r.Text
	default:
		return ""
	}
}

// Prompt renders the text for the parameter a session is currently
// awaiting: optional hook context, a blank line, then
// "*<description>?* _(<type>)_" with an "_or \"skip\"_" suffix when the
// parameter is optional.
func Prompt(def schema.ParameterDefinition, hookResult *ContextResult) string {
	description := def.Description
	if description == "" {
		description = def.Name
	}
	line := fmt.Sprintf("*%s?* _(%s)_", description, def.Type)
	if def.Optional {
		line += ` _or "skip"_`
	}

	ctxText := renderContext(hookResult)
	if ctxText == "" {
		return line
	}
	return ctxText + "\n\n" + line
}

// CancelHint is prepended to the first prompt of a new session.
const CancelHint = `_(reply "cancel" to stop)_` + "\n\n"
