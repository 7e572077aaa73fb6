package cmdparse

import (
	"fmt"
	"strings"

	"github.com/pocketbrain/wacore/internal/argtype"
	"github.com/pocketbrain/wacore/internal/schema"
)

// bindArgs binds each parameter to exactly one token, except the last
// string/Arguments parameter
// slurps every remaining token (space-joined), and an isList parameter
// still consumes exactly one token (itself a comma-list). Missing
// required parameters are reported in missing rather than failing the
// whole bind, since a missing required argument triggers interactive
// collection rather than a ParseError.
//
// A present token that fails type validation is a hard ParseError: it
// stops the bind immediately and returns err non-nil.
func bindArgs(tokens []string, params []schema.ParameterDefinition) (args map[string]any, missing []string, err error) {
	args = make(map[string]any, len(params))
	idx := 0

	for i, def := range params {
		isLastSlurp := i == len(params)-1 && !def.IsList &&
			(strings.EqualFold(def.Type, "string") || strings.EqualFold(def.Type, "Arguments"))

		switch {
		case isLastSlurp:
			if idx >= len(tokens) {
				if err := bindMissing(def, args, &missing); err != nil {
					return nil, nil, err
				}
				continue
			}
			joined := strings.Join(tokens[idx:], " ")
			idx = len(tokens)
			v, perr := argtype.Parse(def.Type, joined)
			if perr != nil {
				return nil, nil, fmt.Errorf("parameter %q: %w", def.Name, perr)
			}
			args[def.Name] = v

		case def.IsList:
			if idx >= len(tokens) {
				if err := bindMissing(def, args, &missing); err != nil {
					return nil, nil, err
				}
				continue
			}
			tok := tokens[idx]
			idx++
			v, perr := argtype.ParseList(def.Type, tok, def.Min, def.Max)
			if perr != nil {
				return nil, nil, fmt.Errorf("parameter %q: %w", def.Name, perr)
			}
			args[def.Name] = v

		default:
			if idx >= len(tokens) {
				if err := bindMissing(def, args, &missing); err != nil {
					return nil, nil, err
				}
				continue
			}
			tok := tokens[idx]
			idx++
			v, perr := argtype.Parse(def.Type, tok)
			if perr != nil {
				return nil, nil, fmt.Errorf("parameter %q: %w", def.Name, perr)
			}
			args[def.Name] = v
		}
	}

	return args, missing, nil
}

// bindMissing applies the optionality rule for an absent token: an
// optional parameter resolves to its default (nil if none); a
// required parameter is recorded as missing so the router can open an
// interactive session.
func bindMissing(def schema.ParameterDefinition, args map[string]any, missing *[]string) error {
	if def.Optional {
		args[def.Name] = def.Default
		return nil
	}
	*missing = append(*missing, def.Name)
	return nil
}
