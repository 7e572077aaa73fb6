package argtype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketbrain/wacore/internal/schema"
)

// Parse converts raw into a typed value per typeExpr, which may be a
// single type name or a "|"-separated union: alternatives
// are tried left to right and the first that parses without error wins.
// A literal "*" alternative matches only the literal token "*".
func Parse(typeExpr, raw string) (any, error) {
	alternatives := strings.Split(typeExpr, "|")
	var errs []string
	for _, alt := range alternatives {
		alt = strings.TrimSpace(alt)
		if alt == "*" {
			if raw == "*" {
				return raw, nil
			}
			errs = append(errs, `expected literal "*"`)
			continue
		}
		v, err := parseBase(alt, raw)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err.Error())
	}
	return nil, fmt.Errorf("%q does not match %s (%s)", raw, typeExpr, strings.Join(errs, "; "))
}

// SplitList splits a raw list argument on unescaped commas: a backslash
// immediately before a comma keeps it literal instead of splitting there,
// and a backslash before any other character is kept as-is.
func SplitList(raw string) []string {
	var tokens []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			if c != ',' {
				cur.WriteByte('\\')
			}
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == ',':
			tokens = append(tokens, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	tokens = append(tokens, strings.TrimSpace(cur.String()))
	return tokens
}

// expandRanges rewrites any token of the form "N-M" (both integers) into
// the literal sequence of intervening integers, ascending or descending.
// Non-range or malformed tokens pass through unchanged.
func expandRanges(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		lo, hi, ok := parseRange(t)
		if !ok {
			out = append(out, t)
			continue
		}
		step := 1
		if hi < lo {
			step = -1
		}
		for n := lo; ; n += step {
			out = append(out, strconv.Itoa(n))
			if n == hi {
				break
			}
		}
	}
	return out
}

func parseRange(t string) (lo, hi int, ok bool) {
	dash := strings.IndexByte(t, '-')
	if dash <= 0 || dash == len(t)-1 {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(t[:dash])
	b, errB := strconv.Atoi(t[dash+1:])
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

// dedupPreserveFirst removes later duplicates from tokens while keeping
// each surviving token's first occurrence position.
func dedupPreserveFirst(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseList parses a raw comma-separated argument into a slice of typed
// values: split, range-expand, dedup, bounds-check against min/max, then
// parse each surviving token against typeExpr.
func ParseList(typeExpr, raw string, min, max *int) ([]any, error) {
	tokens := SplitList(raw)
	tokens = expandRanges(tokens)
	tokens = dedupPreserveFirst(tokens)

	if min != nil && len(tokens) < *min {
		return nil, fmt.Errorf("expected at least %d value(s), got %d", *min, len(tokens))
	}
	if max != nil && len(tokens) > *max {
		return nil, fmt.Errorf("expected at most %d value(s), got %d", *max, len(tokens))
	}

	values := make([]any, 0, len(tokens))
	for _, t := range tokens {
		v, err := Parse(typeExpr, t)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// ErrMissingRequired is returned by ParseParam when raw is absent and the
// parameter is not optional; a default on such a parameter is not applied.
var ErrMissingRequired = fmt.Errorf("required parameter missing")

// ParseParam resolves one parameter against an optional raw token,
// applying the optionality rule: an absent raw with
// def.Optional set returns def.Default (nil if none); an absent raw that
// is required returns ErrMissingRequired. Package cmdparse does not call
// ParseParam; it applies the same rule itself in bindMissing.
func ParseParam(def schema.ParameterDefinition, raw *string) (any, error) {
	if raw == nil {
		if def.Optional {
			return def.Default, nil
		}
		return nil, ErrMissingRequired
	}
	if def.IsList {
		return ParseList(def.Type, *raw, def.Min, def.Max)
	}
	return Parse(def.Type, *raw)
}
