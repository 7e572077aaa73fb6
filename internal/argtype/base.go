package argtype

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	shortTimeLayout = "15:04"
	dateTimeLayout  = time.RFC3339
)

// derivedSuffix is the type-specific suffix check applied after the base
// validation for catalog types declared with derivedFrom.
var derivedSuffix = map[string]string{
	"groupid": "@g.us",
	"userid":  "@s.whatsapp.net",
}

// parseBase converts raw against one non-union type name. Base types are
// self-contained; derived types validate against their base first, then
// apply a suffix check (GroupId/UserId) or a no-whitespace check
// (Role/Service/Command/Setting).2.
func parseBase(typeName, raw string) (any, error) {
	switch strings.ToLower(typeName) {
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil

	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil

	case "bool":
		switch strings.ToLower(raw) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		default:
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}

	case "word":
		return parseWord(raw)

	case "string", "arguments":
		return raw, nil

	case "date":
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a date (YYYY-MM-DD)", raw)
		}
		return t, nil

	case "time":
		if t, err := time.Parse(timeLayout, raw); err == nil {
			return t, nil
		}
		t, err := time.Parse(shortTimeLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a time (HH:MM[:SS])", raw)
		}
		return t, nil

	case "datetime":
		t, err := time.Parse(dateTimeLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a datetime (ISO-8601)", raw)
		}
		return t, nil

	case "email":
		if !looksLikeEmail(raw) {
			return nil, fmt.Errorf("%q is not an email address", raw)
		}
		return raw, nil

	case "any":
		return raw, nil

	case "groupid", "userid":
		if _, err := parseWord(raw); err != nil {
			return nil, err
		}
		suffix := derivedSuffix[strings.ToLower(typeName)]
		if !strings.HasSuffix(raw, suffix) {
			return nil, fmt.Errorf("%q does not end with %s", raw, suffix)
		}
		return raw, nil

	case "role", "service", "command", "setting":
		return parseWord(raw)

	default:
		return nil, fmt.Errorf("unknown type %q", typeName)
	}
}

func parseWord(raw string) (string, error) {
	if raw == "" || strings.ContainsAny(raw, " \t\n\r") {
		return "", fmt.Errorf("%q is not a single word", raw)
	}
	return raw, nil
}

func looksLikeEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(s, " \t")
}
