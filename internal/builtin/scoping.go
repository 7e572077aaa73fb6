package builtin

import (
	"reflect"
	"strings"

	"github.com/pocketbrain/wacore/internal/state"
)

// parseScoping splits a blacklist command's trailing "rest" argument into
// its group=/service=/command= scoping tokens (schema/root.yaml, admin.yaml).
func parseScoping(rest string) (groups, services, commands []string) {
	for _, field := range strings.Fields(rest) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "group":
			groups = append(groups, value)
		case "service":
			services = append(services, value)
		case "command":
			commands = append(commands, value)
		}
	}
	return groups, services, commands
}

// removeMatchingEntry drops the first entry in entries that exactly equals
// target, if any.
func removeMatchingEntry(entries []state.BlacklistEntry, target state.BlacklistEntry) []state.BlacklistEntry {
	for i, e := range entries {
		if reflect.DeepEqual(e, target) {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}
