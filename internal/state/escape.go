package state

import "strings"

// Escape/Unescape implement a reversible key-encoding invariant:
// persistence backends that forbid dots in map keys receive "~" in
// their place on write, and get the dot back on read. It must never leak
// into external I/O (inbound/outbound payloads, replies). Package store
// does not call it: it saves the whole document as one JSON blob, whose
// keys may contain dots.

// Escape replaces every "." in k with "~", and every literal "~" with
// "~~" first so the mapping stays reversible.
func Escape(k string) string {
	k = strings.ReplaceAll(k, "~", "~~")
	return strings.ReplaceAll(k, ".", "~")
}

// Unescape reverses Escape. Unescape(Escape(k)) == k for any string k.
func Unescape(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for i := 0; i < len(k); i++ {
		if k[i] == '~' && i+1 < len(k) && k[i+1] == '~' {
			b.WriteByte('~')
			i++
			continue
		}
		if k[i] == '~' {
			b.WriteByte('.')
			continue
		}
		b.WriteByte(k[i])
	}
	return b.String()
}
