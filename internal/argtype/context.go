// Package argtype implements the Type Parser: converting a
// raw token plus a declared type expression into a typed Go value,
// honoring base types, derived types, union types, and list types.
package argtype
