package memory

import (
	"context"
	"regexp"
)

// tokenPattern matches indirection tokens of the form
// @in-memory_<NodeName>_<key>. Everything after the prefix, up to the next
// character outside the token alphabet, is the store key.
var tokenPattern = regexp.MustCompile(`@in-memory_([A-Za-z0-9_.-]+)`)

// Resolve replaces every @in-memory_<NodeName>_<key> token in text with the
// Result field of the stored value under "<NodeName>_<key>".
//
// Lookups that miss or fail leave the original token in place - indirection
// is degraded, never fatal. A nil store returns text unchanged.
func Resolve(ctx context.Context, store Store, text string) string {
	if store == nil || text == "" {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := tokenPattern.FindStringSubmatch(match)[1]
		v, ok, err := store.Retrieve(ctx, key)
		if err != nil || !ok {
			return match
		}
		return v.Result
	})
}

// Key builds the store key a node should write so that
// "@in-memory_<node>_<name>" resolves to it.
func Key(node, name string) string {
	return node + "_" + name
}
