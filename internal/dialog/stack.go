package dialog

import (
	"net/url"
	"strings"
)

// StackQueryKey is the query parameter carrying the open-dialog stack as a
// comma-joined list of instance ids, bottom first. It is part of the URL
// contract with earlier releases; do not rename.
const StackQueryKey = "tic_dialog_stack"

// readStack decodes the dialog stack from a query. Blank segments are
// dropped and duplicates keep their first position.
func readStack(q url.Values) []string {
	raw := q.Get(StackQueryKey)
	if raw == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// withStack returns a copy of the entry carrying the given stack. An empty
// stack removes the parameter entirely.
func withStack(e Entry, ids []string) Entry {
	out := e.clone()
	if len(ids) == 0 {
		out.Query.Del(StackQueryKey)
		return out
	}
	out.Query.Set(StackQueryKey, strings.Join(ids, ","))
	return out
}

func containsID(ids []string, id string) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

// appendID adds id to the top of the stack unless it is already present.
func appendID(ids []string, id string) []string {
	if containsID(ids, id) {
		return ids
	}
	return append(append([]string(nil), ids...), id)
}

// removeID drops id from the stack, keeping the order of the others.
func removeID(ids []string, id string) []string {
	var out []string
	for _, have := range ids {
		if have != id {
			out = append(out, have)
		}
	}
	return out
}

func topID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[len(ids)-1]
}
