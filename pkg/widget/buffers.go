package widget

import "sort"

// removeBuffers returns a copy of state with every []byte value lifted
// out. Map entries holding a buffer are dropped; list entries become nil.
// paths[i] locates buffers[i] as a sequence of map keys and list indices.
func removeBuffers(state map[string]any) (map[string]any, [][]any, [][]byte) {
	var (
		paths   [][]any
		buffers [][]byte
	)
	var walk func(v any, path []any) (any, bool)
	walk = func(v any, path []any) (any, bool) {
		switch x := v.(type) {
		case []byte:
			paths = append(paths, append([]any(nil), path...))
			buffers = append(buffers, x)
			return nil, true
		case map[string]any:
			out := make(map[string]any, len(x))
			for _, k := range sortedKeys(x) {
				nv, removed := walk(x[k], append(path, k))
				if !removed {
					out[k] = nv
				}
			}
			return out, false
		case []any:
			out := make([]any, len(x))
			for i, el := range x {
				nv, _ := walk(el, append(path, i))
				out[i] = nv
			}
			return out, false
		}
		return v, false
	}
	clean, _ := walk(state, nil)
	return clean.(map[string]any), paths, buffers
}

// InsertBuffers is the inverse of the buffer removal done for outgoing
// messages: it puts each buffer back at its path inside state.
func InsertBuffers(state map[string]any, paths [][]any, buffers [][]byte) {
	for i, path := range paths {
		if i >= len(buffers) || len(path) == 0 {
			continue
		}
		var cur any = state
		for _, step := range path[:len(path)-1] {
			cur = child(cur, step)
		}
		switch c := cur.(type) {
		case map[string]any:
			if k, ok := path[len(path)-1].(string); ok {
				c[k] = buffers[i]
			}
		case []any:
			if j, ok := index(path[len(path)-1]); ok && j < len(c) {
				c[j] = buffers[i]
			}
		}
	}
}

func child(v any, step any) any {
	switch c := v.(type) {
	case map[string]any:
		if k, ok := step.(string); ok {
			return c[k]
		}
	case []any:
		if j, ok := index(step); ok && j < len(c) {
			return c[j]
		}
	}
	return nil
}

// index accepts ints as written by removeBuffers and float64 as decoded
// from JSON.
func index(step any) (int, bool) {
	switch n := step.(type) {
	case int:
		return n, n >= 0
	case float64:
		return int(n), n >= 0
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
