package surface

import "sort"

// Resolve resolves a value against a surface's data model. Literals resolve
// unconditionally; a bound value resolves by exact-path lookup. A nil value
// resolves vacuously. The second return reports whether resolution succeeded.
func Resolve(v *Value, dataModel map[string]any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if !v.IsBound() {
		return v.Literal, true
	}
	val, ok := dataModel[v.Bound]
	return val, ok
}

// Roots returns the surface's root node ids in deterministic order: every
// node id not referenced as a child of any other node.
func Roots(s *Surface) []string {
	referenced := map[string]bool{}
	for _, node := range s.Nodes {
		for _, child := range node.Children {
			referenced[child] = true
		}
	}
	roots := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		if !referenced[id] {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Ready reports whether every value reachable from the surface's roots
// resolves. A dangling child reference (a node id with no definition yet) is
// unresolved, not an error: its defining surfaceUpdate may simply not have
// arrived. Action argument bindings do not gate readiness; they resolve at
// interaction time. An empty surface is never ready.
func Ready(s *Surface) bool {
	if len(s.Nodes) == 0 {
		return false
	}
	seen := map[string]bool{}
	for _, id := range Roots(s) {
		if !nodeReady(s, id, seen) {
			return false
		}
	}
	return true
}

func nodeReady(s *Surface, id string, seen map[string]bool) bool {
	if seen[id] {
		return true
	}
	seen[id] = true

	node, ok := s.Nodes[id]
	if !ok {
		return false
	}
	for _, v := range []*Value{node.Value, node.Label, node.Title, node.Source, node.Alt} {
		if _, ok := Resolve(v, s.DataModel); !ok {
			return false
		}
	}
	for _, child := range node.Children {
		if !nodeReady(s, child, seen) {
			return false
		}
	}
	return true
}
