package surface

import "testing"

func TestResolve(t *testing.T) {
	dm := map[string]any{"user.name": "Ada"}

	if val, ok := Resolve(Lit("x"), dm); !ok || val != "x" {
		t.Fatalf("literal: expected (x, true), got (%v, %v)", val, ok)
	}
	if val, ok := Resolve(Bind("user.name"), dm); !ok || val != "Ada" {
		t.Fatalf("bound present: expected (Ada, true), got (%v, %v)", val, ok)
	}
	if _, ok := Resolve(Bind("missing"), dm); ok {
		t.Fatalf("bound absent: expected unresolved")
	}
	if _, ok := Resolve(nil, dm); !ok {
		t.Fatalf("nil value: expected vacuous resolution")
	}
}

func TestRootsExcludesReferencedChildren(t *testing.T) {
	s := &Surface{
		ID: "s",
		Nodes: map[string]*Node{
			"col": {NodeKind: NodeColumn, Children: []string{"a", "b"}},
			"a":   {NodeKind: NodeText, Value: Lit("one")},
			"b":   {NodeKind: NodeText, Value: Lit("two")},
			"z":   {NodeKind: NodeDivider},
		},
	}
	roots := Roots(s)
	if len(roots) != 2 || roots[0] != "col" || roots[1] != "z" {
		t.Fatalf("expected roots [col z], got %v", roots)
	}
}

func TestReady(t *testing.T) {
	s := &Surface{
		ID: "s",
		Nodes: map[string]*Node{
			"n1": {NodeKind: NodeText, Value: Bind("msg")},
		},
		DataModel: map[string]any{},
	}
	if Ready(s) {
		t.Fatalf("expected unresolved binding to block readiness")
	}
	s.DataModel["msg"] = "hi"
	if !Ready(s) {
		t.Fatalf("expected surface to become ready once binding resolves")
	}
}

func TestReadyDanglingChildIsUnresolved(t *testing.T) {
	s := &Surface{
		ID: "s",
		Nodes: map[string]*Node{
			"col": {NodeKind: NodeColumn, Children: []string{"ghost"}},
		},
		DataModel: map[string]any{},
	}
	if Ready(s) {
		t.Fatalf("expected dangling child reference to block readiness")
	}
	s.Nodes["ghost"] = &Node{NodeKind: NodeDivider}
	if !Ready(s) {
		t.Fatalf("expected surface to become ready once the child arrives")
	}
}

func TestReadyIgnoresActionArgBindings(t *testing.T) {
	s := &Surface{
		ID: "s",
		Nodes: map[string]*Node{
			"btn": {
				NodeKind: NodeButton,
				Label:    Lit("Go"),
				Action:   &Action{Name: "go", Args: map[string]*Value{"target": Bind("later")}},
			},
		},
		DataModel: map[string]any{},
	}
	if !Ready(s) {
		t.Fatalf("action args resolve at interaction time; they must not gate readiness")
	}
}

func TestReadyEmptySurface(t *testing.T) {
	s := &Surface{ID: "s", Nodes: map[string]*Node{}, DataModel: map[string]any{}}
	if Ready(s) {
		t.Fatalf("an empty surface must not be ready")
	}
}
