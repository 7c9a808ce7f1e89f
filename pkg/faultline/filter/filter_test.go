package filter

import (
	"reflect"
	"testing"
)

func nested() map[string]any {
	return map[string]any{
		"a": map[string]any{
			"x": map[string]any{"c": 1.0},
			"y": map[string]any{"d": 2.0},
		},
	}
}

func TestAllow_SingleWildcard(t *testing.T) {
	f := NewAllow([]string{"a.*.c"})

	got := f.Apply(nested())

	want := map[string]any{"a": map[string]any{"x": map[string]any{"c": 1.0}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestAllow_Literal(t *testing.T) {
	f := NewAllow([]string{"a.x"})

	got := f.Apply(nested())

	want := map[string]any{"a": map[string]any{"x": map[string]any{"c": 1.0}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestAllow_DeepWildcard(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"token": "t1",
			"b":     map[string]any{"token": "t2"},
		},
		"other": "kept out",
	}
	f := NewAllow([]string{"**.token"})

	got := f.Apply(data)

	want := map[string]any{
		"a": map[string]any{
			"token": "t1",
			"b":     map[string]any{"token": "t2"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestAllow_UnionOfPaths(t *testing.T) {
	f := NewAllow([]string{"a.x.c", "a.y.d"})

	got := f.Apply(nested())

	want := map[string]any{"a": map[string]any{
		"x": map[string]any{"c": 1.0},
		"y": map[string]any{"d": 2.0},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestAllow_Idempotent(t *testing.T) {
	f := NewAllow([]string{"a.*.c", "**.token"})
	data := map[string]any{
		"a":     map[string]any{"x": map[string]any{"c": 1.0, "token": "t"}},
		"spare": "x",
	}

	once := f.Apply(data)
	twice := f.Apply(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("re-applying filter changed output: %v vs %v", once, twice)
	}
}

func TestAllow_Lists(t *testing.T) {
	data := map[string]any{
		"items": []any{
			map[string]any{"name": "a", "secret": "s1"},
			map[string]any{"secret": "s2"},
		},
	}
	f := NewAllow([]string{"items.name"})

	got := f.Apply(data)

	want := map[string]any{"items": []any{map[string]any{"name": "a"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestAllow_EmptyPathsIsIdentity(t *testing.T) {
	data := nested()
	f := NewAllow(nil)

	got := f.Apply(data)

	if !reflect.DeepEqual(got, data) {
		t.Errorf("Apply() with no paths should be identity, got %v", got)
	}
}

func TestAllow_DoesNotMutateInput(t *testing.T) {
	data := nested()
	NewAllow([]string{"a.x.c"}).Apply(data)

	if !reflect.DeepEqual(data, nested()) {
		t.Errorf("input mutated: %v", data)
	}
}

func TestAllow_LeafCannotSatisfyDeeperPath(t *testing.T) {
	data := map[string]any{"a": "leaf"}
	f := NewAllow([]string{"a.b.c"})

	got := f.Apply(data)

	if len(got) != 0 {
		t.Errorf("Apply() = %v, want empty map", got)
	}
}

func TestDeny_DeepWildcardRemovesAtAllDepths(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"token": "t1",
			"b":     map[string]any{"token": "t2"},
		},
	}
	f := NewDeny([]string{"**.token"})

	got := f.Apply(data)

	// Both tokens removed; the emptied containers are pruned away.
	if len(got) != 0 {
		t.Errorf("Apply() = %v, want empty map after pruning", got)
	}
}

func TestDeny_DeepWildcardKeepEmpty(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"token": "t1",
			"b":     map[string]any{"token": "t2"},
		},
	}
	f := NewDeny([]string{"**.token"}, WithKeepEmpty())

	got := f.Apply(data)

	want := map[string]any{"a": map[string]any{"b": map[string]any{}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestDeny_LiteralDescent(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"x": map[string]any{"c": 1.0, "keep": true},
			"y": map[string]any{"d": 2.0},
		},
	}
	f := NewDeny([]string{"a.x.c"})

	got := f.Apply(data)

	want := map[string]any{"a": map[string]any{
		"x": map[string]any{"keep": true},
		"y": map[string]any{"d": 2.0},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestDeny_SingleWildcard(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"x": map[string]any{"c": 1.0, "keep": true},
			"y": map[string]any{"c": 2.0},
		},
	}
	f := NewDeny([]string{"a.*.c"})

	got := f.Apply(data)

	want := map[string]any{"a": map[string]any{"x": map[string]any{"keep": true}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestDeny_EmptyPathsIsIdentity(t *testing.T) {
	data := nested()
	f := NewDeny(nil)

	got := f.Apply(data)

	if !reflect.DeepEqual(got, data) {
		t.Errorf("Apply() with no paths should be identity, got %v", got)
	}
}

func TestDeny_NoDeniedKeyRemains(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{
			"name":  "a",
			"email": "a@example.com",
		},
		"session": map[string]any{"email": "b@example.com", "id": "s1"},
	}
	f := NewDeny([]string{"**.email"})

	got := f.Apply(data)

	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if _, ok := val["email"]; ok {
				t.Errorf("denied key still present in %v", val)
			}
			for _, child := range val {
				walk(child)
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		}
	}
	walk(got)
}

func TestDeny_DoesNotMutateInput(t *testing.T) {
	data := nested()
	NewDeny([]string{"a.x"}).Apply(data)

	if !reflect.DeepEqual(data, nested()) {
		t.Errorf("input mutated: %v", data)
	}
}

func TestAllow_MaxDepthBoundsRecursion(t *testing.T) {
	// Build nesting deeper than the ceiling; matching must stop cleanly.
	deep := map[string]any{"leaf": "v"}
	for i := 0; i < 10; i++ {
		deep = map[string]any{"n": deep}
	}
	f := NewAllow([]string{"**.leaf"}, WithMaxDepth(4))

	got := f.Apply(deep)

	if len(got) != 0 {
		t.Errorf("Apply() beyond depth ceiling = %v, want empty", got)
	}
}
