package loxx

import "testing"

func TestIsFalsey(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", NilValue(), true},
		{"false", BoolValue(false), true},
		{"true", BoolValue(false == false), false},
		{"zero", NumberValue(0), false},
		{"empty string", ObjValue(&objString{chars: ""}), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isFalsey(c.v); got != c.want {
				t.Errorf("isFalsey(%v) = %v, want %v", c.v, got, c.want)
			}
		})
	}
}

func TestValuesEqual(t *testing.T) {
	s1 := &objString{chars: "lox"}
	s2 := &objString{chars: "lox"}
	c1 := &objClass{name: s1}

	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil == nil", NilValue(), NilValue(), true},
		{"different kinds", NilValue(), BoolValue(false), false},
		{"numbers equal", NumberValue(1), NumberValue(1), true},
		{"numbers differ", NumberValue(1), NumberValue(2), false},
		{"strings compare by content", ObjValue(s1), ObjValue(s2), true},
		{"classes compare by identity", ObjValue(c1), ObjValue(&objClass{name: s1}), false},
		{"same class reference", ObjValue(c1), ObjValue(c1), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := valuesEqual(c.a, c.b); got != c.want {
				t.Errorf("valuesEqual(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestSprintValue(t *testing.T) {
	fn := &objFunction{name: &objString{chars: "add"}}
	script := &objFunction{}

	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"nil", NilValue(), "nil"},
		{"true", BoolValue(true), "true"},
		{"number", NumberValue(3), "3"},
		{"fractional number", NumberValue(3.5), "3.5"},
		{"string", ObjValue(&objString{chars: "hi"}), "hi"},
		{"named function", ObjValue(fn), "<fn add>"},
		{"script function", ObjValue(script), "<script>"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := sprintValue(c.v); got != c.want {
				t.Errorf("sprintValue(%v) = %q, want %q", c.v, got, c.want)
			}
		})
	}
}
