package loxx

import (
	"fmt"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	valNil valueKind = iota
	valBool
	valNumber
	valObj
)

// Value is a tagged union: Nil, Boolean, Number or a reference to a
// heap object. It is deliberately a small value type (no pointer
// indirection for the scalar cases) so pushing and popping the VM
// stack never allocates.
type Value struct {
	kind    valueKind
	boolean bool
	number  float64
	obj     object
}

func NilValue() Value             { return Value{kind: valNil} }
func BoolValue(b bool) Value      { return Value{kind: valBool, boolean: b} }
func NumberValue(n float64) Value { return Value{kind: valNumber, number: n} }
func ObjValue(o object) Value     { return Value{kind: valObj, obj: o} }

func (v Value) IsNil() bool    { return v.kind == valNil }
func (v Value) IsBool() bool   { return v.kind == valBool }
func (v Value) IsNumber() bool { return v.kind == valNumber }
func (v Value) IsObj() bool    { return v.kind == valObj }

func (v Value) AsBool() bool      { return v.boolean }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() object     { return v.obj }

func (v Value) asString() (*objString, bool) {
	if v.kind != valObj {
		return nil, false
	}
	s, ok := v.obj.(*objString)
	return s, ok
}

func (v Value) asClosure() (*objClosure, bool) {
	if v.kind != valObj {
		return nil, false
	}
	c, ok := v.obj.(*objClosure)
	return c, ok
}

func (v Value) asInstance() (*objInstance, bool) {
	if v.kind != valObj {
		return nil, false
	}
	i, ok := v.obj.(*objInstance)
	return i, ok
}

func (v Value) asClass() (*objClass, bool) {
	if v.kind != valObj {
		return nil, false
	}
	c, ok := v.obj.(*objClass)
	return c, ok
}

// isFalsey implements Lox truthiness: Nil and Boolean(false) are
// falsey, everything else (including Number(0) and "") is truthy.
func isFalsey(v Value) bool {
	switch v.kind {
	case valNil:
		return true
	case valBool:
		return !v.boolean
	default:
		return false
	}
}

// valuesEqual implements Lox equality: the operands must share a
// type; Nil equals Nil; scalars compare by value; object references
// compare by content when both are strings, by identity otherwise.
func valuesEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case valNil:
		return true
	case valBool:
		return a.boolean == b.boolean
	case valNumber:
		return a.number == b.number
	case valObj:
		as, aIsStr := a.obj.(*objString)
		bs, bIsStr := b.obj.(*objString)
		if aIsStr && bIsStr {
			return as.chars == bs.chars
		}
		return a.obj == b.obj
	default:
		return false
	}
}

// sprintValue renders a value the way `print` does.
func sprintValue(v Value) string {
	switch v.kind {
	case valNil:
		return "nil"
	case valBool:
		return strconv.FormatBool(v.boolean)
	case valNumber:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case valObj:
		return sprintObject(v.obj)
	default:
		return "<error>"
	}
}

func sprintObject(o object) string {
	switch o := o.(type) {
	case *objString:
		return o.chars
	case *objFunction:
		if o.name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", o.name.chars)
	case *objClosure:
		return sprintObject(o.function)
	case *objNative:
		return "<native fn>"
	case *objClass:
		return fmt.Sprintf("<class %s>", o.name.chars)
	case *objInstance:
		return fmt.Sprintf("%s instance", o.class.name.chars)
	case *objBoundMethod:
		return sprintObject(o.method)
	default:
		return "<error>"
	}
}

// functionName is used by stack traces; the top-level script function
// has no name.
func functionName(f *objFunction) string {
	if f.name == nil {
		return "script"
	}
	var b strings.Builder
	b.WriteString(f.name.chars)
	b.WriteString("()")
	return b.String()
}
