// Package vm executes a compiler.CodeObject on a stack machine with call
// frames, per spec.md §4.4. Value modeled on eval/value.go's approach
// (one Go type per runtime variant, all satisfying a small interface)
// adapted from an alpha-renaming interpreter's Value to a bytecode VM's.
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mythos-lang/mythos/compiler"
)

// Value is any Mythos runtime value, per spec.md §3.
type Value interface {
	fmt.Stringer
	Truthy() bool
}

// Number is an IEEE-754 double, copied by value.
type Number float64

func (n Number) String() string {
	if n == Number(int64(n)) && n > -1e15 && n < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func (n Number) Truthy() bool { return n != 0 }

// String is an immutable Mythos string, copied by value.
type String string

func (s String) String() string { return string(s) }
func (s String) Truthy() bool   { return s != "" }

// Bool is a Mythos boolean, copied by value.
type Bool bool

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }
func (b Bool) Truthy() bool   { return bool(b) }

// Null is the sole null value.
type Null struct{}

func (Null) String() string { return "null" }
func (Null) Truthy() bool   { return false }

// Array is a mutable ordered sequence, copied by reference.
type Array struct {
	Elems []Value
}

func NewArray(elems []Value) *Array { return &Array{Elems: elems} }

func (a *Array) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, el := range a.Elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.String())
	}
	b.WriteString("]")
	return b.String()
}

func (a *Array) Truthy() bool { return len(a.Elems) != 0 }

// Object is an insertion-ordered string-to-value mapping, copied by
// reference. Keys is kept alongside Fields because Go maps don't
// preserve insertion order and spec.md §3 requires it for iteration.
type Object struct {
	Keys   []string
	Fields map[string]Value
}

func NewObject() *Object {
	return &Object{Fields: make(map[string]Value)}
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.Fields[key]
	return v, ok
}

func (o *Object) Set(key string, v Value) {
	if _, exists := o.Fields[key]; !exists {
		o.Keys = append(o.Keys, key)
	}
	o.Fields[key] = v
}

func (o *Object) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range o.Keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", k, o.Fields[k].String())
	}
	b.WriteString("}")
	return b.String()
}

func (o *Object) Truthy() bool { return len(o.Keys) != 0 }

// Upvalue is a shared cell a closure captures by reference: the same
// cell backs the enclosing frame's local slot, and it stays alive with
// the closure after that frame returns (no copy is made).
type Upvalue struct {
	Value Value
}

// Function is a closure: a code object plus the upvalues captured at the
// point of its MAKE_FUNCTION instruction.
type Function struct {
	Code     *compiler.CodeObject
	Upvalues []*Upvalue
}

func (f *Function) String() string {
	if f.Code.Name == "" {
		return "<function>"
	}
	return fmt.Sprintf("<function %s>", f.Code.Name)
}

func (f *Function) Truthy() bool { return true }

// BuiltinFunction is an opaque host callable, registered via
// RegisterBuiltin (spec.md §6).
type BuiltinFunction struct {
	Name  string
	Arity int // -1 means variadic
	Fn    func(vm *VM, args []Value) (Value, error)
}

func (b *BuiltinFunction) String() string { return fmt.Sprintf("<builtin %s>", b.Name) }
func (b *BuiltinFunction) Truthy() bool   { return true }

// Class is a method table with an optional base, produced by MAKE_CLASS.
type Class struct {
	Name    string
	Base    *Class
	Methods map[string]*Function
}

func (c *Class) String() string { return fmt.Sprintf("<class %s>", c.Name) }
func (c *Class) Truthy() bool   { return true }

// FindMethod resolves method lookup per spec.md §4.4: own class table
// first, then the base class chain.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for cls := c; cls != nil; cls = cls.Base {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Instance is a class pointer plus an own-field object, created by `new`.
type Instance struct {
	Class  *Class
	Fields *Object
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: NewObject()}
}

func (i *Instance) String() string { return fmt.Sprintf("<instance %s>", i.Class.Name) }
func (i *Instance) Truthy() bool   { return true }

// BoundMethod pairs an Instance with one of its class's methods,
// produced by GET_MEMBER when the member resolves to a method rather
// than an own field. Calling it implicitly binds `this`.
type BoundMethod struct {
	Receiver *Instance
	Method   *Function
}

func (b *BoundMethod) String() string {
	return fmt.Sprintf("<bound method %s of %s>", b.Method.Code.Name, b.Receiver.String())
}

func (b *BoundMethod) Truthy() bool { return true }

// Range is the lazy iterable produced by the range() builtin, per
// SPEC_FULL.md §10's supplemented-feature decision: iterating a huge
// range never materializes an intermediate Array.
type Range struct {
	Start, Stop, Step int
}

func (r *Range) String() string {
	return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
}

func (r *Range) Truthy() bool { return r.Start != r.Stop }

// Len returns the number of integers range would yield, clamping a
// zero step, or a step pointing away from Stop, to an empty range
// instead of looping forever.
func (r *Range) Len() int {
	if r.Step == 0 {
		return 0
	}
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	}
	if r.Stop >= r.Start {
		return 0
	}
	return (r.Start - r.Stop - r.Step - 1) / -r.Step
}

var (
	_ Value = Number(0)
	_ Value = String("")
	_ Value = Bool(false)
	_ Value = Null{}
	_ Value = &Array{}
	_ Value = &Object{}
	_ Value = &Function{}
	_ Value = &BuiltinFunction{}
	_ Value = &Class{}
	_ Value = &Instance{}
	_ Value = &BoundMethod{}
	_ Value = &Range{}
)
