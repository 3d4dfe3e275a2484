package compiler

import (
	"fmt"
	"strings"
)

// Instruction is one bytecode op plus its operand, mirroring
// original_source/compiler.py's Instruction(opcode, arg) but with the
// operand always an int: constant-pool index, jump target, local slot,
// or argument count depending on Op.
type Instruction struct {
	Op     Op
	Arg    int
	Line   int
	Column int
}

func (i Instruction) String() string {
	if i.Op == OpLoadConst || i.Op == OpLoadLocal || i.Op == OpStoreLocal ||
		i.Op == OpLoadUpval || i.Op == OpStoreUpval || i.Op == OpCall ||
		i.Op == OpJump || i.Op == OpJumpIfFalse || i.Op == OpJumpIfTrue ||
		i.Op == OpMakeArray || i.Op == OpMakeObject || i.Op == OpMakeFunction ||
		i.Op == OpMakeClass || i.Op == OpNew || i.Op == OpGetMember ||
		i.Op == OpSetMember || i.Op == OpLoadGlobal || i.Op == OpStoreGlobal ||
		i.Op == OpLoadSuper {
		return fmt.Sprintf("%s %d", i.Op, i.Arg)
	}
	return i.Op.String()
}

// UpvalueRef describes where a closure captures one free variable from:
// either the enclosing function's local slot, or one of its own
// upvalues (when the capture is itself nested two or more levels deep).
type UpvalueRef struct {
	FromParentLocal bool
	Index           int
}

// CodeObject is the immutable artifact of compiling one function body
// (or the top-level script, treated as an implicit parameterless
// function), per spec.md §3.
type CodeObject struct {
	Name         string
	Arity        int
	NumLocals    int
	Instructions []Instruction
	Constants    []any // float64, string, bool, NullConst, or *CodeObject
	Upvalues     []UpvalueRef
	IsMethod     bool // local slot 0 holds the implicit `this` receiver, per spec.md §4.3
}

// NullConst is the constant-pool representation of a `null` literal. A
// bare Go nil can't stand in for it: encoding/gob (driver/build.go's
// `build` file format) refuses to encode a nil interface element, so
// every program whose last statement isn't a bare expression (every
// `return`, base-less `class`, etc. loads one via OpLoadConst) would
// fail to serialize. NullConst is a concrete, gob-registered type
// instead.
type NullConst struct{}

// Disassemble renders a CodeObject's instructions for debugging, in the
// same spirit as original_source/compiler.py's Instruction.__repr__.
func (c *CodeObject) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<code %s arity=%d locals=%d>\n", name(c.Name), c.Arity, c.NumLocals)
	for ip, instr := range c.Instructions {
		fmt.Fprintf(&b, "%4d  %s\n", ip, instr)
	}
	return b.String()
}

func name(n string) string {
	if n == "" {
		return "<script>"
	}
	return n
}

// AddConstant interns value into the constant pool, deduplicating
// equal scalar constants the way original_source/compiler.py's
// add_constant does (`if value in self.constants: return index`).
// *CodeObject constants are never deduped — each nested function
// literal is its own object even if byte-identical.
func (c *CodeObject) AddConstant(value any) int {
	if _, isCode := value.(*CodeObject); !isCode {
		for i, existing := range c.Constants {
			if existing == value {
				return i
			}
		}
	}
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}
