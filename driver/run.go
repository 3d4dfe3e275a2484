// Package driver implements spec.md §6's embedding surface: compile
// source to bytecode and run it on a vm.VM, adapted from anma's
// driver/run.go PassRunner/RunSource shape — "run AST passes in order"
// becomes "lex, parse, emit, execute" since Mythos targets a bytecode
// VM rather than a tree-walking evaluator.
package driver

import (
	"fmt"

	"github.com/mythos-lang/mythos/compiler"
	"github.com/mythos-lang/mythos/lexer"
	"github.com/mythos-lang/mythos/parser"
	"github.com/mythos-lang/mythos/vm"
)

// Compile implements spec.md §6 operation 1: lex, parse, and emit a
// *compiler.CodeObject ready for a vm.VM's Run.
func Compile(source string) (*compiler.CodeObject, error) {
	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	code, err := compiler.Compile(program)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return code, nil
}

// RunSource is the convenience entry point matching anma's RunSource:
// compile source and run it in one call against an already-configured
// VM (so any RegisterBuiltin calls an embedder made are in effect).
func RunSource(m *vm.VM, source string) (vm.Value, error) {
	code, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return m.Run(code)
}
