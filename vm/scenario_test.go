package vm_test

import (
	"os"
	"testing"

	"github.com/mythos-lang/mythos/compiler"
	"github.com/mythos-lang/mythos/lexer"
	"github.com/mythos-lang/mythos/parser"
	"github.com/mythos-lang/mythos/utils"
	"github.com/mythos-lang/mythos/vm"
)

// TestScenarios covers boundary cases through table-driven fixtures
// (division by zero, deep recursion, closures
// over an enclosing local, break/continue running an intervening
// finally, and match with/without a default), following anma's
// nameresolve/resolve_test.go pattern of a shared YAML fixture checked
// against a single stage key.
func TestScenarios(t *testing.T) {
	s, err := os.ReadFile("../testdata/vm/scenarios.yaml")
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range utils.ReadTestData(s) {
		want, ok := tc.Expected["vm"]
		if !ok {
			t.Fatalf("scenario %q has no vm expectation", tc.Label)
		}
		t.Run(tc.Label, func(t *testing.T) {
			runScenario(t, tc.Input, want)
		})
	}
}

func runScenario(t *testing.T, source, want string) {
	t.Helper()
	tokens, err := lexer.Lex(source)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := compiler.Compile(program)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m := vm.New()
	if _, err := m.Run(code); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, ok := m.Global("result")
	if !ok {
		t.Fatalf("global %q was never set", "result")
	}
	if got.String() != want {
		t.Fatalf("result = %s, want %s", got.String(), want)
	}
}
