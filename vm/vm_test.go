package vm_test

import (
	"testing"

	"github.com/mythos-lang/mythos/compiler"
	"github.com/mythos-lang/mythos/lexer"
	"github.com/mythos-lang/mythos/parser"
	"github.com/mythos-lang/mythos/vm"
)

func run(t *testing.T, source string) *vm.VM {
	t.Helper()
	tokens, err := lexer.Lex(source)
	if err != nil {
		t.Fatalf("lex(%q): %v", source, err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse(%q): %v", source, err)
	}
	code, err := compiler.Compile(program)
	if err != nil {
		t.Fatalf("compile(%q): %v", source, err)
	}
	m := vm.New()
	if _, err := m.Run(code); err != nil {
		t.Fatalf("run(%q): %v", source, err)
	}
	return m
}

func wantGlobal(t *testing.T, m *vm.VM, name, want string) {
	t.Helper()
	v, ok := m.Global(name)
	if !ok {
		t.Fatalf("global %q was never set", name)
	}
	if v.String() != want {
		t.Fatalf("global %q = %s, want %s", name, v.String(), want)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	m := run(t, "x = 1 + 2 * 3")
	wantGlobal(t, m, "x", "7")
}

func TestFunctionCallAndReturn(t *testing.T) {
	m := run(t, `
		function add(a, b) { return a + b }
		result = add(2, 3)
	`)
	wantGlobal(t, m, "result", "5")
}

// TestClosureCapturesMutableLocal exercises the *Upvalue-boxed-locals
// design: inc's closure must see makeCounter's `count` mutate across
// calls, not a snapshot taken when the closure was created.
func TestClosureCapturesMutableLocal(t *testing.T) {
	m := run(t, `
		function makeCounter() {
			count = 0
			function inc() {
				count = count + 1
				return count
			}
			return inc
		}
		counter = makeCounter()
		a = counter()
		b = counter()
	`)
	wantGlobal(t, m, "a", "1")
	wantGlobal(t, m, "b", "2")
}

// TestClassMethodOverrideDispatch exercises late-bound GET_MEMBER
// dispatch: Dog's own method must win over Animal's, via FindMethod's
// own-table-then-base-chain walk.
func TestClassMethodOverrideDispatch(t *testing.T) {
	m := run(t, `
		class Animal {
			speak() { return "generic" }
		}
		class Dog extends Animal {
			speak() { return "woof" }
		}
		d = new Dog()
		result = d.speak()
	`)
	wantGlobal(t, m, "result", "woof")
}

// TestConstructorEscapesOwnReturn exercises the returnOverride field:
// `new` must hand back the Instance even though the constructor itself
// returns a string.
func TestConstructorEscapesOwnReturn(t *testing.T) {
	m := run(t, `
		class Box {
			constructor(v) {
				this.v = v
				return "ignored"
			}
		}
		b = new Box(42)
		result = b.v
	`)
	wantGlobal(t, m, "result", "42")
}

// TestTryCatchFinallyOrdering exercises both the handler-stack unwind
// in vm.raise and the finally-block inlining in compiler/emitter.go.
func TestTryCatchFinallyOrdering(t *testing.T) {
	m := run(t, `
		order = ""
		function f() {
			order = ""
			try {
				throw "boom"
			} catch (e) {
				order = order + "caught:" + e
			} finally {
				order = order + ";finally"
			}
			return order
		}
		order = f()
	`)
	wantGlobal(t, m, "order", "caught:boom;finally")
}

func TestForInOverArray(t *testing.T) {
	m := run(t, `
		total = 0
		for x in [1, 2, 3] {
			total = total + x
		}
	`)
	wantGlobal(t, m, "total", "6")
}

// TestForInOverRange exercises the lazy Range iterator rather than an
// intermediate materialized Array.
func TestForInOverRange(t *testing.T) {
	m := run(t, `
		total = 0
		for x in range(0, 5) {
			total = total + x
		}
	`)
	wantGlobal(t, m, "total", "10")
}

func TestBreakExitsLoop(t *testing.T) {
	m := run(t, `
		i = 0
		while true {
			i = i + 1
			if i == 3 {
				break
			}
		}
	`)
	wantGlobal(t, m, "i", "3")
}

func TestUncaughtThrowPropagatesToEmbedder(t *testing.T) {
	tokens, err := lexer.Lex(`throw "boom"`)
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
	if _, err := vm.New().Run(code); err == nil {
		t.Fatal("expected an uncaught throw to propagate as an error")
	}
}

func TestReservedFormsWithoutHostlibRaiseDiagnostic(t *testing.T) {
	tokens, err := lexer.Lex(`import somewhere`)
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
	if _, err := vm.New().Run(code); err == nil {
		t.Fatal("expected __import with no host registered to raise a diagnostic, not silently no-op")
	}
}
