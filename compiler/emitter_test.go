package compiler_test

import (
	"testing"

	"github.com/mythos-lang/mythos/compiler"
	"github.com/mythos-lang/mythos/lexer"
	"github.com/mythos-lang/mythos/parser"
)

func compileSource(t *testing.T, source string) *compiler.CodeObject {
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
	return code
}

func wantInstr(op compiler.Op, arg int) compiler.Instruction {
	return compiler.Instruction{Op: op, Arg: arg}
}

func assertInstructions(t *testing.T, code *compiler.CodeObject, want []compiler.Instruction) {
	t.Helper()
	if len(code.Instructions) != len(want) {
		t.Fatalf("instruction count = %d, want %d\ngot:  %v\nwant: %v", len(code.Instructions), len(want), code.Instructions, want)
	}
	for i, w := range want {
		got := code.Instructions[i]
		if got.Op != w.Op || got.Arg != w.Arg {
			t.Fatalf("instruction[%d] = %s %d, want %s %d\nfull got:  %v\nfull want: %v", i, got.Op, got.Arg, w.Op, w.Arg, code.Instructions, want)
		}
	}
}

func TestCompileArithmeticTailExpression(t *testing.T) {
	t.Parallel()

	code := compileSource(t, "1 + 2")
	assertInstructions(t, code, []compiler.Instruction{
		wantInstr(compiler.OpLoadConst, 0),
		wantInstr(compiler.OpLoadConst, 1),
		wantInstr(compiler.OpAdd, 0),
		wantInstr(compiler.OpReturn, 0),
	})
	if len(code.Constants) != 2 || code.Constants[0] != 1.0 || code.Constants[1] != 2.0 {
		t.Fatalf("constants = %v, want [1 2]", code.Constants)
	}
}

func TestCompileAssignmentAndGlobalCall(t *testing.T) {
	t.Parallel()

	code := compileSource(t, "x = 10\nprint(x)")
	assertInstructions(t, code, []compiler.Instruction{
		wantInstr(compiler.OpLoadConst, 0),   // 10
		wantInstr(compiler.OpDup, 0),         // keep the assigned value as the expression's result
		wantInstr(compiler.OpStoreGlobal, 1), // "x"
		wantInstr(compiler.OpPop, 0),         // discard (statement context)
		wantInstr(compiler.OpLoadGlobal, 2),  // "print"
		wantInstr(compiler.OpLoadGlobal, 1),  // "x"
		wantInstr(compiler.OpCall, 1),
		wantInstr(compiler.OpReturn, 0),
	})
	if code.Constants[1] != "x" || code.Constants[2] != "print" {
		t.Fatalf("constants = %v, want [.., x, print]", code.Constants)
	}
}

func TestCompileShortCircuitAnd(t *testing.T) {
	t.Parallel()

	code := compileSource(t, "a and b")
	assertInstructions(t, code, []compiler.Instruction{
		wantInstr(compiler.OpLoadGlobal, 0), // a
		wantInstr(compiler.OpDup, 0),
		wantInstr(compiler.OpJumpIfFalse, 5), // short-circuit straight to RETURN
		wantInstr(compiler.OpPop, 0),
		wantInstr(compiler.OpLoadGlobal, 1), // b
		wantInstr(compiler.OpReturn, 0),
	})
}

func TestCompileConstantPoolDedup(t *testing.T) {
	t.Parallel()

	code := compileSource(t, `x = "hi"
y = "hi"`)
	// both string literals intern to the same constant slot
	count := 0
	for _, c := range code.Constants {
		if c == "hi" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf(`expected exactly one pooled "hi" constant, found %d in %v`, count, code.Constants)
	}
	if code.Instructions[0].Op != compiler.OpLoadConst || code.Instructions[4].Op != compiler.OpLoadConst {
		t.Fatalf("expected LOAD_CONST at 0 and 4, got %v", code.Instructions)
	}
	if code.Instructions[0].Arg != code.Instructions[4].Arg {
		t.Fatalf("expected both \"hi\" loads to share a constant index, got %d and %d", code.Instructions[0].Arg, code.Instructions[4].Arg)
	}
}

func TestCompileWhileLoopWithBreak(t *testing.T) {
	t.Parallel()

	code := compileSource(t, "while x { break }")
	// LOAD_GLOBAL x; JUMP_IF_FALSE end; JUMP end (break); JUMP start; <end> LOAD_CONST nil; RETURN
	if len(code.Instructions) != 6 {
		t.Fatalf("instruction count = %d, want 6: %v", len(code.Instructions), code.Instructions)
	}
	if code.Instructions[0].Op != compiler.OpLoadGlobal {
		t.Fatalf("instr[0] = %v, want LOAD_GLOBAL", code.Instructions[0])
	}
	exitTarget := code.Instructions[1].Arg
	breakTarget := code.Instructions[2].Arg
	if exitTarget != breakTarget {
		t.Fatalf("break should jump to the same place the condition's exit jump does: exit=%d break=%d", exitTarget, breakTarget)
	}
	if code.Instructions[3].Op != compiler.OpJump || code.Instructions[3].Arg != 0 {
		t.Fatalf("instr[3] = %v, want JUMP 0 (back to loop start)", code.Instructions[3])
	}
}

func TestCompileFunctionDeclCreatesNestedCodeObject(t *testing.T) {
	t.Parallel()

	code := compileSource(t, "function add(a, b) { return a + b }")
	if len(code.Instructions) < 2 {
		t.Fatalf("expected MAKE_FUNCTION + STORE_GLOBAL, got %v", code.Instructions)
	}
	if code.Instructions[0].Op != compiler.OpMakeFunction {
		t.Fatalf("instr[0] = %v, want MAKE_FUNCTION", code.Instructions[0])
	}
	inner, ok := code.Constants[code.Instructions[0].Arg].(*compiler.CodeObject)
	if !ok {
		t.Fatalf("MAKE_FUNCTION constant is not a *CodeObject: %v", code.Constants)
	}
	if inner.Arity != 2 {
		t.Fatalf("inner.Arity = %d, want 2", inner.Arity)
	}
	if inner.Name != "add" {
		t.Fatalf("inner.Name = %q, want %q", inner.Name, "add")
	}
}

func TestCompileClosureCapturesEnclosingLocal(t *testing.T) {
	t.Parallel()

	code := compileSource(t, `function outer(x) {
	return () -> x
}`)
	inner := code.Constants[code.Instructions[0].Arg].(*compiler.CodeObject)
	// the lambda body is itself a nested CodeObject with one upvalue
	// pointing at outer's local slot 0 (its parameter x).
	var lambdaIdx int = -1
	for i, instr := range inner.Instructions {
		if instr.Op == compiler.OpMakeFunction {
			lambdaIdx = i
			break
		}
	}
	if lambdaIdx == -1 {
		t.Fatalf("expected a nested MAKE_FUNCTION in outer's body: %v", inner.Instructions)
	}
	lambda := inner.Constants[inner.Instructions[lambdaIdx].Arg].(*compiler.CodeObject)
	if len(lambda.Upvalues) != 1 {
		t.Fatalf("lambda.Upvalues = %v, want exactly one capture of x", lambda.Upvalues)
	}
	if !lambda.Upvalues[0].FromParentLocal || lambda.Upvalues[0].Index != 0 {
		t.Fatalf("lambda.Upvalues[0] = %+v, want {FromParentLocal:true Index:0}", lambda.Upvalues[0])
	}
}

func TestCompileReturnInsideTryRunsFinallyFirst(t *testing.T) {
	t.Parallel()

	code := compileSource(t, `function f() {
	try {
		return 1
	} finally {
		x = 2
	}
}`)
	inner := code.Constants[code.Instructions[0].Arg].(*compiler.CodeObject)

	var returnAt = -1
	for i, instr := range inner.Instructions {
		if instr.Op == compiler.OpReturn {
			returnAt = i
			break
		}
	}
	if returnAt == -1 {
		t.Fatalf("expected a RETURN in f's body: %v", inner.Instructions)
	}
	sawStoreBeforeReturn := false
	for _, instr := range inner.Instructions[:returnAt] {
		if instr.Op == compiler.OpStoreLocal {
			sawStoreBeforeReturn = true
		}
	}
	if !sawStoreBeforeReturn {
		t.Fatalf("expected the finally block's assignment to run before the early RETURN: %v", inner.Instructions)
	}

	storeCount := 0
	for _, instr := range inner.Instructions {
		if instr.Op == compiler.OpStoreLocal {
			storeCount++
		}
	}
	if storeCount != 3 {
		t.Fatalf("expected the finally block inlined three times (early-return path, the catch-less handler's re-throw path, fall-through), got %d STORE_LOCAL: %v", storeCount, inner.Instructions)
	}
}
