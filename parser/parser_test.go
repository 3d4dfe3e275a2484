package parser_test

import (
	"strings"
	"testing"

	"github.com/mythos-lang/mythos/lexer"
	"github.com/mythos-lang/mythos/parser"
)

func parseSource(t *testing.T, source string) string {
	t.Helper()
	tokens, err := lexer.Lex(source)
	if err != nil {
		t.Fatalf("lex(%q): %v", source, err)
	}
	nodes, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse(%q): %v", source, err)
	}
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}

func TestExpressions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, source, want string
	}{
		{
			"assignment",
			"x = 10",
			"(exprstmt (assign = x 10))",
		},
		{
			"* binds tighter than +",
			"x + y * 2",
			"(exprstmt (binary + x (binary * y 2)))",
		},
		{
			"not binds tighter than and",
			"not a and b",
			"(exprstmt (logical and (unary not a) b))",
		},
		{
			"unary minus binds tighter than power",
			"-2^2",
			"(exprstmt (binary ^ (unary - 2) 2))",
		},
		{
			"array literal",
			"[1, 2, 3]",
			"(exprstmt (array 1 2 3))",
		},
		{
			"object literal as a bare statement",
			`{x: 1, y: 2}`,
			"(exprstmt (object x:1 y:2))",
		},
		{
			"member/call chain",
			"foo.bar(1, 2).baz",
			"(exprstmt (member baz (call (member bar foo) 1 2)))",
		},
		{
			"arrow function with expression body",
			"(a, b) -> a + b",
			"(exprstmt (lambda (binary + a b)))",
		},
		{
			"grouped expression is not a lambda",
			"(1 + 2) * 3",
			"(exprstmt (binary * (binary + 1 2) 3))",
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got := parseSource(t, c.source)
			if got != c.want {
				t.Errorf("parse(%q) =\n  %s\nwant\n  %s", c.source, got, c.want)
			}
		})
	}
}

func TestFunctionDecl(t *testing.T) {
	t.Parallel()

	got := parseSource(t, "function add(a, b) { return a + b }")
	want := "(function add (block (return (binary + a b))))"
	if got != want {
		t.Errorf("parse =\n  %s\nwant\n  %s", got, want)
	}
}

func TestIfElifElse(t *testing.T) {
	t.Parallel()

	got := parseSource(t, "if x { a } elif y { b } else { c }")
	want := "(if x (block (exprstmt a)) y (block (exprstmt b)) (block (exprstmt c)))"
	if got != want {
		t.Errorf("parse =\n  %s\nwant\n  %s", got, want)
	}
}

func TestWhileAndForIn(t *testing.T) {
	t.Parallel()

	got := parseSource(t, "while x { x = x - 1 }")
	want := "(while x (block (exprstmt (assign = x (binary - x 1)))))"
	if got != want {
		t.Errorf("while: got %s want %s", got, want)
	}

	got = parseSource(t, "for i in range(0, 3) { print(i) }")
	want = "(for i (call range 0 3) (block (exprstmt (call print i))))"
	if got != want {
		t.Errorf("for-in: got %s want %s", got, want)
	}
}

func TestClassDecl(t *testing.T) {
	t.Parallel()

	got := parseSource(t, "class Dog extends Animal { bark() { return \"woof\" } }")
	want := `(class Dog (block (return "woof")))`
	if got != want {
		t.Errorf("parse =\n  %s\nwant\n  %s", got, want)
	}
}

func TestTryCatchFinally(t *testing.T) {
	t.Parallel()

	got := parseSource(t, "try { risky() } catch (e) { handle(e) } finally { cleanup() }")
	want := "(try (block (exprstmt (call risky))))"
	if got != want {
		t.Errorf("parse =\n  %s\nwant\n  %s", got, want)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	got := parseSource(t, "match n { case 1 { a } default { b } }")
	want := "(match n 1 (block (exprstmt a)) (block (exprstmt b)))"
	if got != want {
		t.Errorf("parse =\n  %s\nwant\n  %s", got, want)
	}
}

func TestCompoundAssignAndNewExpr(t *testing.T) {
	t.Parallel()

	got := parseSource(t, "x += 1")
	want := "(exprstmt (assign += x 1))"
	if got != want {
		t.Errorf("compound assign: got %s want %s", got, want)
	}

	got = parseSource(t, "new Dog(1, 2)")
	want = "(exprstmt (new Dog 1 2))"
	if got != want {
		t.Errorf("new expr: got %s want %s", got, want)
	}
}

func TestInvalidAssignmentTargetIsAnError(t *testing.T) {
	t.Parallel()

	tokens, err := lexer.Lex("1 + 1 = 2")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if _, err := parser.Parse(tokens); err == nil {
		t.Fatal("expected a parse error for an invalid assignment target")
	}
}
