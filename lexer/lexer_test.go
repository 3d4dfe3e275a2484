package lexer_test

import (
	"os"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/mythos-lang/mythos/lexer"
	"github.com/mythos-lang/mythos/utils"
)

func TestGolden(t *testing.T) {
	t.Parallel()

	testfiles, err := utils.FindSourceFiles("../testdata/lexer")
	if err != nil {
		t.Fatalf("failed to find test files: %v", err)
	}
	if len(testfiles) == 0 {
		t.Fatal("no .mythos fixtures found under ../testdata/lexer")
	}

	for _, testfile := range testfiles {
		testfile := testfile
		t.Run(testfile, func(t *testing.T) {
			t.Parallel()

			source, err := os.ReadFile(testfile)
			if err != nil {
				t.Fatalf("failed to read %s: %v", testfile, err)
			}

			tokens, err := lexer.Lex(string(source))
			if err != nil {
				t.Fatalf("%s returned error: %v", testfile, err)
			}

			var b strings.Builder
			for _, tok := range tokens {
				b.WriteString(tok.String())
				b.WriteString("\n")
			}

			g := goldie.New(t, goldie.WithFixtureDir("../testdata/lexer"))
			g.Assert(t, strings.TrimSuffix(strings.TrimPrefix(testfile, "../testdata/lexer/"), ".mythos"), []byte(b.String()))
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	t.Parallel()

	_, err := lexer.Lex(`x = "unterminated`)
	if err == nil {
		t.Fatal("expected an UnterminatedStringError, got nil")
	}
	var target lexer.UnterminatedStringError
	if !containsUnterminated(err, &target) {
		t.Fatalf("expected UnterminatedStringError, got %v", err)
	}
}

func containsUnterminated(err error, target *lexer.UnterminatedStringError) bool {
	if err == nil {
		return false
	}
	if u, ok := err.(lexer.UnterminatedStringError); ok {
		*target = u
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if containsUnterminated(e, target) {
				return true
			}
		}
	}
	return false
}

func TestUnexpectedCharacter(t *testing.T) {
	t.Parallel()

	_, err := lexer.Lex("x = 1 @ 2")
	if err == nil {
		t.Fatal("expected an UnexpectedCharacterError, got nil")
	}
}

func TestNestedBracketsSuppressNewlines(t *testing.T) {
	t.Parallel()

	tokens, err := lexer.Lex("a = [\n1,\n2,\n3\n]\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newlines := 0
	for _, tok := range tokens {
		if tok.Kind.String() == "NEWLINE" {
			newlines++
		}
	}
	// Only the trailing newline after `]` should survive; the ones inside
	// the brackets are suppressed by the nesting counter.
	if newlines != 1 {
		t.Fatalf("expected 1 NEWLINE token, got %d", newlines)
	}
}
