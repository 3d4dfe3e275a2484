// Package token defines Mythos's lexical categories and the Token type
// shared by the lexer, parser, compiler and VM for source-position tracking.
package token

import "fmt"

//go:generate go run golang.org/x/tools/cmd/stringer@v0.13.0 -type=Kind
type Kind int

const (
	EOF Kind = iota
	NEWLINE

	// Single-character punctuation.
	LEFTPAREN
	RIGHTPAREN
	LEFTBRACE
	RIGHTBRACE
	LEFTBRACKET
	RIGHTBRACKET
	COLON
	COMMA
	DOT
	SEMICOLON

	// Literals and identifiers.
	IDENT
	NUMBER
	STRING

	// Operators.
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	CARET
	EQUAL
	EQUAL_EQUAL
	BANG_EQUAL
	LESS
	GREATER
	LESS_EQUAL
	GREATER_EQUAL
	PLUS_EQUAL
	MINUS_EQUAL
	STAR_EQUAL
	SLASH_EQUAL
	ARROW

	// Keywords.
	IF
	ELIF
	ELSE
	WHILE
	FOR
	IN
	FUNCTION
	RETURN
	CLASS
	EXTENDS
	NEW
	THIS
	SUPER
	IMPORT
	FROM
	EXPORT
	CONST
	ASYNC
	AWAIT
	TRY
	CATCH
	FINALLY
	THROW
	MATCH
	CASE
	DEFAULT
	BREAK
	CONTINUE
	TRUE
	FALSE
	NULL
	AND
	OR
	NOT
	SCENE
	ROUTE
)

// Keywords maps reserved lexemes to their token kind.
var Keywords = map[string]Kind{
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"function": FUNCTION,
	"return":   RETURN,
	"class":    CLASS,
	"extends":  EXTENDS,
	"new":      NEW,
	"this":     THIS,
	"super":    SUPER,
	"import":   IMPORT,
	"from":     FROM,
	"export":   EXPORT,
	"const":    CONST,
	"async":    ASYNC,
	"await":    AWAIT,
	"try":      TRY,
	"catch":    CATCH,
	"finally":  FINALLY,
	"throw":    THROW,
	"match":    MATCH,
	"case":     CASE,
	"default":  DEFAULT,
	"break":    BREAK,
	"continue": CONTINUE,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"scene":    SCENE,
	"route":    ROUTE,
}

// Token is a lexical unit carrying the source position it came from.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal any
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("{%v %q %d:%d %v}", t.Kind, t.Lexeme, t.Line, t.Column, t.Literal)
}

// Pretty renders the token the way a diagnostic message should quote it.
func (t Token) Pretty() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

// Base implements the ast.Node-adjacent convention used across the
// pipeline: anything carrying a Token can report its own base position.
func (t Token) Base() Token {
	return t
}
