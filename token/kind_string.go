package token

// Code generated by stringer -type=Kind; hand-expanded because the build
// pipeline for this repository does not invoke go:generate.

var kindNames = map[Kind]string{
	EOF:           "EOF",
	NEWLINE:       "NEWLINE",
	LEFTPAREN:     "LEFTPAREN",
	RIGHTPAREN:    "RIGHTPAREN",
	LEFTBRACE:     "LEFTBRACE",
	RIGHTBRACE:    "RIGHTBRACE",
	LEFTBRACKET:   "LEFTBRACKET",
	RIGHTBRACKET:  "RIGHTBRACKET",
	COLON:         "COLON",
	COMMA:         "COMMA",
	DOT:           "DOT",
	SEMICOLON:     "SEMICOLON",
	IDENT:         "IDENT",
	NUMBER:        "NUMBER",
	STRING:        "STRING",
	PLUS:          "PLUS",
	MINUS:         "MINUS",
	STAR:          "STAR",
	SLASH:         "SLASH",
	PERCENT:       "PERCENT",
	CARET:         "CARET",
	EQUAL:         "EQUAL",
	EQUAL_EQUAL:   "EQUAL_EQUAL",
	BANG_EQUAL:    "BANG_EQUAL",
	LESS:          "LESS",
	GREATER:       "GREATER",
	LESS_EQUAL:    "LESS_EQUAL",
	GREATER_EQUAL: "GREATER_EQUAL",
	PLUS_EQUAL:    "PLUS_EQUAL",
	MINUS_EQUAL:   "MINUS_EQUAL",
	STAR_EQUAL:    "STAR_EQUAL",
	SLASH_EQUAL:   "SLASH_EQUAL",
	ARROW:         "ARROW",
	IF:            "IF",
	ELIF:          "ELIF",
	ELSE:          "ELSE",
	WHILE:         "WHILE",
	FOR:           "FOR",
	IN:            "IN",
	FUNCTION:      "FUNCTION",
	RETURN:        "RETURN",
	CLASS:         "CLASS",
	EXTENDS:       "EXTENDS",
	NEW:           "NEW",
	THIS:          "THIS",
	SUPER:         "SUPER",
	IMPORT:        "IMPORT",
	FROM:          "FROM",
	EXPORT:        "EXPORT",
	CONST:         "CONST",
	ASYNC:         "ASYNC",
	AWAIT:         "AWAIT",
	TRY:           "TRY",
	CATCH:         "CATCH",
	FINALLY:       "FINALLY",
	THROW:         "THROW",
	MATCH:         "MATCH",
	CASE:          "CASE",
	DEFAULT:       "DEFAULT",
	BREAK:         "BREAK",
	CONTINUE:      "CONTINUE",
	TRUE:          "TRUE",
	FALSE:         "FALSE",
	NULL:          "NULL",
	AND:           "AND",
	OR:            "OR",
	NOT:           "NOT",
	SCENE:         "SCENE",
	ROUTE:         "ROUTE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(?)"
}
