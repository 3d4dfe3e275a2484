// Package parser turns a Mythos token stream into an ast.Node tree, per
// spec.md §4.2: recursive descent for statements, precedence climbing for
// expressions, with bounded lookahead to disambiguate `{` as either a
// block or an object literal, and a backtracking trial parse to
// disambiguate `(` as either a grouped expression or an arrow function's
// parameter list.
package parser

import (
	"errors"
	"fmt"

	"github.com/mythos-lang/mythos/ast"
	"github.com/mythos-lang/mythos/token"
	"github.com/mythos-lang/mythos/utils"
)

type Parser struct {
	tokens  []token.Token
	current int
	err     error
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes nothing; it consumes an already-tokenized source and
// returns the program as a flat list of top-level declarations/statements.
func Parse(tokens []token.Token) ([]ast.Node, error) {
	return New(tokens).ParseProgram()
}

func (p *Parser) ParseProgram() ([]ast.Node, error) {
	p.err = nil
	var stmts []ast.Node
	p.skipTerminators()
	for !p.isAtEnd() {
		stmts = append(stmts, p.declaration())
		p.skipTerminators()
	}
	return stmts, p.err
}

// ---- statement-level grammar ----

// declaration = functionDecl | classDecl | sceneDecl | importStmt | statement ;
func (p *Parser) declaration() ast.Node {
	switch p.peek().Kind {
	case token.FUNCTION:
		return p.functionDecl()
	case token.CLASS:
		return p.classDecl()
	case token.SCENE:
		return p.sceneDecl()
	case token.IMPORT, token.FROM:
		return p.importStmt()
	default:
		return p.statement()
	}
}

// statement = block | if | while | for | return | break | continue
//           | try | throw | match | webApp | exprStmt ;
func (p *Parser) statement() ast.Node {
	switch p.peek().Kind {
	case token.LEFTBRACE:
		if p.looksLikeObjectLiteral() {
			return p.exprStatement()
		}
		return p.block()
	case token.IF:
		return p.ifStmt()
	case token.WHILE:
		return p.whileStmt()
	case token.FOR:
		return p.forInStmt()
	case token.RETURN:
		return p.returnStmt()
	case token.BREAK:
		return &ast.Break{Token: p.advance()}
	case token.CONTINUE:
		return &ast.Continue{Token: p.advance()}
	case token.TRY:
		return p.tryStmt()
	case token.THROW:
		return p.throwStmt()
	case token.MATCH:
		return p.matchStmt()
	case token.IDENT:
		if p.isWebAppHeader() {
			return p.webAppDecl()
		}
		return p.exprStatement()
	default:
		return p.exprStatement()
	}
}

// looksLikeObjectLiteral implements the one-token-of-extra-lookahead rule
// from spec.md §4.2: `{` starts an object literal when followed by a
// field key (identifier or string) and a colon, otherwise it's a block.
func (p *Parser) looksLikeObjectLiteral() bool {
	return (p.checkNth(1, token.IDENT) || p.checkNth(1, token.STRING)) && p.checkNth(2, token.COLON)
}

// isWebAppHeader recognises the reserved `web.app { ... }` form, which
// the lexer tokenizes as plain identifiers (`web`, `app` aren't keywords).
func (p *Parser) isWebAppHeader() bool {
	return p.peek().Lexeme == "web" && p.checkNth(1, token.DOT) &&
		p.checkNth(2, token.IDENT) && p.peekNth(2).Lexeme == "app" &&
		p.checkNth(3, token.LEFTBRACE)
}

func (p *Parser) block() *ast.Block {
	brace := p.consume(token.LEFTBRACE, "{")
	p.skipTerminators()
	var stmts []ast.Node
	for !p.check(token.RIGHTBRACE) && !p.isAtEnd() {
		stmts = append(stmts, p.declaration())
		p.skipTerminators()
	}
	p.consume(token.RIGHTBRACE, "}")
	return &ast.Block{Token: brace, Stmts: stmts}
}

func (p *Parser) ifStmt() ast.Node {
	tok := p.advance() // if
	arms := []ast.IfArm{{Cond: p.expr(), Body: p.block()}}
	for p.check(token.ELIF) {
		p.advance()
		arms = append(arms, ast.IfArm{Cond: p.expr(), Body: p.block()})
	}
	if p.check(token.ELSE) {
		p.advance()
		arms = append(arms, ast.IfArm{Cond: nil, Body: p.block()})
	}
	return &ast.If{Token: tok, Arms: arms}
}

func (p *Parser) whileStmt() ast.Node {
	tok := p.advance() // while
	cond := p.expr()
	body := p.block()
	return &ast.While{Token: tok, Cond: cond, Body: body}
}

func (p *Parser) forInStmt() ast.Node {
	tok := p.advance() // for
	name := p.consume(token.IDENT, "identifier")
	p.consume(token.IN, "in")
	iterable := p.expr()
	body := p.block()
	return &ast.ForIn{Token: tok, Var: name, Iterable: iterable, Body: body}
}

func (p *Parser) returnStmt() ast.Node {
	tok := p.advance() // return
	var value ast.Node
	if !p.atStatementEnd() {
		value = p.expr()
	}
	return &ast.Return{Token: tok, Value: value}
}

func (p *Parser) atStatementEnd() bool {
	switch p.peek().Kind {
	case token.NEWLINE, token.SEMICOLON, token.RIGHTBRACE, token.EOF:
		return true
	}
	return false
}

func (p *Parser) functionDecl() ast.Node {
	tok := p.advance() // function
	name := p.consume(token.IDENT, "identifier")
	params := p.paramList()
	body := p.block()
	return &ast.FunctionDecl{Token: tok, Name: name, Params: params, Body: body}
}

func (p *Parser) paramList() []token.Token {
	p.consume(token.LEFTPAREN, "(")
	var params []token.Token
	if !p.check(token.RIGHTPAREN) {
		params = append(params, p.consume(token.IDENT, "identifier"))
		for p.check(token.COMMA) {
			p.advance()
			params = append(params, p.consume(token.IDENT, "identifier"))
		}
	}
	p.consume(token.RIGHTPAREN, ")")
	return params
}

func (p *Parser) classDecl() ast.Node {
	tok := p.advance() // class
	name := p.consume(token.IDENT, "identifier")
	var base *token.Token
	if p.check(token.EXTENDS) {
		p.advance()
		b := p.consume(token.IDENT, "identifier")
		base = &b
	}
	p.consume(token.LEFTBRACE, "{")
	p.skipTerminators()
	var methods []ast.Method
	for !p.check(token.RIGHTBRACE) && !p.isAtEnd() {
		methods = append(methods, p.method())
		p.skipTerminators()
	}
	p.consume(token.RIGHTBRACE, "}")
	return &ast.ClassDecl{Token: tok, Name: name, Extends: base, Methods: methods}
}

func (p *Parser) method() ast.Method {
	name := p.consume(token.IDENT, "identifier")
	params := p.paramList()
	body := p.block()
	return ast.Method{Name: name, Params: params, Body: body}
}

func (p *Parser) tryStmt() ast.Node {
	tok := p.advance() // try
	body := p.block()

	var catchName *token.Token
	var catchBody, finallyBody *ast.Block
	if p.check(token.CATCH) {
		p.advance()
		if p.check(token.LEFTPAREN) {
			p.advance()
			n := p.consume(token.IDENT, "identifier")
			catchName = &n
			p.consume(token.RIGHTPAREN, ")")
		}
		catchBody = p.block()
	}
	if p.check(token.FINALLY) {
		p.advance()
		finallyBody = p.block()
	}
	return &ast.Try{Token: tok, Body: body, CatchName: catchName, CatchBody: catchBody, FinallyBody: finallyBody}
}

func (p *Parser) throwStmt() ast.Node {
	tok := p.advance() // throw
	return &ast.Throw{Token: tok, Value: p.expr()}
}

func (p *Parser) matchStmt() ast.Node {
	tok := p.advance() // match
	discr := p.expr()
	p.consume(token.LEFTBRACE, "{")
	p.skipTerminators()

	var cases []ast.MatchCase
	hasDefault := false
	for !p.check(token.RIGHTBRACE) && !p.isAtEnd() {
		switch {
		case p.check(token.CASE):
			p.advance()
			value := p.expr()
			cases = append(cases, ast.MatchCase{Value: value, Body: p.block()})
		case p.check(token.DEFAULT):
			p.advance()
			cases = append(cases, ast.MatchCase{Value: nil, Body: p.block()})
			hasDefault = true
		default:
			p.recover(unexpectedToken(p.peek(), "case", "default"))
			p.advance()
		}
		p.skipTerminators()
	}
	p.consume(token.RIGHTBRACE, "}")
	return &ast.Match{Token: tok, Discr: discr, Cases: cases, HasDefault: hasDefault}
}

func (p *Parser) sceneDecl() ast.Node {
	tok := p.advance() // scene
	name := p.consume(token.IDENT, "identifier")
	body := p.block()
	return &ast.SceneDecl{Token: tok, Name: name, Body: body}
}

func (p *Parser) webAppDecl() ast.Node {
	tok := p.advance() // "web"
	p.consume(token.DOT, ".")
	p.consume(token.IDENT, "app") // the literal "app" ident
	p.consume(token.LEFTBRACE, "{")
	p.skipTerminators()

	var routes []*ast.RouteDecl
	for !p.check(token.RIGHTBRACE) && !p.isAtEnd() {
		routes = append(routes, p.routeDecl())
		p.skipTerminators()
	}
	p.consume(token.RIGHTBRACE, "}")
	return &ast.WebAppDecl{Token: tok, Routes: routes}
}

func (p *Parser) routeDecl() *ast.RouteDecl {
	tok := p.consume(token.ROUTE, "route")
	pathTok := p.consume(token.STRING, "string")
	return &ast.RouteDecl{Token: tok, Path: &ast.StringLit{Token: pathTok}, Body: p.block()}
}

// importStmt = "import" IDENT | "from" IDENT "import" IDENT ("," IDENT)* ;
func (p *Parser) importStmt() ast.Node {
	if p.check(token.FROM) {
		tok := p.advance()
		module := p.consume(token.IDENT, "identifier")
		p.consume(token.IMPORT, "import")
		names := []token.Token{p.consume(token.IDENT, "identifier")}
		for p.check(token.COMMA) {
			p.advance()
			names = append(names, p.consume(token.IDENT, "identifier"))
		}
		return &ast.Import{Token: tok, Module: module, Names: names, IsFrom: true}
	}
	tok := p.advance() // import
	module := p.consume(token.IDENT, "identifier")
	return &ast.Import{Token: tok, Module: module}
}

func (p *Parser) exprStatement() ast.Node {
	return &ast.ExprStmt{Expr: p.expr()}
}

// ---- expression grammar, precedence loosest to tightest ----
//
//	assignment -> or -> and -> not -> equality -> comparison
//	-> addition -> multiplication -> power -> unary -> postfix -> primary

func (p *Parser) expr() ast.Node {
	return p.assignment()
}

func (p *Parser) assignment() ast.Node {
	left := p.or()
	switch p.peek().Kind {
	case token.EQUAL, token.PLUS_EQUAL, token.MINUS_EQUAL, token.STAR_EQUAL, token.SLASH_EQUAL:
		op := p.advance()
		if !isAssignable(left) {
			p.recover(utils.ErrorAt{Where: op, Err: errors.New("invalid assignment target")})
			return left
		}
		return &ast.Assign{Target: left, Op: op, Value: p.assignment()}
	}
	return left
}

func isAssignable(n ast.Node) bool {
	switch n.(type) {
	case *ast.Ident, *ast.Member, *ast.Index:
		return true
	default:
		return false
	}
}

func (p *Parser) or() ast.Node {
	left := p.and()
	for p.check(token.OR) {
		op := p.advance()
		left = &ast.Logical{Left: left, Op: op, Right: p.and()}
	}
	return left
}

func (p *Parser) and() ast.Node {
	left := p.not()
	for p.check(token.AND) {
		op := p.advance()
		left = &ast.Logical{Left: left, Op: op, Right: p.not()}
	}
	return left
}

func (p *Parser) not() ast.Node {
	if p.check(token.NOT) {
		op := p.advance()
		return &ast.Unary{Op: op, Operand: p.not()}
	}
	return p.equality()
}

func (p *Parser) equality() ast.Node {
	left := p.comparison()
	for p.check(token.EQUAL_EQUAL) || p.check(token.BANG_EQUAL) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.comparison()}
	}
	return left
}

func (p *Parser) comparison() ast.Node {
	left := p.addition()
	for p.check(token.LESS) || p.check(token.GREATER) || p.check(token.LESS_EQUAL) || p.check(token.GREATER_EQUAL) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.addition()}
	}
	return left
}

func (p *Parser) addition() ast.Node {
	left := p.multiplication()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.multiplication()}
	}
	return left
}

func (p *Parser) multiplication() ast.Node {
	left := p.power()
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.power()}
	}
	return left
}

// power is right-associative: "2^3^2" is "2^(3^2)".
func (p *Parser) power() ast.Node {
	left := p.unary()
	if p.check(token.CARET) {
		op := p.advance()
		return &ast.Binary{Left: left, Op: op, Right: p.power()}
	}
	return left
}

func (p *Parser) unary() ast.Node {
	if p.check(token.MINUS) {
		op := p.advance()
		return &ast.Unary{Op: op, Operand: p.unary()}
	}
	// `async`/`await` are no-ops: the keyword is dropped and the operand
	// parses as if it were absent.
	if p.check(token.ASYNC) || p.check(token.AWAIT) {
		p.advance()
		return p.unary()
	}
	return p.postfix()
}

func (p *Parser) postfix() ast.Node {
	expr := p.primary()
	for {
		switch p.peek().Kind {
		case token.DOT:
			p.advance()
			name := p.consume(token.IDENT, "identifier")
			expr = &ast.Member{Receiver: expr, Name: name}
		case token.LEFTBRACKET:
			bracket := p.advance()
			key := p.expr()
			p.consume(token.RIGHTBRACKET, "]")
			expr = &ast.Index{Receiver: expr, Bracket: bracket, Key: key}
		case token.LEFTPAREN:
			paren := p.advance()
			expr = &ast.Call{Callee: expr, Paren: paren, Args: p.argList()}
		default:
			return expr
		}
	}
}

// argList consumes a call's arguments up to and including its closing ")".
func (p *Parser) argList() []ast.Node {
	var args []ast.Node
	if !p.check(token.RIGHTPAREN) {
		args = append(args, p.expr())
		for p.check(token.COMMA) {
			p.advance()
			args = append(args, p.expr())
		}
	}
	p.consume(token.RIGHTPAREN, ")")
	return args
}

func (p *Parser) primary() ast.Node {
	tok := p.peek()
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberLit{Token: tok}
	case token.STRING:
		p.advance()
		return &ast.StringLit{Token: tok}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Token: tok, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Token: tok, Value: false}
	case token.NULL:
		p.advance()
		return &ast.NullLit{Token: tok}
	case token.THIS:
		p.advance()
		return &ast.This{Token: tok}
	case token.SUPER:
		p.advance()
		p.consume(token.DOT, ".")
		name := p.consume(token.IDENT, "identifier")
		return &ast.Super{Token: tok, Name: name.Lexeme}
	case token.IDENT:
		p.advance()
		return &ast.Ident{Token: tok, Name: tok.Lexeme}
	case token.NEW:
		return p.newExpr()
	case token.LEFTBRACKET:
		return p.arrayLit()
	case token.LEFTBRACE:
		return p.objectLit()
	case token.LEFTPAREN:
		return p.parenOrLambda()
	}

	p.recover(unexpectedToken(tok, "expression"))
	p.advance()
	return &ast.NullLit{Token: tok}
}

func (p *Parser) newExpr() ast.Node {
	tok := p.advance() // new
	name := p.consume(token.IDENT, "identifier")
	class := &ast.Ident{Token: name, Name: name.Lexeme}
	var args []ast.Node
	if p.check(token.LEFTPAREN) {
		p.advance()
		args = p.argList()
	}
	return &ast.New{Token: tok, Class: class, Args: args}
}

func (p *Parser) arrayLit() ast.Node {
	tok := p.advance() // [
	var elems []ast.Node
	if !p.check(token.RIGHTBRACKET) {
		elems = append(elems, p.expr())
		for p.check(token.COMMA) {
			p.advance()
			if p.check(token.RIGHTBRACKET) {
				break
			}
			elems = append(elems, p.expr())
		}
	}
	p.consume(token.RIGHTBRACKET, "]")
	return &ast.ArrayLit{Token: tok, Elems: elems}
}

func (p *Parser) objectLit() ast.Node {
	tok := p.advance() // {
	var fields []ast.ObjectField
	if !p.check(token.RIGHTBRACE) {
		fields = append(fields, p.objectField())
		for p.check(token.COMMA) {
			p.advance()
			if p.check(token.RIGHTBRACE) {
				break
			}
			fields = append(fields, p.objectField())
		}
	}
	p.consume(token.RIGHTBRACE, "}")
	return &ast.ObjectLit{Token: tok, Fields: fields}
}

func (p *Parser) objectField() ast.ObjectField {
	var name string
	switch p.peek().Kind {
	case token.IDENT, token.STRING:
		name = p.peek().Lexeme
		p.advance()
	default:
		p.recover(unexpectedToken(p.peek(), "identifier", "string"))
		p.advance()
	}
	p.consume(token.COLON, ":")
	return ast.ObjectField{Name: name, Value: p.expr()}
}

// parenOrLambda disambiguates "(" between a grouped expression and an
// arrow function's parameter list by speculatively parsing the lambda
// form first and backtracking on failure, mirroring anma's try() helper.
func (p *Parser) parenOrLambda() ast.Node {
	if lambda, err := try(p, p.tryLambda, func() ast.Node { return nil }); err == nil {
		return lambda
	}
	p.advance() // (
	expr := p.expr()
	p.consume(token.RIGHTPAREN, ")")
	return expr
}

func (p *Parser) tryLambda() ast.Node {
	tok := p.peek() // (
	p.consume(token.LEFTPAREN, "(")
	var params []token.Token
	if !p.check(token.RIGHTPAREN) {
		params = append(params, p.consume(token.IDENT, "identifier"))
		for p.check(token.COMMA) {
			p.advance()
			params = append(params, p.consume(token.IDENT, "identifier"))
		}
	}
	p.consume(token.RIGHTPAREN, ")")
	if p.err != nil {
		return nil
	}
	if !p.check(token.ARROW) {
		p.recover(unexpectedToken(p.peek(), "->"))
		return nil
	}
	p.advance() // ->

	var body []ast.Node
	if p.check(token.LEFTBRACE) {
		body = p.block().Stmts
	} else {
		body = []ast.Node{p.expr()}
	}
	return &ast.Lambda{Token: tok, Params: params, Body: body}
}

// ---- token helpers ----

func (p *Parser) skipTerminators() {
	for p.check(token.NEWLINE) || p.check(token.SEMICOLON) {
		p.advance()
	}
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNth(n int) token.Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.current+n]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) checkNth(n int, kind token.Kind) bool {
	return p.peekNth(n).Kind == kind
}

func (p *Parser) consume(kind token.Kind, expected string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.recover(unexpectedToken(p.peek(), expected))
	return p.peek()
}

func (p *Parser) recover(err error) {
	p.err = errors.Join(err, p.err)
}

// UnexpectedTokenError reports a parse failure: the token found and what
// the grammar allowed at that position.
type UnexpectedTokenError struct {
	Found    token.Token
	Expected []string
}

func (e UnexpectedTokenError) Error() string {
	msg := e.Expected[0]
	for _, ex := range e.Expected[1:] {
		msg += ", " + ex
	}
	return fmt.Sprintf("expected %s but found %s", msg, e.Found.Pretty())
}

func unexpectedToken(t token.Token, expected ...string) error {
	return utils.ErrorAt{Where: t, Err: UnexpectedTokenError{Found: t, Expected: expected}}
}

// try speculatively runs action; if it raised a new parse error, the
// parser's position and error state are rewound and recoverFn's result
// is returned instead, following anma's parser/parser.go try() helper.
func try[T any](p *Parser, action func() T, recoverFn func() T) (T, error) {
	savedErr := p.err
	savedCurrent := p.current

	result := action()
	if p.err != savedErr {
		raised := p.err
		p.err = savedErr
		p.current = savedCurrent
		return recoverFn(), raised
	}
	return result, nil
}
