// Package ast defines Mythos's abstract syntax tree, per spec.md §3: a
// discriminated node set with no type information attached, every node
// carrying its originating token for source-position propagation into
// diagnostics.
package ast

import (
	"fmt"
	"strings"

	"github.com/mythos-lang/mythos/token"
)

// Node is any AST node. Plate exposes a node's immediate children to the
// generic Traverse/Universe helpers below, following anma's
// visitor-without-a-visitor-interface pattern in ast/ast.go.
type Node interface {
	fmt.Stringer
	Base() token.Token
	Plate(func(Node) Node) Node
}

// ---- literals & identifiers ----

type NumberLit struct{ Token token.Token }

func (n *NumberLit) Base() token.Token          { return n.Token }
func (n *NumberLit) Plate(func(Node) Node) Node { return n }
func (n *NumberLit) String() string             { return n.Token.Lexeme }

type StringLit struct{ Token token.Token }

func (n *StringLit) Base() token.Token          { return n.Token }
func (n *StringLit) Plate(func(Node) Node) Node { return n }
func (n *StringLit) String() string             { return fmt.Sprintf("%q", n.Token.Literal) }

type BoolLit struct {
	Token token.Token
	Value bool
}

func (n *BoolLit) Base() token.Token          { return n.Token }
func (n *BoolLit) Plate(func(Node) Node) Node { return n }
func (n *BoolLit) String() string             { return n.Token.Lexeme }

type NullLit struct{ Token token.Token }

func (n *NullLit) Base() token.Token          { return n.Token }
func (n *NullLit) Plate(func(Node) Node) Node { return n }
func (n *NullLit) String() string             { return "null" }

type Ident struct {
	Token token.Token
	Name  string
}

func (n *Ident) Base() token.Token          { return n.Token }
func (n *Ident) Plate(func(Node) Node) Node { return n }
func (n *Ident) String() string             { return n.Name }

// This / Super are keyword references resolved by the compiler like any
// other identifier, but kept as distinct node kinds because their
// resolution rules differ (§4.3: implicit local slot 0 / static base
// lookup).
type This struct{ Token token.Token }

func (n *This) Base() token.Token          { return n.Token }
func (n *This) Plate(func(Node) Node) Node { return n }
func (n *This) String() string             { return "this" }

type Super struct {
	Token token.Token
	Name  string // method name being looked up on the base class
}

func (n *Super) Base() token.Token          { return n.Token }
func (n *Super) Plate(func(Node) Node) Node { return n }
func (n *Super) String() string             { return "super." + n.Name }

// ---- expressions ----

type Unary struct {
	Op      token.Token
	Operand Node
}

func (n *Unary) Base() token.Token { return n.Op }
func (n *Unary) Plate(f func(Node) Node) Node {
	n.Operand = f(n.Operand)
	return n
}
func (n *Unary) String() string { return paren("unary", n.Op.Lexeme, n.Operand) }

type Binary struct {
	Left  Node
	Op    token.Token
	Right Node
}

func (n *Binary) Base() token.Token { return n.Op }
func (n *Binary) Plate(f func(Node) Node) Node {
	n.Left = f(n.Left)
	n.Right = f(n.Right)
	return n
}
func (n *Binary) String() string { return paren("binary", n.Op.Lexeme, n.Left, n.Right) }

// Logical is `and`/`or`; kept apart from Binary because the compiler emits
// short-circuit jump sequences for it instead of a plain opcode (§4.3).
type Logical struct {
	Left  Node
	Op    token.Token
	Right Node
}

func (n *Logical) Base() token.Token { return n.Op }
func (n *Logical) Plate(f func(Node) Node) Node {
	n.Left = f(n.Left)
	n.Right = f(n.Right)
	return n
}
func (n *Logical) String() string { return paren("logical", n.Op.Lexeme, n.Left, n.Right) }

// Assign covers both plain `=` and compound `+= -= *= /=`; Op.Kind
// distinguishes which. The compiler desugars compound forms per §4.3.
type Assign struct {
	Target Node // Ident, Member, or Index
	Op     token.Token
	Value  Node
}

func (n *Assign) Base() token.Token { return n.Op }
func (n *Assign) Plate(f func(Node) Node) Node {
	n.Target = f(n.Target)
	n.Value = f(n.Value)
	return n
}
func (n *Assign) String() string { return paren("assign", n.Op.Lexeme, n.Target, n.Value) }

type ArrayLit struct {
	Token token.Token
	Elems []Node
}

func (n *ArrayLit) Base() token.Token { return n.Token }
func (n *ArrayLit) Plate(f func(Node) Node) Node {
	for i, e := range n.Elems {
		n.Elems[i] = f(e)
	}
	return n
}
func (n *ArrayLit) String() string { return paren("array", "", squash(n.Elems)...) }

type ObjectField struct {
	Name  string
	Value Node
}

type ObjectLit struct {
	Token  token.Token
	Fields []ObjectField // insertion order preserved, per §3
}

func (n *ObjectLit) Base() token.Token { return n.Token }
func (n *ObjectLit) Plate(f func(Node) Node) Node {
	for i, field := range n.Fields {
		n.Fields[i].Value = f(field.Value)
	}
	return n
}
func (n *ObjectLit) String() string {
	var b strings.Builder
	b.WriteString("(object")
	for _, field := range n.Fields {
		fmt.Fprintf(&b, " %s:%s", field.Name, field.Value)
	}
	b.WriteString(")")
	return b.String()
}

type Member struct {
	Receiver Node
	Name     token.Token
}

func (n *Member) Base() token.Token { return n.Name }
func (n *Member) Plate(f func(Node) Node) Node {
	n.Receiver = f(n.Receiver)
	return n
}
func (n *Member) String() string { return paren("member", n.Name.Lexeme, n.Receiver) }

type Index struct {
	Receiver Node
	Bracket  token.Token
	Key      Node
}

func (n *Index) Base() token.Token { return n.Bracket }
func (n *Index) Plate(f func(Node) Node) Node {
	n.Receiver = f(n.Receiver)
	n.Key = f(n.Key)
	return n
}
func (n *Index) String() string { return paren("index", "", n.Receiver, n.Key) }

type Call struct {
	Callee Node
	Paren  token.Token
	Args   []Node
}

func (n *Call) Base() token.Token { return n.Paren }
func (n *Call) Plate(f func(Node) Node) Node {
	n.Callee = f(n.Callee)
	for i, a := range n.Args {
		n.Args[i] = f(a)
	}
	return n
}
func (n *Call) String() string { return paren("call", "", prepend(n.Callee, n.Args)...) }

type New struct {
	Token token.Token
	Class Node
	Args  []Node
}

func (n *New) Base() token.Token { return n.Token }
func (n *New) Plate(f func(Node) Node) Node {
	n.Class = f(n.Class)
	for i, a := range n.Args {
		n.Args[i] = f(a)
	}
	return n
}
func (n *New) String() string { return paren("new", "", prepend(n.Class, n.Args)...) }

// Lambda is an arrow function: `(params) -> expr` or `(params) -> { ... }`.
type Lambda struct {
	Token  token.Token
	Params []token.Token
	Body   []Node // single expr, or a block's statements
}

func (n *Lambda) Base() token.Token { return n.Token }
func (n *Lambda) Plate(f func(Node) Node) Node {
	for i, s := range n.Body {
		n.Body[i] = f(s)
	}
	return n
}
func (n *Lambda) String() string { return paren("lambda", "", squash(n.Body)...) }

// ---- statements ----

type ExprStmt struct{ Expr Node }

func (n *ExprStmt) Base() token.Token { return n.Expr.Base() }
func (n *ExprStmt) Plate(f func(Node) Node) Node {
	n.Expr = f(n.Expr)
	return n
}
func (n *ExprStmt) String() string { return paren("exprstmt", "", n.Expr) }

type Block struct {
	Token token.Token
	Stmts []Node
}

func (n *Block) Base() token.Token { return n.Token }
func (n *Block) Plate(f func(Node) Node) Node {
	for i, s := range n.Stmts {
		n.Stmts[i] = f(s)
	}
	return n
}
func (n *Block) String() string { return paren("block", "", squash(n.Stmts)...) }

type FunctionDecl struct {
	Token  token.Token
	Name   token.Token
	Params []token.Token
	Body   *Block
}

func (n *FunctionDecl) Base() token.Token { return n.Token }
func (n *FunctionDecl) Plate(f func(Node) Node) Node {
	n.Body = f(n.Body).(*Block)
	return n
}
func (n *FunctionDecl) String() string { return paren("function", n.Name.Lexeme, n.Body) }

type Return struct {
	Token token.Token
	Value Node // may be nil
}

func (n *Return) Base() token.Token { return n.Token }
func (n *Return) Plate(f func(Node) Node) Node {
	if n.Value != nil {
		n.Value = f(n.Value)
	}
	return n
}
func (n *Return) String() string {
	if n.Value == nil {
		return "(return)"
	}
	return paren("return", "", n.Value)
}

type IfArm struct {
	Cond Node // nil for a plain `else`
	Body *Block
}

type If struct {
	Token token.Token
	Arms  []IfArm // [0] is the `if`, following ones are `elif`/`else`
}

func (n *If) Base() token.Token { return n.Token }
func (n *If) Plate(f func(Node) Node) Node {
	for i, arm := range n.Arms {
		if arm.Cond != nil {
			n.Arms[i].Cond = f(arm.Cond)
		}
		n.Arms[i].Body = f(arm.Body).(*Block)
	}
	return n
}
func (n *If) String() string { return paren("if", "", armsToNodes(n.Arms)...) }

func armsToNodes(arms []IfArm) []Node {
	nodes := make([]Node, 0, len(arms)*2)
	for _, arm := range arms {
		if arm.Cond != nil {
			nodes = append(nodes, arm.Cond)
		}
		nodes = append(nodes, arm.Body)
	}
	return nodes
}

type While struct {
	Token token.Token
	Cond  Node
	Body  *Block
}

func (n *While) Base() token.Token { return n.Token }
func (n *While) Plate(f func(Node) Node) Node {
	n.Cond = f(n.Cond)
	n.Body = f(n.Body).(*Block)
	return n
}
func (n *While) String() string { return paren("while", "", n.Cond, n.Body) }

type ForIn struct {
	Token    token.Token
	Var      token.Token
	Iterable Node
	Body     *Block
}

func (n *ForIn) Base() token.Token { return n.Token }
func (n *ForIn) Plate(f func(Node) Node) Node {
	n.Iterable = f(n.Iterable)
	n.Body = f(n.Body).(*Block)
	return n
}
func (n *ForIn) String() string { return paren("for", n.Var.Lexeme, n.Iterable, n.Body) }

type Break struct{ Token token.Token }

func (n *Break) Base() token.Token          { return n.Token }
func (n *Break) Plate(func(Node) Node) Node { return n }
func (n *Break) String() string             { return "(break)" }

type Continue struct{ Token token.Token }

func (n *Continue) Base() token.Token          { return n.Token }
func (n *Continue) Plate(func(Node) Node) Node { return n }
func (n *Continue) String() string             { return "(continue)" }

// ---- classes ----

type Method struct {
	Name   token.Token
	Params []token.Token
	Body   *Block
}

type ClassDecl struct {
	Token   token.Token
	Name    token.Token
	Extends *token.Token // nil if no `extends`
	Methods []Method
}

func (n *ClassDecl) Base() token.Token { return n.Token }
func (n *ClassDecl) Plate(f func(Node) Node) Node {
	for i, m := range n.Methods {
		n.Methods[i].Body = f(m.Body).(*Block)
	}
	return n
}
func (n *ClassDecl) String() string {
	nodes := make([]Node, len(n.Methods))
	for i, m := range n.Methods {
		nodes[i] = m.Body
	}
	return paren("class", n.Name.Lexeme, nodes...)
}

// ---- exceptions ----

type Try struct {
	Token       token.Token
	Body        *Block
	CatchName   *token.Token // nil if `catch` has no binding
	CatchBody   *Block       // nil if no catch clause
	FinallyBody *Block       // nil if no finally clause
}

func (n *Try) Base() token.Token { return n.Token }
func (n *Try) Plate(f func(Node) Node) Node {
	n.Body = f(n.Body).(*Block)
	if n.CatchBody != nil {
		n.CatchBody = f(n.CatchBody).(*Block)
	}
	if n.FinallyBody != nil {
		n.FinallyBody = f(n.FinallyBody).(*Block)
	}
	return n
}
func (n *Try) String() string { return paren("try", "", n.Body) }

type Throw struct {
	Token token.Token
	Value Node
}

func (n *Throw) Base() token.Token { return n.Token }
func (n *Throw) Plate(f func(Node) Node) Node {
	n.Value = f(n.Value)
	return n
}
func (n *Throw) String() string { return paren("throw", "", n.Value) }

// ---- match ----

type MatchCase struct {
	Value Node // nil for the `default` arm
	Body  *Block
}

type Match struct {
	Token      token.Token
	Discr      Node
	Cases      []MatchCase
	HasDefault bool
}

func (n *Match) Base() token.Token { return n.Token }
func (n *Match) Plate(f func(Node) Node) Node {
	n.Discr = f(n.Discr)
	for i, c := range n.Cases {
		if c.Value != nil {
			n.Cases[i].Value = f(c.Value)
		}
		n.Cases[i].Body = f(c.Body).(*Block)
	}
	return n
}
func (n *Match) String() string {
	nodes := []Node{n.Discr}
	for _, c := range n.Cases {
		if c.Value != nil {
			nodes = append(nodes, c.Value)
		}
		nodes = append(nodes, c.Body)
	}
	return paren("match", "", nodes...)
}

// ---- reserved forms: scene / web.app / route / import ----

type SceneDecl struct {
	Token token.Token
	Name  token.Token
	Body  *Block
}

func (n *SceneDecl) Base() token.Token { return n.Token }
func (n *SceneDecl) Plate(f func(Node) Node) Node {
	n.Body = f(n.Body).(*Block)
	return n
}
func (n *SceneDecl) String() string { return paren("scene", n.Name.Lexeme, n.Body) }

type RouteDecl struct {
	Token token.Token
	Path  Node // StringLit
	Body  *Block
}

func (n *RouteDecl) Base() token.Token { return n.Token }
func (n *RouteDecl) Plate(f func(Node) Node) Node {
	n.Path = f(n.Path)
	n.Body = f(n.Body).(*Block)
	return n
}
func (n *RouteDecl) String() string { return paren("route", "", n.Path, n.Body) }

type WebAppDecl struct {
	Token  token.Token
	Routes []*RouteDecl
}

func (n *WebAppDecl) Base() token.Token { return n.Token }
func (n *WebAppDecl) Plate(f func(Node) Node) Node {
	for i, r := range n.Routes {
		n.Routes[i] = f(r).(*RouteDecl)
	}
	return n
}
func (n *WebAppDecl) String() string {
	nodes := make([]Node, len(n.Routes))
	for i, r := range n.Routes {
		nodes[i] = r
	}
	return paren("web.app", "", nodes...)
}

// Import covers both `import name` and `from name import a, b`.
type Import struct {
	Token  token.Token
	Module token.Token
	Names  []token.Token // empty for a bare `import name`
	IsFrom bool
}

func (n *Import) Base() token.Token          { return n.Token }
func (n *Import) Plate(func(Node) Node) Node { return n }
func (n *Import) String() string             { return paren("import", n.Module.Lexeme) }

// ---- generic tree walk, following anma's Traverse/Universe/Children ----

// Traverse applies f to every node in n's subtree, children first
// (post-order), including n itself.
func Traverse(n Node, f func(Node) Node) Node {
	n = n.Plate(func(child Node) Node {
		return Traverse(child, f)
	})
	return f(n)
}

// Universe collects every node reachable from n, including n itself.
func Universe(n Node) []Node {
	var nodes []Node
	Traverse(n, func(n Node) Node {
		nodes = append(nodes, n)
		return n
	})
	return nodes
}

// ---- string-rendering helpers ----

func paren(head, extra string, nodes ...Node) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(head)
	if extra != "" {
		b.WriteString(" ")
		b.WriteString(extra)
	}
	for _, n := range nodes {
		b.WriteString(" ")
		if n == nil {
			b.WriteString("<nil>")
		} else {
			b.WriteString(n.String())
		}
	}
	b.WriteString(")")
	return b.String()
}

func squash[T Node](elems []T) []Node {
	nodes := make([]Node, len(elems))
	for i, e := range elems {
		nodes[i] = e
	}
	return nodes
}

func prepend(elem Node, rest []Node) []Node {
	return append([]Node{elem}, rest...)
}
