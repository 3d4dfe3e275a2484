// Package compiler lowers a Mythos ast.Node tree into a CodeObject, per
// spec.md §4.3: constant-pool-deduplicated literals, slot-addressed
// locals/upvalues, short-circuit and/or via DUP+JUMP+POP, and a handler
// stack for try/catch/finally.
package compiler

import (
	"errors"
	"fmt"

	"github.com/mythos-lang/mythos/ast"
	"github.com/mythos-lang/mythos/token"
	"github.com/mythos-lang/mythos/utils"
)

type Emitter struct {
	fc     *funcCompiler
	err    error
	scopes []scopeExit

	// line/col is the source position of the node currently being
	// compiled, stamped onto every Instruction emit produces so a
	// runtime error can report where it happened (spec.md §6's `run`
	// contract: message, position, call stack).
	line, col int
}

// scopeExit is one entry of a stack mixing loop boundaries and active
// try/finally regions in lexical order, so break/continue/return can
// release every handler and run every finally block they unwind through
// (spec.md §4.3: "Break/continue/return inside a try whose frame has a
// finally must run the finally before taking effect"; spec.md §5: a
// handler is released on scope exit regardless of how the scope exits).
// loop is set for a loop body; popTry/finally describe a try's protected
// body (popTry true, finally optional) or a catch body with a finally to
// still run (popTry false, finally set).
type scopeExit struct {
	loop    *loopCtx
	finally *ast.Block
	popTry  bool
}

type loopCtx struct {
	continueTarget int
	breakJumps     []int
}

// Compile produces the script's top-level CodeObject. The program's
// final statement, if it's a bare expression, becomes the script's
// result value instead of being popped and discarded.
func Compile(program []ast.Node) (*CodeObject, error) {
	e := &Emitter{fc: newFuncCompiler(nil, "", true)}

	tailIsExpr := false
	for i, stmt := range program {
		if i == len(program)-1 {
			if exprStmt, ok := stmt.(*ast.ExprStmt); ok {
				e.compileExpr(exprStmt.Expr)
				tailIsExpr = true
				continue
			}
		}
		e.compileStmt(stmt)
	}
	if !tailIsExpr {
		e.emit(OpLoadConst, e.constant(NullConst{}))
	}
	e.emit(OpReturn, 0)

	return e.fc.code, e.err
}

// ---- statements ----

func (e *Emitter) compileStmt(n ast.Node) {
	e.setPos(n)
	switch n := n.(type) {
	case *ast.ExprStmt:
		e.compileExpr(n.Expr)
		e.emit(OpPop, 0)
	case *ast.Block:
		e.compileBlock(n)
	case *ast.If:
		e.compileIf(n)
	case *ast.While:
		e.compileWhile(n)
	case *ast.ForIn:
		e.compileForIn(n)
	case *ast.FunctionDecl:
		e.compileFunctionDecl(n)
	case *ast.Return:
		e.compileReturn(n)
	case *ast.Break:
		e.compileBreak(n)
	case *ast.Continue:
		e.compileContinue(n)
	case *ast.ClassDecl:
		e.compileClassDecl(n)
	case *ast.Try:
		e.compileTry(n)
	case *ast.Throw:
		e.compileExpr(n.Value)
		e.emit(OpThrow, 0)
	case *ast.Match:
		e.compileMatch(n)
	case *ast.SceneDecl:
		e.compileSceneDecl(n)
	case *ast.WebAppDecl:
		e.compileWebAppDecl(n)
	case *ast.Import:
		e.compileImport(n)
	default:
		e.errf(n.Base(), "cannot compile statement %T", n)
	}
}

func (e *Emitter) compileBlock(b *ast.Block) {
	e.fc.beginScope()
	for _, s := range b.Stmts {
		e.compileStmt(s)
	}
	e.fc.endScope()
}

// compileIf relies on JUMP_IF_FALSE always popping its operand, so no
// extra POP is needed around each arm.
func (e *Emitter) compileIf(n *ast.If) {
	var endJumps []int
	for _, arm := range n.Arms {
		if arm.Cond != nil {
			e.compileExpr(arm.Cond)
			skip := e.emitJump(OpJumpIfFalse)
			e.compileBlock(arm.Body)
			endJumps = append(endJumps, e.emitJump(OpJump))
			e.patchJumpHere(skip)
		} else {
			e.compileBlock(arm.Body)
		}
	}
	for _, j := range endJumps {
		e.patchJumpHere(j)
	}
}

func (e *Emitter) compileWhile(n *ast.While) {
	start := e.pos()
	e.compileExpr(n.Cond)
	exitJump := e.emitJump(OpJumpIfFalse)

	e.pushLoop(start)
	e.compileBlock(n.Body)
	e.emit(OpJump, start)
	loop := e.popLoop()

	end := e.pos()
	e.patchJumpTo(exitJump, end)
	for _, bj := range loop.breakJumps {
		e.patchJumpTo(bj, end)
	}
}

// compileForIn relies on FOR_ITER popping the iterator itself when
// exhausted, so the natural fall-through path needs no cleanup; a
// `break`, which exits mid-body, still has the iterator live and is
// routed through breakTarget to pop it first.
func (e *Emitter) compileForIn(n *ast.ForIn) {
	e.compileExpr(n.Iterable)
	e.emit(OpGetIter, 0)

	loopStart := e.pos()
	forIterJump := e.emitJump(OpForIter)
	e.storeLoopVar(n.Var)

	e.pushLoop(loopStart)
	e.compileBlock(n.Body)
	e.emit(OpJump, loopStart)
	loop := e.popLoop()

	breakTarget := e.pos()
	e.emit(OpPop, 0) // drop the live iterator on a break
	end := e.pos()
	e.patchJumpTo(forIterJump, end)
	for _, bj := range loop.breakJumps {
		e.patchJumpTo(bj, breakTarget)
	}
}

func (e *Emitter) storeLoopVar(tok token.Token) {
	e.storeIdent(tok)
}

func (e *Emitter) compileFunctionDecl(n *ast.FunctionDecl) {
	e.compileFunctionLiteral(n.Name.Lexeme, n.Params, n.Body.Stmts, false)
	e.storeIdent(n.Name)
}

func (e *Emitter) compileReturn(n *ast.Return) {
	if n.Value != nil {
		e.compileExpr(n.Value)
	} else {
		e.emit(OpLoadConst, e.constant(NullConst{}))
	}
	// The return value is already on the stack under any finally block's
	// own pushes/pops, since compileBlock leaves the stack depth it found.
	e.runFinallyBlocksAbove(-1)
	e.emit(OpReturn, 0)
}

func (e *Emitter) compileBreak(n *ast.Break) {
	idx := e.nearestLoopIndex()
	if idx < 0 {
		e.errf(n.Token, "break outside a loop")
		return
	}
	e.runFinallyBlocksAbove(idx)
	loop := e.scopes[idx].loop
	loop.breakJumps = append(loop.breakJumps, e.emitJump(OpJump))
}

func (e *Emitter) compileContinue(n *ast.Continue) {
	idx := e.nearestLoopIndex()
	if idx < 0 {
		e.errf(n.Token, "continue outside a loop")
		return
	}
	e.runFinallyBlocksAbove(idx)
	e.emit(OpJump, e.scopes[idx].loop.continueTarget)
}

func (e *Emitter) compileClassDecl(n *ast.ClassDecl) {
	e.emit(OpLoadConst, e.constant(n.Name.Lexeme))
	if n.Extends != nil {
		e.loadIdent(*n.Extends)
	} else {
		e.emit(OpLoadConst, e.constant(NullConst{}))
	}
	for _, m := range n.Methods {
		e.emit(OpLoadConst, e.constant(m.Name.Lexeme))
		e.compileFunctionLiteral(m.Name.Lexeme, m.Params, m.Body.Stmts, true)
	}
	e.emit(OpMakeClass, len(n.Methods))
	e.storeIdent(n.Name)
}

// compileTry sets a handler address via PUSH_TRY; the VM transfers
// control there (with the thrown value pushed) on THROW or a runtime
// error inside the protected block. A try with no catch still needs its
// handler, solely so its finally runs before the exception keeps
// propagating — it is not a form of catching, so that branch re-throws
// once the finally completes instead of discarding the value.
func (e *Emitter) compileTry(n *ast.Try) {
	pushIdx := e.emitJump(OpPushTry)
	e.pushTryBody(n.FinallyBody)
	e.compileBlock(n.Body)
	e.popTryBody()
	e.emit(OpPopTry, 0)
	endJump := e.emitJump(OpJump)

	catchStart := e.pos()
	e.patchJumpTo(pushIdx, catchStart)
	if n.CatchBody != nil {
		e.fc.beginScope()
		if n.FinallyBody != nil {
			e.pushFinally(n.FinallyBody)
		}
		if n.CatchName != nil {
			slot := e.fc.declareLocal(n.CatchName.Lexeme)
			e.emit(OpStoreLocal, slot)
		} else {
			e.emit(OpPop, 0)
		}
		for _, stmt := range n.CatchBody.Stmts {
			e.compileStmt(stmt)
		}
		if n.FinallyBody != nil {
			e.popFinally()
		}
		e.fc.endScope()
	} else if n.FinallyBody != nil {
		e.compileBlock(n.FinallyBody)
		e.emit(OpThrow, 0)
	} else {
		e.emit(OpPop, 0)
	}
	e.patchJumpHere(endJump)

	if n.FinallyBody != nil {
		e.compileBlock(n.FinallyBody)
	}
}

// compileMatch evaluates the discriminant once and DUPs it for each
// equality test, mirroring the if-chain it's sugar for.
func (e *Emitter) compileMatch(n *ast.Match) {
	e.compileExpr(n.Discr)

	var endJumps []int
	var defaultCase *ast.MatchCase
	for i := range n.Cases {
		c := n.Cases[i]
		if c.Value == nil {
			defaultCase = &n.Cases[i]
			continue
		}
		e.emit(OpDup, 0)
		e.compileExpr(c.Value)
		e.emit(OpEq, 0)
		skip := e.emitJump(OpJumpIfFalse)
		e.emit(OpPop, 0)
		e.compileBlock(c.Body)
		endJumps = append(endJumps, e.emitJump(OpJump))
		e.patchJumpHere(skip)
	}
	e.emit(OpPop, 0)
	if defaultCase != nil {
		e.compileBlock(defaultCase.Body)
	}
	for _, j := range endJumps {
		e.patchJumpHere(j)
	}
}

// compileSceneDecl and compileWebAppDecl desugar the reserved scene/
// web.app forms into CALLs against the named builtins spec.md §9 calls
// out for exactly this purpose (`__scene`, `__route`) — the compiler
// never special-cases rendering or routing, it just emits ordinary
// CALL instructions the host may or may not have registered.
func (e *Emitter) compileSceneDecl(n *ast.SceneDecl) {
	e.loadGlobalByName("__scene")
	e.emit(OpLoadConst, e.constant(n.Name.Lexeme))
	e.compileFunctionLiteral("", nil, n.Body.Stmts, false)
	e.emit(OpCall, 2)
	e.emit(OpPop, 0)
}

// compileWebAppDecl emits one __route(path, handler) call per nested
// route rather than a single batched call, so `web.app { ... }`'s own
// braces are pure grouping with no runtime effect of their own.
func (e *Emitter) compileWebAppDecl(n *ast.WebAppDecl) {
	for _, r := range n.Routes {
		e.loadGlobalByName("__route")
		e.compileExpr(r.Path)
		e.compileFunctionLiteral("", nil, r.Body.Stmts, false)
		e.emit(OpCall, 2)
		e.emit(OpPop, 0)
	}
}

func (e *Emitter) compileImport(n *ast.Import) {
	e.loadGlobalByName("__import")
	e.emit(OpLoadConst, e.constant(n.Module.Lexeme))
	e.emit(OpCall, 1)

	if !n.IsFrom {
		e.storeIdent(n.Module)
		return
	}
	for _, name := range n.Names {
		e.emit(OpDup, 0)
		e.emit(OpLoadConst, e.constant(name.Lexeme))
		e.emit(OpGetIndex, 0)
		e.storeIdent(name)
	}
	e.emit(OpPop, 0)
}

// ---- expressions ----

func (e *Emitter) compileExpr(n ast.Node) {
	e.setPos(n)
	switch n := n.(type) {
	case *ast.NumberLit:
		e.emit(OpLoadConst, e.constant(n.Token.Literal))
	case *ast.StringLit:
		e.emit(OpLoadConst, e.constant(n.Token.Literal))
	case *ast.BoolLit:
		e.emit(OpLoadConst, e.constant(n.Value))
	case *ast.NullLit:
		e.emit(OpLoadConst, e.constant(NullConst{}))
	case *ast.Ident:
		e.loadIdent(n.Token)
	case *ast.This:
		e.loadIdent(n.Token)
	case *ast.Super:
		e.loadIdent(thisToken(n.Token))
		e.emit(OpLoadSuper, e.constant(n.Name))
	case *ast.Unary:
		e.compileExpr(n.Operand)
		if n.Op.Kind == token.MINUS {
			e.emit(OpNeg, 0)
		} else {
			e.emit(OpNot, 0)
		}
	case *ast.Binary:
		e.compileExpr(n.Left)
		e.compileExpr(n.Right)
		e.emitBinaryOpcode(n.Op)
	case *ast.Logical:
		e.compileLogical(n)
	case *ast.Assign:
		e.compileAssign(n)
	case *ast.ArrayLit:
		for _, el := range n.Elems {
			e.compileExpr(el)
		}
		e.emit(OpMakeArray, len(n.Elems))
	case *ast.ObjectLit:
		for _, f := range n.Fields {
			e.emit(OpLoadConst, e.constant(f.Name))
			e.compileExpr(f.Value)
		}
		e.emit(OpMakeObject, len(n.Fields))
	case *ast.Member:
		e.compileExpr(n.Receiver)
		e.emit(OpGetMember, e.constant(n.Name.Lexeme))
	case *ast.Index:
		e.compileExpr(n.Receiver)
		e.compileExpr(n.Key)
		e.emit(OpGetIndex, 0)
	case *ast.Call:
		e.compileExpr(n.Callee)
		for _, a := range n.Args {
			e.compileExpr(a)
		}
		e.emit(OpCall, len(n.Args))
	case *ast.New:
		e.compileExpr(n.Class)
		for _, a := range n.Args {
			e.compileExpr(a)
		}
		e.emit(OpNew, len(n.Args))
	case *ast.Lambda:
		e.compileFunctionLiteral("", n.Params, n.Body, false)
	default:
		e.errf(n.Base(), "cannot compile expression %T", n)
	}
}

// compileLogical implements short-circuit and/or with DUP+JUMP+POP:
// the left operand is duplicated, tested, and discarded only on the
// path that goes on to evaluate the right operand.
func (e *Emitter) compileLogical(n *ast.Logical) {
	e.compileExpr(n.Left)
	e.emit(OpDup, 0)
	var shortCircuit int
	if n.Op.Kind == token.AND {
		shortCircuit = e.emitJump(OpJumpIfFalse)
	} else {
		shortCircuit = e.emitJump(OpJumpIfTrue)
	}
	e.emit(OpPop, 0)
	e.compileExpr(n.Right)
	e.patchJumpHere(shortCircuit)
}

// compileAssign. Plain variable targets use DUP-then-STORE so the
// assignment still yields its value as an expression; SET_MEMBER/
// SET_INDEX push their stored value back themselves. Compound index
// assignment re-evaluates the receiver and key a second time since the
// opcode set has no stack-rotate instruction to avoid it.
func (e *Emitter) compileAssign(n *ast.Assign) {
	switch target := n.Target.(type) {
	case *ast.Ident:
		if n.Op.Kind == token.EQUAL {
			e.compileExpr(n.Value)
		} else {
			e.loadIdent(target.Token)
			e.compileExpr(n.Value)
			e.emitBinaryOpcode(n.Op)
		}
		e.emit(OpDup, 0)
		e.storeIdent(target.Token)

	case *ast.Member:
		nameIdx := e.constant(target.Name.Lexeme)
		e.compileExpr(target.Receiver)
		if n.Op.Kind == token.EQUAL {
			e.compileExpr(n.Value)
		} else {
			e.emit(OpDup, 0)
			e.emit(OpGetMember, nameIdx)
			e.compileExpr(n.Value)
			e.emitBinaryOpcode(n.Op)
		}
		e.emit(OpSetMember, nameIdx)

	case *ast.Index:
		if n.Op.Kind == token.EQUAL {
			e.compileExpr(target.Receiver)
			e.compileExpr(target.Key)
			e.compileExpr(n.Value)
		} else {
			e.compileExpr(target.Receiver) // kept for the write
			e.compileExpr(target.Key)
			e.compileExpr(target.Receiver) // re-evaluated for the read
			e.compileExpr(target.Key)
			e.emit(OpGetIndex, 0)
			e.compileExpr(n.Value)
			e.emitBinaryOpcode(n.Op)
		}
		e.emit(OpSetIndex, 0)

	default:
		e.errf(n.Base(), "invalid assignment target %T", target)
	}
}

// ---- function literals ----

func isStatementNode(n ast.Node) bool {
	switch n.(type) {
	case *ast.ExprStmt, *ast.Block, *ast.If, *ast.While, *ast.ForIn, *ast.Return,
		*ast.Break, *ast.Continue, *ast.FunctionDecl, *ast.ClassDecl, *ast.Try,
		*ast.Throw, *ast.Match, *ast.SceneDecl, *ast.WebAppDecl, *ast.Import:
		return true
	default:
		return false
	}
}

// compileFunctionLiteral compiles a function/method/lambda body into its
// own CodeObject (added to the enclosing function's constant pool) and
// leaves a MAKE_FUNCTION instruction that closes over its upvalues.
func (e *Emitter) compileFunctionLiteral(name string, params []token.Token, body []ast.Node, isMethod bool) {
	parent := e.fc
	parentScopes := e.scopes
	e.scopes = nil
	e.fc = newFuncCompiler(parent, name, false)
	e.fc.code.Arity = len(params)
	e.fc.code.IsMethod = isMethod

	e.fc.beginScope()
	if isMethod {
		e.fc.declareLocal("this")
	}
	for _, p := range params {
		e.fc.declareLocal(p.Lexeme)
	}

	if len(body) == 1 && !isStatementNode(body[0]) {
		e.compileExpr(body[0])
		e.emit(OpReturn, 0)
	} else {
		for _, stmt := range body {
			e.compileStmt(stmt)
		}
		e.emit(OpLoadConst, e.constant(NullConst{}))
		e.emit(OpReturn, 0)
	}
	e.fc.endScope()

	code := e.fc.code
	e.fc = parent
	e.scopes = parentScopes
	e.emit(OpMakeFunction, e.constant(code))
}

// ---- identifier resolution ----

func (e *Emitter) loadIdent(tok token.Token) {
	if slot, ok := e.fc.resolveLocal(tok.Lexeme); ok {
		e.emit(OpLoadLocal, slot)
		return
	}
	if idx, ok := e.fc.resolveUpvalue(tok.Lexeme); ok {
		e.emit(OpLoadUpval, idx)
		return
	}
	e.emit(OpLoadGlobal, e.constant(tok.Lexeme))
}

// storeIdent resolves tok the same way loadIdent does (own local, then
// an enclosing function's local via an upvalue), but when neither is
// found inside a function it declares a brand new local instead of
// storing a global; only the top-level script stores globals.
func (e *Emitter) storeIdent(tok token.Token) {
	if slot, ok := e.fc.resolveLocal(tok.Lexeme); ok {
		e.emit(OpStoreLocal, slot)
		return
	}
	if idx, ok := e.fc.resolveUpvalue(tok.Lexeme); ok {
		e.emit(OpStoreUpval, idx)
		return
	}
	if !e.fc.isScript {
		slot := e.fc.declareLocal(tok.Lexeme)
		e.emit(OpStoreLocal, slot)
		return
	}
	e.emit(OpStoreGlobal, e.constant(tok.Lexeme))
}

func (e *Emitter) loadGlobalByName(name string) {
	e.emit(OpLoadGlobal, e.constant(name))
}

// thisToken synthesizes the `this` identifier at super's position, so
// `super.m(...)` can push the receiver via the ordinary loadIdent path
// (local slot 0 in the enclosing method, or an upvalue capturing it for
// a `super` reference nested inside a lambda).
func thisToken(at token.Token) token.Token {
	return token.Token{Kind: token.THIS, Lexeme: "this", Line: at.Line, Column: at.Column}
}

// ---- low-level emission ----

func (e *Emitter) pos() int {
	return len(e.fc.code.Instructions)
}

// setPos records n's source position so the next emit carries it; called
// at the top of compileStmt/compileExpr the way lexer/parser attach a
// position to every token/node they produce.
func (e *Emitter) setPos(n ast.Node) {
	tok := n.Base()
	e.line, e.col = tok.Line, tok.Column
}

func (e *Emitter) emit(op Op, arg int) int {
	e.fc.code.Instructions = append(e.fc.code.Instructions, Instruction{Op: op, Arg: arg, Line: e.line, Column: e.col})
	return len(e.fc.code.Instructions) - 1
}

func (e *Emitter) emitJump(op Op) int {
	return e.emit(op, -1)
}

func (e *Emitter) patchJumpTo(idx, target int) {
	e.fc.code.Instructions[idx].Arg = target
}

func (e *Emitter) patchJumpHere(idx int) {
	e.patchJumpTo(idx, e.pos())
}

func (e *Emitter) constant(v any) int {
	return e.fc.code.AddConstant(v)
}

func (e *Emitter) pushLoop(continueTarget int) {
	e.scopes = append(e.scopes, scopeExit{loop: &loopCtx{continueTarget: continueTarget}})
}

func (e *Emitter) popLoop() *loopCtx {
	top := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]
	return top.loop
}

func (e *Emitter) pushFinally(b *ast.Block) {
	e.scopes = append(e.scopes, scopeExit{finally: b})
}

func (e *Emitter) popFinally() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// pushTryBody marks a try's protected body: break/continue/return that
// unwind out of it must release its handler (OpPopTry) before running
// its finally, if any, mirroring the order compileTry itself emits for
// the normal-exit path. Pushed for every try regardless of whether it
// has a finally, since the handler still needs releasing either way.
func (e *Emitter) pushTryBody(finally *ast.Block) {
	e.scopes = append(e.scopes, scopeExit{finally: finally, popTry: true})
}

func (e *Emitter) popTryBody() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// nearestLoopIndex finds the innermost enclosing loop's slot in e.scopes,
// skipping over any intervening finally/try markers. Returns -1 outside
// a loop.
func (e *Emitter) nearestLoopIndex() int {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if e.scopes[i].loop != nil {
			return i
		}
	}
	return -1
}

// runFinallyBlocksAbove unwinds every try/finally scope above index idx,
// in innermost-first order, as break/continue/return exit through them:
// releasing a try's own handler before running its finally, exactly as
// compileTry orders OpPopTry before the finally block on its own
// normal-exit path. idx == -1 means "every scope in the current
// function", the return case.
func (e *Emitter) runFinallyBlocksAbove(idx int) {
	for i := len(e.scopes) - 1; i > idx; i-- {
		s := e.scopes[i]
		if s.popTry {
			e.emit(OpPopTry, 0)
		}
		if s.finally != nil {
			e.compileBlock(s.finally)
		}
	}
}

func binOpcode(op token.Token) Op {
	switch op.Kind {
	case token.PLUS, token.PLUS_EQUAL:
		return OpAdd
	case token.MINUS, token.MINUS_EQUAL:
		return OpSub
	case token.STAR, token.STAR_EQUAL:
		return OpMul
	case token.SLASH, token.SLASH_EQUAL:
		return OpDiv
	case token.PERCENT:
		return OpMod
	case token.CARET:
		return OpPow
	case token.EQUAL_EQUAL:
		return OpEq
	case token.BANG_EQUAL:
		return OpNe
	case token.LESS:
		return OpLt
	case token.GREATER:
		return OpGt
	case token.LESS_EQUAL:
		return OpLe
	case token.GREATER_EQUAL:
		return OpGe
	default:
		return OpAdd
	}
}

func (e *Emitter) emitBinaryOpcode(op token.Token) {
	e.emit(binOpcode(op), 0)
}

func (e *Emitter) errf(tok token.Token, format string, args ...any) {
	e.err = errors.Join(e.err, utils.ErrorAt{Where: tok, Err: fmt.Errorf(format, args...)})
}
