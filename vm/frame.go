package vm

import "github.com/mythos-lang/mythos/compiler"

// tryHandler is one registered PUSH_TRY entry: the catch address to jump
// to and the stack depth to restore to before pushing the thrown value,
// per spec.md §4.4's per-frame handler stack.
type tryHandler struct {
	catchIP    int
	stackDepth int
}

// frame is one call frame, per spec.md §4.4: a code object, an
// instruction pointer, locals addressed by slot, the closure's
// upvalues, and a handler stack for try/catch.
//
// Locals are boxed as *Upvalue cells rather than plain Values, even
// though most never escape their frame: MAKE_FUNCTION needs to hand a
// closure a live alias to an enclosing local, and the only way two
// frames can share one mutable slot in Go is a shared pointer. This
// trades a small allocation per local for never needing clox's
// separate open/closed-upvalue bookkeeping.
type frame struct {
	fn             *Function
	ip             int
	locals         []*Upvalue
	handlers       []tryHandler
	returnOverride Value // set by `new`: RETURN pushes this instead of the popped value
}

// newFrame allocates this's locals. this is the receiver for a method
// call (nil otherwise); per spec.md §4.3 it is bound into local slot 0,
// the same slot compiler.CodeObject.IsMethod's implicit `this` local
// reserves, so it resolves and captures as an upvalue exactly like any
// other local.
func newFrame(fn *Function, this *Instance) *frame {
	locals := make([]*Upvalue, fn.Code.NumLocals)
	for i := range locals {
		locals[i] = &Upvalue{Value: Null{}}
	}
	if fn.Code.IsMethod && this != nil {
		locals[0].Value = this
	}
	return &frame{
		fn:     fn,
		locals: locals,
	}
}

func (f *frame) fetch() (compiler.Instruction, bool) {
	if f.ip >= len(f.fn.Code.Instructions) {
		return compiler.Instruction{}, false
	}
	instr := f.fn.Code.Instructions[f.ip]
	f.ip++
	return instr, true
}

func (f *frame) pushHandler(catchIP, stackDepth int) {
	f.handlers = append(f.handlers, tryHandler{catchIP: catchIP, stackDepth: stackDepth})
}

func (f *frame) popHandler() {
	f.handlers = f.handlers[:len(f.handlers)-1]
}
