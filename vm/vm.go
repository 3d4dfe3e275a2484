package vm

import (
	"github.com/mythos-lang/mythos/compiler"
)

// VM is a single-threaded stack machine, per spec.md §4.4: one shared
// operand stack, a call-frame stack, and a global namespace seeded from
// the builtin registry.
type VM struct {
	stack   []Value
	frames  []*frame
	globals map[string]Value
}

// New returns a VM with the default builtin set already registered
// (spec.md §6's "core populates a default set").
func New() *VM {
	vm := &VM{globals: make(map[string]Value)}
	registerDefaultBuiltins(vm)
	return vm
}

// RegisterBuiltin installs a host callable under name, per spec.md §6
// operation 2. arity of -1 means variadic.
func (vm *VM) RegisterBuiltin(name string, arity int, fn func(vm *VM, args []Value) (Value, error)) {
	vm.globals[name] = &BuiltinFunction{Name: name, Arity: arity, Fn: fn}
}

// Global exposes a registered global by name, so an embedder, a hostlib
// builtin or a test can read a value the program stored.
func (vm *VM) Global(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// Run executes code as the program's top-level script, per spec.md
// §6 operation 3.
func (vm *VM) Run(code *compiler.CodeObject) (Value, error) {
	vm.stack = nil
	vm.frames = []*frame{newFrame(&Function{Code: code}, nil)}
	return vm.loop()
}

func (vm *VM) loop() (Value, error) {
	if err := vm.runUntil(0); err != nil {
		return nil, err
	}
	if len(vm.stack) == 0 {
		return Null{}, nil
	}
	return vm.pop(), nil
}

// runUntil drives the dispatch loop until vm.frames shrinks back to
// floor. Call uses floor > 0 so a host callback invoked mid-script
// (e.g. a hostlib route handler) only runs the frame(s) it pushed,
// without re-running or unwinding past frames that were already on
// the stack when the callback started.
func (vm *VM) runUntil(floor int) error {
	for len(vm.frames) > floor {
		f := vm.frames[len(vm.frames)-1]
		instr, ok := f.fetch()
		if !ok {
			vm.frames = vm.frames[:len(vm.frames)-1]
			continue
		}
		if err := vm.exec(f, instr); err != nil {
			err = withPosition(withCallStack(err, vm.callStack()), instr.Line, instr.Column)
			if rerr := vm.raise(err, floor); rerr != nil {
				return rerr
			}
		}
	}
	return nil
}

// Call invokes a Mythos callable from host code and runs it to
// completion, for builtins that need to call back into a closure they
// were handed (hostlib's route handlers and scene bodies, principally).
// It is call()'s stack-machine protocol bounded to just the frame(s)
// this invocation pushes, via runUntil's floor.
func (vm *VM) Call(callee Value, args []Value) (Value, error) {
	depth := len(vm.frames)
	if err := vm.call(callee, args); err != nil {
		return nil, err
	}
	if len(vm.frames) == depth {
		return vm.pop(), nil
	}
	if err := vm.runUntil(depth); err != nil {
		return nil, err
	}
	return vm.pop(), nil
}

func (vm *VM) callStack() []string {
	names := make([]string, len(vm.frames))
	for i, f := range vm.frames {
		if f.fn.Code.Name == "" {
			names[i] = "<script>"
		} else {
			names[i] = f.fn.Code.Name
		}
	}
	return names
}

// raise implements spec.md §7's propagation rule: consult the
// innermost frame's handler stack; if empty, pop the frame and keep
// unwinding. Returns nil once a handler took over, or the original
// error once every frame down to floor has been popped with no handler
// found — floor is 0 for the top-level loop() and a Call's own starting
// depth for a host callback, so an uncaught error inside a callback
// never unwinds the frames that were already running before it.
func (vm *VM) raise(err error, floor int) error {
	for len(vm.frames) > floor {
		f := vm.frames[len(vm.frames)-1]
		if len(f.handlers) > 0 {
			h := f.handlers[len(f.handlers)-1]
			f.popHandler()
			vm.stack = vm.stack[:h.stackDepth]
			vm.push(errorValue(err))
			f.ip = h.catchIP
			return nil
		}
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	return err
}

func errorValue(err error) Value {
	if te, ok := err.(*thrownError); ok {
		return te.Value
	}
	return String(err.Error())
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek() Value { return vm.stack[len(vm.stack)-1] }

func (vm *VM) popN(n int) []Value {
	args := make([]Value, n)
	copy(args, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return args
}

//nolint:gocyclo // one opcode per case mirrors original_source/vm.py's execute() dispatch
func (vm *VM) exec(f *frame, instr compiler.Instruction) error {
	switch instr.Op {
	case compiler.OpLoadConst:
		v, err := constantToValue(f.fn.Code.Constants[instr.Arg])
		if err != nil {
			return err
		}
		vm.push(v)

	case compiler.OpLoadLocal:
		vm.push(f.locals[instr.Arg].Value)
	case compiler.OpStoreLocal:
		f.locals[instr.Arg].Value = vm.pop()

	case compiler.OpLoadGlobal:
		name := mustConstString(f.fn.Code, instr.Arg)
		v, ok := vm.globals[name]
		if !ok {
			return nameError("%s is not defined", name)
		}
		vm.push(v)
	case compiler.OpStoreGlobal:
		vm.globals[mustConstString(f.fn.Code, instr.Arg)] = vm.pop()

	case compiler.OpLoadUpval:
		vm.push(f.fn.Upvalues[instr.Arg].Value)
	case compiler.OpStoreUpval:
		f.fn.Upvalues[instr.Arg].Value = vm.pop()

	case compiler.OpPop:
		vm.pop()
	case compiler.OpDup:
		vm.push(vm.peek())

	case compiler.OpAdd:
		right, left := vm.pop(), vm.pop()
		v, err := binaryAdd(left, right)
		if err != nil {
			return err
		}
		vm.push(v)
	case compiler.OpSub:
		if err := vm.arith(subFloat); err != nil {
			return err
		}
	case compiler.OpMul:
		if err := vm.arith(mulFloat); err != nil {
			return err
		}
	case compiler.OpDiv:
		if err := vm.arith(divFloat); err != nil {
			return err
		}
	case compiler.OpMod:
		if err := vm.arith(modFloat); err != nil {
			return err
		}
	case compiler.OpPow:
		if err := vm.arith(powFloat); err != nil {
			return err
		}
	case compiler.OpNeg:
		v, err := unaryNeg(vm.pop())
		if err != nil {
			return err
		}
		vm.push(v)

	case compiler.OpEq:
		right, left := vm.pop(), vm.pop()
		vm.push(Bool(valuesEqual(left, right)))
	case compiler.OpNe:
		right, left := vm.pop(), vm.pop()
		vm.push(Bool(!valuesEqual(left, right)))
	case compiler.OpLt, compiler.OpGt, compiler.OpLe, compiler.OpGe:
		right, left := vm.pop(), vm.pop()
		c, err := compare(left, right)
		if err != nil {
			return err
		}
		vm.push(Bool(compareMatches(instr.Op, c)))

	case compiler.OpNot:
		vm.push(Bool(!vm.pop().Truthy()))

	case compiler.OpJump:
		f.ip = instr.Arg
	case compiler.OpJumpIfFalse:
		if !vm.pop().Truthy() {
			f.ip = instr.Arg
		}
	case compiler.OpJumpIfTrue:
		if vm.pop().Truthy() {
			f.ip = instr.Arg
		}

	case compiler.OpCall:
		args := vm.popN(instr.Arg)
		callee := vm.pop()
		return vm.call(callee, args)
	case compiler.OpReturn:
		v := vm.pop()
		vm.frames = vm.frames[:len(vm.frames)-1]
		if f.returnOverride != nil {
			v = f.returnOverride
		}
		vm.push(v)

	case compiler.OpMakeFunction:
		proto, ok := f.fn.Code.Constants[instr.Arg].(*compiler.CodeObject)
		if !ok {
			return typeError("MAKE_FUNCTION constant is not a code object")
		}
		vm.push(vm.closeOver(f, proto))

	case compiler.OpMakeArray:
		vm.push(NewArray(vm.popN(instr.Arg)))

	case compiler.OpMakeObject:
		obj := NewObject()
		pairs := vm.popN(instr.Arg * 2)
		for i := 0; i < len(pairs); i += 2 {
			key, ok := pairs[i].(String)
			if !ok {
				return typeError("object key must be a string, got %s", describeType(pairs[i]))
			}
			obj.Set(string(key), pairs[i+1])
		}
		vm.push(obj)

	case compiler.OpGetMember:
		name := mustConstString(f.fn.Code, instr.Arg)
		v, err := vm.getMember(vm.pop(), name)
		if err != nil {
			return err
		}
		vm.push(v)
	case compiler.OpSetMember:
		name := mustConstString(f.fn.Code, instr.Arg)
		value, recv := vm.pop(), vm.pop()
		if err := vm.setMember(recv, name, value); err != nil {
			return err
		}
		vm.push(value)

	case compiler.OpGetIndex:
		key, recv := vm.pop(), vm.pop()
		v, err := vm.getIndex(recv, key)
		if err != nil {
			return err
		}
		vm.push(v)
	case compiler.OpSetIndex:
		value, key, recv := vm.pop(), vm.pop(), vm.pop()
		if err := vm.setIndex(recv, key, value); err != nil {
			return err
		}
		vm.push(value)

	case compiler.OpMakeClass:
		return vm.makeClass(instr.Arg)

	case compiler.OpNew:
		args := vm.popN(instr.Arg)
		classVal := vm.pop()
		class, ok := classVal.(*Class)
		if !ok {
			return typeError("cannot `new` a %s", describeType(classVal))
		}
		return vm.newInstance(class, args)

	case compiler.OpLoadSuper:
		name := mustConstString(f.fn.Code, instr.Arg)
		this, ok := vm.pop().(*Instance)
		if !ok || this.Class.Base == nil {
			return nameError("super has no base class here")
		}
		method, ok := this.Class.Base.FindMethod(name)
		if !ok {
			return nameError("base class has no method %q", name)
		}
		vm.push(&BoundMethod{Receiver: this, Method: method})

	case compiler.OpPushTry:
		f.pushHandler(instr.Arg, len(vm.stack))
	case compiler.OpPopTry:
		f.popHandler()
	case compiler.OpThrow:
		return &thrownError{Value: vm.pop()}

	case compiler.OpGetIter:
		it, err := newIterator(vm.pop())
		if err != nil {
			return err
		}
		vm.push(it)
	case compiler.OpForIter:
		it, ok := vm.peek().(*iterator)
		if !ok {
			return typeError("FOR_ITER expected an iterator on the stack")
		}
		v, ok := it.next()
		if !ok {
			vm.pop()
			f.ip = instr.Arg
			return nil
		}
		vm.push(v)

	default:
		return typeError("unhandled opcode %s", instr.Op)
	}
	return nil
}

func (vm *VM) arith(op func(a, b float64) float64) error {
	right, left := vm.pop(), vm.pop()
	v, err := binaryArith(op, left, right)
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func compareMatches(op compiler.Op, c int) bool {
	switch op {
	case compiler.OpLt:
		return c < 0
	case compiler.OpGt:
		return c > 0
	case compiler.OpLe:
		return c <= 0
	case compiler.OpGe:
		return c >= 0
	default:
		return false
	}
}

// closeOver builds a Function from proto, resolving each of its
// UpvalueRefs against the enclosing frame f per spec.md §4.3: either a
// direct alias to f's own local cell, or a cell this frame itself
// already captured as one of its own upvalues.
func (vm *VM) closeOver(f *frame, proto *compiler.CodeObject) *Function {
	upvalues := make([]*Upvalue, len(proto.Upvalues))
	for i, ref := range proto.Upvalues {
		if ref.FromParentLocal {
			upvalues[i] = f.locals[ref.Index]
		} else {
			upvalues[i] = f.fn.Upvalues[ref.Index]
		}
	}
	return &Function{Code: proto, Upvalues: upvalues}
}

func constantToValue(c any) (Value, error) {
	switch v := c.(type) {
	case float64:
		return Number(v), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case compiler.NullConst:
		return Null{}, nil
	default:
		return nil, typeError("constant %v is not a loadable value", c)
	}
}

func mustConstString(code *compiler.CodeObject, idx int) string {
	s, ok := code.Constants[idx].(string)
	if !ok {
		return ""
	}
	return s
}
