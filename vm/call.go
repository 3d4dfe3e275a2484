package vm

// call implements spec.md §4.4's call protocol: CALL n expects
// [callee, arg0, ..., argN-1]; this is invoked after those have
// already been popped off the stack.
func (vm *VM) call(callee Value, args []Value) error {
	switch c := callee.(type) {
	case *Function:
		return vm.invokeFunction(c, args, nil, nil)
	case *BoundMethod:
		return vm.invokeFunction(c.Method, args, c.Receiver, nil)
	case *BuiltinFunction:
		if c.Arity >= 0 && len(args) != c.Arity {
			return arityError("%s expects %d argument(s), got %d", c.Name, c.Arity, len(args))
		}
		result, err := c.Fn(vm, args)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	case *Class:
		return vm.newInstance(c, args)
	default:
		return typeError("%s is not callable", describeType(callee))
	}
}

// invokeFunction pushes a new call frame rather than recursing natively,
// so the shared dispatch loop in vm.go drives both the caller and
// callee — matching a stack-machine VM's usual non-reentrant call
// convention (original_source/vm.py recurses into execute() instead;
// the Go rewrite avoids that so arbitrarily deep Mythos recursion
// doesn't also recurse the host Go call stack).
func (vm *VM) invokeFunction(fn *Function, args []Value, this *Instance, returnOverride Value) error {
	nf := newFrame(fn, this)
	base := 0
	if fn.Code.IsMethod {
		base = 1 // slot 0 is `this`, already bound by newFrame
	}
	for i := 0; i < fn.Code.Arity; i++ {
		if i < len(args) {
			nf.locals[base+i].Value = args[i]
		}
	}
	nf.returnOverride = returnOverride
	vm.frames = append(vm.frames, nf)
	return nil
}

// newInstance implements `new C(args)` and the CALL-on-a-Class case,
// per spec.md §4.4: allocate, bind `this`, run `constructor` if
// present, and the instance escapes even if the constructor's own
// RETURN carries a different value.
func (vm *VM) newInstance(class *Class, args []Value) error {
	inst := NewInstance(class)
	if ctor, ok := class.FindMethod("constructor"); ok {
		return vm.invokeFunction(ctor, args, inst, inst)
	}
	vm.push(inst)
	return nil
}
