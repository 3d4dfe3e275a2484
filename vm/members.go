package vm

// getMember implements GET_MEMBER's late-bound dispatch (spec.md
// §4.4's "Class semantics": own fields first, then class methods, then
// the base class chain) and the lenient "." policy from §7 (a missing
// key or method returns Null rather than erroring).
func (vm *VM) getMember(recv Value, name string) (Value, error) {
	switch r := recv.(type) {
	case *Instance:
		if v, ok := r.Fields.Get(name); ok {
			return v, nil
		}
		if m, ok := r.Class.FindMethod(name); ok {
			return &BoundMethod{Receiver: r, Method: m}, nil
		}
		return Null{}, nil
	case *Object:
		if v, ok := r.Get(name); ok {
			return v, nil
		}
		return Null{}, nil
	default:
		return nil, typeError("cannot get member %q of %s", name, describeType(recv))
	}
}

func (vm *VM) setMember(recv Value, name string, value Value) error {
	switch r := recv.(type) {
	case *Instance:
		r.Fields.Set(name, value)
		return nil
	case *Object:
		r.Set(name, value)
		return nil
	default:
		return typeError("cannot set member %q of %s", name, describeType(recv))
	}
}

// getIndex implements spec.md §4.4's per-type GET_INDEX: arrays and
// strings return Null on an out-of-range index (§7's lenient
// read policy); objects take the stricter bracket-access branch of the
// documented Open Question — see DESIGN.md.
func (vm *VM) getIndex(recv, key Value) (Value, error) {
	switch r := recv.(type) {
	case *Array:
		idx, ok := indexOf(key, len(r.Elems))
		if !ok {
			return Null{}, nil
		}
		return r.Elems[idx], nil
	case String:
		runes := []rune(string(r))
		idx, ok := indexOf(key, len(runes))
		if !ok {
			return Null{}, nil
		}
		return String(string(runes[idx])), nil
	case *Object:
		k, ok := key.(String)
		if !ok {
			return nil, typeError("object index must be a string, got %s", describeType(key))
		}
		v, ok := r.Get(string(k))
		if !ok {
			return nil, keyError("no such key %q", string(k))
		}
		return v, nil
	default:
		return nil, typeError("%s is not indexable", describeType(recv))
	}
}

func (vm *VM) setIndex(recv, key, value Value) error {
	switch r := recv.(type) {
	case *Array:
		n, ok := key.(Number)
		if !ok {
			return typeError("array index must be a number, got %s", describeType(key))
		}
		idx := int(n)
		if idx < 0 || idx >= len(r.Elems) {
			return &RuntimeError{Kind: "IndexError", Message: "array index out of range"}
		}
		r.Elems[idx] = value
		return nil
	case *Object:
		k, ok := key.(String)
		if !ok {
			return typeError("object index must be a string, got %s", describeType(key))
		}
		r.Set(string(k), value)
		return nil
	default:
		return typeError("%s is not indexable", describeType(recv))
	}
}

func indexOf(key Value, length int) (int, bool) {
	n, ok := key.(Number)
	if !ok {
		return 0, false
	}
	idx := int(n)
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

// makeClass implements MAKE_CLASS, consuming exactly the stack shape
// compileClassDecl produces: [name, base, methodName0, methodFn0, ...].
func (vm *VM) makeClass(methodCount int) error {
	methods := make(map[string]*Function, methodCount)
	for i := 0; i < methodCount; i++ {
		fnVal := vm.pop()
		nameVal := vm.pop()
		fn, ok := fnVal.(*Function)
		if !ok {
			return typeError("method body is not a function")
		}
		name, ok := nameVal.(String)
		if !ok {
			return typeError("method name is not a string")
		}
		methods[string(name)] = fn
	}
	baseVal := vm.pop()
	nameVal := vm.pop()

	var base *Class
	if b, ok := baseVal.(*Class); ok {
		base = b
	} else if _, isNull := baseVal.(Null); !isNull {
		return typeError("base class is not a class, got %s", describeType(baseVal))
	}

	name, ok := nameVal.(String)
	if !ok {
		return typeError("class name is not a string")
	}

	vm.push(&Class{Name: string(name), Base: base, Methods: methods})
	return nil
}
