package compiler

// funcCompiler tracks one function body's local-slot and upvalue
// bookkeeping while the emitter walks its AST, following
// nameresolve/resolve.go's parent-chained env{parent,table} shape but
// keyed to stack slots instead of fresh unique names.
//
// The top-level script is compiled as an implicit function with
// isScript set: names assigned there are never declared as locals, so
// they always resolve to globals (clox's "script is a function too"
// design, specialized so module-level bindings stay name-addressed).
type funcCompiler struct {
	parent   *funcCompiler
	code     *CodeObject
	isScript bool

	scopeDepth int
	locals     []localVar

	upvalueNames []string
}

type localVar struct {
	name  string
	depth int
	slot  int
}

func newFuncCompiler(parent *funcCompiler, name string, isScript bool) *funcCompiler {
	return &funcCompiler{
		parent:   parent,
		code:     &CodeObject{Name: name},
		isScript: isScript,
	}
}

func (f *funcCompiler) beginScope() { f.scopeDepth++ }

func (f *funcCompiler) endScope() {
	f.scopeDepth--
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > f.scopeDepth {
		f.locals = f.locals[:len(f.locals)-1]
	}
}

// declareLocal reserves a fresh stack slot for name. Reassignment reuses
// an existing slot via resolveLocal; this is only called the first time
// a function-local name is assigned.
func (f *funcCompiler) declareLocal(name string) int {
	slot := f.code.NumLocals
	f.code.NumLocals++
	f.locals = append(f.locals, localVar{name: name, depth: f.scopeDepth, slot: slot})
	return slot
}

func (f *funcCompiler) resolveLocal(name string) (int, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return f.locals[i].slot, true
		}
	}
	return 0, false
}

// resolveUpvalue walks up the enclosing function chain, capturing name
// as an upvalue at every level between the defining scope and here.
func (f *funcCompiler) resolveUpvalue(name string) (int, bool) {
	if f.parent == nil || f.parent.isScript {
		return 0, false
	}
	if slot, ok := f.parent.resolveLocal(name); ok {
		return f.addUpvalue(name, UpvalueRef{FromParentLocal: true, Index: slot}), true
	}
	if idx, ok := f.parent.resolveUpvalue(name); ok {
		return f.addUpvalue(name, UpvalueRef{FromParentLocal: false, Index: idx}), true
	}
	return 0, false
}

func (f *funcCompiler) addUpvalue(name string, ref UpvalueRef) int {
	for i, n := range f.upvalueNames {
		if n == name {
			return i
		}
	}
	f.code.Upvalues = append(f.code.Upvalues, ref)
	f.upvalueNames = append(f.upvalueNames, name)
	return len(f.code.Upvalues) - 1
}
