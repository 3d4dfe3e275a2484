package vm

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// registerDefaultBuiltins installs spec.md §6's default builtin set,
// grounded on original_source/vm.py's _init_builtins (print/len/range/
// sqrt/sin/cos/tan/abs/min/max/floor/ceil/round/pi/e) plus the
// conversions (string/number/boolean) spec.md §6 adds on top of it.
func registerDefaultBuiltins(vm *VM) {
	vm.RegisterBuiltin("print", -1, builtinPrint)
	vm.RegisterBuiltin("input", -1, builtinInput)
	vm.RegisterBuiltin("len", 1, builtinLen)
	vm.RegisterBuiltin("range", -1, builtinRange)

	vm.RegisterBuiltin("string", 1, builtinString)
	vm.RegisterBuiltin("number", 1, builtinNumber)
	vm.RegisterBuiltin("boolean", 1, builtinBoolean)

	vm.RegisterBuiltin("abs", 1, mathUnary(math.Abs))
	vm.RegisterBuiltin("sqrt", 1, mathUnary(math.Sqrt))
	vm.RegisterBuiltin("sin", 1, mathUnary(math.Sin))
	vm.RegisterBuiltin("cos", 1, mathUnary(math.Cos))
	vm.RegisterBuiltin("tan", 1, mathUnary(math.Tan))
	vm.RegisterBuiltin("floor", 1, mathUnary(math.Floor))
	vm.RegisterBuiltin("ceil", 1, mathUnary(math.Ceil))
	vm.RegisterBuiltin("round", 1, mathUnary(math.Round))
	vm.RegisterBuiltin("pow", 2, builtinPow)
	vm.RegisterBuiltin("min", -1, builtinMin)
	vm.RegisterBuiltin("max", -1, builtinMax)

	vm.globals["pi"] = Number(math.Pi)
	vm.globals["e"] = Number(math.E)

	registerReservedFormBuiltins(vm)
}

func builtinPrint(_ *VM, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Println(strings.Join(parts, " "))
	return Null{}, nil
}

var stdin = bufio.NewReader(os.Stdin)

func builtinInput(_ *VM, args []Value) (Value, error) {
	if len(args) > 0 {
		fmt.Print(args[0].String())
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return Null{}, nil
	}
	return String(strings.TrimRight(line, "\r\n")), nil
}

// builtinLen mirrors _builtin_len's isinstance check: unsupported types
// return 0 rather than erroring.
func builtinLen(_ *VM, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *Array:
		return Number(len(v.Elems)), nil
	case String:
		return Number(len([]rune(string(v)))), nil
	case *Object:
		return Number(len(v.Keys)), nil
	default:
		return Number(0), nil
	}
}

// builtinRange mirrors Python's range(*args) overload set but returns
// the lazy Range value from SPEC_FULL.md §10 instead of materializing
// a list, per the supplemented-feature decision in DESIGN.md.
func builtinRange(_ *VM, args []Value) (Value, error) {
	ints := make([]int, len(args))
	for i, a := range args {
		n, ok := a.(Number)
		if !ok {
			return nil, typeError("range() arguments must be numbers")
		}
		ints[i] = int(n)
	}
	switch len(ints) {
	case 1:
		return &Range{Start: 0, Stop: ints[0], Step: 1}, nil
	case 2:
		return &Range{Start: ints[0], Stop: ints[1], Step: 1}, nil
	case 3:
		return &Range{Start: ints[0], Stop: ints[1], Step: ints[2]}, nil
	default:
		return nil, arityError("range() expects 1 to 3 arguments, got %d", len(args))
	}
}

func builtinString(_ *VM, args []Value) (Value, error) {
	return String(args[0].String()), nil
}

func builtinNumber(_ *VM, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case Number:
		return v, nil
	case String:
		n, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, typeError("cannot convert %q to a number", string(v))
		}
		return Number(n), nil
	case Bool:
		if v {
			return Number(1), nil
		}
		return Number(0), nil
	default:
		return nil, typeError("cannot convert %s to a number", describeType(args[0]))
	}
}

func builtinBoolean(_ *VM, args []Value) (Value, error) {
	return Bool(args[0].Truthy()), nil
}

func mathUnary(op func(float64) float64) func(*VM, []Value) (Value, error) {
	return func(_ *VM, args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, typeError("expected a number, got %s", describeType(args[0]))
		}
		return Number(op(float64(n))), nil
	}
}

func builtinPow(_ *VM, args []Value) (Value, error) {
	base, ok := args[0].(Number)
	exp, ok2 := args[1].(Number)
	if !ok || !ok2 {
		return nil, typeError("pow() expects two numbers")
	}
	return Number(math.Pow(float64(base), float64(exp))), nil
}

func builtinMin(_ *VM, args []Value) (Value, error) {
	return extremum(args, func(c int) bool { return c < 0 })
}

func builtinMax(_ *VM, args []Value) (Value, error) {
	return extremum(args, func(c int) bool { return c > 0 })
}

func extremum(args []Value, better func(c int) bool) (Value, error) {
	if len(args) == 0 {
		return nil, arityError("expected at least one argument")
	}
	best := args[0]
	for _, v := range args[1:] {
		c, err := compare(v, best)
		if err != nil {
			return nil, err
		}
		if better(c) {
			best = v
		}
	}
	return best, nil
}

// registerReservedFormBuiltins seeds the names compiler/emitter.go's
// compileImport/compileSceneDecl/compileWebAppDecl emit CALLs against
// (__import, __scene, __route), per spec.md §9's Design Notes: a bare
// core with no hostlib wired in must not silently drop them, so each
// default is a diagnostic-raising stand-in a hostlib build tag can
// shadow with RegisterBuiltin.
func registerReservedFormBuiltins(vm *VM) {
	vm.RegisterBuiltin("__import", 1, func(_ *VM, args []Value) (Value, error) {
		return nil, nameError("import %s: no module host registered (build with a hostlib tag)", args[0].String())
	})
	vm.RegisterBuiltin("__scene", 2, func(_ *VM, args []Value) (Value, error) {
		return nil, nameError("scene %s: no render host registered (build with the mythos_render tag)", args[0].String())
	})
	vm.RegisterBuiltin("__route", 2, func(_ *VM, args []Value) (Value, error) {
		return nil, nameError("route %s: no web host registered (build with a hostlib tag)", args[0].String())
	})
}
