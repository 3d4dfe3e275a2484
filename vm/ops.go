package vm

import "math"

// binaryAdd implements the `+` row of spec.md §4.4's arithmetic coercion table.
func binaryAdd(left, right Value) (Value, error) {
	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if lok && rok {
		return ln + rn, nil
	}
	ls, lsok := left.(String)
	rs, rsok := right.(String)
	if lsok && rsok {
		return ls + rs, nil
	}
	if lsok && rok {
		return ls + String(rn.String()), nil
	}
	if lok && rsok {
		return String(ln.String()) + rs, nil
	}
	return nil, typeError("cannot add %s and %s", describeType(left), describeType(right))
}

func binaryArith(op func(a, b float64) float64, left, right Value) (Value, error) {
	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return nil, typeError("expected two numbers, got %s and %s", describeType(left), describeType(right))
	}
	return Number(op(float64(ln), float64(rn))), nil
}

func unaryNeg(v Value) (Value, error) {
	n, ok := v.(Number)
	if !ok {
		return nil, typeError("cannot negate %s", describeType(v))
	}
	return -n, nil
}

// compare implements spec.md §4.4's comparison rule: both Number or
// both String. Returns -1/0/1 like strings.Compare.
func compare(left, right Value) (int, error) {
	if ln, ok := left.(Number); ok {
		if rn, ok := right.(Number); ok {
			switch {
			case ln < rn:
				return -1, nil
			case ln > rn:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if ls, ok := left.(String); ok {
		if rs, ok := right.(String); ok {
			switch {
			case ls < rs:
				return -1, nil
			case ls > rs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, typeError("cannot compare %s and %s", describeType(left), describeType(right))
}

// valuesEqual implements spec.md §3's equality invariant: Numbers by
// value (NaN != NaN falls out of float64's own == ), Strings by
// content, everything else by identity. Every concrete Value variant
// is either a comparable scalar or a pointer, so a plain interface ==
// already gives exactly this rule without risk of a panic.
func valuesEqual(left, right Value) bool {
	return left == right
}

func describeType(v Value) string {
	switch v.(type) {
	case Number:
		return "Number"
	case String:
		return "String"
	case Bool:
		return "Bool"
	case Null:
		return "Null"
	case *Array:
		return "Array"
	case *Object:
		return "Object"
	case *Function:
		return "Function"
	case *BuiltinFunction:
		return "BuiltinFunction"
	case *Class:
		return "Class"
	case *Instance:
		return "Instance"
	case *BoundMethod:
		return "Function"
	case *Range:
		return "Range"
	default:
		return "Value"
	}
}

func subFloat(a, b float64) float64 { return a - b }
func mulFloat(a, b float64) float64 { return a * b }
func divFloat(a, b float64) float64 { return a / b } // IEEE inf/NaN on b==0, not an error, per spec.md §4.4
func modFloat(a, b float64) float64 { return math.Mod(a, b) }
func powFloat(a, b float64) float64 { return math.Pow(a, b) }

// iterator is the transient value GET_ITER pushes and FOR_ITER drives;
// it is never reachable from user code, only ever sitting on the
// operand stack between those two opcodes.
type iterator struct {
	arr *Array
	obj *Object
	str []rune
	rng *Range
	idx int
}

func (it *iterator) String() string { return "<iterator>" }
func (it *iterator) Truthy() bool   { return true }

func newIterator(v Value) (*iterator, error) {
	switch v := v.(type) {
	case *Array:
		return &iterator{arr: v}, nil
	case *Object:
		return &iterator{obj: v}, nil
	case String:
		return &iterator{str: []rune(string(v))}, nil
	case *Range:
		return &iterator{rng: v}, nil
	default:
		return nil, typeError("%s is not iterable", describeType(v))
	}
}

func (it *iterator) next() (Value, bool) {
	switch {
	case it.arr != nil:
		if it.idx >= len(it.arr.Elems) {
			return nil, false
		}
		v := it.arr.Elems[it.idx]
		it.idx++
		return v, true
	case it.obj != nil:
		if it.idx >= len(it.obj.Keys) {
			return nil, false
		}
		k := it.obj.Keys[it.idx]
		it.idx++
		return String(k), true
	case it.str != nil:
		if it.idx >= len(it.str) {
			return nil, false
		}
		r := it.str[it.idx]
		it.idx++
		return String(string(r)), true
	case it.rng != nil:
		if it.idx >= it.rng.Len() {
			return nil, false
		}
		n := it.rng.Start + it.idx*it.rng.Step
		it.idx++
		return Number(n), true
	default:
		return nil, false
	}
}

var _ Value = (*iterator)(nil)
