package compiler

// Op is a single bytecode instruction's opcode, per spec.md §4.3. The VM
// dispatches on these with a switch, not a jump table — the instruction
// count is small enough that Go's compiler turns it into one anyway.
type Op byte

const (
	OpLoadConst Op = iota
	OpLoadLocal
	OpStoreLocal
	OpLoadGlobal
	OpStoreGlobal
	OpLoadUpval
	OpStoreUpval
	OpPop
	OpDup

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpNeg

	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpNot

	OpJump
	OpJumpIfFalse
	OpJumpIfTrue

	OpCall
	OpReturn

	OpMakeFunction
	OpMakeArray
	OpMakeObject
	OpMakeClass

	OpGetMember
	OpSetMember
	OpGetIndex
	OpSetIndex

	OpNew
	OpLoadSuper

	OpPushTry
	OpPopTry
	OpThrow

	OpGetIter
	OpForIter
)

// hand-expanded stand-in for a go:generate stringer pass, see
// token/kind_string.go for the same arrangement.
var opNames = map[Op]string{
	OpLoadConst:    "LOAD_CONST",
	OpLoadLocal:    "LOAD_LOCAL",
	OpStoreLocal:   "STORE_LOCAL",
	OpLoadGlobal:   "LOAD_GLOBAL",
	OpStoreGlobal:  "STORE_GLOBAL",
	OpLoadUpval:    "LOAD_UPVAL",
	OpStoreUpval:   "STORE_UPVAL",
	OpPop:          "POP",
	OpDup:          "DUP",
	OpAdd:          "ADD",
	OpSub:          "SUB",
	OpMul:          "MUL",
	OpDiv:          "DIV",
	OpMod:          "MOD",
	OpPow:          "POW",
	OpNeg:          "NEG",
	OpEq:           "EQ",
	OpNe:           "NE",
	OpLt:           "LT",
	OpGt:           "GT",
	OpLe:           "LE",
	OpGe:           "GE",
	OpNot:          "NOT",
	OpJump:         "JUMP",
	OpJumpIfFalse:  "JUMP_IF_FALSE",
	OpJumpIfTrue:   "JUMP_IF_TRUE",
	OpCall:         "CALL",
	OpReturn:       "RETURN",
	OpMakeFunction: "MAKE_FUNCTION",
	OpMakeArray:    "MAKE_ARRAY",
	OpMakeObject:   "MAKE_OBJECT",
	OpMakeClass:    "MAKE_CLASS",
	OpGetMember:    "GET_MEMBER",
	OpSetMember:    "SET_MEMBER",
	OpGetIndex:     "GET_INDEX",
	OpSetIndex:     "SET_INDEX",
	OpNew:          "NEW",
	OpLoadSuper:    "LOAD_SUPER",
	OpPushTry:      "PUSH_TRY",
	OpPopTry:       "POP_TRY",
	OpThrow:        "THROW",
	OpGetIter:      "GET_ITER",
	OpForIter:      "FOR_ITER",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "UNKNOWN_OP"
}
