package vm

import "fmt"

// Opcode is a single instruction word. Some opcodes consume one immediate
// operand word following the opcode.
type Opcode = int32

const (
	OpExit Opcode = iota
	OpUnknown
	OpNop

	OpPush      // PUSH addr: push values[addr]
	OpPushArg   // PUSH_ARG slot: push stack[base+slot]
	OpPop       // POP: drop top
	OpAssign    // ASSIGN addr: values[addr] = top; pop
	OpCondJump  // COND_JUMP off: pop; if falsy, skip off words
	OpJump      // JUMP off: skip off words
	OpReturn    // RETURN: return from current frame
	OpCall      // CALL addr: invoke function/native at values[addr]
	OpLocalCall // LOCAL_CALL argc: pop callee from top; invoke with argc args

	OpAdd
	OpSub
	OpMul
	OpDiv

	OpLt
	OpGt
	OpEq

	opMax
)

// OpcodeInfo describes an instruction for disassembly
type OpcodeInfo struct {
	Name string
	Argc int  // Number of immediate operand words
	Addr bool // Operand is a value-pool address (disassembler shows the value)
}

var opcodeTable = [opMax]OpcodeInfo{
	OpExit:      {Name: "exit"},
	OpUnknown:   {Name: "unknown"},
	OpNop:       {Name: "nop"},
	OpPush:      {Name: "push", Argc: 1, Addr: true},
	OpPushArg:   {Name: "push_arg", Argc: 1},
	OpPop:       {Name: "pop"},
	OpAssign:    {Name: "assign", Argc: 1},
	OpCondJump:  {Name: "cond_jump", Argc: 1},
	OpJump:      {Name: "jump", Argc: 1},
	OpReturn:    {Name: "return"},
	OpCall:      {Name: "call", Argc: 1, Addr: true},
	OpLocalCall: {Name: "local_call", Argc: 1},
	OpAdd:       {Name: "add"},
	OpSub:       {Name: "sub"},
	OpMul:       {Name: "mul"},
	OpDiv:       {Name: "div"},
	OpLt:        {Name: "lt"},
	OpGt:        {Name: "gt"},
	OpEq:        {Name: "eq"},
}

// Info returns the descriptor for op, or a placeholder for bad opcodes
func Info(op Opcode) OpcodeInfo {
	if op < 0 || op >= opMax {
		return OpcodeInfo{Name: fmt.Sprintf("bad(%d)", op)}
	}
	return opcodeTable[op]
}
