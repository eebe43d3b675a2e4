package cpu

import (
	"fmt"
	"strings"
)

// Op is a single opcode of the closed instruction set.
type Op int

const (
	OP_NOP = Op(iota)
	OP_MOV
	OP_LOAD
	OP_STORE
	OP_LEA
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_INC
	OP_DEC
	OP_AND
	OP_OR
	OP_XOR
	OP_NOT
	OP_SHL
	OP_SHR
	OP_CMP
	OP_JMP
	OP_JZ
	OP_JNZ
	OP_JC
	OP_JNC
	OP_JG
	OP_JGE
	OP_JL
	OP_JLE
	OP_PUSH
	OP_POP
	OP_CALL
	OP_RET
	OP_HALT
	OP_SYS
)

// opNames maps each opcode to its canonical mnemonic.
var opNames = map[Op]string{
	OP_NOP:   "NOP",
	OP_MOV:   "MOV",
	OP_LOAD:  "LOAD",
	OP_STORE: "STORE",
	OP_LEA:   "LEA",
	OP_ADD:   "ADD",
	OP_SUB:   "SUB",
	OP_MUL:   "MUL",
	OP_DIV:   "DIV",
	OP_INC:   "INC",
	OP_DEC:   "DEC",
	OP_AND:   "AND",
	OP_OR:    "OR",
	OP_XOR:   "XOR",
	OP_NOT:   "NOT",
	OP_SHL:   "SHL",
	OP_SHR:   "SHR",
	OP_CMP:   "CMP",
	OP_JMP:   "JMP",
	OP_JZ:    "JZ",
	OP_JNZ:   "JNZ",
	OP_JC:    "JC",
	OP_JNC:   "JNC",
	OP_JG:    "JG",
	OP_JGE:   "JGE",
	OP_JL:    "JL",
	OP_JLE:   "JLE",
	OP_PUSH:  "PUSH",
	OP_POP:   "POP",
	OP_CALL:  "CALL",
	OP_RET:   "RET",
	OP_HALT:  "HALT",
	OP_SYS:   "SYS",
}

// opArity maps each opcode to its required operand count.
var opArity = map[Op]int{
	OP_NOP:   0,
	OP_MOV:   2,
	OP_LOAD:  2,
	OP_STORE: 2,
	OP_LEA:   2,
	OP_ADD:   2,
	OP_SUB:   2,
	OP_MUL:   2,
	OP_DIV:   2,
	OP_INC:   1,
	OP_DEC:   1,
	OP_AND:   2,
	OP_OR:    2,
	OP_XOR:   2,
	OP_NOT:   1,
	OP_SHL:   2,
	OP_SHR:   2,
	OP_CMP:   2,
	OP_JMP:   1,
	OP_JZ:    1,
	OP_JNZ:   1,
	OP_JC:    1,
	OP_JNC:   1,
	OP_JG:    1,
	OP_JGE:   1,
	OP_JL:    1,
	OP_JLE:   1,
	OP_PUSH:  1,
	OP_POP:   1,
	OP_CALL:  1,
	OP_RET:   0,
	OP_HALT:  0,
	OP_SYS:   1,
}

// mnemonicMap maps assembly mnemonics (upper case) to opcodes,
// including the JE/JNE aliases for JZ/JNZ.
var mnemonicMap = func() map[string]Op {
	m := make(map[string]Op, len(opNames)+2)
	for op, name := range opNames {
		m[name] = op
	}
	m["JE"] = OP_JZ
	m["JNE"] = OP_JNZ
	return m
}()

// OpByMnemonic looks up an opcode by its (case-insensitive) mnemonic.
func OpByMnemonic(word string) (op Op, ok bool) {
	op, ok = mnemonicMap[strings.ToUpper(word)]
	return
}

func (op Op) String() (name string) {
	name, ok := opNames[op]
	if !ok {
		name = fmt.Sprintf("Op(%d)", int(op))
	}
	return
}

// Arity returns the operand count the opcode requires.
func (op Op) Arity() int {
	return opArity[op]
}

// IsJump returns true for the unconditional and conditional jumps.
func (op Op) IsJump() bool {
	return op >= OP_JMP && op <= OP_JLE
}

// Register names a register slot: R0-R7, or the SP/BP pointer pseudo-registers.
type Register int

const (
	REG_R0 = Register(iota)
	REG_R1
	REG_R2
	REG_R3
	REG_R4
	REG_R5
	REG_R6
	REG_R7
	REG_SP
	REG_BP
)

var registerNames = map[Register]string{
	REG_R0: "R0",
	REG_R1: "R1",
	REG_R2: "R2",
	REG_R3: "R3",
	REG_R4: "R4",
	REG_R5: "R5",
	REG_R6: "R6",
	REG_R7: "R7",
	REG_SP: "SP",
	REG_BP: "BP",
}

var registerMap = func() map[string]Register {
	m := make(map[string]Register, len(registerNames))
	for reg, name := range registerNames {
		m[name] = reg
	}
	return m
}()

// RegisterByName looks up a register by its (case-insensitive) name.
func RegisterByName(word string) (reg Register, ok bool) {
	reg, ok = registerMap[strings.ToUpper(word)]
	return
}

func (reg Register) String() (name string) {
	name, ok := registerNames[reg]
	if !ok {
		name = fmt.Sprintf("Register(%d)", int(reg))
	}
	return
}
