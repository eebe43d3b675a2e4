package cpu

import (
	"fmt"
	"strings"
)

// OperandKind is the tag of an Operand.
type OperandKind int

const (
	OPERAND_IMM = OperandKind(iota) // signed immediate (or resolved label address)
	OPERAND_REG                     // register reference
	OPERAND_MEM                     // memory reference
)

// Operand is one resolved operand of an instruction.
//
// Label operands do not survive assembly: pass 2 folds every label into a
// numeric value (an instruction index for text labels, a byte address for
// data labels), keeping the name in Sym for disassembly only.
type Operand struct {
	Kind OperandKind

	Reg Register // OPERAND_REG: the register.

	Val int32 // OPERAND_IMM: the value. OPERAND_MEM: absolute address, or offset when HasBase.

	HasBase bool     // OPERAND_MEM: addressed via Base+Val rather than Val.
	Base    Register // OPERAND_MEM: base register when HasBase.

	Sym string // Label name the operand was resolved from, if any.
}

// Imm builds an immediate operand.
func Imm(val int32) Operand {
	return Operand{Kind: OPERAND_IMM, Val: val}
}

// Reg builds a register operand.
func Reg(reg Register) Operand {
	return Operand{Kind: OPERAND_REG, Reg: reg}
}

// MemAbs builds an absolute-address memory operand.
func MemAbs(addr int32) Operand {
	return Operand{Kind: OPERAND_MEM, Val: addr}
}

// MemReg builds a register-indirect memory operand with a signed offset.
func MemReg(base Register, off int32) Operand {
	return Operand{Kind: OPERAND_MEM, HasBase: true, Base: base, Val: off}
}

func (o Operand) String() (text string) {
	switch o.Kind {
	case OPERAND_REG:
		text = o.Reg.String()
	case OPERAND_IMM:
		if o.Sym != "" {
			text = o.Sym
		} else {
			text = fmt.Sprintf("#%d", o.Val)
		}
	case OPERAND_MEM:
		switch {
		case o.HasBase && o.Val != 0:
			text = fmt.Sprintf("[%v%+d]", o.Base, o.Val)
		case o.HasBase:
			text = fmt.Sprintf("[%v]", o.Base)
		case o.Sym != "":
			text = fmt.Sprintf("[%v]", o.Sym)
		default:
			text = fmt.Sprintf("[%d]", o.Val)
		}
	default:
		text = fmt.Sprintf("Operand(%d)", int(o.Kind))
	}
	return
}

// Instruction is one decoded instruction with its source location.
type Instruction struct {
	Op       Op
	Operands []Operand
	LineNo   int    // 1-based source line the instruction came from.
	Text     string // Source text, comments stripped.
}

func (ins Instruction) String() (text string) {
	text = ins.Op.String()
	if len(ins.Operands) > 0 {
		args := make([]string, len(ins.Operands))
		for n, o := range ins.Operands {
			args[n] = o.String()
		}
		text += " " + strings.Join(args, ", ")
	}
	return
}
