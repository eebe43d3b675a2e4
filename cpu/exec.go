package cpu

import (
	"errors"
	"log"
	"strconv"
)

// operandAddr computes the effective address of a memory operand.
func (cpu *Cpu) operandAddr(o Operand) (addr int32, err error) {
	if o.Kind != OPERAND_MEM {
		err = ErrOperandKind
		return
	}
	if o.HasBase {
		var base int32
		base, err = cpu.register(o.Base)
		if err != nil {
			return
		}
		addr = base + o.Val
	} else {
		addr = o.Val
	}
	return
}

// value resolves an operand against the current register and memory state.
func (cpu *Cpu) value(o Operand, mem *Memory) (value int32, err error) {
	switch o.Kind {
	case OPERAND_IMM:
		value = o.Val
	case OPERAND_REG:
		value, err = cpu.register(o.Reg)
	case OPERAND_MEM:
		var addr int32
		addr, err = cpu.operandAddr(o)
		if err != nil {
			return
		}
		value, err = mem.Read32(addr)
	default:
		err = ErrOperandKind
	}
	return
}

// destination checks that an operand names a writable register.
func destination(o Operand) (reg Register, err error) {
	if o.Kind != OPERAND_REG {
		err = ErrTargetInvalid
		return
	}
	reg = o.Reg
	return
}

// floorDiv divides truncating toward negative infinity.
func floorDiv(a, b int64) (q int64) {
	q = a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return
}

// push writes a word below the stack pointer, growing the stack downward.
func (cpu *Cpu) push(mem *Memory, value int32) (err error) {
	sp := cpu.Sp - 4
	if sp < 0 || sp+4 > mem.Size() {
		err = ErrStackOverflow
		return
	}
	err = mem.Write32(sp, value)
	if err != nil {
		return
	}
	cpu.Sp = sp
	return
}

// pop reads the word at the stack pointer and shrinks the stack.
func (cpu *Cpu) pop(mem *Memory) (value int32, err error) {
	if cpu.Sp < 0 || cpu.Sp+4 > mem.Size() {
		err = ErrStackUnderflow
		return
	}
	value, err = mem.Read32(cpu.Sp)
	if err != nil {
		return
	}
	cpu.Sp += 4
	return
}

// Step executes the instruction at the instruction pointer against the
// program and memory. A halted CPU, or an instruction pointer past the end
// of the instruction list, sets Halted and returns without effect. The
// instruction pointer advances by one unless the instruction redirected
// control flow. A failed step never leaves the CPU partially mutated beyond
// the failing instruction's own semantics.
func (cpu *Cpu) Step(prog *Program, mem *Memory) (err error) {
	if cpu.Halted {
		return
	}
	if cpu.Ip < 0 || int(cpu.Ip) >= len(prog.Instructions) {
		cpu.Halted = true
		return
	}

	ins := prog.Instructions[cpu.Ip]

	if cpu.Verbose {
		log.Printf("cpu: %04x: %v", uint32(cpu.Ip), ins)
	}

	defer func() {
		if err != nil {
			err = errors.Join(ErrInstruction(ins), err)
		}
	}()

	if len(ins.Operands) != ins.Op.Arity() {
		err = ErrOperandCount
		return
	}

	next := cpu.Ip + 1

	switch ins.Op {
	case OP_NOP:
		// pass

	case OP_MOV, OP_LOAD:
		var reg Register
		reg, err = destination(ins.Operands[0])
		if err != nil {
			return
		}
		var value int32
		value, err = cpu.value(ins.Operands[1], mem)
		if err != nil {
			return
		}
		err = cpu.setRegister(reg, value)

	case OP_STORE:
		var addr int32
		addr, err = cpu.operandAddr(ins.Operands[0])
		if err != nil {
			return
		}
		var value int32
		value, err = cpu.value(ins.Operands[1], mem)
		if err != nil {
			return
		}
		err = mem.Write32(addr, value)

	case OP_LEA:
		var reg Register
		reg, err = destination(ins.Operands[0])
		if err != nil {
			return
		}
		var addr int32
		src := ins.Operands[1]
		if src.Kind == OPERAND_MEM {
			addr, err = cpu.operandAddr(src)
		} else {
			addr, err = cpu.value(src, mem)
		}
		if err != nil {
			return
		}
		err = cpu.setRegister(reg, addr)

	case OP_ADD, OP_SUB, OP_MUL, OP_DIV:
		var reg Register
		reg, err = destination(ins.Operands[0])
		if err != nil {
			return
		}
		var a, b int32
		a, err = cpu.register(reg)
		if err != nil {
			return
		}
		b, err = cpu.value(ins.Operands[1], mem)
		if err != nil {
			return
		}
		var exact int64
		switch ins.Op {
		case OP_ADD:
			exact = int64(a) + int64(b)
		case OP_SUB:
			exact = int64(a) - int64(b)
		case OP_MUL:
			exact = int64(a) * int64(b)
		case OP_DIV:
			if b == 0 {
				cpu.Flags.Carry = true
				err = ErrDivideByZero
				return
			}
			exact = floorDiv(int64(a), int64(b))
		}
		var value int32
		value, cpu.Flags = arithFlags(exact)
		err = cpu.setRegister(reg, value)

	case OP_INC, OP_DEC:
		var reg Register
		reg, err = destination(ins.Operands[0])
		if err != nil {
			return
		}
		var a int32
		a, err = cpu.register(reg)
		if err != nil {
			return
		}
		exact := int64(a) + 1
		if ins.Op == OP_DEC {
			exact = int64(a) - 1
		}
		var value int32
		value, cpu.Flags = arithFlags(exact)
		err = cpu.setRegister(reg, value)

	case OP_CMP:
		var a, b int32
		a, err = cpu.value(ins.Operands[0], mem)
		if err != nil {
			return
		}
		b, err = cpu.value(ins.Operands[1], mem)
		if err != nil {
			return
		}
		// Result discarded; only the flags survive.
		_, cpu.Flags = arithFlags(int64(a) - int64(b))

	case OP_AND, OP_OR, OP_XOR, OP_SHL, OP_SHR:
		var reg Register
		reg, err = destination(ins.Operands[0])
		if err != nil {
			return
		}
		var a, b int32
		a, err = cpu.register(reg)
		if err != nil {
			return
		}
		b, err = cpu.value(ins.Operands[1], mem)
		if err != nil {
			return
		}
		var value int32
		switch ins.Op {
		case OP_AND:
			value = a & b
		case OP_OR:
			value = a | b
		case OP_XOR:
			value = a ^ b
		case OP_SHL:
			value = int32(uint32(a) << (uint32(b) & 0x1f))
		case OP_SHR:
			value = int32(uint32(a) >> (uint32(b) & 0x1f))
		}
		cpu.Flags = logicFlags(value)
		err = cpu.setRegister(reg, value)

	case OP_NOT:
		var reg Register
		reg, err = destination(ins.Operands[0])
		if err != nil {
			return
		}
		var a int32
		a, err = cpu.register(reg)
		if err != nil {
			return
		}
		value := ^a
		cpu.Flags = logicFlags(value)
		err = cpu.setRegister(reg, value)

	case OP_JMP, OP_JZ, OP_JNZ, OP_JC, OP_JNC, OP_JG, OP_JGE, OP_JL, OP_JLE:
		var target int32
		target, err = cpu.value(ins.Operands[0], mem)
		if err != nil {
			return
		}
		var taken bool
		switch ins.Op {
		case OP_JMP:
			taken = true
		case OP_JZ:
			taken = cpu.Flags.Zero
		case OP_JNZ:
			taken = !cpu.Flags.Zero
		case OP_JC:
			taken = cpu.Flags.Carry
		case OP_JNC:
			taken = !cpu.Flags.Carry
		case OP_JG:
			taken = cpu.Flags.greater()
		case OP_JGE:
			taken = cpu.Flags.greaterEqual()
		case OP_JL:
			taken = cpu.Flags.less()
		case OP_JLE:
			taken = cpu.Flags.lessEqual()
		}
		if taken {
			next = target
		}

	case OP_PUSH:
		var value int32
		value, err = cpu.value(ins.Operands[0], mem)
		if err != nil {
			return
		}
		err = cpu.push(mem, value)

	case OP_POP:
		var reg Register
		reg, err = destination(ins.Operands[0])
		if err != nil {
			return
		}
		var value int32
		value, err = cpu.pop(mem)
		if err != nil {
			return
		}
		err = cpu.setRegister(reg, value)

	case OP_CALL:
		var target int32
		target, err = cpu.value(ins.Operands[0], mem)
		if err != nil {
			return
		}
		err = cpu.push(mem, cpu.Ip+1)
		if err != nil {
			return
		}
		next = target

	case OP_RET:
		next, err = cpu.pop(mem)

	case OP_HALT:
		cpu.Halted = true
		next = cpu.Ip

	case OP_SYS:
		var call int32
		call, err = cpu.value(ins.Operands[0], mem)
		if err != nil {
			return
		}
		var ev SysEvent
		ev, next, err = cpu.syscall(Syscall(call), mem, next)
		if err != nil {
			return
		}
		if cpu.Notify != nil {
			cpu.Notify(ev)
		}

	default:
		err = ErrOpcodeUnknown(ins.Op.String())
	}

	if err != nil {
		return
	}

	cpu.Ip = next
	cpu.Steps++
	return
}

// syscall performs one SYS effect and reports it as an event.
func (cpu *Cpu) syscall(call Syscall, mem *Memory, next int32) (ev SysEvent, nextOut int32, err error) {
	nextOut = next

	switch call {
	case SYS_PRINT_INT:
		ev = SysEvent{
			Call:  SYS_PRINT_INT,
			Value: cpu.Reg[0],
			Text:  strconv.FormatInt(int64(cpu.Reg[0]), 10),
		}
	case SYS_PRINT_STR:
		addr := cpu.Reg[1]
		var b []byte
		for n := int32(0); n < MAX_STRING; n++ {
			var c byte
			c, err = mem.ReadByte(addr + n)
			if err != nil {
				return
			}
			if c == 0 {
				break
			}
			b = append(b, c)
		}
		ev = SysEvent{Call: SYS_PRINT_STR, Value: addr, Text: string(b)}
	case SYS_EXIT:
		cpu.Halted = true
		cpu.Exit = cpu.Reg[0]
		nextOut = cpu.Ip
		ev = SysEvent{Call: SYS_EXIT, Value: cpu.Reg[0]}
	default:
		err = ErrSyscallUnknown
	}

	return
}
