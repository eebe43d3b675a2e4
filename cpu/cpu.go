package cpu

import (
	"fmt"
	"strings"
)

const (
	DEFAULT_MEM_SIZE = 4096 // Default memory capacity in bytes.
	MAX_STRING       = 256  // Maximum SYS_PRINT_STR scan length.
)

// Syscall numbers for the SYS instruction.
type Syscall int32

const (
	SYS_PRINT_INT = Syscall(1) // Print R0 as a signed decimal.
	SYS_PRINT_STR = Syscall(2) // Print the NUL-terminated string at [R1].
	SYS_EXIT      = Syscall(3) // Halt with R0 as the exit code.
)

// SysEvent describes one performed syscall. The event is reported after the
// syscall has taken effect on the CPU; observers cannot alter it.
type SysEvent struct {
	Call  Syscall
	Value int32  // R0 for SYS_PRINT_INT/SYS_EXIT, the string address for SYS_PRINT_STR.
	Text  string // Rendered output for the print syscalls.
}

// Cpu is the mutable machine state: register file, pointers, flags, and the
// halted indicator. It is mutated exclusively by Step.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Reg [8]int32 // General purpose registers R0-R7.
	Sp  int32    // Stack pointer; the stack grows downward from the top of memory.
	Bp  int32    // Base pointer.
	Ip  int32    // Instruction pointer: an index into the program's instruction list.

	Flags  Flags
	Halted bool
	Exit   int32 // Exit code set by SYS_EXIT.

	Steps int // Instructions executed since the last reset.

	// Notify, when set, observes every syscall after its effect is applied.
	Notify func(SysEvent)
}

// NewCpu creates a CPU reset against a memory of the given byte capacity.
func NewCpu(memSize int32) (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset(memSize)
	return
}

// Reset returns the CPU to its power-on state: registers and flags cleared,
// SP and BP at the top of memory, IP at 0, not halted.
func (cpu *Cpu) Reset(memSize int32) {
	clear(cpu.Reg[:])
	cpu.Sp = memSize
	cpu.Bp = memSize
	cpu.Ip = 0
	cpu.Flags = Flags{}
	cpu.Halted = false
	cpu.Exit = 0
	cpu.Steps = 0
}

// register reads a register or pointer pseudo-register.
func (cpu *Cpu) register(reg Register) (value int32, err error) {
	switch reg {
	case REG_SP:
		value = cpu.Sp
	case REG_BP:
		value = cpu.Bp
	default:
		if reg < REG_R0 || reg > REG_R7 {
			err = ErrRegisterInvalid(reg.String())
			return
		}
		value = cpu.Reg[reg]
	}
	return
}

// setRegister writes a register or pointer pseudo-register.
func (cpu *Cpu) setRegister(reg Register, value int32) (err error) {
	switch reg {
	case REG_SP:
		cpu.Sp = value
	case REG_BP:
		cpu.Bp = value
	default:
		if reg < REG_R0 || reg > REG_R7 {
			err = ErrRegisterInvalid(reg.String())
			return
		}
		cpu.Reg[reg] = value
	}
	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "   ip: %04x  sp: %04x  bp: %04x\n",
		uint32(cpu.Ip), uint32(cpu.Sp), uint32(cpu.Bp))
	for n, val := range cpu.Reg {
		fmt.Fprintf(&sb, "   r%d: %08x (%d)\n", n, uint32(val), val)
	}
	flag := func(set bool, name string) string {
		if set {
			return name
		}
		return strings.ToLower(name)
	}
	fmt.Fprintf(&sb, "flags: %v%v%v%v  halted: %v\n",
		flag(cpu.Flags.Zero, "Z"), flag(cpu.Flags.Negative, "N"),
		flag(cpu.Flags.Carry, "C"), flag(cpu.Flags.Overflow, "O"),
		cpu.Halted)

	text = sb.String()
	return
}
