// Package emulator wires a Cpu, a Program, and a Memory into a runnable
// machine instance, with breakpoints, a step ceiling, and syscall
// observation. Instances are independent; each owns its own state and may
// run on its own goroutine without coordination.
package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"slices"

	"github.com/asmkit/asmvm/cpu"
	"github.com/asmkit/asmvm/internal"
)

const (
	DEFAULT_MAX_STEPS = 1 << 16 // Default step ceiling for Run.
)

var _emulator_defines = map[string]string{
	"DEFAULT_MAX_STEPS": fmt.Sprintf("%v", DEFAULT_MAX_STEPS),
}

// RunOptions bounds a Run call.
type RunOptions struct {
	MaxSteps int // Step ceiling; 0 means DEFAULT_MAX_STEPS.
}

// RunResult reports why a Run call stopped.
type RunResult struct {
	Steps      int  // Instructions executed.
	Halted     bool // Stopped on HALT, SYS exit, or the end of the program.
	Breakpoint bool // Stopped with the instruction pointer on a breakpoint.
}

// Emulator state: CPU + memory + the loaded program.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // The CPU simulation.

	Program *cpu.Program // Currently loaded program.
	Mem     *cpu.Memory  // Memory the program runs against.

	// Output receives rendered syscall text. Nil discards it.
	Output io.Writer

	// Observer, when set, sees every syscall event after its effect;
	// it cannot alter the effect on CPU state.
	Observer func(cpu.SysEvent)

	breakpoints map[int32]struct{}
}

// New creates an emulator with the given memory capacity in bytes;
// memSize <= 0 selects the default.
func New(memSize int) (emu *Emulator) {
	if memSize <= 0 {
		memSize = cpu.DEFAULT_MEM_SIZE
	}

	emu = &Emulator{
		Mem:         cpu.NewMemory(memSize),
		breakpoints: make(map[int32]struct{}),
	}
	emu.Cpu = cpu.NewCpu(emu.Mem.Size())
	emu.Cpu.Notify = emu.onSys

	return
}

// Defines returns an iterator over all of the predefined symbols.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"MEM_SIZE":   fmt.Sprintf("%v", emu.Mem.Size()),
		"STACK_TOP":  fmt.Sprintf("%v", emu.Mem.Size()),
		"MAX_STRING": fmt.Sprintf("%v", cpu.MAX_STRING),
	}
	return internal.IterSeq2Concat(maps.All(_emulator_defines), maps.All(defines))
}

// Assemble parses source text with the emulator's memory geometry predefined
// as equates.
func (emu *Emulator) Assemble(input io.Reader) (prog *cpu.Program, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for equ, val := range emu.Defines() {
		asm.Predefine(equ, val)
	}
	return asm.Parse(input)
}

// Load installs a program and resets the machine to run it.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	emu.Program = prog
	return emu.Reset()
}

// Reset re-initializes memory from the program's data image and returns the
// CPU to its power-on state, with the instruction pointer at the program
// entry. Breakpoints survive a reset.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrNoProgram
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset")
	}

	emu.Mem.Clear()
	err = emu.Mem.WriteBytes(0, emu.Program.Data)
	if err != nil {
		return
	}

	emu.Cpu.Reset(emu.Mem.Size())
	emu.Cpu.Ip = emu.Program.Entry
	emu.Cpu.Verbose = emu.Verbose

	return
}

// onSys forwards syscall output and events to the caller.
func (emu *Emulator) onSys(ev cpu.SysEvent) {
	if emu.Output != nil && ev.Text != "" {
		fmt.Fprintln(emu.Output, ev.Text)
	}
	if emu.Observer != nil {
		emu.Observer(ev)
	}
}

// LineNo returns the 1-based source line of the instruction the CPU is on.
func (emu *Emulator) LineNo() (lineno int) {
	if emu.Program != nil {
		lineno = emu.Program.LineFor(emu.Cpu.Ip)
	}
	return
}

// Step executes a single instruction. done reports that the machine halted.
// Failures carry the source line of the instruction that raised them.
func (emu *Emulator) Step() (done bool, err error) {
	if emu.Program == nil {
		err = ErrNoProgram
		return
	}

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step(emu.Program, emu.Mem)
	if err != nil {
		return
	}

	done = emu.Cpu.Halted
	return
}

// Run steps until the machine halts, the instruction pointer lands on a
// breakpoint (checked before executing that instruction, so the pointer
// stops on it), or the step ceiling is exhausted. A breakpoint under the
// starting instruction does not fire until the machine passes through it
// again, so Run can resume from a break.
func (emu *Emulator) Run(opts RunOptions) (res RunResult, err error) {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DEFAULT_MAX_STEPS
	}

	for {
		if emu.Cpu.Halted {
			res.Halted = true
			return
		}
		if res.Steps > 0 {
			if _, ok := emu.breakpoints[emu.Cpu.Ip]; ok {
				res.Breakpoint = true
				return
			}
		}
		if res.Steps >= maxSteps {
			// Step ceiling reached; a stop condition, not an error.
			return
		}

		var done bool
		done, err = emu.Step()
		if err != nil {
			return
		}
		res.Steps++
		if done {
			res.Halted = true
			return
		}
	}
}

// AddBreakpoint arms a breakpoint at an instruction index.
func (emu *Emulator) AddBreakpoint(ip int32) {
	emu.breakpoints[ip] = struct{}{}
}

// RemoveBreakpoint disarms a breakpoint.
func (emu *Emulator) RemoveBreakpoint(ip int32) {
	delete(emu.breakpoints, ip)
}

// Breakpoints returns the armed breakpoints in ascending order.
func (emu *Emulator) Breakpoints() (ips []int32) {
	ips = slices.Collect(maps.Keys(emu.breakpoints))
	slices.Sort(ips)
	return
}

// HexDump renders a read-only view of memory [start, end).
func (emu *Emulator) HexDump(start, end int32) (string, error) {
	return emu.Mem.HexDump(start, end)
}

// StackWindow renders a read-only view of the top stack slots.
func (emu *Emulator) StackWindow(words int) (string, error) {
	return emu.Mem.StackWindow(emu.Cpu.Sp, words)
}
