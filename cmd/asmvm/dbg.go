package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/asmkit/asmvm/emulator"
)

const dbgHelp = `commands:
  s, step            execute one instruction
  c, continue        run until halt, breakpoint, or step ceiling
  r, regs            show registers and flags
  l, list            disassemble the program
  mem START END      hex dump memory [START, END)
  stack              show the top stack slots
  b, break ADDR      arm a breakpoint at instruction index ADDR
  unbreak ADDR       disarm a breakpoint
  bp                 list breakpoints
  defines            list predefined assembler symbols
  reset              reset the machine
  q, quit            leave the debugger
`

func doDbg(cmd *cobra.Command, args []string) (err error) {
	emu, err := newEmulator(args[0])
	if err != nil {
		return
	}

	rl, err := readline.New("(asmvm) ")
	if err != nil {
		return
	}
	defer rl.Close()

	showAt(emu)

	for {
		line, rerr := rl.Readline()
		if rerr != nil {
			// EOF or interrupt leaves the debugger.
			return nil
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "s", "step":
			done, serr := emu.Step()
			if serr != nil {
				fmt.Printf("error: %v\n", serr)
				continue
			}
			if done {
				fmt.Printf("halted, exit %d\n", emu.Cpu.Exit)
				continue
			}
			showAt(emu)

		case "c", "continue":
			res, rerr := emu.Run(emulator.RunOptions{MaxSteps: flagMaxSteps})
			if rerr != nil {
				fmt.Printf("error: %v\n", rerr)
				continue
			}
			switch {
			case res.Halted:
				fmt.Printf("halted after %d steps, exit %d\n", res.Steps, emu.Cpu.Exit)
			case res.Breakpoint:
				fmt.Printf("breakpoint after %d steps\n", res.Steps)
				showAt(emu)
			default:
				fmt.Printf("step ceiling reached after %d steps\n", res.Steps)
			}

		case "r", "regs":
			fmt.Print(emu.Cpu.String())

		case "l", "list":
			fmt.Print(emu.Program.Disassemble())

		case "mem":
			if len(words) != 3 {
				fmt.Println("usage: mem START END")
				continue
			}
			start, serr := parseAddr(words[1])
			end, eerr := parseAddr(words[2])
			if serr != nil || eerr != nil {
				fmt.Println("usage: mem START END")
				continue
			}
			text, derr := emu.HexDump(start, end)
			if derr != nil {
				fmt.Printf("error: %v\n", derr)
				continue
			}
			fmt.Print(text)

		case "stack":
			text, serr := emu.StackWindow(8)
			if serr != nil {
				fmt.Printf("error: %v\n", serr)
				continue
			}
			fmt.Print(text)

		case "b", "break":
			if len(words) != 2 {
				fmt.Println("usage: break ADDR")
				continue
			}
			addr, aerr := parseAddr(words[1])
			if aerr != nil {
				fmt.Println("usage: break ADDR")
				continue
			}
			emu.AddBreakpoint(addr)

		case "unbreak":
			if len(words) != 2 {
				fmt.Println("usage: unbreak ADDR")
				continue
			}
			addr, aerr := parseAddr(words[1])
			if aerr != nil {
				fmt.Println("usage: unbreak ADDR")
				continue
			}
			emu.RemoveBreakpoint(addr)

		case "bp":
			for _, ip := range emu.Breakpoints() {
				fmt.Printf("%04x\n", ip)
			}

		case "defines":
			for equ, val := range emu.Defines() {
				fmt.Printf("%v = %v\n", equ, val)
			}

		case "reset":
			rerr := emu.Reset()
			if rerr != nil {
				fmt.Printf("error: %v\n", rerr)
				continue
			}
			showAt(emu)

		case "q", "quit", "exit":
			return nil

		case "h", "help", "?":
			fmt.Print(dbgHelp)

		default:
			fmt.Printf("unknown command %q, try 'help'\n", words[0])
		}
	}
}

// showAt prints the instruction the machine is stopped on.
func showAt(emu *emulator.Emulator) {
	if ins, ok := emu.Program.At(emu.Cpu.Ip); ok {
		fmt.Printf("%04x  %v\t; line %d\n", emu.Cpu.Ip, ins, ins.LineNo)
	}
}

func parseAddr(word string) (addr int32, err error) {
	v64, err := strconv.ParseInt(word, 0, 32)
	addr = int32(v64)
	return
}
