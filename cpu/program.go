package cpu

import (
	"fmt"
	"strings"
)

// Program is the immutable result of one assembly: the resolved instruction
// list, the label table, and the data-section byte image. A fresh assembly
// produces a fresh Program; the caller re-initializes Memory and Cpu to
// match.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int32 // Instruction index (text) or data byte offset (data).
	Data         []byte           // Data-section image, loaded at address 0.
	Entry        int32            // Starting instruction index of the text section.
}

// LineFor returns the 1-based source line of the instruction at ip, or 0
// when ip is outside the instruction list.
func (prog *Program) LineFor(ip int32) (lineno int) {
	if ip >= 0 && int(ip) < len(prog.Instructions) {
		lineno = prog.Instructions[ip].LineNo
	}
	return
}

// At returns the instruction at ip, if any.
func (prog *Program) At(ip int32) (ins *Instruction, ok bool) {
	if ip >= 0 && int(ip) < len(prog.Instructions) {
		ins = &prog.Instructions[ip]
		ok = true
	}
	return
}

// Disassemble renders the instruction list as a numbered listing.
func (prog *Program) Disassemble() (text string) {
	names := make(map[int32]string, len(prog.Labels))
	for name, addr := range prog.Labels {
		names[addr] = name
	}

	var sb strings.Builder
	for n, ins := range prog.Instructions {
		if name, ok := names[int32(n)]; ok {
			fmt.Fprintf(&sb, "%v:\n", name)
		}
		fmt.Fprintf(&sb, "%04x  %v\n", n, ins)
	}

	text = sb.String()
	return
}
