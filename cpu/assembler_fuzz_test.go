package cpu

import (
	"errors"
	"strings"
	"testing"
)

// FuzzAssembler throws arbitrary source at the assembler: it must either
// produce a program or a located *ErrSyntax, and never panic.
func FuzzAssembler(f *testing.F) {
	f.Add("MOV R0, #1\nHALT")
	f.Add(".DATA\nv: .WORD 1, 2, 3\n.TEXT\nLOAD R0, [v]")
	f.Add(".EQU N 5\nMOV R0, #$(N*2)")
	f.Add("loop: DEC R0\nJNZ loop")
	f.Add("; comment only")
	f.Add(".ORG 64\n")
	f.Add(`s: .ASCIZ "hi\n"`)
	f.Add("MOV R0, 'x'")
	f.Add("PUSH #~0x80")

	f.Fuzz(func(t *testing.T, src string) {
		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(src))
		if err != nil {
			var serr *ErrSyntax
			if !errors.As(err, &serr) {
				t.Errorf("error without source location: %v", err)
			}
			return
		}
		if prog == nil {
			t.Error("no program and no error")
		}
	})
}
