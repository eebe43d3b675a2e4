package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram_LineFor(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"; header comment",
		"MOV R0, #1",
		"",
		"HALT",
	}, "\n")))
	require.NoError(t, err)

	assert.Equal(2, prog.LineFor(0))
	assert.Equal(4, prog.LineFor(1))
	assert.Equal(0, prog.LineFor(2))
	assert.Equal(0, prog.LineFor(-1))
}

func TestProgram_At(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("NOP\nHALT"))
	require.NoError(t, err)

	ins, ok := prog.At(1)
	assert.True(ok)
	assert.Equal(OP_HALT, ins.Op)

	_, ok = prog.At(2)
	assert.False(ok)
	_, ok = prog.At(-1)
	assert.False(ok)
}

func TestProgram_Disassemble(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"start:",
		"MOV R0, #5",
		"loop: DEC R0",
		"JNZ loop",
		"HALT",
	}, "\n")))
	require.NoError(t, err)

	text := prog.Disassemble()
	assert.Contains(text, "loop:\n")
	assert.Contains(text, "0000  MOV R0, #5\n")
	assert.Contains(text, "0002  JNZ loop\n")
	assert.Contains(text, "0003  HALT\n")
}
