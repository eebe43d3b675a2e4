package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAssemble(t *testing.T, src string) (prog *Program) {
	t.Helper()

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return
}

func assembleErr(t *testing.T, src string) (err error) {
	t.Helper()

	asm := &Assembler{}
	_, err = asm.Parse(strings.NewReader(src))
	require.Error(t, err)
	return
}

func TestAssembler_Empty(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, "")
	assert.Empty(prog.Instructions)
	assert.Empty(prog.Data)
	assert.Equal(int32(0), prog.Entry)
}

func TestAssembler_Comments(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"; full line comment",
		"// another full line",
		"  MOV R0, #1   ; trailing",
		"  HALT         // trailing too",
		"",
	}, "\n"))

	assert.Len(prog.Instructions, 2)
	assert.Equal(OP_MOV, prog.Instructions[0].Op)
	assert.Equal(3, prog.Instructions[0].LineNo)
	assert.Equal(OP_HALT, prog.Instructions[1].Op)
}

func TestAssembler_WordData(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		".DATA",
		"values: .WORD 1, 2, 3, 4, 5",
		"count:  .WORD 5",
		".TEXT",
		"HALT",
	}, "\n"))

	assert.Equal(int32(0), prog.Labels["values"])
	assert.Equal(int32(20), prog.Labels["count"])
	assert.Len(prog.Data, 24)

	// Each word decodes back via little-endian reads at 4-byte offsets.
	mem := NewMemory(64)
	assert.NoError(mem.WriteBytes(0, prog.Data))
	for n, want := range []int32{1, 2, 3, 4, 5, 5} {
		value, err := mem.Read32(int32(n) * 4)
		assert.NoError(err)
		assert.Equal(want, value)
	}
}

func TestAssembler_ByteData(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		".DATA",
		"bytes: .BYTE 1, 0xff, -128, 'A'",
	}, "\n"))

	assert.Equal([]byte{1, 0xff, 0x80, 'A'}, prog.Data)

	err := assembleErr(t, ".DATA\n.BYTE 256")
	assert.ErrorIs(err, ErrByteRange)
}

func TestAssembler_Asciz(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		".DATA",
		`greeting: .ASCIZ "Hi, you!\n"`,
		`raw:      .ASCII "ab"`,
	}, "\n"))

	assert.Equal(int32(0), prog.Labels["greeting"])
	assert.Equal([]byte("Hi, you!\n\x00ab"), prog.Data)
	assert.Equal(int32(10), prog.Labels["raw"])
}

func TestAssembler_OrgData(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		".DATA",
		".ORG 8",
		"late: .WORD 7",
	}, "\n"))

	assert.Equal(int32(8), prog.Labels["late"])
	assert.Len(prog.Data, 12)
	assert.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 0, 7, 0, 0, 0}, prog.Data)
}

func TestAssembler_OrgText(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"MOV R0, #1",
		".ORG 4",
		"target: HALT",
	}, "\n"))

	require.Len(t, prog.Instructions, 5)
	assert.Equal(int32(4), prog.Labels["target"])
	for n := 1; n < 4; n++ {
		assert.Equal(OP_NOP, prog.Instructions[n].Op)
	}
	assert.Equal(OP_HALT, prog.Instructions[4].Op)

	err := assembleErr(t, "MOV R0, #1\nMOV R1, #2\n.ORG 1")
	assert.ErrorIs(err, ErrOrgBackwards)
}

func TestAssembler_Operands(t *testing.T) {
	assert := assert.New(t)

	src := strings.Join([]string{
		".DATA",
		"value: .WORD 99",
		".TEXT",
		"start: MOV R0, #5",    // 0: marked immediate
		"MOV R1, 5",            // 1: unmarked immediate
		"MOV R2, #-3",          // 2: negative immediate
		"MOV R3, 0x10",         // 3: hex immediate
		"MOV R4, R0",           // 4: register
		"MOV SP, BP",           // 5: pointer pseudo-registers
		"LOAD R5, [value]",     // 6: label memory reference
		"LOAD R6, [R0+4]",      // 7: register plus offset
		"LOAD R7, [SP-8]",      // 8: register minus offset
		"LOAD R0, [BP]",        // 9: bare register
		"LOAD R1, [64]",        // 10: absolute address
		"MOV R2, value",        // 11: label as value
		"JMP start",            // 12: text label
	}, "\n")

	prog := mustAssemble(t, src)
	require.Len(t, prog.Instructions, 13)

	expected := []Operand{
		Imm(5),
		Imm(5),
		Imm(-3),
		Imm(0x10),
		Reg(REG_R0),
		Reg(REG_BP),
		func() Operand { o := MemAbs(0); o.Sym = "value"; return o }(),
		MemReg(REG_R0, 4),
		MemReg(REG_SP, -8),
		MemReg(REG_BP, 0),
		MemAbs(64),
		func() Operand { o := Imm(0); o.Sym = "value"; return o }(),
		func() Operand { o := Imm(0); o.Sym = "start"; return o }(),
	}

	for n, want := range expected {
		ops := prog.Instructions[n].Operands
		assert.Equal(want, ops[len(ops)-1], "instruction %d", n)
	}
}

func TestAssembler_LabelDuplicate(t *testing.T) {
	assert := assert.New(t)

	err := assembleErr(t, "here: NOP\nhere: NOP")
	assert.ErrorIs(err, ErrLabelDuplicate)

	var serr *ErrSyntax
	assert.True(errors.As(err, &serr))
	assert.Equal(2, serr.LineNo)
}

func TestAssembler_LabelMissing(t *testing.T) {
	assert := assert.New(t)

	err := assembleErr(t, "JMP nowhere")
	assert.ErrorIs(err, ErrLabelMissing(""))
}

func TestAssembler_ForwardReference(t *testing.T) {
	assert := assert.New(t)

	// Pass 2 resolves labels defined after their use.
	prog := mustAssemble(t, "JMP end\nNOP\nend: HALT")
	assert.Equal(int32(2), prog.Instructions[0].Operands[0].Val)
}

func TestAssembler_UnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	err := assembleErr(t, "NOP\nFROB R0")
	assert.ErrorIs(err, ErrOpcodeUnknown(""))

	var serr *ErrSyntax
	assert.True(errors.As(err, &serr))
	assert.Equal(2, serr.LineNo)
}

func TestAssembler_OperandCount(t *testing.T) {
	assert := assert.New(t)

	err := assembleErr(t, "MOV R0")
	assert.ErrorIs(err, ErrOperandCount)

	err = assembleErr(t, "RET R0")
	assert.ErrorIs(err, ErrOperandCount)
}

func TestAssembler_BadNumber(t *testing.T) {
	assert := assert.New(t)

	err := assembleErr(t, ".DATA\n.WORD 12q3")
	assert.ErrorIs(err, ErrParseNumber(""))

	var serr *ErrSyntax
	assert.True(errors.As(err, &serr))
	assert.Equal(2, serr.LineNo)
}

func TestAssembler_DataDirectiveInText(t *testing.T) {
	assert := assert.New(t)

	err := assembleErr(t, ".WORD 5")
	assert.ErrorIs(err, ErrDirectiveData)
}

func TestAssembler_Equates(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		".EQU COUNT 5",
		"MOV R0, #COUNT",
		"MOV R1, COUNT",
		"MOV R2, #$(COUNT * 2 + 1)",
		"HALT",
	}, "\n"))

	assert.Equal(Imm(5), prog.Instructions[0].Operands[1])
	assert.Equal(Imm(5), prog.Instructions[1].Operands[1])
	assert.Equal(Imm(11), prog.Instructions[2].Operands[1])

	err := assembleErr(t, ".EQU A 1\n.EQU A 2")
	assert.ErrorIs(err, ErrEquateDuplicate)
}

func TestAssembler_SysEquates(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, "MOV R0, #MEM_SIZE\nMOV R1, #$(LINENO)")
	assert.Equal(Imm(DEFAULT_MEM_SIZE), prog.Instructions[0].Operands[1])
	assert.Equal(Imm(2), prog.Instructions[1].Operands[1])
}

func TestAssembler_Predefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("LIMIT", "17")

	prog, err := asm.Parse(strings.NewReader("MOV R0, #LIMIT"))
	assert.NoError(err)
	assert.Equal(Imm(17), prog.Instructions[0].Operands[1])
}

func TestAssembler_CharLiteral(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, "MOV R0, #'A'\nMOV R1, '\\n'")
	assert.Equal(Imm('A'), prog.Instructions[0].Operands[1])
	assert.Equal(Imm('\n'), prog.Instructions[1].Operands[1])
}

func TestAssembler_BadExpression(t *testing.T) {
	assert := assert.New(t)

	err := assembleErr(t, "MOV R0, #$(nope +)")
	var eerr ErrParseExpression
	assert.True(errors.As(err, &eerr))
}

func TestAssembler_Aliases(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, "here: JE here\nJNE here")
	assert.Equal(OP_JZ, prog.Instructions[0].Op)
	assert.Equal(OP_JNZ, prog.Instructions[1].Op)
}

func TestAssembler_EntryAfterData(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		".DATA",
		"x: .WORD 1",
		".TEXT",
		"HALT",
	}, "\n"))
	assert.Equal(int32(0), prog.Entry)
	assert.Len(prog.Instructions, 1)
}
