package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

type section int

const (
	sectionText = section(iota)
	sectionData
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":     "0",
	"MEM_SIZE":   fmt.Sprintf("%v", DEFAULT_MEM_SIZE),
	"STACK_TOP":  fmt.Sprintf("%v", DEFAULT_MEM_SIZE),
	"MAX_STRING": fmt.Sprintf("%v", MAX_STRING),
}

// skeleton is an instruction line captured by pass 1: opcode classified,
// operand parsing deferred until the label table is complete.
type skeleton struct {
	index  int      // Instruction index.
	op     Op       //
	args   []string // Operand tokens.
	lineno int      //
	text   string   // Source text, comments stripped.
}

// Assembler is the two-pass assembler. Pass 1 collects labels, emits the
// data image, and captures instruction skeletons; pass 2 parses operands
// against the completed label table.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	Labels map[string]int32  // Label table: instruction index or data offset.
	Equate map[string]string // Map of .EQU constants.

	predefine map[string]string

	instructions []Instruction
	skeletons    []skeleton
	data         []byte
	dp           int32
	section      section
	entry        int32
	haveEntry    bool
}

// Predefine defines an equate before parsing, or redefines an existing one.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Parse assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	asm.Labels = make(map[string]int32, 16)
	asm.Equate = maps.Clone(sysEquate)
	for equ, val := range asm.predefine {
		asm.Equate[equ] = val
	}
	asm.instructions = nil
	asm.skeletons = nil
	asm.data = nil
	asm.dp = 0
	asm.section = sectionText
	asm.entry = 0
	asm.haveEntry = false

	var lineno int
	var line string

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	// Pass 1: labels, directives, data image, instruction skeletons.
	for n, raw := range lines {
		lineno = n + 1
		line = stripComment(raw)
		if line == "" {
			continue
		}

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, line)
		}

		line, err = asm.substitute(line, lineno)
		if err != nil {
			return
		}

		err = asm.pass1Line(line, lineno)
		if err != nil {
			return
		}
	}

	// Pass 2: operand parsing against the completed label table.
	for _, sk := range asm.skeletons {
		lineno = sk.lineno
		line = sk.text

		operands := make([]Operand, 0, len(sk.args))
		for _, tok := range sk.args {
			var o Operand
			o, err = asm.parseOperand(tok)
			if err != nil {
				return
			}
			operands = append(operands, o)
		}
		asm.instructions[sk.index].Operands = operands
	}

	prog = &Program{
		Instructions: slices.Clone(asm.instructions),
		Labels:       maps.Clone(asm.Labels),
		Data:         slices.Clone(asm.data),
		Entry:        asm.entry,
	}
	return
}

// pass1Line handles labels, directives, and instruction capture for one line.
func (asm *Assembler) pass1Line(line string, lineno int) (err error) {
	words := splitWords(line)

	// Label definitions: data pointer in .DATA, instruction count in .TEXT.
	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if label == "" {
			err = ErrParseOperand(words[0])
			return
		}
		_, ok := asm.Labels[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}
		if asm.section == sectionData {
			asm.Labels[label] = asm.dp
		} else {
			asm.Labels[label] = int32(len(asm.instructions))
		}
		words = words[1:]
	}

	if len(words) == 0 {
		return
	}

	if strings.HasPrefix(words[0], ".") {
		err = asm.directive(words, lineno)
		return
	}

	op, ok := OpByMnemonic(words[0])
	if !ok {
		err = ErrOpcodeUnknown(words[0])
		return
	}

	args := splitOperands(strings.Join(words[1:], " "))
	if len(args) != op.Arity() {
		err = ErrOperandCount
		return
	}

	index := len(asm.instructions)
	asm.instructions = append(asm.instructions, Instruction{
		Op:     op,
		LineNo: lineno,
		Text:   line,
	})
	asm.skeletons = append(asm.skeletons, skeleton{
		index:  index,
		op:     op,
		args:   args,
		lineno: lineno,
		text:   line,
	})

	return
}

// directive handles one dot-directive line.
func (asm *Assembler) directive(words []string, lineno int) (err error) {
	name := strings.ToUpper(words[0])

	switch name {
	case ".DATA":
		if len(words) != 1 {
			err = ErrOperandExtra
			return
		}
		asm.section = sectionData

	case ".TEXT":
		if len(words) != 1 {
			err = ErrOperandExtra
			return
		}
		asm.section = sectionText
		if !asm.haveEntry {
			asm.entry = int32(len(asm.instructions))
			asm.haveEntry = true
		}

	case ".ORG":
		if len(words) < 2 {
			err = ErrDirectiveEmpty
			return
		}
		if len(words) > 2 {
			err = ErrOperandExtra
			return
		}
		var addr int32
		addr, err = parseNumber(asm.expand(words[1]))
		if err != nil {
			return
		}
		if addr < 0 {
			err = ErrOrgBackwards
			return
		}
		if asm.section == sectionData {
			asm.dp = addr
		} else {
			// Pad the instruction list up to the requested index.
			if int(addr) < len(asm.instructions) {
				err = ErrOrgBackwards
				return
			}
			for len(asm.instructions) < int(addr) {
				asm.instructions = append(asm.instructions, Instruction{
					Op:     OP_NOP,
					LineNo: lineno,
					Text:   "NOP",
				})
			}
		}

	case ".WORD":
		err = asm.emitValues(words, 4)

	case ".BYTE":
		err = asm.emitValues(words, 1)

	case ".ASCII", ".ASCIZ":
		if asm.section != sectionData {
			err = ErrDirectiveData
			return
		}
		if len(words) < 2 {
			err = ErrDirectiveEmpty
			return
		}
		var b []byte
		b, err = parseString(strings.Join(words[1:], " "))
		if err != nil {
			return
		}
		if name == ".ASCIZ" {
			b = append(b, 0)
		}
		for _, c := range b {
			asm.emitByte(c)
		}

	case ".EQU":
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]

	default:
		err = ErrDirectiveUnknown(name)
	}

	return
}

// emitValues emits the comma-separated values of a .WORD or .BYTE directive.
func (asm *Assembler) emitValues(words []string, size int) (err error) {
	if asm.section != sectionData {
		err = ErrDirectiveData
		return
	}
	if len(words) < 2 {
		err = ErrDirectiveEmpty
		return
	}

	for _, tok := range splitValues(strings.Join(words[1:], " ")) {
		var value int32
		value, err = parseNumber(asm.expand(tok))
		if err != nil {
			return
		}
		if size == 1 {
			if value < math.MinInt8 || value > math.MaxUint8 {
				err = ErrByteRange
				return
			}
			asm.emitByte(byte(value))
		} else {
			// Little-endian word expansion.
			asm.emitByte(byte(value))
			asm.emitByte(byte(value >> 8))
			asm.emitByte(byte(value >> 16))
			asm.emitByte(byte(value >> 24))
		}
	}

	return
}

// emitByte writes one byte at the data pointer, growing the image on demand.
func (asm *Assembler) emitByte(b byte) {
	for int(asm.dp) >= len(asm.data) {
		asm.data = append(asm.data, 0)
	}
	asm.data[asm.dp] = b
	asm.dp++
}

// expand resolves a token through the equate table, one level deep.
func (asm *Assembler) expand(tok string) string {
	if val, ok := asm.Equate[tok]; ok {
		return val
	}
	return tok
}

// parseOperand classifies one operand token, longest match first:
// #N immediate, [...] memory reference, register name, numeric literal
// (an unmarked immediate), and finally a label resolved to its address.
func (asm *Assembler) parseOperand(tok string) (o Operand, err error) {
	tok = asm.expand(tok)

	switch {
	case strings.HasPrefix(tok, "#"):
		var value int32
		value, err = parseNumber(asm.expand(tok[1:]))
		if err != nil {
			return
		}
		o = Imm(value)

	case strings.HasPrefix(tok, "["):
		if !strings.HasSuffix(tok, "]") {
			err = ErrParseOperand(tok)
			return
		}
		o, err = asm.parseMemRef(strings.TrimSpace(tok[1 : len(tok)-1]))

	default:
		if reg, ok := RegisterByName(tok); ok {
			o = Reg(reg)
			return
		}
		var value int32
		value, err = parseNumber(tok)
		if err == nil {
			o = Imm(value)
			return
		}
		err = nil
		addr, ok := asm.Labels[tok]
		if !ok {
			err = ErrLabelMissing(tok)
			return
		}
		o = Imm(addr)
		o.Sym = tok
	}

	return
}

// parseMemRef classifies the contents of a [...] memory reference:
// register±offset, bare register, numeric address, or data label.
func (asm *Assembler) parseMemRef(inner string) (o Operand, err error) {
	inner = asm.expand(inner)
	if inner == "" {
		err = ErrParseOperand("[]")
		return
	}

	// Register with signed offset, e.g. R0+4 or SP-8.
	if idx := strings.IndexAny(inner[1:], "+-"); idx >= 0 {
		idx++
		if reg, ok := RegisterByName(strings.TrimSpace(inner[:idx])); ok {
			var off int32
			off, err = parseNumber(asm.expand(strings.TrimSpace(inner[idx:])))
			if err != nil {
				return
			}
			o = MemReg(reg, off)
			return
		}
	}

	if reg, ok := RegisterByName(inner); ok {
		o = MemReg(reg, 0)
		return
	}

	value, nerr := parseNumber(inner)
	if nerr == nil {
		o = MemAbs(value)
		return
	}

	addr, ok := asm.Labels[inner]
	if !ok {
		err = ErrLabelMissing(inner)
		return
	}
	o = MemAbs(addr)
	o.Sym = inner

	return
}

// substitute performs the per-line compile-time rewrites: character
// literals become their byte values, and $( ... ) spans are evaluated.
func (asm *Assembler) substitute(line string, lineno int) (out string, err error) {
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	// 'x' character literals.
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\x00"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// $( ... ) compile-time evaluations.
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(span string) string {
		value, _err := asm.parenEval(span[2 : len(span)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	out = line
	return
}

// parenEval evaluates a compile-time $( ... ) expression with the integer
// equates in scope.
func (asm *Assembler) parenEval(expr string) (value int32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}

	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value32, verr := parseNumber(str)
		if verr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}

	prog := "rc=" + expr + "\n"
	dict, eerr := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if eerr != nil {
		err = ErrParseExpression(expr)
		return
	}

	rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	rcInt, ok := rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	rc64, ok := rcInt.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	value = int32(rc64)
	return
}

// parseNumber parses a numeric literal: decimal, 0x hex, 0b binary, signed,
// with an optional leading ~ complement. Values in [MinInt32, 0xffffffff]
// are accepted and wrapped to int32.
func parseNumber(word string) (value int32, err error) {
	if word == "" {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}

	v64, perr := strconv.ParseInt(word, 0, 64)
	if perr != nil || v64 > 0xffffffff || v64 < math.MinInt32 {
		err = ErrParseNumber(word)
		return
	}

	value = int32(v64)
	if invert {
		value = ^value
	}

	return
}

// parseString parses a double-quoted string literal with escapes.
func parseString(tok string) (b []byte, err error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		err = ErrStringSyntax
		return
	}

	body := tok[1 : len(tok)-1]
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' {
			err = ErrStringSyntax
			return
		}
		if c != '\\' {
			b = append(b, c)
			continue
		}
		i++
		if i >= len(body) {
			err = ErrStringSyntax
			return
		}
		switch body[i] {
		case 'n':
			b = append(b, '\n')
		case 'r':
			b = append(b, '\r')
		case 't':
			b = append(b, '\t')
		case '0':
			b = append(b, 0)
		case '\\':
			b = append(b, '\\')
		case '"':
			b = append(b, '"')
		default:
			err = ErrStringSyntax
			return
		}
	}

	return
}

// stripComment removes ; and // comments, respecting quoted literals.
func stripComment(raw string) (line string) {
	var quote byte
	escape := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escape:
			escape = false
		case quote != 0 && c == '\\':
			escape = true
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ';':
			return strings.TrimSpace(raw[:i])
		case c == '/' && i+1 < len(raw) && raw[i+1] == '/':
			return strings.TrimSpace(raw[:i])
		}
	}

	return strings.TrimSpace(raw)
}

// splitWords splits a line on whitespace, keeping quoted strings whole.
func splitWords(line string) (words []string) {
	var sb strings.Builder
	inQuote := false
	escape := false

	flush := func() {
		if sb.Len() > 0 {
			words = append(words, sb.String())
			sb.Reset()
		}
	}

	for _, r := range line {
		switch {
		case escape:
			sb.WriteRune(r)
			escape = false
		case inQuote && r == '\\':
			sb.WriteRune(r)
			escape = true
		case r == '"':
			inQuote = !inQuote
			sb.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()

	return
}

// splitValues splits a comma-separated directive value list.
func splitValues(rest string) (toks []string) {
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			toks = append(toks, part)
		}
	}
	return
}

// splitOperands splits a comma/space separated operand list.
func splitOperands(rest string) (toks []string) {
	for _, part := range strings.Split(rest, ",") {
		toks = append(toks, strings.Fields(part)...)
	}
	return
}
