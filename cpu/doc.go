// Package cpu implements a small deterministic virtual CPU and its assembler.
//
// The machine consists of eight 32-bit general purpose registers (R0-R7),
// stack and base pointers (SP, BP), an instruction pointer, four condition
// flags (zero, negative, carry, overflow), and a fixed-size little-endian
// byte memory. Programs are assembled from a line-oriented assembly text by
// a two-pass assembler into an instruction list plus a data image; the
// instruction list is interpreted directly, never encoded to machine words.
//
// The assembler supports .DATA/.TEXT sections, .ORG/.WORD/.BYTE/.ASCII/.ASCIZ
// data directives, labels, .EQU constants, and compile-time $( ... )
// expression evaluation.
package cpu
