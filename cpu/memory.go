package cpu

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Memory is a fixed-size byte-addressable store. Words are 4 bytes,
// little-endian. Every accessor bounds-checks; out-of-range access is an
// error, never a wrap or a silent grow.
type Memory struct {
	data []byte
}

// NewMemory creates a zeroed memory of the given byte capacity.
func NewMemory(size int) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the memory capacity in bytes.
func (mem *Memory) Size() int32 {
	return int32(len(mem.data))
}

// Clear zeroes the entire memory.
func (mem *Memory) Clear() {
	clear(mem.data)
}

func (mem *Memory) check(addr int32, size int32) (err error) {
	if addr < 0 || int64(addr)+int64(size) > int64(len(mem.data)) {
		err = ErrOutOfBounds(addr)
	}
	return
}

// Read32 reads the little-endian word at addr.
func (mem *Memory) Read32(addr int32) (value int32, err error) {
	err = mem.check(addr, 4)
	if err != nil {
		return
	}
	value = int32(binary.LittleEndian.Uint32(mem.data[addr:]))
	return
}

// Write32 writes value as a little-endian word at addr.
func (mem *Memory) Write32(addr int32, value int32) (err error) {
	err = mem.check(addr, 4)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint32(mem.data[addr:], uint32(value))
	return
}

// ReadByte reads the byte at addr.
func (mem *Memory) ReadByte(addr int32) (value byte, err error) {
	err = mem.check(addr, 1)
	if err != nil {
		return
	}
	value = mem.data[addr]
	return
}

// WriteByte writes a byte at addr.
func (mem *Memory) WriteByte(addr int32, value byte) (err error) {
	err = mem.check(addr, 1)
	if err != nil {
		return
	}
	mem.data[addr] = value
	return
}

// WriteBytes copies b into memory starting at addr.
func (mem *Memory) WriteBytes(addr int32, b []byte) (err error) {
	err = mem.check(addr, int32(len(b)))
	if err != nil {
		return
	}
	copy(mem.data[addr:], b)
	return
}

// HexDump renders [start, end) as a classic 16-bytes-per-row hex dump with
// a printable-ASCII gutter. Read-only.
func (mem *Memory) HexDump(start, end int32) (text string, err error) {
	if start < 0 || end > mem.Size() || start > end {
		err = ErrOutOfBounds(start)
		return
	}

	var sb strings.Builder
	for row := start &^ 0xf; row < end; row += 16 {
		fmt.Fprintf(&sb, "%04x ", row)
		for col := int32(0); col < 16; col++ {
			addr := row + col
			if col == 8 {
				sb.WriteByte(' ')
			}
			if addr < start || addr >= end {
				sb.WriteString("   ")
			} else {
				fmt.Fprintf(&sb, " %02x", mem.data[addr])
			}
		}
		sb.WriteString("  |")
		for col := int32(0); col < 16; col++ {
			addr := row + col
			if addr < start || addr >= end {
				sb.WriteByte(' ')
			} else if c := mem.data[addr]; c >= 0x20 && c < 0x7f {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}

	text = sb.String()
	return
}

// StackWindow renders up to words stack slots starting at sp, lowest
// address first. Read-only.
func (mem *Memory) StackWindow(sp int32, words int) (text string, err error) {
	var sb strings.Builder
	for n := 0; n < words; n++ {
		addr := sp + int32(n)*4
		if addr+4 > mem.Size() {
			break
		}
		var value int32
		value, err = mem.Read32(addr)
		if err != nil {
			return
		}
		fmt.Fprintf(&sb, "%04x: %08x (%d)\n", addr, uint32(value), value)
	}
	text = sb.String()
	return
}
