package cpu

import (
	"math"
)

// Flags holds the four condition flags. They are recomputed by arithmetic
// and compare instructions and consumed only by the conditional jumps.
type Flags struct {
	Zero     bool
	Negative bool
	Carry    bool
	Overflow bool
}

// arithFlags wraps an exact 64-bit arithmetic result to 32 bits and derives
// flags from it. Carry and Overflow are both set whenever the exact result
// does not fit the signed 32-bit range; this range approximation (rather
// than bit-level two's-complement carry tracking) is the documented flag
// model of the machine.
func arithFlags(exact int64) (value int32, fl Flags) {
	value = int32(exact)
	fl.Zero = value == 0
	fl.Negative = value < 0
	if exact < math.MinInt32 || exact > math.MaxInt32 {
		fl.Carry = true
		fl.Overflow = true
	}
	return
}

// logicFlags derives flags from a move/logic result. Carry and Overflow are
// always cleared.
func logicFlags(value int32) (fl Flags) {
	fl.Zero = value == 0
	fl.Negative = value < 0
	return
}

// Signed-comparison flag algebra for the conditional jumps.

func (fl Flags) greater() bool {
	return !fl.Zero && fl.Negative == fl.Overflow
}

func (fl Flags) greaterEqual() bool {
	return fl.Negative == fl.Overflow
}

func (fl Flags) less() bool {
	return fl.Negative != fl.Overflow
}

func (fl Flags) lessEqual() bool {
	return fl.Zero || fl.Negative != fl.Overflow
}
