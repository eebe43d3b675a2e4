package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArithFlags(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name  string
		exact int64
		value int32
		fl    Flags
	}{
		{"zero", 0, 0, Flags{Zero: true}},
		{"positive", 42, 42, Flags{}},
		{"negative", -5, -5, Flags{Negative: true}},
		{"max", math.MaxInt32, math.MaxInt32, Flags{}},
		{"min", math.MinInt32, math.MinInt32, Flags{Negative: true}},
		{"overflow_up", math.MaxInt32 + 1, math.MinInt32,
			Flags{Negative: true, Carry: true, Overflow: true}},
		{"overflow_down", math.MinInt32 - 1, math.MaxInt32,
			Flags{Carry: true, Overflow: true}},
		{"mul_wide", int64(math.MinInt32) * -1, math.MinInt32,
			Flags{Negative: true, Carry: true, Overflow: true}},
	}

	for _, entry := range table {
		value, fl := arithFlags(entry.exact)
		assert.Equal(entry.value, value, entry.name)
		assert.Equal(entry.fl, fl, entry.name)
	}
}

func TestLogicFlags(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Flags{Zero: true}, logicFlags(0))
	assert.Equal(Flags{}, logicFlags(1))
	assert.Equal(Flags{Negative: true}, logicFlags(-1))
}

func TestFlags_SignedAlgebra(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name string
		a, b int32
		g    bool
		ge   bool
		l    bool
		le   bool
	}{
		{"equal", 3, 3, false, true, false, true},
		{"greater", 5, 3, true, true, false, false},
		{"less", 3, 5, false, false, true, true},
		{"neg_vs_pos", -1, 1, false, false, true, true},
		{"pos_vs_neg", 1, -1, true, true, false, false},
		{"wide_spread", math.MinInt32, math.MaxInt32, false, false, true, true},
		{"wide_spread_rev", math.MaxInt32, math.MinInt32, true, true, false, false},
	}

	for _, entry := range table {
		_, fl := arithFlags(int64(entry.a) - int64(entry.b))
		assert.Equal(entry.g, fl.greater(), entry.name)
		assert.Equal(entry.ge, fl.greaterEqual(), entry.name)
		assert.Equal(entry.l, fl.less(), entry.name)
		assert.Equal(entry.le, fl.lessEqual(), entry.name)
	}
}
