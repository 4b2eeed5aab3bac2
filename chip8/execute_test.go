/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chip8

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImmediate(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t)
	for x := range uint16(RegisterCount) {
		for _, kk := range []uint16{0x00, 0x01, 0x7F, 0xFF} {
			pc := p.ProgramCounter()
			_, err := stepOp(t, p, 0x6000|x<<8|kk)
			assert.NoError(err)
			assert.Equal(uint8(kk), p.Register(uint8(x)))
			assert.Equal(pc+2, p.ProgramCounter())
		}
	}
}

func TestAddImmediate(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x60FF, 0x6F07, 0x7002)
	for range 3 {
		_, err := p.Step()
		assert.NoError(err)
	}

	assert.Equal(uint8(0x01), p.Register(0x0))
	assert.Equal(uint8(0x07), p.Register(0xF), "carry flag untouched")
}

func TestALU(t *testing.T) {
	table := []struct {
		name   string
		op     uint16
		vx, vy uint8
		result uint8
		flag   uint8
	}{
		{"ld", 0x8010, 0x12, 0x34, 0x34, 0x09},
		{"or", 0x8011, 0xF0, 0x0F, 0xFF, 0x09},
		{"and", 0x8012, 0xF3, 0x3F, 0x33, 0x09},
		{"xor", 0x8013, 0xFF, 0x0F, 0xF0, 0x09},
		{"add_carry", 0x8014, 0xFF, 0x01, 0x00, 1},
		{"add", 0x8014, 0x01, 0x01, 0x02, 0},
		{"sub_borrow", 0x8015, 0x01, 0x02, 0xFF, 0},
		{"sub", 0x8015, 0x02, 0x01, 0x01, 1},
		{"sub_equal", 0x8015, 0x05, 0x05, 0x00, 1},
		{"shr_odd", 0x8016, 0x05, 0xAA, 0x02, 1},
		{"shr_even", 0x8016, 0x04, 0xAA, 0x02, 0},
		{"subn", 0x8017, 0x01, 0x03, 0x02, 1},
		{"subn_borrow", 0x8017, 0x03, 0x01, 0xFE, 0},
		{"shl_high", 0x801E, 0x81, 0xAA, 0x02, 1},
		{"shl_low", 0x801E, 0x41, 0xAA, 0x82, 0},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			p := newMachine(t)
			p.v[0x0] = entry.vx
			p.v[0x1] = entry.vy
			p.v[0xF] = 0x09

			_, err := stepOp(t, p, entry.op)
			assert.NoError(err)
			assert.Equal(entry.result, p.Register(0x0))
			assert.Equal(entry.vy, p.Register(0x1))
			assert.Equal(entry.flag, p.Register(0xF))
			assert.Equal(uint16(0x202), p.ProgramCounter())
		})
	}
}

func TestALUFlagRegister(t *testing.T) {
	assert := assert.New(t)

	// VF as the source is read before the flag is written.
	p := newMachine(t)
	p.v[0x0] = 0xFF
	p.v[0xF] = 0x01
	_, err := stepOp(t, p, 0x80F4)
	assert.NoError(err)
	assert.Equal(uint8(0x00), p.Register(0x0))
	assert.Equal(uint8(1), p.Register(0xF))

	// VF as the destination keeps the result.
	p = newMachine(t)
	p.v[0xF] = 0x03
	p.v[0x1] = 0x01
	_, err = stepOp(t, p, 0x8F15)
	assert.NoError(err)
	assert.Equal(uint8(0x02), p.Register(0xF))
}

func TestSkips(t *testing.T) {
	table := []struct {
		name string
		op   uint16
		skip bool
	}{
		{"se_kk_taken", 0x3042, true},
		{"se_kk", 0x3043, false},
		{"sne_kk_taken", 0x4043, true},
		{"sne_kk", 0x4042, false},
		{"se_vy_taken", 0x5020, true},
		{"se_vy", 0x5010, false},
		{"sne_vy_taken", 0x9010, true},
		{"sne_vy", 0x9020, false},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			p := newMachine(t)
			p.v[0x0] = 0x42
			p.v[0x1] = 0x41
			p.v[0x2] = 0x42

			_, err := stepOp(t, p, entry.op)
			assert.NoError(err)
			if entry.skip {
				assert.Equal(uint16(0x204), p.ProgramCounter())
			} else {
				assert.Equal(uint16(0x202), p.ProgramCounter())
			}
		})
	}
}

func TestKeySkips(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x6A05, 0xEA9E, 0x0000, 0xEAA1, 0x0000, 0xEAA1)
	_, err := p.Step()
	assert.NoError(err)

	// Key up: SKP falls through.
	_, err = p.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x204), p.ProgramCounter())

	p.SetKey(0x5, true)
	p.pc = 0x202
	_, err = p.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x206), p.ProgramCounter())

	// Key down: SKNP falls through.
	_, err = p.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x208), p.ProgramCounter())

	p.SetKey(0x5, false)
	p.pc = 0x20A
	_, err = p.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x20E), p.ProgramCounter())
}

func TestJump(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x1208)
	_, err := p.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x208), p.ProgramCounter())

	p.v[0x0] = 0x10
	_, err = stepOp(t, p, 0xB300)
	assert.NoError(err)
	assert.Equal(uint16(0x310), p.ProgramCounter())
}

func TestJumpWithOffsetOutOfBounds(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t)
	p.v[0x0] = 0xFF
	_, err := stepOp(t, p, 0xBFFF)
	assert.NoError(err)
	assert.Equal(uint16(0x10FE), p.ProgramCounter())

	_, err = p.Step()
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.True(Fatal(err))
	assert.Equal(uint16(0x10FE), p.ProgramCounter())
}

func TestCallReturn(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t)
	depth := p.StackDepth()

	_, err := stepOp(t, p, 0x2200)
	assert.NoError(err)
	assert.Equal(uint16(0x200), p.ProgramCounter())
	assert.Equal(depth+1, p.StackDepth())

	_, err = stepOp(t, p, 0x00EE)
	assert.NoError(err)
	assert.Equal(uint16(0x202), p.ProgramCounter())
	assert.Equal(depth, p.StackDepth())
}

func TestNestedCalls(t *testing.T) {
	assert := assert.New(t)

	// 0x200: CALL 0x206; 0x202: JP 0x202; 0x206: CALL 0x20A; RET; 0x20A: RET
	p := newMachine(t, 0x2206, 0x1202, 0x0000, 0x220A, 0x00EE, 0x00EE)

	expect := []struct {
		pc    uint16
		depth int
	}{
		{0x206, 1},
		{0x20A, 2},
		{0x208, 1},
		{0x202, 0},
		{0x202, 0},
	}
	for _, e := range expect {
		_, err := p.Step()
		assert.NoError(err)
		assert.Equal(e.pc, p.ProgramCounter())
		assert.Equal(e.depth, p.StackDepth())
	}
}

func TestStackOverflow(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x2200)

	for n := range StackSize {
		_, err := p.Step()
		assert.NoError(err, "call %d", n+1)
	}
	assert.Equal(StackSize, p.StackDepth())

	_, err := p.Step()
	assert.ErrorIs(err, ErrStackOverflow)
	assert.True(Fatal(err))
	assert.Equal(StackSize, p.StackDepth())
	assert.Equal(uint16(0x200), p.ProgramCounter())
}

func TestStackUnderflow(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x00EE)

	_, err := p.Step()
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.True(Fatal(err))
	assert.Equal(0, p.StackDepth())
	assert.Equal(uint16(0x200), p.ProgramCounter())
}

func TestClearScreen(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x00E0)
	for n := range p.display {
		p.display[n] = byte(n & 1)
	}

	info, err := p.Step()
	assert.NoError(err)
	assert.True(info.Has(Redraw))
	assert.Equal([Area]byte{}, p.Framebuffer())
}

func TestDrawCollision(t *testing.T) {
	assert := assert.New(t)

	// I = glyph 0, draw it twice at (1, 2).
	p := newMachine(t, 0x6001, 0x6102, 0xA000, 0xD015, 0xD015)
	for range 3 {
		_, err := p.Step()
		require.NoError(t, err)
	}
	before := p.Framebuffer()

	info, err := p.Step()
	assert.NoError(err)
	assert.True(info.Has(Redraw))
	assert.Equal(uint8(0), p.Register(0xF))

	// Glyph 0 is 0xF0 0x90 0x90 0x90 0xF0.
	for col := range 4 {
		assert.True(p.Pixel(1+col, 2))
		assert.True(p.Pixel(1+col, 6))
	}
	assert.True(p.Pixel(1, 4))
	assert.False(p.Pixel(2, 4))
	assert.True(p.Pixel(4, 4))
	assert.False(p.Pixel(5, 2))

	info, err = p.Step()
	assert.NoError(err)
	assert.True(info.Has(Redraw))
	assert.Equal(uint8(1), p.Register(0xF))
	assert.Equal(before, p.Framebuffer())
}

func TestDrawWraps(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x603E, 0x611F, 0xA300, 0xD012)
	p.Write(0x300, []byte{0xC3, 0x81})
	for range 4 {
		_, err := p.Step()
		require.NoError(t, err)
	}

	// Row 31 holds 0xC3, row 0 holds 0x81, starting at column 62.
	assert.True(p.Pixel(62, 31))
	assert.True(p.Pixel(63, 31))
	assert.False(p.Pixel(0, 31))
	assert.True(p.Pixel(4, 31))
	assert.True(p.Pixel(5, 31))
	assert.True(p.Pixel(62, 0))
	assert.False(p.Pixel(63, 0))
	assert.True(p.Pixel(5, 0))
	assert.Equal(uint8(0), p.Register(0xF))
}

func TestDrawStartWraps(t *testing.T) {
	assert := assert.New(t)

	// Coordinates beyond the display start at x%64, y%32.
	p := newMachine(t, 0x6042, 0x6121, 0xA300, 0xD011)
	p.Write(0x300, []byte{0x80})
	for range 4 {
		_, err := p.Step()
		require.NoError(t, err)
	}

	assert.True(p.Pixel(2, 1))
}

func TestDrawOutOfBounds(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0xAFFE, 0xD003)
	_, err := p.Step()
	require.NoError(t, err)

	_, err = p.Step()
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.Equal(uint16(0x202), p.ProgramCounter())
	assert.Equal([Area]byte{}, p.Framebuffer())
}

func TestRandom(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0xC50F, 0xC600, 0xC7FF)
	for range 3 {
		_, err := p.Step()
		assert.NoError(err)
	}

	expect := rand.New(rand.NewPCG(1, 2))
	assert.Equal(byte(expect.UintN(256))&0x0F, p.Register(0x5))
	_ = expect.UintN(256)
	assert.Equal(uint8(0), p.Register(0x6))
	assert.Equal(byte(expect.UintN(256)), p.Register(0x7))
}

func TestIndex(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0xA123, 0x6210, 0xF21E, 0x630B, 0xF329, 0x631F, 0xF329)

	_, err := p.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x123), p.Index())

	for range 2 {
		_, err = p.Step()
		assert.NoError(err)
	}
	assert.Equal(uint16(0x133), p.Index())

	for range 2 {
		_, err = p.Step()
		assert.NoError(err)
	}
	assert.Equal(uint16(0xB*5), p.Index())
	assert.Equal(byte(0xE0), p.Memory(p.Index()))

	// Only the low nibble selects a glyph.
	for range 2 {
		_, err = p.Step()
		assert.NoError(err)
	}
	assert.Equal(uint16(0xF*5), p.Index())
}

func TestTimerRegisters(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x6030, 0xF015, 0xF118)
	for range 3 {
		_, err := p.Step()
		assert.NoError(err)
	}

	p.TickTimers()
	info, err := stepOp(t, p, 0xF207)
	assert.NoError(err)
	assert.Equal(uint8(0x2F), p.Register(0x2))
	assert.True(info.Has(Delay))
	assert.False(info.Has(Sound))
}

func TestBinaryCodedDecimal(t *testing.T) {
	for _, value := range []uint8{0, 7, 42, 100, 156, 199, 255} {
		p := newMachine(t)
		p.v[0x4] = value
		p.i = 0x300

		_, err := stepOp(t, p, 0xF433)
		assert.NoError(t, err)
		assert.Equal(t, value/100, p.Memory(0x300), "hundreds of %d", value)
		assert.Equal(t, value/10%10, p.Memory(0x301), "tens of %d", value)
		assert.Equal(t, value%10, p.Memory(0x302), "ones of %d", value)
		assert.Equal(t, uint16(0x300), p.Index())
	}
}

func TestBinaryCodedDecimalOutOfBounds(t *testing.T) {
	p := newMachine(t)
	p.i = 0xFFE

	_, err := stepOp(t, p, 0xF033)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Zero(t, p.Memory(0xFFE))
}

func TestRegisterBlockCopy(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t)
	for x := range RegisterCount {
		p.v[x] = byte(0x10 + x)
	}
	p.i = 0x400

	_, err := stepOp(t, p, 0xF355)
	assert.NoError(err)
	assert.Equal(uint16(0x400), p.Index())
	for x := range uint16(4) {
		assert.Equal(byte(0x10+x), p.Memory(0x400+x))
	}
	assert.Zero(p.Memory(0x404))

	for x := range RegisterCount {
		p.v[x] = 0
	}
	_, err = stepOp(t, p, 0xFF65)
	assert.NoError(err)
	assert.Equal(uint16(0x400), p.Index())
	for x := range uint8(4) {
		assert.Equal(byte(0x10+x), p.Register(x))
	}
	for x := uint8(4); x < 16; x++ {
		assert.Zero(p.Register(x))
	}
}

func TestRegisterBlockCopyOutOfBounds(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t)
	p.i = 0xFF8

	// V0..V7 exactly fit.
	_, err := stepOp(t, p, 0xF765)
	assert.NoError(err)

	_, err = stepOp(t, p, 0xF855)
	assert.ErrorIs(err, ErrOutOfBounds)

	_, err = stepOp(t, p, 0xF865)
	assert.ErrorIs(err, ErrOutOfBounds)
}

func TestWaitForKey(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0xF30A, 0x6001)

	info, err := p.Step()
	assert.NoError(err)
	assert.True(info.Has(Waiting))
	reg, ok := p.Waiting()
	assert.True(ok)
	assert.Equal(uint8(0x3), reg)

	// Stepping while suspended does nothing.
	for range 3 {
		info, err = p.Step()
		assert.NoError(err)
		assert.True(info.Has(Waiting))
		assert.Equal(uint16(0x202), p.ProgramCounter())
	}

	// Releasing a key does not resume.
	p.SetKey(0x7, false)
	_, ok = p.Waiting()
	assert.True(ok)

	p.SetKey(0xB, true)
	_, ok = p.Waiting()
	assert.False(ok)
	assert.Equal(uint8(0xB), p.Register(0x3))

	info, err = p.Step()
	assert.NoError(err)
	assert.False(info.Has(Waiting))
	assert.Equal(uint8(0x01), p.Register(0x0))
	assert.Equal(uint16(0x204), p.ProgramCounter())
}

func TestWaitForKeyHeld(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0xF30A)

	// A key held before the wait starts does not end it.
	p.SetKey(0x4, true)
	info, err := p.Step()
	assert.NoError(err)
	assert.True(info.Has(Waiting))

	info, err = p.Step()
	assert.NoError(err)
	assert.True(info.Has(Waiting))
	_, ok := p.Waiting()
	assert.True(ok)
	assert.Zero(p.Register(0x3))

	// Releasing and pressing it again does.
	p.SetKey(0x4, false)
	p.SetKey(0x4, true)
	_, ok = p.Waiting()
	assert.False(ok)
	assert.Equal(uint8(0x4), p.Register(0x3))
}

// Every instruction word either executes or reports one of the machine
// errors; none of them is silently ignored or panics.
func TestDispatchComplete(t *testing.T) {
	p := newMachine(t)

	known := []error{ErrOutOfBounds, ErrStackOverflow, ErrStackUnderflow, ErrUnknownInstruction}
	unknown := map[uint8]int{}

	for word := range 0x10000 {
		p.Reset()
		p.i = 0x300
		p.Write(0x200, program(uint16(word)))

		var err error
		require.NotPanics(t, func() {
			_, err = p.Step()
		}, "opcode %04X", word)

		if err == nil {
			continue
		}

		var rerr *ErrRuntime
		require.True(t, errors.As(err, &rerr), "opcode %04X", word)
		assert.Equal(t, uint16(0x200), rerr.PC)
		assert.Equal(t, Opcode(word), rerr.Opcode)

		matched := false
		for _, e := range known {
			matched = matched || errors.Is(err, e)
		}
		assert.True(t, matched, "opcode %04X: %v", word, err)

		if errors.Is(err, ErrUnknownInstruction) {
			unknown[Opcode(word).Kind()]++
			assert.Equal(t, uint16(0x202), p.ProgramCounter())
		}
	}

	assert.Equal(t, map[uint8]int{
		0x0: 0x1000 - 2,
		0x5: 0x1000 - 0x100,
		0x8: 0x1000 - 9*0x100,
		0x9: 0x1000 - 0x100,
		0xE: 0x1000 - 2*0x10,
		0xF: 0x1000 - 9*0x10,
	}, unknown)
}

func TestUnknownInstruction(t *testing.T) {
	assert := assert.New(t)

	p := newMachine(t, 0x0123, 0x6001)

	_, err := p.Step()
	assert.ErrorIs(err, ErrUnknownInstruction)
	assert.False(Fatal(err))
	assert.Equal(uint16(0x202), p.ProgramCounter())
	assert.Equal(Opcode(0x0123), p.Current())

	_, err = p.Step()
	assert.NoError(err)
	assert.Equal(uint8(0x01), p.Register(0x0))
}
