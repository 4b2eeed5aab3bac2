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
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	MemorySize          int    = 4096
	RegisterCount       int    = 16
	StackSize           int    = 16
	KeyCount            int    = 16
	FontStartAddress    uint16 = 0x000
	GlyphSize           uint16 = 5
	ProgramStartAddress uint16 = 0x200
	MaxProgramSize      int    = MemorySize - int(ProgramStartAddress)
	CarryFlag           uint8  = 0xF

	TimerRate time.Duration = time.Second / 60  // 60hz
	ClockRate time.Duration = time.Second / 700 // 700hz

	Width  int = 64
	Height int = 32
	Area   int = Width * Height
)

var fontSet = [...]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Machine is the complete state of one CHIP-8 virtual machine.
//
// A Machine is not safe for concurrent use. An embedding that steps the
// machine on one goroutine and renders or reads input on another must
// serialize every call.
type Machine struct {
	memory  [MemorySize]byte
	v       [RegisterCount]byte
	keys    [KeyCount]bool
	display [Area]byte
	stack   [StackSize]uint16
	sp      uint8
	pc      uint16
	i       uint16
	delay   uint8
	sound   uint8

	// Fx0A suspends the machine until a key is pressed.
	waiting bool
	waitReg uint8

	current Opcode
	program []byte
	rand    *rand.Rand
}

// Option customizes a Machine built by New.
type Option func(*Machine)

// WithRand replaces the random source used by Cxkk.
func WithRand(r *rand.Rand) Option {
	return func(p *Machine) {
		p.rand = r
	}
}

// New builds a machine with the font set and program loaded, ready to
// execute from ProgramStartAddress.
func New(program []byte, opts ...Option) (*Machine, error) {
	if len(program) > MaxProgramSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrRomTooLarge, len(program), MaxProgramSize)
	}

	p := &Machine{
		program: append([]byte(nil), program...),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rand == nil {
		p.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	p.Reset()

	return p, nil
}

// Reset returns the machine to its power-on state, keeping the loaded
// program and the random source.
func (p *Machine) Reset() {
	program, r := p.program, p.rand
	*p = Machine{
		program: program,
		rand:    r,
	}

	copy(p.memory[FontStartAddress:], fontSet[:])
	copy(p.memory[ProgramStartAddress:], program)
	p.pc = ProgramStartAddress
}

// Write copies data into memory at loc, returning the number of bytes
// that fit.
func (p *Machine) Write(loc uint16, data []byte) uint16 {
	if int(loc) >= MemorySize {
		return 0
	}
	return uint16(copy(p.memory[loc:], data))
}

// Read copies memory starting at loc into data, returning the number of
// bytes read.
func (p *Machine) Read(loc uint16, data []byte) uint16 {
	if int(loc) >= MemorySize {
		return 0
	}
	return uint16(copy(data, p.memory[loc:]))
}

// Memory returns the byte at addr, or zero outside the address space.
func (p *Machine) Memory(addr uint16) byte {
	if int(addr) >= MemorySize {
		return 0
	}
	return p.memory[addr]
}

// SetKey records the state of keypad key k (0x0-0xF). A key press
// completes a pending Fx0A.
func (p *Machine) SetKey(k uint8, pressed bool) {
	k &= 0x0F
	p.keys[k] = pressed

	if pressed && p.waiting {
		p.v[p.waitReg] = k
		p.waiting = false
	}
}

// Key reports whether keypad key k is held down.
func (p *Machine) Key(k uint8) bool {
	return p.keys[k&0x0F]
}

// TickTimers decrements the delay and sound timers, stopping at zero.
// It is meant to be called at TimerRate.
func (p *Machine) TickTimers() {
	if p.delay > 0 {
		p.delay--
	}

	if p.sound > 0 {
		p.sound--
	}
}

// Framebuffer returns a copy of the display, one byte per pixel in row
// major order.
func (p *Machine) Framebuffer() [Area]byte {
	return p.display
}

// Pixel reports whether the pixel at column x, row y is lit.
func (p *Machine) Pixel(x, y int) bool {
	x, y = x%Width, y%Height
	return p.display[y*Width+x] != 0
}

func (p *Machine) Register(v uint8) uint8 {
	return p.v[v&0x0F]
}

func (p *Machine) StackDepth() int {
	return int(p.sp)
}

func (p *Machine) Index() uint16 {
	return p.i
}

func (p *Machine) ProgramCounter() uint16 {
	return p.pc
}

func (p *Machine) DelayTimer() uint8 {
	return p.delay
}

func (p *Machine) SoundTimer() uint8 {
	return p.sound
}

// Current is the most recently fetched opcode.
func (p *Machine) Current() Opcode {
	return p.current
}

// Waiting reports whether the machine is suspended on Fx0A, and which
// register receives the key.
func (p *Machine) Waiting() (reg uint8, ok bool) {
	return p.waitReg, p.waiting
}
