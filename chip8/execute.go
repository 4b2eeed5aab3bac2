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
)

// handler executes one decoded instruction. The program counter already
// points past the instruction when a handler runs.
type handler func(p *Machine, op Opcode) (Info, error)

// instructions is indexed by the opcode class, the first nibble.
var instructions = [16]handler{
	0x0: execSystem,
	0x1: jumpToLocation,
	0x2: callSubroutine,
	0x3: stepIfXEqualsKK,
	0x4: stepIfXNotEqualsKK,
	0x5: stepIfXEqualsY,
	0x6: setXToKK,
	0x7: addKKToX,
	0x8: execALU,
	0x9: stepIfXNotEqualsY,
	0xA: setIToNNN,
	0xB: jumpWithOffset,
	0xC: setXToRandom,
	0xD: drawSprite,
	0xE: execKey,
	0xF: execMisc,
}

var systemInstructions = map[Opcode]handler{
	0x00E0: clearScreen,
	0x00EE: returnFromSubroutine,
}

// aluInstructions is indexed by the last nibble of 8xyN.
var aluInstructions = [16]handler{
	0x0: setXToY,
	0x1: orXY,
	0x2: andXY,
	0x3: xorXY,
	0x4: addXY,
	0x5: subtractYFromX,
	0x6: shiftRightX,
	0x7: subtractXFromY,
	0xE: shiftLeftX,
}

var keyInstructions = map[uint8]handler{
	0x9E: stepIfKeyDown,
	0xA1: stepIfKeyUp,
}

var miscInstructions = map[uint8]handler{
	0x07: setXToDelay,
	0x0A: pauseUntilKeyPressed,
	0x15: setDelayToX,
	0x18: setSoundToX,
	0x1E: addXToI,
	0x29: setIToSymbol,
	0x33: binaryCodedDecimal,
	0x55: setRegistersToMemory,
	0x65: setMemoryToRegisters,
}

func execute(p *Machine, op Opcode) (Info, error) {
	return instructions[op.Kind()](p, op)
}

func unknownInstruction(_ *Machine, op Opcode) (Info, error) {
	return 0, fmt.Errorf("%w: %04X", ErrUnknownInstruction, uint16(op))
}

func execSystem(p *Machine, op Opcode) (Info, error) {
	if h, ok := systemInstructions[op]; ok {
		return h(p, op)
	}
	return unknownInstruction(p, op)
}

func execALU(p *Machine, op Opcode) (Info, error) {
	if h := aluInstructions[op.N()]; h != nil {
		return h(p, op)
	}
	return unknownInstruction(p, op)
}

func execKey(p *Machine, op Opcode) (Info, error) {
	if h, ok := keyInstructions[op.KK()]; ok {
		return h(p, op)
	}
	return unknownInstruction(p, op)
}

func execMisc(p *Machine, op Opcode) (Info, error) {
	if h, ok := miscInstructions[op.KK()]; ok {
		return h(p, op)
	}
	return unknownInstruction(p, op)
}

// checkRange fails unless memory[addr:addr+n] lies inside memory.
func checkRange(addr uint16, n int) error {
	if int(addr)+n > MemorySize {
		return fmt.Errorf("%w: 0x%04X+%d", ErrOutOfBounds, addr, n)
	}
	return nil
}

func clearScreen(p *Machine, _ Opcode) (Info, error) {
	clear(p.display[:])
	return Redraw, nil
}

func returnFromSubroutine(p *Machine, _ Opcode) (Info, error) {
	if p.sp == 0 {
		return 0, ErrStackUnderflow
	}
	p.sp--
	p.pc = p.stack[p.sp]
	return 0, nil
}

func jumpToLocation(p *Machine, op Opcode) (Info, error) {
	p.pc = op.NNN()
	return 0, nil
}

func callSubroutine(p *Machine, op Opcode) (Info, error) {
	if int(p.sp) >= len(p.stack) {
		return 0, ErrStackOverflow
	}
	p.stack[p.sp] = p.pc
	p.sp++
	p.pc = op.NNN()
	return 0, nil
}

// Validated by the next fetch.
func jumpWithOffset(p *Machine, op Opcode) (Info, error) {
	p.pc = op.NNN() + uint16(p.v[0x0])
	return 0, nil
}

func stepIf(p *Machine, cond bool) (Info, error) {
	if cond {
		p.pc += 2
	}
	return 0, nil
}

func stepIfXEqualsKK(p *Machine, op Opcode) (Info, error) {
	return stepIf(p, p.v[op.X()] == op.KK())
}

func stepIfXNotEqualsKK(p *Machine, op Opcode) (Info, error) {
	return stepIf(p, p.v[op.X()] != op.KK())
}

func stepIfXEqualsY(p *Machine, op Opcode) (Info, error) {
	if op.N() != 0 {
		return unknownInstruction(p, op)
	}
	return stepIf(p, p.v[op.X()] == p.v[op.Y()])
}

func stepIfXNotEqualsY(p *Machine, op Opcode) (Info, error) {
	if op.N() != 0 {
		return unknownInstruction(p, op)
	}
	return stepIf(p, p.v[op.X()] != p.v[op.Y()])
}

func setXToKK(p *Machine, op Opcode) (Info, error) {
	p.v[op.X()] = op.KK()
	return 0, nil
}

// Wraps around without touching the carry flag.
func addKKToX(p *Machine, op Opcode) (Info, error) {
	p.v[op.X()] += op.KK()
	return 0, nil
}

func setXToY(p *Machine, op Opcode) (Info, error) {
	p.v[op.X()] = p.v[op.Y()]
	return 0, nil
}

func orXY(p *Machine, op Opcode) (Info, error) {
	p.v[op.X()] |= p.v[op.Y()]
	return 0, nil
}

func andXY(p *Machine, op Opcode) (Info, error) {
	p.v[op.X()] &= p.v[op.Y()]
	return 0, nil
}

func xorXY(p *Machine, op Opcode) (Info, error) {
	p.v[op.X()] ^= p.v[op.Y()]
	return 0, nil
}

// The flag setting ALU operations read both operands before writing VF,
// then write the result, so VF as an operand sees its old value and VF as
// the destination ends up holding the result.

func addXY(p *Machine, op Opcode) (Info, error) {
	vx, vy := p.v[op.X()], p.v[op.Y()]
	sum := uint16(vx) + uint16(vy)
	p.v[CarryFlag] = 0
	if sum > 0xFF {
		p.v[CarryFlag] = 1
	}
	p.v[op.X()] = byte(sum)
	return 0, nil
}

func subtractYFromX(p *Machine, op Opcode) (Info, error) {
	vx, vy := p.v[op.X()], p.v[op.Y()]
	p.v[CarryFlag] = 0
	if vx >= vy {
		p.v[CarryFlag] = 1
	}
	p.v[op.X()] = vx - vy
	return 0, nil
}

func subtractXFromY(p *Machine, op Opcode) (Info, error) {
	vx, vy := p.v[op.X()], p.v[op.Y()]
	p.v[CarryFlag] = 0
	if vy >= vx {
		p.v[CarryFlag] = 1
	}
	p.v[op.X()] = vy - vx
	return 0, nil
}

func shiftRightX(p *Machine, op Opcode) (Info, error) {
	vx := p.v[op.X()]
	p.v[CarryFlag] = vx & 0x1
	p.v[op.X()] = vx >> 1
	return 0, nil
}

func shiftLeftX(p *Machine, op Opcode) (Info, error) {
	vx := p.v[op.X()]
	p.v[CarryFlag] = (vx & 0x80) >> 7
	p.v[op.X()] = vx << 1
	return 0, nil
}

func setIToNNN(p *Machine, op Opcode) (Info, error) {
	p.i = op.NNN()
	return 0, nil
}

func setXToRandom(p *Machine, op Opcode) (Info, error) {
	randomByte := byte(p.rand.UintN(256))
	p.v[op.X()] = randomByte & op.KK()
	return 0, nil
}

// drawSprite XORs an n byte sprite from memory[I] onto the display at
// (Vx, Vy). Each pixel wraps around the screen edges. VF is set when a
// lit pixel is switched off.
func drawSprite(p *Machine, op Opcode) (Info, error) {
	n := int(op.N())
	if err := checkRange(p.i, n); err != nil {
		return 0, err
	}

	startX := int(p.v[op.X()]) % Width
	startY := int(p.v[op.Y()]) % Height

	p.v[CarryFlag] = 0
	for row := range n {
		sprite := p.memory[int(p.i)+row]
		y := (startY + row) % Height

		for col := range 8 {
			if sprite&(0x80>>col) == 0 {
				continue
			}

			x := (startX + col) % Width
			pixel := &p.display[y*Width+x]
			if *pixel != 0 {
				p.v[CarryFlag] = 1
			}
			*pixel ^= 1
		}
	}

	return Redraw, nil
}

func stepIfKeyDown(p *Machine, op Opcode) (Info, error) {
	return stepIf(p, p.keys[p.v[op.X()]&0x0F])
}

func stepIfKeyUp(p *Machine, op Opcode) (Info, error) {
	return stepIf(p, !p.keys[p.v[op.X()]&0x0F])
}

func setXToDelay(p *Machine, op Opcode) (Info, error) {
	p.v[op.X()] = p.delay
	return 0, nil
}

// pauseUntilKeyPressed suspends the machine; SetKey completes the
// instruction by storing the key in Vx.
func pauseUntilKeyPressed(p *Machine, op Opcode) (Info, error) {
	p.waiting = true
	p.waitReg = op.X()
	return Waiting, nil
}

func setDelayToX(p *Machine, op Opcode) (Info, error) {
	p.delay = p.v[op.X()]
	return 0, nil
}

func setSoundToX(p *Machine, op Opcode) (Info, error) {
	p.sound = p.v[op.X()]
	return 0, nil
}

func addXToI(p *Machine, op Opcode) (Info, error) {
	p.i += uint16(p.v[op.X()])
	return 0, nil
}

func setIToSymbol(p *Machine, op Opcode) (Info, error) {
	digit := uint16(p.v[op.X()] & 0x0F)
	p.i = FontStartAddress + digit*GlyphSize
	return 0, nil
}

// binaryCodedDecimal stores the hundreds, tens and ones of Vx at I, I+1
// and I+2.
func binaryCodedDecimal(p *Machine, op Opcode) (Info, error) {
	if err := checkRange(p.i, 3); err != nil {
		return 0, err
	}

	// Double Dabble: shift the value in one bit at a time, adding 3 to
	// any BCD nibble of 5 or more before each shift so it carries into
	// the next digit.
	var bcd uint32
	val := uint32(p.v[op.X()])

	for i := range 8 {
		if (bcd & 0x00F) >= 0x005 {
			bcd += 0x003
		}
		if (bcd & 0x0F0) >= 0x050 {
			bcd += 0x030
		}
		if (bcd & 0xF00) >= 0x500 {
			bcd += 0x300
		}

		bcd = (bcd << 1) | ((val >> (7 - i)) & 1)
	}

	p.memory[p.i] = byte((bcd >> 8) & 0xF)   // Hundreds
	p.memory[p.i+1] = byte((bcd >> 4) & 0xF) // Tens
	p.memory[p.i+2] = byte(bcd & 0xF)        // Ones
	return 0, nil
}

func setRegistersToMemory(p *Machine, op Opcode) (Info, error) {
	n := int(op.X()) + 1
	if err := checkRange(p.i, n); err != nil {
		return 0, err
	}
	copy(p.memory[p.i:int(p.i)+n], p.v[:n])
	return 0, nil
}

func setMemoryToRegisters(p *Machine, op Opcode) (Info, error) {
	n := int(op.X()) + 1
	if err := checkRange(p.i, n); err != nil {
		return 0, err
	}
	copy(p.v[:n], p.memory[p.i:int(p.i)+n])
	return 0, nil
}
