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

// Opcode is a single 16bit CHIP-8 instruction word.
//
// Every operand field is masked out of the word first and then shifted
// down, so the register fields can never exceed 0xF.
type Opcode uint16

// Kind is the first nibble, the instruction class.
func (op Opcode) Kind() uint8 {
	return uint8((op & 0xF000) >> 12)
}

// X is the second nibble, the first register index.
func (op Opcode) X() uint8 {
	return uint8((op & 0x0F00) >> 8)
}

// Y is the third nibble, the second register index.
func (op Opcode) Y() uint8 {
	return uint8((op & 0x00F0) >> 4)
}

// N is the fourth nibble.
func (op Opcode) N() uint8 {
	return uint8(op & 0x000F)
}

// KK is the low byte, an immediate value.
func (op Opcode) KK() uint8 {
	return uint8(op & 0x00FF)
}

// NNN is the low 12 bits, an address.
func (op Opcode) NNN() uint16 {
	return uint16(op & 0x0FFF)
}

// Fetch decodes the instruction word stored at pc.
func (p *Machine) Fetch(pc uint16) (Opcode, error) {
	if int(pc)+1 >= MemorySize {
		return 0, fmt.Errorf("%w: fetch at 0x%04X", ErrOutOfBounds, pc)
	}

	// opcode is a 16bit value, comprised of two contiguous 8bit values
	// in memory, starting at the program counter
	high := uint16(p.memory[pc])  // high-order bits of opcode
	low := uint16(p.memory[pc+1]) // low-order bits of opcode
	return Opcode((high << 8) | low), nil
}
