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
	"strings"

	isa "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// lookup finds the instruction set entry matching op, by its class and
// then by mask.
func lookup(op Opcode) (isa.Opcode, bool) {
	w := uint16(op)
	for _, entry := range isa.Opcodes[int(op.Kind())] {
		if entry.Info.Mask&w == entry.Info.Value && entry.Instruction != nil {
			return entry, true
		}
	}
	return isa.Opcode{}, false
}

// operands formats the operand list of op.
func (op Opcode) operands() string {
	x, y := op.X(), op.Y()

	switch op.Kind() {
	case 0x0:
		if op == 0x00E0 || op == 0x00EE {
			return ""
		}
		return fmt.Sprintf("0x%03X", op.NNN())
	case 0x1, 0x2:
		return fmt.Sprintf("0x%03X", op.NNN())
	case 0x3, 0x4, 0x6, 0x7, 0xC:
		return fmt.Sprintf("V%X, 0x%02X", x, op.KK())
	case 0x5, 0x9:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0x8:
		if op.N() == 0x6 || op.N() == 0xE {
			return fmt.Sprintf("V%X", x)
		}
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA:
		return fmt.Sprintf("I, 0x%03X", op.NNN())
	case 0xB:
		return fmt.Sprintf("V0, 0x%03X", op.NNN())
	case 0xD:
		return fmt.Sprintf("V%X, V%X, %d", x, y, op.N())
	case 0xE:
		return fmt.Sprintf("V%X", x)
	}

	switch op.KK() {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x1E:
		return fmt.Sprintf("I, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return fmt.Sprintf("V%X", x)
}

// String renders the opcode as an assembler mnemonic. Words that do not
// decode to an instruction are rendered as a data word.
func (op Opcode) String() string {
	entry, ok := lookup(op)
	if !ok {
		return fmt.Sprintf("DW 0x%04X", uint16(op))
	}

	name := strings.ToUpper(entry.Instruction.Name)
	if args := op.operands(); args != "" {
		return name + " " + args
	}
	return name
}
