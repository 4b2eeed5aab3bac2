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

	"emul8/internal/translate"
)

var f = translate.From

var (
	// Fatal machine errors.
	ErrOutOfBounds    = errors.New(f("address out of bounds"))
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))

	// The instruction was skipped; execution may continue.
	ErrUnknownInstruction = errors.New(f("unknown instruction"))

	// Load errors.
	ErrRomTooLarge = errors.New(f("rom too large"))
)

// ErrRuntime records where a Step failed.
type ErrRuntime struct {
	PC     uint16 // Address of the failing instruction.
	Opcode Opcode // Zero when the fetch itself failed.
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("0x%03X %04X %v", err.PC, uint16(err.Opcode), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// Fatal reports whether err leaves the machine unable to continue.
// A nil error and an unknown instruction are not fatal.
func Fatal(err error) bool {
	return err != nil && !errors.Is(err, ErrUnknownInstruction)
}
