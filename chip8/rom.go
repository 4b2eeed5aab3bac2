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
	"io"
	"os"
)

// ReadROM reads a raw CHIP-8 program. Programs that do not fit between
// ProgramStartAddress and the end of memory are rejected.
func ReadROM(r io.Reader) ([]byte, error) {
	// One extra byte tells an exact fit from an oversized program.
	data, err := io.ReadAll(io.LimitReader(r, int64(MaxProgramSize)+1))
	if err != nil {
		return nil, err
	}

	if len(data) > MaxProgramSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrRomTooLarge, MaxProgramSize)
	}

	return data, nil
}

// LoadROM reads the program stored in the file at path.
func LoadROM(path string) ([]byte, error) {
	inf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer inf.Close()

	data, err := ReadROM(inf)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}

	return data, nil
}
