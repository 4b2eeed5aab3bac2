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

// Info is a set of hints returned by Step.
type Info uint8

const (
	Delay   Info = 1 << iota // The delay timer is running.
	Sound                    // The sound timer is running.
	Redraw                   // The display changed.
	Waiting                  // The machine is waiting for a key press.
	Executed                 // An instruction was fetched and dispatched.
)

// Has reports whether all bits of flag are set.
func (info Info) Has(flag Info) bool {
	return info&flag == flag
}

// Step fetches, decodes and executes exactly one instruction.
//
// While the machine waits for a key press Step does nothing and reports
// Waiting. Executed is set whenever an instruction was fetched, even if
// it then failed. Errors are returned as *ErrRuntime. An unknown
// instruction is skipped and execution may continue; for any other error
// the program counter is left on the failing instruction.
func (p *Machine) Step() (info Info, err error) {
	defer func() {
		if p.sound > 0 {
			info |= Sound
		}
		if p.delay > 0 {
			info |= Delay
		}
	}()

	if p.waiting {
		return Waiting, nil
	}

	pc := p.pc

	op, err := p.Fetch(pc)
	if err != nil {
		return 0, &ErrRuntime{PC: pc, Err: err}
	}
	p.current = op

	p.pc += 2

	info, err = execute(p, op)
	info |= Executed
	if err != nil {
		if Fatal(err) {
			p.pc = pc
		}
		return info, &ErrRuntime{PC: pc, Opcode: op, Err: err}
	}

	return info, nil
}
