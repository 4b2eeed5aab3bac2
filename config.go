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

package emul8

import (
	"image/color"
	"log"
	"time"

	"emul8/chip8"
)

// Config controls how an Emulator drives and presents a machine.
type Config struct {
	Title      string        // Window title.
	ClockRate  time.Duration // Time between instructions.
	TimerRate  time.Duration // Time between timer ticks.
	Scale      int           // Window pixels per display pixel.
	Foreground color.Color   // Lit pixel colour.
	Background color.Color   // Unlit pixel colour.
	Mute       bool          // Never start the beeper.
	Verbose    bool          // Log every executed instruction.
	Logger     *log.Logger
}

// DefaultConfig runs at 700 instructions per second with 60hz timers in a
// 640x320 window.
func DefaultConfig() Config {
	return Config{
		Title:      "Chip-8 Emulator",
		ClockRate:  chip8.ClockRate,
		TimerRate:  chip8.TimerRate,
		Scale:      10,
		Foreground: color.White,
		Background: color.Black,
		Logger:     log.Default(),
	}
}

// ClockHz converts an instruction rate to a ClockRate.
func ClockHz(hz int) time.Duration {
	if hz <= 0 {
		return chip8.ClockRate
	}
	return time.Second / time.Duration(hz)
}
