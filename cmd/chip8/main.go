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

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"emul8"
	"emul8/chip8"
)

func main() {
	var rom string
	var hz int
	var scale int
	var mute bool
	var verbose bool

	flag.StringVar(&rom, "rom", "", "CHIP-8 program to run")
	flag.IntVar(&hz, "hz", 700, "Instructions per second")
	flag.IntVar(&scale, "scale", 10, "Window pixels per display pixel")
	flag.BoolVar(&mute, "mute", false, "Disable the beeper")
	flag.BoolVar(&verbose, "v", false, "Trace every instruction")

	flag.Parse()

	if len(rom) == 0 && flag.NArg() == 1 {
		rom = flag.Arg(0)
	} else if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(rom) == 0 {
		log.Fatalf("%v: no program given", os.Args[0])
	}

	program, err := chip8.LoadROM(rom)
	if err != nil {
		log.Fatal(err)
	}

	machine, err := chip8.New(program)
	if err != nil {
		log.Fatalf("%v: %v", rom, err)
	}

	cfg := emul8.DefaultConfig()
	cfg.Title = filepath.Base(rom)
	cfg.ClockRate = emul8.ClockHz(hz)
	cfg.Mute = mute
	cfg.Verbose = verbose
	if scale > 0 {
		cfg.Scale = scale
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := emul8.NewEmulator(machine, cfg, nil)

	err = e.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
}
