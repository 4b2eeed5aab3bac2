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

// Package emul8 runs a CHIP-8 machine in a desktop window with keyboard
// input and a beeper.
package emul8

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"

	"emul8/chip8"
	"emul8/internal/translate"
)

var f = translate.From

var ErrNoKeyboard = errors.New(f("emulator cannot be run on mobile"))

// KeyMap places the hexadecimal keypad on the left of a QWERTY keyboard.
var KeyMap = map[fyne.KeyName]uint8{
	fyne.Key1: 0x1, fyne.Key2: 0x2, fyne.Key3: 0x3, fyne.Key4: 0xC,
	fyne.KeyQ: 0x4, fyne.KeyW: 0x5, fyne.KeyE: 0x6, fyne.KeyR: 0xD,
	fyne.KeyA: 0x7, fyne.KeyS: 0x8, fyne.KeyD: 0x9, fyne.KeyF: 0xE,
	fyne.KeyZ: 0xA, fyne.KeyX: 0x0, fyne.KeyC: 0xB, fyne.KeyV: 0xF,
}

// Emulator drives a machine from a clock, feeds it keyboard input and
// presents its display and sound timer.
//
// The machine is only touched with mu held: the clock goroutine steps it
// and ticks its timers, the window thread delivers keys.
type Emulator struct {
	Config

	mu      sync.Mutex
	machine *chip8.Machine
	tone    Tone
	playing bool
}

// NewEmulator wraps machine. A nil tone plays a Beep.
func NewEmulator(machine *chip8.Machine, cfg Config, tone Tone) *Emulator {
	if cfg.Logger == nil {
		cfg.Logger = DefaultConfig().Logger
	}
	if tone == nil {
		tone = &Beep{Logger: cfg.Logger}
	}

	return &Emulator{
		Config:  cfg,
		machine: machine,
		tone:    tone,
	}
}

// KeyDown presses the keypad key mapped to name.
func (e *Emulator) KeyDown(name fyne.KeyName) {
	e.setKey(name, true)
}

// KeyUp releases the keypad key mapped to name.
func (e *Emulator) KeyUp(name fyne.KeyName) {
	e.setKey(name, false)
}

func (e *Emulator) setKey(name fyne.KeyName, pressed bool) {
	hex, ok := KeyMap[name]
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.SetKey(hex, pressed)
}

// Cycle executes one instruction. Unknown instructions are logged and
// skipped; any other error is returned.
func (e *Emulator) Cycle(ctx context.Context) (chip8.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pc := e.machine.ProgramCounter()

	info, err := e.machine.Step()
	if e.Verbose && info.Has(chip8.Executed) {
		op := e.machine.Current()
		e.Logger.Printf("0x%03X %04X %v", pc, uint16(op), op)
	}

	if err != nil {
		if chip8.Fatal(err) {
			return info, err
		}
		e.Logger.Print(f("skipping %v", err))
	}

	e.updateTone(ctx)

	return info, nil
}

// Tick runs the machine timers once.
func (e *Emulator) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.machine.TickTimers()
	e.updateTone(ctx)
}

// updateTone plays the tone while the sound timer is running.
func (e *Emulator) updateTone(ctx context.Context) {
	sounding := e.machine.SoundTimer() > 0 && !e.Mute
	if sounding == e.playing {
		return
	}

	if sounding {
		if err := e.tone.Start(ctx); err != nil {
			e.Logger.Print(f("error starting sound: %v", err))
			return
		}
	} else {
		e.tone.Stop()
	}
	e.playing = sounding
}

// Frame renders the current display into dst.
func (e *Emulator) Frame(dst *image.RGBA) {
	e.mu.Lock()
	frame := e.machine.Framebuffer()
	e.mu.Unlock()

	RenderFrame(dst, &frame, e.Foreground, e.Background)
}

// RenderFrame paints each display pixel of frame at the same coordinate
// of dst.
func RenderFrame(dst *image.RGBA, frame *[chip8.Area]byte, fg, bg color.Color) {
	for i, val := range frame {
		x, y := i%chip8.Width, i/chip8.Width
		c := bg
		if val != 0 {
			c = fg
		}
		dst.Set(x, y, c)
	}
}

// redraw returns a callback that schedules a repaint through do. The
// buffer is only written inside do, on the same thread refresh paints it
// from.
func (e *Emulator) redraw(do func(func()), buffer *image.RGBA, refresh func()) func() {
	return func() {
		do(func() {
			e.Frame(buffer)
			refresh()
		})
	}
}

// Loop runs the machine clock and timers until ctx is done or the machine
// fails. redraw is called after every instruction that changed the
// display.
func (e *Emulator) Loop(ctx context.Context, redraw func()) error {
	clockRate, timerRate := e.ClockRate, e.TimerRate
	if clockRate <= 0 {
		clockRate = chip8.ClockRate
	}
	if timerRate <= 0 {
		timerRate = chip8.TimerRate
	}

	cpuTicker := time.NewTicker(clockRate)
	defer cpuTicker.Stop()

	timerTicker := time.NewTicker(timerRate)
	defer timerTicker.Stop()

	defer func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.playing {
			e.tone.Stop()
			e.playing = false
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timerTicker.C:
			e.Tick(ctx)
		case <-cpuTicker.C:
			info, err := e.Cycle(ctx)
			if err != nil {
				return err
			}
			if info.Has(chip8.Redraw) {
				redraw()
			}
		}
	}
}

// Run shows the emulator window and runs the machine until the window is
// closed, ctx is done or the machine fails.
func (e *Emulator) Run(ctx context.Context) error {
	a := app.New()
	w := a.NewWindow(e.Title)

	// Back-buffer for the pixel data, shown stretched across the window.
	buffer := image.NewRGBA(image.Rect(0, 0, chip8.Width, chip8.Height))
	e.Frame(buffer)

	img := canvas.NewImageFromImage(buffer)
	img.FillMode = canvas.ImageFillStretch  // Scales the 64x32 grid to window size
	img.ScaleMode = canvas.ImageScalePixels // Maintains "pixelated" retro look

	canv, ok := w.Canvas().(desktop.Canvas)
	if !ok {
		return ErrNoKeyboard
	}
	canv.SetOnKeyDown(func(k *fyne.KeyEvent) { e.KeyDown(k.Name) })
	canv.SetOnKeyUp(func(k *fyne.KeyEvent) { e.KeyUp(k.Name) })

	w.SetContent(img)
	w.Resize(fyne.NewSize(float32(chip8.Width*e.Scale), float32(chip8.Height*e.Scale)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var err error

	wg.Go(func() {
		err = e.Loop(ctx, e.redraw(fyne.Do, buffer, img.Refresh))
		if err != nil {
			e.Logger.Print(f("halted: %v", err))
		}
		fyne.Do(a.Quit)
	})

	w.ShowAndRun()
	cancel()
	wg.Wait()

	return err
}
