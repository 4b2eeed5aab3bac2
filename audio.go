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
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/generator"
	"github.com/gordonklaus/portaudio"

	"emul8/internal/translate"
)

const (
	bufferSize int     = 512
	note       float64 = 440.0
)

var (
	format = audio.FormatMono44100
)

// Tone is a sound that plays while the sound timer runs.
type Tone interface {
	Start(ctx context.Context) error
	Stop()
}

// Beep plays a sine wave through the default audio device.
type Beep struct {
	Logger *log.Logger

	wg      sync.WaitGroup
	beeping atomic.Bool
}

var _ Tone = (*Beep)(nil)

func (b *Beep) logf(msg string, args ...any) {
	logger := b.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Print(translate.From(msg, args...))
}

// Start begins playback unless the beep is already playing. Playback
// stops on Stop or when ctx is done.
func (b *Beep) Start(ctx context.Context) error {
	if b.beeping.Load() {
		return nil
	}

	err := portaudio.Initialize()
	if err != nil {
		return err
	}

	buffer := &audio.FloatBuffer{
		Data:   make([]float64, bufferSize),
		Format: format,
	}

	osc := generator.NewOsc(generator.WaveSine, note, buffer.Format.SampleRate)
	osc.Amplitude = 1

	out := make([]float32, bufferSize)

	stream, err := portaudio.OpenDefaultStream(0, format.NumChannels, float64(format.SampleRate), len(out), &out)
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return err
	}

	b.beeping.Store(true)

	b.wg.Go(func() {
		defer func() {
			b.beeping.Store(false)
			_ = stream.Stop()
			_ = stream.Close()
			_ = portaudio.Terminate()
		}()

		for b.beeping.Load() && ctx.Err() == nil {
			if err := osc.Fill(buffer); err != nil {
				b.logf("error filling the audio buffer: %v", err)
			}

			f64Tof32(out, buffer.Data)

			if err := stream.Write(); err != nil {
				b.logf("error writing to stream: %v", err)
			}
		}
	})

	return nil
}

// Stop ends playback and waits for the stream to close.
func (b *Beep) Stop() {
	if !b.beeping.Load() {
		return
	}
	b.beeping.Store(false)
	b.wg.Wait()
}

func f64Tof32(dst []float32, src []float64) {
	for i := range src {
		dst[i] = float32(src[i])
	}
}
