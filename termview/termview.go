// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a fake DCS panel that renders to the terminal
// (stdout) using ANSI color codes.
//
// Dev implements the same write-only bus contract real hardware sits
// behind, so a controller model can be pointed at it unchanged: pixel data
// streamed after the memory-write command shows up as colored blocks.
//
// Useful while you are waiting for your panel to come by mail, or to eyeball
// a command stream on a development host.
package termview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/GermanBionicSystems/mipidsi/dcs"
	"github.com/GermanBionicSystems/mipidsi/rgb565"
)

// Opts represents the options available for this fake panel.
type Opts struct {
	// W and H is the emulated frame size in pixels. Keep it small; one
	// terminal cell is printed per pixel.
	W int
	H int
	// Palette is the ANSI palette used for rendering. Nil uses
	// ansi256.Default.
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a terminal-backed panel emulator.
type Dev struct {
	w       io.Writer
	width   int
	height  int
	palette ansi256.Palette

	invert bool
	frame  []rgb565.Pixel
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Dev{
		w:       colorable.NewColorableStdout(),
		width:   opts.W,
		height:  opts.H,
		palette: *p,
		frame:   make([]rgb565.Pixel, opts.W*opts.H),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("termview.Dev{%dx%d}", d.width, d.height)
}

// WriteCommand implements dcs.Bus.
//
// Commands that change what the emulated panel shows are honored; the rest
// are accepted and discarded, like a panel that is already configured.
func (d *Dev) WriteCommand(cmd dcs.Command) error {
	if m, ok := cmd.(dcs.SetInvertMode); ok {
		d.invert = bool(m)
	}
	return nil
}

// WriteCommandData implements dcs.Bus.
//
// A memory-write command followed by big-endian RGB565 pixel data refreshes
// the terminal output. Payloads longer than the frame are truncated, as on
// hardware where extra bytes wrap the write window.
func (d *Dev) WriteCommandData(cmd dcs.Command, data []byte) error {
	if _, ok := cmd.(dcs.WriteMemoryStart); !ok {
		return d.WriteCommand(cmd)
	}
	if len(data)%2 != 0 {
		return errors.New("termview: pixel payload must be an even number of bytes")
	}
	n := len(data) / 2
	if n > len(d.frame) {
		n = len(d.frame)
	}
	for i := 0; i < n; i++ {
		d.frame[i] = rgb565.Pixel(binary.BigEndian.Uint16(data[2*i:]))
	}
	return d.refresh()
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the shell is not left corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per
	// call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[0m")
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			p := d.frame[y*d.width+x]
			if d.invert {
				p = ^p
			}
			r, g, b, _ := p.RGBA()
			c := color.NRGBA{R: byte(r >> 8), G: byte(g >> 8), B: byte(b >> 8), A: 255}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ dcs.Bus = &Dev{}
var _ fmt.Stringer = &Dev{}
