// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/mipidsi/dcs"
	"github.com/GermanBionicSystems/mipidsi/rgb565"
)

// FramebufferW and FramebufferH are the native size of the cropped 240x135
// panel variant driven by Framebuffer. The buffer size is a compile-time
// invariant of this variant.
const (
	FramebufferW = 240
	FramebufferH = 135
)

// DefaultFramebufferOpts is the recommended configuration for the 240x135
// panel variant.
var DefaultFramebufferOpts = Opts{
	W:       FramebufferW,
	H:       FramebufferH,
	WindowW: FramebufferW,
	WindowH: FramebufferH,
}

// NewFramebuffer returns an initialized handle to a 240x135 panel reached
// through b.
//
// Initialization runs under ctx, suspending at each bus write and each
// delay. A cancelled initialization leaves the panel in an unspecified
// state; a fresh full Init is required before reuse. rst may be nil to fall
// back to the soft reset command; opts may be nil for
// DefaultFramebufferOpts.
func NewFramebuffer(ctx context.Context, b dcs.ContextBus, rst gpio.PinOut, opts *Opts) (*Framebuffer, error) {
	if opts == nil {
		opts = &DefaultFramebufferOpts
	}
	o := *opts
	if err := o.normalize(); err != nil {
		return nil, err
	}
	if o.W != FramebufferW || o.H != FramebufferH {
		return nil, fmt.Errorf("st7789: the framebuffer model is fixed at %dx%d, got %dx%d", FramebufferW, FramebufferH, o.W, o.H)
	}
	f := &Framebuffer{bus: b, rst: rst, wait: o.ContextDelay, opts: o}
	if f.wait == nil {
		f.wait = timerDelayer{}
	}
	if err := f.Init(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Framebuffer is a controller model that owns a full frame of pixels and
// sends it to the panel in one transfer per Flush.
//
// Clear and WritePixel touch only the in-memory frame; nothing reaches the
// bus until Flush. A Framebuffer is not safe for concurrent use.
type Framebuffer struct {
	bus  dcs.ContextBus
	rst  gpio.PinOut
	wait ContextDelayer
	opts Opts

	madctl dcs.SetAddressMode
	buf    [FramebufferW * FramebufferH]rgb565.Pixel
}

// Init runs the same panel bring-up sequence as the streaming model, with
// the scroll area sized to this variant's native height. NewFramebuffer
// calls it; call it again only to recover after an earlier failure or
// cancellation.
func (f *Framebuffer) Init(ctx context.Context) error {
	madctl, err := runInit(&ctxController{ctx: ctx, bus: f.bus, rst: f.rst, wait: f.wait}, &f.opts)
	if err != nil {
		return err
	}
	f.madctl = madctl
	return nil
}

// AddressMode returns the address mode value applied by the last Init.
func (f *Framebuffer) AddressMode() dcs.SetAddressMode {
	return f.madctl
}

// Clear overwrites every framebuffer slot with c. No bus activity.
func (f *Framebuffer) Clear(c rgb565.Pixel) {
	for i := range f.buf {
		f.buf[i] = c
	}
}

// WritePixel sets the framebuffer slot at (x, y). No bus activity.
//
// Coordinates outside the panel are caller misuse, not a runtime condition,
// and panic.
func (f *Framebuffer) WritePixel(x, y int, c rgb565.Pixel) {
	if x < 0 || x >= FramebufferW || y < 0 || y >= FramebufferH {
		panic(fmt.Sprintf("st7789: pixel (%d, %d) outside the %dx%d framebuffer", x, y, FramebufferW, FramebufferH))
	}
	f.buf[x+y*FramebufferW] = c
}

// Flush opens the frame memory write window and transmits the entire
// framebuffer as one fixed-size big-endian payload. It is the only
// operation that moves pixel data to the panel; call it after any batch of
// Clear and WritePixel calls to make the changes visible.
func (f *Framebuffer) Flush(ctx context.Context) error {
	return f.bus.WriteCommandData(ctx, dcs.WriteMemoryStart{}, rgb565.Encode(f.buf[:]))
}

// ColorModel implements image.Image.
func (f *Framebuffer) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements image.Image. Min is guaranteed to be {0, 0}.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, FramebufferW, FramebufferH)
}

// At implements image.Image.
func (f *Framebuffer) At(x, y int) color.Color {
	if x < 0 || x >= FramebufferW || y < 0 || y >= FramebufferH {
		return rgb565.Pixel(0)
	}
	return f.buf[x+y*FramebufferW]
}

// Set implements draw.Image, so image/draw and graphics libraries can
// render into the frame. Unlike WritePixel it follows the image package
// convention of ignoring out-of-bounds points.
func (f *Framebuffer) Set(x, y int, c color.Color) {
	if x < 0 || x >= FramebufferW || y < 0 || y >= FramebufferH {
		return
	}
	f.buf[x+y*FramebufferW] = rgb565.Model.Convert(c).(rgb565.Pixel)
}

func (f *Framebuffer) String() string {
	return fmt.Sprintf("st7789.Framebuffer{%s, %dx%d}", f.bus, FramebufferW, FramebufferH)
}

var _ draw.Image = &Framebuffer{}
