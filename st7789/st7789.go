// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7789 controls Sitronix ST7789 series TFT LCD controllers over a
// MIPI DCS write-only bus.
//
// Two models are provided. Dev streams pixels straight to the bus as they
// arrive. Framebuffer accumulates pixel writes into an owned buffer for the
// cropped 240x135 panel variant and pushes the whole frame in one transfer,
// trading memory for fewer bus transactions.
//
// # Datasheet
//
// https://www.crystalfontz.com/controllers/Sitronix/ST7789V/
package st7789

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/mipidsi/dcs"
	"github.com/GermanBionicSystems/mipidsi/rgb565"
)

// DefaultOpts is the recommended configuration for the common 240x320
// panel.
//
// Uninverted colors are the vendor default for this panel family, not a
// universal truth: modules assembled for inverted operation must set
// InvertColors explicitly.
var DefaultOpts = Opts{
	W:       240,
	H:       320,
	WindowW: 240,
	WindowH: 320,
}

// Opts is the configuration for a panel.
type Opts struct {
	// W and H are the panel's native size in pixels.
	W int
	H int

	// WindowW and WindowH bound the addressable window the caller draws
	// into. Zero means the native size. The window may be smaller than the
	// panel; the scroll area keeps it addressable inside the fixed panel
	// memory.
	WindowW int
	WindowH int

	// InvertColors drives the panel's color inversion stage.
	InvertColors bool

	// MirrorX, MirrorY, SwapXY and BGR select the address mode bits
	// controlling scan orientation and subpixel order. Try toggling these
	// if the picture is flipped or colors come out swapped.
	MirrorX bool
	MirrorY bool
	SwapXY  bool
	BGR     bool

	// Timings overrides the settle delays used during initialization. Nil
	// uses DefaultTimings.
	Timings *Timings

	// Delay overrides how the blocking model waits out settle times. Nil
	// sleeps with time.Sleep.
	Delay Delayer

	// ContextDelay overrides how the framebuffer model waits out settle
	// times. Nil uses a timer honoring context cancellation.
	ContextDelay ContextDelayer
}

// Timings holds the settle delays inserted during panel initialization.
//
// The defaults carry generous margins over what most datasheets strictly
// require, chosen against supply noise on marginal boards. Only shorten them
// after validating against the actual target panel.
type Timings struct {
	// Reset is waited after the reset, hardware or soft.
	Reset time.Duration
	// SleepOut is waited after leaving sleep mode.
	SleepOut time.Duration
	// PixelFormat is waited after selecting the pixel format.
	PixelFormat time.Duration
	// NormalMode is waited after entering normal mode.
	NormalMode time.Duration
	// DisplayOn is waited after enabling output. Too short a wait here
	// corrupts the first transfers while the charge pumps stabilize.
	DisplayOn time.Duration
}

// DefaultTimings are the settle delays used when Opts.Timings is nil.
var DefaultTimings = Timings{
	Reset:       150 * time.Millisecond,
	SleepOut:    10 * time.Millisecond,
	PixelFormat: 10 * time.Millisecond,
	NormalMode:  10 * time.Millisecond,
	DisplayOn:   120 * time.Millisecond,
}

// Delayer waits out panel settle times for the blocking model.
type Delayer interface {
	Delay(d time.Duration)
}

// ContextDelayer waits out panel settle times for callers running under a
// context. It returns the context's error when cancelled before the delay
// elapsed.
type ContextDelayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

type sleepDelayer struct{}

func (sleepDelayer) Delay(d time.Duration) {
	time.Sleep(d)
}

type timerDelayer struct{}

func (timerDelayer) Delay(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// InitError is returned when panel bring-up fails.
//
// Reset distinguishes a reset line failure from a bus failure so the caller
// knows which wiring to suspect. After an InitError the panel state is
// undefined; the device must not be used before a successful re-Init.
type InitError struct {
	// Reset is true when toggling the reset line failed, false when a
	// command or data transfer failed.
	Reset bool
	Err   error
}

func (e *InitError) Error() string {
	if e.Reset {
		return fmt.Sprintf("st7789: reset line: %v", e.Err)
	}
	return fmt.Sprintf("st7789: init: %v", e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func (o *Opts) normalize() error {
	if o.W <= 0 || o.H <= 0 {
		return fmt.Errorf("st7789: invalid panel size %dx%d", o.W, o.H)
	}
	if o.WindowW == 0 {
		o.WindowW = o.W
	}
	if o.WindowH == 0 {
		o.WindowH = o.H
	}
	if o.WindowW > o.W || o.WindowH > o.H {
		return fmt.Errorf("st7789: window %dx%d exceeds panel %dx%d", o.WindowW, o.WindowH, o.W, o.H)
	}
	return nil
}

// addressMode folds the orientation options into the MADCTL value.
func (o *Opts) addressMode() dcs.SetAddressMode {
	var m dcs.SetAddressMode
	if o.MirrorY {
		m |= dcs.MirrorY
	}
	if o.MirrorX {
		m |= dcs.MirrorX
	}
	if o.SwapXY {
		m |= dcs.SwapXY
	}
	if o.BGR {
		m |= dcs.BGR
	}
	return m
}

func (o *Opts) timings() Timings {
	if o.Timings != nil {
		return *o.Timings
	}
	return DefaultTimings
}

// New returns an initialized handle to a panel reached through b.
//
// rst is the GPIO line wired to the controller's reset input; pass nil to
// fall back to the soft reset command. opts may be nil for DefaultOpts.
func New(b dcs.Bus, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if err := o.normalize(); err != nil {
		return nil, err
	}
	d := &Dev{bus: b, rst: rst, delay: o.Delay, opts: o}
	if d.delay == nil {
		d.delay = sleepDelayer{}
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Dev is an open handle to the streaming controller model. It holds no
// pixel data; writes go straight to the bus.
//
// A Dev is not safe for concurrent use; it assumes exclusive ownership of
// the bus by one caller at a time.
type Dev struct {
	bus   dcs.Bus
	rst   gpio.PinOut
	delay Delayer
	opts  Opts

	madctl dcs.SetAddressMode
	// next is lazily allocated on first Draw with a non-native source.
	next *rgb565.Image
}

// Init runs the panel bring-up sequence: reset, sleep exit, scroll area,
// address mode, inversion, pixel format, normal mode, display on, each with
// its settle delay. New calls it; call it again only to recover after an
// earlier failure, in which case the whole sequence reruns from the reset.
func (d *Dev) Init() error {
	madctl, err := runInit(&syncController{bus: d.bus, rst: d.rst, wait: d.delay}, &d.opts)
	if err != nil {
		return err
	}
	d.madctl = madctl
	return nil
}

// AddressMode returns the address mode value applied by the last Init,
// letting the caller reconcile logical and physical orientation.
func (d *Dev) AddressMode() dcs.SetAddressMode {
	return d.madctl
}

// WritePixels opens the frame memory write window and streams colors to the
// panel as one continuous big-endian payload, in input order.
//
// The controller advances through its memory in scan order; the caller is
// responsible for providing the pixels the current window expects.
func (d *Dev) WritePixels(colors []rgb565.Pixel) error {
	return d.bus.WriteCommandData(dcs.WriteMemoryStart{}, rgb565.Encode(colors))
}

// Invert toggles panel color inversion without reinitializing.
func (d *Dev) Invert(invert bool) error {
	return d.bus.WriteCommand(dcs.SetInvertMode(invert))
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.opts.WindowW, d.opts.WindowH)
}

// Draw implements display.Drawer.
//
// The source is rendered into a full-window RGB565 buffer and streamed in
// one transfer. Sources already in *rgb565.Image form at full window size
// skip the conversion.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if img, ok := src.(*rgb565.Image); ok && r == d.Bounds() && img.Rect == r && sp == (image.Point{}) {
		return d.WritePixels(img.Pix)
	}
	if d.next == nil {
		d.next = rgb565.NewImage(d.Bounds())
	}
	draw.Src.Draw(d.next, r.Intersect(d.Bounds()), src, sp)
	return d.WritePixels(d.next.Pix)
}

// Halt implements conn.Resource. It blanks the panel output. Frame memory
// is kept; a later Init turns the output back on.
func (d *Dev) Halt() error {
	return d.bus.WriteCommand(dcs.SetDisplayOff{})
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7789.Dev{%s, %dx%d}", d.bus, d.opts.W, d.opts.H)
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
