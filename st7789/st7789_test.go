// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/GermanBionicSystems/mipidsi/dcs"
	"github.com/GermanBionicSystems/mipidsi/rgb565"
)

type busRecord struct {
	op     byte
	params []byte
	data   []byte
}

// fakeBus records everything written to it, optionally failing the n-th
// operation.
type fakeBus struct {
	records []busRecord
	failAt  int
	n       int
}

func (b *fakeBus) WriteCommand(cmd dcs.Command) error {
	b.n++
	if b.failAt != 0 && b.n == b.failAt {
		return errFakeBus
	}
	b.records = append(b.records, busRecord{op: cmd.Opcode(), params: cmd.Params()})
	return nil
}

func (b *fakeBus) WriteCommandData(cmd dcs.Command, data []byte) error {
	if err := b.WriteCommand(cmd); err != nil {
		return err
	}
	cur := &b.records[len(b.records)-1]
	cur.data = append(cur.data, data...)
	return nil
}

func (b *fakeBus) String() string {
	return "fakebus"
}

// recordDelayer collects requested delays instead of sleeping.
type recordDelayer struct {
	delays []time.Duration
}

func (r *recordDelayer) Delay(d time.Duration) {
	r.delays = append(r.delays, d)
}

// failPin fails every level change.
type failPin struct {
	gpiotest.Pin
	err error
}

func (p *failPin) Out(l gpio.Level) error {
	return p.err
}

func newTestDev(t *testing.T, opts *Opts) (*Dev, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	o.Delay = &recordDelayer{}
	dev, err := New(bus, &gpiotest.Pin{N: "RST"}, &o)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	bus.records = nil
	return dev, bus
}

func TestNewDefaults(t *testing.T) {
	bus := &fakeBus{}
	delay := &recordDelayer{}
	opts := DefaultOpts
	opts.Delay = delay

	dev, err := New(bus, &gpiotest.Pin{N: "RST"}, &opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if got := dev.Bounds(); got != image.Rect(0, 0, 240, 320) {
		t.Errorf("Bounds() = %v, want 240x320", got)
	}
	if got := dev.AddressMode(); got != 0 {
		t.Errorf("AddressMode() = %#02x, want 0", byte(got))
	}
	if got := dev.String(); got != "st7789.Dev{fakebus, 240x320}" {
		t.Errorf("String() = %q", got)
	}

	want := []busRecord{
		{op: 0x11},
		{op: 0x33, params: []byte{0x00, 0x00, 0x01, 0x40, 0x00, 0x00}},
		{op: 0x36, params: []byte{0x00}},
		{op: 0x20},
		{op: 0x3a, params: []byte{0x55}},
		{op: 0x13},
		{op: 0x29},
	}
	if diff := cmp.Diff(bus.records, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(busRecord{})); diff != "" {
		t.Errorf("init stream difference (-got +want):\n%s", diff)
	}

	// The reset pulse plus the five settle delays.
	wantDelays := []time.Duration{
		10 * time.Microsecond,
		150 * time.Millisecond,
		10 * time.Millisecond,
		10 * time.Millisecond,
		10 * time.Millisecond,
		120 * time.Millisecond,
	}
	if diff := cmp.Diff(delay.delays, wantDelays); diff != "" {
		t.Errorf("delay difference (-got +want):\n%s", diff)
	}
}

func TestNewSoftReset(t *testing.T) {
	bus := &fakeBus{}
	opts := DefaultOpts
	opts.Delay = &recordDelayer{}

	if _, err := New(bus, nil, &opts); err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if len(bus.records) == 0 || bus.records[0].op != 0x01 {
		t.Errorf("first command = %+v, want SWRESET", bus.records)
	}
}

func TestNewAddressMode(t *testing.T) {
	opts := DefaultOpts
	opts.MirrorX = true
	opts.SwapXY = true
	opts.BGR = true
	dev, _ := newTestDev(t, &opts)

	want := dcs.MirrorX | dcs.SwapXY | dcs.BGR
	if got := dev.AddressMode(); got != want {
		t.Errorf("AddressMode() = %#02x, want %#02x", byte(got), byte(want))
	}
}

func TestNewWindowValidation(t *testing.T) {
	opts := DefaultOpts
	opts.WindowW = 300
	opts.Delay = &recordDelayer{}
	if _, err := New(&fakeBus{}, nil, &opts); err == nil {
		t.Error("New() should reject a window wider than the panel")
	}

	if _, err := New(&fakeBus{}, nil, &Opts{W: -1, H: 320}); err == nil {
		t.Error("New() should reject a negative size")
	}
}

func TestNewBusFailure(t *testing.T) {
	// 7 commands follow the hard reset; whichever fails, nothing may be
	// sent after it.
	for failAt := 1; failAt <= 7; failAt++ {
		bus := &fakeBus{failAt: failAt}
		opts := DefaultOpts
		opts.Delay = &recordDelayer{}

		_, err := New(bus, &gpiotest.Pin{N: "RST"}, &opts)
		if err == nil {
			t.Fatalf("failAt=%d: New() should have failed", failAt)
		}
		var ie *InitError
		if !errors.As(err, &ie) {
			t.Fatalf("failAt=%d: error %v is not an *InitError", failAt, err)
		}
		if ie.Reset {
			t.Errorf("failAt=%d: InitError.Reset = true, want false", failAt)
		}
		if got := len(bus.records); got != failAt-1 {
			t.Errorf("failAt=%d: got %d commands, want %d", failAt, got, failAt-1)
		}
	}
}

func TestNewResetFailure(t *testing.T) {
	pinErr := errors.New("line stuck")
	bus := &fakeBus{}
	opts := DefaultOpts
	opts.Delay = &recordDelayer{}

	_, err := New(bus, &failPin{err: pinErr}, &opts)
	if err == nil {
		t.Fatal("New() should have failed")
	}
	var ie *InitError
	if !errors.As(err, &ie) {
		t.Fatalf("error %v is not an *InitError", err)
	}
	if !ie.Reset {
		t.Error("InitError.Reset = false, want true")
	}
	if !errors.Is(err, pinErr) {
		t.Errorf("cause %v not preserved", ie.Err)
	}
	if len(bus.records) != 0 {
		t.Errorf("%d commands sent after a reset failure", len(bus.records))
	}
}

func TestWritePixels(t *testing.T) {
	dev, bus := newTestDev(t, nil)

	colors := []rgb565.Pixel{0x1234, 0xabcd, 0x0001}
	if err := dev.WritePixels(colors); err != nil {
		t.Fatalf("WritePixels() failed: %v", err)
	}

	want := []busRecord{
		{op: 0x2c, data: []byte{0x12, 0x34, 0xab, 0xcd, 0x00, 0x01}},
	}
	if diff := cmp.Diff(bus.records, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(busRecord{})); diff != "" {
		t.Errorf("WritePixels() stream difference (-got +want):\n%s", diff)
	}
}

func TestWritePixelsEmpty(t *testing.T) {
	dev, bus := newTestDev(t, nil)

	if err := dev.WritePixels(nil); err != nil {
		t.Fatalf("WritePixels() failed: %v", err)
	}
	if len(bus.records) != 1 || bus.records[0].op != 0x2c || len(bus.records[0].data) != 0 {
		t.Errorf("records = %+v, want a single bare RAMWR", bus.records)
	}
}

func TestDraw(t *testing.T) {
	opts := DefaultOpts
	opts.WindowW = 4
	opts.WindowH = 2
	dev, bus := newTestDev(t, &opts)

	img := rgb565.NewImage(dev.Bounds())
	img.SetPixel(0, 0, 0xf800)
	img.SetPixel(3, 1, 0x001f)
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		t.Fatalf("Draw() failed: %v", err)
	}

	want := []busRecord{{
		op: 0x2c,
		data: []byte{
			0xf8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1f,
		},
	}}
	if diff := cmp.Diff(bus.records, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(busRecord{})); diff != "" {
		t.Errorf("Draw() stream difference (-got +want):\n%s", diff)
	}

	// A non-native source goes through the conversion buffer and must
	// produce the same payload.
	bus.records = nil
	gray := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	if err := dev.Draw(dev.Bounds(), gray, image.Point{}); err != nil {
		t.Fatalf("Draw() failed: %v", err)
	}
	if len(bus.records) != 1 || len(bus.records[0].data) != 16 {
		t.Errorf("converted Draw() = %+v, want one RAMWR with 16 data bytes", bus.records)
	}
}

func TestInvert(t *testing.T) {
	dev, bus := newTestDev(t, nil)

	if err := dev.Invert(true); err != nil {
		t.Fatalf("Invert() failed: %v", err)
	}
	if err := dev.Invert(false); err != nil {
		t.Fatalf("Invert() failed: %v", err)
	}

	want := []busRecord{{op: 0x21}, {op: 0x20}}
	if diff := cmp.Diff(bus.records, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(busRecord{})); diff != "" {
		t.Errorf("Invert() stream difference (-got +want):\n%s", diff)
	}
}

func TestHalt(t *testing.T) {
	dev, bus := newTestDev(t, nil)

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	if len(bus.records) != 1 || bus.records[0].op != 0x28 {
		t.Errorf("records = %+v, want a single DISPOFF", bus.records)
	}
}
