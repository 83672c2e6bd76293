// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/mipidsi/dcs"
)

// resetPulse is how long the reset line is held low during a hard reset.
const resetPulse = 10 * time.Microsecond

// controller abstracts the blocking and context-bound transports so the
// bring-up sequence is written once and shared by both models.
type controller interface {
	// hardReset toggles the reset line, returning false when no line is
	// wired.
	hardReset() (bool, error)
	sendCommand(cmd dcs.Command) error
	delay(d time.Duration) error
}

// sequencer latches the first failure and skips everything after it, so a
// failing step is always the last one to touch the bus.
type sequencer struct {
	ctrl controller
	err  error
}

func (s *sequencer) command(cmd dcs.Command) {
	if s.err != nil {
		return
	}
	if err := s.ctrl.sendCommand(cmd); err != nil {
		s.err = &InitError{Err: err}
	}
}

func (s *sequencer) delay(d time.Duration) {
	if s.err != nil {
		return
	}
	if err := s.ctrl.delay(d); err != nil {
		s.err = &InitError{Err: err}
	}
}

// runInit executes the panel bring-up state machine. The command order is
// fixed regardless of option values; the first error aborts the sequence
// and leaves the panel in an undefined state.
func runInit(ctrl controller, opts *Opts) (dcs.SetAddressMode, error) {
	madctl := opts.addressMode()
	t := opts.timings()

	hard, err := ctrl.hardReset()
	if err != nil {
		return 0, &InitError{Reset: true, Err: err}
	}
	seq := sequencer{ctrl: ctrl}
	if !hard {
		seq.command(dcs.SoftReset{})
	}
	seq.delay(t.Reset)

	seq.command(dcs.ExitSleepMode{})
	seq.delay(t.SleepOut)

	// The scroll area always spans the panel's native height so the
	// caller's logical window stays addressable inside the fixed panel
	// memory.
	seq.command(dcs.SetScrollArea{Height: uint16(opts.H)})
	seq.command(madctl)

	seq.command(dcs.SetInvertMode(opts.InvertColors))

	seq.command(dcs.PixelFormat16)
	seq.delay(t.PixelFormat)
	seq.command(dcs.EnterNormalMode{})
	seq.delay(t.NormalMode)
	seq.command(dcs.SetDisplayOn{})

	// DISPON needs time before the first transfer or the output shows
	// corruption.
	seq.delay(t.DisplayOn)

	if seq.err != nil {
		return 0, seq.err
	}
	return madctl, nil
}

// syncController drives a blocking bus.
type syncController struct {
	bus  dcs.Bus
	rst  gpio.PinOut
	wait Delayer
}

func (c *syncController) hardReset() (bool, error) {
	if c.rst == nil {
		return false, nil
	}
	if err := c.rst.Out(gpio.Low); err != nil {
		return true, err
	}
	c.wait.Delay(resetPulse)
	if err := c.rst.Out(gpio.High); err != nil {
		return true, err
	}
	return true, nil
}

func (c *syncController) sendCommand(cmd dcs.Command) error {
	return c.bus.WriteCommand(cmd)
}

func (c *syncController) delay(d time.Duration) error {
	c.wait.Delay(d)
	return nil
}

// ctxController drives a context-bound bus. The context applies to every
// suspension point: each command write and each delay.
type ctxController struct {
	ctx  context.Context
	bus  dcs.ContextBus
	rst  gpio.PinOut
	wait ContextDelayer
}

func (c *ctxController) hardReset() (bool, error) {
	if c.rst == nil {
		return false, nil
	}
	if err := c.rst.Out(gpio.Low); err != nil {
		return true, err
	}
	if err := c.wait.Delay(c.ctx, resetPulse); err != nil {
		return true, err
	}
	if err := c.rst.Out(gpio.High); err != nil {
		return true, err
	}
	return true, nil
}

func (c *ctxController) sendCommand(cmd dcs.Command) error {
	return c.bus.WriteCommand(c.ctx, cmd)
}

func (c *ctxController) delay(d time.Duration) error {
	return c.wait.Delay(c.ctx, d)
}
