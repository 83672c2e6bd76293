// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dcs implements the MIPI Display Command Set vocabulary spoken by
// TFT controllers such as the Sitronix ST7789 family, together with the
// write-only bus contracts used to reach them.
//
// Each DCS instruction is its own Command type carrying its parameter
// payload. The command set is fixed per the MIPI DCS specification, so the
// vocabulary is closed: drivers construct command values from their options
// and hand them to a Bus for framing on the wire.
//
// # Datasheet
//
// https://www.crystalfontz.com/controllers/Sitronix/ST7789V/
package dcs

import "encoding/binary"

// DCS opcodes.
const (
	opSoftReset       byte = 0x01 // SWRESET
	opExitSleepMode   byte = 0x11 // SLPOUT
	opEnterNormalMode byte = 0x13 // NORON
	opExitInvertMode  byte = 0x20 // INVOFF
	opEnterInvertMode byte = 0x21 // INVON
	opSetDisplayOff   byte = 0x28 // DISPOFF
	opSetDisplayOn    byte = 0x29 // DISPON
	opWriteMemory     byte = 0x2C // RAMWR
	opSetScrollArea   byte = 0x33 // VSCRDEF
	opSetAddressMode  byte = 0x36 // MADCTL
	opSetPixelFormat  byte = 0x3A // COLMOD
)

// Command is a single DCS instruction together with its parameter bytes.
type Command interface {
	// Opcode returns the instruction's wire opcode.
	Opcode() byte
	// Params returns the parameter bytes sent after the opcode. Nil means
	// the instruction takes no parameters.
	Params() []byte
}

// SoftReset commands a software reset (SWRESET). It is the fallback when no
// hardware reset line is wired.
type SoftReset struct{}

// Opcode implements Command.
func (SoftReset) Opcode() byte { return opSoftReset }

// Params implements Command.
func (SoftReset) Params() []byte { return nil }

// ExitSleepMode wakes the controller from sleep (SLPOUT). It must be issued
// after reset, before any other configuration.
type ExitSleepMode struct{}

// Opcode implements Command.
func (ExitSleepMode) Opcode() byte { return opExitSleepMode }

// Params implements Command.
func (ExitSleepMode) Params() []byte { return nil }

// EnterNormalMode leaves partial and scroll modes (NORON).
type EnterNormalMode struct{}

// Opcode implements Command.
func (EnterNormalMode) Opcode() byte { return opEnterNormalMode }

// Params implements Command.
func (EnterNormalMode) Params() []byte { return nil }

// SetInvertMode selects whether the panel inverts colors (INVON / INVOFF).
//
// The flag is encoded in the opcode; the instruction has no parameters.
type SetInvertMode bool

// Opcode implements Command.
func (m SetInvertMode) Opcode() byte {
	if m {
		return opEnterInvertMode
	}
	return opExitInvertMode
}

// Params implements Command.
func (SetInvertMode) Params() []byte { return nil }

// SetDisplayOff blanks the panel output (DISPOFF). Frame memory is kept.
type SetDisplayOff struct{}

// Opcode implements Command.
func (SetDisplayOff) Opcode() byte { return opSetDisplayOff }

// Params implements Command.
func (SetDisplayOff) Params() []byte { return nil }

// SetDisplayOn enables the panel output (DISPON).
type SetDisplayOn struct{}

// Opcode implements Command.
func (SetDisplayOn) Opcode() byte { return opSetDisplayOn }

// Params implements Command.
func (SetDisplayOn) Params() []byte { return nil }

// WriteMemoryStart opens the controller's frame memory write window (RAMWR).
// Every data byte that follows, until the next command, is pixel memory in
// scan order.
type WriteMemoryStart struct{}

// Opcode implements Command.
func (WriteMemoryStart) Opcode() byte { return opWriteMemory }

// Params implements Command.
func (WriteMemoryStart) Params() []byte { return nil }

// SetScrollArea defines the vertical scrolling region (VSCRDEF): a top fixed
// band, the scrollable band and a bottom fixed band, in rows.
//
// Drivers use it to bound addressable memory to the panel's native height,
// letting a smaller logical window float inside the controller's fixed RAM.
type SetScrollArea struct {
	TopFixed    uint16
	Height      uint16
	BottomFixed uint16
}

// Opcode implements Command.
func (SetScrollArea) Opcode() byte { return opSetScrollArea }

// Params implements Command.
func (c SetScrollArea) Params() []byte {
	p := make([]byte, 6)
	binary.BigEndian.PutUint16(p[0:], c.TopFixed)
	binary.BigEndian.PutUint16(p[2:], c.Height)
	binary.BigEndian.PutUint16(p[4:], c.BottomFixed)
	return p
}

// SetAddressMode carries the memory data access control bits (MADCTL)
// controlling scan orientation and mirroring of the pixel memory.
type SetAddressMode byte

// MADCTL bits.
const (
	// MirrorY reverses the row address order, bottom to top.
	MirrorY SetAddressMode = 1 << 7
	// MirrorX reverses the column address order, right to left.
	MirrorX SetAddressMode = 1 << 6
	// SwapXY exchanges rows and columns.
	SwapXY SetAddressMode = 1 << 5
	// RefreshBottomUp reverses the vertical refresh order.
	RefreshBottomUp SetAddressMode = 1 << 4
	// BGR selects blue-green-red subpixel order instead of red-green-blue.
	BGR SetAddressMode = 1 << 3
	// RefreshRightToLeft reverses the horizontal refresh order.
	RefreshRightToLeft SetAddressMode = 1 << 2
)

// Opcode implements Command.
func (SetAddressMode) Opcode() byte { return opSetAddressMode }

// Params implements Command.
func (m SetAddressMode) Params() []byte { return []byte{byte(m)} }

// SetPixelFormat selects the interface pixel format (COLMOD).
type SetPixelFormat byte

// Pixel formats for the RGB interface.
const (
	PixelFormat12 SetPixelFormat = 0x33 // 4-4-4, 12 bits per pixel
	PixelFormat16 SetPixelFormat = 0x55 // 5-6-5, 16 bits per pixel
	PixelFormat18 SetPixelFormat = 0x66 // 6-6-6, 18 bits per pixel
)

// Opcode implements Command.
func (SetPixelFormat) Opcode() byte { return opSetPixelFormat }

// Params implements Command.
func (f SetPixelFormat) Params() []byte { return []byte{byte(f)} }
