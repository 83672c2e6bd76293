// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dcs

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// NewSPI returns a Bus that reaches the display controller over 4-wire SPI.
//
// Connect SDA to SPI_MOSI, SCL to SPI_CLK, CS to SPI_CS and pass the GPIO
// pin wired to the controller's D/C input. The D/C pin is driven low for the
// opcode byte and high for parameter and pixel bytes.
func NewSPI(p spi.Port, dc gpio.PinOut) (*SPI, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("dcs: a valid D/C pin is required for 4-wire SPI")
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	c, err := p.Connect(32*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return &SPI{c: c, dc: dc, maxTxSize: maxTxSize(c)}, nil
}

// SPI is a 4-wire SPI realization of the Bus contract.
type SPI struct {
	c  conn.Conn
	dc gpio.PinOut

	// 0 means the port imposes no transfer size bound.
	maxTxSize int
}

func maxTxSize(c conn.Conn) int {
	if l, ok := c.(conn.Limits); ok {
		return l.MaxTxSize()
	}
	return 0
}

func (s *SPI) String() string {
	return fmt.Sprintf("dcs.SPI{%s, %s}", s.c, s.dc)
}

// WriteCommand implements Bus.
func (s *SPI) WriteCommand(cmd Command) error {
	if err := s.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := s.c.Tx([]byte{cmd.Opcode()}, nil); err != nil {
		return err
	}
	if p := cmd.Params(); len(p) != 0 {
		return s.writeData(p)
	}
	return nil
}

// WriteCommandData implements Bus.
func (s *SPI) WriteCommandData(cmd Command, data []byte) error {
	if err := s.WriteCommand(cmd); err != nil {
		return err
	}
	return s.writeData(data)
}

func (s *SPI) writeData(data []byte) error {
	if err := s.dc.Out(gpio.High); err != nil {
		return err
	}
	step := len(data)
	if s.maxTxSize != 0 && step > s.maxTxSize {
		step = s.maxTxSize
	}
	for len(data) != 0 {
		if step > len(data) {
			step = len(data)
		}
		if err := s.c.Tx(data[:step], nil); err != nil {
			return err
		}
		data = data[step:]
	}
	return nil
}

var _ Bus = &SPI{}
var _ fmt.Stringer = &SPI{}
