// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dcs

import (
	"context"
	"fmt"
)

// Bus is the write-only transport between a display model and the
// controller.
//
// Implementations frame the opcode as a command byte and everything that
// follows as data, per the controller's data/command protocol. Transport
// failures are returned untransformed; no operation partially completes
// silently.
type Bus interface {
	// WriteCommand sends cmd's opcode followed by its parameter bytes.
	WriteCommand(cmd Command) error
	// WriteCommandData sends cmd followed by a raw data payload, most
	// commonly pixel memory after WriteMemoryStart. Chunking for transports
	// with bounded transfer sizes is the implementation's responsibility.
	WriteCommandData(cmd Command, data []byte) error
}

// ContextBus mirrors Bus for callers running under a context.
//
// Framing and ordering are identical to Bus. The calling task may suspend at
// each operation; an operation either completes or returns the context's
// error before any byte is sent. An in-flight transfer is never interrupted.
type ContextBus interface {
	WriteCommand(ctx context.Context, cmd Command) error
	WriteCommandData(ctx context.Context, cmd Command, data []byte) error
}

// WithContext adapts a blocking Bus to the ContextBus shape.
//
// The context is consulted once before each transfer. The transfer itself
// still runs to completion; callers needing mid-transfer cancellation must
// use a natively context-aware transport.
func WithContext(b Bus) ContextBus {
	return &ctxBus{b: b}
}

type ctxBus struct {
	b Bus
}

func (c *ctxBus) WriteCommand(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.b.WriteCommand(cmd)
}

func (c *ctxBus) WriteCommandData(ctx context.Context, cmd Command, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.b.WriteCommandData(cmd, data)
}

func (c *ctxBus) String() string {
	return fmt.Sprintf("%s", c.b)
}
