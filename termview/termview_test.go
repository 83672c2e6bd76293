// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/mipidsi/dcs"
	"github.com/GermanBionicSystems/mipidsi/rgb565"
)

func newTestDev(w, h int) (*Dev, *bytes.Buffer) {
	d := New(&Opts{W: w, H: h})
	b := &bytes.Buffer{}
	d.w = b
	return d, b
}

func TestString(t *testing.T) {
	d, _ := newTestDev(4, 2)
	if got := d.String(); got != "termview.Dev{4x2}" {
		t.Errorf("String() = %q", got)
	}
}

func TestWriteCommandIgnored(t *testing.T) {
	d, b := newTestDev(4, 2)
	if err := d.WriteCommand(dcs.SetDisplayOn{}); err != nil {
		t.Fatalf("WriteCommand() failed: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("a configuration command produced output: %q", b.String())
	}
}

func TestWriteCommandDataRefreshes(t *testing.T) {
	d, b := newTestDev(2, 2)
	if err := d.WriteCommandData(dcs.WriteMemoryStart{}, rgb565.Encode(make([]rgb565.Pixel, 4))); err != nil {
		t.Fatalf("WriteCommandData() failed: %v", err)
	}

	out := b.String()
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("output has %d rows, want 2:\n%q", got, out)
	}
	if !strings.HasPrefix(out, "\033[0m") || !strings.HasSuffix(out, "\033[0m\n") {
		t.Errorf("output does not reset terminal attributes:\n%q", out)
	}
}

func TestWriteCommandDataTruncates(t *testing.T) {
	d, _ := newTestDev(2, 1)
	// 3 pixels into a 2 pixel frame; the extra one is dropped.
	if err := d.WriteCommandData(dcs.WriteMemoryStart{}, rgb565.Encode([]rgb565.Pixel{1, 2, 3})); err != nil {
		t.Fatalf("WriteCommandData() failed: %v", err)
	}
	if d.frame[0] != 1 || d.frame[1] != 2 {
		t.Errorf("frame = %v, want [1 2]", d.frame)
	}
}

func TestWriteCommandDataOddPayload(t *testing.T) {
	d, _ := newTestDev(2, 1)
	if err := d.WriteCommandData(dcs.WriteMemoryStart{}, []byte{0x12, 0x34, 0xab}); err == nil {
		t.Error("an odd payload should be rejected")
	}
}

func TestInvert(t *testing.T) {
	d, b := newTestDev(1, 1)
	if err := d.WriteCommand(dcs.SetInvertMode(true)); err != nil {
		t.Fatalf("WriteCommand() failed: %v", err)
	}
	if err := d.WriteCommandData(dcs.WriteMemoryStart{}, []byte{0x00, 0x00}); err != nil {
		t.Fatalf("WriteCommandData() failed: %v", err)
	}
	inverted := b.String()

	d2, b2 := newTestDev(1, 1)
	if err := d2.WriteCommandData(dcs.WriteMemoryStart{}, []byte{0xff, 0xff}); err != nil {
		t.Fatalf("WriteCommandData() failed: %v", err)
	}
	if inverted != b2.String() {
		t.Errorf("inverted black should render as white:\n%q\n%q", inverted, b2.String())
	}
}

func TestHalt(t *testing.T) {
	d, b := newTestDev(1, 1)
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	if got := b.String(); got != "\n\033[0m" {
		t.Errorf("Halt() wrote %q", got)
	}
}
