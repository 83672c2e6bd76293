// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgb565 provides the 16 bit RGB 5-6-5 pixel format native to ST7789
// class TFT controllers.
//
// A Pixel packs 5 bits of red, 6 bits of green and 5 bits of blue into one
// uint16. On the wire each pixel is two bytes, big-endian. Image is a
// row-major in-memory frame in this format, usable as a target for
// image/draw and for text rendering libraries.
package rgb565

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Pixel is a color in RGB 5-6-5 form.
type Pixel uint16

// New packs 8-bit red, green and blue channels into a Pixel. The low bits of
// each channel are truncated.
func New(r, g, b uint8) Pixel {
	return Pixel(r>>3)<<11 | Pixel(g>>2)<<5 | Pixel(b>>3)
}

// RGBA implements color.Color. Channels are expanded by bit replication so
// full scale maps to full scale.
func (p Pixel) RGBA() (r, g, b, a uint32) {
	r = uint32(p >> 11 & 0x1f)
	g = uint32(p >> 5 & 0x3f)
	b = uint32(p & 0x1f)
	r = (r<<3 | r>>2) * 0x101
	g = (g<<2 | g>>4) * 0x101
	b = (b<<3 | b>>2) * 0x101
	return r, g, b, 0xffff
}

func toPixel(c color.Color) color.Color {
	if p, ok := c.(Pixel); ok {
		return p
	}
	r, g, b, _ := c.RGBA()
	return New(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts any color.Color to a Pixel.
var Model = color.ModelFunc(toPixel)

// Encode returns the big-endian two-byte-per-pixel wire encoding of p, in
// input order.
func Encode(p []Pixel) []byte {
	b := make([]byte, 2*len(p))
	for i, v := range p {
		binary.BigEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

// Image is an in-memory RGB 5-6-5 frame. Pixels are stored in row-major
// scan order, matching the controller's memory write order.
type Image struct {
	// Pix holds the pixels, in scan order.
	Pix []Pixel
	// Rect is the image's bounds.
	Rect image.Rectangle
}

// NewImage returns an initialized (all black) Image of the given bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:  make([]Pixel, w*h),
		Rect: r,
	}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.PixelAt(x, y)
}

// PixelAt returns the Pixel at (x, y). Points outside the bounds are black.
func (i *Image) PixelAt(x, y int) Pixel {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return 0
	}
	return i.Pix[i.pixOffset(x, y)]
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	i.Pix[i.pixOffset(x, y)] = Model.Convert(c).(Pixel)
}

// SetPixel sets the Pixel at (x, y), skipping the color model conversion
// done by Set. Points outside the bounds are ignored.
func (i *Image) SetPixel(x, y int, p Pixel) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	i.Pix[i.pixOffset(x, y)] = p
}

func (i *Image) pixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Rect.Dx() + (x - i.Rect.Min.X)
}

var _ image.Image = &Image{}
