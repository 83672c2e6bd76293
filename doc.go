// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mipidsi is a container for MIPI Display Command Set display
// controller drivers.
//
// Package dcs holds the command vocabulary and the write-only bus contracts,
// rgb565 the pixel format, and st7789 the controller models.
package mipidsi
