// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import "fmt"

// calibrationSize is the size of the block at 0x88. The last two bytes
// (0xA0, 0xA1) are reserved and read back as zero.
const calibrationSize = 26

// Calibration holds the factory trimming parameters dig_T1..dig_P9.
type Calibration struct {
	T1                             uint16
	T2, T3                         int16
	P1                             uint16
	P2, P3, P4, P5, P6, P7, P8, P9 int16
}

// parseCalibration decodes the little endian words read from 0x88.
func parseCalibration(b []byte) (Calibration, error) {
	if len(b) != calibrationSize {
		return Calibration{}, fmt.Errorf("%w: got %d bytes", ErrCalibration, len(b))
	}
	if b[24] != 0 || b[25] != 0 {
		return Calibration{}, fmt.Errorf("%w: reserved bytes are 0x%02x 0x%02x", ErrCalibration, b[24], b[25])
	}
	w := func(i int) uint16 {
		return uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return Calibration{
		T1: w(0),
		T2: int16(w(1)),
		T3: int16(w(2)),
		P1: w(3),
		P2: int16(w(4)),
		P3: int16(w(5)),
		P4: int16(w(6)),
		P5: int16(w(7)),
		P6: int16(w(8)),
		P7: int16(w(9)),
		P8: int16(w(10)),
		P9: int16(w(11)),
	}, nil
}

// rawSample decodes a 20 bit value stored msb, lsb, xlsb.
func rawSample(b []byte) int32 {
	return int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4
}

// CompensateTemperature returns temperature in 0.01 °C and the fine
// temperature consumed by CompensatePressure. Output value of 5123 equals
// 51.23 °C.
//
// raw has 20 bits of resolution.
func (c *Calibration) CompensateTemperature(raw int32) (t, tFine int32) {
	x := (raw >> 4) - int32(c.T1)
	var1 := (((raw >> 3) - (int32(c.T1) << 1)) * int32(c.T2)) >> 11
	var2 := (((x * x) >> 12) * int32(c.T3)) >> 14
	tFine = var1 + var2
	return (tFine*5 + 128) >> 8, tFine
}

// CompensatePressure returns pressure in Pa in Q24.8 format (24 integer
// bits and 8 fractional bits). Output value of 24674867 represents
// 24674867/256 = 96386.2 Pa.
//
// raw has 20 bits of resolution.
func (c *Calibration) CompensatePressure(raw, tFine int32) (uint32, error) {
	var1 := int64(tFine) - 128000
	var2 := var1 * var1 * int64(c.P6)
	var2 += (var1 * int64(c.P5)) << 17
	var2 += int64(c.P4) << 35
	var1 = ((var1 * var1 * int64(c.P3)) >> 8) + ((var1 * int64(c.P2)) << 12)
	var1 = (((int64(1) << 47) + var1) * int64(c.P1)) >> 33
	if var1 == 0 {
		return 0, ErrDivisionByZero
	}
	p := 1048576 - int64(raw)
	p = (((p << 31) - var2) * 3125) / var1
	var1 = (int64(c.P9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(c.P8) * p) >> 19
	p = ((p + var1 + var2) >> 8) + (int64(c.P7) << 4)
	return uint32(p), nil
}
