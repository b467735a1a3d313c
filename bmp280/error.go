// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCalibrated is returned by a Dev that was not created with New or
	// NewI2C.
	ErrNotCalibrated = errors.New("bmp280: calibration not loaded")
	// ErrNotReady is returned by Temperature and Pressure before the first
	// successful DoMeasure.
	ErrNotReady = errors.New("bmp280: no measurement taken")
	// ErrMeasurementTimeout is returned when the device status did not clear
	// within the poll limit.
	ErrMeasurementTimeout = errors.New("bmp280: measurement timed out")
	// ErrDivisionByZero is returned when the calibration drives the pressure
	// compensation denominator to zero.
	ErrDivisionByZero = errors.New("bmp280: division by zero in pressure compensation")
	// ErrSkipped is returned when reading a value whose oversampling is Off.
	ErrSkipped = errors.New("bmp280: measurement skipped")
	// ErrChipID is returned when the device does not identify as a BMP280.
	ErrChipID = errors.New("bmp280: unexpected chip id")
	// ErrCalibration is returned when the calibration block is malformed.
	ErrCalibration = errors.New("bmp280: invalid calibration data")
)

// BusError reports a failed register access. The driver never retries.
type BusError struct {
	Op   string
	Addr uint16
	Reg  byte
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bmp280: %s register 0x%02x at 0x%02x: %v", e.Op, e.Reg, e.Addr, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
