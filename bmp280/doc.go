// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bmp280 controls a Bosch BMP280 pressure and temperature sensor over
// I²C.
//
// The driver reads the factory calibration once at construction and applies
// the fixed point compensation formulas of the datasheet (chapter 3.11,
// section 8.2) to the raw 20 bit samples. Temperature is reported in °C with
// 0.01 °C resolution, pressure in hPa with 1/256 Pa resolution.
//
// A measurement is a three step sequence:
//
//	dev.DoMeasure()     // trigger (forced mode) and wait for the conversion
//	dev.Temperature()   // read raw temperature, compensate
//	dev.Pressure()      // read raw pressure, compensate using the same cycle
//
// Dev also implements physic.SenseEnv, where Sense does all three in a single
// bus burst.
//
// # Datasheet
//
// https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bmp280-ds001.pdf
package bmp280
