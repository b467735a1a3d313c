// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"errors"
	"testing"
)

func datasheetCal(t *testing.T) Calibration {
	c, err := parseCalibration(datasheetCalibration)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestParseCalibration(t *testing.T) {
	b := make([]byte, calibrationSize)
	for i := 0; i < 24; i++ {
		b[i] = 0xff
	}
	c, err := parseCalibration(b)
	if err != nil {
		t.Fatal(err)
	}
	// dig_T1 and dig_P1 are unsigned, the others are two's complement.
	if c.T1 != 65535 || c.P1 != 65535 {
		t.Errorf("unsigned words decoded as %d, %d", c.T1, c.P1)
	}
	if c.T2 != -1 || c.T3 != -1 || c.P2 != -1 || c.P9 != -1 {
		t.Errorf("signed words decoded as %+v", c)
	}
	if _, err := parseCalibration(b[:24]); !errors.Is(err, ErrCalibration) {
		t.Errorf("expected ErrCalibration for a short block, got %v", err)
	}
	b[24] = 1
	if _, err := parseCalibration(b); !errors.Is(err, ErrCalibration) {
		t.Errorf("expected ErrCalibration for non zero reserved bytes, got %v", err)
	}
}

func TestRawSample(t *testing.T) {
	if v := rawSample(datasheetTemperature); v != 519888 {
		t.Errorf("raw temperature %d != 519888", v)
	}
	if v := rawSample(datasheetPressure); v != 415148 {
		t.Errorf("raw pressure %d != 415148", v)
	}
	if v := rawSample([]byte{0xff, 0xff, 0xff}); v != 0xfffff {
		t.Errorf("raw maximum 0x%x != 0xfffff", v)
	}
}

func TestCompensateTemperature(t *testing.T) {
	c := datasheetCal(t)
	temp, tFine := c.CompensateTemperature(519888)
	if tFine != 128422 {
		t.Errorf("t_fine %d != 128422", tFine)
	}
	if temp != 2508 {
		t.Errorf("temperature %d != 2508", temp)
	}
}

func TestCompensatePressure(t *testing.T) {
	c := datasheetCal(t)
	p, err := c.CompensatePressure(415148, 128422)
	if err != nil {
		t.Fatal(err)
	}
	// 100653.25 Pa. The datasheet floating point reference is 100653.27 Pa.
	if p != 25767233 {
		t.Errorf("pressure %d != 25767233", p)
	}
}

func TestCompensateDeterministic(t *testing.T) {
	c := datasheetCal(t)
	raws := []struct{ t, p int32 }{
		{519888, 415148},
		{500000, 400000},
		{540000, 300000},
		{480000, 500000},
	}
	for _, r := range raws {
		t1, f1 := c.CompensateTemperature(r.t)
		t2, f2 := c.CompensateTemperature(r.t)
		if t1 != t2 || f1 != f2 {
			t.Errorf("temperature of %d not deterministic: %d/%d vs %d/%d", r.t, t1, f1, t2, f2)
		}
		p1, err1 := c.CompensatePressure(r.p, f1)
		p2, err2 := c.CompensatePressure(r.p, f2)
		if p1 != p2 || err1 != err2 {
			t.Errorf("pressure of %d not deterministic: %d vs %d", r.p, p1, p2)
		}
	}
}

func TestCompensatePressureDivisionByZero(t *testing.T) {
	c := datasheetCal(t)
	c.P1 = 0
	p, err := c.CompensatePressure(415148, 128422)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	if p != 0 {
		t.Errorf("pressure %d should be 0 on error", p)
	}
}
