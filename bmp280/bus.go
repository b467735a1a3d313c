// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"periph.io/x/conn/v3/i2c"
)

// Bus is the register level access the driver needs. Every call addresses
// the device explicitly, so a single Bus can be shared by several devices as
// long as the caller serializes access.
type Bus interface {
	// ReadRegister reads a single register.
	ReadRegister(addr uint16, reg byte) (byte, error)
	// ReadBlock reads n consecutive registers starting at reg.
	ReadBlock(addr uint16, reg byte, n int) ([]byte, error)
	// WriteRegister writes v to a single register.
	WriteRegister(addr uint16, reg, v byte) error
}

// I2C adapts a periph I²C bus to Bus.
type I2C struct {
	Bus i2c.Bus
}

// ReadRegister implements Bus.
func (b *I2C) ReadRegister(addr uint16, reg byte) (byte, error) {
	r := [1]byte{}
	if err := b.Bus.Tx(addr, []byte{reg}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

// ReadBlock implements Bus.
func (b *I2C) ReadBlock(addr uint16, reg byte, n int) ([]byte, error) {
	r := make([]byte, n)
	if err := b.Bus.Tx(addr, []byte{reg}, r); err != nil {
		return nil, err
	}
	return r, nil
}

// WriteRegister implements Bus.
func (b *I2C) WriteRegister(addr uint16, reg, v byte) error {
	return b.Bus.Tx(addr, []byte{reg, v}, nil)
}

func (b *I2C) String() string {
	return b.Bus.String()
}

var _ Bus = &I2C{}
