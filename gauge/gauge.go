// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge draws a one line bar gauge to the terminal using ANSI color
// codes.
//
// Useful to watch a sensor reading drift without scrolling the console.
package gauge

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Unlit is the color of the blocks above the current value.
var Unlit = color.NRGBA{R: 48, G: 48, B: 48, A: 255}

// Opts represents the options available for the gauge.
type Opts struct {
	// Width is the number of blocks of the bar.
	Width int
	// Min and Max are the values of an empty and a full bar.
	Min, Max float64
	// Format is applied to the value printed after the bar. Default is "%.2f".
	Format  string
	Palette *ansi256.Palette
	// W defaults to stdout.
	W io.Writer

	_ struct{}
}

// Dev is a bar gauge that outputs to the console.
type Dev struct {
	w        io.Writer
	width    int
	min, max float64
	format   string
	palette  ansi256.Palette

	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.Width <= 0 {
		return nil, errors.New("gauge: width must be positive")
	}
	if opts.Max <= opts.Min {
		return nil, errors.New("gauge: max must be above min")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	f := opts.Format
	if f == "" {
		f = "%.2f"
	}
	return &Dev{
		w:       w,
		width:   opts.Width,
		min:     opts.Min,
		max:     opts.Max,
		format:  f,
		palette: *p,
	}, nil
}

func (d *Dev) String() string {
	return "Gauge"
}

// Halt resets the terminal colors and ends the line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Show redraws the line with the bar filled up to v, clamped to [Min, Max].
func (d *Dev) Show(label string, v float64) error {
	lit := d.Lit(v)
	// Built in a single buffer so the line is written in one call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	_, _ = d.buf.WriteString(label)
	_, _ = d.buf.WriteString(" ")
	for i := 0; i < d.width; i++ {
		c := Unlit
		if i < lit {
			c = ramp(i, d.width)
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = fmt.Fprintf(&d.buf, d.format, v)
	_, err := d.buf.WriteTo(d.w)
	return err
}

// Lit returns the number of blocks lit for v.
func (d *Dev) Lit(v float64) int {
	if v <= d.min {
		return 0
	}
	if v >= d.max {
		return d.width
	}
	return int((v-d.min)/(d.max-d.min)*float64(d.width) + 0.5)
}

// ramp goes from blue at the low end to red at the high end.
func ramp(i, n int) color.NRGBA {
	f := 0.
	if n > 1 {
		f = float64(i) / float64(n-1)
	}
	return color.NRGBA{R: byte(255 * f), G: 64, B: byte(255 * (1 - f)), A: 255}
}

var _ fmt.Stringer = &Dev{}
