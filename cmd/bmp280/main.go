// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bmp280 reads temperature and pressure from a BMP280 at a fixed interval.
//
// In forced mode a single conversion is triggered per sample. In normal mode
// the chip converts continuously and the tool only collects the latest
// values; the chip is put back to sleep on exit.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/bmp280/bmp280"
	"github.com/GermanBionicSystems/bmp280/gauge"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var oversampling = map[int]bmp280.Oversampling{
	0:  bmp280.Off,
	1:  bmp280.O1x,
	2:  bmp280.O2x,
	4:  bmp280.O4x,
	8:  bmp280.O8x,
	16: bmp280.O16x,
}

var filters = map[int]bmp280.Filter{
	0:  bmp280.NoFilter,
	2:  bmp280.F2,
	4:  bmp280.F4,
	8:  bmp280.F8,
	16: bmp280.F16,
}

func parseOpts(mode string, ost, osp, filter int, standby time.Duration) (*bmp280.Opts, error) {
	opts := bmp280.DefaultOpts
	var ok bool
	// Pressure compensation needs the temperature, it can't be skipped.
	if opts.Temperature, ok = oversampling[ost]; !ok || opts.Temperature == bmp280.Off {
		return nil, fmt.Errorf("invalid temperature oversampling %d", ost)
	}
	if opts.Pressure, ok = oversampling[osp]; !ok {
		return nil, fmt.Errorf("invalid pressure oversampling %d", osp)
	}
	if opts.Filter, ok = filters[filter]; !ok {
		return nil, fmt.Errorf("invalid filter coefficient %d", filter)
	}
	switch mode {
	case "forced":
		opts.Mode = bmp280.Forced
	case "normal":
		opts.Mode = bmp280.Normal
	default:
		return nil, fmt.Errorf("invalid mode %q", mode)
	}
	opts.Standby = bmp280.StandbyFor(standby)
	return &opts, nil
}

// read takes one measurement. Pressure is 0 when it is not measured.
func read(dev *bmp280.Dev, pressure bool) (float64, float64, error) {
	if err := dev.DoMeasure(); err != nil {
		return 0, 0, err
	}
	t, err := dev.Temperature()
	if err != nil || !pressure {
		return t, 0, err
	}
	p, err := dev.Pressure()
	return t, p, err
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use")
	addr := flag.Uint("addr", uint(bmp280.DefaultAddress), "I²C address of the device")
	mode := flag.String("mode", "forced", "power mode: forced or normal")
	ost := flag.Int("ost", 1, "temperature oversampling: 1, 2, 4, 8, 16")
	osp := flag.Int("osp", 1, "pressure oversampling: 0 (skip), 1, 2, 4, 8, 16")
	filter := flag.Int("filter", 0, "IIR filter coefficient: 0, 2, 4, 8, 16")
	standby := flag.Duration("standby", time.Second, "standby between conversions in normal mode")
	interval := flag.Duration("interval", 5*time.Second, "interval between samples")
	n := flag.Int("n", 0, "number of samples to take, 0 for no limit")
	showGauge := flag.Bool("gauge", false, "draw a pressure gauge instead of logging")
	minP := flag.Float64("min", 950, "pressure of an empty gauge in hPa")
	maxP := flag.Float64("max", 1050, "pressure of a full gauge in hPa")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	opts, err := parseOpts(*mode, *ost, *osp, *filter, *standby)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	dev, err := bmp280.NewI2C(bus, uint16(*addr), opts)
	if err != nil {
		return err
	}
	// Restore forced mode, not to keep the sensor taking measurements forever.
	defer func() {
		if err := dev.Halt(); err != nil {
			log.Printf("%s: %v", dev, err)
		}
	}()
	log.Printf("%s: %+v", dev, dev.Calibration())

	var g *gauge.Dev
	if *showGauge {
		if g, err = gauge.New(&gauge.Opts{Width: 40, Min: *minP, Max: *maxP, Format: "%.2f hPa"}); err != nil {
			return err
		}
		defer g.Halt()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for i := 0; *n == 0 || i < *n; i++ {
		t, p, err := read(dev, opts.Pressure != bmp280.Off)
		if err != nil {
			return err
		}
		if opts.Pressure == bmp280.Off {
			log.Printf("Temperature: %.2f °C", t)
		} else if g != nil {
			if err := g.Show(fmt.Sprintf("%6.2f °C", t), p); err != nil {
				return err
			}
		} else {
			log.Printf("Temperature: %.2f °C - Pressure: %.2f hPa", t, p)
		}
		if *n != 0 && i == *n-1 {
			break
		}
		select {
		case <-stop:
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "bmp280: %s.\n", err)
		os.Exit(1)
	}
}
