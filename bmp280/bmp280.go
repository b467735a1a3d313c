// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmp280

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultAddress is the address when SDO is pulled high.
	DefaultAddress uint16 = 0x77
	// AlternateAddress is the address when SDO is tied to ground.
	AlternateAddress uint16 = 0x76

	chipID     byte = 0x58
	resetMagic byte = 0xB6

	regCalibration byte = 0x88
	regChipID      byte = 0xD0
	regReset       byte = 0xE0
	regStatus      byte = 0xF3
	regCtrlMeas    byte = 0xF4
	regConfig      byte = 0xF5
	regPressMSB    byte = 0xF7
	regTempMSB     byte = 0xFA

	statusUpdating  byte = 1 << 0
	statusMeasuring byte = 1 << 3
	modeMask        byte = 0x03

	// Polls of im_update after a soft reset. The datasheet start-up time is
	// 2ms.
	startupPolls = 20
)

// Oversampling affects how much time is taken to measure each of temperature
// and pressure.
type Oversampling uint8

// Possible oversampling values.
const (
	Off  Oversampling = 0
	O1x  Oversampling = 1
	O2x  Oversampling = 2
	O4x  Oversampling = 3
	O8x  Oversampling = 4
	O16x Oversampling = 5
)

func (o Oversampling) String() string {
	switch o {
	case Off:
		return "Off"
	case O1x:
		return "1x"
	case O2x:
		return "2x"
	case O4x:
		return "4x"
	case O8x:
		return "8x"
	case O16x:
		return "16x"
	default:
		return fmt.Sprintf("Oversampling(%d)", uint8(o))
	}
}

// samples returns the number of conversions averaged.
func (o Oversampling) samples() int {
	if o == Off {
		return 0
	}
	return 1 << (o - 1)
}

// Mode is the power mode.
type Mode uint8

const (
	// Sleep performs no conversion. DoMeasure still triggers a single one.
	Sleep Mode = 0
	// Forced keeps the chip asleep and converts once per DoMeasure.
	Forced Mode = 1
	// Normal cycles conversions and standby periods on its own.
	Normal Mode = 3
)

func (m Mode) String() string {
	switch m {
	case Sleep:
		return "Sleep"
	case Forced:
		return "Forced"
	case Normal:
		return "Normal"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Standby is the inactive duration between conversions in Normal mode.
type Standby uint8

// Possible standby values.
const (
	S500us Standby = 0
	S62ms  Standby = 1
	S125ms Standby = 2
	S250ms Standby = 3
	S500ms Standby = 4
	S1s    Standby = 5
	S2s    Standby = 6
	S4s    Standby = 7
)

var standbyDurations = [...]time.Duration{
	500 * time.Microsecond,
	62500 * time.Microsecond,
	125 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	2 * time.Second,
	4 * time.Second,
}

// Duration returns the standby time.
func (s Standby) Duration() time.Duration {
	if int(s) >= len(standbyDurations) {
		return 0
	}
	return standbyDurations[s]
}

// StandbyFor returns the longest standby that doesn't exceed the interval.
func StandbyFor(interval time.Duration) Standby {
	s := S500us
	for i, d := range standbyDurations {
		if d <= interval {
			s = Standby(i)
		}
	}
	return s
}

// Filter is the IIR filter coefficient applied to pressure and temperature.
type Filter uint8

// Possible filter values.
const (
	NoFilter Filter = 0
	F2       Filter = 1
	F4       Filter = 2
	F8       Filter = 3
	F16      Filter = 4
)

// Opts defines the sensor configuration.
type Opts struct {
	// Temperature and Pressure oversampling. A measurement skipped with Off
	// reads back as ErrSkipped. Pressure compensation depends on temperature,
	// so pressure is skipped too when Temperature is Off.
	Temperature Oversampling
	Pressure    Oversampling
	Mode        Mode
	// Standby only applies to Normal mode.
	Standby Standby
	Filter  Filter
	// PollInterval is the wait between two status reads while a conversion
	// is running. Default is 1ms.
	PollInterval time.Duration
	// MaxPolls bounds the number of status reads in DoMeasure. 0 derives the
	// bound from the datasheet worst case conversion time.
	MaxPolls int
}

// DefaultOpts is the configuration used when nil is passed to New.
var DefaultOpts = Opts{
	Temperature:  O1x,
	Pressure:     O1x,
	Mode:         Forced,
	Standby:      S500us,
	Filter:       NoFilter,
	PollInterval: time.Millisecond,
}

func (o *Opts) validate() error {
	if o.Temperature > O16x {
		return fmt.Errorf("bmp280: invalid temperature oversampling %d", o.Temperature)
	}
	if o.Pressure > O16x {
		return fmt.Errorf("bmp280: invalid pressure oversampling %d", o.Pressure)
	}
	if o.Mode != Sleep && o.Mode != Forced && o.Mode != Normal {
		return fmt.Errorf("bmp280: invalid mode %d", o.Mode)
	}
	if o.Standby > S4s {
		return fmt.Errorf("bmp280: invalid standby %d", o.Standby)
	}
	if o.Filter > F16 {
		return fmt.Errorf("bmp280: invalid filter %d", o.Filter)
	}
	if o.MaxPolls < 0 {
		return fmt.Errorf("bmp280: invalid poll limit %d", o.MaxPolls)
	}
	return nil
}

// measurementTime returns the datasheet maximum conversion time (section
// 3.8.1).
func (o *Opts) measurementTime() time.Duration {
	us := 1250 + 2300*o.Temperature.samples()
	if o.Pressure != Off {
		us += 2300*o.Pressure.samples() + 575
	}
	return time.Duration(us) * time.Microsecond
}

// pollLimit returns the number of status reads allowed for one conversion.
func (o *Opts) pollLimit() int {
	if o.MaxPolls > 0 {
		return o.MaxPolls
	}
	return 2*int(o.measurementTime()/o.PollInterval) + 2
}

// Dev is a handle to an initialized BMP280.
type Dev struct {
	b    Bus
	addr uint16

	mu         sync.Mutex
	opts       Opts
	mode       Mode
	cal        Calibration
	calibrated bool
	// cycle counts completed measurements. tFine is valid for fineCycle.
	cycle     uint64
	fineCycle uint64
	tFine     int32

	stop chan struct{}
	wg   sync.WaitGroup
}

// New resets the device at addr, verifies its identity, loads the
// calibration and applies opts. If opts is nil, DefaultOpts is used.
func New(b Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	d := &Dev{b: b, addr: addr, opts: withDefaults(opts)}
	if err := d.makeDev(); err != nil {
		return nil, err
	}
	if err := d.configure(&d.opts); err != nil {
		return nil, err
	}
	return d, nil
}

// NewI2C returns a device that communicates over I²C at addr.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	return New(&I2C{Bus: b}, addr, opts)
}

func withDefaults(opts *Opts) Opts {
	o := *opts
	if o.PollInterval <= 0 {
		o.PollInterval = time.Millisecond
	}
	return o
}

// makeDev soft resets the chip, checks the chip id and reads the calibration.
func (d *Dev) makeDev() error {
	if err := d.writeReg(regReset, resetMagic); err != nil {
		return err
	}
	done := false
	for i := 0; i < startupPolls && !done; i++ {
		time.Sleep(d.opts.PollInterval)
		status, err := d.readReg(regStatus)
		if err != nil {
			return err
		}
		done = status&statusUpdating == 0
	}
	if !done {
		return fmt.Errorf("bmp280: calibration copy still running after reset: %w", ErrMeasurementTimeout)
	}
	id, err := d.readReg(regChipID)
	if err != nil {
		return err
	}
	if id != chipID {
		return fmt.Errorf("%w: 0x%02x", ErrChipID, id)
	}
	b, err := d.readBlock(regCalibration, calibrationSize)
	if err != nil {
		return err
	}
	if d.cal, err = parseCalibration(b); err != nil {
		return err
	}
	d.calibrated = true
	return nil
}

// Calibration returns the coefficients read at initialization.
func (d *Dev) Calibration() Calibration {
	return d.cal
}

// Configure sets oversampling, power mode, standby and filter.
func (d *Dev) Configure(opts *Opts) error {
	if err := opts.validate(); err != nil {
		return err
	}
	o := withDefaults(opts)
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.calibrated {
		return ErrNotCalibrated
	}
	d.opts = o
	return d.configure(&o)
}

// configure writes config before ctrl_meas; writes to config may be ignored
// in normal mode.
//
// It must be called with d.mu lock held.
func (d *Dev) configure(o *Opts) error {
	if err := d.writeReg(regConfig, byte(o.Standby)<<5|byte(o.Filter)<<2); err != nil {
		return err
	}
	mode := Sleep
	if o.Mode == Normal {
		mode = Normal
	}
	if err := d.writeReg(regCtrlMeas, ctrlMeas(o, mode)); err != nil {
		return err
	}
	d.mode = o.Mode
	return nil
}

func ctrlMeas(o *Opts, m Mode) byte {
	return byte(o.Temperature)<<5 | byte(o.Pressure)<<2 | byte(m)
}

// DoMeasure waits for a fresh sample in the data registers. In Sleep and
// Forced modes it triggers a single conversion first. It blocks for at most
// the conversion time of the configured oversampling.
func (d *Dev) DoMeasure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measure()
}

// It must be called with d.mu lock held.
func (d *Dev) measure() error {
	if !d.calibrated {
		return ErrNotCalibrated
	}
	limit := d.opts.pollLimit()
	left := limit
	if d.mode != Normal {
		if err := d.writeReg(regCtrlMeas, ctrlMeas(&d.opts, Forced)); err != nil {
			return err
		}
		// The chip drops back to sleep once the forced conversion is done.
		if ok, err := d.waitClear(regCtrlMeas, modeMask, &left); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w after %d polls", ErrMeasurementTimeout, limit)
		}
	}
	if ok, err := d.waitClear(regStatus, statusMeasuring, &left); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w after %d polls", ErrMeasurementTimeout, limit)
	}
	d.cycle++
	return nil
}

// waitClear polls reg until the bits in mask are cleared, consuming the poll
// budget in left. It returns false when the budget is exhausted.
func (d *Dev) waitClear(reg, mask byte, left *int) (bool, error) {
	for {
		v, err := d.readReg(reg)
		if err != nil {
			return false, err
		}
		if v&mask == 0 {
			return true, nil
		}
		if *left--; *left <= 0 {
			return false, nil
		}
		time.Sleep(d.opts.PollInterval)
	}
}

// Temperature reads the temperature of the last measurement in °C.
func (d *Dev) Temperature() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.temperature()
	if err != nil {
		return 0, err
	}
	return float64(t) / 100, nil
}

// It must be called with d.mu lock held.
func (d *Dev) temperature() (int32, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}
	if d.opts.Temperature == Off {
		return 0, fmt.Errorf("%w: temperature", ErrSkipped)
	}
	b, err := d.readBlock(regTempMSB, 3)
	if err != nil {
		return 0, err
	}
	t, tFine := d.cal.CompensateTemperature(rawSample(b))
	d.tFine, d.fineCycle = tFine, d.cycle
	return t, nil
}

// Pressure reads the pressure of the last measurement in hPa.
//
// Pressure compensation needs the fine temperature of the same sample. If
// Temperature was not called since DoMeasure, or in Normal mode where the
// chip may latch a new conversion between two reads, pressure and
// temperature are read together in a single burst.
func (d *Dev) Pressure() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return 0, err
	}
	if d.opts.Temperature == Off || d.opts.Pressure == Off {
		return 0, fmt.Errorf("%w: pressure", ErrSkipped)
	}
	var raw int32
	if d.mode == Normal || d.fineCycle != d.cycle {
		b, err := d.readBlock(regPressMSB, 6)
		if err != nil {
			return 0, err
		}
		_, d.tFine = d.cal.CompensateTemperature(rawSample(b[3:]))
		d.fineCycle = d.cycle
		raw = rawSample(b)
	} else {
		b, err := d.readBlock(regPressMSB, 3)
		if err != nil {
			return 0, err
		}
		raw = rawSample(b)
	}
	p, err := d.cal.CompensatePressure(raw, d.tFine)
	if err != nil {
		return 0, err
	}
	return float64(p) / 25600, nil
}

func (d *Dev) ready() error {
	if !d.calibrated {
		return ErrNotCalibrated
	}
	if d.cycle == 0 {
		return ErrNotReady
	}
	return nil
}

// Sense takes a measurement and returns temperature and pressure, reading
// both in a single burst as recommended by the datasheet. Pressure is left
// at 0 when its oversampling is Off. It returns ErrSkipped without any bus
// traffic when temperature oversampling is Off. Implements physic.SenseEnv.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calibrated && d.opts.Temperature == Off {
		return fmt.Errorf("%w: temperature", ErrSkipped)
	}
	if err := d.measure(); err != nil {
		return err
	}
	// Pressure: 0xF7~0xF9
	// Temperature: 0xFA~0xFC
	b, err := d.readBlock(regPressMSB, 6)
	if err != nil {
		return err
	}
	t, tFine := d.cal.CompensateTemperature(rawSample(b[3:]))
	d.tFine, d.fineCycle = tFine, d.cycle
	// Convert CentiCelsius to Kelvin.
	e.Temperature = physic.Temperature(t)*10*physic.MilliCelsius + physic.ZeroCelsius
	e.Pressure = 0
	if d.opts.Pressure != Off {
		p, err := d.cal.CompensatePressure(rawSample(b), tFine)
		if err != nil {
			return err
		}
		// It has 8 bits of fractional Pascal.
		e.Pressure = physic.Pressure(p) * 15625 * physic.MicroPascal / 4
	}
	return nil
}

// SenseContinuous switches the device to Normal mode with the longest
// standby fitting interval and publishes a sample every interval until Halt
// is called. Samples that fail to read are skipped.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.calibrated {
		return nil, ErrNotCalibrated
	}
	if d.stop != nil {
		return nil, errors.New("bmp280: SenseContinuous already running")
	}
	if tmax := d.opts.measurementTime(); interval < tmax {
		return nil, fmt.Errorf("bmp280: interval %s is shorter than the conversion time %s", interval, tmax)
	}
	o := d.opts
	o.Mode = Normal
	o.Standby = StandbyFor(interval)
	if err := d.configure(&o); err != nil {
		return nil, err
	}
	d.stop = make(chan struct{})
	ch := make(chan physic.Env, 16)
	d.wg.Add(1)
	go d.senseContinuous(interval, ch, d.stop)
	return ch, nil
}

func (d *Dev) senseContinuous(interval time.Duration, ch chan<- physic.Env, stop <-chan struct{}) {
	defer d.wg.Done()
	defer close(ch)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			e := physic.Env{}
			if err := d.Sense(&e); err != nil {
				continue
			}
			select {
			case ch <- e:
			case <-stop:
				return
			}
		}
	}
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Pressure = 15625 * physic.MicroPascal / 4
	e.Humidity = 0
}

// Halt stops a running SenseContinuous and puts the device in sleep mode.
// A later DoMeasure or Sense triggers single conversions. Implements
// conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.calibrated {
		return ErrNotCalibrated
	}
	o := d.opts
	if o.Mode == Normal {
		o.Mode = Sleep
	}
	return d.configure(&o)
}

func (d *Dev) String() string {
	if s, ok := d.b.(fmt.Stringer); ok {
		return fmt.Sprintf("bmp280: %s(0x%02x)", s, d.addr)
	}
	return fmt.Sprintf("bmp280: 0x%02x", d.addr)
}

func (d *Dev) readReg(reg byte) (byte, error) {
	v, err := d.b.ReadRegister(d.addr, reg)
	if err != nil {
		return 0, &BusError{Op: "read", Addr: d.addr, Reg: reg, Err: err}
	}
	return v, nil
}

func (d *Dev) readBlock(reg byte, n int) ([]byte, error) {
	b, err := d.b.ReadBlock(d.addr, reg, n)
	if err != nil {
		return nil, &BusError{Op: "read", Addr: d.addr, Reg: reg, Err: err}
	}
	if len(b) != n {
		return nil, &BusError{Op: "read", Addr: d.addr, Reg: reg, Err: fmt.Errorf("short read %d of %d bytes", len(b), n)}
	}
	return b, nil
}

func (d *Dev) writeReg(reg, v byte) error {
	if err := d.b.WriteRegister(d.addr, reg, v); err != nil {
		return &BusError{Op: "write", Addr: d.addr, Reg: reg, Err: err}
	}
	return nil
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
