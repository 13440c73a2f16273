// Package lcd drives a JHD12864E 128x64 monochrome graphic LCD. The module carries two HD61202
// controllers side by side on a shared 8-bit parallel bus, each owning 64 columns of eight 8-row
// pages. Every transaction waits for the controller to report ready before it is clocked in.
//
// A Dev is not safe for concurrent use; callers serialise access to the bus.
package lcd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// Opts tunes bus timing. Zero values select the defaults.
type Opts struct {
	ClockDelay    time.Duration // enable high and low hold time
	ResetLow      time.Duration
	ResetRecovery time.Duration

	// MaxBusyPolls bounds the busy handshake. Zero waits forever, as the controller gives no
	// other way to tell a slow chip from a missing one.
	MaxBusyPolls int

	// Sleep blocks for the given duration. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Dev is a handle to the display.
type Dev struct {
	pins PinSet
	opts Opts
	pos  Position
}

// New returns a driver for the module wired to pins. It does not touch the bus; call Init before
// anything else.
func New(pins PinSet, opts *Opts) (*Dev, error) {
	for i, p := range pins.Data {
		if p == nil {
			return nil, fmt.Errorf("lcd: data pin DB%d is missing", i)
		}
	}
	for _, c := range []struct {
		name string
		pin  Pin
	}{{"RS", pins.RS}, {"RW", pins.RW}, {"EN", pins.EN}, {"CS1", pins.CS1}, {"CS2", pins.CS2}, {"RST", pins.RST}} {
		if c.pin == nil {
			return nil, fmt.Errorf("lcd: control pin %s is missing", c.name)
		}
	}

	o := Opts{
		ClockDelay:    DefaultClockDelay,
		ResetLow:      DefaultResetLow,
		ResetRecovery: DefaultResetRecovery,
		Sleep:         time.Sleep,
	}
	if opts != nil {
		if opts.ClockDelay > 0 {
			o.ClockDelay = opts.ClockDelay
		}
		if opts.ResetLow > 0 {
			o.ResetLow = opts.ResetLow
		}
		if opts.ResetRecovery > 0 {
			o.ResetRecovery = opts.ResetRecovery
		}
		if opts.MaxBusyPolls < 0 {
			return nil, fmt.Errorf("lcd: max busy polls must not be negative, got %d", opts.MaxBusyPolls)
		}
		o.MaxBusyPolls = opts.MaxBusyPolls
		if opts.Sleep != nil {
			o.Sleep = opts.Sleep
		}
	}

	d := &Dev{pins: pins, opts: o}
	d.pos.invalidate()
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcd.Dev{JHD12864E %dx%d}", Width, Height)
}

// Position returns the driver's view of the controller addressing registers.
func (d *Dev) Position() Position {
	return d.pos
}

// Init drives every line to a known level, selects the left controller and pulses reset.
func (d *Dev) Init() error {
	log.Infoln("Initializing LCD")
	for i, p := range d.pins.Data {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("lcd: failed to drive DB%d: %w", i, err)
		}
	}
	for _, p := range []Pin{d.pins.RS, d.pins.RW, d.pins.EN} {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("lcd: failed to drive control line: %w", err)
		}
	}
	if err := d.Page0(); err != nil {
		return err
	}

	if err := d.pins.RST.Out(gpio.Low); err != nil {
		return fmt.Errorf("lcd: failed to pull RST low: %w", err)
	}
	d.opts.Sleep(d.opts.ResetLow)
	if err := d.pins.RST.Out(gpio.High); err != nil {
		return fmt.Errorf("lcd: failed to pull RST high: %w", err)
	}
	d.opts.Sleep(d.opts.ResetRecovery)

	d.pos = Position{Chip: ChipLeft}
	d.pos.invalidate()
	return nil
}

// On enables the panel output. Display RAM is untouched.
func (d *Dev) On() error {
	return d.command(cmdDisplay(true))
}

// Off blanks the panel output. Display RAM is untouched.
func (d *Dev) Off() error {
	return d.command(cmdDisplay(false))
}

// Halt blanks the display.
func (d *Dev) Halt() error {
	return d.Off()
}

// Clear zeroes the display RAM of both controllers. The controller has no clear instruction, so
// this is 1024 data writes.
func (d *Dev) Clear() error {
	for _, chip := range []Chip{ChipLeft, ChipRight} {
		if err := d.Select(chip); err != nil {
			return err
		}
		for page := uint8(0); page < Pages; page++ {
			if err := d.SetPage(page); err != nil {
				return err
			}
			if err := d.SetAddress(0); err != nil {
				return err
			}
			for col := 0; col < PageWidth; col++ {
				if err := d.Write(0x00); err != nil {
					return err
				}
			}
		}
	}
	d.pos.invalidate()
	return nil
}

// Page0 addresses subsequent transactions to the left controller.
func (d *Dev) Page0() error {
	return d.Select(ChipLeft)
}

// Page1 addresses subsequent transactions to the right controller.
func (d *Dev) Page1() error {
	return d.Select(ChipRight)
}

// Select drives the chip select lines so that only c receives subsequent transactions. This is
// unrelated to SetPage, which picks an 8-row band inside the selected controller.
func (d *Dev) Select(c Chip) error {
	cs1, cs2 := gpio.High, gpio.Low
	if c == ChipRight {
		cs1, cs2 = gpio.Low, gpio.High
	}
	if err := d.pins.CS1.Out(cs1); err != nil {
		return fmt.Errorf("lcd: failed to drive CS1: %w", err)
	}
	if err := d.pins.CS2.Out(cs2); err != nil {
		return fmt.Errorf("lcd: failed to drive CS2: %w", err)
	}
	if d.pos.Chip != c {
		d.pos.Chip = c
		d.pos.invalidate()
	}
	return nil
}

// SetStart sets the display line shown at the top of the panel, scrolling vertically. Only the
// low six bits of line are used.
func (d *Dev) SetStart(line uint8) error {
	return d.command(cmdStartLine(line))
}

// SetPage selects the 8-row band for data transfers. Only the low three bits of page are used.
func (d *Dev) SetPage(page uint8) error {
	if err := d.command(cmdPage(page)); err != nil {
		return err
	}
	d.pos.Page = int(page & pageMask)
	return nil
}

// SetAddress selects the column for the next data transfer. Only the low six bits of col are
// used. The controller advances the column after every transfer, wrapping at 64.
func (d *Dev) SetAddress(col uint8) error {
	if err := d.command(cmdAddress(col)); err != nil {
		return err
	}
	d.pos.Column = int(col & addressMask)
	return nil
}

// Write stores one 8-pixel column strip, bit 0 topmost, at the current position.
func (d *Dev) Write(b byte) error {
	if err := d.WaitBusy(); err != nil {
		return err
	}
	if err := d.setControl(data, write); err != nil {
		return err
	}
	if err := d.setData(b); err != nil {
		return err
	}
	if err := d.toggleClock(); err != nil {
		return err
	}
	d.pos.advance()
	return nil
}

// Read returns the column strip at the current position. No dummy read is issued: on hardware
// that needs one, the first read after SetAddress or SetPage returns stale data.
func (d *Dev) Read() (b byte, err error) {
	if err := d.WaitBusy(); err != nil {
		return 0, err
	}
	if err := d.setControl(data, read); err != nil {
		return 0, err
	}
	lines := d.pins.Data[:]
	defer d.release(lines, &err)
	if err := listen(lines); err != nil {
		return 0, err
	}

	err = d.strobe(func() {
		for i, p := range lines {
			if p.Read() == gpio.High {
				b |= 1 << uint(i)
			}
		}
	})
	if err != nil {
		return 0, err
	}
	d.pos.advance()
	return b, nil
}

// Status reads the status byte of the selected controller. It does not wait for ready, so it can
// be used to observe a busy controller.
func (d *Dev) Status() (s Status, err error) {
	if err := d.setControl(instruction, read); err != nil {
		return 0, err
	}
	for _, i := range []int{0, 1, 2, 3, 6} {
		if err := d.pins.Data[i].Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("lcd: failed to drive DB%d: %w", i, err)
		}
	}
	lines := []Pin{d.pins.Data[4], d.pins.Data[5], d.pins.Data[7]}
	defer d.release(lines, &err)
	if err := listen(lines); err != nil {
		return 0, err
	}

	err = d.strobe(func() {
		for i, flag := range []Status{StatusReset, StatusOff, StatusBusy} {
			if lines[i].Read() == gpio.High {
				s |= flag
			}
		}
	})
	return s, err
}

// WaitBusy polls the busy flag on DB7 until the controller is ready. With Opts.MaxBusyPolls set it
// gives up with ErrNotResponding; otherwise it blocks for as long as the controller stays busy.
func (d *Dev) WaitBusy() (err error) {
	if err := d.setControl(instruction, read); err != nil {
		return err
	}
	busy := d.pins.Data[7]
	defer d.release([]Pin{busy}, &err)
	if err := listen([]Pin{busy}); err != nil {
		return err
	}

	for polls := 1; ; polls++ {
		level := gpio.Low
		if err := d.strobe(func() { level = busy.Read() }); err != nil {
			return err
		}
		if level == gpio.Low {
			return nil
		}
		if d.opts.MaxBusyPolls > 0 && polls >= d.opts.MaxBusyPolls {
			log.Warnf("LCD still busy after %d polls, giving up", polls)
			return ErrNotResponding
		}
	}
}

// command clocks an instruction byte into the selected controller once it is ready.
func (d *Dev) command(op byte) error {
	if err := d.WaitBusy(); err != nil {
		return err
	}
	if err := d.setControl(instruction, write); err != nil {
		return err
	}
	if err := d.setData(op); err != nil {
		return err
	}
	return d.toggleClock()
}

// toggleClock latches whatever is on the bus into the controller.
func (d *Dev) toggleClock() error {
	return d.strobe(nil)
}

// strobe pulses enable, calling sample while it is high.
func (d *Dev) strobe(sample func()) error {
	if err := d.pins.EN.Out(gpio.High); err != nil {
		return fmt.Errorf("lcd: failed to raise EN: %w", err)
	}
	d.opts.Sleep(d.opts.ClockDelay)
	if sample != nil {
		sample()
	}
	if err := d.pins.EN.Out(gpio.Low); err != nil {
		return fmt.Errorf("lcd: failed to lower EN: %w", err)
	}
	d.opts.Sleep(d.opts.ClockDelay)
	return nil
}

func (d *Dev) setControl(rs, rw gpio.Level) error {
	if err := d.pins.RS.Out(rs); err != nil {
		return fmt.Errorf("lcd: failed to drive RS: %w", err)
	}
	if err := d.pins.RW.Out(rw); err != nil {
		return fmt.Errorf("lcd: failed to drive RW: %w", err)
	}
	return nil
}

func (d *Dev) setData(b byte) error {
	for i, p := range d.pins.Data {
		if err := p.Out(gpio.Level(b&(1<<uint(i)) != 0)); err != nil {
			return fmt.Errorf("lcd: failed to drive DB%d: %w", i, err)
		}
	}
	return nil
}

func listen(lines []Pin) error {
	for _, p := range lines {
		if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
			return fmt.Errorf("lcd: failed to switch data line to input: %w", err)
		}
	}
	return nil
}

// release hands the data lines back to the driver. It runs on every exit path of a read so the
// bus is never left floating; a failure only surfaces when nothing else went wrong first.
func (d *Dev) release(lines []Pin, err *error) {
	for _, p := range lines {
		if rerr := p.Out(gpio.Low); rerr != nil && *err == nil {
			*err = fmt.Errorf("lcd: failed to switch data line to output: %w", rerr)
		}
	}
}
