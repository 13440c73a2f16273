package lcd

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Pin is the part of a GPIO line the bus protocol needs. Every periph gpio.PinIO satisfies it.
type Pin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	Out(l gpio.Level) error
}

// PinSet maps the module's connector onto GPIO lines. Data[0] is DB0, the least significant bit.
type PinSet struct {
	Data [8]Pin
	RS   Pin // register select: low for instructions/status, high for display data
	RW   Pin // low to write, high to read
	EN   Pin
	CS1  Pin // left controller, active high
	CS2  Pin // right controller, active high
	RST  Pin // active low
}

// Chip is one of the two HD61202 controllers, each driving half the panel.
type Chip int

const (
	ChipLeft Chip = iota
	ChipRight
)

func (c Chip) String() string {
	switch c {
	case ChipLeft:
		return "left"
	case ChipRight:
		return "right"
	}
	return "N/A"
}

const (
	PageHeight = 8  // pixel rows in a page
	PageWidth  = 64 // columns per controller
	Pages      = 8  // pages per controller
	Chips      = 2
	Width      = Chips * PageWidth
	Height     = Pages * PageHeight

	instruction = gpio.Low
	data        = gpio.High
	write       = gpio.Low
	read        = gpio.High

	opDisplayOn  byte = 0x3F
	opDisplayOff byte = 0x3E
	opStartLine  byte = 0xC0
	opPage       byte = 0xB8
	opAddress    byte = 0x40

	startMask   byte = 0x3F
	pageMask    byte = 0x07
	addressMask byte = 0x3F

	DefaultClockDelay    = 20 * time.Microsecond
	DefaultResetLow      = 10 * time.Millisecond
	DefaultResetRecovery = 50 * time.Millisecond
)

// ErrNotResponding is returned when the controller still reports busy after Opts.MaxBusyPolls samples.
var ErrNotResponding = errors.New("lcd: controller not responding")

// Status is the byte returned by a status read. Only StatusReset, StatusOff and StatusBusy carry meaning.
type Status byte

const (
	StatusReset Status = 1 << 4
	StatusOff   Status = 1 << 5
	StatusBusy  Status = 1 << 7
)

func (s Status) Reset() bool { return s&StatusReset != 0 }
func (s Status) Off() bool   { return s&StatusOff != 0 }
func (s Status) Busy() bool  { return s&StatusBusy != 0 }

func (s Status) String() string {
	str := ""
	for _, f := range []struct {
		flag Status
		name string
	}{{StatusBusy, "busy"}, {StatusOff, "off"}, {StatusReset, "reset"}} {
		if s&f.flag == 0 {
			continue
		}
		if str != "" {
			str += "|"
		}
		str += f.name
	}
	if str == "" {
		return "ready"
	}
	return str
}

func cmdDisplay(on bool) byte {
	if on {
		return opDisplayOn
	}
	return opDisplayOff
}

// Values wider than their field are truncated, never rejected.
func cmdStartLine(line uint8) byte { return opStartLine | line&startMask }
func cmdPage(page uint8) byte      { return opPage | page&pageMask }
func cmdAddress(col uint8) byte    { return opAddress | col&addressMask }
