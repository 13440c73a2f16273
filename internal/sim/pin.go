package sim

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Clock is a virtual clock advanced only by Sleep.
type Clock struct {
	now time.Duration
}

func (c *Clock) Sleep(d time.Duration) {
	c.now += d
}

// Now returns the time slept since the clock was created.
func (c *Clock) Now() time.Duration {
	return c.now
}

// Direction of a pin as seen by the host.
type Direction bool

const (
	Output Direction = false
	Input  Direction = true
)

func (d Direction) String() string {
	if d == Input {
		return "in"
	}
	return "out"
}

// Event is one host-side action on a pin.
type Event struct {
	At    time.Duration
	Pin   string
	Dir   Direction
	Level gpio.Level // driven level, meaningless for Input
}

func (e Event) String() string {
	if e.Dir == Input {
		return fmt.Sprintf("%v %s in", e.At, e.Pin)
	}
	return fmt.Sprintf("%v %s out %v", e.At, e.Pin, e.Level)
}

// Pin is a host GPIO line wired to the simulated module.
type Pin struct {
	name  string
	bit   int // data bus bit, -1 for control lines
	m     *Module
	dir   Direction
	level gpio.Level
}

func (p *Pin) String() string {
	return p.name
}

// Out drives the line, switching it to output first if needed.
func (p *Pin) Out(l gpio.Level) error {
	prev := p.level
	p.dir = Output
	p.level = l
	p.m.record(Event{At: p.m.Clock.Now(), Pin: p.name, Dir: Output, Level: l})
	if prev != l {
		p.m.edge(p, l)
	}
	return nil
}

func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return fmt.Errorf("sim: %s: edge detection not supported", p.name)
	}
	p.dir = Input
	p.m.record(Event{At: p.m.Clock.Now(), Pin: p.name, Dir: Input})
	return nil
}

// Read returns the level the module drives when the line is an input, or the host's own level.
func (p *Pin) Read() gpio.Level {
	if p.dir == Output {
		return p.level
	}
	if p.bit >= 0 && p.m.driving {
		return gpio.Level(p.m.bus&(1<<uint(p.bit)) != 0)
	}
	return gpio.Low
}

// Dir returns the current direction of the line.
func (p *Pin) Dir() Direction {
	return p.dir
}

// Level returns the level last driven by the host.
func (p *Pin) Level() gpio.Level {
	return p.level
}
