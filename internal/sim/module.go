// Package sim models a JHD12864E module, two HD61202 controllers behind a shared parallel bus, on
// top of recorded GPIO lines. Every host action is logged against a virtual clock so bus timing and
// sequencing can be checked without hardware.
package sim

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

const (
	pages   = 8
	columns = 64
)

type controller struct {
	ram    [pages][columns]byte
	page   uint8
	column uint8
	start  uint8
	on     bool
}

// Transaction is one bus cycle latched on the falling edge of EN.
type Transaction struct {
	At    int // index into Events of the falling edge
	Left  bool
	Right bool
	RS    gpio.Level
	RW    gpio.Level
	Value byte // byte on the bus: written by the host, or returned by the module
}

func (t Transaction) String() string {
	kind := map[[2]gpio.Level]string{
		{gpio.Low, gpio.Low}:   "instruction",
		{gpio.Low, gpio.High}:  "status",
		{gpio.High, gpio.Low}:  "write",
		{gpio.High, gpio.High}: "read",
	}[[2]gpio.Level{t.RS, t.RW}]
	return fmt.Sprintf("%s 0x%02x (left=%v right=%v)", kind, t.Value, t.Left, t.Right)
}

// Module is the simulated display together with the host pins wired to it.
type Module struct {
	Clock *Clock
	Data  [8]*Pin
	RS    *Pin
	RW    *Pin
	EN    *Pin
	CS1   *Pin
	CS2   *Pin
	RST   *Pin

	// Busy is the number of upcoming status cycles that report busy.
	Busy int
	// Stuck makes every status cycle report busy.
	Stuck bool

	chips        [2]controller
	events       []Event
	transactions []Transaction
	driving      bool
	bus          byte
}

// New returns a module in the state it powers up in: display off, all pins low outputs.
func New() *Module {
	m := &Module{Clock: &Clock{}}
	for i := range m.Data {
		m.Data[i] = &Pin{name: fmt.Sprintf("DB%d", i), bit: i, m: m}
	}
	m.RS = &Pin{name: "RS", bit: -1, m: m}
	m.RW = &Pin{name: "RW", bit: -1, m: m}
	m.EN = &Pin{name: "EN", bit: -1, m: m}
	m.CS1 = &Pin{name: "CS1", bit: -1, m: m}
	m.CS2 = &Pin{name: "CS2", bit: -1, m: m}
	m.RST = &Pin{name: "RST", bit: -1, m: m}
	return m
}

// Events returns every host pin action since the last Forget.
func (m *Module) Events() []Event {
	return m.events
}

// Transactions returns every bus cycle since the last Forget.
func (m *Module) Transactions() []Transaction {
	return m.transactions
}

// Forget drops the recorded history, keeping display state.
func (m *Module) Forget() {
	m.events = nil
	m.transactions = nil
}

// Strip returns the display RAM byte of chip (0 left, 1 right) at page and column.
func (m *Module) Strip(chip, page, column int) byte {
	return m.chips[chip].ram[page][column]
}

// SetStrip stores b in display RAM without a bus cycle.
func (m *Module) SetStrip(chip, page, column int, b byte) {
	m.chips[chip].ram[page][column] = b
}

func (m *Module) DisplayOn(chip int) bool {
	return m.chips[chip].on
}

func (m *Module) StartLine(chip int) uint8 {
	return m.chips[chip].start
}

// Address returns the page and column registers of chip.
func (m *Module) Address(chip int) (page, column uint8) {
	return m.chips[chip].page, m.chips[chip].column
}

func (m *Module) record(e Event) {
	m.events = append(m.events, e)
}

func (m *Module) selected() []*controller {
	var s []*controller
	if m.CS1.level == gpio.High {
		s = append(s, &m.chips[0])
	}
	if m.CS2.level == gpio.High {
		s = append(s, &m.chips[1])
	}
	return s
}

func (m *Module) inReset() bool {
	return m.RST.level == gpio.Low
}

func (m *Module) edge(p *Pin, l gpio.Level) {
	switch {
	case p == m.RST && l == gpio.Low:
		log.Debug("sim: reset asserted")
		for i := range m.chips {
			m.chips[i].on = false
			m.chips[i].start = 0
		}
	case p == m.EN && l == gpio.High:
		m.enableRise()
	case p == m.EN && l == gpio.Low:
		m.enableFall()
	}
}

// enableRise puts the module's output on the bus for read cycles.
func (m *Module) enableRise() {
	if m.RW.level == gpio.Low {
		return
	}
	var out byte
	for _, c := range m.selected() {
		if m.RS.level == gpio.Low {
			out |= m.status(c)
		} else {
			out |= c.ram[c.page][c.column]
		}
	}
	if m.RS.level == gpio.Low {
		if m.Stuck || m.Busy > 0 {
			out |= 0x80
			if m.Busy > 0 {
				m.Busy--
			}
		}
	}
	m.bus = out
	m.driving = true
}

func (m *Module) status(c *controller) byte {
	var s byte
	if m.inReset() {
		s |= 0x10
	}
	if !c.on {
		s |= 0x20
	}
	return s
}

// enableFall latches host writes and completes reads.
func (m *Module) enableFall() {
	t := Transaction{
		At:    len(m.events) - 1,
		Left:  m.CS1.level == gpio.High,
		Right: m.CS2.level == gpio.High,
		RS:    m.RS.level,
		RW:    m.RW.level,
	}
	if m.RW.level == gpio.High {
		t.Value = m.bus
		m.driving = false
		if m.RS.level == gpio.High && !m.inReset() {
			for _, c := range m.selected() {
				c.column = (c.column + 1) % columns
			}
		}
		m.transactions = append(m.transactions, t)
		return
	}

	for i, p := range m.Data {
		if p.dir == Output && p.level == gpio.High {
			t.Value |= 1 << uint(i)
		}
	}
	m.transactions = append(m.transactions, t)
	if m.inReset() {
		return
	}
	for _, c := range m.selected() {
		if m.RS.level == gpio.High {
			c.ram[c.page][c.column] = t.Value
			c.column = (c.column + 1) % columns
			continue
		}
		execute(c, t.Value)
	}
}

func execute(c *controller, op byte) {
	switch {
	case op&0xC0 == 0xC0:
		c.start = op & 0x3F
	case op&0xF8 == 0xB8:
		c.page = op & 0x07
	case op&0xC0 == 0x40:
		c.column = op & 0x3F
	case op&0xFE == 0x3E:
		c.on = op&0x01 != 0
	default:
		log.Debugf("sim: ignoring unknown instruction 0x%02x", op)
		return
	}
	log.Debugf("sim: instruction 0x%02x", op)
}
