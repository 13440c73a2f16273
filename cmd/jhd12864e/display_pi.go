//go:build pi

package main

import (
	"fmt"

	"github.com/callebjorkell/jhd12864e/internal/lcd"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func init() {
	if _, err := host.Init(); err != nil {
		log.Fatalln("Unable to initialize periph:", err)
	}
}

func openDisplay(c *Config) (*lcd.Dev, error) {
	var pins lcd.PinSet
	var missing []string
	lookup := func(name string) lcd.Pin {
		p := gpioreg.ByName(name)
		if p == nil {
			missing = append(missing, name)
			return nil
		}
		return p
	}

	for i, name := range c.Pins.Data {
		pins.Data[i] = lookup(name)
	}
	pins.RS = lookup(c.Pins.RS)
	pins.RW = lookup(c.Pins.RW)
	pins.EN = lookup(c.Pins.EN)
	pins.CS1 = lookup(c.Pins.CS1)
	pins.CS2 = lookup(c.Pins.CS2)
	pins.RST = lookup(c.Pins.RST)
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown GPIO pins: %v", missing)
	}

	log.Debugf("LCD data bus on %v", c.Pins.Data)
	return lcd.New(pins, c.Opts())
}
