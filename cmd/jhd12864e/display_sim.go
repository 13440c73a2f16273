//go:build !pi

package main

import (
	"github.com/callebjorkell/jhd12864e/internal/lcd"
	"github.com/callebjorkell/jhd12864e/internal/sim"
	log "github.com/sirupsen/logrus"
)

func openDisplay(c *Config) (*lcd.Dev, error) {
	log.Info("Not built for the Pi, driving a simulated display")
	m := sim.New()
	pins := lcd.PinSet{RS: m.RS, RW: m.RW, EN: m.EN, CS1: m.CS1, CS2: m.CS2, RST: m.RST}
	for i, p := range m.Data {
		pins.Data[i] = p
	}
	opts := c.Opts()
	opts.Sleep = m.Clock.Sleep
	return lcd.New(pins, opts)
}
