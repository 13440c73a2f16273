package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/callebjorkell/jhd12864e/internal/lcd"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "jhd12864e.yaml"
	defaultClockDelay = 20 // microseconds
)

type Pins struct {
	Data []string `yaml:"data"`
	RS   string   `yaml:"rs"`
	RW   string   `yaml:"rw"`
	EN   string   `yaml:"en"`
	CS1  string   `yaml:"cs1"`
	CS2  string   `yaml:"cs2"`
	RST  string   `yaml:"rst"`
}

type Config struct {
	Pins         Pins `yaml:"pins"`
	ClockDelay   int  `yaml:"clockDelay"`
	MaxBusyPolls int  `yaml:"maxBusyPolls"`
}

func defaultConfig() *Config {
	return &Config{
		Pins: Pins{
			Data: []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19", "GPIO26", "GPIO12", "GPIO16", "GPIO20"},
			RS:   "GPIO4",
			RW:   "GPIO17",
			EN:   "GPIO27",
			CS1:  "GPIO22",
			CS2:  "GPIO23",
			RST:  "GPIO24",
		},
		ClockDelay: defaultClockDelay,
	}
}

// Opts translates the timing settings for the driver.
func (c Config) Opts() *lcd.Opts {
	return &lcd.Opts{
		ClockDelay:   time.Duration(c.ClockDelay) * time.Microsecond,
		MaxBusyPolls: c.MaxBusyPolls,
	}
}

func parseConfig(content []byte) (*Config, error) {
	c := defaultConfig()
	err := yaml.Unmarshal(content, c)
	if err != nil {
		return nil, err
	}

	if len(c.Pins.Data) != 8 {
		return nil, fmt.Errorf("exactly 8 data pins must be specified, got %d", len(c.Pins.Data))
	}
	seen := make(map[string]string)
	named := []struct{ role, pin string }{
		{"rs", c.Pins.RS}, {"rw", c.Pins.RW}, {"en", c.Pins.EN},
		{"cs1", c.Pins.CS1}, {"cs2", c.Pins.CS2}, {"rst", c.Pins.RST},
	}
	for i, p := range c.Pins.Data {
		named = append(named, struct{ role, pin string }{fmt.Sprintf("data %d", i), p})
	}
	for _, n := range named {
		if n.pin == "" {
			return nil, fmt.Errorf("pin for %s must be specified", n.role)
		}
		if other, ok := seen[n.pin]; ok {
			return nil, fmt.Errorf("pin %s is used for both %s and %s", n.pin, other, n.role)
		}
		seen[n.pin] = n.role
	}
	if c.ClockDelay < 0 {
		return nil, fmt.Errorf("clock delay must not be negative")
	}
	if c.ClockDelay == 0 {
		c.ClockDelay = defaultClockDelay
	}
	if c.MaxBusyPolls < 0 {
		return nil, fmt.Errorf("max busy polls must not be negative")
	}

	return c, nil
}

func readConfig(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Infof("No configuration at %v, using default pins", path)
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return parseConfig(content)
}
