package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
pins:
  data: [GPIO2, GPIO3, GPIO4, GPIO5, GPIO6, GPIO7, GPIO8, GPIO9]
  rs: GPIO10
  rw: GPIO11
  en: GPIO12
  cs1: GPIO13
  cs2: GPIO14
  rst: GPIO15
clockDelay: 5
maxBusyPolls: 1000
`

func TestParseConfig(t *testing.T) {
	c, err := parseConfig([]byte(validConfig))
	require.NoError(t, err)
	assert.Equal(t, "GPIO2", c.Pins.Data[0])
	assert.Equal(t, "GPIO9", c.Pins.Data[7])
	assert.Equal(t, "GPIO13", c.Pins.CS1)
	assert.Equal(t, "GPIO15", c.Pins.RST)

	opts := c.Opts()
	assert.Equal(t, 5*time.Microsecond, opts.ClockDelay)
	assert.Equal(t, 1000, opts.MaxBusyPolls)
}

func TestParseConfigDefaults(t *testing.T) {
	c, err := parseConfig([]byte("maxBusyPolls: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().Pins, c.Pins)
	assert.Equal(t, defaultClockDelay, c.ClockDelay)
	assert.Equal(t, 10, c.MaxBusyPolls)
}

func TestParseConfigErrors(t *testing.T) {
	tt := []struct {
		name    string
		content string
		err     string
	}{
		{"too few data pins", "pins:\n  data: [GPIO2, GPIO3]\n", "exactly 8 data pins must be specified, got 2"},
		{"missing control pin", "pins:\n  rw: \"\"\n", "pin for rw must be specified"},
		{"reused pin", "pins:\n  rst: GPIO4\n", "pin GPIO4 is used for both rs and rst"},
		{"negative clock delay", "clockDelay: -1\n", "clock delay must not be negative"},
		{"negative polls", "maxBusyPolls: -3\n", "max busy polls must not be negative"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseConfig([]byte(tc.content))
			assert.EqualError(t, err, tc.err)
		})
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	c, err := readConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), c)
}
